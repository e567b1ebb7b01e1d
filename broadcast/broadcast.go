// broadcast/broadcast.go
package broadcast

import (
	"errors"

	"github.com/wfunc/basta/network"
	"github.com/wfunc/basta/session"
)

var (
	ErrSessionNotFound = errors.New("session not found")
)

// RoomBroadcaster fans events out to every session bound to a room. It
// satisfies the room.Broadcaster interface.
type RoomBroadcaster struct {
	sessionManager *session.Manager
}

func NewRoomBroadcaster(sessionManager *session.Manager) *RoomBroadcaster {
	return &RoomBroadcaster{sessionManager: sessionManager}
}

// BroadcastToRoom delivers evt to every session of roomID. Send failures
// are skipped; the disconnect path cleans those sessions up.
func (b *RoomBroadcaster) BroadcastToRoom(roomID string, evt network.Event) error {
	for _, s := range b.sessionManager.GetByRoom(roomID) {
		if err := s.Send(evt); err != nil {
			continue
		}
	}
	return nil
}

// SendToSession delivers evt to a single session.
func (b *RoomBroadcaster) SendToSession(sessionID string, evt network.Event) error {
	s, exists := b.sessionManager.Get(sessionID)
	if !exists {
		return ErrSessionNotFound
	}
	return s.Send(evt)
}
