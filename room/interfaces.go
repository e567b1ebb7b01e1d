package room

import "github.com/wfunc/basta/network"

// Broadcaster delivers events to the sessions of a room or to a single
// session. Defined here to break the import cycle with the broadcast
// package.
type Broadcaster interface {
	BroadcastToRoom(roomID string, evt network.Event) error
	SendToSession(sessionID string, evt network.Event) error
}
