package room

import (
	"strings"
	"time"

	"github.com/wfunc/basta/scoring"
	"github.com/wfunc/basta/words"
)

// Player is one seat in a room, identified by display name. The session
// id is the transport binding and changes on reconnect.
type Player struct {
	SessionID      string
	Name           string
	Creator        bool
	Connected      bool
	DisconnectedAt time.Time
	Score          int
	LastBreakdown  scoring.Breakdown

	// pending grace-period removal task, owned by this entry so a
	// reconnect can cancel it directly.
	graceTask int64
}

// Registry tracks the players of one room. Names are unique
// case-insensitively; join order is preserved for creator promotion.
// Not safe for concurrent use; the owning room serializes access.
type Registry struct {
	players map[string]*Player // lowercase name -> player
	order   []string           // lowercase names, join order
}

func NewRegistry() *Registry {
	return &Registry{players: make(map[string]*Player)}
}

func nameKey(name string) string {
	return strings.ToLower(name)
}

// Add registers a new connected player. The name is normalized first;
// an empty result or a case-insensitive collision is rejected.
func (reg *Registry) Add(name, sessionID string, creator bool) (*Player, error) {
	clean := words.SanitizeName(name)
	if clean == "" {
		return nil, ErrInvalidName
	}
	key := nameKey(clean)
	if _, exists := reg.players[key]; exists {
		return nil, ErrDuplicateName
	}

	p := &Player{
		SessionID: sessionID,
		Name:      clean,
		Creator:   creator,
		Connected: true,
	}
	reg.players[key] = p
	reg.order = append(reg.order, key)
	return p, nil
}

// Get finds a player by name, case-insensitive.
func (reg *Registry) Get(name string) *Player {
	return reg.players[nameKey(name)]
}

// GetBySession finds the player bound to sessionID.
func (reg *Registry) GetBySession(sessionID string) *Player {
	for _, key := range reg.order {
		if p := reg.players[key]; p.SessionID == sessionID {
			return p
		}
	}
	return nil
}

// Remove drops a player permanently. Scores go with the seat.
func (reg *Registry) Remove(name string) {
	key := nameKey(name)
	if _, exists := reg.players[key]; !exists {
		return
	}
	delete(reg.players, key)
	for i, k := range reg.order {
		if k == key {
			reg.order = append(reg.order[:i], reg.order[i+1:]...)
			break
		}
	}
}

// MarkDisconnected flips the player bound to sessionID to disconnected
// and stamps the time. The seat and score stay.
func (reg *Registry) MarkDisconnected(sessionID string) *Player {
	p := reg.GetBySession(sessionID)
	if p == nil {
		return nil
	}
	p.Connected = false
	p.DisconnectedAt = time.Now()
	return p
}

// Reconnect rebinds an existing seat, found by name, to a new session.
func (reg *Registry) Reconnect(name, newSessionID string) (*Player, error) {
	p := reg.Get(name)
	if p == nil {
		return nil, ErrPlayerNotFound
	}
	p.SessionID = newSessionID
	p.Connected = true
	p.DisconnectedAt = time.Time{}
	return p, nil
}

// All returns every player in join order.
func (reg *Registry) All() []*Player {
	result := make([]*Player, 0, len(reg.order))
	for _, key := range reg.order {
		result = append(result, reg.players[key])
	}
	return result
}

// Connected returns the connected players in join order.
func (reg *Registry) Connected() []*Player {
	var result []*Player
	for _, key := range reg.order {
		if p := reg.players[key]; p.Connected {
			result = append(result, p)
		}
	}
	return result
}

func (reg *Registry) Len() int {
	return len(reg.players)
}

func (reg *Registry) ConnectedCount() int {
	return len(reg.Connected())
}

// Creator returns the current creator, nil when the room is empty.
func (reg *Registry) Creator() *Player {
	for _, key := range reg.order {
		if p := reg.players[key]; p.Creator {
			return p
		}
	}
	return nil
}

func (reg *Registry) CreatorName() string {
	if p := reg.Creator(); p != nil {
		return p.Name
	}
	return ""
}

// PromoteCreator makes the first connected player the creator and
// returns it, nil when nobody is connected. At most one creator exists
// at a time.
func (reg *Registry) PromoteCreator() *Player {
	for _, p := range reg.All() {
		p.Creator = false
	}
	for _, key := range reg.order {
		if p := reg.players[key]; p.Connected {
			p.Creator = true
			return p
		}
	}
	return nil
}
