// session/session.go
package session

import (
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/wfunc/basta/network"
)

// Session binds one websocket connection to a player identity. PlayerName
// and RoomID are set once the session joins a room and rebound on
// reconnect.
type Session struct {
	ID         string
	Conn       network.Connection
	PlayerName string
	RoomID     string
	CreatedAt  time.Time
	LastActive time.Time
	limiter    *rate.Limiter
	mutex      sync.RWMutex
}

// NewSession creates a session whose mutating intents are gated by a
// limiter allowing events intents per interval.
func NewSession(id string, conn network.Connection, events int, interval time.Duration) *Session {
	now := time.Now()
	if events <= 0 {
		events = 1
	}
	if interval <= 0 {
		interval = time.Second
	}
	return &Session{
		ID:         id,
		Conn:       conn,
		CreatedAt:  now,
		LastActive: now,
		limiter:    rate.NewLimiter(rate.Every(interval/time.Duration(events)), events),
	}
}

// Allow consumes one slot of the rate guard. A false return means the
// intent must be rejected before any domain logic runs.
func (s *Session) Allow() bool {
	return s.limiter.Allow()
}

func (s *Session) Send(evt network.Event) error {
	s.mutex.Lock()
	s.LastActive = time.Now()
	s.mutex.Unlock()
	return s.Conn.SendEvent(evt)
}

func (s *Session) GetID() string {
	return s.ID
}

func (s *Session) BindPlayer(roomID, playerName string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.RoomID = roomID
	s.PlayerName = playerName
}

func (s *Session) Unbind() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.RoomID = ""
	s.PlayerName = ""
}

func (s *Session) Bound() (roomID, playerName string) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.RoomID, s.PlayerName
}

func (s *Session) Close() error {
	return s.Conn.Close()
}

// Manager tracks live sessions by id.
type Manager struct {
	sessions map[string]*Session
	mutex    sync.RWMutex
}

func NewManager() *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
	}
}

func (m *Manager) Add(session *Session) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.sessions[session.ID] = session
}

func (m *Manager) Remove(sessionID string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	delete(m.sessions, sessionID)
}

func (m *Manager) Get(sessionID string) (*Session, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	session, exists := m.sessions[sessionID]
	return session, exists
}

// GetByRoom returns every session currently bound to roomID.
func (m *Manager) GetByRoom(roomID string) []*Session {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	var result []*Session
	for _, s := range m.sessions {
		rid, _ := s.Bound()
		if rid == roomID {
			result = append(result, s)
		}
	}
	return result
}

func (m *Manager) Count() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.sessions)
}
