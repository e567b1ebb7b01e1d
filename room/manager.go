package room

import (
	"sync"

	"github.com/google/uuid"

	"github.com/wfunc/basta/logger"
	"github.com/wfunc/basta/scoring"
	"github.com/wfunc/basta/timer"
)

// Manager is the room directory: it owns the id -> room map, hands
// intents to the right room and garbage-collects empty shells. Multiple
// independent managers can coexist (tests build their own).
type Manager struct {
	rooms       map[string]*Room
	mutex       sync.RWMutex
	sched       *timer.Manager
	broadcaster Broadcaster
	onRoundEnd  func(r *Room, round int)
	onGameEnd   func(r *Room, standings []scoring.Standing)
}

func NewManager(sched *timer.Manager, broadcaster Broadcaster) *Manager {
	return &Manager{
		rooms:       make(map[string]*Room),
		sched:       sched,
		broadcaster: broadcaster,
	}
}

// SetGameEndHook installs a callback fired once per finished game, used
// for persistence and metrics. Must be set before rooms are created.
func (m *Manager) SetGameEndHook(fn func(r *Room, standings []scoring.Standing)) {
	m.onGameEnd = fn
}

// SetRoundEndHook installs a callback fired once per scored round. Must
// be set before rooms are created.
func (m *Manager) SetRoundEndHook(fn func(r *Room, round int)) {
	m.onRoundEnd = fn
}

// CreateRoom builds a room with a fresh opaque id and registers it.
func (m *Manager) CreateRoom(opts Options) *Room {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	id := uuid.New().String()
	r := NewRoom(id, opts, m.broadcaster, m.sched)
	r.onEmpty = m.removeEmpty
	r.onRoundEnd = m.onRoundEnd
	r.onGameEnd = m.onGameEnd
	m.rooms[id] = r

	logger.Log.Infof("room %s created (%s, max %d, rounds %d)", id, r.Name, r.MaxPlayers, r.maxRounds)
	return r
}

// GetRoom finds a room by id.
func (m *Manager) GetRoom(id string) (*Room, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	r, exists := m.rooms[id]
	return r, exists
}

// RemoveRoom closes a room and drops it from the directory.
func (m *Manager) RemoveRoom(id string) {
	m.mutex.Lock()
	r, exists := m.rooms[id]
	if exists {
		delete(m.rooms, id)
	}
	m.mutex.Unlock()

	if exists {
		r.Close()
		logger.Log.Infof("room %s removed", id)
	}
}

// List returns the public directory listing.
func (m *Manager) List() []Summary {
	m.mutex.RLock()
	rooms := make([]*Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		rooms = append(rooms, r)
	}
	m.mutex.RUnlock()

	summaries := make([]Summary, 0, len(rooms))
	for _, r := range rooms {
		summaries = append(summaries, r.Summary())
	}
	return summaries
}

func (m *Manager) Count() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.rooms)
}

// removeEmpty is the room's onEmpty callback.
func (m *Manager) removeEmpty(id string) {
	m.RemoveRoom(id)
}
