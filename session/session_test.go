package session

import (
	"net"
	"testing"
	"time"

	"github.com/wfunc/basta/network"
)

// MockConnection is a test double for the network.Connection interface.
type MockConnection struct {
	sent []network.Event
}

func (m *MockConnection) SendEvent(evt network.Event) error {
	m.sent = append(m.sent, evt)
	return nil
}
func (m *MockConnection) ReadEvent() (*network.Event, error) { return nil, nil }
func (m *MockConnection) Close() error                       { return nil }
func (m *MockConnection) RemoteAddr() net.Addr               { return &net.TCPAddr{} }
func (m *MockConnection) SetHeartbeat(interval time.Duration) {}

func newTestSession(id string) *Session {
	return NewSession(id, &MockConnection{}, 100, time.Second)
}

func TestNewManager(t *testing.T) {
	manager := NewManager()
	if manager == nil {
		t.Fatal("NewManager should not return nil")
	}
	if manager.sessions == nil {
		t.Fatal("NewManager should initialize the sessions map")
	}
}

func TestManager_Add_Get_Remove(t *testing.T) {
	manager := NewManager()
	sess := newTestSession("test_session_1")

	manager.Add(sess)
	if manager.Count() != 1 {
		t.Fatalf("Expected session count to be 1, got %d", manager.Count())
	}

	retrieved, exists := manager.Get("test_session_1")
	if !exists {
		t.Fatal("Get should find the added session")
	}
	if retrieved != sess {
		t.Fatal("Get should return the same session instance")
	}

	manager.Remove("test_session_1")
	if manager.Count() != 0 {
		t.Fatalf("Expected session count to be 0 after removal, got %d", manager.Count())
	}
	if _, exists = manager.Get("test_session_1"); exists {
		t.Fatal("Get should not find the removed session")
	}
}

func TestManager_GetByRoom(t *testing.T) {
	manager := NewManager()

	sess1 := newTestSession("session1")
	sess1.BindPlayer("room_a", "ana")
	sess2 := newTestSession("session2")
	sess2.BindPlayer("room_b", "beto")
	sess3 := newTestSession("session3")
	sess3.BindPlayer("room_a", "carla")

	manager.Add(sess1)
	manager.Add(sess2)
	manager.Add(sess3)

	if got := manager.GetByRoom("room_a"); len(got) != 2 {
		t.Errorf("Expected 2 sessions in room_a, got %d", len(got))
	}
	if got := manager.GetByRoom("room_b"); len(got) != 1 {
		t.Errorf("Expected 1 session in room_b, got %d", len(got))
	}
	if got := manager.GetByRoom("room_c"); len(got) != 0 {
		t.Errorf("Expected 0 sessions in room_c, got %d", len(got))
	}
}

func TestSession_BindUnbind(t *testing.T) {
	sess := newTestSession("test_session")

	sess.BindPlayer("room_1", "ana")
	roomID, name := sess.Bound()
	if roomID != "room_1" || name != "ana" {
		t.Errorf("Bound() = (%q, %q), want (room_1, ana)", roomID, name)
	}

	sess.Unbind()
	roomID, name = sess.Bound()
	if roomID != "" || name != "" {
		t.Errorf("expected empty binding after Unbind, got (%q, %q)", roomID, name)
	}
}

func TestSession_RateGuard(t *testing.T) {
	sess := NewSession("limited", &MockConnection{}, 3, time.Minute)

	allowed := 0
	for i := 0; i < 10; i++ {
		if sess.Allow() {
			allowed++
		}
	}
	if allowed != 3 {
		t.Errorf("expected 3 allowed intents in the window, got %d", allowed)
	}

	// The guard fails closed: further intents keep being rejected.
	if sess.Allow() {
		t.Error("expected the guard to keep rejecting within the same window")
	}
}
