package server

import (
	"encoding/json"
	"io"
	"net"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/wfunc/basta/broadcast"
	"github.com/wfunc/basta/config"
	"github.com/wfunc/basta/logger"
	"github.com/wfunc/basta/network"
	"github.com/wfunc/basta/room"
	"github.com/wfunc/basta/session"
	"github.com/wfunc/basta/timer"
)

func TestMain(m *testing.M) {
	logger.Init(true)
	os.Exit(m.Run())
}

// MockConnection is a test double for the network.Connection interface
// that records every event sent to it.
type MockConnection struct {
	mu   sync.Mutex
	sent []network.Event
}

func (c *MockConnection) SendEvent(evt network.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, evt)
	return nil
}

func (c *MockConnection) ReadEvent() (*network.Event, error) { return nil, io.EOF }
func (c *MockConnection) Close() error                       { return nil }
func (c *MockConnection) RemoteAddr() net.Addr               { return &net.TCPAddr{} }
func (c *MockConnection) SetHeartbeat(interval time.Duration) {}

func (c *MockConnection) lastSent(t *testing.T) network.Event {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.sent) == 0 {
		t.Fatal("expected an event to be sent")
	}
	return c.sent[len(c.sent)-1]
}

// newTestServer builds a server without the websocket listener, RPC
// endpoint or metrics, which the handlers under test do not touch.
func newTestServer() *GameServer {
	sessionManager := session.NewManager()
	broadcaster := broadcast.NewRoomBroadcaster(sessionManager)
	sched := timer.NewManager()
	return &GameServer{
		cfg:            &config.Config{},
		sessionManager: sessionManager,
		broadcaster:    broadcaster,
		sched:          sched,
		roomManager:    room.NewManager(sched, broadcaster),
		shutdownChan:   make(chan struct{}),
	}
}

func newTestSession(s *GameServer, id string) (*session.Session, *MockConnection) {
	conn := &MockConnection{}
	sess := session.NewSession(id, conn, 100, time.Second)
	s.sessionManager.Add(sess)
	return sess, conn
}

func inbound(t *testing.T, eventType string, payload interface{}) *network.Event {
	t.Helper()
	evt, err := network.NewEvent(eventType, payload)
	if err != nil {
		t.Fatalf("building %s event: %v", eventType, err)
	}
	return &evt
}

func TestGetRoomState_ByRoomIDWithoutJoining(t *testing.T) {
	s := newTestServer()
	defer s.sched.Stop()

	r := s.roomManager.CreateRoom(room.Options{Name: "Sala", MaxPlayers: 4, MaxRounds: 5})

	// A browsing session that never joined any room.
	sess, conn := newTestSession(s, "outsider")
	s.handleGetRoomState(sess, inbound(t, network.EvtGetRoomState, map[string]string{"roomId": r.ID}))

	evt := conn.lastSent(t)
	if evt.Type != network.EvtRoomState {
		t.Fatalf("expected roomState, got %s", evt.Type)
	}
	var snap room.StatePayload
	if err := json.Unmarshal(evt.Data, &snap); err != nil {
		t.Fatalf("unmarshal roomState: %v", err)
	}
	if snap.RoomID != r.ID {
		t.Errorf("expected snapshot of room %s, got %s", r.ID, snap.RoomID)
	}
}

func TestGetRoomState_UnknownRoomID(t *testing.T) {
	s := newTestServer()
	defer s.sched.Stop()

	sess, conn := newTestSession(s, "outsider")
	s.handleGetRoomState(sess, inbound(t, network.EvtGetRoomState, map[string]string{"roomId": "nope"}))

	evt := conn.lastSent(t)
	if evt.Type != network.EvtError {
		t.Fatalf("expected error, got %s", evt.Type)
	}
}

func TestGetRoomState_FallsBackToBoundRoom(t *testing.T) {
	s := newTestServer()
	defer s.sched.Stop()

	r := s.roomManager.CreateRoom(room.Options{Name: "Sala", MaxPlayers: 4, MaxRounds: 5})
	sess, conn := newTestSession(s, "s1")
	if _, err := r.Join(sess.GetID(), "Ana", ""); err != nil {
		t.Fatalf("Join failed: %v", err)
	}
	sess.BindPlayer(r.ID, "Ana")

	// No payload at all: the bound room answers.
	s.handleGetRoomState(sess, &network.Event{Type: network.EvtGetRoomState})

	evt := conn.lastSent(t)
	if evt.Type != network.EvtRoomState {
		t.Fatalf("expected roomState, got %s", evt.Type)
	}
	var snap room.StatePayload
	if err := json.Unmarshal(evt.Data, &snap); err != nil {
		t.Fatalf("unmarshal roomState: %v", err)
	}
	if snap.RoomID != r.ID {
		t.Errorf("expected snapshot of room %s, got %s", r.ID, snap.RoomID)
	}

	// Unbound and no roomId: nothing to serve.
	outsider, outConn := newTestSession(s, "s2")
	s.handleGetRoomState(outsider, &network.Event{Type: network.EvtGetRoomState})
	if evt := outConn.lastSent(t); evt.Type != network.EvtError {
		t.Errorf("expected error for unbound session, got %s", evt.Type)
	}
}
