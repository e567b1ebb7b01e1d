package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/wfunc/basta/broadcast"
	"github.com/wfunc/basta/config"
	"github.com/wfunc/basta/logger"
	"github.com/wfunc/basta/monitor"
	"github.com/wfunc/basta/network"
	"github.com/wfunc/basta/room"
	"github.com/wfunc/basta/scoring"
	"github.com/wfunc/basta/services"
	"github.com/wfunc/basta/session"
	"github.com/wfunc/basta/state"
	"github.com/wfunc/basta/timer"

	basta_rpc "github.com/wfunc/basta/rpc"
)

// GameServer owns the websocket endpoint and routes client events to
// rooms. Rate limiting and payload validation happen here, before any
// room lock is taken.
type GameServer struct {
	cfg            *config.Config
	upgrader       websocket.Upgrader
	roomManager    *room.Manager
	sessionManager *session.Manager
	recordService  *services.RecordService
	broadcaster    *broadcast.RoomBroadcaster
	sched          *timer.Manager
	rpcServer      *basta_rpc.Server
	mon            *monitor.Monitor
	shutdownChan   chan struct{}
}

func NewGameServer(cfg *config.Config, recordService *services.RecordService, mon *monitor.Monitor) *GameServer {
	s := &GameServer{
		cfg:            cfg,
		sessionManager: session.NewManager(),
		recordService:  recordService,
		sched:          timer.NewManager(),
		mon:            mon,
		shutdownChan:   make(chan struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}

	s.broadcaster = broadcast.NewRoomBroadcaster(s.sessionManager)
	s.roomManager = room.NewManager(s.sched, s.broadcaster)
	s.roomManager.SetRoundEndHook(s.onRoundEnd)
	s.roomManager.SetGameEndHook(s.onGameEnd)

	rpcServer, err := basta_rpc.NewServer(cfg.Server.RPCAddress)
	if err != nil {
		logger.Log.Fatalf("Failed to create RPC server: %v", err)
	}
	s.rpcServer = rpcServer

	gameService := basta_rpc.NewGameService(recordService, s.roomManager)
	if err := rpcServer.Register(gameService); err != nil {
		logger.Log.Fatalf("Failed to register RPC service: %v", err)
	}

	return s
}

func (s *GameServer) Start() error {
	go s.rpcServer.Start()

	http.HandleFunc("/ws", s.handleWebSocket)
	http.HandleFunc("/rooms", s.handleListRooms)
	logger.Log.Infof("Game server listening on %s", s.cfg.Server.HTTPAddress)
	return http.ListenAndServe(s.cfg.Server.HTTPAddress, nil)
}

func (s *GameServer) Shutdown() {
	close(s.shutdownChan)
	s.rpcServer.Stop()
	s.sched.Stop()
}

func (s *GameServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Infof("Failed to upgrade connection: %v", err)
		return
	}
	s.handleConnection(conn)
}

// handleListRooms serves the public room directory over plain HTTP so a
// lobby browser does not need a websocket.
func (s *GameServer) handleListRooms(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.roomManager.List()); err != nil {
		logger.Log.Errorf("Failed to encode room list: %v", err)
	}
}

func (s *GameServer) handleConnection(conn *websocket.Conn) {
	wsConn := network.NewWSConnection(conn)
	sess := session.NewSession(uuid.New().String(), wsConn, s.cfg.Rate.Events, s.cfg.Rate.Interval)
	s.sessionManager.Add(sess)
	s.mon.IncOnlinePlayers()

	logger.Log.Infof("New connection from %s, session ID: %s", wsConn.RemoteAddr(), sess.GetID())

	defer func() {
		logger.Log.Infof("Connection closed from %s, session ID: %s", wsConn.RemoteAddr(), sess.GetID())
		s.handleDisconnect(sess)
		s.sessionManager.Remove(sess.GetID())
		s.mon.DecOnlinePlayers()
		wsConn.Close()
	}()

	for {
		select {
		case <-s.shutdownChan:
			return
		default:
			evt, err := wsConn.ReadEvent()
			if err != nil {
				return
			}
			s.handleEvent(sess, evt)
		}
	}
}

// handleDisconnect tells the player's room the transport dropped. The
// seat enters its grace window; the session itself is gone.
func (s *GameServer) handleDisconnect(sess *session.Session) {
	roomID, _ := sess.Bound()
	if roomID == "" {
		return
	}
	if r, ok := s.roomManager.GetRoom(roomID); ok {
		r.HandleDisconnect(sess.GetID())
	}
	s.mon.SetActiveRooms(s.roomManager.Count())
}

func (s *GameServer) handleEvent(sess *session.Session, evt *network.Event) {
	if evt.Type == network.EvtHeartbeat {
		sess.LastActive = time.Now()
		return
	}

	if !sess.Allow() {
		s.mon.IncIntentsRejected("rate_limit")
		s.sendError(sess, "too many requests")
		return
	}

	s.mon.IncIntentsReceived()
	started := time.Now()
	defer func() {
		s.mon.ObserveIntentLatency(time.Since(started))
	}()

	switch evt.Type {
	case network.EvtCreateRoom:
		s.handleCreateRoom(sess, evt)
	case network.EvtJoinRoom:
		s.handleJoinRoom(sess, evt)
	case network.EvtLeaveRoom:
		s.handleLeaveRoom(sess)
	case network.EvtGetRoomState:
		s.handleGetRoomState(sess, evt)
	case network.EvtReconnectPlayer:
		s.handleReconnect(sess, evt)
	case network.EvtStartGame:
		s.handleStartGame(sess)
	case network.EvtSubmitWords:
		s.handleSubmitWords(sess, evt)
	case network.EvtCastVote:
		s.handleCastVote(sess, evt)
	case network.EvtNextRound:
		s.handleNextRound(sess, evt)
	default:
		logger.Log.Infof("Unknown event type %q from session %s", evt.Type, sess.GetID())
		s.sendError(sess, "unknown event type")
	}
}

type createRoomRequest struct {
	PlayerName string `json:"playerName"`
	RoomName   string `json:"roomName"`
	MaxPlayers int    `json:"maxPlayers"`
	IsPrivate  bool   `json:"isPrivate"`
	Password   string `json:"password"`
	Rounds     int    `json:"rounds"`
}

func (s *GameServer) handleCreateRoom(sess *session.Session, evt *network.Event) {
	var req createRoomRequest
	if err := json.Unmarshal(evt.Data, &req); err != nil {
		s.sendError(sess, "invalid payload")
		return
	}
	if roomID, _ := sess.Bound(); roomID != "" {
		s.sendError(sess, "already in a room")
		return
	}

	g := s.cfg.Game
	opts := room.Options{
		Name:       req.RoomName,
		Private:    req.IsPrivate,
		Password:   req.Password,
		MaxPlayers: req.MaxPlayers,
		MaxRounds:  req.Rounds,
		Categories: g.Categories,
		Alphabet:   g.Alphabet,
		Rules: state.Rules{
			WritingSeconds:        g.WritingSeconds,
			ReviewSeconds:         g.ReviewSeconds,
			ResultsDelay:          time.Duration(g.ResultsDelayMillis) * time.Millisecond,
			Categories:            g.Categories,
			ClassicScoring:        g.ClassicScoring,
			TieBreakValid:         g.TieBreakValid,
			CountDisconnectedGate: g.CountDisconnectedGate,
		},
		GraceSeconds:     g.GraceSeconds,
		RetentionSeconds: g.RoomRetentionSeconds,
	}
	if opts.MaxPlayers <= 0 {
		opts.MaxPlayers = g.DefaultMaxPlayers
	}
	if opts.MaxPlayers > g.MaxPlayersCap {
		opts.MaxPlayers = g.MaxPlayersCap
	}
	if opts.MaxRounds <= 0 {
		opts.MaxRounds = g.DefaultRounds
	}
	if opts.MaxRounds > 20 {
		opts.MaxRounds = 20
	}

	r := s.roomManager.CreateRoom(opts)
	player, err := r.Join(sess.GetID(), req.PlayerName, req.Password)
	if err != nil {
		s.roomManager.RemoveRoom(r.ID)
		s.sendError(sess, err.Error())
		return
	}
	sess.BindPlayer(r.ID, player.Name)
	s.mon.SetActiveRooms(s.roomManager.Count())

	logger.Log.Infof("Session %s created room %s (%q)", sess.GetID(), r.ID, r.Name)

	s.sendEvent(sess, network.EvtRoomCreated, map[string]interface{}{
		"roomId":     r.ID,
		"name":       r.Name,
		"maxPlayers": r.MaxPlayers,
		"rounds":     opts.MaxRounds,
		"isPrivate":  r.Private,
	})
	s.sendJoined(sess, r, player)
}

type joinRoomRequest struct {
	RoomID     string `json:"roomId"`
	PlayerName string `json:"playerName"`
	Password   string `json:"password"`
}

func (s *GameServer) handleJoinRoom(sess *session.Session, evt *network.Event) {
	var req joinRoomRequest
	if err := json.Unmarshal(evt.Data, &req); err != nil {
		s.sendError(sess, "invalid payload")
		return
	}
	if roomID, _ := sess.Bound(); roomID != "" {
		s.sendError(sess, "already in a room")
		return
	}

	r, ok := s.roomManager.GetRoom(req.RoomID)
	if !ok {
		s.sendError(sess, room.ErrRoomNotFound.Error())
		return
	}

	// Bind before joining so this session receives its own playerJoined.
	sess.BindPlayer(r.ID, "")
	player, err := r.Join(sess.GetID(), req.PlayerName, req.Password)
	if err != nil {
		sess.Unbind()
		s.mon.IncIntentsRejected(rejectReason(err))
		s.sendError(sess, err.Error())
		return
	}
	sess.BindPlayer(r.ID, player.Name)

	logger.Log.Infof("Session %s joined room %s as %q", sess.GetID(), r.ID, player.Name)
	s.sendJoined(sess, r, player)
}

func (s *GameServer) sendJoined(sess *session.Session, r *room.Room, player *room.Player) {
	snapshot := r.Snapshot()
	s.sendEvent(sess, network.EvtJoinedRoom, map[string]interface{}{
		"roomId":     r.ID,
		"playerName": player.Name,
		"isCreator":  player.Creator,
		"categories": s.cfg.Game.Categories,
		"state":      snapshot,
	})
}

func (s *GameServer) handleLeaveRoom(sess *session.Session) {
	roomID, _ := sess.Bound()
	if roomID == "" {
		return
	}
	if r, ok := s.roomManager.GetRoom(roomID); ok {
		r.Leave(sess.GetID())
	}
	sess.Unbind()
	s.mon.SetActiveRooms(s.roomManager.Count())
}

type getRoomStateRequest struct {
	RoomID string `json:"roomId"`
}

// handleGetRoomState serves a snapshot of an explicitly named room, so a
// lobby browser can inspect one before joining, or of the session's bound
// room when no roomId is given.
func (s *GameServer) handleGetRoomState(sess *session.Session, evt *network.Event) {
	var req getRoomStateRequest
	if len(evt.Data) > 0 {
		if err := json.Unmarshal(evt.Data, &req); err != nil {
			s.sendError(sess, "invalid payload")
			return
		}
	}

	if req.RoomID != "" {
		r, ok := s.roomManager.GetRoom(req.RoomID)
		if !ok {
			s.sendError(sess, room.ErrRoomNotFound.Error())
			return
		}
		s.sendEvent(sess, network.EvtRoomState, r.Snapshot())
		return
	}

	r, ok := s.boundRoom(sess)
	if !ok {
		return
	}
	s.sendEvent(sess, network.EvtRoomState, r.Snapshot())
}

type reconnectRequest struct {
	RoomID     string `json:"roomId"`
	PlayerName string `json:"playerName"`
}

func (s *GameServer) handleReconnect(sess *session.Session, evt *network.Event) {
	var req reconnectRequest
	if err := json.Unmarshal(evt.Data, &req); err != nil {
		s.sendError(sess, "invalid payload")
		return
	}

	r, ok := s.roomManager.GetRoom(req.RoomID)
	if !ok {
		s.sendError(sess, room.ErrRoomNotFound.Error())
		return
	}

	// Bind first so Reconnect's roomState broadcast reaches this session.
	sess.BindPlayer(r.ID, "")
	player, err := r.Reconnect(req.PlayerName, sess.GetID())
	if err != nil {
		sess.Unbind()
		s.mon.IncIntentsRejected(rejectReason(err))
		s.sendError(sess, err.Error())
		return
	}
	sess.BindPlayer(r.ID, player.Name)

	logger.Log.Infof("Session %s reconnected to room %s as %q", sess.GetID(), r.ID, player.Name)
}

func (s *GameServer) handleStartGame(sess *session.Session) {
	r, ok := s.boundRoom(sess)
	if !ok {
		return
	}
	_, name := sess.Bound()
	if err := r.StartGame(name); err != nil {
		s.mon.IncIntentsRejected(rejectReason(err))
		s.sendError(sess, err.Error())
	}
}

type submitWordsRequest struct {
	Words map[string]string `json:"words"`
}

func (s *GameServer) handleSubmitWords(sess *session.Session, evt *network.Event) {
	var req submitWordsRequest
	if err := json.Unmarshal(evt.Data, &req); err != nil {
		s.sendError(sess, "invalid payload")
		return
	}
	r, ok := s.boundRoom(sess)
	if !ok {
		return
	}
	_, name := sess.Bound()
	if err := r.SubmitWords(name, req.Words); err != nil {
		s.mon.IncIntentsRejected(rejectReason(err))
		s.sendError(sess, err.Error())
	}
}

type castVoteRequest struct {
	TargetPlayer string `json:"targetPlayer"`
	Category     string `json:"category"`
	Valid        bool   `json:"valid"`
}

func (s *GameServer) handleCastVote(sess *session.Session, evt *network.Event) {
	var req castVoteRequest
	if err := json.Unmarshal(evt.Data, &req); err != nil {
		s.sendError(sess, "invalid payload")
		return
	}
	r, ok := s.boundRoom(sess)
	if !ok {
		return
	}
	_, name := sess.Bound()
	r.CastVote(name, req.TargetPlayer, req.Category, req.Valid)
}

type nextRoundRequest struct {
	Resolutions map[string]bool `json:"resolutions"`
}

func (s *GameServer) handleNextRound(sess *session.Session, evt *network.Event) {
	var req nextRoundRequest
	if len(evt.Data) > 0 {
		if err := json.Unmarshal(evt.Data, &req); err != nil {
			s.sendError(sess, "invalid payload")
			return
		}
	}
	r, ok := s.boundRoom(sess)
	if !ok {
		return
	}
	_, name := sess.Bound()
	if err := r.NextRound(name, req.Resolutions); err != nil {
		s.mon.IncIntentsRejected(rejectReason(err))
		s.sendError(sess, err.Error())
	}
}

func (s *GameServer) boundRoom(sess *session.Session) (*room.Room, bool) {
	roomID, _ := sess.Bound()
	if roomID == "" {
		s.sendError(sess, "not in a room")
		return nil, false
	}
	r, ok := s.roomManager.GetRoom(roomID)
	if !ok {
		sess.Unbind()
		s.sendError(sess, room.ErrRoomNotFound.Error())
		return nil, false
	}
	return r, true
}

func (s *GameServer) onRoundEnd(r *room.Room, round int) {
	s.mon.IncRoundsCompleted()
}

func (s *GameServer) onGameEnd(r *room.Room, standings []scoring.Standing) {
	s.mon.IncGamesCompleted()
	s.recordService.SaveFinishedGame(r.ID, r.Name, r.MaxRounds(), standings)
}

func (s *GameServer) sendEvent(sess *session.Session, eventType string, payload interface{}) {
	evt, err := network.NewEvent(eventType, payload)
	if err != nil {
		logger.Log.Errorf("Failed to encode %s event: %v", eventType, err)
		return
	}
	if err := sess.Send(evt); err != nil {
		logger.Log.Warnf("Failed to send %s to session %s: %v", eventType, sess.GetID(), err)
	}
}

func (s *GameServer) sendError(sess *session.Session, message string) {
	s.sendEvent(sess, network.EvtError, map[string]string{"message": message})
}

// rejectReason buckets intent errors for the rejection counter.
func rejectReason(err error) string {
	switch {
	case errors.Is(err, room.ErrRoomNotFound), errors.Is(err, room.ErrPlayerNotFound):
		return "not_found"
	case errors.Is(err, room.ErrDuplicateName), errors.Is(err, room.ErrRoomFull),
		errors.Is(err, room.ErrWrongPassword), errors.Is(err, room.ErrGameStarted):
		return "conflict"
	case errors.Is(err, room.ErrInvalidName):
		return "validation"
	case errors.Is(err, state.ErrNotCreator):
		return "authorization"
	case errors.Is(err, state.ErrNotAllowed), errors.Is(err, state.ErrNotEnoughPlayers),
		errors.Is(err, state.ErrTransitionNotAllowed):
		return "phase"
	default:
		return "other"
	}
}
