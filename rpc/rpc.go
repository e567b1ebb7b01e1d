package rpc

import (
	"net"
	"net/rpc"

	"github.com/wfunc/basta/logger"
	"github.com/wfunc/basta/room"
	"github.com/wfunc/basta/services"
)

// Server manages the RPC listener.
type Server struct {
	listener net.Listener
	address  string
}

// NewServer creates a new RPC server. Services are registered by the
// caller before Start.
func NewServer(addr string) (*Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Server{
		listener: listener,
		address:  addr,
	}, nil
}

// Register publishes a service's methods to RPC clients.
func (s *Server) Register(service interface{}) error {
	return rpc.Register(service)
}

// Start begins listening for RPC requests.
func (s *Server) Start() {
	logger.Log.Infof("RPC server listening on %s", s.address)
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if _, ok := err.(*net.OpError); ok {
				logger.Log.Info("RPC server listener closed.")
				return
			}
			logger.Log.Errorf("RPC server accept error: %v", err)
			continue
		}
		go rpc.ServeConn(conn)
	}
}

// Stop closes the RPC listener.
func (s *Server) Stop() {
	if s.listener != nil {
		logger.Log.Info("Stopping RPC server.")
		s.listener.Close()
	}
}

// GameService exposes read-only game data over net/rpc for operational
// tooling.
type GameService struct {
	records     *services.RecordService
	roomManager *room.Manager
}

func NewGameService(records *services.RecordService, roomManager *room.Manager) *GameService {
	return &GameService{records: records, roomManager: roomManager}
}

type CareerArgs struct {
	Name string
}

type CareerReply struct {
	GamesPlayed int
	GamesWon    int
	TotalScore  int
	BestScore   int
}

func (gs *GameService) GetPlayerCareer(args *CareerArgs, reply *CareerReply) error {
	career, err := gs.records.GetPlayerCareer(args.Name)
	if err != nil {
		return err
	}
	reply.GamesPlayed = career.GamesPlayed
	reply.GamesWon = career.GamesWon
	reply.TotalScore = career.TotalScore
	reply.BestScore = career.BestScore
	return nil
}

type ListRoomsArgs struct{}

type ListRoomsReply struct {
	Rooms []room.Summary
}

func (gs *GameService) ListRooms(args *ListRoomsArgs, reply *ListRoomsReply) error {
	reply.Rooms = gs.roomManager.List()
	return nil
}
