package state

import (
	"errors"
	"sync"
)

// Phase identifiers.
const (
	PhaseLobby      = "lobby"
	PhaseRoundStart = "roundStart"
	PhaseWriting    = "writing"
	PhaseReview     = "review"
	PhaseResults    = "results"
	PhaseEnded      = "ended"
)

var (
	// ErrTransitionNotAllowed is returned when a state transition is not allowed.
	ErrTransitionNotAllowed = errors.New("state transition not allowed")
	// ErrNotAllowed is returned when an intent does not apply to the current phase.
	ErrNotAllowed = errors.New("action not allowed in current phase")
	// ErrNotCreator is returned when a creator-only intent comes from someone else.
	ErrNotCreator = errors.New("only the room creator may do that")
	// ErrNotEnoughPlayers is returned when a game is started with too few players.
	ErrNotEnoughPlayers = errors.New("not enough connected players to start")
)

// Intent is a typed player action delivered to the current state.
type Intent interface{}

type StartGameIntent struct {
	By string
}

type SubmitWordsIntent struct {
	Player string
	Words  map[string]string
}

type CastVoteIntent struct {
	Voter    string
	Target   string
	Category string
	Approve  bool
}

// AdvanceIntent is the creator's nextRound/finishReview action, optionally
// carrying tie-break resolutions keyed "player:category".
type AdvanceIntent struct {
	By          string
	Resolutions map[string]bool
}

// State is one phase of the room lifecycle.
type State interface {
	OnEnter()
	OnExit()
	GetID() string
	HandleIntent(in Intent) error
	// OnTimerExpire fires when the room countdown reaches zero while this
	// state is current.
	OnTimerExpire()
	// OnRosterChange fires when a player disconnects or leaves, so gates
	// that count the roster can re-evaluate.
	OnRosterChange()
}

// StateMachine drives the phase lifecycle of one room.
type StateMachine interface {
	ChangeState(state State) error
	GetCurrentState() State
	AddTransition(from string, to string)
}

// BaseStateMachine validates transitions against a whitelist when one has
// been configured for the source phase.
type BaseStateMachine struct {
	currentState State
	transitions  map[string]map[string]bool // fromID -> toID -> allowed
	mutex        sync.RWMutex
}

func NewBaseStateMachine(initialState State) *BaseStateMachine {
	machine := &BaseStateMachine{
		currentState: initialState,
		transitions:  make(map[string]map[string]bool),
	}
	initialState.OnEnter()
	return machine
}

func (sm *BaseStateMachine) ChangeState(newState State) error {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()

	currentID := sm.currentState.GetID()
	newID := newState.GetID()

	if allowed, exists := sm.transitions[currentID]; exists {
		if !allowed[newID] {
			return ErrTransitionNotAllowed
		}
	}

	sm.currentState.OnExit()
	sm.currentState = newState
	sm.currentState.OnEnter()

	return nil
}

func (sm *BaseStateMachine) GetCurrentState() State {
	sm.mutex.RLock()
	defer sm.mutex.RUnlock()
	return sm.currentState
}

// AddTransition whitelists from -> to. Once a source phase has any entry,
// only whitelisted targets are reachable from it.
func (sm *BaseStateMachine) AddTransition(from string, to string) {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()

	if _, exists := sm.transitions[from]; !exists {
		sm.transitions[from] = make(map[string]bool)
	}
	sm.transitions[from][to] = true
}

// RoomStateBase carries the shared defaults for phase states.
type RoomStateBase struct {
	ID   string
	Room RoomContext
}

func (s *RoomStateBase) GetID() string {
	return s.ID
}

func (s *RoomStateBase) OnEnter() {}

func (s *RoomStateBase) OnExit() {}

func (s *RoomStateBase) HandleIntent(in Intent) error {
	return ErrNotAllowed
}

func (s *RoomStateBase) OnTimerExpire() {}

func (s *RoomStateBase) OnRosterChange() {}
