// state/interfaces.go
package state

import (
	"time"

	"github.com/wfunc/basta/scoring"
)

// Rules are the per-room knobs the phase states act on.
type Rules struct {
	WritingSeconds        int
	ReviewSeconds         int
	ResultsDelay          time.Duration
	Categories            []string
	ClassicScoring        bool
	TieBreakValid         bool
	CountDisconnectedGate bool
}

// RoomContext is the surface a Room exposes to its phase states. It breaks
// the import cycle between room and state. Every method is called with the
// room's lock already held by the intent or timer handler.
type RoomContext interface {
	GetID() string
	Rules() Rules
	RoundNumber() int
	MaxRounds() int

	// BeginRound advances the round counter, draws the round letter and
	// installs a fresh Round.
	BeginRound() *Round
	CurrentRound() *Round

	CreatorName() string
	ConnectedNames() []string
	// GateNames is the roster the "all submitted" gate counts, honoring
	// the disconnected-player policy in Rules.
	GateNames() []string

	ChangeState(newState State) error
	Broadcast(eventType string, payload interface{})

	StartCountdown(seconds int)
	CancelCountdown()
	// Schedule runs fn once after d; the callback re-acquires the room
	// lock itself.
	Schedule(d time.Duration, fn func())

	ApplyRoundScores(breakdowns map[string]scoring.Breakdown)
	Standings() []scoring.Standing

	// NextRoundOrEnd is invoked by the results pacing callback to either
	// loop into the next round or finish the game.
	NextRoundOrEnd()
	// GameFinished fires once on entering the ended phase.
	GameFinished()
}
