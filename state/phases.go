package state

import (
	"github.com/wfunc/basta/logger"
	"github.com/wfunc/basta/network"
	"github.com/wfunc/basta/scoring"
)

// NewLobbyState creates the initial phase of a room.
func NewLobbyState(room RoomContext) *LobbyState {
	return &LobbyState{RoomStateBase: RoomStateBase{ID: PhaseLobby, Room: room}}
}

// LobbyState accepts joins and waits for the creator to start the game.
type LobbyState struct {
	RoomStateBase
}

func (s *LobbyState) HandleIntent(in Intent) error {
	start, ok := in.(StartGameIntent)
	if !ok {
		return ErrNotAllowed
	}
	if start.By != s.Room.CreatorName() {
		return ErrNotCreator
	}
	if len(s.Room.ConnectedNames()) < 2 {
		return ErrNotEnoughPlayers
	}

	logger.Log.Infof("room %s: game started by %s", s.Room.GetID(), start.By)
	if err := s.Room.ChangeState(NewRoundStartState(s.Room)); err != nil {
		return err
	}
	return s.Room.ChangeState(NewWritingState(s.Room))
}

// NewRoundStartState creates the transient phase that opens a round.
func NewRoundStartState(room RoomContext) *RoundStartState {
	return &RoundStartState{RoomStateBase: RoomStateBase{ID: PhaseRoundStart, Room: room}}
}

// RoundStartState draws the round letter exactly once and announces the
// round. The room chains it straight into writing.
type RoundStartState struct {
	RoomStateBase
}

func (s *RoundStartState) OnEnter() {
	round := s.Room.BeginRound()
	rules := s.Room.Rules()

	logger.Log.Infof("room %s: round %d/%d letter %s",
		s.Room.GetID(), round.Number, s.Room.MaxRounds(), round.Letter)

	s.Room.Broadcast(network.EvtRoundStart, map[string]interface{}{
		"round":      round.Number,
		"maxRounds":  s.Room.MaxRounds(),
		"letter":     round.Letter,
		"timeLimit":  rules.WritingSeconds,
		"categories": rules.Categories,
	})
}

// NewWritingState creates the submission phase.
func NewWritingState(room RoomContext) *WritingState {
	return &WritingState{RoomStateBase: RoomStateBase{ID: PhaseWriting, Room: room}}
}

// WritingState collects word submissions until everyone gated has
// submitted or the countdown expires, whichever happens first.
type WritingState struct {
	RoomStateBase
	finished bool
}

func (s *WritingState) OnEnter() {
	s.Room.StartCountdown(s.Room.Rules().WritingSeconds)
}

func (s *WritingState) HandleIntent(in Intent) error {
	submit, ok := in.(SubmitWordsIntent)
	if !ok {
		return ErrNotAllowed
	}

	round := s.Room.CurrentRound()
	if round == nil {
		return ErrNotAllowed
	}
	round.Submit(submit.Player, submit.Words, s.Room.Rules().Categories)

	if round.AllSubmitted(s.Room.GateNames()) {
		s.finish()
	}
	return nil
}

func (s *WritingState) OnTimerExpire() {
	s.finish()
}

func (s *WritingState) OnRosterChange() {
	// A departure can complete the gate for the players still here.
	round := s.Room.CurrentRound()
	if round != nil && round.AllSubmitted(s.Room.GateNames()) {
		s.finish()
	}
}

// finish takes one of the two named transitions out of writing: the
// classic direct-scoring path, or the review phase.
func (s *WritingState) finish() {
	if s.finished {
		return
	}
	s.finished = true
	s.Room.CancelCountdown()

	round := s.Room.CurrentRound()
	if round == nil {
		return
	}

	if s.Room.Rules().ClassicScoring {
		finishRound(s.Room, round.PrefixValidity())
		return
	}
	if err := s.Room.ChangeState(NewReviewState(s.Room)); err != nil {
		logger.Log.Errorf("room %s: could not enter review: %v", s.Room.GetID(), err)
	}
}

// NewReviewState creates the voting phase.
func NewReviewState(room RoomContext) *ReviewState {
	return &ReviewState{RoomStateBase: RoomStateBase{ID: PhaseReview, Room: room}}
}

// ReviewState broadcasts the submission set and aggregates ballots until
// the creator advances or the countdown expires.
type ReviewState struct {
	RoomStateBase
	finalized bool
}

func (s *ReviewState) OnEnter() {
	round := s.Room.CurrentRound()
	if round == nil {
		return
	}
	s.Room.StartCountdown(s.Room.Rules().ReviewSeconds)
	s.Room.Broadcast(network.EvtStartReview, map[string]interface{}{
		"round":       round.Number,
		"letter":      round.Letter,
		"timeLimit":   s.Room.Rules().ReviewSeconds,
		"submissions": round.SubmissionsView(),
	})
}

func (s *ReviewState) HandleIntent(in Intent) error {
	switch intent := in.(type) {
	case CastVoteIntent:
		s.castVote(intent)
		return nil
	case AdvanceIntent:
		if intent.By != s.Room.CreatorName() {
			return ErrNotCreator
		}
		s.finalize(intent.Resolutions)
		return nil
	default:
		return ErrNotAllowed
	}
}

func (s *ReviewState) castVote(intent CastVoteIntent) {
	round := s.Room.CurrentRound()
	if round == nil {
		return
	}
	// Ballots are keyed by the submission set: an unknown target, or a
	// category the target never filled, has nothing to judge.
	target, ok := round.CanonicalPlayer(intent.Target)
	if !ok {
		return
	}
	if _, ok := round.Submissions[target][intent.Category]; !ok {
		return
	}
	// Self-votes and empty voters are rejected silently by the tally.
	if !round.Tally.Cast(intent.Voter, target, intent.Category, intent.Approve) {
		return
	}

	counts := round.Tally.Counts(target, intent.Category)
	s.Room.Broadcast(network.EvtVoteUpdate, map[string]interface{}{
		"targetPlayer": target,
		"category":     intent.Category,
		"validCount":   counts.Approve,
		"invalidCount": counts.Reject,
	})
}

func (s *ReviewState) OnTimerExpire() {
	s.finalize(nil)
}

func (s *ReviewState) finalize(resolutions map[string]bool) {
	if s.finalized {
		return
	}
	s.finalized = true
	s.Room.CancelCountdown()

	round := s.Room.CurrentRound()
	if round == nil {
		return
	}

	rules := s.Room.Rules()
	var validity map[string]map[string]bool
	if round.Tally.HasBallots() || resolutions != nil {
		validity = round.ResolveValidity(resolutions, rules.TieBreakValid)
	} else {
		// Legacy direct path: review ended with no ballots at all, so
		// prefix validity alone decides.
		validity = round.PrefixValidity()
	}

	s.Room.Broadcast(network.EvtReviewEnded, map[string]interface{}{
		"round":    round.Number,
		"validity": validity,
	})
	finishRound(s.Room, validity)
}

// finishRound scores the round from final validity, applies cumulative
// totals, broadcasts the results and enters the pacing phase.
func finishRound(room RoomContext, validity map[string]map[string]bool) {
	round := room.CurrentRound()
	if round == nil {
		return
	}

	breakdowns := scoring.ComputeRound(round.Submissions, validity)
	room.ApplyRoundScores(breakdowns)

	room.Broadcast(network.EvtRoundEnded, map[string]interface{}{
		"round":     round.Number,
		"letter":    round.Letter,
		"scores":    breakdowns,
		"standings": room.Standings(),
	})

	if err := room.ChangeState(NewResultsState(room)); err != nil {
		logger.Log.Errorf("room %s: could not enter results: %v", room.GetID(), err)
	}
}

// NewResultsState creates the pacing phase between rounds.
func NewResultsState(room RoomContext) *ResultsState {
	return &ResultsState{RoomStateBase: RoomStateBase{ID: PhaseResults, Room: room}}
}

// ResultsState holds the standings on screen for a short beat, then the
// room loops into the next round or ends the game.
type ResultsState struct {
	RoomStateBase
}

func (s *ResultsState) OnEnter() {
	room := s.Room
	room.Schedule(room.Rules().ResultsDelay, room.NextRoundOrEnd)
}

// NewEndedState creates the terminal phase.
func NewEndedState(room RoomContext) *EndedState {
	return &EndedState{RoomStateBase: RoomStateBase{ID: PhaseEnded, Room: room}}
}

// EndedState broadcasts the final standings. No further game mutations.
type EndedState struct {
	RoomStateBase
}

func (s *EndedState) OnEnter() {
	standings := s.Room.Standings()
	s.Room.Broadcast(network.EvtGameEnded, map[string]interface{}{
		"standings": standings,
	})
	s.Room.GameFinished()
}
