package state

import (
	"testing"
)

// MockState is a test double for the State interface.
// It helps us track which methods have been called.
type MockState struct {
	ID            string
	OnEnterCalled bool
	OnExitCalled  bool
}

func (m *MockState) OnEnter() {
	m.OnEnterCalled = true
}

func (m *MockState) OnExit() {
	m.OnExitCalled = true
}

func (m *MockState) GetID() string {
	return m.ID
}

func (m *MockState) HandleIntent(in Intent) error {
	return nil
}

func (m *MockState) OnTimerExpire() {}

func (m *MockState) OnRosterChange() {}

// reset clears the call tracking flags.
func (m *MockState) reset() {
	m.OnEnterCalled = false
	m.OnExitCalled = false
}

func TestStateMachine_InitialState(t *testing.T) {
	initialState := &MockState{ID: "initial"}
	sm := NewBaseStateMachine(initialState)

	if !initialState.OnEnterCalled {
		t.Error("Expected OnEnter to be called on the initial state")
	}

	if sm.GetCurrentState() != initialState {
		t.Error("GetCurrentState should return the initial state")
	}
}

func TestStateMachine_ChangeState(t *testing.T) {
	initialState := &MockState{ID: "initial"}
	nextState := &MockState{ID: "next"}

	sm := NewBaseStateMachine(initialState)
	initialState.reset() // Reset after initialization

	err := sm.ChangeState(nextState)
	if err != nil {
		t.Fatalf("ChangeState should not return an error, but got: %v", err)
	}

	if !initialState.OnExitCalled {
		t.Error("Expected OnExit to be called on the old state")
	}

	if !nextState.OnEnterCalled {
		t.Error("Expected OnEnter to be called on the new state")
	}

	if sm.GetCurrentState() != nextState {
		t.Error("GetCurrentState should return the new state")
	}
}

func TestStateMachine_TransitionWhitelist(t *testing.T) {
	stateA := &MockState{ID: "A"}
	stateB := &MockState{ID: "B"}
	stateC := &MockState{ID: "C"}

	sm := NewBaseStateMachine(stateA)
	sm.AddTransition("A", "B")
	sm.AddTransition("B", "A")

	// --- Test valid transition ---
	stateA.reset()
	if err := sm.ChangeState(stateB); err != nil {
		t.Errorf("Expected transition from A to B to be allowed, but got error: %v", err)
	}
	if sm.GetCurrentState().GetID() != "B" {
		t.Errorf("Expected current state to be B, but got %s", sm.GetCurrentState().GetID())
	}

	// --- Test blocked transition ---
	stateB.reset()
	if err := sm.ChangeState(stateC); err != ErrTransitionNotAllowed {
		t.Errorf("Expected ErrTransitionNotAllowed, but got: %v", err)
	}
	if sm.GetCurrentState().GetID() != "B" {
		t.Errorf("Expected current state to remain B after a blocked transition, but got %s", sm.GetCurrentState().GetID())
	}
	if stateB.OnExitCalled {
		t.Error("OnExit should not be called on the current state if transition is blocked")
	}
	if stateC.OnEnterCalled {
		t.Error("OnEnter should not be called on the new state if transition is blocked")
	}
}

func TestStateMachine_UnlistedSourceIsUnrestricted(t *testing.T) {
	stateA := &MockState{ID: "A"}
	stateB := &MockState{ID: "B"}

	sm := NewBaseStateMachine(stateA)
	sm.AddTransition("other", "B")

	// A has no whitelist entries, so any transition from it goes through.
	if err := sm.ChangeState(stateB); err != nil {
		t.Errorf("Expected transition from unlisted state to be allowed, got: %v", err)
	}
}

func TestRound_SubmitSanitizesAndReplaces(t *testing.T) {
	round := NewRound(1, "C")
	categories := []string{"NOMBRE", "FRUTA"}

	round.Submit("ana", map[string]string{
		"NOMBRE": "  Carlos  ",
		"FRUTA":  "  café  ",
		"HACK":   "ignored",
	}, categories)

	got := round.Submissions["ana"]
	if got["NOMBRE"] != "Carlos" {
		t.Errorf("Expected trimmed word Carlos, got %q", got["NOMBRE"])
	}
	if got["FRUTA"] != "café" {
		t.Errorf("Expected trimmed word café, got %q", got["FRUTA"])
	}
	if _, exists := got["HACK"]; exists {
		t.Error("Unknown category should be dropped")
	}
	if !round.HasSubmitted("ana") {
		t.Error("Expected ana to be marked as submitted")
	}

	// A resubmission replaces the previous set entirely.
	round.Submit("ana", map[string]string{"NOMBRE": "Cecilia"}, categories)
	got = round.Submissions["ana"]
	if got["NOMBRE"] != "Cecilia" {
		t.Errorf("Expected resubmission to replace word, got %q", got["NOMBRE"])
	}
	if _, exists := got["FRUTA"]; exists {
		t.Error("Resubmission should drop categories no longer sent")
	}
}

func TestRound_AllSubmitted(t *testing.T) {
	round := NewRound(1, "A")
	categories := []string{"ANIMAL"}

	if round.AllSubmitted(nil) {
		t.Error("An empty gate should never count as complete")
	}

	round.Submit("ana", map[string]string{"ANIMAL": "ardilla"}, categories)
	if round.AllSubmitted([]string{"ana", "beto"}) {
		t.Error("Gate should be incomplete while beto is pending")
	}

	round.Submit("beto", map[string]string{"ANIMAL": "avestruz"}, categories)
	if !round.AllSubmitted([]string{"ana", "beto"}) {
		t.Error("Gate should be complete once everyone submitted")
	}
}

func TestRound_PrefixValidity(t *testing.T) {
	round := NewRound(1, "M")
	categories := []string{"ANIMAL", "COSA"}

	round.Submit("ana", map[string]string{"ANIMAL": "mono", "COSA": "silla"}, categories)
	round.Submit("beto", map[string]string{"ANIMAL": ""}, categories)

	validity := round.PrefixValidity()
	if !validity["ana"]["ANIMAL"] {
		t.Error("mono starts with M and should be valid")
	}
	if validity["ana"]["COSA"] {
		t.Error("silla does not start with M and should be invalid")
	}
	if validity["beto"]["ANIMAL"] {
		t.Error("Empty submission should be invalid")
	}
}

func TestRound_ResolveValidityObeysVotesAndTieBreak(t *testing.T) {
	round := NewRound(1, "M")
	categories := []string{"ANIMAL"}

	round.Submit("ana", map[string]string{"ANIMAL": "mapache"}, categories)
	round.Submit("beto", map[string]string{"ANIMAL": "mula"}, categories)

	// Majority rejects ana's word.
	round.Tally.Cast("beto", "ana", "ANIMAL", false)
	round.Tally.Cast("carla", "ana", "ANIMAL", false)
	round.Tally.Cast("diego", "ana", "ANIMAL", true)

	validity := round.ResolveValidity(nil, true)
	if validity["ana"]["ANIMAL"] {
		t.Error("Majority reject should mark the word invalid")
	}
	// No ballots for beto's word; the tie default applies.
	if !validity["beto"]["ANIMAL"] {
		t.Error("Unvoted word should fall back to the tie default (valid)")
	}

	validity = round.ResolveValidity(nil, false)
	if validity["beto"]["ANIMAL"] {
		t.Error("Unvoted word should fall back to the tie default (invalid)")
	}
}

func TestRound_ResolveValidityHostResolutionWinsTies(t *testing.T) {
	round := NewRound(1, "P")
	categories := []string{"PAIS"}

	round.Submit("ana", map[string]string{"PAIS": "Perú"}, categories)

	// One approve, one reject: a tie.
	round.Tally.Cast("beto", "ana", "PAIS", true)
	round.Tally.Cast("carla", "ana", "PAIS", false)

	validity := round.ResolveValidity(map[string]bool{"ana:PAIS": false}, true)
	if validity["ana"]["PAIS"] {
		t.Error("Host resolution should override the tie default")
	}
}

func TestRound_DropPlayer(t *testing.T) {
	round := NewRound(1, "T")
	categories := []string{"COSA"}

	round.Submit("ana", map[string]string{"COSA": "taza"}, categories)
	round.Submit("beto", map[string]string{"COSA": "tren"}, categories)
	round.Tally.Cast("ana", "beto", "COSA", false)

	round.DropPlayer("ana")

	if round.HasSubmitted("ana") {
		t.Error("Dropped player should no longer count as submitted")
	}
	if _, exists := round.Submissions["ana"]; exists {
		t.Error("Dropped player's submission should be deleted")
	}
	counts := round.Tally.Counts("beto", "COSA")
	if counts.Reject != 0 {
		t.Errorf("Dropped player's ballots should be retracted, got %d rejects", counts.Reject)
	}
}
