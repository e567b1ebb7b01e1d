// room/room.go
package room

import (
	"sync"
	"time"

	"github.com/wfunc/basta/logger"
	"github.com/wfunc/basta/network"
	"github.com/wfunc/basta/scoring"
	"github.com/wfunc/basta/state"
	"github.com/wfunc/basta/timer"
	"github.com/wfunc/basta/words"
)

// Options are the creation parameters of a room, assembled from the
// server defaults and the createRoom intent.
type Options struct {
	Name             string
	Private          bool
	Password         string
	MaxPlayers       int
	MaxRounds        int
	Categories       []string
	Alphabet         string
	Rules            state.Rules
	GraceSeconds     int
	RetentionSeconds int
}

// Room is one isolated game session. All intent handlers and timer
// callbacks lock mu, so phase logic runs one mutation at a time; the
// state.RoomContext methods assume the lock is already held.
type Room struct {
	ID        string
	Name      string
	Private   bool
	password  string
	MaxPlayers int
	CreatedAt time.Time

	maxRounds  int
	categories []string
	alphabet   string
	rules      state.Rules

	registry  *Registry
	roundNum  int
	round     *state.Round
	phase     string
	machine   state.StateMachine
	countdown *timer.Countdown

	sched            *timer.Manager
	broadcaster      Broadcaster
	graceSeconds     int
	retentionSeconds int
	retentionTask    int64

	// onEmpty removes the room from its directory. Called without mu held.
	onEmpty    func(roomID string)
	onRoundEnd func(r *Room, round int)
	onGameEnd  func(r *Room, standings []scoring.Standing)

	mu sync.Mutex
}

// NewRoom builds a room in the lobby phase.
func NewRoom(id string, opts Options, broadcaster Broadcaster, sched *timer.Manager) *Room {
	r := &Room{
		ID:         id,
		Name:       opts.Name,
		Private:    opts.Private,
		password:   opts.Password,
		MaxPlayers: opts.MaxPlayers,
		CreatedAt:  time.Now(),

		maxRounds:  opts.MaxRounds,
		categories: opts.Categories,
		alphabet:   opts.Alphabet,
		rules:      opts.Rules,

		registry:  NewRegistry(),
		phase:     state.PhaseLobby,
		countdown: timer.NewCountdown(),

		sched:            sched,
		broadcaster:      broadcaster,
		graceSeconds:     opts.GraceSeconds,
		retentionSeconds: opts.RetentionSeconds,
	}

	machine := state.NewBaseStateMachine(state.NewLobbyState(r))
	machine.AddTransition(state.PhaseLobby, state.PhaseRoundStart)
	machine.AddTransition(state.PhaseRoundStart, state.PhaseWriting)
	machine.AddTransition(state.PhaseWriting, state.PhaseReview)
	machine.AddTransition(state.PhaseWriting, state.PhaseResults) // classic direct scoring
	machine.AddTransition(state.PhaseReview, state.PhaseResults)
	machine.AddTransition(state.PhaseResults, state.PhaseRoundStart)
	machine.AddTransition(state.PhaseResults, state.PhaseEnded)
	r.machine = machine

	return r
}

// --- player intents ---

// Join adds a player. Only permitted while the room is in the lobby.
func (r *Room) Join(sessionID, name, password string) (*Player, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.phase != state.PhaseLobby {
		return nil, ErrGameStarted
	}
	if r.Private && password != r.password {
		return nil, ErrWrongPassword
	}
	if r.registry.Len() >= r.MaxPlayers {
		return nil, ErrRoomFull
	}

	p, err := r.registry.Add(name, sessionID, r.registry.Len() == 0)
	if err != nil {
		return nil, err
	}
	r.cancelRetention()

	r.Broadcast(network.EvtPlayerJoined, map[string]interface{}{
		"playerName": p.Name,
		"players":    r.playerViews(),
	})
	return p, nil
}

// StartGame begins the first round. Creator only.
func (r *Room) StartGame(by string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.machine.GetCurrentState().HandleIntent(state.StartGameIntent{By: by})
}

// SubmitWords stores a player's sanitized submission for this round.
func (r *Room) SubmitWords(player string, submitted map[string]string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.machine.GetCurrentState().HandleIntent(state.SubmitWordsIntent{
		Player: player,
		Words:  submitted,
	})
}

// CastVote records a review ballot. Outside the review phase the vote is
// dropped silently, matching the permissive contract of the tally.
func (r *Room) CastVote(voter, target, category string, approve bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.phase != state.PhaseReview {
		return
	}
	_ = r.machine.GetCurrentState().HandleIntent(state.CastVoteIntent{
		Voter:    voter,
		Target:   target,
		Category: category,
		Approve:  approve,
	})
}

// NextRound force-resolves the review. Creator only.
func (r *Room) NextRound(by string, resolutions map[string]bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.machine.GetCurrentState().HandleIntent(state.AdvanceIntent{
		By:          by,
		Resolutions: resolutions,
	})
}

// HandleDisconnect is transport-driven: the seat stays for the grace
// period so the player can reconnect without losing score.
func (r *Room) HandleDisconnect(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := r.registry.MarkDisconnected(sessionID)
	if p == nil {
		return
	}
	logger.Log.Infof("room %s: %s disconnected, grace %ds", r.ID, p.Name, r.graceSeconds)

	if p.graceTask != 0 {
		r.sched.Cancel(p.graceTask)
	}
	name := p.Name
	p.graceTask = r.sched.Schedule(time.Duration(r.graceSeconds)*time.Second, func() {
		r.graceExpired(name)
	})

	r.Broadcast(network.EvtPlayerDisconnected, map[string]interface{}{
		"playerName": p.Name,
	})

	// A disconnect can complete the submission gate for everyone else.
	r.machine.GetCurrentState().OnRosterChange()
	r.maybeScheduleRetention()
}

// Reconnect rebinds a seat to a new session within (or after) the grace
// window, as long as the seat still exists.
func (r *Room) Reconnect(name, newSessionID string) (*Player, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, err := r.registry.Reconnect(name, newSessionID)
	if err != nil {
		return nil, err
	}
	if p.graceTask != 0 {
		r.sched.Cancel(p.graceTask)
		p.graceTask = 0
	}
	r.cancelRetention()

	logger.Log.Infof("room %s: %s reconnected", r.ID, p.Name)
	r.Broadcast(network.EvtRoomState, r.snapshotLocked())
	if p.Creator {
		r.sendTo(p.SessionID, network.EvtYouAreCreator, map[string]interface{}{
			"playerName": p.Name,
		})
	}
	return p, nil
}

// Leave removes the player bound to sessionID immediately.
func (r *Room) Leave(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := r.registry.GetBySession(sessionID)
	if p == nil {
		return
	}
	if p.graceTask != 0 {
		r.sched.Cancel(p.graceTask)
		p.graceTask = 0
	}
	r.removeLocked(p, true)
}

// Snapshot returns the current roomState payload.
func (r *Room) Snapshot() StatePayload {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

// Summary returns the directory listing row for this room.
func (r *Room) Summary() Summary {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Summary{
		RoomID:         r.ID,
		Name:           r.Name,
		CurrentPlayers: r.registry.ConnectedCount(),
		MaxPlayers:     r.MaxPlayers,
		IsPrivate:      r.Private,
		CreatedAt:      r.CreatedAt,
	}
}

// Phase returns the current phase id.
func (r *Room) Phase() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.phase
}

// Close cancels the countdown and any pending scheduled tasks. Called by
// the directory when the room is removed.
func (r *Room) Close() {
	r.countdown.Cancel()

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.retentionTask != 0 {
		r.sched.Cancel(r.retentionTask)
		r.retentionTask = 0
	}
	for _, p := range r.registry.All() {
		if p.graceTask != 0 {
			r.sched.Cancel(p.graceTask)
			p.graceTask = 0
		}
	}
}

// --- state.RoomContext (lock held by caller) ---

func (r *Room) GetID() string      { return r.ID }
func (r *Room) Rules() state.Rules { return r.rules }
func (r *Room) RoundNumber() int   { return r.roundNum }
func (r *Room) MaxRounds() int     { return r.maxRounds }

func (r *Room) BeginRound() *state.Round {
	r.roundNum++
	r.round = state.NewRound(r.roundNum, words.RandomLetter(r.alphabet))
	return r.round
}

func (r *Room) CurrentRound() *state.Round { return r.round }

func (r *Room) CreatorName() string { return r.registry.CreatorName() }

func (r *Room) ConnectedNames() []string {
	connected := r.registry.Connected()
	names := make([]string, 0, len(connected))
	for _, p := range connected {
		names = append(names, p.Name)
	}
	return names
}

func (r *Room) GateNames() []string {
	if !r.rules.CountDisconnectedGate {
		return r.ConnectedNames()
	}
	all := r.registry.All()
	names := make([]string, 0, len(all))
	for _, p := range all {
		names = append(names, p.Name)
	}
	return names
}

func (r *Room) ChangeState(newState state.State) error {
	prev := r.phase
	r.phase = newState.GetID()
	if err := r.machine.ChangeState(newState); err != nil {
		r.phase = prev
		return err
	}
	// Entering results means a round's scoring just completed.
	if r.phase == state.PhaseResults && r.onRoundEnd != nil {
		go r.onRoundEnd(r, r.roundNum)
	}
	return nil
}

func (r *Room) Broadcast(eventType string, payload interface{}) {
	evt, err := network.NewEvent(eventType, payload)
	if err != nil {
		logger.Log.Errorf("room %s: marshal %s: %v", r.ID, eventType, err)
		return
	}
	if err := r.broadcaster.BroadcastToRoom(r.ID, evt); err != nil {
		logger.Log.Warnf("room %s: broadcast %s: %v", r.ID, eventType, err)
	}
}

func (r *Room) StartCountdown(seconds int) {
	r.countdown.Start(seconds, r.onTick, r.onExpire)
}

func (r *Room) CancelCountdown() {
	r.countdown.Cancel()
}

func (r *Room) Schedule(d time.Duration, fn func()) {
	r.sched.Schedule(d, fn)
}

func (r *Room) ApplyRoundScores(breakdowns map[string]scoring.Breakdown) {
	for name, b := range breakdowns {
		p := r.registry.Get(name)
		if p == nil {
			continue
		}
		p.Score += b.Total
		p.LastBreakdown = b
	}
}

func (r *Room) Standings() []scoring.Standing {
	all := r.registry.All()
	standings := make([]scoring.Standing, 0, len(all))
	for _, p := range all {
		standings = append(standings, scoring.Standing{Name: p.Name, Score: p.Score})
	}
	scoring.SortStandings(standings)
	return standings
}

// NextRoundOrEnd runs from the results pacing callback; unlike the other
// context methods it acquires the lock itself.
func (r *Room) NextRoundOrEnd() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.phase != state.PhaseResults {
		return
	}
	if r.roundNum >= r.maxRounds {
		if err := r.ChangeState(state.NewEndedState(r)); err != nil {
			logger.Log.Errorf("room %s: could not end game: %v", r.ID, err)
		}
		return
	}
	if err := r.ChangeState(state.NewRoundStartState(r)); err != nil {
		logger.Log.Errorf("room %s: could not start round: %v", r.ID, err)
		return
	}
	if err := r.ChangeState(state.NewWritingState(r)); err != nil {
		logger.Log.Errorf("room %s: could not enter writing: %v", r.ID, err)
	}
}

// GameFinished runs inside the ended transition: purge seats whose grace
// already ran out, report the result, and arm retention for the shell.
func (r *Room) GameFinished() {
	logger.Log.Infof("room %s: game over after %d rounds", r.ID, r.roundNum)

	grace := time.Duration(r.graceSeconds) * time.Second
	for _, p := range r.registry.All() {
		if !p.Connected && time.Since(p.DisconnectedAt) >= grace {
			r.purgeLocked(p)
		}
	}

	if r.onGameEnd != nil {
		standings := r.Standings()
		go r.onGameEnd(r, standings)
	}
	r.maybeScheduleRetention()
}

// --- internals (mu held) ---

func (r *Room) isPlaying() bool {
	return r.phase != state.PhaseLobby && r.phase != state.PhaseEnded
}

func (r *Room) playerViews() []PlayerView {
	all := r.registry.All()
	views := make([]PlayerView, 0, len(all))
	for _, p := range all {
		submitted := r.round != nil && r.round.HasSubmitted(p.Name)
		views = append(views, PlayerView{
			Name:      p.Name,
			Score:     p.Score,
			IsCreator: p.Creator,
			Connected: p.Connected,
			Submitted: submitted,
		})
	}
	return views
}

func (r *Room) snapshotLocked() StatePayload {
	snap := StatePayload{
		RoomID:        r.ID,
		Name:          r.Name,
		Players:       r.playerViews(),
		IsPlaying:     r.isPlaying(),
		Phase:         r.phase,
		CurrentRound:  r.roundNum,
		MaxRounds:     r.maxRounds,
		Categories:    r.categories,
		TimeRemaining: r.countdown.Remaining(),
		ServerTime:    time.Now().UnixMilli(),
	}
	if r.round != nil {
		snap.CurrentLetter = r.round.Letter
	}
	if deadline, armed := r.countdown.Deadline(); armed {
		snap.TimerEndsAt = deadline.UnixMilli()
	}
	return snap
}

func (r *Room) sendTo(sessionID, eventType string, payload interface{}) {
	evt, err := network.NewEvent(eventType, payload)
	if err != nil {
		return
	}
	if err := r.broadcaster.SendToSession(sessionID, evt); err != nil {
		logger.Log.Warnf("room %s: send %s to %s: %v", r.ID, eventType, sessionID, err)
	}
}

// graceExpired fires from the scheduler when a disconnected player's
// grace period runs out. Mid-game the seat is kept (score preserved);
// the purge happens when the game ends.
func (r *Room) graceExpired(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := r.registry.Get(name)
	if p == nil || p.Connected {
		return
	}
	p.graceTask = 0
	if r.isPlaying() {
		return
	}
	r.removeLocked(p, false)
}

// removeLocked drops a seat permanently, reassigns the creator if needed
// and handles empty-room cleanup. explicit marks a deliberate leave, which
// destroys an empty room immediately instead of waiting out retention.
func (r *Room) removeLocked(p *Player, explicit bool) {
	wasCreator := p.Creator
	r.purgeLocked(p)

	r.machine.GetCurrentState().OnRosterChange()

	if r.registry.Len() == 0 {
		if explicit && !r.isPlaying() {
			r.destroy()
		} else {
			r.maybeScheduleRetention()
		}
		return
	}

	if wasCreator {
		if next := r.registry.PromoteCreator(); next != nil {
			r.sendTo(next.SessionID, network.EvtYouAreCreator, map[string]interface{}{
				"playerName": next.Name,
			})
		}
	}
	r.Broadcast(network.EvtRoomState, r.snapshotLocked())
	r.maybeScheduleRetention()
}

// purgeLocked removes the seat and its round data without any roster
// cascade. Safe to call from within a state transition.
func (r *Room) purgeLocked(p *Player) {
	if p.graceTask != 0 {
		r.sched.Cancel(p.graceTask)
		p.graceTask = 0
	}
	r.registry.Remove(p.Name)
	if r.round != nil {
		r.round.DropPlayer(p.Name)
	}
	logger.Log.Infof("room %s: %s left", r.ID, p.Name)
	r.Broadcast(network.EvtPlayerLeft, map[string]interface{}{
		"playerName": p.Name,
	})
}

// maybeScheduleRetention arms the empty-shell GC when nobody is connected
// and no game is running.
func (r *Room) maybeScheduleRetention() {
	if r.registry.ConnectedCount() > 0 || r.isPlaying() {
		return
	}
	if r.retentionTask != 0 {
		r.sched.Cancel(r.retentionTask)
	}
	r.retentionTask = r.sched.Schedule(time.Duration(r.retentionSeconds)*time.Second, r.retentionExpired)
}

func (r *Room) cancelRetention() {
	if r.retentionTask != 0 {
		r.sched.Cancel(r.retentionTask)
		r.retentionTask = 0
	}
}

func (r *Room) retentionExpired() {
	r.mu.Lock()
	r.retentionTask = 0
	if r.registry.ConnectedCount() > 0 || r.isPlaying() {
		r.mu.Unlock()
		return
	}
	r.mu.Unlock()
	r.destroy()
}

// destroy removes the room from its directory. mu may be held, so the
// directory callback runs on its own goroutine.
func (r *Room) destroy() {
	if r.onEmpty == nil {
		return
	}
	id := r.ID
	fn := r.onEmpty
	go fn(id)
}

// onTick relays countdown ticks; clients render only these values and
// never compute their own countdown.
func (r *Room) onTick(remaining int) {
	evt, err := network.NewEvent(network.EvtTimerTick, map[string]interface{}{
		"remaining":  remaining,
		"serverTime": time.Now().UnixMilli(),
	})
	if err != nil {
		return
	}
	_ = r.broadcaster.BroadcastToRoom(r.ID, evt)
}

// onExpire routes countdown expiry to the current phase. An expiry can be
// in flight while an intent cancels the countdown and changes phase; the
// generation check drops those so a writing expiry never finalizes the
// review that replaced it.
func (r *Room) onExpire(gen uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if gen != r.countdown.Generation() {
		return
	}
	r.machine.GetCurrentState().OnTimerExpire()
}
