package state

import (
	"strings"

	"github.com/wfunc/basta/vote"
	"github.com/wfunc/basta/words"
)

// Round is the mutable data of one round: the letter, the submission set
// and the vote ledger. Cleared wholesale at round advancement by swapping
// in a fresh Round.
type Round struct {
	Number      int
	Letter      string
	Submissions map[string]map[string]string // player -> category -> word
	submitted   map[string]bool
	Tally       *vote.Tally
}

func NewRound(number int, letter string) *Round {
	return &Round{
		Number:      number,
		Letter:      letter,
		Submissions: make(map[string]map[string]string),
		submitted:   make(map[string]bool),
		Tally:       vote.NewTally(),
	}
}

// Submit sanitizes and stores one player's words, keyed by the room's
// configured categories. Unknown categories are dropped. A resubmission
// replaces the previous set.
func (r *Round) Submit(player string, raw map[string]string, categories []string) {
	clean := make(map[string]string, len(categories))
	for _, category := range categories {
		if w, ok := raw[category]; ok {
			clean[category] = words.SanitizeWord(w)
		}
	}
	r.Submissions[player] = clean
	r.submitted[player] = true
}

func (r *Round) HasSubmitted(player string) bool {
	return r.submitted[player]
}

// CanonicalPlayer resolves a case-insensitive player reference to the
// exact submission key, so ballots land where resolution looks them up.
func (r *Round) CanonicalPlayer(name string) (string, bool) {
	for player := range r.Submissions {
		if strings.EqualFold(player, name) {
			return player, true
		}
	}
	return "", false
}

// AllSubmitted reports whether every listed player has submitted.
func (r *Round) AllSubmitted(names []string) bool {
	if len(names) == 0 {
		return false
	}
	for _, name := range names {
		if !r.submitted[name] {
			return false
		}
	}
	return true
}

// DropPlayer forgets a departed player's submission and ballots.
func (r *Round) DropPlayer(player string) {
	delete(r.Submissions, player)
	delete(r.submitted, player)
	r.Tally.RemoveVoter(player)
}

// PrefixValidity derives validity from the letter prefix alone: the
// classic scoring path, and the necessary condition for the vote path.
func (r *Round) PrefixValidity() map[string]map[string]bool {
	validity := make(map[string]map[string]bool, len(r.Submissions))
	for player, byCategory := range r.Submissions {
		validity[player] = make(map[string]bool, len(byCategory))
		for category, word := range byCategory {
			validity[player][category] = word != "" && words.MatchesLetter(word, r.Letter)
		}
	}
	return validity
}

// ResolveValidity folds the vote outcome on top of prefix validity for
// every pending (player, category) pair.
func (r *Round) ResolveValidity(resolutions map[string]bool, tieDefault bool) map[string]map[string]bool {
	validity := make(map[string]map[string]bool, len(r.Submissions))
	for player, byCategory := range r.Submissions {
		validity[player] = make(map[string]bool, len(byCategory))
		for category, word := range byCategory {
			if word == "" {
				validity[player][category] = false
				continue
			}
			validity[player][category] = r.Tally.Resolve(player, category, r.Letter, word, resolutions, tieDefault)
		}
	}
	return validity
}

// SubmissionsView returns a plain copy of the submission set safe to put
// on the wire.
func (r *Round) SubmissionsView() map[string]map[string]string {
	view := make(map[string]map[string]string, len(r.Submissions))
	for player, byCategory := range r.Submissions {
		view[player] = make(map[string]string, len(byCategory))
		for category, word := range byCategory {
			view[player][category] = word
		}
	}
	return view
}
