// Package vote accumulates approve/reject ballots on submitted words and
// resolves them into a final validity at the end of the review phase.
package vote

import (
	"github.com/wfunc/basta/words"
)

// ballot holds the two voter sets for one (target, category) pair.
type ballot struct {
	approve map[string]bool
	reject  map[string]bool
}

func newBallot() *ballot {
	return &ballot{
		approve: make(map[string]bool),
		reject:  make(map[string]bool),
	}
}

// Counts is the wire-safe view of a ballot. Voter sets never cross a
// serialization boundary, only these counts do.
type Counts struct {
	Approve int `json:"validCount"`
	Reject  int `json:"invalidCount"`
}

// Tally is the per-round vote ledger of a room. Not safe for concurrent
// use; the owning room serializes access.
type Tally struct {
	ballots map[string]map[string]*ballot // target -> category -> ballot
	cast    int
}

func NewTally() *Tally {
	return &Tally{ballots: make(map[string]map[string]*ballot)}
}

// Cast records a single mutable choice by voter on (target, category).
// A repeat cast replaces the prior choice. Self-votes are ignored.
func (t *Tally) Cast(voter, target, category string, approve bool) bool {
	if voter == "" || voter == target {
		return false
	}

	byCategory, ok := t.ballots[target]
	if !ok {
		byCategory = make(map[string]*ballot)
		t.ballots[target] = byCategory
	}
	b, ok := byCategory[category]
	if !ok {
		b = newBallot()
		byCategory[category] = b
	}

	if !b.approve[voter] && !b.reject[voter] {
		t.cast++
	}
	delete(b.approve, voter)
	delete(b.reject, voter)
	if approve {
		b.approve[voter] = true
	} else {
		b.reject[voter] = true
	}
	return true
}

// Counts returns the current approve/reject totals for (target, category).
func (t *Tally) Counts(target, category string) Counts {
	if byCategory, ok := t.ballots[target]; ok {
		if b, ok := byCategory[category]; ok {
			return Counts{Approve: len(b.approve), Reject: len(b.reject)}
		}
	}
	return Counts{}
}

// HasBallots reports whether any vote was cast this round. With zero
// ballots the room falls back to prefix-only scoring.
func (t *Tally) HasBallots() bool {
	return t.cast > 0
}

// RemoveVoter withdraws every ballot cast by voter, used when a player
// leaves permanently mid-review.
func (t *Tally) RemoveVoter(voter string) {
	for _, byCategory := range t.ballots {
		for _, b := range byCategory {
			if b.approve[voter] || b.reject[voter] {
				t.cast--
			}
			delete(b.approve, voter)
			delete(b.reject, voter)
		}
	}
}

// Resolve computes the final validity of word for (target, category).
// A word that does not start with the round letter is invalid regardless
// of votes. Otherwise the majority decides; an exact tie consults the
// host-supplied resolutions keyed "target:category", defaulting to
// tieDefault when the host supplied none.
func (t *Tally) Resolve(target, category, letter, word string, resolutions map[string]bool, tieDefault bool) bool {
	if !words.MatchesLetter(word, letter) {
		return false
	}

	c := t.Counts(target, category)
	switch {
	case c.Approve > c.Reject:
		return true
	case c.Reject > c.Approve:
		return false
	}

	if resolutions != nil {
		if v, ok := resolutions[target+":"+category]; ok {
			return v
		}
	}
	return tieDefault
}

// Reset clears the ledger for the next round.
func (t *Tally) Reset() {
	t.ballots = make(map[string]map[string]*ballot)
	t.cast = 0
}
