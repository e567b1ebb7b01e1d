// Package scoring turns a round's validated submission set into per-player
// score breakdowns and totals.
package scoring

import (
	"sort"
	"strings"

	"github.com/wfunc/basta/words"
)

// Score weights. A long unique word earns WeightUnique+LongWordBonus.
const (
	WeightRepeated = 1
	WeightUnique   = 2
	LongWordBonus  = 3

	// Words with more than this many syllables earn the bonus.
	longWordSyllables = 3
)

// Breakdown is one player's round result.
type Breakdown struct {
	Repeated  int `json:"repeated"`
	Unique    int `json:"unique"`
	LongWords int `json:"longWords"`
	Total     int `json:"total"`
}

// Standing is one row of the final leaderboard.
type Standing struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

// ComputeRound builds the breakdown for every player from the submission
// set and the final validity map. submissions is player -> category ->
// word; validity is keyed the same way. Missing or empty entries are
// skipped so one bad submission never stalls the round for the others.
func ComputeRound(submissions map[string]map[string]string, validity map[string]map[string]bool) map[string]Breakdown {
	result := make(map[string]Breakdown, len(submissions))
	for player := range submissions {
		result[player] = Breakdown{}
	}

	// Categories present across all players, so grouping is per category.
	categories := make(map[string]bool)
	for _, byCategory := range submissions {
		for category := range byCategory {
			categories[category] = true
		}
	}

	for category := range categories {
		// Group valid words by their lowercase text.
		users := make(map[string][]string) // normalized word -> players
		for player, byCategory := range submissions {
			word := byCategory[category]
			if word == "" || !validity[player][category] {
				continue
			}
			key := strings.ToLower(word)
			users[key] = append(users[key], player)
		}

		for key, sharers := range users {
			for _, player := range sharers {
				b := result[player]
				if len(sharers) == 1 {
					b.Unique++
					b.Total += WeightUnique
				} else {
					b.Repeated++
					b.Total += WeightRepeated
				}
				if words.SyllableCount(key) > longWordSyllables {
					b.LongWords++
					b.Total += LongWordBonus
				}
				result[player] = b
			}
		}
	}
	return result
}

// SortStandings orders players by score descending, name ascending on
// equal scores so the order is stable for broadcast.
func SortStandings(standings []Standing) {
	sort.Slice(standings, func(i, j int) bool {
		if standings[i].Score != standings[j].Score {
			return standings[i].Score > standings[j].Score
		}
		return standings[i].Name < standings[j].Name
	})
}
