// Package words holds the text helpers shared by submission handling and
// scoring: sanitization, letter matching and syllable estimation.
package words

import (
	"math/rand"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

const (
	MaxWordLength = 40
	MaxNameLength = 20
)

// accentFold maps accented Spanish vowels onto their base letter for
// comparisons. Everything else passes through lowercased.
func accentFold(r rune) rune {
	switch unicode.ToLower(r) {
	case 'á', 'à', 'ä', 'â':
		return 'a'
	case 'é', 'è', 'ë', 'ê':
		return 'e'
	case 'í', 'ì', 'ï', 'î':
		return 'i'
	case 'ó', 'ò', 'ö', 'ô':
		return 'o'
	case 'ú', 'ù', 'ü', 'û':
		return 'u'
	default:
		return unicode.ToLower(r)
	}
}

// SanitizeWord normalizes a raw submission: NFC form, trimmed, capped at
// MaxWordLength runes, restricted to letters, spaces and hyphens.
func SanitizeWord(raw string) string {
	s := strings.TrimSpace(norm.NFC.String(raw))

	var b strings.Builder
	count := 0
	for _, r := range s {
		if !unicode.IsLetter(r) && r != ' ' && r != '-' {
			continue
		}
		if count >= MaxWordLength {
			break
		}
		b.WriteRune(r)
		count++
	}
	return strings.TrimSpace(b.String())
}

// SanitizeName normalizes a display name: NFC form, trimmed, capped at
// MaxNameLength runes.
func SanitizeName(raw string) string {
	s := strings.TrimSpace(norm.NFC.String(raw))
	runes := []rune(s)
	if len(runes) > MaxNameLength {
		runes = runes[:MaxNameLength]
	}
	return strings.TrimSpace(string(runes))
}

// MatchesLetter reports whether word starts with letter, case-insensitive
// and accent-folded, so "Árbol" matches the letter "A".
func MatchesLetter(word, letter string) bool {
	wr := []rune(word)
	lr := []rune(letter)
	if len(wr) == 0 || len(lr) == 0 {
		return false
	}
	return accentFold(wr[0]) == accentFold(lr[0])
}

func isVowel(r rune) bool {
	switch accentFold(r) {
	case 'a', 'e', 'i', 'o', 'u':
		return true
	}
	return false
}

// SyllableCount estimates syllables by counting maximal vowel runs,
// with a minimum of one for any non-empty word.
func SyllableCount(word string) int {
	count := 0
	inRun := false
	nonEmpty := false
	for _, r := range word {
		if unicode.IsLetter(r) {
			nonEmpty = true
		}
		if isVowel(r) {
			if !inRun {
				count++
				inRun = true
			}
		} else {
			inRun = false
		}
	}
	if count == 0 && nonEmpty {
		return 1
	}
	return count
}

// RandomLetter draws one letter uniformly from alphabet.
func RandomLetter(alphabet string) string {
	runes := []rune(alphabet)
	if len(runes) == 0 {
		return ""
	}
	return string(runes[rand.Intn(len(runes))])
}
