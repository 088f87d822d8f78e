package services

import (
	"math"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

const (
	maxPlayerNameRunes  = 32
	maxGameSlugLength   = 64
	maxLeaderboardScore = 1e9
	defaultPlayerName   = "Player"
)

var gameSlugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// normalizeName NFC-normalizes s, drops control characters, collapses
// whitespace and truncates to max runes.
func normalizeName(s string, max int) string {
	s = norm.NFC.String(s)
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > max {
		s = strings.TrimSpace(string(r[:max]))
	}
	return s
}

func validGameSlug(s string) bool {
	return len(s) <= maxGameSlugLength && gameSlugPattern.MatchString(s)
}

func validScore(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}
