// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package match locates the paragraph most similar to a translated context.
package match

import (
	"github.com/pmezard/go-difflib/difflib"
)

// Match is the winning candidate of a Best call.
type Match struct {
	Index int
	Text  string
	Score float64
}

// Ratio returns the SequenceMatcher similarity of a and b, compared rune by
// rune: twice the number of matched runes over the combined length.
func Ratio(a, b string) float64 {
	return difflib.NewMatcher(runes(a), runes(b)).Ratio()
}

// Best scores target against every candidate and returns the one with the
// strictly highest ratio, so the earliest candidate wins a tie. A candidate
// scoring zero never matches, and neither does one below minScore. ok is
// false when nothing qualifies.
func Best(target string, candidates []string, minScore float64) (m Match, ok bool) {
	a := runes(target)
	best := 0.0

	for i, c := range candidates {
		sm := difflib.NewMatcher(a, runes(c))
		// Both quick ratios bound Ratio from above; a candidate that
		// cannot beat the incumbent is left unscored.
		if sm.RealQuickRatio() <= best || sm.QuickRatio() <= best {
			continue
		}
		if score := sm.Ratio(); score > best {
			best = score
			m = Match{Index: i, Text: c, Score: score}
			ok = true
		}
	}

	if ok && best < minScore {
		return Match{}, false
	}
	return m, ok
}

func runes(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}
