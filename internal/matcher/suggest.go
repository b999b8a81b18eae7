package matcher

import (
	"sort"
	"strings"

	"github.com/ginjaninja78/sport-passport-converter/internal/schema"
)

// MaxSuggestions is how many similar headers are reported per missing field.
const MaxSuggestions = 3

// Suggestion score parts. The final score is the largest applicable part.
const (
	suggestExact       = 100.0
	suggestWordOverlap = 50.0
	suggestContains    = 30.0
	suggestCharOverlap = 20.0
	suggestThreshold   = 15.0
)

// Suggest ranks candidate headers by similarity to target and returns up to
// max of them scoring at least the suggestion threshold. It is diagnostic
// only and independent of the variation tier.
func Suggest(target string, candidates []string, max int) []string {
	t := strings.TrimSpace(strings.TrimRight(strings.ToLower(target), schema.RequiredMarker))
	tWords := wordSet(t)
	tChars := charSet(t)

	type scored struct {
		score float64
		name  string
	}
	var all []scored
	for _, c := range candidates {
		if c == "" {
			continue
		}
		cl := strings.ToLower(strings.TrimSpace(c))

		score := 0.0
		if t == cl {
			score = suggestExact
		} else if cw := wordSet(cl); len(tWords) > 0 && len(cw) > 0 {
			score = jaccard(tWords, cw) * suggestWordOverlap
		}
		if strings.Contains(cl, t) || strings.Contains(t, cl) {
			score = maxf(score, suggestContains)
		}
		if t != "" && cl != "" {
			score = maxf(score, jaccard(tChars, charSet(cl))*suggestCharOverlap)
		}
		if score > 0 {
			all = append(all, scored{score, c})
		}
	}

	sort.SliceStable(all, func(i, j int) bool { return all[i].score > all[j].score })

	var out []string
	for i := 0; i < len(all) && i < max; i++ {
		if all[i].score >= suggestThreshold {
			out = append(out, all[i].name)
		}
	}
	return out
}

func charSet(s string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, r := range s {
		out[string(r)] = struct{}{}
	}
	return out
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
