package ui

import (
	"slices"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Suggest returns up to limit candidates that resemble query, best first.
// Subsequence matches (e.g. "vcredist" in "VC Redist x64") are ranked by
// fuzzysearch distance; near misses with typos are added by edit distance.
func Suggest(query string, candidates []string, limit int) []string {
	query = strings.TrimSpace(query)
	if query == "" || len(candidates) == 0 || limit <= 0 {
		return nil
	}

	type scored struct {
		name     string
		distance int
	}
	best := make(map[string]int)

	for _, r := range fuzzy.RankFindNormalizedFold(query, candidates) {
		best[r.Target] = r.Distance
	}

	lowerQuery := strings.ToLower(query)
	maxEdits := max(2, len(query)/3)
	for _, c := range candidates {
		if _, ok := best[c]; ok {
			continue
		}
		if d := fuzzy.LevenshteinDistance(lowerQuery, strings.ToLower(c)); d <= maxEdits {
			best[c] = d
		}
	}

	ranked := make([]scored, 0, len(best))
	for name, d := range best {
		ranked = append(ranked, scored{name, d})
	}
	slices.SortFunc(ranked, func(a, b scored) int {
		if a.distance != b.distance {
			return a.distance - b.distance
		}
		return strings.Compare(a.name, b.name)
	})

	out := make([]string, 0, min(limit, len(ranked)))
	for _, s := range ranked {
		if len(out) == limit {
			break
		}
		out = append(out, s.name)
	}
	return out
}
