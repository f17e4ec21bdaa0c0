package weights

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
)

const maxSimilar = 3

// Similar returns up to three existing keys that are a few edits away from key.
// It is used to flag likely typos when a new key shows up in lore.
func (t *Table) Similar(key string) []string {
	needle := strings.ToLower(strings.TrimSpace(key))
	if len(needle) < 3 {
		return nil
	}
	limit := distanceLimit(len(needle))

	type hit struct {
		key  string
		dist int
	}
	var hits []hit
	for _, e := range t.entries {
		cand := e.key.Value
		if cand == key {
			continue
		}
		dist := levenshtein.ComputeDistance(needle, strings.ToLower(cand))
		if dist > limit {
			continue
		}
		hits = append(hits, hit{key: cand, dist: dist})
	}
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].dist != hits[j].dist {
			return hits[i].dist < hits[j].dist
		}
		return hits[i].key < hits[j].key
	})
	if len(hits) > maxSimilar {
		hits = hits[:maxSimilar]
	}
	out := make([]string, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.key)
	}
	return out
}

func distanceLimit(length int) int {
	switch {
	case length <= 4:
		return 1
	case length <= 8:
		return 2
	default:
		return 3
	}
}
