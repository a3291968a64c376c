package stats

import (
	"sort"

	"github.com/thebtf/realmstats/pkg/models"
)

// topCounts returns the n largest counts, ties broken alphabetically. n <= 0 returns all.
func topCounts(counts map[string]int, n int) []models.NamedCount {
	out := make([]models.NamedCount, 0, len(counts))
	for name, c := range counts {
		out = append(out, models.NamedCount{Name: name, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
