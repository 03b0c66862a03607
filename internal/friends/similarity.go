package friends

import (
	"sort"
	"strings"
)

// GenreSimilarity computes the overlap between two declared genre sets: the
// shared tags and the Jaccard index |A∩B| / |A∪B|. Inputs are lowercased and
// de-duplicated before comparing, the shared list is sorted, and an empty set
// on either side yields a score of zero rather than a division by zero.
func GenreSimilarity(genresA, genresB []string) (shared []string, score float64) {
	setA := toSet(genresA)
	setB := toSet(genresB)
	if len(setA) == 0 || len(setB) == 0 {
		return nil, 0
	}

	union := len(setA)
	for g := range setB {
		if _, ok := setA[g]; ok {
			shared = append(shared, g)
		} else {
			union++
		}
	}
	sort.Strings(shared)

	return shared, float64(len(shared)) / float64(union)
}

func toSet(genres []string) map[string]struct{} {
	set := make(map[string]struct{}, len(genres))
	for _, g := range genres {
		g = strings.ToLower(strings.TrimSpace(g))
		if g == "" {
			continue
		}
		set[g] = struct{}{}
	}
	return set
}
