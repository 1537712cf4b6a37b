package search

import (
	"sort"
	"strings"

	lfuzzy "github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/mmcdole/reel/internal/domain"
	sfuzzy "github.com/sahilm/fuzzy"
)

// Match is one video that matched a filter query
type Match struct {
	Video          domain.Video
	Index          int   // Position in the indexed list
	Distance       int   // Edit distance to the title (lower = better)
	MatchedIndexes []int // Byte offsets in Video.Title that matched (for highlighting)
}

// Filter returns the videos whose titles fuzzy-match query, best first.
// An empty query returns every video in list order.
//
// Ranking uses Levenshtein distance over case- and accent-folded titles;
// highlight positions come from a second subsequence pass.
func (idx *Index) Filter(query string) []Match {
	query = strings.TrimSpace(query)
	if query == "" {
		all := make([]Match, len(idx.videos))
		for i, v := range idx.videos {
			all[i] = Match{Video: v, Index: i}
		}
		return all
	}

	ranks := lfuzzy.RankFindNormalizedFold(query, idx.lowerTitles)
	if len(ranks) == 0 {
		return nil
	}
	sort.SliceStable(ranks, func(i, j int) bool {
		if ranks[i].Distance != ranks[j].Distance {
			return ranks[i].Distance < ranks[j].Distance
		}
		return ranks[i].OriginalIndex < ranks[j].OriginalIndex
	})

	highlights := make(map[int][]int)
	for _, m := range sfuzzy.FindFrom(strings.ToLower(query), idx) {
		highlights[m.Index] = idx.originalOffsets(m.Index, m.MatchedIndexes)
	}

	matches := make([]Match, len(ranks))
	for i, r := range ranks {
		matches[i] = Match{
			Video:          idx.videos[r.OriginalIndex],
			Index:          r.OriginalIndex,
			Distance:       r.Distance,
			MatchedIndexes: highlights[r.OriginalIndex],
		}
	}
	return matches
}
