// internal/domain/trend/engine.go

package trend

import (
	"sort"
)

// Defaults used when callers pass out-of-range parameters.
const (
	DefaultTopN      = 10
	DefaultThreshold = 0.3
	DefaultTopK      = 3
)

// ComputeTrending counts label occurrences and pairwise co-occurrences
// across items and ranks labels by count. Equal counts keep the order in
// which labels were first seen.
//
// The returned tables are owned by the result; nothing is shared between
// calls, so concurrent invocations on separate inputs need no locking.
func ComputeTrending(items []Item, topN int) TrendResult {
	if topN < 1 {
		topN = DefaultTopN
	}

	stats := make(LabelStats)
	var co CooccurrenceMatrix
	var seen []string

	for _, item := range items {
		labels := item.Labels
		for _, l := range labels {
			if _, ok := stats[l]; !ok {
				seen = append(seen, l)
			}
			stats[l]++
		}

		for i := 0; i < len(labels); i++ {
			for j := i + 1; j < len(labels); j++ {
				co.add(labels[i], labels[j])
				co.add(labels[j], labels[i])
			}
		}
	}

	ranked := make([]LabelCount, len(seen))
	for i, l := range seen {
		ranked[i] = LabelCount{Tag: l, Count: stats[l]}
	}
	// seen is already in first-encounter order, a stable sort keeps it for ties
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Count > ranked[j].Count
	})
	if len(ranked) > topN {
		ranked = ranked[:topN]
	}

	return TrendResult{
		Top:          ranked,
		Stats:        stats,
		Cooccurrence: co,
	}
}

// RecommendHashtags returns labels that appear alongside target in at least
// threshold of target's occurrences. The rate is always relative to the
// target's total count, so the relation is directional.
//
// Unknown targets yield an empty list. Equal rates keep the order in which
// the partner label was first counted with target.
func RecommendHashtags(target string, co CooccurrenceMatrix, stats LabelStats, threshold float64, topK int) []Recommendation {
	if topK < 1 {
		topK = DefaultTopK
	}

	total := stats.Count(target)
	if total <= 0 {
		return []Recommendation{}
	}

	partners := co.Partners(target)
	related := make([]Recommendation, 0, len(partners))
	for _, other := range partners {
		c := co.Pair(target, other)
		rate := float64(c) / float64(total)
		if rate >= threshold {
			related = append(related, Recommendation{Tag: other, Cooccurrence: c, Rate: rate})
		}
	}

	sort.SliceStable(related, func(i, j int) bool {
		return related[i].Rate > related[j].Rate
	})
	if len(related) > topK {
		related = related[:topK]
	}
	return related
}

// Recommend is RecommendHashtags over the tables held by r.
func (r TrendResult) Recommend(target string, threshold float64, topK int) []Recommendation {
	return RecommendHashtags(target, r.Cooccurrence, r.Stats, threshold, topK)
}
