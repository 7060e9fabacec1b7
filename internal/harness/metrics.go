package harness

import (
	"math"
	"sort"

	"github.com/korhaliv/promptforge/internal/domain/models"
	"github.com/korhaliv/promptforge/internal/ports"
)

// Outcome is one scored (configuration, query) call. Rank is 1-based and
// zero when the expected identifier was not returned; failed calls count
// as misses.
type Outcome struct {
	QueryID   string
	Rank      int
	Failed    bool
	Err       string
	LatencyMs int64
}

// Aggregate summarizes a configuration's outcomes over the dataset.
// AvgRank averages over hits only and is NaN when nothing hit.
type Aggregate struct {
	HitRate  map[int]float64
	MRR      float64
	AvgRank  float64
	Queries  int
	Failures int
}

// RankOf returns the 1-based position of expected in candidates, 0 when
// absent. Candidate order is the retriever's ranking.
func RankOf(expected string, candidates []ports.Candidate) int {
	for i, c := range candidates {
		if c.ID == expected {
			return i + 1
		}
	}
	return 0
}

// Summarize computes HitRate@K for every cutoff, MRR (a miss contributes
// zero), and AvgRank over the outcomes.
func Summarize(outcomes []Outcome, cutoffs []int) Aggregate {
	agg := Aggregate{
		HitRate: make(map[int]float64, len(cutoffs)),
		AvgRank: math.NaN(),
		Queries: len(outcomes),
	}
	if len(outcomes) == 0 {
		for _, k := range cutoffs {
			agg.HitRate[k] = 0
		}
		return agg
	}

	hits := make(map[int]int, len(cutoffs))
	var reciprocalSum float64
	var rankSum, hitCount int

	for _, o := range outcomes {
		if o.Failed {
			agg.Failures++
		}
		if o.Rank <= 0 {
			continue
		}
		for _, k := range cutoffs {
			if o.Rank <= k {
				hits[k]++
			}
		}
		reciprocalSum += 1.0 / float64(o.Rank)
		rankSum += o.Rank
		hitCount++
	}

	n := float64(len(outcomes))
	for _, k := range cutoffs {
		agg.HitRate[k] = float64(hits[k]) / n
	}
	agg.MRR = reciprocalSum / n
	if hitCount > 0 {
		agg.AvgRank = float64(rankSum) / float64(hitCount)
	}

	return agg
}

// RankReports orders reports best-first: HitRate at the given cutoff
// descending, ties broken by MRR descending, remaining ties by declaration
// order. Degraded configurations sort after healthy ones.
func RankReports(reports []*models.ConfigurationReport, cutoff int) {
	sort.SliceStable(reports, func(i, j int) bool {
		a, b := reports[i], reports[j]
		if a.Degraded != b.Degraded {
			return !a.Degraded
		}
		if a.HitRate[cutoff] != b.HitRate[cutoff] {
			return a.HitRate[cutoff] > b.HitRate[cutoff]
		}
		if a.MRR != b.MRR {
			return a.MRR > b.MRR
		}
		return a.Position < b.Position
	})
}
