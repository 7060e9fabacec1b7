package harness

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/korhaliv/promptforge/internal/domain/models"
	"github.com/korhaliv/promptforge/internal/ports"
)

func TestRankOf(t *testing.T) {
	candidates := []ports.Candidate{
		{ID: "doc-a", Score: 0.9},
		{ID: "doc-b", Score: 0.7},
		{ID: "doc-c", Score: 0.5},
	}

	assert.Equal(t, 1, RankOf("doc-a", candidates))
	assert.Equal(t, 3, RankOf("doc-c", candidates))
	assert.Equal(t, 0, RankOf("doc-z", candidates))
	assert.Equal(t, 0, RankOf("doc-a", nil))
}

func TestSummarize_AllRankOne(t *testing.T) {
	outcomes := []Outcome{
		{QueryID: "q1", Rank: 1},
		{QueryID: "q2", Rank: 1},
		{QueryID: "q3", Rank: 1},
	}

	agg := Summarize(outcomes, []int{1, 5, 10})

	assert.Equal(t, 1.0, agg.HitRate[1])
	assert.Equal(t, 1.0, agg.HitRate[5])
	assert.Equal(t, 1.0, agg.HitRate[10])
	assert.Equal(t, 1.0, agg.MRR)
	assert.Equal(t, 1.0, agg.AvgRank)
}

func TestSummarize_NeverFound(t *testing.T) {
	outcomes := []Outcome{
		{QueryID: "q1", Rank: 0},
		{QueryID: "q2", Rank: 0},
	}

	agg := Summarize(outcomes, []int{1, 5})

	assert.Equal(t, 0.0, agg.HitRate[1])
	assert.Equal(t, 0.0, agg.HitRate[5])
	assert.Equal(t, 0.0, agg.MRR)
	assert.True(t, math.IsNaN(agg.AvgRank), "AvgRank should be NaN when nothing hit")
}

func TestSummarize_MixedRanks(t *testing.T) {
	// Hits at rank 1 and rank 2, one miss.
	outcomes := []Outcome{
		{QueryID: "q1", Rank: 1},
		{QueryID: "q2", Rank: 2},
		{QueryID: "q3", Rank: 0},
	}

	agg := Summarize(outcomes, []int{1, 2})

	assert.InDelta(t, 1.0/3.0, agg.HitRate[1], 1e-9)
	assert.InDelta(t, 2.0/3.0, agg.HitRate[2], 1e-9)
	assert.InDelta(t, 0.5, agg.MRR, 1e-9)
	assert.InDelta(t, 1.5, agg.AvgRank, 1e-9)
}

func TestSummarize_FailuresAreMisses(t *testing.T) {
	outcomes := []Outcome{
		{QueryID: "q1", Rank: 1},
		{QueryID: "q2", Failed: true, Err: "connection refused"},
	}

	agg := Summarize(outcomes, []int{1})

	assert.InDelta(t, 0.5, agg.HitRate[1], 1e-9)
	assert.InDelta(t, 0.5, agg.MRR, 1e-9)
	assert.Equal(t, 1, agg.Failures)
	assert.Equal(t, 2, agg.Queries)
}

func TestRankReports_TieBreaks(t *testing.T) {
	avg := 1.0
	reports := []*models.ConfigurationReport{
		{ConfigKey: "c0", Position: 0, HitRate: map[int]float64{10: 0.5}, MRR: 0.4, AvgRank: &avg},
		{ConfigKey: "c1", Position: 1, HitRate: map[int]float64{10: 0.8}, MRR: 0.6},
		{ConfigKey: "c2", Position: 2, HitRate: map[int]float64{10: 0.8}, MRR: 0.7},
		{ConfigKey: "c3", Position: 3, HitRate: map[int]float64{10: 0.8}, MRR: 0.7},
	}

	RankReports(reports, 10)

	// Highest hit rate first, MRR breaks the tie, declaration order after.
	assert.Equal(t, "c2", reports[0].ConfigKey)
	assert.Equal(t, "c3", reports[1].ConfigKey)
	assert.Equal(t, "c1", reports[2].ConfigKey)
	assert.Equal(t, "c0", reports[3].ConfigKey)
}

func TestRankReports_DegradedLast(t *testing.T) {
	reports := []*models.ConfigurationReport{
		{ConfigKey: "bad", Position: 0, HitRate: map[int]float64{5: 0.9}, Degraded: true},
		{ConfigKey: "ok", Position: 1, HitRate: map[int]float64{5: 0.2}},
	}

	RankReports(reports, 5)

	assert.Equal(t, "ok", reports[0].ConfigKey)
	assert.Equal(t, "bad", reports[1].ConfigKey)
}
