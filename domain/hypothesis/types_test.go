package hypothesis

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"adhypo/domain/core"
)

func TestRankingScore(t *testing.T) {
	h := Hypothesis{Likelihood: 0.8, Impact: LevelHigh, Actionability: LevelMedium}
	assert.InDelta(t, 0.8*0.4+1.0*0.3+0.5*0.3, h.RankingScore(), 1e-9)

	unknown := Hypothesis{Likelihood: 0.5, Impact: "", Actionability: LevelLow}
	assert.InDelta(t, 0.2+0.06+0.06, unknown.RankingScore(), 1e-9)
}

func TestSetRankStable(t *testing.T) {
	s := Set{Hypotheses: []Hypothesis{
		{ID: "a", Likelihood: 0.5, Impact: LevelMedium, Actionability: LevelMedium},
		{ID: "b", Likelihood: 0.9, Impact: LevelHigh, Actionability: LevelHigh},
		{ID: "c", Likelihood: 0.5, Impact: LevelMedium, Actionability: LevelMedium},
	}}
	s.Rank()
	assert.Equal(t, []core.HypothesisID{"b", "a", "c"}, s.ValidationOrder)
	assert.Len(t, s.Ranking, 3)
}
