package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adhypo/domain/core"
)

func TestParseRole(t *testing.T) {
	cases := map[string]Role{
		"data_agent":            RoleDataAnalysis,
		"insight_agent":         RoleHypothesisGeneration,
		"Evaluator":             RoleEvaluation,
		" creative_generator ":  RoleRecommendation,
		"hypothesis_generation": RoleHypothesisGeneration,
	}
	for in, want := range cases {
		got, err := ParseRole(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseRole("web_scraper")
	assert.ErrorIs(t, err, core.ErrUnknownRole)
}

func TestPlanValidate(t *testing.T) {
	valid := Plan{
		Query: "why did roas drop",
		Tasks: []Task{
			{ID: "task_1", Role: RoleDataAnalysis, Description: "load"},
			{ID: "task_2", Role: RoleEvaluation, Description: "evaluate", Dependencies: []core.TaskID{"task_1"}},
		},
	}
	require.NoError(t, valid.Validate())

	empty := Plan{Query: "q"}
	assert.ErrorIs(t, empty.Validate(), core.ErrEmptyPlan)

	missingDesc := Plan{Query: "q", Tasks: []Task{{ID: "task_1", Role: RoleDataAnalysis}}}
	err := missingDesc.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Description")

	badRole := Plan{Query: "q", Tasks: []Task{{ID: "task_1", Role: "scraper", Description: "x"}}}
	assert.ErrorIs(t, badRole.Validate(), core.ErrUnknownRole)
}

func TestPlanTaskLookup(t *testing.T) {
	p := Plan{Tasks: []Task{{ID: "a", Name: "Alpha"}, {ID: "b", Description: "Beta step"}}}
	got, ok := p.Task("b")
	require.True(t, ok)
	assert.Equal(t, "Beta step", got.DisplayName())
	_, ok = p.Task("c")
	assert.False(t, ok)
}
