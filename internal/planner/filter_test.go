package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tast-lang/tast/internal/model"
)

func samplePlan() *model.Plan {
	return &model.Plan{
		Meta: model.PlanMeta{Name: "G", Traversal: "topological", NodesTotal: 3, EdgesTotal: 2},
		Steps: []model.PlanStep{
			{Order: 1, Node: "A", Tags: []string{"smoke"}},
			{Order: 2, Node: "B", Tags: []string{"slow"}},
			{Order: 3, Node: "C", Tags: []string{"smoke", "slow"}},
		},
	}
}

func TestParseFilterBareTagIsInclude(t *testing.T) {
	pred := ParseFilter("smoke")
	assert.True(t, pred.Match([]string{"smoke"}))
	assert.False(t, pred.Match([]string{"slow"}))
}

func TestParseFilterNotIsExclude(t *testing.T) {
	pred := ParseFilter("NOT slow")
	assert.True(t, pred.Match([]string{"smoke"}))
	assert.False(t, pred.Match([]string{"slow"}))
}

func TestParseFilterCommaIsOr(t *testing.T) {
	pred := ParseFilter("smoke,other")
	assert.True(t, pred.Match([]string{"other"}))
	assert.False(t, pred.Match([]string{"slow"}))
}

func TestParseFilterAndRequiresAllChildren(t *testing.T) {
	pred := ParseFilter("smoke AND slow")
	assert.True(t, pred.Match([]string{"smoke", "slow"}))
	assert.False(t, pred.Match([]string{"smoke"}))
}

func TestFilterRenumbersSurvivors(t *testing.T) {
	plan := samplePlan()
	out := Filter(plan, ParseFilter("smoke"))
	require.Len(t, out.Steps, 2)
	assert.Equal(t, "A", out.Steps[0].Node)
	assert.Equal(t, 1, out.Steps[0].Order)
	assert.Equal(t, "C", out.Steps[1].Node)
	assert.Equal(t, 2, out.Steps[1].Order)
	assert.Equal(t, 2, out.Meta.NodesTotal)
	assert.Equal(t, 2, out.Meta.EdgesTotal)
}

// TestFilterCompositionality checks that filter(filter(p, phi), psi) equals
// filter(p, phi AND psi) on the step set.
func TestFilterCompositionality(t *testing.T) {
	plan := samplePlan()
	sequential := Filter(Filter(plan, ParseFilter("smoke")), ParseFilter("slow"))
	combined := Filter(plan, ParseFilter("smoke AND slow"))

	seqNodes := stepNodes(sequential)
	combinedNodes := stepNodes(combined)
	assert.ElementsMatch(t, combinedNodes, seqNodes)
}

func stepNodes(p *model.Plan) []string {
	out := make([]string, len(p.Steps))
	for i, s := range p.Steps {
		out[i] = s.Node
	}
	return out
}
