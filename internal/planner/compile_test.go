package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tast-lang/tast/internal/graph"
	"github.com/tast-lang/tast/internal/ir"
	"github.com/tast-lang/tast/internal/lang/lexer"
	"github.com/tast-lang/tast/internal/lang/parser"
	"github.com/tast-lang/tast/internal/model"
)

func buildGraph(t *testing.T, src string) *graph.Graph {
	t.Helper()
	toks, err := lexer.Tokenize("test.tast", src)
	require.NoError(t, err)
	file, err := parser.Parse("test.tast", toks)
	require.NoError(t, err)
	require.Len(t, file.Graphs, 1)
	g, err := ir.Lower("test.tast", file.Graphs[0])
	require.NoError(t, err)
	require.NoError(t, ir.Validate("test.tast", g))
	return graph.Build(g)
}

func TestEmptyGraphPlan(t *testing.T) {
	g := buildGraph(t, `graph Empty {}`)
	plan, err := Compile(g, model.StrategyTopological)
	require.NoError(t, err)
	assert.Equal(t, "Empty", plan.Meta.Name)
	assert.Equal(t, model.StrategyTopological, plan.Meta.Traversal)
	assert.Equal(t, 0, plan.Meta.NodesTotal)
	assert.Equal(t, 0, plan.Meta.EdgesTotal)
	assert.Empty(t, plan.Steps)
}

func TestLinearChainWiring(t *testing.T) {
	g := buildGraph(t, `
graph Chain {
  node A {
    when it starts
  }
  node B {
    requires { x }
    given x
    then y is returned
  }
  node C {
    requires { y }
    given y
    then done
  }
  A -> B { passes { x } }
  B -> C { passes { y } }
}
`)
	plan, err := Compile(g, model.StrategyTopological)
	require.NoError(t, err)
	require.Len(t, plan.Steps, 3)

	assert.Equal(t, "A", plan.Steps[0].Node)
	assert.Equal(t, "B", plan.Steps[1].Node)
	assert.Equal(t, "C", plan.Steps[2].Node)

	b := plan.Steps[1]
	assert.Equal(t, []string{"A"}, b.DependsOn)
	require.Len(t, b.Inputs, 1)
	assert.Equal(t, "x", b.Inputs[0].Field)
	assert.Equal(t, "A", b.Inputs[0].From)
	assert.Equal(t, []string{"y"}, b.Outputs)

	c := plan.Steps[2]
	assert.Equal(t, []string{"B"}, c.DependsOn)
	require.Len(t, c.Inputs, 1)
	assert.Equal(t, "y", c.Inputs[0].Field)
	assert.Equal(t, "B", c.Inputs[0].From)
	assert.Empty(t, c.Outputs)
}

func TestCategorizationTracksCurrentCategory(t *testing.T) {
	g := buildGraph(t, `
graph G {
  node N {
    given a setup exists
    and another setup exists
    when an action happens
    but another action happens
    then an outcome is observed
    and another outcome is observed
  }
}
`)
	plan, err := Compile(g, model.StrategyTopological)
	require.NoError(t, err)
	require.Len(t, plan.Steps, 1)
	step := plan.Steps[0]
	assert.Len(t, step.Preconditions, 2)
	assert.Len(t, step.Actions, 2)
	assert.Len(t, step.Assertions, 2)
}

func TestCategorizationLeadingContinuationIsPrecondition(t *testing.T) {
	g := buildGraph(t, `
graph G {
  node N {
    and a setup exists
  }
}
`)
	plan, err := Compile(g, model.StrategyTopological)
	require.NoError(t, err)
	assert.Len(t, plan.Steps[0].Preconditions, 1)
	assert.Empty(t, plan.Steps[0].Actions)
	assert.Empty(t, plan.Steps[0].Assertions)
}

func TestCompileCycleFails(t *testing.T) {
	g := buildGraph(t, `
graph G {
  node A {
    when it starts
  }
  node B {
    then it ends
  }
  A -> B {}
}
`)
	// Manually introduce a cycle the validator wouldn't catch at the edge
	// level (requires-satisfied doesn't forbid cycles): B -> A.
	toks, err := lexer.Tokenize("t.tast", `
graph G {
  node A {
    when it starts
  }
  node B {
    then it ends
  }
  A -> B {}
  B -> A {}
}
`)
	require.NoError(t, err)
	file, err := parser.Parse("t.tast", toks)
	require.NoError(t, err)
	irg, err := ir.Lower("t.tast", file.Graphs[0])
	require.NoError(t, err)
	require.NoError(t, ir.Validate("t.tast", irg))
	cyclic := graph.Build(irg)

	_, err = Compile(cyclic, model.StrategyTopological)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cycle")
	_ = g
}

func TestCompileDFSAndBFSStrategies(t *testing.T) {
	g := buildGraph(t, `
graph G {
  node A {
    when it starts
  }
  node B {
    then it ends
  }
  A -> B {}
}
`)
	for _, strategy := range []string{model.StrategyDFS, model.StrategyBFS} {
		plan, err := Compile(g, strategy)
		require.NoError(t, err)
		assert.Equal(t, strategy, plan.Meta.Traversal)
		require.Len(t, plan.Steps, 2)
		assert.Equal(t, "A", plan.Steps[0].Node)
		assert.Equal(t, "B", plan.Steps[1].Node)
	}
}

func TestCompileUnknownStrategy(t *testing.T) {
	g := buildGraph(t, `graph G {}`)
	_, err := Compile(g, "bogus")
	require.Error(t, err)
}
