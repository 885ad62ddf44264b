package executor_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tast-lang/tast/internal/backend"
	"github.com/tast-lang/tast/internal/backend/mockbackend"
	"github.com/tast-lang/tast/internal/executor"
	"github.com/tast-lang/tast/internal/model"
)

func samplePlan() *model.Plan {
	return &model.Plan{
		Meta: model.PlanMeta{Name: "Sample", Traversal: model.StrategyTopological, NodesTotal: 3, EdgesTotal: 2},
		Steps: []model.PlanStep{
			{Order: 1, Node: "A"},
			{Order: 2, Node: "B", DependsOn: []string{"A"}},
			{Order: 3, Node: "C", DependsOn: []string{"B"}},
		},
	}
}

func TestRunAllPass(t *testing.T) {
	reg := backend.NewRegistry()
	mock := mockbackend.New()
	reg.Register(mock)

	ex := executor.New(reg, nil)
	report, err := ex.Run(executor.Config{Backend: "mock", WorkingDir: "."}, samplePlan())
	require.NoError(t, err)
	assert.Equal(t, 3, report.Summary.Total)
	assert.Equal(t, 3, report.Summary.Passed)
	assert.True(t, report.Summary.Success)
	assert.Equal(t, []string{"A", "B", "C"}, mock.ExecutedNodes)
}

func TestRunSkipCascade(t *testing.T) {
	reg := backend.NewRegistry()
	mock := mockbackend.New()
	mock.FailResult["A"] = model.StepResult{Status: model.StatusFailed}
	reg.Register(mock)

	ex := executor.New(reg, nil)
	report, err := ex.Run(executor.Config{Backend: "mock", WorkingDir: "."}, samplePlan())
	require.NoError(t, err)

	require.Len(t, report.Results, 3)
	assert.Equal(t, model.StatusFailed, report.Results[0].Status)
	assert.Equal(t, model.StatusSkipped, report.Results[1].Status)
	assert.Equal(t, model.StatusSkipped, report.Results[2].Status)
	assert.Equal(t, []string{"A"}, mock.ExecutedNodes)
}

func TestRunFailFastSkipsRemaining(t *testing.T) {
	reg := backend.NewRegistry()
	mock := mockbackend.New()
	mock.FailResult["A"] = model.StepResult{Status: model.StatusFailed}
	reg.Register(mock)

	ex := executor.New(reg, nil)
	report, err := ex.Run(executor.Config{Backend: "mock", WorkingDir: ".", FailFast: true}, samplePlan())
	require.NoError(t, err)

	require.Len(t, report.Results, 3)
	assert.Equal(t, model.StatusFailed, report.Results[0].Status)
	assert.Equal(t, model.StatusSkipped, report.Results[1].Status)
	assert.Equal(t, model.StatusSkipped, report.Results[2].Status)
	assert.Equal(t, []string{"A"}, mock.ExecutedNodes)
}

// diamondPlan is A -> B -> C plus an independent D.
func diamondPlan() *model.Plan {
	return &model.Plan{
		Meta: model.PlanMeta{Name: "Diamond", Traversal: model.StrategyTopological, NodesTotal: 4, EdgesTotal: 2},
		Steps: []model.PlanStep{
			{Order: 1, Node: "A"},
			{Order: 2, Node: "B", DependsOn: []string{"A"}},
			{Order: 3, Node: "C", DependsOn: []string{"B"}},
			{Order: 4, Node: "D"},
		},
	}
}

func TestRunFailureCascadeSparesIndependentNodes(t *testing.T) {
	reg := backend.NewRegistry()
	mock := mockbackend.New()
	mock.FailResult["B"] = model.StepResult{Status: model.StatusFailed}
	reg.Register(mock)

	ex := executor.New(reg, nil)
	report, err := ex.Run(executor.Config{Backend: "mock", WorkingDir: "."}, diamondPlan())
	require.NoError(t, err)

	require.Len(t, report.Results, 4)
	assert.Equal(t, model.StatusPassed, report.Results[0].Status)
	assert.Equal(t, model.StatusFailed, report.Results[1].Status)
	assert.Equal(t, model.StatusSkipped, report.Results[2].Status)
	assert.Equal(t, model.StatusPassed, report.Results[3].Status)
}

func TestRunFailFastSkipsIndependentNodes(t *testing.T) {
	reg := backend.NewRegistry()
	mock := mockbackend.New()
	mock.FailResult["B"] = model.StepResult{Status: model.StatusFailed}
	reg.Register(mock)

	ex := executor.New(reg, nil)
	report, err := ex.Run(executor.Config{Backend: "mock", WorkingDir: ".", FailFast: true}, diamondPlan())
	require.NoError(t, err)

	require.Len(t, report.Results, 4)
	assert.Equal(t, model.StatusPassed, report.Results[0].Status)
	assert.Equal(t, model.StatusFailed, report.Results[1].Status)
	assert.Equal(t, model.StatusSkipped, report.Results[2].Status)
	assert.Equal(t, model.StatusSkipped, report.Results[3].Status)
	assert.Equal(t, []string{"A", "B"}, mock.ExecutedNodes)
}

func TestRunPropagatesOutputsThroughContext(t *testing.T) {
	reg := backend.NewRegistry()
	mock := mockbackend.New()
	mock.Outputs["A"] = map[string]string{"x": "1"}
	reg.Register(mock)

	plan := samplePlan()
	plan.Steps[0].Outputs = []string{"x"}
	plan.Steps[1].Inputs = []model.Input{{Field: "x", From: "A"}}

	ex := executor.New(reg, nil)
	report, err := ex.Run(executor.Config{Backend: "mock", WorkingDir: "."}, plan)
	require.NoError(t, err)
	assert.True(t, report.Summary.Success)
	assert.Equal(t, map[string]string{"x": "1"}, report.Results[0].Outputs)
}

func TestRunCleanupAfter(t *testing.T) {
	reg := backend.NewRegistry()
	mock := mockbackend.New()
	reg.Register(mock)

	ex := executor.New(reg, nil)
	_, err := ex.Run(executor.Config{Backend: "mock", WorkingDir: ".", CleanupAfter: true}, samplePlan())
	require.NoError(t, err)
	assert.True(t, mock.CleanedUp)
}

func TestRunUnknownBackend(t *testing.T) {
	reg := backend.NewRegistry()
	ex := executor.New(reg, nil)
	_, err := ex.Run(executor.Config{Backend: "ghost", WorkingDir: "."}, samplePlan())
	require.Error(t, err)
}

func TestRunAutoDetectsBackend(t *testing.T) {
	reg := backend.NewRegistry()
	mock := mockbackend.New()
	mock.DetectResult = true
	reg.Register(mock)

	ex := executor.New(reg, nil)
	report, err := ex.Run(executor.Config{WorkingDir: "."}, samplePlan())
	require.NoError(t, err)
	assert.Equal(t, "mock", report.Run.Backend)
}

func TestLevelsGroupsByDependencyDepth(t *testing.T) {
	levels := executor.Levels(samplePlan())
	require.Len(t, levels, 3)
	assert.Equal(t, []string{"A"}, levels[0])
	assert.Equal(t, []string{"B"}, levels[1])
	assert.Equal(t, []string{"C"}, levels[2])
}

func TestLevelsGroupsIndependentNodesTogether(t *testing.T) {
	plan := &model.Plan{
		Steps: []model.PlanStep{
			{Node: "A"},
			{Node: "B"},
			{Node: "C", DependsOn: []string{"A", "B"}},
		},
	}
	levels := executor.Levels(plan)
	require.Len(t, levels, 2)
	assert.ElementsMatch(t, []string{"A", "B"}, levels[0])
	assert.Equal(t, []string{"C"}, levels[1])
}
