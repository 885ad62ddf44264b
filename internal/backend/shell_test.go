package backend_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tast-lang/tast/internal/backend"
	"github.com/tast-lang/tast/internal/model"
	"github.com/tast-lang/tast/internal/runctx"
)

func TestShellBackendGenerateAndExecute(t *testing.T) {
	b, err := backend.NewShellBackend(backend.ShellConfig{Timeout: 5 * time.Second})
	require.NoError(t, err)

	plan := &model.Plan{
		Steps: []model.PlanStep{
			{
				Order: 1,
				Node:  "WriteGreeting",
				Preconditions: []model.StepEntry{
					{Type: "given", Text: "a user named Ada"},
				},
				Actions: []model.StepEntry{
					{Type: "when", Text: "the greeting is rendered"},
				},
				Outputs: []string{"greeting"},
			},
		},
	}

	rc := runctx.New(runctx.Config{WorkingDir: "."})
	harness, err := b.GenerateHarness(plan, rc)
	require.NoError(t, err)
	require.Len(t, harness.Files, 1)
	defer b.Cleanup(harness)

	result, err := b.ExecuteStep(plan.Steps[0], harness, rc)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPassed, result.Status)

	// The generated placeholder script announces every declared output with
	// an empty value, so downstream input wiring resolves out of the box.
	outputs := rc.Outputs("WriteGreeting")
	require.Contains(t, outputs, "greeting")
	assert.Equal(t, "", outputs["greeting"])
}

func TestShellBackendMissingScript(t *testing.T) {
	b, err := backend.NewShellBackend(backend.ShellConfig{})
	require.NoError(t, err)

	rc := runctx.New(runctx.Config{WorkingDir: "."})
	_, err = b.ExecuteStep(model.PlanStep{Node: "Ghost"}, &backend.Harness{Metadata: map[string]string{}}, rc)
	require.Error(t, err)
}

func TestShellBackendMissingInput(t *testing.T) {
	b, err := backend.NewShellBackend(backend.ShellConfig{})
	require.NoError(t, err)

	plan := &model.Plan{Steps: []model.PlanStep{{Node: "Step"}}}
	rc := runctx.New(runctx.Config{WorkingDir: "."})
	harness, err := b.GenerateHarness(plan, rc)
	require.NoError(t, err)
	defer b.Cleanup(harness)

	step := model.PlanStep{Node: "Step", Inputs: []model.Input{{Field: "x", From: "Ghost"}}}
	result, err := b.ExecuteStep(step, harness, rc)
	require.NoError(t, err)
	assert.Equal(t, model.StatusFailed, result.Status)
	assert.Equal(t, "missing-input", result.Error.Kind)
}

func TestShellBackendDetectAlwaysFalse(t *testing.T) {
	b, err := backend.NewShellBackend(backend.ShellConfig{})
	require.NoError(t, err)
	assert.False(t, b.Detect("."))
}
