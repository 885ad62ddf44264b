// Package mockbackend implements a minimal, scriptable backend.Backend used
// by internal/executor's tests. Kept as its own importable package since Go
// test files cannot be imported across packages.
package mockbackend

import (
	"github.com/tast-lang/tast/internal/backend"
	"github.com/tast-lang/tast/internal/model"
	"github.com/tast-lang/tast/internal/runctx"
	"github.com/tast-lang/tast/pkg/errors"
)

// Backend runs every step as "passed" unless the node name is listed in
// FailResult (ExecuteStep returns that result) or Err (ExecuteStep returns
// that error).
type Backend struct {
	DetectResult bool
	FailResult   map[string]model.StepResult
	Err          map[string]error
	Outputs      map[string]map[string]string

	GeneratedHarness *Harness
	ExecutedNodes    []string
	CleanedUp        bool
}

// Harness is the mock's harness payload, recorded so tests can assert on
// what was generated.
type Harness = backend.Harness

// New constructs an empty mock backend that passes every step.
func New() *Backend {
	return &Backend{
		FailResult: make(map[string]model.StepResult),
		Err:        make(map[string]error),
		Outputs:    make(map[string]map[string]string),
	}
}

// Name implements backend.Backend.
func (b *Backend) Name() string { return "mock" }

// Detect implements backend.Backend.
func (b *Backend) Detect(string) bool { return b.DetectResult }

// GenerateHarness implements backend.Backend.
func (b *Backend) GenerateHarness(plan *model.Plan, rc *runctx.Context) (*backend.Harness, error) {
	h := &backend.Harness{Metadata: map[string]string{"backend": "mock"}}
	b.GeneratedHarness = h
	return h, nil
}

// ExecuteStep implements backend.Backend.
func (b *Backend) ExecuteStep(step model.PlanStep, harness *backend.Harness, rc *runctx.Context) (model.StepResult, error) {
	b.ExecutedNodes = append(b.ExecutedNodes, step.Node)

	if err, ok := b.Err[step.Node]; ok {
		return model.StepResult{}, err
	}
	if res, ok := b.FailResult[step.Node]; ok {
		res.Order = step.Order
		res.Node = step.Node
		return res, nil
	}

	outputs := b.Outputs[step.Node]
	if rc != nil {
		rc.RecordOutputs(step.Node, outputs)
	}
	return model.StepResult{
		Order:   step.Order,
		Node:    step.Node,
		Status:  model.StatusPassed,
		Outputs: outputs,
	}, nil
}

// Cleanup implements backend.Backend.
func (b *Backend) Cleanup(*backend.Harness) error {
	b.CleanedUp = true
	return nil
}

// NewFailingHarnessBackend is a convenience constructor for tests that only
// need harness-generation to fail.
func NewFailingHarnessBackend(message string) backend.Backend {
	return &failingHarnessBackend{message: message}
}

type failingHarnessBackend struct{ message string }

func (b *failingHarnessBackend) Name() string { return "mock-failing-harness" }
func (b *failingHarnessBackend) Detect(string) bool { return false }
func (b *failingHarnessBackend) Cleanup(*backend.Harness) error { return nil }

func (b *failingHarnessBackend) GenerateHarness(*model.Plan, *runctx.Context) (*backend.Harness, error) {
	return nil, errors.NewBackendError(b.Name(), errors.BackendHarnessGenerationError, b.message, nil)
}

func (b *failingHarnessBackend) ExecuteStep(step model.PlanStep, _ *backend.Harness, _ *runctx.Context) (model.StepResult, error) {
	return model.StepResult{Order: step.Order, Node: step.Node, Status: model.StatusPassed}, nil
}
