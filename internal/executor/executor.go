// Package executor drives a compiled model.Plan against a selected
// internal/backend.Backend: it generates the harness, runs every step in
// plan order honoring dependency skip-cascade and an optional fail-fast
// flag, and aggregates the outcome into a model.RunReport.
package executor

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/tast-lang/tast/internal/backend"
	"github.com/tast-lang/tast/internal/logger"
	"github.com/tast-lang/tast/internal/model"
	"github.com/tast-lang/tast/internal/runctx"
	tasterrors "github.com/tast-lang/tast/pkg/errors"
)

// Config configures a Run. Backend is either an explicit registry key or
// empty to auto-detect against WorkingDir.
type Config struct {
	Backend      string        `validate:"omitempty"`
	WorkingDir   string        `validate:"required"`
	StepTimeout  time.Duration `validate:"gte=0"`
	FailFast     bool
	CleanupAfter bool
	CaptureMode  string `validate:"omitempty,oneof=combined separate none"`

	// OnStepResult, if set, is called synchronously as each step finishes
	// (including skipped ones), so a caller can drive a live progress view.
	OnStepResult func(model.StepResult) `validate:"-"`
}

// Executor runs compiled plans against a registry of backends.
type Executor struct {
	registry *backend.Registry
	logger   *logger.Logger
}

// New constructs an Executor backed by reg, logging through log (pass
// logger.Noop() to discard).
func New(reg *backend.Registry, log *logger.Logger) *Executor {
	if log == nil {
		log = logger.Noop()
	}
	return &Executor{registry: reg, logger: log}
}

// Run selects a backend per cfg, generates its harness, and executes
// every step of plan in order. A node whose DependsOn names a node that
// did not pass is recorded as skipped rather than executed. If
// cfg.FailFast is set, the first failed or errored step stops remaining
// execution (already-skipped bookkeeping still applies to the results
// produced so far).
func (e *Executor) Run(cfg Config, plan *model.Plan) (*model.RunReport, error) {
	if err := validator.New().Struct(cfg); err != nil {
		return nil, tasterrors.NewPlanError("invalid executor configuration: " + err.Error())
	}

	b, err := e.selectBackend(cfg)
	if err != nil {
		return nil, err
	}

	rc := runctx.New(runctx.Config{
		WorkingDir:     cfg.WorkingDir,
		DefaultTimeout: cfg.StepTimeout,
		Capture:        cfg.CaptureMode,
	})

	start := time.Now()

	harness, err := b.GenerateHarness(plan, rc)
	if err != nil {
		return nil, err
	}
	if cfg.CleanupAfter {
		defer func() { _ = b.Cleanup(harness) }()
	}

	statusByNode := make(map[string]string, len(plan.Steps))
	results := make([]model.StepResult, 0, len(plan.Steps))
	stopped := false

	for _, step := range plan.Steps {
		if stopped {
			res := model.StepResult{
				Order:  step.Order,
				Node:   step.Node,
				Status: model.StatusSkipped,
				Error: &model.ErrorInfo{
					Kind:    string(tasterrors.StepSetupFailed),
					Message: "skipped: run stopped by fail-fast",
				},
			}
			statusByNode[step.Node] = res.Status
			results = append(results, res)
			if cfg.OnStepResult != nil {
				cfg.OnStepResult(res)
			}
			continue
		}

		if blocker, skip := firstFailedDependency(step, statusByNode); skip {
			res := model.StepResult{
				Order:  step.Order,
				Node:   step.Node,
				Status: model.StatusSkipped,
				Error: &model.ErrorInfo{
					Kind:    string(tasterrors.StepSetupFailed),
					Message: "skipped: dependency " + blocker + " did not pass",
				},
			}
			statusByNode[step.Node] = res.Status
			results = append(results, res)
			e.logger.Info("step skipped", "node", step.Node, "blocked_by", blocker)
			if cfg.OnStepResult != nil {
				cfg.OnStepResult(res)
			}
			continue
		}

		res, err := b.ExecuteStep(step, harness, rc)
		if err != nil {
			res = model.StepResult{
				Order:  step.Order,
				Node:   step.Node,
				Status: model.StatusErrored,
				Error:  &model.ErrorInfo{Kind: string(tasterrors.StepRuntimeError), Message: err.Error()},
			}
		}
		statusByNode[step.Node] = res.Status
		results = append(results, res)
		if res.Outputs != nil {
			rc.RecordOutputs(step.Node, res.Outputs)
		}
		e.logger.Info("step finished", "node", step.Node, "status", res.Status)
		if cfg.OnStepResult != nil {
			cfg.OnStepResult(res)
		}

		if cfg.FailFast && (res.Status == model.StatusFailed || res.Status == model.StatusErrored) {
			stopped = true
		}
	}

	report := &model.RunReport{
		Plan: plan.Meta,
		Run: model.RunMeta{
			Backend:    b.Name(),
			DurationMs: time.Since(start).Milliseconds(),
		},
		Results: results,
		Summary: model.Summarize(results),
	}
	return report, nil
}

func (e *Executor) selectBackend(cfg Config) (backend.Backend, error) {
	if cfg.Backend != "" {
		return e.registry.Get(cfg.Backend)
	}
	return e.registry.Detect(cfg.WorkingDir)
}

// firstFailedDependency reports the first dependency of step whose
// recorded status is not "passed", if step has any dependency that has
// already run to a non-passing outcome.
func firstFailedDependency(step model.PlanStep, statusByNode map[string]string) (string, bool) {
	for _, dep := range step.DependsOn {
		status, ran := statusByNode[dep]
		if ran && status != model.StatusPassed {
			return dep, true
		}
	}
	return "", false
}

// Levels groups plan steps into dependency levels: level 0 has no
// DependsOn, level 1 depends only on level-0 nodes, and so on. Nodes
// whose dependency chain cannot be resolved this way (e.g. a dependency
// outside the plan) are placed into a final level together, as a
// safeguard rather than a failure. This is not used by Run, which
// executes sequentially in plan order; it exists to support a future
// parallel executor without requiring callers to recompute it.
func Levels(plan *model.Plan) [][]string {
	levelOf := make(map[string]int, len(plan.Steps))
	var levels [][]string
	remaining := make([]model.PlanStep, len(plan.Steps))
	copy(remaining, plan.Steps)

	for len(remaining) > 0 {
		var ready []model.PlanStep
		var rest []model.PlanStep
		for _, step := range remaining {
			ok := true
			for _, dep := range step.DependsOn {
				if _, known := levelOf[dep]; !known {
					ok = false
					break
				}
			}
			if ok {
				ready = append(ready, step)
			} else {
				rest = append(rest, step)
			}
		}

		if len(ready) == 0 {
			// Safeguard: emit whatever remains as one final level instead of
			// looping forever on an unresolved dependency.
			var names []string
			for _, step := range rest {
				names = append(names, step.Node)
				levelOf[step.Node] = len(levels)
			}
			levels = append(levels, names)
			break
		}

		level := len(levels)
		var names []string
		for _, step := range ready {
			names = append(names, step.Node)
			levelOf[step.Node] = level
		}
		levels = append(levels, names)
		remaining = rest
	}

	return levels
}
