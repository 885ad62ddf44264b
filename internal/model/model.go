// Package model holds the serialisable data model shared by the plan
// compiler and the execution engine: Plan/PlanStep describe a compiled
// test plan; StepResult/RunReport/Summary describe the
// outcome of running one. Every exported type carries YAML tags matching
// the serialised wire schema; internal/report's format emitters consume
// these types directly.
package model

import "time"

// Step outcome values ("Step result").
const (
	StatusPassed  = "passed"
	StatusFailed  = "failed"
	StatusSkipped = "skipped"
	StatusErrored = "error"
)

// Traversal strategy names accepted by --strategy and recorded in plan
// metadata.
const (
	StrategyTopological = "topological"
	StrategyDFS         = "dfs"
	StrategyBFS         = "bfs"
)

// PlanMeta is the `plan:` map at the top of a serialised plan or report.
type PlanMeta struct {
	Name       string `yaml:"name" json:"name"`
	Traversal  string `yaml:"traversal" json:"traversal"`
	NodesTotal int    `yaml:"nodes_total" json:"nodes_total"`
	EdgesTotal int    `yaml:"edges_total" json:"edges_total"`
}

// DataPair is a single `[key, value]` entry in a step's data list.
type DataPair [2]string

// Key returns the first element of the pair.
func (d DataPair) Key() string { return d[0] }

// Value returns the second element of the pair.
func (d DataPair) Value() string { return d[1] }

// ParamEntry is a single resolved (or unresolved) parameter binding,
// rendered with its provenance tag so a reader can tell where `<name>`
// came from without re-resolving it.
type ParamEntry struct {
	Name   string `yaml:"name" json:"name"`
	Value  string `yaml:"value,omitempty" json:"value,omitempty"`
	Source string `yaml:"source" json:"source"`
}

// StepEntry is one precondition/action/assertion line within a plan step.
type StepEntry struct {
	Type       string       `yaml:"type" json:"type"`
	Text       string       `yaml:"text" json:"text"`
	Data       []DataPair   `yaml:"data,omitempty" json:"data,omitempty"`
	Parameters []ParamEntry `yaml:"parameters,omitempty" json:"parameters,omitempty"`
}

// Input names a field a plan step consumes and the node that produces it.
type Input struct {
	Field string `yaml:"field" json:"field"`
	From  string `yaml:"from" json:"from"`
}

// PlanStep is one compiled, linearised node: its ordinal position, its
// categorised steps, and its data wiring to predecessors.
type PlanStep struct {
	Order         int         `yaml:"order" json:"order"`
	Node          string      `yaml:"node" json:"node"`
	Description   string      `yaml:"description,omitempty" json:"description,omitempty"`
	Tags          []string    `yaml:"tags,omitempty" json:"tags,omitempty"`
	DependsOn     []string    `yaml:"depends_on,omitempty" json:"depends_on,omitempty"`
	Preconditions []StepEntry `yaml:"preconditions,omitempty" json:"preconditions,omitempty"`
	Actions       []StepEntry `yaml:"actions,omitempty" json:"actions,omitempty"`
	Assertions    []StepEntry `yaml:"assertions,omitempty" json:"assertions,omitempty"`
	Inputs        []Input     `yaml:"inputs,omitempty" json:"inputs,omitempty"`
	Outputs       []string    `yaml:"outputs,omitempty" json:"outputs,omitempty"`
}

// Plan is the compiled, linear test plan: metadata plus an ordered list of
// plan steps.
type Plan struct {
	Meta  PlanMeta   `yaml:"plan" json:"plan"`
	Steps []PlanStep `yaml:"steps" json:"steps"`
}

// AssertionOutcome records whether one assertion entry on an executed step
// held.
type AssertionOutcome struct {
	Text    string `yaml:"text" json:"text"`
	Passed  bool   `yaml:"passed" json:"passed"`
	Message string `yaml:"message,omitempty" json:"message,omitempty"`
}

// ErrorInfo is the serialised form of a pkg/errors.StepError.
type ErrorInfo struct {
	Kind    string `yaml:"kind" json:"kind"`
	Message string `yaml:"message" json:"message"`
	Detail  string `yaml:"detail,omitempty" json:"detail,omitempty"`
}

// StepResult is the outcome of executing a single plan step.
type StepResult struct {
	Order      int                `yaml:"order" json:"order"`
	Node       string             `yaml:"node" json:"node"`
	Status     string             `yaml:"status" json:"status"`
	DurationMs int64              `yaml:"duration_ms" json:"duration_ms"`
	Error      *ErrorInfo         `yaml:"error,omitempty" json:"error,omitempty"`
	Assertions []AssertionOutcome `yaml:"assertions,omitempty" json:"assertions,omitempty"`

	// Outputs/Stdout/Stderr/Elapsed are not part of the serialised report
	// schema; they are carried for in-process use by the executor and
	// backends only.
	Outputs map[string]string `yaml:"-" json:"-"`
	Stdout  string            `yaml:"-" json:"-"`
	Stderr  string            `yaml:"-" json:"-"`
	Elapsed time.Duration     `yaml:"-" json:"-"`
}

// RunMeta is the `run:` map in a serialised run report.
type RunMeta struct {
	Backend    string `yaml:"backend" json:"backend"`
	DurationMs int64  `yaml:"duration_ms" json:"duration_ms"`
}

// Summary totals a run's step outcomes.
type Summary struct {
	Total   int  `yaml:"total" json:"total"`
	Passed  int  `yaml:"passed" json:"passed"`
	Failed  int  `yaml:"failed" json:"failed"`
	Skipped int  `yaml:"skipped" json:"skipped"`
	Errors  int  `yaml:"errors" json:"errors"`
	Success bool `yaml:"success" json:"success"`
}

// RunReport mirrors the plan layout plus the run's outcome:
// it is serialised as `plan:`, `run:`, `results:`, `summary:`.
type RunReport struct {
	Plan    PlanMeta     `yaml:"plan" json:"plan"`
	Run     RunMeta      `yaml:"run" json:"run"`
	Results []StepResult `yaml:"results" json:"results"`
	Summary Summary      `yaml:"summary" json:"summary"`
}

// Summarize computes a Summary from a list of results.
func Summarize(results []StepResult) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		switch r.Status {
		case StatusPassed:
			s.Passed++
		case StatusFailed:
			s.Failed++
		case StatusSkipped:
			s.Skipped++
		case StatusErrored:
			s.Errors++
		}
	}
	s.Success = s.Failed == 0 && s.Errors == 0
	return s
}
