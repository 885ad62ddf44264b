// Package backend defines the pluggable execution backend contract: a
// capability set implemented by the HTTP, shell, and native-project
// policies, plus the registry that selects among them.
package backend

import (
	"github.com/tast-lang/tast/internal/model"
	"github.com/tast-lang/tast/internal/runctx"
)

// Harness carries the artefacts a backend generated to make a plan
// executable: every file it wrote, a single entry-point among them, and a
// free-form metadata map.
type Harness struct {
	Files      []string
	EntryPoint string
	Metadata   map[string]string
}

// Backend is the abstract contract every execution policy implements.
type Backend interface {
	// Name is the backend's registry key, looked up case-sensitively.
	Name() string
	// Detect reports whether this backend recognises projectDir as one it
	// can run against.
	Detect(projectDir string) bool
	// GenerateHarness produces whatever artefacts the plan needs before
	// any step runs.
	GenerateHarness(plan *model.Plan, rc *runctx.Context) (*Harness, error)
	// ExecuteStep runs one plan step and returns its result. An error
	// return is an infrastructure failure, not a failed test: the
	// executor translates it into a StepResult with kind=runtime-error.
	ExecuteStep(step model.PlanStep, harness *Harness, rc *runctx.Context) (model.StepResult, error)
	// Cleanup releases anything GenerateHarness allocated.
	Cleanup(harness *Harness) error
}

// Registry owns the list of backends a run can select among.
type Registry struct {
	backends []Backend
}

// NewRegistry constructs an empty Registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register appends b to the registry. Later registrations do not replace
// earlier ones with the same name; Get returns the first match.
func (r *Registry) Register(b Backend) {
	r.backends = append(r.backends, b)
}

// Get returns the first registered backend whose name matches exactly, or
// a BackendError naming the available backends.
func (r *Registry) Get(name string) (Backend, error) {
	for _, b := range r.backends {
		if b.Name() == name {
			return b, nil
		}
	}
	return nil, newNotFoundError(name, r.List())
}

// Detect returns the first registered backend whose Detect predicate
// matches projectDir, trying registrations in registration order.
func (r *Registry) Detect(projectDir string) (Backend, error) {
	for _, b := range r.backends {
		if b.Detect(projectDir) {
			return b, nil
		}
	}
	return nil, newNotFoundError("", r.List())
}

// List returns every registered backend's name, in registration order.
func (r *Registry) List() []string {
	out := make([]string, len(r.backends))
	for i, b := range r.backends {
		out[i] = b.Name()
	}
	return out
}
