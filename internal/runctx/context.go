// Package runctx holds the run context: the only mutable
// state during plan execution, recording each completed node's outputs and
// resolving a downstream step's declared inputs against them.
package runctx

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/tast-lang/tast/internal/model"
)

// Config is the executor's run configuration, validated by
// internal/executor with go-playground/validator.
type Config struct {
	WorkingDir     string        `validate:"required"`
	DefaultTimeout time.Duration `validate:"gte=0"`
	Capture        string        `validate:"omitempty,oneof=combined separate none"`
}

// Context is the per-run mutable state: a mapping from completed-node name
// to that node's output key/value map, plus the run's execution
// configuration. Safe for concurrent use: RecordOutputs and ResolveInputs
// are the only operations that touch shared state, and both serialise on
// an internal mutex.
type Context struct {
	Config Config

	mu      sync.Mutex
	outputs map[string]map[string]string
}

// New constructs an empty Context for one run.
func New(cfg Config) *Context {
	return &Context{Config: cfg, outputs: make(map[string]map[string]string)}
}

// RecordOutputs stores node's output map, replacing any prior record for
// the same node.
func (c *Context) RecordOutputs(node string, outputs map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := make(map[string]string, len(outputs))
	for k, v := range outputs {
		cp[k] = v
	}
	c.outputs[node] = cp
}

// Outputs returns a copy of the recorded outputs for node, or nil if the
// node has not completed.
func (c *Context) Outputs(node string) map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	m, ok := c.outputs[node]
	if !ok {
		return nil
	}
	cp := make(map[string]string, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return cp
}

// ResolveInputs resolves every (field, source-node) pair against recorded
// outputs. On success it returns the resolved field->value map and a nil
// unresolved list. Unlike a fail-fast resolver, every unresolvable input is
// collected and returned as a human-readable description ("missing node
// %q" / "missing field %q from node %q") rather than stopping at the
// first.
func (c *Context) ResolveInputs(inputs []model.Input) (map[string]string, []string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	resolved := make(map[string]string, len(inputs))
	var unresolved []string
	for _, in := range inputs {
		produced, ok := c.outputs[in.From]
		if !ok {
			unresolved = append(unresolved, fmt.Sprintf("missing node %q", in.From))
			continue
		}
		value, ok := produced[in.Field]
		if !ok {
			unresolved = append(unresolved, fmt.Sprintf("missing field %q from node %q", in.Field, in.From))
			continue
		}
		resolved[in.Field] = value
	}
	return resolved, unresolved
}

// EnvName builds the TAST_INPUT_<FIELD_UPPER> environment variable name
// for a given input field.
func EnvName(field string) string {
	upper := strings.ToUpper(field)
	var b strings.Builder
	b.WriteString("TAST_INPUT_")
	for _, r := range upper {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}

const outputMarkerPrefix = "TAST_OUTPUT:"

// ParseOutputMarkers scans stdout for lines beginning with "TAST_OUTPUT:"
// followed by a JSON object, merging their key/value pairs. Later marker
// lines overwrite earlier ones on key conflict; lines whose JSON fails to
// parse are skipped.
func ParseOutputMarkers(stdout string) map[string]string {
	out := make(map[string]string)
	for _, line := range strings.Split(stdout, "\n") {
		line = strings.TrimSpace(line)
		rest, ok := strings.CutPrefix(line, outputMarkerPrefix)
		if !ok {
			continue
		}
		var obj map[string]any
		if err := json.Unmarshal([]byte(rest), &obj); err != nil {
			continue
		}
		for k, v := range obj {
			out[k] = fmt.Sprintf("%v", v)
		}
	}
	return out
}
