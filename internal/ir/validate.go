package ir

import (
	"fmt"
	"sort"

	"github.com/tast-lang/tast/pkg/errors"
)

// Validate enforces the graph-level invariants on a fully resolved graph
// (every edge endpoint already carries an in-bounds index; call this after
// cross-graph rewiring, not on a freshly lowered single-file graph that
// still has unresolved dotted edges).
func Validate(path string, g *Graph) error {
	seen := make(map[string]errors.Span, len(g.Nodes))
	for _, n := range g.Nodes {
		if _, ok := seen[n.Name]; ok {
			return errors.NewSemanticError(path, fmt.Sprintf("node %q", n.Name), n.Span,
				fmt.Sprintf("duplicate node name %q", n.Name))
		}
		seen[n.Name] = n.Span
	}

	fixtureSeen := make(map[string]bool, len(g.Fixtures))
	for _, f := range g.Fixtures {
		if fixtureSeen[f.Name] {
			return errors.NewSemanticError(path, fmt.Sprintf("fixture %q", f.Name), f.Span,
				fmt.Sprintf("duplicate fixture name %q", f.Name))
		}
		fixtureSeen[f.Name] = true
	}

	for _, e := range g.Edges {
		if e.FromIndex < 0 || e.FromIndex >= len(g.Nodes) {
			return errors.NewSemanticError(path, fmt.Sprintf("edge %s -> %s", e.From, e.To), e.Span,
				fmt.Sprintf("edge source %q does not resolve to a node", e.From))
		}
		if e.ToIndex < 0 || e.ToIndex >= len(g.Nodes) {
			return errors.NewSemanticError(path, fmt.Sprintf("edge %s -> %s", e.From, e.To), e.Span,
				fmt.Sprintf("edge target %q does not resolve to a node", e.To))
		}
	}

	passesByTarget := make(map[int]map[string]bool, len(g.Nodes))
	for _, e := range g.Edges {
		m := passesByTarget[e.ToIndex]
		if m == nil {
			m = make(map[string]bool)
			passesByTarget[e.ToIndex] = m
		}
		for _, f := range e.Passes {
			m[f] = true
		}
	}

	for i, n := range g.Nodes {
		if len(n.Requires) == 0 {
			continue
		}
		available := passesByTarget[i]
		var missing []string
		for _, req := range n.Requires {
			if !available[req] {
				missing = append(missing, req)
			}
		}
		if len(missing) > 0 {
			sort.Strings(missing)
			return errors.NewSemanticError(path, fmt.Sprintf("node %q", n.Name), n.Span,
				fmt.Sprintf("unsatisfied requires: %v", missing))
		}
	}

	return nil
}

// ValidateAll runs the same checks as Validate but accumulates every
// violation instead of returning on the first, for the `validate`
// subcommand's thorough mode.
func ValidateAll(path string, g *Graph) []error {
	var errs []error

	seen := make(map[string]bool, len(g.Nodes))
	for _, n := range g.Nodes {
		if seen[n.Name] {
			errs = append(errs, errors.NewSemanticError(path, fmt.Sprintf("node %q", n.Name), n.Span,
				fmt.Sprintf("duplicate node name %q", n.Name)))
			continue
		}
		seen[n.Name] = true
	}

	fixtureSeen := make(map[string]bool, len(g.Fixtures))
	for _, f := range g.Fixtures {
		if fixtureSeen[f.Name] {
			errs = append(errs, errors.NewSemanticError(path, fmt.Sprintf("fixture %q", f.Name), f.Span,
				fmt.Sprintf("duplicate fixture name %q", f.Name)))
			continue
		}
		fixtureSeen[f.Name] = true
	}

	passesByTarget := make(map[int]map[string]bool, len(g.Nodes))
	for _, e := range g.Edges {
		if e.FromIndex < 0 || e.FromIndex >= len(g.Nodes) {
			errs = append(errs, errors.NewSemanticError(path, fmt.Sprintf("edge %s -> %s", e.From, e.To), e.Span,
				fmt.Sprintf("edge source %q does not resolve to a node", e.From)))
		}
		if e.ToIndex < 0 || e.ToIndex >= len(g.Nodes) {
			errs = append(errs, errors.NewSemanticError(path, fmt.Sprintf("edge %s -> %s", e.From, e.To), e.Span,
				fmt.Sprintf("edge target %q does not resolve to a node", e.To)))
			continue
		}
		m := passesByTarget[e.ToIndex]
		if m == nil {
			m = make(map[string]bool)
			passesByTarget[e.ToIndex] = m
		}
		for _, f := range e.Passes {
			m[f] = true
		}
	}

	for i, n := range g.Nodes {
		if len(n.Requires) == 0 {
			continue
		}
		available := passesByTarget[i]
		var missing []string
		for _, req := range n.Requires {
			if !available[req] {
				missing = append(missing, req)
			}
		}
		if len(missing) > 0 {
			sort.Strings(missing)
			errs = append(errs, errors.NewSemanticError(path, fmt.Sprintf("node %q", n.Name), n.Span,
				fmt.Sprintf("unsatisfied requires: %v", missing)))
		}
	}

	return errs
}
