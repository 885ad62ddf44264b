package planner

import (
	"strings"

	"github.com/tast-lang/tast/internal/model"
)

// Predicate matches a plan step's tag list. Implementations: Include,
// Exclude, And, Or.
type Predicate interface {
	Match(tags []string) bool
}

// Include matches when the tag is present.
type Include string

// Match reports whether tags contains the included tag.
func (p Include) Match(tags []string) bool { return contains(tags, string(p)) }

// Exclude matches when the tag is absent.
type Exclude string

// Match reports whether tags does not contain the excluded tag.
func (p Exclude) Match(tags []string) bool { return !contains(tags, string(p)) }

// And matches when every child predicate matches.
type And []Predicate

// Match implements Predicate.
func (p And) Match(tags []string) bool {
	for _, child := range p {
		if !child.Match(tags) {
			return false
		}
	}
	return true
}

// Or matches when any child predicate matches.
type Or []Predicate

// Match implements Predicate.
func (p Or) Match(tags []string) bool {
	for _, child := range p {
		if child.Match(tags) {
			return true
		}
	}
	return false
}

func contains(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}

// ParseFilter parses the text predicate grammar: a bare tag is Include(tag);
// "NOT t" is Exclude(tag); "a,b,c" is Or; "a AND b AND c" is And. Precedence
// between AND and comma-OR for mixed input is resolved by splitting on
// " AND " first only when no comma is present in the text, otherwise
// splitting on comma; richer precedence is a future revision.
func ParseFilter(text string) Predicate {
	text = strings.TrimSpace(text)
	if text == "" {
		return And{}
	}

	var parts []string
	if !strings.Contains(text, ",") && strings.Contains(text, " AND ") {
		parts = strings.Split(text, " AND ")
		preds := make(And, 0, len(parts))
		for _, part := range parts {
			preds = append(preds, parseTerm(part))
		}
		return preds
	}

	parts = strings.Split(text, ",")
	preds := make(Or, 0, len(parts))
	for _, part := range parts {
		preds = append(preds, parseTerm(part))
	}
	return preds
}

func parseTerm(term string) Predicate {
	term = strings.TrimSpace(term)
	if rest, ok := strings.CutPrefix(term, "NOT "); ok {
		return Exclude(strings.TrimSpace(rest))
	}
	return Include(term)
}

// Filter drops every step in p whose tags do not match pred, renumbers the
// survivors starting at 1, and updates the plan's node-count metadata to
// the survivor count. The edge-total metadata is left unchanged.
func Filter(p *model.Plan, pred Predicate) *model.Plan {
	out := &model.Plan{Meta: p.Meta}
	for _, step := range p.Steps {
		if pred.Match(step.Tags) {
			step.Order = len(out.Steps) + 1
			out.Steps = append(out.Steps, step)
		}
	}
	out.Meta.NodesTotal = len(out.Steps)
	return out
}
