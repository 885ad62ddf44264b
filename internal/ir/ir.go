// Package ir defines the validated intermediate representation produced by
// lowering an AST graph. The IR is the long-lived representation passed
// through the rest of the pipeline: it is built once by cloning and
// validating the AST, then treated as immutable (except for the
// cross-graph node copies appended by the import resolver).
package ir

import (
	"fmt"
	"regexp"

	"github.com/tast-lang/tast/internal/lang/ast"
	"github.com/tast-lang/tast/internal/lang/normalize"
	"github.com/tast-lang/tast/pkg/errors"
)

// DataEntry is a single resolved key/value pair attached to a step, merged
// from an explicit data block, mined prose, and/or a referenced fixture.
type DataEntry struct {
	Key   string
	Value string
}

// ParamBinding records how a step's <parameter> placeholder was resolved.
// Provenance is one of "edge:<node>", "fixture:<name>", or "unresolved".
type ParamBinding struct {
	Name       string
	Value      string
	HasValue   bool
	Provenance string
}

// Step is the lowered form of an ast.Step.
type Step struct {
	Category       ast.StepCategory
	Keyword        string
	OriginalText   string
	NormalizedText string
	Fragments      []ast.Fragment
	Data           []DataEntry
	Bindings       []ParamBinding
	Span           errors.Span
}

// Node is the lowered form of an ast.Node.
type Node struct {
	Name        string
	Description string
	Steps       []Step
	Tags        []string
	Requires    []string
	Span        errors.Span
}

// Edge is the lowered form of an ast.Edge. FromIndex/ToIndex are -1 until
// resolved: dotted (cross-graph) endpoints are resolved by the import
// resolver; same-graph endpoints are resolved during lowering.
type Edge struct {
	From        string
	To          string
	FromIndex   int
	ToIndex     int
	Passes      []string
	Description string
	CrossGraph  bool
	Span        errors.Span
}

// Fixture is the lowered form of an ast.Fixture.
type Fixture struct {
	Name string
	Data []DataEntry
	Span errors.Span
}

// Graph is the lowered, validated form of an ast.Graph.
type Graph struct {
	Name      string
	Nodes     []Node
	Edges     []Edge
	Fixtures  []Fixture
	Config    map[string]ast.Value
	Span      errors.Span
	nameIndex map[string]int
}

// IndexOf returns the index of the node with the given name, or -1.
func (g *Graph) IndexOf(name string) int {
	if g.nameIndex == nil {
		g.rebuildIndex()
	}
	if idx, ok := g.nameIndex[name]; ok {
		return idx
	}
	return -1
}

func (g *Graph) rebuildIndex() {
	g.nameIndex = make(map[string]int, len(g.Nodes))
	for i, n := range g.Nodes {
		g.nameIndex[n.Name] = i
	}
}

var fixtureRefPattern = regexp.MustCompile(`(?i)from fixture ([A-Za-z_][A-Za-z0-9_]*)`)

// Lower maps one parsed graph into its IR form: cloning strings,
// normalising and extracting data from every step, merging referenced
// fixtures, resolving same-graph edge endpoints, and computing parameter
// bindings. Cross-graph ('.') endpoints are left with index -1 for the
// import resolver. Does not run Validate; callers validate after any
// cross-graph rewiring has completed.
func Lower(path string, ag ast.Graph) (*Graph, error) {
	g := &Graph{
		Name:   ag.Name,
		Config: ag.Config,
		Span:   ag.Span,
	}

	g.Fixtures = make([]Fixture, 0, len(ag.Fixtures))
	fixturesByName := make(map[string]Fixture, len(ag.Fixtures))
	for _, af := range ag.Fixtures {
		f := Fixture{Name: af.Name, Span: af.Span}
		for _, d := range af.Data {
			f.Data = append(f.Data, DataEntry{Key: d.Key, Value: renderValue(d.Value)})
		}
		if _, dup := fixturesByName[f.Name]; dup {
			return nil, errors.NewSemanticError(path, fmt.Sprintf("fixture %q", f.Name), f.Span,
				fmt.Sprintf("duplicate fixture name %q", f.Name))
		}
		fixturesByName[f.Name] = f
		g.Fixtures = append(g.Fixtures, f)
	}

	g.Nodes = make([]Node, 0, len(ag.Nodes))
	for _, an := range ag.Nodes {
		g.Nodes = append(g.Nodes, Node{
			Name:        an.Name,
			Description: an.Description,
			Tags:        an.Tags,
			Requires:    an.Requires,
			Span:        an.Span,
		})
	}
	g.rebuildIndex()

	// incomingFieldProducer[nodeName][field] = producing node name, for
	// every field any same-graph edge into nodeName declares in its
	// passes list. First-seen producer wins on conflict.
	incomingFieldProducer := make(map[string]map[string]string, len(g.Nodes))
	for _, e := range ag.Edges {
		if isDotted(e.From) || isDotted(e.To) {
			continue
		}
		m := incomingFieldProducer[e.To]
		if m == nil {
			m = make(map[string]string)
			incomingFieldProducer[e.To] = m
		}
		for _, f := range e.Passes {
			if _, ok := m[f]; !ok {
				m[f] = e.From
			}
		}
	}

	for i, an := range ag.Nodes {
		steps := make([]Step, 0, len(an.Steps))
		for _, as := range an.Steps {
			step, err := lowerStep(path, as, fixturesByName, incomingFieldProducer[an.Name])
			if err != nil {
				return nil, err
			}
			steps = append(steps, step)
		}
		g.Nodes[i].Steps = steps
	}

	for _, ae := range ag.Edges {
		e := Edge{
			From:        ae.From,
			To:          ae.To,
			Passes:      ae.Passes,
			Description: ae.Description,
			Span:        ae.Span,
			FromIndex:   -1,
			ToIndex:     -1,
			CrossGraph:  isDotted(ae.From) || isDotted(ae.To),
		}
		if !isDotted(ae.From) {
			e.FromIndex = g.IndexOf(ae.From)
		}
		if !isDotted(ae.To) {
			e.ToIndex = g.IndexOf(ae.To)
		}
		g.Edges = append(g.Edges, e)
	}

	return g, nil
}

func lowerStep(path string, as ast.Step, fixtures map[string]Fixture, incomingFields map[string]string) (Step, error) {
	text := as.Text()
	step := Step{
		Category:       as.Category,
		Keyword:        as.Keyword,
		OriginalText:   text,
		NormalizedText: normalize.Normalize(text),
		Fragments:      as.Fragments,
		Span:           as.Span,
	}

	merged := make(map[string]string)
	var order []string
	put := func(key, value string) {
		if _, exists := merged[key]; exists {
			return
		}
		merged[key] = value
		order = append(order, key)
	}

	for _, d := range as.Data {
		put(d.Key, renderValue(d.Value))
	}
	for _, kv := range normalize.Extract(text) {
		put(kv.Key, kv.Value)
	}

	var refFixture *Fixture
	if m := fixtureRefPattern.FindStringSubmatch(text); m != nil {
		if fx, ok := fixtures[m[1]]; ok {
			refFixture = &fx
			for _, d := range fx.Data {
				put(d.Key, d.Value)
			}
		}
	}

	for _, key := range order {
		step.Data = append(step.Data, DataEntry{Key: key, Value: merged[key]})
	}

	for _, frag := range as.Fragments {
		if !frag.IsParam {
			continue
		}
		binding := ParamBinding{Name: frag.ParamName, Provenance: "unresolved"}
		if producer, ok := incomingFields[frag.ParamName]; ok {
			binding.Provenance = "edge:" + producer
		} else if refFixture != nil {
			for _, d := range refFixture.Data {
				if d.Key == frag.ParamName {
					binding.Provenance = "fixture:" + refFixture.Name
					binding.Value = d.Value
					binding.HasValue = true
					break
				}
			}
		}
		step.Bindings = append(step.Bindings, binding)
	}

	return step, nil
}

func renderValue(v ast.Value) string {
	switch v.Kind {
	case ast.ValueBool:
		if v.Bool {
			return "true"
		}
		return "false"
	case ast.ValueNull:
		return "null"
	default:
		return v.Str
	}
}

func isDotted(name string) bool {
	for _, r := range name {
		if r == '.' {
			return true
		}
	}
	return false
}
