// Package ast defines the parse tree produced by the parser. Types are
// plain structs with exported fields and a Span on every node that
// originates from source text; they carry no validation tags.
package ast

import "github.com/tast-lang/tast/pkg/errors"

// StepCategory tags the verbatim category keyword a step was written with.
type StepCategory string

const (
	CategoryPrecondition StepCategory = "precondition"
	CategoryAction       StepCategory = "action"
	CategoryAssertion    StepCategory = "assertion"
	CategoryContinuation StepCategory = "continuation"
)

// categoryByKeyword maps the grammar's step-leading keyword to its category.
var categoryByKeyword = map[string]StepCategory{
	"given": CategoryPrecondition,
	"when":  CategoryAction,
	"then":  CategoryAssertion,
	"and":   CategoryContinuation,
	"but":   CategoryContinuation,
}

// CategoryForKeyword returns the step category associated with a lexical
// step keyword ("given", "when", "then", "and", "but").
func CategoryForKeyword(keyword string) StepCategory {
	return categoryByKeyword[keyword]
}

// Fragment is one piece of a step's free text: either literal prose or a
// named parameter placeholder.
type Fragment struct {
	Text      string
	IsParam   bool
	ParamName string
}

// DataField is a single `key: value` entry in a data block.
type DataField struct {
	Key   string
	Value Value
	Span  errors.Span
}

// ValueKind tags the literal kind of a data-block value.
type ValueKind int

const (
	ValueString ValueKind = iota
	ValueBool
	ValueNull
	ValueIdent
	ValueNumber
)

// Value is a single scalar appearing on the right-hand side of a data field.
type Value struct {
	Kind ValueKind
	Str  string
	Bool bool
}

// Step is a single `given`/`when`/`then`/`and`/`but` line within a node.
type Step struct {
	Keyword   string
	Category  StepCategory
	Fragments []Fragment
	Data      []DataField
	Span      errors.Span
}

// Text reconstructs the verbatim free text of the step by concatenating its
// fragments, rendering parameters back as `<name>`.
func (s Step) Text() string {
	var out string
	for _, f := range s.Fragments {
		if f.IsParam {
			out += "<" + f.ParamName + ">"
		} else {
			out += f.Text
		}
	}
	return out
}

// Node is a single test scenario within a graph.
type Node struct {
	Name        string
	Description string
	Steps       []Step
	Tags        []string
	Requires    []string
	Config      map[string]Value
	Span        errors.Span
}

// Edge declares that the fields in Passes flow from From to To. From and To
// may contain a literal '.' denoting a cross-graph reference, resolved by
// the import resolver.
type Edge struct {
	From        string
	To          string
	Passes      []string
	Description string
	Span        errors.Span
}

// Fixture is a named, reusable bag of key/value data.
type Fixture struct {
	Name string
	Data []DataField
	Span errors.Span
}

// Import names a file to be loaded under an alias for cross-graph
// references.
type Import struct {
	Alias string
	Path  string
	Span  errors.Span
}

// Graph is a top-level `graph Name { ... }` block.
type Graph struct {
	Name     string
	Nodes    []Node
	Edges    []Edge
	Fixtures []Fixture
	Imports  []Import
	Config   map[string]Value
	Span     errors.Span
}

// File is the parse result of one source file: an ordered list of graphs.
// Imports are not kept on File; the parser attaches each one to a graph's
// Imports (an import declared before a graph goes to that graph).
type File struct {
	Path   string
	Graphs []Graph
}
