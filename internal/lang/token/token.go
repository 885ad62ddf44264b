// Package token defines the lexical token kinds produced by the lexer and
// consumed by the parser.
package token

import "github.com/tast-lang/tast/pkg/errors"

// Kind identifies the lexical category of a Token.
type Kind int

const (
	EOF Kind = iota
	Newline
	Ident
	Number
	String
	FreeText
	Param

	KeywordGraph
	KeywordNode
	KeywordDescribe
	KeywordGiven
	KeywordWhen
	KeywordThen
	KeywordAnd
	KeywordBut
	KeywordPasses
	KeywordRequires
	KeywordTags
	KeywordConfig
	KeywordImport
	KeywordFixture
	KeywordFrom

	LBrace
	RBrace
	LBracket
	RBracket
	Arrow
	Colon
	Comma
	Dot
)

var names = map[Kind]string{
	EOF:      "EOF",
	Newline:  "newline",
	Ident:    "identifier",
	Number:   "number",
	String:   "string",
	FreeText: "free text",
	Param:    "parameter",

	KeywordGraph:    "'graph'",
	KeywordNode:     "'node'",
	KeywordDescribe: "'describe'",
	KeywordGiven:    "'given'",
	KeywordWhen:     "'when'",
	KeywordThen:     "'then'",
	KeywordAnd:      "'and'",
	KeywordBut:      "'but'",
	KeywordPasses:   "'passes'",
	KeywordRequires: "'requires'",
	KeywordTags:     "'tags'",
	KeywordConfig:   "'config'",
	KeywordImport:   "'import'",
	KeywordFixture:  "'fixture'",
	KeywordFrom:     "'from'",

	LBrace:   "'{'",
	RBrace:   "'}'",
	LBracket: "'['",
	RBracket: "']'",
	Arrow:    "'->'",
	Colon:    "':'",
	Comma:    "','",
	Dot:      "'.'",
}

func (k Kind) String() string {
	if s, ok := names[k]; ok {
		return s
	}
	return "unknown"
}

// Keywords maps the reserved words of the grammar to their token kind.
var Keywords = map[string]Kind{
	"graph":     KeywordGraph,
	"node":      KeywordNode,
	"describe":  KeywordDescribe,
	"given":     KeywordGiven,
	"when":      KeywordWhen,
	"then":      KeywordThen,
	"and":       KeywordAnd,
	"but":       KeywordBut,
	"passes":    KeywordPasses,
	"requires":  KeywordRequires,
	"tags":      KeywordTags,
	"config":    KeywordConfig,
	"import":    KeywordImport,
	"fixture":   KeywordFixture,
	"from":      KeywordFrom,
}

// IsStepKeyword reports whether k begins a step clause, which switches the
// lexer into free-text mode for the remainder of the logical line.
func IsStepKeyword(k Kind) bool {
	switch k {
	case KeywordGiven, KeywordWhen, KeywordThen, KeywordAnd, KeywordBut:
		return true
	}
	return false
}

// Token is a single lexical unit with its source span.
type Token struct {
	Kind Kind
	Text string
	Span errors.Span
}
