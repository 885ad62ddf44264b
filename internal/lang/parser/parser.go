// Package parser implements a recursive-descent parser over the token
// stream produced by the lexer.
package parser

import (
	"fmt"

	"github.com/tast-lang/tast/internal/lang/ast"
	"github.com/tast-lang/tast/internal/lang/token"
	"github.com/tast-lang/tast/pkg/errors"
)

type parser struct {
	path string
	toks []token.Token
	pos  int
}

// Parse turns a token stream into a File. path is carried into every error
// for file-name-prefixed diagnostics.
func Parse(path string, toks []token.Token) (*ast.File, error) {
	p := &parser{path: path, toks: toks}
	file := &ast.File{Path: path}

	var pendingImports []ast.Import

	p.skipTrivia()
	for !p.atEOF() {
		switch p.peek().Kind {
		case token.KeywordImport:
			imp, err := p.parseImport()
			if err != nil {
				return nil, err
			}
			pendingImports = append(pendingImports, imp)

		case token.KeywordGraph:
			g, err := p.parseGraph()
			if err != nil {
				return nil, err
			}
			if len(pendingImports) > 0 {
				g.Imports = append(pendingImports, g.Imports...)
				pendingImports = nil
			}
			if err := checkNodeUniqueness(p.path, g); err != nil {
				return nil, err
			}
			if err := checkEdgeEndpoints(p.path, g); err != nil {
				return nil, err
			}
			file.Graphs = append(file.Graphs, g)

		default:
			return nil, p.unexpected("'import' or 'graph'")
		}
		p.skipTrivia()
	}

	if len(pendingImports) > 0 && len(file.Graphs) > 0 {
		file.Graphs[0].Imports = append(pendingImports, file.Graphs[0].Imports...)
	}

	return file, nil
}

func checkNodeUniqueness(path string, g ast.Graph) error {
	seen := make(map[string]errors.Span, len(g.Nodes))
	for _, n := range g.Nodes {
		if _, ok := seen[n.Name]; ok {
			return errors.NewParseError(path, n.Span, fmt.Sprintf("duplicate node name %q in graph %q", n.Name, g.Name))
		}
		seen[n.Name] = n.Span
	}
	return nil
}

func checkEdgeEndpoints(path string, g ast.Graph) error {
	names := make(map[string]bool, len(g.Nodes))
	for _, n := range g.Nodes {
		names[n.Name] = true
	}
	for _, e := range g.Edges {
		if !isDotted(e.From) && !names[e.From] {
			return errors.NewParseError(path, e.Span, fmt.Sprintf("edge refers to undeclared node %q", e.From))
		}
		if !isDotted(e.To) && !names[e.To] {
			return errors.NewParseError(path, e.Span, fmt.Sprintf("edge refers to undeclared node %q", e.To))
		}
	}
	return nil
}

func isDotted(name string) bool {
	for _, r := range name {
		if r == '.' {
			return true
		}
	}
	return false
}

func (p *parser) peek() token.Token {
	if p.pos >= len(p.toks) {
		return token.Token{Kind: token.EOF}
	}
	return p.toks[p.pos]
}

func (p *parser) peekAt(offset int) token.Token {
	idx := p.pos + offset
	if idx >= len(p.toks) {
		return token.Token{Kind: token.EOF}
	}
	return p.toks[idx]
}

func (p *parser) advance() token.Token {
	t := p.peek()
	if p.pos < len(p.toks) {
		p.pos++
	}
	return t
}

func (p *parser) atEOF() bool {
	return p.peek().Kind == token.EOF
}

// skipTrivia skips newlines and already-filtered comments (comments never
// reach the parser; only newlines need skipping between productions).
func (p *parser) skipTrivia() {
	for p.peek().Kind == token.Newline {
		p.advance()
	}
}

func (p *parser) expect(kind token.Kind) (token.Token, error) {
	if p.peek().Kind != kind {
		return token.Token{}, p.unexpected(kind.String())
	}
	return p.advance(), nil
}

func (p *parser) unexpected(expected string) error {
	found := p.peek()
	foundDesc := found.Kind.String()
	if found.Kind == token.Ident || found.Kind == token.String || found.Kind == token.FreeText {
		foundDesc = fmt.Sprintf("%s %q", foundDesc, found.Text)
	}
	return errors.NewUnexpectedTokenError(p.path, found.Span, expected, foundDesc)
}

func (p *parser) parseImport() (ast.Import, error) {
	start := p.peek().Span
	p.advance() // 'import'
	alias, err := p.expect(token.Ident)
	if err != nil {
		return ast.Import{}, err
	}
	if _, err := p.expect(token.KeywordFrom); err != nil {
		return ast.Import{}, err
	}
	path, err := p.expect(token.String)
	if err != nil {
		return ast.Import{}, err
	}
	return ast.Import{Alias: alias.Text, Path: path.Text, Span: start}, nil
}

func (p *parser) parseGraph() (ast.Graph, error) {
	start := p.peek().Span
	p.advance() // 'graph'
	name, err := p.expect(token.Ident)
	if err != nil {
		return ast.Graph{}, err
	}
	if _, err := p.expect(token.LBrace); err != nil {
		return ast.Graph{}, err
	}

	g := ast.Graph{Name: name.Text, Span: start}

	p.skipTrivia()
	for p.peek().Kind != token.RBrace {
		if p.atEOF() {
			return ast.Graph{}, p.unexpected("'}'")
		}
		switch p.peek().Kind {
		case token.KeywordNode:
			n, err := p.parseNode()
			if err != nil {
				return ast.Graph{}, err
			}
			g.Nodes = append(g.Nodes, n)

		case token.KeywordFixture:
			f, err := p.parseFixture()
			if err != nil {
				return ast.Graph{}, err
			}
			g.Fixtures = append(g.Fixtures, f)

		case token.KeywordConfig:
			cfg, err := p.parseConfigBlock()
			if err != nil {
				return ast.Graph{}, err
			}
			g.Config = mergeConfig(g.Config, cfg)

		case token.Ident:
			e, err := p.parseEdge()
			if err != nil {
				return ast.Graph{}, err
			}
			g.Edges = append(g.Edges, e)

		default:
			return ast.Graph{}, p.unexpected("'node', 'fixture', 'config', or an edge")
		}
		p.skipTrivia()
	}
	p.advance() // '}'
	return g, nil
}

func (p *parser) parseNode() (ast.Node, error) {
	start := p.peek().Span
	p.advance() // 'node'
	name, err := p.expect(token.Ident)
	if err != nil {
		return ast.Node{}, err
	}
	if _, err := p.expect(token.LBrace); err != nil {
		return ast.Node{}, err
	}

	n := ast.Node{Name: name.Text, Span: start}

	p.skipTrivia()
	for p.peek().Kind != token.RBrace {
		if p.atEOF() {
			return ast.Node{}, p.unexpected("'}'")
		}
		switch p.peek().Kind {
		case token.KeywordDescribe:
			p.advance()
			desc, err := p.expect(token.String)
			if err != nil {
				return ast.Node{}, err
			}
			n.Description = desc.Text

		case token.KeywordTags:
			tags, err := p.parseIdentList(token.LBracket, token.RBracket)
			if err != nil {
				return ast.Node{}, err
			}
			n.Tags = tags

		case token.KeywordRequires:
			reqs, err := p.parseIdentList(token.LBrace, token.RBrace)
			if err != nil {
				return ast.Node{}, err
			}
			n.Requires = reqs

		case token.KeywordConfig:
			cfg, err := p.parseConfigBlock()
			if err != nil {
				return ast.Node{}, err
			}
			n.Config = mergeConfig(n.Config, cfg)

		case token.KeywordGiven, token.KeywordWhen, token.KeywordThen, token.KeywordAnd, token.KeywordBut:
			s, err := p.parseStep()
			if err != nil {
				return ast.Node{}, err
			}
			n.Steps = append(n.Steps, s)

		default:
			return ast.Node{}, p.unexpected("a node item")
		}
		p.skipTrivia()
	}
	p.advance() // '}'
	return n, nil
}

// parseIdentList consumes the leading keyword ('tags' or 'requires') still
// sitting at the current position, then '[' or '{' followed by a
// comma-separated identifier list and the matching close delimiter.
func (p *parser) parseIdentList(open, close token.Kind) ([]string, error) {
	p.advance() // 'tags' or 'requires'
	if _, err := p.expect(open); err != nil {
		return nil, err
	}
	var out []string
	p.skipTrivia()
	for p.peek().Kind != close {
		id, err := p.expect(token.Ident)
		if err != nil {
			return nil, err
		}
		out = append(out, id.Text)
		p.skipTrivia()
		if p.peek().Kind == token.Comma {
			p.advance()
			p.skipTrivia()
		}
	}
	p.advance() // close delimiter
	return out, nil
}

func (p *parser) parseStep() (ast.Step, error) {
	kwTok := p.advance()
	keyword := kwTok.Text
	s := ast.Step{
		Keyword:  keyword,
		Category: ast.CategoryForKeyword(keyword),
		Span:     kwTok.Span,
	}

	for p.peek().Kind == token.FreeText || p.peek().Kind == token.Param {
		t := p.advance()
		if t.Kind == token.Param {
			s.Fragments = append(s.Fragments, ast.Fragment{IsParam: true, ParamName: t.Text})
		} else {
			s.Fragments = append(s.Fragments, ast.Fragment{Text: t.Text})
		}
	}

	if p.peek().Kind == token.LBrace {
		fields, err := p.parseDataBlock()
		if err != nil {
			return ast.Step{}, err
		}
		s.Data = fields
	}
	return s, nil
}

func (p *parser) parseEdge() (ast.Edge, error) {
	from, err := p.parseDottedName()
	if err != nil {
		return ast.Edge{}, err
	}
	start := from.span
	if _, err := p.expect(token.Arrow); err != nil {
		return ast.Edge{}, err
	}
	to, err := p.parseDottedName()
	if err != nil {
		return ast.Edge{}, err
	}

	e := ast.Edge{From: from.name, To: to.name, Span: start}

	if p.peek().Kind == token.LBrace {
		p.advance()
		p.skipTrivia()
		for p.peek().Kind != token.RBrace {
			if p.atEOF() {
				return ast.Edge{}, p.unexpected("'}'")
			}
			switch p.peek().Kind {
			case token.KeywordPasses:
				p.advance()
				if _, err := p.expect(token.LBrace); err != nil {
					return ast.Edge{}, err
				}
				p.skipTrivia()
				for p.peek().Kind != token.RBrace {
					id, err := p.expect(token.Ident)
					if err != nil {
						return ast.Edge{}, err
					}
					e.Passes = append(e.Passes, id.Text)
					p.skipTrivia()
					if p.peek().Kind == token.Comma {
						p.advance()
						p.skipTrivia()
					}
				}
				p.advance() // '}'

			case token.KeywordDescribe:
				p.advance()
				desc, err := p.expect(token.String)
				if err != nil {
					return ast.Edge{}, err
				}
				e.Description = desc.Text

			default:
				return ast.Edge{}, p.unexpected("'passes' or 'describe'")
			}
			p.skipTrivia()
		}
		p.advance() // '}'
	}
	return e, nil
}

type dottedName struct {
	name string
	span errors.Span
}

func (p *parser) parseDottedName() (dottedName, error) {
	first, err := p.expect(token.Ident)
	if err != nil {
		return dottedName{}, err
	}
	name := first.Text
	if p.peek().Kind == token.Dot {
		p.advance()
		second, err := p.expect(token.Ident)
		if err != nil {
			return dottedName{}, err
		}
		name = name + "." + second.Text
	}
	return dottedName{name: name, span: first.Span}, nil
}

func (p *parser) parseFixture() (ast.Fixture, error) {
	start := p.peek().Span
	p.advance() // 'fixture'
	name, err := p.expect(token.Ident)
	if err != nil {
		return ast.Fixture{}, err
	}
	fields, err := p.parseDataBlock()
	if err != nil {
		return ast.Fixture{}, err
	}
	return ast.Fixture{Name: name.Text, Data: fields, Span: start}, nil
}

func (p *parser) parseConfigBlock() (map[string]ast.Value, error) {
	p.advance() // 'config'
	fields, err := p.parseDataBlock()
	if err != nil {
		return nil, err
	}
	out := make(map[string]ast.Value, len(fields))
	for _, f := range fields {
		out[f.Key] = f.Value
	}
	return out, nil
}

func mergeConfig(dst, src map[string]ast.Value) map[string]ast.Value {
	if len(src) == 0 {
		return dst
	}
	if dst == nil {
		dst = make(map[string]ast.Value, len(src))
	}
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func (p *parser) parseDataBlock() ([]ast.DataField, error) {
	if _, err := p.expect(token.LBrace); err != nil {
		return nil, err
	}
	var fields []ast.DataField
	p.skipTrivia()
	for p.peek().Kind != token.RBrace {
		if p.atEOF() {
			return nil, p.unexpected("'}'")
		}
		key, err := p.expect(token.Ident)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.Colon); err != nil {
			return nil, err
		}
		val, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		fields = append(fields, ast.DataField{Key: key.Text, Value: val, Span: key.Span})
		p.skipTrivia()
		if p.peek().Kind == token.Comma {
			p.advance()
			p.skipTrivia()
		}
	}
	p.advance() // '}'
	return fields, nil
}

func (p *parser) parseValue() (ast.Value, error) {
	t := p.peek()
	switch t.Kind {
	case token.String:
		p.advance()
		return ast.Value{Kind: ast.ValueString, Str: t.Text}, nil
	case token.Number:
		p.advance()
		return ast.Value{Kind: ast.ValueNumber, Str: t.Text}, nil
	case token.Ident:
		p.advance()
		switch t.Text {
		case "true":
			return ast.Value{Kind: ast.ValueBool, Bool: true}, nil
		case "false":
			return ast.Value{Kind: ast.ValueBool, Bool: false}, nil
		case "null":
			return ast.Value{Kind: ast.ValueNull}, nil
		default:
			return ast.Value{Kind: ast.ValueIdent, Str: t.Text}, nil
		}
	default:
		return ast.Value{}, p.unexpected("a value")
	}
}
