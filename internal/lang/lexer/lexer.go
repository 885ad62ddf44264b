// Package lexer turns tast source text into a token stream. It is a
// hand-written byte-offset scanner: the grammar itself is ASCII-structural,
// but free text and string content may carry arbitrary UTF-8, so runes are
// decoded only where they are read back out as token text.
package lexer

import (
	"strings"
	"unicode/utf8"

	"github.com/tast-lang/tast/internal/lang/token"
	"github.com/tast-lang/tast/pkg/errors"
)

type lexer struct {
	path string
	src  string
	pos  int // byte offset
	line int
	col  int

	afterStepKeyword bool
}

// Tokenize scans src in full and returns its token stream, or a *errors.LexError
// on the first unterminated string literal or other lexical failure.
func Tokenize(path, src string) ([]token.Token, error) {
	l := &lexer{path: path, src: src, line: 1, col: 1}

	var out []token.Token
	for {
		if l.afterStepKeyword {
			toks, err := l.scanFreeText()
			if err != nil {
				return nil, err
			}
			out = append(out, toks...)
			l.afterStepKeyword = false
			continue
		}

		tok, emit, err := l.scanToken()
		if err != nil {
			return nil, err
		}
		if !emit {
			continue
		}
		out = append(out, tok)
		if tok.Kind == token.EOF {
			break
		}
		if token.IsStepKeyword(tok.Kind) {
			l.afterStepKeyword = true
		}
	}
	return out, nil
}

func (l *lexer) span(start, startLine, startCol int) errors.Span {
	return errors.Span{
		Offset: start,
		Line:   startLine,
		Column: startCol,
		Length: l.pos - start,
	}
}

func (l *lexer) eof() bool {
	return l.pos >= len(l.src)
}

func (l *lexer) peekByte() byte {
	if l.eof() {
		return 0
	}
	return l.src[l.pos]
}

func (l *lexer) peekByteAt(offset int) byte {
	if l.pos+offset >= len(l.src) {
		return 0
	}
	return l.src[l.pos+offset]
}

// advance consumes one byte, tracking line/column. It must not be used to
// step over multi-byte UTF-8 sequences one byte at a time when column
// accuracy matters; free text and string scanning instead advance by full
// runes via advanceRune.
func (l *lexer) advance() byte {
	b := l.src[l.pos]
	l.pos++
	if b == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return b
}

func (l *lexer) advanceRune() rune {
	r, size := utf8.DecodeRuneInString(l.src[l.pos:])
	l.pos += size
	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return r
}

func isIdentStart(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isIdentCont(b byte) bool {
	return isIdentStart(b) || (b >= '0' && b <= '9')
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func isHorizontalSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\r'
}

// scanToken reads the next token in structural (non-free-text) mode. emit is
// false for skipped comments, signalling the caller should loop without
// appending anything.
func (l *lexer) scanToken() (token.Token, bool, error) {
	for isHorizontalSpace(l.peekByte()) {
		l.advance()
	}

	start, startLine, startCol := l.pos, l.line, l.col

	if l.eof() {
		return token.Token{Kind: token.EOF, Span: l.span(start, startLine, startCol)}, true, nil
	}

	b := l.peekByte()

	switch {
	case b == '\n':
		l.advance()
		return token.Token{Kind: token.Newline, Text: "\n", Span: l.span(start, startLine, startCol)}, true, nil

	case b == '#':
		for !l.eof() && l.peekByte() != '\n' {
			l.advance()
		}
		return token.Token{}, false, nil

	case b == '"':
		return l.scanString(start, startLine, startCol)

	case isIdentStart(b):
		return l.scanIdentOrKeyword(start, startLine, startCol)

	case isDigit(b):
		return l.scanNumber(start, startLine, startCol)

	case b == '-' && l.peekByteAt(1) == '>':
		l.advance()
		l.advance()
		return token.Token{Kind: token.Arrow, Text: "->", Span: l.span(start, startLine, startCol)}, true, nil

	case b == '{':
		l.advance()
		return token.Token{Kind: token.LBrace, Text: "{", Span: l.span(start, startLine, startCol)}, true, nil

	case b == '}':
		l.advance()
		return token.Token{Kind: token.RBrace, Text: "}", Span: l.span(start, startLine, startCol)}, true, nil

	case b == '[':
		l.advance()
		return token.Token{Kind: token.LBracket, Text: "[", Span: l.span(start, startLine, startCol)}, true, nil

	case b == ']':
		l.advance()
		return token.Token{Kind: token.RBracket, Text: "]", Span: l.span(start, startLine, startCol)}, true, nil

	case b == ':':
		l.advance()
		return token.Token{Kind: token.Colon, Text: ":", Span: l.span(start, startLine, startCol)}, true, nil

	case b == ',':
		l.advance()
		return token.Token{Kind: token.Comma, Text: ",", Span: l.span(start, startLine, startCol)}, true, nil

	case b == '.':
		l.advance()
		return token.Token{Kind: token.Dot, Text: ".", Span: l.span(start, startLine, startCol)}, true, nil

	default:
		r := l.advanceRune()
		return token.Token{}, false, errors.NewLexError(l.path, l.span(start, startLine, startCol),
			"unexpected character '"+string(r)+"'")
	}
}

func (l *lexer) scanString(start, startLine, startCol int) (token.Token, bool, error) {
	l.advance() // opening quote
	var b strings.Builder
	for {
		if l.eof() {
			return token.Token{}, false, errors.NewLexError(l.path, l.span(start, startLine, startCol),
				"unterminated string literal")
		}
		c := l.peekByte()
		if c == '"' {
			l.advance()
			break
		}
		if c == '\n' {
			return token.Token{}, false, errors.NewLexError(l.path, l.span(start, startLine, startCol),
				"unterminated string literal")
		}
		if c == '\\' {
			l.advance()
			if l.eof() {
				return token.Token{}, false, errors.NewLexError(l.path, l.span(start, startLine, startCol),
					"unterminated string literal")
			}
			esc := l.advance()
			switch esc {
			case '"':
				b.WriteByte('"')
			case '\\':
				b.WriteByte('\\')
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			default:
				b.WriteByte('\\')
				b.WriteByte(esc)
			}
			continue
		}
		b.WriteRune(l.advanceRune())
	}
	return token.Token{Kind: token.String, Text: b.String(), Span: l.span(start, startLine, startCol)}, true, nil
}

func (l *lexer) scanIdentOrKeyword(start, startLine, startCol int) (token.Token, bool, error) {
	for isIdentCont(l.peekByte()) {
		l.advance()
	}
	text := l.src[start:l.pos]
	if kind, ok := token.Keywords[text]; ok {
		return token.Token{Kind: kind, Text: text, Span: l.span(start, startLine, startCol)}, true, nil
	}
	return token.Token{Kind: token.Ident, Text: text, Span: l.span(start, startLine, startCol)}, true, nil
}

func (l *lexer) scanNumber(start, startLine, startCol int) (token.Token, bool, error) {
	for isDigit(l.peekByte()) {
		l.advance()
	}
	if l.peekByte() == '.' && isDigit(l.peekByteAt(1)) {
		l.advance()
		for isDigit(l.peekByte()) {
			l.advance()
		}
	}
	text := l.src[start:l.pos]
	return token.Token{Kind: token.Number, Text: text, Span: l.span(start, startLine, startCol)}, true, nil
}

// scanFreeText consumes horizontal whitespace, then reads the remainder of
// the logical line as prose, splitting out <identifier> parameter
// placeholders as their own Param tokens. It stops at the next newline,
// '{' (a following data block), or end of input, and does not consume the
// delimiter itself.
func (l *lexer) scanFreeText() ([]token.Token, error) {
	for isHorizontalSpace(l.peekByte()) {
		l.advance()
	}

	var out []token.Token
	var textStart, textLine, textCol = l.pos, l.line, l.col
	var b strings.Builder

	// flush emits the buffered prose. Trailing whitespace is trimmed only at
	// the end of the step text; before a parameter it is kept so the
	// fragments concatenate back to the original text.
	flush := func(trimRight bool) {
		if b.Len() == 0 {
			return
		}
		text := b.String()
		if trimRight {
			text = strings.TrimRight(text, " \t\r")
		}
		if text != "" {
			out = append(out, token.Token{
				Kind: token.FreeText,
				Text: text,
				Span: l.span(textStart, textLine, textCol),
			})
		}
		b.Reset()
	}

	for {
		if l.eof() || l.peekByte() == '\n' || l.peekByte() == '{' {
			flush(true)
			return out, nil
		}
		if l.peekByte() == '<' {
			paramStart, paramLine, paramCol := l.pos, l.line, l.col
			save := l.pos
			l.advance() // '<'
			var name strings.Builder
			for isIdentCont(l.peekByte()) {
				name.WriteByte(l.peekByte())
				l.advance()
			}
			if name.Len() > 0 && l.peekByte() == '>' {
				l.advance()
				flush(false)
				out = append(out, token.Token{
					Kind: token.Param,
					Text: name.String(),
					Span: l.span(paramStart, paramLine, paramCol),
				})
				textStart, textLine, textCol = l.pos, l.line, l.col
				continue
			}
			// Not a well-formed placeholder: treat '<' as literal text.
			l.pos = save
			l.line, l.col = paramLine, paramCol
			b.WriteRune(l.advanceRune())
			continue
		}
		b.WriteRune(l.advanceRune())
	}
}
