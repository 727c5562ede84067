package lexer

import (
	"strings"
)

// primitiveKind is the scanner's own token classification, narrower than
// TokenType: the facade decides whether a primitive identifier becomes an
// IDENTIFIER or a resolved KEYWORD.
type primitiveKind int

const (
	primEOF primitiveKind = iota
	primIllegal
	primNumber
	primString
	primIdent
	primPunct
	primOperator
	primAt
	primBlockText
)

// primitiveToken is what RawScanner.Scan produces before the facade's
// post-processing.
type primitiveToken struct {
	kind    primitiveKind
	text    string
	pretext string
	span    SourceSpan
	err     error
}

var operators = []string{"==", "!=", ">=", "<=", "&&", "||"}

const eofRune = 0

// RawScanner is the byte-to-primitive-token scanner. It carries no state
// of its own beyond the lookup tables below; all cursor state lives on the
// includeFrame it is asked to scan, so one RawScanner value serves every
// frame on the include stack across its lifetime.
type RawScanner struct{}

// NewRawScanner returns a ready scanner.
func NewRawScanner() *RawScanner { return &RawScanner{} }

func (s *RawScanner) peekByte(f *includeFrame, offset int) byte {
	idx := f.pos + offset
	if idx >= len(f.data) {
		return eofRune
	}
	return f.data[idx]
}

func (s *RawScanner) advance(f *includeFrame) byte {
	c := s.peekByte(f, 0)
	if c == eofRune {
		return eofRune
	}
	f.pos++
	if c == '\n' {
		f.line++
		f.column = 1
	} else {
		f.column++
	}
	return c
}

func isWhitespace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n'
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// isIdentStart additionally accepts '/' and '.' so that bare filesystem
// paths and relative references (common, unquoted, in this domain's
// configuration values) lex as a single word rather than a sequence of
// punctuation and identifier fragments.
func isIdentStart(c byte) bool {
	return c == '_' || c == '/' || c == '.' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || isDigit(c) || c == '-'
}

// skipTrivia consumes whitespace and '#'-to-end-of-line comments,
// returning the consumed text verbatim so the caller can preserve it as
// pretext for echo fidelity.
func (s *RawScanner) skipTrivia(f *includeFrame) string {
	start := f.pos
	for {
		c := s.peekByte(f, 0)
		switch {
		case isWhitespace(c):
			s.advance(f)
		case c == '#':
			for {
				c := s.peekByte(f, 0)
				if c == eofRune || c == '\n' {
					break
				}
				s.advance(f)
			}
		default:
			return string(f.data[start:f.pos])
		}
	}
}

// Scan returns the next primitive token from f. When capture is true, the
// scanner enters balanced-delimiter capture mode using open/close as the
// paired delimiters (braces for block-content, parens for block-arg),
// returning the verbatim text between the matching outer delimiters as a
// single BLOCKTEXT-kind primitive.
func (s *RawScanner) Scan(f *includeFrame, capture bool, open, close byte) primitiveToken {
	pretext := s.skipTrivia(f)
	startLine, startCol := f.line, f.column

	if capture {
		return s.scanBalanced(f, open, close, pretext, startLine, startCol)
	}

	c := s.peekByte(f, 0)
	span := func(endLine, endCol int) SourceSpan {
		return SourceSpan{
			Frame: f.name,
			Start: SourcePosition{Line: startLine, Column: startCol},
			End:   SourcePosition{Line: endLine, Column: endCol},
		}
	}

	switch {
	case c == eofRune:
		return primitiveToken{kind: primEOF, pretext: pretext, span: span(startLine, startCol)}
	case c == '@':
		s.advance(f)
		return primitiveToken{kind: primAt, text: "@", pretext: pretext, span: span(f.line, f.column)}
	case c == '"' || c == '\'':
		return s.scanString(f, c, pretext, startLine, startCol)
	case isDigit(c):
		return s.scanNumber(f, pretext, startLine, startCol)
	case isIdentStart(c):
		return s.scanIdent(f, pretext, startLine, startCol)
	default:
		if op, ok := s.matchOperator(f); ok {
			return primitiveToken{kind: primOperator, text: op, pretext: pretext, span: span(f.line, f.column)}
		}
		s.advance(f)
		return primitiveToken{kind: primPunct, text: string(c), pretext: pretext, span: span(f.line, f.column)}
	}
}

func (s *RawScanner) matchOperator(f *includeFrame) (string, bool) {
	for _, op := range operators {
		if len(op) == 2 && s.peekByte(f, 0) == op[0] && s.peekByte(f, 1) == op[1] {
			s.advance(f)
			s.advance(f)
			return op, true
		}
	}
	return "", false
}

func (s *RawScanner) scanIdent(f *includeFrame, pretext string, startLine, startCol int) primitiveToken {
	start := f.pos
	for isIdentPart(s.peekByte(f, 0)) {
		s.advance(f)
	}
	text := string(f.data[start:f.pos])
	return primitiveToken{
		kind: primIdent, text: text, pretext: pretext,
		span: SourceSpan{Frame: f.name,
			Start: SourcePosition{Line: startLine, Column: startCol},
			End:   SourcePosition{Line: f.line, Column: f.column}},
	}
}

func (s *RawScanner) scanNumber(f *includeFrame, pretext string, startLine, startCol int) primitiveToken {
	start := f.pos
	for isDigit(s.peekByte(f, 0)) {
		s.advance(f)
	}
	if s.peekByte(f, 0) == '.' && isDigit(s.peekByte(f, 1)) {
		s.advance(f)
		for isDigit(s.peekByte(f, 0)) {
			s.advance(f)
		}
	}
	text := string(f.data[start:f.pos])
	return primitiveToken{
		kind: primNumber, text: text, pretext: pretext,
		span: SourceSpan{Frame: f.name,
			Start: SourcePosition{Line: startLine, Column: startCol},
			End:   SourcePosition{Line: f.line, Column: f.column}},
	}
}

func (s *RawScanner) scanString(f *includeFrame, quote byte, pretext string, startLine, startCol int) primitiveToken {
	s.advance(f) // opening quote
	var b strings.Builder
	for {
		c := s.peekByte(f, 0)
		switch c {
		case eofRune:
			return primitiveToken{kind: primIllegal, pretext: pretext,
				span: SourceSpan{Frame: f.name, Start: SourcePosition{Line: startLine, Column: startCol}, End: SourcePosition{Line: f.line, Column: f.column}},
				err:  &LexicalError{Message: "unterminated string literal", Span: SourceSpan{Frame: f.name, Start: SourcePosition{Line: startLine, Column: startCol}}}}
		case quote:
			s.advance(f)
			return primitiveToken{kind: primString, text: b.String(), pretext: pretext,
				span: SourceSpan{Frame: f.name, Start: SourcePosition{Line: startLine, Column: startCol}, End: SourcePosition{Line: f.line, Column: f.column}}}
		case '\\':
			s.advance(f)
			esc := s.advance(f)
			switch esc {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			case '\\', '"', '\'':
				b.WriteByte(esc)
			default:
				b.WriteByte('\\')
				b.WriteByte(esc)
			}
		default:
			b.WriteByte(c)
			s.advance(f)
		}
	}
}

// scanBalanced implements the block-content / block-arg capture mode: the
// opening delimiter has not yet been consumed by the caller, so this
// consumes it, then returns everything up to (not including) the matching
// closing delimiter, tracking nested same-kind delimiters and skipping
// over quoted string contents so a delimiter inside a string literal never
// confuses the balance count.
func (s *RawScanner) scanBalanced(f *includeFrame, open, close byte, pretext string, startLine, startCol int) primitiveToken {
	errSpan := func() SourceSpan {
		return SourceSpan{Frame: f.name, Start: SourcePosition{Line: startLine, Column: startCol}, End: SourcePosition{Line: f.line, Column: f.column}}
	}
	if s.peekByte(f, 0) != open {
		return primitiveToken{kind: primIllegal, pretext: pretext, span: errSpan(),
			err: &LexicalError{Message: "expected block body", Span: errSpan()}}
	}
	s.advance(f) // consume opening delimiter
	depth := 1
	var b strings.Builder
	for {
		c := s.peekByte(f, 0)
		switch c {
		case eofRune:
			return primitiveToken{kind: primIllegal, pretext: pretext, span: errSpan(),
				err: &LexicalError{Message: "unterminated block body", Span: errSpan()}}
		case '"', '\'':
			quote := c
			b.WriteByte(s.advance(f))
			for {
				c := s.peekByte(f, 0)
				if c == eofRune {
					return primitiveToken{kind: primIllegal, pretext: pretext, span: errSpan(),
						err: &LexicalError{Message: "unterminated string inside block body", Span: errSpan()}}
				}
				b.WriteByte(s.advance(f))
				if c == '\\' {
					b.WriteByte(s.advance(f))
					continue
				}
				if c == quote {
					break
				}
			}
		case open:
			depth++
			b.WriteByte(s.advance(f))
		case close:
			depth--
			if depth == 0 {
				s.advance(f)
				return primitiveToken{kind: primBlockText, text: b.String(), pretext: pretext,
					span: SourceSpan{Frame: f.name, Start: SourcePosition{Line: startLine, Column: startCol}, End: SourcePosition{Line: f.line, Column: f.column}}}
			}
			b.WriteByte(s.advance(f))
		default:
			b.WriteByte(s.advance(f))
		}
	}
}
