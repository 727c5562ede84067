// Package grammar hosts the downstream grammar parser's facade-facing
// surface: an opaque collaborator the lexer re-enters for exactly two
// tasks, parsing a pragma directive and parsing a block-reference
// argument list. Everything else a real routing-daemon grammar would do
// (productions, routing semantics) is out of scope.
package grammar

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aledsdavies/logconf/internal/lexer"
)

// Parser is an alias for lexer.Parser: the interface has to live in
// internal/lexer to avoid a dependency cycle (the facade calls into it),
// but callers of this package see it under its natural name.
type Parser = lexer.Parser

// DefaultParser is a minimal reference grammar sufficient to exercise the
// facade end-to-end: `@version(MAJOR.MINOR);`, `@include "path";`, and
// `name(value) name2(value2) ...` argument lists. `@include-dir "path";` is
// recognised and rejected with an error. It is intentionally small — a
// teaching harness, not the production routing-daemon grammar.
type DefaultParser struct {
	// OnVersion, if set, receives the parsed (major, minor) pair from an
	// @version pragma instead of DefaultParser silently ignoring it.
	OnVersion func(major, minor uint8)
}

// ParsePragma parses the body of a `@name(...)` or `@name "..."`
// directive up to and including its terminating ';'. The directive is
// lexed in the pragma context, so the facade leaves `include` to this
// parser instead of intercepting it.
func (p *DefaultParser) ParsePragma(f *lexer.Facade) error {
	f.PushContext(lexer.ContextPragma, nil, "pragma")
	defer f.PopContext()

	nameTok, err := f.Next()
	if err != nil {
		return err
	}
	if nameTok.Type != lexer.IDENTIFIER && nameTok.Type != lexer.KEYWORD {
		return &lexer.ContextMisuse{Operation: "pragma name", Current: lexer.ContextPragma}
	}

	switch nameTok.Text {
	case "version":
		return p.parseVersionPragma(f)
	case "include", "include-dir":
		return p.parseIncludePragma(f, nameTok.Text == "include-dir")
	default:
		return p.skipToSemicolon(f)
	}
}

func (p *DefaultParser) parseVersionPragma(f *lexer.Facade) error {
	open, err := f.Next()
	if err != nil {
		return err
	}
	if open.Type != lexer.PUNCT || open.Text != "(" {
		return &lexer.ContextMisuse{Operation: "@version(", Current: lexer.ContextPragma}
	}
	numTok, err := f.Next()
	if err != nil {
		return err
	}
	major, minor, err := parseDottedVersion(numTok.Text)
	if err != nil {
		return err
	}
	close, err := f.Next()
	if err != nil {
		return err
	}
	if close.Type != lexer.PUNCT || close.Text != ")" {
		return &lexer.ContextMisuse{Operation: "@version(...)", Current: lexer.ContextPragma}
	}
	if err := p.skipToSemicolon(f); err != nil {
		return err
	}
	if p.OnVersion != nil {
		p.OnVersion(major, minor)
	}
	return nil
}

func parseDottedVersion(text string) (uint8, uint8, error) {
	parts := strings.SplitN(text, ".", 2)
	major, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid version major %q: %w", text, err)
	}
	minor := 0
	if len(parts) == 2 {
		minor, err = strconv.Atoi(parts[1])
		if err != nil {
			return 0, 0, fmt.Errorf("invalid version minor %q: %w", text, err)
		}
	}
	return uint8(major), uint8(minor), nil
}

func (p *DefaultParser) parseIncludePragma(f *lexer.Facade, dir bool) error {
	pathTok, err := f.Next()
	if err != nil {
		return err
	}
	if pathTok.Type != lexer.STRING && pathTok.Type != lexer.IDENTIFIER {
		return &lexer.ContextMisuse{Operation: "@include path", Current: lexer.ContextPragma}
	}
	if err := p.skipToSemicolon(f); err != nil {
		return err
	}
	if dir {
		// A directory include expands to a sorted walk in the real
		// daemon; out of scope here, so this only documents the hook.
		return fmt.Errorf("grammar: @include-dir not supported by the reference parser")
	}
	return f.IncludeFile(pathTok.Text)
}

func (p *DefaultParser) skipToSemicolon(f *lexer.Facade) error {
	for {
		tok, err := f.Next()
		if err != nil {
			return err
		}
		if tok.Type == lexer.EOF {
			return fmt.Errorf("grammar: unexpected EOF in pragma, expected ';'")
		}
		if tok.Type == lexer.PUNCT && tok.Text == ";" {
			return nil
		}
	}
}

// ParseBlockRefArgs parses "(k1(v1) k2(v2) ...)" following a
// block-reference identifier.
func (p *DefaultParser) ParseBlockRefArgs(f *lexer.Facade) (lexer.ArgMap, error) {
	args := lexer.NewArgMap()

	open, err := f.Next()
	if err != nil {
		return args, err
	}
	if open.Type != lexer.PUNCT || open.Text != "(" {
		return args, &lexer.ContextMisuse{Operation: "block reference arguments", Current: lexer.ContextBlockRef}
	}

	for {
		tok, err := f.Next()
		if err != nil {
			return args, err
		}
		if tok.Type == lexer.PUNCT && tok.Text == ")" {
			return args, nil
		}
		if tok.Type != lexer.IDENTIFIER && tok.Type != lexer.KEYWORD {
			return args, &lexer.ContextMisuse{Operation: "block argument name", Current: lexer.ContextBlockRef}
		}
		name := tok.Text

		// Pushing block-arg puts the scanner into paired-parenthesis
		// capture mode for exactly the next token: it consumes the
		// value's own "(...)" wrapper and returns its balanced body as a
		// single BLOCKTEXT token.
		f.PushContext(lexer.ContextBlockArg, nil, "block argument")
		valTok, err := f.Next()
		f.PopContext()
		if err != nil {
			return args, err
		}
		if valTok.Type != lexer.BLOCKTEXT {
			return args, &lexer.ContextMisuse{Operation: "block argument value", Current: lexer.ContextBlockArg}
		}
		args.Set(name, valTok.Text)
	}
}
