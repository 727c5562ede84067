package lexer

import (
	"fmt"
	"log/slog"
)

// Parser is the downstream grammar parser's facade-facing surface: the
// opaque collaborator the facade re-enters for exactly two narrow tasks.
// It is declared here (rather than in internal/grammar, which implements
// it) so that internal/lexer never imports internal/grammar — the
// dependency only runs one way.
type Parser interface {
	// ParsePragma is invoked when a pragma marker '@' is seen.
	ParsePragma(f *Facade) error
	// ParseBlockRefArgs is invoked to parse "(k1(v1) k2(v2) ...)" after a
	// block-reference identifier.
	ParseBlockRefArgs(f *Facade) (ArgMap, error)
}

// Facade drives the full pipeline: pending-block draining, capture-mode
// entry, raw scanning, pragma/include/block interception, and echo. It is
// single-threaded and non-suspending: every method runs to completion on
// the calling goroutine, and two independent configurations never share a
// Facade.
type Facade struct {
	cfg       Config
	ctxStack  *ContextStack
	incStack  *IncludeStack
	scanner   *RawScanner
	resolver  *KeywordResolver
	sub       *Substitutor
	registry  *BlockGeneratorRegistry
	grammar   Parser
	pending   []*TokenBlock
	suppress  int
	versioned bool
	echo      []byte
	last      *Token
}

// NewFacade constructs a Facade over the given configuration and grammar
// collaborator. cfg is threaded explicitly rather than read from a
// package-level global so that two goroutines lexing independent
// configurations never share state.
func NewFacade(cfg Config, grammar Parser) *Facade {
	if cfg.Globals.values == nil {
		cfg.Globals = NewArgMap()
	}
	if cfg.MaxIncludeDepth <= 0 {
		cfg.MaxIncludeDepth = DefaultMaxIncludeDepth
	}
	return &Facade{
		cfg:      cfg,
		ctxStack: NewContextStack(),
		incStack: NewIncludeStack(cfg.MaxIncludeDepth),
		scanner:  NewRawScanner(),
		resolver: NewKeywordResolver(),
		sub:      NewSubstitutor(),
		registry: NewBlockGeneratorRegistry(cfg.Diag),
		grammar:  grammar,
	}
}

// IncludeFile pushes path as the new top include frame.
func (f *Facade) IncludeFile(path string) error {
	return f.incStack.PushFile(path)
}

// IncludeBuffer pushes an in-memory frame named name.
func (f *Facade) IncludeBuffer(name string, bytes []byte) error {
	return f.incStack.PushBuffer(name, bytes)
}

// PushContext pushes a new lexer context frame. typ == ContextRoot
// inherits the stack's current type (ContextStack.Push's documented
// overload).
func (f *Facade) PushContext(typ Context, keywords KeywordTable, description string) {
	f.ctxStack.Push(typ, keywords, description)
}

// PopContext pops the top lexer context frame.
func (f *Facade) PopContext() {
	f.ctxStack.Pop()
}

// ContextDepth reports the live depth of the context stack, used by tests
// asserting push/pop balance.
func (f *Facade) ContextDepth() int {
	return f.ctxStack.Depth()
}

// CurrentLocation returns the active include frame's current location, the
// same value drained tokens from an injected TokenBlock are relocated to.
func (f *Facade) CurrentLocation() SourceSpan {
	return f.incStack.TopLocation()
}

// IncludedFiles returns every file path ever pushed onto the include
// stack during this facade's lifetime, in the order first opened,
// regardless of whether that frame has since been popped. It is the set a
// caller watching a configuration tree for changes needs to track.
func (f *Facade) IncludedFiles() []string {
	return f.incStack.seenFiles
}

// InjectTokenBlock appends a pre-synthesized token block to the pending
// queue; it is drained, in order, before any further raw scanning. Each
// drained token's location is overwritten with the include stack's current
// top-frame location at drain time, not whatever location it carried when
// appended.
func (f *Facade) InjectTokenBlock(b *TokenBlock) {
	f.pending = append(f.pending, b)
}

// Unput pushes back the single most recent token returned by Next, as a
// one-token TokenBlock at the head of the pending queue. It preserves the
// token's original source location.
func (f *Facade) Unput() error {
	if f.last == nil {
		return fmt.Errorf("lexer: unput with no prior token")
	}
	b := NewTokenBlock()
	b.keepSpan = true
	if err := b.Append(*f.last); err != nil {
		return err
	}
	f.pending = append([]*TokenBlock{b}, f.pending...)
	f.last = nil
	return nil
}

// RegisterBlockGenerator registers expand under (context, name); see
// BlockGeneratorRegistry.Register for the duplicate-rejection contract.
func (f *Facade) RegisterBlockGenerator(context Context, name string, expand GeneratorFunc, data any, dataFree func(any)) error {
	return f.registry.Register(context, name, expand, data, dataFree)
}

// RegisterUserBlock is a convenience wrapper registering a template-backed
// UserBlock as a generator under (context, name).
func (f *Facade) RegisterUserBlock(context Context, name string, block *UserBlock) error {
	return f.registry.Register(context, name, NewUserBlockGenerator(block, f.sub), nil, nil)
}

// Echo returns the reconstructed preprocessed source text accumulated so
// far.
func (f *Facade) Echo() string {
	return string(f.echo)
}

// Close releases every include frame, the block-generator registry (and
// its owned data), and the pending token blocks. The context stack and
// echo buffer need no explicit release in Go; they are reclaimed by the GC
// once the Facade itself becomes unreachable.
func (f *Facade) Close() {
	for f.incStack.Len() > 0 {
		f.incStack.Pop()
	}
	for _, b := range f.pending {
		b.Drop()
	}
	f.pending = nil
	f.registry.Close()
}

func (f *Facade) appendEcho(s string) {
	f.echo = append(f.echo, s...)
}

func tokenFromPrimitive(p primitiveToken) Token {
	var typ TokenType
	switch p.kind {
	case primEOF:
		typ = EOF
	case primIllegal:
		typ = ILLEGAL
	case primNumber:
		typ = NUMBER
	case primString:
		typ = STRING
	case primIdent:
		typ = IDENTIFIER
	case primPunct:
		typ = PUNCT
	case primOperator:
		typ = OPERATOR
	case primAt:
		typ = AT
	case primBlockText:
		typ = BLOCKTEXT
	}
	tok := Token{Type: typ, Text: p.text, Pretext: p.pretext, Span: p.span}
	if typ == PUNCT && len(p.text) == 1 {
		tok.ID = int(p.text[0])
	}
	return tok
}

// Next pulls and returns the next token: drain pending blocks, enter
// capture mode if the active context demands it, raw scan, intercept
// pragma/include/block-reference
// tokens, and append to the echo buffer.
func (f *Facade) Next() (Token, error) {
	for {
		// 1. drain pending token blocks
		if len(f.pending) > 0 {
			blk := f.pending[0]
			tok, ok := blk.Next()
			if !ok {
				f.pending = f.pending[1:]
				continue
			}
			tok.Injected = true
			if !blk.keepSpan {
				tok.Span = f.incStack.TopLocation()
			}
			f.last = &tok
			return tok, nil
		}

		if f.incStack.Len() == 0 {
			return Token{Type: EOF}, nil
		}

		// 2. capture mode if the active context demands it
		capture := f.ctxStack.CurrentType().capturesBalancedBody()
		open, close := byte('{'), byte('}')
		if f.ctxStack.CurrentType() == ContextBlockArg {
			open, close = '(', ')'
		}

		// 3. raw scan
		prim := f.scanner.Scan(f.incStack.Top(), capture, open, close)
		f.appendEcho(prim.pretext)
		if prim.err != nil {
			return Token{}, prim.err
		}

		if prim.kind == primEOF {
			f.incStack.Pop()
			continue
		}

		// 4. post-process / intercept
		switch {
		case prim.kind == primAt:
			f.appendEcho("@")
			if f.grammar == nil {
				return Token{}, fmt.Errorf("lexer: pragma encountered with no grammar collaborator")
			}
			if err := f.grammar.ParsePragma(f); err != nil {
				return Token{}, err
			}
			continue

		case prim.kind == primIdent && prim.text == "include" && f.ctxStack.CurrentType() != ContextPragma:
			if err := f.handleInclude(); err != nil {
				return Token{}, err
			}
			continue

		case prim.kind == primIdent:
			if gen, ok := f.registry.Find(f.ctxStack.CurrentType(), prim.text); ok {
				if err := f.handleBlockRef(gen, prim); err != nil {
					return Token{}, err
				}
				continue
			}
			tok := f.finishIdentifier(prim)
			return tok, nil

		default:
			f.maybeDefaultVersion(prim)
			tok := tokenFromPrimitive(prim)
			if f.suppress == 0 {
				f.appendEcho(tok.Text)
			}
			f.last = &tok
			return tok, nil
		}
	}
}

// maybeDefaultVersion: the first non-pragma token seen before any
// @version pragma defaults the active version to the legacy value and
// warns, once.
func (f *Facade) maybeDefaultVersion(prim primitiveToken) {
	if f.versioned || f.ctxStack.CurrentType() == ContextPragma {
		return
	}
	f.versioned = true
	f.cfg.Diag.Warn("no @version pragma seen, defaulting to legacy version",
		slog.String("frame", prim.span.Frame), slog.String("version", versionString(f.cfg.ActiveVersion)))
}

// finishIdentifier resolves a raw identifier primitive against the active
// keyword table, producing either a KEYWORD or an IDENTIFIER token.
func (f *Facade) finishIdentifier(prim primitiveToken) Token {
	f.maybeDefaultVersion(prim)
	res := f.resolver.Resolve(f.ctxStack, prim.text, f.cfg, f.cfg.Diag, prim.span)
	tok := tokenFromPrimitive(prim)
	if res.IsKeyword {
		tok.Type = KEYWORD
		tok.ID = res.TokenID
	}
	if f.suppress == 0 {
		f.appendEcho(tok.Text)
	}
	f.last = &tok
	return tok
}

// handleInclude implements the `include` interception: suppress echo,
// pull the path and the terminating ';' through a recursive Next, push
// the new file frame, and restore suppression.
func (f *Facade) handleInclude() error {
	f.suppress++
	defer func() { f.suppress-- }()

	pathTok, err := f.Next()
	if err != nil {
		return err
	}
	if pathTok.Type != STRING && pathTok.Type != IDENTIFIER {
		return &ContextMisuse{Operation: "include path", Current: f.ctxStack.CurrentType()}
	}
	semi, err := f.Next()
	if err != nil {
		return err
	}
	if semi.Type != PUNCT || semi.Text != ";" {
		return &ContextMisuse{Operation: "include statement (expected ';')", Current: f.ctxStack.CurrentType()}
	}
	return f.incStack.PushFile(pathTok.Text)
}

// handleBlockRef implements the block-reference interception: suppress
// echo, re-enter the grammar to parse the argument list, and invoke the
// generator.
func (f *Facade) handleBlockRef(gen *blockGenerator, prim primitiveToken) error {
	f.suppress++
	args, err := f.grammar.ParseBlockRefArgs(f)
	f.suppress--
	if err != nil {
		return err
	}
	if err := gen.expand(f, f.ctxStack.CurrentType(), prim.text, args); err != nil {
		return &BlockExpansionError{Context: f.ctxStack.CurrentType(), Name: prim.text, Err: err}
	}
	return nil
}
