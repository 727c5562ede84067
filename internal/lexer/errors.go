package lexer

import (
	"fmt"
	"strings"
)

// snippet renders a Rust/Clang-style caret-pointed excerpt of line at
// span's starting column, following pkgs/parser/errors.go's layout.
func snippet(frame, line string, span SourceSpan) string {
	var b strings.Builder
	fmt.Fprintf(&b, "  --> %s:%d:%d\n", frame, span.Start.Line, span.Start.Column)
	b.WriteString("   |\n")
	fmt.Fprintf(&b, "%3d| %s\n", span.Start.Line, line)
	b.WriteString("   | ")
	for i := 1; i < span.Start.Column; i++ {
		b.WriteByte(' ')
	}
	b.WriteByte('^')
	return b.String()
}

// LexicalError reports a malformed token: an unterminated string, or a
// block body that is missing its opening delimiter or is unterminated. It
// halts token production for the current frame. The scanner does not raise
// it for escape sequences: an unrecognised escape is kept verbatim,
// backslash included.
type LexicalError struct {
	Message string
	Span    SourceSpan
	Line    string
}

func (e *LexicalError) Error() string {
	if e.Line == "" {
		return fmt.Sprintf("%s: %s", e.Span, e.Message)
	}
	return fmt.Sprintf("%s\n%s", e.Message, snippet(e.Span.Frame, e.Line, e.Span))
}

// IncludeKind distinguishes the three ways an include can fail.
type IncludeKind int

const (
	IncludeNotFound IncludeKind = iota
	IncludeCycle
	IncludeDepthOverflow
)

func (k IncludeKind) String() string {
	switch k {
	case IncludeNotFound:
		return "not found"
	case IncludeCycle:
		return "cycle"
	case IncludeDepthOverflow:
		return "depth overflow"
	default:
		return "unknown"
	}
}

// IncludeError reports a file open failure, an include cycle, or a
// depth-bound overflow. Fatal to the current lex.
type IncludeError struct {
	Kind IncludeKind
	Path string
	Err  error
}

func (e *IncludeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("include %q: %s: %v", e.Path, e.Kind, e.Err)
	}
	return fmt.Sprintf("include %q: %s", e.Path, e.Kind)
}

func (e *IncludeError) Unwrap() error { return e.Err }

// SubstitutionError reports an unterminated back-tick reference. Fatal to
// the containing buffer preprocessing or block expansion.
type SubstitutionError struct {
	Buffer string
	Offset int
}

func (e *SubstitutionError) Error() string {
	return fmt.Sprintf("unterminated back-tick reference at offset %d in %q", e.Offset, e.Buffer)
}

// BlockExpansionError reports a generator returning failure.
type BlockExpansionError struct {
	Context Context
	Name    string
	Err     error
}

func (e *BlockExpansionError) Error() string {
	return fmt.Sprintf("block %s/%s expansion failed: %v", e.Context, e.Name, e.Err)
}

func (e *BlockExpansionError) Unwrap() error { return e.Err }

// ContextMisuse reports an operation invalid in the current context, such
// as an `include` statement whose path is not a string or identifier, or
// whose terminating ';' is missing.
type ContextMisuse struct {
	Operation string
	Current   Context
}

func (e *ContextMisuse) Error() string {
	return fmt.Sprintf("%s is not valid inside context %s", e.Operation, e.Current)
}

// UnknownArgumentError is produced by ArgMap.Validate; non-fatal unless
// the caller chooses to fail on it.
type UnknownArgumentError struct {
	Context string
	Key     string
	Value   string
}

func (e *UnknownArgumentError) Error() string {
	return fmt.Sprintf("%s: unknown argument %q=%q", e.Context, e.Key, e.Value)
}
