package lexer

import (
	"fmt"
	"log/slog"

	"golang.org/x/mod/semver"

	"github.com/aledsdavies/logconf/internal/diag"
)

// KeywordStatus marks whether a keyword entry is still fully supported or
// is kept only for backward compatibility.
type KeywordStatus int

const (
	StatusNormal KeywordStatus = iota
	StatusObsolete
)

// StopSentinel is the reserved keyword name that, as a table's first
// entry, terminates resolution early and forces identifier treatment.
const StopSentinel = "@STOP@"

// KeywordEntry is one row of a context's keyword table.
type KeywordEntry struct {
	Name            string
	TokenID         int
	RequiredVersion uint16 // major<<8 | minor, 0 means "no gate"
	Status          KeywordStatus
	Explain         string
}

// KeywordTable is an ordered list of keyword entries for one context.
type KeywordTable []*KeywordEntry

// versionString formats a packed major<<8|minor version as the
// "vMAJOR.MINOR.0" form golang.org/x/mod/semver expects.
func versionString(v uint16) string {
	return fmt.Sprintf("v%d.%d.0", v>>8, v&0xff)
}

// matchesKeyword implements the §4.F equivalence rule: '-' in the input
// matches only '_' in the entry spelling; any other mismatch breaks the
// match; lengths must match exactly.
func matchesKeyword(input, entry string) bool {
	if len(input) != len(entry) {
		return false
	}
	for i := 0; i < len(input); i++ {
		ic, ec := input[i], entry[i]
		if ic == ec {
			continue
		}
		if ic == '-' && ec == '_' {
			continue
		}
		return false
	}
	return true
}

// KeywordResolver resolves identifier lexemes against the live
// ContextStack. It owns no shared global state: the "warn once" bookkeeping
// for version-gated and obsolete entries lives on the resolver instance
// (keyed by entry pointer), not on the KeywordEntry values themselves, so
// two independent facades sharing a built-in KeywordTable never leak
// warning state into each other.
type KeywordResolver struct {
	warned map[*KeywordEntry]bool
}

// NewKeywordResolver returns a resolver with no prior warnings recorded.
func NewKeywordResolver() *KeywordResolver {
	return &KeywordResolver{warned: make(map[*KeywordEntry]bool)}
}

// ResolveResult is the outcome of Resolve: either a resolved keyword token
// or a plain identifier.
type ResolveResult struct {
	IsKeyword bool
	TokenID   int
}

// Resolve walks ctx's frames top to bottom, applying the sentinel, gating,
// and obsolescence rules.
func (r *KeywordResolver) Resolve(ctx *ContextStack, lexeme string, cfg Config, d diag.Sink, span SourceSpan) ResolveResult {
	for depth := 0; ; depth++ {
		frame, ok := ctx.frameAt(depth)
		if !ok {
			break
		}
		table := frame.keywords
		if len(table) == 0 {
			continue
		}
		if table[0].Name == StopSentinel {
			return ResolveResult{}
		}
		for _, entry := range table {
			if !matchesKeyword(lexeme, entry.Name) {
				continue
			}
			if cfg.DisabledKeywords[normalizeKey(entry.Name)] {
				continue
			}
			if entry.RequiredVersion != 0 && semver.Compare(versionString(entry.RequiredVersion), versionString(cfg.ActiveVersion)) > 0 {
				if !r.warned[entry] {
					r.warned[entry] = true
					d.Warn("reserved word used below its required version",
						slog.String("keyword", entry.Name),
						slog.String("frame", span.Frame),
						slog.Int("line", span.Start.Line),
						slog.Int("column", span.Start.Column),
						slog.String("required_version", versionString(entry.RequiredVersion)),
					)
				}
				continue // suppressed at this version: keep scanning the table
			}
			if entry.Status == StatusObsolete {
				if !r.warned[entry] {
					r.warned[entry] = true
					d.Warn("obsolete keyword used",
						slog.String("keyword", entry.Name),
						slog.String("frame", span.Frame),
						slog.Int("line", span.Start.Line),
						slog.Int("column", span.Start.Column),
						slog.String("explain", entry.Explain),
					)
				}
			}
			return ResolveResult{IsKeyword: true, TokenID: entry.TokenID}
		}
	}
	return ResolveResult{}
}
