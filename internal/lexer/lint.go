package lexer

import (
	"sort"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Suggestion is a "did you mean" hint for an identifier that narrowly
// missed every keyword in its context. It never influences token
// production; Lint is a post-hoc pass over an already-drained token
// stream consumed only by cmd/logconf lint.
type Suggestion struct {
	Token   Token
	Keyword string
}

// maxSuggestionDistance bounds how different a candidate may be to still
// count as a plausible typo, measured in Levenshtein edits.
const maxSuggestionDistance = 2

// Lint inspects tokens for IDENTIFIER entries that resolved to no keyword
// in the supplied table and reports the closest keyword name, if any is
// within maxSuggestionDistance edits.
func Lint(tokens []Token, keywords KeywordTable) []Suggestion {
	if len(keywords) == 0 {
		return nil
	}
	names := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if k.Name == StopSentinel {
			continue
		}
		names = append(names, k.Name)
	}

	var out []Suggestion
	for _, tok := range tokens {
		if tok.Type != IDENTIFIER {
			continue
		}
		best := ""
		bestDist := maxSuggestionDistance + 1
		for _, name := range names {
			d := fuzzy.LevenshteinDistance(tok.Text, name)
			if d < bestDist {
				bestDist = d
				best = name
			}
		}
		if best != "" && bestDist <= maxSuggestionDistance && bestDist > 0 {
			out = append(out, Suggestion{Token: tok, Keyword: best})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Token.Span.Start.Line < out[j].Token.Span.Start.Line
	})
	return out
}
