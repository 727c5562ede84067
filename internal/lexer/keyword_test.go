package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aledsdavies/logconf/internal/diag"
)

func tableOf(entries ...*KeywordEntry) KeywordTable {
	return KeywordTable(entries)
}

func TestKeywordResolverStopSentinel(t *testing.T) {
	// S3: context stack top has keyword table [{"@STOP@", ...}]; "source"
	// resolves to a plain identifier, not a token.
	stack := NewContextStack()
	stack.Push(ContextRoot, tableOf(&KeywordEntry{Name: StopSentinel}), "")

	r := NewKeywordResolver()
	cfg := DefaultConfig()
	res := r.Resolve(stack, "source", cfg, diag.New(nil), SourceSpan{})
	assert.False(t, res.IsKeyword)
}

func TestKeywordResolverHyphenUnderscoreEquivalence(t *testing.T) {
	// S4: keyword table entry "flush_lines"; "flush-lines" matches,
	// "flush.lines" does not.
	entry := &KeywordEntry{Name: "flush_lines", TokenID: 42}
	stack := NewContextStack()
	stack.Push(ContextRoot, tableOf(entry), "")

	r := NewKeywordResolver()
	cfg := DefaultConfig()

	res := r.Resolve(stack, "flush-lines", cfg, diag.New(nil), SourceSpan{})
	require.True(t, res.IsKeyword)
	assert.Equal(t, 42, res.TokenID)

	res = r.Resolve(stack, "flush.lines", cfg, diag.New(nil), SourceSpan{})
	assert.False(t, res.IsKeyword)
}

func TestKeywordResolverVersionGateSuppressesMatch(t *testing.T) {
	entry := &KeywordEntry{Name: "flags", TokenID: 7, RequiredVersion: 3<<8 | 38}
	stack := NewContextStack()
	stack.Push(ContextRoot, tableOf(entry), "")

	r := NewKeywordResolver()
	cfg := DefaultConfig()
	cfg.ActiveVersion = 3 << 8 // 3.0, below the gate

	res := r.Resolve(stack, "flags", cfg, diag.New(nil), SourceSpan{})
	assert.False(t, res.IsKeyword, "a keyword gated above the active version must not match")
}

func TestKeywordResolverVersionGateAllowsMatch(t *testing.T) {
	entry := &KeywordEntry{Name: "flags", TokenID: 7, RequiredVersion: 3<<8 | 38}
	stack := NewContextStack()
	stack.Push(ContextRoot, tableOf(entry), "")

	r := NewKeywordResolver()
	cfg := DefaultConfig()
	cfg.ActiveVersion = 3<<8 | 38

	res := r.Resolve(stack, "flags", cfg, diag.New(nil), SourceSpan{})
	require.True(t, res.IsKeyword)
	assert.Equal(t, 7, res.TokenID)
}

func TestKeywordResolverObsoleteWarnsOnce(t *testing.T) {
	entry := &KeywordEntry{Name: "chain_hostnames", TokenID: 9, Status: StatusObsolete, Explain: "use program instead"}
	stack := NewContextStack()
	stack.Push(ContextRoot, tableOf(entry), "")

	r := NewKeywordResolver()
	cfg := DefaultConfig()

	res1 := r.Resolve(stack, "chain_hostnames", cfg, diag.New(nil), SourceSpan{})
	require.True(t, res1.IsKeyword)
	assert.True(t, r.warned[entry])

	// second occurrence still resolves as a keyword; only the warn is
	// suppressed, tracked internally via r.warned.
	res2 := r.Resolve(stack, "chain_hostnames", cfg, diag.New(nil), SourceSpan{})
	assert.True(t, res2.IsKeyword)
}

func TestKeywordResolverNoMatchIsIdentifier(t *testing.T) {
	stack := NewContextStack()
	stack.Push(ContextRoot, tableOf(&KeywordEntry{Name: "source", TokenID: 1}), "")

	r := NewKeywordResolver()
	cfg := DefaultConfig()
	res := r.Resolve(stack, "nonexistent", cfg, diag.New(nil), SourceSpan{})
	assert.False(t, res.IsKeyword)
}

func TestKeywordResolverDisabledKeyword(t *testing.T) {
	entry := &KeywordEntry{Name: "flush_lines", TokenID: 42}
	stack := NewContextStack()
	stack.Push(ContextRoot, tableOf(entry), "")

	r := NewKeywordResolver()
	cfg := DefaultConfig()
	cfg.DisabledKeywords = map[string]bool{"flush_lines": true}

	res := r.Resolve(stack, "flush_lines", cfg, diag.New(nil), SourceSpan{})
	assert.False(t, res.IsKeyword)
}
