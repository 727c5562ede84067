package lexer

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scanAll(t *testing.T, src string) []primitiveToken {
	t.Helper()
	stack := NewIncludeStack(DefaultMaxIncludeDepth)
	require.NoError(t, stack.PushBuffer("test", []byte(src)))
	scanner := NewRawScanner()

	var out []primitiveToken
	for {
		p := scanner.Scan(stack.Top(), false, '{', '}')
		require.NoError(t, p.err)
		out = append(out, p)
		if p.kind == primEOF {
			return out
		}
	}
}

func TestScannerScenarioS1(t *testing.T) {
	toks := scanAll(t, "source s_local { };")
	var texts []string
	var kinds []primitiveKind
	for _, tok := range toks {
		if tok.kind == primEOF {
			break
		}
		texts = append(texts, tok.text)
		kinds = append(kinds, tok.kind)
	}
	wantTexts := []string{"source", "s_local", "{", "}", ";"}
	wantKinds := []primitiveKind{primIdent, primIdent, primPunct, primPunct, primPunct}
	if diff := cmp.Diff(wantTexts, texts); diff != "" {
		t.Errorf("token text mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(wantKinds, kinds); diff != "" {
		t.Errorf("token kind mismatch (-want +got):\n%s", diff)
	}
}

func TestScannerEchoFidelity(t *testing.T) {
	src := "  source   s_local { }; # trailing comment\n"
	toks := scanAll(t, src)
	var rebuilt string
	for _, tok := range toks {
		rebuilt += tok.pretext + tok.text
	}
	assert.Equal(t, src, rebuilt)
}

func TestScannerStringEscapes(t *testing.T) {
	toks := scanAll(t, `"a\nb\"c"`)
	require.GreaterOrEqual(t, len(toks), 1)
	assert.Equal(t, primString, toks[0].kind)
	assert.Equal(t, "a\nb\"c", toks[0].text)
}

func TestScannerUnterminatedStringIsIllegal(t *testing.T) {
	toks := scanAllowErr(t, `"unterminated`)
	require.NotEmpty(t, toks)
	assert.Equal(t, primIllegal, toks[0].kind)
	assert.Error(t, toks[0].err)
}

func scanAllowErr(t *testing.T, src string) []primitiveToken {
	t.Helper()
	stack := NewIncludeStack(DefaultMaxIncludeDepth)
	require.NoError(t, stack.PushBuffer("test", []byte(src)))
	scanner := NewRawScanner()
	var out []primitiveToken
	for {
		p := scanner.Scan(stack.Top(), false, '{', '}')
		out = append(out, p)
		if p.kind == primEOF || p.err != nil {
			return out
		}
	}
}

func TestScannerBalancedCapture(t *testing.T) {
	stack := NewIncludeStack(DefaultMaxIncludeDepth)
	require.NoError(t, stack.PushBuffer("test", []byte("{ file(\"/tmp/x\"); nested { ok } }")))
	scanner := NewRawScanner()

	p := scanner.Scan(stack.Top(), true, '{', '}')
	require.NoError(t, p.err)
	require.Equal(t, primBlockText, p.kind)
	assert.Equal(t, ` file("/tmp/x"); nested { ok } `, p.text)
}

func TestScannerNumber(t *testing.T) {
	toks := scanAll(t, "514 3.14")
	assert.Equal(t, "514", toks[0].text)
	assert.Equal(t, primNumber, toks[0].kind)
	assert.Equal(t, "3.14", toks[1].text)
}
