package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSubstitutor(env map[string]string) *Substitutor {
	return &Substitutor{
		LookupEnv: func(name string) (string, bool) {
			v, ok := env[name]
			return v, ok
		},
	}
}

func TestSubstituteScenarioS2(t *testing.T) {
	globals := NewArgMap()
	globals.Set("host_name", "h1")
	defs := NewArgMap()
	defs.Set("port", "514")
	args := NewArgMap()
	args.Set("port", "6514")

	sub := newTestSubstitutor(nil)
	got, err := sub.Substitute("dest(`host_name`:`port`)", args, defs, globals)
	require.NoError(t, err)
	assert.Equal(t, "dest(h1:6514)", got)
	assert.Len(t, got, 13)
}

func TestSubstituteNoBackticksReturnsUnchanged(t *testing.T) {
	sub := newTestSubstitutor(nil)
	s := "no substitution here at all"
	got, err := sub.Substitute(s, NewArgMap(), NewArgMap(), NewArgMap())
	require.NoError(t, err)
	assert.Equal(t, s, got)
	assert.Len(t, got, len(s))
}

func TestSubstituteEmptyReferenceIsLiteralBacktick(t *testing.T) {
	sub := newTestSubstitutor(nil)
	got, err := sub.Substitute("a``b", NewArgMap(), NewArgMap(), NewArgMap())
	require.NoError(t, err)
	assert.Equal(t, "a`b", got)
}

func TestSubstituteMissingNameIsSilent(t *testing.T) {
	sub := newTestSubstitutor(nil)
	got, err := sub.Substitute("x=`missing`;", NewArgMap(), NewArgMap(), NewArgMap())
	require.NoError(t, err)
	assert.Equal(t, "x=;", got)
}

func TestSubstituteUnterminatedReferenceFails(t *testing.T) {
	sub := newTestSubstitutor(nil)
	_, err := sub.Substitute("x=`unterminated", NewArgMap(), NewArgMap(), NewArgMap())
	require.Error(t, err)
	var serr *SubstitutionError
	require.ErrorAs(t, err, &serr)
}

func TestSubstituteLayerPrecedence(t *testing.T) {
	args := NewArgMap()
	args.Set("v", "from-args")
	defs := NewArgMap()
	defs.Set("v", "from-defs")
	globals := NewArgMap()
	globals.Set("v", "from-globals")

	sub := newTestSubstitutor(map[string]string{"v": "from-env"})
	got, err := sub.Substitute("`v`", args, defs, globals)
	require.NoError(t, err)
	assert.Equal(t, "from-args", got)

	got, err = sub.Substitute("`v`", NewArgMap(), defs, globals)
	require.NoError(t, err)
	assert.Equal(t, "from-defs", got)

	got, err = sub.Substitute("`v`", NewArgMap(), NewArgMap(), globals)
	require.NoError(t, err)
	assert.Equal(t, "from-globals", got)

	got, err = sub.Substitute("`v`", NewArgMap(), NewArgMap(), NewArgMap())
	require.NoError(t, err)
	assert.Equal(t, "from-env", got)
}
