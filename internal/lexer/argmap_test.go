package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArgMapNormalizeIdempotent(t *testing.T) {
	for _, k := range []string{"Flush-Lines", "flush_lines", "FLUSH-LINES", "a-b-C"} {
		once := normalizeKey(k)
		twice := normalizeKey(once)
		assert.Equal(t, once, twice, "normalize(normalize(%q)) should equal normalize(%q)", k, k)
	}
}

func TestArgMapSetGet(t *testing.T) {
	m := NewArgMap()
	m.Set("host-name", "h1")

	v, ok := m.Get("host-name")
	require.True(t, ok)
	assert.Equal(t, "h1", v)

	v, ok = m.Get("host_name")
	require.True(t, ok)
	assert.Equal(t, "h1", v)

	v, ok = m.Get("HOST-NAME")
	require.True(t, ok)
	assert.Equal(t, "h1", v)

	_, ok = m.Get("missing")
	assert.False(t, ok)
}

func TestArgMapForEachStableOrder(t *testing.T) {
	m := NewArgMap()
	m.Set("c", "3")
	m.Set("a", "1")
	m.Set("b", "2")

	var got []string
	m.ForEach(func(k, v string) {
		got = append(got, k+"="+v)
	})
	assert.Equal(t, []string{"c=3", "a=1", "b=2"}, got)
}

func TestArgMapValidateReportsFirstUnknownKey(t *testing.T) {
	defs := NewArgMap()
	defs.Set("path", "/var/log/default")

	args := NewArgMap()
	args.Set("path", "/tmp/x")
	args.Set("bogus", "1")

	err := args.Validate(defs, "myblk")
	require.Error(t, err)
	var uae *UnknownArgumentError
	require.ErrorAs(t, err, &uae)
	assert.Equal(t, "bogus", uae.Key)
}

func TestArgMapValidateOK(t *testing.T) {
	defs := NewArgMap()
	defs.Set("path", "/var/log/default")

	args := NewArgMap()
	args.Set("path", "/tmp/x")

	assert.NoError(t, args.Validate(defs, "myblk"))
}

func TestArgMapCloneIsIndependent(t *testing.T) {
	m := NewArgMap()
	m.Set("a", "1")
	clone := m.Clone()
	clone.Set("a", "2")
	clone.Set("b", "3")

	v, _ := m.Get("a")
	assert.Equal(t, "1", v)
	assert.Equal(t, 1, m.Len())
	assert.Equal(t, 2, clone.Len())
}
