package lexer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIncludeStackDepthBound(t *testing.T) {
	s := NewIncludeStack(2)
	require.NoError(t, s.PushBuffer("a", []byte("a")))
	require.NoError(t, s.PushBuffer("b", []byte("b")))

	err := s.PushBuffer("c", []byte("c"))
	require.Error(t, err)
	var ierr *IncludeError
	require.ErrorAs(t, err, &ierr)
	assert.Equal(t, IncludeDepthOverflow, ierr.Kind)
}

func TestIncludeStackFileCycle(t *testing.T) {
	// S6: a.conf contains @include "a.conf"; the second push of the same
	// path while it is still an active ancestor is a cycle.
	dir := t.TempDir()
	path := filepath.Join(dir, "a.conf")
	require.NoError(t, os.WriteFile(path, []byte(`@include "a.conf";`), 0o644))

	s := NewIncludeStack(DefaultMaxIncludeDepth)
	require.NoError(t, s.PushFile(path))

	err := s.PushFile(path)
	require.Error(t, err)
	var ierr *IncludeError
	require.ErrorAs(t, err, &ierr)
	assert.Equal(t, IncludeCycle, ierr.Kind)
}

func TestIncludeStackSameFileAfterPopIsNotACycle(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "shared.conf")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	s := NewIncludeStack(DefaultMaxIncludeDepth)
	require.NoError(t, s.PushFile(path))
	s.Pop()
	assert.NoError(t, s.PushFile(path), "re-including a file after it's fully popped is not a cycle")
}

func TestIncludeStackNotFound(t *testing.T) {
	s := NewIncludeStack(DefaultMaxIncludeDepth)
	err := s.PushFile(filepath.Join(t.TempDir(), "missing.conf"))
	require.Error(t, err)
	var ierr *IncludeError
	require.ErrorAs(t, err, &ierr)
	assert.Equal(t, IncludeNotFound, ierr.Kind)
}

func TestIncludeStackBufferIsNulPadded(t *testing.T) {
	s := NewIncludeStack(DefaultMaxIncludeDepth)
	require.NoError(t, s.PushBuffer("buf", []byte("abc")))
	f := s.Top()
	require.Len(t, f.data, 5)
	assert.Equal(t, byte(0), f.data[3])
	assert.Equal(t, byte(0), f.data[4])
}

func TestIncludeStackStripsBOM(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bom.conf")
	body := append([]byte{0xEF, 0xBB, 0xBF}, []byte("source s;")...)
	require.NoError(t, os.WriteFile(path, body, 0o644))

	s := NewIncludeStack(DefaultMaxIncludeDepth)
	require.NoError(t, s.PushFile(path))
	f := s.Top()
	assert.Equal(t, "source s;", string(f.data[:len(f.data)-2]))
}
