package lexer

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// frameKind distinguishes the two include-frame variants.
type frameKind int

const (
	frameFile frameKind = iota
	frameBuffer
)

// includeFrame is one level of the include stack: either a file or an
// in-memory buffer. The scanner reads directly from data, which is always
// NUL-padded with two trailing zero bytes as the scanner's sentinel
// requires. pos/line/column are the frame's own cursor, read by location()
// to produce SourceSpan snapshots while this frame is on top.
type includeFrame struct {
	kind        frameKind
	name        string // path for frameFile, caller-supplied name for frameBuffer
	path        string // canonicalized path, frameFile only
	fingerprint string // first 8 hex chars of a blake2b-256 digest, diagnostics only
	data        []byte
	pos         int
	line        int
	column      int
	visited     map[string]bool // ancestor file paths currently open, frameFile only
}

func newFrame(kind frameKind, name string, body []byte, visited map[string]bool) *includeFrame {
	sum := blake2b.Sum256(body)
	padded := make([]byte, len(body)+2)
	copy(padded, body)
	return &includeFrame{
		kind:        kind,
		name:        name,
		data:        padded,
		line:        1,
		column:      1,
		fingerprint: fmt.Sprintf("%x", sum[:4]),
		visited:     visited,
	}
}

// location snapshots the frame's current cursor as a SourceSpan start/end
// pair (both equal, a zero-width "here" marker returned by TopLocation).
func (f *includeFrame) location() SourceSpan {
	pos := SourcePosition{Line: f.line, Column: f.column}
	return SourceSpan{Frame: f.name, Start: pos, End: pos}
}

// IncludeStack is the bounded stack of input frames (file or buffer) that
// the facade scans over. Depth is capped at MaxDepth to prevent runaway
// recursion; file frames carry their ancestor-path set forward so a
// self-include anywhere in the active chain is caught as a cycle rather
// than merely a re-visit of an already-closed file.
type IncludeStack struct {
	frames    []*includeFrame
	MaxDepth  int
	seenFiles []string // every distinct file path ever pushed, in first-opened order; never shrinks
}

// NewIncludeStack returns an empty stack bounded at maxDepth.
func NewIncludeStack(maxDepth int) *IncludeStack {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxIncludeDepth
	}
	return &IncludeStack{MaxDepth: maxDepth}
}

// Len reports the current stack depth.
func (s *IncludeStack) Len() int {
	return len(s.frames)
}

// Top returns the current frame, or nil if the stack is empty.
func (s *IncludeStack) Top() *includeFrame {
	if len(s.frames) == 0 {
		return nil
	}
	return s.frames[len(s.frames)-1]
}

// TopLocation returns the current frame's location, or a SourceSpan whose
// Frame is "<eof>" (positions zero) if the stack is empty.
func (s *IncludeStack) TopLocation() SourceSpan {
	if f := s.Top(); f != nil {
		return f.location()
	}
	return SourceSpan{Frame: "<eof>"}
}

func (s *IncludeStack) activeFileAncestors() map[string]bool {
	for i := len(s.frames) - 1; i >= 0; i-- {
		if s.frames[i].kind == frameFile {
			out := make(map[string]bool, len(s.frames[i].visited)+1)
			for p := range s.frames[i].visited {
				out[p] = true
			}
			return out
		}
	}
	return make(map[string]bool)
}

// PushFile opens path, strips a UTF-8 BOM if present, fingerprints the
// BOM-stripped bytes, and pushes a new frame. A relative path is resolved
// against the directory of the nearest enclosing file frame, or against the
// working directory when there is none. It fails with IncludeError on a
// depth overflow, a cycle (path already open somewhere in the active
// ancestor chain), or an I/O error.
func (s *IncludeStack) PushFile(path string) error {
	if len(s.frames) >= s.MaxDepth {
		return &IncludeError{Kind: IncludeDepthOverflow, Path: path}
	}
	if !filepath.IsAbs(path) {
		for i := len(s.frames) - 1; i >= 0; i-- {
			if s.frames[i].kind == frameFile {
				path = filepath.Join(filepath.Dir(s.frames[i].path), path)
				break
			}
		}
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return &IncludeError{Kind: IncludeNotFound, Path: path, Err: err}
	}
	ancestors := s.activeFileAncestors()
	if ancestors[abs] {
		return &IncludeError{Kind: IncludeCycle, Path: path}
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return &IncludeError{Kind: IncludeNotFound, Path: path, Err: err}
	}
	body, err := stripBOM(raw)
	if err != nil {
		return &IncludeError{Kind: IncludeNotFound, Path: path, Err: err}
	}
	ancestors[abs] = true
	frame := newFrame(frameFile, path, body, ancestors)
	frame.path = abs
	s.frames = append(s.frames, frame)
	if !slices.Contains(s.seenFiles, abs) {
		s.seenFiles = append(s.seenFiles, abs)
	}
	return nil
}

// PushBuffer pushes a NUL-padded copy of bytes as a named in-memory frame.
// Buffer frames carry no ancestor set: cycle detection is file-path based
// and does not apply to anonymous buffers.
func (s *IncludeStack) PushBuffer(name string, bytes []byte) error {
	if len(s.frames) >= s.MaxDepth {
		return &IncludeError{Kind: IncludeDepthOverflow, Path: name}
	}
	s.frames = append(s.frames, newFrame(frameBuffer, name, bytes, nil))
	return nil
}

// Pop discards the top frame, releasing its buffer and (for a file frame)
// the path it occupied in the cycle-detection chain.
func (s *IncludeStack) Pop() {
	if len(s.frames) == 0 {
		return
	}
	s.frames = s.frames[:len(s.frames)-1]
}

// stripBOM removes a leading UTF-8 byte-order mark using
// golang.org/x/text's BOM-aware decoder, leaving non-BOM input untouched.
func stripBOM(raw []byte) ([]byte, error) {
	transformer := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	reader := transform.NewReader(bytes.NewReader(raw), transformer)
	return io.ReadAll(reader)
}
