// Package keywords supplies the built-in, data-driven keyword tables
// per Context, plus an external JSON loader for daemon-specific
// extensions validated against a fixed schema.
package keywords

import (
	"github.com/aledsdavies/logconf/internal/lexer"
)

func entry(name string, id int) *lexer.KeywordEntry {
	return &lexer.KeywordEntry{Name: name, TokenID: id}
}

func versioned(name string, id int, major, minor uint8) *lexer.KeywordEntry {
	return &lexer.KeywordEntry{Name: name, TokenID: id, RequiredVersion: uint16(major)<<8 | uint16(minor)}
}

func obsolete(name string, id int, explain string) *lexer.KeywordEntry {
	return &lexer.KeywordEntry{Name: name, TokenID: id, Status: lexer.StatusObsolete, Explain: explain}
}

// Token ids are opaque to this module; the grammar collaborator owns
// their real meaning. Values here only need to be distinct within a
// table for tests and the reference grammar to exercise.
const (
	tokSource = iota + 1
	tokDestination
	tokFilter
	tokLog
	tokRewrite
	tokParser
	tokFlushLines
	tokFlags
	tokInclude
	tokTemplate
	tokChainHostnames
)

// Root is the keyword table active at the top level of a configuration.
var Root = lexer.KeywordTable{
	entry("source", tokSource),
	entry("destination", tokDestination),
	entry("filter", tokFilter),
	entry("log", tokLog),
	entry("rewrite", tokRewrite),
	entry("parser", tokParser),
	entry("template", tokTemplate),
	versioned("flags", tokFlags, 3, 8),
	obsolete("chain_hostnames", tokChainHostnames, "chain_hostnames is deprecated; use the 'program' macro instead"),
}

// SourceBody is active inside a source { ... } block.
var SourceBody = lexer.KeywordTable{
	entry("flush_lines", tokFlushLines),
	entry("flags", tokFlags),
}

// DestinationBody is active inside a destination { ... } block.
var DestinationBody = lexer.KeywordTable{
	entry("flush_lines", tokFlushLines),
	entry("flags", tokFlags),
}

// ByContext maps each context with a built-in table to its KeywordTable.
// Contexts absent from this map have no built-in keywords (an empty
// table, or the caller supplies one explicitly).
var ByContext = map[lexer.Context]lexer.KeywordTable{
	lexer.ContextRoot:        Root,
	lexer.ContextSource:      SourceBody,
	lexer.ContextDestination: DestinationBody,
}
