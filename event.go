// Package yamlscan decodes a packed token.Queue (produced by
// internal/lexer) into a pull-based stream of typed Events: the thin
// layer a tree-builder or emitter would sit on top of.
package yamlscan

import (
	"github.com/waldemarsson/yamlscan/internal/lexer"
	"github.com/waldemarsson/yamlscan/internal/reader"
)

// EventKind identifies the shape of an Event.
type EventKind int

const (
	EvNone EventKind = iota
	EvStreamStart
	EvStreamEnd
	EvDocStart
	EvDocEnd
	EvSeqStart
	EvSeqEnd
	EvMapStart
	EvMapEnd
	EvScalar
	EvAlias
	EvDirective
	EvError
)

func (k EventKind) String() string {
	switch k {
	case EvStreamStart:
		return "StreamStart"
	case EvStreamEnd:
		return "StreamEnd"
	case EvDocStart:
		return "DocStart"
	case EvDocEnd:
		return "DocEnd"
	case EvSeqStart:
		return "SeqStart"
	case EvSeqEnd:
		return "SeqEnd"
	case EvMapStart:
		return "MapStart"
	case EvMapEnd:
		return "MapEnd"
	case EvScalar:
		return "Scalar"
	case EvAlias:
		return "Alias"
	case EvDirective:
		return "Directive"
	case EvError:
		return "Error"
	}
	return "None"
}

// ScalarFlavor identifies which of YAML's five scalar styles produced a
// Scalar event's Value.
type ScalarFlavor int

const (
	FlavorPlain ScalarFlavor = iota
	FlavorSingleQuoted
	FlavorDoubleQuoted
	FlavorLiteral
	FlavorFolded
)

func (f ScalarFlavor) String() string {
	switch f {
	case FlavorSingleQuoted:
		return "SingleQuoted"
	case FlavorDoubleQuoted:
		return "DoubleQuoted"
	case FlavorLiteral:
		return "Literal"
	case FlavorFolded:
		return "Folded"
	}
	return "Plain"
}

// DirectiveKind identifies which of the three directive forms a Directive
// event carries.
type DirectiveKind int

const (
	DirectiveYAML DirectiveKind = iota
	DirectiveTag
	DirectiveReserved
)

// Tag is a node's resolved type annotation. Resolved holds the fully
// resolved tag URI (e.g. "tag:yaml.org,2002:str", or a local "!name") once
// namespace resolution succeeds; Handle/Suffix keep the raw, unresolved
// spans when the handle could not be found in the directive table, so a
// caller can still report or recover the original text.
type Tag struct {
	Resolved string
	Handle   []byte
	Suffix   []byte
}

// Empty reports whether no tag was attached to the node.
func (t Tag) Empty() bool { return t.Resolved == "" && len(t.Handle) == 0 && len(t.Suffix) == 0 }

// Position is a source location: byte offset plus 1-based line and
// 0-based column.
type Position = reader.Position

// Event is one decoded item of the event stream: a structural marker, a
// scalar with its assembled content, an alias, a directive, or a recorded
// error.
type Event struct {
	Kind          EventKind
	Start, End    Position
	Flavor        ScalarFlavor
	DirectiveKind DirectiveKind
	Value         []byte // Scalar content, Directive payload, or Alias/Anchor name
	Tag           Tag
	Anchor        []byte
	Implicit      bool
	Err           *lexer.LexError
}
