package lexer

import (
	"golang.org/x/xerrors"

	"github.com/waldemarsson/yamlscan/internal/reader"
)

// ErrorKind enumerates the error taxonomy. Values are stable within a
// build but are not part of any cross-version wire contract. The queue
// itself does not carry them: token.Queue.Errors holds indices into
// Lexer.Errors, where each LexError records its Kind.
type ErrorKind uint32

const (
	_ ErrorKind = iota

	// Structure
	ErrUnexpectedDirective
	ErrTwoDirectivesFound
	ErrExpectedDocumentStart
	ErrExpectedDocumentEnd
	ErrUnexpectedEndOfDocument
	ErrNoDocStartAfterTag
	ErrStartedBlockInFlow
	ErrMissingFlowClosingBracket

	// Indentation
	ErrExpectedIndent
	ErrTabsNotAllowedAsIndentation
	ErrInvalidQuoteIndent
	ErrInvalidScalarIndent
	ErrSpacesFoundAfterIndent
	ErrUnexpectedIndentDocEnd

	// Scalars
	ErrUnexpectedEndOfFile
	ErrUnexpectedEndOfStream
	ErrUnexpectedSymbol
	ErrInvalidEscapeCharacter
	ErrInvalidScalarStart
	ErrInvalidCommentInScalar
	ErrInvalidCommentStart
	ErrMissingWhitespaceBeforeComment
	ErrExpectedChompBetween1and9

	// Mapping/Sequence
	ErrImplicitKeysNeedToBeInline
	ErrNestedMappingsNotAllowed
	ErrSequenceOnSameLineAsKey
	ErrColonMustBeOnSameLineAsKey
	ErrUnexpectedScalarAtNodeEnd
	ErrExpectedNodeButFound

	// Tag/Anchor
	ErrUnfinishedTag
	ErrTagNotTerminated
	ErrInvalidTagHandleCharacter
	ErrInvalidAnchorDeclaration
	ErrNodeWithTwoProperties
	ErrAliasAndAnchor
)

var names = map[ErrorKind]string{
	ErrUnexpectedDirective:            "unexpected directive",
	ErrTwoDirectivesFound:             "found two %YAML directives in the same document",
	ErrExpectedDocumentStart:          "expected a document start",
	ErrExpectedDocumentEnd:            "expected a document end",
	ErrUnexpectedEndOfDocument:        "content found after document end without a new document marker",
	ErrNoDocStartAfterTag:             "expected a document start after a tag directive",
	ErrStartedBlockInFlow:             "block collection started inside a flow collection",
	ErrMissingFlowClosingBracket:      "missing closing bracket for flow collection",
	ErrExpectedIndent:                 "expected more indentation",
	ErrTabsNotAllowedAsIndentation:    "tabs are not allowed as indentation",
	ErrInvalidQuoteIndent:             "invalid indentation in quoted scalar",
	ErrInvalidScalarIndent:            "invalid indentation in scalar",
	ErrSpacesFoundAfterIndent:         "spaces found after indentation indicator",
	ErrUnexpectedIndentDocEnd:         "unexpected indentation before document end marker",
	ErrUnexpectedEndOfFile:            "unexpected end of file",
	ErrUnexpectedEndOfStream:          "unexpected end of stream",
	ErrUnexpectedSymbol:               "unexpected symbol",
	ErrInvalidEscapeCharacter:         "invalid escape character",
	ErrInvalidScalarStart:             "invalid scalar start",
	ErrInvalidCommentInScalar:         "comment not allowed inside scalar here",
	ErrInvalidCommentStart:            "invalid comment start",
	ErrMissingWhitespaceBeforeComment: "missing whitespace before comment",
	ErrExpectedChompBetween1and9:      "expected an indentation indicator between 1 and 9",
	ErrImplicitKeysNeedToBeInline:     "implicit keys need to be on a single line",
	ErrNestedMappingsNotAllowed:       "nested mappings are not allowed in this context",
	ErrSequenceOnSameLineAsKey:        "sequence entry on the same line as a mapping key",
	ErrColonMustBeOnSameLineAsKey:     "':' must be on the same line as its key",
	ErrUnexpectedScalarAtNodeEnd:      "unexpected scalar where a node was not expected",
	ErrExpectedNodeButFound:           "expected a node but found something else",
	ErrUnfinishedTag:                  "unfinished tag",
	ErrTagNotTerminated:               "tag not terminated",
	ErrInvalidTagHandleCharacter:      "invalid character in tag handle",
	ErrInvalidAnchorDeclaration:       "invalid anchor declaration",
	ErrNodeWithTwoProperties:          "node already has this property",
	ErrAliasAndAnchor:                 "alias node cannot have an anchor or tag",
}

func (k ErrorKind) String() string {
	if s, ok := names[k]; ok {
		return s
	}
	return "unknown error"
}

// LexError is one recorded error, positioned in the source and carrying a
// human-readable message built with xerrors so that %w-wrapping consumers
// (e.g. the cmd/yamlscan driver) get a stable Error() string plus a
// frame.
type LexError struct {
	Kind ErrorKind
	At   reader.Position
	err  error
}

func newError(pos reader.Position, kind ErrorKind, detail string) LexError {
	var err error
	if detail == "" {
		err = xerrors.Errorf("%s at line %d, column %d", kind, pos.Line, pos.Column)
	} else {
		err = xerrors.Errorf("%s at line %d, column %d: %s", kind, pos.Line, pos.Column, detail)
	}
	return LexError{Kind: kind, At: pos, err: err}
}

func (e LexError) Error() string { return e.err.Error() }

// Unwrap always returns nil: LexError is the leaf of any chain and has no
// Is method, so callers match the taxonomy by comparing Kind directly.
func (e LexError) Unwrap() error { return nil }
