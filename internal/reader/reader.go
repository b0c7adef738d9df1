// Package reader implements the byte-level cursor the lexer drives: peek
// and consume primitives over an in-memory UTF-8 slice, line/column
// tracking with line-break normalization, and the small set of
// document-boundary and literal-match helpers the lexer needs to decide
// where directives, "---", and "..." begin.
//
// The reader never fails. Peeks past the end of the source return false;
// all error reporting is the lexer's job, driven by what the reader
// observed.
package reader

import "github.com/waldemarsson/yamlscan/internal/chars"

// Position is a reader position: a byte offset plus its 1-based line and
// 0-based column.
type Position struct {
	Offset int
	Line   int
	Column int
}

// Reader is a cursor over a fixed, borrowed byte slice.
type Reader struct {
	src []byte
	pos Position
}

// New returns a reader positioned at the start of src, having silently
// consumed a leading UTF-8 BOM if present.
func New(src []byte) *Reader {
	r := &Reader{src: src, pos: Position{Line: 1}}
	if chars.IsBOM(src) {
		r.pos.Offset = 3
	}
	return r
}

// Source returns the full underlying slice (for span-slicing by callers
// that already hold a start/end offset pair).
func (r *Reader) Source() []byte { return r.src }

// Pos returns the reader's current position.
func (r *Reader) Pos() Position { return r.pos }

// Offset returns the current byte offset.
func (r *Reader) Offset() int { return r.pos.Offset }

// Line returns the current 1-based line number.
func (r *Reader) Line() int { return r.pos.Line }

// Column returns the current 0-based column.
func (r *Reader) Column() int { return r.pos.Column }

// AtEOF reports whether the cursor has reached the end of the source.
func (r *Reader) AtEOF() bool { return r.pos.Offset >= len(r.src) }

// Peek returns the byte at offset i ahead of the cursor (i=0 is the
// current byte) and whether it was in bounds.
func (r *Reader) Peek(i int) (byte, bool) {
	p := r.pos.Offset + i
	if p < 0 || p >= len(r.src) {
		return 0, false
	}
	return r.src[p], true
}

// PeekIs reports whether the byte i ahead of the cursor equals c.
func (r *Reader) PeekIs(i int, c byte) bool {
	b, ok := r.Peek(i)
	return ok && b == c
}

// IsBlank reports whether the byte i ahead is a space or tab.
func (r *Reader) IsBlank(i int) bool { return chars.IsBlank(r.src, r.pos.Offset+i) }

// IsBreak reports whether a line break starts i bytes ahead.
func (r *Reader) IsBreak(i int) bool { return chars.IsBreak(r.src, r.pos.Offset+i) }

// IsBlankZ reports whether the byte i ahead is blank, a break, or EOF.
func (r *Reader) IsBlankZ(i int) bool { return chars.IsBlankZ(r.src, r.pos.Offset+i) }

// IsBreakZ reports whether the byte i ahead is a break or EOF.
func (r *Reader) IsBreakZ(i int) bool { return chars.IsBreakZ(r.src, r.pos.Offset+i) }

// ConsumeByte advances the cursor by exactly one byte, which must not be
// part of a line break (use ConsumeBreak for that). Column advances by
// one; multi-byte runes are consumed one byte at a time since only byte
// offsets matter to the token stream.
func (r *Reader) ConsumeByte() {
	if r.pos.Offset >= len(r.src) {
		return
	}
	r.pos.Offset++
	r.pos.Column++
}

// ConsumeBreak consumes one line break (CR, LF, CRLF, NEL, LS, or PS),
// advancing the line counter and resetting the column. It is a no-op if
// no break is present at the cursor.
func (r *Reader) ConsumeBreak() {
	w := chars.BreakWidth(r.src, r.pos.Offset)
	if w == 0 {
		return
	}
	r.pos.Offset += w
	r.pos.Line++
	r.pos.Column = 0
}

// SkipBlanks consumes a run of spaces followed by a run of tabs, returning
// how many bytes of each were skipped. A space after the tabs is not
// consumed.
func (r *Reader) SkipBlanks() (spaces, tabs int) {
	for r.PeekIs(0, ' ') {
		spaces++
		r.ConsumeByte()
	}
	for r.PeekIs(0, '\t') {
		tabs++
		r.ConsumeByte()
	}
	return
}

// CountBlanksAhead reports how many spaces and tabs appear starting i
// bytes ahead, without consuming them.
func (r *Reader) CountBlanksAhead(i int) (spaces, tabs int) {
	for {
		b, ok := r.Peek(i)
		if !ok || (b != ' ' && b != '\t') {
			return
		}
		if b == ' ' {
			spaces++
		} else {
			tabs++
		}
		i++
	}
}

// TryLiteral reports whether the exact bytes of lit appear at the cursor,
// without consuming anything.
func (r *Reader) TryLiteral(lit string) bool {
	for i := 0; i < len(lit); i++ {
		b, ok := r.Peek(i)
		if !ok || b != lit[i] {
			return false
		}
	}
	return true
}

// AtDocumentIndicator reports whether a directives-end ("---") or
// document-end ("...") marker starts at the cursor: the three-byte
// literal at column 0, followed by whitespace, a break, or EOF. Readers
// must use this to avoid consuming the marker while merely peeking ahead
// (e.g. mid plain-scalar fold).
func (r *Reader) AtDocumentIndicator() bool {
	if r.pos.Column != 0 {
		return false
	}
	if !r.TryLiteral("---") && !r.TryLiteral("...") {
		return false
	}
	return r.IsBlankZ(3)
}

// Slice returns src[start:end], the borrowed span between two offsets
// previously captured from this reader.
func (r *Reader) Slice(start, end int) []byte { return r.src[start:end] }
