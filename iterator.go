package yamlscan

import (
	"github.com/waldemarsson/yamlscan/internal/directives"
	"github.com/waldemarsson/yamlscan/internal/lexer"
	"github.com/waldemarsson/yamlscan/internal/token"
)

// New runs the lexer over src and returns an Iterator over the resulting
// event stream.
func New(src []byte) *Iterator {
	q, errs := lexer.Tokenize(src)
	return NewIterator(src, q, errs)
}

// NewIterator builds an Iterator directly from a token queue and its
// parallel error vector, as produced by lexer.Tokenize. Kept separate
// from New so a caller that already has a queue (e.g. from a cached
// scan) does not have to re-lex.
func NewIterator(src []byte, q *token.Queue, errs []lexer.LexError) *Iterator {
	return &Iterator{
		src:  src,
		cur:  token.NewCursor(q),
		errs: errs,
		dirs: directives.NewTable(),
		pos:  newPosTracker(src),
	}
}

// Iterator decodes a packed token.Queue into Events, one at a time.
type Iterator struct {
	src    []byte
	cur    *token.Cursor
	errs   []lexer.LexError
	dirs   *directives.Table
	pos    *posTracker
	strict bool
	halted bool

	pendingTag    Tag
	pendingAnchor []byte
	havePending   bool
}

// Strict sets whether Next halts the stream (returning false) immediately
// after decoding the first Error event, rather than continuing to decode
// the recovery-produced events that follow it.
func (it *Iterator) Strict(v bool) { it.strict = v }

// Next decodes and returns the next Event. The second return value is
// false once the stream is exhausted (after StreamEnd, or after the
// first error in strict mode).
func (it *Iterator) Next() (Event, bool) {
	if it.halted {
		return Event{}, false
	}
	for {
		s, ok := it.cur.NextSentinel()
		if !ok {
			return Event{}, false
		}
		switch s {
		case token.TagStart:
			nsStart := it.cur.NextOffset()
			nsEnd := it.cur.NextOffset()
			suffixEnd := it.cur.NextOffset()
			it.pendingTag = resolveTag(it.dirs, it.src, nsStart, nsEnd, suffixEnd)
			it.havePending = true
			continue
		case token.Anchor:
			start := it.cur.NextOffset()
			end := it.cur.NextOffset()
			it.pendingAnchor = it.src[start:end]
			it.havePending = true
			continue
		}

		ev := it.decodeNode(s)
		if ev.Kind == EvError && it.strict {
			it.halted = true
		}
		if ev.Kind == EvStreamEnd {
			it.halted = true
		}
		return ev, true
	}
}

// decodeNode decodes the event starting at sentinel s, which is not one
// of the property tokens (those are absorbed into pendingTag/pendingAnchor
// by Next before this is called).
func (it *Iterator) decodeNode(s token.Sentinel) Event {
	switch s {
	case token.StreamStart:
		return Event{Kind: EvStreamStart, Start: it.approxPos()}
	case token.StreamEnd:
		return Event{Kind: EvStreamEnd, Start: it.approxPos()}
	case token.DocStartImplicit:
		return Event{Kind: EvDocStart, Implicit: true, Start: it.approxPos()}
	case token.DocStartExplicit:
		return Event{Kind: EvDocStart, Start: it.approxPos()}
	case token.DocEndImplicit:
		it.dirs.Reset()
		return Event{Kind: EvDocEnd, Implicit: true, Start: it.approxPos()}
	case token.DocEndExplicit:
		it.dirs.Reset()
		return Event{Kind: EvDocEnd, Start: it.approxPos()}
	case token.SeqStartImplicit:
		return it.withPending(Event{Kind: EvSeqStart, Implicit: true, Start: it.approxPos()})
	case token.SeqStartExplicit:
		return it.withPending(Event{Kind: EvSeqStart, Start: it.approxPos()})
	case token.SeqEnd:
		return Event{Kind: EvSeqEnd, Start: it.approxPos()}
	case token.MapStartImplicit:
		return it.withPending(Event{Kind: EvMapStart, Implicit: true, Start: it.approxPos()})
	case token.MapStartExplicit:
		return it.withPending(Event{Kind: EvMapStart, Start: it.approxPos()})
	case token.MapEnd:
		return Event{Kind: EvMapEnd, Start: it.approxPos()}
	case token.Alias:
		start := it.cur.NextOffset()
		end := it.cur.NextOffset()
		ev := it.withPending(Event{Kind: EvAlias, Value: it.src[start:end], Start: it.pos.at(start), End: it.pos.at(end)})
		return ev
	case token.DirectiveYAML, token.DirectiveTag, token.DirectiveReserved:
		return it.decodeDirective(s)
	case token.ErrorToken:
		return it.decodeError()
	}
	if token.IsScalarStart(s) {
		return it.decodeScalar(s)
	}
	return Event{Kind: EvError, Start: it.approxPos()}
}

func (it *Iterator) withPending(ev Event) Event {
	if it.havePending {
		ev.Tag = it.pendingTag
		ev.Anchor = it.pendingAnchor
		it.pendingTag = Tag{}
		it.pendingAnchor = nil
		it.havePending = false
	}
	return ev
}

func (it *Iterator) approxPos() Position {
	if off, ok := it.cur.PeekAheadOffset(); ok {
		return it.pos.at(off)
	}
	return it.pos.at(len(it.src))
}

func (it *Iterator) decodeError() Event {
	code, ok := it.cur.NextError()
	if !ok || int(code) >= len(it.errs) {
		return Event{Kind: EvError, Start: it.approxPos()}
	}
	e := it.errs[code]
	return Event{Kind: EvError, Start: e.At, Err: &e}
}

func (it *Iterator) decodeDirective(s token.Sentinel) Event {
	start := it.cur.NextOffset()
	end := it.cur.NextOffset()
	raw := it.src[start:end]
	ev := Event{Kind: EvDirective, Value: raw, Start: it.pos.at(start), End: it.pos.at(end)}
	switch s {
	case token.DirectiveYAML:
		ev.DirectiveKind = DirectiveYAML
	case token.DirectiveTag:
		ev.DirectiveKind = DirectiveTag
		handle, prefix := splitTagDirective(raw)
		it.dirs.Set(handle, prefix)
	case token.DirectiveReserved:
		ev.DirectiveKind = DirectiveReserved
	}
	return ev
}

// scalarPiece is one element of a scalar's body in the packed queue: a
// raw source span, or a newline-fold marker (count 0 = fold to a space,
// count N>0 = N literal line breaks).
type scalarPiece struct {
	marker     bool
	start, end int
	count      int
}

func (it *Iterator) decodeScalar(s token.Sentinel) Event {
	startOff, _ := it.cur.PeekAheadOffset()
	var pieces []scalarPiece
	for {
		if sent, ok := it.cur.PeekSentinel(); ok {
			it.cur.NextSentinel()
			if sent == token.ScalarEnd {
				break
			}
			count := it.cur.NextOffset()
			pieces = append(pieces, scalarPiece{marker: true, count: count})
			continue
		}
		start := it.cur.NextOffset()
		end := it.cur.NextOffset()
		pieces = append(pieces, scalarPiece{start: start, end: end})
	}

	raw := it.assembleScalar(pieces)
	flavor := scalarFlavorOf(s)
	value := unescapeScalar(flavor, raw)

	endOff := startOff
	for _, p := range pieces {
		if !p.marker {
			endOff = p.end
		}
	}

	ev := Event{Kind: EvScalar, Flavor: flavor, Value: value, Start: it.pos.at(startOff), End: it.pos.at(endOff)}
	return it.withPending(ev)
}

func (it *Iterator) assembleScalar(pieces []scalarPiece) []byte {
	if len(pieces) == 1 && !pieces[0].marker {
		return it.src[pieces[0].start:pieces[0].end]
	}
	if len(pieces) == 0 {
		return nil
	}
	var buf []byte
	for _, p := range pieces {
		if p.marker {
			if p.count == 0 {
				buf = append(buf, ' ')
			} else {
				for i := 0; i < p.count; i++ {
					buf = append(buf, '\n')
				}
			}
			continue
		}
		buf = append(buf, it.src[p.start:p.end]...)
	}
	return buf
}

func scalarFlavorOf(s token.Sentinel) ScalarFlavor {
	switch s {
	case token.ScalarStartSingleQuoted:
		return FlavorSingleQuoted
	case token.ScalarStartDoubleQuoted:
		return FlavorDoubleQuoted
	case token.ScalarStartLiteral:
		return FlavorLiteral
	case token.ScalarStartFolded:
		return FlavorFolded
	}
	return FlavorPlain
}

// resolveTag decodes a TagStart token's three offsets into a Tag. A
// namespace span starting with '!' is one of the handle-based forms
// ("!", "!!suffix", "!handle!suffix"); anything else is the literal,
// percent-escaped URI from a verbatim "!<uri>" tag.
func resolveTag(dirs *directives.Table, src []byte, nsStart, nsEnd, suffixEnd int) Tag {
	ns := src[nsStart:nsEnd]
	suffix := src[nsEnd:suffixEnd]
	if len(ns) == 0 || ns[0] != '!' {
		return Tag{Resolved: string(percentDecode(ns))}
	}
	prefix, ok := dirs.Resolve(ns)
	if !ok {
		return Tag{
			Handle: append([]byte(nil), ns...),
			Suffix: append([]byte(nil), suffix...),
		}
	}
	return Tag{Resolved: string(prefix) + string(percentDecode(suffix))}
}

// splitTagDirective splits a %TAG directive's combined "handle  prefix"
// span (as pushed by the lexer) back into its two parts.
func splitTagDirective(raw []byte) (handle, prefix []byte) {
	i := 0
	for i < len(raw) && raw[i] != ' ' && raw[i] != '\t' {
		i++
	}
	handle = raw[:i]
	for i < len(raw) && (raw[i] == ' ' || raw[i] == '\t') {
		i++
	}
	prefix = raw[i:]
	return handle, prefix
}

// posTracker converts byte offsets into Positions by walking src once;
// offsets are requested in non-decreasing order except for the rare
// structural sentinel whose own position was retroactively moved earlier
// in the queue than the span it approximates (handled by rescanning from
// the start, which is cheap: these are short debug/tooling inputs, not a
// hot path).
type posTracker struct {
	src  []byte
	off  int
	line int
	col  int
}

func newPosTracker(src []byte) *posTracker {
	return &posTracker{src: src, line: 1}
}

func (t *posTracker) at(offset int) Position {
	if offset < t.off {
		t.off, t.line, t.col = 0, 1, 0
	}
	for t.off < offset && t.off < len(t.src) {
		if t.src[t.off] == '\n' {
			t.line++
			t.col = 0
		} else {
			t.col++
		}
		t.off++
	}
	return Position{Offset: offset, Line: t.line, Column: t.col}
}
