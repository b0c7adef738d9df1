// Package lexer implements the YAML block/flow/document state machine:
// the heart of the tokenizer. A Lexer walks a reader.Reader exactly once,
// pushing a packed token.Queue that an event decoder (the root package)
// later pulls apart into typed events.
//
// The state machine is driven by fetchNext, which advances the input by a
// bounded amount and pushes zero or more tokens (and possibly errors)
// each call, mirroring libyaml's yaml_parser_fetch_next_token. Tokenize
// drives fetchNext to completion, since an in-memory slice has no I/O to
// defer laziness for.
package lexer

import (
	"github.com/waldemarsson/yamlscan/internal/chars"
	"github.com/waldemarsson/yamlscan/internal/directives"
	"github.com/waldemarsson/yamlscan/internal/reader"
	"github.com/waldemarsson/yamlscan/internal/token"
)

// docHeaderState is the PreDocStart sub-state machine for the directives
// section of a document.
type docHeaderState int

const (
	headerBare docHeaderState = iota
	headerNoDirective
	headerOneDirective
	headerTwoDirectiveError
)

// Lexer is the YAML block/flow/document state machine.
type Lexer struct {
	r *reader.Reader
	q *token.Queue

	stack *Stack
	dirs  *directives.Table

	Errors []LexError

	simpleKeyAllowed bool
	header           docHeaderState
	rootConsumed     bool
	lastMapLine      int
	lastSeqLine      int
	streamStarted    bool
	streamEnded      bool
}

// New returns a Lexer over src, ready to tokenize.
func New(src []byte) *Lexer {
	return &Lexer{
		r:           reader.New(src),
		q:           token.NewQueue(),
		stack:       NewStack(),
		dirs:        directives.NewTable(),
		lastMapLine: -1,
		lastSeqLine: -1,
	}
}

// Directives returns the lexer's current directive table. The event
// decoder in the root package does not read it: it rebuilds its own table
// from the DirectiveTag tokens in the queue.
func (lx *Lexer) Directives() *directives.Table { return lx.dirs }

// Tokenize runs the lexer to completion and returns the packed token
// queue plus the errors recorded along the way.
func Tokenize(src []byte) (*token.Queue, []LexError) {
	lx := New(src)
	for !lx.streamEnded {
		lx.fetchNext()
	}
	return lx.q, lx.Errors
}

func (lx *Lexer) recordErrorHere(kind ErrorKind) {
	lx.recordError(lx.posFromReader(), kind, "")
}

func (lx *Lexer) posFromReader() reader.Position { return lx.r.Pos() }

func (lx *Lexer) recordError(pos reader.Position, kind ErrorKind, detail string) {
	e := newError(pos, kind, detail)
	lx.q.PushError(uint32(len(lx.Errors)))
	lx.Errors = append(lx.Errors, e)
}

// effectiveIndent returns the indentation column a scalar/structural
// token must meet or exceed to continue the current collection: the
// innermost open block indent, or blockIndent+1 while inside a flow
// collection.
func (lx *Lexer) effectiveIndent() int {
	bi := lx.stack.BlockIndent()
	if lx.stack.InFlow() {
		return bi + 1
	}
	return bi
}

// fetchNext advances the token stream by one bounded step.
func (lx *Lexer) fetchNext() {
	if !lx.streamStarted {
		lx.streamStarted = true
		lx.q.PushSentinel(token.StreamStart)
		return
	}
	if lx.streamEnded {
		return
	}

	top := lx.stack.Top()
	switch top.Kind {
	case PreDocStart:
		lx.fetchPreDocStart()
	case DocBlock, BlockMap, BlockSeq:
		lx.fetchBlockContext()
	case FlowSeq, FlowMap:
		lx.fetchFlowContext()
	default:
		lx.fetchBlockContext()
	}
}

// --- PreDocStart --------------------------------------------------------

func (lx *Lexer) fetchPreDocStart() {
	lx.skipWhitespaceAndComments(false)

	if lx.r.AtEOF() {
		lx.streamEnded = true
		lx.q.PushSentinel(token.StreamEnd)
		return
	}

	if lx.r.PeekIs(0, '%') {
		lx.fetchDirective()
		return
	}

	if lx.r.TryLiteral("---") && lx.r.Column() == 0 && lx.r.IsBlankZ(3) {
		lx.r.ConsumeByte()
		lx.r.ConsumeByte()
		lx.r.ConsumeByte()
		lx.q.PushSentinel(token.DocStartExplicit)
		lx.beginDocBlock()
		return
	}

	if lx.r.TryLiteral("...") && lx.r.Column() == 0 && lx.r.IsBlankZ(3) {
		lx.recordErrorHere(ErrExpectedDocumentStart)
		lx.r.ConsumeByte()
		lx.r.ConsumeByte()
		lx.r.ConsumeByte()
		return
	}

	// Implicit document start: do not consume the byte, just switch state.
	lx.q.PushSentinel(token.DocStartImplicit)
	lx.beginDocBlock()
}

func (lx *Lexer) beginDocBlock() {
	lx.dirs.Reset()
	lx.header = headerBare
	lx.rootConsumed = false
	lx.stack.Replace(Frame{Kind: DocBlock, Indent: -1})
}

func (lx *Lexer) fetchDirective() {
	start := lx.r.Pos()
	lx.r.ConsumeByte() // '%'
	nameStart := lx.r.Offset()
	for chars.IsAlpha(lx.r.Source(), lx.r.Offset()) {
		lx.r.ConsumeByte()
	}
	name := string(lx.r.Slice(nameStart, lx.r.Offset()))

	switch name {
	case "YAML":
		if lx.header == headerOneDirective || lx.header == headerTwoDirectiveError {
			lx.header = headerTwoDirectiveError
			lx.recordError(start, ErrTwoDirectivesFound, "")
		} else {
			lx.header = headerOneDirective
		}
		for lx.r.IsBlank(0) {
			lx.r.ConsumeByte()
		}
		valStart := lx.r.Offset()
		for !lx.r.IsBlankZ(0) {
			lx.r.ConsumeByte()
		}
		valEnd := lx.r.Offset()
		lx.q.PushSentinel(token.DirectiveYAML)
		lx.q.PushSpan(valStart, valEnd)
	case "TAG":
		for lx.r.IsBlank(0) {
			lx.r.ConsumeByte()
		}
		handleStart := lx.r.Offset()
		if lx.r.PeekIs(0, '!') {
			lx.r.ConsumeByte()
			for chars.IsAlpha(lx.r.Source(), lx.r.Offset()) {
				lx.r.ConsumeByte()
			}
			if lx.r.PeekIs(0, '!') {
				lx.r.ConsumeByte()
			}
		}
		handleEnd := lx.r.Offset()
		for lx.r.IsBlank(0) {
			lx.r.ConsumeByte()
		}
		prefixStart := lx.r.Offset()
		for !lx.r.IsBlankZ(0) {
			lx.r.ConsumeByte()
		}
		prefixEnd := lx.r.Offset()
		handle := lx.r.Slice(handleStart, handleEnd)
		prefix := lx.r.Slice(prefixStart, prefixEnd)
		lx.dirs.Set(handle, prefix)
		lx.q.PushSentinel(token.DirectiveTag)
		lx.q.PushSpan(handleStart, prefixEnd)
	default:
		// Unknown directive: recorded as reserved, rest of the line skipped.
		valStart := lx.r.Offset()
		for !lx.r.IsBreakZ(0) {
			lx.r.ConsumeByte()
		}
		lx.q.PushSentinel(token.DirectiveReserved)
		lx.q.PushSpan(valStart, lx.r.Offset())
	}

	lx.skipLineRemainder()
}

func (lx *Lexer) skipLineRemainder() {
	for lx.r.IsBlank(0) {
		lx.r.ConsumeByte()
	}
	if lx.r.PeekIs(0, '#') {
		for !lx.r.IsBreakZ(0) {
			lx.r.ConsumeByte()
		}
	}
	if lx.r.IsBreak(0) {
		lx.r.ConsumeBreak()
	}
}

// skipWhitespaceAndComments skips blanks, breaks, and full-line comments.
// If reportMidLineComment is true, a '#' not preceded by whitespace or
// start-of-line is reported as MissingWhitespaceBeforeComment instead of
// silently treated as a comment.
func (lx *Lexer) skipWhitespaceAndComments(reportMidLineComment bool) {
	for {
		for lx.r.IsBlank(0) {
			lx.r.ConsumeByte()
		}
		if lx.r.PeekIs(0, '#') {
			if reportMidLineComment && lx.r.Column() > 0 && !lx.r.IsBlank(-1) {
				lx.recordErrorHere(ErrMissingWhitespaceBeforeComment)
			}
			for !lx.r.IsBreakZ(0) {
				lx.r.ConsumeByte()
			}
		}
		if lx.r.IsBreak(0) {
			lx.r.ConsumeBreak()
			continue
		}
		break
	}
}

// --- Block context (DocBlock / BlockMap / BlockSeq) ----------------------

func (lx *Lexer) fetchBlockContext() {
	if lx.r.AtEOF() {
		lx.closeAllBlockStates()
		lx.q.PushSentinel(token.DocEndImplicit)
		lx.stack.Replace(Frame{Kind: PreDocStart})
		lx.streamEnded = true
		lx.q.PushSentinel(token.StreamEnd)
		return
	}

	if lx.r.Column() == 0 && lx.r.TryLiteral("...") && lx.r.IsBlankZ(3) {
		lx.closeAllBlockStates()
		lx.r.ConsumeByte()
		lx.r.ConsumeByte()
		lx.r.ConsumeByte()
		lx.q.PushSentinel(token.DocEndExplicit)
		lx.stack.Replace(Frame{Kind: PreDocStart})
		return
	}
	if lx.r.Column() == 0 && lx.r.TryLiteral("---") && lx.r.IsBlankZ(3) {
		lx.closeAllBlockStates()
		lx.q.PushSentinel(token.DocEndImplicit)
		lx.stack.Replace(Frame{Kind: PreDocStart})
		return
	}

	if lx.r.PeekIs(0, '#') && lx.r.Column() > 0 && !lx.r.IsBlank(-1) {
		lx.recordErrorHere(ErrMissingWhitespaceBeforeComment)
		for !lx.r.IsBreakZ(0) {
			lx.r.ConsumeByte()
		}
		return
	}
	if lx.r.PeekIs(0, '#') {
		for !lx.r.IsBreakZ(0) {
			lx.r.ConsumeByte()
		}
		return
	}

	if lx.r.PeekIs(0, '%') {
		lx.recordErrorHere(ErrUnexpectedDirective)
		for !lx.r.IsBreakZ(0) {
			lx.r.ConsumeByte()
		}
		return
	}

	if lx.r.IsBlank(0) || lx.r.IsBreak(0) {
		lx.runSeparationSpace()
		return
	}

	if lx.rootConsumed && lx.stack.Len() == 1 {
		lx.recordErrorHere(ErrUnexpectedEndOfDocument)
		lx.stack.Replace(Frame{Kind: PreDocStart})
		return
	}

	lx.getBlockCollection()
}

// runSeparationSpace consumes a run of blanks/breaks/comments between
// tokens, tracking indentation for the next structural decision. A tab
// seen anywhere in the leading indentation run of a line (the blanks
// between a break and the first non-blank byte) is invalid, the same
// rule scanPlainScalar/scanBlockScalar enforce for indentation inside a
// scalar body.
func (lx *Lexer) runSeparationSpace() {
	atLineStart := lx.r.Column() == 0
	for lx.r.IsBlank(0) || lx.r.IsBreak(0) {
		if lx.r.IsBreak(0) {
			lx.r.ConsumeBreak()
			atLineStart = true
			continue
		}
		if atLineStart && lx.r.PeekIs(0, '\t') {
			lx.recordErrorHere(ErrTabsNotAllowedAsIndentation)
		}
		lx.r.ConsumeByte()
	}
	if lx.r.PeekIs(0, '#') {
		for !lx.r.IsBreakZ(0) {
			lx.r.ConsumeByte()
		}
	}
}

// markValueProvided records that the node about to be scanned fills the
// enclosing BlockMap's pending value slot (opened by a preceding "key:"),
// whether that node turns out to be a scalar, an alias, or an entire
// nested collection. Without this, a key whose value is itself a block
// or flow collection would never clear MapExpectValue, since the
// collection's own closing tokens are emitted by unwindBlockTo /
// closeAllBlockStates rather than by afterNode.
func (lx *Lexer) markValueProvided() {
	top := lx.stack.Top()
	if top.Kind == BlockMap && top.Map == MapExpectValue {
		top.Map = MapExpectKey
	}
}

// pushEmptyScalarForPendingEntry emits an empty scalar when a block
// sequence frame is being closed or continued before its last opened "-"
// entry ever got a value (e.g. a bare dash at EOF, or two dashes with
// nothing between them), or when a BlockMap/FlowMap frame is closed
// right after a "key:" with no value ever scanned for it.
func (lx *Lexer) pushEmptyScalarForPendingEntry(f *Frame) {
	switch {
	case f.Kind == BlockSeq && f.Seq == SeqBeforeElem:
		lx.q.PushSentinel(token.ScalarStartPlain)
		lx.q.PushSentinel(token.ScalarEnd)
	case (f.Kind == BlockMap || f.Kind == FlowMap) && f.Map == MapExpectValue:
		lx.q.PushSentinel(token.ScalarStartPlain)
		lx.q.PushSentinel(token.ScalarEnd)
	}
}

func (lx *Lexer) closeAllBlockStates() {
	for lx.stack.Len() > 1 {
		f := lx.stack.Pop()
		lx.pushEmptyScalarForPendingEntry(&f)
		switch f.Kind {
		case BlockSeq:
			lx.q.PushSentinel(token.SeqEnd)
		case BlockMap:
			lx.q.PushSentinel(token.MapEnd)
		case FlowSeq:
			lx.recordErrorHere(ErrMissingFlowClosingBracket)
			lx.q.PushSentinel(token.SeqEnd)
		case FlowMap:
			lx.recordErrorHere(ErrMissingFlowClosingBracket)
			lx.q.PushSentinel(token.MapEnd)
		}
	}
	lx.rootConsumed = true
}

// unwindBlockTo pops block frames whose indent is greater than col,
// emitting the matching End tokens, stopping at the first frame whose
// indent is <= col (or the document root). It reports whether an exact
// match was found.
func (lx *Lexer) unwindBlockTo(col int) bool {
	for lx.stack.Len() > 1 {
		top := lx.stack.Top()
		if top.Kind != BlockSeq && top.Kind != BlockMap {
			return top.Indent <= col
		}
		if top.Indent == col {
			return true
		}
		if top.Indent < col {
			return false
		}
		f := lx.stack.Pop()
		lx.pushEmptyScalarForPendingEntry(&f)
		if f.Kind == BlockSeq {
			lx.q.PushSentinel(token.SeqEnd)
		} else {
			lx.q.PushSentinel(token.MapEnd)
		}
	}
	return col <= -1
}

// getBlockCollection dispatches on the leading byte of a new block-level
// token: '-', '?', ':', or the start of a node.
func (lx *Lexer) getBlockCollection() {
	col := lx.r.Column()

	switch {
	case lx.r.PeekIs(0, '-') && lx.r.IsBlankZ(1) && !lx.stack.InFlow():
		lx.fetchBlockEntry(col)
	case lx.r.PeekIs(0, '?') && lx.r.IsBlankZ(1) && !lx.stack.InFlow():
		lx.fetchExplicitKey(col)
	case lx.r.PeekIs(0, ':') && lx.r.IsBlankZ(1) && !lx.stack.InFlow():
		lx.fetchExplicitValue(col)
	default:
		lx.fetchNode(col)
	}
}

// mapLineOf reports the source line the innermost open BlockMap frame's
// current key started on, or -1 if no block map is open.
func (lx *Lexer) mapLineOf() int {
	for i := lx.stack.Len() - 1; i >= 0; i-- {
		if lx.stack.At(i).Kind == BlockMap {
			return lx.stack.At(i).StartLine
		}
	}
	return -1
}

func (lx *Lexer) fetchBlockEntry(col int) {
	lx.markValueProvided()
	if lx.stack.InFlow() {
		lx.recordErrorHere(ErrStartedBlockInFlow)
	}
	if lx.lastMapLine == lx.r.Line() {
		lx.recordErrorHere(ErrSequenceOnSameLineAsKey)
	}

	top := lx.stack.Top()
	if top.Kind == BlockSeq && top.Indent == col {
		lx.pushEmptyScalarForPendingEntry(top)
	} else {
		if top.Indent > col || (top.Kind != BlockSeq && top.Kind != BlockMap) {
			matched := lx.unwindBlockTo(col)
			top = lx.stack.Top()
			if !matched && !(top.Kind == BlockSeq && top.Indent == col) {
				if top.Indent > col {
					lx.recordErrorHere(ErrExpectedIndent)
				}
			}
		}
		top = lx.stack.Top()
		if top.Kind == BlockSeq && top.Indent == col {
			lx.pushEmptyScalarForPendingEntry(top)
		} else {
			lx.q.PushSentinel(token.SeqStartImplicit)
			lx.stack.Push(Frame{Kind: BlockSeq, Indent: col, Seq: SeqBeforeFirst, StartLine: lx.r.Line()})
		}
	}

	lx.r.ConsumeByte() // '-'
	if lx.r.IsBlank(0) {
		lx.r.ConsumeByte()
	}
	lx.stack.Top().Seq = SeqBeforeElem
	lx.lastSeqLine = lx.r.Line()
}

func (lx *Lexer) fetchExplicitKey(col int) {
	lx.markValueProvided()
	top := lx.stack.Top()
	if !(top.Kind == BlockMap && top.Indent == col) {
		if top.Indent > col {
			matched := lx.unwindBlockTo(col)
			top = lx.stack.Top()
			if !matched && !(top.Kind == BlockMap && top.Indent == col) && top.Indent > col {
				lx.recordErrorHere(ErrExpectedIndent)
			}
		}
		top = lx.stack.Top()
		if !(top.Kind == BlockMap && top.Indent == col) {
			lx.q.PushSentinel(token.MapStartImplicit)
			lx.stack.Push(Frame{Kind: BlockMap, Indent: col, Map: MapBeforeBlockComplexKey, StartLine: lx.r.Line()})
		}
	} else if top.Map == MapExpectComplexValue {
		lx.q.PushSentinel(token.ScalarStartPlain)
		lx.q.PushSentinel(token.ScalarEnd)
		top.Map = MapBeforeBlockComplexKey
	}
	lx.stack.Top().Map = MapBeforeBlockComplexKey
	lx.lastMapLine = lx.r.Line()
	lx.r.ConsumeByte() // '?'
	if lx.r.IsBlank(0) {
		lx.r.ConsumeByte()
	}
}

func (lx *Lexer) fetchExplicitValue(col int) {
	top := lx.stack.Top()
	if top.Kind != BlockMap || top.Indent != col {
		lx.recordErrorHere(ErrColonMustBeOnSameLineAsKey)
	} else {
		top.Map = MapExpectComplexValue
	}
	lx.r.ConsumeByte() // ':'
	if lx.r.IsBlank(0) {
		lx.r.ConsumeByte()
	}
}

// fetchNode scans a full node at the current position: node properties,
// then either an alias, a flow collection opener, or a scalar. If the
// node turns out to be a plain-style key (followed by ": "), it promotes
// itself into a mapping key and opens a BlockMap if one is not already
// active at this column.
func (lx *Lexer) fetchNode(col int) {
	lx.markValueProvided()
	nodeStart := lx.q.Mark()

	props, err := lx.scanProperties()
	if err != nil {
		return
	}

	if lx.r.PeekIs(0, '*') {
		if !props.Empty() {
			lx.recordErrorHere(ErrAliasAndAnchor)
		}
		start, end, _ := lx.scanAnchorOrAlias('*')
		lx.q.PushSentinel(token.Alias)
		lx.q.PushSpan(start, end)
		lx.afterNode(nodeStart, col, false, 0)
		return
	}

	switch {
	case lx.r.PeekIs(0, '['):
		lx.r.ConsumeByte()
		lx.q.PushSentinel(token.SeqStartExplicit)
		lx.stack.Push(Frame{Kind: FlowSeq, Indent: col, Seq: SeqBeforeFirst, NodeStart: nodeStart})
		return
	case lx.r.PeekIs(0, '{'):
		lx.r.ConsumeByte()
		lx.q.PushSentinel(token.MapStartExplicit)
		lx.stack.Push(Frame{Kind: FlowMap, Indent: col, Map: MapBeforeFirstKey, NodeStart: nodeStart})
		return
	case lx.r.PeekIs(0, '\''):
		b, _ := lx.scanSingleQuoted()
		lx.afterNode(nodeStart, col, b.multiline, b.colStart)
		return
	case lx.r.PeekIs(0, '"'):
		b, _ := lx.scanDoubleQuoted()
		lx.afterNode(nodeStart, col, b.multiline, b.colStart)
		return
	case lx.r.PeekIs(0, '|') && !lx.stack.InFlow():
		lx.scanBlockScalar(true)
		lx.markSeqElemDone()
		lx.rootConsumed = lx.stack.Len() == 1
		return
	case lx.r.PeekIs(0, '>') && !lx.stack.InFlow():
		lx.scanBlockScalar(false)
		lx.markSeqElemDone()
		lx.rootConsumed = lx.stack.Len() == 1
		return
	default:
		if !props.Empty() && lx.r.IsBlankZ(0) {
			// A bare property with no following content: emit an empty
			// scalar carrying it.
			lx.q.PushSentinel(token.ScalarStartPlain)
			lx.q.PushSentinel(token.ScalarEnd)
			lx.afterNode(nodeStart, col, false, col)
			return
		}
		b, _ := lx.scanPlainScalar()
		lx.afterNode(nodeStart, col, b.multiline, b.colStart)
		return
	}
}

// afterNode decides whether the node just scanned is a mapping key
// (followed by ": "), and
// if so open/continue a BlockMap at its column; otherwise treat it as a
// completed bare node under whatever collection is open. nodeStart is the
// queue position where this node's own tokens begin; when a BlockMap must
// be opened for an implicit key, its MapStartImplicit sentinel is inserted
// there rather than appended, so it precedes the key's already-pushed
// tokens instead of following them.
func (lx *Lexer) afterNode(nodeStart, col int, multiline bool, keyCol int) {
	isKey := lx.r.PeekIs(0, ':') && lx.r.IsBlankZ(1)
	if isKey && lx.stack.InFlow() {
		// Implicit flow mapping key; handled by the flow dispatcher once it
		// sees the ':' itself, not here.
		isKey = false
	}

	if isKey {
		if multiline {
			lx.recordErrorHere(ErrImplicitKeysNeedToBeInline)
		}
		top := lx.stack.Top()
		if top.Kind == BlockMap && top.Indent == keyCol && top.Map == MapExpectComplexValue {
			// The previous explicit key got no value: emit an empty one
			// ahead of this key's tokens.
			lx.q.InsertSentinelBefore(nodeStart, token.ScalarEnd)
			lx.q.InsertSentinelBefore(nodeStart, token.ScalarStartPlain)
		}
		if !(top.Kind == BlockMap && top.Indent == keyCol) {
			if top.Kind == BlockMap && top.Indent == col {
				// already positioned correctly
			} else {
				lx.q.InsertSentinelBefore(nodeStart, token.MapStartImplicit)
				lx.stack.Push(Frame{Kind: BlockMap, Indent: keyCol, Map: MapExpectKey, StartLine: lx.r.Line()})
			}
		}
		lx.stack.Top().Map = MapExpectValue
		lx.lastMapLine = lx.r.Line()
		lx.r.ConsumeByte() // ':'
		if lx.r.IsBlank(0) {
			lx.r.ConsumeByte()
		}
		return
	}

	top := lx.stack.Top()
	if top.Kind == BlockMap && top.Map == MapExpectComplexValue {
		top.Map = MapBeforeBlockComplexKey
	} else if top.Kind == BlockMap && top.Map == MapBeforeBlockComplexKey {
		top.Map = MapExpectComplexValue
	}
	lx.markSeqElemDone()
	if lx.stack.Len() == 1 {
		lx.rootConsumed = true
	}
}

// markSeqElemDone records that the innermost BlockSeq entry (if any) has
// now received a value, so it no longer needs a synthesized empty scalar
// if the sequence continues or closes.
func (lx *Lexer) markSeqElemDone() {
	top := lx.stack.Top()
	if top.Kind == BlockSeq && top.Seq == SeqBeforeElem {
		top.Seq = SeqHasElem
	}
}

// --- Flow context (FlowSeq / FlowMap) ------------------------------------

func (lx *Lexer) fetchFlowContext() {
	if lx.r.AtEOF() {
		lx.recordErrorHere(ErrMissingFlowClosingBracket)
		lx.closeAllBlockStates()
		lx.q.PushSentinel(token.DocEndImplicit)
		lx.stack.Replace(Frame{Kind: PreDocStart})
		lx.streamEnded = true
		lx.q.PushSentinel(token.StreamEnd)
		return
	}
	if lx.r.IsBlank(0) || lx.r.IsBreak(0) {
		lx.runSeparationSpace()
		return
	}
	if lx.r.PeekIs(0, '#') {
		for !lx.r.IsBreakZ(0) {
			lx.r.ConsumeByte()
		}
		return
	}

	lx.closeImplicitPairIfOpen()
	top := lx.stack.Top()
	switch {
	case lx.r.PeekIs(0, ']') && top.Kind == FlowSeq:
		lx.r.ConsumeByte()
		lx.closeFlowMapIfExpectingValue()
		closed := lx.stack.Pop()
		lx.q.PushSentinel(token.SeqEnd)
		lx.afterNode(closed.NodeStart, closed.Indent, false, closed.Indent)
	case lx.r.PeekIs(0, '}') && top.Kind == FlowMap:
		lx.r.ConsumeByte()
		lx.closeFlowMapIfExpectingValue()
		closed := lx.stack.Pop()
		lx.q.PushSentinel(token.MapEnd)
		lx.afterNode(closed.NodeStart, closed.Indent, false, closed.Indent)
	case lx.r.PeekIs(0, ']') || lx.r.PeekIs(0, '}'):
		lx.recordErrorHere(ErrMissingFlowClosingBracket)
		lx.r.ConsumeByte()
		lx.stack.Pop()
	case lx.r.PeekIs(0, ','):
		if top.Kind == FlowMap && top.Map == MapExpectValue {
			lx.q.PushSentinel(token.ScalarStartPlain)
			lx.q.PushSentinel(token.ScalarEnd)
			lx.stack.Top().Map = MapExpectKey
		}
		lx.r.ConsumeByte()
		if top.Kind == FlowMap {
			lx.stack.Top().Map = MapExpectKey
		}
	case lx.r.PeekIs(0, '?') && lx.r.IsBlank(1):
		lx.r.ConsumeByte()
		lx.r.ConsumeByte()
		if top.Kind == FlowMap {
			lx.stack.Top().Map = MapBeforeFlowComplexKey
		}
	case lx.r.PeekIs(0, ':') && top.Kind == FlowMap && top.Map != MapExpectValue:
		// ':' with no key scalar just scanned: either closing an explicit
		// "? key" complex key (Map==MapBeforeFlowComplexKey, handled by the
		// key's own fetchFlowNode consuming the ':' would be unreachable
		// here) or an omitted key, e.g. "{: v}".
		lx.q.PushSentinel(token.ScalarStartPlain)
		lx.q.PushSentinel(token.ScalarEnd)
		lx.r.ConsumeByte()
		lx.stack.Top().Map = MapExpectValue
	default:
		lx.fetchFlowNode()
	}
}

// closeImplicitPairIfOpen closes a retroactively-opened single-pair flow
// mapping (see fetchFlowNode) once its sole pair is complete: at the next
// ',' (another sequence entry follows) or ']' (the enclosing sequence
// closes).
func (lx *Lexer) closeImplicitPairIfOpen() {
	top := lx.stack.Top()
	if top.Kind != FlowMap || !top.ImplicitPair {
		return
	}
	if !lx.r.PeekIs(0, ',') && !lx.r.PeekIs(0, ']') {
		return
	}
	lx.closeFlowMapIfExpectingValue()
	lx.stack.Pop()
	lx.q.PushSentinel(token.MapEnd)
}

// closeFlowMapIfExpectingValue emits an empty scalar when a flow mapping
// is closed right after a key's ':' with no value, e.g. "{a:}".
func (lx *Lexer) closeFlowMapIfExpectingValue() {
	top := lx.stack.Top()
	if top.Kind == FlowMap && top.Map == MapExpectValue {
		lx.q.PushSentinel(token.ScalarStartPlain)
		lx.q.PushSentinel(token.ScalarEnd)
	}
}

func (lx *Lexer) fetchFlowNode() {
	top := lx.stack.Top()
	col := lx.r.Column()
	nodeStart := lx.q.Mark()

	props, err := lx.scanProperties()
	if err != nil {
		return
	}

	wasImplicitMapKey := false
	var b scalarBounds
	switch {
	case lx.r.PeekIs(0, '*'):
		if !props.Empty() {
			lx.recordErrorHere(ErrAliasAndAnchor)
		}
		start, end, _ := lx.scanAnchorOrAlias('*')
		lx.q.PushSentinel(token.Alias)
		lx.q.PushSpan(start, end)
	case lx.r.PeekIs(0, '['):
		lx.r.ConsumeByte()
		lx.q.PushSentinel(token.SeqStartExplicit)
		lx.stack.Push(Frame{Kind: FlowSeq, Indent: col, Seq: SeqBeforeFirst, NodeStart: nodeStart})
		return
	case lx.r.PeekIs(0, '{'):
		lx.r.ConsumeByte()
		lx.q.PushSentinel(token.MapStartExplicit)
		lx.stack.Push(Frame{Kind: FlowMap, Indent: col, Map: MapBeforeFirstKey, NodeStart: nodeStart})
		return
	case lx.r.PeekIs(0, '\''):
		b, _ = lx.scanSingleQuoted()
	case lx.r.PeekIs(0, '"'):
		b, _ = lx.scanDoubleQuoted()
	default:
		b, _ = lx.scanPlainScalar()
	}

	if lx.r.PeekIs(0, ':') && (lx.r.IsBlankZ(1) || chars.IsFlowIndicator(lx.r.Source(), lx.r.Offset()+1)) {
		wasImplicitMapKey = true
	}

	if wasImplicitMapKey && top.Kind == FlowSeq {
		// "[a, b: c]": retroactively wrap the preceding scalar in an
		// implicit flow mapping. The key's own tokens were already pushed
		// by the scanPlainScalar/scanQuoted/scanAnchorOrAlias call above,
		// so MapStartImplicit must be spliced in before nodeStart, not
		// appended after.
		lx.q.InsertSentinelBefore(nodeStart, token.MapStartImplicit)
		lx.stack.Push(Frame{Kind: FlowMap, Indent: col, Map: MapExpectValue, ImplicitPair: true})
		lx.r.ConsumeByte()
		if lx.r.IsBlank(0) {
			lx.r.ConsumeByte()
		}
		return
	}
	if wasImplicitMapKey && top.Kind == FlowMap {
		lx.stack.Top().Map = MapExpectValue
		lx.r.ConsumeByte()
		if lx.r.IsBlank(0) {
			lx.r.ConsumeByte()
		}
		return
	}
	if top.Kind == FlowMap && top.Map == MapExpectValue {
		lx.stack.Top().Map = MapExpectKey
	}
	_ = b
}

