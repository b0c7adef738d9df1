package lexer

import (
	"github.com/waldemarsson/yamlscan/internal/chars"
	"github.com/waldemarsson/yamlscan/internal/token"
)

// scalarBounds is what every scalar reader reports back to the lexer so
// it can decide key/value disambiguation and multi-line-key rejection.
type scalarBounds struct {
	colStart, lineStart int
	multiline            bool
}

// scanPlainScalar reads a plain scalar, folding its line breaks, and
// pushes ScalarStartPlain ... ScalarEnd into the token queue.
func (lx *Lexer) scanPlainScalar() (scalarBounds, error) {
	b := scalarBounds{colStart: lx.r.Column(), lineStart: lx.r.Line()}
	indent := lx.effectiveIndent() + 1
	inFlow := lx.stack.InFlow()

	lx.q.PushSentinel(token.ScalarStartPlain)

	spanStart := lx.r.Offset()
	spanEnd := spanStart
	haveSpan := false
	leadingBlanks := false
	sawFold := false
	pendingBreaks := 0

	flush := func() {
		if haveSpan {
			lx.q.PushSpan(spanStart, spanEnd)
			haveSpan = false
		}
	}

	for {
		if lx.r.AtDocumentIndicator() {
			break
		}
		if lx.r.Column() == 0 && lx.r.PeekIs(0, '#') {
			break
		}

		consumedAny := false
		for !lx.r.IsBlankZ(0) {
			if lx.r.PeekIs(0, ':') && lx.r.IsBlankZ(1) {
				break
			}
			if lx.r.PeekIs(0, ' ') && lx.r.PeekIs(1, '#') {
				break
			}
			if inFlow && chars.IsFlowIndicator(lx.r.Source(), lx.r.Offset()) {
				break
			}
			if !haveSpan {
				if pendingBreaks > 0 {
					lx.q.PushNewlineMarker(pendingBreaks - 1)
					pendingBreaks = 0
				}
				spanStart = lx.r.Offset()
				haveSpan = true
			}
			lx.r.ConsumeByte()
			spanEnd = lx.r.Offset()
			consumedAny = true
			b.multiline = b.multiline || sawFold
		}
		if !consumedAny && !leadingBlanks {
			break
		}

		if !(lx.r.IsBlank(0) || lx.r.IsBreak(0)) {
			break
		}

		breaks := 0
		for lx.r.IsBlank(0) || lx.r.IsBreak(0) {
			if lx.r.IsBlank(0) {
				if leadingBlanks && lx.r.Column() < indent && lx.r.PeekIs(0, '\t') {
					lx.recordErrorHere(ErrTabsNotAllowedAsIndentation)
				}
				lx.r.ConsumeByte()
			} else {
				lx.r.ConsumeBreak()
				breaks++
				leadingBlanks = true
			}
		}
		if breaks > 0 {
			flush()
			sawFold = true
			b.multiline = true
			pendingBreaks = breaks
		}
		if lx.r.PeekIs(0, '#') {
			// '#' after whitespace starts a comment, which ends the scalar.
			for !lx.r.IsBreakZ(0) {
				lx.r.ConsumeByte()
			}
			break
		}

		if !inFlow && lx.r.Column() < indent {
			break
		}
	}
	flush()

	lx.q.PushSentinel(token.ScalarEnd)
	if leadingBlanks {
		lx.simpleKeyAllowed = true
	}
	return b, nil
}

// scanSingleQuoted reads a '...' scalar.
func (lx *Lexer) scanSingleQuoted() (scalarBounds, error) {
	return lx.scanQuoted(false)
}

// scanDoubleQuoted reads a "..." scalar.
func (lx *Lexer) scanDoubleQuoted() (scalarBounds, error) {
	return lx.scanQuoted(true)
}

func (lx *Lexer) scanQuoted(double bool) (scalarBounds, error) {
	b := scalarBounds{colStart: lx.r.Column(), lineStart: lx.r.Line()}
	indent := lx.effectiveIndent() + 1
	quote := byte('\'')
	sentinel := token.ScalarStartSingleQuoted
	if double {
		quote = '"'
		sentinel = token.ScalarStartDoubleQuoted
	}
	lx.q.PushSentinel(sentinel)
	lx.r.ConsumeByte() // opening quote

	spanStart := lx.r.Offset()
	haveSpan := false
	flush := func() {
		if haveSpan {
			lx.q.PushSpan(spanStart, lx.r.Offset())
			haveSpan = false
		}
	}
	leadingBlanks := false

	for {
		if lx.r.AtEOF() {
			lx.recordErrorHere(ErrUnexpectedEndOfFile)
			break
		}
		if lx.r.IsBreak(0) {
			flush()
			breaks := 0
			for lx.r.IsBlank(0) || lx.r.IsBreak(0) {
				if lx.r.IsBreak(0) {
					lx.r.ConsumeBreak()
					breaks++
					leadingBlanks = true
				} else {
					if leadingBlanks && lx.r.Column() < indent {
						lx.recordErrorHere(ErrInvalidQuoteIndent)
					}
					lx.r.ConsumeByte()
				}
			}
			if breaks == 1 {
				lx.q.PushNewlineMarker(0)
			} else if breaks > 1 {
				lx.q.PushNewlineMarker(breaks - 1)
			}
			b.multiline = true
			spanStart = lx.r.Offset()
			haveSpan = true
			continue
		}
		if double && lx.r.PeekIs(0, '\\') {
			if lx.r.IsBreak(1) {
				// Line continuation: backslash-break joins without fold.
				flush()
				lx.r.ConsumeByte()
				lx.r.ConsumeBreak()
				for lx.r.IsBlank(0) {
					lx.r.ConsumeByte()
				}
				spanStart = lx.r.Offset()
				haveSpan = true
				continue
			}
			if !haveSpan {
				spanStart = lx.r.Offset()
				haveSpan = true
			}
			if err := lx.consumeDoubleEscape(); err != nil {
				return b, err
			}
			continue
		}
		if !double && lx.r.PeekIs(0, '\'') {
			if lx.r.PeekIs(1, '\'') {
				// Doubled single quote: escaped quote, kept in the raw
				// span as two bytes; the event decoder collapses it.
				if !haveSpan {
					spanStart = lx.r.Offset()
					haveSpan = true
				}
				lx.r.ConsumeByte()
				lx.r.ConsumeByte()
				continue
			}
			break
		}
		if double && lx.r.PeekIs(0, '"') {
			break
		}
		if !haveSpan {
			spanStart = lx.r.Offset()
			haveSpan = true
		}
		lx.r.ConsumeByte()
	}
	flush()
	if lx.r.PeekIs(0, quote) {
		lx.r.ConsumeByte()
	}
	lx.q.PushSentinel(token.ScalarEnd)
	return b, nil
}

// consumeDoubleEscape consumes one backslash escape sequence inside a
// double-quoted scalar, validating the escape character.
func (lx *Lexer) consumeDoubleEscape() error {
	lx.r.ConsumeByte() // backslash
	c, ok := lx.r.Peek(0)
	if !ok {
		lx.recordErrorHere(ErrUnexpectedEndOfFile)
		return nil
	}
	switch c {
	case 'x':
		lx.r.ConsumeByte()
		return lx.consumeHexDigits(2)
	case 'u':
		lx.r.ConsumeByte()
		return lx.consumeHexDigits(4)
	case 'U':
		lx.r.ConsumeByte()
		return lx.consumeHexDigits(8)
	default:
		if !chars.IsEscapable(c) {
			lx.recordErrorHere(ErrInvalidEscapeCharacter)
			lx.r.ConsumeByte()
			return nil
		}
		lx.r.ConsumeByte()
		return nil
	}
}

func (lx *Lexer) consumeHexDigits(n int) error {
	for i := 0; i < n; i++ {
		if !chars.IsHex(lx.r.Source(), lx.r.Offset()) {
			lx.recordErrorHere(ErrInvalidEscapeCharacter)
			return nil
		}
		lx.r.ConsumeByte()
	}
	return nil
}

// chompMode is the trailing-newline policy for a block scalar.
type chompMode int

const (
	chompClip chompMode = iota
	chompStrip
	chompKeep
)

// scanBlockScalar reads a literal ('|') or folded ('>') block scalar.
func (lx *Lexer) scanBlockScalar(literal bool) (scalarBounds, error) {
	b := scalarBounds{colStart: lx.r.Column(), lineStart: lx.r.Line()}
	sentinel := token.ScalarStartLiteral
	if !literal {
		sentinel = token.ScalarStartFolded
	}
	parentIndent := lx.effectiveIndent()
	lx.r.ConsumeByte() // '|' or '>'

	chomp := chompClip
	haveChomp := false
	explicitIndent := 0
	haveIndent := false

	for i := 0; i < 2; i++ {
		c, ok := lx.r.Peek(0)
		if !ok {
			break
		}
		switch {
		case (c == '-' || c == '+') && !haveChomp:
			haveChomp = true
			if c == '-' {
				chomp = chompStrip
			} else {
				chomp = chompKeep
			}
			lx.r.ConsumeByte()
		case c >= '1' && c <= '9' && !haveIndent:
			haveIndent = true
			explicitIndent = parentIndent + int(c-'0')
			lx.r.ConsumeByte()
		case c == '0' && !haveIndent:
			lx.recordErrorHere(ErrExpectedChompBetween1and9)
			lx.r.ConsumeByte()
		default:
			i = 2
		}
	}

	// Rest of header line: optional comment, then a break.
	for lx.r.IsBlank(0) {
		lx.r.ConsumeByte()
	}
	if lx.r.PeekIs(0, '#') {
		for !lx.r.IsBreakZ(0) {
			lx.r.ConsumeByte()
		}
	} else if !lx.r.IsBreakZ(0) {
		lx.recordErrorHere(ErrUnexpectedSymbol)
		for !lx.r.IsBreakZ(0) {
			lx.r.ConsumeByte()
		}
	}
	if lx.r.IsBreak(0) {
		lx.r.ConsumeBreak()
	}

	lx.q.PushSentinel(sentinel)

	type lineSpan struct{ start, end int }
	var lines []lineSpan
	var blankRun int
	indent := explicitIndent
	indentDetected := haveIndent
	maxBlankIndent := 0

	for !lx.r.AtEOF() {
		spaces, _ := lx.r.CountBlanksAhead(0)
		lineStart := lx.r.Offset()
		lineIsBlank := lx.r.IsBreakZ(spaces)

		if !indentDetected {
			if lineIsBlank {
				if spaces > maxBlankIndent {
					maxBlankIndent = spaces
				}
				// consume the blank line.
				for i := 0; i < spaces; i++ {
					lx.r.ConsumeByte()
				}
				blankRun++
				if lx.r.IsBreak(0) {
					lx.r.ConsumeBreak()
				} else {
					break
				}
				continue
			}
			indent = spaces
			indentDetected = true
			if maxBlankIndent > indent {
				lx.recordErrorHere(ErrInvalidScalarIndent)
			}
		}

		if !lineIsBlank && spaces < indent {
			break
		}
		if lineIsBlank && spaces < indent {
			// Shorter blank line: counts as an empty content line.
			for i := 0; i < spaces; i++ {
				lx.r.ConsumeByte()
			}
			blankRun++
			if lx.r.IsBreak(0) {
				lx.r.ConsumeBreak()
			} else {
				break
			}
			continue
		}

		if blankRun > 0 {
			lines = append(lines, lineSpan{-1, blankRun}) // sentinel: pure blank run
			blankRun = 0
		}

		// Check for tabs in the indentation column.
		for i := 0; i < indent; i++ {
			if lx.r.PeekIs(i, '\t') {
				lx.recordErrorHere(ErrTabsNotAllowedAsIndentation)
				break
			}
		}
		for i := 0; i < indent && !lx.r.IsBreakZ(0); i++ {
			lx.r.ConsumeByte()
		}
		contentStart := lx.r.Offset()
		for !lx.r.IsBreakZ(0) {
			lx.r.ConsumeByte()
		}
		lines = append(lines, lineSpan{contentStart, lx.r.Offset()})
		_ = lineStart
		if lx.r.IsBreak(0) {
			lx.r.ConsumeBreak()
			blankRun = 0
		} else {
			break
		}
		// A following blank line begins a new blankRun in the next
		// iteration if detected there; nothing further to do here.
	}
	if blankRun > 0 {
		lines = append(lines, lineSpan{-1, blankRun})
	}

	// Emit content spans, applying fold (for '>') and chomp.
	lastContentIdx := -1
	for i, ln := range lines {
		if ln.start != -1 {
			lastContentIdx = i
		}
	}
	trailingBlanks := 0
	if lastContentIdx >= 0 {
		for i := lastContentIdx + 1; i < len(lines); i++ {
			if lines[i].start == -1 {
				trailingBlanks += lines[i].end
			}
		}
		lines = lines[:lastContentIdx+1]
	} else {
		lines = nil
	}

	for i, ln := range lines {
		if ln.start == -1 {
			// internal blank run: N blank lines -> N newlines (never
			// folded to a single space, even under '>').
			lx.q.PushNewlineMarker(ln.end)
			continue
		}
		lx.q.PushSpan(ln.start, ln.end)
		if i == len(lines)-1 {
			break
		}
		next := lines[i+1]
		if next.start == -1 {
			continue // the blank-run entry itself carries the break count
		}
		if literal {
			lx.q.PushNewlineMarker(1) // one literal newline between lines
		} else {
			lx.q.PushNewlineMarker(0) // folds to a single space
		}
	}

	switch chomp {
	case chompStrip:
		// no trailing newline token
	case chompKeep:
		if len(lines) > 0 {
			lx.q.PushNewlineMarker(trailingBlanks + 1)
		}
	default: // clip
		if len(lines) > 0 {
			lx.q.PushNewlineMarker(1)
		}
	}

	lx.q.PushSentinel(token.ScalarEnd)
	return b, nil
}
