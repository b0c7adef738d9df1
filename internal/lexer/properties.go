package lexer

import (
	"fmt"

	"github.com/waldemarsson/yamlscan/internal/chars"
	"github.com/waldemarsson/yamlscan/internal/token"
)

// propertyFlags records which of tag/anchor a Properties bundle carries.
type propertyFlags uint8

const (
	propNone propertyFlags = 0
	propTag  propertyFlags = 1 << iota
	propAnchor
)

// Properties is the transient "node properties" buffer: a tag and/or an
// anchor captured ahead of the node they will attach to.
type Properties struct {
	flags propertyFlags

	tagNSStart, tagNSEnd, tagSuffixEnd int

	anchorStart, anchorEnd int

	line, col int
}

func (p *Properties) reset() { *p = Properties{} }

// HasTag reports whether a tag was captured.
func (p *Properties) HasTag() bool { return p.flags&propTag != 0 }

// HasAnchor reports whether an anchor was captured.
func (p *Properties) HasAnchor() bool { return p.flags&propAnchor != 0 }

// Empty reports whether no property was captured.
func (p *Properties) Empty() bool { return p.flags == propNone }

// scanProperties parses a sequence of '&anchor' and '!tag' prefixes at
// the lexer's current position, in either order, enforcing at most one of
// each. It consumes everything it recognizes and returns once neither '&'
// nor '!' begins the next token.
func (lx *Lexer) scanProperties() (Properties, error) {
	var props Properties
	props.line, props.col = lx.r.Line(), lx.r.Column()

	for {
		b, ok := lx.r.Peek(0)
		if !ok {
			return props, nil
		}
		switch b {
		case '!':
			if props.HasTag() {
				lx.recordErrorHere(ErrNodeWithTwoProperties)
				if err := lx.skipTag(); err != nil {
					return props, err
				}
				continue
			}
			ns0, ns1, end, err := lx.scanTag()
			if err != nil {
				return props, err
			}
			props.flags |= propTag
			props.tagNSStart, props.tagNSEnd, props.tagSuffixEnd = ns0, ns1, end
			lx.q.PushTag(ns0, ns1, end)
		case '&':
			if props.HasAnchor() {
				lx.recordErrorHere(ErrNodeWithTwoProperties)
				if err := lx.skipAnchorOrAlias(); err != nil {
					return props, err
				}
				continue
			}
			start, end, err := lx.scanAnchorOrAlias('&')
			if err != nil {
				return props, err
			}
			props.flags |= propAnchor
			props.anchorStart, props.anchorEnd = start, end
			lx.q.PushSentinel(token.Anchor)
			lx.q.PushSpan(start, end)
		default:
			return props, nil
		}
		// Properties may be separated by blanks/breaks before the next
		// property or the node itself; the caller's node dispatch handles
		// re-entering whitespace skipping, so just peek past immediate
		// whitespace here to find an adjacent second property.
		for lx.r.IsBlank(0) {
			lx.r.ConsumeByte()
		}
	}
}

// skipTag consumes (without recording) a tag already known to be a
// duplicate, so the queue stays well-formed.
func (lx *Lexer) skipTag() error {
	_, _, _, err := lx.scanTag()
	return err
}

func (lx *Lexer) skipAnchorOrAlias() error {
	_, _, err := lx.scanAnchorOrAlias('&')
	return err
}

// scanTag parses a '!' tag in any of its four forms and returns three
// offsets: namespace-start, namespace-end (== suffix-start), suffix-end.
// suffix-end == namespace-end means an empty suffix (the non-specific
// "!" tag).
func (lx *Lexer) scanTag() (nsStart, nsEnd, suffixEnd int, err error) {
	start := lx.r.Offset()
	lx.r.ConsumeByte() // '!'

	if lx.r.PeekIs(0, '<') {
		// Verbatim: !<uri>
		lx.r.ConsumeByte()
		nsStart = lx.r.Offset()
		for !lx.r.PeekIs(0, '>') {
			if lx.r.IsBlankZ(0) {
				lx.recordErrorHere(ErrTagNotTerminated)
				return start, lx.r.Offset(), lx.r.Offset(), nil
			}
			if !lx.consumeURIChar() {
				lx.recordErrorHere(ErrInvalidTagHandleCharacter)
				break
			}
		}
		nsEnd = lx.r.Offset()
		if lx.r.PeekIs(0, '>') {
			lx.r.ConsumeByte()
		}
		return nsStart, nsEnd, nsEnd, nil
	}

	if lx.r.PeekIs(0, '!') {
		// Secondary handle: "!!suffix"
		lx.r.ConsumeByte()
		nsStart, nsEnd = start, lx.r.Offset()
		suffixEnd = lx.scanTagSuffix()
		return nsStart, nsEnd, suffixEnd, nil
	}

	// Could be "!", "!suffix", or "!handle!suffix".
	if chars.IsBlankZ(lx.r.Source(), lx.r.Offset()) {
		return start, lx.r.Offset(), lx.r.Offset(), nil // non-specific "!"
	}

	// Look ahead for a named handle "!handle!": a run of alpha characters
	// immediately followed by a second '!'. Otherwise this is a primary
	// tag and the namespace is just "!".
	handleEnd := lx.r.Offset()
	src := lx.r.Source()
	for chars.IsAlpha(src, handleEnd) {
		handleEnd++
	}
	if handleEnd < len(src) && src[handleEnd] == '!' {
		for lx.r.Offset() <= handleEnd {
			lx.r.ConsumeByte()
		}
		nsStart, nsEnd = start, lx.r.Offset()
		suffixEnd = lx.scanTagSuffix()
		return nsStart, nsEnd, suffixEnd, nil
	}

	nsStart, nsEnd = start, start+1
	suffixEnd = lx.scanTagSuffix()
	return nsStart, nsEnd, suffixEnd, nil
}

// scanTagSuffix consumes tag-suffix characters (and %-escapes) from the
// current position and returns the end offset.
func (lx *Lexer) scanTagSuffix() int {
	for {
		if chars.IsTagChar(lx.r.Source(), lx.r.Offset()) {
			lx.r.ConsumeByte()
			continue
		}
		if lx.r.PeekIs(0, '%') {
			if !lx.consumeURIChar() {
				break
			}
			continue
		}
		break
	}
	return lx.r.Offset()
}

// consumeURIChar consumes one URI char or a %-escape triple, reporting
// whether it succeeded.
func (lx *Lexer) consumeURIChar() bool {
	if lx.r.PeekIs(0, '%') {
		if chars.IsHex(lx.r.Source(), lx.r.Offset()+1) && chars.IsHex(lx.r.Source(), lx.r.Offset()+2) {
			lx.r.ConsumeByte()
			lx.r.ConsumeByte()
			lx.r.ConsumeByte()
			return true
		}
		return false
	}
	if chars.IsURIChar(lx.r.Source(), lx.r.Offset()) {
		lx.r.ConsumeByte()
		return true
	}
	return false
}

// scanAnchorOrAlias parses '&name' or '*name', returning the (start,end)
// span of the name (not including the sigil). sigil must match the byte
// at the current position; callers dispatch on this same byte, so a
// mismatch means a caller bug, not malformed input.
func (lx *Lexer) scanAnchorOrAlias(sigil byte) (start, end int, err error) {
	if !lx.r.PeekIs(0, sigil) {
		return 0, 0, fmt.Errorf("yamlscan: scanAnchorOrAlias called with sigil %q, have %q", sigil, lx.r.Source()[lx.r.Offset()])
	}
	lx.r.ConsumeByte() // sigil
	start = lx.r.Offset()
	for chars.IsAnchorChar(lx.r.Source(), lx.r.Offset()) {
		lx.r.ConsumeByte()
	}
	end = lx.r.Offset()
	if end == start {
		lx.recordErrorHere(ErrInvalidAnchorDeclaration)
	}
	return start, end, nil
}
