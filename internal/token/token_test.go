package token

import "testing"

func TestPushAndCursorRoundTrip(t *testing.T) {
	q := NewQueue()
	q.PushSentinel(StreamStart)
	q.PushSentinel(DocStartImplicit)
	q.PushSentinel(ScalarStartPlain)
	q.PushSpan(0, 3)
	q.PushNewlineMarker(0)
	q.PushSpan(4, 7)
	q.PushSentinel(ScalarEnd)
	q.PushSentinel(DocEndImplicit)
	q.PushSentinel(StreamEnd)

	c := NewCursor(q)
	want := []Sentinel{StreamStart, DocStartImplicit, ScalarStartPlain}
	for _, w := range want {
		got, ok := c.NextSentinel()
		if !ok || got != w {
			t.Fatalf("NextSentinel() = %v, %v, want %v, true", got, ok, w)
		}
	}
	if start, end := c.NextOffset(), c.NextOffset(); start != 0 || end != 3 {
		t.Fatalf("first span = %d, %d, want 0, 3", start, end)
	}
	if s, ok := c.NextSentinel(); !ok || s != NewlineMarker {
		t.Fatalf("NextSentinel() = %v, %v, want NewlineMarker, true", s, ok)
	}
	if count := c.NextOffset(); count != 0 {
		t.Fatalf("fold count = %d, want 0", count)
	}
	if start, end := c.NextOffset(), c.NextOffset(); start != 4 || end != 7 {
		t.Fatalf("second span = %d, %d, want 4, 7", start, end)
	}
	for _, w := range []Sentinel{ScalarEnd, DocEndImplicit, StreamEnd} {
		got, ok := c.NextSentinel()
		if !ok || got != w {
			t.Fatalf("NextSentinel() = %v, %v, want %v, true", got, ok, w)
		}
	}
	if !c.Done() {
		t.Fatal("Done() = false after consuming every word")
	}
}

func TestPeekSentinelDoesNotAdvance(t *testing.T) {
	q := NewQueue()
	q.PushSentinel(StreamStart)
	c := NewCursor(q)
	if s, ok := c.PeekSentinel(); !ok || s != StreamStart {
		t.Fatalf("PeekSentinel() = %v, %v, want StreamStart, true", s, ok)
	}
	if s, ok := c.PeekSentinel(); !ok || s != StreamStart {
		t.Fatalf("second PeekSentinel() = %v, %v, want StreamStart, true (peek must not consume)", s, ok)
	}
}

func TestPeekSentinelFalseOnDataWord(t *testing.T) {
	q := NewQueue()
	q.PushOffset(5)
	c := NewCursor(q)
	if _, ok := c.PeekSentinel(); ok {
		t.Fatal("PeekSentinel() on a data word = true, want false")
	}
	if got := c.NextOffset(); got != 5 {
		t.Fatalf("NextOffset() = %d, want 5", got)
	}
}

func TestInsertSentinelBeforeShiftsExistingWords(t *testing.T) {
	q := NewQueue()
	mark := q.Mark()
	q.PushSentinel(ScalarStartPlain)
	q.PushSpan(0, 1)
	q.PushSentinel(ScalarEnd)

	q.InsertSentinelBefore(mark, MapStartImplicit)

	c := NewCursor(q)
	s, ok := c.NextSentinel()
	if !ok || s != MapStartImplicit {
		t.Fatalf("first token = %v, %v, want MapStartImplicit, true", s, ok)
	}
	s, ok = c.NextSentinel()
	if !ok || s != ScalarStartPlain {
		t.Fatalf("second token = %v, %v, want ScalarStartPlain, true", s, ok)
	}
	if start, end := c.NextOffset(), c.NextOffset(); start != 0 || end != 1 {
		t.Fatalf("span after insert = %d, %d, want 0, 1", start, end)
	}
}

func TestInsertErrorBeforePreservesDiscoveryOrderInErrors(t *testing.T) {
	q := NewQueue()
	q.PushError(0)
	mark := q.Mark()
	q.PushSentinel(ScalarStartDoubleQuoted)
	q.PushSpan(0, 2)
	q.InsertErrorBefore(mark, 1)
	q.PushSentinel(ScalarEnd)

	if got := q.Errors; len(got) != 2 || got[0] != 0 || got[1] != 1 {
		t.Fatalf("Errors = %v, want [0 1]", got)
	}

	c := NewCursor(q)
	// first ErrorToken (code 0)
	if s, ok := c.NextSentinel(); !ok || s != ErrorToken {
		t.Fatalf("first token = %v, %v, want ErrorToken, true", s, ok)
	}
	// the inserted ErrorToken (code 1) now precedes the scalar's own tokens
	if s, ok := c.NextSentinel(); !ok || s != ErrorToken {
		t.Fatalf("second token = %v, %v, want ErrorToken, true", s, ok)
	}
	if s, ok := c.NextSentinel(); !ok || s != ScalarStartDoubleQuoted {
		t.Fatalf("third token = %v, %v, want ScalarStartDoubleQuoted, true", s, ok)
	}
	code0, _ := c.NextError()
	code1, _ := c.NextError()
	if code0 != 0 || code1 != 1 {
		t.Fatalf("NextError sequence = %d, %d, want 0, 1", code0, code1)
	}
}

func TestPeekAheadOffsetFindsNextDataWordAcrossSentinels(t *testing.T) {
	q := NewQueue()
	q.PushSentinel(SeqEnd)
	q.PushSentinel(MapStartImplicit)
	q.PushSentinel(Anchor)
	q.PushSpan(10, 14)

	c := NewCursor(q)
	c.NextSentinel() // consume SeqEnd
	off, ok := c.PeekAheadOffset()
	if !ok || off != 10 {
		t.Fatalf("PeekAheadOffset() = %d, %v, want 10, true", off, ok)
	}
	// still not consumed
	if s, ok := c.NextSentinel(); !ok || s != MapStartImplicit {
		t.Fatalf("NextSentinel() after peek-ahead = %v, %v, want MapStartImplicit, true", s, ok)
	}
}

func TestPeekAheadOffsetAtEndOfQueue(t *testing.T) {
	q := NewQueue()
	q.PushSentinel(StreamEnd)
	c := NewCursor(q)
	c.NextSentinel()
	if _, ok := c.PeekAheadOffset(); ok {
		t.Fatal("PeekAheadOffset() at end of queue = true, want false")
	}
}

func TestIsSentinelBoundary(t *testing.T) {
	if IsSentinel(0) {
		t.Fatal("IsSentinel(0) = true, want false")
	}
	if !IsSentinel(Word(ErrorToken)) {
		t.Fatal("IsSentinel(ErrorToken) = false, want true")
	}
	if !IsSentinel(Word(StreamStart)) {
		t.Fatal("IsSentinel(StreamStart) = false, want true")
	}
}

func TestArity(t *testing.T) {
	cases := map[Sentinel]int{
		TagStart:          3,
		Anchor:            2,
		Alias:             2,
		DirectiveYAML:     2,
		DirectiveTag:      2,
		DirectiveReserved: 2,
		NewlineMarker:     1,
		StreamStart:       0,
		ScalarEnd:         0,
	}
	for s, want := range cases {
		if got := Arity(s); got != want {
			t.Errorf("Arity(%v) = %d, want %d", s, got, want)
		}
	}
}
