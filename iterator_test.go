package yamlscan_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/waldemarsson/yamlscan"
)

// summary is a position-free projection of an Event, used so scenario
// tests can assert on structure and decoded content without hand-computing
// exact line/column numbers.
type summary struct {
	Kind     string
	Flavor   string
	Value    string
	Tag      string
	Anchor   string
	Implicit bool
	HasErr   bool
}

func summarize(ev yamlscan.Event) summary {
	s := summary{
		Kind:     ev.Kind.String(),
		Implicit: ev.Implicit,
		HasErr:   ev.Err != nil,
	}
	if ev.Kind == yamlscan.EvScalar {
		s.Flavor = ev.Flavor.String()
	}
	if ev.Value != nil {
		s.Value = string(ev.Value)
	}
	if !ev.Tag.Empty() {
		if ev.Tag.Resolved != "" {
			s.Tag = ev.Tag.Resolved
		} else {
			s.Tag = string(ev.Tag.Handle) + "|" + string(ev.Tag.Suffix)
		}
	}
	s.Anchor = string(ev.Anchor)
	return s
}

func decodeAll(t *testing.T, src string) []summary {
	t.Helper()
	it := yamlscan.New([]byte(src))
	var out []summary
	for {
		ev, ok := it.Next()
		if !ok {
			break
		}
		out = append(out, summarize(ev))
	}
	return out
}

func TestSimpleMappingDecodesKeyAndValue(t *testing.T) {
	got := decodeAll(t, "a: b\n")
	want := []summary{
		{Kind: "StreamStart"},
		{Kind: "DocStart", Implicit: true},
		{Kind: "MapStart", Implicit: true},
		{Kind: "Scalar", Flavor: "Plain", Value: "a"},
		{Kind: "Scalar", Flavor: "Plain", Value: "b"},
		{Kind: "MapEnd"},
		{Kind: "DocEnd", Implicit: true},
		{Kind: "StreamEnd"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("decoded events mismatch (-want +got):\n%s", diff)
	}
}

// TestFoldedScalarDecodesPerScenarioS4 mirrors the fold/chomp rule: a
// single line break between non-empty lines folds to a space, runs of N>1
// breaks fold to N-1 literal newlines, and clip chomping (the default)
// keeps exactly one trailing newline.
func TestFoldedScalarDecodesPerScenarioS4(t *testing.T) {
	got := decodeAll(t, ">\n a\n b\n\n c\n\n\n d")
	var scalars []summary
	for _, s := range got {
		if s.Kind == "Scalar" {
			scalars = append(scalars, s)
		}
	}
	if len(scalars) != 1 {
		t.Fatalf("got %d scalar events, want 1: %+v", len(scalars), scalars)
	}
	want := "a b\nc\n\nd\n"
	if scalars[0].Value != want {
		t.Errorf("folded scalar value = %q, want %q", scalars[0].Value, want)
	}
	if scalars[0].Flavor != "Folded" {
		t.Errorf("flavor = %q, want Folded", scalars[0].Flavor)
	}
}

func TestDirectiveAndDoubleQuotedScalarPerScenarioS5(t *testing.T) {
	got := decodeAll(t, "%YAML 1.2\n---\n\"test\"\n")
	want := []summary{
		{Kind: "StreamStart"},
		{Kind: "Directive", Value: "1.2"},
		{Kind: "DocStart"},
		{Kind: "Scalar", Flavor: "DoubleQuoted", Value: "test"},
		{Kind: "DocEnd", Implicit: true},
		{Kind: "StreamEnd"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("decoded events mismatch (-want +got):\n%s", diff)
	}
}

func TestFlowSeqAsImplicitMapKeyPerScenarioS6(t *testing.T) {
	got := decodeAll(t, "[a, [b,c]]: 3\n")
	want := []summary{
		{Kind: "StreamStart"},
		{Kind: "DocStart", Implicit: true},
		{Kind: "MapStart", Implicit: true},
		{Kind: "SeqStart"},
		{Kind: "Scalar", Flavor: "Plain", Value: "a"},
		{Kind: "SeqStart"},
		{Kind: "Scalar", Flavor: "Plain", Value: "b"},
		{Kind: "Scalar", Flavor: "Plain", Value: "c"},
		{Kind: "SeqEnd"},
		{Kind: "SeqEnd"},
		{Kind: "Scalar", Flavor: "Plain", Value: "3"},
		{Kind: "MapEnd"},
		{Kind: "DocEnd", Implicit: true},
		{Kind: "StreamEnd"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("decoded events mismatch (-want +got):\n%s", diff)
	}
}

func TestNestedBlockMapValueLeavesNoDanglingPendingValue(t *testing.T) {
	got := decodeAll(t, "a:\n  b: c\n")
	want := []summary{
		{Kind: "StreamStart"},
		{Kind: "DocStart", Implicit: true},
		{Kind: "MapStart", Implicit: true},
		{Kind: "Scalar", Flavor: "Plain", Value: "a"},
		{Kind: "MapStart", Implicit: true},
		{Kind: "Scalar", Flavor: "Plain", Value: "b"},
		{Kind: "Scalar", Flavor: "Plain", Value: "c"},
		{Kind: "MapEnd"},
		{Kind: "MapEnd"},
		{Kind: "DocEnd", Implicit: true},
		{Kind: "StreamEnd"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("decoded events mismatch (-want +got):\n%s", diff)
	}
}

func TestDanglingKeyGetsSynthesizedEmptyValue(t *testing.T) {
	got := decodeAll(t, "c:\n")
	var kinds []string
	var values []string
	for _, s := range got {
		kinds = append(kinds, s.Kind)
		if s.Kind == "Scalar" {
			values = append(values, s.Value)
		}
	}
	if len(values) != 2 || values[0] != "c" || values[1] != "" {
		t.Fatalf("scalar values = %v, want [c \"\"]", values)
	}
}

func TestDoubleQuotedEscapeDecoding(t *testing.T) {
	got := decodeAll(t, "\"a\\tb\\u0041\\x42\"\n")
	var scalar summary
	for _, s := range got {
		if s.Kind == "Scalar" {
			scalar = s
		}
	}
	want := "a\tbAB"
	if scalar.Value != want {
		t.Errorf("unescaped value = %q, want %q", scalar.Value, want)
	}
}

func TestSingleQuotedDoublesCollapseToOne(t *testing.T) {
	got := decodeAll(t, "'it''s'\n")
	var scalar summary
	for _, s := range got {
		if s.Kind == "Scalar" {
			scalar = s
		}
	}
	if scalar.Value != "it's" {
		t.Errorf("unescaped value = %q, want %q", scalar.Value, "it's")
	}
}

func TestTagResolutionViaTagDirective(t *testing.T) {
	got := decodeAll(t, "%TAG !e! tag:example.com,2000:\n---\n!e!foo bar\n")
	var scalar summary
	for _, s := range got {
		if s.Kind == "Scalar" {
			scalar = s
		}
	}
	if scalar.Tag != "tag:example.com,2000:foo" {
		t.Errorf("resolved tag = %q, want %q", scalar.Tag, "tag:example.com,2000:foo")
	}
}

func TestSecondaryHandleDefaultsToYAMLOrgNamespace(t *testing.T) {
	got := decodeAll(t, "!!str hello\n")
	var scalar summary
	for _, s := range got {
		if s.Kind == "Scalar" {
			scalar = s
		}
	}
	if scalar.Tag != "tag:yaml.org,2002:str" {
		t.Errorf("resolved tag = %q, want %q", scalar.Tag, "tag:yaml.org,2002:str")
	}
}

func TestUnresolvedHandleLeavesTagUnresolved(t *testing.T) {
	got := decodeAll(t, "!x!foo bar\n")
	var scalar summary
	for _, s := range got {
		if s.Kind == "Scalar" {
			scalar = s
		}
	}
	if scalar.Tag == "" {
		t.Fatal("expected an unresolved tag marker, got none")
	}
}

func TestAliasCarriesReferencedName(t *testing.T) {
	got := decodeAll(t, "- &x a\n- *x\n")
	var alias summary
	for _, s := range got {
		if s.Kind == "Alias" {
			alias = s
		}
	}
	if alias.Value != "x" {
		t.Errorf("alias value = %q, want %q", alias.Value, "x")
	}
}

func TestStrictModeHaltsAfterFirstError(t *testing.T) {
	src := "\na:\n\tb: c\n"
	it := yamlscan.New([]byte(src))
	it.Strict(true)
	sawError := false
	count := 0
	for {
		ev, ok := it.Next()
		if !ok {
			break
		}
		count++
		if ev.Kind == yamlscan.EvError {
			sawError = true
			break
		}
	}
	if !sawError {
		t.Fatal("expected an error event for tab-indented content")
	}
	if ev, ok := it.Next(); ok {
		t.Errorf("Next() after strict halt = %+v, true, want false", ev)
	}
	_ = count
}
