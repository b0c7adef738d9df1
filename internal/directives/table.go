// Package directives implements the per-document tag-handle resolution
// table built from %TAG directives, with the two well-known defaults
// YAML mandates whenever they are not overridden.
package directives

// Table maps a tag handle (e.g. "!", "!!", "!e!") to its resolved prefix.
// One Table exists per document; the lexer calls Reset at every document
// boundary, matching libyaml's "tag directive" scoping.
type Table struct {
	handles map[string][]byte
}

// NewTable returns a table pre-populated with the two default handles.
func NewTable() *Table {
	t := &Table{handles: make(map[string][]byte, 4)}
	t.Reset()
	return t
}

// Reset clears all custom %TAG entries and reinstalls the two defaults:
// "!!" -> "tag:yaml.org,2002:" and "!" -> "!".
func (t *Table) Reset() {
	for k := range t.handles {
		delete(t.handles, k)
	}
	t.handles["!!"] = []byte("tag:yaml.org,2002:")
	t.handles["!"] = []byte("!")
}

// Set records a %TAG directive mapping handle to prefix. A later Set for
// the same handle overwrites the earlier one, matching libyaml (which
// reports a "redefined" warning via the scanner, not the table itself).
func (t *Table) Set(handle, prefix []byte) {
	t.handles[string(handle)] = append([]byte(nil), prefix...)
}

// Resolve looks up handle, returning its prefix and whether it was found.
func (t *Table) Resolve(handle []byte) ([]byte, bool) {
	p, ok := t.handles[string(handle)]
	return p, ok
}
