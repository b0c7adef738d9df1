package directives

import "testing"

func TestNewTableDefaults(t *testing.T) {
	tbl := NewTable()
	cases := map[string]string{
		"!!": "tag:yaml.org,2002:",
		"!":  "!",
	}
	for handle, want := range cases {
		got, ok := tbl.Resolve([]byte(handle))
		if !ok || string(got) != want {
			t.Errorf("Resolve(%q) = %q, %v, want %q, true", handle, got, ok, want)
		}
	}
}

func TestSetOverridesHandle(t *testing.T) {
	tbl := NewTable()
	tbl.Set([]byte("!!"), []byte("tag:example.com,2000:app/"))
	got, ok := tbl.Resolve([]byte("!!"))
	if !ok || string(got) != "tag:example.com,2000:app/" {
		t.Fatalf("Resolve(!!) after Set = %q, %v", got, ok)
	}
}

func TestSetNamedHandle(t *testing.T) {
	tbl := NewTable()
	tbl.Set([]byte("!e!"), []byte("tag:example.com,2000:"))
	got, ok := tbl.Resolve([]byte("!e!"))
	if !ok || string(got) != "tag:example.com,2000:" {
		t.Fatalf("Resolve(!e!) = %q, %v, want tag:example.com,2000:, true", got, ok)
	}
}

func TestResolveUnknownHandle(t *testing.T) {
	tbl := NewTable()
	if _, ok := tbl.Resolve([]byte("!x!")); ok {
		t.Fatal("Resolve(!x!) = true, want false for an undeclared handle")
	}
}

func TestResetRestoresDefaultsAndDropsCustomHandles(t *testing.T) {
	tbl := NewTable()
	tbl.Set([]byte("!e!"), []byte("tag:example.com,2000:"))
	tbl.Set([]byte("!!"), []byte("tag:example.com,2000:app/"))

	tbl.Reset()

	if _, ok := tbl.Resolve([]byte("!e!")); ok {
		t.Fatal("Resolve(!e!) after Reset = true, want false (custom handle must not survive a document boundary)")
	}
	got, ok := tbl.Resolve([]byte("!!"))
	if !ok || string(got) != "tag:yaml.org,2002:" {
		t.Fatalf("Resolve(!!) after Reset = %q, %v, want default", got, ok)
	}
}

func TestSetCopiesPrefixBytes(t *testing.T) {
	tbl := NewTable()
	prefix := []byte("tag:example.com,2000:")
	tbl.Set([]byte("!e!"), prefix)
	prefix[0] = 'X'
	got, _ := tbl.Resolve([]byte("!e!"))
	if string(got) != "tag:example.com,2000:" {
		t.Fatalf("Resolve(!e!) = %q, want unaffected by later mutation of the caller's slice", got)
	}
}
