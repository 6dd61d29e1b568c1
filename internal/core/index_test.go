package core

import "testing"

func TestKeySet(t *testing.T) {
	s := NewKeySet("123", "", "456", "123")

	if s.Len() != 2 {
		t.Errorf("Len() = %d, want 2", s.Len())
	}
	if !s.Has("123") || !s.Has("456") {
		t.Error("Has() = false for an added key")
	}
	if s.Has("") {
		t.Error("Has(\"\") = true, the empty key must never be known")
	}
	if s.Has("789") {
		t.Error("Has(\"789\") = true for a key never added")
	}
}

func TestIndexTarget(t *testing.T) {
	target := Table{
		cells("header", "8308000999"), // before TargetStartRow
		cells("a", "8308000123"),
		cells("b", Int(8308000456)),
		cells("c", "83088308555"),
		cells("d", "N/A"),
		cells("e"),
		cells("f", "0077"),
	}

	known := IndexTarget(target, testLayout())

	for _, k := range []string{"123", "456", "8308555", "77"} {
		if !known.Has(k) {
			t.Errorf("key %q missing from index", k)
		}
	}
	for _, k := range []string{"999", "555", ""} {
		if known.Has(k) {
			t.Errorf("key %q should not be indexed", k)
		}
	}
	if known.Len() != 4 {
		t.Errorf("Len() = %d, want 4", known.Len())
	}
}

func TestIndexTarget_Empty(t *testing.T) {
	if n := IndexTarget(Table{}, testLayout()).Len(); n != 0 {
		t.Errorf("Len() = %d, want 0", n)
	}
	if n := IndexTarget(Table{cells("header", "123")}, testLayout()).Len(); n != 0 {
		t.Errorf("Len() = %d, want 0 for a header-only target", n)
	}
}
