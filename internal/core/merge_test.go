package core

import "testing"

func rowStrings(r Row) []string {
	out := make([]string, len(r))
	for i, c := range r {
		out[i] = c.String()
	}
	return out
}

func assertRows(t *testing.T, got Table, want [][]string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d rows, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		g := rowStrings(got[i])
		if len(g) != len(want[i]) {
			t.Errorf("row %d = %q, want %q", i, g, want[i])
			continue
		}
		for j := range g {
			if g[j] != want[i][j] {
				t.Errorf("row %d = %q, want %q", i, g, want[i])
				break
			}
		}
	}
}

func mergeFiles() []NamedTable {
	return []NamedTable{
		{Name: "a.xlsx", Table: Table{
			cells("Report A"),
			cells("Entry", "Duty"),
			cells("A1", 10),
			cells("", ""),
			cells("A2", 20),
		}},
		{Name: "b.xlsx", Table: Table{
			cells("Report B"),
			cells("Printed today"),
			cells("Entry", "Duty"),
			cells("B1", 30),
		}},
	}
}

func TestMergeTables(t *testing.T) {
	got := MergeTables(mergeFiles(), MergeOptions{FirstSkip: 1, RestSkip: 2})

	assertRows(t, got, [][]string{
		{"Entry", "Duty"},
		{"A1", "10"},
		{"A2", "20"},
		{"B1", "30"},
	})
}

func TestMergeTables_AddFileName(t *testing.T) {
	got := MergeTables(mergeFiles(), MergeOptions{FirstSkip: 1, RestSkip: 2, AddFileName: true})

	assertRows(t, got, [][]string{
		{SourceFileHeader, "Entry", "Duty"},
		{"a.xlsx", "A1", "10"},
		{"a.xlsx", "A2", "20"},
		{"b.xlsx", "B1", "30"},
	})
}

func TestMergeTables_SkipsEmptyFiles(t *testing.T) {
	files := []NamedTable{
		{Name: "empty.xlsx", Table: Table{}},
		{Name: "banner-only.xlsx", Table: Table{cells("Banner"), cells("Banner")}},
		{Name: "c.xlsx", Table: Table{
			cells("Banner"),
			cells("Banner"),
			cells("Entry"),
			cells("C1"),
		}},
	}

	got := MergeTables(files, MergeOptions{FirstSkip: 3, RestSkip: 2})

	assertRows(t, got, [][]string{
		{"Entry"},
		{"C1"},
	})
}

func TestMergeTables_NothingLeft(t *testing.T) {
	files := []NamedTable{{Name: "a.xlsx", Table: Table{cells("Banner")}}}

	if got := MergeTables(files, DefaultMergeOptions()); len(got) != 0 {
		t.Errorf("MergeTables() = %v, want empty", got)
	}
	if got := MergeTables(nil, DefaultMergeOptions()); len(got) != 0 {
		t.Errorf("MergeTables(nil) = %v, want empty", got)
	}
}

func TestMergeTables_InputUnchanged(t *testing.T) {
	files := mergeFiles()

	_ = MergeTables(files, MergeOptions{FirstSkip: 1, RestSkip: 2, AddFileName: true})

	if got := files[0].Table[1][0].String(); got != "Entry" {
		t.Errorf("input header changed to %q", got)
	}
	if len(files[0].Table[2]) != 2 {
		t.Errorf("input row widened to %d cells", len(files[0].Table[2]))
	}
}
