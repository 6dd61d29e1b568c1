package core

// NamedTable is a decoded sheet together with the name of the file it came from.
type NamedTable struct {
	Name  string
	Table Table
}

// MergeOptions controls how several exports are stacked into one table.
type MergeOptions struct {
	FirstSkip   int  // Rows dropped from the top of the first file
	RestSkip    int  // Rows dropped from the top of every later file
	AddFileName bool // Prefix every row with the originating file name
}

// DefaultMergeOptions matches the banner layout of the standard exports:
// three banner rows on the first file, four on the rest.
func DefaultMergeOptions() MergeOptions {
	return MergeOptions{FirstSkip: 3, RestSkip: 4}
}

// SourceFileHeader labels the file name column added by AddFileName.
const SourceFileHeader = "Source File"

// MergeTables stacks the files into a single table with one header row.
//
// For each file, the leading banner rows are dropped and fully empty rows
// removed. The first remaining row of the first contributing file becomes
// the header; the first remaining row of every later file is treated as its
// repeated header and dropped. Files with nothing left are skipped.
func MergeTables(files []NamedTable, opts MergeOptions) Table {
	var merged Table
	headerAdded := false

	for i, f := range files {
		if len(f.Table) == 0 {
			continue
		}

		skip := opts.RestSkip
		if i == 0 {
			skip = opts.FirstSkip
		}
		trimmed := dropEmptyRows(dropLeading(f.Table, skip))
		if len(trimmed) == 0 {
			continue
		}

		if !headerAdded {
			merged = append(merged, withFileName(trimmed[0], SourceFileHeader, opts.AddFileName))
			headerAdded = true
		}
		for _, row := range trimmed[1:] {
			merged = append(merged, withFileName(row, f.Name, opts.AddFileName))
		}
	}

	return merged
}

func dropLeading(t Table, n int) Table {
	if n <= 0 {
		return t
	}
	if n >= len(t) {
		return nil
	}
	return t[n:]
}

func dropEmptyRows(t Table) Table {
	out := make(Table, 0, len(t))
	for _, row := range t {
		if !rowIsEmpty(row) {
			out = append(out, row)
		}
	}
	return out
}

func rowIsEmpty(row Row) bool {
	for _, c := range row {
		if !c.IsEmpty() {
			return false
		}
	}
	return true
}

func withFileName(row Row, name string, add bool) Row {
	out := make(Row, 0, len(row)+1)
	if add {
		out = append(out, Str(name))
	}
	return append(out, row...)
}
