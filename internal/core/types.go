// Package core provides the business logic for spreadsheet reconciliation.
// This package has no UI dependencies and can be used by any frontend.
package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// CellKind identifies which value a Cell carries.
type CellKind uint8

const (
	CellEmpty CellKind = iota
	CellText
	CellNumber
)

// Cell is a single spreadsheet value: empty, text or number.
// The zero value is an empty cell.
type Cell struct {
	Kind CellKind
	Str  string          // Set when Kind is CellText
	Num  decimal.Decimal // Set when Kind is CellNumber
}

// Str returns a text cell. An empty string yields an empty cell.
func Str(s string) Cell {
	if s == "" {
		return Cell{}
	}
	return Cell{Kind: CellText, Str: s}
}

// Num returns a number cell.
func Num(d decimal.Decimal) Cell {
	return Cell{Kind: CellNumber, Num: d}
}

// Int returns a number cell holding an integer.
func Int(i int64) Cell {
	return Num(decimal.NewFromInt(i))
}

// IsEmpty reports whether the cell has no value. Text cells holding ""
// are empty as well.
func (c Cell) IsEmpty() bool {
	switch c.Kind {
	case CellText:
		return c.Str == ""
	case CellNumber:
		return false
	default:
		return true
	}
}

// IsNumber reports whether the cell holds a number.
func (c Cell) IsNumber() bool {
	return c.Kind == CellNumber
}

// String renders the cell the way it would read in a spreadsheet.
// Numbers are printed without exponent, e.g. 8308000123 or 12.5.
func (c Cell) String() string {
	switch c.Kind {
	case CellText:
		return c.Str
	case CellNumber:
		return c.Num.String()
	default:
		return ""
	}
}

// Equal reports whether two cells hold the same value.
// Empty text and empty cells compare equal.
func (c Cell) Equal(o Cell) bool {
	if c.IsEmpty() || o.IsEmpty() {
		return c.IsEmpty() && o.IsEmpty()
	}
	if c.Kind != o.Kind {
		return false
	}
	if c.Kind == CellNumber {
		return c.Num.Equal(o.Num)
	}
	return c.Str == o.Str
}

// Row is an ordered sequence of cells. Rows may be ragged.
type Row []Cell

// Table is an ordered sequence of rows. Row 0 is the first row of the
// sheet; header boundaries are expressed through Layout offsets.
type Table []Row

// Cell returns the cell at (row, col), or an empty cell when either index
// is out of range.
func (t Table) Cell(row, col int) Cell {
	if row < 0 || row >= len(t) || col < 0 || col >= len(t[row]) {
		return Cell{}
	}
	return t[row][col]
}

// Clone returns a copy of the table that shares no row storage with t.
func (t Table) Clone() Table {
	if t == nil {
		return nil
	}
	out := make(Table, len(t))
	for i, r := range t {
		out[i] = append(Row(nil), r...)
	}
	return out
}

// RowFromStrings builds a row of text cells.
func RowFromStrings(values ...string) Row {
	r := make(Row, len(values))
	for i, v := range values {
		r[i] = Str(v)
	}
	return r
}

// Candidate is a source row considered for insertion into the target.
type Candidate struct {
	Row       int    // Index of the row in the source table
	Primary   string // Trimmed primary identifier, copied verbatim into new rows
	Secondary string // Trimmed secondary identifier, never normalized
	Key       string // NormalizeKey of Primary; may be empty
}

// Summary holds the counts reported after a reconciliation.
type Summary struct {
	Candidates int `json:"candidates"`
	Inserted   int `json:"inserted"`
	Skipped    int `json:"skipped"`
	FinalRows  int `json:"finalRows"`
}

// Result is the output of a reconciliation: the assembled table and its summary.
type Result struct {
	Table   Table
	Summary Summary
}

// RunKind distinguishes the operations recorded in run history.
type RunKind string

const (
	RunReconcile RunKind = "reconcile"
	RunMerge     RunKind = "merge"
)

// RunStatus is the final state of a recorded run.
type RunStatus string

const (
	StatusSucceeded RunStatus = "succeeded"
	StatusFailed    RunStatus = "failed"
)

// RunRecord is one entry of run history.
type RunRecord struct {
	ID         string    `json:"id"`
	Kind       RunKind   `json:"kind"`
	TargetName string    `json:"targetName,omitempty"`
	SourceName string    `json:"sourceName,omitempty"`
	Files      []string  `json:"files,omitempty"`
	Summary    Summary   `json:"summary"`
	Status     RunStatus `json:"status"`
	Error      string    `json:"error,omitempty"`
	DurationMs int64     `json:"durationMs"`
	ClientIP   string    `json:"clientIp,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}
