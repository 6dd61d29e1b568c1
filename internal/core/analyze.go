package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// AnalyzeOptions selects the columns inspected by Analyze.
type AnalyzeOptions struct {
	CountColumn string            // Column whose values are matched against CountValues
	CountValues []decimal.Decimal // Reference values to count
	Tolerance   decimal.Decimal   // Maximum distance from a reference value
	DutyColumn  string
	SalesTaxCol string
}

// DefaultAnalyzeOptions returns the brokerage report settings.
func DefaultAnalyzeOptions() AnalyzeOptions {
	return AnalyzeOptions{
		CountColumn: "Brokerage Total",
		CountValues: []decimal.Decimal{
			decimal.RequireFromString("0.0175"),
			decimal.RequireFromString("0.085"),
			decimal.RequireFromString("0.71"),
			decimal.RequireFromString("0.28"),
		},
		Tolerance:   decimal.RequireFromString("0.001"),
		DutyColumn:  "Duty",
		SalesTaxCol: "Gov. Sales Tax",
	}
}

// ValueCount is the number of rows matching one reference value.
type ValueCount struct {
	Value decimal.Decimal `json:"value"`
	Count int             `json:"count"`
}

// Report summarizes a merged table.
type Report struct {
	TotalRows   int                        `json:"totalRows"`
	ColumnSums  map[string]decimal.Decimal `json:"columnSums"`
	Duty        decimal.Decimal            `json:"duty"`
	SalesTax    decimal.Decimal            `json:"salesTax"`
	ValueCounts []ValueCount               `json:"valueCounts"`
	CountColumn string                     `json:"countColumn"`
	ColumnFound bool                       `json:"columnFound"`
}

// Analyze treats row 0 as the header and every other row as data. It sums
// every column's numeric values and counts CountColumn values that, rounded
// to three decimals, fall within Tolerance of a reference value. Duty and
// SalesTax are absolute sums rounded to two decimals.
func Analyze(t Table, opts AnalyzeOptions) Report {
	report := Report{
		ColumnSums:  make(map[string]decimal.Decimal),
		CountColumn: opts.CountColumn,
	}
	for _, v := range opts.CountValues {
		report.ValueCounts = append(report.ValueCounts, ValueCount{Value: v})
	}
	if len(t) == 0 {
		return report
	}

	header := t[0]
	rows := t[1:]
	report.TotalRows = len(rows)

	for col, h := range header {
		name := h.String()
		sum := decimal.Zero
		for _, row := range rows {
			if col >= len(row) {
				continue
			}
			if d, ok := cellNumber(row[col]); ok {
				sum = sum.Add(d)
			}
		}
		report.ColumnSums[name] = sum
	}

	report.Duty = report.ColumnSums[opts.DutyColumn].Abs().Round(2)
	report.SalesTax = report.ColumnSums[opts.SalesTaxCol].Abs().Round(2)

	countCol := headerIndex(header, opts.CountColumn)
	if countCol < 0 {
		return report
	}
	report.ColumnFound = true

	for _, row := range rows {
		if countCol >= len(row) {
			continue
		}
		d, ok := cellNumber(row[countCol])
		if !ok {
			continue
		}
		rounded := d.Round(3)
		for i := range report.ValueCounts {
			if rounded.Sub(report.ValueCounts[i].Value).Abs().LessThan(opts.Tolerance) {
				report.ValueCounts[i].Count++
			}
		}
	}

	return report
}

func cellNumber(c Cell) (decimal.Decimal, bool) {
	switch {
	case c.IsNumber():
		return c.Num, true
	case c.IsEmpty():
		return decimal.Zero, false
	default:
		return ParseNumeric(c.Str)
	}
}

// headerIndex returns the position of the exact header name, or -1.
func headerIndex(header Row, name string) int {
	for i, h := range header {
		if strings.TrimSpace(h.String()) == name {
			return i
		}
	}
	return -1
}
