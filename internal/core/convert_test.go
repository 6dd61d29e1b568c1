package core

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestParseNumeric(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		wantOK bool
		want   string
	}{
		// Valid
		{"integer", "123", true, "123"},
		{"negative", "-7", true, "-7"},
		{"explicit plus", "+3", true, "3"},
		{"decimal", "12.50", true, "12.5"},
		{"leading dot", ".5", true, "0.5"},
		{"thousands separators", "1,234.50", true, "1234.5"},
		{"surrounding whitespace", "  42  ", true, "42"},
		{"scientific", "1e3", true, "1000"},
		{"long identifier", "8308000123", true, "8308000123"},
		{"large exponent", "1.5e300", true, "1.5e300"},
		{"small exponent", "2e-300", true, "2e-300"},
		{"beyond int64", "123,456,789,012,345,678,901,234", true, "123456789012345678901234"},

		// Invalid
		{"empty", "", false, ""},
		{"whitespace only", "   ", false, ""},
		{"letters", "abc", false, ""},
		{"trailing letters", "12abc", false, ""},
		{"two dots", "1.2.3", false, ""},
		{"currency symbol", "$5", false, ""},
		{"sign only", "-", false, ""},
		{"dash separated", "AS-1", false, ""},

		// Out of spreadsheet range
		{"huge exponent", "1e999999999", false, ""},
		{"huge negative exponent", "1e-999999999", false, ""},
		{"exponent overflows int", "1e99999999999999999999", false, ""},
		{"exponent just past range", "1e308", false, ""},
		{"exponent with integer digits", "12e307", false, ""},
		{"too many integer digits", "1" + strings.Repeat("0", 308), false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseNumeric(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("ParseNumeric(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if want := decimal.RequireFromString(tt.want); !got.Equal(want) {
				t.Errorf("ParseNumeric(%q) = %s, want %s", tt.input, got, want)
			}
		})
	}
}

func TestCoerceCell(t *testing.T) {
	tests := []struct {
		name string
		in   Cell
		want Cell
	}{
		{"numeric text", Str("1,250.50"), dec("1250.5")},
		{"non-numeric text", Str("N/A"), Str("N/A")},
		{"empty", Cell{}, Cell{}},
		{"already number", Int(5), Int(5)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CoerceCell(tt.in)
			if got.Kind != tt.want.Kind || !got.Equal(tt.want) {
				t.Errorf("CoerceCell(%q) = %q (kind %d), want %q (kind %d)",
					tt.in.String(), got.String(), got.Kind, tt.want.String(), tt.want.Kind)
			}
		})
	}
}

func TestCoerceCell_OutOfRangeStaysText(t *testing.T) {
	done := make(chan Cell, 1)
	go func() {
		c := CoerceCell(Str("1e999999999"))
		_ = c.String()
		done <- c
	}()

	select {
	case c := <-done:
		if c.Kind != CellText || c.Str != "1e999999999" {
			t.Errorf("CoerceCell() = %q (kind %d), want unchanged text", c.String(), c.Kind)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("CoerceCell() did not return for a huge exponent")
	}
}

func TestAnalyze_OutOfRangeIgnored(t *testing.T) {
	tbl := Table{cells("Brokerage Total"), cells("1e999999999"), cells("0.71")}

	done := make(chan Report, 1)
	go func() { done <- Analyze(tbl, DefaultAnalyzeOptions()) }()

	select {
	case r := <-done:
		if want := decimal.RequireFromString("0.71"); !r.ColumnSums["Brokerage Total"].Equal(want) {
			t.Errorf("ColumnSums = %s, want %s", r.ColumnSums["Brokerage Total"], want)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Analyze() did not return for a huge exponent")
	}
}

func TestCoerceNumericWindow(t *testing.T) {
	tbl := Table{
		cells("Header", "10", "20", "30"),
		cells("row", "1,000", "x", "5"),
		cells("short", "7"),
	}
	w := Window{StartRow: 1, ColStart: 1, ColEnd: 2}

	got := CoerceNumericWindow(tbl, w)

	if !got[0][1].Equal(Str("10")) {
		t.Errorf("row before StartRow was coerced: %v", got[0][1])
	}
	if !got[1][1].IsNumber() || !got[1][1].Equal(Int(1000)) {
		t.Errorf("got[1][1] = %q, want number 1000", got[1][1].String())
	}
	if got[1][2].IsNumber() {
		t.Errorf("non-numeric text was coerced: %q", got[1][2].String())
	}
	if got[1][3].IsNumber() {
		t.Error("column outside the window was coerced")
	}
	if len(got[2]) != 2 {
		t.Errorf("short row extended to %d cells", len(got[2]))
	}
	if !got[2][1].IsNumber() {
		t.Errorf("got[2][1] = %q, want number", got[2][1].String())
	}
}

func TestCoerceNumericWindow_InputUnchanged(t *testing.T) {
	tbl := Table{cells("1,234.50", "9")}

	_ = CoerceNumericWindow(tbl, Window{ColStart: 0, ColEnd: 1})

	if tbl[0][0].Kind != CellText || tbl[0][1].Kind != CellText {
		t.Errorf("input table was modified: %+v", tbl[0])
	}
}

func TestCoerceNumericWindow_Idempotent(t *testing.T) {
	tbl := Table{
		cells("1,234.50", "abc", "", "007"),
		cells(" 3 ", Int(4), "1e2", "-"),
	}
	w := Window{ColStart: 0, ColEnd: 3}

	once := CoerceNumericWindow(tbl, w)
	twice := CoerceNumericWindow(once, w)

	for r := range once {
		for c := range once[r] {
			a, b := once[r][c], twice[r][c]
			if a.Kind != b.Kind || !a.Equal(b) {
				t.Errorf("cell (%d, %d): once = %q, twice = %q", r, c, a.String(), b.String())
			}
		}
	}
}
