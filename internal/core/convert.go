package core

// convert.go turns numeric-looking text cells into number cells.
//
// Spreadsheet exports carry amounts as text more often than not, usually
// with thousands separators ("1,234.50"). Coercion is deliberately forgiving:
// anything that does not parse is left exactly as it was.

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// numericRegex validates that a string is a valid numeric format after cleanup.
// Matches integers, decimals, and scientific notation.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// maxExponent bounds the decimal exponent to what a spreadsheet number (an
// IEEE double) can carry. Values of 1e308 or more in magnitude stay text.
const maxExponent = 308

// ParseNumeric parses s as a decimal number after trimming whitespace and
// removing thousands-separator commas. The boolean is false when s is not a
// number.
func ParseNumeric(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", "")
	m := numericRegex.FindStringSubmatch(s)
	if m == nil || !inRange(m[1], m[3]) {
		return decimal.Zero, false
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// inRange reports whether a number with the given mantissa and exponent
// suffix ("e+12") stays within maxExponent in both directions.
func inRange(mantissa, exp string) bool {
	e := 0
	if exp != "" {
		n, err := strconv.Atoi(exp[1:])
		if err != nil || n > maxExponent || n < -maxExponent {
			return false
		}
		e = n
	}
	intDigits, _, _ := strings.Cut(mantissa, ".")
	intDigits = strings.TrimLeft(intDigits, "0")
	return len(intDigits)+e <= maxExponent
}

// CoerceCell returns c as a number cell when its text parses as a number,
// otherwise c unchanged. Empty and number cells are returned as-is.
func CoerceCell(c Cell) Cell {
	if c.Kind != CellText || c.IsEmpty() {
		return c
	}
	if d, ok := ParseNumeric(c.Str); ok {
		return Num(d)
	}
	return c
}

// CoerceNumericWindow returns a copy of t in which every non-empty cell of
// the window has been coerced with CoerceCell. Rows shorter than the window
// are not extended. The input table is not modified, and applying the
// function twice yields the same cells as applying it once.
func CoerceNumericWindow(t Table, w Window) Table {
	out := t.Clone()
	for r := max(w.StartRow, 0); r < len(out); r++ {
		row := out[r]
		for c := max(w.ColStart, 0); c <= w.ColEnd && c < len(row); c++ {
			row[c] = CoerceCell(row[c])
		}
	}
	return out
}
