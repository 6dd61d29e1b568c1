package core

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// Describe renders the summary as one human-readable line with grouped
// digits, e.g. "1,204 candidates: 17 inserted, 1,187 skipped, 5,310 rows".
func (s Summary) Describe() string {
	return printer.Sprintf("%d candidates: %d inserted, %d skipped, %d rows",
		s.Candidates, s.Inserted, s.Skipped, s.FinalRows)
}

// FormatCount renders n with grouped digits.
func FormatCount(n int) string {
	return printer.Sprintf("%d", n)
}
