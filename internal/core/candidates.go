package core

import (
	"iter"
	"strings"
)

// SelectCandidates yields one Candidate per source row from
// layout.SourceStartRow on, in row order. Rows whose primary and secondary
// identifiers are both blank are skipped. The sequence is evaluated lazily
// and reads the table on every iteration.
func SelectCandidates(source Table, layout Layout) iter.Seq[Candidate] {
	return func(yield func(Candidate) bool) {
		for r := max(layout.SourceStartRow, 0); r < len(source); r++ {
			primary := strings.TrimSpace(source.Cell(r, layout.SourcePrimaryColumn).String())
			secondary := strings.TrimSpace(source.Cell(r, layout.SourceSecondaryColumn).String())
			if primary == "" && secondary == "" {
				continue
			}

			c := Candidate{
				Row:       r,
				Primary:   primary,
				Secondary: secondary,
				Key:       normalizeString(primary),
			}
			if !yield(c) {
				return
			}
		}
	}
}
