package core

import (
	"fmt"
	"strings"
)

// Window is an inclusive column range applied to every row from StartRow on.
type Window struct {
	StartRow int
	ColStart int
	ColEnd   int
}

// RowTemplate describes where each field of a synthesized target row goes.
// All column indexes are 0-based.
type RowTemplate struct {
	Width int // Minimum row width; widened to fit every referenced column

	TagColumn int
	Tag       string

	ReferenceColumn  int // Raw primary identifier, as a short reference code
	IdentifierColumn int // Raw primary identifier, in the target's identifier slot

	CarryColumns []int // Copied verbatim from the last row of the input target

	SecondaryColumn int

	ZeroStart int // Inclusive range filled with the number 0
	ZeroEnd   int

	TrailerColumn int
	TrailerTag    string
}

// Layout holds every caller-known offset used by a reconciliation run.
type Layout struct {
	TargetIDColumn int
	TargetStartRow int
	TargetIDPrefix string // Stripped once from the front of target identifiers

	Coerce Window

	SourcePrimaryColumn   int
	SourceSecondaryColumn int
	SourceStartRow        int

	Row RowTemplate
}

// DefaultLayout returns the offsets of the standard target and source exports.
func DefaultLayout() Layout {
	return Layout{
		TargetIDColumn: 7,
		TargetStartRow: 5,
		TargetIDPrefix: "8308",
		Coerce:         Window{StartRow: 5, ColStart: 9, ColEnd: 16},

		SourcePrimaryColumn:   28,
		SourceSecondaryColumn: 44,
		SourceStartRow:        3,

		Row: RowTemplate{
			Width:            18,
			TagColumn:        0,
			Tag:              "NEW",
			ReferenceColumn:  1,
			IdentifierColumn: 7,
			CarryColumns:     []int{2, 3, 4, 5},
			SecondaryColumn:  6,
			ZeroStart:        9,
			ZeroEnd:          16,
			TrailerColumn:    17,
			TrailerTag:       "RECONCILED",
		},
	}
}

// width returns the number of cells a synthesized row needs.
func (t RowTemplate) width() int {
	w := t.Width
	cols := append([]int{
		t.TagColumn, t.ReferenceColumn, t.IdentifierColumn,
		t.SecondaryColumn, t.ZeroEnd, t.TrailerColumn,
	}, t.CarryColumns...)
	for _, c := range cols {
		if c+1 > w {
			w = c + 1
		}
	}
	return w
}

// Validate checks that every offset is usable.
// Returns an error wrapping ErrInvalidLayout describing all problems.
func (l Layout) Validate() error {
	var errs []string

	nonNeg := func(name string, v int) {
		if v < 0 {
			errs = append(errs, fmt.Sprintf("%s (%d) must be >= 0", name, v))
		}
	}

	nonNeg("target id column", l.TargetIDColumn)
	nonNeg("target start row", l.TargetStartRow)
	nonNeg("coerce start row", l.Coerce.StartRow)
	nonNeg("coerce column start", l.Coerce.ColStart)
	nonNeg("source primary column", l.SourcePrimaryColumn)
	nonNeg("source secondary column", l.SourceSecondaryColumn)
	nonNeg("source start row", l.SourceStartRow)
	if l.Coerce.ColEnd < l.Coerce.ColStart {
		errs = append(errs, fmt.Sprintf("coerce column end (%d) must be >= start (%d)",
			l.Coerce.ColEnd, l.Coerce.ColStart))
	}

	t := l.Row
	nonNeg("tag column", t.TagColumn)
	nonNeg("reference column", t.ReferenceColumn)
	nonNeg("identifier column", t.IdentifierColumn)
	nonNeg("secondary column", t.SecondaryColumn)
	nonNeg("zero range start", t.ZeroStart)
	nonNeg("trailer column", t.TrailerColumn)
	for _, c := range t.CarryColumns {
		nonNeg("carry column", c)
	}
	if t.ZeroEnd < t.ZeroStart {
		errs = append(errs, fmt.Sprintf("zero range end (%d) must be >= start (%d)",
			t.ZeroEnd, t.ZeroStart))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidLayout, strings.Join(errs, "; "))
	}
	return nil
}
