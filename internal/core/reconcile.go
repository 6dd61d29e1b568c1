package core

import (
	"iter"

	"github.com/shopspring/decimal"
)

// Decision is the outcome for a single candidate.
type Decision string

const (
	DecisionSkip   Decision = "skip"
	DecisionInsert Decision = "insert"
)

// Reconciliation holds the rows synthesized for unknown candidates and the
// counts of each decision.
type Reconciliation struct {
	Inserted   []Row
	Candidates int
	Skipped    int
}

// Classify decides whether a candidate is already known. Candidates with
// an empty key are always inserted.
func Classify(c Candidate, known KeySet) Decision {
	if c.Key != "" && known.Has(c.Key) {
		return DecisionSkip
	}
	return DecisionInsert
}

// Reconcile walks the candidates in order and synthesizes a target row for
// every candidate that is not already known. Candidates are only compared
// against known, never against each other, so repeated source identifiers
// each produce their own row.
func Reconcile(candidates iter.Seq[Candidate], known KeySet, target Table, layout Layout) Reconciliation {
	template := templateRow(target, layout)

	var rec Reconciliation
	for c := range candidates {
		rec.Candidates++
		if Classify(c, known) == DecisionSkip {
			rec.Skipped++
			continue
		}
		rec.Inserted = append(rec.Inserted, BuildRow(c, template, layout.Row))
	}
	return rec
}

// templateRow returns the last row of the target, or nil when the target
// has no rows at or after TargetStartRow. In that case carried columns are
// left empty rather than copying a header row.
func templateRow(target Table, layout Layout) Row {
	if len(target) == 0 || len(target) <= layout.TargetStartRow {
		return nil
	}
	return target[len(target)-1]
}

// BuildRow synthesizes a target-shaped row for c. Carried columns are
// copied from last, which may be nil.
func BuildRow(c Candidate, last Row, t RowTemplate) Row {
	row := make(Row, t.width())

	row[t.TagColumn] = Str(t.Tag)
	row[t.ReferenceColumn] = Str(c.Primary)
	row[t.IdentifierColumn] = Str(c.Primary)
	for _, col := range t.CarryColumns {
		if col < len(last) {
			row[col] = last[col]
		}
	}
	row[t.SecondaryColumn] = Str(c.Secondary)
	for col := t.ZeroStart; col <= t.ZeroEnd; col++ {
		row[col] = Num(decimal.Zero)
	}
	row[t.TrailerColumn] = Str(t.TrailerTag)

	return row
}
