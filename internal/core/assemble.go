package core

// Assemble appends the inserted rows to the target, re-applies numeric
// coercion over the whole result and computes the summary. Target rows keep
// their original order; none are dropped.
func Assemble(target Table, rec Reconciliation, w Window) Result {
	final := make(Table, 0, len(target)+len(rec.Inserted))
	final = append(final, target...)
	final = append(final, rec.Inserted...)
	final = CoerceNumericWindow(final, w)

	return Result{
		Table: final,
		Summary: Summary{
			Candidates: rec.Candidates,
			Inserted:   len(rec.Inserted),
			Skipped:    rec.Skipped,
			FinalRows:  len(final),
		},
	}
}

// Run reconciles source into target using layout. Both tables must be
// non-nil; an empty table is valid input. The inputs are never modified.
func Run(target, source Table, layout Layout) (*Result, error) {
	if target == nil || source == nil {
		return nil, ErrMissingInput
	}
	if err := layout.Validate(); err != nil {
		return nil, err
	}

	known := IndexTarget(target, layout)
	coerced := CoerceNumericWindow(target, layout.Coerce)
	rec := Reconcile(SelectCandidates(source, layout), known, target, layout)

	res := Assemble(coerced, rec, layout.Coerce)
	return &res, nil
}
