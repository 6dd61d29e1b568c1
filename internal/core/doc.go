// Package core reconciles two spreadsheets: it finds the source rows whose
// identifiers are missing from the target and appends a synthesized row for
// each of them.
//
// The package works on decoded tables only and has no file, HTTP or
// database dependencies. It can be used by the web server, the CLI or tests
// without modification.
//
// # Pipeline
//
// A reconciliation is a fixed sequence of pure steps:
//
//  1. [IndexTarget] collects the normalized identifiers already present in
//     the target.
//  2. [SelectCandidates] lazily yields one [Candidate] per usable source row.
//  3. [Reconcile] classifies each candidate and builds a row for every
//     identifier the target lacks, copying carry cells from the last target
//     row.
//  4. [Assemble] appends the new rows and coerces the numeric window.
//
// [Run] wires the steps together:
//
//	res, err := core.Run(target, source, core.DefaultLayout())
//	if err != nil {
//	    return err
//	}
//	fmt.Println(res.Summary.Describe())
//
// # Identifiers
//
// [NormalizeKey] keeps only ASCII digits and drops leading zeros, so
// "00-123" and 123 compare equal. Target identifiers lose the configured
// prefix before normalization. An empty key never matches, so source rows
// without digits in their primary identifier are always inserted.
//
// # Merging
//
// [MergeTables] stacks several exports that share a header and [Analyze]
// computes column totals and value counts over the result.
//
// # Service
//
// [Service] adds the operational layer used by the transports: a
// concurrency limit ([RunLimiter]), run history through a [RunStore], a
// result cache with expiry and a background history pruner.
//
// # Error Handling
//
// Technical errors are mapped to user-facing messages with [MapError]:
//
//   - RECON001-RECON003: reconciliation input and run lookup
//   - FILE001-FILE005: workbook size, format and encoding
//   - UPL002-UPL005: limiter and cancellation
//   - DB004-DB006: history store connectivity
package core
