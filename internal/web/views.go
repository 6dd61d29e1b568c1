package web

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/recon/internal/core"
)

// htmlWriter accumulates the first write error so views can be written as
// straight-line code.
type htmlWriter struct {
	w   io.Writer
	err error
}

func (h *htmlWriter) raw(parts ...string) {
	for _, p := range parts {
		if h.err != nil {
			return
		}
		_, h.err = io.WriteString(h.w, p)
	}
}

func (h *htmlWriter) text(s string) {
	h.raw(templ.EscapeString(s))
}

func indexPage(runs []core.RunRecord) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		h.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`,
			`<meta name="viewport" content="width=device-width, initial-scale=1">`,
			`<title>Reconcile</title>`,
			`<script src="https://unpkg.com/htmx.org@2.0.4"></script>`,
			`<style>body{font-family:system-ui,sans-serif;max-width:960px;margin:2rem auto;padding:0 1rem}`,
			`section{border:1px solid #ddd;border-radius:6px;padding:1rem;margin-bottom:1.5rem}`,
			`table{border-collapse:collapse;width:100%}td,th{border-bottom:1px solid #eee;padding:.3rem;text-align:left}`,
			`.error{background:#fdecea;border:1px solid #f5c2c0;padding:.75rem;border-radius:4px}`,
			`.result{background:#eef7ee;border:1px solid #c3e6c3;padding:.75rem;border-radius:4px}</style>`,
			`</head><body>`)

		h.raw(`<h1>Spreadsheet reconciliation</h1>`)

		h.raw(`<section><h2>Reconcile</h2>`,
			`<form hx-post="/api/reconcile" hx-encoding="multipart/form-data" hx-target="#reconcile-result">`,
			`<label>Target workbook <input type="file" name="target" accept=".xlsx" required></label><br>`,
			`<label>Source workbook <input type="file" name="source" accept=".xlsx" required></label><br>`,
			`<button type="submit">Reconcile</button></form>`,
			`<div id="reconcile-result"></div></section>`)

		h.raw(`<section><h2>Merge</h2>`,
			`<form hx-post="/api/merge" hx-encoding="multipart/form-data" hx-target="#merge-result">`,
			`<label>Workbooks <input type="file" name="files" accept=".xlsx" multiple required></label><br>`,
			`<label><input type="checkbox" name="add_filename" value="true"> Add file name column</label><br>`,
			`<button type="submit">Merge</button></form>`,
			`<div id="merge-result"></div></section>`)

		h.raw(`<section><h2>Recent runs</h2>`,
			`<div id="runs" hx-get="/api/runs" hx-trigger="runCompleted from:body">`)
		if h.err != nil {
			return h.err
		}
		if err := runsTable(runs).Render(ctx, w); err != nil {
			return err
		}
		h.raw(`</div></section></body></html>`)
		return h.err
	})
}

func resultFragment(res *core.RunResult) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		rec := res.Record

		h.raw(`<div class="result">`)
		switch rec.Kind {
		case core.RunReconcile:
			h.raw(`<p><strong>`)
			h.text(rec.Summary.Describe())
			h.raw(`</strong></p>`)
		default:
			h.raw(`<p><strong>Merged `)
			h.text(core.FormatCount(len(rec.Files)))
			h.raw(` files into `)
			h.text(core.FormatCount(rec.Summary.FinalRows))
			h.raw(` rows</strong></p>`)
		}

		if res.Report != nil {
			writeReport(h, res.Report)
		}

		h.raw(`<p><a href="/api/runs/`, templ.EscapeString(rec.ID), `/download">Download result</a></p></div>`)
		return h.err
	})
}

func writeReport(h *htmlWriter, rep *core.Report) {
	h.raw(`<table><tbody>`)
	h.raw(`<tr><th>Data rows</th><td>`)
	h.text(core.FormatCount(rep.TotalRows))
	h.raw(`</td></tr><tr><th>Duty</th><td>`)
	h.text(rep.Duty.StringFixed(2))
	h.raw(`</td></tr><tr><th>Sales tax</th><td>`)
	h.text(rep.SalesTax.StringFixed(2))
	h.raw(`</td></tr>`)

	if !rep.ColumnFound {
		h.raw(`<tr><th>`)
		h.text(rep.CountColumn)
		h.raw(`</th><td>column not found</td></tr>`)
	}
	for _, vc := range rep.ValueCounts {
		h.raw(`<tr><th>`)
		h.text(fmt.Sprintf("%s = %s", rep.CountColumn, vc.Value.String()))
		h.raw(`</th><td>`)
		h.text(core.FormatCount(vc.Count))
		h.raw(`</td></tr>`)
	}
	h.raw(`</tbody></table>`)
}

func runsTable(runs []core.RunRecord) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		if len(runs) == 0 {
			h.raw(`<p>No runs yet.</p>`)
			return h.err
		}

		h.raw(`<table><thead><tr><th>When</th><th>Kind</th><th>Inputs</th><th>Status</th><th>Result</th></tr></thead><tbody>`)
		for _, run := range runs {
			h.raw(`<tr><td>`)
			h.text(run.CreatedAt.Format("2006-01-02 15:04:05"))
			h.raw(`</td><td>`)
			h.text(string(run.Kind))
			h.raw(`</td><td>`)
			h.text(runInputs(run))
			h.raw(`</td><td>`)
			h.text(string(run.Status))
			h.raw(`</td><td>`)
			if run.Status == core.StatusFailed {
				h.text(run.Error)
			} else if run.Kind == core.RunReconcile {
				h.text(run.Summary.Describe())
			} else {
				h.text(core.FormatCount(run.Summary.FinalRows) + " rows")
			}
			h.raw(`</td></tr>`)
		}
		h.raw(`</tbody></table>`)
		return h.err
	})
}

func runInputs(run core.RunRecord) string {
	if run.Kind == core.RunReconcile {
		return run.TargetName + " + " + run.SourceName
	}
	return strings.Join(run.Files, ", ")
}

func errorAlert(msg core.UserMessage) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		h.raw(`<div class="error" role="alert"><p><strong>`)
		h.text(msg.Message)
		h.raw(`</strong></p>`)
		if msg.Action != "" {
			h.raw(`<p>`)
			h.text(msg.Action)
			h.raw(`</p>`)
		}
		h.raw(`<p><small>Code: `)
		h.text(msg.Code)
		h.raw(`</small></p></div>`)
		return h.err
	})
}
