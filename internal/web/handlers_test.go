package web

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/recon/internal/config"
	"github.com/JonMunkholm/recon/internal/core"
	"github.com/JonMunkholm/recon/internal/history"
	"github.com/JonMunkholm/recon/internal/sheet"
)

func newTestServer(t *testing.T, mutate ...func(*config.Config)) *Server {
	t.Helper()
	t.Setenv("RATE_LIMIT_ENABLED", "false")

	cfg, err := config.Load()
	require.NoError(t, err)
	for _, m := range mutate {
		m(cfg)
	}

	svc, err := core.NewService(history.NewMemory(0), cfg)
	require.NoError(t, err)
	return NewServer(svc, cfg)
}

func targetTable() core.Table {
	t := core.Table{}
	for range 5 {
		t = append(t, core.RowFromStrings("banner"))
	}
	row := make(core.Row, 18)
	row[2] = core.Str("CarryA")
	row[3] = core.Str("CarryB")
	row[4] = core.Str("CarryC")
	row[5] = core.Str("CarryD")
	row[7] = core.Str("8308000123")
	row[9] = core.Str("1,250.50")
	return append(t, row)
}

func sourceRow(primary, secondary string) core.Row {
	row := make(core.Row, 45)
	row[28] = core.Str(primary)
	row[44] = core.Str(secondary)
	return row
}

func sourceTable() core.Table {
	return core.Table{
		core.RowFromStrings("h1"),
		core.RowFromStrings("h2"),
		core.RowFromStrings("h3"),
		sourceRow("000123", "S-1"),
		sourceRow("456", "S-2"),
	}
}

func xlsx(t *testing.T, table core.Table) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, sheet.Encode(&buf, table, "Sheet1"))
	return buf.Bytes()
}

type part struct {
	field, name string
	data        []byte
}

func multipartRequest(t *testing.T, path string, parts []part, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, p := range parts {
		fw, err := mw.CreateFormFile(p.field, p.name)
		require.NoError(t, err)
		_, err = fw.Write(p.data)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func reconcileRequest(t *testing.T) *http.Request {
	return multipartRequest(t, "/api/reconcile", []part{
		{"target", "target.xlsx", xlsx(t, targetTable())},
		{"source", "source.xlsx", xlsx(t, sourceTable())},
	}, nil)
}

func TestReconcile_JSONAndDownload(t *testing.T) {
	s := newTestServer(t)

	rec := serve(s, reconcileRequest(t))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp RunResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, core.Summary{Candidates: 2, Inserted: 1, Skipped: 1, FinalRows: 7}, resp.Run.Summary)
	assert.Equal(t, core.StatusSucceeded, resp.Run.Status)
	assert.Equal(t, "target.xlsx", resp.Run.TargetName)
	assert.Equal(t, "source.xlsx", resp.Run.SourceName)
	assert.Equal(t, resp.Run.ID, rec.Header().Get("X-Run-ID"))

	get := serve(s, httptest.NewRequest(http.MethodGet, "/api/runs/"+resp.Run.ID, nil))
	assert.Equal(t, http.StatusOK, get.Code)

	dl := serve(s, httptest.NewRequest(http.MethodGet, resp.DownloadURL, nil))
	require.Equal(t, http.StatusOK, dl.Code)
	assert.Equal(t, xlsxContentType, dl.Header().Get("Content-Type"))
	assert.Contains(t, dl.Header().Get("Content-Disposition"), "reconcile-"+resp.Run.ID)

	table, err := sheet.Decode(dl.Body)
	require.NoError(t, err)
	require.Len(t, table, 7)

	inserted := table[6]
	assert.Equal(t, "NEW", inserted[0].String())
	assert.Equal(t, "456", inserted[1].String())
	assert.Equal(t, "CarryA", inserted[2].String())
	assert.Equal(t, "S-2", inserted[6].String())
	assert.Equal(t, "456", inserted[7].String())
	assert.True(t, inserted[9].IsNumber())
	assert.Equal(t, "RECONCILED", inserted[17].String())

	// The coerced target cell comes back as a number.
	assert.True(t, table[5][9].IsNumber())
	assert.Equal(t, "1250.5", table[5][9].String())
}

func TestReconcile_MissingSource(t *testing.T) {
	s := newTestServer(t)

	req := multipartRequest(t, "/api/reconcile", []part{
		{"target", "target.xlsx", xlsx(t, targetTable())},
	}, nil)
	rec := serve(s, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "RECON001", resp.Code)
}

func TestReconcile_InvalidWorkbook(t *testing.T) {
	s := newTestServer(t)

	req := multipartRequest(t, "/api/reconcile", []part{
		{"target", "target.xlsx", []byte("not a workbook")},
		{"source", "source.xlsx", xlsx(t, sourceTable())},
	}, nil)
	rec := serve(s, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "FILE002", resp.Code)
}

func TestReconcile_FileTooLarge(t *testing.T) {
	s := newTestServer(t, func(c *config.Config) { c.Upload.MaxFileSize = 64 })

	rec := serve(s, reconcileRequest(t))

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "FILE001", resp.Code)
}

func TestReconcile_NotMultipart(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/reconcile", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json")
	rec := serve(s, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReconcile_HTMXFragment(t *testing.T) {
	s := newTestServer(t)

	req := reconcileRequest(t)
	req.Header.Set("HX-Request", "true")
	rec := serve(s, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Equal(t, "runCompleted", rec.Header().Get("HX-Trigger"))
	body := rec.Body.String()
	assert.Contains(t, body, "2 candidates: 1 inserted, 1 skipped, 7 rows")
	assert.Contains(t, body, "/download")
}

func TestReconcile_HTMXError(t *testing.T) {
	s := newTestServer(t)

	req := multipartRequest(t, "/api/reconcile", nil, map[string]string{"x": "y"})
	req.Header.Set("HX-Request", "true")
	rec := serve(s, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `role="alert"`)
	assert.Contains(t, rec.Body.String(), "RECON001")
}

func mergeFile(banners int, header string, values ...string) core.Table {
	var t core.Table
	for range banners {
		t = append(t, core.RowFromStrings("banner"))
	}
	t = append(t, core.RowFromStrings(header, "Duty"))
	for _, v := range values {
		t = append(t, core.RowFromStrings(v, "-2.5"))
	}
	return t
}

func TestMerge(t *testing.T) {
	s := newTestServer(t)

	req := multipartRequest(t, "/api/merge", []part{
		{"files", "a.xlsx", xlsx(t, mergeFile(3, "Ref", "r1", "r2"))},
		{"files", "b.xlsx", xlsx(t, mergeFile(4, "Ref", "r3"))},
	}, map[string]string{"add_filename": "true"})
	rec := serve(s, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp RunResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, core.RunMerge, resp.Run.Kind)
	assert.Equal(t, []string{"a.xlsx", "b.xlsx"}, resp.Run.Files)
	assert.Equal(t, 4, resp.Run.Summary.FinalRows)
	require.NotNil(t, resp.Report)
	assert.Equal(t, 3, resp.Report.TotalRows)
	assert.Equal(t, "7.5", resp.Report.Duty.String())

	res, err := s.service.Result(resp.Run.ID)
	require.NoError(t, err)
	assert.Equal(t, core.SourceFileHeader, res.Table[0][0].String())
	assert.Equal(t, "b.xlsx", res.Table[3][0].String())
}

func TestMerge_NoFiles(t *testing.T) {
	s := newTestServer(t)

	rec := serve(s, multipartRequest(t, "/api/merge", nil, map[string]string{"add_filename": "true"}))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "FILE004", resp.Code)
}

func TestMerge_TooManyFiles(t *testing.T) {
	s := newTestServer(t, func(c *config.Config) { c.Upload.MaxFiles = 1 })

	data := xlsx(t, mergeFile(3, "Ref", "r1"))
	rec := serve(s, multipartRequest(t, "/api/merge", []part{
		{"files", "a.xlsx", data},
		{"files", "b.xlsx", data},
	}, nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "FILE006", resp.Code)
}

func TestRuns_NotFound(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/api/runs/nope", "/api/runs/nope/download"} {
		rec := serve(s, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusNotFound, rec.Code, path)

		var resp ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "RECON003", resp.Code)
	}
}

func TestListRuns(t *testing.T) {
	s := newTestServer(t)

	empty := serve(s, httptest.NewRequest(http.MethodGet, "/api/runs", nil))
	require.Equal(t, http.StatusOK, empty.Code)
	assert.JSONEq(t, `{"runs":[]}`, empty.Body.String())

	require.Equal(t, http.StatusOK, serve(s, reconcileRequest(t)).Code)

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/api/runs", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Runs []core.RunRecord `json:"runs"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Runs, 1)
	assert.Equal(t, core.RunReconcile, body.Runs[0].Kind)

	htmx := httptest.NewRequest(http.MethodGet, "/api/runs", nil)
	htmx.Header.Set("HX-Request", "true")
	frag := serve(s, htmx)
	assert.Contains(t, frag.Body.String(), "target.xlsx + source.xlsx")
}

func TestIndexAndHealth(t *testing.T) {
	s := newTestServer(t)

	page := serve(s, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, page.Code)
	assert.Contains(t, page.Body.String(), `name="target"`)
	assert.Contains(t, page.Body.String(), "No runs yet.")
	assert.Equal(t, "nosniff", page.Header().Get("X-Content-Type-Options"))

	health := serve(s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, health.Code)
	assert.Contains(t, health.Body.String(), `"status":"ok"`)
}

func TestAPIKeyRequired(t *testing.T) {
	s := newTestServer(t, func(c *config.Config) {
		c.Security.RequireAPIKey = true
		c.Security.APIKeys = []string{"secret"}
	})

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/api/runs", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/runs", nil)
	req.Header.Set("X-API-Key", "secret")
	assert.Equal(t, http.StatusOK, serve(s, req).Code)

	// The page itself stays public.
	assert.Equal(t, http.StatusOK, serve(s, httptest.NewRequest(http.MethodGet, "/", nil)).Code)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{core.ErrMissingInput, http.StatusBadRequest},
		{core.ErrNoFiles, http.StatusBadRequest},
		{core.ErrInvalidLayout, http.StatusInternalServerError},
		{core.ErrRunNotFound, http.StatusNotFound},
		{core.ErrTooManyRuns, http.StatusServiceUnavailable},
		{sheet.ErrNoSheets, http.StatusUnprocessableEntity},
		{errFileTooLarge, http.StatusRequestEntityTooLarge},
		{&http.MaxBytesError{Limit: 1}, http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
