package web

import (
	"bytes"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/JonMunkholm/recon/internal/core"
	"github.com/JonMunkholm/recon/internal/logging"
	"github.com/JonMunkholm/recon/internal/sheet"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	// multipartMemory is the part of a multipart body kept in memory; the
	// rest spills to temporary files.
	multipartMemory = 32 << 20

	// decodeWorkers bounds parallel workbook decoding per request.
	decodeWorkers = 4
)

// RunResponse is the JSON body returned for a finished run.
type RunResponse struct {
	Run         core.RunRecord `json:"run"`
	Report      *core.Report   `json:"report,omitempty"`
	Description string         `json:"description"`
	DownloadURL string         `json:"downloadUrl"`
}

func newRunResponse(res *core.RunResult) RunResponse {
	desc := res.Record.Summary.Describe()
	if res.Record.Kind == core.RunMerge {
		desc = core.FormatCount(res.Record.Summary.FinalRows) + " rows"
	}
	return RunResponse{
		Run:         res.Record,
		Report:      res.Report,
		Description: desc,
		DownloadURL: "/api/runs/" + res.Record.ID + "/download",
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	runs, err := s.service.History(r.Context())
	if err != nil {
		// The page stays usable without history.
		logging.FromContext(r.Context()).Warn("load run history", "error", err)
		runs = nil
	}
	templ.Handler(indexPage(runs)).ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"limiter": s.service.LimiterStatus(),
	})
}

// handleReconcile accepts multipart fields "target" and "source".
func (s *Server) handleReconcile(w http.ResponseWriter, r *http.Request) {
	if err := s.parseUpload(w, r, 2); err != nil {
		s.respondError(w, r, err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	var target, source core.NamedTable
	g, _ := errgroup.WithContext(r.Context())
	g.Go(func() (err error) {
		target, err = s.readField(r, "target")
		return err
	})
	g.Go(func() (err error) {
		source, err = s.readField(r, "source")
		return err
	})
	if err := g.Wait(); err != nil {
		s.respondError(w, r, err)
		return
	}

	res, err := s.service.Reconcile(withRequestMetadata(r.Context(), r), core.ReconcileInput{
		TargetName: target.Name,
		SourceName: source.Name,
		Target:     target.Table,
		Source:     source.Table,
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.respondRun(w, r, res)
}

// handleMerge accepts one or more multipart "files" and an optional
// "add_filename" flag.
func (s *Server) handleMerge(w http.ResponseWriter, r *http.Request) {
	if err := s.parseUpload(w, r, s.cfg.Upload.MaxFiles); err != nil {
		s.respondError(w, r, err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		s.respondError(w, r, fmt.Errorf("%w: files", core.ErrNoFiles))
		return
	}
	if len(headers) > s.cfg.Upload.MaxFiles {
		s.respondError(w, r, fmt.Errorf("%w: %d > %d", core.ErrTooManyFiles, len(headers), s.cfg.Upload.MaxFiles))
		return
	}

	addFileName, _ := strconv.ParseBool(r.FormValue("add_filename"))

	files := make([]core.NamedTable, len(headers))
	g, _ := errgroup.WithContext(r.Context())
	g.SetLimit(decodeWorkers)
	for i, fh := range headers {
		g.Go(func() (err error) {
			files[i], err = s.readPart(fh)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		s.respondError(w, r, err)
		return
	}

	res, err := s.service.Merge(withRequestMetadata(r.Context(), r), core.MergeInput{
		Files:       files,
		AddFileName: addFileName,
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.respondRun(w, r, res)
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := s.service.History(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if isHTMX(r) {
		templ.Handler(runsTable(runs)).ServeHTTP(w, r)
		return
	}
	if runs == nil {
		runs = []core.RunRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	res, err := s.service.Result(chi.URLParam(r, "runID"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondRun(w, r, res)
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	res, err := s.service.Result(chi.URLParam(r, "runID"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := sheet.Encode(&buf, res.Table, s.service.SheetName()); err != nil {
		s.respondError(w, r, err)
		return
	}

	filename := fmt.Sprintf("%s-%s.xlsx", res.Record.Kind, res.Record.ID)
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Header().Set("X-Run-ID", res.Record.ID)
	if _, err := buf.WriteTo(w); err != nil {
		logging.FromContext(r.Context()).Warn("write download", "error", err, "run_id", res.Record.ID)
	}
}

// respondRun writes a finished run as a fragment for HTMX or as JSON.
func (s *Server) respondRun(w http.ResponseWriter, r *http.Request, res *core.RunResult) {
	w.Header().Set("X-Run-ID", res.Record.ID)
	if isHTMX(r) {
		w.Header().Set("HX-Trigger", "runCompleted")
		templ.Handler(resultFragment(res)).ServeHTTP(w, r)
		return
	}
	writeJSON(w, http.StatusOK, newRunResponse(res))
}

// parseUpload caps the body at files workbooks plus form overhead and
// parses the multipart form.
func (s *Server) parseUpload(w http.ResponseWriter, r *http.Request, files int) error {
	limit := s.cfg.Upload.MaxFileSize*int64(max(files, 1)) + 1<<20
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			return err
		}
		if errors.Is(err, http.ErrNotMultipart) {
			return fmt.Errorf("%w: expected multipart form", core.ErrNoFiles)
		}
		return fmt.Errorf("parse upload: %w", err)
	}
	return nil
}

// readField decodes the single workbook uploaded under field.
func (s *Server) readField(r *http.Request, field string) (core.NamedTable, error) {
	headers := r.MultipartForm.File[field]
	if len(headers) == 0 {
		return core.NamedTable{}, fmt.Errorf("%w: %s", core.ErrMissingInput, field)
	}
	return s.readPart(headers[0])
}

func (s *Server) readPart(fh *multipart.FileHeader) (core.NamedTable, error) {
	if fh.Size > s.cfg.Upload.MaxFileSize {
		return core.NamedTable{}, fmt.Errorf("%w: %s", errFileTooLarge, fh.Filename)
	}

	f, err := fh.Open()
	if err != nil {
		return core.NamedTable{}, fmt.Errorf("open %s: %w", fh.Filename, err)
	}
	defer f.Close()

	table, err := sheet.Decode(f)
	if err != nil {
		return core.NamedTable{}, fmt.Errorf("%s: %w", fh.Filename, err)
	}
	return core.NamedTable{Name: fh.Filename, Table: table}, nil
}
