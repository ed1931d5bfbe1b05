package web

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/JonMunkholm/ClientClean/internal/core"
	"github.com/JonMunkholm/ClientClean/internal/logging"
	"github.com/JonMunkholm/ClientClean/internal/web/templates"
)

// multipartMemory is how much of an upload is buffered in memory before
// spilling to a temp file.
const multipartMemory = 8 << 20

// handleIndex renders the upload form.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.Index(s.formState(r)).Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render index", "error", err)
	}
}

// handleClean runs a job and streams the archive back as an attachment.
func (s *Server) handleClean(w http.ResponseWriter, r *http.Request) {
	req, done, err := s.parseJob(w, r)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	defer done()

	res, err := s.service.Clean(r.Context(), req)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	defer res.Release()

	f, err := res.Open()
	if err != nil {
		s.respondError(w, r, fmt.Errorf("open archive: %w", err), http.StatusInternalServerError)
		return
	}
	defer f.Close()

	h := w.Header()
	h.Set("Content-Type", "application/zip")
	h.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", core.ArchiveName))
	if info, err := f.Stat(); err == nil {
		h.Set("Content-Length", strconv.FormatInt(info.Size(), 10))
	}
	setSummaryHeaders(h, res.Summary)
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, f); err != nil {
		logging.FromContext(r.Context()).Warn("archive download interrupted", "error", err)
	}
}

// handlePreview classifies the upload and renders the summary page.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	req, done, err := s.parseJob(w, r)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	defer done()

	report, err := s.service.Preview(r.Context(), req)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	setSummaryHeaders(w.Header(), report.Summary)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.Summary(report, s.formState(r)).Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render summary", "error", err)
	}
}

// handleRejected classifies the upload and returns the rejected rows as CSV.
func (s *Server) handleRejected(w http.ResponseWriter, r *http.Request) {
	req, done, err := s.parseJob(w, r)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	defer done()

	report, err := s.service.Preview(r.Context(), req)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	h := w.Header()
	h.Set("Content-Type", "text/csv; charset=utf-8")
	h.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", core.RejectedFileName(time.Now())))
	setSummaryHeaders(h, report.Summary)
	w.WriteHeader(http.StatusOK)

	if err := core.WriteRejectedCSV(w, report.Rejected); err != nil {
		logging.FromContext(r.Context()).Warn("rejected export interrupted", "error", err)
	}
}

// cleanResponse is the JSON body of POST /api/clean.
type cleanResponse struct {
	Summary  core.Summary  `json:"summary"`
	Rejected []rejectedRow `json:"rejected"`
}

type rejectedRow struct {
	Line   int    `json:"line"`
	Name   string `json:"name"`
	Number string `json:"number"`
	Reason string `json:"reason"`
}

// handleAPIClean runs a job and reports the outcome as JSON.
func (s *Server) handleAPIClean(w http.ResponseWriter, r *http.Request) {
	req, done, err := s.parseJob(w, r)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	defer done()

	res, err := s.service.Clean(r.Context(), req)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	defer res.Release()

	body := cleanResponse{
		Summary:  res.Summary,
		Rejected: make([]rejectedRow, len(res.Rejected)),
	}
	for i, row := range res.Rejected {
		body.Rejected[i] = rejectedRow{
			Line:   row.Line,
			Name:   row.Name.Value,
			Number: row.Number.Value,
			Reason: row.Reason,
		}
	}
	writeJSON(w, http.StatusOK, body)
}

// handleCodes lists the active country-code table.
func (s *Server) handleCodes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"codes":        s.service.Codes(),
		"local_prefix": s.service.Table().LocalPrefix(),
		"max_rows":     s.service.MaxRows(),
	})
}

// handleHealth reports liveness and job slot usage.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"jobs":   s.service.LimiterStatus(),
	})
}

// parseJob reads the multipart form into a CleanRequest. The returned func
// closes the file and removes any multipart temp files.
func (s *Server) parseJob(w http.ResponseWriter, r *http.Request) (core.CleanRequest, func(), error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Upload.MaxFileSize)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return core.CleanRequest{}, nil, fmt.Errorf("%w: limit is %d bytes", errFileTooLarge, maxErr.Limit)
		case strings.Contains(err.Error(), "request body too large"):
			return core.CleanRequest{}, nil, fmt.Errorf("%w: limit is %d bytes", errFileTooLarge, s.cfg.Upload.MaxFileSize)
		case errors.Is(err, http.ErrNotMultipart):
			return core.CleanRequest{}, nil, core.ErrNoFile
		default:
			return core.CleanRequest{}, nil, fmt.Errorf("read upload: %w", err)
		}
	}

	cleanupForm := func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			slog.Warn("failed to remove multipart temp files", "error", err)
		}
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		cleanupForm()
		if errors.Is(err, http.ErrMissingFile) {
			return core.CleanRequest{}, nil, core.ErrNoFile
		}
		return core.CleanRequest{}, nil, fmt.Errorf("read upload: %w", err)
	}

	req := core.CleanRequest{
		FileName:     header.Filename,
		Body:         file,
		NameColumn:   r.FormValue("name_col"),
		NumberColumn: r.FormValue("number_col"),
	}
	return req, func() {
		file.Close()
		cleanupForm()
	}, nil
}

// formState fills the upload form, echoing back submitted column names.
// It never parses the body itself.
func (s *Server) formState(r *http.Request) templates.FormState {
	fs := templates.FormState{
		MaxRows: s.service.MaxRows(),
		Codes:   s.service.Codes(),
	}
	if r.MultipartForm != nil {
		fs.NameColumn = firstValue(r.MultipartForm.Value["name_col"])
		fs.NumberColumn = firstValue(r.MultipartForm.Value["number_col"])
	}
	return fs
}

func setSummaryHeaders(h http.Header, s core.Summary) {
	h.Set("X-Rows-Total", strconv.Itoa(s.Total))
	h.Set("X-Rows-Valid", strconv.Itoa(s.Valid))
	h.Set("X-Rows-Rejected", strconv.Itoa(s.Rejected))
	h.Set("X-Rows-Duplicate", strconv.Itoa(s.Duplicates))
}

func firstValue(vs []string) string {
	if len(vs) == 0 {
		return ""
	}
	return vs[0]
}
