package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/JonMunkholm/ClientClean/internal/logging"
	"github.com/JonMunkholm/ClientClean/internal/phone"
)

// Options configures a Service. Zero values fall back to defaults.
type Options struct {
	ScratchRoot      string        // parent of per-job workspaces; os.TempDir() if empty
	MaxRows          int           // rows per exported chunk
	Format           string        // "xlsx" or "csv"
	CompressionLevel int           // deflate level for the archive, -1..9
	MaxConcurrent    int           // parallel clean jobs
	MaxWait          time.Duration // how long a job waits for a slot
}

// Service runs clean jobs: read, classify, chunk, write, archive.
// It is safe for concurrent use; each job has its own workspace.
type Service struct {
	table   *phone.Table
	writer  ChunkWriter
	opts    Options
	limiter *JobLimiter
}

// NewService builds a Service around a validated country-code table.
func NewService(table *phone.Table, opts Options) (*Service, error) {
	if table == nil {
		return nil, errors.New("country code table is required")
	}
	writer, err := NewChunkWriter(opts.Format)
	if err != nil {
		return nil, err
	}
	if opts.ScratchRoot == "" {
		opts.ScratchRoot = os.TempDir()
	}
	if opts.MaxRows <= 0 {
		opts.MaxRows = DefaultMaxRows
	}

	return &Service{
		table:   table,
		writer:  writer,
		opts:    opts,
		limiter: NewJobLimiter(opts.MaxConcurrent, opts.MaxWait),
	}, nil
}

// Table returns the active country-code table.
func (s *Service) Table() *phone.Table { return s.table }

// Codes describes the active table entries in match order.
func (s *Service) Codes() []CodeInfo { return codeInfos(s.table) }

// MaxRows returns the configured chunk size.
func (s *Service) MaxRows() int { return s.opts.MaxRows }

// LimiterStatus reports job slot usage.
func (s *Service) LimiterStatus() LimiterStatus { return s.limiter.Status() }

// WaitForJobs blocks until running jobs finish or ctx ends.
func (s *Service) WaitForJobs(ctx context.Context) error { return s.limiter.WaitForDrain(ctx) }

// CleanRequest is one uploaded sheet and the columns to read from it.
type CleanRequest struct {
	FileName     string
	Body         io.Reader
	NameColumn   string
	NumberColumn string
	Progress     ProgressCallback // optional
}

// Report is the classification outcome without any files.
type Report struct {
	Summary  Summary
	Rejected []RejectedRow
}

// CleanResult is a finished job. The archive lives in the job's workspace
// until Release is called; callers must call Release exactly once.
type CleanResult struct {
	Report
	ArchivePath string

	workspace *Workspace
}

// Open opens the archive for reading.
func (r *CleanResult) Open() (*os.File, error) {
	return os.Open(r.ArchivePath)
}

// Release deletes the job's workspace, archive included.
func (r *CleanResult) Release() {
	r.workspace.Release()
}

// Clean runs a full job and leaves the archive in a fresh workspace.
// On error nothing is left on disk.
func (s *Service) Clean(ctx context.Context, req CleanRequest) (*CleanResult, error) {
	start := time.Now()

	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	ws, err := NewWorkspace(s.opts.ScratchRoot)
	if err != nil {
		return nil, err
	}
	log := logging.WithFields(ctx, "job_id", ws.ID, "file", req.FileName)
	log.Info("clean started")

	report := func(p CleanProgress) {
		p.FileName = req.FileName
		if req.Progress != nil {
			req.Progress(p)
		}
	}

	result, err := s.clean(ctx, req, ws, log, report)
	if err != nil {
		ws.Release()
		report(CleanProgress{Phase: PhaseFailed, Error: err.Error()})
		log.Warn("clean failed", "error", err)
		return nil, err
	}

	result.Summary.Duration = time.Since(start)
	report(CleanProgress{Phase: PhaseComplete, ChunksWritten: result.Summary.Chunks, ChunksTotal: result.Summary.Chunks})
	log.Info("clean completed",
		"total", result.Summary.Total,
		"valid", result.Summary.Valid,
		"rejected", result.Summary.Rejected,
		"duplicates", result.Summary.Duplicates,
		"chunks", result.Summary.Chunks,
		"duration_ms", result.Summary.Duration.Milliseconds(),
	)
	return result, nil
}

func (s *Service) clean(ctx context.Context, req CleanRequest, ws *Workspace, log *slog.Logger, report func(CleanProgress)) (*CleanResult, error) {
	report(CleanProgress{Phase: PhaseReading})
	rows, err := s.read(req)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	report(CleanProgress{Phase: PhaseClassifying})
	classified := Classify(rows, s.table)
	chunks := Chunk(classified.Valid, s.opts.MaxRows)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	files := make([]ChunkFile, 0, len(chunks))
	for _, chunk := range chunks {
		report(CleanProgress{Phase: PhaseWriting, ChunksWritten: len(files), ChunksTotal: len(chunks)})
		cf, err := s.writeChunk(ws, chunk)
		if err != nil {
			return nil, err
		}
		files = append(files, cf)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	report(CleanProgress{Phase: PhaseArchiving, ChunksWritten: len(files), ChunksTotal: len(chunks)})
	archivePath := ws.Path(ArchiveName)
	if err := s.writeArchive(log, archivePath, files); err != nil {
		return nil, err
	}

	return &CleanResult{
		Report:      s.report(req.FileName, classified, len(chunks)),
		ArchivePath: archivePath,
		workspace:   ws,
	}, nil
}

// Preview reads and classifies a sheet without writing any files.
func (s *Service) Preview(ctx context.Context, req CleanRequest) (*Report, error) {
	start := time.Now()

	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	rows, err := s.read(req)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	classified := Classify(rows, s.table)
	r := s.report(req.FileName, classified, ChunkCount(len(classified.Valid), s.opts.MaxRows))
	r.Summary.Duration = time.Since(start)

	logging.FromContext(ctx).Debug("preview completed", "file", req.FileName, "valid", r.Summary.Valid)
	return &r, nil
}

func (s *Service) read(req CleanRequest) ([]RawRecord, error) {
	if req.Body == nil {
		return nil, ErrNoFile
	}
	sheet, err := ReadSheet(req.FileName, req.Body)
	if err != nil {
		return nil, err
	}
	return sheet.Records(req.NameColumn, req.NumberColumn)
}

func (s *Service) report(fileName string, c ClassificationResult, chunks int) Report {
	return Report{
		Summary: Summary{
			FileName:   fileName,
			Total:      c.Total,
			Valid:      len(c.Valid),
			Rejected:   len(c.Rejected),
			Duplicates: c.Duplicates,
			Chunks:     chunks,
			ByCountry:  CountByCountry(c.Valid, s.table),
		},
		Rejected: c.Rejected,
	}
}

func (s *Service) writeChunk(ws *Workspace, chunk ExportChunk) (ChunkFile, error) {
	cf := ChunkFile{Index: chunk.Index, Ext: s.writer.Ext()}
	cf.Path = ws.Path(cf.Name())

	f, err := os.Create(cf.Path)
	if err != nil {
		return cf, fmt.Errorf("create chunk %d: %w", chunk.Index, err)
	}
	if err := s.writer.WriteChunk(f, chunk); err != nil {
		f.Close()
		return cf, fmt.Errorf("write chunk %d: %w", chunk.Index, err)
	}
	if err := f.Close(); err != nil {
		return cf, fmt.Errorf("close chunk %d: %w", chunk.Index, err)
	}
	return cf, nil
}

func (s *Service) writeArchive(log *slog.Logger, path string, files []ChunkFile) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create archive: %w", err)
	}
	if err := BuildArchive(f, files, s.opts.CompressionLevel); err != nil {
		f.Close()
		return fmt.Errorf("build archive: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close archive: %w", err)
	}
	log.Debug("archive written", "path", path, "members", len(files))
	return nil
}
