package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/ClientClean/internal/core"
)

type cleanFlags struct {
	nameCol      string
	numberCol    string
	out          string
	maxRows      int
	format       string
	quiet        bool
	showRejected bool
	rejectedOut  string
}

func (a *app) cleanCmd() *cobra.Command {
	f := &cleanFlags{}

	cmd := &cobra.Command{
		Use:   "clean <file>",
		Short: "Clean a spreadsheet and write the chunked archive",
		Long: `Reads the name and number columns of an .xlsx or .csv file, normalizes
the numbers against the country code table and writes the accepted rows
to a zip of chunk files.

--max-rows and --format default to EXPORT_MAX_ROWS and EXPORT_FORMAT.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runClean(cmd, args[0], f)
		},
	}

	cmd.Flags().StringVar(&f.nameCol, "name-col", "name", "header of the name column")
	cmd.Flags().StringVar(&f.numberCol, "number-col", "number", "header of the number column")
	cmd.Flags().StringVarP(&f.out, "out", "o", core.ArchiveName, "where to write the archive")
	cmd.Flags().IntVar(&f.maxRows, "max-rows", core.DefaultMaxRows, "rows per chunk file")
	cmd.Flags().StringVar(&f.format, "format", core.FormatXLSX, "chunk file format (xlsx, csv)")
	cmd.Flags().BoolVarP(&f.quiet, "quiet", "q", false, "do not show a progress bar")
	cmd.Flags().BoolVar(&f.showRejected, "show-rejected", false, "list rejected rows after the summary")
	cmd.Flags().StringVar(&f.rejectedOut, "rejected-out", "", "also write rejected rows to this CSV file")

	return cmd
}

func (a *app) runClean(cmd *cobra.Command, path string, f *cleanFlags) error {
	opts := core.Options{
		ScratchRoot:      a.cfg.Scratch.ScratchRoot(),
		MaxRows:          a.cfg.Export.MaxRows,
		Format:           a.cfg.Export.Format,
		CompressionLevel: a.cfg.Export.CompressionLevel,
		MaxConcurrent:    1,
	}
	if cmd.Flags().Changed("max-rows") {
		opts.MaxRows = f.maxRows
	}
	if cmd.Flags().Changed("format") {
		opts.Format = f.format
	}
	if opts.MaxRows <= 0 {
		return fmt.Errorf("--max-rows must be positive, got %d", opts.MaxRows)
	}

	service, err := core.NewService(a.table, opts)
	if err != nil {
		return err
	}

	in, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer in.Close()

	req := core.CleanRequest{
		FileName:     filepath.Base(path),
		Body:         in,
		NameColumn:   f.nameCol,
		NumberColumn: f.numberCol,
	}
	if !f.quiet {
		req.Progress = newProgress(cmd.ErrOrStderr()).update
	}

	res, err := service.Clean(cmd.Context(), req)
	if err != nil {
		return describe(err)
	}
	defer res.Release()

	if err := copyArchive(res, f.out); err != nil {
		return err
	}

	if f.rejectedOut != "" {
		if err := writeRejected(res.Rejected, f.rejectedOut); err != nil {
			return err
		}
	}

	w := cmd.OutOrStdout()
	printSummary(w, res.Summary, f.out)
	if f.showRejected {
		printRejected(w, res.Rejected)
	}
	return nil
}

// describe turns a job error into the same message the web UI shows,
// keeping the cause for errors.Is.
func describe(err error) error {
	return &userError{msg: core.FormatUserError(err), err: err}
}

type userError struct {
	msg string
	err error
}

func (e *userError) Error() string { return e.msg }
func (e *userError) Unwrap() error { return e.err }

func copyArchive(res *core.CleanResult, dst string) error {
	src, err := res.Open()
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer src.Close()

	if dir := filepath.Dir(dst); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		return fmt.Errorf("write output: %w", err)
	}
	return out.Close()
}

func writeRejected(rows []core.RejectedRow, dst string) error {
	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create rejected file: %w", err)
	}
	if err := core.WriteRejectedCSV(out, rows); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func printSummary(w io.Writer, s core.Summary, archive string) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "File:\t%s\n", s.FileName)
	fmt.Fprintf(tw, "Rows:\t%d\n", s.Total)
	fmt.Fprintf(tw, "Valid:\t%d\n", s.Valid)
	fmt.Fprintf(tw, "Rejected:\t%d\n", s.Rejected)
	fmt.Fprintf(tw, "Duplicates:\t%d\n", s.Duplicates)
	fmt.Fprintf(tw, "Chunks:\t%d\n", s.Chunks)
	for _, c := range s.ByCountry {
		if c.Count > 0 {
			fmt.Fprintf(tw, "  +%s %s\t%d\n", c.Prefix, c.Region, c.Count)
		}
	}
	fmt.Fprintf(tw, "Archive:\t%s\n", archive)
	if err := tw.Flush(); err != nil {
		slog.Warn("failed to write summary", "error", err)
	}
}

func printRejected(w io.Writer, rows []core.RejectedRow) {
	if len(rows) == 0 {
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "\nLINE\tNAME\tNUMBER\tREASON")
	for _, r := range rows {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", r.Line, r.Name.Value, r.Number.Value, r.Reason)
	}
	if err := tw.Flush(); err != nil {
		slog.Warn("failed to write rejected rows", "error", err)
	}
}

// progress drives a bar over chunk writes. The bar is created on the first
// writing event, when the chunk count is known.
type progress struct {
	w   io.Writer
	bar *progressbar.ProgressBar
}

func newProgress(w io.Writer) *progress {
	return &progress{w: w}
}

func (p *progress) update(ev core.CleanProgress) {
	switch ev.Phase {
	case core.PhaseWriting, core.PhaseArchiving, core.PhaseComplete:
		if p.bar == nil {
			p.bar = progressbar.NewOptions(ev.ChunksTotal,
				progressbar.OptionSetWriter(p.w),
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionShowCount(),
				progressbar.OptionShowElapsedTimeOnFinish(),
				progressbar.OptionSetWidth(40),
				progressbar.OptionSetDescription("[cyan][bold]Writing chunks...[reset]"),
				progressbar.OptionSetTheme(progressbar.Theme{
					Saucer:        "[green]=[reset]",
					SaucerHead:    "[green]>[reset]",
					SaucerPadding: " ",
					BarStart:      "[",
					BarEnd:        "]",
				}),
				progressbar.OptionOnCompletion(func() {
					fmt.Fprintln(p.w)
				}),
			)
		}
		if err := p.bar.Set(ev.ChunksWritten); err != nil {
			slog.Warn("failed to update progress bar", "error", err)
		}
		if ev.Phase == core.PhaseComplete {
			if err := p.bar.Finish(); err != nil {
				slog.Warn("failed to finish progress bar", "error", err)
			}
		}
	case core.PhaseFailed:
		if p.bar != nil {
			_ = p.bar.Exit()
		}
	default:
		slog.Debug("clean progress", "phase", ev.Phase, "file", ev.FileName)
	}
}
