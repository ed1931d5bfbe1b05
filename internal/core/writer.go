package core

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// exportHeader is the header row of every exported chunk.
var exportHeader = []string{"name", "number"}

// exportSheet is the sheet name used in exported workbooks.
const exportSheet = "Sheet1"

// Supported export formats.
const (
	FormatXLSX = "xlsx"
	FormatCSV  = "csv"
)

// ChunkWriter serializes one chunk as a standalone file.
type ChunkWriter interface {
	// Ext is the file extension without the dot.
	Ext() string
	// WriteChunk writes the header row followed by the chunk's rows.
	WriteChunk(w io.Writer, chunk ExportChunk) error
}

// NewChunkWriter returns the writer for format ("xlsx" or "csv").
func NewChunkWriter(format string) (ChunkWriter, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", FormatXLSX:
		return XLSXWriter{}, nil
	case FormatCSV:
		return CSVWriter{}, nil
	default:
		return nil, fmt.Errorf("%w: export format %q", ErrUnsupportedFormat, format)
	}
}

// ChunkFileName returns the archive member name for a chunk.
func ChunkFileName(index int, ext string) string {
	return fmt.Sprintf("clients_%d.%s", index, ext)
}

// XLSXWriter writes chunks as single-sheet workbooks. Numbers are stored as
// text so leading digits and length survive spreadsheet round trips.
type XLSXWriter struct{}

func (XLSXWriter) Ext() string { return FormatXLSX }

func (XLSXWriter) WriteChunk(w io.Writer, chunk ExportChunk) (err error) {
	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close workbook: %w", cerr)
		}
	}()

	sw, err := f.NewStreamWriter(exportSheet)
	if err != nil {
		return fmt.Errorf("stream writer: %w", err)
	}

	if err := sw.SetRow("A1", []interface{}{exportHeader[0], exportHeader[1]}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, rec := range chunk.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, []interface{}{rec.Name, rec.Number}); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flush sheet: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// CSVWriter writes chunks as comma-separated text.
type CSVWriter struct{}

func (CSVWriter) Ext() string { return FormatCSV }

func (CSVWriter) WriteChunk(w io.Writer, chunk ExportChunk) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, rec := range chunk.Rows {
		if err := cw.Write([]string{rec.Name, rec.Number}); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
