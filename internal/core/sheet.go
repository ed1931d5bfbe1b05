package core

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var (
	// ErrNoFile is returned when a request carries no input file.
	ErrNoFile = errors.New("no file provided")

	// ErrUnsupportedFormat is returned for file types the reader cannot parse.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrEmptySheet is returned when the input has no header row.
	ErrEmptySheet = errors.New("empty file: no header row found")

	// ErrUnreadableSheet is returned when a spreadsheet cannot be decoded.
	ErrUnreadableSheet = errors.New("invalid spreadsheet")
)

// ColumnNotFoundError reports requested columns missing from the header row.
type ColumnNotFoundError struct {
	Missing   []string
	Available []string
}

func (e *ColumnNotFoundError) Error() string {
	return fmt.Sprintf("column not found: %s (available: %s)",
		strings.Join(quoteAll(e.Missing), ", "), strings.Join(quoteAll(e.Available), ", "))
}

// Sheet is the first worksheet of an uploaded file.
type Sheet struct {
	Header []string
	rows   []sheetRow
}

type sheetRow struct {
	line   int
	values []string
}

// Len returns the number of data rows.
func (s *Sheet) Len() int { return len(s.rows) }

// Columns returns the trimmed header names.
func (s *Sheet) Columns() []string {
	cols := make([]string, len(s.Header))
	for i, h := range s.Header {
		cols[i] = strings.TrimSpace(h)
	}
	return cols
}

// Records projects the data rows onto the name and number columns.
// Column names match the trimmed header text exactly. Cells beyond the end
// of a short row are returned as missing.
func (s *Sheet) Records(nameCol, numberCol string) ([]RawRecord, error) {
	idx := make(map[string]int, len(s.Header))
	for i, h := range s.Columns() {
		if _, dup := idx[h]; !dup {
			idx[h] = i
		}
	}

	nameCol, numberCol = strings.TrimSpace(nameCol), strings.TrimSpace(numberCol)
	var missing []string
	for _, c := range []string{nameCol, numberCol} {
		if _, ok := idx[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, &ColumnNotFoundError{Missing: missing, Available: s.Columns()}
	}

	ni, pi := idx[nameCol], idx[numberCol]
	records := make([]RawRecord, len(s.rows))
	for i, row := range s.rows {
		records[i] = RawRecord{
			Line:   row.line,
			Name:   row.cell(ni),
			Number: row.cell(pi),
		}
	}
	return records, nil
}

func (r sheetRow) cell(i int) Cell {
	if i >= len(r.values) {
		return Cell{}
	}
	return NewCell(r.values[i])
}

// ReadSheet parses an uploaded file, choosing the decoder by extension.
// Workbooks (.xlsx, .xlsm, .xltx, .xltm) are read from their first sheet
// using raw stored cell values. Delimited text (.csv, .tsv, .txt) may carry
// a UTF-8 or UTF-16 byte order mark.
//
// The first non-empty row is the header. Fully empty rows are skipped.
func ReadSheet(fileName string, r io.Reader) (*Sheet, error) {
	var (
		raw [][]string
		err error
	)

	switch ext := strings.ToLower(filepath.Ext(fileName)); ext {
	case ".xlsx", ".xlsm", ".xltx", ".xltm":
		raw, err = readWorkbook(r)
	case ".csv", ".tsv", ".txt":
		raw, err = readDelimited(r, ext)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Base(fileName))
	}
	if err != nil {
		return nil, err
	}

	return buildSheet(raw)
}

// buildSheet turns raw rows into a Sheet. raw[i] is sheet line i+1.
func buildSheet(raw [][]string) (*Sheet, error) {
	s := &Sheet{}
	headerFound := false

	for i, values := range raw {
		if isEmptyRow(values) {
			continue
		}
		if !headerFound {
			s.Header = values
			headerFound = true
			continue
		}
		s.rows = append(s.rows, sheetRow{line: i + 1, values: values})
	}

	if !headerFound {
		return nil, ErrEmptySheet
	}
	return s, nil
}

func readWorkbook(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableSheet, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptySheet
	}

	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%w: read %q: %v", ErrUnreadableSheet, sheets[0], err)
	}
	return rows, nil
}

// readDelimited decodes text input to UTF-8 (dropping any BOM and replacing
// invalid bytes with U+FFFD) and parses it as delimited records. The result
// is indexed by physical line so multi-line quoted cells keep line numbers.
func readDelimited(r io.Reader, ext string) ([][]string, error) {
	decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	data, err := io.ReadAll(decoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableSheet, err)
	}

	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.Comma = sniffDelimiter(data, ext)

	var rows [][]string
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: invalid csv: %v", ErrUnreadableSheet, err)
		}
		line, _ := cr.FieldPos(0)
		for len(rows) < line-1 {
			rows = append(rows, nil)
		}
		rows = append(rows, rec)
	}
	return rows, nil
}

// sniffDelimiter picks the field separator from the first non-blank line.
// Tab files use tabs. Otherwise a header holding semicolons but no commas,
// as written by Excel in comma-decimal locales, is read with ';'.
func sniffDelimiter(data []byte, ext string) rune {
	if ext == ".tsv" {
		return '\t'
	}

	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		switch {
		case strings.Contains(line, ","):
			return ','
		case strings.Contains(line, ";"):
			return ';'
		case strings.Contains(line, "\t"):
			return '\t'
		}
		return ','
	}
	return ','
}

func isEmptyRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func quoteAll(ss []string) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = fmt.Sprintf("%q", s)
	}
	return out
}
