package core

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"
)

// rejectedHeader is the header of the rejected-rows export.
var rejectedHeader = []string{"_line", "_reason", "name", "number"}

// RejectedFileName names a rejected-rows export made at t.
func RejectedFileName(t time.Time) string {
	return fmt.Sprintf("rejected_rows_%s.csv", t.Format("20060102_150405"))
}

// WriteRejectedCSV writes rows as CSV with their source line and reason
// first. Values are written as read, so a fixed sheet can be re-uploaded.
func WriteRejectedCSV(w io.Writer, rows []RejectedRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(rejectedHeader); err != nil {
		return fmt.Errorf("write rejected header: %w", err)
	}
	for _, r := range rows {
		record := []string{strconv.Itoa(r.Line), r.Reason, r.Name.Value, r.Number.Value}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write rejected line %d: %w", r.Line, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
