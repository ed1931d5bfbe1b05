package core

import (
	"time"

	"github.com/JonMunkholm/ClientClean/internal/phone"
)

// Cell is one raw spreadsheet value. Present is false when the cell is
// absent or blank, which is the sheet's "missing" marker.
type Cell struct {
	Value   string
	Present bool
}

// NewCell builds a Cell from text, marking whitespace-only text as missing.
func NewCell(v string) Cell {
	return Cell{Value: v, Present: !isBlank(v)}
}

// RawRecord is one data row as read from the sheet.
type RawRecord struct {
	Line   int // 1-based sheet row, header is line 1
	Name   Cell
	Number Cell
}

// NormalizedRecord is a row that survived classification. Both fields are
// non-empty and Number is a canonical digits-only international number.
type NormalizedRecord struct {
	Name   string `json:"name"`
	Number string `json:"number"`
}

// Reasons attached to rejected rows.
const (
	ReasonEmptyName     = "empty name"
	ReasonInvalidNumber = "invalid number"
)

// RejectedRow is an input row dropped by classification, kept with its raw cells.
type RejectedRow struct {
	RawRecord
	Reason string
}

// ClassificationResult partitions the input rows.
//
// Rejected holds rows dropped for an empty name or an unusable number, in
// input order. Duplicates counts rows equal to an earlier valid row; they
// appear in neither Valid nor Rejected.
type ClassificationResult struct {
	Valid      []NormalizedRecord
	Rejected   []RejectedRow
	Total      int
	Duplicates int
}

// ExportChunk is one contiguous slice of the valid rows.
type ExportChunk struct {
	Index int // 1-based
	Rows  []NormalizedRecord
}

// CountryCount is the number of valid rows under one dial code.
type CountryCount struct {
	Prefix string `json:"prefix"`
	Region string `json:"region"`
	Count  int    `json:"count"`
}

// Summary reports the outcome of a clean job.
type Summary struct {
	FileName   string         `json:"file_name"`
	Total      int            `json:"total"`
	Valid      int            `json:"valid"`
	Rejected   int            `json:"rejected"`
	Duplicates int            `json:"duplicates"`
	Chunks     int            `json:"chunks"`
	ByCountry  []CountryCount `json:"by_country"`
	Duration   time.Duration  `json:"-"`
}

// CleanPhase represents the current phase of a clean job.
type CleanPhase string

const (
	PhaseReading     CleanPhase = "reading"
	PhaseClassifying CleanPhase = "classifying"
	PhaseWriting     CleanPhase = "writing"
	PhaseArchiving   CleanPhase = "archiving"
	PhaseComplete    CleanPhase = "complete"
	PhaseFailed      CleanPhase = "failed"
)

// CleanProgress is reported to a ProgressCallback as a job advances.
type CleanProgress struct {
	Phase         CleanPhase
	FileName      string
	ChunksWritten int
	ChunksTotal   int
	Error         string // Non-empty if Phase is PhaseFailed
}

// Percent returns chunk progress as 0-100. Phases before writing report 0.
func (p CleanProgress) Percent() int {
	switch {
	case p.Phase == PhaseComplete, p.Phase == PhaseArchiving:
		return 100
	case p.ChunksTotal > 0:
		return (p.ChunksWritten * 100) / p.ChunksTotal
	default:
		return 0
	}
}

// ProgressCallback is called as a clean job moves between phases and chunks.
type ProgressCallback func(CleanProgress)

// CodeInfo describes one active country-code table entry.
type CodeInfo struct {
	Prefix string `json:"prefix"`
	Length int    `json:"length"`
	Region string `json:"region"`
}

func codeInfos(t *phone.Table) []CodeInfo {
	entries := t.Entries()
	out := make([]CodeInfo, len(entries))
	for i, e := range entries {
		out[i] = CodeInfo{Prefix: e.Prefix, Length: e.Length, Region: phone.Region(e.Prefix)}
	}
	return out
}
