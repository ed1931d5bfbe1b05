package core

import (
	"strings"

	"github.com/JonMunkholm/ClientClean/internal/phone"
)

// Classify splits rows into valid, rejected and duplicate records.
//
// A row is rejected when its trimmed name is empty or its number cannot be
// normalized against table. Survivors are deduplicated on the exact
// (name, number) pair; the first occurrence is kept and later ones are only
// counted. Valid preserves input order.
func Classify(rows []RawRecord, table *phone.Table) ClassificationResult {
	result := ClassificationResult{
		Valid: make([]NormalizedRecord, 0, len(rows)),
		Total: len(rows),
	}
	seen := make(map[NormalizedRecord]struct{}, len(rows))

	for _, row := range rows {
		name := ""
		if row.Name.Present {
			name = strings.TrimSpace(row.Name.Value)
		}
		if name == "" {
			result.Rejected = append(result.Rejected, RejectedRow{RawRecord: row, Reason: ReasonEmptyName})
			continue
		}

		raw := ""
		if row.Number.Present {
			raw = row.Number.Value
		}
		number, ok := table.Normalize(raw)
		if !ok {
			result.Rejected = append(result.Rejected, RejectedRow{RawRecord: row, Reason: ReasonInvalidNumber})
			continue
		}

		rec := NormalizedRecord{Name: name, Number: number}
		if _, dup := seen[rec]; dup {
			result.Duplicates++
			continue
		}
		seen[rec] = struct{}{}
		result.Valid = append(result.Valid, rec)
	}

	return result
}

// CountByCountry tallies valid records per table entry, in table order.
// Entries with no records are included with a zero count.
func CountByCountry(valid []NormalizedRecord, table *phone.Table) []CountryCount {
	entries := table.Entries()
	counts := make([]CountryCount, len(entries))
	for i, e := range entries {
		counts[i] = CountryCount{Prefix: e.Prefix, Region: phone.Region(e.Prefix)}
	}

	for _, rec := range valid {
		e, ok := table.Match(rec.Number)
		if !ok {
			continue
		}
		for i := range counts {
			if counts[i].Prefix == e.Prefix {
				counts[i].Count++
				break
			}
		}
	}
	return counts
}
