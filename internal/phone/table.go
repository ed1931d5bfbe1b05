// Package phone normalizes raw spreadsheet phone cells into canonical
// international numbers: digits only, starting with a known dial code and
// exactly as long as that code requires.
//
// Validation is structural. A number is accepted when, after the local and
// international-prefix corrections, it matches one [Entry] of a [Table] by
// both prefix and total length. No carrier or reachability lookup is done.
package phone

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// ErrInvalidTable is wrapped by every table validation failure.
var ErrInvalidTable = errors.New("invalid country code table")

// DefaultLocalPrefix is the dial code prepended to 11-digit local numbers
// written with a leading "01".
const DefaultLocalPrefix = "20"

// maxNumberLength is the E.164 upper bound on digits in a number.
const maxNumberLength = 15

// unknownRegion is what phonenumbers reports for unassigned calling codes.
const unknownRegion = "ZZ"

// Entry is one accepted dial code and the total digit count numbers
// under it must have, country code included.
type Entry struct {
	Prefix string
	Length int
}

// String renders the entry in the prefix:length form used by configuration.
func (e Entry) String() string {
	return e.Prefix + ":" + strconv.Itoa(e.Length)
}

// DefaultEntries is the stock table, in match order.
var DefaultEntries = []Entry{
	{Prefix: "20", Length: 12},
	{Prefix: "966", Length: 12},
	{Prefix: "971", Length: 12},
	{Prefix: "962", Length: 12},
	{Prefix: "965", Length: 11},
	{Prefix: "212", Length: 12},
	{Prefix: "213", Length: 12},
	{Prefix: "216", Length: 12},
	{Prefix: "1", Length: 11},
}

// Table is a validated, ordered set of dial code entries.
// A Table is immutable and safe for concurrent use.
type Table struct {
	entries     []Entry
	localPrefix string
}

// NewTable validates entries and returns a Table that matches them in the
// given order. localPrefix defaults to DefaultLocalPrefix when empty.
//
// Tables where two entries could both accept the same number (same length,
// one prefix a prefix of the other) are rejected rather than resolved by order.
func NewTable(entries []Entry, localPrefix string) (*Table, error) {
	if localPrefix == "" {
		localPrefix = DefaultLocalPrefix
	}
	if !isDigits(localPrefix) {
		return nil, fmt.Errorf("%w: local prefix %q must be digits", ErrInvalidTable, localPrefix)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: no entries", ErrInvalidTable)
	}

	for i, e := range entries {
		if err := validateEntry(e); err != nil {
			return nil, fmt.Errorf("%w: entry %d (%s): %v", ErrInvalidTable, i+1, e, err)
		}
		for j := 0; j < i; j++ {
			prev := entries[j]
			if prev.Prefix == e.Prefix {
				return nil, fmt.Errorf("%w: duplicate prefix %q", ErrInvalidTable, e.Prefix)
			}
			if prev.Length == e.Length &&
				(strings.HasPrefix(prev.Prefix, e.Prefix) || strings.HasPrefix(e.Prefix, prev.Prefix)) {
				return nil, fmt.Errorf("%w: %s and %s overlap", ErrInvalidTable, prev, e)
			}
		}
	}

	// Assigned calling codes are prefix-free, so this runs after the overlap
	// check to keep its message specific.
	for _, e := range entries {
		if Region(e.Prefix) == unknownRegion {
			return nil, fmt.Errorf("%w: %q is not an assigned country calling code", ErrInvalidTable, e.Prefix)
		}
	}

	return &Table{
		entries:     append([]Entry(nil), entries...),
		localPrefix: localPrefix,
	}, nil
}

// MustNewTable is like NewTable but panics on error.
func MustNewTable(entries []Entry, localPrefix string) *Table {
	t, err := NewTable(entries, localPrefix)
	if err != nil {
		panic(err)
	}
	return t
}

// DefaultTable returns a Table built from DefaultEntries.
func DefaultTable() *Table {
	return MustNewTable(DefaultEntries, DefaultLocalPrefix)
}

// ParseEntries parses "prefix:length" specs, as found in EXPORT_COUNTRY_CODES.
func ParseEntries(specs []string) ([]Entry, error) {
	entries := make([]Entry, 0, len(specs))
	for _, spec := range specs {
		spec = strings.TrimSpace(spec)
		if spec == "" {
			continue
		}
		prefix, length, ok := strings.Cut(spec, ":")
		if !ok {
			return nil, fmt.Errorf("%w: %q is not prefix:length", ErrInvalidTable, spec)
		}
		n, err := strconv.Atoi(strings.TrimSpace(length))
		if err != nil {
			return nil, fmt.Errorf("%w: %q has a non-numeric length", ErrInvalidTable, spec)
		}
		entries = append(entries, Entry{Prefix: strings.TrimSpace(prefix), Length: n})
	}
	return entries, nil
}

// ParseTable parses specs and validates the resulting table.
func ParseTable(specs []string, localPrefix string) (*Table, error) {
	entries, err := ParseEntries(specs)
	if err != nil {
		return nil, err
	}
	return NewTable(entries, localPrefix)
}

// Entries returns a copy of the table entries in match order.
func (t *Table) Entries() []Entry {
	return append([]Entry(nil), t.entries...)
}

// LocalPrefix returns the dial code used for local-format correction.
func (t *Table) LocalPrefix() string {
	return t.localPrefix
}

// Match returns the first entry whose prefix starts number and whose
// length equals len(number).
func (t *Table) Match(number string) (Entry, bool) {
	for _, e := range t.entries {
		if len(number) == e.Length && strings.HasPrefix(number, e.Prefix) {
			return e, true
		}
	}
	return Entry{}, false
}

// Region returns the main ISO region for a dial code prefix, e.g. "EG" for "20".
// Non-geographic codes report "001"; unknown codes report "ZZ".
func Region(prefix string) string {
	code, err := strconv.Atoi(prefix)
	if err != nil {
		return unknownRegion
	}
	return phonenumbers.GetRegionCodeForCountryCode(code)
}

func validateEntry(e Entry) error {
	if e.Prefix == "" || !isDigits(e.Prefix) {
		return errors.New("prefix must be a non-empty digit string")
	}
	if e.Length <= len(e.Prefix) {
		return errors.New("length must exceed the prefix length")
	}
	if e.Length > maxNumberLength {
		return fmt.Errorf("length exceeds %d digits", maxNumberLength)
	}
	return nil
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}
