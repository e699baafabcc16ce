// Package id formats and parses journal entry identifiers of the form
// YYYY-MM-NNNN, where NNNN is the entry's sequence within its month.
package id

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// EntryID locates an entry by month and sequence.
type EntryID struct {
	Year  int
	Month int
	Seq   int
}

// New returns the id of the seq-th entry of year/month.
func New(year, month, seq int) EntryID {
	return EntryID{Year: year, Month: month, Seq: seq}
}

// First returns the first id of the month containing t.
func First(t time.Time) EntryID {
	return New(t.Year(), int(t.Month()), 1)
}

func (e EntryID) String() string {
	return fmt.Sprintf("%04d-%02d-%04d", e.Year, e.Month, e.Seq)
}

// Next returns the following id in the same month.
func (e EntryID) Next() EntryID {
	return New(e.Year, e.Month, e.Seq+1)
}

// InMonth reports whether t falls in the id's month.
func (e EntryID) InMonth(t time.Time) bool {
	return t.Year() == e.Year && int(t.Month()) == e.Month
}

// Parse parses "2025-03-0007".
func Parse(s string) (EntryID, error) {
	parts := strings.Split(s, "-")
	if len(parts) != 3 {
		return EntryID{}, fmt.Errorf("invalid entry ID format: %q", s)
	}

	year, err := strconv.Atoi(parts[0])
	if err != nil || len(parts[0]) != 4 {
		return EntryID{}, fmt.Errorf("invalid year in entry ID %q", s)
	}

	month, err := strconv.Atoi(parts[1])
	if err != nil || month < 1 || month > 12 {
		return EntryID{}, fmt.Errorf("invalid month in entry ID %q", s)
	}

	seq, err := strconv.Atoi(parts[2])
	if err != nil || seq < 1 {
		return EntryID{}, fmt.Errorf("invalid sequence in entry ID %q", s)
	}

	return New(year, month, seq), nil
}
