package journal

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tally-ledger/tally/internal/model"
)

// Header is the CSV header for journal.csv.
const Header = "entry_id,date,account_id,amount,currency,category_id,kind,description,reference"

const (
	numFields   = 9
	dateFormat  = "2006-01-02"
	colEntryID  = 0
	colDate     = 1
	colAcctID   = 2
	colAmount   = 3
	colCurrency = 4
	colCategory = 5
	colKind     = 6
	colDesc     = 7
	colRef      = 8
)

// ReadEntries reads all entries from a journal.csv reader.
func ReadEntries(r io.Reader) ([]model.Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading journal CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}

	// Skip header row.
	entries := make([]model.Entry, 0, len(records)-1)
	for i, rec := range records[1:] {
		e, err := UnmarshalEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// WriteEntries writes entries to a journal.csv writer (including header).
func WriteEntries(w io.Writer, entries []model.Entry) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, e := range entries {
		if err := cw.Write(MarshalEntry(e)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// AppendEntries appends entries to an existing journal.csv writer (no header).
func AppendEntries(w io.Writer, entries []model.Entry) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	for i, e := range entries {
		if err := cw.Write(MarshalEntry(e)); err != nil {
			return fmt.Errorf("writing row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalEntry converts an Entry to a CSV row.
func MarshalEntry(e model.Entry) []string {
	row := make([]string, numFields)
	row[colEntryID] = e.ID
	row[colDate] = e.Date.Format(dateFormat)
	row[colAcctID] = e.AccountID.String()
	row[colAmount] = e.Amount.StringFixed(2)
	row[colCurrency] = e.Currency
	if e.Categorised() {
		row[colCategory] = e.CategoryID.String()
	}
	row[colKind] = string(e.Kind)
	row[colDesc] = e.Description
	row[colRef] = e.Reference
	return row
}

// UnmarshalEntry converts a CSV row to an Entry.
func UnmarshalEntry(record []string) (model.Entry, error) {
	if len(record) != numFields {
		return model.Entry{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	date, err := time.Parse(dateFormat, record[colDate])
	if err != nil {
		return model.Entry{}, fmt.Errorf("parsing date %q: %w", record[colDate], err)
	}

	accountID, err := uuid.Parse(record[colAcctID])
	if err != nil {
		return model.Entry{}, fmt.Errorf("parsing account_id %q: %w", record[colAcctID], err)
	}

	amount, err := decimal.NewFromString(record[colAmount])
	if err != nil {
		return model.Entry{}, fmt.Errorf("parsing amount %q: %w", record[colAmount], err)
	}

	var categoryID uuid.UUID
	if record[colCategory] != "" {
		categoryID, err = uuid.Parse(record[colCategory])
		if err != nil {
			return model.Entry{}, fmt.Errorf("parsing category_id %q: %w", record[colCategory], err)
		}
	}

	kind := model.EntryKind(record[colKind])
	if kind == "" {
		kind = model.KindTransaction
	}

	return model.Entry{
		ID:          record[colEntryID],
		Date:        date,
		AccountID:   accountID,
		Amount:      amount,
		Currency:    record[colCurrency],
		CategoryID:  categoryID,
		Kind:        kind,
		Description: record[colDesc],
		Reference:   record[colRef],
	}, nil
}
