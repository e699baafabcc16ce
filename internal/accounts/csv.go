package accounts

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/google/uuid"

	"github.com/tally-ledger/tally/internal/model"
)

const (
	numFields   = 6
	colID       = 0
	colName     = 1
	colClass    = 2
	colSubtype  = 3
	colCurrency = 4
	colVisible  = 5

	numCategoryFields = 3
	colCatID          = 0
	colCatName        = 1
	colCatParent      = 2
)

// ReadAccounts reads chart-of-accounts.csv.
func ReadAccounts(r io.Reader) ([]model.Account, error) {
	records, err := readRecords(r, numFields)
	if err != nil {
		return nil, fmt.Errorf("reading accounts CSV: %w", err)
	}

	var accounts []model.Account
	for i, rec := range records {
		acct, err := UnmarshalAccount(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		accounts = append(accounts, acct)
	}
	return accounts, nil
}

// WriteAccounts writes chart-of-accounts.csv.
func WriteAccounts(w io.Writer, accounts []model.Account) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write([]string{"account_id", "account_name", "classification", "subtype", "currency", "visible"}); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, acct := range accounts {
		if err := cw.Write(MarshalAccount(acct)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	return cw.Error()
}

// MarshalAccount converts an Account to a CSV row.
func MarshalAccount(acct model.Account) []string {
	row := make([]string, numFields)
	row[colID] = acct.ID.String()
	row[colName] = acct.Name
	row[colClass] = string(acct.Classification)
	row[colSubtype] = acct.Subtype
	row[colCurrency] = acct.Currency
	row[colVisible] = strconv.FormatBool(acct.Visible)
	return row
}

// UnmarshalAccount converts a CSV row to an Account.
func UnmarshalAccount(record []string) (model.Account, error) {
	if len(record) != numFields {
		return model.Account{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	id, err := uuid.Parse(record[colID])
	if err != nil {
		return model.Account{}, fmt.Errorf("parsing account_id %q: %w", record[colID], err)
	}

	class := model.Classification(record[colClass])
	if !class.Valid() {
		return model.Account{}, fmt.Errorf("unknown classification %q", record[colClass])
	}

	visible := true
	if record[colVisible] != "" {
		visible, err = strconv.ParseBool(record[colVisible])
		if err != nil {
			return model.Account{}, fmt.Errorf("parsing visible %q: %w", record[colVisible], err)
		}
	}

	return model.Account{
		ID:             id,
		Name:           record[colName],
		Classification: class,
		Subtype:        record[colSubtype],
		Currency:       record[colCurrency],
		Visible:        visible,
	}, nil
}

// ReadCategories reads categories.csv.
func ReadCategories(r io.Reader) ([]model.Category, error) {
	records, err := readRecords(r, numCategoryFields)
	if err != nil {
		return nil, fmt.Errorf("reading categories CSV: %w", err)
	}

	var cats []model.Category
	for i, rec := range records {
		cat, err := UnmarshalCategory(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		cats = append(cats, cat)
	}
	return cats, nil
}

// WriteCategories writes categories.csv.
func WriteCategories(w io.Writer, cats []model.Category) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write([]string{"category_id", "category_name", "parent_id"}); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, cat := range cats {
		if err := cw.Write(MarshalCategory(cat)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	return cw.Error()
}

// MarshalCategory converts a Category to a CSV row.
func MarshalCategory(cat model.Category) []string {
	row := make([]string, numCategoryFields)
	row[colCatID] = cat.ID.String()
	row[colCatName] = cat.Name
	if cat.ParentID != uuid.Nil {
		row[colCatParent] = cat.ParentID.String()
	}
	return row
}

// UnmarshalCategory converts a CSV row to a Category.
func UnmarshalCategory(record []string) (model.Category, error) {
	if len(record) != numCategoryFields {
		return model.Category{}, fmt.Errorf("expected %d fields, got %d", numCategoryFields, len(record))
	}

	id, err := uuid.Parse(record[colCatID])
	if err != nil {
		return model.Category{}, fmt.Errorf("parsing category_id %q: %w", record[colCatID], err)
	}

	var parent uuid.UUID
	if record[colCatParent] != "" {
		parent, err = uuid.Parse(record[colCatParent])
		if err != nil {
			return model.Category{}, fmt.Errorf("parsing parent_id %q: %w", record[colCatParent], err)
		}
	}

	return model.Category{ID: id, Name: record[colCatName], ParentID: parent}, nil
}

// readRecords returns every row after the header.
func readRecords(r io.Reader, fields int) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = fields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return records[1:], nil
}
