package journal

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/tally-ledger/tally/internal/id"
	"github.com/tally-ledger/tally/internal/model"
)

// Rule names a journal validation rule.
type Rule string

const (
	RuleAccount   Rule = "account"
	RuleCategory  Rule = "category"
	RuleMonth     Rule = "month"
	RulePrecision Rule = "precision"
	RuleNonZero   Rule = "non-zero"
	RuleKind      Rule = "kind"
	RuleCurrency  Rule = "currency"
	RuleSequence  Rule = "sequence"
)

// ValidationError describes a single rule violation.
type ValidationError struct {
	Rule        Rule
	EntryID     string
	Description string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s [%s]: %s", e.Rule, e.EntryID, e.Description)
}

// Chart answers account and category lookups for validation.
type Chart interface {
	Get(id uuid.UUID) (model.Account, bool)
	CategoryExists(id uuid.UUID) bool
}

// ValidateEntry checks the rules that hold for an entry on its own.
func ValidateEntry(e model.Entry, chart Chart) []ValidationError {
	var errs []ValidationError
	add := func(rule Rule, format string, args ...any) {
		errs = append(errs, ValidationError{Rule: rule, EntryID: e.ID, Description: fmt.Sprintf(format, args...)})
	}

	acct, ok := chart.Get(e.AccountID)
	if !ok {
		add(RuleAccount, "unknown account %s", e.AccountID)
	} else if e.Currency != acct.Currency {
		add(RuleCurrency, "currency %s does not match account %q (%s)", e.Currency, acct.Name, acct.Currency)
	}

	if e.Categorised() && !chart.CategoryExists(e.CategoryID) {
		add(RuleCategory, "unknown category %s", e.CategoryID)
	}

	if e.Amount.IsZero() {
		add(RuleNonZero, "amount must be non-zero")
	} else if !e.Amount.Equal(e.Amount.Truncate(2)) {
		add(RulePrecision, "amount %s has more than 2 decimal places", e.Amount)
	}

	if !e.Kind.Valid() {
		add(RuleKind, "unknown kind %q", e.Kind)
	}
	return errs
}

// ValidateEntries checks every entry of one month's journal, including that
// dates fall in the month and sequence ids run 1..N.
func ValidateEntries(entries []model.Entry, chart Chart, year, month int) []ValidationError {
	var errs []ValidationError
	add := func(rule Rule, entryID, format string, args ...any) {
		errs = append(errs, ValidationError{Rule: rule, EntryID: entryID, Description: fmt.Sprintf(format, args...)})
	}

	for _, e := range entries {
		errs = append(errs, ValidateEntry(e, chart)...)
		if e.Date.Year() != year || int(e.Date.Month()) != month {
			add(RuleMonth, e.ID, "date %s not in %04d-%02d", e.Date.Format(dateFormat), year, month)
		}
	}

	// Sequence ids are unique and contiguous 1..N within the month.
	seen := make(map[int]bool, len(entries))
	for _, e := range entries {
		eid, err := id.Parse(e.ID)
		if err != nil {
			add(RuleSequence, e.ID, "invalid entry ID: %v", err)
			continue
		}
		if eid.Year != year || eid.Month != month {
			add(RuleSequence, e.ID, "entry ID belongs to %04d-%02d", eid.Year, eid.Month)
			continue
		}
		if seen[eid.Seq] {
			add(RuleSequence, e.ID, "duplicate sequence %d", eid.Seq)
			continue
		}
		seen[eid.Seq] = true
	}
	for i := 1; i <= len(seen); i++ {
		if !seen[i] {
			add(RuleSequence, fmt.Sprintf("seq %d", i), "missing sequence %d in 1..%d", i, len(seen))
		}
	}

	return errs
}
