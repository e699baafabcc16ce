// Package period models the reporting windows and calendar steps used by
// the series engine.
package period

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/tally-ledger/tally/internal/model"
)

var (
	ErrInvalidPeriod       = errors.New("period end is before start")
	ErrUnsupportedInterval = errors.New("unsupported interval")
	ErrUnknownPeriodKey    = errors.New("unknown period key")
)

const DefaultKey = "last_365_days"

// Period is an inclusive range of civil dates.
type Period struct {
	Key   string
	Start time.Time
	End   time.Time
}

// New builds a custom period. It fails when end precedes start; the dates
// are never swapped.
func New(start, end time.Time) (Period, error) {
	start, end = model.CivilDate(start), model.CivilDate(end)
	if end.Before(start) {
		return Period{}, fmt.Errorf("%w: %s < %s", ErrInvalidPeriod, end.Format(time.DateOnly), start.Format(time.DateOnly))
	}
	return Period{Key: "custom", Start: start, End: end}, nil
}

// Contains reports whether d falls inside the period.
func (p Period) Contains(d time.Time) bool {
	d = model.CivilDate(d)
	return !d.Before(p.Start) && !d.After(p.End)
}

// Days returns the inclusive number of days in the period.
func (p Period) Days() int {
	return int(p.End.Sub(p.Start).Hours()/24) + 1
}

func (p Period) String() string {
	return p.Start.Format(time.DateOnly) + ".." + p.End.Format(time.DateOnly)
}

// Keys lists the named periods accepted by FromKey.
var Keys = []string{
	"last_day",
	"last_7_days",
	"last_30_days",
	"last_90_days",
	"last_365_days",
	"current_month",
	"current_year",
	"last_5_years",
}

// FromKey resolves a named period relative to today.
func FromKey(key string, today time.Time) (Period, error) {
	today = model.CivilDate(today)
	var start time.Time
	switch key {
	case "last_day":
		start = today.AddDate(0, 0, -1)
	case "last_7_days":
		start = today.AddDate(0, 0, -7)
	case "last_30_days":
		start = today.AddDate(0, 0, -30)
	case "last_90_days":
		start = today.AddDate(0, 0, -90)
	case "last_365_days":
		start = today.AddDate(0, 0, -365)
	case "current_month":
		start = MonthStart(today)
	case "current_year":
		start = time.Date(today.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	case "last_5_years":
		start = today.AddDate(-5, 0, 0)
	default:
		return Period{}, fmt.Errorf("%w: %q", ErrUnknownPeriodKey, key)
	}
	return Period{Key: key, Start: start, End: today}, nil
}

// Interval is a calendar step. Only whole months are supported: a year is
// twelve months.
type Interval struct {
	Months int
}

// Monthly is the default one-month step.
var Monthly = Interval{Months: 1}

// ParseInterval accepts "N month(s)" and "N year(s)". Day and week steps
// fail because bucket boundaries are aligned to month ends.
func ParseInterval(s string) (Interval, error) {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(s)))
	if len(fields) != 2 {
		return Interval{}, fmt.Errorf("%w: %q", ErrUnsupportedInterval, s)
	}
	n, err := strconv.Atoi(fields[0])
	if err != nil || n < 1 {
		return Interval{}, fmt.Errorf("%w: %q", ErrUnsupportedInterval, s)
	}
	switch strings.TrimSuffix(fields[1], "s") {
	case "month":
		return Interval{Months: n}, nil
	case "year":
		return Interval{Months: 12 * n}, nil
	default:
		return Interval{}, fmt.Errorf("%w: %q", ErrUnsupportedInterval, s)
	}
}

// Validate fails for a zero or negative step.
func (iv Interval) Validate() error {
	if iv.Months < 1 {
		return fmt.Errorf("%w: %d months", ErrUnsupportedInterval, iv.Months)
	}
	return nil
}

func (iv Interval) String() string {
	if iv.Months == 1 {
		return "1 month"
	}
	return strconv.Itoa(iv.Months) + " months"
}

// MonthStart returns the first day of d's month.
func MonthStart(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// MonthEnd returns the last day of d's month.
func MonthEnd(d time.Time) time.Time {
	return MonthStart(d).AddDate(0, 1, -1)
}

// IsMonthEnd reports whether d is the last day of its month.
func IsMonthEnd(d time.Time) bool {
	return d.Day() == MonthEnd(d).Day()
}

// ShiftMonthEnd moves the month end of d by n months (n may be negative),
// always landing on the last day of the target month.
func ShiftMonthEnd(d time.Time, n int) time.Time {
	return MonthEnd(MonthStart(d).AddDate(0, n, 0))
}

// AlignedStart is the first day of a month on or after d.
func AlignedStart(d time.Time) time.Time {
	if d.Day() == 1 {
		return MonthStart(d)
	}
	return MonthStart(d).AddDate(0, 1, 0)
}
