package series

import (
	"fmt"
	"time"

	"github.com/tally-ledger/tally/internal/model"
	"github.com/tally-ledger/tally/internal/period"
)

// Bucket is one slot of a series. It owns every entry dated in the
// half-open window (From, Date].
type Bucket struct {
	Date time.Time
	From time.Time // previous boundary, exclusive
}

// Contains reports whether d falls in the bucket's window.
func (b Bucket) Contains(d time.Time) bool {
	d = model.CivilDate(d)
	return d.After(b.From) && !d.After(b.Date)
}

// WindowStart is the first date inside the window.
func (b Bucket) WindowStart() time.Time {
	return b.From.AddDate(0, 0, 1)
}

// Buckets holds the extended sequence used for computation alongside the
// caller-visible tail. The first Lookback buckets of the extended sequence
// only seed the moving average.
type Buckets struct {
	extended []Bucket
	visible  []Bucket
	lookback int
}

// Extended returns every bucket, oldest first, seed buckets included.
func (bs Buckets) Extended() []Bucket { return bs.extended }

// Visible returns only the buckets inside the requested period.
func (bs Buckets) Visible() []Bucket { return bs.visible }

// Lookback is the number of seed buckets preceding the visible ones.
func (bs Buckets) Lookback() int { return bs.lookback }

// Range returns the inclusive date range covering every extended bucket.
func (bs Buckets) Range() (from, to time.Time) {
	if len(bs.extended) == 0 {
		return time.Time{}, time.Time{}
	}
	return bs.extended[0].WindowStart(), bs.extended[len(bs.extended)-1].Date
}

// GenerateBuckets lays month-end boundaries back from p.End, one interval
// apart. The last bucket is p.End itself even when it is not a month end.
// Buckets whose window starts on or after the first month start inside the
// period are visible (at least one always is); lookback more buckets are
// prepended before them.
func GenerateBuckets(p period.Period, iv period.Interval, lookback int) (Buckets, error) {
	if err := iv.Validate(); err != nil {
		return Buckets{}, err
	}
	if p.End.Before(p.Start) {
		return Buckets{}, fmt.Errorf("%w: %s", period.ErrInvalidPeriod, p)
	}
	if lookback < 0 {
		lookback = 0
	}

	end := model.CivilDate(p.End)
	boundary := func(k int) time.Time {
		if k == 0 {
			return end
		}
		return period.ShiftMonthEnd(end, -k*iv.Months)
	}

	lower := period.AlignedStart(p.Start)
	visible := 0
	for !boundary(visible + 1).AddDate(0, 0, 1).Before(lower) {
		visible++
	}
	if visible == 0 {
		visible = 1
	}

	total := visible + lookback
	extended := make([]Bucket, total)
	for i := range extended {
		k := total - 1 - i
		extended[i] = Bucket{Date: boundary(k), From: boundary(k + 1)}
	}

	return Buckets{
		extended: extended,
		visible:  append([]Bucket(nil), extended[lookback:]...),
		lookback: lookback,
	}, nil
}
