package series

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tally-ledger/tally/internal/ledger"
	"github.com/tally-ledger/tally/internal/model"
)

// Selection narrows the entries that feed a series.
type Selection struct {
	AccountIDs  []uuid.UUID
	CategoryIDs []uuid.UUID
	AnyCategory bool
}

func (s Selection) filter() ledger.Filter {
	return ledger.Filter{
		AccountIDs:  s.AccountIDs,
		CategoryIDs: s.CategoryIDs,
		AnyCategory: s.AnyCategory,
		Kinds:       []model.EntryKind{model.KindTransaction},
	}
}

// Aggregates holds one signed, truncated sum per bucket, overall and per category.
type Aggregates struct {
	Buckets []Bucket
	Total   []decimal.Decimal
	// Categories lists ByCategory keys in selection order, then in order of
	// first appearance. uuid.Nil stands for uncategorised entries.
	Categories []uuid.UUID
	ByCategory map[uuid.UUID][]decimal.Decimal
	// Counts is the number of entries landing in each bucket.
	Counts []int
}

// Aggregate sums matching entries into the bucket whose window contains
// their date. Each sum is multiplied by multiplier once and truncated to
// two decimals. Buckets without entries hold zero.
func Aggregate(buckets []Bucket, entries []model.Entry, sel Selection, multiplier decimal.Decimal) Aggregates {
	agg := Aggregates{
		Buckets:    buckets,
		Total:      zeros(len(buckets)),
		ByCategory: make(map[uuid.UUID][]decimal.Decimal),
		Counts:     make([]int, len(buckets)),
	}
	if !sel.AnyCategory {
		for _, id := range sel.CategoryIDs {
			agg.addCategory(id)
		}
	}

	f := sel.filter()
	for _, e := range entries {
		if !f.Match(e) {
			continue
		}
		i, ok := bucketIndex(buckets, e.Date)
		if !ok {
			continue
		}
		agg.Total[i] = agg.Total[i].Add(e.Amount)
		sums := agg.addCategory(e.CategoryID)
		sums[i] = sums[i].Add(e.Amount)
		agg.Counts[i]++
	}

	finish := func(sums []decimal.Decimal) {
		for i, s := range sums {
			sums[i] = s.Mul(multiplier).Truncate(2)
		}
	}
	finish(agg.Total)
	for _, sums := range agg.ByCategory {
		finish(sums)
	}
	return agg
}

func (a *Aggregates) addCategory(id uuid.UUID) []decimal.Decimal {
	if sums, ok := a.ByCategory[id]; ok {
		return sums
	}
	sums := zeros(len(a.Buckets))
	a.ByCategory[id] = sums
	a.Categories = append(a.Categories, id)
	return sums
}

// bucketIndex finds the bucket whose window holds d. Buckets must be
// ordered and contiguous.
func bucketIndex(buckets []Bucket, d time.Time) (int, bool) {
	d = model.CivilDate(d)
	i := sort.Search(len(buckets), func(i int) bool { return !buckets[i].Date.Before(d) })
	if i == len(buckets) || !buckets[i].Contains(d) {
		return 0, false
	}
	return i, true
}

func zeros(n int) []decimal.Decimal {
	out := make([]decimal.Decimal, n)
	for i := range out {
		out[i] = decimal.Zero
	}
	return out
}
