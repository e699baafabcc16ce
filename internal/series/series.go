package series

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tally-ledger/tally/internal/model"
	"github.com/tally-ledger/tally/internal/money"
	"github.com/tally-ledger/tally/internal/period"
)

// Value is one rendered point of a series.
type Value struct {
	Date               time.Time
	DateFormatted      string
	Value              money.Money
	Trend              Trend
	MovingAverage      money.Money
	MovingAverageTrend Trend
}

// Series is the chart-ready result of a Request.
type Series struct {
	StartDate          time.Time
	EndDate            time.Time
	Interval           period.Interval
	FavorableDirection model.Direction
	Currency           string
	Values             []Value
}

// DateFormatter renders bucket dates for labels.
type DateFormatter interface {
	FormatDate(d time.Time) string
}

// DateFormatFunc adapts a function to DateFormatter.
type DateFormatFunc func(time.Time) string

func (f DateFormatFunc) FormatDate(d time.Time) string { return f(d) }

// LongDate formats like "March 31, 2025".
var LongDate = DateFormatFunc(func(d time.Time) string { return d.Format("January 2, 2006") })

// Assemble pairs each visible bucket with its annotated point. points must
// cover the extended bucket sequence; the seed points are skipped.
func Assemble(req Request, buckets Buckets, points []Point, dates DateFormatter) Series {
	if dates == nil {
		dates = LongDate
	}
	cur := req.Currency
	s := Series{
		StartDate:          req.Period.Start,
		EndDate:            req.Period.End,
		Interval:           req.Interval,
		FavorableDirection: req.FavorableDirection,
		Currency:           cur,
		Values:             make([]Value, 0, len(buckets.Visible())),
	}
	for i, b := range buckets.Visible() {
		p := points[buckets.Lookback()+i]
		s.Values = append(s.Values, Value{
			Date:               b.Date,
			DateFormatted:      dates.FormatDate(b.Date),
			Value:              money.New(p.Current, cur),
			Trend:              NewTrend(p.Current, p.Previous, cur, req.FavorableDirection),
			MovingAverage:      money.New(p.MovingAverage, cur),
			MovingAverageTrend: NewTrend(p.MovingAverage, p.PreviousMovingAverage, cur, req.FavorableDirection),
		})
	}
	return s
}

// Amounts returns the value of every point, in order.
func (s Series) Amounts() []decimal.Decimal {
	out := make([]decimal.Decimal, len(s.Values))
	for i, v := range s.Values {
		out[i] = v.Value.Amount
	}
	return out
}

// MovingAverages returns the moving average of every point, in order.
func (s Series) MovingAverages() []decimal.Decimal {
	out := make([]decimal.Decimal, len(s.Values))
	for i, v := range s.Values {
		out[i] = v.MovingAverage.Amount
	}
	return out
}

type jsonValue struct {
	Date               string      `json:"date"`
	DateFormatted      string      `json:"date_formatted"`
	Value              money.Money `json:"value"`
	Trend              Trend       `json:"trend"`
	MovingAverage      money.Money `json:"moving_average"`
	MovingAverageTrend Trend       `json:"moving_average_trend"`
}

type jsonSeries struct {
	StartDate          string          `json:"start_date"`
	EndDate            string          `json:"end_date"`
	Interval           string          `json:"interval"`
	FavorableDirection model.Direction `json:"favorable_direction"`
	Currency           string          `json:"currency"`
	Values             []jsonValue     `json:"values"`
}

// MarshalJSON writes dates as YYYY-MM-DD.
func (s Series) MarshalJSON() ([]byte, error) {
	out := jsonSeries{
		StartDate:          s.StartDate.Format(time.DateOnly),
		EndDate:            s.EndDate.Format(time.DateOnly),
		Interval:           s.Interval.String(),
		FavorableDirection: s.FavorableDirection,
		Currency:           s.Currency,
		Values:             make([]jsonValue, len(s.Values)),
	}
	for i, v := range s.Values {
		out.Values[i] = jsonValue{
			Date:               v.Date.Format(time.DateOnly),
			DateFormatted:      v.DateFormatted,
			Value:              v.Value,
			Trend:              v.Trend,
			MovingAverage:      v.MovingAverage,
			MovingAverageTrend: v.MovingAverageTrend,
		}
	}
	return json.Marshal(out)
}
