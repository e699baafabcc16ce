package series

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/tally-ledger/tally/internal/model"
	"github.com/tally-ledger/tally/internal/money"
)

// MovingAverageWindow is the number of trailing buckets averaged, the
// current one included.
const MovingAverageWindow = 12

// Point carries the derived figures for one bucket.
type Point struct {
	Current               decimal.Decimal
	Previous              decimal.NullDecimal
	MovingAverage         decimal.Decimal
	PreviousMovingAverage decimal.NullDecimal
}

// Annotate walks sums in order, pairing each with its predecessor and with
// the mean of at most window trailing sums. Inputs and means are truncated
// to two decimals, so every mean is computed from truncated values.
func Annotate(sums []decimal.Decimal, window int) []Point {
	if window < 1 {
		window = 1
	}
	ring := make([]decimal.Decimal, window)
	filled := 0
	total := decimal.Zero

	points := make([]Point, len(sums))
	for i, v := range sums {
		v = v.Truncate(2)
		slot := i % window
		if filled == window {
			total = total.Sub(ring[slot])
		} else {
			filled++
		}
		ring[slot] = v
		total = total.Add(v)

		avg, _ := total.QuoRem(decimal.NewFromInt(int64(filled)), 2)

		p := Point{Current: v, MovingAverage: avg}
		if i > 0 {
			p.Previous = decimal.NewNullDecimal(points[i-1].Current)
			p.PreviousMovingAverage = decimal.NewNullDecimal(points[i-1].MovingAverage)
		}
		points[i] = p
	}
	return points
}

// Movement is the raw direction of a change.
type Movement string

const (
	MovementUp   Movement = "up"
	MovementDown Movement = "down"
	MovementFlat Movement = "flat"
)

// ChangeDirection judges a movement against the series' favorable direction.
type ChangeDirection string

const (
	ChangeFavorable   ChangeDirection = "favorable"
	ChangeUnfavorable ChangeDirection = "unfavorable"
	ChangeNeutral     ChangeDirection = "neutral"
)

// Trend compares a value with the one before it.
type Trend struct {
	Current            money.Money
	Previous           money.Money
	HasPrevious        bool
	FavorableDirection model.Direction
}

// NewTrend builds a trend; a null previous yields a neutral trend.
func NewTrend(current decimal.Decimal, previous decimal.NullDecimal, currency string, dir model.Direction) Trend {
	t := Trend{
		Current:            money.New(current, currency),
		Previous:           money.Zero(currency),
		FavorableDirection: dir,
	}
	if previous.Valid {
		t.Previous = money.New(previous.Decimal, currency)
		t.HasPrevious = true
	}
	return t
}

// Value is current minus previous, zero without a previous value.
func (t Trend) Value() decimal.Decimal {
	if !t.HasPrevious {
		return decimal.Zero
	}
	return t.Current.Amount.Sub(t.Previous.Amount)
}

// Direction reports whether the value rose, fell or stayed put.
func (t Trend) Direction() Movement {
	switch t.Value().Sign() {
	case 1:
		return MovementUp
	case -1:
		return MovementDown
	default:
		return MovementFlat
	}
}

// Change is favorable when the movement matches the favorable direction.
// Values reach the trend already sign-adjusted, so only the raw movement
// is compared here.
func (t Trend) Change() ChangeDirection {
	switch t.Direction() {
	case MovementFlat:
		return ChangeNeutral
	case MovementUp:
		if t.FavorableDirection == model.DirectionDown {
			return ChangeUnfavorable
		}
		return ChangeFavorable
	default:
		if t.FavorableDirection == model.DirectionDown {
			return ChangeFavorable
		}
		return ChangeUnfavorable
	}
}

// Percent is the change relative to |previous|, rounded to one decimal.
// It is null when previous is zero and the value moved.
func (t Trend) Percent() decimal.NullDecimal {
	v := t.Value()
	if v.IsZero() {
		return decimal.NewNullDecimal(decimal.Zero)
	}
	if t.Previous.Amount.IsZero() {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(v.Div(t.Previous.Amount.Abs()).Mul(decimal.NewFromInt(100)).Round(1))
}

type jsonTrend struct {
	Current   money.Money     `json:"current"`
	Previous  *money.Money    `json:"previous"`
	Value     string          `json:"value"`
	Percent   *string         `json:"percent"`
	Direction Movement        `json:"direction"`
	Change    ChangeDirection `json:"change"`
}

// MarshalJSON adds the derived fields so chart code need not recompute them.
func (t Trend) MarshalJSON() ([]byte, error) {
	out := jsonTrend{
		Current:   t.Current,
		Value:     t.Value().StringFixed(2),
		Direction: t.Direction(),
		Change:    t.Change(),
	}
	if t.HasPrevious {
		prev := t.Previous
		out.Previous = &prev
	}
	if p := t.Percent(); p.Valid {
		s := p.Decimal.StringFixed(1)
		out.Percent = &s
	}
	return json.Marshal(out)
}
