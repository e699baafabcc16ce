package series

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tally-ledger/tally/internal/model"
)

func TestAnnotate_SmallWindow(t *testing.T) {
	points := Annotate(decs("1", "1", "2", "10"), 3)
	require.Len(t, points, 4)

	assert.False(t, points[0].Previous.Valid)
	assert.False(t, points[0].PreviousMovingAverage.Valid)
	assert.Equal(t, "1.00", points[0].MovingAverage.StringFixed(2))
	assert.Equal(t, "1.33", points[2].MovingAverage.StringFixed(2), "4/3 truncated")
	assert.Equal(t, "4.33", points[3].MovingAverage.StringFixed(2), "window drops the first value")
	assert.Equal(t, "2.00", points[3].Previous.Decimal.StringFixed(2))
	assert.Equal(t, "1.33", points[3].PreviousMovingAverage.Decimal.StringFixed(2))
}

func TestAnnotate_TwentyBuckets(t *testing.T) {
	sums := make([]decimal.Decimal, 20)
	for i := range sums {
		v := fmt.Sprintf("%d.%02d", (i*37)%90-40, (i*13)%100)
		sums[i] = dec(v)
	}

	points := Annotate(sums, MovingAverageWindow)
	require.Len(t, points, 20)

	for i := range sums {
		lo := i - (MovingAverageWindow - 1)
		if lo < 0 {
			lo = 0
		}
		total := decimal.Zero
		for _, s := range sums[lo : i+1] {
			total = total.Add(s)
		}
		want := total.Div(decimal.NewFromInt(int64(i - lo + 1))).Truncate(2)
		assert.True(t, want.Equal(points[i].MovingAverage), "bucket %d: want %s got %s", i, want, points[i].MovingAverage)
		assert.True(t, sums[i].Equal(points[i].Current))
		if i > 0 {
			assert.True(t, sums[i-1].Equal(points[i].Previous.Decimal))
			assert.True(t, points[i-1].MovingAverage.Equal(points[i].PreviousMovingAverage.Decimal))
		}
	}
}

func TestAnnotate_KnownIntegers(t *testing.T) {
	sums := make([]decimal.Decimal, 20)
	for i := range sums {
		sums[i] = decimal.NewFromInt(int64(i + 1))
	}
	points := Annotate(sums, MovingAverageWindow)
	assert.Equal(t, "1.50", points[1].MovingAverage.StringFixed(2))
	assert.Equal(t, "6.50", points[11].MovingAverage.StringFixed(2))
	assert.Equal(t, "7.50", points[12].MovingAverage.StringFixed(2))
	assert.Equal(t, "14.50", points[19].MovingAverage.StringFixed(2))
}

func TestAnnotate_TruncatesNegativeTowardZero(t *testing.T) {
	points := Annotate(decs("-950", "0", "0"), 12)
	assert.Equal(t, "-475.00", points[1].MovingAverage.StringFixed(2))
	assert.Equal(t, "-316.66", points[2].MovingAverage.StringFixed(2))
}

func TestTrend_Change(t *testing.T) {
	prev := func(s string) decimal.NullDecimal { return decimal.NewNullDecimal(dec(s)) }
	tests := []struct {
		name      string
		current   string
		previous  decimal.NullDecimal
		dir       model.Direction
		movement  Movement
		change    ChangeDirection
		percent   string
		hasPct    bool
		valueWant string
	}{
		{"asset grows", "120", prev("100"), model.DirectionUp, MovementUp, ChangeFavorable, "20.0", true, "20.00"},
		{"asset shrinks", "80", prev("100"), model.DirectionUp, MovementDown, ChangeUnfavorable, "-20.0", true, "-20.00"},
		{"debt grows", "120", prev("100"), model.DirectionDown, MovementUp, ChangeUnfavorable, "20.0", true, "20.00"},
		{"debt shrinks", "80", prev("100"), model.DirectionDown, MovementDown, ChangeFavorable, "-20.0", true, "-20.00"},
		{"flat", "100", prev("100"), model.DirectionDown, MovementFlat, ChangeNeutral, "0.0", true, "0.00"},
		{"from zero", "50", prev("0"), model.DirectionUp, MovementUp, ChangeFavorable, "", false, "50.00"},
		{"negative base", "-150", prev("-100"), model.DirectionUp, MovementDown, ChangeUnfavorable, "-50.0", true, "-50.00"},
		{"no previous", "50", decimal.NullDecimal{}, model.DirectionUp, MovementFlat, ChangeNeutral, "0.0", true, "0.00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := NewTrend(dec(tt.current), tt.previous, "USD", tt.dir)
			assert.Equal(t, tt.movement, tr.Direction())
			assert.Equal(t, tt.change, tr.Change())
			assert.Equal(t, tt.valueWant, tr.Value().StringFixed(2))
			pct := tr.Percent()
			assert.Equal(t, tt.hasPct, pct.Valid)
			if tt.hasPct {
				assert.Equal(t, tt.percent, pct.Decimal.StringFixed(1))
			}
		})
	}
}
