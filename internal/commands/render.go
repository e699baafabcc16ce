package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/tally-ledger/tally/internal/config"
	"github.com/tally-ledger/tally/internal/period"
	"github.com/tally-ledger/tally/internal/series"
)

// periodFlags selects a period either by key or by explicit dates.
type periodFlags struct {
	key   string
	start string
	end   string
	asOf  string
}

func (p periodFlags) resolve(cfg *config.Config) (period.Period, error) {
	if p.start != "" || p.end != "" {
		if p.start == "" || p.end == "" {
			return period.Period{}, fmt.Errorf("--start and --end must be given together")
		}
		start, err := time.Parse(time.DateOnly, p.start)
		if err != nil {
			return period.Period{}, fmt.Errorf("parsing --start: %w", err)
		}
		end, err := time.Parse(time.DateOnly, p.end)
		if err != nil {
			return period.Period{}, fmt.Errorf("parsing --end: %w", err)
		}
		return period.New(start, end)
	}

	today := time.Now()
	if p.asOf != "" {
		d, err := time.Parse(time.DateOnly, p.asOf)
		if err != nil {
			return period.Period{}, fmt.Errorf("parsing --as-of: %w", err)
		}
		today = d
	}
	key := p.key
	if key == "" {
		key = cfg.Series.Period
	}
	return period.FromKey(key, today)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// renderSeries prints a series as an aligned table.
func renderSeries(w io.Writer, title string, s series.Series) error {
	fmt.Fprintf(w, "%s\n%s to %s, every %s, %s is favorable\n\n",
		title, s.StartDate.Format(time.DateOnly), s.EndDate.Format(time.DateOnly), s.Interval, s.FavorableDirection)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "DATE\tVALUE\tTREND\tMOVING AVG\tAVG TREND\t")
	for _, v := range s.Values {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t\n",
			v.DateFormatted, v.Value.Format(), trendText(v.Trend), v.MovingAverage.Format(), trendText(v.MovingAverageTrend))
	}
	return tw.Flush()
}

func trendText(t series.Trend) string {
	if !t.HasPrevious {
		return "-"
	}
	dir := t.Direction()
	if dir == series.MovementFlat {
		return "flat"
	}
	if pct := t.Percent(); pct.Valid {
		return fmt.Sprintf("%s %s%% %s", dir, pct.Decimal.Abs().StringFixed(1), marker(t.Change()))
	}
	return fmt.Sprintf("%s %s", dir, marker(t.Change()))
}

func marker(c series.ChangeDirection) string {
	switch c {
	case series.ChangeFavorable:
		return "(+)"
	case series.ChangeUnfavorable:
		return "(-)"
	default:
		return ""
	}
}
