package app

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"

	"goldwatcher/internal/history"
	"goldwatcher/internal/quote"
)

// Export renders quotation history as CSV and/or PNG.
func (a *App) Export(ctx context.Context, opts ExportOptions) error {
	if opts.CSVPath == "" && opts.PNGPath == "" {
		return errors.New("at least one of --csv or --png must be provided")
	}
	if a.Config.Database.DSN == "" {
		return errors.New("database not configured; cannot export")
	}

	opts.MaxPoints = a.Config.ResolveMaxPoints(opts.MaxPoints)

	kind := quote.Kind(opts.Kind)
	if opts.Kind == "" {
		kind = quote.KindInternational
	}

	pool, err := history.NewPool(ctx, history.PoolConfig{
		DSN:             a.Config.Database.DSN,
		MaxOpenConns:    a.Config.Database.MaxOpenConns,
		MaxIdleConns:    a.Config.Database.MaxIdleConns,
		ConnMaxLifetime: a.Config.Database.ConnMaxLifetime,
	})
	if err != nil {
		return err
	}
	store := history.NewStore(pool)
	defer store.Close()

	to := time.Now().UTC()
	if opts.To != nil {
		to = opts.To.UTC()
	}

	from := to.Add(-time.Duration(opts.MaxPoints) * a.Config.Scheduler.InternationalInterval)
	if opts.From != nil {
		from = opts.From.UTC()
	}

	if !from.Before(to) {
		return errors.New("from must be before to")
	}

	quotes, err := store.History(ctx, kind, from)
	if err != nil {
		return err
	}

	// History is an at-or-after query; trim the open end here.
	trimmed := quotes[:0]
	for _, q := range quotes {
		if q.FetchedAt.Before(to) {
			trimmed = append(trimmed, q)
		}
	}
	quotes = trimmed

	if len(quotes) == 0 {
		a.Logger.Info().Str("kind", string(kind)).Msg("no quotations found for export window")
		return nil
	}

	downsampled := downsampleQuotes(quotes, opts.MaxPoints)
	a.Logger.Info().
		Int("total", len(quotes)).
		Int("exported", len(downsampled)).
		Str("kind", string(kind)).
		Msg("exporting quotations")

	if opts.CSVPath != "" {
		if err := writeQuotesCSV(opts.CSVPath, downsampled); err != nil {
			return err
		}
	}

	if opts.PNGPath != "" {
		if err := writeQuotesPNG(opts.PNGPath, kind, downsampled); err != nil {
			return err
		}
	}

	return nil
}

func downsampleQuotes(quotes []quote.Quotation, max int) []quote.Quotation {
	if max <= 0 || len(quotes) <= max {
		return quotes
	}

	result := make([]quote.Quotation, 0, max)
	step := float64(len(quotes)-1) / float64(max-1)
	for i := 0; i < max; i++ {
		idx := int(math.Round(step * float64(i)))
		if idx >= len(quotes) {
			idx = len(quotes) - 1
		}
		result = append(result, quotes[idx])
	}
	return result
}

func writeQuotesCSV(path string, quotes []quote.Quotation) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{"fetched_at", "kind", "price_inr_per_gram", "price_usd_per_gram", "source", "degraded"}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, q := range quotes {
		usd := ""
		if q.PriceUSD.Sign() > 0 {
			usd = q.PriceUSD.String()
		}
		record := []string{
			q.FetchedAt.Format(time.RFC3339),
			string(q.Kind),
			q.PricePerGram.String(),
			usd,
			q.Source,
			fmt.Sprintf("%t", q.Degraded),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	return writer.Error()
}

func writeQuotesPNG(path string, kind quote.Kind, quotes []quote.Quotation) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	x := make([]time.Time, len(quotes))
	inr := make([]float64, len(quotes))
	for i, q := range quotes {
		x[i] = q.FetchedAt
		inr[i] = q.PricePerGram.InexactFloat64()
	}

	rateFormatter := func(v interface{}) string {
		return chart.FloatValueFormatterWithFormat(v, "%.0f")
	}
	graph := chart.Chart{
		Width:  1280,
		Height: 720,
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeValueFormatter,
		},
		YAxis: chart.YAxis{
			Name:           "INR per gram",
			ValueFormatter: rateFormatter,
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    string(kind),
				XValues: x,
				YValues: inr,
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return graph.Render(chart.PNG, file)
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
