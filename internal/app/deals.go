package app

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"

	"goldwatcher/internal/catalog"
	"goldwatcher/internal/quote"
)

// Deals synthesizes the deal listing once and prints it. With no explicit
// baseline the bullion chain is fetched live.
func (a *App) Deals(ctx context.Context, opts DealsOptions) error {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = time.Minute
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	baseline := decimal.NewFromFloat(opts.Baseline)
	source := "explicit baseline"
	if baseline.Sign() <= 0 {
		board := quote.NewBoard()
		orchestrators := a.newOrchestrators(board, sinks{})
		q := orchestrators[quote.KindBullion].Run(ctx)

		baseline = q.PricePerGram
		if q.Tiers != nil && q.Tiers.Gold999.Sign() > 0 {
			baseline = q.Tiers.Gold999
		}
		source = q.Source
	}

	var maxPremium *decimal.Decimal
	if opts.MaxPremium != nil {
		v := decimal.NewFromFloat(*opts.MaxPremium)
		maxPremium = &v
	}

	synth := catalog.NewSynthesizer(catalog.SynthesizerOptions{}, a.Logger)
	deals, err := synth.Deals(ctx, baseline, opts.Limit, maxPremium)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "baseline: %s INR/g (%s)\n\n", baseline.StringFixed(2), source)

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Product\tPlatform\tWeight(g)\tINR/g\tTotal\tPremium%")
	for _, d := range deals {
		fmt.Fprintf(
			writer,
			"%s\t%s\t%s\t%s\t%s\t%s\n",
			d.Name,
			d.PlatformDisplayName,
			d.Weight.String(),
			d.PricePerGram.StringFixed(0),
			d.Price.StringFixed(0),
			d.PremiumPct.StringFixed(1),
		)
	}

	return writer.Flush()
}
