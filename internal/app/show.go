package app

import (
	"context"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"goldwatcher/internal/quote"
)

// Show fetches every tracked kind once and prints the resulting board.
func (a *App) Show(ctx context.Context, opts ShowOptions) error {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	board := quote.NewBoard()
	orchestrators := a.newOrchestrators(board, sinks{})
	sched := a.newScheduler(orchestrators)
	sched.Force(ctx)

	snapshot := board.Snapshot()
	if len(snapshot) == 0 {
		fmt.Fprintln(os.Stdout, "no quotations available")
		return nil
	}

	kinds := make([]quote.Kind, 0, len(snapshot))
	for kind := range snapshot {
		kinds = append(kinds, kind)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Kind\tINR/g\tUSD/g\tSource\tDegraded\tFetched (UTC)")

	for _, kind := range kinds {
		q := snapshot[kind]
		usd := ""
		if q.PriceUSD.Sign() > 0 {
			usd = q.PriceUSD.StringFixed(2)
		}
		fmt.Fprintf(
			writer,
			"%s\t%s\t%s\t%s\t%t\t%s\n",
			kind,
			q.PricePerGram.StringFixed(2),
			usd,
			q.Source,
			q.Degraded,
			q.FetchedAt.UTC().Format(time.RFC3339),
		)
	}

	return writer.Flush()
}
