package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"pool-yield-alerts/internal/ranking"
)

// Show prints recently emitted alerts from the audit table.
func (a *App) Show(ctx context.Context, opts ShowOptions) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; cannot show alerts")
	}
	if closeStore != nil {
		defer closeStore()
	}

	alerts, err := store.ListRecentAlerts(ctx, opts.Limit)
	if err != nil {
		return err
	}
	if len(alerts) == 0 {
		fmt.Fprintln(os.Stdout, "no alerts found")
		return nil
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Time (UTC)\tPool\tTVL\tFee24h\tEstShare\tTriggers")

	for _, alert := range alerts {
		label := alert.PairLabel
		if label == "" {
			label = alert.PairAddress
		}
		fmt.Fprintf(
			writer,
			"%s\t%s\t%s\t%s\t%s\t%s\n",
			alert.AlertTS.UTC().Format(time.RFC3339),
			sanitizeInline(label),
			ranking.HumanUSD(alert.TVL),
			ranking.HumanUSD(alert.Fee24h),
			ranking.HumanUSD(alert.EstFeeShareUSD),
			strings.Join(alert.Triggers, ","),
		)
	}

	writer.Flush()
	return nil
}

func sanitizeInline(v string) string {
	cleaned := strings.ReplaceAll(v, "\n", " ")
	cleaned = strings.ReplaceAll(cleaned, "\r", " ")
	return cleaned
}
