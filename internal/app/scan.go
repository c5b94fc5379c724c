package app

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"pool-yield-alerts/internal/service"
)

// Scan executes a single pipeline pass and prints the run report.
func (a *App) Scan(ctx context.Context, opts ScanOptions) error {
	a.Config.Scan.Window = a.Config.ResolveWindow(opts.Window)
	a.Config.Scan.TopN = a.Config.ResolveTopN(opts.TopN)
	if opts.MinTVL > 0 {
		a.Config.Scan.MinTVL = opts.MinTVL
	}
	if opts.InvestUSD > 0 {
		a.Config.Scan.InvestUSD = opts.InvestUSD
	}
	if opts.Cooldown > 0 {
		a.Config.Alerting.Cooldown = opts.Cooldown
	}
	if opts.Focus != "" {
		a.Config.Scan.Focus = opts.Focus
	}
	if opts.IncludeRanked {
		a.Config.Scan.IncludeRanked = true
	}
	if err := a.Config.Validate(); err != nil {
		return err
	}

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if closeStore != nil {
		defer closeStore()
	}

	svc := a.newService(nil, store)
	report, err := svc.Scan(ctx, time.Now().UTC())
	if err != nil {
		return err
	}

	if opts.JSONOutput {
		return printReportJSON(report)
	}
	printReportText(report)
	return nil
}

func printReportJSON(report *service.Report) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}

func printReportText(report *service.Report) {
	fmt.Fprintf(os.Stdout, "scanned %d pools (%d ranked, window %s)\n",
		report.Source.FetchedCount, report.Ranked.Count, report.Ranked.Window)
	fmt.Fprintf(os.Stdout, "eligible after tvl gate: %d, triggered: %d, suppressed by cooldown: %d\n",
		report.Ranked.EligibleAfterTVL, report.Ranked.TriggeredBeforeCooldown, report.Ranked.SuppressedByCooldown)

	if len(report.Alerts) == 0 {
		fmt.Fprintln(os.Stdout, "no alerts")
		return
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Pool\tTVL\tFee24h\tVol24h\tEstShare\tTriggers")
	for _, alert := range report.Alerts {
		label := alert.PairLabel
		if label == "" {
			label = alert.PairAddress
		}
		fmt.Fprintf(writer, "%s\t%s\t%s\t%s\t%s\t%s\n",
			label,
			alert.TVLDisplay,
			alert.Fee24hDisplay,
			alert.Volume24hDisplay,
			alert.EstFeeShareDisplay,
			strings.Join(alert.TriggerNames, ","),
		)
	}
	writer.Flush()
}
