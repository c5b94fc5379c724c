package cli

import (
	"time"

	"github.com/spf13/cobra"

	"pool-yield-alerts/internal/app"
)

var (
	scanWindow        string
	scanTopN          int
	scanMinTVL        float64
	scanInvest        float64
	scanCooldown      time.Duration
	scanFocus         string
	scanJSON          bool
	scanIncludeRanked bool
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run a single scan and print the report",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := app.ScanOptions{
			Window:        scanWindow,
			TopN:          scanTopN,
			MinTVL:        scanMinTVL,
			InvestUSD:     scanInvest,
			Cooldown:      scanCooldown,
			Focus:         scanFocus,
			JSONOutput:    scanJSON,
			IncludeRanked: scanIncludeRanked,
		}
		return getApp().Scan(cmd.Context(), opts)
	},
}

func init() {
	scanCmd.Flags().StringVar(&scanWindow, "window", "", "Scoring window (30m, 1h, 2h, 4h, 12h, 24h; defaults to config)")
	scanCmd.Flags().IntVar(&scanTopN, "top", 0, "Number of pools to rank (defaults to config)")
	scanCmd.Flags().Float64Var(&scanMinTVL, "min-tvl", 0, "Minimum pool TVL in USD (defaults to config)")
	scanCmd.Flags().Float64Var(&scanInvest, "invest", 0, "Hypothetical investment in USD for fee share estimates (defaults to config)")
	scanCmd.Flags().DurationVar(&scanCooldown, "cooldown", 0, "Per-pool alert cooldown (defaults to config)")
	scanCmd.Flags().StringVar(&scanFocus, "focus", "", "Category focus: all or meme (defaults to config)")
	scanCmd.Flags().BoolVar(&scanJSON, "json", false, "Print the full report as JSON")
	scanCmd.Flags().BoolVar(&scanIncludeRanked, "include-ranked", false, "Embed the ranked pool list in the report")
}
