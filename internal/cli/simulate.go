package cli

import (
	"errors"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var (
	simulateTVL    float64
	simulateFee    float64
	simulateVolume float64
)

var simulateCmd = &cobra.Command{
	Use:   "simulate-alert",
	Short: "模拟一个高费率池子并触发告警",
	RunE: func(cmd *cobra.Command, args []string) error {
		if simulateTVL <= 0 || simulateFee <= 0 {
			return errors.New("--tvl 与 --fee 必须大于 0")
		}

		tvl := decimal.NewFromFloat(simulateTVL)
		fee := decimal.NewFromFloat(simulateFee)
		volume := decimal.NewFromFloat(simulateVolume)
		return getApp().SimulateAlert(cmd.Context(), tvl, fee, volume)
	},
}

func init() {
	simulateCmd.Flags().Float64Var(&simulateTVL, "tvl", 2_000_000, "模拟池子 TVL (USD)")
	simulateCmd.Flags().Float64Var(&simulateFee, "fee", 50_000, "模拟池子 24h 费用 (USD)")
	simulateCmd.Flags().Float64Var(&simulateVolume, "volume", 5_000_000, "模拟池子 24h 交易量 (USD)")
}
