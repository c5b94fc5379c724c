package alerting

import (
	"github.com/shopspring/decimal"

	"pool-yield-alerts/internal/ranking"
	"pool-yield-alerts/internal/triggers"
)

var decHundred = decimal.NewFromInt(100)

// Alert 是一条通过触发与冷却检查的池子告警。
type Alert struct {
	ranking.RankedPair
	Trigger            triggers.Flags   `json:"trigger"`
	TriggerNames       []string         `json:"trigger_names,omitempty"`
	InvestUSD          decimal.Decimal  `json:"invest_usd"`
	EstFeeShare24hUSD  *decimal.Decimal `json:"est_fee_share_24h_usd,omitempty"`
	EstFeeShareDisplay string           `json:"est_fee_share_24h_display,omitempty"`
	AlertTSMS          int64            `json:"alert_ts_ms"`
}

// NewAlert 依据触发结果与投入规模组装告警载荷。
func NewAlert(c triggers.Candidate, investUSD decimal.Decimal, nowMS int64) Alert {
	a := Alert{
		RankedPair:   c.Pair,
		Trigger:      c.Flags,
		TriggerNames: c.Flags.Names(),
		InvestUSD:    investUSD,
		AlertTSMS:    nowMS,
	}

	// est_fee_share = fee * invest / tvl，按份额估算 24h 费用分成。
	if c.Pair.Fee24h != nil && c.Pair.TVL != nil && c.Pair.TVL.IsPositive() {
		share := c.Pair.Fee24h.Mul(investUSD).Div(*c.Pair.TVL)
		a.EstFeeShare24hUSD = &share
		a.EstFeeShareDisplay = ranking.HumanUSD(&share)
	}
	return a
}
