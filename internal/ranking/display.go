package ranking

import (
	"github.com/shopspring/decimal"

	"pool-yield-alerts/internal/fetcher"
)

var (
	decThousand = decimal.NewFromInt(1_000)
	decMillion  = decimal.NewFromInt(1_000_000)
	decBillion  = decimal.NewFromInt(1_000_000_000)
)

// HumanUSD renders a magnitude-abbreviated dollar amount ("$1.25M"); nil
// renders as "n/a".
func HumanUSD(v *decimal.Decimal) string {
	if v == nil {
		return "n/a"
	}
	av := v.Abs()
	switch {
	case av.GreaterThanOrEqual(decBillion):
		return "$" + v.Div(decBillion).StringFixed(2) + "B"
	case av.GreaterThanOrEqual(decMillion):
		return "$" + v.Div(decMillion).StringFixed(2) + "M"
	case av.GreaterThanOrEqual(decThousand):
		return "$" + v.Div(decThousand).StringFixed(2) + "K"
	default:
		return "$" + v.StringFixed(2)
	}
}

// ApplyLabels fills the display fields of each pair from the token list:
// per-mint symbols, the combined pair label, and human-readable magnitudes.
func ApplyLabels(pairs []RankedPair, tokenMap map[string]fetcher.TokenInfo) {
	for i := range pairs {
		p := &pairs[i]
		if info, ok := tokenMap[p.MintX]; ok && p.MintX != "" {
			p.MintXSymbol = info.Symbol
		}
		if info, ok := tokenMap[p.MintY]; ok && p.MintY != "" {
			p.MintYSymbol = info.Symbol
		}
		if p.MintXSymbol != "" && p.MintYSymbol != "" {
			p.PairLabel = p.MintXSymbol + "/" + p.MintYSymbol
		}
		p.TVLDisplay = HumanUSD(p.TVL)
		p.Fee24hDisplay = HumanUSD(p.Fee24h)
		p.Volume24hDisplay = HumanUSD(p.Volume24h)
		p.VolumeWindowDisplay = HumanUSD(p.VolumeWindow)
		p.FeeWindowDisplay = HumanUSD(p.FeeWindow)
	}
}
