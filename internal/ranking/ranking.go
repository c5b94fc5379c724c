package ranking

import (
	"sort"

	"github.com/shopspring/decimal"

	"pool-yield-alerts/internal/fields"
)

// RankedPair is the canonical projection of one raw pool record. Pointer
// fields are nil when no candidate key resolved for them.
type RankedPair struct {
	PairAddress string           `json:"pair_address"`
	MintX       string           `json:"mint_x,omitempty"`
	MintY       string           `json:"mint_y,omitempty"`
	Fee24h      *decimal.Decimal `json:"fee_24h,omitempty"`
	Volume24h   *decimal.Decimal `json:"volume_24h,omitempty"`
	Trades24h   *decimal.Decimal `json:"trades_24h,omitempty"`
	TVL         *decimal.Decimal `json:"tvl,omitempty"`
	FeeOverTVL  *decimal.Decimal `json:"fee_over_tvl,omitempty"`
	Score       decimal.Decimal  `json:"score"`

	// Present only when enrichment ran for this pool.
	VolumeWindow      *decimal.Decimal `json:"volume_window,omitempty"`
	FeeTVLRatioWindow *decimal.Decimal `json:"fee_tvl_ratio_window,omitempty"`
	FeeWindow         *decimal.Decimal `json:"fee_window,omitempty"`
	FeeOverVol        *decimal.Decimal `json:"fee_over_vol,omitempty"`
	BaseFeePct        *decimal.Decimal `json:"base_fee_percentage,omitempty"`
	MaxFeePct         *decimal.Decimal `json:"max_fee_percentage,omitempty"`

	// Display fields derived from the token list.
	MintXSymbol         string `json:"mint_x_symbol,omitempty"`
	MintYSymbol         string `json:"mint_y_symbol,omitempty"`
	PairLabel           string `json:"pair_label,omitempty"`
	TVLDisplay          string `json:"tvl_display,omitempty"`
	Fee24hDisplay       string `json:"fee_24h_display,omitempty"`
	Volume24hDisplay    string `json:"volume_24h_display,omitempty"`
	VolumeWindowDisplay string `json:"volume_window_display,omitempty"`
	FeeWindowDisplay    string `json:"fee_window_display,omitempty"`
}

// Rank projects raw records into RankedPairs, scores them coarsely, and
// returns the top n in deterministic order. Records without a resolvable
// address are dropped: they cannot be deduplicated or cooled down.
func Rank(records []fields.Record, topN int, diag fields.Diagnostics) []RankedPair {
	pairs := make([]RankedPair, 0, len(records))

	for _, rec := range records {
		addr, addrKey, ok := fields.FirstString(rec, addressKeys)
		if ok {
			diag.Observe("addr", addrKey)
		} else {
			continue
		}

		p := RankedPair{PairAddress: addr}

		if v, key, ok := fields.FirstString(rec, mintXKeys); ok {
			p.MintX = v
			diag.Observe("mint_x", key)
		}
		if v, key, ok := fields.FirstString(rec, mintYKeys); ok {
			p.MintY = v
			diag.Observe("mint_y", key)
		}
		p.Fee24h = observeNumber(rec, feeKeys, "fee", diag)
		p.Volume24h = observeNumber(rec, volumeKeys, "volume", diag)
		p.Trades24h = observeNumber(rec, tradesKeys, "trades", diag)
		p.TVL = observeNumber(rec, tvlKeys, "tvl", diag)

		if p.Fee24h != nil && p.TVL != nil && p.TVL.IsPositive() {
			ratio := p.Fee24h.Div(*p.TVL)
			p.FeeOverTVL = &ratio
		}

		p.Score = coarseScore(p)
		pairs = append(pairs, p)
	}

	sortRanked(pairs)
	if topN > 0 && len(pairs) > topN {
		pairs = pairs[:topN]
	}
	return pairs
}

// coarseScore is the first available signal in fee, volume, trades, tvl
// priority order; an earlier signal always outranks a later one.
func coarseScore(p RankedPair) decimal.Decimal {
	for _, v := range []*decimal.Decimal{p.Fee24h, p.Volume24h, p.Trades24h, p.TVL} {
		if v != nil {
			return *v
		}
	}
	return decimal.Zero
}

// sortRanked orders by score descending, tie-broken by ascending address so
// identical inputs always yield identical output order.
func sortRanked(pairs []RankedPair) {
	sort.SliceStable(pairs, func(i, j int) bool {
		cmp := pairs[i].Score.Cmp(pairs[j].Score)
		if cmp != 0 {
			return cmp > 0
		}
		return pairs[i].PairAddress < pairs[j].PairAddress
	})
}

func observeNumber(rec fields.Record, keys []string, field string, diag fields.Diagnostics) *decimal.Decimal {
	v, key, ok := fields.FirstNumber(rec, keys)
	if !ok {
		return nil
	}
	diag.Observe(field, key)
	return &v
}
