package triggers

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"pool-yield-alerts/internal/ranking"
	"pool-yield-alerts/internal/tokens"
)

// feeOverTVLFloor is the fixed fee/tvl trigger level: 1% of TVL earned in
// fees over 24h.
var feeOverTVLFloor = decimal.NewFromFloat(0.01)

// top10Size is the membership size for the volume and trade-count triggers.
const top10Size = 10

var bluechipSymbols = map[string]struct{}{
	"SOL":  {},
	"ETH":  {},
	"BTC":  {},
	"WBTC": {},
	"WETH": {},
}

// Params configure one evaluation pass.
type Params struct {
	MinTVL          decimal.Decimal
	FeeTVLWindowMin *decimal.Decimal // percent; nil disables the window trigger
	ScoreTopK       int              // 0 disables the score-rank trigger
}

// Flags carries every trigger outcome for one pool, fired or not, so the
// output stays inspectable.
type Flags struct {
	FeeOverTVLGe1Pct        bool `json:"fee_over_tvl_ge_1pct"`
	FeeTVLWindowGeThreshold bool `json:"fee_tvl_window_ge_threshold"`
	ScoreTopK               bool `json:"score_topk"`
	Top10Volume             bool `json:"top10_volume"`
	Top10Trades             bool `json:"top10_trades"`
}

// Any reports whether at least one trigger fired.
func (f Flags) Any() bool {
	return f.FeeOverTVLGe1Pct || f.FeeTVLWindowGeThreshold || f.ScoreTopK || f.Top10Volume || f.Top10Trades
}

// Names lists the fired triggers.
func (f Flags) Names() []string {
	var names []string
	if f.FeeOverTVLGe1Pct {
		names = append(names, "fee_over_tvl_ge_1pct")
	}
	if f.FeeTVLWindowGeThreshold {
		names = append(names, "fee_tvl_window_ge_threshold")
	}
	if f.ScoreTopK {
		names = append(names, "score_topk")
	}
	if f.Top10Volume {
		names = append(names, "top10_volume")
	}
	if f.Top10Trades {
		names = append(names, "top10_trades")
	}
	return names
}

// Counts tallies fired triggers across one evaluation pass.
type Counts struct {
	FeeOverTVLGe1Pct        int `json:"fee_over_tvl_ge_1pct"`
	FeeTVLWindowGeThreshold int `json:"fee_tvl_window_ge_threshold"`
	ScoreTopK               int `json:"score_topk"`
	Top10Volume             int `json:"top10_volume"`
	Top10Trades             int `json:"top10_trades"`
}

func (c *Counts) add(f Flags) {
	if f.FeeOverTVLGe1Pct {
		c.FeeOverTVLGe1Pct++
	}
	if f.FeeTVLWindowGeThreshold {
		c.FeeTVLWindowGeThreshold++
	}
	if f.ScoreTopK {
		c.ScoreTopK++
	}
	if f.Top10Volume {
		c.Top10Volume++
	}
	if f.Top10Trades {
		c.Top10Trades++
	}
}

// Candidate is a pool that passed the gate and fired at least one trigger;
// the cooldown has not been applied yet.
type Candidate struct {
	Pair  ranking.RankedPair
	Flags Flags
}

// Outcome is the accumulator returned by one evaluation pass: candidates
// plus the counters the report needs.
type Outcome struct {
	Candidates              []Candidate
	EligibleAfterTVL        int
	TriggeredBeforeCooldown int
	Counts                  Counts
}

// Sets holds the top-K membership sets, computed against the ranked list
// before any category filtering.
type Sets struct {
	TopVolume map[string]struct{}
	TopTrades map[string]struct{}
	ScoreTop  map[string]struct{}
}

// BuildSets derives the membership sets from the ranked list: the ten
// highest by windowed volume (raw 24h volume as fallback), the ten highest
// by trade count, and the first scoreTopK entries by rank order.
func BuildSets(ranked []ranking.RankedPair, scoreTopK int) Sets {
	sets := Sets{
		TopVolume: topAddressesBy(ranked, top10Size, func(p ranking.RankedPair) *decimal.Decimal {
			if p.VolumeWindow != nil {
				return p.VolumeWindow
			}
			return p.Volume24h
		}),
		TopTrades: topAddressesBy(ranked, top10Size, func(p ranking.RankedPair) *decimal.Decimal {
			return p.Trades24h
		}),
		ScoreTop: map[string]struct{}{},
	}

	if scoreTopK > 0 {
		for i, p := range ranked {
			if i >= scoreTopK {
				break
			}
			if p.PairAddress != "" {
				sets.ScoreTop[p.PairAddress] = struct{}{}
			}
		}
	}
	return sets
}

func topAddressesBy(ranked []ranking.RankedPair, n int, key func(ranking.RankedPair) *decimal.Decimal) map[string]struct{} {
	type entry struct {
		addr  string
		value decimal.Decimal
	}
	entries := make([]entry, 0, len(ranked))
	for _, p := range ranked {
		v := key(p)
		if v == nil || p.PairAddress == "" {
			continue
		}
		entries = append(entries, entry{addr: p.PairAddress, value: *v})
	}

	sort.Slice(entries, func(i, j int) bool {
		cmp := entries[i].value.Cmp(entries[j].value)
		if cmp != 0 {
			return cmp > 0
		}
		return entries[i].addr < entries[j].addr
	})

	if len(entries) > n {
		entries = entries[:n]
	}
	members := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		members[e.addr] = struct{}{}
	}
	return members
}

// FilterFocus applies the category filter. "meme" drops pools where either
// asset is a known stablecoin, and optionally pools where either asset is a
// bluechip mint or symbol. Pools with unknown mints are kept.
func FilterFocus(ranked []ranking.RankedPair, focus string, excludeBluechip bool) []ranking.RankedPair {
	if focus != "meme" {
		return ranked
	}

	kept := make([]ranking.RankedPair, 0, len(ranked))
	for _, p := range ranked {
		if isMemePair(p, excludeBluechip) {
			kept = append(kept, p)
		}
	}
	return kept
}

func isMemePair(p ranking.RankedPair, excludeBluechip bool) bool {
	if p.MintX == "" || p.MintY == "" {
		return true
	}
	if tokens.IsStable(p.MintX) || tokens.IsStable(p.MintY) {
		return false
	}
	if excludeBluechip {
		if tokens.IsBluechip(p.MintX) || tokens.IsBluechip(p.MintY) {
			return false
		}
		if isBluechipSymbol(p.MintXSymbol) || isBluechipSymbol(p.MintYSymbol) {
			return false
		}
	}
	return true
}

func isBluechipSymbol(symbol string) bool {
	_, ok := bluechipSymbols[strings.ToUpper(symbol)]
	return ok
}

// Evaluate runs the liquidity gate and trigger predicates over the (already
// category-filtered) ranked list. Pools failing the gate are excluded
// entirely and never counted; pools passing the gate with no trigger fired
// are excluded silently.
func Evaluate(ranked []ranking.RankedPair, params Params, sets Sets) Outcome {
	out := Outcome{}

	for _, p := range ranked {
		if p.PairAddress == "" {
			continue
		}
		if p.TVL == nil || p.TVL.LessThan(params.MinTVL) {
			continue
		}
		out.EligibleAfterTVL++

		flags := Flags{
			FeeOverTVLGe1Pct: p.FeeOverTVL != nil && p.FeeOverTVL.GreaterThanOrEqual(feeOverTVLFloor),
			Top10Volume:      member(sets.TopVolume, p.PairAddress),
			Top10Trades:      member(sets.TopTrades, p.PairAddress),
		}
		if params.FeeTVLWindowMin != nil {
			flags.FeeTVLWindowGeThreshold = p.FeeTVLRatioWindow != nil &&
				p.FeeTVLRatioWindow.GreaterThanOrEqual(*params.FeeTVLWindowMin)
		}
		if params.ScoreTopK > 0 {
			flags.ScoreTopK = member(sets.ScoreTop, p.PairAddress)
		}

		if !flags.Any() {
			continue
		}

		out.TriggeredBeforeCooldown++
		out.Counts.add(flags)
		out.Candidates = append(out.Candidates, Candidate{Pair: p, Flags: flags})
	}

	return out
}

func member(set map[string]struct{}, addr string) bool {
	_, ok := set[addr]
	return ok
}
