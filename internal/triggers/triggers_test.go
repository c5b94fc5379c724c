package triggers

import (
	"testing"

	"github.com/shopspring/decimal"

	"pool-yield-alerts/internal/ranking"
	"pool-yield-alerts/internal/tokens"
)

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal literal %q: %v", s, err)
	}
	return d
}

func pool(t *testing.T, addr, tvl, fee, volume, trades string) ranking.RankedPair {
	t.Helper()
	p := ranking.RankedPair{PairAddress: addr}
	if tvl != "" {
		v := dec(t, tvl)
		p.TVL = &v
	}
	if fee != "" {
		v := dec(t, fee)
		p.Fee24h = &v
		if p.TVL != nil && p.TVL.IsPositive() {
			r := v.Div(*p.TVL)
			p.FeeOverTVL = &r
		}
	}
	if volume != "" {
		v := dec(t, volume)
		p.Volume24h = &v
	}
	if trades != "" {
		v := dec(t, trades)
		p.Trades24h = &v
	}
	return p
}

func TestEvaluateGateAndTriggers(t *testing.T) {
	// A earns 1.25% of TVL in fees; B is below the liquidity gate; C earns
	// little but leads the board on volume.
	ranked := []ranking.RankedPair{
		pool(t, "A", "2000000", "25000", "1000000", ""),
		pool(t, "B", "500000", "25000", "2000000", ""),
		pool(t, "C", "5000000", "10000", "9000000", ""),
	}

	sets := BuildSets(ranked, 0)
	out := Evaluate(ranked, Params{MinTVL: dec(t, "1000000")}, sets)

	if out.EligibleAfterTVL != 2 {
		t.Fatalf("expected 2 pools past the gate, got %d", out.EligibleAfterTVL)
	}
	if len(out.Candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(out.Candidates))
	}

	byAddr := map[string]Candidate{}
	for _, c := range out.Candidates {
		byAddr[c.Pair.PairAddress] = c
	}
	if _, ok := byAddr["B"]; ok {
		t.Fatal("B must be excluded by the liquidity gate")
	}
	if !byAddr["A"].Flags.FeeOverTVLGe1Pct {
		t.Fatal("A should fire the fee/tvl trigger")
	}
	if !byAddr["C"].Flags.Top10Volume {
		t.Fatal("C should fire the top-volume trigger")
	}
	if byAddr["C"].Flags.FeeOverTVLGe1Pct {
		t.Fatal("C earns 0.2% of TVL and must not fire the fee/tvl trigger")
	}
	if out.Counts.FeeOverTVLGe1Pct != 1 || out.Counts.Top10Volume < 1 {
		t.Fatalf("unexpected counts %+v", out.Counts)
	}
}

func TestEvaluateSkipsPoolsWithoutTVL(t *testing.T) {
	ranked := []ranking.RankedPair{pool(t, "A", "", "100", "", "")}
	out := Evaluate(ranked, Params{MinTVL: decimal.Zero}, BuildSets(ranked, 0))
	if out.EligibleAfterTVL != 0 || len(out.Candidates) != 0 {
		t.Fatal("a pool with no tvl reading must not pass the gate")
	}
}

func TestEvaluateWindowThresholdTrigger(t *testing.T) {
	ratioHot := dec(t, "2.5")
	ratioCold := dec(t, "0.3")
	hot := pool(t, "HOT", "1000000", "", "", "")
	hot.FeeTVLRatioWindow = &ratioHot
	cold := pool(t, "COLD", "1000000", "", "", "")
	cold.FeeTVLRatioWindow = &ratioCold
	ranked := []ranking.RankedPair{hot, cold}

	threshold := dec(t, "1.0")
	out := Evaluate(ranked, Params{MinTVL: decimal.Zero, FeeTVLWindowMin: &threshold}, Sets{})

	if len(out.Candidates) != 1 || out.Candidates[0].Pair.PairAddress != "HOT" {
		t.Fatalf("only HOT should fire the window trigger, got %+v", out.Candidates)
	}
	if !out.Candidates[0].Flags.FeeTVLWindowGeThreshold {
		t.Fatal("window flag should be set")
	}
}

func TestEvaluateScoreTopK(t *testing.T) {
	ranked := []ranking.RankedPair{
		pool(t, "FIRST", "1000000", "", "", ""),
		pool(t, "SECOND", "1000000", "", "", ""),
		pool(t, "THIRD", "1000000", "", "", ""),
	}
	sets := BuildSets(ranked, 2)
	out := Evaluate(ranked, Params{MinTVL: decimal.Zero, ScoreTopK: 2}, sets)

	if len(out.Candidates) != 2 {
		t.Fatalf("expected the first two by rank, got %d", len(out.Candidates))
	}
	for _, c := range out.Candidates {
		if c.Pair.PairAddress == "THIRD" {
			t.Fatal("THIRD is outside the top 2 and must not fire")
		}
		if !c.Flags.ScoreTopK {
			t.Fatal("score flag should be set for top-ranked pools")
		}
	}
}

func TestBuildSetsVolumePrefersWindow(t *testing.T) {
	windowed := pool(t, "WIN", "", "", "10", "")
	w := dec(t, "9000000")
	windowed.VolumeWindow = &w
	raw := pool(t, "RAW", "", "", "1000000", "")

	sets := BuildSets([]ranking.RankedPair{windowed, raw}, 0)
	if _, ok := sets.TopVolume["WIN"]; !ok {
		t.Fatal("windowed volume should rank the pool")
	}
	if _, ok := sets.TopVolume["RAW"]; !ok {
		t.Fatal("raw 24h volume is the fallback signal")
	}
}

func TestBuildSetsTopTenCutoff(t *testing.T) {
	var ranked []ranking.RankedPair
	for i := 0; i < 12; i++ {
		addr := string(rune('A' + i))
		vol := decimal.NewFromInt(int64(1000 - i))
		p := ranking.RankedPair{PairAddress: addr, Volume24h: &vol}
		ranked = append(ranked, p)
	}
	sets := BuildSets(ranked, 0)
	if len(sets.TopVolume) != 10 {
		t.Fatalf("expected exactly 10 members, got %d", len(sets.TopVolume))
	}
	if _, ok := sets.TopVolume["K"]; ok {
		t.Fatal("the 11th pool must not be a member")
	}
}

func TestFilterFocusMeme(t *testing.T) {
	stable := ranking.RankedPair{PairAddress: "S", MintX: "memecoin", MintY: tokens.MintUSDC}
	blue := ranking.RankedPair{PairAddress: "B", MintX: "memecoin", MintY: tokens.MintSOL}
	bySymbol := ranking.RankedPair{PairAddress: "SYM", MintX: "m1", MintY: "m2", MintYSymbol: "wEth"}
	unknown := ranking.RankedPair{PairAddress: "U", MintX: "", MintY: ""}
	pure := ranking.RankedPair{PairAddress: "P", MintX: "m1", MintY: "m2"}
	all := []ranking.RankedPair{stable, blue, bySymbol, unknown, pure}

	kept := FilterFocus(all, "meme", false)
	addrs := addrSet(kept)
	if _, ok := addrs["S"]; ok {
		t.Fatal("stable-paired pool must be dropped in meme focus")
	}
	for _, want := range []string{"B", "SYM", "U", "P"} {
		if _, ok := addrs[want]; !ok {
			t.Fatalf("%s should survive without the bluechip exclusion", want)
		}
	}

	kept = FilterFocus(all, "meme", true)
	addrs = addrSet(kept)
	if _, ok := addrs["B"]; ok {
		t.Fatal("bluechip mint must be dropped with the exclusion on")
	}
	if _, ok := addrs["SYM"]; ok {
		t.Fatal("bluechip symbol match is case-insensitive")
	}
	if _, ok := addrs["U"]; !ok {
		t.Fatal("pools with unknown mints are kept")
	}
	if _, ok := addrs["P"]; !ok {
		t.Fatal("plain meme pair must survive")
	}

	if got := FilterFocus(all, "all", true); len(got) != len(all) {
		t.Fatalf("non-meme focus must be a no-op, got %d pools", len(got))
	}
}

func addrSet(pairs []ranking.RankedPair) map[string]struct{} {
	set := map[string]struct{}{}
	for _, p := range pairs {
		set[p.PairAddress] = struct{}{}
	}
	return set
}

func TestFlagsNames(t *testing.T) {
	f := Flags{FeeOverTVLGe1Pct: true, Top10Trades: true}
	names := f.Names()
	if len(names) != 2 || names[0] != "fee_over_tvl_ge_1pct" || names[1] != "top10_trades" {
		t.Fatalf("unexpected names %v", names)
	}
	if (Flags{}).Any() {
		t.Fatal("empty flags must report no trigger")
	}
}
