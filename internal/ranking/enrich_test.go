package ranking

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"pool-yield-alerts/internal/fields"
)

type fakeDetailFetcher struct {
	details map[string]fields.Record
}

func (f *fakeDetailFetcher) FetchPairDetail(_ context.Context, address string) (fields.Record, error) {
	if d, ok := f.details[address]; ok {
		return d, nil
	}
	return nil, errors.New("detail unavailable")
}

func newTestEnricher(details map[string]fields.Record) *Enricher {
	return NewEnricher(&fakeDetailFetcher{details: details}, zerolog.Nop())
}

func TestEnrichDerivesWindowFields(t *testing.T) {
	tvl := dec(t, "1000000")
	fee := dec(t, "5000")
	ranked := []RankedPair{{PairAddress: "AAA", TVL: &tvl, Fee24h: &fee}}

	enricher := newTestEnricher(map[string]fields.Record{
		"AAA": {
			"volume":              map[string]any{"hour_24": 200_000.0},
			"fee_tvl_ratio":       map[string]any{"hour_24": 1.5},
			"base_fee_percentage": "0.25",
			"max_fee_percentage":  "10",
		},
	})

	out, err := enricher.Enrich(context.Background(), ranked, "24h")
	if err != nil {
		t.Fatalf("enrich should succeed: %v", err)
	}

	p := out[0]
	if p.VolumeWindow == nil || !p.VolumeWindow.Equal(dec(t, "200000")) {
		t.Fatalf("unexpected volume window %v", p.VolumeWindow)
	}
	if p.FeeTVLRatioWindow == nil || !p.FeeTVLRatioWindow.Equal(dec(t, "1.5")) {
		t.Fatalf("unexpected ratio window %v", p.FeeTVLRatioWindow)
	}
	// fee_window = tvl * ratio/100 = 1_000_000 * 0.015
	if p.FeeWindow == nil || !p.FeeWindow.Equal(dec(t, "15000")) {
		t.Fatalf("unexpected fee window %v", p.FeeWindow)
	}
	// score = fee_window / volume_window = 15000/200000
	if !p.Score.Equal(dec(t, "0.075")) {
		t.Fatalf("unexpected refined score %s", p.Score)
	}
	if p.FeeOverVol == nil || !p.FeeOverVol.Equal(dec(t, "0.075")) {
		t.Fatalf("unexpected fee_over_vol %v", p.FeeOverVol)
	}
	if p.BaseFeePct == nil || !p.BaseFeePct.Equal(dec(t, "0.25")) {
		t.Fatalf("unexpected base fee %v", p.BaseFeePct)
	}
}

func TestEnrichFallsBackToTradeVolume(t *testing.T) {
	tvl := dec(t, "1000000")
	ranked := []RankedPair{{PairAddress: "AAA", TVL: &tvl}}

	enricher := newTestEnricher(map[string]fields.Record{
		"AAA": {
			"volume":           map[string]any{"hour_1": 5.0}, // wrong bucket
			"trade_volume_24h": 123_456.0,
		},
	})

	out, err := enricher.Enrich(context.Background(), ranked, "24h")
	if err != nil {
		t.Fatalf("enrich should succeed: %v", err)
	}
	if out[0].VolumeWindow == nil || !out[0].VolumeWindow.Equal(dec(t, "123456")) {
		t.Fatalf("expected trade_volume_24h fallback, got %v", out[0].VolumeWindow)
	}
}

func TestEnrichSkipsFailedDetailFetches(t *testing.T) {
	fee := dec(t, "100")
	ranked := []RankedPair{
		{PairAddress: "GONE", Fee24h: &fee, Score: fee},
	}

	out, err := enricherWithoutDetails().Enrich(context.Background(), ranked, "24h")
	if err != nil {
		t.Fatalf("per-pool failures must not abort the run: %v", err)
	}
	p := out[0]
	if p.VolumeWindow != nil || p.FeeWindow != nil {
		t.Fatal("failed fetch must leave pre-enrichment fields untouched")
	}
	// rescore falls through to the raw fee
	if !p.Score.Equal(dec(t, "100")) {
		t.Fatalf("unexpected fallback score %s", p.Score)
	}
}

func enricherWithoutDetails() *Enricher {
	return newTestEnricher(map[string]fields.Record{})
}

func TestEnrichRejectsUnknownWindow(t *testing.T) {
	if _, err := enricherWithoutDetails().Enrich(context.Background(), nil, "7d"); err == nil {
		t.Fatal("unknown window must be rejected")
	}
}

func TestEnrichResortsByRefinedScore(t *testing.T) {
	tvlA := dec(t, "1000000")
	tvlB := dec(t, "1000000")
	feeA := dec(t, "10")
	feeB := dec(t, "5")
	ranked := []RankedPair{
		{PairAddress: "AAA", TVL: &tvlA, Fee24h: &feeA, Score: feeA},
		{PairAddress: "BBB", TVL: &tvlB, Fee24h: &feeB, Score: feeB},
	}

	// BBB becomes far more fee-efficient per unit traded after enrichment.
	enricher := newTestEnricher(map[string]fields.Record{
		"AAA": {
			"volume":        map[string]any{"hour_24": 1_000_000.0},
			"fee_tvl_ratio": map[string]any{"hour_24": 0.1},
		},
		"BBB": {
			"volume":        map[string]any{"hour_24": 1_000.0},
			"fee_tvl_ratio": map[string]any{"hour_24": 0.1},
		},
	})

	out, err := enricher.Enrich(context.Background(), ranked, "24h")
	if err != nil {
		t.Fatalf("enrich should succeed: %v", err)
	}
	if out[0].PairAddress != "BBB" {
		t.Fatalf("expected BBB first after re-rank, got %q", out[0].PairAddress)
	}
}
