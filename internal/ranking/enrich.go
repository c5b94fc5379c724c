package ranking

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"pool-yield-alerts/internal/fetcher"
	"pool-yield-alerts/internal/fields"
)

var decHundred = decimal.NewFromInt(100)

// Enricher refines the ranked set with per-pool windowed detail.
type Enricher struct {
	detail fetcher.PairDetailFetcher
	logger zerolog.Logger
}

// NewEnricher constructs a detail enricher.
func NewEnricher(detail fetcher.PairDetailFetcher, logger zerolog.Logger) *Enricher {
	return &Enricher{
		detail: detail,
		logger: logger.With().Str("component", "enricher").Logger(),
	}
}

// Enrich fetches per-pool detail for each ranked pair, derives windowed
// volume and fee figures, recomputes scores, and re-sorts. A failed detail
// fetch leaves that pool on its pre-enrichment fields; enrichment is never
// fatal to the run.
func (e *Enricher) Enrich(ctx context.Context, ranked []RankedPair, window string) ([]RankedPair, error) {
	bucket, ok := BucketKey(window)
	if !ok {
		return ranked, fmt.Errorf("unknown window %q", window)
	}

	for i := range ranked {
		p := &ranked[i]
		if p.PairAddress == "" {
			continue
		}

		detail, err := e.detail.FetchPairDetail(ctx, p.PairAddress)
		if err != nil {
			e.logger.Debug().Err(err).Str("pair", p.PairAddress).Msg("detail fetch failed; keeping coarse fields")
			continue
		}

		applyDetail(p, detail, bucket)
	}

	for i := range ranked {
		rescore(&ranked[i])
	}
	sortRanked(ranked)
	return ranked, nil
}

func applyDetail(p *RankedPair, detail fields.Record, bucket string) {
	// Windowed volume: prefer the matching bucket, fall back to the general
	// 24h trade volume field.
	if v, ok := fields.NestedNumber(detail, detailVolumeKey, bucket); ok {
		p.VolumeWindow = &v
	} else if v, _, ok := fields.FirstNumber(detail, detailTradeVolumeKeys); ok {
		p.VolumeWindow = &v
	}

	// fee_tvl_ratio buckets are percent values (1.59 means 1.59%).
	if r, ok := fields.NestedNumber(detail, detailFeeTVLRatioKey, bucket); ok {
		p.FeeTVLRatioWindow = &r
	}

	if p.FeeTVLRatioWindow != nil && p.TVL != nil && p.TVL.IsPositive() {
		fee := p.TVL.Mul(p.FeeTVLRatioWindow.Div(decHundred))
		p.FeeWindow = &fee
	}

	if v, _, ok := fields.FirstNumber(detail, detailBaseFeeKeys); ok {
		p.BaseFeePct = &v
	}
	if v, _, ok := fields.FirstNumber(detail, detailMaxFeeKeys); ok {
		p.MaxFeePct = &v
	}
}

// rescore recomputes the refined score: fee efficiency per unit traded when
// both windowed figures are positive, then fee per TVL, then the raw fee,
// then zero.
func rescore(p *RankedPair) {
	fee := p.FeeWindow
	if fee == nil {
		fee = p.Fee24h
	}
	vol := p.VolumeWindow
	if vol == nil {
		vol = p.Volume24h
	}

	p.FeeOverVol = nil
	switch {
	case fee != nil && fee.IsPositive() && vol != nil && vol.IsPositive():
		ratio := fee.Div(*vol)
		p.FeeOverVol = &ratio
		p.Score = ratio
	case fee != nil && p.TVL != nil && p.TVL.IsPositive():
		p.Score = fee.Div(*p.TVL)
	case fee != nil:
		p.Score = *fee
	default:
		p.Score = decimal.Zero
	}
}
