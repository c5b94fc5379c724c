package fetcher

import (
	"context"

	"pool-yield-alerts/internal/fields"
)

// PairListFetcher retrieves the full pool snapshot from the aggregator.
type PairListFetcher interface {
	FetchPairs(ctx context.Context) (PairSnapshot, error)
}

// PairDetailFetcher retrieves windowed detail for a single pool.
type PairDetailFetcher interface {
	FetchPairDetail(ctx context.Context, address string) (fields.Record, error)
}

// TokenListFetcher retrieves a mint to token-metadata listing.
type TokenListFetcher interface {
	FetchTokenList(ctx context.Context, url string) (map[string]TokenInfo, error)
}

// PairSnapshot carries the raw pool records plus fetch provenance for the
// report's source section.
type PairSnapshot struct {
	URL             string
	Records         []fields.Record
	Attempts        int
	FetchDurationMS int64
}

// TokenInfo is the display metadata kept per mint.
type TokenInfo struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}
