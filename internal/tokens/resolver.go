package tokens

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"pool-yield-alerts/internal/fetcher"
	"pool-yield-alerts/internal/state"
)

// Well-known mainnet mints.
const (
	MintSOL  = "So11111111111111111111111111111111111111112"
	MintUSDC = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
	MintUSDT = "Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB"
	MintWETH = "7vfCXTUXx5WJV5JADk17DUJ4ksgau7utNKj4b963voxs" // ETH (Wormhole)
)

// DefaultListURL is the primary token list source.
const DefaultListURL = "https://token.jup.ag/all"

// FallbackListURLs are tried in order when the primary source fails or
// yields nothing. The primary is skipped if it appears again here.
var FallbackListURLs = []string{
	DefaultListURL,
	"https://raw.githubusercontent.com/solana-labs/token-list/main/src/tokens/solana.tokenlist.json",
}

var stableMints = map[string]struct{}{
	MintUSDC: {},
	MintUSDT: {},
}

var bluechipMints = map[string]struct{}{
	MintSOL:  {},
	MintWETH: {},
}

// IsStable reports whether a mint is a known stablecoin.
func IsStable(mint string) bool {
	_, ok := stableMints[mint]
	return ok
}

// IsBluechip reports whether a mint is a known major asset.
func IsBluechip(mint string) bool {
	_, ok := bluechipMints[mint]
	return ok
}

// builtinTable is the last-resort mapping used when no source and no cache
// is available at all.
func builtinTable() map[string]fetcher.TokenInfo {
	return map[string]fetcher.TokenInfo{
		MintSOL:  {Symbol: "SOL", Name: "Wrapped SOL"},
		MintUSDC: {Symbol: "USDC", Name: "USD Coin"},
		MintUSDT: {Symbol: "USDT", Name: "Tether USD"},
	}
}

// Resolver maintains the mint to display-symbol mapping, backed by the
// persisted token cache and refreshed from remote sources with a TTL.
type Resolver struct {
	fetcher fetcher.TokenListFetcher
	logger  zerolog.Logger
	now     func() time.Time
}

// NewResolver constructs a token symbol resolver.
func NewResolver(f fetcher.TokenListFetcher, logger zerolog.Logger) *Resolver {
	return &Resolver{
		fetcher: f,
		logger:  logger.With().Str("component", "token_resolver").Logger(),
		now:     time.Now,
	}
}

// Resolve returns the mint to token-info mapping, refreshing the cache when
// it is stale. Source failures are never fatal: the resolver degrades to the
// stale cache if it has entries, and to the builtin table otherwise. On a
// successful refresh the cache is updated in place with the source URL and
// fetch timestamp; persistence is the caller's concern.
func (r *Resolver) Resolve(ctx context.Context, cache *state.TokenCache, primaryURL string, ttl time.Duration) map[string]fetcher.TokenInfo {
	now := r.now()
	if cache.Fresh(now, ttl) {
		return cache.ByMint
	}

	for _, url := range sourceURLs(primaryURL) {
		byMint, err := r.fetcher.FetchTokenList(ctx, url)
		if err != nil {
			r.logger.Debug().Err(err).Str("url", url).Msg("token list source failed")
			continue
		}
		if len(byMint) == 0 {
			r.logger.Debug().Str("url", url).Msg("token list source yielded no entries")
			continue
		}

		cache.FetchedAtMS = r.now().UnixMilli()
		cache.URL = url
		cache.ByMint = byMint
		r.logger.Info().Str("url", url).Int("map_size", len(byMint)).Msg("token list refreshed")
		return byMint
	}

	if len(cache.ByMint) > 0 {
		r.logger.Warn().Msg("token list refresh failed; keeping stale cache")
		return cache.ByMint
	}

	r.logger.Warn().Msg("no token list available; using builtin table")
	return builtinTable()
}

func sourceURLs(primaryURL string) []string {
	if primaryURL == "" {
		primaryURL = DefaultListURL
	}
	urls := []string{primaryURL}
	for _, u := range FallbackListURLs {
		if u != primaryURL {
			urls = append(urls, u)
		}
	}
	return urls
}
