package ranking

// Candidate key lists, in priority order, covering the naming variants the
// aggregator has shipped (camelCase, snake_case, abbreviated forms). Extend
// these rather than adding ad-hoc lookups when the upstream schema drifts.
var (
	addressKeys = []string{"address", "pair_address", "pairAddress", "lbPair", "poolAddress", "pool_address"}
	mintXKeys   = []string{"mint_x", "mintX", "tokenXMint", "token_x_mint", "token0Mint", "token0_mint"}
	mintYKeys   = []string{"mint_y", "mintY", "tokenYMint", "token_y_mint", "token1Mint", "token1_mint"}
	feeKeys     = []string{"fee24h", "fees24h", "fees_24h", "fee_24h", "fee_24_hours", "fees_24_hours"}
	volumeKeys  = []string{"volume24h", "volume_24h", "volume_24_hours", "volume24H", "volume", "volume_usd", "volumeUsd"}
	tradesKeys  = []string{"trade24h", "trades24h", "trades_24h", "txn24h", "txns24h", "txCount24h"}
	tvlKeys     = []string{"tvl", "liquidity", "liquidity_usd", "tvl_usd", "tvlUsd", "liquidityUsd"}
)

// Detail-resource keys.
const (
	detailVolumeKey      = "volume"
	detailFeeTVLRatioKey = "fee_tvl_ratio"
)

var (
	detailTradeVolumeKeys = []string{"trade_volume_24h"}
	detailBaseFeeKeys     = []string{"base_fee_percentage"}
	detailMaxFeeKeys      = []string{"max_fee_percentage"}
)

// windowBuckets maps the user-facing window names onto the bucket keys used
// inside the detail resource.
var windowBuckets = map[string]string{
	"30m": "min_30",
	"1h":  "hour_1",
	"2h":  "hour_2",
	"4h":  "hour_4",
	"12h": "hour_12",
	"24h": "hour_24",
}

// BucketKey translates a window name to its detail bucket key.
func BucketKey(window string) (string, bool) {
	key, ok := windowBuckets[window]
	return key, ok
}
