package storage

import (
	"time"

	"github.com/shopspring/decimal"
)

// PoolSample represents one persisted pool observation from a scan run.
type PoolSample struct {
	RunTS       time.Time
	PairAddress string
	PairLabel   string
	TVL         *decimal.Decimal
	Fee24h      *decimal.Decimal
	Volume24h   *decimal.Decimal
	Trades24h   *decimal.Decimal
	Score       decimal.Decimal
	FeeOverTVL  *decimal.Decimal
	CreatedAt   time.Time
}

// AlertRecord captures an emitted alert for de-duplication/auditing.
type AlertRecord struct {
	ID             int64
	AlertTS        time.Time
	PairAddress    string
	PairLabel      string
	Triggers       []string
	TVL            *decimal.Decimal
	Fee24h         *decimal.Decimal
	InvestUSD      decimal.Decimal
	EstFeeShareUSD *decimal.Decimal
	CreatedAt      time.Time
}
