package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	"pool-yield-alerts/internal/fetcher"
	"pool-yield-alerts/internal/fields"
	"pool-yield-alerts/internal/service"
)

// SimulateAlert 用合成池子数据模拟一次完整的告警流程。
func (a *App) SimulateAlert(ctx context.Context, tvl, fee, volume decimal.Decimal) error {
	notifier := a.newNotifier()
	if notifier == nil {
		return errors.New("未配置任何告警通道")
	}

	// 模拟运行使用临时状态文件，避免污染真实的冷却状态。
	tmpDir, err := os.MkdirTemp("", "dlmmwatch-simulate")
	if err != nil {
		return err
	}
	defer os.RemoveAll(tmpDir)

	originalPath := a.Config.State.Path
	a.Config.State.Path = filepath.Join(tmpDir, "watch_state.json")
	defer func() { a.Config.State.Path = originalPath }()

	pairs := &staticPairFetcher{
		snapshot: fetcher.PairSnapshot{
			URL:      "simulated",
			Attempts: 1,
			Records: []fields.Record{
				{
					"address":    "SimulatedPool1111111111111111111111111111111",
					"fees_24h":   fee.InexactFloat64(),
					"volume_24h": volume.InexactFloat64(),
					"liquidity":  tvl.InexactFloat64(),
				},
			},
		},
	}

	svc := service.New(a.Config, nil, pairs, nil, nil, nil, nil, notifier, a.Logger)
	report, err := svc.Scan(ctx, time.Now().UTC())
	if err != nil {
		return err
	}
	if len(report.Alerts) == 0 {
		return errors.New("模拟池子未触发任何告警, 请调高 fee 或调低 tvl")
	}
	return nil
}

type staticPairFetcher struct {
	snapshot fetcher.PairSnapshot
}

func (s *staticPairFetcher) FetchPairs(ctx context.Context) (fetcher.PairSnapshot, error) {
	return s.snapshot, nil
}

var _ fetcher.PairListFetcher = (*staticPairFetcher)(nil)
