package app

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"pool-yield-alerts/internal/alerting"
	"pool-yield-alerts/internal/config"
	"pool-yield-alerts/internal/fetcher"
	"pool-yield-alerts/internal/ranking"
	"pool-yield-alerts/internal/scheduler"
	"pool-yield-alerts/internal/service"
	"pool-yield-alerts/internal/storage"
	"pool-yield-alerts/internal/tokens"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

func (a *App) newDLMM() *fetcher.DLMM {
	return fetcher.NewDLMM(fetcher.DLMMOptions{
		BaseURL:         a.Config.Meteora.BaseURL,
		SnapshotTimeout: a.Config.Meteora.SnapshotTimeout,
		DetailTimeout:   a.Config.Meteora.DetailTimeout,
		SnapshotRetries: a.Config.Meteora.SnapshotRetries,
		RetryBackoff:    a.Config.Meteora.RetryBackoff,
		UserAgent:       a.Config.Meteora.UserAgent,
	}, a.Logger)
}

func (a *App) newTokenResolver() *tokens.Resolver {
	client := fetcher.NewTokenListClient(fetcher.TokenListOptions{
		Timeout:   a.Config.Meteora.SnapshotTimeout,
		UserAgent: a.Config.Meteora.UserAgent,
	}, a.Logger)
	return tokens.NewResolver(client, a.Logger)
}

func (a *App) newEnricher(dlmm *fetcher.DLMM) *ranking.Enricher {
	if !a.Config.Scan.EnrichDetails {
		return nil
	}
	return ranking.NewEnricher(dlmm, a.Logger)
}

func (a *App) newNotifier() alerting.Notifier {
	if a.Config.Alerting.Telegram.Enabled {
		cfg := a.Config.Alerting.Telegram
		return alerting.NewTelegramNotifier(cfg.BotToken, cfg.ChatID, cfg.APIBase, 10*time.Second, a.Logger)
	}
	return nil
}

func (a *App) openStore(ctx context.Context) (*storage.Store, func(), error) {
	if !a.Config.Database.Enabled || a.Config.Database.DSN == "" {
		return nil, nil, nil
	}

	pool, err := storage.NewPool(ctx, a.Config.Database)
	if err != nil {
		return nil, nil, err
	}

	store := storage.NewStore(pool)
	closer := func() {
		store.Close()
	}
	return store, closer, nil
}

func (a *App) newService(sched *scheduler.Scheduler, store *storage.Store) *service.Service {
	dlmm := a.newDLMM()

	var sampleStore storage.PoolSampleStore
	var alertStore storage.AlertStore
	if store != nil {
		sampleStore = store
		alertStore = store
	}

	return service.New(
		a.Config,
		sched,
		dlmm,
		a.newEnricher(dlmm),
		a.newTokenResolver(),
		sampleStore,
		alertStore,
		a.newNotifier(),
		a.Logger,
	)
}

// Run executes the long-running scan loop.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		a.Logger.Warn().Msg("database not configured; persistence disabled")
	}
	if closeStore != nil {
		defer closeStore()
	}

	sched := scheduler.New(scheduler.Options{
		Interval:     a.Config.Scheduler.Interval,
		AlignToStart: a.Config.Scheduler.AlignToStart,
		StartupDelay: a.Config.Scheduler.StartupDelay,
		RunOnStart:   a.Config.Scheduler.RunOnStart,
	}, a.Logger)

	svc := a.newService(sched, store)

	a.Logger.Info().Msg("starting pool watch service")
	err = svc.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Error().Err(err).Msg("service terminated with error")
		return err
	}

	a.Logger.Info().Msg("pool watch service stopped")
	return nil
}

// ScanOptions configure a one-shot scan.
type ScanOptions struct {
	Window        string
	TopN          int
	MinTVL        float64
	InvestUSD     float64
	Cooldown      time.Duration
	Focus         string
	JSONOutput    bool
	IncludeRanked bool
}

// ExportOptions hold parameters for exporting pool history.
type ExportOptions struct {
	PairAddress string
	From        *time.Time
	To          *time.Time
	PNGPath     string
	CSVPath     string
	MaxPoints   int
}

// ShowOptions configure the show command.
type ShowOptions struct {
	Limit int
}
