package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"pool-yield-alerts/internal/alerting"
	"pool-yield-alerts/internal/config"
	"pool-yield-alerts/internal/fetcher"
	"pool-yield-alerts/internal/fields"
	"pool-yield-alerts/internal/ranking"
	"pool-yield-alerts/internal/scheduler"
	"pool-yield-alerts/internal/state"
	"pool-yield-alerts/internal/storage"
	"pool-yield-alerts/internal/tokens"
	"pool-yield-alerts/internal/triggers"
)

// Service orchestrates fetching, ranking, trigger evaluation, and alerting.
type Service struct {
	scheduler  *scheduler.Scheduler
	pairs      fetcher.PairListFetcher
	enricher   *ranking.Enricher
	tokens     *tokens.Resolver
	store      storage.PoolSampleStore
	alertStore storage.AlertStore
	notifier   alerting.Notifier
	logger     zerolog.Logger

	topN            int
	minTVL          decimal.Decimal
	investUSD       decimal.Decimal
	window          string
	enrichDetails   bool
	focus           string
	includeRanked   bool
	excludeBluechip bool
	feeTVLWindowMin *decimal.Decimal
	scoreTopK       int
	cooldown        time.Duration
	tokenListURL    string
	tokenCacheTTL   time.Duration
	statePath       string

	locker  storage.AdvisoryLocker
	lockKey int64
	now     func() time.Time
}

// New constructs the scanning service.
func New(cfg *config.Config, sched *scheduler.Scheduler, pairs fetcher.PairListFetcher, enricher *ranking.Enricher, resolver *tokens.Resolver, store storage.PoolSampleStore, alertStore storage.AlertStore, notifier alerting.Notifier, logger zerolog.Logger) *Service {
	var windowMin *decimal.Decimal
	if cfg.Triggers.FeeTVLWindowMin > 0 {
		v := decimal.NewFromFloat(cfg.Triggers.FeeTVLWindowMin)
		windowMin = &v
	}

	var locker storage.AdvisoryLocker
	if l, ok := store.(storage.AdvisoryLocker); ok {
		locker = l
	}

	return &Service{
		scheduler:  sched,
		pairs:      pairs,
		enricher:   enricher,
		tokens:     resolver,
		store:      store,
		alertStore: alertStore,
		notifier:   notifier,
		logger:     logger.With().Str("component", "service").Logger(),

		topN:            cfg.Scan.TopN,
		minTVL:          decimal.NewFromFloat(cfg.Scan.MinTVL),
		investUSD:       decimal.NewFromFloat(cfg.Scan.InvestUSD),
		window:          cfg.Scan.Window,
		enrichDetails:   cfg.Scan.EnrichDetails,
		focus:           cfg.Scan.Focus,
		includeRanked:   cfg.Scan.IncludeRanked,
		excludeBluechip: cfg.Triggers.ExcludeBluechip,
		feeTVLWindowMin: windowMin,
		scoreTopK:       cfg.Triggers.ScoreTopK,
		cooldown:        cfg.Alerting.Cooldown,
		tokenListURL:    cfg.Tokens.ListURL,
		tokenCacheTTL:   cfg.Tokens.CacheTTL,
		statePath:       cfg.State.Path,

		locker:  locker,
		lockKey: cfg.Scheduler.AdvisoryLockKey,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// SetClock overrides the wall clock, for tests.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Run begins the periodic scan loop.
func (s *Service) Run(ctx context.Context) error {
	if s.scheduler == nil {
		return fmt.Errorf("scheduler not configured")
	}
	return s.scheduler.Run(ctx, s.ProcessRun)
}

// ProcessRun 执行单次扫描逻辑。
func (s *Service) ProcessRun(ctx context.Context, runAt time.Time) error {
	unlock, proceed, err := s.acquireLock(ctx)
	if err != nil {
		return err
	}
	if !proceed {
		s.logger.Debug().Time("run_at", runAt).Msg("skip run because advisory lock held elsewhere")
		return nil
	}
	if unlock != nil {
		defer unlock()
	}

	_, err = s.Scan(ctx, runAt)
	return err
}

// Scan performs one full pipeline pass and returns the run report. Only a
// failed snapshot fetch or an invalid window aborts the run; downstream
// failures degrade individual sections and are logged.
func (s *Service) Scan(ctx context.Context, runAt time.Time) (*Report, error) {
	if _, ok := ranking.BucketKey(s.window); !ok {
		return nil, fmt.Errorf("unknown window %q", s.window)
	}

	snapshot, err := s.pairs.FetchPairs(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch pool snapshot: %w", err)
	}

	diag := fields.Diagnostics{}
	ranked := ranking.Rank(snapshot.Records, s.topN, diag)

	st := state.Load(s.statePath)

	var tokenMap map[string]fetcher.TokenInfo
	if s.tokens != nil {
		tokenMap = s.tokens.Resolve(ctx, &st.TokenCache, s.tokenListURL, s.tokenCacheTTL)
	} else {
		tokenMap = map[string]fetcher.TokenInfo{}
	}

	if s.enrichDetails && s.enricher != nil {
		ranked, err = s.enricher.Enrich(ctx, ranked, s.window)
		if err != nil {
			return nil, err
		}
	}

	// Labels are applied before the focus filter so symbol-based category
	// exclusions can see them.
	ranking.ApplyLabels(ranked, tokenMap)

	sets := triggers.BuildSets(ranked, s.scoreTopK)
	focused := triggers.FilterFocus(ranked, s.focus, s.excludeBluechip)

	outcome := triggers.Evaluate(focused, triggers.Params{
		MinTVL:          s.minTVL,
		FeeTVLWindowMin: s.feeTVLWindowMin,
		ScoreTopK:       s.scoreTopK,
	}, sets)

	now := s.now()
	suppressed := 0
	alerts := make([]alerting.Alert, 0, len(outcome.Candidates))
	for _, c := range outcome.Candidates {
		if !st.Admit(c.Pair.PairAddress, now, s.cooldown) {
			suppressed++
			continue
		}
		alerts = append(alerts, alerting.NewAlert(c, s.investUSD, now.UnixMilli()))
	}

	if err := st.Save(s.statePath); err != nil {
		s.logger.Error().Err(err).Str("path", s.statePath).Msg("failed to persist watch state")
	}

	s.persist(ctx, runAt, ranked, alerts)

	if s.notifier != nil && len(alerts) > 0 {
		if err := s.notifier.Notify(ctx, alerts); err != nil {
			s.logger.Error().Err(err).Msg("failed to dispatch alerts")
		}
	}

	report := s.buildReport(snapshot, ranked, outcome, suppressed, alerts, st, diag, runAt)

	s.logger.Info().
		Int("fetched", len(snapshot.Records)).
		Int("ranked", len(ranked)).
		Int("eligible", outcome.EligibleAfterTVL).
		Int("alerts", len(alerts)).
		Int("suppressed", suppressed).
		Msg("scan complete")

	return report, nil
}

func (s *Service) persist(ctx context.Context, runAt time.Time, ranked []ranking.RankedPair, alerts []alerting.Alert) {
	if s.store != nil {
		for _, p := range ranked {
			sample := storage.PoolSample{
				RunTS:       runAt,
				PairAddress: p.PairAddress,
				PairLabel:   p.PairLabel,
				TVL:         p.TVL,
				Fee24h:      p.Fee24h,
				Volume24h:   p.Volume24h,
				Trades24h:   p.Trades24h,
				Score:       p.Score,
				FeeOverTVL:  p.FeeOverTVL,
			}
			if err := s.store.UpsertPoolSample(ctx, sample); err != nil {
				s.logger.Error().Err(err).Str("pair", p.PairAddress).Msg("failed to upsert pool sample")
				break
			}
		}
	}

	if s.alertStore != nil {
		for _, a := range alerts {
			record := storage.AlertRecord{
				AlertTS:        time.UnixMilli(a.AlertTSMS).UTC(),
				PairAddress:    a.PairAddress,
				PairLabel:      a.PairLabel,
				Triggers:       a.TriggerNames,
				TVL:            a.TVL,
				Fee24h:         a.Fee24h,
				InvestUSD:      a.InvestUSD,
				EstFeeShareUSD: a.EstFeeShare24hUSD,
			}
			if _, err := s.alertStore.InsertAlert(ctx, record); err != nil {
				s.logger.Error().Err(err).Str("pair", a.PairAddress).Msg("failed to persist alert record")
			}
		}
	}
}

func (s *Service) buildReport(snapshot fetcher.PairSnapshot, ranked []ranking.RankedPair, outcome triggers.Outcome, suppressed int, alerts []alerting.Alert, st *state.State, diag fields.Diagnostics, runAt time.Time) *Report {
	windowPresent := 0
	for _, p := range ranked {
		if p.VolumeWindow != nil {
			windowPresent++
		}
	}

	scoring := "coarse: first of fee/volume/trades/tvl"
	if s.enrichDetails {
		scoring = "fee_window/volume_window with fee/tvl and fee fallbacks"
	}

	report := &Report{
		Source: Source{
			URL:             snapshot.URL,
			FetchedCount:    len(snapshot.Records),
			Attempts:        snapshot.Attempts,
			FetchDurationMS: snapshot.FetchDurationMS,
			RunAtMS:         runAt.UnixMilli(),
		},
		Ranked: RankedSummary{
			Count:                   len(ranked),
			Window:                  s.window,
			Scoring:                 scoring,
			Focus:                   s.focus,
			MinTVL:                  s.minTVL.String(),
			EligibleAfterTVL:        outcome.EligibleAfterTVL,
			TriggeredBeforeCooldown: outcome.TriggeredBeforeCooldown,
			SuppressedByCooldown:    suppressed,
			TriggersCount:           outcome.Counts,
			VolumeWindowPresent:     windowPresent,
		},
		TokenList: TokenListInfo{
			URL:        st.TokenCache.URL,
			CachedAtMS: st.TokenCache.FetchedAtMS,
			MapSize:    len(st.TokenCache.ByMint),
		},
		FieldDiagnostics: diag,
		Alerts:           alerts,
	}
	if s.includeRanked {
		report.Ranked.Pairs = ranked
	}
	return report
}

func (s *Service) acquireLock(ctx context.Context) (func(), bool, error) {
	if s.lockKey == 0 || s.locker == nil {
		return nil, true, nil
	}
	unlock, acquired, err := s.locker.TryAdvisoryLock(ctx, s.lockKey)
	if err != nil {
		return nil, false, fmt.Errorf("acquire advisory lock: %w", err)
	}
	if !acquired {
		return nil, false, nil
	}
	return unlock, true, nil
}
