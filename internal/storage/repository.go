package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotConfigured indicates the storage pool was not initialised.
	ErrNotConfigured = errors.New("storage: pool not configured")
)

const (
	upsertPoolSampleSQL = `INSERT INTO pool_samples (
        run_ts,
        pair_address,
        pair_label,
        tvl,
        fee_24h,
        volume_24h,
        trades_24h,
        score,
        fee_over_tvl
    ) VALUES (
        $1,$2,$3,$4,$5,$6,$7,$8,$9
    )
    ON CONFLICT (run_ts, pair_address) DO UPDATE
    SET
        pair_label   = EXCLUDED.pair_label,
        tvl          = EXCLUDED.tvl,
        fee_24h      = EXCLUDED.fee_24h,
        volume_24h   = EXCLUDED.volume_24h,
        trades_24h   = EXCLUDED.trades_24h,
        score        = EXCLUDED.score,
        fee_over_tvl = EXCLUDED.fee_over_tvl;`

	listPoolHistorySQL = `SELECT
        run_ts,
        pair_address,
        pair_label,
        tvl,
        fee_24h,
        volume_24h,
        trades_24h,
        score,
        fee_over_tvl,
        created_at
    FROM pool_samples
    WHERE pair_address = $1
      AND run_ts >= $2
      AND run_ts < $3
    ORDER BY run_ts;`

	countPoolSamplesSQL = `SELECT COUNT(*) FROM pool_samples;`

	insertAlertSQL = `INSERT INTO alerts (
        alert_ts,
        pair_address,
        pair_label,
        triggers,
        tvl,
        fee_24h,
        invest_usd,
        est_fee_share_usd
    ) VALUES (
        $1,$2,$3,$4,$5,$6,$7,$8
    )
    RETURNING id, alert_ts, pair_address, pair_label, triggers, tvl, fee_24h, invest_usd, est_fee_share_usd, created_at;`

	listRecentAlertsSQL = `SELECT
        id,
        alert_ts,
        pair_address,
        pair_label,
        triggers,
        tvl,
        fee_24h,
        invest_usd,
        est_fee_share_usd,
        created_at
    FROM alerts
    ORDER BY created_at DESC
    LIMIT $1;`

	deleteAlertsBeforeSQL = `DELETE FROM alerts WHERE created_at < $1;`

	tryAdvisoryLockSQL = `SELECT pg_try_advisory_lock($1);`
	advisoryUnlockSQL  = `SELECT pg_advisory_unlock($1);`
)

// PoolSampleStore defines operations for pool sample persistence.
type PoolSampleStore interface {
	UpsertPoolSample(ctx context.Context, sample PoolSample) error
	ListPoolHistory(ctx context.Context, pairAddress string, from, to time.Time) ([]PoolSample, error)
	CountPoolSamples(ctx context.Context) (int64, error)
}

// AlertStore defines operations for alert auditing.
type AlertStore interface {
	InsertAlert(ctx context.Context, alert AlertRecord) (AlertRecord, error)
	ListRecentAlerts(ctx context.Context, limit int) ([]AlertRecord, error)
	DeleteAlertsBefore(ctx context.Context, olderThan time.Time) error
}

// AdvisoryLocker exposes advisory lock helpers.
type AdvisoryLocker interface {
	TryAdvisoryLock(ctx context.Context, key int64) (unlock func(), acquired bool, err error)
}

// Store aggregates access to pool samples and alerts.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wires a pgx pool into a Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// TryAdvisoryLock attempts to acquire a postgres advisory lock and returns a release func.
func (s *Store) TryAdvisoryLock(ctx context.Context, key int64) (func(), bool, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, false, err
	}

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("acquire connection: %w", err)
	}

	var acquired bool
	if err := conn.QueryRow(ctx, tryAdvisoryLockSQL, key).Scan(&acquired); err != nil {
		conn.Release()
		return nil, false, fmt.Errorf("try advisory lock: %w", err)
	}
	if !acquired {
		conn.Release()
		return nil, false, nil
	}

	unlock := func() {
		ctxUnlock, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if _, err := conn.Exec(ctxUnlock, advisoryUnlockSQL, key); err != nil {
			// unlock best effort; log omitted in storage package
		}
		conn.Release()
	}
	return unlock, true, nil
}

func (s *Store) getPool() (*pgxpool.Pool, error) {
	if s == nil || s.pool == nil {
		return nil, ErrNotConfigured
	}
	return s.pool, nil
}

// UpsertPoolSample persists or updates one observation for a scan run.
func (s *Store) UpsertPoolSample(ctx context.Context, sample PoolSample) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}

	_, execErr := pool.Exec(ctx, upsertPoolSampleSQL,
		sample.RunTS,
		sample.PairAddress,
		sample.PairLabel,
		decimalArg(sample.TVL),
		decimalArg(sample.Fee24h),
		decimalArg(sample.Volume24h),
		decimalArg(sample.Trades24h),
		sample.Score.String(),
		decimalArg(sample.FeeOverTVL),
	)
	if execErr != nil {
		return fmt.Errorf("upsert pool sample: %w", execErr)
	}
	return nil
}

// ListPoolHistory lists samples for one pool within a time window.
func (s *Store) ListPoolHistory(ctx context.Context, pairAddress string, from, to time.Time) ([]PoolSample, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listPoolHistorySQL, pairAddress, from, to)
	if queryErr != nil {
		return nil, fmt.Errorf("list pool history: %w", queryErr)
	}
	defer rows.Close()

	samples := make([]PoolSample, 0)
	for rows.Next() {
		sample, scanErr := scanPoolSample(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		samples = append(samples, sample)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return samples, nil
}

// CountPoolSamples counts stored samples.
func (s *Store) CountPoolSamples(ctx context.Context) (int64, error) {
	pool, err := s.getPool()
	if err != nil {
		return 0, err
	}
	var count int64
	if scanErr := pool.QueryRow(ctx, countPoolSamplesSQL).Scan(&count); scanErr != nil {
		return 0, fmt.Errorf("count pool samples: %w", scanErr)
	}
	return count, nil
}

// InsertAlert persists an alert emission.
func (s *Store) InsertAlert(ctx context.Context, alert AlertRecord) (AlertRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return AlertRecord{}, err
	}

	row := pool.QueryRow(ctx, insertAlertSQL,
		alert.AlertTS,
		alert.PairAddress,
		alert.PairLabel,
		alert.Triggers,
		decimalArg(alert.TVL),
		decimalArg(alert.Fee24h),
		alert.InvestUSD.String(),
		decimalArg(alert.EstFeeShareUSD),
	)

	rec, scanErr := scanAlertRecord(row)
	if scanErr != nil {
		return AlertRecord{}, fmt.Errorf("insert alert: %w", scanErr)
	}
	return rec, nil
}

// ListRecentAlerts lists most recent alerts.
func (s *Store) ListRecentAlerts(ctx context.Context, limit int) ([]AlertRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listRecentAlertsSQL, limit)
	if queryErr != nil {
		return nil, fmt.Errorf("list recent alerts: %w", queryErr)
	}
	defer rows.Close()

	alerts := make([]AlertRecord, 0, limit)
	for rows.Next() {
		rec, scanErr := scanAlertRecord(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		alerts = append(alerts, rec)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return alerts, nil
}

// DeleteAlertsBefore deletes historical alerts.
func (s *Store) DeleteAlertsBefore(ctx context.Context, olderThan time.Time) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}
	if _, execErr := pool.Exec(ctx, deleteAlertsBeforeSQL, olderThan); execErr != nil {
		return fmt.Errorf("delete alerts before: %w", execErr)
	}
	return nil
}

func decimalArg(v *decimal.Decimal) interface{} {
	if v == nil {
		return nil
	}
	return v.String()
}

func parseNullableDecimal(v sql.NullString, field string) (*decimal.Decimal, error) {
	if !v.Valid {
		return nil, nil
	}
	d, err := decimal.NewFromString(v.String)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", field, err)
	}
	return &d, nil
}

func scanPoolSample(rows pgx.Rows) (PoolSample, error) {
	var (
		runTS       time.Time
		pairAddress string
		pairLabel   string
		tvl         sql.NullString
		fee         sql.NullString
		volume      sql.NullString
		trades      sql.NullString
		scoreStr    string
		feeOverTVL  sql.NullString
		createdAt   time.Time
	)

	if err := rows.Scan(
		&runTS,
		&pairAddress,
		&pairLabel,
		&tvl,
		&fee,
		&volume,
		&trades,
		&scoreStr,
		&feeOverTVL,
		&createdAt,
	); err != nil {
		return PoolSample{}, err
	}

	score, err := decimal.NewFromString(scoreStr)
	if err != nil {
		return PoolSample{}, fmt.Errorf("parse score: %w", err)
	}

	sample := PoolSample{
		RunTS:       runTS,
		PairAddress: pairAddress,
		PairLabel:   pairLabel,
		Score:       score,
		CreatedAt:   createdAt,
	}

	if sample.TVL, err = parseNullableDecimal(tvl, "tvl"); err != nil {
		return PoolSample{}, err
	}
	if sample.Fee24h, err = parseNullableDecimal(fee, "fee_24h"); err != nil {
		return PoolSample{}, err
	}
	if sample.Volume24h, err = parseNullableDecimal(volume, "volume_24h"); err != nil {
		return PoolSample{}, err
	}
	if sample.Trades24h, err = parseNullableDecimal(trades, "trades_24h"); err != nil {
		return PoolSample{}, err
	}
	if sample.FeeOverTVL, err = parseNullableDecimal(feeOverTVL, "fee_over_tvl"); err != nil {
		return PoolSample{}, err
	}

	return sample, nil
}

func scanAlertRecord(row pgx.Row) (AlertRecord, error) {
	var (
		rec       AlertRecord
		tvl       sql.NullString
		fee       sql.NullString
		investStr string
		estShare  sql.NullString
	)

	if err := row.Scan(
		&rec.ID,
		&rec.AlertTS,
		&rec.PairAddress,
		&rec.PairLabel,
		&rec.Triggers,
		&tvl,
		&fee,
		&investStr,
		&estShare,
		&rec.CreatedAt,
	); err != nil {
		return AlertRecord{}, err
	}

	invest, err := decimal.NewFromString(investStr)
	if err != nil {
		return AlertRecord{}, fmt.Errorf("parse invest_usd: %w", err)
	}
	rec.InvestUSD = invest

	if rec.TVL, err = parseNullableDecimal(tvl, "tvl"); err != nil {
		return AlertRecord{}, err
	}
	if rec.Fee24h, err = parseNullableDecimal(fee, "fee_24h"); err != nil {
		return AlertRecord{}, err
	}
	if rec.EstFeeShareUSD, err = parseNullableDecimal(estShare, "est_fee_share_usd"); err != nil {
		return AlertRecord{}, err
	}

	return rec, nil
}
