package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"pool-yield-alerts/internal/fields"
)

const (
	pairAllPath = "/pair/all"
)

// DLMMOptions parameterise the aggregator API client.
type DLMMOptions struct {
	BaseURL         string
	SnapshotTimeout time.Duration
	DetailTimeout   time.Duration
	SnapshotRetries int
	RetryBackoff    time.Duration
	UserAgent       string
}

// DLMM fetches pool data from a Meteora-style DLMM REST API.
type DLMM struct {
	opts    DLMMOptions
	logger  zerolog.Logger
	client  *http.Client
	baseURL string
	sleep   func(ctx context.Context, d time.Duration) error
}

// NewDLMM constructs an aggregator API client.
func NewDLMM(opts DLMMOptions, logger zerolog.Logger) *DLMM {
	if opts.SnapshotTimeout <= 0 {
		opts.SnapshotTimeout = 45 * time.Second
	}
	if opts.DetailTimeout <= 0 {
		opts.DetailTimeout = 20 * time.Second
	}
	if opts.SnapshotRetries <= 0 {
		opts.SnapshotRetries = 3
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = 800 * time.Millisecond
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://dlmm-api.meteora.ag"
	}

	return &DLMM{
		opts:    opts,
		logger:  logger.With().Str("component", "dlmm_fetcher").Logger(),
		client:  &http.Client{},
		baseURL: baseURL,
		sleep:   sleepCtx,
	}
}

// FetchPairs retrieves the full pool list. The snapshot is the one input the
// pipeline cannot proceed without, so the request is retried with a growing
// backoff and the last error is returned once attempts are exhausted.
func (d *DLMM) FetchPairs(ctx context.Context) (PairSnapshot, error) {
	url := d.baseURL + pairAllPath
	started := time.Now()

	var lastErr error
	for attempt := 1; attempt <= d.opts.SnapshotRetries; attempt++ {
		records, err := d.fetchPairsOnce(ctx, url)
		if err == nil {
			return PairSnapshot{
				URL:             url,
				Records:         records,
				Attempts:        attempt,
				FetchDurationMS: time.Since(started).Milliseconds(),
			}, nil
		}
		lastErr = err
		d.logger.Warn().Err(err).Int("attempt", attempt).Msg("pair snapshot fetch failed")

		if attempt < d.opts.SnapshotRetries {
			if sleepErr := d.sleep(ctx, time.Duration(attempt)*d.opts.RetryBackoff); sleepErr != nil {
				return PairSnapshot{URL: url}, sleepErr
			}
		}
	}

	return PairSnapshot{
		URL:             url,
		Attempts:        d.opts.SnapshotRetries,
		FetchDurationMS: time.Since(started).Milliseconds(),
	}, fmt.Errorf("fetch %s: %w", url, lastErr)
}

func (d *DLMM) fetchPairsOnce(ctx context.Context, url string) ([]fields.Record, error) {
	payload, err := d.getJSON(ctx, url, d.opts.SnapshotTimeout)
	if err != nil {
		return nil, err
	}
	return decodePairList(payload)
}

// decodePairList accepts the two list shapes the aggregator has been seen to
// return: a bare array of records, or an object wrapping the array under
// "pairs" or "tokens". Anything else is a hard failure.
func decodePairList(payload any) ([]fields.Record, error) {
	list, ok := payload.([]any)
	if !ok {
		wrapper, isObj := payload.(map[string]any)
		if !isObj {
			return nil, fmt.Errorf("unexpected pair list response shape %T", payload)
		}
		for _, key := range []string{"pairs", "tokens"} {
			if inner, isList := wrapper[key].([]any); isList {
				list = inner
				ok = true
				break
			}
		}
		if !ok {
			return nil, errors.New("pair list response carries no recognised array")
		}
	}

	records := make([]fields.Record, 0, len(list))
	for _, item := range list {
		if rec, isObj := item.(map[string]any); isObj {
			records = append(records, fields.Record(rec))
		}
	}
	return records, nil
}

// FetchPairDetail retrieves the windowed detail resource for one pool. The
// record is returned raw so the enricher can resolve fields adaptively.
func (d *DLMM) FetchPairDetail(ctx context.Context, address string) (fields.Record, error) {
	if address == "" {
		return nil, errors.New("pair address required")
	}

	payload, err := d.getJSON(ctx, d.baseURL+"/pair/"+address, d.opts.DetailTimeout)
	if err != nil {
		return nil, err
	}

	detail, ok := payload.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("unexpected pair detail response shape %T", payload)
	}
	return fields.Record(detail), nil
}

func (d *DLMM) getJSON(ctx context.Context, url string, timeout time.Duration) (any, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if ua := strings.TrimSpace(d.opts.UserAgent); ua != "" {
		req.Header.Set("User-Agent", ua)
	} else {
		req.Header.Set("User-Agent", "dlmmwatch/1.0")
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, httpError(url, resp.StatusCode, body)
	}

	var payload any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode %s: %w", url, err)
	}
	return payload, nil
}

func httpError(url string, status int, body []byte) error {
	snippet := strings.TrimSpace(string(body))
	if len(snippet) > 160 {
		snippet = snippet[:160]
	}
	if snippet != "" {
		return fmt.Errorf("%s returned %d: %s", url, status, snippet)
	}
	return fmt.Errorf("%s returned %d", url, status)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

var _ PairListFetcher = (*DLMM)(nil)
var _ PairDetailFetcher = (*DLMM)(nil)
