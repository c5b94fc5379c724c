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
)

// TokenListOptions parameterise the token list client.
type TokenListOptions struct {
	Timeout   time.Duration
	UserAgent string
}

// TokenListClient downloads token lists in either of the two known shapes:
// a flat array of token objects (Jupiter) or an object with a nested
// "tokens" array (solana-labs token-list).
type TokenListClient struct {
	opts   TokenListOptions
	logger zerolog.Logger
	client *http.Client
}

// NewTokenListClient constructs a token list client.
func NewTokenListClient(opts TokenListOptions, logger zerolog.Logger) *TokenListClient {
	if opts.Timeout <= 0 {
		opts.Timeout = 45 * time.Second
	}
	return &TokenListClient{
		opts:   opts,
		logger: logger.With().Str("component", "tokenlist_fetcher").Logger(),
		client: &http.Client{Timeout: opts.Timeout},
	}
}

// FetchTokenList downloads and normalises one token list source. Entries
// lacking a non-empty address or symbol are skipped.
func (t *TokenListClient) FetchTokenList(ctx context.Context, url string) (map[string]TokenInfo, error) {
	if url == "" {
		return nil, errors.New("token list url required")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if ua := strings.TrimSpace(t.opts.UserAgent); ua != "" {
		req.Header.Set("User-Agent", ua)
	}

	resp, err := t.client.Do(req)
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

	return normaliseTokenList(payload), nil
}

func normaliseTokenList(payload any) map[string]TokenInfo {
	var entries []any
	switch v := payload.(type) {
	case []any:
		entries = v
	case map[string]any:
		if inner, ok := v["tokens"].([]any); ok {
			entries = inner
		}
	}

	byMint := make(map[string]TokenInfo, len(entries))
	for _, entry := range entries {
		obj, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		addr, _ := obj["address"].(string)
		symbol, _ := obj["symbol"].(string)
		if addr == "" || symbol == "" {
			continue
		}
		name, _ := obj["name"].(string)
		if name == "" {
			name = symbol
		}
		byMint[addr] = TokenInfo{Symbol: symbol, Name: name}
	}
	return byMint
}

var _ TokenListFetcher = (*TokenListClient)(nil)
