package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"pool-yield-alerts/internal/fetcher"
)

// TokenCache is the persisted token list snapshot, embedded in the same
// state blob as the cooldown map.
type TokenCache struct {
	FetchedAtMS int64                        `json:"fetched_at_ms,omitempty"`
	URL         string                       `json:"url,omitempty"`
	ByMint      map[string]fetcher.TokenInfo `json:"by_mint,omitempty"`
}

// Fresh reports whether the cached map is non-empty and younger than ttl.
func (c TokenCache) Fresh(now time.Time, ttl time.Duration) bool {
	if len(c.ByMint) == 0 {
		return false
	}
	age := now.UnixMilli() - c.FetchedAtMS
	return age >= 0 && age < ttl.Milliseconds()
}

// State is the single persisted blob: last-alert anchors per pool plus the
// token cache. It is the sole source of alert deduplication across runs.
type State struct {
	LastAlertMS map[string]int64 `json:"last_alert_ms"`
	TokenCache  TokenCache       `json:"token_cache"`
}

// Load reads the state file best-effort: a missing or corrupt file yields
// empty defaults rather than an error.
func Load(path string) *State {
	empty := &State{LastAlertMS: map[string]int64{}}

	data, err := os.ReadFile(path)
	if err != nil {
		return empty
	}

	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return empty
	}
	if s.LastAlertMS == nil {
		s.LastAlertMS = map[string]int64{}
	}
	return &s
}

// Save writes the full blob atomically: marshal, write a sibling temp file,
// then rename over the target. A crash mid-run leaves the prior file intact.
func (s *State) Save(path string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create state dir: %w", err)
		}
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write state temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}

// Admit reports whether a pool may alert at now given the cooldown. On
// admission the stored anchor is overwritten with now; a suppressed
// candidate leaves the anchor untouched, so the window stays anchored to the
// last successful alert rather than the last evaluation.
func (s *State) Admit(pairAddress string, now time.Time, cooldown time.Duration) bool {
	nowMS := now.UnixMilli()
	if last, ok := s.LastAlertMS[pairAddress]; ok {
		if nowMS-last < cooldown.Milliseconds() {
			return false
		}
	}
	s.LastAlertMS[pairAddress] = nowMS
	return true
}
