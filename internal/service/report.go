package service

import (
	"pool-yield-alerts/internal/alerting"
	"pool-yield-alerts/internal/fields"
	"pool-yield-alerts/internal/ranking"
	"pool-yield-alerts/internal/triggers"
)

// Source describes where and how the pool snapshot was obtained.
type Source struct {
	URL             string `json:"url"`
	FetchedCount    int    `json:"fetched_count"`
	Attempts        int    `json:"attempts"`
	FetchDurationMS int64  `json:"fetch_duration_ms"`
	RunAtMS         int64  `json:"run_at_ms"`
}

// RankedSummary summarises the ranked universe and the evaluation pass.
type RankedSummary struct {
	Count                   int                  `json:"count"`
	Window                  string               `json:"window"`
	Scoring                 string               `json:"scoring"`
	Focus                   string               `json:"focus"`
	MinTVL                  string               `json:"min_tvl"`
	EligibleAfterTVL        int                  `json:"eligible_after_tvl"`
	TriggeredBeforeCooldown int                  `json:"triggered_before_cooldown"`
	SuppressedByCooldown    int                  `json:"suppressed_by_cooldown"`
	TriggersCount           triggers.Counts      `json:"triggers_count"`
	VolumeWindowPresent     int                  `json:"volume_window_present"`
	Pairs                   []ranking.RankedPair `json:"pairs,omitempty"`
}

// TokenListInfo reports token list provenance for the run.
type TokenListInfo struct {
	URL        string `json:"url"`
	CachedAtMS int64  `json:"cached_at_ms"`
	MapSize    int    `json:"map_size"`
}

// Report is the full machine-readable output of one scan run.
type Report struct {
	Source           Source             `json:"source"`
	Ranked           RankedSummary      `json:"ranked"`
	TokenList        TokenListInfo      `json:"token_list"`
	FieldDiagnostics fields.Diagnostics `json:"field_diagnostics"`
	Alerts           []alerting.Alert   `json:"alerts"`
}
