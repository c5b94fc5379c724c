package state

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"pool-yield-alerts/internal/fetcher"
)

func TestLoadMissingFile(t *testing.T) {
	s := Load(filepath.Join(t.TempDir(), "absent.json"))
	if s.LastAlertMS == nil || len(s.LastAlertMS) != 0 {
		t.Fatalf("missing file should yield empty defaults, got %#v", s)
	}
}

func TestLoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	s := Load(path)
	if len(s.LastAlertMS) != 0 {
		t.Fatalf("corrupt file should yield empty defaults, got %#v", s)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.json")

	s := &State{
		LastAlertMS: map[string]int64{"AAA": 1234},
		TokenCache: TokenCache{
			FetchedAtMS: 99,
			URL:         "https://token.jup.ag/all",
			ByMint:      map[string]fetcher.TokenInfo{"mint1": {Symbol: "ONE", Name: "Token One"}},
		},
	}
	if err := s.Save(path); err != nil {
		t.Fatalf("save should succeed: %v", err)
	}

	loaded := Load(path)
	if loaded.LastAlertMS["AAA"] != 1234 {
		t.Fatalf("cooldown anchors should round-trip, got %#v", loaded.LastAlertMS)
	}
	if loaded.TokenCache.ByMint["mint1"].Symbol != "ONE" {
		t.Fatalf("token cache should round-trip, got %#v", loaded.TokenCache)
	}

	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatal("temp file should not survive a successful save")
	}
}

func TestAdmitCooldownSemantics(t *testing.T) {
	s := &State{LastAlertMS: map[string]int64{}}
	cooldown := 15 * time.Minute
	t0 := time.UnixMilli(1_000_000)

	if !s.Admit("AAA", t0, cooldown) {
		t.Fatal("first admission must pass")
	}
	if s.Admit("AAA", t0.Add(time.Minute), cooldown) {
		t.Fatal("re-admission inside the window must be suppressed")
	}
	if s.LastAlertMS["AAA"] != t0.UnixMilli() {
		t.Fatal("a suppressed candidate must not move the anchor")
	}
	if !s.Admit("AAA", t0.Add(cooldown), cooldown) {
		t.Fatal("admission must resume once the window has elapsed")
	}
	if s.LastAlertMS["AAA"] != t0.Add(cooldown).UnixMilli() {
		t.Fatal("admission must overwrite the anchor with the current time")
	}
}

func TestTokenCacheFresh(t *testing.T) {
	now := time.UnixMilli(10_000_000)
	cache := TokenCache{
		FetchedAtMS: now.Add(-time.Hour).UnixMilli(),
		ByMint:      map[string]fetcher.TokenInfo{"m": {Symbol: "S"}},
	}
	if !cache.Fresh(now, 12*time.Hour) {
		t.Fatal("hour-old cache should be fresh under a 12h TTL")
	}
	if cache.Fresh(now, 30*time.Minute) {
		t.Fatal("hour-old cache should be stale under a 30m TTL")
	}
	if (TokenCache{FetchedAtMS: now.UnixMilli()}).Fresh(now, time.Hour) {
		t.Fatal("an empty map is never fresh")
	}
}
