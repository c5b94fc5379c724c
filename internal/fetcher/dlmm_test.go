package fetcher

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func noopLogger() zerolog.Logger {
	return zerolog.Nop()
}

func newTestDLMM(baseURL string) *DLMM {
	d := NewDLMM(DLMMOptions{
		BaseURL:         baseURL,
		SnapshotTimeout: time.Second,
		DetailTimeout:   time.Second,
		SnapshotRetries: 3,
		RetryBackoff:    time.Millisecond,
	}, noopLogger())
	d.sleep = func(ctx context.Context, _ time.Duration) error { return ctx.Err() }
	return d
}

func TestFetchPairsArrayShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/pair/all" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode([]map[string]any{
			{"address": "AAA", "tvl": 1.0},
			{"address": "BBB"},
		})
	}))
	defer srv.Close()

	snap, err := newTestDLMM(srv.URL).FetchPairs(context.Background())
	if err != nil {
		t.Fatalf("fetch should succeed: %v", err)
	}
	if len(snap.Records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(snap.Records))
	}
	if snap.Attempts != 1 {
		t.Fatalf("expected 1 attempt, got %d", snap.Attempts)
	}
}

func TestFetchPairsWrappedShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"tokens": []map[string]any{{"address": "AAA"}},
		})
	}))
	defer srv.Close()

	snap, err := newTestDLMM(srv.URL).FetchPairs(context.Background())
	if err != nil {
		t.Fatalf("wrapped shape should decode: %v", err)
	}
	if len(snap.Records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(snap.Records))
	}
}

func TestFetchPairsRetriesThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_ = json.NewEncoder(w).Encode([]map[string]any{{"address": "AAA"}})
	}))
	defer srv.Close()

	snap, err := newTestDLMM(srv.URL).FetchPairs(context.Background())
	if err != nil {
		t.Fatalf("third attempt should succeed: %v", err)
	}
	if snap.Attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", snap.Attempts)
	}
}

func TestFetchPairsExhaustsRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	if _, err := newTestDLMM(srv.URL).FetchPairs(context.Background()); err == nil {
		t.Fatal("exhausted retries must surface an error")
	}
}

func TestFetchPairsRejectsScalarPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(42)
	}))
	defer srv.Close()

	if _, err := newTestDLMM(srv.URL).FetchPairs(context.Background()); err == nil {
		t.Fatal("scalar payload must be rejected")
	}
}

func TestFetchPairDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/pair/AAA" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"volume":        map[string]any{"hour_24": 100.0},
			"fee_tvl_ratio": map[string]any{"hour_24": 1.5},
		})
	}))
	defer srv.Close()

	detail, err := newTestDLMM(srv.URL).FetchPairDetail(context.Background(), "AAA")
	if err != nil {
		t.Fatalf("detail fetch should succeed: %v", err)
	}
	if _, ok := detail["volume"]; !ok {
		t.Fatal("detail record should carry volume buckets")
	}

	if _, err := newTestDLMM(srv.URL).FetchPairDetail(context.Background(), ""); err == nil {
		t.Fatal("empty address must be rejected")
	}
}
