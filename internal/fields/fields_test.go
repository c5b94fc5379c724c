package fields

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
)

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal literal %q: %v", s, err)
	}
	return d
}

func TestFirstNumberNativeAndString(t *testing.T) {
	rec := Record{"fee24h": 12.5, "volume_24h": "  98765.4 ", "tvl": nil}

	d, key, ok := FirstNumber(rec, []string{"fees_24h", "fee24h"})
	if !ok || key != "fee24h" {
		t.Fatalf("expected fee24h to resolve, got key=%q ok=%v", key, ok)
	}
	if !d.Equal(mustDecimal(t, "12.5")) {
		t.Fatalf("unexpected value %s", d)
	}

	d, key, ok = FirstNumber(rec, []string{"volume24h", "volume_24h"})
	if !ok || key != "volume_24h" {
		t.Fatalf("numeric string should resolve, got key=%q ok=%v", key, ok)
	}
	if !d.Equal(mustDecimal(t, "98765.4")) {
		t.Fatalf("unexpected value %s", d)
	}
}

func TestFirstNumberSkipsNullAndGarbage(t *testing.T) {
	rec := Record{"tvl": nil, "liquidity": "not-a-number", "tvl_usd": float64(42)}

	d, key, ok := FirstNumber(rec, []string{"tvl", "liquidity", "tvl_usd"})
	if !ok || key != "tvl_usd" {
		t.Fatalf("expected fall-through to tvl_usd, got key=%q ok=%v", key, ok)
	}
	if !d.Equal(mustDecimal(t, "42")) {
		t.Fatalf("unexpected value %s", d)
	}

	if _, _, ok := FirstNumber(rec, []string{"missing", "liquidity"}); ok {
		t.Fatal("no resolvable candidate should report missing data")
	}
}

func TestFirstNumberJSONNumber(t *testing.T) {
	rec := Record{"fee_24h": json.Number("1234.56")}
	d, _, ok := FirstNumber(rec, []string{"fee_24h"})
	if !ok || !d.Equal(mustDecimal(t, "1234.56")) {
		t.Fatalf("json.Number should resolve, got %s ok=%v", d, ok)
	}
}

func TestFirstString(t *testing.T) {
	rec := Record{"address": "  abc  ", "pairAddress": "", "mint_x": 5}

	v, key, ok := FirstString(rec, []string{"pairAddress", "address"})
	if !ok || key != "address" || v != "abc" {
		t.Fatalf("expected trimmed address, got %q via %q ok=%v", v, key, ok)
	}

	if _, _, ok := FirstString(rec, []string{"mint_x", "pairAddress"}); ok {
		t.Fatal("non-string and empty values must not resolve")
	}
}

func TestNestedNumber(t *testing.T) {
	rec := Record{"volume": map[string]any{"hour_24": 123.0, "hour_1": "7"}}

	d, ok := NestedNumber(rec, "volume", "hour_24")
	if !ok || !d.Equal(mustDecimal(t, "123")) {
		t.Fatalf("nested bucket should resolve, got %s ok=%v", d, ok)
	}
	if _, ok := NestedNumber(rec, "volume", "min_30"); ok {
		t.Fatal("absent bucket should report missing")
	}
	if _, ok := NestedNumber(rec, "fee_tvl_ratio", "hour_24"); ok {
		t.Fatal("absent nested object should report missing")
	}
}

func TestDiagnosticsFirstObservationWins(t *testing.T) {
	diag := Diagnostics{}
	diag.Observe("fee", "fee24h")
	diag.Observe("fee", "fees_24h")
	diag.Observe("tvl", "")

	if diag["fee"] != "fee24h" {
		t.Fatalf("first observation must win, got %q", diag["fee"])
	}
	if _, ok := diag["tvl"]; ok {
		t.Fatal("empty key must not be recorded")
	}
}
