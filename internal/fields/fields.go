package fields

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// Record is one raw pool object as delivered by the aggregator. The upstream
// schema drifts, so values are resolved through ordered candidate key lists
// instead of fixed struct tags.
type Record map[string]any

// FirstNumber returns the value of the first candidate key holding a numeric
// value, either a native JSON number or a parseable numeric string. The
// second return is the key that matched. A false result means the field is
// absent for this record; it is valid missing data, not an error.
func FirstNumber(rec Record, keys []string) (decimal.Decimal, string, bool) {
	for _, key := range keys {
		raw, ok := rec[key]
		if !ok || raw == nil {
			continue
		}
		switch v := raw.(type) {
		case float64:
			return decimal.NewFromFloat(v), key, true
		case int:
			return decimal.NewFromInt(int64(v)), key, true
		case int64:
			return decimal.NewFromInt(v), key, true
		case json.Number:
			if d, err := decimal.NewFromString(v.String()); err == nil {
				return d, key, true
			}
		case string:
			trimmed := strings.TrimSpace(v)
			if trimmed == "" {
				continue
			}
			if d, err := decimal.NewFromString(trimmed); err == nil {
				return d, key, true
			}
		}
	}
	return decimal.Decimal{}, "", false
}

// FirstString returns the first candidate key holding a non-empty string,
// trimmed of surrounding whitespace.
func FirstString(rec Record, keys []string) (string, string, bool) {
	for _, key := range keys {
		raw, ok := rec[key]
		if !ok || raw == nil {
			continue
		}
		if v, ok := raw.(string); ok {
			trimmed := strings.TrimSpace(v)
			if trimmed != "" {
				return trimmed, key, true
			}
		}
	}
	return "", "", false
}

// NestedNumber resolves rec[key][sub] where rec[key] is a nested object.
func NestedNumber(rec Record, key, sub string) (decimal.Decimal, bool) {
	nested, ok := rec[key].(map[string]any)
	if !ok {
		return decimal.Decimal{}, false
	}
	d, _, ok := FirstNumber(Record(nested), []string{sub})
	return d, ok
}

// Diagnostics maps a logical field name to the candidate key that resolved
// it first within a batch. One slot per logical field; later observations do
// not overwrite. Surfacing this makes upstream schema drift observable
// instead of silent.
type Diagnostics map[string]string

// Observe records the candidate key that resolved a logical field, keeping
// only the first observation per field.
func (d Diagnostics) Observe(field, key string) {
	if key == "" {
		return
	}
	if _, seen := d[field]; !seen {
		d[field] = key
	}
}
