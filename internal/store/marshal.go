package store

import (
	"fmt"
	"time"

	"github.com/cockroachdb/apd/v3"
)

// marshalLiteral converts v to the storage form of a literal table.
//
// Dates are stored as "2006-01-02", times as RFC 3339 with nanoseconds,
// durations in time.Duration notation, decimals in canonical plain
// notation and booleans as 0 or 1. String forms of each are accepted and
// validated.
func marshalLiteral(table string, v any) (any, error) {
	switch table {
	case "rdf_string":
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("marshal %s: want string, got %T", table, v)
		}
		return s, nil

	case "rdf_boolean":
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("marshal %s: want bool, got %T", table, v)
		}
		if b {
			return int64(1), nil
		}
		return int64(0), nil

	case "rdf_date":
		switch x := v.(type) {
		case time.Time:
			return x.Format(time.DateOnly), nil
		case string:
			if _, err := time.Parse(time.DateOnly, x); err != nil {
				return nil, fmt.Errorf("marshal %s: %w", table, err)
			}
			return x, nil
		}

	case "rdf_time":
		switch x := v.(type) {
		case time.Time:
			return x.UTC().Format(time.RFC3339Nano), nil
		case string:
			t, err := time.Parse(time.RFC3339Nano, x)
			if err != nil {
				return nil, fmt.Errorf("marshal %s: %w", table, err)
			}
			return t.UTC().Format(time.RFC3339Nano), nil
		}

	case "rdf_duration":
		switch x := v.(type) {
		case time.Duration:
			return x.String(), nil
		case string:
			d, err := time.ParseDuration(x)
			if err != nil {
				return nil, fmt.Errorf("marshal %s: %w", table, err)
			}
			return d.String(), nil
		}

	case "rdf_decimal":
		switch x := v.(type) {
		case *apd.Decimal:
			return x.Text('f'), nil
		case string:
			d, _, err := apd.NewFromString(x)
			if err != nil {
				return nil, fmt.Errorf("marshal %s: %w", table, err)
			}
			return d.Text('f'), nil
		case int64:
			return apd.New(x, 0).Text('f'), nil
		case int:
			return apd.New(int64(x), 0).Text('f'), nil
		}

	case "rdf_float":
		switch x := v.(type) {
		case float64:
			return x, nil
		case float32:
			return float64(x), nil
		case int64:
			return float64(x), nil
		case int:
			return float64(x), nil
		}

	default:
		return nil, fmt.Errorf("marshal literal: %q is not a literal table", table)
	}
	return nil, fmt.Errorf("marshal %s: unsupported value type %T", table, v)
}

// unmarshalLiteral converts a value read from a literal table column back
// to its Go form. Values of other tables are returned with []byte turned
// into string.
func unmarshalLiteral(table string, raw any) (any, error) {
	if b, ok := raw.([]byte); ok {
		raw = string(b)
	}
	if raw == nil {
		return nil, nil
	}

	switch table {
	case "rdf_boolean":
		n, ok := raw.(int64)
		if !ok {
			return nil, fmt.Errorf("unmarshal %s: want integer, got %T", table, raw)
		}
		return n != 0, nil

	case "rdf_date":
		return parseText(table, raw, func(s string) (any, error) { return time.Parse(time.DateOnly, s) })

	case "rdf_time":
		return parseText(table, raw, func(s string) (any, error) { return time.Parse(time.RFC3339Nano, s) })

	case "rdf_duration":
		return parseText(table, raw, func(s string) (any, error) { return time.ParseDuration(s) })

	case "rdf_decimal":
		return parseText(table, raw, func(s string) (any, error) {
			d, _, err := apd.NewFromString(s)
			return d, err
		})

	default:
		return raw, nil
	}
}

func parseText(table string, raw any, parse func(string) (any, error)) (any, error) {
	s, ok := raw.(string)
	if !ok {
		return nil, fmt.Errorf("unmarshal %s: want text, got %T", table, raw)
	}
	v, err := parse(s)
	if err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", table, err)
	}
	return v, nil
}
