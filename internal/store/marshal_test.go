package store

import (
	"testing"
	"time"

	"github.com/cockroachdb/apd/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalLiteral(t *testing.T) {
	instant := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)

	tests := []struct {
		name  string
		table string
		in    any
		want  any
	}{
		{"string", "rdf_string", "hello", "hello"},
		{"true", "rdf_boolean", true, int64(1)},
		{"false", "rdf_boolean", false, int64(0)},
		{"date value", "rdf_date", instant, "2024-03-01"},
		{"date text", "rdf_date", "2024-03-01", "2024-03-01"},
		{"time value", "rdf_time", instant, "2024-03-01T12:30:00Z"},
		{"time text normalized to UTC", "rdf_time", "2024-03-01T14:30:00+02:00", "2024-03-01T12:30:00Z"},
		{"duration", "rdf_duration", 90 * time.Minute, "1h30m0s"},
		{"duration text", "rdf_duration", "90m", "1h30m0s"},
		{"decimal text", "rdf_decimal", "1.50", "1.50"},
		{"decimal exponent", "rdf_decimal", "15E-1", "1.5"},
		{"decimal value", "rdf_decimal", apd.New(-25, -1), "-2.5"},
		{"decimal int", "rdf_decimal", int64(7), "7"},
		{"float", "rdf_float", 2.5, 2.5},
		{"float from int", "rdf_float", 3, 3.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := marshalLiteral(tt.table, tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMarshalLiteral_Errors(t *testing.T) {
	tests := []struct {
		name  string
		table string
		in    any
	}{
		{"not a literal table", "rdf_resource", "x"},
		{"string wants string", "rdf_string", 3},
		{"boolean wants bool", "rdf_boolean", "true"},
		{"bad date", "rdf_date", "03/01/2024"},
		{"bad duration", "rdf_duration", "forever"},
		{"bad decimal", "rdf_decimal", "one"},
		{"float wants number", "rdf_float", "2.5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := marshalLiteral(tt.table, tt.in)
			assert.Error(t, err)
		})
	}
}

func TestUnmarshalLiteral(t *testing.T) {
	got, err := unmarshalLiteral("rdf_boolean", int64(1))
	require.NoError(t, err)
	assert.Equal(t, true, got)

	got, err = unmarshalLiteral("rdf_date", []byte("2024-03-01"))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), got)

	got, err = unmarshalLiteral("rdf_duration", "1h30m0s")
	require.NoError(t, err)
	assert.Equal(t, 90*time.Minute, got)

	got, err = unmarshalLiteral("rdf_decimal", "1.50")
	require.NoError(t, err)
	d, ok := got.(*apd.Decimal)
	require.True(t, ok)
	assert.Equal(t, "1.50", d.Text('f'))

	got, err = unmarshalLiteral("rdf_resource", []byte("urn:a"))
	require.NoError(t, err)
	assert.Equal(t, "urn:a", got)

	got, err = unmarshalLiteral("rdf_string", nil)
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = unmarshalLiteral("rdf_time", "yesterday")
	assert.Error(t, err)
}
