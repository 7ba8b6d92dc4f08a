package identity

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeFlightNo(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"3C701", "CVA701"},
		{" 3c 701 ", "CVA701"},
		{"nz123", "NZ123"},
		{"CVA701", "CVA701"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeFlightNo(tt.in))
		})
	}
}

func TestToICAO(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		want   string
		wantOK bool
	}{
		{"IATA", "AKL", "NZAA", true},
		{"LowerIATA", "wlg", "NZWN", true},
		{"ICAO", "NZCH", "NZCH", true},
		{"Descriptive", "Auckland (AKL)", "NZAA", true},
		{"TrailingToken", "Chatham Islands CHT", "NZCI", true},
		{"Unknown", "XYZ", "", false},
		{"Empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ToICAO(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCanonEOBTMinute_SecondsTruncated(t *testing.T) {
	a, ok := CanonEOBTMinute("2025-01-10T05:00:12Z", time.UTC)
	require.True(t, ok)
	b, ok := CanonEOBTMinute("2025-01-10T05:00:59+00:00", time.UTC)
	require.True(t, ok)
	c, ok := CanonEOBTMinute("2025-01-10T05:01:00Z", time.UTC)
	require.True(t, ok)

	assert.Equal(t, "2025-01-10T05:00Z", a)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestCanonEOBTMinute_Inputs(t *testing.T) {
	auckland, err := time.LoadLocation("Pacific/Auckland")
	require.NoError(t, err)

	tests := []struct {
		name  string
		value any
		zone  *time.Location
		want  string
	}{
		{"Offset", "2025-01-10T18:00:00+13:00", time.UTC, "2025-01-10T05:00Z"},
		{"NaiveUTC", "2025-01-10T05:00:00", time.UTC, "2025-01-10T05:00Z"},
		{"NaiveLocal", "2025-01-10T18:00:00", auckland, "2025-01-10T05:00Z"},
		{"NoSeconds", "2025-01-10T05:00Z", time.UTC, "2025-01-10T05:00Z"},
		{"Fraction", "2025-01-10T05:00:30.250Z", time.UTC, "2025-01-10T05:00Z"},
		{"EpochFloat", float64(1736485230), time.UTC, "2025-01-10T05:00Z"},
		{"EpochNumber", json.Number("1736485200"), time.UTC, "2025-01-10T05:00Z"},
		{"Time", time.Date(2025, 1, 10, 18, 0, 45, 0, auckland), time.UTC, "2025-01-10T05:00Z"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := CanonEOBTMinute(tt.value, tt.zone)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	_, ok := CanonEOBTMinute("not a time", time.UTC)
	assert.False(t, ok)
	_, ok = CanonEOBTMinute(nil, time.UTC)
	assert.False(t, ok)
}

func TestKey_JSON(t *testing.T) {
	k := NewKey("3C701", "nzaa", "nzwn", "2025-01-10T05:00Z")
	assert.Equal(t, "CVA701", k.FlightNo)
	assert.True(t, k.Complete())

	data, err := json.Marshal(k)
	require.NoError(t, err)
	assert.JSONEq(t, `["CVA701","NZAA","NZWN","2025-01-10T05:00Z"]`, string(data))

	var back Key
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, k, back)

	var empty Key
	require.NoError(t, json.Unmarshal([]byte("null"), &empty))
	assert.Equal(t, Key{}, empty)

	assert.Error(t, json.Unmarshal([]byte(`["a","b"]`), &back))
}

func TestKey_LooseAndTime(t *testing.T) {
	k := NewKey("CVA701", "NZAA", "NZWN", "2025-01-10T05:00Z")
	assert.Equal(t, LooseKey{FlightNo: "CVA701", Adep: "NZAA", Ades: "NZWN"}, k.Loose())

	ts, ok := k.Time()
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, 1, 10, 5, 0, 0, 0, time.UTC), ts)
}
