package utils

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToInt64(t *testing.T) {
	tests := []struct {
		name   string
		in     any
		want   int64
		wantOK bool
	}{
		{"Int", 42, 42, true},
		{"Float", float64(137997), 137997, true},
		{"Number", json.Number("12"), 12, true},
		{"String", " 7 ", 7, true},
		{"EmptyString", "", 0, false},
		{"Garbage", "abc", 0, false},
		{"Nil", nil, 0, false},
		{"Bool", true, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ToInt64(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestToBool(t *testing.T) {
	assert.True(t, ToBool(true))
	assert.True(t, ToBool("yes"))
	assert.True(t, ToBool(float64(1)))
	assert.False(t, ToBool("0"))
	assert.False(t, ToBool(nil))
}

func TestFirstString(t *testing.T) {
	row := map[string]any{
		"flight_no": "",
		"flightNo":  nil,
		"callsign":  "CVA701",
		"id":        float64(9),
	}

	assert.Equal(t, "CVA701", FirstString(row, "flight_no", "flightNo", "callsign"))
	assert.Equal(t, "9", FirstString(row, "id"))
	assert.Equal(t, "", FirstString(row, "missing"))
}
