package identity

import (
	"strings"
	"unicode"
)

// airlineRemap lists roster designators that the planning system files under
// a different (ICAO) airline code.
var airlineRemap = map[string]string{
	"3C": "CVA",
}

// NormalizeFlightNo strips whitespace, uppercases and applies the airline
// designator remap ("3C701" -> "CVA701").
func NormalizeFlightNo(s string) string {
	n := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return unicode.ToUpper(r)
	}, s)
	for from, to := range airlineRemap {
		if strings.HasPrefix(n, from) {
			return to + n[len(from):]
		}
	}
	return n
}
