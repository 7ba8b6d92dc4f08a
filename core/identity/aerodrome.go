package identity

import (
	"strings"
	"unicode"
)

// iataToICAO maps the IATA codes used by the roster to the ICAO locators
// required by the planning system. Extend as the network grows.
var iataToICAO = map[string]string{
	"AKL": "NZAA", // Auckland
	"WLG": "NZWN", // Wellington
	"CHC": "NZCH", // Christchurch
	"PPQ": "NZPP", // Paraparaumu
	"WHK": "NZWK", // Whakatane
	"WAG": "NZWU", // Whanganui
	"CHT": "NZCI", // Chatham Islands
	"HLZ": "NZHN", // Hamilton
	"ROT": "NZRO", // Rotorua
	"NSN": "NZNS", // Nelson
	"ZQN": "NZQN", // Queenstown
	"DUD": "NZDN", // Dunedin
	"IVC": "NZNV", // Invercargill
	"GIS": "NZGS", // Gisborne
	"NPE": "NZNR", // Napier
	"TRG": "NZTG", // Tauranga
	"BHE": "NZWB", // Woodbourne
	"VAV": "NFTV", // Vava'u
	"TBU": "NFTF", // Tongatapu
	"HAP": "NFTL", // Ha'apai
}

// ToICAO returns the ICAO locator for an aerodrome code.
// Four-letter codes are returned as-is, three-letter codes go through the
// static IATA table. Free text such as "Auckland (AKL)" is reduced to its code
// first. ok is false when no ICAO locator can be derived.
func ToICAO(code string) (string, bool) {
	return toICAO(code, true)
}

func toICAO(code string, allowGuess bool) (string, bool) {
	c := strings.ToUpper(strings.TrimSpace(code))
	if c == "" {
		return "", false
	}
	switch len(c) {
	case 4:
		if isAlpha(c) {
			return c, true
		}
	case 3:
		icao, ok := iataToICAO[c]
		return icao, ok
	}
	if !allowGuess {
		return "", false
	}
	g := GuessCode(c)
	if g == "" || g == c {
		return "", false
	}
	return toICAO(g, false)
}

// GuessCode picks the most likely aerodrome code out of a descriptive field.
// "Auckland (AKL)" yields "AKL"; otherwise the last alphabetic token is used.
func GuessCode(raw string) string {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if s == "" {
		return ""
	}
	if open := strings.Index(s, "("); open >= 0 {
		if end := strings.Index(s[open:], ")"); end > 1 {
			if inside := strings.TrimSpace(s[open+1 : open+end]); inside != "" {
				return inside
			}
		}
	}
	tokens := strings.FieldsFunc(s, func(r rune) bool { return !unicode.IsLetter(r) })
	if len(tokens) == 0 {
		return s
	}
	return tokens[len(tokens)-1]
}

func isAlpha(s string) bool {
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
