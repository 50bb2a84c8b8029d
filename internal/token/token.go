// Package token classifies and normalizes the individual tokens found in
// route strings: procedure computer codes, plain fixes and airport
// identifiers.
package token

import (
	"strconv"
	"strings"
)

// Placeholder stands in for an unknown procedure version, as in KAYLN#.
const Placeholder = '#'

// Separator joins the two halves of a procedure or transition code.
const Separator = "."

func isLetter(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// LeadingLetters returns the length of the run of ASCII letters at the
// start of s.
func LeadingLetters(s string) int {
	n := 0
	for n < len(s) && isLetter(s[n]) {
		n++
	}
	return n
}

// TrailingDigits returns the length of the run of ASCII digits at the end
// of s.
func TrailingDigits(s string) int {
	n := 0
	for n < len(s) && isDigit(s[len(s)-1-n]) {
		n++
	}
	return n
}

// AllLetters reports whether s is non-empty and made of ASCII letters only.
func AllLetters(s string) bool {
	return s != "" && LeadingLetters(s) == len(s)
}

// AllDigits reports whether s is non-empty and made of ASCII digits only.
func AllDigits(s string) bool {
	return s != "" && TrailingDigits(s) == len(s)
}

// HasDigit reports whether s contains at least one ASCII digit.
func HasDigit(s string) bool {
	for i := 0; i < len(s); i++ {
		if isDigit(s[i]) {
			return true
		}
	}
	return false
}

// RootName strips version digits and placeholder markers from a computer
// code: KAYLN3 -> KAYLN, KAYLN# -> KAYLN.
func RootName(tok string) string {
	if tok == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(tok))
	for i := 0; i < len(tok); i++ {
		c := tok[i]
		if isDigit(c) || c == Placeholder {
			continue
		}
		b.WriteByte(c)
	}
	return strings.ToUpper(b.String())
}

// Version returns the trailing version number of a computer code. KAYLN#
// and KAYLN have no version.
func Version(tok string) (int, bool) {
	n := TrailingDigits(tok)
	if n == 0 {
		return 0, false
	}
	v, err := strconv.Atoi(tok[len(tok)-n:])
	if err != nil {
		return 0, false
	}
	return v, true
}

// LooksLikeProcedureName reports whether tok is two or more letters followed
// by one or more digits or placeholders (KAYLN3, WYNDE#). DP left halves and
// STAR right halves share this shape.
func LooksLikeProcedureName(tok string) bool {
	letters := LeadingLetters(tok)
	if letters < 2 || letters == len(tok) {
		return false
	}
	for i := letters; i < len(tok); i++ {
		if !isDigit(tok[i]) && tok[i] != Placeholder {
			return false
		}
	}
	return true
}

// IsPlainFix reports whether tok is a three to five letter fix name.
func IsPlainFix(tok string) bool {
	return len(tok) >= 3 && len(tok) <= 5 && AllLetters(tok)
}

// IsAirportLike reports whether tok can name an airport: four letters, or
// three letters not starting with Z (Z codes are ARTCC/oceanic).
func IsAirportLike(tok string) bool {
	switch len(tok) {
	case 4:
		return AllLetters(tok)
	case 3:
		return AllLetters(tok) && tok[0] != 'Z' && tok[0] != 'z'
	default:
		return false
	}
}

// NormalizeAirport uppercases tok and turns a three letter FAA code into its
// ICAO form (SFO -> KSFO). Other tokens are returned uppercased.
func NormalizeAirport(tok string) string {
	tok = strings.ToUpper(strings.TrimSpace(tok))
	if len(tok) == 3 && IsAirportLike(tok) {
		return "K" + tok
	}
	return tok
}

// ExtractAirports pulls the airport identifiers out of a served-group string
// such as "KDTW/27L|27R KORD/09R DTW". Runway lists are dropped, codes are
// normalized and duplicates removed keeping first appearance.
func ExtractAirports(group string) []string {
	var airports []string
	seen := make(map[string]struct{})
	for _, tok := range strings.Fields(group) {
		if i := strings.IndexByte(tok, '/'); i >= 0 {
			tok = tok[:i]
		}
		if tok == "" || !IsAirportLike(tok) {
			continue
		}
		apt := NormalizeAirport(tok)
		if _, ok := seen[apt]; ok {
			continue
		}
		seen[apt] = struct{}{}
		airports = append(airports, apt)
	}
	return airports
}

// ParseEffectiveDate reduces a date string to an ordinal by keeping only its
// digits ("2024-01-25" -> 20240125). Anything unparseable is 0.
func ParseEffectiveDate(s string) int64 {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if isDigit(s[i]) {
			b.WriteByte(s[i])
		}
	}
	if b.Len() == 0 {
		return 0
	}
	n, err := strconv.ParseInt(b.String(), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// SplitCode splits a LEFT.RIGHT code into its halves. ok is false unless
// the code has exactly one separator.
func SplitCode(code string) (left, right string, ok bool) {
	parts := strings.Split(code, Separator)
	if len(parts) != 2 {
		return "", "", false
	}
	return parts[0], parts[1], true
}

// JoinCode is the inverse of SplitCode.
func JoinCode(left, right string) string {
	return left + Separator + right
}

// Normalize uppercases and trims a raw route token.
func Normalize(tok string) string {
	return strings.ToUpper(strings.TrimSpace(tok))
}
