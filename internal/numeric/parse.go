// Package numeric implements the numeric string parsing utility from
// spec.md §4.1: a strict-but-tolerant parse_double equivalent used by the
// protocol codec to accept the numeric tail of PUT/MOVE/MONITOR commands.
package numeric

import (
	"strconv"
	"strings"
)

// ParseDouble accepts an optional sign, decimal digits, an optional
// fractional part, and an optional exponent; trailing whitespace is
// tolerated but any other trailing characters cause failure. Overflow
// (including Inf) is reported as failure, matching spec.md's parse_double
// contract of a plain (value, ok) result rather than an error value.
func ParseDouble(s string) (float64, bool) {
	trimmed := strings.TrimRight(s, " \t\r\n")
	if trimmed == "" {
		return 0, false
	}

	n, consumed := scanNumber(trimmed)
	if consumed == 0 || consumed != len(trimmed) {
		return 0, false
	}

	v, err := strconv.ParseFloat(n, 64)
	if err != nil {
		return 0, false
	}
	if isInfOrNaN(v) {
		return 0, false
	}
	return v, true
}

func isInfOrNaN(v float64) bool {
	return v != v || v > maxFinite || v < -maxFinite
}

const maxFinite = 1.7976931348623157e+308

// scanNumber returns the longest prefix of s that matches
// [+-]?(digits(.digits?)?|.digits)([eE][+-]?digits)? and how many bytes it
// consumed.
func scanNumber(s string) (string, int) {
	i := 0
	n := len(s)

	if i < n && (s[i] == '+' || s[i] == '-') {
		i++
	}

	start := i
	for i < n && isDigit(s[i]) {
		i++
	}
	intDigits := i - start

	fracDigits := 0
	if i < n && s[i] == '.' {
		dotPos := i
		i++
		fracStart := i
		for i < n && isDigit(s[i]) {
			i++
		}
		fracDigits = i - fracStart
		if fracDigits == 0 && intDigits == 0 {
			// a '.' with digits on neither side is not part of the number;
			// "3." keeps its trailing dot, as strtod does
			i = dotPos
		}
	}

	if intDigits == 0 && fracDigits == 0 {
		return "", 0
	}

	end := i
	if i < n && (s[i] == 'e' || s[i] == 'E') {
		expStart := i
		j := i + 1
		if j < n && (s[j] == '+' || s[j] == '-') {
			j++
		}
		digitsStart := j
		for j < n && isDigit(s[j]) {
			j++
		}
		if j > digitsStart {
			end = j
		} else {
			_ = expStart
		}
	}

	return s[:end], end
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }
