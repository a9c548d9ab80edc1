// Package natsort implements natural (human) string ordering: runs of digits
// compare numerically, so "2" sorts before "10".
package natsort

import "sort"

// Less reports whether a orders before b under natural ordering.
func Less(a, b string) bool {
	for len(a) > 0 && len(b) > 0 {
		aDigits, aRest, aIsNum := nextToken(a)
		bDigits, bRest, bIsNum := nextToken(b)

		if aIsNum && bIsNum {
			if c := compareNumeric(aDigits, bDigits); c != 0 {
				return c < 0
			}
		} else if aDigits != bDigits {
			return aDigits < bDigits
		}

		a, b = aRest, bRest
	}

	return len(a) < len(b)
}

// Strings sorts xs in place using natural ordering.
func Strings(xs []string) {
	sort.SliceStable(xs, func(i, j int) bool { return Less(xs[i], xs[j]) })
}

// nextToken splits off the leading run of digits or non-digits.
func nextToken(s string) (token, rest string, isNum bool) {
	isNum = isDigit(s[0])

	i := 1
	for i < len(s) && isDigit(s[i]) == isNum {
		i++
	}

	return s[:i], s[i:], isNum
}

// compareNumeric compares two digit runs as integers of arbitrary length.
func compareNumeric(a, b string) int {
	a = trimLeadingZeros(a)
	b = trimLeadingZeros(b)

	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}

		return 1
	}

	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func trimLeadingZeros(s string) string {
	for len(s) > 1 && s[0] == '0' {
		s = s[1:]
	}

	return s
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
