package update

import (
	"strings"
	"unicode"
)

// Ordering of non-numeric version parts, matched by prefix in this order.
// Numbers rank as "#". Unknown words rank below everything.
var specialForms = []struct {
	prefix string
	order  int
}{
	{"dev", 0},
	{"alpha", 1},
	{"a", 1},
	{"beta", 2},
	{"b", 2},
	{"RC", 3},
	{"rc", 3},
	{"#", 4},
	{"pl", 5},
	{"p", 5},
}

const unknownForm = -6

// CompareVersions compares two dotted version strings the way plugin update
// servers expect: "1.0rc1" < "1.0" < "1.0.1" < "1.0pl1"... returning -1, 0 or 1.
func CompareVersions(a, b string) int {
	if a == "" || b == "" {
		switch {
		case a == b:
			return 0
		case a == "":
			return -1
		default:
			return 1
		}
	}

	pa, pb := versionParts(a), versionParts(b)
	for i := 0; i < len(pa) && i < len(pb); i++ {
		if c := compareParts(pa[i], pb[i]); c != 0 {
			return c
		}
	}

	switch {
	case len(pa) > len(pb):
		return compareTail(pa[len(pb)])
	case len(pb) > len(pa):
		return -compareTail(pb[len(pa)])
	}
	return 0
}

// Newer reports whether candidate is strictly greater than installed.
func Newer(candidate, installed string) bool {
	return CompareVersions(candidate, installed) > 0
}

// compareTail compares the first extra part of the longer version against
// the absence of a part on the other side.
func compareTail(part string) int {
	if isNumber(part) {
		return 1
	}
	return sign(specialOrder(part) - specialOrder("#"))
}

func compareParts(a, b string) int {
	an, bn := isNumber(a), isNumber(b)
	switch {
	case an && bn:
		return compareNumbers(a, b)
	case an:
		return sign(specialOrder("#") - specialOrder(b))
	case bn:
		return sign(specialOrder(a) - specialOrder("#"))
	}
	return sign(specialOrder(a) - specialOrder(b))
}

func compareNumbers(a, b string) int {
	a = strings.TrimLeft(a, "0")
	b = strings.TrimLeft(b, "0")
	if len(a) != len(b) {
		return sign(len(a) - len(b))
	}
	return strings.Compare(a, b)
}

func specialOrder(form string) int {
	for _, f := range specialForms {
		if strings.HasPrefix(form, f.prefix) {
			return f.order
		}
	}
	return unknownForm
}

// versionParts canonicalizes v ("1.0-rc1" -> 1, 0, rc, 1) and splits it.
func versionParts(v string) []string {
	var b strings.Builder
	var prev rune = -1
	write := func(r rune) { b.WriteRune(r) }
	sep := func() {
		s := b.String()
		if len(s) > 0 && s[len(s)-1] != '.' {
			b.WriteByte('.')
		}
	}

	for i, r := range v {
		if i == 0 {
			write(r)
			prev = r
			continue
		}
		switch {
		case r == '-' || r == '_' || r == '+':
			sep()
		case (isDigit(prev) && !isDigit(r) && r != '.') || (!isDigit(prev) && prev != '.' && isDigit(r)):
			sep()
			write(r)
		case !unicode.IsLetter(r) && !unicode.IsDigit(r):
			sep()
		default:
			write(r)
		}
		prev = r
	}

	var parts []string
	for _, p := range strings.Split(b.String(), ".") {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

func isNumber(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !isDigit(r) {
			return false
		}
	}
	return true
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	}
	return 0
}
