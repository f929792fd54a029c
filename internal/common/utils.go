package common

import "strings"

// HasAny returns true if s contains any of the substrings.
func HasAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// HasAnyFold is HasAny ignoring case.
func HasAnyFold(s string, subs ...string) bool {
	lower := make([]string, len(subs))
	for i, sub := range subs {
		lower[i] = strings.ToLower(sub)
	}
	return HasAny(strings.ToLower(s), lower...)
}

// HasWord reports whether s contains w as a whole word, ignoring case.
// Words are separated by anything that is not a letter or digit.
func HasWord(s string, words ...string) bool {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !(r >= 'a' && r <= 'z') && !(r >= '0' && r <= '9')
	})
	for _, f := range fields {
		for _, w := range words {
			if f == strings.ToLower(w) {
				return true
			}
		}
	}
	return false
}
