package sanitizer

import (
	"html"
	"strings"
	"sync"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
)

var (
	strictPolicy *bluemonday.Policy
	initOnce     sync.Once
)

func policy() *bluemonday.Policy {
	initOnce.Do(func() {
		strictPolicy = bluemonday.StrictPolicy()
	})
	return strictPolicy
}

// StripHTML removes every tag and returns the remaining text.
// Entities produced by the policy are decoded, so "a & b" stays "a & b".
func StripHTML(s string) string {
	return html.UnescapeString(policy().Sanitize(s))
}

// Name cleans a user-supplied file or folder name: markup is stripped,
// control characters are dropped and surrounding whitespace is trimmed.
func Name(s string) string {
	s = StripHTML(s)
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(s)
}
