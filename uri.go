package htmlclean

import (
	"net/url"
	"strings"
)

// schemeAllowed reports whether the already entity-decoded URI value
// uses a permitted scheme. Relative URLs are allowed.
func schemeAllowed(value string, schemes map[string]bool) bool {
	// Strip control chars and whitespace that browsers ignore inside a
	// scheme ("java\tscript:").
	decoded := strings.Map(func(r rune) rune {
		if r <= 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, value)
	decoded = strings.ToLower(decoded)

	u, err := url.Parse(decoded)
	if err != nil {
		// A value with a scheme-like prefix that does not parse is not
		// worth the risk.
		return !strings.Contains(decoded, ":")
	}
	if u.Scheme == "" {
		return true
	}
	return schemes[u.Scheme]
}

func sliceToSet(s []string) map[string]bool {
	m := make(map[string]bool, len(s))
	for _, v := range s {
		m[strings.ToLower(v)] = true
	}
	return m
}
