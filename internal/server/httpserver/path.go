package httpserver

import (
	"strings"

	"github.com/branchweb/branchweb-go/internal/core/domain"
)

// ParseRealPath derives the routing string and query form data from a raw
// request target such as "/health" or "/?whoami=KEY".
//
// One leading '/' is stripped. If the remainder contains '?' followed by at
// least one character, the text after the first '?' is parsed as k=v pairs
// and the first key becomes the real path. Otherwise the remainder is the
// real path verbatim and form is nil. Values are not percent-decoded.
func ParseRealPath(target string) (realPath string, form FormData, err error) {
	p := strings.TrimPrefix(target, "/")
	if p == "" {
		return "", nil, nil
	}

	i := strings.IndexByte(p, '?')
	if i < 0 || i == len(p)-1 {
		return p, nil, nil
	}

	keys, form := parseQueryPairs(p[i+1:])
	if len(keys) == 0 {
		return "", nil, domain.ErrMalformedRequest.WithDetails("query has no key=value pair")
	}
	return keys[0], form, nil
}

// parseQueryPairs splits s on '&' and keeps pairs containing '='.
//
// A value runs from the first '=' to the next '=' or the end of the pair.
// A repeated key keeps its first position and takes the later value.
func parseQueryPairs(s string) ([]string, FormData) {
	var keys []string
	form := make(FormData)
	for _, pair := range strings.Split(s, "&") {
		key, rest, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		val, _, _ := strings.Cut(rest, "=")
		if _, seen := form[key]; !seen {
			keys = append(keys, key)
		}
		form[key] = val
	}
	return keys, form
}
