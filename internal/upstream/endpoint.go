package upstream

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// TTLClass groups endpoints whose responses go stale at the same pace.
type TTLClass string

const (
	TTLQuote        TTLClass = "quote"
	TTLNews         TTLClass = "news"
	TTLHistory      TTLClass = "history"
	TTLFundamentals TTLClass = "fundamentals"
)

// DefaultTTLs are used for classes the caller does not override.
var DefaultTTLs = map[TTLClass]time.Duration{
	TTLQuote:        60 * time.Second,
	TTLNews:         60 * time.Second,
	TTLHistory:      15 * time.Minute,
	TTLFundamentals: 6 * time.Hour,
}

// Endpoint is one registered FMP route. Path may contain {name}
// placeholders that are filled from the request params; the remaining
// params become the query string.
type Endpoint struct {
	Name  string
	Path  string
	Class TTLClass
}

// Params are the primitive query parameters of a fetch.
type Params map[string]string

// resolve fills the path placeholders and returns the path together with
// the leftover query values.
func (ep Endpoint) resolve(params Params) (string, url.Values, error) {
	query := url.Values{}
	for k, v := range params {
		query.Set(k, v)
	}

	var b strings.Builder
	rest := ep.Path
	for {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			b.WriteString(rest)
			break
		}
		end := strings.IndexByte(rest[open:], '}')
		if end < 0 {
			return "", nil, fmt.Errorf("endpoint %s: unterminated placeholder in %q", ep.Name, ep.Path)
		}
		name := rest[open+1 : open+end]
		val := params[name]
		if val == "" {
			return "", nil, fmt.Errorf("endpoint %s: missing path parameter %q", ep.Name, name)
		}
		b.WriteString(rest[:open])
		b.WriteString(url.PathEscape(val))
		query.Del(name)
		rest = rest[open+end+1:]
	}
	return b.String(), query, nil
}
