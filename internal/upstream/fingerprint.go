package upstream

import "net/url"

// Fingerprint identifies a request for caching and coalescing. It is the
// endpoint name followed by the url-encoded params in key order; the API
// key is never part of it.
type Fingerprint string

// NewFingerprint builds the fingerprint of a fetch.
func NewFingerprint(endpoint string, params Params) Fingerprint {
	if len(params) == 0 {
		return Fingerprint(endpoint)
	}
	v := make(url.Values, len(params))
	for k, val := range params {
		v.Set(k, val)
	}
	// Encode sorts by key.
	return Fingerprint(endpoint + "?" + v.Encode())
}
