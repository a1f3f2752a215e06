package staleserve

import "net/url"

// NormalizeKey derives the cache key for a request URL.
// Query parameters are sorted by name, so two URLs differing only in
// parameter order map to the same key. A URL that cannot be parsed is
// used as the key verbatim, so key derivation never fails a request.
func NormalizeKey(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	if u.RawQuery == "" {
		return u.Path
	}
	query, err := url.ParseQuery(u.RawQuery)
	if err != nil {
		return rawURL
	}
	// Encode serializes the parameters sorted by name
	return u.Path + "?" + query.Encode()
}
