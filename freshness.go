package staleserve

import "time"

// freshness classifies a stored entry relative to the server TTL.
type freshness int

const (
	// entry age is within the server TTL, serve as-is
	fresh freshness = iota
	// entry age exceeds the server TTL, serve once more and revalidate
	stale
)

// classify returns the freshness of an entry created at the given
// instant. Absence is handled by the caller; the store reports it
// before freshness is ever evaluated.
func classify(timestamp, now time.Time, serverTTL time.Duration) freshness {
	if now.Sub(timestamp) <= serverTTL {
		return fresh
	}
	return stale
}
