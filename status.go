package staleserve

import (
	"fmt"
	"strconv"
	"strings"
)

// statusFilter decides whether a response status code is eligible for
// caching. The exclusion specification is parsed once at construction,
// not on the request path.
type statusFilter struct {
	excluded map[int]struct{}
}

// newStatusFilter parses a list of literal status codes and
// "low-high" range strings into a concrete exclusion set.
func newStatusFilter(specs []string) (statusFilter, error) {
	filter := statusFilter{excluded: make(map[int]struct{})}
	for _, spec := range specs {
		if low, high, ok := strings.Cut(spec, "-"); ok {
			lo, err := strconv.Atoi(low)
			if err != nil {
				return filter, fmt.Errorf("invalid status range %q: %w", spec, err)
			}
			hi, err := strconv.Atoi(high)
			if err != nil {
				return filter, fmt.Errorf("invalid status range %q: %w", spec, err)
			}
			if lo > hi {
				return filter, fmt.Errorf("invalid status range %q: low above high", spec)
			}
			for code := lo; code <= hi; code++ {
				filter.excluded[code] = struct{}{}
			}
			continue
		}
		code, err := strconv.Atoi(spec)
		if err != nil {
			return filter, fmt.Errorf("invalid status code %q: %w", spec, err)
		}
		filter.excluded[code] = struct{}{}
	}
	return filter, nil
}

// Cacheable reports whether a response with the given status code may
// be written to the store.
func (f statusFilter) Cacheable(code int) bool {
	_, excluded := f.excluded[code]
	return !excluded
}
