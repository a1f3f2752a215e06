package staleserve

import "net/http"

// Purge removes the entry for the given URL from the active store.
// Purging a URL that was never cached is not an error.
func (c *Cache) Purge(rawURL string) error {
	return c.store.Delete(NormalizeKey(rawURL))
}

// PurgeAll removes every entry from the active store.
func (c *Cache) PurgeAll() error {
	return c.store.Clear()
}

// PurgeHandler returns a handler for explicit cache invalidation.
// A request with a `url` query parameter purges that single entry;
// without one the whole store is flushed.
func (c *Cache) PurgeHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var err error
		if target := r.URL.Query().Get("url"); target != "" {
			err = c.Purge(target)
		} else {
			err = c.PurgeAll()
		}
		if err != nil {
			c.log.Error().Err(err).Msg("Could not purge cache")
			http.Error(w, "Could not purge cache", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
}
