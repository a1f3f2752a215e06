// Package staleserve is an HTTP response cache middleware.
//
// It intercepts the responses of a wrapped handler, stores them keyed
// by normalized request URL, and serves subsequent matching requests
// from the store until the entry expires. Expired entries are served
// once more while a fresh response is captured in the background
// (stale-while-revalidate).
package staleserve

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/staleserve/staleserve/store"
)

// Store backend kinds.
const (
	StoreMemory     = "memory"
	StoreFilesystem = "filesystem"
	StoreSQLite     = "sqlite"
)

// Configuration defaults.
const (
	DefaultBrowserTTL = 300
	DefaultServerTTL  = 600
	DefaultDir        = ".staleserve"
)

// DefaultNotCache excludes everything but 2xx success responses
// below 299 from storage.
var DefaultNotCache = []string{"299-599"}

type Config struct {
	// Browser is the client-facing Cache-Control max-age in seconds.
	Browser int
	// Server is the authoritative freshness window in seconds.
	Server int
	// Store selects the backend: "memory", "filesystem" or "sqlite".
	Store string
	// Dir is the directory holding persisted entries.
	Dir string
	// NotCache lists status codes and "low-high" range strings whose
	// responses are served but never stored.
	NotCache []string
	// Backend overrides Store with an explicit store instance.
	Backend store.Store
	// Logger to use. The global zerolog logger is used if nil.
	Logger *zerolog.Logger
}

// Cache is the caching engine. Create one with New; the configuration
// is immutable for its lifetime.
type Cache struct {
	store      store.Store
	storeKind  string
	filter     statusFilter
	browserTTL time.Duration
	serverTTL  time.Duration
	janitor    *janitor
	log        zerolog.Logger
	closeOnce  sync.Once
}

// New creates a caching engine and starts its janitor.
func New(config Config) (*Cache, error) {
	if config.Browser == 0 {
		config.Browser = DefaultBrowserTTL
	}
	if config.Server == 0 {
		config.Server = DefaultServerTTL
	}
	if config.Dir == "" {
		config.Dir = DefaultDir
	}
	if config.NotCache == nil {
		config.NotCache = DefaultNotCache
	}

	logger := log.Logger
	if config.Logger != nil {
		logger = *config.Logger
	}

	filter, err := newStatusFilter(config.NotCache)
	if err != nil {
		return nil, err
	}

	backend := config.Backend
	kind := config.Store
	if backend == nil {
		switch config.Store {
		case StoreMemory:
			backend = store.NewMemory()
		case StoreFilesystem, "":
			kind = StoreFilesystem
			backend, err = store.NewFilesystem(config.Dir)
		case StoreSQLite:
			if err = os.MkdirAll(config.Dir, 0o755); err == nil {
				backend, err = store.NewSQLite(filepath.Join(config.Dir, "cache.db"))
			}
		default:
			return nil, fmt.Errorf("unsupported store kind: %s", config.Store)
		}
		if err != nil {
			return nil, err
		}
	} else if kind == "" {
		kind = "custom"
	}

	c := &Cache{
		store:      backend,
		storeKind:  kind,
		filter:     filter,
		browserTTL: time.Duration(config.Browser) * time.Second,
		serverTTL:  time.Duration(config.Server) * time.Second,
		log:        logger,
	}
	c.janitor = newJanitor(backend, c.serverTTL, logger)
	go c.janitor.run()
	return c, nil
}

// Middleware wraps a handler with the caching engine.
func (c *Cache) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		state := &State{Store: c.storeKind}
		r = withState(r, state)

		// only GET responses are cached, everything else passes through
		if r.Method != http.MethodGet {
			state.set(OutcomeBypass)
			w.Header().Set(StatusHeader, string(OutcomeBypass))
			requestOutcomes.WithLabelValues(string(OutcomeBypass), c.storeKind).Inc()
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d", int(c.browserTTL.Seconds())))

		key := NormalizeKey(r.URL.RequestURI())
		logger := c.log.With().Str("key", key).Logger()

		entry, ok, err := c.store.Get(key)
		if err != nil {
			// a failing store never fails the request
			logger.Error().Err(err).Msg("Could not read from cache")
			ok = false
		}

		if ok {
			switch classify(entry.Timestamp, time.Now(), c.serverTTL) {
			case fresh:
				logger.Trace().Msg("Cache hit and serving")
				state.set(OutcomeHit)
				w.Header().Set(StatusHeader, string(OutcomeHit))
				requestOutcomes.WithLabelValues(string(OutcomeHit), c.storeKind).Inc()
				serveEntry(w, entry)
			case stale:
				logger.Trace().Time("created", entry.Timestamp).Msg("Serving stale and revalidating")
				state.set(OutcomeStale)
				w.Header().Set(StatusHeader, string(OutcomeStale))
				requestOutcomes.WithLabelValues(string(OutcomeStale), c.storeKind).Inc()
				serveEntry(w, entry)
				// the request object must not be touched once this
				// handler returns, so the revalidation request is
				// built before going to the background
				if req, err := revalidationRequest(r, state); err != nil {
					logger.Error().Err(err).Msg("Could not create revalidation request")
				} else {
					go c.revalidate(next, req, key, state, logger)
				}
			}
			return
		}

		state.set(OutcomeMiss)
		c.capture(next, w, r, key, state, logger)
	})
}

// capture invokes the wrapped handler, tees its response to the
// client and writes it to the store if the status filter accepts it.
func (c *Cache) capture(next http.Handler, w http.ResponseWriter, r *http.Request, key string, state *State, logger zerolog.Logger) {
	rec := newRecorder(w)
	// the outcome header has to be decided before the headers are
	// flushed, which is before the handler has finished
	rec.beforeHeader = func(status int) {
		outcome := OutcomeFresh
		if !c.filter.Cacheable(status) {
			outcome = OutcomeBypass
		}
		state.set(outcome)
		rec.Header().Set(StatusHeader, string(outcome))
		requestOutcomes.WithLabelValues(string(outcome), c.storeKind).Inc()
	}
	next.ServeHTTP(rec, r)
	// force the outcome header out for handlers that wrote nothing
	if !rec.wroteHeader {
		rec.WriteHeader(http.StatusOK)
	}

	if !c.filter.Cacheable(rec.StatusCode()) {
		logger.Trace().Int("http-status", rec.StatusCode()).Msg("Non-cacheable response")
		return
	}
	if err := c.store.Put(key, rec.Entry(time.Now())); err != nil {
		logger.Error().Err(err).Msg("Could not write to cache")
		return
	}
	logger.Trace().Msg("Cache write")
}

// revalidationRequest recreates the stale request as a detached
// request suitable for invoking the wrapped handler outside the
// original exchange.
func revalidationRequest(r *http.Request, state *State) (*http.Request, error) {
	req, err := http.NewRequest(r.Method, r.URL.RequestURI(), nil)
	if err != nil {
		return nil, err
	}
	req.Header = r.Header.Clone()
	req.Host = r.Host
	return withState(req, state), nil
}

// revalidate re-invokes the wrapped handler in the background after a
// stale entry was served, replacing the stored entry with the fresh
// response. It runs detached from the request that triggered it and
// is never cancelled mid-write.
func (c *Cache) revalidate(next http.Handler, req *http.Request, key string, state *State, logger zerolog.Logger) {
	defer state.reset()

	rec := newRecorder(nil)
	next.ServeHTTP(rec, req)

	if !c.filter.Cacheable(rec.StatusCode()) {
		logger.Trace().Int("http-status", rec.StatusCode()).Msg("Non-cacheable revalidation response")
		return
	}
	if err := c.store.Put(key, rec.Entry(time.Now())); err != nil {
		logger.Error().Err(err).Msg("Could not write revalidated entry")
		return
	}
	logger.Trace().Msg("Revalidated cache entry")
}

// serveEntry writes a stored entry to the client without invoking the
// wrapped handler.
func serveEntry(w http.ResponseWriter, entry store.Entry) {
	if entry.ContentType != "" {
		w.Header().Set("Content-Type", entry.ContentType)
	}
	w.Write(entry.Body)
}

// Close stops the janitor and releases the store.
func (c *Cache) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.janitor.stop()
		if closer, ok := c.store.(io.Closer); ok {
			err = closer.Close()
		}
	})
	return err
}
