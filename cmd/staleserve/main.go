package main

import (
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/staleserve/staleserve"
)

var (
	// CLI flags
	configFilenameFlag string
	portFlag           int
	originFlag         string
	storeFlag          string
	dirFlag            string
	verbosityTraceFlag bool
	logFilenameFlag    string

	// this is set by goreleaser
	version string
)

func init() {
	flag.StringVar(&configFilenameFlag, "config", "", "Path to config file")
	flag.IntVar(&portFlag, "port", 0, "Port to listen on (overrides config)")
	flag.StringVar(&originFlag, "origin", "", "Origin URL to proxy to (overrides config)")
	flag.StringVar(&storeFlag, "store", "", "Store backend: memory, filesystem or sqlite (overrides config)")
	flag.StringVar(&dirFlag, "dir", "", "Cache directory (overrides config)")
	flag.BoolVar(&verbosityTraceFlag, "vv", false, "Verbosity: trace logging")
	flag.StringVar(&logFilenameFlag, "log-file", "", "Log file to use (in addition to stdout)")

	if version == "" {
		version = "DEV"
	}
}

func main() {
	flag.Parse()

	// set log level
	logLevel := zerolog.DebugLevel
	if verbosityTraceFlag {
		logLevel = zerolog.TraceLevel
	}

	// set up log output to stdout
	// also output to logfile if specified
	logOutputs := make([]io.Writer, 0)
	logOutputs = append(logOutputs, zerolog.ConsoleWriter{Out: os.Stdout})
	if logFilenameFlag != "" {
		if logFileOutput, err := os.OpenFile(logFilenameFlag, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0644); err != nil {
			log.Fatal().Err(err).Msg("Cannot open log file")
		} else {
			logOutputs = append(logOutputs, logFileOutput)
		}
	}
	multiWriter := zerolog.MultiLevelWriter(logOutputs...)
	log.Logger = log.Level(logLevel).Output(multiWriter).
		With().Str("version", version).Logger()

	cfg, err := loadConfig(configFilenameFlag)
	if err != nil {
		log.Fatal().Err(err).Msg("Cannot load config")
	}

	// flags override environment and config file
	if portFlag != 0 {
		cfg.Port = portFlag
	}
	if originFlag != "" {
		cfg.Origin = originFlag
	}
	if storeFlag != "" {
		cfg.Cache.Store = storeFlag
	}
	if dirFlag != "" {
		cfg.Cache.Dir = dirFlag
	}

	if cfg.Origin == "" {
		log.Fatal().Msg("Please specify origin")
	}
	originURL, err := url.Parse(cfg.Origin)
	if err != nil {
		log.Fatal().Err(err).Msg("Could not parse origin url")
	}

	cache, err := staleserve.New(staleserve.Config{
		Browser:  cfg.Cache.Browser,
		Server:   cfg.Cache.Server,
		Store:    cfg.Cache.Store,
		Dir:      cfg.Cache.Dir,
		NotCache: cfg.Cache.NotCache,
		Logger:   &log.Logger,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Could not create cache")
	}
	defer cache.Close()

	proxy := httputil.NewSingleHostReverseProxy(originURL)

	r := chi.NewRouter()
	r.Post("/-/purge", cache.PurgeHandler().ServeHTTP)
	r.Method(http.MethodGet, "/-/metrics", promhttp.Handler())
	r.Handle("/*", cache.Middleware(proxy))

	log.Info().Msgf("Caching port %v for %s", cfg.Port, originURL.String())
	if err := http.ListenAndServe(fmt.Sprintf(":%d", cfg.Port), r); err != nil {
		log.Fatal().Err(err).Msg("Server stopped")
	}
}
