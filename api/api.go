// Package api implements the Timeline HTTP API: audio analysis, transcription
// and the service endpoints around them.
package api

import (
	"context"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/gorilla/mux"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"timeline/config"
	"timeline/core"
	"timeline/extract"
	"timeline/util/goroutine"
)

// Transcriber converts uploaded audio into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, filename, contentType string) (string, error)
}

// EventExtractor turns a transcript into calendar events.
type EventExtractor interface {
	Extract(ctx context.Context, req extract.Request) ([]core.Event, error)
}

// rateLimiterEntry holds a rate limiter with last seen time
type rateLimiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// API holds the HTTP handler and its dependencies. The bootstrap binds the
// listener and mounts Router as the application entry point.
type API struct {
	router         *mux.Router
	config         *config.Config
	logger         *zap.SugaredLogger
	transcriber    Transcriber
	extractor      EventExtractor
	transcripts    *lru.Cache[string, string]
	rateLimiters   map[string]*rateLimiterEntry
	rateLimitersMu sync.Mutex
	stopCh         chan struct{}
}

// NewAPI creates the API server. transcripts may be nil to disable the
// transcript cache.
func NewAPI(cfg *config.Config, transcriber Transcriber, extractor EventExtractor, transcripts *lru.Cache[string, string], logger *zap.SugaredLogger) *API {
	a := &API{
		router:       mux.NewRouter(),
		config:       cfg,
		logger:       logger,
		transcriber:  transcriber,
		extractor:    extractor,
		transcripts:  transcripts,
		rateLimiters: make(map[string]*rateLimiterEntry),
		stopCh:       make(chan struct{}),
	}
	a.setupRoutes()
	go a.cleanupRateLimiters()
	return a
}

// Router exposes the root handler. The bootstrap's application locator
// resolves to this.
func (a *API) Router() http.Handler {
	return a.router
}

// setupRoutes sets up the API routes
func (a *API) setupRoutes() {
	a.router.Use(a.recoveryMiddleware)
	a.router.Use(a.requestIDMiddleware)
	a.router.Use(a.corsMiddleware)
	a.router.Use(a.rateLimitMiddleware)
	a.router.Use(a.metricsMiddleware)

	a.router.HandleFunc("/api/v1/analyze", a.analyzeAudio).Methods("POST")
	a.router.HandleFunc("/api/v1/transcribe", a.transcribeAudio).Methods("POST")
	a.router.HandleFunc("/api", a.apiInfo).Methods("GET")
	a.router.HandleFunc("/health", a.healthCheck).Methods("GET")
	a.router.Handle("/metrics", promhttp.Handler())

	// Static test page, mounted only when the directory exists.
	if dir := a.config.Static.Dir; dirExists(dir) {
		a.router.PathPrefix("/static/").Handler(
			http.StripPrefix("/static/", http.FileServer(http.Dir(dir))))
		a.router.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "/static/index.html", http.StatusTemporaryRedirect)
		}).Methods("GET")
	}
}

// Close stops the API's background goroutines. It does not touch the HTTP
// server, which the bootstrap owns.
func (a *API) Close() {
	close(a.stopCh)
}

// cleanupRateLimiters periodically removes inactive rate limiters to prevent
// unbounded growth of the per-IP map.
func (a *API) cleanupRateLimiters() {
	defer goroutine.Recover("rate-limiter-cleanup", a.logger)

	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			a.rateLimitersMu.Lock()
			for ip, entry := range a.rateLimiters {
				if time.Since(entry.lastSeen) > 1*time.Hour {
					delete(a.rateLimiters, ip)
				}
			}
			a.rateLimitersMu.Unlock()
		case <-a.stopCh:
			return
		}
	}
}

func dirExists(dir string) bool {
	if dir == "" {
		return false
	}
	info, err := os.Stat(dir)
	return err == nil && info.IsDir()
}
