package bootstrap

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"timeline/api"
	"timeline/config"
	"timeline/core"
	"timeline/extract"
	"timeline/prompt"
	"timeline/transcribe"
	"timeline/util/goroutine"
)

func init() {
	// The compiled-in application entry point, registered under the same
	// locator the service has always been deployed with.
	RegisterApp(Locator{Module: "app.main", Symbol: "app"}, func(a *App) (http.Handler, error) {
		a.API = api.NewAPI(a.Config, a.Transcriber, a.Extractor, a.Transcripts, a.Sugar)
		return a.API.Router(), nil
	})
}

// App represents the Timeline service with all its components.
type App struct {
	Config *config.Config
	Logger *zap.Logger
	Sugar  *zap.SugaredLogger

	Prompts     *prompt.Loader
	Tags        *core.TagVocabulary
	Transcriber *transcribe.Client
	Extractor   *extract.Extractor
	Transcripts *lru.Cache[string, string]
	API         *api.API

	server      *http.Server
	serverErrCh chan error
}

// NewApp creates a new application instance and initializes all components.
// The HTTP listener is not bound until Start.
func NewApp(ctx context.Context) (*App, error) {
	app := &App{
		serverErrCh: make(chan error, 1),
	}

	logger, sugar, err := InitLogger()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	app.Logger = logger
	app.Sugar = sugar

	sugar.Info("Timeline API starting...")

	cfg, err := InitConfig(sugar)
	if err != nil {
		return nil, err
	}
	app.Config = cfg

	tags, err := core.LoadTagVocabulary(cfg.Tags.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to load tag vocabulary: %w", err)
	}
	app.Tags = tags
	if tags.Empty() {
		sugar.Info("No tag vocabulary configured, event tagging disabled")
	} else {
		sugar.Infow("Tag vocabulary loaded", "tags", len(tags.Tags))
	}

	app.Prompts = prompt.NewLoader(cfg.Prompts.Path)
	// Fail fast on malformed templates instead of at the first request.
	if _, err := app.Prompts.Load(); err != nil {
		return nil, err
	}

	app.Transcriber = transcribe.NewClient(cfg.Upstream.BaseURL, cfg.Upstream.Token, cfg.Upstream.TranscribeTimeout, sugar)
	app.Extractor = extract.NewExtractor(cfg.Upstream.BaseURL, cfg.Upstream.Token, cfg.Upstream.Model,
		app.Prompts, tags, cfg.Upstream.ExtractTimeout, sugar)

	if cfg.Cache.Enabled {
		cache, err := lru.New[string, string](cfg.Cache.Size)
		if err != nil {
			return nil, fmt.Errorf("failed to create transcript cache: %w", err)
		}
		app.Transcripts = cache
	}

	return app, nil
}

// Start resolves the application locator, binds the listener and begins
// serving. A bind failure or an unresolvable locator is returned as an error
// so the process can exit non-zero without a listener left open.
func (a *App) Start(ctx context.Context) error {
	locator, err := ParseLocator(a.Config.Server.App)
	if err != nil {
		return err
	}
	factory, err := ResolveApp(locator)
	if err != nil {
		return err
	}
	handler, err := factory(a)
	if err != nil {
		return fmt.Errorf("failed to construct application %q: %w", locator, err)
	}
	a.Sugar.Infow("Application resolved", "app", locator.String())

	a.server = &http.Server{
		Handler:      handler,
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
	}

	addr := a.Config.ListenAddr()
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to bind %s: %w", addr, err)
	}
	a.Sugar.Infow("Listening", "addr", addr, "tls", a.Config.Server.TLS)

	goroutine.Go("http-server", a.Sugar, func() {
		var serveErr error
		if a.Config.Server.TLS {
			serveErr = a.server.ServeTLS(ln, a.Config.Server.CertFile, a.Config.Server.KeyFile)
		} else {
			serveErr = a.server.Serve(ln)
		}
		if serveErr != nil && serveErr != http.ErrServerClosed {
			a.serverErrCh <- serveErr
		}
	})

	return nil
}

// WaitForShutdown blocks until a shutdown signal is received or the server
// fails. It returns nil for a signal-initiated stop and the server error
// otherwise.
func (a *App) WaitForShutdown() error {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-c:
		a.Sugar.Infow("Shutdown signal received", "signal", sig.String())
		return nil
	case err := <-a.serverErrCh:
		return fmt.Errorf("server failed: %w", err)
	}
}

// Shutdown gracefully shuts down all components.
func (a *App) Shutdown() {
	a.Sugar.Info("Shutting down...")

	if a.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout)
		defer cancel()
		if err := a.server.Shutdown(ctx); err != nil {
			a.Sugar.Errorw("Failed to drain HTTP server", "error", err)
		}
	}

	if a.API != nil {
		a.API.Close()
	}

	a.Sugar.Info("Shutdown complete")
	_ = a.Logger.Sync()
}
