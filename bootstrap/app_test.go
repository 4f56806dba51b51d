package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"timeline/config"
)

func testAppConfig(port int) *config.Config {
	cfg := &config.Config{}
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = port
	cfg.Server.App = "app.main:app"
	cfg.Server.ReadTimeout = 5 * time.Second
	cfg.Server.WriteTimeout = 5 * time.Second
	cfg.Server.ShutdownTimeout = time.Second
	cfg.API.Version = "1.0.0"
	cfg.API.AllowedOrigins = []string{"*"}
	cfg.API.MaxAudioBytes = 1 << 20
	cfg.API.RateLimit.RequestsPerSecond = 100
	cfg.API.RateLimit.Burst = 100
	return cfg
}

func newTestApp(cfg *config.Config) *App {
	logger := zap.NewNop()
	return &App{
		Config:      cfg,
		Logger:      logger,
		Sugar:       logger.Sugar(),
		serverErrCh: make(chan error, 1),
	}
}

func TestStart_PortInUse(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	port := ln.Addr().(*net.TCPAddr).Port

	app := newTestApp(testAppConfig(port))
	defer app.Shutdown()

	err = app.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to bind")
	assert.Contains(t, err.Error(), fmt.Sprintf("127.0.0.1:%d", port))
}

func TestStart_UnknownLocator(t *testing.T) {
	cfg := testAppConfig(0)
	cfg.Server.App = "app.other:app"
	app := newTestApp(cfg)

	err := app.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "app.other:app")
}

func TestStart_MalformedLocator(t *testing.T) {
	cfg := testAppConfig(0)
	cfg.Server.App = "no-symbol"
	app := newTestApp(cfg)

	err := app.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid application locator")
}

func TestStart_ServesHealth(t *testing.T) {
	// Reserve a free port, release it, and start on it.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	app := newTestApp(testAppConfig(port))
	require.NoError(t, app.Start(context.Background()))
	defer app.Shutdown()

	url := fmt.Sprintf("http://127.0.0.1:%d/health", port)
	assert.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 50*time.Millisecond)
}

func TestWaitForShutdown_ServerError(t *testing.T) {
	app := newTestApp(testAppConfig(0))
	app.serverErrCh <- errors.New("accept tcp: use of closed network connection")

	err := app.WaitForShutdown()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server failed")
}

func TestWaitForShutdown_Signal(t *testing.T) {
	app := newTestApp(testAppConfig(0))

	go func() {
		time.Sleep(100 * time.Millisecond)
		_ = syscall.Kill(syscall.Getpid(), syscall.SIGTERM)
	}()

	err := app.WaitForShutdown()
	assert.NoError(t, err)
}
