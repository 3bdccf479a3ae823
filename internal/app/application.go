package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"capsyhub/internal/api"
	"capsyhub/internal/bridge"
	"capsyhub/internal/catalog"
	"capsyhub/internal/config"
	"capsyhub/internal/directory"
	"capsyhub/internal/notify"
	"capsyhub/internal/router"
	"capsyhub/internal/session"
	"capsyhub/internal/ws"
	"capsyhub/pkg/interfaces"
)

// Application coordinates all broker components and the three listeners:
// ops API, mobile broker, device broker.
type Application struct {
	config    *config.Config
	directory interfaces.AccountDirectory
	registry  *session.Registry

	apiServer    *http.Server
	mobileServer *http.Server
	deviceServer *http.Server
}

// NewApplication wires all components in dependency order:
// Directory → Catalog → Registry → Dispatcher → Bridge → Router → Handlers → Servers.
func NewApplication(cfg *config.Config) (*Application, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	dir, err := directory.New(cfg.Directory, cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize user directory: %w", err)
	}

	contentCatalog := catalog.New(cfg.Catalog.DefaultLocale)
	if cfg.Catalog.Path != "" {
		if err := contentCatalog.LoadFile(cfg.Catalog.Path); err != nil {
			_ = dir.Close()
			return nil, err
		}
	}

	registry := session.NewRegistry()
	dispatcher := notify.NewDispatcher(contentCatalog)
	deviceBridge := bridge.NewBridge()
	protocolRouter := router.NewRouter(registry, dir, dispatcher, deviceBridge)
	wsHandler := ws.NewHandler(protocolRouter, cfg.WebSocket)
	apiServer := api.NewServer(dir, registry)

	apiMux := http.NewServeMux()
	apiMux.Handle("/health", apiServer)
	apiMux.Handle("/stats", apiServer)

	mobileMux := http.NewServeMux()
	mobileMux.HandleFunc("/ws", wsHandler.ServeMobile)

	deviceMux := http.NewServeMux()
	deviceMux.HandleFunc("/device", wsHandler.ServeDevice)

	apiSrv := newHTTPServer(cfg.API, apiMux)
	apiSrv.WriteTimeout = cfg.API.WriteTimeout

	return &Application{
		config:       cfg,
		directory:    dir,
		registry:     registry,
		apiServer:    apiSrv,
		mobileServer: newHTTPServer(cfg.MobileWS, mobileMux),
		deviceServer: newHTTPServer(cfg.DeviceWS, deviceMux),
	}, nil
}

func newHTTPServer(cfg *config.ServerConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:        cfg.Addr(),
		Handler:     handler,
		ReadTimeout: cfg.ReadTimeout,
		// WebSocket upgrades hold the response stream open, so write
		// timeouts apply to the ops API listener only.
	}
}

// Start brings up all three listeners and verifies none of them failed
// immediately.
func (app *Application) Start(ctx context.Context) error {
	serverErrCh := make(chan error, 3)
	for name, srv := range map[string]*http.Server{
		"api":    app.apiServer,
		"mobile": app.mobileServer,
		"device": app.deviceServer,
	} {
		name, srv := name, srv
		slog.Info("listener starting", "name", name, "addr", srv.Addr)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				serverErrCh <- fmt.Errorf("%s server error: %w", name, err)
			}
		}()
	}

	select {
	case err := <-serverErrCh:
		return err
	case <-time.After(100 * time.Millisecond):
		slog.Info("capsyhub started",
			"api", app.apiServer.Addr,
			"mobile", app.mobileServer.Addr,
			"device", app.deviceServer.Addr)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop shuts down in reverse dependency order: listeners stop accepting,
// then every session has its timers cancelled and both handles closed, then
// the directory closes.
func (app *Application) Stop(ctx context.Context) error {
	slog.Info("shutting down capsyhub")

	for name, srv := range map[string]*http.Server{
		"api":    app.apiServer,
		"mobile": app.mobileServer,
		"device": app.deviceServer,
	} {
		if err := srv.Shutdown(ctx); err != nil {
			slog.Warn("listener shutdown error", "name", name, "error", err)
		}
	}

	app.registry.Shutdown()

	if err := app.directory.Close(); err != nil {
		slog.Warn("directory shutdown error", "error", err)
	}

	slog.Info("capsyhub shutdown complete")
	return nil
}
