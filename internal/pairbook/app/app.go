// Package app assembles the service: persistence, state, dialogue generation,
// notifications, the HTTP API, and the background reconciliation loop.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/soyj/pairbook/internal/pairbook/api"
	"github.com/soyj/pairbook/internal/pairbook/config"
	"github.com/soyj/pairbook/internal/pairbook/dialogue"
	"github.com/soyj/pairbook/internal/pairbook/notify"
	"github.com/soyj/pairbook/internal/pairbook/reconcile"
	"github.com/soyj/pairbook/internal/pairbook/state"
	"github.com/soyj/pairbook/internal/pairbook/store"
)

// App is the assembled service.
type App struct {
	cfg        config.Config
	store      store.Store
	state      *state.State
	reconciler *reconcile.Reconciler
	httpServer *http.Server
}

// New wires the service from configuration. The store is opened and the full
// state is loaded into memory before New returns; a snapshot that fails to
// decode aborts startup.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	slog.Info("opening store", "driver", cfg.Store.Driver, "path", cfg.Store.Path)
	st, err := store.Open(ctx, store.Driver(cfg.Store.Driver), cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	provider := buildProvider(cfg.LLM)
	gen := dialogue.NewGenerator(provider)

	appState := state.New(st, gen)
	if err := appState.Load(ctx); err != nil {
		st.Close()
		return nil, fmt.Errorf("load state: %w", err)
	}

	notifier, err := buildNotifier(cfg.Matrix)
	if err != nil {
		st.Close()
		return nil, err
	}

	rec := reconcile.New(appState, gen, notifier, reconcile.Config{
		Interval: cfg.Reconcile.Interval.Std(),
	})

	router := api.NewRouter(appState, gen)
	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		cfg:        cfg,
		store:      st,
		state:      appState,
		reconciler: rec,
		httpServer: srv,
	}, nil
}

func buildProvider(cfg config.LLMConfig) dialogue.Provider {
	if cfg.APIKey == "" {
		slog.Warn("no LLM API key configured, dialogue falls back to fixed phrases")
		return dialogue.NewDisabled()
	}
	return dialogue.NewOpenAI(dialogue.OpenAIConfig{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Model:   cfg.Model,
		Timeout: cfg.Timeout.Std(),
	})
}

func buildNotifier(cfg config.MatrixConfig) (notify.Notifier, error) {
	if !cfg.Enabled() {
		slog.Info("matrix notifications disabled, logging instead")
		return notify.LogNotifier{}, nil
	}
	slog.Info("connecting matrix notifier", "homeserver", cfg.Homeserver, "room", cfg.RoomID)
	n, err := notify.NewMatrix(notify.MatrixConfig{
		Homeserver:  cfg.Homeserver,
		UserID:      cfg.UserID,
		AccessToken: cfg.AccessToken,
		RoomID:      cfg.RoomID,
	})
	if err != nil {
		return nil, fmt.Errorf("matrix notifier: %w", err)
	}
	return n, nil
}

// Run starts the reconciler and the HTTP server and blocks until ctx is
// cancelled or the server fails. Shutdown is graceful: in-flight requests get
// a drain window, the reconciler stops at its next tick check, and the store
// is closed last.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go a.reconciler.Run(ctx)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server listening", "addr", a.cfg.Server.Addr)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		cancel()
		a.close()
		return fmt.Errorf("http server: %w", err)
	}

	slog.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Warn("http shutdown incomplete", "err", err)
	}

	a.close()
	return nil
}

func (a *App) close() {
	// Data was persisted on each write; a close failure here loses nothing.
	if err := a.store.Close(); err != nil {
		slog.Error("store close failed", "err", err)
	}
}
