package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"webos/pkg/appschema"
	"webos/pkg/catalog"
	"webos/pkg/config"
	"webos/pkg/desktop"
	"webos/pkg/llm"
	"webos/pkg/logging"
	"webos/pkg/server"
	"webos/pkg/wm"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and WebSocket server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				a.cfg.Server.Addr = addr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return cmd
}

func (a *app) serve(ctx context.Context) error {
	cfg := a.cfg
	log := a.logger

	store, err := openCatalog(ctx, cfg.Catalog)
	if err != nil {
		return err
	}
	defer store.Close()

	validator, err := appschema.Default()
	if err != nil {
		return err
	}

	// The hub asks the desktop for the connect-time snapshot; the desktop
	// publishes through the hub.
	var d *desktop.Desktop
	hub := server.NewHub(cfg.Server.EventBuffer, func(ctx context.Context) (any, error) {
		return d.Snapshot(ctx)
	}, logging.Named(log, "hub"))
	defer hub.Close()

	d, err = desktop.New(store, desktop.Config{
		WM:                   windowConfig(cfg.Desktop),
		CascadeCloseOnDelete: cfg.Desktop.CascadeCloseOnDelete,
		Validator:            validator,
		Publisher:            hub,
		Logger:               logging.Named(log, "desktop"),
	})
	if err != nil {
		return err
	}

	assistant, err := newAssistant(ctx, cfg.LLM, validator, logging.Named(log, "llm"))
	if err != nil {
		return err
	}

	handler := server.NewRouter(server.RouterConfig{
		Desktop:   d,
		Assistant: assistant,
		Hub:       hub,
		StaticDir: cfg.Server.StaticDir,
		Logger:    logging.Named(log, "http"),
		Ready: func(ctx context.Context) error {
			_, err := store.List(ctx)
			return err
		},
	})

	srv, err := server.New(server.Config{
		Addr:         cfg.Server.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout.Std(),
		WriteTimeout: cfg.Server.WriteTimeout.Std(),
		IdleTimeout:  cfg.Server.IdleTimeout.Std(),
		TLSCert:      cfg.Server.TLSCert,
		TLSKey:       cfg.Server.TLSKey,
		Logger:       logging.Named(log, "server"),
	})
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.ListenAndServe)
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutdown requested")
		hub.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// openCatalog opens the configured application store.
func openCatalog(ctx context.Context, cfg config.CatalogConfig) (catalog.Store, error) {
	switch cfg.Driver {
	case "", "memory":
		return catalog.NewMemoryStore(), nil
	case "sqlite":
		return catalog.OpenSQLite(ctx, cfg.DSN)
	default:
		return nil, fmt.Errorf("unknown catalog driver %q", cfg.Driver)
	}
}

func windowConfig(cfg config.DesktopConfig) wm.Config {
	wc := wm.DefaultConfig()
	wc.ViewportWidth = cfg.ViewportWidth
	wc.ViewportHeight = cfg.ViewportHeight
	wc.TaskbarHeight = cfg.TaskbarHeight
	wc.ChromeHeight = cfg.ChromeHeight
	wc.MinWidth = cfg.MinWidth
	wc.MinHeight = cfg.MinHeight
	wc.BaseZ = cfg.BaseZ
	wc.DynamicZOffset = cfg.DynamicZOffset
	return wc
}

// newAssistant returns nil when no API key is configured; the assistant
// route then reports itself disabled.
func newAssistant(ctx context.Context, cfg config.LLMConfig, validator *appschema.Validator, log *zap.Logger) (*llm.Assistant, error) {
	if cfg.APIKey == "" {
		log.Warn("no API key configured, assistant disabled")
		return nil, nil
	}
	gen, err := llm.NewGeminiGenerator(ctx, cfg.APIKey, cfg.Model)
	if err != nil {
		return nil, err
	}
	log.Info("assistant enabled", zap.String("model", gen.Model()))
	return llm.NewAssistant(gen,
		llm.WithLogger(log),
		llm.WithHistoryTurns(cfg.HistoryTurns),
		llm.WithTemperature(cfg.Temperature),
		llm.WithTimeout(cfg.Timeout.Std()),
		llm.WithValidator(validator),
	)
}
