package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/alimasry/roadmap-planner/config"
	"github.com/alimasry/roadmap-planner/history"
	"github.com/alimasry/roadmap-planner/roadmap"
	"github.com/alimasry/roadmap-planner/server"
	"github.com/alimasry/roadmap-planner/store"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "roadmap-planner",
		Short:        "Learning roadmap editor with undo/redo history",
		SilenceUsage: true,
	}
	root.AddCommand(newServeCmd())
	return root
}

func newServeCmd() *cobra.Command {
	var (
		configPath string
		addr       string
		backend    string
		capacity   int
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the roadmap editing server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				cfg.Addr = addr
			}
			if cmd.Flags().Changed("store") {
				cfg.Store.Backend = backend
			}
			if cmd.Flags().Changed("history-capacity") {
				cfg.History.Capacity = capacity
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, cfg.Log.Logger())
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to YAML config file")
	cmd.Flags().StringVar(&addr, "addr", ":8080", "HTTP listen address")
	cmd.Flags().StringVar(&backend, "store", config.BackendMemory, "roadmap store backend (memory, sqlite, firestore)")
	cmd.Flags().IntVar(&capacity, "history-capacity", history.DefaultCapacity, "undo snapshots kept per roadmap")
	return cmd
}

// openStore builds the configured store. The returned close func flushes
// and releases it.
func openStore(ctx context.Context, cfg config.StoreConfig, logger *slog.Logger) (store.RoadmapStore, func(), error) {
	switch cfg.Backend {
	case config.BackendSQLite:
		db, err := store.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		cs := store.NewCachedStore(db, cfg.FlushInterval, logger)
		return cs, func() { cs.Close(); db.Close() }, nil

	case config.BackendFirestore:
		client, err := firestore.NewClient(ctx, cfg.FirestoreProject)
		if err != nil {
			return nil, nil, fmt.Errorf("firestore client: %w", err)
		}
		cs := store.NewCachedStore(store.NewFirestoreStore(client), cfg.FlushInterval, logger)
		return cs, func() { cs.Close(); client.Close() }, nil

	default:
		return store.NewMemoryStore(), func() {}, nil
	}
}

func serve(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	st, closeStore, err := openStore(ctx, cfg.Store, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	hub := server.NewHub(st, &roadmap.TreeMutator{}, server.HubOptions{
		HistoryCapacity: cfg.History.Capacity,
		Observer:        history.NewPromObserver(reg),
		Logger:          logger,
	})
	go hub.Run()
	defer hub.Close()

	srv := &http.Server{
		Addr: cfg.Addr,
		Handler: server.NewHandler(hub, server.HandlerOptions{
			Metrics:   promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
			StaticDir: cfg.StaticDir,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting server", "addr", cfg.Addr, "store", cfg.Store.Backend, "history_capacity", cfg.History.Capacity)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
