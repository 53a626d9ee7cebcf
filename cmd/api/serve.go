package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/zhouzirui/z-salon/backend/internal/config"
	"github.com/zhouzirui/z-salon/backend/internal/handler"
	"github.com/zhouzirui/z-salon/backend/internal/service/ai"
	"github.com/zhouzirui/z-salon/backend/internal/service/chat"
	"github.com/zhouzirui/z-salon/backend/internal/store"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	personaStore, err := loadPersonas(cfg.Storage.PersonaCatalogPath)
	if err != nil {
		return fmt.Errorf("failed to load persona catalog: %w", err)
	}
	logger.Info("persona catalog loaded", zap.Int("personas", len(personaStore.List())))

	repo, err := openRepository(cfg.Storage)
	if err != nil {
		return err
	}
	defer func() {
		if err := repo.Close(); err != nil {
			logger.Warn("failed to close repository", zap.Error(err))
		}
	}()

	generator, err := ai.NewGenerator(ctx, cfg.Generator, logger.Named("ai"))
	switch {
	case err != nil:
		logger.Warn("failed to initialize response generator, continuing without it", zap.Error(err))
		generator = nil
	case generator == nil:
		logger.Info("no GENERATOR_PROVIDER configured, sends will report the generator as unavailable")
	default:
		logger.Info("response generator initialized", zap.String("provider", string(cfg.Generator.Provider)))
	}

	chatSvc := chat.NewService(repo, personaStore, generator, chat.Config{
		GeneratorTimeout: cfg.Generator.Timeout,
		HistoryLimit:     cfg.Generator.HistoryLimit,
	}, logger.Named("chat"))

	router := handler.NewRouter(personaStore, chatSvc, logger.Named("http"), cfg.Server.CORSAllowedOrigins)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	logger.Info("Z Salon backend listening", zap.String("addr", srv.Addr))
	return runServer(ctx, srv)
}

func openRepository(storage config.StorageConfig) (store.Repository, error) {
	switch storage.Driver {
	case config.StorageSQLite:
		repo, err := store.NewSQLiteStore(storage.SQLitePath, logger.Named("store"))
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		logger.Info("using sqlite repository", zap.String("path", storage.SQLitePath))
		return repo, nil
	default:
		logger.Info("using in-memory repository")
		return store.NewMemoryStore(), nil
	}
}

// runServer serves until ctx is cancelled, then shuts down gracefully.
func runServer(ctx context.Context, srv *http.Server) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		logger.Info("server stopped")
		return nil
	})

	return g.Wait()
}
