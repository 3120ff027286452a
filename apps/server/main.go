package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"trickster/apps/server/internal/archive"
	"trickster/apps/server/internal/auth"
	"trickster/apps/server/internal/config"
	"trickster/apps/server/internal/gateway"
	"trickster/apps/server/internal/lobby"
	"trickster/apps/server/internal/table"
)

const (
	reapInterval    = time.Minute
	finishedRetain  = 10 * time.Minute
	shutdownTimeout = 10 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		_, _ = os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger := newLogger(cfg)
	defer func() { _ = logger.Sync() }()

	archiveService, err := archive.Open(cfg, logger)
	if err != nil {
		logger.Fatal("failed to open archive", zap.String("store", cfg.Store), zap.Error(err))
	}
	defer archiveService.Close()

	lby := lobby.New(table.Options{
		Logger:  logger,
		Clock:   clock.New(),
		Archive: archiveService,
		Tokens:  auth.NewRegistry(),
		Faults:  table.LogFaultReporter{Log: logger},
		Seed:    cfg.Seed,
	})
	defer lby.Close()
	gw := gateway.New(lby, logger)
	defer gw.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	restored, err := lby.RestoreFromArchive(ctx)
	if err != nil {
		logger.Error("failed to restore rooms", zap.Error(err))
	} else if restored > 0 {
		logger.Info("rooms restored", zap.Int("count", restored))
	}
	go lby.RunReaper(ctx, reapInterval, finishedRetain)

	mux := http.NewServeMux()
	mux.Handle("/ws", gw.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	archive.NewHTTPHandler(archiveService, logger).RegisterRoutes(mux)
	lobby.NewHTTPHandler(lby, cfg.Debug, logger).RegisterRoutes(mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("shutdown", zap.Error(err))
		}
	}()

	logger.Info("server starting",
		zap.String("addr", cfg.Addr),
		zap.String("store", cfg.Store),
		zap.String("env", cfg.Env),
		zap.Bool("debug", cfg.Debug),
	)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server failed", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger(cfg config.Config) *zap.Logger {
	var (
		logger *zap.Logger
		err    error
	)
	if cfg.Development() {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
