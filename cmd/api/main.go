package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/punchamoorthee/rewardledger/internal/app"
	"github.com/punchamoorthee/rewardledger/internal/config"
	"github.com/punchamoorthee/rewardledger/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.Setup("rewardledger", cfg.Env)

	a, err := app.New(cfg, logger)
	if err != nil {
		log.Fatalf("Unable to initialise app: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a.Run(ctx)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      a.Handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		logger.Info("server starting", slog.String("port", cfg.Port))
		errs <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown failed", slog.Any("error", err))
		}
	case err := <-errs:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}
}
