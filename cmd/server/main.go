package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/DoyleJ11/auction-dice-backend/internal/config"
	"github.com/DoyleJ11/auction-dice-backend/internal/game"
	"github.com/DoyleJ11/auction-dice-backend/internal/httpapi"
	"github.com/DoyleJ11/auction-dice-backend/internal/hub"
	"github.com/DoyleJ11/auction-dice-backend/internal/logging"
	"github.com/DoyleJ11/auction-dice-backend/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		config.Exitf("config: %v", err)
	}

	log, err := logging.New(cfg.LogLevel, cfg.LogDev)
	if err != nil {
		config.Exitf("logger: %v", err)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Error("server stopped", zap.Error(err))
		_ = log.Sync()
		os.Exit(1)
	}
}

func run(cfg config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(store.Options{
		Driver: cfg.DBDriver,
		Path:   cfg.DBPath,
		DSN:    cfg.DatabaseURL,
		Logger: log,
	})
	if err != nil {
		return err
	}
	defer st.Close()

	h := hub.NewHub(ctx)
	defer h.Send(hub.ShutdownHub{})

	svc, err := game.NewService(st, game.Options{
		StartingPoints: cfg.StartingPoints,
		RoomTTL:        cfg.RoomTTL,
		Notifier:       h,
		Logger:         log,
	})
	if err != nil {
		return err
	}

	// Build the router *with* the hub injected
	srv := &http.Server{
		Addr: cfg.Addr,
		Handler: httpapi.SetupRoutes(httpapi.Deps{
			Game:      svc,
			Hub:       h,
			Logger:    log,
			IndexFile: cfg.IndexFile,
			WSOrigins: cfg.WSOrigins,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening", zap.String("addr", cfg.Addr), zap.String("db", cfg.DBDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	})
	return g.Wait()
}
