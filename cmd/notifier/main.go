package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"nickname-notifier/internal/bot"
	"nickname-notifier/internal/config"
	"nickname-notifier/internal/dialog"
	"nickname-notifier/internal/http/router"
	"nickname-notifier/internal/lib/sl"
	"nickname-notifier/internal/repository"
	"nickname-notifier/internal/service"
)

const shutdownTimeout = 15 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// .env is optional.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := setupLogger(cfg.Env)

	db, err := repository.NewDB(cfg.Database.Driver, cfg.Database.DSN(), logger)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	sqlDB, err := db.DB()
	if err == nil {
		defer sqlDB.Close()
	}

	recipients := repository.NewRecipientRepository(db, cfg.Database.QueryTimeout)
	sessions := dialog.NewSessions(cfg.Session.TTL)
	dispatcher := dialog.NewDispatcher(recipients, sessions, logger)

	telegramBot, err := bot.New(cfg.Telegram, dispatcher, logger)
	if err != nil {
		log.Fatalf("bot: %v", err)
	}
	deliverer, err := bot.NewDeliverer(cfg.Telegram.Token, cfg.Telegram.APIEndpoint, cfg.Telegram.SendTimeout)
	if err != nil {
		log.Fatalf("deliverer: %v", err)
	}
	notifier := service.NewNotifyService(recipients, deliverer, logger)

	scheduler := service.NewSchedulerService(time.Local, logger)
	if _, err := scheduler.ScheduleSweep(cfg.Session.SweepInterval, sessions); err != nil {
		log.Fatalf("schedule session sweep: %v", err)
	}
	scheduler.Start()
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		scheduler.Stop(stopCtx)
	}()

	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      router.New(logger, notifier, recipients, cfg.HTTPServer.Secret),
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout + cfg.Telegram.SendTimeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return telegramBot.Start(gctx)
	})
	g.Go(func() error {
		logger.Info("http server started", slog.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	logger.Info("notifier started", slog.String("env", cfg.Env))
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("stopped with error", sl.Err(err))
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}

func setupLogger(env string) *slog.Logger {
	switch env {
	case config.EnvProd:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	case config.EnvDev:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	default:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}
