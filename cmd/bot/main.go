package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/tomas1pit/loop-calendar-bot/internal/caldav"
	"github.com/tomas1pit/loop-calendar-bot/internal/config"
	"github.com/tomas1pit/loop-calendar-bot/internal/diff"
	"github.com/tomas1pit/loop-calendar-bot/internal/httpserver"
	"github.com/tomas1pit/loop-calendar-bot/internal/notify"
	"github.com/tomas1pit/loop-calendar-bot/internal/poller"
	"github.com/tomas1pit/loop-calendar-bot/internal/schedule"
	"github.com/tomas1pit/loop-calendar-bot/internal/store"
)

func main() {
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		logger = logger.Level(level)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create db pool")
	}
	defer pool.Close()

	if err := store.ApplyMigrations(ctx, pool); err != nil {
		logger.Fatal().Err(err).Msg("failed to apply migrations")
	}

	st := store.New(pool)
	notifier := notify.NewLogNotifier(logger)
	engine := diff.NewEngine(st.Snapshots, notifier, logger)
	reminders := schedule.NewReminders(notifier, cfg.ReminderLead, cfg.CheckInterval, logger)
	digest := schedule.NewDigest(st.DigestLog, notifier, cfg.DigestHour, cfg.Location(), logger)

	limiter := rate.NewLimiter(rate.Limit(cfg.RequestRate), cfg.RequestBurst)
	clientFor := func(user store.User) poller.Fetcher {
		return caldav.New(caldav.Options{
			BaseURL:       cfg.CalDAVBaseURL,
			PrincipalPath: cfg.CalDAVPrincipalPath,
			Email:         user.Email,
			Credential:    user.Credential,
			Auth:          caldav.AuthScheme(cfg.CalDAVAuth),
			Limiter:       limiter,
			Location:      cfg.Location(),
			Logger:        logger.With().Str("user", user.Email).Logger(),
		})
	}

	p := poller.New(st, clientFor, engine, reminders, digest,
		cfg.CheckInterval, cfg.WorkerLimit, cfg.Location(), logger)

	srv := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      httpserver.NewRouter(cfg, st),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", cfg.ListenAddr).Msg("ops server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("ops server error")
		}
	}()

	logger.Info().Dur("interval", cfg.CheckInterval).Msg("poller starting")
	if err := p.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error().Err(err).Msg("poller stopped")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
}
