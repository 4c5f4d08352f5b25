package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/AlexTLDR/wedding/internal/cache"
	"github.com/AlexTLDR/wedding/internal/config"
	"github.com/AlexTLDR/wedding/internal/database"
	"github.com/AlexTLDR/wedding/internal/logging"
	"github.com/AlexTLDR/wedding/internal/mailer"
	"github.com/AlexTLDR/wedding/internal/music"
	"github.com/AlexTLDR/wedding/internal/queue"
	"github.com/AlexTLDR/wedding/internal/rsvp"
	"github.com/AlexTLDR/wedding/internal/server"
	"github.com/AlexTLDR/wedding/internal/server/handlers"
	"github.com/AlexTLDR/wedding/internal/telemetry"
)

func main() {
	// Use Overload to force to overwrite any existing environment variables
	envErr := godotenv.Overload()

	cfg, err := config.Load()
	if err != nil {
		l := logging.New("info", "json")
		l.Fatal().Err(err).Msg("failed to load config")
	}

	log := logging.New(cfg.LogLevel, cfg.LogFormat)
	if envErr != nil {
		log.Debug().Err(envErr).Msg("no .env file loaded")
	}

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
}

func run(cfg *config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, cfg.OTLPEndpoint, cfg.ServiceName)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.Warn().Err(err).Msg("failed to flush traces")
		}
	}()

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close database")
		}
	}()

	if err := db.Migrate(ctx); err != nil {
		return err
	}
	log.Info().Str("dialect", db.Dialect()).Msg("database ready")

	m := mailer.New(db, newSender(cfg, log), cfg.EmailSubject, logging.Component(log, "mailer"))

	var notifier rsvp.Notifier
	if cfg.RedisURL != "" {
		mq, err := queue.NewMailQueue(cfg.RedisURL, logging.Component(log, "queue"))
		if err != nil {
			return err
		}
		defer mq.Close()

		worker, err := queue.NewWorker(cfg.RedisURL, m, 2, logging.Component(log, "worker"))
		if err != nil {
			return err
		}
		if err := worker.Start(); err != nil {
			return err
		}
		defer worker.Shutdown()

		notifier = mq
	} else {
		async := mailer.NewAsyncNotifier(m, cfg.MailTimeout, logging.Component(log, "mailer"))
		defer async.Wait()
		notifier = async
	}

	svc := rsvp.NewService(db, notifier, rsvp.Options{
		MealOptions: cfg.MealOptions,
		PhoneRegion: cfg.DefaultPhoneRegion,
		Timeout:     cfg.DirectoryTimeout,
	}, logging.Component(log, "rsvp"))

	songs, closeSongs, err := newSongSearch(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeSongs()

	srv := server.New(cfg, db, svc, songs, logging.Component(log, "http"))

	errc := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Msg("starting server")
		errc <- srv.Start(":" + cfg.Port)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newSender(cfg *config.Config, log zerolog.Logger) mailer.Sender {
	if cfg.ResendAPIKey == "" {
		log.Warn().Msg("RESEND_API_KEY not set, confirmation emails are only logged")
		return mailer.NewLogSender(logging.Component(log, "mailer"))
	}
	return mailer.NewResendSender(cfg.ResendAPIKey, cfg.EmailFrom)
}

// newSongSearch returns nil when no Spotify credentials are configured.
func newSongSearch(ctx context.Context, cfg *config.Config, log zerolog.Logger) (handlers.SongSearcher, func(), error) {
	noop := func() {}
	if cfg.SpotifyClientID == "" || cfg.SpotifyClientSecret == "" {
		log.Info().Msg("song search disabled")
		return nil, noop, nil
	}

	var c cache.Cache = cache.NewMemory()
	if cfg.RedisURL != "" {
		rc, err := cache.NewRedis(ctx, cfg.RedisURL, "wedding:")
		if err != nil {
			return nil, noop, err
		}
		c = rc
	}

	client, err := music.New(music.Options{
		ClientID:     cfg.SpotifyClientID,
		ClientSecret: cfg.SpotifyClientSecret,
		Market:       cfg.SpotifyMarket,
		Cache:        c,
		CacheTTL:     cfg.SearchCacheTTL,
	}, logging.Component(log, "music"))
	if err != nil {
		_ = c.Close()
		return nil, noop, err
	}
	return client, func() { _ = c.Close() }, nil
}
