// cmd/api/main.go

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/nats-io/nats.go"

	"tagpulse/internal/adapter/events"
	"tagpulse/internal/adapter/social"
	"tagpulse/internal/adapter/storage"
	"tagpulse/internal/config"
	"tagpulse/internal/domain/thread"
	"tagpulse/internal/logging"
	"tagpulse/internal/server"
	"tagpulse/internal/server/handlers"
	"tagpulse/internal/service/listening"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})

	// Setup context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup signal handling for graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Initialize content source
	source, closeSource, err := initSource(ctx, cfg)
	if err != nil {
		logging.Fatal().Err(err).Str("source", cfg.Analysis.Source).Msg("Failed to initialize content source")
	}
	defer closeSource()

	// Initialize event bus
	publisher, stream, closeBus, err := initEvents(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to connect to NATS")
	}
	defer closeBus()

	policy, err := thread.ParseOrphanPolicy(cfg.Analysis.OrphanPolicy)
	if err != nil {
		logging.Fatal().Err(err).Msg("Invalid orphan policy")
	}

	// Initialize services
	analyzer := listening.NewAnalyzer(source, publisher, listening.AnalyzerConfig{
		TopN:                 cfg.Analysis.TopN,
		Threshold:            cfg.Analysis.Threshold,
		TopK:                 cfg.Analysis.TopK,
		MinDepth:             cfg.Analysis.MinDepth,
		OrphanPolicy:         policy,
		MaxConcurrentBatches: cfg.Analysis.MaxConcurrentBatches,
		EventsTopic:          cfg.Analysis.EventsTopic,
	})

	var scheduler *listening.Scheduler
	if cfg.Analysis.ScanInterval > 0 {
		scheduler = listening.NewScheduler(analyzer, listening.SchedulerConfig{
			ScanInterval: cfg.Analysis.ScanInterval,
			TopN:         cfg.Analysis.TopN,
			MinDepth:     cfg.Analysis.MinDepth,
		})
		scheduler.RegisterHandler(func(snap listening.Snapshot) error {
			return publisher.Publish(context.Background(), cfg.Analysis.EventsTopic+".snapshot", snap)
		})

		if err := scheduler.Start(ctx); err != nil {
			logging.Fatal().Err(err).Msg("Failed to start scheduler")
		}
	}

	// Initialize HTTP server
	httpServer := server.NewServer(cfg.Server, analyzer, stream)

	// Start HTTP server
	go func() {
		logging.Info().Str("host", cfg.Server.Host).Int("port", cfg.Server.Port).Msg("Starting HTTP server")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	// Wait for shutdown signal
	<-shutdown
	logging.Info().Msg("Shutdown signal received")

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("HTTP server shutdown error")
	}

	if scheduler != nil {
		if err := scheduler.Stop(shutdownCtx); err != nil {
			logging.Error().Err(err).Msg("Scheduler shutdown error")
		}
	}

	logging.Info().Msg("Shutdown complete")
}

// initSource opens the configured content source
func initSource(ctx context.Context, cfg config.Config) (listening.ContentSource, func(), error) {
	switch cfg.Analysis.Source {
	case config.SourceReddit:
		client := social.NewRedditClient(social.RedditConfig{
			BaseURL:           cfg.Reddit.BaseURL,
			OAuthBaseURL:      cfg.Reddit.OAuthBaseURL,
			TokenURL:          cfg.Reddit.TokenURL,
			ClientID:          cfg.Reddit.ClientID,
			ClientSecret:      cfg.Reddit.ClientSecret,
			UserAgent:         cfg.Reddit.UserAgent,
			Timeout:           cfg.Reddit.Timeout,
			RequestsPerMinute: cfg.Reddit.RequestsPerMinute,
		})
		return social.NewRedditSource(client, cfg.Reddit.Subreddit, cfg.Reddit.Limit), func() {}, nil

	default:
		connString := cfg.Database.ConnString()
		if cfg.Database.RunMigrations {
			if err := storage.RunMigrations(connString); err != nil {
				return nil, nil, err
			}
		}

		db, err := storage.Connect(ctx, connString, storage.PoolOptions{
			MaxConns:        int32(cfg.Database.MaxConns),
			MinConns:        int32(cfg.Database.MinConns),
			MaxConnLifetime: cfg.Database.MaxLifetime,
		})
		if err != nil {
			return nil, nil, err
		}
		return storage.NewContentStore(db), db.Close, nil
	}
}

// initEvents connects to NATS, or sets up an in-process hub when NATS is
// disabled
func initEvents(cfg config.Config) (listening.Publisher, handlers.Subscriber, func(), error) {
	if !cfg.NATS.Enabled {
		hub := events.NewHub()
		logging.Info().Msg("NATS not configured, using in-process event hub")
		return hub, hub, func() {}, nil
	}

	nc, err := initNATS(cfg.NATS)
	if err != nil {
		return nil, nil, nil, err
	}
	return events.NewNATSPublisher(nc), events.NewStream(nc, cfg.Analysis.EventsTopic), nc.Close, nil
}

// Initialize NATS connection
func initNATS(cfg config.NATSConfig) (*nats.Conn, error) {
	options := []nats.Option{
		nats.Name("tagpulse-api"),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.Timeout(cfg.ConnectTimeout),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logging.Warn().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logging.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			logging.Info().Msg("NATS connection closed")
		}),
	}

	nc, err := nats.Connect(cfg.URL, options...)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to NATS: %w", err)
	}

	return nc, nil
}
