package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"flag-quiz-service/internal/app"
	"flag-quiz-service/internal/config"
	"flag-quiz-service/internal/infra/kafka"
	"flag-quiz-service/internal/infra/mail"
	"flag-quiz-service/internal/infra/memory"
	"flag-quiz-service/internal/infra/pocketbase"
	"flag-quiz-service/internal/infra/postgres"
	redisstore "flag-quiz-service/internal/infra/redis"
	"flag-quiz-service/internal/metrics"
	transport "flag-quiz-service/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

// stores groups the backend-specific pieces chosen by store.backend.
type stores struct {
	countries memory.CountryLoader
	scores    app.ScoreStore
	closeFn   func()
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Log.Level)

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	backend, err := openStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer backend.closeFn()

	catalog, err := memory.NewCatalogLoader()
	if err != nil {
		return err
	}
	var loader memory.CountryLoader = catalog
	if backend.countries != nil {
		sourceTimeout := config.TTLDuration(cfg.Quiz.SourceTimeout, 5*time.Second)
		loader = memory.NewFallbackLoader(backend.countries, catalog, sourceTimeout, logger)
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
	}

	countryTTL := config.TTLDuration(cfg.Quiz.CountryTTL, time.Hour)
	gameTTL := config.TTLDuration(cfg.Quiz.GameTTL, 2*time.Hour)
	var countryRepo app.CountryRepository
	var gameRepo app.GameRepository
	if redisClient != nil {
		countryRepo = redisstore.NewCountryRepository(redisClient, loader, countryTTL, logger)
		gameRepo = redisstore.NewGameStore(redisClient, gameTTL)
	} else {
		countryRepo = memory.NewCountryRepository(loader, countryTTL)
		gameRepo = memory.NewGameStore(gameTTL)
	}

	m := metrics.New()
	leaderboard := app.NewLeaderboardService(backend.scores, cfg.Leaderboard.TopN, logger)
	scores := app.NewScoreService(backend.scores, leaderboard, logger).WithMetrics(m)
	if cfg.Kafka.Enabled {
		publisher, err := kafka.NewScorePublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger)
		if err != nil {
			return err
		}
		defer publisher.Close()
		scores.WithEvents(publisher)
	}
	games := app.NewGameService(countryRepo, gameRepo, scores, cfg.Quiz.Modes, logger).WithMetrics(m)

	var mailer app.Mailer
	if cfg.MailEnabled() {
		mailer = mail.NewSMTPMailer(mail.Config{
			Host:     cfg.Mail.Host,
			Port:     cfg.Mail.Port,
			Username: cfg.Mail.Username,
			Password: cfg.Mail.Password,
			From:     cfg.Mail.From,
			To:       cfg.Mail.To,
		})
	} else {
		logger.Warn("mail not configured, error reports disabled")
	}
	reports := app.NewReportService(mailer, logger)

	handler := transport.NewHandler(countryRepo, games, scores, leaderboard, reports, logger)
	opts := transport.RouterOptions{Metrics: m.Handler(), Observer: m}
	if cfg.RateLimit.PerSecond > 0 {
		opts.Limiter = transport.NewIPRateLimiter(rate.Limit(cfg.RateLimit.PerSecond), cfg.RateLimit.Burst)
	}

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      handler.Router(opts),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		logger.Info("starting quiz service", "port", finalPort, "backend", cfg.Store.Backend, "redis", redisClient != nil)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		logger.Info("shutting down server")
	case <-ctx.Done():
		logger.Info("context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.TTLDuration(cfg.Server.ShutdownTimeout, 5*time.Second))
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func openStores(ctx context.Context, cfg config.Config, logger *slog.Logger) (stores, error) {
	switch cfg.Store.Backend {
	case config.BackendPocketBase:
		client := pocketbase.NewClient(cfg.PocketBase.URL, config.TTLDuration(cfg.PocketBase.Timeout, 10*time.Second), logger)
		if cfg.PocketBase.AdminEmail != "" {
			if err := client.Authenticate(ctx, cfg.PocketBase.AdminEmail, cfg.PocketBase.AdminPassword); err != nil {
				return stores{}, err
			}
		}
		return stores{countries: client, scores: client, closeFn: func() {}}, nil
	case config.BackendPostgres:
		if err := runMigrations(ctx, cfg, logger); err != nil {
			return stores{}, err
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return stores{}, err
		}
		return stores{
			countries: postgres.NewCountryLoader(pool),
			scores:    postgres.NewScoreStore(pool),
			closeFn:   pool.Close,
		}, nil
	default:
		return stores{scores: memory.NewScoreStore(), closeFn: func() {}}, nil
	}
}
