package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Rrens/teamhub/internal/api"
	"github.com/Rrens/teamhub/internal/config"
	"github.com/Rrens/teamhub/internal/integration"
	"github.com/Rrens/teamhub/internal/repository/memory"
	"github.com/Rrens/teamhub/internal/repository/postgres"
	"github.com/Rrens/teamhub/internal/repository/redis"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Load .env file - try multiple locations
	for _, p := range []string{".env", "../.env", "../../.env"} {
		if err := godotenv.Load(p); err == nil {
			break
		}
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := setupLogger(cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "failed to set up logging: %v\n", err)
		os.Exit(1)
	}

	log.Info().
		Str("host", cfg.Server.Host).
		Int("port", cfg.Server.Port).
		Str("driver", cfg.Database.Driver).
		Str("token_store", cfg.Auth.TokenStore).
		Msg("Starting teamhub API server")

	ctx := context.Background()
	clock := clockwork.NewRealClock()
	deps := api.Deps{Clock: clock}

	switch cfg.Database.Driver {
	case config.DriverPostgres:
		if err := postgres.RunMigrations(cfg.Database.DSN(), cfg.Database.MigrationsPath); err != nil {
			log.Fatal().Err(err).Msg("Failed to migrate database")
		}

		db, err := postgres.NewDB(ctx, cfg.Database)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to database")
		}
		defer db.Close()

		deps.Store = postgres.NewStore(db)
		deps.Ready = db.Ping
	default:
		log.Warn().Msg("Using in-memory storage; data is lost on restart")
		deps.Store = memory.NewStore()
	}

	if cfg.UsesRedis() {
		redisClient, err := redis.NewClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer redisClient.Close()

		if cfg.Auth.TokenStore == config.DriverRedis {
			deps.Store.Tokens = redis.NewTokenRepository(redisClient)
		}
		if cfg.Auth.LoginAttemptsPerMinute > 0 {
			deps.LoginLimiter = redis.NewRateLimiter(redisClient, clock, cfg.Auth.LoginAttemptsPerMinute)
		}
		deps.Ready = readyAll(deps.Ready, redisClient.Ping)
	}

	if cfg.Integration.Host != "" {
		provider := integration.FromConfig(cfg.Integration)
		client := integration.NewClient(provider, cfg.Integration.Timeout, clock)
		if err := client.Login(ctx); err != nil {
			log.Fatal().Err(err).Str("host", provider.Host).Msg("Failed to authenticate against service provider")
		}
		deps.Backend = client
		log.Info().Str("host", provider.Host).Str("auth_type", string(provider.AuthType)).Msg("Resources are provisioned remotely")
	}

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      api.NewRouter(cfg, deps),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().Msgf("Server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}

func setupLogger(cfg config.LoggingConfig) error {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	var out io.Writer = os.Stderr
	if cfg.Format == "console" {
		out = zerolog.ConsoleWriter{Out: os.Stderr}
	}

	if cfg.File != "" {
		rotator, err := rotatelogs.New(
			cfg.File+".%Y%m%d",
			rotatelogs.WithLinkName(cfg.File),
			rotatelogs.WithMaxAge(cfg.MaxAge),
			rotatelogs.WithRotationTime(cfg.RotationTime),
		)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		out = zerolog.MultiLevelWriter(out, rotator)
	}

	log.Logger = zerolog.New(out).With().Timestamp().Logger()
	return nil
}

// readyAll chains readiness probes; nil probes are skipped
func readyAll(probes ...func(ctx context.Context) error) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		for _, probe := range probes {
			if probe == nil {
				continue
			}
			if err := probe(ctx); err != nil {
				return err
			}
		}
		return nil
	}
}
