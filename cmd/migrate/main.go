package main

import (
	"fmt"
	"os"

	"github.com/Rrens/teamhub/internal/config"
	"github.com/Rrens/teamhub/internal/repository/postgres"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
)

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	flagSet := pflag.NewFlagSet("migrate", pflag.ContinueOnError)
	source := flagSet.String("source", "", "migration source URL (default: database.migrations_path)")
	down := flagSet.Int("down", 0, "roll back this many migrations instead of applying pending ones")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if cfg.Database.Driver != config.DriverPostgres {
		log.Fatal().Str("driver", cfg.Database.Driver).Msg("Migrations only apply to the postgres driver")
	}

	sourceURL := cfg.Database.MigrationsPath
	if *source != "" {
		sourceURL = *source
	}

	log.Info().Str("host", cfg.Database.Host).Int("port", cfg.Database.Port).Str("source", sourceURL).Msg("Connecting to database")

	if *down > 0 {
		err = postgres.RollbackMigrations(cfg.Database.DSN(), sourceURL, *down)
	} else {
		err = postgres.RunMigrations(cfg.Database.DSN(), sourceURL)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("Migration failed")
	}
}
