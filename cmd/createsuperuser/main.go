package main

import (
	"context"
	"fmt"
	"os"

	"github.com/Rrens/teamhub/internal/config"
	"github.com/Rrens/teamhub/internal/repository/postgres"
	"github.com/Rrens/teamhub/internal/security"
	"github.com/Rrens/teamhub/internal/service"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
)

func main() {
	_ = godotenv.Load()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	flagSet := pflag.NewFlagSet("createsuperuser", pflag.ContinueOnError)
	username := flagSet.String("username", "", "login name of the new superuser")
	email := flagSet.String("email", "", "email address of the new superuser")
	password := flagSet.String("password", "", "password; falls back to $SUPERUSER_PASSWORD")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	if *password == "" {
		*password = os.Getenv("SUPERUSER_PASSWORD")
	}
	if *username == "" || *email == "" || *password == "" {
		fmt.Fprintln(os.Stderr, "usage: createsuperuser --username NAME --email EMAIL [--password PASSWORD]")
		flagSet.PrintDefaults()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if cfg.Database.Driver != config.DriverPostgres {
		log.Fatal().Str("driver", cfg.Database.Driver).Msg("Superusers can only be created in a postgres database")
	}

	ctx := context.Background()
	db, err := postgres.NewDB(ctx, cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	auth := service.NewAuthService(postgres.NewStore(db), cfg.Auth, security.NewAPIKeyHasher(cfg.Auth.SecretKey), clockwork.NewRealClock())
	user, err := auth.CreateSuperuser(ctx, *username, *email, *password)
	if err != nil {
		db.Close()
		log.Fatal().Err(err).Msg("Failed to create superuser")
	}

	log.Info().Int64("id", user.ID).Str("username", user.Username).Msg("Superuser created")
}
