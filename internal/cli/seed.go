package cli

import (
	"context"
	"fmt"
	"log/slog"

	"flag-quiz-service/internal/config"
	"flag-quiz-service/internal/infra/memory"
	"flag-quiz-service/internal/infra/pocketbase"
	"flag-quiz-service/internal/infra/postgres"
	"github.com/spf13/cobra"
)

// NewSeedCountriesCmd loads the embedded country catalog into the configured store.
func NewSeedCountriesCmd(configPath *string) *cobra.Command {
	var target string
	cmd := &cobra.Command{
		Use:   "seed-countries",
		Short: "Upsert the built-in country catalog into PocketBase or Postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if target == "" {
				target = cfg.Store.Backend
			}
			return seedCountries(cmd.Context(), cfg, target, newLogger(cfg.Log.Level))
		},
	}
	cmd.Flags().StringVar(&target, "target", "", "pocketbase or postgres (defaults to store.backend)")
	return cmd
}

func seedCountries(ctx context.Context, cfg config.Config, target string, logger *slog.Logger) error {
	countries, err := memory.Catalog()
	if err != nil {
		return err
	}

	var written int
	switch target {
	case config.BackendPostgres:
		if err := runMigrations(ctx, cfg, logger); err != nil {
			return err
		}
		db := postgres.OpenDB(cfg.Postgres.URL)
		defer db.Close()
		written, err = postgres.SeedCountries(ctx, db, countries)
	case config.BackendPocketBase:
		if cfg.PocketBase.URL == "" {
			return fmt.Errorf("pocketbase url not configured")
		}
		client := pocketbase.NewClient(cfg.PocketBase.URL, config.TTLDuration(cfg.PocketBase.Timeout, 0), logger)
		if cfg.PocketBase.AdminEmail != "" {
			if err := client.Authenticate(ctx, cfg.PocketBase.AdminEmail, cfg.PocketBase.AdminPassword); err != nil {
				return err
			}
		}
		written, err = client.SeedCountries(ctx, countries)
	default:
		return fmt.Errorf("cannot seed store backend %q", target)
	}
	if err != nil {
		return err
	}
	logger.Info("countries seeded", "target", target, "catalog", len(countries), "written", written)
	return nil
}
