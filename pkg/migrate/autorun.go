package migrate

import (
	"context"
	"fmt"

	"github.com/angelmondragon/campaign-attribution/pkg/config"
	"github.com/angelmondragon/campaign-attribution/pkg/db"
	"github.com/angelmondragon/campaign-attribution/pkg/logger"
)

// MaybeRun applies pending migrations before results are persisted when
// ATTRIBUTION_DB_AUTO_MIGRATE is set. Only Postgres databases are migrated.
func MaybeRun(ctx context.Context, cfg config.DBConfig, logg *logger.Logger, client *db.Client) error {
	if !cfg.AutoMigrate {
		return nil
	}

	meta := map[string]any{"driver": cfg.Driver, "dir": DefaultDir}
	ctx = logg.WithFields(ctx, meta)
	if cfg.Driver != config.DBDriverPostgres {
		logg.Warn(ctx, "skipping Goose migrations for non-postgres driver")
		return nil
	}

	sqlDB, err := client.SQL()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	logg.Info(ctx, "running Goose migrations (auto-run)")
	if err := Run(ctx, sqlDB, DefaultDir, "up"); err != nil {
		return fmt.Errorf("running goose up: %w", err)
	}

	logg.Info(ctx, "Goose migrations completed")
	return nil
}
