package migrate

import (
	"context"
	"fmt"

	"github.com/angelmondragon/fenceops-backend/pkg/config"
	"github.com/angelmondragon/fenceops-backend/pkg/db"
	"github.com/angelmondragon/fenceops-backend/pkg/db/models"
	"github.com/angelmondragon/fenceops-backend/pkg/logger"
)

// Models lists every table the service owns, in dependency order.
func Models() []any {
	return []any{
		&models.RateSheet{},
		&models.Client{},
		&models.Community{},
		&models.BusinessUnitClass{},
		&models.SKU{},
		&models.RateSheetItem{},
		&models.BULaborCost{},
		&models.CommunitySKUPrice{},
		&models.Job{},
		&models.Quote{},
		&models.QuoteLineItem{},
		&models.JobLineItem{},
		&models.OutboxEvent{},
		&models.OutboxDLQ{},
	}
}

// MaybeRunDev executes migrations automatically when the app is running in dev mode and
// the feature flag is enabled. The sqlite driver gets gorm AutoMigrate instead of goose.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}

	if cfg.DB.IsSQLite() {
		logg.Info(logg.WithField(ctx, "driver", config.DriverSQLite), "auto-migrating sqlite schema")
		if err := client.DB().WithContext(ctx).AutoMigrate(Models()...); err != nil {
			return fmt.Errorf("sqlite auto-migrate: %w", err)
		}
		return nil
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "source": Source{}.String()})
	logg.Info(ctx, "running goose migrations (dev auto-run)")

	if err := Run(ctx, sqlDB, Source{}, "up"); err != nil {
		return err
	}

	version, err := Current(ctx, sqlDB)
	if err != nil {
		return err
	}
	logg.Info(logg.WithField(ctx, "version", version), "goose migrations completed")
	return nil
}
