package database

import (
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"mes-dashboard/config"
	"mes-dashboard/internal/database/models"
)

func NewConnection(cfg config.DBConfig, logger *logrus.Logger) (*gorm.DB, error) {
	if cfg.DSN == "" {
		return nil, errors.New("DSN is required")
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping DB: %w", err)
	}

	if err := db.Use(otelgorm.NewPlugin()); err != nil {
		logger.WithError(err).Warn("db connected but failed to install otelgorm plugin")
	}

	return db, nil
}

func MigrateConsumptionDB(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.ProductionOrder{},
		&models.Batch{},
		&models.RecipeIngredient{},
		&models.MaterialConsumption{},
	)
}
