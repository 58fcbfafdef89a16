package database

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/codyseavey/clutch-picks/backend/internal/config"
	"github.com/codyseavey/clutch-picks/backend/internal/models"
)

// Open connects to the configured database, migrates the schema and runs the
// data migrations.
func Open(cfg config.DBConfig, log *zap.Logger) (*gorm.DB, error) {
	db, err := Connect(cfg, log)
	if err != nil {
		return nil, err
	}

	if err := Migrate(db, log); err != nil {
		_ = Close(db)
		return nil, err
	}

	return db, nil
}

// Connect opens the connection pool without touching the schema
func Connect(cfg config.DBConfig, log *zap.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch strings.ToLower(cfg.Driver) {
	case "", "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	case "postgres", "postgresql":
		dialector = postgres.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	logMode := logger.Silent
	if cfg.LogQueries {
		logMode = logger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logMode),
		TranslateError: true,
		// sqlite compares timestamps as text, so every stored and bound time is UTC
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	log.Info("database connected", zap.String("driver", dialector.Name()))
	return db, nil
}

// Migrate brings the schema up to date. Duplicate purchases are removed
// before AutoMigrate adds the unique (user_id, pick_id) index.
func Migrate(db *gorm.DB, log *zap.Logger) error {
	if err := cleanupDuplicatePurchases(db, log); err != nil {
		return err
	}

	err := db.AutoMigrate(
		&models.User{},
		&models.Subscription{},
		&models.Bet{},
		&models.Category{},
		&models.Pick{},
		&models.FeaturedPick{},
		&models.PickPurchase{},
		&models.LeaderboardEntry{},
		&models.PredictionLog{},
	)
	if err != nil {
		return err
	}

	if err := RunMigrations(db, log); err != nil {
		return err
	}

	log.Info("database migration completed")
	return nil
}

// Close releases the underlying connection pool
func Close(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping checks that the database is reachable
func Ping(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
