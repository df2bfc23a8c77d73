package revocations

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/shopfront-dev/shopfront/internal/config"
	"github.com/shopfront-dev/shopfront/internal/models"
)

// GormRegistry stores revocations in SQLite or PostgreSQL
type GormRegistry struct {
	db *gorm.DB
}

// NewGorm opens the database, applies pool settings and migrates the schema
func NewGorm(cfg config.StoreConfig, zlog zerolog.Logger) (*GormRegistry, error) {
	db, err := openDatabase(cfg, zlog)
	if err != nil {
		return nil, err
	}
	if err := models.AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate revocation schema: %w", err)
	}
	return &GormRegistry{db: db}, nil
}

func openDatabase(cfg config.StoreConfig, zlog zerolog.Logger) (*gorm.DB, error) {
	const (
		maxOpenConns    = 8
		maxIdleConns    = 4
		connMaxLifetime = 5 * time.Minute
		busyTimeout     = 5000 // milliseconds
	)

	var dialector gorm.Dialector
	switch cfg.Driver {
	case "postgres":
		dialector = postgres.Open(cfg.DatabaseURL)
	default:
		dialector = sqlite.Open(cfg.DatabaseURL)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.New(
			log.New(os.Stdout, "\r\n", log.LstdFlags),
			logger.Config{
				LogLevel:                  logger.Error,
				IgnoreRecordNotFoundError: true,
				SlowThreshold:             200 * time.Millisecond,
			},
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if cfg.Driver != "postgres" {
		// WAL lets the gateway read while the worker purges
		pragmas := []string{
			"PRAGMA journal_mode=WAL",
			"PRAGMA synchronous=NORMAL",
			fmt.Sprintf("PRAGMA busy_timeout=%d", busyTimeout),
		}
		for _, pragma := range pragmas {
			if err := db.Exec(pragma).Error; err != nil {
				zlog.Warn().Str("pragma", pragma).Err(err).Msg("Failed to apply pragma")
			}
		}
	}

	zlog.Debug().Str("driver", cfg.Driver).Msg("Revocation database ready")
	return db, nil
}

func (g *GormRegistry) Revoke(ctx context.Context, token, userID string, expiresAt time.Time) error {
	row := models.RevokedToken{
		Fingerprint: Fingerprint(token),
		UserID:      userID,
		ExpiresAt:   expiresAt.UTC(),
	}
	err := g.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "fingerprint"}}, DoNothing: true}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to record revocation: %w", err)
	}
	return nil
}

func (g *GormRegistry) IsRevoked(ctx context.Context, token string) (bool, error) {
	var count int64
	err := g.db.WithContext(ctx).
		Model(&models.RevokedToken{}).
		Where("fingerprint = ? AND expires_at > ?", Fingerprint(token), time.Now().UTC()).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to look up revocation: %w", err)
	}
	return count > 0, nil
}

func (g *GormRegistry) Purge(ctx context.Context, now time.Time) (int64, error) {
	res := g.db.WithContext(ctx).
		Where("expires_at <= ?", now.UTC()).
		Delete(&models.RevokedToken{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to purge revocations: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// Close flushes WAL writes by closing the pool
func (g *GormRegistry) Close() error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
