package db

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"membership-app-go/internal/config"
	"membership-app-go/pkg/logger"
)

const (
	defaultMaxOpenConns    = 10
	defaultMaxIdleConns    = 5
	defaultConnMaxLifetime = 30 * time.Minute

	connectAttempts = 5
	connectBackoff  = time.Second
)

// NewPostgres opens the pool and waits for the server to answer. Startup
// tolerates a database that is still coming up by retrying the ping with a
// linear backoff.
func NewPostgres(cfg config.DBConfig, log logger.Logger) (*gorm.DB, error) {
	if cfg.DSN != "" {
		log.Info("db: connecting using DSN")
	} else {
		log.Info("db: connecting to postgres", "host", cfg.Host, "port", cfg.Port, "dbname", cfg.Name, "sslmode", cfg.SSLMode)
	}

	gormDB, err := gorm.Open(postgres.Open(cfg.GetDSN()), &gorm.Config{
		Logger:  newGormLog(log, cfg.SlowQueryThreshold),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, fmt.Errorf("db handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(orDefault(cfg.MaxOpenConns, defaultMaxOpenConns))
	sqlDB.SetMaxIdleConns(orDefault(cfg.MaxIdleConns, defaultMaxIdleConns))
	sqlDB.SetConnMaxLifetime(orDefault(cfg.ConnMaxLifetime, defaultConnMaxLifetime))

	checker := NewHealthChecker(gormDB)
	for attempt := 1; ; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err = checker.Health(ctx)
		cancel()
		if err == nil {
			break
		}
		if attempt == connectAttempts {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("db ping after %d attempts: %w", attempt, err)
		}
		log.Warn("db: not reachable yet, retrying", "attempt", attempt, "err", err)
		time.Sleep(time.Duration(attempt) * connectBackoff)
	}

	stats := sqlDB.Stats()
	log.Info("db: connected", "max_open_conns", stats.MaxOpenConnections)
	return gormDB, nil
}

func orDefault[T comparable](value, fallback T) T {
	var zero T
	if value == zero {
		return fallback
	}
	return value
}

// HealthChecker pings the pool behind a gorm handle.
type HealthChecker struct {
	db *gorm.DB
}

func NewHealthChecker(db *gorm.DB) *HealthChecker {
	return &HealthChecker{db: db}
}

func (c *HealthChecker) Health(ctx context.Context) error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
