//go:build integration

// Package pgtest starts a throwaway Postgres for integration tests and
// applies the repository migrations to it.
package pgtest

import (
	"context"
	"testing"
	"time"

	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"gorm.io/gorm"

	"membership-app-go/internal/config"
	"membership-app-go/internal/db"
	"membership-app-go/pkg/logger"
)

const image = "postgres:16-alpine"

// New starts a container, migrates it and returns a gorm handle. The
// container is terminated when the test ends.
func New(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, image,
		tcpostgres.WithDatabase("membership"),
		tcpostgres.WithUsername("membership"),
		tcpostgres.WithPassword("membership"),
		tcpostgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Fatalf("start postgres container: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("postgres connection string: %v", err)
	}

	log := logger.Nop()
	conn, err := db.NewPostgres(config.DBConfig{
		DSN:             dsn,
		MaxOpenConns:    20,
		MaxIdleConns:    5,
		ConnMaxLifetime: time.Minute,
	}, log)
	if err != nil {
		t.Fatalf("connect postgres: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	if err := db.Migrate(conn, log); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}
