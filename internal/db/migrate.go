package db

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gorm.io/gorm"

	"membership-app-go/pkg/logger"
)

const migrationsDirName = "migrations"

// migrationLockKey serializes migrators from several instances starting at
// once. Any constant works as long as nothing else uses it.
const migrationLockKey = 7_340_211

type migration struct {
	name     string
	sql      string
	checksum string
}

// Migrate applies migrations from the nearest "migrations" directory found by
// walking up from the working directory. A missing directory is not an error.
func Migrate(db *gorm.DB, log logger.Logger) error {
	path, err := FindMigrationsDir()
	if errors.Is(err, os.ErrNotExist) {
		log.Warn("db.migrate: migrations directory not found, skipping")
		return nil
	}
	if err != nil {
		return err
	}
	return MigrateDir(db, path, log)
}

// MigrateDir applies every pending .sql file in dir in lexical order. Each
// file runs in its own transaction, under a transaction-scoped advisory
// lock, together with its bookkeeping row. Applied files whose contents have
// since changed are reported, not re-run.
func MigrateDir(db *gorm.DB, path string, log logger.Logger) error {
	if err := ensureSchemaMigrations(db); err != nil {
		return fmt.Errorf("schema_migrations: %w", err)
	}

	migrations, err := loadMigrations(path)
	if err != nil {
		return err
	}

	applied := 0
	for _, m := range migrations {
		var ran bool
		err := db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Exec("SELECT pg_advisory_xact_lock(?)", migrationLockKey).Error; err != nil {
				return err
			}

			recorded, found, err := recordedChecksum(tx, m.name)
			if err != nil {
				return err
			}
			if found {
				if recorded != "" && recorded != m.checksum {
					log.Warn("db.migrate: applied file changed on disk", "file", m.name)
				}
				return nil
			}

			if err := tx.Exec(m.sql).Error; err != nil {
				return err
			}
			ran = true
			return tx.Exec(
				"INSERT INTO schema_migrations (filename, checksum, applied_at) VALUES (?, ?, NOW())",
				m.name, m.checksum,
			).Error
		})
		if err != nil {
			return fmt.Errorf("apply migration %s: %w", m.name, err)
		}
		if ran {
			applied++
			log.Info("db.migrate: applied", "file", m.name)
		}
	}

	log.Info("db.migrate: up to date", "applied", applied, "known", len(migrations))
	return nil
}

func loadMigrations(path string) ([]migration, error) {
	names, err := listMigrations(path)
	if err != nil {
		return nil, err
	}

	migrations := make([]migration, 0, len(names))
	for _, name := range names {
		contents, err := os.ReadFile(filepath.Join(path, name))
		if err != nil {
			return nil, err
		}
		sql := strings.TrimSpace(string(contents))
		if sql == "" {
			continue
		}
		sum := sha256.Sum256([]byte(sql))
		migrations = append(migrations, migration{name: name, sql: sql, checksum: hex.EncodeToString(sum[:])})
	}
	return migrations, nil
}

func listMigrations(path string) ([]string, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}

func ensureSchemaMigrations(db *gorm.DB) error {
	return db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			filename TEXT PRIMARY KEY,
			checksum TEXT NOT NULL DEFAULT '',
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		ALTER TABLE schema_migrations ADD COLUMN IF NOT EXISTS checksum TEXT NOT NULL DEFAULT '';
	`).Error
}

func recordedChecksum(tx *gorm.DB, name string) (string, bool, error) {
	var rows []string
	if err := tx.Raw("SELECT checksum FROM schema_migrations WHERE filename = ?", name).Scan(&rows).Error; err != nil {
		return "", false, err
	}
	if len(rows) == 0 {
		return "", false, nil
	}
	return rows[0], true, nil
}

// FindMigrationsDir is exported for integration tests that run from package
// directories below the module root.
func FindMigrationsDir() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		candidate := filepath.Join(dir, migrationsDirName)
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", os.ErrNotExist
		}
		dir = parent
	}
}
