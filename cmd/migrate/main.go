// migrate applies the SQL files in ./migrations in version order. Each file
// runs once in its own transaction and is recorded with its checksum; an
// edited, already-applied file aborts the run.
//
// Usage: go run ./cmd/migrate
package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"sales-reports/internal/logger"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

const (
	migrationsDir = "migrations"
	lockID        = 48151623
)

var log = logrus.New()

func main() {
	_ = godotenv.Load()

	if l, err := logger.New(logger.Options{Level: os.Getenv("LOG_LEVEL"), Format: "text"}); err == nil {
		log = l
	}

	url := os.Getenv("DATABASE_URL")
	if url == "" {
		log.Fatal("DATABASE_URL not set")
	}

	ctx := context.Background()
	pool := connectDB(ctx, url)
	defer pool.Close()

	conn := acquireLock(ctx, pool)
	defer conn.Release()

	setupSchemaMigrations(ctx, pool)

	for _, filename := range discoverMigrations() {
		applyMigration(ctx, pool, filename)
	}

	log.Info("all migrations processed")
}

func connectDB(ctx context.Context, url string) *pgxpool.Pool {
	connCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		log.Fatalf("failed to create pool: %v", err)
	}

	if err := pool.Ping(connCtx); err != nil {
		log.Fatalf("failed to ping database: %v", err)
	}
	return pool
}

func acquireLock(ctx context.Context, pool *pgxpool.Pool) *pgxpool.Conn {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		log.Fatalf("failed to acquire connection for lock: %v", err)
	}

	var locked bool
	if err := conn.QueryRow(ctx, "SELECT pg_try_advisory_lock($1)", lockID).Scan(&locked); err != nil {
		log.Fatalf("failed to query advisory lock: %v", err)
	}
	if !locked {
		log.Fatal("another migrator is currently running")
	}
	return conn
}

func setupSchemaMigrations(ctx context.Context, pool *pgxpool.Pool) {
	_, err := pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS schema_migrations (
	version TEXT PRIMARY KEY,
	filename TEXT NOT NULL,
	checksum TEXT NOT NULL,
	applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`)
	if err != nil {
		log.Fatalf("failed to create schema_migrations table: %v", err)
	}
}

func discoverMigrations() []string {
	entries, err := os.ReadDir(migrationsDir)
	if err != nil {
		log.Fatalf("failed to read migrations directory: %v", err)
	}

	var filenames []string
	seen := make(map[string]bool)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		version := extractVersion(entry.Name())
		if seen[version] {
			log.Fatalf("duplicate migration version %s", version)
		}
		seen[version] = true
		filenames = append(filenames, entry.Name())
	}

	sort.Strings(filenames)
	return filenames
}

func extractVersion(filename string) string {
	version, _, ok := strings.Cut(filename, "_")
	if !ok {
		log.Fatalf("invalid migration filename %s, expected NNN_description.sql", filename)
	}
	return version
}

func applyMigration(ctx context.Context, pool *pgxpool.Pool, filename string) {
	entry := log.WithField("migration", filename)
	version := extractVersion(filename)

	sqlBytes, err := os.ReadFile(filepath.Join(migrationsDir, filename))
	if err != nil {
		entry.Fatalf("failed to read migration: %v", err)
	}
	sum := sha256.Sum256(sqlBytes)
	checksum := hex.EncodeToString(sum[:])

	var existing string
	err = pool.QueryRow(ctx, "SELECT checksum FROM schema_migrations WHERE version = $1", version).Scan(&existing)
	switch {
	case err == nil:
		if existing != checksum {
			entry.Fatalf("checksum mismatch: recorded %s, file %s", existing, checksum)
		}
		entry.Info("skip")
		return
	case errors.Is(err, pgx.ErrNoRows):
	default:
		entry.Fatalf("failed to query schema_migrations: %v", err)
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		entry.Fatalf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, string(sqlBytes)); err != nil {
		entry.Fatalf("failed to execute migration: %v", err)
	}
	if _, err := tx.Exec(ctx, "INSERT INTO schema_migrations (version, filename, checksum) VALUES ($1, $2, $3)", version, filename, checksum); err != nil {
		entry.Fatalf("failed to record migration: %v", err)
	}
	if err := tx.Commit(ctx); err != nil {
		entry.Fatalf("failed to commit migration: %v", err)
	}

	entry.Info("applied")
}
