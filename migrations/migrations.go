// Package migrations embeds the SQL schema and applies it with checksum tracking.
package migrations

import (
	"context"
	"crypto/sha256"
	"embed"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

//go:embed *.sql
var files embed.FS

const advisoryLockKey = 7462839

// Migration is one embedded NNN_description.sql file.
type Migration struct {
	Version  string
	Filename string
	SQL      string
	Checksum string
}

// Discover returns the embedded migrations sorted by filename.
func Discover() ([]Migration, error) {
	entries, err := fs.ReadDir(files, ".")
	if err != nil {
		return nil, fmt.Errorf("read embedded migrations: %w", err)
	}

	seen := make(map[string]bool)
	var out []Migration
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		version, err := extractVersion(entry.Name())
		if err != nil {
			return nil, err
		}
		if seen[version] {
			return nil, fmt.Errorf("duplicate migration version %s", version)
		}
		seen[version] = true

		body, err := fs.ReadFile(files, entry.Name())
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", entry.Name(), err)
		}
		sum := sha256.Sum256(body)
		out = append(out, Migration{
			Version:  version,
			Filename: entry.Name(),
			SQL:      string(body),
			Checksum: hex.EncodeToString(sum[:]),
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Filename < out[j].Filename })
	return out, nil
}

func extractVersion(filename string) (string, error) {
	parts := strings.SplitN(filename, "_", 2)
	if len(parts) < 2 || parts[0] == "" {
		return "", fmt.Errorf("invalid migration filename %q: expected NNN_description.sql", filename)
	}
	return parts[0], nil
}

// Apply runs every pending migration under a session advisory lock.
// An already-applied migration whose checksum changed is an error.
func Apply(ctx context.Context, pool *pgxpool.Pool, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection for lock: %w", err)
	}
	defer conn.Release()

	var locked bool
	if err := conn.QueryRow(ctx, "SELECT pg_try_advisory_lock($1)", advisoryLockKey).Scan(&locked); err != nil {
		return fmt.Errorf("query advisory lock: %w", err)
	}
	if !locked {
		return errors.New("another migrator is currently running")
	}
	defer conn.Exec(context.Background(), "SELECT pg_advisory_unlock($1)", advisoryLockKey) //nolint:errcheck

	if _, err := conn.Exec(ctx, `
CREATE TABLE IF NOT EXISTS schema_migrations (
	version TEXT PRIMARY KEY,
	filename TEXT NOT NULL,
	checksum TEXT NOT NULL,
	applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	all, err := Discover()
	if err != nil {
		return err
	}

	for _, m := range all {
		var existing string
		err := conn.QueryRow(ctx, "SELECT checksum FROM schema_migrations WHERE version = $1", m.Version).Scan(&existing)
		switch {
		case err == nil:
			if existing != m.Checksum {
				return fmt.Errorf("checksum mismatch for %s: recorded %s, embedded %s", m.Filename, existing, m.Checksum)
			}
			logger.Debug("migration already applied", zap.String("file", m.Filename))
			continue
		case errors.Is(err, pgx.ErrNoRows):
		default:
			return fmt.Errorf("query schema_migrations for %s: %w", m.Filename, err)
		}

		if err := applyOne(ctx, conn, m); err != nil {
			return err
		}
		logger.Info("migration applied", zap.String("file", m.Filename))
	}
	return nil
}

func applyOne(ctx context.Context, conn *pgxpool.Conn, m Migration) error {
	tx, err := conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin %s: %w", m.Filename, err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, m.SQL); err != nil {
		return fmt.Errorf("execute %s: %w", m.Filename, err)
	}
	if _, err := tx.Exec(ctx,
		"INSERT INTO schema_migrations (version, filename, checksum) VALUES ($1, $2, $3)",
		m.Version, m.Filename, m.Checksum,
	); err != nil {
		return fmt.Errorf("record %s: %w", m.Filename, err)
	}
	return tx.Commit(ctx)
}
