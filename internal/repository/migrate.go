package repository

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"ceres/internal/apperrors"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// MigrationManager applies the embedded SQL migrations to a database in
// order, tracking what has already run in a schema_migrations table.
type MigrationManager struct {
	db  *sql.DB
	log *slog.Logger
}

// NewMigrationManager returns a MigrationManager bound to db.
func NewMigrationManager(db *sql.DB, log *slog.Logger) *MigrationManager {
	return &MigrationManager{db: db, log: log}
}

type migration struct {
	version     int
	description string
	sql         string
}

// Migrate applies every migration that has not yet been recorded, in
// ascending version order, each inside its own transaction.
func (m *MigrationManager) Migrate(ctx context.Context) error {
	if err := m.ensureMigrationsTable(ctx); err != nil {
		return err
	}
	applied, err := m.getAppliedVersions(ctx)
	if err != nil {
		return err
	}
	migrations, err := m.loadMigrations()
	if err != nil {
		return err
	}
	for _, mig := range migrations {
		if applied[mig.version] {
			continue
		}
		if err := m.applyMigration(ctx, mig); err != nil {
			return fmt.Errorf("migration %03d_%s failed: %w", mig.version, mig.description, err)
		}
		m.log.Info("applied migration", "version", mig.version, "description", mig.description)
	}
	return nil
}

func (m *MigrationManager) ensureMigrationsTable(ctx context.Context) error {
	_, err := m.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INT PRIMARY KEY,
			description TEXT,
			applied_at TIMESTAMPTZ DEFAULT NOW()
		)`)
	if err != nil {
		return apperrors.NewDatabase("failed to create schema_migrations table", err)
	}
	return nil
}

func (m *MigrationManager) getAppliedVersions(ctx context.Context) (map[int]bool, error) {
	rows, err := m.db.QueryContext(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, apperrors.NewDatabase("failed to read applied migrations", err)
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, apperrors.NewDatabase("failed to scan migration version", err)
		}
		applied[v] = true
	}
	return applied, rows.Err()
}

func (m *MigrationManager) loadMigrations() ([]migration, error) {
	entries, err := migrationFiles.ReadDir("migrations")
	if err != nil {
		return nil, apperrors.New("failed to read embedded migrations", err)
	}

	var migrations []migration
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasSuffix(name, ".sql") {
			continue
		}
		version, description, err := parseMigrationFilename(name)
		if err != nil {
			return nil, err
		}
		contents, err := migrationFiles.ReadFile("migrations/" + name)
		if err != nil {
			return nil, apperrors.New("failed to read migration "+name, err)
		}
		migrations = append(migrations, migration{version: version, description: description, sql: string(contents)})
	}
	sort.Slice(migrations, func(i, j int) bool { return migrations[i].version < migrations[j].version })
	return migrations, nil
}

// parseMigrationFilename expects "NNN_description.sql".
func parseMigrationFilename(name string) (int, string, error) {
	trimmed := strings.TrimSuffix(name, ".sql")
	parts := strings.SplitN(trimmed, "_", 2)
	if len(parts) != 2 {
		return 0, "", apperrors.New(fmt.Sprintf("migration filename %q does not match NNN_description.sql", name), nil)
	}
	version, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, "", apperrors.New(fmt.Sprintf("migration filename %q has a non-numeric version", name), err)
	}
	return version, parts[1], nil
}

func (m *MigrationManager) applyMigration(ctx context.Context, mig migration) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.NewDatabase("failed to begin migration transaction", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, mig.sql); err != nil {
		return apperrors.NewDatabase("failed to execute migration SQL", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO schema_migrations (version, description) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		mig.version, mig.description); err != nil {
		return apperrors.NewDatabase("failed to record migration", err)
	}
	return tx.Commit()
}
