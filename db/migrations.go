package db

import (
	"context"
	"fmt"
	"time"
)

// Migration rappresenta una singola migration del database
type Migration struct {
	Version     int
	Description string
	SQL         string
}

// Tutte le migration disponibili in ordine di versione. Una sola istruzione
// per migration: il driver MySQL non accetta statement multipli di default.
var migrations = []Migration{
	{
		Version:     1,
		Description: "Create dedications table",
		SQL: `CREATE TABLE IF NOT EXISTS dedications (
			id VARCHAR(64) PRIMARY KEY,
			sender_name VARCHAR(255) NOT NULL,
			sender_class VARCHAR(64) NOT NULL,
			recipient_name VARCHAR(255) NOT NULL,
			recipient_class VARCHAR(64) NOT NULL,
			message TEXT NOT NULL,
			spotify_url VARCHAR(512) NULL,
			song_title VARCHAR(255) NULL,
			song_artist VARCHAR(255) NULL,
			created_at VARCHAR(64) NOT NULL,
			sort_key VARCHAR(128) NOT NULL
		)`,
	},
	{
		Version:     2,
		Description: "Index dedications by sort key",
		SQL:         `CREATE INDEX idx_dedications_sort_key ON dedications (sort_key)`,
	},
}

// ApplyMigrations applica tutte le migration necessarie
func (s *SQLStore) ApplyMigrations(ctx context.Context) error {
	if err := s.createMigrationsTable(ctx); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	currentVersion, err := s.getCurrentVersion(ctx)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	s.log.WithField("version", currentVersion).Debug("Versione database attuale")

	applied := 0
	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}
		s.log.WithField("version", migration.Version).Infof("Applicando migration: %s", migration.Description)
		if err := s.applyMigration(ctx, migration); err != nil {
			return fmt.Errorf("apply migration %d: %w", migration.Version, err)
		}
		applied++
	}

	if applied > 0 {
		s.log.Infof("Applicate %d migration con successo", applied)
	}
	return nil
}

func (s *SQLStore) createMigrationsTable(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INT PRIMARY KEY,
			description VARCHAR(255) NOT NULL,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	return err
}

func (s *SQLStore) getCurrentVersion(ctx context.Context) (int, error) {
	var version int
	err := s.db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&version)
	if err != nil {
		return 0, err
	}
	return version, nil
}

// applyMigration esegue la migration e la registra nella stessa transazione
func (s *SQLStore) applyMigration(ctx context.Context, migration Migration) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, migration.SQL); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO schema_migrations (version, description, applied_at) VALUES (?, ?, ?)",
		migration.Version, migration.Description, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("record migration: %w", err)
	}

	return tx.Commit()
}

// GetAppliedMigrations restituisce tutte le migration applicate
func (s *SQLStore) GetAppliedMigrations(ctx context.Context) ([]Migration, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT version, description FROM schema_migrations ORDER BY version ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var applied []Migration
	for rows.Next() {
		var m Migration
		if err := rows.Scan(&m.Version, &m.Description); err != nil {
			return nil, err
		}
		applied = append(applied, m)
	}
	return applied, rows.Err()
}
