// Package db è il backend SQL: le dediche stanno in una tabella raggiunta
// via database/sql, con il driver MySQL o SQLite.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"

	"dedication-board/models"
	"dedication-board/storage"
)

const selectColumns = `id, sender_name, sender_class, recipient_name, recipient_class,
	message, spotify_url, song_title, song_artist, created_at`

type SQLStore struct {
	db  *sql.DB
	log logrus.FieldLogger
}

// Open apre la connessione con il driver indicato ("mysql" o "sqlite3")
func Open(driver, dsn string) (*sql.DB, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}

	// Verifica la connessione
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	if driver == "mysql" {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	}
	return db, nil
}

// NewSQLStore avvolge un database aperto. Chiamare ApplyMigrations prima
// dell'uso.
func NewSQLStore(db *sql.DB, log logrus.FieldLogger) *SQLStore {
	return &SQLStore{db: db, log: log.WithField("backend", "sql")}
}

func (s *SQLStore) Name() string             { return "sql" }
func (s *SQLStore) RefKind() storage.RefKind { return storage.ByID }

func (s *SQLStore) List(ctx context.Context) storage.ListResult {
	list, err := s.list(ctx)
	storage.Observe(s.Name(), "list", err)
	if err != nil {
		s.log.WithError(err).Error("Errore nel caricamento delle dediche dal database")
		return storage.Degraded(err)
	}
	return storage.Ok(list)
}

func (s *SQLStore) list(ctx context.Context) ([]models.Dedication, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+selectColumns+` FROM dedications ORDER BY sort_key DESC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.Dedication
	for rows.Next() {
		var r dedicationRow
		if err := rows.Scan(r.scanTargets()...); err != nil {
			return nil, err
		}
		list = append(list, r.toDedication())
	}
	return list, rows.Err()
}

// Add inserisce d con un nuovo UUID se non ha già un id
func (s *SQLStore) Add(ctx context.Context, d models.Dedication) (models.Dedication, error) {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	r := fromDedication(d)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO dedications (
			id, sender_name, sender_class, recipient_name, recipient_class,
			message, spotify_url, song_title, song_artist, created_at, sort_key
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.SenderName, r.SenderClass, r.RecipientName, r.RecipientClass,
		r.Message, r.SpotifyURL, r.SongTitle, r.SongArtist, r.CreatedAt, models.SortKey(d.Timestamp),
	)
	storage.Observe(s.Name(), "add", err)
	if err != nil {
		s.log.WithError(err).Error("Errore nel salvataggio della dedica nel database")
		return models.Dedication{}, err
	}
	return d, nil
}

func (s *SQLStore) DeleteByID(ctx context.Context, id string) error {
	err := s.deleteByID(ctx, id)
	storage.Observe(s.Name(), "delete", err)
	return err
}

func (s *SQLStore) deleteByID(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM dedications WHERE id = ?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("row %q: %w", id, storage.ErrNotFound)
	}
	return nil
}

func (s *SQLStore) DeleteByIndex(ctx context.Context, index int) error {
	return storage.ErrUnsupported
}

func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Chiude la connessione al database
func (s *SQLStore) Close() error {
	return s.db.Close()
}
