package main

import (
	"context"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"dedication-board/api"
	"dedication-board/db"
	"dedication-board/models"
	"dedication-board/persistence"
	"dedication-board/storage"
	"dedication-board/utils"
)

// backend è lo store configurato più ciò che va chiuso all'uscita
type backend struct {
	storage.Backend
	closers []io.Closer
}

func (b *backend) Close() error {
	var first error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i].Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// openBackend costruisce il backend indicato dalla configurazione,
// eventualmente avvolto dal fallback su file
func openBackend(ctx context.Context, cfg *utils.Config, log logrus.FieldLogger) (*backend, error) {
	b := &backend{}

	primary, err := openPrimary(ctx, cfg, log, b)
	if err != nil {
		b.Close()
		return nil, err
	}
	b.Backend = primary

	if cfg.Storage.Fallback && cfg.Storage.Backend != "file" {
		file, err := storage.NewFileStore(cfg.Storage.DataFile, log)
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("fallback file store: %w", err)
		}
		b.Backend = storage.NewFallback(primary, file, log)
	}

	log.WithFields(logrus.Fields{
		"backend":  cfg.Storage.Backend,
		"fallback": cfg.Storage.Fallback,
	}).Info("Storage inizializzato")
	return b, nil
}

func openPrimary(ctx context.Context, cfg *utils.Config, log logrus.FieldLogger, b *backend) (storage.Backend, error) {
	switch cfg.Storage.Backend {
	case "file":
		return storage.NewFileStore(cfg.Storage.DataFile, log)

	case "docstore":
		s, err := persistence.NewDocStore(cfg.Storage.DocstorePath, log)
		if err != nil {
			return nil, fmt.Errorf("open docstore: %w", err)
		}
		b.closers = append(b.closers, s)
		return s, nil

	case "baserow":
		return api.NewBaserowStore(api.Config{
			BaseURL:        cfg.Baserow.URL,
			TableID:        cfg.Baserow.TableID,
			Token:          cfg.Baserow.Token,
			NoSongURL:      cfg.Baserow.NoSongURL,
			ExtendedFields: cfg.Baserow.ExtendedFields,
			Timeout:        cfg.Baserow.Timeout,
		}, log)

	case "sql":
		conn, err := db.Open(cfg.Database.Driver, cfg.Database.DSN)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", cfg.Database.Driver, err)
		}
		s := db.NewSQLStore(conn, log)
		b.closers = append(b.closers, s)
		if err := s.ApplyMigrations(ctx); err != nil {
			return nil, fmt.Errorf("migrations: %w", err)
		}
		applied, err := s.GetAppliedMigrations(ctx)
		if err != nil {
			return nil, fmt.Errorf("read migrations: %w", err)
		}
		if n := len(applied); n > 0 {
			log.WithFields(logrus.Fields{
				"version":    applied[n-1].Version,
				"migrations": n,
			}).Info("Schema database aggiornato")
		}
		return s, nil
	}
	return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
}

// keyedAdder è implementato dagli store che accettano una chiave esplicita
type keyedAdder interface {
	AddWithKey(ctx context.Context, key string, d models.Dedication) (models.Dedication, error)
}

// importDedications copia in dst i record (dal più recente) mantenendo
// l'ordine. La chiave è l'id, oppure il timestamp se manca.
func importDedications(ctx context.Context, dst storage.Backend, records []models.Dedication) (int, error) {
	if b, ok := dst.(*backend); ok {
		dst = b.Backend
	}
	keyed, hasKeys := dst.(keyedAdder)
	if f, ok := dst.(*storage.Fallback); ok {
		keyed, hasKeys = f.Primary().(keyedAdder)
	}

	n := 0
	for i := len(records) - 1; i >= 0; i-- {
		d := records[i]
		var err error
		if hasKeys {
			key := d.ID
			if key == "" {
				key = d.Timestamp
			}
			if key == "" {
				_, err = dst.Add(ctx, d)
			} else {
				_, err = keyed.AddWithKey(ctx, key, d)
			}
		} else {
			d.ID = ""
			_, err = dst.Add(ctx, d)
		}
		if err != nil {
			return n, fmt.Errorf("import record %d: %w", i, err)
		}
		n++
	}
	return n, nil
}
