// Package persistence è il backend a documenti: ogni dedica è un documento
// in un bucket bbolt, con un indice per timestamp che restituisce la lista
// già ordinata dalla più recente.
package persistence

import (
	"bytes"
	"context"
	"encoding/gob"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.etcd.io/bbolt"

	"dedication-board/models"
	"dedication-board/storage"
)

var (
	dedicationsBucket = []byte("dedications")
	timestampBucket   = []byte("by_timestamp")
)

type DocStore struct {
	db  *bbolt.DB
	log logrus.FieldLogger
}

// NewDocStore apre (o crea) il database e i bucket necessari
func NewDocStore(path string, log logrus.FieldLogger) (*DocStore, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, err
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(dedicationsBucket)
		if err != nil {
			return err
		}
		_, err = tx.CreateBucketIfNotExists(timestampBucket)
		return err
	})

	if err != nil {
		db.Close()
		return nil, err
	}

	return &DocStore{db: db, log: log.WithField("backend", "docstore")}, nil
}

func (s *DocStore) Name() string             { return "docstore" }
func (s *DocStore) RefKind() storage.RefKind { return storage.ByID }

// List scorre l'indice dei timestamp al contrario
func (s *DocStore) List(ctx context.Context) storage.ListResult {
	var list []models.Dedication
	err := s.db.View(func(tx *bbolt.Tx) error {
		docs := tx.Bucket(dedicationsBucket)
		cursor := tx.Bucket(timestampBucket).Cursor()

		for k, id := cursor.Last(); k != nil; k, id = cursor.Prev() {
			data := docs.Get(id)
			if data == nil {
				continue
			}
			var d models.Dedication
			if err := decodeBinary(data, &d); err != nil {
				return fmt.Errorf("decode %s: %w", id, err)
			}
			d.ID = string(id)
			list = append(list, d)
		}
		return nil
	})
	storage.Observe(s.Name(), "list", err)
	if err != nil {
		s.log.WithError(err).Error("Errore nel caricamento dal docstore")
		return storage.Degraded(err)
	}
	return storage.Ok(list)
}

// Add salva d con il suo ID, o con un nuovo UUID se non ce l'ha
func (s *DocStore) Add(ctx context.Context, d models.Dedication) (models.Dedication, error) {
	key := d.ID
	if key == "" {
		key = uuid.New().String()
	}
	return s.AddWithKey(ctx, key, d)
}

// AddWithKey scrive d con chiave key, sostituendo il documento esistente
func (s *DocStore) AddWithKey(ctx context.Context, key string, d models.Dedication) (models.Dedication, error) {
	d.ID = key
	err := s.db.Update(func(tx *bbolt.Tx) error {
		docs := tx.Bucket(dedicationsBucket)
		index := tx.Bucket(timestampBucket)

		if old := docs.Get([]byte(key)); old != nil {
			var prev models.Dedication
			if err := decodeBinary(old, &prev); err == nil {
				if err := index.Delete(sortKey(prev.Timestamp, key)); err != nil {
					return err
				}
			}
		}

		data, err := encodeToBinary(d)
		if err != nil {
			return err
		}
		if err := docs.Put([]byte(key), data); err != nil {
			return err
		}
		return index.Put(sortKey(d.Timestamp, key), []byte(key))
	})
	storage.Observe(s.Name(), "add", err)
	if err != nil {
		s.log.WithError(err).WithField("id", key).Error("Errore nel salvataggio sul docstore")
		return models.Dedication{}, err
	}
	return d, nil
}

func (s *DocStore) DeleteByID(ctx context.Context, id string) error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		docs := tx.Bucket(dedicationsBucket)
		data := docs.Get([]byte(id))
		if data == nil {
			return fmt.Errorf("document %q: %w", id, storage.ErrNotFound)
		}
		var d models.Dedication
		if err := decodeBinary(data, &d); err == nil {
			if err := tx.Bucket(timestampBucket).Delete(sortKey(d.Timestamp, id)); err != nil {
				return err
			}
		}
		return docs.Delete([]byte(id))
	})
	storage.Observe(s.Name(), "delete", err)
	return err
}

func (s *DocStore) DeleteByIndex(ctx context.Context, index int) error {
	return storage.ErrUnsupported
}

// Ping verifica che entrambi i bucket esistano
func (s *DocStore) Ping(ctx context.Context) error {
	return s.db.View(func(tx *bbolt.Tx) error {
		if tx.Bucket(dedicationsBucket) == nil || tx.Bucket(timestampBucket) == nil {
			return fmt.Errorf("docstore buckets missing")
		}
		return nil
	})
}

func (s *DocStore) Close() error {
	return s.db.Close()
}

// sortKey è la chiave dell'indice: timestamp ordinabile più l'id, per
// avere voci univoche
func sortKey(timestamp, id string) []byte {
	return []byte(models.SortKey(timestamp) + "\x00" + id)
}

func encodeToBinary(data interface{}) ([]byte, error) {
	var buf bytes.Buffer
	err := gob.NewEncoder(&buf).Encode(data)
	return buf.Bytes(), err
}

func decodeBinary(data []byte, target interface{}) error {
	buf := bytes.NewBuffer(data)
	return gob.NewDecoder(buf).Decode(target)
}
