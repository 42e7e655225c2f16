package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/sirupsen/logrus"

	"dedication-board/models"
)

// FileStore tiene la bacheca in un unico array JSON indentato. Ogni modifica
// rilegge e riscrive il file senza lock: scritture concorrenti possono
// perdere aggiornamenti.
type FileStore struct {
	path string
	log  logrus.FieldLogger
}

// NewFileStore crea il file con un array vuoto se non esiste
func NewFileStore(path string, log logrus.FieldLogger) (*FileStore, error) {
	s := &FileStore{path: path, log: log.WithField("backend", "file")}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		if err := s.save([]models.Dedication{}); err != nil {
			return nil, fmt.Errorf("initialize %s: %w", path, err)
		}
	}
	return s, nil
}

func (s *FileStore) Name() string     { return "file" }
func (s *FileStore) RefKind() RefKind { return ByIndex }

// load restituisce la lista salvata, un file mancante è una bacheca vuota
func (s *FileStore) load() ([]models.Dedication, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []models.Dedication{}, nil
	}
	if err != nil {
		return nil, err
	}
	var list []models.Dedication
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.path, err)
	}
	if list == nil {
		list = []models.Dedication{}
	}
	return list, nil
}

func (s *FileStore) save(list []models.Dedication) error {
	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0644)
}

// List restituisce i record nell'ordine salvato, già dal più recente
// perché Add inserisce in testa
func (s *FileStore) List(ctx context.Context) ListResult {
	list, err := s.load()
	Observe(s.Name(), "list", err)
	if err != nil {
		s.log.WithError(err).Error("Errore nel caricamento delle dediche")
		return Degraded(err)
	}
	return Ok(list)
}

func (s *FileStore) Add(ctx context.Context, d models.Dedication) (models.Dedication, error) {
	err := s.add(d)
	Observe(s.Name(), "add", err)
	if err != nil {
		s.log.WithError(err).Error("Errore nel salvataggio della dedica")
		return models.Dedication{}, err
	}
	return d, nil
}

func (s *FileStore) add(d models.Dedication) error {
	list, err := s.load()
	if err != nil {
		return err
	}
	list = append([]models.Dedication{d}, list...)
	return s.save(list)
}

func (s *FileStore) DeleteByIndex(ctx context.Context, index int) error {
	err := s.deleteByIndex(index)
	Observe(s.Name(), "delete", err)
	return err
}

func (s *FileStore) deleteByIndex(index int) error {
	list, err := s.load()
	if err != nil {
		return err
	}
	if index < 0 || index >= len(list) {
		return fmt.Errorf("index %d of %d: %w", index, len(list), ErrNotFound)
	}
	list = append(list[:index], list[index+1:]...)
	return s.save(list)
}

func (s *FileStore) DeleteByID(ctx context.Context, id string) error {
	return ErrUnsupported
}

// Ping verifica che il file sia leggibile e valido
func (s *FileStore) Ping(ctx context.Context) error {
	_, err := s.load()
	return err
}
