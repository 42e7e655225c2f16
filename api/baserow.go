// Package api parla con la REST API di Baserow, il database remoto a
// tabelle dietro il backend "baserow".
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"dedication-board/models"
	"dedication-board/storage"
)

const (
	DefaultBaseURL = "https://api.baserow.io"
	pageSize       = 200
	maxPages       = 100
	maxErrorBody   = 32 << 10
)

// Config contiene i parametri di connessione a Baserow
type Config struct {
	BaseURL        string
	TableID        string
	Token          string
	NoSongURL      string
	ExtendedFields bool
	// Timeout del client HTTP, zero per nessuno
	Timeout time.Duration
}

// APIError è una risposta non 2xx di Baserow
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("baserow API error %d: %s", e.Status, e.Body)
}

// BaserowStore è il backend su una tabella Baserow
type BaserowStore struct {
	cfg        Config
	codec      RowCodec
	httpClient *http.Client
	log        logrus.FieldLogger
}

func NewBaserowStore(cfg Config, log logrus.FieldLogger) (*BaserowStore, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.TableID == "" {
		return nil, fmt.Errorf("baserow table id is required")
	}
	if cfg.Token == "" {
		return nil, fmt.Errorf("baserow token is required")
	}
	return &BaserowStore{
		cfg:        cfg,
		codec:      RowCodec{NoSongURL: cfg.NoSongURL, ExtendedFields: cfg.ExtendedFields},
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        log.WithField("backend", "baserow"),
	}, nil
}

func (s *BaserowStore) Name() string             { return "baserow" }
func (s *BaserowStore) RefKind() storage.RefKind { return storage.ByID }

func (s *BaserowStore) tableURL() string {
	return fmt.Sprintf("%s/api/database/rows/table/%s/", s.cfg.BaseURL, url.PathEscape(s.cfg.TableID))
}

func (s *BaserowStore) listURL(size int) string {
	q := url.Values{}
	q.Set("user_field_names", "true")
	q.Set("size", strconv.Itoa(size))
	return s.tableURL() + "?" + q.Encode()
}

// request esegue una chiamata autenticata e restituisce il corpo della risposta
func (s *BaserowStore) request(ctx context.Context, method, target string, body interface{}) ([]byte, error) {
	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal body: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+s.cfg.Token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &APIError{Status: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return respBody, nil
}

// List scarica tutte le pagine e ordina le righe dalla più recente:
// Baserow le restituisce nell'ordine della tabella.
func (s *BaserowStore) List(ctx context.Context) storage.ListResult {
	list, err := s.fetchAll(ctx)
	storage.Observe(s.Name(), "list", err)
	if err != nil {
		s.log.WithError(err).Error("Errore nel caricamento da Baserow")
		return storage.Degraded(err)
	}
	models.SortNewestFirst(list)
	return storage.Ok(list)
}

func (s *BaserowStore) fetchAll(ctx context.Context) ([]models.Dedication, error) {
	var list []models.Dedication
	next := s.listURL(pageSize)
	for page := 0; next != ""; page++ {
		if page == maxPages {
			return nil, fmt.Errorf("more than %d pages", maxPages)
		}
		body, err := s.request(ctx, http.MethodGet, next, nil)
		if err != nil {
			return nil, err
		}
		if !gjson.ValidBytes(body) {
			return nil, fmt.Errorf("invalid JSON in list response")
		}
		parsed := gjson.ParseBytes(body)
		results := parsed.Get("results")
		if !results.IsArray() {
			return nil, fmt.Errorf("list response has no results array")
		}
		results.ForEach(func(_, row gjson.Result) bool {
			list = append(list, s.codec.Decode(row))
			return true
		})
		next = parsed.Get("next").String()
	}
	return list, nil
}

// Add crea una riga e restituisce d con l'id assegnato da Baserow
func (s *BaserowStore) Add(ctx context.Context, d models.Dedication) (models.Dedication, error) {
	target := s.tableURL() + "?user_field_names=true"
	body, err := s.request(ctx, http.MethodPost, target, s.codec.Encode(d))
	storage.Observe(s.Name(), "add", err)
	if err != nil {
		s.log.WithError(err).Error("Errore nel salvataggio su Baserow")
		return models.Dedication{}, err
	}
	if id := gjson.GetBytes(body, FieldID); id.Exists() {
		d.ID = id.String()
	}
	return d, nil
}

// DeleteByID elimina una riga. Gli id di Baserow sono interi positivi:
// qualsiasi altro riferimento è malformato e non arriva al server.
func (s *BaserowStore) DeleteByID(ctx context.Context, id string) error {
	n, err := strconv.Atoi(id)
	if err != nil || n <= 0 {
		return fmt.Errorf("row %q: %w", id, storage.ErrInvalidRef)
	}
	_, err = s.request(ctx, http.MethodDelete, s.tableURL()+strconv.Itoa(n)+"/", nil)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
		err = fmt.Errorf("row %d: %w", n, storage.ErrNotFound)
	}
	storage.Observe(s.Name(), "delete", err)
	return err
}

func (s *BaserowStore) DeleteByIndex(ctx context.Context, index int) error {
	return storage.ErrUnsupported
}

// Ping legge una riga per verificare token e tabella
func (s *BaserowStore) Ping(ctx context.Context) error {
	_, err := s.request(ctx, http.MethodGet, s.listURL(1), nil)
	return err
}
