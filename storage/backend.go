// Package storage definisce il contratto comune dei backend delle dediche,
// il backend su file e il fallback primario/secondario.
package storage

import (
	"context"
	"errors"

	"dedication-board/models"
)

var (
	// ErrNotFound: nessun record con quell'id o indice
	ErrNotFound = errors.New("dedication not found")
	// ErrUnsupported: il backend non indirizza i record nel modo richiesto,
	// ad esempio un indice su uno store a id
	ErrUnsupported = errors.New("reference kind not supported by backend")
	// ErrInvalidRef: riferimento non interpretabile
	ErrInvalidRef = errors.New("invalid dedication reference")
)

// RefKind indica come il backend identifica i record da cancellare
type RefKind int

const (
	ByID RefKind = iota
	ByIndex
)

func (k RefKind) String() string {
	if k == ByIndex {
		return "index"
	}
	return "id"
}

// ParseRefKind converte il parametro "by" in RefKind
func ParseRefKind(s string) (RefKind, bool) {
	switch s {
	case "id":
		return ByID, true
	case "index":
		return ByIndex, true
	}
	return ByID, false
}

// ListResult è il risultato di List: i record, oppure una lista vuota e
// la causa se il backend non è leggibile
type ListResult struct {
	Records []models.Dedication
	Err     error
}

// Ok avvolge una lettura riuscita
func Ok(records []models.Dedication) ListResult {
	if records == nil {
		records = []models.Dedication{}
	}
	return ListResult{Records: records}
}

// Degraded avvolge una lettura fallita
func Degraded(cause error) ListResult {
	return ListResult{Records: []models.Dedication{}, Err: cause}
}

// Degraded dice se la lettura è fallita
func (r ListResult) Degraded() bool {
	return r.Err != nil
}

// Backend è implementato da ogni store di dediche
type Backend interface {
	Name() string
	RefKind() RefKind
	List(ctx context.Context) ListResult
	Add(ctx context.Context, d models.Dedication) (models.Dedication, error)
	DeleteByID(ctx context.Context, id string) error
	DeleteByIndex(ctx context.Context, index int) error
	Ping(ctx context.Context) error
}
