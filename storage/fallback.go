package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"dedication-board/models"
)

// Fallback prova ogni operazione sul primario e passa al secondario se il
// primario fallisce. Le cancellazioni vanno all'unico backend che capisce
// il tipo di riferimento.
type Fallback struct {
	primary   Backend
	secondary Backend
	log       logrus.FieldLogger
}

// NewFallback compone primario e secondario
func NewFallback(primary, secondary Backend, log logrus.FieldLogger) *Fallback {
	return &Fallback{
		primary:   primary,
		secondary: secondary,
		log:       log.WithField("backend", "fallback"),
	}
}

func (f *Fallback) Name() string     { return f.primary.Name() }
func (f *Fallback) RefKind() RefKind { return f.primary.RefKind() }

// Primary restituisce il backend preferito
func (f *Fallback) Primary() Backend { return f.primary }

// Secondary restituisce il backend di riserva
func (f *Fallback) Secondary() Backend { return f.secondary }

func (f *Fallback) List(ctx context.Context) ListResult {
	res := f.primary.List(ctx)
	if !res.Degraded() {
		return res
	}
	f.log.WithError(res.Err).Warnf("%s non disponibile, lettura da %s", f.primary.Name(), f.secondary.Name())
	return f.secondary.List(ctx)
}

func (f *Fallback) Add(ctx context.Context, d models.Dedication) (models.Dedication, error) {
	saved, err := f.primary.Add(ctx, d)
	if err == nil {
		return saved, nil
	}
	f.log.WithError(err).Warnf("%s non disponibile, salvataggio su %s", f.primary.Name(), f.secondary.Name())
	return f.secondary.Add(ctx, d)
}

// DeleteByID agisce sul primario. Il secondario si prova solo se il
// primario fallisce per un motivo diverso dal record mancante e anche il
// secondario usa gli id.
func (f *Fallback) DeleteByID(ctx context.Context, id string) error {
	err := f.primary.DeleteByID(ctx, id)
	if err == nil || errors.Is(err, ErrNotFound) || f.secondary.RefKind() != ByID {
		return err
	}
	f.log.WithError(err).Warnf("%s non disponibile, eliminazione su %s", f.primary.Name(), f.secondary.Name())
	return f.secondary.DeleteByID(ctx, id)
}

// DeleteByIndex usa l'indice solo sulla lista da cui proviene: sul primario
// se è indicizzato per posizione, sul secondario solo mentre il primario non
// risponde e GET legge quindi dal secondario.
func (f *Fallback) DeleteByIndex(ctx context.Context, index int) error {
	if f.primary.RefKind() == ByIndex {
		return f.primary.DeleteByIndex(ctx, index)
	}
	if f.secondary.RefKind() != ByIndex {
		return ErrUnsupported
	}
	if res := f.primary.List(ctx); !res.Degraded() {
		return fmt.Errorf("%s raggiungibile, usare l'id: %w", f.primary.Name(), ErrUnsupported)
	}
	f.log.Warnf("%s non disponibile, eliminazione per indice su %s", f.primary.Name(), f.secondary.Name())
	return f.secondary.DeleteByIndex(ctx, index)
}

func (f *Fallback) Ping(ctx context.Context) error {
	return f.primary.Ping(ctx)
}
