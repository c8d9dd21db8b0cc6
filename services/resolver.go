package services

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"coi-explorer/models"
)

// NamedEntity ist ein Pointer auf eine Entität, die über ihren Namen aufgelöst wird.
type NamedEntity[T any] interface {
	*T
	EntityKind() models.Kind
	EntityID() uint
	EntityName() string
	SetEntityName(string)
}

// Match ist ein Treffer der Namensauflösung, unabhängig von der Entitätsart.
type Match struct {
	Kind models.Kind `json:"kind"`
	ID   uint        `json:"id"`
	Name string      `json:"name"`
}

// nameMatch vergleicht exakt, nur ohne Groß-/Kleinschreibung. Der Name wird als
// Parameter gebunden, % und _ haben also keine Sonderbedeutung.
const nameMatch = "LOWER(name) = LOWER(?)"

// Resolver löst Namen zu bestehenden Entitäten auf.
type Resolver struct {
	// Threshold wird angenommen, aber nicht ausgewertet.
	Threshold float64
	Logger    *zap.Logger
}

// NewResolver erstellt einen Resolver.
func NewResolver(threshold float64, logger *zap.Logger) *Resolver {
	logger.Info("Resolver arbeitet exakt, Schwellwert ohne Wirkung", zap.Float64("threshold", threshold))
	return &Resolver{Threshold: threshold, Logger: logger}
}

// Resolve sucht eine Entität der Art kind mit dem Namen name. Gibt es keine,
// ist das Ergebnis nil ohne Fehler. Bei mehreren Treffern gewinnt die kleinste ID.
func (r *Resolver) Resolve(tx *gorm.DB, kind models.Kind, name string) (*Match, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("unbekannte Entitätsart %q", kind)
	}
	var m Match
	res := tx.Table(kind.Table()).
		Select("id", "name").
		Where(nameMatch, name).
		Order("id").
		Limit(1).
		Scan(&m)
	if res.Error != nil {
		return nil, fmt.Errorf("auflösen von %s %q: %w", kind, name, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	m.Kind = kind
	return &m, nil
}

// Lookup ist die typisierte Variante von Resolve.
func Lookup[T any, P NamedEntity[T]](r *Resolver, tx *gorm.DB, name string) (P, error) {
	entity := P(new(T))
	err := tx.Where(nameMatch, name).Order("id").First(entity).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("auflösen von %s %q: %w", entity.EntityKind(), name, err)
	}
	return entity, nil
}

// ResolveOrCreate gibt die Entität mit dem Namen name zurück und legt sie an,
// wenn es sie noch nicht gibt. created meldet, ob eine neue Zeile entstanden ist.
func ResolveOrCreate[T any, P NamedEntity[T]](r *Resolver, tx *gorm.DB, name string) (entity P, created bool, err error) {
	entity, err = Lookup[T, P](r, tx, name)
	if err != nil {
		return nil, false, err
	}
	if entity != nil {
		return entity, false, nil
	}

	entity = P(new(T))
	entity.SetEntityName(name)
	if err := tx.Create(entity).Error; err != nil {
		return nil, false, fmt.Errorf("anlegen von %s %q: %w", entity.EntityKind(), name, err)
	}
	r.Logger.Debug("Entität angelegt",
		zap.String("kind", entity.EntityKind().String()),
		zap.Uint("id", entity.EntityID()),
		zap.String("name", name))
	return entity, true, nil
}
