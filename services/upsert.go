package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"coi-explorer/models"
)

// ErrInvalidRecord wird zurückgegeben, wenn DOI oder ein Name fehlt.
var ErrInvalidRecord = errors.New("ungültiger Datensatz")

// UpsertResult zählt, was ein Upsert tatsächlich neu angelegt hat.
type UpsertResult struct {
	Papers       int `json:"papers"`
	Authors      int `json:"authors"`
	Institutions int `json:"institutions"`
	Funders      int `json:"funders"`

	Affiliations int `json:"affiliations"`
	Authorships  int `json:"authorships"`
	PaperFunders int `json:"paper_funders"`
	Fundings     int `json:"fundings"`
}

// Add summiert o auf r.
func (r *UpsertResult) Add(o UpsertResult) {
	r.Papers += o.Papers
	r.Authors += o.Authors
	r.Institutions += o.Institutions
	r.Funders += o.Funders
	r.Affiliations += o.Affiliations
	r.Authorships += o.Authorships
	r.PaperFunders += o.PaperFunders
	r.Fundings += o.Fundings
}

// Mutations ist die Anzahl aller neu geschriebenen Zeilen.
func (r UpsertResult) Mutations() int {
	return r.Papers + r.Authors + r.Institutions + r.Funders +
		r.Affiliations + r.Authorships + r.PaperFunders + r.Fundings
}

// CreatedByKind gibt die Anzahl neuer Entitäten je Art zurück.
func (r UpsertResult) CreatedByKind() map[string]int {
	return map[string]int{
		"paper":       r.Papers,
		"author":      r.Authors,
		"institution": r.Institutions,
		"funder":      r.Funders,
	}
}

func (r UpsertResult) fields() []zap.Field {
	return []zap.Field{
		zap.Int("papers", r.Papers),
		zap.Int("authors", r.Authors),
		zap.Int("institutions", r.Institutions),
		zap.Int("funders", r.Funders),
		zap.Int("affiliations", r.Affiliations),
		zap.Int("authorships", r.Authorships),
		zap.Int("paper_funders", r.PaperFunders),
		zap.Int("fundings", r.Fundings),
	}
}

// Upserter schreibt Paper-Datensätze in den Graphen. Schreibvorgänge laufen
// nacheinander, jeder in genau einer Transaktion.
type Upserter struct {
	DB       *gorm.DB
	Resolver *Resolver
	Logger   *zap.Logger

	// OnCommit wird nach jeder erfolgreich abgeschlossenen Transaktion aufgerufen.
	OnCommit func(UpsertResult)

	mu       sync.Mutex
	validate *validator.Validate
}

// NewUpserter erstellt einen Upserter.
func NewUpserter(db *gorm.DB, resolver *Resolver, logger *zap.Logger) *Upserter {
	return &Upserter{
		DB:       db,
		Resolver: resolver,
		Logger:   logger,
		validate: validator.New(),
	}
}

// UpsertPaperAuthor schreibt einen Autor mit seinen Einrichtungen und
// Geldgebern im Kontext eines Papers. Alles oder nichts: bei einem Fehler wird
// die gesamte Transaktion zurückgerollt.
func (u *Upserter) UpsertPaperAuthor(ctx context.Context, paper models.PaperRecord, author models.AuthorRecord) (UpsertResult, error) {
	head := paper
	head.Authors = nil
	if err := u.check(head); err != nil {
		return UpsertResult{}, err
	}
	if err := u.check(author); err != nil {
		return UpsertResult{}, err
	}

	u.mu.Lock()
	defer u.mu.Unlock()
	return u.commit(ctx, head, &author)
}

// UpsertPaper schreibt ein Paper mit allen Autoren, je Autor in einer eigenen
// Transaktion. Ohne Autoren werden nur Paper und Paper-Geldgeber geschrieben.
// Schlägt ein Autor fehl, bleiben die vorherigen bestehen.
func (u *Upserter) UpsertPaper(ctx context.Context, record models.PaperRecord) (UpsertResult, error) {
	if err := u.check(record); err != nil {
		return UpsertResult{}, err
	}
	head := record
	head.Authors = nil

	u.mu.Lock()
	defer u.mu.Unlock()

	if len(record.Authors) == 0 {
		return u.commit(ctx, head, nil)
	}

	var total UpsertResult
	for i := range record.Authors {
		res, err := u.commit(ctx, head, &record.Authors[i])
		if err != nil {
			return total, err
		}
		total.Add(res)
	}
	return total, nil
}

func (u *Upserter) check(v any) error {
	if err := u.validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	return nil
}

// commit führt eine Transaktion aus; author == nil schreibt nur die Paper-Ebene.
func (u *Upserter) commit(ctx context.Context, paper models.PaperRecord, author *models.AuthorRecord) (UpsertResult, error) {
	log := u.Logger.With(zap.String("doi", paper.DOI))
	if author != nil {
		log = log.With(zap.String("author", author.Name))
	}

	var res UpsertResult
	err := u.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res = UpsertResult{}
		return u.apply(tx, paper, author, &res)
	})
	if err != nil {
		log.Error("Upsert fehlgeschlagen, Transaktion zurückgerollt", zap.Error(err))
		return UpsertResult{}, fmt.Errorf("upsert %s: %w", paper.DOI, err)
	}

	log.Debug("Upsert abgeschlossen", res.fields()...)
	if u.OnCommit != nil {
		u.OnCommit(res)
	}
	return res, nil
}

func (u *Upserter) apply(tx *gorm.DB, paper models.PaperRecord, author *models.AuthorRecord, res *UpsertResult) error {
	// 1. Paper über die DOI, exakt
	p, created, err := u.paperByDOI(tx, paper.DOI)
	if err != nil {
		return err
	}
	res.Papers += count(created)

	if author != nil {
		if err := u.applyAuthor(tx, p, *author, res); err != nil {
			return err
		}
	}

	// 9. Geldgeber auf Paper-Ebene
	for _, name := range models.Names(paper.Funders) {
		f, created, err := ResolveOrCreate[models.Funder](u.Resolver, tx, name)
		if err != nil {
			return err
		}
		res.Funders += count(created)

		added, err := insertEdge(tx, &models.PaperFunder{PaperID: p.ID, FunderID: f.ID})
		if err != nil {
			return fmt.Errorf("paper_funders: %w", err)
		}
		res.PaperFunders += count(added)
	}
	return nil
}

func (u *Upserter) applyAuthor(tx *gorm.DB, p *models.Paper, record models.AuthorRecord, res *UpsertResult) error {
	// 2. Autor
	a, created, err := ResolveOrCreate[models.Author](u.Resolver, tx, record.Name)
	if err != nil {
		return err
	}
	res.Authors += count(created)

	// 3. Geldgeber des Autors
	funders := make([]*models.Funder, 0, len(record.Funders))
	for _, name := range models.Names(record.Funders) {
		f, created, err := ResolveOrCreate[models.Funder](u.Resolver, tx, name)
		if err != nil {
			return err
		}
		res.Funders += count(created)
		funders = append(funders, f)
	}

	// 4. Einrichtungen
	institutions := make([]*models.Institution, 0, len(record.Institution))
	for _, name := range models.Names(record.Institution) {
		inst, created, err := ResolveOrCreate[models.Institution](u.Resolver, tx, name)
		if err != nil {
			return err
		}
		res.Institutions += count(created)
		institutions = append(institutions, inst)
	}

	// 5. Affiliationen
	for _, inst := range institutions {
		added, err := insertEdge(tx, &models.AuthorInstitution{AuthorID: a.ID, InstitutionID: inst.ID})
		if err != nil {
			return fmt.Errorf("author_institutions: %w", err)
		}
		res.Affiliations += count(added)
	}

	// 6./7. Paper und Autor haben IDs, Finanzierung gilt je Paper
	for _, f := range funders {
		added, err := insertEdge(tx, &models.AuthorFunding{AuthorID: a.ID, FunderID: f.ID, PaperID: p.ID})
		if err != nil {
			return fmt.Errorf("author_funders: %w", err)
		}
		res.Fundings += count(added)
	}

	// 8. Autorenschaft
	added, err := insertEdge(tx, &models.PaperAuthor{PaperID: p.ID, AuthorID: a.ID})
	if err != nil {
		return fmt.Errorf("paper_authors: %w", err)
	}
	res.Authorships += count(added)
	return nil
}

// paperByDOI sucht das Paper exakt über die DOI und legt es bei Bedarf an.
func (u *Upserter) paperByDOI(tx *gorm.DB, doi string) (*models.Paper, bool, error) {
	var p models.Paper
	err := tx.Where("doi = ?", doi).First(&p).Error
	if err == nil {
		return &p, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, fmt.Errorf("paper %q: %w", doi, err)
	}

	p = models.Paper{DOI: doi}
	if err := tx.Create(&p).Error; err != nil {
		return nil, false, fmt.Errorf("anlegen von paper %q: %w", doi, err)
	}
	return &p, true, nil
}

// insertEdge schreibt eine Verknüpfung, falls sie noch nicht existiert, und
// meldet, ob eine Zeile geschrieben wurde.
func insertEdge(tx *gorm.DB, edge any) (bool, error) {
	res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(edge)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func count(b bool) int {
	if b {
		return 1
	}
	return 0
}
