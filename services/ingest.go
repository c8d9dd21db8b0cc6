package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"coi-explorer/config"
	"coi-explorer/models"
	"coi-explorer/providers"
	"coi-explorer/providers/europepmc"
	"coi-explorer/providers/openalex"
	"coi-explorer/providers/pubmed"
)

// NewProviders erstellt die in ENABLED_PROVIDERS genannten Provider in dieser Reihenfolge.
func NewProviders(cfg *config.Config, logger *zap.Logger) ([]providers.Provider, error) {
	var list []providers.Provider
	for _, name := range cfg.Providers() {
		switch name {
		case "openalex":
			list = append(list, openalex.NewFetcher(cfg, logger))
		case "europepmc":
			list = append(list, europepmc.NewFetcher(cfg, logger))
		case "pubmed":
			list = append(list, pubmed.NewFetcher(cfg, logger))
		default:
			return nil, fmt.Errorf("unbekannter Provider %q", name)
		}
	}
	return list, nil
}

// IngestResult beschreibt das Ergebnis eines Ingest-Aufrufs.
type IngestResult struct {
	DOI      string       `json:"doi"`
	Found    bool         `json:"found"`
	Provider string       `json:"provider,omitempty"`
	Authors  int          `json:"authors"`
	Upsert   UpsertResult `json:"created"`
}

// Ingestor holt Paper über die Provider und schreibt sie in den Graphen.
type Ingestor struct {
	DB        *gorm.DB
	Upserter  *Upserter
	Providers []providers.Provider
	Logger    *zap.Logger
}

// NewIngestor erstellt einen Ingestor.
func NewIngestor(db *gorm.DB, upserter *Upserter, list []providers.Provider, logger *zap.Logger) *Ingestor {
	return &Ingestor{DB: db, Upserter: upserter, Providers: list, Logger: logger}
}

// Lookup fragt die Provider der Reihe nach und gibt den ersten Treffer zurück.
// Kennt kein Provider die DOI oder sind alle fehlgeschlagen, ist das Ergebnis
// nil. Fehler werden nur protokolliert.
func (i *Ingestor) Lookup(ctx context.Context, doi string) (*models.PaperRecord, string) {
	doi = providers.NormalizeDOI(doi)
	log := i.Logger.With(zap.String("doi", doi))
	if doi == "" {
		log.Warn("Leere DOI, keine Abfrage")
		return nil, ""
	}

	for _, p := range i.Providers {
		record, err := p.Fetch(ctx, doi)
		switch {
		case err == nil:
			log.Info("Paper gefunden", zap.String("provider", p.Name()), zap.Int("authors", len(record.Authors)))
			return record, p.Name()
		case errors.Is(err, providers.ErrNotFound):
			log.Info("DOI beim Provider unbekannt", zap.String("provider", p.Name()))
		default:
			log.Error("Provider-Abfrage fehlgeschlagen", zap.String("provider", p.Name()), zap.Error(err))
		}
		if ctx.Err() != nil {
			return nil, ""
		}
	}
	return nil, ""
}

// Ingest holt das Paper zur DOI und schreibt es. Ohne Treffer wird nichts geschrieben.
func (i *Ingestor) Ingest(ctx context.Context, doi string) (IngestResult, error) {
	res := IngestResult{DOI: providers.NormalizeDOI(doi)}
	record, provider := i.Lookup(ctx, doi)
	if record == nil {
		return res, nil
	}

	res.Found = true
	res.Provider = provider
	res.DOI = record.DOI
	res.Authors = len(record.Authors)

	upserted, err := i.Upserter.UpsertPaper(ctx, *record)
	res.Upsert = upserted
	if err != nil {
		return res, err
	}
	i.Logger.Info("Paper übernommen",
		zap.String("doi", record.DOI),
		zap.String("provider", provider),
		zap.Int("mutations", upserted.Mutations()))
	return res, nil
}

// RefreshResult fasst einen Durchlauf über alle gespeicherten DOIs zusammen.
type RefreshResult struct {
	Papers   int          `json:"papers"`
	Missing  int          `json:"missing"`
	Failed   int          `json:"failed"`
	Upserted UpsertResult `json:"created"`
}

// RefreshAll liest alle gespeicherten DOIs neu ein, um neue Affiliationen und
// Förderungen aufzunehmen. Fehler einzelner Paper brechen den Lauf nicht ab.
func (i *Ingestor) RefreshAll(ctx context.Context) (RefreshResult, error) {
	var dois []string
	if err := i.DB.WithContext(ctx).Model(&models.Paper{}).Order("id").Pluck("doi", &dois).Error; err != nil {
		return RefreshResult{}, fmt.Errorf("DOIs lesen: %w", err)
	}

	var out RefreshResult
	for _, doi := range dois {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		out.Papers++
		res, err := i.Ingest(ctx, doi)
		out.Upserted.Add(res.Upsert)
		switch {
		case err != nil:
			out.Failed++
			i.Logger.Error("Refresh fehlgeschlagen", zap.String("doi", doi), zap.Error(err))
		case !res.Found:
			out.Missing++
		}
	}
	i.Logger.Info("Refresh abgeschlossen",
		zap.Int("papers", out.Papers),
		zap.Int("missing", out.Missing),
		zap.Int("failed", out.Failed),
		zap.Int("mutations", out.Upserted.Mutations()))
	return out, nil
}
