package openalex

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"coi-explorer/config"
	"coi-explorer/models"
	"coi-explorer/providers"
)

// Fetcher implementiert das Provider-Interface für OpenAlex.
type Fetcher struct {
	Config *config.Config
	Logger *zap.Logger
	Client *providers.Client
}

// NewFetcher erstellt einen neuen OpenAlex Fetcher.
func NewFetcher(cfg *config.Config, logger *zap.Logger) *Fetcher {
	return &Fetcher{
		Config: cfg,
		Logger: logger,
		Client: providers.NewClient(cfg.UserAgent, cfg.ProviderRateLimit, 30*time.Second),
	}
}

// Name gibt den Namen des Providers zurück.
func (f *Fetcher) Name() string {
	return "openalex"
}

// Fetch holt das Work zur DOI über /works/doi:{doi}.
func (f *Fetcher) Fetch(ctx context.Context, doi string) (*models.PaperRecord, error) {
	log := f.Logger.With(zap.String("doi", doi))

	workURL := fmt.Sprintf("%s/works/doi:%s", strings.TrimRight(f.Config.OpenAlexBaseURL, "/"), doi)
	if f.Config.OpenAlexEmail != "" {
		workURL += "?mailto=" + url.QueryEscape(f.Config.OpenAlexEmail)
	}
	log.Debug("Rufe OpenAlex API auf", zap.String("url", workURL))

	var work Work
	if err := f.Client.GetJSON(ctx, workURL, &work); err != nil {
		if errors.Is(err, providers.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("openalex %s: %w", doi, err)
	}

	record := mapWorkToRecord(&work, doi)
	log.Info("OpenAlex-Work gelesen",
		zap.Int("authors", len(record.Authors)),
		zap.Int("funders", len(record.Funders)))
	return record, nil
}

// mapWorkToRecord konvertiert ein Work in das Upsert-Eingabeformat. OpenAlex
// ordnet Grants keinem Autor zu, deshalb erhält jeder Autor alle Geldgeber.
func mapWorkToRecord(work *Work, requested string) *models.PaperRecord {
	doi := providers.NormalizeDOI(work.DOI)
	if doi == "" {
		doi = requested
	}

	grants := make([]string, 0, len(work.Grants))
	for _, g := range work.Grants {
		grants = append(grants, g.FunderDisplayName)
	}
	funders := providers.Dedupe(grants)

	record := &models.PaperRecord{DOI: doi, Funders: funders}
	for _, as := range work.Authorships {
		name := providers.CleanName(as.Author.DisplayName)
		if name == "" {
			continue
		}
		names := make([]string, 0, len(as.Institutions))
		for _, inst := range as.Institutions {
			names = append(names, inst.DisplayName)
		}
		institutions := providers.Dedupe(names)
		if len(institutions) == 0 {
			institutions = nil
		}
		record.Authors = append(record.Authors, models.AuthorRecord{
			Name:        name,
			Institution: institutions,
			Funders:     append([]models.NameRecord(nil), funders...),
		})
	}
	return record
}
