package europepmc

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"coi-explorer/config"
	"coi-explorer/models"
	"coi-explorer/providers"
)

// Fetcher implementiert das Provider-Interface für Europe PMC.
type Fetcher struct {
	Config *config.Config
	Logger *zap.Logger
	Client *providers.Client
}

// NewFetcher erstellt einen neuen Europe PMC Fetcher.
func NewFetcher(cfg *config.Config, logger *zap.Logger) *Fetcher {
	return &Fetcher{
		Config: cfg,
		Logger: logger,
		Client: providers.NewClient(cfg.UserAgent, cfg.ProviderRateLimit, 60*time.Second),
	}
}

// Name gibt den Namen des Providers zurück.
func (f *Fetcher) Name() string {
	return "europepmc"
}

// Fetch sucht den Artikel zur DOI auf Europe PMC.
func (f *Fetcher) Fetch(ctx context.Context, doi string) (*models.PaperRecord, error) {
	log := f.Logger.With(zap.String("doi", doi))

	query := fmt.Sprintf("DOI:%q", doi)
	searchURL := fmt.Sprintf("%s/search?query=%s&format=json&resultType=core&pageSize=1",
		strings.TrimRight(f.Config.EuropePMCBaseURL, "/"), url.QueryEscape(query))
	log.Debug("Rufe Europe PMC API auf", zap.String("url", searchURL))

	var searchResponse SearchResponse
	if err := f.Client.GetJSON(ctx, searchURL, &searchResponse); err != nil {
		return nil, fmt.Errorf("europepmc %s: %w", doi, err)
	}
	if len(searchResponse.ResultList.Result) == 0 {
		return nil, providers.ErrNotFound
	}

	record := mapArticleToRecord(&searchResponse.ResultList.Result[0], doi)
	log.Info("Europe PMC Artikel gelesen",
		zap.Int("authors", len(record.Authors)),
		zap.Int("funders", len(record.Funders)))
	return record, nil
}

// mapArticleToRecord konvertiert einen Europe PMC Artikel in das Upsert-Eingabeformat.
func mapArticleToRecord(article *Article, requested string) *models.PaperRecord {
	doi := providers.NormalizeDOI(article.DOI)
	if doi == "" {
		doi = requested
	}

	agencies := make([]string, 0, len(article.GrantsList.Grant))
	for _, g := range article.GrantsList.Grant {
		agencies = append(agencies, g.Agency)
	}
	funders := providers.Dedupe(agencies)

	record := &models.PaperRecord{DOI: doi, Funders: funders}
	for _, a := range article.AuthorList.Author {
		name := providers.CleanName(a.FullName)
		if name == "" {
			name = providers.CleanName(a.FirstName + " " + a.LastName)
		}
		if name == "" {
			continue
		}

		affiliations := make([]string, 0, len(a.AuthorAffiliationDetailsList.AuthorAffiliation))
		for _, aff := range a.AuthorAffiliationDetailsList.AuthorAffiliation {
			affiliations = append(affiliations, aff.Affiliation)
		}
		institutions := providers.Dedupe(affiliations)
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
