package pubmed

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

// Fetcher ist eine Struktur, die die Logik zur Interaktion mit PubMed kapselt.
type Fetcher struct {
	Config *config.Config
	Logger *zap.Logger
	Client *providers.Client
}

// NewFetcher erstellt eine neue Instanz des PubMed-Fetchers.
func NewFetcher(cfg *config.Config, logger *zap.Logger) *Fetcher {
	return &Fetcher{
		Config: cfg,
		Logger: logger,
		Client: providers.NewClient(cfg.UserAgent, cfg.ProviderRateLimit, 60*time.Second),
	}
}

// Name gibt den Namen des Providers zurück.
func (f *Fetcher) Name() string {
	return "pubmed"
}

// Fetch sucht die PMID zur DOI über ESearch und liest den Artikel über EFetch.
func (f *Fetcher) Fetch(ctx context.Context, doi string) (*models.PaperRecord, error) {
	log := f.Logger.With(zap.String("doi", doi))

	pmid, err := f.searchPMID(ctx, doi)
	if err != nil {
		if errors.Is(err, providers.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("pubmed esearch %s: %w", doi, err)
	}
	log = log.With(zap.String("pmid", pmid))

	efetchURL := f.eutilsURL("efetch.fcgi", url.Values{
		"db":      {"pubmed"},
		"id":      {pmid},
		"retmode": {"xml"},
	})
	log.Debug("Rufe EFetch-URL für Metadaten auf", zap.String("url", efetchURL))

	var articleSet PubmedArticleSet
	if err := f.Client.GetXML(ctx, efetchURL, &articleSet); err != nil {
		if errors.Is(err, providers.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("pubmed efetch %s: %w", pmid, err)
	}
	if len(articleSet.PubmedArticle) == 0 {
		return nil, providers.ErrNotFound
	}

	record := mapArticleToRecord(&articleSet.PubmedArticle[0], doi)
	log.Info("PubMed-Artikel gelesen",
		zap.Int("authors", len(record.Authors)),
		zap.Int("funders", len(record.Funders)))
	return record, nil
}

// searchPMID führt eine ESearch-Abfrage über das DOI-Feld durch.
func (f *Fetcher) searchPMID(ctx context.Context, doi string) (string, error) {
	searchURL := f.eutilsURL("esearch.fcgi", url.Values{
		"db":      {"pubmed"},
		"term":    {doi + "[doi]"},
		"retmode": {"json"},
		"retmax":  {"1"},
	})
	f.Logger.Debug("Rufe ESearch-URL auf", zap.String("url", searchURL))

	var resp ESearchResponse
	if err := f.Client.GetJSON(ctx, searchURL, &resp); err != nil {
		return "", err
	}
	if len(resp.ESearchResult.IdList) == 0 {
		return "", providers.ErrNotFound
	}
	return resp.ESearchResult.IdList[0], nil
}

func (f *Fetcher) eutilsURL(tool string, q url.Values) string {
	if f.Config.PubMedAPIKey != "" {
		q.Set("api_key", f.Config.PubMedAPIKey)
	}
	return fmt.Sprintf("%s/%s?%s", strings.TrimRight(f.Config.PubMedBaseURL, "/"), tool, q.Encode())
}

// mapArticleToRecord wandelt einen PubMed-Artikel in das Upsert-Eingabeformat
// um. Grants hängen am Artikel, jeder Autor erhält daher alle Geldgeber.
func mapArticleToRecord(article *PubmedArticle, requested string) *models.PaperRecord {
	agencies := make([]string, 0, len(article.MedlineCitation.Article.Grants))
	for _, g := range article.MedlineCitation.Article.Grants {
		agencies = append(agencies, g.Agency)
	}
	funders := providers.Dedupe(agencies)

	record := &models.PaperRecord{DOI: articleDOI(article, requested), Funders: funders}
	for _, a := range article.MedlineCitation.Article.Authors {
		name := authorName(a)
		if name == "" {
			continue
		}
		institutions := providers.Dedupe(a.Affiliations)
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

// articleDOI bevorzugt die ArticleIdList, dann eine gültige ELocationID.
func articleDOI(article *PubmedArticle, requested string) string {
	for _, id := range article.PubmedData.ArticleIDs {
		if id.IDType == "doi" {
			if doi := providers.NormalizeDOI(id.Value); doi != "" {
				return doi
			}
		}
	}
	for _, id := range article.MedlineCitation.Article.ELocationID {
		if id.IDType == "doi" && id.ValidYN != "N" {
			if doi := providers.NormalizeDOI(id.Value); doi != "" {
				return doi
			}
		}
	}
	return requested
}

// authorName bildet "Vorname Nachname", ersatzweise Initialen oder den Gruppennamen.
func authorName(a Author) string {
	last := providers.CleanName(a.LastName)
	if last == "" {
		return providers.CleanName(a.CollectiveName)
	}
	for _, first := range []string{a.ForeName, a.Initials} {
		if first = providers.CleanName(first); first != "" {
			return first + " " + last
		}
	}
	return last
}
