package providers

import (
	"context"
	"errors"
	"strings"

	"coi-explorer/models"
)

// ErrNotFound meldet, dass ein Provider zur DOI kein Paper kennt.
var ErrNotFound = errors.New("paper nicht gefunden")

// Provider ist das Interface, das jede bibliografische Quelle (z.B. OpenAlex, Europe PMC) implementieren muss.
type Provider interface {
	// Fetch holt das Paper zur DOI und gibt es im Upsert-Eingabeformat zurück.
	// Kennt der Provider die DOI nicht, ist der Fehler ErrNotFound.
	Fetch(ctx context.Context, doi string) (*models.PaperRecord, error)

	// Name gibt den eindeutigen Namen des Providers zurück (z.B. "openalex").
	Name() string
}

var doiPrefixes = []string{
	"https://doi.org/",
	"http://doi.org/",
	"https://dx.doi.org/",
	"http://dx.doi.org/",
	"doi:",
}

// NormalizeDOI entfernt URL- und doi:-Präfixe sowie Leerraum und schreibt die DOI klein.
func NormalizeDOI(doi string) string {
	doi = strings.TrimSpace(doi)
	lower := strings.ToLower(doi)
	for _, prefix := range doiPrefixes {
		if strings.HasPrefix(lower, prefix) {
			doi = doi[len(prefix):]
			break
		}
	}
	return strings.ToLower(strings.TrimSpace(doi))
}

// Dedupe bereinigt die Namen mit CleanName und entfernt danach doppelte Namen
// bei exaktem Vergleich sowie leere Namen. Die Reihenfolge bleibt erhalten.
func Dedupe(names []string) []models.NameRecord {
	seen := make(map[string]bool, len(names))
	out := make([]models.NameRecord, 0, len(names))
	for _, name := range names {
		name = CleanName(name)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, models.NameRecord{Name: name})
	}
	return out
}
