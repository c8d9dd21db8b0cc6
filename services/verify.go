package services

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"coi-explorer/models"
)

// Problem ist eine bei der Prüfung gefundene Inkonsistenz.
type Problem struct {
	Check  string `json:"check"`
	Detail string `json:"detail"`
	Count  int64  `json:"count"`
}

// references listet jede Fremdschlüsselspalte der Verknüpfungstabellen.
var references = []struct {
	table, column, parent string
}{
	{"author_institutions", "author_id", "authors"},
	{"author_institutions", "institution_id", "institutions"},
	{"institution_funders", "institution_id", "institutions"},
	{"institution_funders", "funder_id", "funders"},
	{"paper_authors", "paper_id", "papers"},
	{"paper_authors", "author_id", "authors"},
	{"paper_funders", "paper_id", "papers"},
	{"paper_funders", "funder_id", "funders"},
	{"author_funders", "author_id", "authors"},
	{"author_funders", "funder_id", "funders"},
	{"author_funders", "paper_id", "papers"},
}

// Verify prüft, ob alle Kanten auf existierende Zeilen zeigen und ob Namen
// bis auf Groß-/Kleinschreibung doppelt vorkommen. Letzteres verhindert das
// Schema nicht, der Resolver löst dann immer auf die kleinste ID auf.
func Verify(ctx context.Context, db *gorm.DB) ([]Problem, error) {
	db = db.WithContext(ctx)
	problems := []Problem{}

	for _, ref := range references {
		var n int64
		err := db.Table(ref.table).
			Joins(fmt.Sprintf("LEFT JOIN %s p ON p.id = %s.%s", ref.parent, ref.table, ref.column)).
			Where("p.id IS NULL").
			Count(&n).Error
		if err != nil {
			return nil, fmt.Errorf("prüfen von %s.%s: %w", ref.table, ref.column, err)
		}
		if n > 0 {
			problems = append(problems, Problem{
				Check:  "orphan",
				Detail: fmt.Sprintf("%s.%s ohne %s", ref.table, ref.column, ref.parent),
				Count:  n,
			})
		}
	}

	for _, kind := range models.Kinds {
		var dups []struct {
			Name  string
			Count int64
		}
		err := db.Table(kind.Table()).
			Select("LOWER(name) AS name, COUNT(*) AS count").
			Group("LOWER(name)").
			Having("COUNT(*) > 1").
			Order("name").
			Scan(&dups).Error
		if err != nil {
			return nil, fmt.Errorf("duplikate in %s: %w", kind.Table(), err)
		}
		for _, d := range dups {
			problems = append(problems, Problem{
				Check:  "duplicate_name",
				Detail: fmt.Sprintf("%s %q", kind, d.Name),
				Count:  d.Count,
			})
		}
	}
	return problems, nil
}
