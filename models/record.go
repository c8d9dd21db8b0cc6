package models

// Eingabeformat für den Graph-Upsert, wie es Provider liefern oder Importdateien
// enthalten:
//
//	{doi, funders: [{name}], authors: [{name, institution: [{name}], funders: [{name}]}]}

// NameRecord ist eine Referenz auf eine Institution oder einen Geldgeber über den Namen.
type NameRecord struct {
	Name string `json:"name" yaml:"name" validate:"required"`
}

// AuthorRecord beschreibt einen Autor im Kontext genau eines Papers.
type AuthorRecord struct {
	Name        string       `json:"name" yaml:"name" validate:"required"`
	Institution []NameRecord `json:"institution" yaml:"institution" validate:"dive"`
	// Funders gelten nur für die Beteiligung dieses Autors an diesem Paper.
	Funders []NameRecord `json:"funders" yaml:"funders" validate:"dive"`
}

// PaperRecord ist ein eingelesenes Paper inklusive Autoren und Geldgebern.
type PaperRecord struct {
	DOI     string         `json:"doi" yaml:"doi" validate:"required"`
	Funders []NameRecord   `json:"funders" yaml:"funders" validate:"dive"`
	Authors []AuthorRecord `json:"authors" yaml:"authors" validate:"dive"`
}

// Names gibt die Namen einer Liste von NameRecords in Eingabereihenfolge zurück.
func Names(records []NameRecord) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.Name)
	}
	return out
}
