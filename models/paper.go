package models

// Paper repräsentiert eine Publikation, identifiziert über ihre DOI.
type Paper struct {
	ID  uint   `json:"id" gorm:"primaryKey"`
	DOI string `json:"doi" gorm:"column:doi;uniqueIndex;not null"`

	Authors []Author `json:"authors,omitempty" gorm:"many2many:paper_authors"`
	// Funders sind die auf Paper-Ebene angegebenen Geldgeber, unabhängig von einzelnen Autoren.
	Funders []Funder `json:"funders,omitempty" gorm:"many2many:paper_funders"`
}

// TableName gibt explizit den Tabellennamen an.
func (Paper) TableName() string {
	return "papers"
}
