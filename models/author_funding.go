package models

// AuthorFunding hält fest, dass die Beteiligung eines Autors an einem bestimmten
// Paper von einem bestimmten Geldgeber finanziert wurde. Alle drei Schlüssel
// bilden zusammen den Primärschlüssel.
type AuthorFunding struct {
	AuthorID uint `json:"author_id" gorm:"primaryKey;autoIncrement:false"`
	FunderID uint `json:"funder_id" gorm:"primaryKey;autoIncrement:false"`
	PaperID  uint `json:"paper_id" gorm:"primaryKey;autoIncrement:false"`

	Author *Author `json:"-" gorm:"foreignKey:AuthorID"`
	Funder *Funder `json:"funder,omitempty" gorm:"foreignKey:FunderID"`
	Paper  *Paper  `json:"paper,omitempty" gorm:"foreignKey:PaperID"`
}

// TableName gibt explizit den Tabellennamen an.
func (AuthorFunding) TableName() string {
	return "author_funders"
}
