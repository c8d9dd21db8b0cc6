package models

// Author repräsentiert eine Autorin bzw. einen Autor wissenschaftlicher Paper.
type Author struct {
	ID   uint   `json:"id" gorm:"primaryKey"`
	Name string `json:"name" gorm:"index"`

	Institutions []Institution `json:"institutions,omitempty" gorm:"many2many:author_institutions"`
	Papers       []Paper       `json:"-" gorm:"many2many:paper_authors"`

	// Fundings hält die Finanzierung pro Paper, nicht pauschal pro Person.
	Fundings []AuthorFunding `json:"fundings,omitempty" gorm:"foreignKey:AuthorID"`
}

// TableName gibt explizit den Tabellennamen an.
func (Author) TableName() string {
	return "authors"
}

func (a *Author) EntityKind() Kind { return KindAuthor }
func (a *Author) EntityID() uint { return a.ID }
func (a *Author) EntityName() string { return a.Name }
func (a *Author) SetEntityName(n string) { a.Name = n }
