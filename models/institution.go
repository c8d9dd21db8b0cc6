package models

// Institution repräsentiert eine Forschungseinrichtung (Universität, Institut, Klinik).
type Institution struct {
	ID   uint   `json:"id" gorm:"primaryKey"`
	Name string `json:"name" gorm:"index"`

	Authors []Author `json:"-" gorm:"many2many:author_institutions"`
	Funders []Funder `json:"-" gorm:"many2many:institution_funders"`
}

// TableName gibt explizit den Tabellennamen an.
func (Institution) TableName() string {
	return "institutions"
}

// EntityKind, EntityID und EntityName erfüllen services.NamedEntity.
func (i *Institution) EntityKind() Kind { return KindInstitution }
func (i *Institution) EntityID() uint { return i.ID }
func (i *Institution) EntityName() string { return i.Name }
func (i *Institution) SetEntityName(n string) { i.Name = n }
