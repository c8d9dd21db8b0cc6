package models

// Verknüpfungstabellen der m:n-Beziehungen ohne eigene Attribute. Die Structs
// werden per SetupJoinTable an die many2many-Felder gebunden, damit Kanten
// direkt und idempotent geschrieben werden können.

// AuthorInstitution verknüpft Autor und Einrichtung (Affiliation).
type AuthorInstitution struct {
	AuthorID      uint `gorm:"primaryKey;autoIncrement:false"`
	InstitutionID uint `gorm:"primaryKey;autoIncrement:false"`
}

func (AuthorInstitution) TableName() string { return "author_institutions" }

// InstitutionFunder verknüpft Einrichtung und Geldgeber.
type InstitutionFunder struct {
	InstitutionID uint `gorm:"primaryKey;autoIncrement:false"`
	FunderID      uint `gorm:"primaryKey;autoIncrement:false"`
}

func (InstitutionFunder) TableName() string { return "institution_funders" }

// PaperAuthor verknüpft Paper und Autor (Autorenschaft).
type PaperAuthor struct {
	PaperID  uint `gorm:"primaryKey;autoIncrement:false"`
	AuthorID uint `gorm:"primaryKey;autoIncrement:false"`
}

func (PaperAuthor) TableName() string { return "paper_authors" }

// PaperFunder verknüpft Paper und Geldgeber auf Paper-Ebene.
type PaperFunder struct {
	PaperID  uint `gorm:"primaryKey;autoIncrement:false"`
	FunderID uint `gorm:"primaryKey;autoIncrement:false"`
}

func (PaperFunder) TableName() string { return "paper_funders" }
