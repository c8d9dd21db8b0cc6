package models

// Funder repräsentiert eine Organisation, die Forschung finanziert.
type Funder struct {
	ID   uint   `json:"id" gorm:"primaryKey"`
	Name string `json:"name" gorm:"index"`
}

// TableName gibt explizit den Tabellennamen an.
func (Funder) TableName() string {
	return "funders"
}

func (f *Funder) EntityKind() Kind { return KindFunder }
func (f *Funder) EntityID() uint { return f.ID }
func (f *Funder) EntityName() string { return f.Name }
func (f *Funder) SetEntityName(n string) { f.Name = n }
