package models

// Kind bezeichnet die Art einer über ihren Namen auflösbaren Entität.
type Kind string

const (
	KindInstitution Kind = "institution"
	KindFunder      Kind = "funder"
	KindAuthor      Kind = "author"
)

// Kinds listet alle per Namen auflösbaren Entitätsarten in Migrationsreihenfolge.
var Kinds = []Kind{KindInstitution, KindFunder, KindAuthor}

// Table gibt die Tabelle zurück, in der Entitäten dieser Art liegen.
func (k Kind) Table() string {
	switch k {
	case KindInstitution:
		return "institutions"
	case KindFunder:
		return "funders"
	case KindAuthor:
		return "authors"
	}
	return ""
}

// Valid meldet, ob k eine bekannte Entitätsart ist.
func (k Kind) Valid() bool {
	return k.Table() != ""
}

func (k Kind) String() string { return string(k) }
