package openalex

// Work ist der für uns relevante Ausschnitt eines OpenAlex-Work-Objekts.
type Work struct {
	ID          string       `json:"id"`
	DOI         string       `json:"doi"`
	Title       string       `json:"display_name"`
	Authorships []Authorship `json:"authorships"`
	Grants      []Grant      `json:"grants"`
}

// Authorship verbindet einen Autor mit seinen Einrichtungen für dieses Work.
type Authorship struct {
	Author struct {
		ID          string `json:"id"`
		DisplayName string `json:"display_name"`
	} `json:"author"`
	Institutions []Institution `json:"institutions"`
}

// Institution ist eine Einrichtung innerhalb einer Authorship.
type Institution struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// Grant ist eine Förderangabe auf Work-Ebene.
type Grant struct {
	Funder            string `json:"funder"`
	FunderDisplayName string `json:"funder_display_name"`
	AwardID           string `json:"award_id"`
}
