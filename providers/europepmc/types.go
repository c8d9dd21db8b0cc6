package europepmc

// SearchResponse ist die Top-Level-Struktur der Europe PMC API-Antwort.
type SearchResponse struct {
	HitCount   int `json:"hitCount"`
	ResultList struct {
		Result []Article `json:"result"`
	} `json:"resultList"`
}

// Article repräsentiert einen einzelnen Artikel in der API-Antwort (resultType=core).
type Article struct {
	ID         string `json:"id"`
	Source     string `json:"source"`
	PMID       string `json:"pmid"`
	DOI        string `json:"doi"`
	Title      string `json:"title"`
	AuthorList struct {
		Author []Author `json:"author"`
	} `json:"authorList"`
	GrantsList struct {
		Grant []Grant `json:"grant"`
	} `json:"grantsList"`
}

// Author ist ein Autor mit seinen Affiliationen.
type Author struct {
	FullName                     string `json:"fullName"`
	FirstName                    string `json:"firstName"`
	LastName                     string `json:"lastName"`
	AuthorAffiliationDetailsList struct {
		AuthorAffiliation []Affiliation `json:"authorAffiliation"`
	} `json:"authorAffiliationDetailsList"`
}

// Affiliation ist eine Freitext-Affiliation eines Autors.
type Affiliation struct {
	Affiliation string `json:"affiliation"`
}

// Grant ist eine Förderangabe des Artikels.
type Grant struct {
	GrantID string `json:"grantId"`
	Agency  string `json:"agency"`
}
