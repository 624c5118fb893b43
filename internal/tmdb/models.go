package tmdb

// MovieSummary is one entry of a discover or search result page. TMDb sends
// null for missing fields; they decode to zero values.
type MovieSummary struct {
	ID               int     `json:"id"`
	Title            string  `json:"title"`
	VoteAverage      float64 `json:"vote_average"`
	PosterPath       string  `json:"poster_path"`
	ReleaseDate      string  `json:"release_date"`
	OriginalLanguage string  `json:"original_language"`
	Overview         string  `json:"overview"`
}

type ResultPage struct {
	Page         int            `json:"page"`
	TotalPages   int            `json:"total_pages"`
	TotalResults int            `json:"total_results"`
	Results      []MovieSummary `json:"results"`
}

type MovieDetails struct {
	ID                  int                 `json:"id"`
	Title               string              `json:"title"`
	OriginalTitle       string              `json:"original_title"`
	Overview            string              `json:"overview"`
	Tagline             string              `json:"tagline"`
	Status              string              `json:"status"`
	ReleaseDate         string              `json:"release_date"`
	Runtime             int                 `json:"runtime"`
	VoteAverage         float64             `json:"vote_average"`
	VoteCount           int64               `json:"vote_count"`
	PosterPath          string              `json:"poster_path"`
	BackdropPath        string              `json:"backdrop_path"`
	Budget              int64               `json:"budget"`
	Revenue             int64               `json:"revenue"`
	Genres              []Genre             `json:"genres"`
	ProductionCountries []ProductionCountry `json:"production_countries"`
	SpokenLanguages     []SpokenLanguage    `json:"spoken_languages"`
	ProductionCompanies []ProductionCompany `json:"production_companies"`
}

type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type ProductionCountry struct {
	ISO3166 string `json:"iso_3166_1"`
	Name    string `json:"name"`
}

type SpokenLanguage struct {
	ISO639      string `json:"iso_639_1"`
	EnglishName string `json:"english_name"`
	Name        string `json:"name"`
}

type ProductionCompany struct {
	ID            int    `json:"id"`
	Name          string `json:"name"`
	LogoPath      string `json:"logo_path"`
	OriginCountry string `json:"origin_country"`
}

func (g Genre) DisplayName() string             { return g.Name }
func (c ProductionCountry) DisplayName() string { return c.Name }
func (c ProductionCompany) DisplayName() string { return c.Name }

// DisplayName prefers the English name; TMDb leaves Name empty for some languages.
func (l SpokenLanguage) DisplayName() string {
	if l.EnglishName != "" {
		return l.EnglishName
	}
	return l.Name
}

// envelope holds the failure indicators TMDb may put in any response body.
type envelope struct {
	Success       *bool  `json:"success"`
	StatusCode    int    `json:"status_code"`
	StatusMessage string `json:"status_message"`
	Response      string `json:"Response"`
}

func (e envelope) failed() bool {
	if e.Success != nil && !*e.Success {
		return true
	}
	return e.Response == "false" || e.Response == "False"
}
