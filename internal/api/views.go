package api

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/url"
	"strconv"
	"strings"

	"github.com/kdimtricp/cineck/internal/browse"
	"github.com/kdimtricp/cineck/internal/format"
	"github.com/kdimtricp/cineck/internal/models"
	"github.com/kdimtricp/cineck/internal/tmdb"
)

//go:embed web
var webFS embed.FS

const (
	unknownTitle  = "Unknown Title"
	noPosterURL   = "/static/no-movie.svg"
	posterSize    = "w500"
	backdropSize  = "original"
	nameSeparator = ", "
)

var pageNames = []string{"home", "movie", "not_found"}

var templateFuncs = template.FuncMap{
	"join": strings.Join,
}

// loadTemplates builds one template set per page, each sharing the layout
// and partials.
func loadTemplates() (map[string]*template.Template, error) {
	base, err := template.New("").Funcs(templateFuncs).ParseFS(webFS,
		"web/templates/layout.html",
		"web/templates/partials/*.html",
	)
	if err != nil {
		return nil, fmt.Errorf("parsing layout: %w", err)
	}

	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		set, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("cloning layout for %s: %w", name, err)
		}
		if _, err := set.ParseFS(webFS, "web/templates/"+name+".html"); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", name, err)
		}
		pages[name] = set
	}
	return pages, nil
}

type movieCard struct {
	ID        int
	Title     string
	Rating    string
	Year      string
	Language  string
	PosterURL string
}

func cardOf(m tmdb.MovieSummary) movieCard {
	return movieCard{
		ID:        m.ID,
		Title:     format.OrDefault(m.Title, unknownTitle),
		Rating:    format.Rating(m.VoteAverage),
		Year:      format.Year(m.ReleaseDate),
		Language:  format.Language(m.OriginalLanguage),
		PosterURL: posterURL(m.PosterPath, posterSize),
	}
}

func posterURL(path, size string) string {
	if path == "" {
		return noPosterURL
	}
	return tmdb.ImageURL(path, size)
}

type trendingCard struct {
	Rank      int
	Term      string
	Count     int64
	MovieID   int
	Title     string
	PosterURL string
}

func trendingCards(counts []models.SearchCount) []trendingCard {
	cards := make([]trendingCard, 0, len(counts))
	for i, sc := range counts {
		poster := sc.PosterURL
		if poster == "" {
			poster = noPosterURL
		}
		cards = append(cards, trendingCard{
			Rank:      i + 1,
			Term:      sc.SearchTerm,
			Count:     sc.Count,
			MovieID:   sc.MovieID,
			Title:     format.OrDefault(sc.Title, sc.SearchTerm),
			PosterURL: poster,
		})
	}
	return cards
}

// resultsView is what the results partial renders, for a full page load and
// for every live session update alike.
type resultsView struct {
	Term       string
	Page       int
	TotalPages int
	Pending    bool
	Error      string
	Movies     []movieCard
	PrevURL    string
	NextURL    string
}

func (v *resultsView) setPagination() {
	if v.Page > 1 {
		v.PrevURL = browseURL(v.Term, v.Page-1)
	}
	if v.Page < v.TotalPages {
		v.NextURL = browseURL(v.Term, v.Page+1)
	}
}

func resultsOfPage(term string, page int, rp *tmdb.ResultPage) resultsView {
	v := resultsView{Term: term, Page: page, TotalPages: rp.TotalPages}
	for _, m := range rp.Results {
		v.Movies = append(v.Movies, cardOf(m))
	}
	v.setPagination()
	return v
}

func resultsOfState(st browse.State) resultsView {
	v := resultsView{
		Term:    st.DebouncedTerm,
		Page:    st.Page,
		Pending: st.Status == browse.StatusPending,
		Error:   st.Err,
	}
	if st.TotalPagesKnown {
		v.TotalPages = st.TotalPages
	}
	for _, m := range st.Results {
		v.Movies = append(v.Movies, cardOf(m))
	}
	v.setPagination()
	return v
}

func browseURL(term string, page int) string {
	q := url.Values{}
	if term != "" {
		q.Set("q", term)
	}
	if page > 1 {
		q.Set("page", strconv.Itoa(page))
	}
	if len(q) == 0 {
		return "/"
	}
	return "/?" + q.Encode()
}

type homeView struct {
	Title    string
	Term     string
	Trending []trendingCard
	Results  resultsView
}

type movieView struct {
	Title         string
	ID            int
	OriginalTitle string
	Tagline       string
	Overview      string
	Status        string
	PosterURL     string
	BackdropURL   string
	Released      string
	Year          string
	Runtime       string
	Rating        string
	Votes         string
	Budget        string
	BudgetWords   string
	Revenue       string
	RevenueWords  string
	Genres        []string
	Countries     []string
	Languages     []string
	Companies     []string
}

func movieViewOf(d *tmdb.MovieDetails) movieView {
	v := movieView{
		Title:         format.OrDefault(d.Title, unknownTitle),
		ID:            d.ID,
		OriginalTitle: format.OrDefault(d.OriginalTitle, format.Unknown),
		Tagline:       d.Tagline,
		Overview:      format.OrDefault(d.Overview, format.Unknown),
		Status:        format.OrDefault(d.Status, format.Unknown),
		PosterURL:     posterURL(d.PosterPath, posterSize),
		Released:      format.Unknown,
		Year:          format.Year(d.ReleaseDate),
		Runtime:       format.Runtime(d.Runtime),
		Rating:        format.Rating(d.VoteAverage),
		Votes:         format.Abbreviate(d.VoteCount),
		Budget:        money(d.Budget),
		BudgetWords:   format.Rupees(d.Budget),
		Revenue:       money(d.Revenue),
		RevenueWords:  format.Rupees(d.Revenue),
		Genres:        format.Interleave(d.Genres, tmdb.Genre.DisplayName, nameSeparator),
		Countries:     format.Interleave(d.ProductionCountries, tmdb.ProductionCountry.DisplayName, nameSeparator),
		Languages:     format.Interleave(d.SpokenLanguages, tmdb.SpokenLanguage.DisplayName, nameSeparator),
		Companies:     format.Interleave(d.ProductionCompanies, tmdb.ProductionCompany.DisplayName, nameSeparator),
	}
	if d.BackdropPath != "" {
		v.BackdropURL = tmdb.ImageURL(d.BackdropPath, backdropSize)
	}
	if d.ReleaseDate != "" {
		v.Released = format.Date(d.ReleaseDate)
	}
	return v
}

// money renders a dollar amount; TMDb reports unknown budgets as 0.
func money(amount int64) string {
	if amount <= 0 {
		return format.Unknown
	}
	return "$" + format.Abbreviate(amount)
}

type notFoundView struct {
	Title   string
	Message string
}

func renderPartial(pages map[string]*template.Template, name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := pages["home"].ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
