package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"html/template"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/kdimtricp/cineck/internal/browse"
	"github.com/kdimtricp/cineck/internal/catalog"
	"github.com/kdimtricp/cineck/internal/tmdb"
)

const appTitle = "Cineck"

type App struct {
	Catalog        *catalog.Catalog
	SessionOptions browse.Options

	pages map[string]*template.Template
}

func NewApp(c *catalog.Catalog, sessionOpts browse.Options) (*App, error) {
	pages, err := loadTemplates()
	if err != nil {
		return nil, err
	}
	return &App{
		Catalog:        c,
		SessionOptions: sessionOpts,
		pages:          pages,
	}, nil
}

func PingHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("pong"))
}

func (app *App) HomeHandler(w http.ResponseWriter, r *http.Request) {
	term := r.URL.Query().Get("q")
	page, err := pageParam(r)
	if err != nil {
		page = 1
	}

	data := homeView{Title: appTitle, Term: term}

	trending, err := app.Catalog.Trending(r.Context())
	if err != nil {
		log.Printf("[API] Loading trending searches failed: %v", err)
	} else {
		data.Trending = trendingCards(trending)
	}

	q := catalog.Query{Term: term, Page: page}
	results, err := app.Catalog.Movies(r.Context(), q)
	if err != nil {
		data.Results = resultsView{Term: term, Page: page, Error: browse.FetchFailedMessage}
	} else {
		data.Results = resultsOfPage(term, page, results)
	}

	app.render(w, "home", http.StatusOK, data)
}

func (app *App) MovieHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		app.NotFoundHandler(w, r)
		return
	}

	details, err := app.Catalog.Movie(r.Context(), id)
	if errors.Is(err, tmdb.ErrNotFound) {
		app.NotFoundHandler(w, r)
		return
	}
	if err != nil {
		app.render(w, "not_found", http.StatusBadGateway, notFoundView{
			Title:   appTitle,
			Message: "Failed to fetch movie details",
		})
		return
	}

	app.render(w, "movie", http.StatusOK, movieViewOf(details))
}

func (app *App) NotFoundHandler(w http.ResponseWriter, r *http.Request) {
	app.render(w, "not_found", http.StatusNotFound, notFoundView{
		Title:   appTitle,
		Message: "The page you are looking for does not exist.",
	})
}

func (app *App) ListMoviesHandler(w http.ResponseWriter, r *http.Request) {
	page, err := pageParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	results, err := app.Catalog.Movies(r.Context(), catalog.Query{Term: r.URL.Query().Get("q"), Page: page})
	if err != nil {
		writeError(w, http.StatusBadGateway, browse.FetchFailedMessage)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func (app *App) GetMovieHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid movie id")
		return
	}

	details, err := app.Catalog.Movie(r.Context(), id)
	if errors.Is(err, tmdb.ErrNotFound) {
		writeError(w, http.StatusNotFound, "movie not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusBadGateway, "Failed to fetch movie details")
		return
	}
	writeJSON(w, http.StatusOK, details)
}

func (app *App) TrendingHandler(w http.ResponseWriter, r *http.Request) {
	trending, err := app.Catalog.Trending(r.Context())
	if err != nil {
		log.Printf("[API] Loading trending searches failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to load trending searches")
		return
	}
	writeJSON(w, http.StatusOK, trending)
}

// render executes into a buffer first so a template error never leaves a
// half-written page behind.
func (app *App) render(w http.ResponseWriter, page string, status int, data any) {
	var buf bytes.Buffer
	if err := app.pages[page].ExecuteTemplate(&buf, "layout", data); err != nil {
		log.Printf("[API] Rendering %s failed: %v", page, err)
		http.Error(w, "Error rendering template", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

var errInvalidPage = errors.New("page must be a positive integer")

// pageParam reads ?page=, defaulting to 1 when absent.
func pageParam(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("page")
	if raw == "" {
		return 1, nil
	}
	page, err := strconv.Atoi(raw)
	if err != nil || page < 1 {
		return 0, errInvalidPage
	}
	return page, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[API] Encoding response failed: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
