package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kdimtricp/cineck/internal/analytics"
	"github.com/kdimtricp/cineck/internal/browse"
	"github.com/kdimtricp/cineck/internal/catalog"
	"github.com/kdimtricp/cineck/internal/database"
	"github.com/kdimtricp/cineck/internal/querycache"
	"github.com/kdimtricp/cineck/internal/tmdb"
)

// fakeTMDb answers the three endpoints the catalog uses.
//
// Searches for "nothing" return no results and searches for "broken" fail
// with a 500. Movie 404 does not exist.
type fakeTMDb struct {
	mu    sync.Mutex
	calls []string
}

func (f *fakeTMDb) record(r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	call := r.URL.Path
	if q := r.URL.Query().Get("query"); q != "" {
		call += "?query=" + q
	}
	if p := r.URL.Query().Get("page"); p != "" {
		call += "&page=" + p
	}
	f.calls = append(f.calls, call)
}

func (f *fakeTMDb) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeTMDb) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.record(r)
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}

	switch {
	case r.URL.Path == "/discover/movie":
		writeTestJSON(w, http.StatusOK, tmdb.ResultPage{
			Page:       page,
			TotalPages: 500,
			Results: []tmdb.MovieSummary{
				{ID: 1000 + page, Title: "Popular " + strconv.Itoa(page), VoteAverage: 7.3, ReleaseDate: "2024-03-01", OriginalLanguage: "en"},
			},
		})

	case r.URL.Path == "/search/movie":
		query := r.URL.Query().Get("query")
		switch query {
		case "nothing":
			writeTestJSON(w, http.StatusOK, tmdb.ResultPage{Page: page})
		case "broken":
			writeTestJSON(w, http.StatusInternalServerError, map[string]any{
				"success": false, "status_code": 11, "status_message": "Internal error.",
			})
		default:
			writeTestJSON(w, http.StatusOK, tmdb.ResultPage{
				Page:       page,
				TotalPages: 2,
				Results: []tmdb.MovieSummary{
					{ID: 268, Title: "Batman", VoteAverage: 7.2, PosterPath: "/batman.jpg", ReleaseDate: "1989-06-23", OriginalLanguage: "en"},
					{ID: 272, Title: "Batman Begins", VoteAverage: 7.7, ReleaseDate: "2005-06-10", OriginalLanguage: "en"},
				},
			})
		}

	case strings.HasPrefix(r.URL.Path, "/movie/"):
		id, _ := strconv.Atoi(strings.TrimPrefix(r.URL.Path, "/movie/"))
		if id == 404 {
			writeTestJSON(w, http.StatusNotFound, map[string]any{
				"success": false, "status_code": 34, "status_message": "The resource you requested could not be found.",
			})
			return
		}
		writeTestJSON(w, http.StatusOK, tmdb.MovieDetails{
			ID:            id,
			Title:         "The Matrix",
			OriginalTitle: "The Matrix",
			Tagline:       "Welcome to the Real World.",
			Overview:      "A hacker learns the truth.",
			Status:        "Released",
			ReleaseDate:   "1999-03-30",
			Runtime:       136,
			VoteAverage:   8.2,
			VoteCount:     26000,
			PosterPath:    "/matrix.jpg",
			Budget:        63000000,
			Revenue:       463517383,
			Genres:        []tmdb.Genre{{ID: 28, Name: "Action"}, {ID: 878, Name: "Science Fiction"}},
			SpokenLanguages: []tmdb.SpokenLanguage{
				{ISO639: "en", EnglishName: "English", Name: "English"},
			},
		})

	default:
		http.NotFound(w, r)
	}
}

func writeTestJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

type TestServer struct {
	Server   *httptest.Server
	TMDb     *fakeTMDb
	App      *App
	Repo     *database.SearchCountRepo
	Recorder *analytics.Recorder
	Cache    *querycache.Cache
}

func setupTestServer(t *testing.T) *TestServer {
	t.Helper()

	fake := &fakeTMDb{}
	upstream := httptest.NewServer(fake)
	t.Cleanup(upstream.Close)

	db, err := database.NewDB(database.Config{
		Type:       database.TypeSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "test.db"),
	})
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.RunMigrations(); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	repo := database.NewSearchCountRepo(db)
	recorder := analytics.NewRecorder(repo)
	cache := querycache.New(querycache.Options{})
	client := tmdb.NewClient(upstream.URL, "test-token", tmdb.WithRateLimit(0, 0))
	cat := catalog.New(client, cache, recorder, analytics.NewTrending(repo, analytics.DefaultTrendingLimit), catalog.Config{})

	app, err := NewApp(cat, browse.Options{Debounce: 50 * time.Millisecond})
	if err != nil {
		t.Fatalf("Failed to create app: %v", err)
	}

	server := httptest.NewServer(NewRouter(app))
	t.Cleanup(func() {
		server.Close()
		recorder.Wait()
		cache.Wait()
	})

	return &TestServer{
		Server:   server,
		TMDb:     fake,
		App:      app,
		Repo:     repo,
		Recorder: recorder,
		Cache:    cache,
	}
}

func (ts *TestServer) get(t *testing.T, path string) (*http.Response, string) {
	t.Helper()

	resp, err := http.Get(ts.Server.URL + path)
	if err != nil {
		t.Fatalf("GET %s failed: %v", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("Failed to read body: %v", err)
	}
	return resp, string(body)
}
