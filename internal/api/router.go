package api

import (
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(app *App) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/", app.HomeHandler)
	r.Get("/movie/{id}", app.MovieHandler)
	r.Get("/ping", PingHandler)

	r.Route("/api", func(r chi.Router) {
		r.Get("/movies", app.ListMoviesHandler)
		r.Get("/movies/{id}", app.GetMovieHandler)
		r.Get("/trending", app.TrendingHandler)
	})

	r.Get("/ws/browse", app.BrowseSocketHandler)

	static, err := fs.Sub(webFS, "web/static")
	if err != nil {
		panic(err)
	}
	r.Handle("/static/*", http.StripPrefix("/static", http.FileServer(http.FS(static))))

	r.NotFound(app.NotFoundHandler)

	return r
}
