package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kdimtricp/cineck/internal/analytics"
	"github.com/kdimtricp/cineck/internal/api"
	"github.com/kdimtricp/cineck/internal/browse"
	"github.com/kdimtricp/cineck/internal/catalog"
	"github.com/kdimtricp/cineck/internal/config"
	"github.com/kdimtricp/cineck/internal/database"
	"github.com/kdimtricp/cineck/internal/querycache"
	"github.com/kdimtricp/cineck/internal/tmdb"
)

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		log.Fatal("Failed to load .env:", err)
	}

	cfg, err := config.Load(os.Getenv("CINECK_CONFIG"))
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal("Invalid configuration: ", err)
	}

	dbConfig := cfg.DatabaseConfig()
	db, err := database.NewDB(dbConfig)
	if err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	defer db.Close()

	log.Printf("Running database migrations")
	if err := db.RunMigrations(); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	repo := database.NewSearchCountRepo(db)
	recorder := analytics.NewRecorder(repo)
	trending := analytics.NewTrending(repo, cfg.TrendingLimit)

	cache := querycache.New(querycache.Options{})
	client := tmdb.NewClient(cfg.APIBaseURL, cfg.APIKey,
		tmdb.WithRateLimit(cfg.RequestsPerSecond, cfg.RequestBurst))
	movies := catalog.New(client, cache, recorder, trending, catalog.Config{
		StaleTime: cfg.StaleTime.Duration,
	})

	app, err := api.NewApp(movies, browse.Options{Debounce: cfg.Debounce.Duration})
	if err != nil {
		log.Fatal("Failed to load templates:", err)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           api.NewRouter(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Printf("Server starting on port %s", cfg.Port)
	log.Printf("TMDb API: %s", cfg.APIBaseURL)
	log.Printf("Database type: %s", dbConfig.Type)
	if dbConfig.Type == database.TypePostgres {
		log.Printf("Database connection: %s@%s:%d/%s", dbConfig.User, dbConfig.Host, dbConfig.Port, dbConfig.Name)
	} else {
		log.Printf("Database path: %s", dbConfig.SQLitePath)
	}
	log.Printf("Cache stale time: %s, search debounce: %s", cfg.StaleTime, cfg.Debounce)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	case <-ctx.Done():
		log.Printf("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Shutdown failed: %v", err)
		}
	}

	// Background refreshes can still record searches, so they finish first.
	// Pending analytics writes then reach the database before it closes.
	cache.Wait()
	recorder.Wait()
}
