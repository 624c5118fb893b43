package tmdb

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/joho/godotenv"
)

func init() {
	envPath := filepath.Join("..", "..", ".env")
	_ = godotenv.Load(envPath)
}

func liveClient(t *testing.T) *Client {
	t.Helper()
	apiKey := os.Getenv("TMDB_API_KEY")
	if apiKey == "" {
		t.Skip("Skipping TMDb integration test: TMDB_API_KEY not set")
	}
	return NewClient(os.Getenv("API_BASE_URL"), apiKey)
}

func TestClient_Live_Search(t *testing.T) {
	client := liveClient(t)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	page, err := client.Search(ctx, "The Matrix", 1)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(page.Results) == 0 {
		t.Fatal("Expected at least one movie result, got none")
	}

	first := page.Results[0]
	t.Logf("First result: %s (ID: %d, Release: %s, Rating: %.1f)",
		first.Title, first.ID, first.ReleaseDate, first.VoteAverage)

	if first.ID == 0 {
		t.Error("Expected first result to have a non-zero ID")
	}
}

func TestClient_Live_Discover(t *testing.T) {
	client := liveClient(t)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	page, err := client.Discover(ctx, 1)
	if err != nil {
		t.Fatalf("Discover failed: %v", err)
	}
	if page.TotalPages == 0 {
		t.Error("Expected total_pages to be reported")
	}
}

func TestClient_Live_Movie(t *testing.T) {
	client := liveClient(t)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	movie, err := client.Movie(ctx, 603)
	if err != nil {
		t.Fatalf("Movie failed: %v", err)
	}
	if movie.ID != 603 {
		t.Errorf("Expected film ID to be 603, got %d", movie.ID)
	}

	t.Logf("Film: %s (%s), runtime %d minutes", movie.Title, movie.ReleaseDate, movie.Runtime)

	if len(movie.Genres) == 0 {
		t.Error("Expected film to have genres")
	}
}
