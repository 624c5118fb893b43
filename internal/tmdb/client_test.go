package tmdb

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(server.URL, "test-token", WithRateLimit(0, 0))
}

func TestClient_Discover(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/discover/movie" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("sort_by"); got != "popularity.desc" {
			t.Errorf("sort_by = %q", got)
		}
		if got := r.URL.Query().Get("page"); got != "2" {
			t.Errorf("page = %q", got)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("Authorization = %q", got)
		}
		w.Write([]byte(`{"page":2,"total_pages":500,"total_results":10000,"results":[{"id":603,"title":"The Matrix","vote_average":8.2,"poster_path":null,"release_date":"1999-03-30","original_language":"en"}]}`))
	})

	page, err := client.Discover(context.Background(), 2)
	if err != nil {
		t.Fatalf("Discover failed: %v", err)
	}
	if page.TotalPages != 500 {
		t.Errorf("Expected 500 total pages, got %d", page.TotalPages)
	}
	if len(page.Results) != 1 || page.Results[0].ID != 603 {
		t.Fatalf("unexpected results: %+v", page.Results)
	}
	if page.Results[0].PosterPath != "" {
		t.Errorf("Expected null poster to decode empty, got %q", page.Results[0].PosterPath)
	}
}

func TestClient_Search(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search/movie" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("query"); got != "batman & robin" {
			t.Errorf("query = %q", got)
		}
		if got := r.URL.Query().Get("page"); got != "1" {
			t.Errorf("page = %q", got)
		}
		w.Write([]byte(`{"page":1,"total_pages":1,"total_results":0,"results":[]}`))
	})

	page, err := client.Search(context.Background(), "batman & robin", 0)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(page.Results) != 0 {
		t.Errorf("Expected no results, got %d", len(page.Results))
	}
}

func TestClient_Movie(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/movie/603" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("language"); got != "en-US" {
			t.Errorf("language = %q", got)
		}
		w.Write([]byte(`{"id":603,"title":"The Matrix","original_title":"The Matrix","runtime":136,"budget":63000000,"genres":[{"id":28,"name":"Action"}],"spoken_languages":[{"iso_639_1":"en","english_name":"English","name":"English"}]}`))
	})

	movie, err := client.Movie(context.Background(), 603)
	if err != nil {
		t.Fatalf("Movie failed: %v", err)
	}
	if movie.Runtime != 136 || movie.Budget != 63000000 {
		t.Errorf("unexpected details: %+v", movie)
	}
	if len(movie.Genres) != 1 || movie.Genres[0].Name != "Action" {
		t.Errorf("unexpected genres: %+v", movie.Genres)
	}
}

func TestClient_Failures(t *testing.T) {
	tests := []struct {
		name         string
		status       int
		body         string
		expectedKind ErrorKind
		notFound     bool
	}{
		{
			name:         "server error",
			status:       http.StatusInternalServerError,
			body:         "oops",
			expectedKind: KindStatus,
		},
		{
			name:         "unauthorized",
			status:       http.StatusUnauthorized,
			body:         `{"success":false,"status_code":7,"status_message":"Invalid API key"}`,
			expectedKind: KindStatus,
		},
		{
			name:         "not found",
			status:       http.StatusNotFound,
			body:         `{"success":false,"status_code":34,"status_message":"The resource you requested could not be found."}`,
			expectedKind: KindStatus,
			notFound:     true,
		},
		{
			name:         "payload failure flag",
			status:       http.StatusOK,
			body:         `{"success":false,"status_code":6,"status_message":"Invalid id"}`,
			expectedKind: KindPayload,
		},
		{
			name:         "legacy Response flag",
			status:       http.StatusOK,
			body:         `{"Response":"false"}`,
			expectedKind: KindPayload,
		},
		{
			name:         "malformed body",
			status:       http.StatusOK,
			body:         `{"results": "nope"`,
			expectedKind: KindDecode,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			_, err := client.Movie(context.Background(), 1)
			if err == nil {
				t.Fatal("Expected error")
			}
			if !errors.Is(err, ErrFetchFailed) {
				t.Errorf("Expected ErrFetchFailed, got %v", err)
			}
			if errors.Is(err, ErrNotFound) != tt.notFound {
				t.Errorf("errors.Is(err, ErrNotFound) = %v, expected %v", !tt.notFound, tt.notFound)
			}

			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("Expected *APIError, got %T", err)
			}
			if apiErr.Kind != tt.expectedKind {
				t.Errorf("Expected kind %s, got %s", tt.expectedKind, apiErr.Kind)
			}
		})
	}
}

func TestClient_TransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client := NewClient(url, "token", WithRateLimit(0, 0))
	_, err := client.Discover(context.Background(), 1)

	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Kind != KindTransport {
		t.Fatalf("Expected transport error, got %v", err)
	}
	if !errors.Is(err, ErrFetchFailed) {
		t.Errorf("Expected ErrFetchFailed, got %v", err)
	}
}

func TestClient_ContextCancellation(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results":[]}`))
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := client.Search(ctx, "test movie", 1); err == nil {
		t.Error("Expected error when context is cancelled")
	}
}

func TestImageURL(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		size     string
		expected string
	}{
		{
			name:     "valid poster path",
			path:     "/8Vt6mWEReuy4Of61Lnj5Xj704m8.jpg",
			size:     "w500",
			expected: "https://image.tmdb.org/t/p/w500/8Vt6mWEReuy4Of61Lnj5Xj704m8.jpg",
		},
		{
			name:     "empty path",
			path:     "",
			size:     "w500",
			expected: "",
		},
		{
			name:     "original size",
			path:     "/poster.jpg",
			size:     "original",
			expected: "https://image.tmdb.org/t/p/original/poster.jpg",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ImageURL(tt.path, tt.size)
			if result != tt.expected {
				t.Errorf("ImageURL(%q, %q) = %q, expected %q",
					tt.path, tt.size, result, tt.expected)
			}
		})
	}
}
