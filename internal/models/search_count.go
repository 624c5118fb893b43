package models

import (
	"time"

	"github.com/google/uuid"
)

// SearchCount tracks how often a search term led somewhere, together with the
// movie shown for it on the trending strip.
type SearchCount struct {
	ID         string    `json:"id"`
	SearchTerm string    `json:"search_term"`
	Count      int64     `json:"count"`
	MovieID    int       `json:"movie_id"`
	Title      string    `json:"title"`
	PosterURL  string    `json:"poster_url"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func NewSearchCount(term string, movieID int, title, posterURL string) *SearchCount {
	now := time.Now().UTC()
	return &SearchCount{
		ID:         uuid.New().String(),
		SearchTerm: term,
		Count:      1,
		MovieID:    movieID,
		Title:      title,
		PosterURL:  posterURL,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}
