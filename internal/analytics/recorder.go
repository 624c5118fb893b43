// Package analytics counts which searches lead to results. Recording is best
// effort: failures are logged and never reach the user.
package analytics

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/kdimtricp/cineck/internal/database"
	"github.com/kdimtricp/cineck/internal/models"
	"github.com/kdimtricp/cineck/internal/tmdb"
)

const (
	defaultRecordTimeout = 10 * time.Second
	posterSize           = "w500"
)

// Store is the subset of the search count repository the recorder needs.
type Store interface {
	FindByTerm(ctx context.Context, term string) (*models.SearchCount, error)
	Create(ctx context.Context, sc *models.SearchCount) error
	Increment(ctx context.Context, id string) error
}

// Representative is the movie shown for a search term on the trending strip.
type Representative struct {
	MovieID    int
	Title      string
	PosterPath string
}

func RepresentativeOf(m tmdb.MovieSummary) Representative {
	return Representative{MovieID: m.ID, Title: m.Title, PosterPath: m.PosterPath}
}

type Recorder struct {
	store   Store
	timeout time.Duration
	pending sync.WaitGroup
}

func NewRecorder(store Store) *Recorder {
	return &Recorder{store: store, timeout: defaultRecordTimeout}
}

// Record increments the counter for term, creating it with the
// representative movie on first use. The term is matched exactly.
func (r *Recorder) Record(ctx context.Context, term string, rep Representative) error {
	if strings.TrimSpace(term) == "" {
		return nil
	}

	existing, err := r.store.FindByTerm(ctx, term)
	switch {
	case err == nil:
		return r.increment(ctx, existing.ID, term)
	case !errors.Is(err, database.ErrNotFound):
		return fmt.Errorf("looking up search term %q: %w", term, err)
	}

	sc := models.NewSearchCount(term, rep.MovieID, rep.Title, tmdb.ImageURL(rep.PosterPath, posterSize))
	err = r.store.Create(ctx, sc)
	if errors.Is(err, database.ErrDuplicate) {
		// Another request created the term between our lookup and insert.
		existing, err = r.store.FindByTerm(ctx, term)
		if err != nil {
			return fmt.Errorf("looking up search term %q: %w", term, err)
		}
		return r.increment(ctx, existing.ID, term)
	}
	if err != nil {
		return fmt.Errorf("creating search term %q: %w", term, err)
	}
	return nil
}

func (r *Recorder) increment(ctx context.Context, id, term string) error {
	if err := r.store.Increment(ctx, id); err != nil {
		return fmt.Errorf("incrementing search term %q: %w", term, err)
	}
	return nil
}

// RecordAsync records in the background. The caller never waits and never
// sees an error.
func (r *Recorder) RecordAsync(term string, rep Representative) {
	r.pending.Add(1)
	go func() {
		defer r.pending.Done()

		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()

		if err := r.Record(ctx, term, rep); err != nil {
			log.Printf("[ANALYTICS] Failed to record search %q: %v", term, err)
		}
	}()
}

// Wait blocks until every RecordAsync call made so far has finished.
func (r *Recorder) Wait() {
	r.pending.Wait()
}
