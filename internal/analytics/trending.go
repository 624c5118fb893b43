package analytics

import (
	"context"

	"github.com/kdimtricp/cineck/internal/models"
)

const DefaultTrendingLimit = 5

type TopLister interface {
	Top(ctx context.Context, limit int) ([]models.SearchCount, error)
}

// Trending reads the most counted search terms.
type Trending struct {
	store TopLister
	limit int
}

func NewTrending(store TopLister, limit int) *Trending {
	if limit <= 0 {
		limit = DefaultTrendingLimit
	}
	return &Trending{store: store, limit: limit}
}

func (t *Trending) List(ctx context.Context) ([]models.SearchCount, error) {
	return t.store.Top(ctx, t.limit)
}
