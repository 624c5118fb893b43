// Package catalog decides which TMDb resource answers a browse request and
// serves every answer through the shared query cache.
package catalog

import (
	"context"
	"log"
	"strconv"
	"time"

	"github.com/kdimtricp/cineck/internal/analytics"
	"github.com/kdimtricp/cineck/internal/models"
	"github.com/kdimtricp/cineck/internal/querycache"
	"github.com/kdimtricp/cineck/internal/tmdb"
)

// Cache groups.
const (
	GroupMovies   = "movies"
	GroupMovie    = "movie"
	GroupTrending = "trending"
)

type MovieSource interface {
	Discover(ctx context.Context, page int) (*tmdb.ResultPage, error)
	Search(ctx context.Context, query string, page int) (*tmdb.ResultPage, error)
	Movie(ctx context.Context, id int) (*tmdb.MovieDetails, error)
}

type SearchRecorder interface {
	RecordAsync(term string, rep analytics.Representative)
}

type TrendingLister interface {
	List(ctx context.Context) ([]models.SearchCount, error)
}

// Query identifies one page of browse results. An empty Term means the
// popularity listing.
type Query struct {
	Term string
	Page int
}

func (q Query) normalize() Query {
	if q.Page < 1 {
		q.Page = 1
	}
	return q
}

// Key is the cache key for q. The page comes first so that any term,
// separators included, maps to a distinct name.
func (q Query) Key() querycache.Key {
	q = q.normalize()
	return querycache.Key{Group: GroupMovies, Name: strconv.Itoa(q.Page) + "|" + q.Term}
}

type Config struct {
	// StaleTime applies to result pages and trending; zero means 24h.
	StaleTime time.Duration
}

type Catalog struct {
	source    MovieSource
	cache     *querycache.Cache
	recorder  SearchRecorder
	trending  TrendingLister
	staleTime time.Duration
}

func New(source MovieSource, cache *querycache.Cache, recorder SearchRecorder, trending TrendingLister, cfg Config) *Catalog {
	if cfg.StaleTime <= 0 {
		cfg.StaleTime = querycache.DefaultStaleTime
	}
	return &Catalog{
		source:    source,
		cache:     cache,
		recorder:  recorder,
		trending:  trending,
		staleTime: cfg.StaleTime,
	}
}

// Movies returns one page of search results, or of the popularity listing
// when q.Term is empty.
func (c *Catalog) Movies(ctx context.Context, q Query) (*tmdb.ResultPage, error) {
	return querycache.Fetch(ctx, c.cache, c.moviesQuery(q))
}

// ReloadMovies fetches q from TMDb even if a fresh page is cached, and
// caches the result.
func (c *Catalog) ReloadMovies(ctx context.Context, q Query) (*tmdb.ResultPage, error) {
	return querycache.Refetch(ctx, c.cache, c.moviesQuery(q))
}

func (c *Catalog) moviesQuery(q Query) querycache.Query[*tmdb.ResultPage] {
	q = q.normalize()
	return querycache.Query[*tmdb.ResultPage]{
		Key:       q.Key(),
		StaleTime: c.staleTime,
		Fn: func(ctx context.Context) (*tmdb.ResultPage, error) {
			return c.fetchMovies(ctx, q)
		},
	}
}

func (c *Catalog) fetchMovies(ctx context.Context, q Query) (*tmdb.ResultPage, error) {
	var page *tmdb.ResultPage
	var err error
	if q.Term != "" {
		page, err = c.source.Search(ctx, q.Term, q.Page)
	} else {
		page, err = c.source.Discover(ctx, q.Page)
	}
	if err != nil {
		log.Printf("[CATALOG] Fetching %q page %d failed: %v", q.Term, q.Page, err)
		return nil, err
	}

	if q.Term != "" && len(page.Results) > 0 {
		c.record(q.Term, analytics.RepresentativeOf(page.Results[0]))
	}
	return page, nil
}

// Movie returns the details of one movie. Details never go stale on their own.
func (c *Catalog) Movie(ctx context.Context, id int) (*tmdb.MovieDetails, error) {
	return querycache.Fetch(ctx, c.cache, querycache.Query[*tmdb.MovieDetails]{
		Key:       querycache.Key{Group: GroupMovie, Name: strconv.Itoa(id)},
		StaleTime: querycache.NeverStale,
		Fn: func(ctx context.Context) (*tmdb.MovieDetails, error) {
			details, err := c.source.Movie(ctx, id)
			if err != nil {
				log.Printf("[CATALOG] Fetching movie %d failed: %v", id, err)
				return nil, err
			}
			// Opening a movie counts as a search for its title.
			c.record(details.Title, analytics.Representative{
				MovieID:    details.ID,
				Title:      details.Title,
				PosterPath: details.PosterPath,
			})
			return details, nil
		},
	})
}

// Trending returns the most searched terms, most counted first.
func (c *Catalog) Trending(ctx context.Context) ([]models.SearchCount, error) {
	return querycache.Fetch(ctx, c.cache, querycache.Query[[]models.SearchCount]{
		Key:       querycache.Key{Group: GroupTrending, Name: "top"},
		StaleTime: c.staleTime,
		Fn:        c.trending.List,
	})
}

// Invalidate marks every cached entry of group stale.
func (c *Catalog) Invalidate(group string) int {
	return c.cache.Invalidate(group)
}

// Status reports the cache status of q's page.
func (c *Catalog) Status(q Query) (querycache.State, bool) {
	return c.cache.State(q.Key())
}

func (c *Catalog) record(term string, rep analytics.Representative) {
	if c.recorder == nil || term == "" {
		return
	}
	c.recorder.RecordAsync(term, rep)
}
