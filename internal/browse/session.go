// Package browse holds the per-visitor search and pagination state.
//
// Each Session owns its state on a single goroutine: mutators post events to
// it and every change is published as a State snapshot. Raw query text is
// debounced (trailing edge) before it becomes the fetch key, a new debounced
// query resets the page to 1, and a fetch result is applied only if its key is
// still the current one when it arrives.
package browse

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kdimtricp/cineck/internal/catalog"
	"github.com/kdimtricp/cineck/internal/tmdb"
)

const (
	DefaultDebounce     = 800 * time.Millisecond
	defaultUpdateBuffer = 16
)

var (
	ErrInvalidPage   = errors.New("page must be 1 or greater")
	ErrSessionClosed = errors.New("session closed")
)

type Fetcher interface {
	Movies(ctx context.Context, q catalog.Query) (*tmdb.ResultPage, error)
}

// Invalidator is implemented by fetchers whose results can be marked stale.
type Invalidator interface {
	Invalidate(group string) int
}

// Reloader is implemented by fetchers that can bypass their cache.
type Reloader interface {
	ReloadMovies(ctx context.Context, q catalog.Query) (*tmdb.ResultPage, error)
}

type Options struct {
	Debounce     time.Duration
	UpdateBuffer int

	// Term and Page seed the first fetch key. Term skips the debounce and a
	// Page below 1 means 1.
	Term string
	Page int
}

type Session struct {
	ID string

	fetcher  Fetcher
	debounce time.Duration

	events  chan event
	updates chan State
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}

	closeOnce sync.Once

	mu       sync.RWMutex
	snapshot State

	// Owned by the run goroutine.
	state       State
	timer       *time.Timer
	debounceGen uint64
}

type event interface{}

type (
	setQueryEvent      struct{ term string }
	setPageEvent       struct{ page int }
	refreshEvent       struct{}
	debounceFiredEvent struct{ gen uint64 }
	fetchDoneEvent     struct {
		query catalog.Query
		page  *tmdb.ResultPage
		err   error
	}
)

// NewSession starts a session and its first fetch. Without a seed that is the
// popularity listing, page 1.
func NewSession(fetcher Fetcher, opts Options) *Session {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.UpdateBuffer <= 0 {
		opts.UpdateBuffer = defaultUpdateBuffer
	}
	if opts.Page < 1 {
		opts.Page = 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		ID:       uuid.New().String(),
		fetcher:  fetcher,
		debounce: opts.Debounce,
		events:   make(chan event),
		updates:  make(chan State, opts.UpdateBuffer),
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
		state: State{
			RawTerm:       opts.Term,
			DebouncedTerm: opts.Term,
			Page:          opts.Page,
			Status:        StatusPending,
		},
	}
	s.snapshot = s.state

	go s.run()
	return s
}

// SetQuery replaces the raw query text. Nothing else changes until the text
// has been stable for the debounce delay.
func (s *Session) SetQuery(term string) error {
	return s.post(setQueryEvent{term: term})
}

// SetPage moves to page, clamped to the known page count. The query is kept.
func (s *Session) SetPage(page int) error {
	if page < 1 {
		return ErrInvalidPage
	}
	return s.post(setPageEvent{page: page})
}

// Refresh marks cached result pages stale and reloads the current key from
// the network.
func (s *Session) Refresh() error {
	return s.post(refreshEvent{})
}

// State returns the latest published snapshot.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// Updates delivers every published snapshot. When the reader falls behind the
// oldest snapshots are dropped; the newest is always delivered. The channel is
// closed when the session closes.
func (s *Session) Updates() <-chan State {
	return s.updates
}

// Close stops the session. Fetches already in flight finish in the
// background and their results are discarded.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.cancel()
		<-s.done
	})
}

// Done is closed once the session has stopped.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

func (s *Session) post(ev event) error {
	select {
	case s.events <- ev:
		return nil
	case <-s.ctx.Done():
		return ErrSessionClosed
	}
}

func (s *Session) run() {
	defer close(s.done)
	defer close(s.updates)

	s.startFetch(false)

	for {
		select {
		case ev := <-s.events:
			s.handle(ev)
		case <-s.ctx.Done():
			if s.timer != nil {
				s.timer.Stop()
			}
			return
		}
	}
}

func (s *Session) handle(ev event) {
	switch ev := ev.(type) {
	case setQueryEvent:
		if ev.term == s.state.RawTerm {
			return
		}
		s.state.RawTerm = ev.term
		s.restartDebounce()
		s.publish()

	case debounceFiredEvent:
		if ev.gen != s.debounceGen {
			return
		}
		s.timer = nil
		if s.state.RawTerm == s.state.DebouncedTerm {
			return
		}
		s.state.DebouncedTerm = s.state.RawTerm
		s.state.Page = 1
		s.startFetch(false)

	case setPageEvent:
		page := ev.page
		if s.state.TotalPagesKnown && s.state.TotalPages > 0 && page > s.state.TotalPages {
			page = s.state.TotalPages
		}
		if page == s.state.Page {
			return
		}
		s.state.Page = page
		s.startFetch(false)

	case refreshEvent:
		if inv, ok := s.fetcher.(Invalidator); ok {
			inv.Invalidate(catalog.GroupMovies)
		}
		s.startFetch(true)

	case fetchDoneEvent:
		if ev.query != s.state.Query() {
			// An abandoned key; a newer fetch owns the visible state.
			return
		}
		s.apply(ev.page, ev.err)
	}
}

func (s *Session) restartDebounce() {
	if s.timer != nil {
		s.timer.Stop()
	}
	s.debounceGen++
	gen := s.debounceGen
	s.timer = time.AfterFunc(s.debounce, func() {
		_ = s.post(debounceFiredEvent{gen: gen})
	})
}

// startFetch requests the current key. Results are cleared so a pending
// snapshot never shows another key's movies.
func (s *Session) startFetch(reload bool) {
	q := s.state.Query()
	s.state.Status = StatusPending
	s.state.Err = ""
	s.state.Results = nil
	s.publish()

	fetch := s.fetcher.Movies
	if r, ok := s.fetcher.(Reloader); ok && reload {
		fetch = r.ReloadMovies
	}

	go func() {
		page, err := fetch(s.ctx, q)
		_ = s.post(fetchDoneEvent{query: q, page: page, err: err})
	}()
}

func (s *Session) apply(page *tmdb.ResultPage, err error) {
	if err != nil {
		log.Printf("[BROWSE] Session %s: fetching %q page %d failed: %v", s.ID, s.state.DebouncedTerm, s.state.Page, err)
		s.state.Status = StatusError
		s.state.Err = FetchFailedMessage
		s.state.Results = nil
		s.publish()
		return
	}

	s.state.Status = StatusSuccess
	s.state.Err = ""
	s.state.Results = page.Results
	s.state.TotalPages = page.TotalPages
	s.state.TotalPagesKnown = true
	s.publish()
}

func (s *Session) publish() {
	s.state.Version++
	snap := s.state

	s.mu.Lock()
	s.snapshot = snap
	s.mu.Unlock()

	for {
		select {
		case s.updates <- snap:
			return
		default:
			select {
			case <-s.updates:
			default:
			}
		}
	}
}
