package browse

import (
	"fmt"

	"github.com/kdimtricp/cineck/internal/catalog"
	"github.com/kdimtricp/cineck/internal/tmdb"
)

type Status int

const (
	StatusPending Status = iota
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(text []byte) error {
	switch string(text) {
	case "pending":
		*s = StatusPending
	case "success":
		*s = StatusSuccess
	case "error":
		*s = StatusError
	default:
		return fmt.Errorf("unknown status %q", text)
	}
	return nil
}

// FetchFailedMessage is the only error text a browser ever sees.
const FetchFailedMessage = "Failed to fetch movies"

// State is a snapshot of a session. Results belong to the key
// (DebouncedTerm, Page) and are never from an older key.
type State struct {
	RawTerm         string              `json:"raw_term"`
	DebouncedTerm   string              `json:"debounced_term"`
	Page            int                 `json:"page"`
	TotalPages      int                 `json:"total_pages"`
	TotalPagesKnown bool                `json:"total_pages_known"`
	Status          Status              `json:"status"`
	Results         []tmdb.MovieSummary `json:"results"`
	Err             string              `json:"error,omitempty"`
	Version         uint64              `json:"version"`
}

// Query is the fetch key the state currently asks for.
func (s State) Query() catalog.Query {
	return catalog.Query{Term: s.DebouncedTerm, Page: s.Page}
}
