package source

import (
	"context"
	"errors"
)

// DefaultPageLimit is the number of pages fetched when a query does not set one
const DefaultPageLimit = 32

// MaxPageLimit is the largest page limit a query may request
const MaxPageLimit = 255

var (
	// ErrFetch marks any failure to obtain posts (connectivity, auth, bad payload)
	ErrFetch = errors.New("fetch failed")

	// ErrUnauthorized marks a rejected username/API token pair
	ErrUnauthorized = errors.New("unauthorized")
)

// Source defines the capability of producing raw posts for a tag query.
// Implementations paginate transparently and must never turn a failure into
// an empty result.
type Source interface {
	// Name returns the transport identifier
	Name() string

	// Fetch retrieves every post matching the query, up to the page limit
	Fetch(ctx context.Context, q Query) ([]RawPost, error)
}

// Credentials are passed through unmodified to the transport
type Credentials struct {
	Username string
	APIToken string
}

// IsZero reports whether no credentials were provided
func (c Credentials) IsZero() bool {
	return c.Username == "" && c.APIToken == ""
}

// Query describes one fetch
type Query struct {
	Tags        string      // Board tag query, e.g. "fav:someone"
	Credentials Credentials // Forwarded to the transport
	PageLimit   int         // 0 means DefaultPageLimit
}

// Pages returns the effective page limit for the query
func (q Query) Pages() int {
	switch {
	case q.PageLimit <= 0:
		return DefaultPageLimit
	case q.PageLimit > MaxPageLimit:
		return MaxPageLimit
	default:
		return q.PageLimit
	}
}

// RawPost is a post as delivered by a transport, before tag ids are assigned
type RawPost struct {
	ID          uint32   `json:"id"`
	Tags        []string `json:"tags"`
	IsUpvoted   bool     `json:"is_up"`
	IsFavorited bool     `json:"is_fav"`
}

// Progress reports pagination progress of a fetch
type Progress struct {
	Query string
	Page  int // Page about to be requested, 1-based
	Limit int
	Posts int // Posts collected so far
}

// ProgressCallback is called before each page request
type ProgressCallback func(Progress)
