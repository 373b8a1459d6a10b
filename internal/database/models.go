package database

import (
	"fmt"
	"strings"
	"time"

	"github.com/vijay-prabhu/tageval/internal/profile"
)

// Search is a recorded search run
type Search struct {
	ID          string    `json:"id"`
	Query       string    `json:"query"`
	PageLimit   int       `json:"page_limit"`
	ResultCount int       `json:"result_count"`
	CreatedAt   time.Time `json:"created_at"`
}

// SearchResult is one ranked post of a recorded search
type SearchResult struct {
	Rank   int     `json:"rank"`
	PostID uint32  `json:"post_id"`
	Score  float32 `json:"score"`
}

// ProfileInfo describes the saved profile
type ProfileInfo struct {
	UpdatedAt time.Time `json:"updated_at"`
	Tags      int       `json:"tags"`
	Reactions int       `json:"reactions"`
}

// boolToInt stores flags as 0/1 columns
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// NewSearchResults numbers a ranking for storage, best first
func NewSearchResults(ranked []profile.EvaluatedPost) []SearchResult {
	results := make([]SearchResult, 0, len(ranked))
	for i, r := range ranked {
		results = append(results, SearchResult{
			Rank:   i + 1,
			PostID: r.Post.ID,
			Score:  r.Score,
		})
	}
	return results
}

// FindSearch resolves a search id or unique id prefix
func FindSearch(searches []Search, id string) (*Search, error) {
	var match *Search
	for i := range searches {
		if searches[i].ID == id {
			return &searches[i], nil
		}
		if strings.HasPrefix(searches[i].ID, id) {
			if match != nil {
				return nil, fmt.Errorf("search id prefix %q is ambiguous", id)
			}
			match = &searches[i]
		}
	}
	if match == nil {
		return nil, fmt.Errorf("no search with id %q", id)
	}
	return match, nil
}
