package mcp

import (
	"bytes"
	"context"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/vijay-prabhu/tageval/internal/database"
	"github.com/vijay-prabhu/tageval/internal/filter"
	"github.com/vijay-prabhu/tageval/internal/output"
	"github.com/vijay-prabhu/tageval/internal/profile"
	"github.com/vijay-prabhu/tageval/internal/source"
)

func (s *Server) registerHandlers() {
	s.handlers["search_posts"] = s.handleSearchPosts
	s.handlers["tag_weights"] = s.handleTagWeights
	s.handlers["profile_stats"] = s.handleProfileStats
	s.handlers["update_profile"] = s.handleUpdateProfile
	s.handlers["search_history"] = s.handleSearchHistory
	s.handlers["get_search"] = s.handleGetSearch
}

// decodeParams tolerates absent arguments
func decodeParams(params json.RawMessage, v interface{}) error {
	if len(params) == 0 || string(params) == "null" {
		return nil
	}
	if err := json.Unmarshal(params, v); err != nil {
		return fmt.Errorf("invalid parameters: %w", err)
	}
	return nil
}

type searchPostsParams struct {
	Query      string `json:"query"`
	Pages      *int   `json:"pages"`
	Limit      *int   `json:"limit"`
	HideSeen   bool   `json:"hide_seen"`
	Unfiltered bool   `json:"unfiltered"`
}

type searchPostsResult struct {
	SearchID string              `json:"search_id,omitempty"`
	Query    string              `json:"query"`
	Posts    []output.RankedPost `json:"posts"`
}

func (s *Server) handleSearchPosts(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var p searchPostsParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}

	if p.Query == "" {
		return nil, fmt.Errorf("query is required")
	}

	opts := profile.SearchOptions{
		PageLimit:      s.config.Search.PageLimit,
		ExcludeReacted: s.config.Search.ExcludeReacted || p.HideSeen,
		Limit:          s.config.Search.Limit,
	}
	if p.Pages != nil {
		if *p.Pages < 1 || *p.Pages > source.MaxPageLimit {
			return nil, fmt.Errorf("pages must be between 1 and %d", source.MaxPageLimit)
		}
		opts.PageLimit = *p.Pages
	}
	if p.Limit != nil {
		if *p.Limit < 0 {
			return nil, fmt.Errorf("limit must not be negative")
		}
		opts.Limit = *p.Limit
	}

	if !p.Unfiltered {
		blacklist, err := filter.New(s.config.Search.Blacklist)
		if err != nil {
			return nil, err
		}
		if blacklist.Len() > 0 {
			opts.Exclude = blacklist.Hides
		}
	}

	ranked, err := s.profile.Search(ctx, p.Query, opts)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	result := searchPostsResult{
		Query: p.Query,
		Posts: output.NewRankedPosts(s.config.Source.BaseURL, ranked),
	}

	if s.config.Search.RecordHistory {
		rec := &database.Search{Query: p.Query, PageLimit: opts.PageLimit}
		if err := s.db.RecordSearch(ctx, rec, database.NewSearchResults(ranked)); err != nil {
			s.log.Warn().Err(err).Msg("failed to record search")
		} else {
			result.SearchID = rec.ID
		}
	}

	return result, nil
}

type tagWeightsParams struct {
	Top    *int `json:"top"`
	Bottom bool `json:"bottom"`
}

func (s *Server) handleTagWeights(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var p tagWeightsParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}

	top := 20
	if p.Top != nil {
		top = *p.Top
	}

	return profile.SelectWeights(s.profile.TagWeights(), top, p.Bottom), nil
}

func (s *Server) handleProfileStats(ctx context.Context, params json.RawMessage) (interface{}, error) {
	info, err := s.db.GetProfileInfo(ctx)
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}

	return output.NewProfileStats(s.profile.Stats(), s.profile.Credentials().Username, info.UpdatedAt), nil
}

func (s *Server) handleUpdateProfile(ctx context.Context, params json.RawMessage) (interface{}, error) {
	result, err := s.profile.Update(ctx)
	if err != nil {
		return nil, fmt.Errorf("update failed: %w", err)
	}

	if err := s.db.SaveTables(ctx, s.profile.Tables()); err != nil {
		return nil, fmt.Errorf("failed to save profile: %w", err)
	}
	if err := s.db.SaveRawPosts(ctx, s.profile.Dump()); err != nil {
		return nil, fmt.Errorf("failed to cache posts: %w", err)
	}

	return result, nil
}

type searchHistoryParams struct {
	Limit int `json:"limit"`
}

func (s *Server) handleSearchHistory(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var p searchHistoryParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}

	if p.Limit <= 0 {
		p.Limit = 20
	}

	searches, err := s.db.ListSearches(ctx, p.Limit)
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if searches == nil {
		searches = []database.Search{}
	}

	return searches, nil
}

type getSearchParams struct {
	ID string `json:"id"`
}

type searchWithResults struct {
	Search  *database.Search        `json:"search"`
	Results []database.SearchResult `json:"results"`
}

func (s *Server) handleGetSearch(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var p getSearchParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}

	if p.ID == "" {
		return nil, fmt.Errorf("id is required")
	}

	all, err := s.db.ListSearches(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}

	search, err := database.FindSearch(all, p.ID)
	if err != nil {
		return nil, err
	}

	results, err := s.db.GetSearchResults(ctx, search.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get search results: %w", err)
	}
	if results == nil {
		results = []database.SearchResult{}
	}

	return searchWithResults{Search: search, Results: results}, nil
}

// Resource handlers

func (s *Server) handleReadResource(ctx context.Context, uri string) (string, error) {
	var buf bytes.Buffer
	var err error

	switch uri {
	case resourceStats:
		err = output.TableTo(&buf, s.profile.Stats())
	case resourceLiked:
		err = output.TableTo(&buf, profile.SelectWeights(s.profile.TagWeights(), 20, false))
	case resourceDisliked:
		err = output.TableTo(&buf, profile.SelectWeights(s.profile.TagWeights(), 20, true))
	case resourceHistory:
		err = s.writeHistory(ctx, &buf)
	default:
		return "", fmt.Errorf("unknown resource: %s", uri)
	}

	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (s *Server) writeHistory(ctx context.Context, buf *bytes.Buffer) error {
	searches, err := s.db.ListSearches(ctx, 10)
	if err != nil {
		return err
	}

	if len(searches) == 0 {
		buf.WriteString("No searches recorded yet.\n")
		return nil
	}

	return output.TableTo(buf, searches)
}
