package e621

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/vijay-prabhu/tageval/internal/logging"
	"github.com/vijay-prabhu/tageval/internal/source"
)

const (
	defaultBaseURL         = "https://e621.net"
	defaultUserAgent       = "tageval/1.0"
	defaultRequestInterval = 500 * time.Millisecond
	defaultTimeout         = 30 * time.Second
)

// DefaultTagCategories are the tag groups flattened into a post's tag list
var DefaultTagCategories = []string{"general", "species", "character", "artist"}

// Client fetches posts from the e621 JSON API
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	categories []string
	limiter    *rate.Limiter
	progress   source.ProgressCallback
}

// Option configures a Client
type Option func(*Client)

// WithBaseURL sets a custom base URL (for testing or mirrors)
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = u
	}
}

// WithTimeout sets the per-request HTTP timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithUserAgent sets the User-Agent header; the API rejects anonymous agents
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithRequestInterval sets the minimum spacing between two requests.
// Zero disables pacing.
func WithRequestInterval(d time.Duration) Option {
	return func(c *Client) {
		if d <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		c.limiter = rate.NewLimiter(rate.Every(d), 1)
	}
}

// WithTagCategories sets which tag groups are kept, in order
func WithTagCategories(categories []string) Option {
	return func(c *Client) {
		if len(categories) > 0 {
			c.categories = categories
		}
	}
}

// WithProgress registers a callback invoked before each page request
func WithProgress(fn source.ProgressCallback) Option {
	return func(c *Client) {
		c.progress = fn
	}
}

// New creates a new e621 client
func New(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    defaultBaseURL,
		userAgent:  defaultUserAgent,
		categories: DefaultTagCategories,
		limiter:    rate.NewLimiter(rate.Every(defaultRequestInterval), 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name returns the transport identifier
func (c *Client) Name() string {
	return "e621"
}

// Fetch requests pages 1..limit and stops at the first empty page
func (c *Client) Fetch(ctx context.Context, q source.Query) ([]source.RawPost, error) {
	log := logging.With("e621")
	limit := q.Pages()
	posts := []source.RawPost{}

	for page := 1; page <= limit; page++ {
		if c.progress != nil {
			c.progress(source.Progress{Query: q.Tags, Page: page, Limit: limit, Posts: len(posts)})
		}

		// Block until the minimum spacing since the previous request has elapsed
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: %w", source.ErrFetch, err)
		}

		batch, err := c.fetchPage(ctx, q, page)
		if err != nil {
			return nil, err
		}

		log.Debug().Str("query", q.Tags).Int("page", page).Int("posts", len(batch)).Msg("fetched page")

		if len(batch) == 0 {
			break
		}
		posts = append(posts, batch...)
	}

	return posts, nil
}

// fetchPage performs one request and converts the response
func (c *Client) fetchPage(ctx context.Context, q source.Query, page int) ([]source.RawPost, error) {
	params := url.Values{}
	params.Set("tags", q.Tags)
	params.Set("page", strconv.Itoa(page))
	endpoint := c.baseURL + "/posts.json?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %w", source.ErrFetch, err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	if !q.Credentials.IsZero() {
		req.SetBasicAuth(q.Credentials.Username, q.Credentials.APIToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: page %d: %w", source.ErrFetch, page, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: %w: check username and API token (status %d)",
			source.ErrFetch, source.ErrUnauthorized, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: page %d: unexpected status %d: %s",
			source.ErrFetch, page, resp.StatusCode, string(body))
	}

	var payload postsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: page %d: decode response: %w", source.ErrFetch, page, err)
	}
	if payload.Posts == nil {
		return nil, fmt.Errorf("%w: page %d: response has no posts field", source.ErrFetch, page)
	}

	raw := make([]source.RawPost, 0, len(*payload.Posts))
	for _, p := range *payload.Posts {
		raw = append(raw, p.toRaw(c.categories))
	}
	return raw, nil
}
