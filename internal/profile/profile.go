package profile

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/vijay-prabhu/tageval/internal/logging"
	"github.com/vijay-prabhu/tageval/internal/source"
)

// ErrNoUsername is returned when the reaction history cannot be queried
var ErrNoUsername = errors.New("username is required to fetch reaction history")

// ErrEmptyDump is returned when a rebuild is given no posts
var ErrEmptyDump = errors.New("no cached posts to rebuild from")

// Category is one kind of reaction the history is built from
type Category struct {
	Name     string
	Prefix   string // Board query prefix, followed by the username
	Reaction Reaction
}

// Query returns the board query listing the user's posts in this category
func (c Category) Query(username string) string {
	return c.Prefix + username
}

// Categories are fetched in this order on every Update
var Categories = []Category{
	{Name: "downvoted", Prefix: "voteddown:", Reaction: Reaction{}},
	{Name: "upvoted", Prefix: "votedup:", Reaction: Reaction{Upvoted: true}},
	{Name: "favorited", Prefix: "fav:", Reaction: Reaction{Favorited: true}},
}

// Profile learns one user's tag preferences and ranks candidate posts
type Profile struct {
	vocab     *Vocabulary
	reactions *ReactionStore
	model     *Model

	source    source.Source
	creds     source.Credentials
	pageLimit int // page limit for each history category

	dump []source.RawPost // raw posts of the last fetch or rebuild
}

// Option configures a Profile
type Option func(*Profile)

// WithHistoryPageLimit sets the page limit used for each reaction category
func WithHistoryPageLimit(n int) Option {
	return func(p *Profile) {
		p.pageLimit = n
	}
}

// New creates an empty profile
func New(src source.Source, creds source.Credentials, opts ...Option) *Profile {
	p := &Profile{
		vocab:     NewVocabulary(),
		reactions: NewReactionStore(),
		model:     NewModel(0),
		source:    src,
		creds:     creds,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// FromTables reconstructs a profile from persisted tables
func FromTables(t *Tables, src source.Source, creds source.Credentials, opts ...Option) (*Profile, error) {
	if t == nil {
		return nil, corruptf("no tables")
	}

	vocab, err := vocabularyFromMap(t.Tags)
	if err != nil {
		return nil, err
	}

	reactions, err := reactionsFromTable(t.Reactions, vocab.Len())
	if err != nil {
		return nil, err
	}

	model, err := modelFromTable(t.Model, vocab.Len())
	if err != nil {
		return nil, err
	}

	p := New(src, creds, opts...)
	p.vocab = vocab
	p.reactions = reactions
	p.model = model
	return p, nil
}

// Tables returns a copy of the profile's persistent state
func (p *Profile) Tables() *Tables {
	reactions := make([]ReactedPost, 0, p.reactions.Len())
	for _, r := range p.reactions.Posts() {
		r.Tags = append([]uint32{}, r.Tags...)
		reactions = append(reactions, r)
	}

	return &Tables{
		Tags:      p.vocab.Map(),
		Reactions: reactions,
		Model:     p.model.table(),
	}
}

// CategoryResult counts the posts fetched for one reaction category
type CategoryResult struct {
	Name  string
	Posts int
}

// UpdateResult summarizes a history refresh
type UpdateResult struct {
	Categories []CategoryResult
	Posts      int // Distinct reacted posts after merging
	Tags       int // Vocabulary size
	NewTags    int // Tags first seen during this update
}

// Update refetches the whole reaction history and retrains the model.
// Every category is fetched before anything is changed, so a failed fetch
// leaves the profile exactly as it was.
func (p *Profile) Update(ctx context.Context) (*UpdateResult, error) {
	if p.creds.Username == "" {
		return nil, ErrNoUsername
	}

	var dump []source.RawPost
	var categories []CategoryResult

	for _, c := range Categories {
		posts, err := p.source.Fetch(ctx, source.Query{
			Tags:        c.Query(p.creds.Username),
			Credentials: p.creds,
			PageLimit:   p.pageLimit,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to fetch %s posts: %w", c.Name, err)
		}
		// The category decides the flags, whatever the source reported
		for _, raw := range posts {
			raw.IsUpvoted = c.Reaction.Upvoted
			raw.IsFavorited = c.Reaction.Favorited
			dump = append(dump, raw)
		}
		categories = append(categories, CategoryResult{Name: c.Name, Posts: len(posts)})
	}

	result := p.rebuild(dump)
	result.Categories = categories
	return result, nil
}

// Rebuild replaces the reaction history with a dump from an earlier fetch
// and retrains the model without touching the source. Each post keeps the
// flags recorded in the dump; a post with neither flag counts as downvoted.
func (p *Profile) Rebuild(dump []source.RawPost) (*UpdateResult, error) {
	if len(dump) == 0 {
		return nil, ErrEmptyDump
	}

	result := p.rebuild(dump)
	result.Categories = countCategories(dump)
	return result, nil
}

// Dump returns the raw posts the current history was built from, or nil
// when the history was loaded from saved tables
func (p *Profile) Dump() []source.RawPost {
	return p.dump
}

// rebuild commits a dump: nothing here can fail
func (p *Profile) rebuild(dump []source.RawPost) *UpdateResult {
	tagsBefore := p.vocab.Len()
	store := NewReactionStore()

	for _, raw := range dump {
		ids := make([]uint32, 0, len(raw.Tags))
		for _, tag := range raw.Tags {
			ids = append(ids, p.vocab.GetOrCreate(tag))
		}
		p.model.Resize(p.vocab.Len())

		store.Push(ReactedPost{
			PostID:   raw.ID,
			Reaction: Reaction{Favorited: raw.IsFavorited, Upvoted: raw.IsUpvoted},
			Tags:     ids,
		})
	}

	p.reactions = store
	p.dump = dump
	p.model.Train(p.vocab.Len(), store.Posts())

	result := &UpdateResult{
		Posts: store.Len(),
		Tags:  p.vocab.Len(),
	}
	result.NewTags = result.Tags - tagsBefore

	pos, neg := p.model.Totals()
	logging.Info().
		Int("posts", result.Posts).
		Int("tags", result.Tags).
		Int("new_tags", result.NewTags).
		Uint32("total_pos", pos).
		Uint32("total_neg", neg).
		Float32("prior", p.model.Prior()).
		Msg("model retrained")

	return result
}

// countCategories files each dumped post under the strongest reaction it
// carries: favorited, then upvoted, then downvoted
func countCategories(dump []source.RawPost) []CategoryResult {
	counts := make([]CategoryResult, len(Categories))
	for i, c := range Categories {
		counts[i].Name = c.Name
	}

	for _, raw := range dump {
		for i := len(Categories) - 1; i >= 0; i-- {
			r := Categories[i].Reaction
			if (r.Favorited && raw.IsFavorited) || (r.Upvoted && raw.IsUpvoted) || r == (Reaction{}) {
				counts[i].Posts++
				break
			}
		}
	}
	return counts
}

// SearchOptions configures a search
type SearchOptions struct {
	PageLimit      int  // Pages to fetch; 0 means the source default
	ExcludeReacted bool // Drop posts already in the reaction history
	Limit          int  // Keep only the best N results; 0 keeps all

	// Exclude drops candidates before ranking, e.g. a tag blacklist
	Exclude func(source.RawPost) bool
}

// EvaluatedPost is a candidate post with its score
type EvaluatedPost struct {
	Post      source.RawPost `json:"post"`
	Score     float32        `json:"score"`
	KnownTags int            `json:"known_tags"`
}

// Search fetches candidates for a tag query and ranks them.
// It never modifies the profile.
func (p *Profile) Search(ctx context.Context, query string, opts SearchOptions) ([]EvaluatedPost, error) {
	posts, err := p.source.Fetch(ctx, source.Query{
		Tags:        query,
		Credentials: p.creds,
		PageLimit:   opts.PageLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch candidates: %w", err)
	}

	if opts.ExcludeReacted || opts.Exclude != nil {
		kept := posts[:0:0]
		for _, post := range posts {
			if opts.ExcludeReacted && p.reactions.Contains(post.ID) {
				continue
			}
			if opts.Exclude != nil && opts.Exclude(post) {
				continue
			}
			kept = append(kept, post)
		}
		posts = kept
	}

	ranked := p.Rank(posts)
	if opts.Limit > 0 && len(ranked) > opts.Limit {
		ranked = ranked[:opts.Limit]
	}
	return ranked, nil
}

// Rank scores posts and sorts them by score, highest first. Equal scores
// are ordered by ascending post id. A post id seen twice is ranked once.
func (p *Profile) Rank(posts []source.RawPost) []EvaluatedPost {
	ranked := make([]EvaluatedPost, 0, len(posts))
	seen := make(map[uint32]bool, len(posts))

	for _, post := range posts {
		if seen[post.ID] {
			continue
		}
		seen[post.ID] = true

		ids := p.vocab.lookupAll(post.Tags)
		ranked = append(ranked, EvaluatedPost{
			Post:      post,
			Score:     p.model.Score(ids),
			KnownTags: len(ids),
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].Post.ID < ranked[j].Post.ID
	})

	return ranked
}

// TagWeight is a tag's learned contribution to scores
type TagWeight struct {
	Tag       string    `json:"tag"`
	Weight    float32   `json:"weight"`
	Frequency Frequency `json:"frequency"`
}

// TagWeights returns every known tag by descending weight, ties by name
func (p *Profile) TagWeights() []TagWeight {
	weights := make([]TagWeight, 0, p.vocab.Len())
	for id := 0; id < p.vocab.Len(); id++ {
		name, _ := p.vocab.Name(uint32(id))
		weights = append(weights, TagWeight{
			Tag:       name,
			Weight:    p.model.Weight(uint32(id)),
			Frequency: p.model.Frequency(uint32(id)),
		})
	}

	sort.Slice(weights, func(i, j int) bool {
		if weights[i].Weight != weights[j].Weight {
			return weights[i].Weight > weights[j].Weight
		}
		return weights[i].Tag < weights[j].Tag
	})

	return weights
}

// SelectWeights picks the n highest weights from a TagWeights result, or
// the n lowest (lowest first) when bottom is set. n <= 0 keeps all.
func SelectWeights(weights []TagWeight, n int, bottom bool) []TagWeight {
	if bottom {
		reversed := make([]TagWeight, len(weights))
		for i, w := range weights {
			reversed[len(weights)-1-i] = w
		}
		weights = reversed
	}
	if n > 0 && len(weights) > n {
		weights = weights[:n]
	}
	return weights
}

// Stats summarizes a profile
type Stats struct {
	Posts     int            `json:"posts"`
	Tags      int            `json:"tags"`
	Reactions map[string]int `json:"reactions"`
	TotalPos  uint32         `json:"total_pos"`
	TotalNeg  uint32         `json:"total_neg"`
	Prior     float32        `json:"prior"`
}

// Stats returns summary counts
func (p *Profile) Stats() *Stats {
	reactions := make(map[string]int, 4)
	for r, n := range p.reactions.Counts() {
		reactions[r.String()] = n
	}
	pos, neg := p.model.Totals()

	return &Stats{
		Posts:     p.reactions.Len(),
		Tags:      p.vocab.Len(),
		Reactions: reactions,
		TotalPos:  pos,
		TotalNeg:  neg,
		Prior:     p.model.Prior(),
	}
}

// Credentials returns the credentials forwarded to the source
func (p *Profile) Credentials() source.Credentials {
	return p.creds
}
