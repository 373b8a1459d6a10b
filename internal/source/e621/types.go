package e621

import "github.com/vijay-prabhu/tageval/internal/source"

// postsResponse is the body of GET /posts.json
type postsResponse struct {
	Posts *[]post `json:"posts"`
}

// post keeps only the fields the ranker needs
type post struct {
	ID          uint32              `json:"id"`
	Tags        map[string][]string `json:"tags"`
	IsFavorited bool                `json:"is_favorited"`
}

// tagCount returns the number of tags across the given categories
func (p post) tagCount(categories []string) int {
	n := 0
	for _, cat := range categories {
		n += len(p.Tags[cat])
	}
	return n
}

// toRaw flattens the categorized tags in category order
func (p post) toRaw(categories []string) source.RawPost {
	tags := make([]string, 0, p.tagCount(categories))
	for _, cat := range categories {
		tags = append(tags, p.Tags[cat]...)
	}

	return source.RawPost{
		ID:          p.ID,
		Tags:        tags,
		IsFavorited: p.IsFavorited,
	}
}
