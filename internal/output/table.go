package output

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/vijay-prabhu/tageval/internal/database"
	"github.com/vijay-prabhu/tageval/internal/profile"
)

// RankedPost is one line of search output
type RankedPost struct {
	Rank      int     `json:"rank"`
	PostID    uint32  `json:"post_id"`
	URL       string  `json:"url"`
	Score     float32 `json:"score"`
	KnownTags int     `json:"known_tags"`
	TagCount  int     `json:"tag_count"`
}

// NewRankedPosts numbers evaluated posts and attaches their board URLs
func NewRankedPosts(baseURL string, posts []profile.EvaluatedPost) []RankedPost {
	ranked := make([]RankedPost, 0, len(posts))
	for i, p := range posts {
		ranked = append(ranked, RankedPost{
			Rank:      i + 1,
			PostID:    p.Post.ID,
			URL:       PostURL(baseURL, p.Post.ID),
			Score:     p.Score,
			KnownTags: p.KnownTags,
			TagCount:  len(p.Post.Tags),
		})
	}
	return ranked
}

// ProfileStats adds the owner and last save time to a profile summary
type ProfileStats struct {
	*profile.Stats
	Username  string `json:"username"`
	UpdatedAt string `json:"updated_at"`
}

// NewProfileStats combines a profile summary with its saved metadata
func NewProfileStats(stats *profile.Stats, username string, updatedAt time.Time) ProfileStats {
	return ProfileStats{Stats: stats, Username: username, UpdatedAt: updatedAt.Format(time.RFC3339)}
}

// PostURL returns the board page of a post
func PostURL(baseURL string, id uint32) string {
	return strings.TrimSuffix(baseURL, "/") + "/posts/" + strconv.FormatUint(uint64(id), 10)
}

// Table writes data as a formatted table to stdout
func Table(data interface{}) error {
	return TableTo(os.Stdout, data)
}

// TableTo writes data as a formatted table to the given writer
func TableTo(w io.Writer, data interface{}) error {
	switch v := data.(type) {
	case []RankedPost:
		return rankedTable(w, v)
	case []profile.TagWeight:
		return weightsTable(w, v)
	case *profile.Stats:
		return statsDetail(w, v)
	case *profile.UpdateResult:
		return updateDetail(w, v)
	case []database.Search:
		return searchesTable(w, v)
	case []database.SearchResult:
		return searchResultsTable(w, v)
	default:
		return fmt.Errorf("unsupported data type for table output: %T", data)
	}
}

func rankedTable(w io.Writer, posts []RankedPost) error {
	if len(posts) == 0 {
		fmt.Fprintln(w, "No posts found.")
		return nil
	}

	table := tablewriter.NewWriter(w)
	table.Header([]string{"Rank", "Score", "Known", "URL"})
	for _, p := range posts {
		row := []string{
			strconv.Itoa(p.Rank),
			formatScore(p.Score),
			fmt.Sprintf("%d/%d", p.KnownTags, p.TagCount),
			p.URL,
		}
		if err := table.Append(row); err != nil {
			return err
		}
	}
	return table.Render()
}

func weightsTable(w io.Writer, weights []profile.TagWeight) error {
	if len(weights) == 0 {
		fmt.Fprintln(w, "No tags learned yet. Run 'tageval update' first.")
		return nil
	}

	table := tablewriter.NewWriter(w)
	table.Header([]string{"Tag", "Weight", "Pos", "Neg"})
	for _, tw := range weights {
		row := []string{
			truncate(tw.Tag, 40),
			formatScore(tw.Weight),
			strconv.FormatUint(uint64(tw.Frequency.Pos), 10),
			strconv.FormatUint(uint64(tw.Frequency.Neg), 10),
		}
		if err := table.Append(row); err != nil {
			return err
		}
	}
	return table.Render()
}

func searchesTable(w io.Writer, searches []database.Search) error {
	if len(searches) == 0 {
		fmt.Fprintln(w, "No searches recorded.")
		return nil
	}

	table := tablewriter.NewWriter(w)
	table.Header([]string{"ID", "Query", "Pages", "Results", "When"})
	for _, s := range searches {
		row := []string{
			shortID(s.ID),
			truncate(s.Query, 40),
			strconv.Itoa(s.PageLimit),
			strconv.Itoa(s.ResultCount),
			formatAge(time.Since(s.CreatedAt)),
		}
		if err := table.Append(row); err != nil {
			return err
		}
	}
	return table.Render()
}

func searchResultsTable(w io.Writer, results []database.SearchResult) error {
	if len(results) == 0 {
		fmt.Fprintln(w, "No results recorded for this search.")
		return nil
	}

	table := tablewriter.NewWriter(w)
	table.Header([]string{"Rank", "Post", "Score"})
	for _, r := range results {
		row := []string{
			strconv.Itoa(r.Rank),
			strconv.FormatUint(uint64(r.PostID), 10),
			formatScore(r.Score),
		}
		if err := table.Append(row); err != nil {
			return err
		}
	}
	return table.Render()
}

func statsDetail(w io.Writer, s *profile.Stats) error {
	fmt.Fprintln(w, "Profile Statistics")
	fmt.Fprintln(w, strings.Repeat("-", 30))
	fmt.Fprintf(w, "Reacted posts:          %d\n", s.Posts)
	fmt.Fprintf(w, "Known tags:             %d\n", s.Tags)

	reactions := make([]string, 0, len(s.Reactions))
	for r := range s.Reactions {
		reactions = append(reactions, r)
	}
	sort.Strings(reactions)
	for _, r := range reactions {
		fmt.Fprintf(w, "  %-21s %d\n", r+":", s.Reactions[r])
	}

	fmt.Fprintf(w, "Positive weight total:  %d\n", s.TotalPos)
	fmt.Fprintf(w, "Negative weight total:  %d\n", s.TotalNeg)
	fmt.Fprintf(w, "Prior:                  %s\n", formatScore(s.Prior))

	return nil
}

func updateDetail(w io.Writer, r *profile.UpdateResult) error {
	for _, c := range r.Categories {
		fmt.Fprintf(w, "%-10s %d posts\n", c.Name+":", c.Posts)
	}
	fmt.Fprintf(w, "Posts: %d\n", r.Posts)
	fmt.Fprintf(w, "Tags: %d (%d new)\n", r.Tags, r.NewTags)
	return nil
}

func formatScore(f float32) string {
	return strconv.FormatFloat(float64(f), 'f', 3, 32)
}

func formatAge(d time.Duration) string {
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%d min ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%d hours ago", int(d.Hours()))
	case d < 48*time.Hour:
		return "yesterday"
	default:
		return fmt.Sprintf("%d days ago", int(d.Hours()/24))
	}
}

func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
