package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vijay-prabhu/tageval/internal/database"
	"github.com/vijay-prabhu/tageval/internal/filter"
	"github.com/vijay-prabhu/tageval/internal/logging"
	"github.com/vijay-prabhu/tageval/internal/output"
	"github.com/vijay-prabhu/tageval/internal/profile"
)

var (
	searchPages    int
	searchLimit    int
	searchHideSeen bool
	searchNoRecord bool
	searchNoFilter bool
)

var searchCmd = &cobra.Command{
	Use:   "search <tags...>",
	Short: "Rank posts matching a tag query",
	Long: `Search fetches posts for a board tag query and ranks them by your
learned tag preferences, best first. Tags the model has never seen do not
affect a post's score.

Posts matching a search.blacklist rule are dropped before ranking unless
--no-blacklist is given.

Each search is kept in the local history (see 'tageval history') unless
--no-record is given or search.record_history is false.

Examples:
  tageval search wolf
  tageval search "wolf rating:s" --pages 3
  tageval search fox --limit 10 --hide-seen
  tageval search fox -o json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().IntVarP(&searchPages, "pages", "p", 0, "pages to fetch (default: search.page_limit)")
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 0, "show only the best N posts (default: search.limit, 0 for all)")
	searchCmd.Flags().BoolVar(&searchHideSeen, "hide-seen", false, "drop posts you already reacted to")
	searchCmd.Flags().BoolVar(&searchNoRecord, "no-record", false, "do not keep this search in the history")
	searchCmd.Flags().BoolVar(&searchNoFilter, "no-blacklist", false, "show posts hidden by search.blacklist")
}

func runSearch(cmd *cobra.Command, args []string) (err error) {
	ctx := cmd.Context()
	query := strings.Join(args, " ")

	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, s.close(ctx))
	}()

	opts := profile.SearchOptions{
		PageLimit:      s.cfg.Search.PageLimit,
		ExcludeReacted: s.cfg.Search.ExcludeReacted || searchHideSeen,
		Limit:          s.cfg.Search.Limit,
	}
	if cmd.Flags().Changed("pages") {
		opts.PageLimit = searchPages
	}
	if cmd.Flags().Changed("limit") {
		opts.Limit = searchLimit
	}
	if !searchNoFilter {
		blacklist, err := filter.New(s.cfg.Search.Blacklist)
		if err != nil {
			return err
		}
		if blacklist.Len() > 0 {
			opts.Exclude = blacklist.Hides
		}
	}

	results, err := s.profile.Search(ctx, query, opts)
	s.term.Done()
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if s.cfg.Search.RecordHistory && !searchNoRecord {
		if err := recordSearch(cmd, s, query, opts.PageLimit, results); err != nil {
			// History is a convenience; the ranking is still shown
			logging.Warn().Err(err).Msg("failed to record search")
		}
	}

	return output.Output(outputFmt, output.NewRankedPosts(s.cfg.Source.BaseURL, results))
}

func recordSearch(cmd *cobra.Command, s *session, query string, pages int, results []profile.EvaluatedPost) error {
	rec := &database.Search{Query: query, PageLimit: pages}
	if err := s.db.RecordSearch(cmd.Context(), rec, database.NewSearchResults(results)); err != nil {
		return err
	}

	logging.Debug().Str("id", rec.ID).Int("results", rec.ResultCount).Msg("search recorded")
	return nil
}
