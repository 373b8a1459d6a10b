package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vijay-prabhu/tageval/internal/database"
	"github.com/vijay-prabhu/tageval/internal/output"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history [search-id]",
	Short: "List recent searches or show the results of one",
	Long: `Without arguments, history lists recent searches, newest first.
Given a search id (or a unique prefix of one), it shows the ranking that
search produced.

Examples:
  tageval history
  tageval history --limit 5
  tageval history 3f2a91c0`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of searches to list (0 for all)")
}

func runHistory(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	s, err := openDatabase()
	if err != nil {
		return err
	}
	defer s.db.Close()

	if len(args) == 0 {
		searches, err := s.db.ListSearches(ctx, historyLimit)
		if err != nil {
			return fmt.Errorf("failed to list searches: %w", err)
		}
		return output.Output(outputFmt, searches)
	}

	all, err := s.db.ListSearches(ctx, 0)
	if err != nil {
		return fmt.Errorf("failed to list searches: %w", err)
	}
	search, err := database.FindSearch(all, args[0])
	if err != nil {
		return err
	}

	results, err := s.db.GetSearchResults(ctx, search.ID)
	if err != nil {
		return fmt.Errorf("failed to get search results: %w", err)
	}

	if outputFmt != "json" {
		fmt.Printf("Search %q (%d pages), %s\n\n", search.Query, search.PageLimit, search.CreatedAt.Format("Jan 02, 2006 15:04"))
	}
	return output.Output(outputFmt, results)
}
