package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/vijay-prabhu/tageval/internal/output"
	"github.com/vijay-prabhu/tageval/internal/profile"
	"github.com/vijay-prabhu/tageval/internal/source"
)

var (
	updateOffline bool
	updateFrom    string
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Refetch your reaction history and retrain the model",
	Long: `Update fetches every post you have downvoted, upvoted and favorited,
rebuilds the reaction history from scratch and retrains the model.

All three lists are fetched before anything changes, so a failed fetch
leaves the saved profile as it was. The fetched posts are cached, and
--offline rebuilds from that cache without contacting the board.

--from rebuilds from a JSON dump file instead: an array of posts with
"id", "tags", "is_up" and "is_fav" fields. The dump replaces the cache.

Examples:
  tageval update
  tageval update --offline
  tageval update --from posts.json -o json`,
	RunE: runUpdate,
}

func init() {
	rootCmd.AddCommand(updateCmd)

	updateCmd.Flags().BoolVar(&updateOffline, "offline", false, "rebuild from the posts cached by the last update")
	updateCmd.Flags().StringVar(&updateFrom, "from", "", "rebuild from a JSON dump file")
	updateCmd.MarkFlagsMutuallyExclusive("offline", "from")
}

func runUpdate(cmd *cobra.Command, args []string) (err error) {
	ctx := cmd.Context()

	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, s.close(ctx))
	}()

	var result *profile.UpdateResult

	switch {
	case updateOffline:
		dump, err := s.db.LoadRawPosts(ctx)
		if err != nil {
			return err
		}
		result, err = s.profile.Rebuild(dump)
		if err != nil {
			if errors.Is(err, profile.ErrEmptyDump) {
				return fmt.Errorf("%w: run 'tageval update' online first", err)
			}
			return err
		}

	case updateFrom != "":
		dump, err := readDump(updateFrom)
		if err != nil {
			return err
		}
		if result, err = s.profile.Rebuild(dump); err != nil {
			return err
		}
		if err := s.db.SaveRawPosts(ctx, dump); err != nil {
			return fmt.Errorf("failed to cache posts: %w", err)
		}

	default:
		s.term.Status(ColorCyan, fmt.Sprintf("Updating reaction history for %s...", s.profile.Credentials().Username))
		result, err = s.profile.Update(ctx)
		s.term.Done()
		if err != nil {
			return fmt.Errorf("update failed: %w", err)
		}
		if err := s.db.SaveRawPosts(ctx, s.profile.Dump()); err != nil {
			return fmt.Errorf("failed to cache posts: %w", err)
		}
	}

	return output.Output(outputFmt, result)
}

// readDump decodes a JSON array of raw posts
func readDump(path string) ([]source.RawPost, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read dump: %w", err)
	}

	var dump []source.RawPost
	if err := json.Unmarshal(data, &dump); err != nil {
		return nil, fmt.Errorf("failed to parse dump %s: %w", path, err)
	}
	return dump, nil
}
