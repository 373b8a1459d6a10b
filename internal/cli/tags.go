package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/vijay-prabhu/tageval/internal/output"
	"github.com/vijay-prabhu/tageval/internal/profile"
)

var (
	tagsTop    int
	tagsBottom bool
)

var tagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "Show learned tag weights",
	Long: `Tags lists how much each known tag moves a post's score. Positive
weights come from tags on posts you liked, negative ones from tags on posts
you downvoted.

Examples:
  tageval tags              # 20 most liked tags
  tageval tags --top 50
  tageval tags --bottom     # 20 most disliked tags
  tageval tags --top 0      # every tag`,
	RunE: runTags,
}

func init() {
	rootCmd.AddCommand(tagsCmd)
	tagsCmd.Flags().IntVarP(&tagsTop, "top", "n", 20, "number of tags to show (0 for all)")
	tagsCmd.Flags().BoolVar(&tagsBottom, "bottom", false, "show the most disliked tags instead")
}

func runTags(cmd *cobra.Command, args []string) (err error) {
	ctx := cmd.Context()

	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, s.close(ctx))
	}()

	return output.Output(outputFmt, profile.SelectWeights(s.profile.TagWeights(), tagsTop, tagsBottom))
}
