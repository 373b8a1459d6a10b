package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vijay-prabhu/tageval/internal/output"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show profile statistics",
	Long: `Display the size of your reaction history and vocabulary, the
reaction breakdown and the model's class totals and prior.

Examples:
  tageval stats
  tageval stats -o json`,
	RunE: runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) (err error) {
	ctx := cmd.Context()

	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, s.close(ctx))
	}()

	info, err := s.db.GetProfileInfo(ctx)
	if err != nil {
		return fmt.Errorf("failed to get profile info: %w", err)
	}

	stats := s.profile.Stats()
	if outputFmt == "json" {
		return output.JSON(output.NewProfileStats(stats, s.profile.Credentials().Username, info.UpdatedAt))
	}

	if err := output.Output(outputFmt, stats); err != nil {
		return err
	}
	fmt.Printf("User:                   %s\n", s.profile.Credentials().Username)
	fmt.Printf("Last saved:             %s\n", info.UpdatedAt.Format("Jan 02, 2006 15:04"))
	return nil
}
