package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vijay-prabhu/tageval/internal/profile"
	"github.com/vijay-prabhu/tageval/internal/snapshot"
	"github.com/vijay-prabhu/tageval/internal/source"
)

var exportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Export the profile to a JSON snapshot",
	Long: `Export writes the tag vocabulary, reaction history and model to a
JSON file. Credentials are not included. Use "-" to write to stdout.

Examples:
  tageval export profile.json
  tageval export - > profile.json`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Replace the profile with a JSON snapshot",
	Long: `Import checks a snapshot written by 'tageval export' and replaces the
saved profile with it. Credentials are left untouched. Posts cached for
'tageval update --offline' are dropped.

Examples:
  tageval import profile.json`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	s, err := openDatabase()
	if err != nil {
		return err
	}
	defer s.db.Close()

	tables, err := s.db.LoadTables(ctx)
	if err != nil {
		return fmt.Errorf("failed to load profile: %w", err)
	}

	if args[0] == "-" {
		return snapshot.Write(os.Stdout, tables)
	}

	if err := snapshot.Save(args[0], tables); err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Exported %d reacted posts and %d tags to %s\n", len(tables.Reactions), len(tables.Tags), args[0])
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	tables, err := snapshot.Load(args[0])
	if err != nil {
		return err
	}

	// Reject inconsistent tables before they replace the saved profile
	p, err := profile.FromTables(tables, nil, source.Credentials{})
	if err != nil {
		return fmt.Errorf("invalid snapshot: %w", err)
	}

	s, err := openDatabase()
	if err != nil {
		return err
	}
	defer s.db.Close()

	if err := s.db.SaveTables(ctx, p.Tables()); err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	if err := s.db.SaveRawPosts(ctx, nil); err != nil {
		return fmt.Errorf("failed to clear cached posts: %w", err)
	}

	stats := p.Stats()
	fmt.Fprintf(os.Stderr, "Imported %d reacted posts and %d tags\n", stats.Posts, stats.Tags)
	return nil
}
