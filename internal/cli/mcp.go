package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/vijay-prabhu/tageval/internal/logging"
	"github.com/vijay-prabhu/tageval/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP server (stdio transport)",
	Long: `Start the MCP (Model Context Protocol) server using stdio transport.

This lets AI assistants search and rank posts with your profile, inspect
learned tag weights and browse the search history.

Add to the assistant's MCP config:

{
  "mcpServers": {
    "tageval": {
      "command": "/path/to/tageval",
      "args": ["mcp"]
    }
  }
}`,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) (err error) {
	ctx := cmd.Context()

	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, s.close(ctx))
	}()

	logging.Info().Str("user", s.profile.Credentials().Username).Msg("mcp server starting")

	server := mcp.New(s.profile, s.db, s.cfg, version)
	if err := server.Start(ctx); err != nil && !errors.Is(err, ctx.Err()) {
		return err
	}
	return nil
}
