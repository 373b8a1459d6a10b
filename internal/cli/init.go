package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vijay-prabhu/tageval/internal/config"
	"github.com/vijay-prabhu/tageval/internal/database"
	"github.com/vijay-prabhu/tageval/internal/source"
)

var (
	initUsername string
	initForce    bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Store credentials and create an empty profile",
	Long: `Init asks for your board username and API token, stores them in the
credentials file (readable by you only) and creates an empty profile.

The token is read without echo. Without a terminal, the username comes from
--username or TAGEVAL_USERNAME and the token from TAGEVAL_API_TOKEN.

Examples:
  tageval init
  tageval init --username alice
  tageval init --force         # replace an existing profile`,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().StringVarP(&initUsername, "username", "u", "", "board username")
	initCmd.Flags().BoolVar(&initForce, "force", false, "replace an existing profile")
}

func runInit(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	s, err := openDatabase()
	if err != nil {
		return err
	}
	defer s.db.Close()

	info, err := s.db.GetProfileInfo(ctx)
	switch {
	case errors.Is(err, database.ErrNoProfile):
	case err != nil:
		return fmt.Errorf("failed to check existing profile: %w", err)
	case !initForce:
		return fmt.Errorf("a profile with %d reacted posts already exists; use --force to replace it", info.Reactions)
	}

	var creds source.Credentials
	if s.term.Interactive {
		creds, err = newPrompter().credentials(initUsername)
		if err != nil {
			return err
		}
	} else {
		creds, err = nonInteractiveCredentials(initUsername)
		if err != nil {
			return err
		}
	}

	if _, err := s.createProfile(ctx, creds); err != nil {
		return err
	}

	fmt.Println("Run 'tageval update' to fetch your reaction history.")
	return nil
}

func nonInteractiveCredentials(username string) (source.Credentials, error) {
	if username == "" {
		username = os.Getenv(config.EnvUsername)
	}
	if username == "" {
		return source.Credentials{}, fmt.Errorf("%w: pass --username or set %s", config.ErrMissingCredentials, config.EnvUsername)
	}
	return source.Credentials{Username: username, APIToken: os.Getenv(config.EnvAPIToken)}, nil
}
