package cli

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/vijay-prabhu/tageval/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create default configuration file",
	RunE:  runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Display the effective configuration",
	RunE:  runConfigShow,
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	cfg := config.Default()

	if err := config.Write(configPath, cfg); err != nil {
		return err
	}

	fmt.Printf("Created config file at %s\n", configPath)
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  1. Run 'tageval init' to store your username and API token")
	fmt.Println("  2. Run 'tageval update' to fetch your reaction history")
	fmt.Println("  3. Run 'tageval search <tags>' to rank posts")
	fmt.Println()
	fmt.Println("To fetch through a helper script instead of the built-in client, set:")
	fmt.Println("  [source]")
	fmt.Println(`  kind = "command"`)
	fmt.Println(`  command = ["python3", "/path/to/fetch.py"]`)

	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		fmt.Printf("# No config file at %s, showing defaults\n\n", configPath)
	} else {
		fmt.Printf("# Config file: %s\n\n", configPath)
	}
	fmt.Print(string(data))
	return nil
}
