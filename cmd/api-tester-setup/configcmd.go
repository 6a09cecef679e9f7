package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kirti676/api-tester-mcp/internal/config"
	"github.com/kirti676/api-tester-mcp/internal/console"
)

var (
	configInitYAML  bool
	configInitForce bool
	configInitPath  string
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the launcher configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a launcher config file with every default filled in",
	Long: `Write the default launcher configuration so it can be edited.

Without --path the file goes to ~/.config/api-tester-mcp/launcher.json, or
launcher.yaml with --yaml. An explicit --path picks the format from its
extension. Existing files are left alone unless --force is given.

Examples:
  api-tester-setup config init
  api-tester-setup config init --yaml
  api-tester-setup config init --path ./launcher.yaml --force`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file api-tester-mcp reads",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.ConfigPath()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configInitYAML, "yaml", false, "Write YAML instead of JSON")
	configInitCmd.Flags().BoolVarP(&configInitForce, "force", "f", false, "Overwrite an existing file")
	configInitCmd.Flags().StringVar(&configInitPath, "path", "", "Write to this file instead of the default location")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	p := console.New(cmd.OutOrStdout())

	path := configInitPath
	if path == "" {
		var err error
		if path, err = config.DefaultPath(configInitYAML); err != nil {
			return err
		}
	}

	if _, err := os.Stat(path); err == nil && !configInitForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}

	if err := config.SaveTo(config.NewConfig(), path); err != nil {
		return err
	}

	p.Success("Wrote %s", p.Code(path))
	if current, err := config.ConfigPath(); err == nil && current != path {
		p.Hint("api-tester-mcp reads "+current+"; point it at the new file with:",
			fmt.Sprintf("export %s=%s", config.EnvConfigPath, path))
	}
	return nil
}
