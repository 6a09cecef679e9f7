package main

import (
	"github.com/spf13/cobra"

	"github.com/kirti676/api-tester-mcp/internal/console"
	"github.com/kirti676/api-tester-mcp/internal/mcpinstall"
)

var (
	urlsName    string
	urlsCommand string
	urlsArgs    []string
)

var installURLsCmd = &cobra.Command{
	Use:   "install-urls",
	Short: "Print VS Code install URLs and README badges",
	Long: `Print one-click installation links for VS Code and VS Code Insiders,
the web redirect URLs and Markdown badges for a README.

Examples:
  api-tester-setup install-urls
  api-tester-setup install-urls --name local --command api-tester-mcp --arg --port --arg 3000`,
	Args: cobra.NoArgs,
	RunE: runInstallURLs,
}

func init() {
	installURLsCmd.Flags().StringVar(&urlsName, "name", mcpinstall.DefaultName, "Server name")
	installURLsCmd.Flags().StringVar(&urlsCommand, "command", mcpinstall.DefaultCommand, "Command VS Code runs")
	installURLsCmd.Flags().StringArrayVar(&urlsArgs, "arg", []string{mcpinstall.DefaultPackage}, "Command argument (repeatable)")

	rootCmd.AddCommand(installURLsCmd)
}

func runInstallURLs(cmd *cobra.Command, args []string) error {
	urls, err := mcpinstall.Generate(mcpinstall.ServerConfig{
		Name:    urlsName,
		Command: urlsCommand,
		Args:    urlsArgs,
	})
	if err != nil {
		return err
	}
	pretty, err := urls.PrettyConfig()
	if err != nil {
		return err
	}

	p := console.New(cmd.OutOrStdout())
	p.Title("VS Code Installation URLs for API Tester MCP")

	p.Step("Configuration object")
	p.Println(pretty)

	p.Step("VS Code installation URLs")
	section(p, "VS Code", urls.VSCode)
	section(p, "VS Code Insiders", urls.VSCodeInsiders)

	p.Step("Web URLs (for a README)")
	section(p, "VS Code", urls.WebVSCode)
	section(p, "VS Code Insiders", urls.WebVSCodeInsiders)

	p.Step("Markdown badges")
	section(p, "VS Code", urls.BadgeVSCode)
	section(p, "VS Code Insiders", urls.BadgeVSCodeInsiders)

	p.Println()
	p.Success("URLs generated successfully!")
	return nil
}

// section prints a label and a value on its own line so it can be copied.
func section(p *console.Printer, label, value string) {
	p.Println()
	p.Printf("%s:", label)
	p.Println(value)
}
