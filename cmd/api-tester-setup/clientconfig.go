package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kirti676/api-tester-mcp/internal/mcpinstall"
)

var (
	clientHost    string
	clientPort    int
	clientName    string
	clientCommand string
)

var clientConfigCmd = &cobra.Command{
	Use:   "client-config",
	Short: "Print the mcpServers snippet for MCP clients",
	Long: `Print the configuration block to add to an MCP client such as Claude
Desktop or VS Code. Pass --host "" or --port 0 to leave a flag out.

Examples:
  api-tester-setup client-config
  api-tester-setup client-config --host 0.0.0.0 --port 9000`,
	Args: cobra.NoArgs,
	RunE: runClientConfig,
}

func init() {
	clientConfigCmd.Flags().StringVar(&clientHost, "host", mcpinstall.DefaultHost, "Host the server binds to")
	clientConfigCmd.Flags().IntVar(&clientPort, "port", mcpinstall.DefaultPort, "Port the server listens on")
	clientConfigCmd.Flags().StringVar(&clientName, "name", mcpinstall.DefaultName, "Server name in the client config")
	clientConfigCmd.Flags().StringVar(&clientCommand, "command", mcpinstall.DefaultClientCommand, "Command the client runs")

	rootCmd.AddCommand(clientConfigCmd)
}

func runClientConfig(cmd *cobra.Command, args []string) error {
	if clientName == "" || clientCommand == "" {
		return fmt.Errorf("--name and --command must not be empty")
	}
	if clientPort < 0 || clientPort > 65535 {
		return fmt.Errorf("invalid --port %d", clientPort)
	}

	cfg := mcpinstall.NewClientConfig(clientName, clientCommand, mcpinstall.ServerArgs(clientHost, clientPort))
	out, err := cfg.JSON()
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}
