package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version info set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// defaultConfigPath is read when --config is not given. A missing default
// file falls back to the built-in configuration.
const defaultConfigPath = "buurtchat.yaml"

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "buurt",
		Short: "Buurtchat: messages between neighbours and local businesses",
		Long:  "Buurtchat keeps your conversations with neighbours and local businesses, with unread tracking and simulated replies.",
	}

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newDBCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newConversationCmd())
	cmd.AddCommand(newMessageCmd())
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "buurt %s (commit: %s, built: %s)\n", Version, Commit, Date)
		},
	}
}

func execute(cmd *cobra.Command) int {
	if err := cmd.Execute(); err != nil {
		return 1
	}
	return 0
}

func main() {
	os.Exit(execute(newRootCmd()))
}
