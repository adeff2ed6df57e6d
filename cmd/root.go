package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the workmate application
var rootCmd = &cobra.Command{
	Use:   "workmate",
	Short: "Conversational assistant for Google Calendar, Gmail and Drive",
	Long: `workmate is a chat assistant that answers questions and performs actions
on your Google Calendar, Gmail and Drive.

It can run as:
  - A browser chat server with Google sign-in (default)
  - An MCP (Model Context Protocol) stdio server exposing the same tools`,
	SilenceUsage: true,
}

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "workmate version %s\n" .Version}}`)

	// If no subcommand is provided, run the chat server by default
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newMCPCmd())
	rootCmd.AddCommand(newLoginCmd())
	rootCmd.AddCommand(newTranscriptsCmd())
	rootCmd.AddCommand(newGenerateDocsCmd())
	rootCmd.AddCommand(newVersionCmd())
}
