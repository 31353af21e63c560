package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the voicecal application
var rootCmd = &cobra.Command{
	Use:   "voicecal",
	Short: "Voice assistant backend for Google Calendar",
	Long: `voicecal answers natural-language requests about your Google Calendar.

A language model decides whether to reply directly or to call one of the
calendar functions. Replies can be spoken through ElevenLabs.

It can run as:
  - An HTTP API for voice front ends (default)
  - An MCP (Model Context Protocol) server for AI assistants`,
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
	rootCmd.SetVersionTemplate(`{{printf "voicecal version %s\n" .Version}}`)

	// If no subcommand is provided, run the serve command by default
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newMCPCmd())
	rootCmd.AddCommand(newAuthCmd())
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newGenerateDocsCmd())
}
