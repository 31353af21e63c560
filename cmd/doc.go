// Package cmd implements the command-line interface for voicecal.
//
// This package provides the following commands:
//   - serve: Start the HTTP API (default when no subcommand is given)
//   - mcp: Serve the assistant tools over MCP on stdio
//   - auth: Obtain a Google refresh token from the command line
//   - version: Display version information
//   - generate-docs: Generate markdown documentation for all MCP tools
//
// Configuration is read by internal/config from flags, the environment and
// an optional .env file.
package cmd
