package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/teemow/voicecal/internal/config"
	"github.com/teemow/voicecal/internal/server"
	"github.com/teemow/voicecal/internal/tools/assistant_tools"
	"github.com/teemow/voicecal/internal/tools/calendar_tools"
	"github.com/teemow/voicecal/internal/tools/google_tools"
	"github.com/teemow/voicecal/internal/tools/speech_tools"
)

func newMCPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve the assistant tools over MCP on stdio",
		Long: `Start an MCP (Model Context Protocol) server on stdin/stdout.

The server exposes the assistant, calendar, speech and clock tools to
MCP clients such as desktop AI assistants. Logs are written to stderr.`,
	}

	envFile := addConfigFlags(cmd.Flags())

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd.Flags(), *envFile)
		if err != nil {
			return err
		}
		return runMCP(cfg)
	}

	return cmd
}

func runMCP(cfg *config.Config) error {
	shutdownCtx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := newApp(shutdownCtx, cfg, os.Stderr)
	if err != nil {
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.Close(ctx)
	}()

	mcpSrv, err := newMCPServer(a.serverContext)
	if err != nil {
		return err
	}

	a.logger.Info("starting MCP server on stdio")
	stdio := mcpserver.NewStdioServer(mcpSrv)
	if err := stdio.Listen(shutdownCtx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	return nil
}

// newMCPServer creates the MCP server with every tool group registered.
func newMCPServer(sc *server.ServerContext) (*mcpserver.MCPServer, error) {
	mcpSrv := mcpserver.NewMCPServer("voicecal", version,
		mcpserver.WithToolCapabilities(true),
	)
	if err := registerAllTools(mcpSrv, sc); err != nil {
		return nil, err
	}
	return mcpSrv, nil
}

// registerAllTools registers all MCP tools
func registerAllTools(mcpSrv *mcpserver.MCPServer, sc *server.ServerContext) error {
	type toolRegistration struct {
		name     string
		register func() error
	}

	registrations := []toolRegistration{
		{
			name: "Assistant",
			register: func() error {
				return assistant_tools.RegisterAssistantTools(mcpSrv, sc)
			},
		},
		{
			name: "Calendar",
			register: func() error {
				return calendar_tools.RegisterCalendarTools(mcpSrv, sc)
			},
		},
		{
			name: "Google",
			register: func() error {
				return google_tools.RegisterGoogleTools(mcpSrv, sc)
			},
		},
		{
			name: "Speech",
			register: func() error {
				return speech_tools.RegisterSpeechTools(mcpSrv, sc)
			},
		},
	}

	for _, reg := range registrations {
		if err := reg.register(); err != nil {
			return fmt.Errorf("failed to register %s tools: %w", reg.name, err)
		}
	}

	return nil
}
