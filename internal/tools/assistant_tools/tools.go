package assistant_tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/voicecal/internal/assistant"
	"github.com/teemow/voicecal/internal/server"
	"github.com/teemow/voicecal/internal/speech"
	"github.com/teemow/voicecal/internal/tools/common"
)

// RegisterAssistantTools registers the command and clock tools with the MCP server.
func RegisterAssistantTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	processTool := mcp.NewTool("assistant_process_command",
		mcp.WithDescription("Answer a natural-language request, consulting the calendar when needed"),
		mcp.WithString("message",
			mcp.Required(),
			mcp.Description("The user's utterance, e.g. 'What's on my calendar tomorrow?'"),
		),
		mcp.WithString("user_id",
			mcp.Description("Caller id echoed in the reply (default: 'anonymous')"),
		),
		mcp.WithBoolean("synthesize",
			mcp.Description("Also return the reply as MP3 audio (default: false)"),
		),
		mcp.WithString("voice_id",
			mcp.Description("Voice used when synthesize is true"),
		),
	)

	s.AddTool(processTool, common.InstrumentedToolHandler("assistant_process_command", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleProcessCommand(ctx, request, sc)
		}))

	clockTool := mcp.NewTool("clock_current_time",
		mcp.WithDescription("Get the server's current time and timezone"),
	)

	s.AddTool(clockTool, common.InstrumentedToolHandler("clock_current_time", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleCurrentTime(ctx, request, sc)
		}))

	return nil
}

func handleProcessCommand(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	message := common.StringArg(args, "message")
	if message == "" {
		return mcp.NewToolResultError("message is required"), nil
	}
	synthesize, _ := args["synthesize"].(bool)

	resp, err := sc.Commands().Handle(ctx, assistant.Request{
		Message:      message,
		UserID:       common.GetUserFromArgs(args),
		VoiceID:      common.StringArg(args, "voice_id"),
		UseSynthesis: synthesize,
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to process command: %v", err)), nil
	}

	result := mcp.NewToolResultText(resp.Text)
	if audio := resp.Speech.AudioBase64(); audio != nil {
		result.Content = append(result.Content, mcp.NewAudioContent(*audio, speech.AudioContentType))
	}
	return result, nil
}

func handleCurrentTime(_ context.Context, _ mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	payload, err := json.Marshal(assistant.CurrentTimeAt(sc.Now()))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to encode time: %v", err)), nil
	}
	return mcp.NewToolResultText(string(payload)), nil
}
