package speech_tools

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/voicecal/internal/server"
	"github.com/teemow/voicecal/internal/speech"
	"github.com/teemow/voicecal/internal/tools/common"
)

const errNotConfigured = "Speech synthesis is not configured. Set ELEVENLABS_API_KEY and restart."

// RegisterSpeechTools registers the voice listing and synthesis tools with the MCP server.
func RegisterSpeechTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	listVoicesTool := mcp.NewTool("speech_list_voices",
		mcp.WithDescription("List the voices available for speech synthesis"),
	)

	s.AddTool(listVoicesTool, common.InstrumentedToolHandler("speech_list_voices", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListVoices(ctx, request, sc)
		}))

	synthesizeTool := mcp.NewTool("speech_synthesize",
		mcp.WithDescription("Convert text to MP3 speech"),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("Text to speak"),
		),
		mcp.WithString("voice_id",
			mcp.Description("Voice id from speech_list_voices (default: the configured voice)"),
		),
	)

	s.AddTool(synthesizeTool, common.InstrumentedToolHandler("speech_synthesize", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleSynthesize(ctx, request, sc)
		}))

	return nil
}

func handleListVoices(ctx context.Context, _ mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	svc := sc.Speech()
	if svc == nil {
		return mcp.NewToolResultError(errNotConfigured), nil
	}

	voices, err := svc.ListVoices(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list voices: %v", err)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d voices (default: %s):\n\n", len(voices), svc.DefaultVoice())
	for i, v := range voices {
		fmt.Fprintf(&b, "%d. %s\n", i+1, v.Name)
		fmt.Fprintf(&b, "   ID: %s\n", v.VoiceID)
		if v.Category != "" {
			fmt.Fprintf(&b, "   Category: %s\n", v.Category)
		}
		if v.Description != "" {
			fmt.Fprintf(&b, "   Description: %s\n", v.Description)
		}
		b.WriteString("\n")
	}
	return mcp.NewToolResultText(b.String()), nil
}

func handleSynthesize(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	svc := sc.Speech()
	if svc == nil {
		return mcp.NewToolResultError(errNotConfigured), nil
	}

	args := request.GetArguments()
	text := common.StringArg(args, "text")
	if text == "" {
		return mcp.NewToolResultError("text is required"), nil
	}

	stream, err := svc.SynthesizeStream(ctx, text, common.StringArg(args, "voice_id"))
	switch {
	case errors.Is(err, speech.ErrInvalidInput):
		return mcp.NewToolResultError(fmt.Sprintf("Invalid input: %v", err)), nil
	case err != nil:
		return mcp.NewToolResultError(fmt.Sprintf("Failed to synthesize: %v", err)), nil
	}
	defer stream.Close()

	audio, err := io.ReadAll(stream)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to read audio: %v", err)), nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(fmt.Sprintf("Synthesized %d bytes of audio", len(audio))),
			mcp.NewAudioContent(base64.StdEncoding.EncodeToString(audio), speech.AudioContentType),
		},
	}, nil
}
