package google_tools

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/voicecal/internal/google"
	"github.com/teemow/voicecal/internal/logging"
	"github.com/teemow/voicecal/internal/server"
	"github.com/teemow/voicecal/internal/tools/common"
)

const errNotConfigured = "Google OAuth is not configured. Set GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET and restart."

// RegisterGoogleTools registers all Google OAuth-related tools with the MCP server
func RegisterGoogleTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	getAuthURLTool := mcp.NewTool("google_get_auth_url",
		mcp.WithDescription("Get the OAuth URL to authorize Google Calendar access"),
	)

	s.AddTool(getAuthURLTool, common.InstrumentedToolHandler("google_get_auth_url", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleGetAuthURL(ctx, request, sc)
		}))

	exchangeTool := mcp.NewTool("google_exchange_auth_code",
		mcp.WithDescription("Exchange the OAuth authorization code for a Google Calendar refresh token"),
		mcp.WithString("authCode",
			mcp.Required(),
			mcp.Description("The authorization code from Google OAuth"),
		),
	)

	s.AddTool(exchangeTool, common.InstrumentedToolHandler("google_exchange_auth_code", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleExchangeAuthCode(ctx, request, sc)
		}))

	return nil
}

func handleGetAuthURL(_ context.Context, _ mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	authURL, err := google.GetAuthURL(sc.Credentials(), uuid.NewString())
	if err != nil {
		return mcp.NewToolResultError(errNotConfigured), nil
	}

	result := fmt.Sprintf(`To authorize Google Calendar access:

1. Visit this URL in your browser:
   %s

2. Sign in with your Google account
3. Grant access to Google Calendar
4. Copy the code parameter from the page Google redirects to

5. Call the google_exchange_auth_code tool with the code to obtain the refresh token`, authURL)

	return mcp.NewToolResultText(result), nil
}

func handleExchangeAuthCode(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	if !sc.Credentials().Configured() {
		return mcp.NewToolResultError(errNotConfigured), nil
	}

	authCode := common.StringArg(request.GetArguments(), "authCode")
	if authCode == "" {
		return mcp.NewToolResultError("authCode is required"), nil
	}

	token, err := sc.ExchangeCode(ctx, authCode)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to exchange authorization code: %v", err)), nil
	}
	if token.RefreshToken == "" {
		return mcp.NewToolResultError("Google did not return a refresh token. Revoke the app's access in your Google account settings and authorize again."), nil
	}

	sc.Logger().Info("google authorization completed",
		"refresh_token", logging.SanitizeToken(token.RefreshToken))

	return mcp.NewToolResultText(fmt.Sprintf(`Authorization complete.

Add this line to your environment or .env file and restart voicecal:

GOOGLE_REFRESH_TOKEN=%s`, token.RefreshToken)), nil
}
