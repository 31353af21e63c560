package common

import (
	"context"
	"errors"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/voicecal/internal/instrumentation"
	"github.com/teemow/voicecal/internal/logging"
	"github.com/teemow/voicecal/internal/server"
)

var errToolResult = errors.New("tool returned an error result")

// ToolHandler is the mcp-go tool handler signature.
type ToolHandler = func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)

// InstrumentedToolHandler wraps a tool handler with a span, metrics and audit logging.
// A result flagged IsError counts as a failed invocation.
//
// Usage:
//
//	s.AddTool(myTool, common.InstrumentedToolHandler("my_tool", sc, handler))
func InstrumentedToolHandler(toolName string, sc *server.ServerContext, handler ToolHandler) ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		metrics := sc.Metrics()
		auditLogger := sc.AuditLogger()

		// If no instrumentation configured, just call the handler
		if metrics == nil && auditLogger == nil {
			return handler(ctx, request)
		}

		start := time.Now()
		invocation := instrumentation.NewInvocation(toolName).
			WithUser(GetUserFromArgs(request.GetArguments()))

		ctx, span := instrumentation.StartToolSpan(ctx, toolName,
			instrumentation.NewSpanAttributeBuilder().WithUserHash(invocation.UserHash()).Build()...)
		invocation.WithSpanContext(ctx)

		result, err := handler(ctx, request)
		duration := time.Since(start)

		status := instrumentation.StatusSuccess
		switch {
		case err != nil:
			status = instrumentation.StatusError
			invocation.CompleteWithError(err)
			instrumentation.EndSpan(span, err)
		case result != nil && result.IsError:
			status = instrumentation.StatusError
			invocation.Complete(false, nil)
			instrumentation.EndSpan(span, errToolResult)
		default:
			invocation.CompleteSuccess()
			instrumentation.EndSpan(span, nil)
		}

		if status == instrumentation.StatusError {
			logging.WithTool(sc.Logger(), toolName).Warn("tool call failed",
				logging.Status(status), logging.UserHash(invocation.UserID), logging.Err(err))
		}

		metrics.RecordToolInvocationWithUser(ctx, toolName, status, invocation.UserHash(), duration)
		auditLogger.LogInvocation(invocation)

		return result, err
	}
}
