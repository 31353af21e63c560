package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/teemow/voicecal/internal/assistant"
	"github.com/teemow/voicecal/internal/instrumentation"
)

type commandRequest struct {
	Message string `json:"message"`
	UserID  string `json:"user_id"`
}

type commandResponse struct {
	Response string `json:"response"`
	UserID   string `json:"user_id"`
}

type enhancedCommandRequest struct {
	Message string `json:"message"`
	UserID  string `json:"user_id"`
	VoiceID string `json:"voice_id"`
	// UseElevenLabs defaults to true when absent.
	UseElevenLabs *bool `json:"use_elevenlabs"`
}

type enhancedCommandResponse struct {
	Response  string  `json:"response"`
	Audio     *string `json:"audio"`
	UserID    string  `json:"user_id"`
	VoiceUsed *string `json:"voice_used"`
}

type webhookRequest struct {
	Text   string `json:"text"`
	UserID string `json:"user_id"`
}

type webhookResponse struct {
	ResponseText string `json:"response_text"`
}

// processCommand handles POST /api/process-command.
func (h *handlers) processCommand(c *gin.Context) {
	var body commandRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, errInvalidRequest, "message is required")
		return
	}

	resp, ok := h.handle(c, assistant.Request{Message: body.Message, UserID: body.UserID})
	if !ok {
		return
	}
	c.JSON(http.StatusOK, commandResponse{Response: resp.Text, UserID: resp.UserID})
}

// processCommandEnhanced handles POST /api/process-command-enhanced.
// A synthesis failure still answers 200 with a null audio field.
func (h *handlers) processCommandEnhanced(c *gin.Context) {
	var body enhancedCommandRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, errInvalidRequest, "message is required")
		return
	}

	useSynthesis := body.UseElevenLabs == nil || *body.UseElevenLabs
	resp, ok := h.handle(c, assistant.Request{
		Message:      body.Message,
		UserID:       body.UserID,
		VoiceID:      body.VoiceID,
		UseSynthesis: useSynthesis,
	})
	if !ok {
		return
	}

	out := enhancedCommandResponse{
		Response: resp.Text,
		Audio:    resp.Speech.AudioBase64(),
		UserID:   resp.UserID,
	}
	if resp.Voice != "" {
		out.VoiceUsed = &resp.Voice
	}
	c.JSON(http.StatusOK, out)
}

// elevenLabsWebhook handles POST /api/elevenlabs-webhook.
func (h *handlers) elevenLabsWebhook(c *gin.Context) {
	var body webhookRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, errInvalidRequest, "text is required")
		return
	}

	resp, ok := h.handle(c, assistant.Request{Message: body.Text, UserID: body.UserID})
	if !ok {
		return
	}
	c.JSON(http.StatusOK, webhookResponse{ResponseText: resp.Text})
}

// handle runs the command, writes the audit record and reports errors.
// It returns false when the response has already been written.
func (h *handlers) handle(c *gin.Context, req assistant.Request) (*assistant.Response, bool) {
	ctx := c.Request.Context()
	req.RequestID = requestIDFrom(c)

	inv := instrumentation.NewInvocation(c.FullPath()).
		WithUser(req.UserID).
		WithRequestID(req.RequestID).
		WithSpanContext(ctx)

	resp, err := h.sc.Commands().Handle(ctx, req)
	if err != nil {
		h.sc.AuditLogger().LogInvocation(inv.CompleteWithError(err))
		writeError(c, err)
		return nil, false
	}

	h.sc.AuditLogger().LogInvocation(inv.WithIntent(resp.Intent, resp.Voice).CompleteSuccess())
	return resp, true
}
