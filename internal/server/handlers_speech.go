package server

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/teemow/voicecal/internal/speech"
)

// streamChunkSize is the read size for piping synthesized audio.
const streamChunkSize = 4096

type streamTTSRequest struct {
	Text    string `json:"text"`
	VoiceID string `json:"voice_id"`
}

// listVoices handles GET /api/voices.
func (h *handlers) listVoices(c *gin.Context) {
	svc := h.sc.Speech()
	if svc == nil {
		badRequest(c, errSynthesisUnconfigured, "speech synthesis is not configured")
		return
	}

	voices, err := svc.ListVoices(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, voices)
}

// streamTTS handles POST /api/stream-tts. Audio is flushed to the caller
// chunk by chunk as it arrives from the provider.
func (h *handlers) streamTTS(c *gin.Context) {
	var body streamTTSRequest
	if err := c.ShouldBindJSON(&body); err != nil || strings.TrimSpace(body.Text) == "" {
		badRequest(c, errInvalidRequest, "text is required")
		return
	}

	svc := h.sc.Speech()
	if svc == nil {
		badRequest(c, errSynthesisUnconfigured, "speech synthesis is not configured")
		return
	}

	stream, err := svc.SynthesizeStream(c.Request.Context(), body.Text, body.VoiceID)
	if err != nil {
		writeError(c, err)
		return
	}
	defer stream.Close()

	c.Header("Content-Type", speech.AudioContentType)
	c.Status(http.StatusOK)

	buf := make([]byte, streamChunkSize)
	c.Stream(func(w io.Writer) bool {
		n, err := stream.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				return false
			}
		}
		if err != nil {
			if err != io.EOF {
				h.sc.Logger().Warn("audio stream interrupted",
					"request_id", requestIDFrom(c), "error", err)
			}
			return false
		}
		return true
	})
}
