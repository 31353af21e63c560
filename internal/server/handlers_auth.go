package server

import (
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/teemow/voicecal/internal/google"
	"github.com/teemow/voicecal/internal/logging"
)

const callbackTemplateName = "callback.html"

var authTemplates = template.Must(template.New(callbackTemplateName).Parse(`<!DOCTYPE html>
<html>
<head><title>Google Calendar connected</title></head>
<body>
<h1>Google Calendar authorization complete</h1>
{{if .RefreshToken}}
<p>Add this refresh token to your environment as <code>GOOGLE_REFRESH_TOKEN</code> and restart the server:</p>
<pre>{{.RefreshToken}}</pre>
{{else}}
<p>Google did not return a refresh token. Revoke the app's access in your Google account settings and authorize again.</p>
{{end}}
</body>
</html>
`))

// authRedirect handles GET /auth/google.
func (h *handlers) authRedirect(c *gin.Context) {
	url, err := google.GetAuthURL(h.sc.Credentials(), uuid.NewString())
	if err != nil {
		writeError(c, err)
		return
	}
	c.Redirect(http.StatusFound, url)
}

// authCallback handles GET /auth/google/callback.
func (h *handlers) authCallback(c *gin.Context) {
	if denied := c.Query("error"); denied != "" {
		badRequest(c, errInvalidRequest, "authorization was denied: "+denied)
		return
	}

	code := c.Query("code")
	if code == "" {
		badRequest(c, errInvalidRequest, "code is required")
		return
	}

	creds := h.sc.Credentials()
	if !creds.Configured() {
		writeError(c, google.ErrNotConfigured)
		return
	}

	token, err := h.sc.ExchangeCode(c.Request.Context(), code)
	if err != nil {
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
			Error:   errOAuthExchange,
			Message: err.Error(),
		})
		return
	}

	h.sc.Logger().Info("google authorization completed",
		"refresh_token", logging.SanitizeToken(token.RefreshToken))

	c.HTML(http.StatusOK, callbackTemplateName, gin.H{"RefreshToken": token.RefreshToken})
}
