package handlers

import (
	"net/http"

	"github.com/excing/credits-starter-kit/internal/ai"
	"github.com/excing/credits-starter-kit/internal/billing"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// ChatHandler streams chat completions from the upstream model.
type ChatHandler struct {
	client *ai.Client
}

// NewChatHandler constructs a ChatHandler.
func NewChatHandler(client *ai.Client) *ChatHandler {
	return &ChatHandler{client: client}
}

// chatRequest defines the chat payload.
type chatRequest struct {
	Messages []ai.Message `json:"messages"`
}

// Stream proxies the upstream SSE stream to the client and reports token
// usage to the billing context once the stream finishes cleanly.
func (h *ChatHandler) Stream(c *gin.Context) {
	userID := getUserID(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var body chatRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if len(body.Messages) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "messages are required"})
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	flusher, _ := c.Writer.(http.Flusher)
	flush := func() {
		if flusher != nil {
			flusher.Flush()
		}
	}

	usage, errStream := h.client.StreamChat(c.Request.Context(), body.Messages, c.Writer, flush)
	if errStream != nil {
		// Headers are already on the wire; flag the failure so no charge
		// is applied for the incomplete generation.
		log.WithError(errStream).WithField("user_id", userID).Warn("chat: stream ended with error")
		_ = c.Error(errStream)
		return
	}

	if bc := billing.FromGin(c); bc != nil {
		bc.ReportUsage(billing.TokenUsage{
			PromptTokens:     usage.PromptTokens,
			CompletionTokens: usage.CompletionTokens,
			TotalTokens:      usage.TotalTokens,
		})
	}
}
