package handlers

import (
	"fmt"
	"net/http"
	"sync"

	"cmdrelay/internal/assistant"

	"github.com/gin-gonic/gin"
)

// ChatHandler relays messages to the model. A nil assistant means no model
// is configured and every request gets 503.
type ChatHandler struct {
	mu        sync.Locker
	assistant *assistant.Assistant
}

func NewChatHandler(mu sync.Locker, a *assistant.Assistant) *ChatHandler {
	return &ChatHandler{mu: mu, assistant: a}
}

// Chat sends one message and returns the processed reply.
func (h *ChatHandler) Chat(c *gin.Context) {
	if h.assistant == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "no model configured; set GEMINI_API_KEY"})
		return
	}

	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: fmt.Sprintf("invalid request: %v", err)})
		return
	}

	// The model call runs under the lock too: the reply must be processed
	// against the registry the system prompt described.
	h.mu.Lock()
	turn := h.assistant.Respond(c.Request.Context(), req.Message)
	h.mu.Unlock()

	c.JSON(http.StatusOK, ChatResponse{
		Reply:       turn.Reply,
		Raw:         turn.Raw,
		Model:       h.assistant.Model(),
		Invocations: invocations(turn.Report),
	})
}
