package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"sync"

	"cmdrelay/internal/interpreter"
	"cmdrelay/internal/logging"

	"github.com/gin-gonic/gin"
)

// ProcessHandler serves the interpreter endpoints. Every call holds mu.
type ProcessHandler struct {
	mu     sync.Locker
	interp *interpreter.Interpreter
	logger logging.Logger
}

func NewProcessHandler(mu sync.Locker, interp *interpreter.Interpreter, logger logging.Logger) *ProcessHandler {
	return &ProcessHandler{mu: mu, interp: interp, logger: logging.OrNop(logger)}
}

// ListCommands returns the registered commands in registration order.
func (h *ProcessHandler) ListCommands(c *gin.Context) {
	h.mu.Lock()
	descs := h.interp.Registry().Descriptors()
	h.mu.Unlock()

	resp := CommandsResponse{Commands: make([]CommandInfo, 0, len(descs))}
	for _, d := range descs {
		resp.Commands = append(resp.Commands, CommandInfo{
			Name:      d.Name,
			Signature: d.Name + d.Signature(),
			Summary:   d.Summary(),
			Variadic:  d.Variadic,
			Cacheable: d.Cacheable,
		})
	}
	c.JSON(http.StatusOK, resp)
}

// Prompt returns the system prompt for the current registry.
func (h *ProcessHandler) Prompt(c *gin.Context) {
	h.mu.Lock()
	text := h.interp.SystemPrompt()
	h.mu.Unlock()
	c.JSON(http.StatusOK, PromptResponse{Prompt: text})
}

// Process substitutes the invocations in the posted text.
func (h *ProcessHandler) Process(c *gin.Context) {
	var req ProcessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: fmt.Sprintf("invalid request: %v", err)})
		return
	}

	h.mu.Lock()
	budget := h.interp.DefaultBudget()
	if req.MaxInvocations != nil {
		budget = *req.MaxInvocations
	}
	report, err := h.interp.ProcessReport(c.Request.Context(), req.Text, budget)
	h.mu.Unlock()

	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, interpreter.ErrNegativeBudget) || errors.Is(err, interpreter.ErrInputTooLarge) {
			status = http.StatusUnprocessableEntity
		}
		logging.FromContext(c.Request.Context(), h.logger).Warn("process failed: %v", err)
		c.JSON(status, ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, ProcessResponse{Output: report.Output, Invocations: invocations(report)})
}

func invocations(report *interpreter.Report) []interpreter.Invocation {
	if report == nil || report.Invocations == nil {
		return []interpreter.Invocation{}
	}
	return report.Invocations
}
