package handlers

import "cmdrelay/internal/interpreter"

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

// CommandInfo describes one registered command.
type CommandInfo struct {
	Name      string `json:"name"`
	Signature string `json:"signature"`
	Summary   string `json:"summary,omitempty"`
	Variadic  bool   `json:"variadic,omitempty"`
	Cacheable bool   `json:"cacheable,omitempty"`
}

type CommandsResponse struct {
	Commands []CommandInfo `json:"commands"`
}

type PromptResponse struct {
	Prompt string `json:"prompt"`
}

// ProcessRequest asks the server to substitute the invocations in Text.
// MaxInvocations defaults to the server's configured budget.
type ProcessRequest struct {
	Text           string `json:"text"`
	MaxInvocations *int   `json:"max_invocations,omitempty"`
}

type ProcessResponse struct {
	Output      string                   `json:"output"`
	Invocations []interpreter.Invocation `json:"invocations"`
}

type ChatRequest struct {
	Message string `json:"message" binding:"required"`
}

type ChatResponse struct {
	Reply       string                   `json:"reply"`
	Raw         string                   `json:"raw"`
	Model       string                   `json:"model"`
	Invocations []interpreter.Invocation `json:"invocations"`
}
