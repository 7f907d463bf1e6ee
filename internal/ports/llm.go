// Package ports holds the interfaces that connect cmdrelay to outside
// services.
package ports

import "context"

// LLMClient represents a text generation model.
type LLMClient interface {
	// Generate sends a single prompt and returns the model's reply.
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)

	// Model returns the model identifier
	Model() string
}

// GenerateRequest is a single-turn generation request.
type GenerateRequest struct {
	Prompt            string `json:"prompt"`
	SystemInstruction string `json:"system_instruction,omitempty"`
}

// GenerateResponse is the model's reply.
type GenerateResponse struct {
	Text  string     `json:"text"`
	Usage TokenUsage `json:"usage"`
}

// TokenUsage tracks token consumption
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}
