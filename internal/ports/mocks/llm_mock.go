package mocks

import (
	"context"

	"cmdrelay/internal/ports"
)

type MockLLMClient struct {
	GenerateFunc func(ctx context.Context, req ports.GenerateRequest) (*ports.GenerateResponse, error)
	ModelFunc    func() string
}

func (m *MockLLMClient) Generate(ctx context.Context, req ports.GenerateRequest) (*ports.GenerateResponse, error) {
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, req)
	}
	return &ports.GenerateResponse{
		Text:  "Mock response",
		Usage: ports.TokenUsage{TotalTokens: 100},
	}, nil
}

func (m *MockLLMClient) Model() string {
	if m.ModelFunc != nil {
		return m.ModelFunc()
	}
	return "mock-model"
}
