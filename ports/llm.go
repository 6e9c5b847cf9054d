package ports

import "context"

// UsageData represents raw usage data from LLM provider APIs
type UsageData struct {
	PromptTokens     int    `json:"prompt_tokens"`
	CompletionTokens int    `json:"completion_tokens"`
	TotalTokens      int    `json:"total_tokens"`
	Model            string `json:"model"`
	Provider         string `json:"provider"`
}

// LLMResponse is a completion with its token usage
type LLMResponse struct {
	Content string
	Usage   *UsageData
}

// CompletionRequest is a single-turn chat completion
type CompletionRequest struct {
	System      string
	Prompt      string
	Model       string
	Temperature float32
	MaxTokens   int
}

// LLMClient interface for LLM providers
type LLMClient interface {
	Complete(ctx context.Context, req CompletionRequest) (*LLMResponse, error)
}
