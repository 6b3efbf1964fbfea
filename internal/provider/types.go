package provider

import "context"

// Request is one caption-generation call to the LLM provider.
type Request struct {
	SystemPrompt  string
	UserPrompt    string
	MediaPayloads []string // base64 data-URIs, in display order
	MaxTokens     int
	Temperature   float32
}

// Response is the raw text outcome of a provider call. Body is untrusted
// model output; Fallback marks payloads synthesized locally after retry
// exhaustion, which must not be cached.
type Response struct {
	Body     string
	Fallback bool
}

// Caller issues a single provider call without retry semantics.
type Caller interface {
	Call(ctx context.Context, req *Request) (string, error)
}

// OpenAI-compatible Chat Completion API request/response structures
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float32       `json:"temperature"`
}

type chatMessage struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"` // string for system, []interface{} for user with images
}

type textContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type imageContent struct {
	Type     string       `json:"type"`
	ImageURL imageURLSpec `json:"image_url"`
}

type imageURLSpec struct {
	URL    string `json:"url"`
	Detail string `json:"detail,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}
