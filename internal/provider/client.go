package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// ClientConfig holds configuration for the provider HTTP client.
type ClientConfig struct {
	Model   string
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// HTTPCaller issues chat-completion calls against an OpenAI-compatible
// endpoint. It performs exactly one attempt per Call; retry policy lives in
// RetryingClient.
type HTTPCaller struct {
	client   *resty.Client
	model    string
	endpoint string
}

// NewHTTPCaller creates a provider caller.
// Parameters:
//   - cfg: provider configuration including model, API key, and base URL.
//
// Returns:
//   - *HTTPCaller: initialized client wrapper.
func NewHTTPCaller(cfg *ClientConfig) *HTTPCaller {
	client := resty.New()
	client.SetHeader("Authorization", "Bearer "+cfg.APIKey)
	client.SetHeader("Content-Type", "application/json")
	// Retries are handled at a higher level
	client.SetRetryCount(0)

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 40 * time.Second
	}
	client.SetTimeout(timeout)

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}

	return &HTTPCaller{
		client:   client,
		model:    cfg.Model,
		endpoint: baseURL + "/chat/completions",
	}
}

// Model returns the model identifier being used.
func (c *HTTPCaller) Model() string {
	return c.model
}

// Call sends one chat-completion request and returns the raw message content.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - req: normalized generation request.
//
// Returns:
//   - string: raw model output text (untrusted, possibly malformed).
//   - error: *Error with the HTTP status on provider rejection, or a
//     transport error.
func (c *HTTPCaller) Call(ctx context.Context, req *Request) (string, error) {
	userContent := []interface{}{
		textContent{Type: "text", Text: req.UserPrompt},
	}
	for _, payload := range req.MediaPayloads {
		userContent = append(userContent, imageContent{
			Type: "image_url",
			ImageURL: imageURLSpec{
				URL:    payload,
				Detail: "auto",
			},
		})
	}

	body := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: req.SystemPrompt},
			{Role: "user", Content: userContent},
		},
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}

	var resp chatResponse
	httpResp, err := c.client.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&resp).
		Post(c.endpoint)

	if err != nil {
		return "", fmt.Errorf("failed to call provider API: %w", err)
	}

	if httpResp.StatusCode() < 200 || httpResp.StatusCode() >= 300 {
		msg := string(httpResp.Body())
		if resp.Error != nil {
			msg = resp.Error.Message
		}
		return "", &Error{StatusCode: httpResp.StatusCode(), Message: msg}
	}

	if resp.Error != nil {
		return "", &Error{StatusCode: httpResp.StatusCode(), Message: resp.Error.Message}
	}

	if len(resp.Choices) == 0 {
		return "", &Error{
			StatusCode: httpResp.StatusCode(),
			Message:    "no choices in response",
		}
	}

	return resp.Choices[0].Message.Content, nil
}
