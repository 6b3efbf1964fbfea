package provider

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pc9350/Captionator-caption-generator-sub000/internal/logger"
)

// RetryPolicy defines how transient provider failures are retried.
type RetryPolicy struct {
	MaxRetries int           // retries after the initial attempt
	BaseDelay  time.Duration // delay before the first retry
}

// DefaultRetryPolicy returns the standard policy: 3 retries with exponential
// backoff at 1s, 2s, 4s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries: 3,
		BaseDelay:  time.Second,
	}
}

// Delay computes the backoff before retry number retryIndex (0-based):
// BaseDelay * 2^retryIndex.
func (p RetryPolicy) Delay(retryIndex int) time.Duration {
	return p.BaseDelay << uint(retryIndex)
}

// Sleeper waits for d or until the context is cancelled. Injected so tests
// run without real delays.
type Sleeper func(ctx context.Context, d time.Duration) error

// sleepWithContext is the production Sleeper.
func sleepWithContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// RetryingClient wraps a Caller with the retry policy. Non-transient errors
// propagate immediately; exhausted retries produce a well-formed fallback
// payload instead of an error, so the parser and UI treat provider
// exhaustion uniformly with any other response.
type RetryingClient struct {
	caller Caller
	policy RetryPolicy
	sleep  Sleeper
}

// NewRetryingClient creates a retrying wrapper around caller.
func NewRetryingClient(caller Caller, policy RetryPolicy) *RetryingClient {
	if policy.MaxRetries < 0 {
		policy.MaxRetries = 0
	}
	if policy.BaseDelay <= 0 {
		policy.BaseDelay = time.Second
	}
	return &RetryingClient{
		caller: caller,
		policy: policy,
		sleep:  sleepWithContext,
	}
}

// SetSleeper overrides the backoff sleeper. Intended for tests.
func (c *RetryingClient) SetSleeper(s Sleeper) {
	if s != nil {
		c.sleep = s
	}
}

// Call issues the provider call with retry.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - req: normalized generation request.
//
// Returns:
//   - *Response: raw body, with Fallback set when retries were exhausted.
//   - error: non-nil only for non-transient provider rejections or context
//     cancellation.
func (c *RetryingClient) Call(ctx context.Context, req *Request) (*Response, error) {
	var lastErr error

	for attempt := 0; attempt <= c.policy.MaxRetries; attempt++ {
		body, err := c.caller.Call(ctx, req)
		if err == nil {
			if attempt > 0 {
				logger.With(logger.Fields{logger.FieldAttempt: attempt}).
					Info(ctx, "Provider call succeeded after retry")
			}
			return &Response{Body: body}, nil
		}

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		if !IsTransient(err) {
			logger.CtxWarn(ctx, "Non-retryable provider error: %v", err)
			return nil, err
		}

		lastErr = err

		if attempt == c.policy.MaxRetries {
			break
		}

		delay := c.policy.Delay(attempt)
		logger.With(logger.Fields{
			logger.FieldAttempt: attempt + 1,
			"retry_delay_ms":    delay.Milliseconds(),
		}).Warn(ctx, "Transient provider error, retrying: %v", err)

		if err := c.sleep(ctx, delay); err != nil {
			return nil, err
		}
	}

	logger.CtxError(ctx, "Provider retries exhausted: %v", lastErr)
	return &Response{Body: FallbackBody(), Fallback: true}, nil
}

// fallbackCaption mirrors the caption shape the parser expects, so the
// exhaustion path flows through the same extraction code as a real response.
type fallbackCaption struct {
	Text     string   `json:"text"`
	Category string   `json:"category"`
	Hashtags []string `json:"hashtags"`
	Emojis   []string `json:"emojis"`
}

type fallbackPayload struct {
	Captions []fallbackCaption `json:"captions"`
}

// FallbackBody builds the well-formed error-caption payload returned after
// retry exhaustion.
func FallbackBody() string {
	payload := fallbackPayload{
		Captions: []fallbackCaption{{
			Text:     "We couldn't generate captions right now. Please check your connection and try again in a moment.",
			Category: "Error",
			Hashtags: []string{},
			Emojis:   []string{},
		}},
	}
	b, _ := json.Marshal(payload)
	return string(b)
}
