package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pc9350/Captionator-caption-generator-sub000/internal/cache"
	"github.com/pc9350/Captionator-caption-generator-sub000/internal/domain"
	"github.com/pc9350/Captionator-caption-generator-sub000/internal/logger"
	"github.com/pc9350/Captionator-caption-generator-sub000/internal/media"
	"github.com/pc9350/Captionator-caption-generator-sub000/internal/parser"
	"github.com/pc9350/Captionator-caption-generator-sub000/internal/prompts"
	"github.com/pc9350/Captionator-caption-generator-sub000/internal/provider"
)

// ProviderCaller is the retrying provider client as seen by the orchestrator.
type ProviderCaller interface {
	Call(ctx context.Context, req *provider.Request) (*provider.Response, error)
}

// GenerationConfig holds configuration for the generation service.
type GenerationConfig struct {
	Model        string
	MaxTokens    int
	Temperature  float32
	CaptionCount int // default captions per call when the request leaves it unset
}

// MediaInput is one user-supplied image before preparation.
type MediaInput struct {
	Data     []byte
	Filename string
}

// GenerationResult is the tagged outcome of one generation call. Degraded
// results still carry a displayable caption list; callers that care whether
// generation actually succeeded branch on Degraded instead of string-matching
// caption categories.
type GenerationResult struct {
	Captions []domain.Caption `json:"captions"`
	Degraded bool             `json:"degraded"`
	Reason   string           `json:"reason,omitempty"`
	CacheHit bool             `json:"cache_hit"`
}

// Degradation reasons.
const (
	ReasonRetriesExhausted = "provider_retries_exhausted"
	ReasonUnparseable      = "unparseable_response"
	ReasonErrorCaption     = "provider_error_caption"
)

// GenerationService drives the caption pipeline: validate, prepare media,
// consult the cache, call the provider, parse. It is the only public entry
// point for caption generation.
type GenerationService struct {
	preparer *media.Preparer
	cache    *cache.ResponseCache
	client   ProviderCaller
	cfg      GenerationConfig

	// sessions orders generation calls per caller session so a stale
	// in-flight call cannot resolve after a newer one from the same session
	// has started. Independent sessions never supersede each other; calls
	// without a session are never superseded.
	mu       sync.Mutex
	sessions map[string]uint64
}

// NewGenerationService creates the orchestrator.
func NewGenerationService(
	preparer *media.Preparer,
	responseCache *cache.ResponseCache,
	client ProviderCaller,
	cfg GenerationConfig,
) *GenerationService {
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 1200
	}
	return &GenerationService{
		preparer: preparer,
		cache:    responseCache,
		client:   client,
		cfg:      cfg,
		sessions: make(map[string]uint64),
	}
}

// beginCall registers a new generation call for the session and returns its
// sequence number. Sessionless calls get sequence 0 and skip ordering.
func (s *GenerationService) beginCall(session string) uint64 {
	if session == "" {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session]++
	return s.sessions[session]
}

func (s *GenerationService) currentSeq(session string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[session]
}

// Generate produces captions for one or more images.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - session: caller session for call ordering; empty disables superseding.
//   - images: non-empty ordered media set.
//   - opts: generation options; zero values take defaults.
//
// Returns:
//   - *GenerationResult: captions plus the Degraded tag.
//   - error: ErrNoImages, a media preparation failure, a non-retryable
//     provider error, or ErrSuperseded.
func (s *GenerationService) Generate(ctx context.Context, session string, images []MediaInput, opts domain.GenerationOptions) (*GenerationResult, error) {
	callSeq := s.beginCall(session)

	if len(images) == 0 {
		return nil, ErrNoImages
	}
	if opts.CaptionCount <= 0 {
		opts.CaptionCount = s.cfg.CaptionCount
	}
	opts = opts.Normalize()

	ctx = logger.SetGenerationID(ctx, uuid.New().String())
	start := time.Now()

	payloads, err := s.prepareAll(ctx, images)
	if err != nil {
		return nil, err
	}

	userPrompt := prompts.BuildCaptionPrompt(opts)
	result, err := s.execute(ctx, session, callSeq, payloads, opts, userPrompt, false)
	if err != nil {
		return nil, err
	}

	logger.With(logger.Fields{
		logger.FieldDurationMs: time.Since(start).Milliseconds(),
		logger.FieldCount:      len(result.Captions),
		logger.FieldStatus:     statusLabel(result),
	}).Info(ctx, "Generation completed")

	return result, nil
}

// RegenerateCategory produces one fresh caption for a single category. The
// intent is explicitly "give me something different", so the cache read is
// bypassed; the fresh response is still written back under the stable key.
func (s *GenerationService) RegenerateCategory(ctx context.Context, session string, image MediaInput, category string, opts domain.GenerationOptions) (*GenerationResult, error) {
	callSeq := s.beginCall(session)

	if len(image.Data) == 0 {
		return nil, ErrNoImages
	}
	opts = opts.Normalize()
	opts.CaptionCount = 1

	ctx = logger.SetGenerationID(ctx, uuid.New().String())
	ctx = logger.WithField(ctx, logger.FieldCategory, category)

	payloads, err := s.prepareAll(ctx, []MediaInput{image})
	if err != nil {
		return nil, err
	}

	userPrompt := prompts.BuildRegeneratePrompt(category, opts)
	result, err := s.execute(ctx, session, callSeq, payloads, opts, userPrompt, true)
	if err != nil {
		return nil, err
	}

	// Regenerated captions keep the requested category even if the model
	// drifted.
	for i := range result.Captions {
		if !result.Captions[i].IsError() {
			result.Captions[i].Category = category
		}
	}

	return result, nil
}

// prepareAll runs the media preparer over each image sequentially to keep
// memory bounded; any single failure aborts the whole call so no partial
// generation happens from a subset of images.
func (s *GenerationService) prepareAll(ctx context.Context, images []MediaInput) ([]string, error) {
	payloads := make([]string, 0, len(images))
	for _, img := range images {
		prepared, err := s.preparer.Prepare(img.Data)
		if err != nil {
			logger.CtxWarn(ctx, "Media preparation failed for %q: %v", img.Filename, err)
			return nil, fmt.Errorf("preparing %q: %w", img.Filename, err)
		}
		payloads = append(payloads, prepared.DataURI)
	}
	return payloads, nil
}

// execute runs the cache-check, provider-call, and parse stages. bypassCache
// skips the read but never the write-back.
func (s *GenerationService) execute(
	ctx context.Context,
	session string,
	callSeq uint64,
	payloads []string,
	opts domain.GenerationOptions,
	userPrompt string,
	bypassCache bool,
) (*GenerationResult, error) {
	// The rendered prompt is part of the request identity: regeneration and
	// differing caption counts produce different prompts and must not share
	// an entry with a plain generate call.
	key := cache.BuildKey(cache.KeyParams{
		Model:           s.cfg.Model,
		UserPrompt:      userPrompt,
		Tone:            string(opts.Tone),
		Length:          string(opts.Length),
		SpicyLevel:      string(opts.SpicyLevel),
		Style:           string(opts.Style),
		CreativeOptions: opts.CreativeOptions,
		IncludeHashtags: opts.IncludeHashtags,
		IncludeEmojis:   opts.IncludeEmojis,
		MediaPayloads:   payloads,
		MaxTokens:       s.cfg.MaxTokens,
	})

	reqCtx := parser.Context{DefaultCategory: string(opts.Tone)}

	if !bypassCache {
		if body, ok := s.cache.Get(key); ok {
			logger.CtxDebug(ctx, "Cache hit, skipping provider call")
			result := buildResult(parser.Parse(body, reqCtx), false)
			result.CacheHit = true
			return s.resolve(session, callSeq, result)
		}
	}

	resp, err := s.client.Call(ctx, &provider.Request{
		SystemPrompt:  prompts.CaptionSystemPrompt,
		UserPrompt:    userPrompt,
		MediaPayloads: payloads,
		MaxTokens:     s.cfg.MaxTokens,
		Temperature:   s.cfg.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("provider call failed: %w", err)
	}

	// Fallback bodies are synthesized locally after retry exhaustion; caching
	// them would mask the provider recovering.
	if !resp.Fallback {
		s.cache.Put(key, resp.Body)
	}

	result := buildResult(parser.Parse(resp.Body, reqCtx), resp.Fallback)
	return s.resolve(session, callSeq, result)
}

// resolve enforces per-session call ordering: if a newer call from the same
// session started while this one was in flight, the stale result is dropped.
// Sessionless calls always resolve.
func (s *GenerationService) resolve(session string, callSeq uint64, result *GenerationResult) (*GenerationResult, error) {
	if session == "" {
		return result, nil
	}
	if s.currentSeq(session) != callSeq {
		return nil, ErrSuperseded
	}
	return result, nil
}

// buildResult tags the parse outcome. A single Error-category caption is a
// soft failure: still returned for display, but flagged so callers can
// branch on success explicitly.
func buildResult(parsed parser.Result, fromFallback bool) *GenerationResult {
	result := &GenerationResult{Captions: parsed.Captions}

	switch {
	case fromFallback:
		result.Degraded = true
		result.Reason = ReasonRetriesExhausted
	case parsed.Synthesized:
		result.Degraded = true
		result.Reason = ReasonUnparseable
	case len(parsed.Captions) == 1 && parsed.Captions[0].IsError():
		result.Degraded = true
		result.Reason = ReasonErrorCaption
	}

	return result
}

func statusLabel(result *GenerationResult) string {
	if result.Degraded {
		return "degraded"
	}
	return "ok"
}
