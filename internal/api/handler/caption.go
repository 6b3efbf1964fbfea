package handler

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pc9350/Captionator-caption-generator-sub000/internal/domain"
	"github.com/pc9350/Captionator-caption-generator-sub000/internal/logger"
	"github.com/pc9350/Captionator-caption-generator-sub000/internal/media"
	"github.com/pc9350/Captionator-caption-generator-sub000/internal/repository"
	"github.com/pc9350/Captionator-caption-generator-sub000/internal/service"
	"github.com/pc9350/Captionator-caption-generator-sub000/internal/storage"
)

const userIDHeader = "X-User-ID"

// sessionHeader identifies one client UI flow for call ordering. Concurrent
// requests from different sessions never supersede each other.
const sessionHeader = "X-Session-ID"

// CaptionHandler handles caption generation and library endpoints.
type CaptionHandler struct {
	generation *service.GenerationService
	repo       *repository.CaptionRepository
	store      storage.MediaStore // nil when media archiving is disabled
}

// NewCaptionHandler creates a new caption handler.
// Parameters:
//   - generation: caption generation service.
//   - repo: saved-caption and history repository, may be nil.
//   - store: media archive, may be nil.
//
// Returns:
//   - *CaptionHandler: initialized handler.
func NewCaptionHandler(
	generation *service.GenerationService,
	repo *repository.CaptionRepository,
	store storage.MediaStore,
) *CaptionHandler {
	return &CaptionHandler{
		generation: generation,
		repo:       repo,
		store:      store,
	}
}

// Generate handles POST /api/v1/captions/generate.
// Accepts a multipart form with one or more "images" files plus option fields.
// Parameters:
//   - c: Gin request context.
//
// Returns: none (writes JSON response).
func (h *CaptionHandler) Generate(c *gin.Context) {
	var opts domain.GenerationOptions
	if err := c.ShouldBind(&opts); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid options: " + err.Error(),
		})
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid multipart form: " + err.Error(),
		})
		return
	}

	inputs, err := readImageFiles(form.File["images"])
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return
	}

	result, err := h.generation.Generate(c.Request.Context(), c.GetHeader(sessionHeader), inputs, opts)
	if err != nil {
		h.writeGenerationError(c, err)
		return
	}

	if userID := c.GetHeader(userIDHeader); userID != "" {
		h.recordHistory(c, userID, inputs, opts, result)
	}

	c.JSON(http.StatusOK, result)
}

// Regenerate handles POST /api/v1/captions/regenerate.
// Produces one fresh caption for a single category, bypassing the cache.
// Parameters:
//   - c: Gin request context.
//
// Returns: none (writes JSON response).
func (h *CaptionHandler) Regenerate(c *gin.Context) {
	var opts domain.GenerationOptions
	if err := c.ShouldBind(&opts); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid options: " + err.Error(),
		})
		return
	}

	category := c.PostForm("category")
	if category == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Form field 'category' is required",
		})
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid multipart form: " + err.Error(),
		})
		return
	}

	inputs, err := readImageFiles(form.File["images"])
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return
	}

	result, err := h.generation.RegenerateCategory(c.Request.Context(), c.GetHeader(sessionHeader), inputs[0], category, opts)
	if err != nil {
		h.writeGenerationError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// SaveCaption handles POST /api/v1/captions/saved.
// Parameters:
//   - c: Gin request context.
//
// Returns: none (writes JSON response).
func (h *CaptionHandler) SaveCaption(c *gin.Context) {
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}

	var req struct {
		Text       string   `json:"text" binding:"required"`
		Category   string   `json:"category"`
		Hashtags   []string `json:"hashtags"`
		Emojis     []string `json:"emojis"`
		ViralScore int      `json:"viral_score"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request: " + err.Error(),
		})
		return
	}

	saved := &domain.SavedCaption{
		ID:         uuid.New().String(),
		UserID:     userID,
		Text:       req.Text,
		Category:   req.Category,
		Hashtags:   domain.NormalizeHashtags(req.Hashtags),
		Emojis:     req.Emojis,
		ViralScore: domain.NormalizeViralScore(req.ViralScore),
		CreatedAt:  time.Now(),
	}
	if err := h.repo.SaveCaption(c.Request.Context(), saved); err != nil {
		logger.CtxError(c.Request.Context(), "Failed to save caption: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to save caption",
		})
		return
	}

	c.JSON(http.StatusCreated, saved)
}

// ListSaved handles GET /api/v1/captions/saved.
// Parameters:
//   - c: Gin request context.
//
// Returns: none (writes JSON response).
func (h *CaptionHandler) ListSaved(c *gin.Context) {
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}

	limit, offset := pagination(c)
	captions, err := h.repo.ListSavedCaptions(c.Request.Context(), userID, limit, offset)
	if err != nil {
		logger.CtxError(c.Request.Context(), "Failed to list saved captions: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to list saved captions",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"captions": captions,
		"total":    len(captions),
	})
}

// DeleteSaved handles DELETE /api/v1/captions/saved/:id.
// Parameters:
//   - c: Gin request context.
//
// Returns: none (writes JSON response).
func (h *CaptionHandler) DeleteSaved(c *gin.Context) {
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}

	err := h.repo.DeleteSavedCaption(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Saved caption not found",
			})
			return
		}
		logger.CtxError(c.Request.Context(), "Failed to delete saved caption: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to delete saved caption",
		})
		return
	}

	c.Status(http.StatusNoContent)
}

// History handles GET /api/v1/captions/history.
// Parameters:
//   - c: Gin request context.
//
// Returns: none (writes JSON response).
func (h *CaptionHandler) History(c *gin.Context) {
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}

	limit, offset := pagination(c)
	records, err := h.repo.ListGenerations(c.Request.Context(), userID, limit, offset)
	if err != nil {
		logger.CtxError(c.Request.Context(), "Failed to list generation history: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to list generation history",
		})
		return
	}

	type historyEntry struct {
		domain.GenerationRecord
		Captions []domain.Caption `json:"captions"`
	}
	entries := make([]historyEntry, 0, len(records))
	for _, record := range records {
		captions, err := record.Captions()
		if err != nil {
			captions = []domain.Caption{}
		}
		entries = append(entries, historyEntry{GenerationRecord: record, Captions: captions})
	}

	c.JSON(http.StatusOK, gin.H{
		"history": entries,
		"total":   len(entries),
	})
}

// recordHistory archives the first image and stores the generation outcome.
// Failures here never fail the request.
func (h *CaptionHandler) recordHistory(
	c *gin.Context,
	userID string,
	inputs []service.MediaInput,
	opts domain.GenerationOptions,
	result *service.GenerationResult,
) {
	if h.repo == nil {
		return
	}
	ctx := c.Request.Context()

	mediaRef := ""
	if h.store != nil && len(inputs) > 0 {
		key := storage.MediaKey(userID)
		data := inputs[0].Data
		err := h.store.Upload(ctx, key, bytes.NewReader(data), int64(len(data)), "image/jpeg")
		if err != nil {
			logger.CtxWarn(ctx, "Failed to archive media: %v", err)
		} else {
			mediaRef = h.store.GetURL(key)
		}
	}

	opts = opts.Normalize()
	record := &domain.GenerationRecord{
		ID:         uuid.New().String(),
		UserID:     userID,
		MediaRef:   mediaRef,
		Tone:       string(opts.Tone),
		Length:     string(opts.Length),
		SpicyLevel: string(opts.SpicyLevel),
		Style:      string(opts.Style),
		Degraded:   result.Degraded,
		CreatedAt:  time.Now(),
	}
	if err := record.SetCaptions(result.Captions); err != nil {
		logger.CtxWarn(ctx, "Failed to encode captions for history: %v", err)
	}
	if err := h.repo.RecordGeneration(ctx, record); err != nil {
		logger.CtxWarn(ctx, "Failed to record generation history: %v", err)
	}
}

// requireUser extracts the user ID header or writes a 401.
func (h *CaptionHandler) requireUser(c *gin.Context) (string, bool) {
	if h.repo == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Persistence is not configured",
		})
		return "", false
	}
	userID := c.GetHeader(userIDHeader)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "Header " + userIDHeader + " is required",
		})
		return "", false
	}
	return userID, true
}

// writeGenerationError maps pipeline errors to HTTP statuses.
func (h *CaptionHandler) writeGenerationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNoImages),
		errors.Is(err, media.ErrMediaTooLarge),
		errors.Is(err, media.ErrUnreadableFile):
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
	case errors.Is(err, service.ErrSuperseded):
		c.JSON(http.StatusConflict, gin.H{
			"error": "Request superseded by a newer generation call",
		})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusRequestTimeout, gin.H{
			"error": "Request cancelled",
		})
	default:
		logger.CtxError(c.Request.Context(), "Generation failed: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{
			"error": "Caption generation failed: " + err.Error(),
		})
	}
}

// readImageFiles loads the uploaded files in their submitted order.
func readImageFiles(files []*multipart.FileHeader) ([]service.MediaInput, error) {
	if len(files) == 0 {
		return nil, errors.New("at least one 'images' file is required")
	}

	inputs := make([]service.MediaInput, 0, len(files))
	for _, header := range files {
		file, err := header.Open()
		if err != nil {
			return nil, errors.New("failed to open uploaded file " + header.Filename)
		}
		data, err := io.ReadAll(file)
		file.Close()
		if err != nil {
			return nil, errors.New("failed to read uploaded file " + header.Filename)
		}
		inputs = append(inputs, service.MediaInput{Data: data, Filename: header.Filename})
	}
	return inputs, nil
}

// pagination reads limit/offset query parameters with sane bounds.
func pagination(c *gin.Context) (limit, offset int) {
	limit = 50
	offset = 0
	if v, err := strconv.Atoi(c.Query("limit")); err == nil && v > 0 && v <= 200 {
		limit = v
	}
	if v, err := strconv.Atoi(c.Query("offset")); err == nil && v >= 0 {
		offset = v
	}
	return limit, offset
}
