package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/pc9350/Captionator-caption-generator-sub000/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist or does not
// belong to the requesting user.
var ErrNotFound = errors.New("record not found")

// CaptionRepository handles persistence of saved captions and generation
// history.
type CaptionRepository struct {
	db *gorm.DB
}

// NewCaptionRepository creates a new caption repository.
func NewCaptionRepository(db *gorm.DB) *CaptionRepository {
	return &CaptionRepository{db: db}
}

// SaveCaption stores a caption under the given user.
func (r *CaptionRepository) SaveCaption(ctx context.Context, saved *domain.SavedCaption) error {
	if err := r.db.WithContext(ctx).Create(saved).Error; err != nil {
		return fmt.Errorf("failed to save caption: %w", err)
	}
	return nil
}

// ListSavedCaptions returns the user's saved captions, newest first.
func (r *CaptionRepository) ListSavedCaptions(ctx context.Context, userID string, limit, offset int) ([]domain.SavedCaption, error) {
	var captions []domain.SavedCaption
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&captions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list saved captions: %w", err)
	}
	return captions, nil
}

// DeleteSavedCaption removes a saved caption. The user scope prevents deleting
// another user's rows by guessing IDs.
func (r *CaptionRepository) DeleteSavedCaption(ctx context.Context, userID, id string) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&domain.SavedCaption{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete saved caption: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// RecordGeneration appends one generation to the user's history.
func (r *CaptionRepository) RecordGeneration(ctx context.Context, record *domain.GenerationRecord) error {
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return fmt.Errorf("failed to record generation: %w", err)
	}
	return nil
}

// ListGenerations returns the user's generation history, newest first.
func (r *CaptionRepository) ListGenerations(ctx context.Context, userID string, limit, offset int) ([]domain.GenerationRecord, error) {
	var records []domain.GenerationRecord
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list generations: %w", err)
	}
	return records, nil
}
