package domain

import (
	"strings"

	"github.com/google/uuid"
)

// CategoryError marks captions synthesized when generation could not produce
// real content. Callers should prefer GenerationResult.Degraded over matching
// this value.
const CategoryError = "Error"

// Viral score bounds. Scores outside the range, absent, or non-numeric are
// replaced by the neutral midpoint.
const (
	ViralScoreMin     = 1
	ViralScoreMax     = 10
	ViralScoreNeutral = 5
)

// Caption is one generated social-media caption.
type Caption struct {
	ID         string   `json:"id"`
	Text       string   `json:"text"`
	Category   string   `json:"category"`
	Hashtags   []string `json:"hashtags"`
	Emojis     []string `json:"emojis"`
	ViralScore int      `json:"viral_score"`
}

// NewCaption creates a caption with a fresh unique ID. IDs are per-instance,
// so regenerating the same content still yields a distinct caption.
func NewCaption(text, category string) Caption {
	return Caption{
		ID:         uuid.New().String(),
		Text:       text,
		Category:   category,
		Hashtags:   []string{},
		Emojis:     []string{},
		ViralScore: ViralScoreNeutral,
	}
}

// IsError reports whether the caption is a synthesized error placeholder.
func (c Caption) IsError() bool {
	return c.Category == CategoryError
}

// NormalizeHashtags strips leading '#' characters and drops empty entries so
// the UI can render tags uniformly.
func NormalizeHashtags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(strings.TrimPrefix(t, "#"))
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// NormalizeViralScore substitutes the neutral midpoint for scores that are
// unset or outside the valid range.
func NormalizeViralScore(score int) int {
	if score < ViralScoreMin || score > ViralScoreMax {
		return ViralScoreNeutral
	}
	return score
}
