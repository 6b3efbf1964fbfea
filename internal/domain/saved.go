package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// StringArray is a custom type for storing string arrays as JSON in the database.
type StringArray []string

// Value implements the driver.Valuer interface for database serialization.
func (a StringArray) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface for database deserialization.
func (a *StringArray) Scan(value interface{}) error {
	if value == nil {
		*a = StringArray{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		str, ok := value.(string)
		if !ok {
			return errors.New("failed to scan StringArray")
		}
		bytes = []byte(str)
	}
	return json.Unmarshal(bytes, a)
}

// SavedCaption is a caption a signed-in user chose to keep. The generation
// pipeline never writes these; the HTTP layer does on the user's behalf.
type SavedCaption struct {
	ID         string      `gorm:"primaryKey;size:36" json:"id"`
	UserID     string      `gorm:"index;size:64;not null" json:"user_id"`
	Text       string      `gorm:"type:text;not null" json:"text"`
	Category   string      `gorm:"size:64" json:"category"`
	Hashtags   StringArray `gorm:"type:text" json:"hashtags"`
	Emojis     StringArray `gorm:"type:text" json:"emojis"`
	ViralScore int         `json:"viral_score"`
	CreatedAt  time.Time   `json:"created_at"`
}

// TableName overrides the GORM table name.
func (SavedCaption) TableName() string {
	return "saved_captions"
}

// GenerationRecord is one entry of a user's generation history: which media
// was captioned, with which options, and what came back.
type GenerationRecord struct {
	ID           string      `gorm:"primaryKey;size:36" json:"id"`
	UserID       string      `gorm:"index;size:64;not null" json:"user_id"`
	MediaRef     string      `gorm:"size:512" json:"media_ref"`
	Tone         string      `gorm:"size:32" json:"tone"`
	Length       string      `gorm:"size:32" json:"length"`
	SpicyLevel   string      `gorm:"size:32" json:"spicy_level"`
	Style        string      `gorm:"size:32" json:"style"`
	CaptionsJSON string      `gorm:"type:text" json:"-"`
	Degraded     bool        `json:"degraded"`
	CreatedAt    time.Time   `json:"created_at"`
}

// TableName overrides the GORM table name.
func (GenerationRecord) TableName() string {
	return "generation_records"
}

// Captions decodes the stored caption payload.
func (r *GenerationRecord) Captions() ([]Caption, error) {
	if r.CaptionsJSON == "" {
		return []Caption{}, nil
	}
	var out []Caption
	if err := json.Unmarshal([]byte(r.CaptionsJSON), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SetCaptions encodes captions into the stored payload.
func (r *GenerationRecord) SetCaptions(captions []Caption) error {
	b, err := json.Marshal(captions)
	if err != nil {
		return err
	}
	r.CaptionsJSON = string(b)
	return nil
}
