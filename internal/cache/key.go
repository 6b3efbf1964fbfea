package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// KeyParams are the cache-relevant request fields. Ambient values such as
// timestamps or per-call nonces must not appear here so that logically
// identical requests produce identical keys.
type KeyParams struct {
	Model           string   `json:"model"`
	UserPrompt      string   `json:"user_prompt"`
	Tone            string   `json:"tone"`
	Length          string   `json:"length"`
	SpicyLevel      string   `json:"spicy_level"`
	Style           string   `json:"style"`
	CreativeOptions []string `json:"creative_options"`
	IncludeHashtags bool     `json:"include_hashtags"`
	IncludeEmojis   bool     `json:"include_emojis"`
	MediaPayloads   []string `json:"media_payloads"`
	MaxTokens       int      `json:"max_tokens"`
}

// BuildKey derives the deterministic cache key for a request. json.Marshal
// of a struct emits fields in declaration order, so equal params always
// serialize identically; the hash keeps keys bounded despite multi-megabyte
// media payloads.
func BuildKey(p KeyParams) string {
	if p.CreativeOptions == nil {
		p.CreativeOptions = []string{}
	}
	if p.MediaPayloads == nil {
		p.MediaPayloads = []string{}
	}
	b, err := json.Marshal(p)
	if err != nil {
		// Marshal of a plain struct of strings and bools cannot fail; keep
		// the signature simple.
		return ""
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
