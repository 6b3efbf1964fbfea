// Package parser turns raw provider output into validated captions. The
// upstream text generator is asked to emit JSON but is not guaranteed to
// comply, especially under token-length pressure or when it appends
// explanatory prose, so extraction runs through ordered fallback stages and
// every field gets a safe default.
package parser

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/pc9350/Captionator-caption-generator-sub000/internal/domain"
)

// PlaceholderText substitutes a caption whose record carried no usable text.
const PlaceholderText = "Caption unavailable. Try regenerating for a fresh take."

// fallbackText is the user-facing body of the synthesized caption produced
// when no extraction stage succeeds.
const fallbackText = "We couldn't generate captions for this image. Please try again."

// Context carries the request-side defaults applied during validation.
type Context struct {
	// DefaultCategory labels captions whose record omits a category,
	// normally the requested tone.
	DefaultCategory string
}

// Result is the outcome of parsing one raw response.
type Result struct {
	Captions []domain.Caption
	// Synthesized is true when every extraction stage failed and the single
	// caption is the fallback error caption.
	Synthesized bool
}

// record is one loosely-typed caption candidate. Fields are interface{} so a
// model that emits the wrong type for a field does not sink the whole
// record; coercion happens in validateCaptionFields.
type record map[string]interface{}

// extractor attempts to pull caption records out of raw text. Extractors are
// pure and independently testable; Parse applies them in order and stops at
// the first success.
type extractor func(text string) ([]record, bool)

var extractors = []extractor{
	extractStrict,
	extractBalanced,
	extractFragments,
}

var fragmentPattern = regexp.MustCompile(`\{[^{}]*\}`)

// Parse extracts a validated caption list from raw provider output. It never
// fails and never returns an empty list: when nothing can be extracted it
// synthesizes a single error caption.
// Parameters:
//   - rawText: untrusted provider output.
//   - reqCtx: request-side defaults.
//
// Returns:
//   - Result: at least one caption, every field populated.
func Parse(rawText string, reqCtx Context) Result {
	text := stripCodeFences(rawText)

	for _, extract := range extractors {
		records, ok := extract(text)
		if !ok || len(records) == 0 {
			continue
		}

		captions := make([]domain.Caption, 0, len(records))
		for _, rec := range records {
			captions = append(captions, validateCaptionFields(rec, reqCtx))
		}
		return Result{Captions: captions}
	}

	fallback := domain.NewCaption(fallbackText, domain.CategoryError)
	return Result{
		Captions:    []domain.Caption{fallback},
		Synthesized: true,
	}
}

// stripCodeFences removes a surrounding markdown code block, a common way
// for models to wrap the JSON they were asked to emit bare.
func stripCodeFences(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}

// extractStrict parses the entire text as JSON.
func extractStrict(text string) ([]record, bool) {
	var decoded interface{}
	if err := json.Unmarshal([]byte(text), &decoded); err != nil {
		return nil, false
	}
	return recordsFromDecoded(decoded)
}

// extractBalanced locates the first balanced {...} block in the text and
// parses that substring. This recovers JSON the model wrapped in prose.
func extractBalanced(text string) ([]record, bool) {
	start := strings.Index(text, "{")
	if start == -1 {
		return nil, false
	}

	braceCount := 0
	end := -1
findJSON:
	for i := start; i < len(text); i++ {
		switch text[i] {
		case '{':
			braceCount++
		case '}':
			braceCount--
			if braceCount == 0 {
				end = i + 1
				break findJSON
			}
		}
	}
	if end == -1 {
		return nil, false
	}

	var decoded interface{}
	if err := json.Unmarshal([]byte(text[start:end]), &decoded); err != nil {
		return nil, false
	}
	return recordsFromDecoded(decoded)
}

// extractFragments scans for small non-nested {...} fragments and keeps the
// first one that looks caption-shaped. Last resort before synthesis.
func extractFragments(text string) ([]record, bool) {
	for _, fragment := range fragmentPattern.FindAllString(text, -1) {
		var decoded map[string]interface{}
		if err := json.Unmarshal([]byte(fragment), &decoded); err != nil {
			continue
		}
		rec := record(decoded)
		if rec.captionShaped() {
			return []record{rec}, true
		}
	}
	return nil, false
}

// recordsFromDecoded maps a decoded JSON value onto caption records:
// an object exposing a `captions` array is used directly, a single
// caption-shaped object is wrapped, and a top-level array is accepted as-is.
func recordsFromDecoded(decoded interface{}) ([]record, bool) {
	switch v := decoded.(type) {
	case map[string]interface{}:
		if list, ok := v["captions"].([]interface{}); ok {
			return recordsFromList(list)
		}
		rec := record(v)
		if rec.captionShaped() {
			return []record{rec}, true
		}
		return nil, false
	case []interface{}:
		return recordsFromList(v)
	default:
		return nil, false
	}
}

func recordsFromList(list []interface{}) ([]record, bool) {
	records := make([]record, 0, len(list))
	for _, item := range list {
		if m, ok := item.(map[string]interface{}); ok {
			records = append(records, record(m))
		}
	}
	return records, len(records) > 0
}

// captionShaped reports whether the record carries a text field, the minimum
// to treat it as a caption.
func (r record) captionShaped() bool {
	_, ok := r["text"]
	return ok
}

// validateCaptionFields converts one loosely-typed record into a Caption
// with every field defaulted: missing text becomes a placeholder, non-array
// hashtags/emojis become empty slices, hashtags lose their leading '#', and
// out-of-range viral scores are clamped. A malformed or partial entry never
// propagates an unset field to the UI.
func validateCaptionFields(rec record, reqCtx Context) domain.Caption {
	text := coerceString(rec["text"])
	if strings.TrimSpace(text) == "" {
		text = PlaceholderText
	}

	category := coerceString(rec["category"])
	if strings.TrimSpace(category) == "" {
		category = reqCtx.DefaultCategory
	}

	caption := domain.NewCaption(text, category)
	caption.Hashtags = domain.NormalizeHashtags(coerceStringSlice(rec["hashtags"]))
	caption.Emojis = coerceStringSlice(rec["emojis"])
	caption.ViralScore = domain.NormalizeViralScore(coerceScore(rec["viral_score"]))
	return caption
}

func coerceString(v interface{}) string {
	s, _ := v.(string)
	return s
}

// coerceStringSlice accepts an array of anything and keeps its string
// elements. Non-array values produce an empty slice, never nil.
func coerceStringSlice(v interface{}) []string {
	list, ok := v.([]interface{})
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		if s, ok := item.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}

// coerceScore accepts numbers and numeric strings; anything else reads as
// unset so the clamp substitutes the neutral default.
func coerceScore(v interface{}) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(n)); err == nil {
			return i
		}
	}
	return 0
}
