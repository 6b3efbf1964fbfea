package prompts

import (
	"fmt"
	"strings"

	"github.com/pc9350/Captionator-caption-generator-sub000/internal/domain"
)

// ============================================================================
// Caption Generation Prompts
// ============================================================================

// CaptionSystemPrompt defines the role and output contract for caption
// generation. The model is asked for bare JSON; the parser still treats the
// output as untrusted.
const CaptionSystemPrompt = `You are a social media caption expert who writes scroll-stopping captions for photos.

[Output format]
Respond with JSON only. No markdown code blocks, no commentary before or after.

[JSON schema]
{
  "captions": [
    {
      "text": "the caption text",
      "category": "a one-word label for the caption's vibe",
      "hashtags": ["tag1", "tag2"],
      "emojis": ["✨"],
      "viral_score": 7
    }
  ]
}

[Rules]
- Every caption must be distinct in angle and wording.
- "viral_score" is your 1-10 estimate of engagement potential.
- Hashtags are bare words without the # prefix.
- When hashtags or emojis are not requested, return empty arrays for them.
- Write captions that match what is actually visible in the image. Do not invent details.`

// lengthGuides describes each length option in words the model follows
// more reliably than a bare label.
var lengthGuides = map[domain.Length]string{
	domain.LengthShort:  "short and punchy, under 10 words",
	domain.LengthMedium: "one to two sentences",
	domain.LengthLong:   "a small paragraph with room for storytelling",
}

// spicyGuides maps each spicy level to a directive.
var spicyGuides = map[domain.SpicyLevel]string{
	domain.SpicyNone:   "keep it wholesome",
	domain.SpicyMild:   "a hint of playful flirtation is fine",
	domain.SpicyMedium: "confidently flirty and bold",
	domain.SpicyHot:    "daring and provocative, but never explicit",
}

// BuildCaptionPrompt renders the user prompt for a full generation call.
// Parameters:
//   - opts: normalized generation options.
//
// Returns:
//   - string: user message text sent alongside the image payloads.
func BuildCaptionPrompt(opts domain.GenerationOptions) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Write %d captions for the attached photo(s).\n\n", opts.CaptionCount)
	fmt.Fprintf(&b, "Tone: %s\n", opts.Tone)
	fmt.Fprintf(&b, "Length: %s\n", lengthGuides[opts.Length])
	fmt.Fprintf(&b, "Style: %s\n", opts.Style)
	fmt.Fprintf(&b, "Spice: %s\n", spicyGuides[opts.SpicyLevel])

	if len(opts.CreativeOptions) > 0 {
		fmt.Fprintf(&b, "Creative directions: %s\n", strings.Join(opts.CreativeOptions, ", "))
	}

	if opts.IncludeHashtags {
		b.WriteString("Include 3-5 relevant hashtags per caption.\n")
	} else {
		b.WriteString("Do not include hashtags.\n")
	}

	if opts.IncludeEmojis {
		b.WriteString("Include 1-3 fitting emojis per caption.\n")
	} else {
		b.WriteString("Do not include emojis.\n")
	}

	b.WriteString("\nUse a different category label for each caption so the set covers several vibes.")
	return b.String()
}

// BuildRegeneratePrompt renders the user prompt for the single-category
// regeneration variant. The explicit "different from before" instruction
// matters: the caller bypassed the cache precisely to get something new.
func BuildRegeneratePrompt(category string, opts domain.GenerationOptions) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Write 1 fresh caption for the attached photo in the %q category.\n", category)
	b.WriteString("It must feel clearly different from any caption you might have written before for this image.\n\n")
	fmt.Fprintf(&b, "Tone: %s\n", opts.Tone)
	fmt.Fprintf(&b, "Length: %s\n", lengthGuides[opts.Length])
	fmt.Fprintf(&b, "Spice: %s\n", spicyGuides[opts.SpicyLevel])

	if opts.IncludeHashtags {
		b.WriteString("Include 3-5 relevant hashtags.\n")
	} else {
		b.WriteString("Do not include hashtags.\n")
	}
	if opts.IncludeEmojis {
		b.WriteString("Include 1-3 fitting emojis.\n")
	} else {
		b.WriteString("Do not include emojis.\n")
	}

	return b.String()
}
