package domain

// Tone controls the overall voice of the generated captions.
type Tone string

const (
	ToneCasual        Tone = "casual"
	ToneProfessional  Tone = "professional"
	ToneFunny         Tone = "funny"
	ToneInspirational Tone = "inspirational"
	ToneTrendy        Tone = "trendy"
	ToneRomantic      Tone = "romantic"
)

// Length controls how long each caption should be.
type Length string

const (
	LengthShort  Length = "short"
	LengthMedium Length = "medium"
	LengthLong   Length = "long"
)

// SpicyLevel controls how provocative the captions are allowed to be.
type SpicyLevel string

const (
	SpicyNone   SpicyLevel = "none"
	SpicyMild   SpicyLevel = "mild"
	SpicyMedium SpicyLevel = "medium"
	SpicyHot    SpicyLevel = "hot"
)

// Style selects a writing style on top of the tone.
type Style string

const (
	StyleStandard     Style = "standard"
	StyleStorytelling Style = "storytelling"
	StyleMinimalist   Style = "minimalist"
	StylePoetic       Style = "poetic"
)

// DefaultCaptionCount is how many captions one generation call asks for.
const DefaultCaptionCount = 5

// GenerationOptions is the normalized parameter set for one generation call.
// Every field has a defined default applied by Normalize.
type GenerationOptions struct {
	Tone            Tone       `json:"tone" form:"tone"`
	Length          Length     `json:"length" form:"length"`
	SpicyLevel      SpicyLevel `json:"spicy_level" form:"spicy_level"`
	Style           Style      `json:"style" form:"style"`
	CreativeOptions []string   `json:"creative_options" form:"creative_options"`
	IncludeHashtags bool       `json:"include_hashtags" form:"include_hashtags"`
	IncludeEmojis   bool       `json:"include_emojis" form:"include_emojis"`
	CaptionCount    int        `json:"caption_count" form:"caption_count"`
}

var (
	validTones = map[Tone]bool{
		ToneCasual: true, ToneProfessional: true, ToneFunny: true,
		ToneInspirational: true, ToneTrendy: true, ToneRomantic: true,
	}
	validLengths = map[Length]bool{
		LengthShort: true, LengthMedium: true, LengthLong: true,
	}
	validSpicyLevels = map[SpicyLevel]bool{
		SpicyNone: true, SpicyMild: true, SpicyMedium: true, SpicyHot: true,
	}
	validStyles = map[Style]bool{
		StyleStandard: true, StyleStorytelling: true,
		StyleMinimalist: true, StylePoetic: true,
	}
)

// Normalize replaces unset or unrecognized fields with their defaults. It
// returns a copy; the receiver is not modified.
func (o GenerationOptions) Normalize() GenerationOptions {
	if !validTones[o.Tone] {
		o.Tone = ToneCasual
	}
	if !validLengths[o.Length] {
		o.Length = LengthMedium
	}
	if !validSpicyLevels[o.SpicyLevel] {
		o.SpicyLevel = SpicyNone
	}
	if !validStyles[o.Style] {
		o.Style = StyleStandard
	}
	if o.CreativeOptions == nil {
		o.CreativeOptions = []string{}
	}
	if o.CaptionCount <= 0 {
		o.CaptionCount = DefaultCaptionCount
	}
	return o
}
