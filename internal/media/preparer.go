package media

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"strings"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

var (
	// ErrMediaTooLarge means the image could not be compressed under the
	// payload budget even at the minimum-quality tier.
	ErrMediaTooLarge = errors.New("media: image exceeds payload budget after compression")

	// ErrUnreadableFile means the input bytes could not be decoded as an image.
	ErrUnreadableFile = errors.New("media: input is not a readable image")
)

// dataURIPrefix is the header prepended to every prepared payload.
const dataURIPrefix = "data:image/jpeg;base64,"

// DefaultMaxPayloadBytes is the pre-encoding byte budget for one prepared
// image. The provider enforces a request-size ceiling; staying under ~1 MB
// per image keeps multi-image requests comfortably below it.
const DefaultMaxPayloadBytes = 1024 * 1024

// tier is one round of the progressive-degradation loop: a dimension bound
// and a JPEG quality to re-encode at.
type tier struct {
	maxDimension int
	quality      int
}

// defaultTiers trade caption quality against reliability: start near full
// detail and step down twice before giving up.
var defaultTiers = []tier{
	{maxDimension: 800, quality: 70},
	{maxDimension: 600, quality: 50},
	{maxDimension: 400, quality: 30},
}

// Prepared is one image converted into a size-bounded payload suitable for
// transmission to the provider.
type Prepared struct {
	DataURI      string // base64 data-URI, the only field sent to the provider
	MIMEType     string // source format before re-encoding
	Width        int    // final pixel width
	Height       int    // final pixel height
	PayloadBytes int    // estimated pre-encoding size of the payload
}

// Preparer converts raw image files into size-bounded base64 payloads.
type Preparer struct {
	maxPayloadBytes int
	tiers           []tier
}

// NewPreparer creates a media preparer with the given payload budget.
// A non-positive budget falls back to DefaultMaxPayloadBytes.
func NewPreparer(maxPayloadBytes int) *Preparer {
	if maxPayloadBytes <= 0 {
		maxPayloadBytes = DefaultMaxPayloadBytes
	}
	return &Preparer{
		maxPayloadBytes: maxPayloadBytes,
		tiers:           defaultTiers,
	}
}

// Prepare decodes, downscales, and re-encodes one image until its encoded
// payload fits the budget. Supported inputs: jpeg, png, gif, webp.
// Parameters:
//   - data: raw image bytes.
//
// Returns:
//   - *Prepared: payload under budget.
//   - error: ErrUnreadableFile if decoding fails, ErrMediaTooLarge if the
//     image still exceeds the budget at the minimum-quality tier.
func (p *Preparer) Prepare(data []byte) (*Prepared, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableFile, err)
	}

	for _, t := range p.tiers {
		scaled := scaleDown(img, t.maxDimension)

		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, scaled, &jpeg.Options{Quality: t.quality}); err != nil {
			return nil, fmt.Errorf("media: failed to encode image: %w", err)
		}

		dataURI := dataURIPrefix + base64.StdEncoding.EncodeToString(buf.Bytes())
		payloadBytes := EstimatePayloadBytes(dataURI)
		if payloadBytes <= p.maxPayloadBytes {
			bounds := scaled.Bounds()
			return &Prepared{
				DataURI:      dataURI,
				MIMEType:     mimeTypeFor(format),
				Width:        bounds.Dx(),
				Height:       bounds.Dy(),
				PayloadBytes: payloadBytes,
			}, nil
		}
	}

	return nil, ErrMediaTooLarge
}

// EstimatePayloadBytes estimates the pre-encoding byte size of a base64
// data-URI from its string length.
func EstimatePayloadBytes(dataURI string) int {
	encoded := dataURI
	if idx := strings.Index(encoded, ","); idx != -1 {
		encoded = encoded[idx+1:]
	}
	return len(encoded) * 3 / 4
}

// scaleDown resizes img so neither dimension exceeds maxDim, preserving
// aspect ratio. Images already within the bound are returned untouched;
// upscaling never happens.
func scaleDown(img image.Image, maxDim int) image.Image {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	if width <= maxDim && height <= maxDim {
		return img
	}

	scale := float64(maxDim) / float64(width)
	if height > width {
		scale = float64(maxDim) / float64(height)
	}

	newWidth := int(float64(width) * scale)
	newHeight := int(float64(height) * scale)
	if newWidth < 1 {
		newWidth = 1
	}
	if newHeight < 1 {
		newHeight = 1
	}

	scaled := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
	draw.ApproxBiLinear.Scale(scaled, scaled.Bounds(), img, bounds, draw.Over, nil)
	return scaled
}

func mimeTypeFor(format string) string {
	switch format {
	case "jpg", "jpeg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	case "webp":
		return "image/webp"
	default:
		return "image/jpeg"
	}
}
