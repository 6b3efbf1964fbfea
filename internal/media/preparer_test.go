package media

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"
)

// noiseImage builds a deterministic high-entropy image that resists JPEG
// compression, so payload sizes shrink meaningfully tier by tier.
func noiseImage(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	seed := uint32(2463534242)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			seed ^= seed << 13
			seed ^= seed >> 17
			seed ^= seed << 5
			img.Set(x, y, color.RGBA{
				R: uint8(seed),
				G: uint8(seed >> 8),
				B: uint8(seed >> 16),
				A: 255,
			})
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
	return buf.Bytes()
}

func encodeJPEG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
	return buf.Bytes()
}

func TestPrepareSmallImage(t *testing.T) {
	data := encodePNG(t, noiseImage(120, 80))

	p := NewPreparer(0)
	prepared, err := p.Prepare(data)
	if err != nil {
		t.Fatalf("Prepare failed: %v", err)
	}

	if !strings.HasPrefix(prepared.DataURI, "data:image/jpeg;base64,") {
		t.Errorf("DataURI missing jpeg data-URI prefix: %.40s", prepared.DataURI)
	}
	if prepared.Width != 120 || prepared.Height != 80 {
		t.Errorf("small image should not be resized: got %dx%d, want 120x80",
			prepared.Width, prepared.Height)
	}
	if prepared.MIMEType != "image/png" {
		t.Errorf("MIMEType = %q, want image/png", prepared.MIMEType)
	}
	if prepared.PayloadBytes > DefaultMaxPayloadBytes {
		t.Errorf("payload %d exceeds default budget", prepared.PayloadBytes)
	}
}

func TestPrepareScalesLargeImage(t *testing.T) {
	data := encodeJPEG(t, noiseImage(2000, 1000))

	p := NewPreparer(0)
	prepared, err := p.Prepare(data)
	if err != nil {
		t.Fatalf("Prepare failed: %v", err)
	}

	if prepared.Width > 800 || prepared.Height > 800 {
		t.Errorf("dimensions exceed first-tier bound: %dx%d", prepared.Width, prepared.Height)
	}
	// Aspect ratio 2:1 preserved
	if prepared.Width != 2*prepared.Height {
		t.Errorf("aspect ratio not preserved: %dx%d", prepared.Width, prepared.Height)
	}
	if prepared.MIMEType != "image/jpeg" {
		t.Errorf("MIMEType = %q, want image/jpeg", prepared.MIMEType)
	}
}

func TestPrepareDegradesUnderTightBudget(t *testing.T) {
	data := encodeJPEG(t, noiseImage(1600, 1600))

	// Learn the first-tier payload size, then set the budget just below it
	// to force at least one extra degradation round.
	loose, err := NewPreparer(0).Prepare(data)
	if err != nil {
		t.Fatalf("Prepare with default budget failed: %v", err)
	}

	tight, err := NewPreparer(loose.PayloadBytes - 1).Prepare(data)
	if err != nil {
		t.Fatalf("Prepare with tight budget failed: %v", err)
	}

	if tight.PayloadBytes >= loose.PayloadBytes {
		t.Errorf("tight budget did not shrink payload: %d >= %d",
			tight.PayloadBytes, loose.PayloadBytes)
	}
	if tight.Width >= loose.Width {
		t.Errorf("tight budget did not step down a tier: width %d >= %d",
			tight.Width, loose.Width)
	}
	if tight.PayloadBytes > loose.PayloadBytes-1 {
		t.Errorf("payload %d exceeds budget %d", tight.PayloadBytes, loose.PayloadBytes-1)
	}
}

func TestPrepareTooLarge(t *testing.T) {
	data := encodeJPEG(t, noiseImage(1600, 1600))

	_, err := NewPreparer(50).Prepare(data)
	if !errors.Is(err, ErrMediaTooLarge) {
		t.Fatalf("err = %v, want ErrMediaTooLarge", err)
	}
}

func TestPrepareUnreadableInput(t *testing.T) {
	testCases := []struct {
		name string
		data []byte
	}{
		{name: "empty", data: nil},
		{name: "text", data: []byte("definitely not an image")},
		{name: "truncated header", data: []byte{0xFF, 0xD8, 0xFF}},
	}

	p := NewPreparer(0)
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := p.Prepare(tc.data)
			if !errors.Is(err, ErrUnreadableFile) {
				t.Errorf("err = %v, want ErrUnreadableFile", err)
			}
		})
	}
}

func TestScaleDownNeverUpscales(t *testing.T) {
	img := noiseImage(100, 60)
	scaled := scaleDown(img, 800)

	if scaled != img {
		t.Error("image within bound should be returned untouched")
	}
}

func TestScaleDownBoundsLongestEdge(t *testing.T) {
	testCases := []struct {
		name       string
		width      int
		height     int
		maxDim     int
		wantWidth  int
		wantHeight int
	}{
		{name: "landscape", width: 1600, height: 800, maxDim: 800, wantWidth: 800, wantHeight: 400},
		{name: "portrait", width: 600, height: 1200, maxDim: 600, wantWidth: 300, wantHeight: 600},
		{name: "square", width: 1000, height: 1000, maxDim: 400, wantWidth: 400, wantHeight: 400},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			scaled := scaleDown(noiseImage(tc.width, tc.height), tc.maxDim)
			bounds := scaled.Bounds()
			if bounds.Dx() != tc.wantWidth || bounds.Dy() != tc.wantHeight {
				t.Errorf("got %dx%d, want %dx%d",
					bounds.Dx(), bounds.Dy(), tc.wantWidth, tc.wantHeight)
			}
		})
	}
}

func TestEstimatePayloadBytes(t *testing.T) {
	testCases := []struct {
		name    string
		dataURI string
		want    int
	}{
		{name: "empty payload", dataURI: "data:image/jpeg;base64,", want: 0},
		{name: "four chars", dataURI: "data:image/jpeg;base64,QUJD", want: 3},
		{name: "no comma", dataURI: "QUJDREVGR0g=", want: 9},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := EstimatePayloadBytes(tc.dataURI); got != tc.want {
				t.Errorf("EstimatePayloadBytes(%q) = %d, want %d", tc.dataURI, got, tc.want)
			}
		})
	}
}
