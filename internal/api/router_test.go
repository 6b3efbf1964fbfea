package api

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pc9350/Captionator-caption-generator-sub000/internal/cache"
	"github.com/pc9350/Captionator-caption-generator-sub000/internal/config"
	"github.com/pc9350/Captionator-caption-generator-sub000/internal/media"
	"github.com/pc9350/Captionator-caption-generator-sub000/internal/provider"
	"github.com/pc9350/Captionator-caption-generator-sub000/internal/service"
)

type stubProvider struct {
	body string
}

func (s *stubProvider) Call(ctx context.Context, req *provider.Request) (*provider.Response, error) {
	return &provider.Response{Body: s.body}, nil
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	svc := service.NewGenerationService(
		media.NewPreparer(0),
		cache.NewResponseCache(time.Hour, nil),
		&stubProvider{body: `{"captions":[{"text":"Hey","category":"Funny"}]}`},
		service.GenerationConfig{Model: "test-model", MaxTokens: 800},
	)
	return SetupRouter(svc, nil, nil, &config.ServerConfig{
		Mode: "test",
		CORS: config.CORSConfig{AllowAllOrigins: true},
	})
}

func imageUpload(t *testing.T, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 32, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 8), G: uint8(y * 8), B: 64, A: 255})
		}
	}
	var imgBuf bytes.Buffer
	if err := png.Encode(&imgBuf, img); err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("images", "photo.png")
	if err != nil {
		t.Fatalf("failed to create form file: %v", err)
	}
	if _, err := part.Write(imgBuf.Bytes()); err != nil {
		t.Fatalf("failed to write form file: %v", err)
	}
	for k, v := range fields {
		writer.WriteField(k, v)
	}
	writer.Close()
	return body, writer.FormDataContentType()
}

func TestHealthEndpoint(t *testing.T) {
	router := newTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var resp struct {
		Status  string `json:"status"`
		Service string `json:"service"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response JSON: %v", err)
	}
	if resp.Status != "ok" {
		t.Errorf("status field = %q, want %q", resp.Status, "ok")
	}
	if resp.Service != "captionator" {
		t.Errorf("service field = %q, want %q", resp.Service, "captionator")
	}
}

func TestGenerateEndpoint(t *testing.T) {
	router := newTestRouter(t)

	body, contentType := imageUpload(t, map[string]string{"tone": "funny"})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/captions/generate", body)
	req.Header.Set("Content-Type", contentType)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Captions []struct {
			ID       string `json:"id"`
			Text     string `json:"text"`
			Category string `json:"category"`
		} `json:"captions"`
		Degraded bool `json:"degraded"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response JSON: %v", err)
	}
	if len(resp.Captions) != 1 || resp.Captions[0].Text != "Hey" {
		t.Errorf("unexpected captions: %+v", resp.Captions)
	}
	if resp.Degraded {
		t.Error("stubbed clean response should not be degraded")
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("response must carry a request ID header")
	}
}

func TestGenerateEndpointRequiresImages(t *testing.T) {
	router := newTestRouter(t)

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	writer.WriteField("tone", "funny")
	writer.Close()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/captions/generate", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestRegenerateEndpointRequiresCategory(t *testing.T) {
	router := newTestRouter(t)

	body, contentType := imageUpload(t, nil)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/captions/regenerate", body)
	req.Header.Set("Content-Type", contentType)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestSavedEndpointsWithoutPersistence(t *testing.T) {
	router := newTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/captions/saved", nil)
	req.Header.Set("X-User-ID", "user-1")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503 when persistence is not configured", w.Code)
	}
}
