// Package generation holds the HTTP clients for the external AI
// collaborators: pixel-art image generation and story generation.
package generation

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// PixelLabClient talks to the PixelLab pixel-art API: one endpoint generates
// an image from a description, another rotates an existing image to a new
// viewing angle.
type PixelLabClient struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
}

func NewPixelLabClient(apiKey, baseURL string) *PixelLabClient {
	return &PixelLabClient{
		httpClient: &http.Client{Timeout: 180 * time.Second},
		apiKey:     apiKey,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
	}
}

type imageSize struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type generateRequest struct {
	Description  string    `json:"description"`
	ImageSize    imageSize `json:"image_size"`
	Detail       string    `json:"detail"`
	Direction    string    `json:"direction,omitempty"`
	NoBackground bool      `json:"no_background"`
}

type rotateRequest struct {
	FromImage     imagePayload `json:"from_image"`
	FromDirection string       `json:"from_direction"`
	ToDirection   string       `json:"to_direction"`
	ImageSize     imageSize    `json:"image_size"`
	FromView      string       `json:"from_view"`
	ToView        string       `json:"to_view"`
	GuidanceScale float64      `json:"image_guidance_scale"`
}

type imagePayload struct {
	Type   string `json:"type"`
	Base64 string `json:"base64"`
}

type imageResponse struct {
	Image struct {
		Base64 string `json:"base64"`
	} `json:"image"`
}

func (c *PixelLabClient) Generate(ctx context.Context, description, direction string, size int) ([]byte, error) {
	req := generateRequest{
		Description:  description,
		ImageSize:    imageSize{Width: size, Height: size},
		Detail:       "medium detail",
		Direction:    direction,
		NoBackground: true,
	}
	return c.post(ctx, "/generate-image-pixflux", req)
}

func (c *PixelLabClient) Rotate(ctx context.Context, base []byte, fromDirection, toDirection string, size int) ([]byte, error) {
	req := rotateRequest{
		FromImage:     imagePayload{Type: "base64", Base64: base64.StdEncoding.EncodeToString(base)},
		FromDirection: fromDirection,
		ToDirection:   toDirection,
		ImageSize:     imageSize{Width: size, Height: size},
		FromView:      "side",
		ToView:        "side",
		GuidanceScale: 7.5,
	}
	return c.post(ctx, "/rotate", req)
}

func (c *PixelLabClient) post(ctx context.Context, path string, body any) ([]byte, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("pixellab: API key not configured")
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("pixellab: encoding request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("pixellab: upstream error: %w", err)
	}
	defer resp.Body.Close()

	slurp, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("pixellab: reading response: %w", err)
	}
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("pixellab: status %d: %s", resp.StatusCode, truncate(string(slurp), 200))
	}

	var out imageResponse
	if err := json.Unmarshal(slurp, &out); err != nil {
		return nil, fmt.Errorf("pixellab: invalid JSON response: %w", err)
	}
	if out.Image.Base64 == "" {
		return nil, fmt.Errorf("pixellab: response missing image.base64")
	}

	img, err := base64.StdEncoding.DecodeString(out.Image.Base64)
	if err != nil {
		return nil, fmt.Errorf("pixellab: decoding image: %w", err)
	}
	return img, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
