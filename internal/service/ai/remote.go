package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"github.com/disintegration/imaging"
)

// RemoteClassifier asks an HTTP face service how many faces an image has.
type RemoteClassifier struct {
	baseURL string
	client  *http.Client
}

// faceResponse is the subset of the face service reply that is used.
type faceResponse struct {
	FacesCount int `json:"faces_count"`
}

func NewRemoteClassifier(baseURL string, client *http.Client) *RemoteClassifier {
	if client == nil {
		client = &http.Client{}
	}
	return &RemoteClassifier{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  client,
	}
}

// Classify posts img as a JPEG to /embed/face and returns faces_count.
func (c *RemoteClassifier) Classify(ctx context.Context, img image.Image) (int, error) {
	var imageData bytes.Buffer
	if err := imaging.Encode(&imageData, img, imaging.JPEG, imaging.JPEGQuality(90)); err != nil {
		return 0, fmt.Errorf("failed to encode image: %w", err)
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="image.jpg"`)
	h.Set("Content-Type", "image/jpeg")
	part, err := writer.CreatePart(h)
	if err != nil {
		return 0, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(imageData.Bytes()); err != nil {
		return 0, fmt.Errorf("failed to write image data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return 0, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/embed/face", &buf)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("face service error (status %d): %s", resp.StatusCode, string(body))
	}

	var faceResp faceResponse
	if err := json.Unmarshal(body, &faceResp); err != nil {
		return 0, fmt.Errorf("failed to parse response: %w", err)
	}

	return faceResp.FacesCount, nil
}
