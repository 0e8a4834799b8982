// Package detector talks to the face embedding server (InsightFace buffalo_l
// behind a small HTTP API) and exposes it as an enroll.FaceDetector.
package detector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/kozaktomas/face-enroll/internal/constants"
	"github.com/kozaktomas/face-enroll/internal/enroll"
	"golang.org/x/image/draw"
)

const defaultEmbeddingURL = "http://localhost:8000"

// Client computes face embeddings using the embedding server
type Client struct {
	baseURL      string
	maxImageSize int
	client       *http.Client
}

// NewClient creates a new face embedding client. A zero timeout means no client-side timeout;
// callers can still bound each request through its context.
func NewClient(baseURL string, maxImageSize int, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = defaultEmbeddingURL
	}
	if maxImageSize <= 0 {
		maxImageSize = constants.MaxImageSize
	}
	return &Client{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		maxImageSize: maxImageSize,
		client:       &http.Client{Timeout: timeout},
	}
}

// FaceDetection represents a single detected face
type FaceDetection struct {
	FaceIndex int       `json:"face_index"`
	Dim       int       `json:"dim"`
	Embedding []float32 `json:"embedding"`
	BBox      []float64 `json:"bbox"` // [x1, y1, x2, y2]
	DetScore  float64   `json:"det_score"`
}

// FaceResponse represents the response from the face embedding endpoint
type FaceResponse struct {
	FacesCount int             `json:"faces_count"`
	Faces      []FaceDetection `json:"faces"`
	Model      string          `json:"model"`
}

// Detect implements enroll.FaceDetector. Faces are returned in server order.
func (c *Client) Detect(ctx context.Context, img image.Image) ([]enroll.DetectedFace, error) {
	data, err := encodeJPEG(img, c.maxImageSize)
	if err != nil {
		return nil, err
	}

	resp, err := c.ComputeFaceEmbeddings(ctx, data)
	if err != nil {
		return nil, err
	}

	faces := make([]enroll.DetectedFace, 0, len(resp.Faces))
	for _, f := range resp.Faces {
		faces = append(faces, enroll.DetectedFace{
			Confidence: f.DetScore,
			Embedding:  f.Embedding,
		})
	}
	return faces, nil
}

// ComputeFaceEmbeddings detects faces and computes their embeddings
func (c *Client) ComputeFaceEmbeddings(ctx context.Context, imageData []byte) (*FaceResponse, error) {
	body, err := c.postMultipartImage(ctx, "/embed/face", imageData)
	if err != nil {
		return nil, err
	}

	var faceResp FaceResponse
	if err := json.Unmarshal(body, &faceResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	return &faceResp, nil
}

// postMultipartImage constructs a multipart form with the JPEG data and posts it to the given endpoint.
func (c *Client) postMultipartImage(ctx context.Context, endpoint string, imageData []byte) ([]byte, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="image.jpg"`)
	h.Set("Content-Type", "image/jpeg")
	part, err := writer.CreatePart(h)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}

	if _, err := part.Write(imageData); err != nil {
		return nil, fmt.Errorf("failed to write image data: %w", err)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	return body, nil
}

// encodeJPEG scales img to fit within maxSize (keeping aspect ratio) and encodes it as JPEG.
func encodeJPEG(img image.Image, maxSize int) ([]byte, error) {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	src := img
	if width > maxSize || height > maxSize {
		var newWidth, newHeight int
		if width > height {
			newWidth = maxSize
			newHeight = max(1, int(float64(height)*float64(maxSize)/float64(width)))
		} else {
			newHeight = maxSize
			newWidth = max(1, int(float64(width)*float64(maxSize)/float64(height)))
		}

		resized := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
		draw.CatmullRom.Scale(resized, resized.Bounds(), img, bounds, draw.Over, nil)
		src = resized
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, src, &jpeg.Options{Quality: 90}); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}
