// Package imagecodec decodes base64 transport strings into images.
package imagecodec

import (
	"bytes"
	"encoding/base64"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	"github.com/kozaktomas/face-enroll/internal/constants"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// Codec decodes base64 photos, optionally wrapped in a data URL.
type Codec struct{}

// New returns a Codec.
func New() *Codec {
	return &Codec{}
}

// Decode returns the image encoded in s. It reports false for empty input,
// invalid base64, bytes that are not a supported image format, or a declared
// size above constants.MaxDecodePixels.
func (c *Codec) Decode(s string) (image.Image, bool) {
	data, ok := DecodeBase64(s)
	if !ok {
		return nil, false
	}

	// The header is checked first: image.Decode allocates the full pixel buffer up front.
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil || !withinPixelBudget(cfg.Width, cfg.Height) {
		return nil, false
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, false
	}
	return img, true
}

func withinPixelBudget(width, height int) bool {
	if width <= 0 || height <= 0 {
		return false
	}
	return int64(width)*int64(height) <= constants.MaxDecodePixels
}

// DecodeBase64 strips a "data:<mime>;base64," prefix and decodes the payload.
// Padded and unpadded encodings are both accepted.
func DecodeBase64(s string) ([]byte, bool) {
	if i := strings.IndexByte(s, ','); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, false
	}

	if data, err := base64.StdEncoding.DecodeString(s); err == nil {
		return data, true
	}
	if data, err := base64.RawStdEncoding.DecodeString(s); err == nil {
		return data, true
	}
	return nil, false
}
