// Package ocr prepares document images and reads structured fields from
// them through a vision model API.
package ocr

import (
	"bytes"
	"fmt"
	"strings"

	documentapp "github.com/bizconsult/crm/internal/application/document"
	"github.com/disintegration/imaging"
)

var _ documentapp.ImageNormalizer = (*Preprocessor)(nil)

// decodable lists the image types imaging can decode
var decodable = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/gif":  true,
	"image/bmp":  true,
	"image/tiff": true,
}

// Preprocessor normalizes uploaded photos: EXIF orientation is applied, the
// longest side is capped and the result is re-encoded as JPEG.
type Preprocessor struct {
	maxSide int
	quality int
}

// NewPreprocessor creates a Preprocessor. Non-positive values fall back to
// 2000px and quality 85.
func NewPreprocessor(maxSide, quality int) *Preprocessor {
	if maxSide <= 0 {
		maxSide = 2000
	}
	if quality <= 0 || quality > 100 {
		quality = 85
	}
	return &Preprocessor{maxSide: maxSide, quality: quality}
}

// Normalize re-encodes decodable images. Other payloads (PDF, WebP) pass through.
func (p *Preprocessor) Normalize(data []byte, contentType string) ([]byte, string, error) {
	ct := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	if !decodable[ct] {
		return data, contentType, nil
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, "", fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w > p.maxSide || h > p.maxSide {
		if w >= h {
			img = imaging.Resize(img, p.maxSide, 0, imaging.Lanczos)
		} else {
			img = imaging.Resize(img, 0, p.maxSide, imaging.Lanczos)
		}
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(p.quality)); err != nil {
		return nil, "", fmt.Errorf("encode image: %w", err)
	}
	return buf.Bytes(), "image/jpeg", nil
}
