package ocr

import (
	"bytes"
	"image"
	"image/color"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := imaging.New(w, h, color.NRGBA{R: 200, G: 200, B: 200, A: 255})
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, img, imaging.PNG))
	return buf.Bytes()
}

func decodeSize(t *testing.T, data []byte) (int, int) {
	t.Helper()
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	return cfg.Width, cfg.Height
}

func TestPreprocessor_Normalize(t *testing.T) {
	p := NewPreprocessor(2000, 85)

	t.Run("downscales landscape to max side", func(t *testing.T) {
		out, ct, err := p.Normalize(encodePNG(t, 3000, 1500), "image/png")
		require.NoError(t, err)
		assert.Equal(t, "image/jpeg", ct)
		w, h := decodeSize(t, out)
		assert.Equal(t, 2000, w)
		assert.Equal(t, 1000, h)
	})

	t.Run("downscales portrait by height", func(t *testing.T) {
		out, _, err := p.Normalize(encodePNG(t, 1200, 2400), "image/png")
		require.NoError(t, err)
		w, h := decodeSize(t, out)
		assert.Equal(t, 1000, w)
		assert.Equal(t, 2000, h)
	})

	t.Run("keeps small images at size", func(t *testing.T) {
		out, _, err := p.Normalize(encodePNG(t, 800, 600), "image/png; charset=binary")
		require.NoError(t, err)
		w, h := decodeSize(t, out)
		assert.Equal(t, 800, w)
		assert.Equal(t, 600, h)
	})

	t.Run("passes PDFs through", func(t *testing.T) {
		pdf := []byte("%PDF-1.7 ...")
		out, ct, err := p.Normalize(pdf, "application/pdf")
		require.NoError(t, err)
		assert.Equal(t, pdf, out)
		assert.Equal(t, "application/pdf", ct)
	})

	t.Run("rejects corrupt images", func(t *testing.T) {
		_, _, err := p.Normalize([]byte("not an image"), "image/jpeg")
		assert.Error(t, err)
	})
}

func TestNewPreprocessor_Defaults(t *testing.T) {
	p := NewPreprocessor(0, 0)
	assert.Equal(t, 2000, p.maxSide)
	assert.Equal(t, 85, p.quality)
}
