package printing

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewChromedpRenderer_Defaults(t *testing.T) {
	r, err := NewChromedpRenderer(nil)
	require.NoError(t, err)
	defer r.Close()

	assert.Equal(t, defaultChromeTimeout, r.config.DefaultTimeout)
	assert.Equal(t, defaultScale, r.config.Scale)
	assert.NotNil(t, r.allocCtx)
}

func TestBuildPrintParams_A4Portrait(t *testing.T) {
	r := &ChromedpRenderer{config: &ChromedpConfig{Scale: 1.0}}

	params := r.buildPrintParams(&RenderRequest{
		HTML:    "<html>test</html>",
		Margins: DefaultMargins(),
	})

	assert.InDelta(t, mmToInches(210), params.paperWidth, 0.01)
	assert.InDelta(t, mmToInches(297), params.paperHeight, 0.01)
	assert.InDelta(t, mmToInches(12), params.marginTop, 0.001)
	assert.False(t, params.landscape)
	assert.False(t, params.displayFooter)
}

func TestBuildPrintParams_FooterReservesMargin(t *testing.T) {
	r := &ChromedpRenderer{config: &ChromedpConfig{Scale: 1.0}}

	params := r.buildPrintParams(&RenderRequest{
		HTML:       "<p>x</p>",
		Landscape:  true,
		Margins:    Margins{Bottom: 2},
		FooterHTML: "<span class=\"pageNumber\"></span>",
	})

	assert.True(t, params.landscape)
	assert.True(t, params.displayFooter)
	assert.InDelta(t, mmToInches(10), params.marginBottom, 0.001)
}

func TestBuildCompleteHTML(t *testing.T) {
	t.Run("full documents pass through", func(t *testing.T) {
		doc := "<!DOCTYPE html><html><body>x</body></html>"
		assert.Equal(t, doc, buildCompleteHTML(&RenderRequest{HTML: doc}))
	})

	t.Run("fragments are wrapped", func(t *testing.T) {
		out := buildCompleteHTML(&RenderRequest{HTML: "<p>본문</p>", Title: "제안서 <초안>"})
		assert.True(t, strings.HasPrefix(out, "<!DOCTYPE html>"))
		assert.Contains(t, out, `<meta charset="UTF-8">`)
		assert.Contains(t, out, "<title>제안서 &lt;초안&gt;</title>")
		assert.Contains(t, out, "<body><p>본문</p></body>")
	})
}

func TestChromedpRenderer_RenderValidation(t *testing.T) {
	r, err := NewChromedpRenderer(&ChromedpConfig{DefaultTimeout: time.Second})
	require.NoError(t, err)
	defer r.Close()

	_, err = r.Render(context.Background(), nil)
	var renderErr *RenderError
	require.True(t, errors.As(err, &renderErr))
	assert.Equal(t, ErrCodeInvalidHTML, renderErr.Code)

	_, err = r.Render(context.Background(), &RenderRequest{HTML: "   "})
	require.True(t, errors.As(err, &renderErr))
	assert.Equal(t, ErrCodeInvalidHTML, renderErr.Code)
}

func TestEstimatePageCount(t *testing.T) {
	pdf := []byte("<< /Type /Pages /Kids [...] >> << /Type /Page >> << /Type /Page >>")
	assert.Equal(t, 2, estimatePageCount(pdf))
	assert.Equal(t, 1, estimatePageCount([]byte("%PDF")))
}

func TestRenderError(t *testing.T) {
	cause := errors.New("boom")
	err := NewRenderError(ErrCodeRenderFailed, "render", cause)
	assert.Equal(t, "render: boom", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "render", NewRenderError(ErrCodeRenderFailed, "render", nil).Error())
}

func TestMmToInches(t *testing.T) {
	assert.InDelta(t, 1.0, mmToInches(25.4), 0.0001)
	assert.InDelta(t, 8.2677, mmToInches(210), 0.001)
}
