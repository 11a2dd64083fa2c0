package skyview

import (
	"image"
	"testing"

	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSkyWidget_Draw(t *testing.T) {
	test.NewTempApp(t)

	w := New(stripes(10))
	assert.Equal(t, 10, w.Width())

	w.SetOffset(4)
	img, ok := w.draw(3, 1).(*image.RGBA)
	require.True(t, ok)
	assert.Equal(t, []uint8{4, 5, 6}, redRow(img, 0))

	// The frame buffer is reused for the same size and replaced on resize.
	again := w.draw(3, 1)
	assert.Same(t, img, again)
	resized := w.draw(5, 1)
	assert.Equal(t, image.Rect(0, 0, 5, 1), resized.Bounds())
}

func TestSkyWidget_Renderer(t *testing.T) {
	test.NewTempApp(t)

	w := New(NewStarMap(100, 20, 10, 1))
	r := test.TempWidgetRenderer(t, w)
	require.Len(t, r.Objects(), 1)
	assert.Equal(t, float32(320), r.MinSize().Width)
}
