// Package skyview is a Fyne widget showing a scrolling star map.
package skyview

import (
	"image"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"
)

// SkyWidget draws a star map at a horizontal offset.
type SkyWidget struct {
	widget.BaseWidget

	stars *image.RGBA

	// Data (protected by mu)
	mu     sync.RWMutex
	offset float32
	frame  *image.RGBA // reused between refreshes
}

// New creates a SkyWidget over the given star map.
func New(stars *image.RGBA) *SkyWidget {
	s := &SkyWidget{stars: stars}
	s.ExtendBaseWidget(s)
	return s
}

// SetOffset moves the view. Call it on the Fyne thread (fyne.Do).
func (s *SkyWidget) SetOffset(offset float32) {
	s.mu.Lock()
	changed := s.offset != offset
	s.offset = offset
	s.mu.Unlock()

	if changed {
		s.Refresh()
	}
}

// Width returns the star map width, the period of the horizontal wrap.
func (s *SkyWidget) Width() int {
	return s.stars.Bounds().Dx()
}

// CreateRenderer creates the widget renderer.
func (s *SkyWidget) CreateRenderer() fyne.WidgetRenderer {
	raster := canvas.NewRaster(s.draw)
	raster.ScaleMode = canvas.ImageScalePixels
	return &skyRenderer{
		sky:     s,
		raster:  raster,
		objects: []fyne.CanvasObject{raster},
	}
}

// draw renders the current frame at w x h pixels.
func (s *SkyWidget) draw(w, h int) image.Image {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.frame == nil || s.frame.Bounds().Dx() != w || s.frame.Bounds().Dy() != h {
		s.frame = image.NewRGBA(image.Rect(0, 0, w, h))
	}
	render(s.frame, s.stars, s.offset)
	return s.frame
}

type skyRenderer struct {
	sky     *SkyWidget
	raster  *canvas.Raster
	objects []fyne.CanvasObject
}

func (r *skyRenderer) MinSize() fyne.Size {
	return fyne.NewSize(320, 120)
}

func (r *skyRenderer) Layout(size fyne.Size) {
	r.raster.Resize(size)
}

func (r *skyRenderer) Refresh() {
	canvas.Refresh(r.raster)
}

func (r *skyRenderer) Objects() []fyne.CanvasObject {
	return r.objects
}

func (r *skyRenderer) Destroy() {}
