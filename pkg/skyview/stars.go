package skyview

import (
	"image"
	"image/color"
	"math/rand"
)

var background = color.RGBA{R: 2, G: 4, B: 16, A: 255}

// NewStarMap draws a width x height night sky with the given number of stars.
// The same seed always yields the same map.
func NewStarMap(width, height, stars int, seed int64) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i+0] = background.R
		img.Pix[i+1] = background.G
		img.Pix[i+2] = background.B
		img.Pix[i+3] = background.A
	}

	rnd := rand.New(rand.NewSource(seed))
	for i := 0; i < stars; i++ {
		x := rnd.Intn(width)
		y := rnd.Intn(height)
		b := uint8(120 + rnd.Intn(136))
		// Slight blue or warm tint.
		c := color.RGBA{R: b, G: b, B: b, A: 255}
		switch rnd.Intn(4) {
		case 0:
			c.R = b - b/6
		case 1:
			c.B = b - b/6
		}
		img.SetRGBA(x, y, c)

		// A few bright stars get a small cross.
		if b > 245 {
			dim := color.RGBA{R: c.R / 2, G: c.G / 2, B: c.B / 2, A: 255}
			for _, d := range [4][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}} {
				px, py := (x+d[0]+width)%width, y+d[1]
				if py >= 0 && py < height {
					img.SetRGBA(px, py, dim)
				}
			}
		}
	}

	return img
}

// render fills dst with the star map scrolled by offset pixels, scaling the map
// height to dst's height and wrapping horizontally.
func render(dst, stars *image.RGBA, offset float32) {
	db := dst.Bounds()
	sb := stars.Bounds()
	dw, dh := db.Dx(), db.Dy()
	sw, sh := sb.Dx(), sb.Dy()
	if dw == 0 || dh == 0 || sw == 0 || sh == 0 {
		return
	}

	// Keep the map's aspect: one destination pixel covers scale source pixels.
	scale := float32(sh) / float32(dh)
	start := int(offset)

	for y := 0; y < dh; y++ {
		sy := int(float32(y) * scale)
		if sy >= sh {
			sy = sh - 1
		}
		srow := stars.Pix[sy*stars.Stride : sy*stars.Stride+sw*4]
		drow := dst.Pix[y*dst.Stride : y*dst.Stride+dw*4]

		for x := 0; x < dw; x++ {
			sx := (start + int(float32(x)*scale)) % sw
			if sx < 0 {
				sx += sw
			}
			copy(drow[x*4:x*4+4], srow[sx*4:sx*4+4])
		}
	}
}
