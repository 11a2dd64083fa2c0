// Package sky turns potentiometer readings into a horizontal scroll of a
// wrapping star map: the knob works like a rudder, centred means still.
package sky

import (
	"fmt"

	"github.com/chewxy/math32"
	"github.com/itohio/sailpot/pkg/config"
)

// Scroller keeps the horizontal offset of a star map of a given width.
type Scroller struct {
	minValue float32
	maxValue float32
	mid      float32
	deadZone float32
	speed    float32
	saturate bool
	width    float32

	offset float32
}

// New creates a Scroller from cfg for a map width pixels wide.
func New(cfg *config.SkyConfig, width int) (*Scroller, error) {
	if width <= 0 {
		return nil, fmt.Errorf("invalid sky width %d", width)
	}
	if cfg.MinValue >= cfg.MaxValue {
		return nil, fmt.Errorf("min value %d must be below max value %d", cfg.MinValue, cfg.MaxValue)
	}

	mid := float32(cfg.MaxValue / 2)
	dead := float32(cfg.DeadZone)
	if mid-dead <= float32(cfg.MinValue) || mid+dead >= float32(cfg.MaxValue) {
		return nil, fmt.Errorf("dead zone %d leaves no travel between %d and %d", cfg.DeadZone, cfg.MinValue, cfg.MaxValue)
	}

	return &Scroller{
		minValue: float32(cfg.MinValue),
		maxValue: float32(cfg.MaxValue),
		mid:      mid,
		deadZone: dead,
		speed:    cfg.Speed,
		saturate: cfg.Saturate,
		width:    float32(width),
	}, nil
}

// Speed maps a reading to pixels per frame. Readings above the dead zone scroll
// left (negative), readings below scroll right, reaching the configured speed
// at MaxValue and MinValue. Past those ends the speed keeps growing unless the
// scroller saturates.
func (s *Scroller) Speed(value uint16) float32 {
	v := float32(value)

	switch {
	case v > s.mid+s.deadZone:
		span := s.maxValue - (s.mid + s.deadZone)
		return -s.scale((v-(s.mid+s.deadZone))/span) * s.speed
	case v < s.mid-s.deadZone:
		span := (s.mid - s.deadZone) - s.minValue
		return s.scale(((s.mid-s.deadZone)-v)/span) * s.speed
	default:
		return 0
	}
}

func (s *Scroller) scale(norm float32) float32 {
	if s.saturate {
		return math32.Min(norm, 1)
	}
	return norm
}

// Update advances the offset by the speed for value and returns the new offset.
func (s *Scroller) Update(value uint16) float32 {
	return s.Scroll(s.Speed(value))
}

// Scroll moves the offset by delta pixels, wrapping into [0, width).
func (s *Scroller) Scroll(delta float32) float32 {
	s.offset = math32.Mod(s.offset+delta, s.width)
	if s.offset < 0 {
		s.offset += s.width
	}
	if s.offset >= s.width {
		s.offset = 0
	}
	return s.offset
}

// Offset returns the current offset in pixels.
func (s *Scroller) Offset() float32 {
	return s.offset
}
