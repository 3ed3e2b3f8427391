package video

import (
	"fmt"
	"strings"
)

// FilterMode is the sampling filter used when a texture is scaled.
type FilterMode uint8

const (
	Nearest FilterMode = iota
	Linear
)

func (m FilterMode) String() string {
	if m == Linear {
		return "linear"
	}
	return "nearest"
}

// ParseFilter reads a filter name from the config.
func ParseFilter(s string) (FilterMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "nearest", "point":
		return Nearest, nil
	case "linear", "bilinear":
		return Linear, nil
	}
	return Nearest, fmt.Errorf("unknown filter mode %q", s)
}

// Handle identifies a texture created by a Surface, 0 is no texture.
type Handle uint64

// Surface is a host display texture store.
// All the calls happen on the consumer goroutine.
type Surface interface {
	// EnsureSize returns a texture of w*h pixels.
	EnsureSize(w, h int) (Handle, error)
	// WritePixels uploads a full frame of canonical pixels, the surface
	// must not keep the slice.
	WritePixels(h Handle, pix []uint32) error
	SetFilter(mode FilterMode)
	Release(h Handle)
}
