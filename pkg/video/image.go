package video

import (
	"fmt"
	"image"
	"sync"

	"golang.org/x/image/draw"
)

// ImageSurface is an in-memory Surface keeping the last frame as image.RGBA.
// It's used for snapshots and as a headless output.
type ImageSurface struct {
	mu      sync.Mutex
	img     *image.RGBA
	tex     Handle
	next    Handle
	filter  FilterMode
	written bool
}

func NewImageSurface() *ImageSurface { return &ImageSurface{} }

func (s *ImageSurface) EnsureSize(w, h int) (Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tex != 0 && s.img.Rect.Dx() == w && s.img.Rect.Dy() == h {
		return s.tex, nil
	}
	s.next++
	s.tex = s.next
	s.img = image.NewRGBA(image.Rect(0, 0, w, h))
	s.written = false
	return s.tex, nil
}

func (s *ImageSurface) WritePixels(h Handle, pix []uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if h == 0 || h != s.tex {
		return fmt.Errorf("%w: stale texture %v", ErrInvalidFrame, h)
	}
	if len(pix) < len(s.img.Pix)>>2 {
		return fmt.Errorf("%w: %v px for %v", ErrInvalidFrame, len(pix), s.img.Rect.Size())
	}
	p := s.img.Pix
	for i, v := range pix[:len(p)>>2] {
		j := i << 2
		p[j], p[j+1], p[j+2], p[j+3] = uint8(v>>16), uint8(v>>8), uint8(v), uint8(v>>24)
	}
	s.written = true
	return nil
}

func (s *ImageSurface) SetFilter(mode FilterMode) {
	s.mu.Lock()
	s.filter = mode
	s.mu.Unlock()
}

func (s *ImageSurface) Release(h Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if h == s.tex {
		s.tex, s.img, s.written = 0, nil, false
	}
}

// Image returns a copy of the last frame or nil.
func (s *ImageSurface) Image() *image.RGBA {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.written {
		return nil
	}
	return &image.RGBA{Pix: append([]uint8{}, s.img.Pix...), Stride: s.img.Stride, Rect: s.img.Rect}
}

// Scaled returns the last frame resized to w*h with the current filter.
func (s *ImageSurface) Scaled(w, h int) *image.RGBA {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.written {
		return nil
	}
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	scaler := draw.NearestNeighbor
	if s.filter == Linear {
		scaler = draw.ApproxBiLinear
	}
	scaler.Scale(out, out.Bounds(), s.img, s.img.Bounds(), draw.Src, nil)
	return out
}
