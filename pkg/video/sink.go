package video

import (
	"fmt"

	"github.com/giongto35/retroav/pkg/logger"
)

// FrameSink is a Processor that owns the canonical destination buffer
// and keeps one texture of the current frame size on a Surface.
type FrameSink struct {
	surface Surface
	filter  FilterMode
	threads int
	log     *logger.Logger

	tex      Handle
	w, h     int
	pix      []uint32
	disposed bool

	onRecreated func(w, h int)
}

func NewFrameSink(surface Surface, filter FilterMode, log *logger.Logger) *FrameSink {
	return &FrameSink{
		surface: surface,
		filter:  filter,
		log:     logger.OrDefault(log).Module("video"),
	}
}

// SetThreads sets the number of goroutines used for conversion.
func (s *FrameSink) SetThreads(n int) { s.threads = n }

// OnTextureRecreated registers fn called each time the texture gets a new size.
func (s *FrameSink) OnTextureRecreated(fn func(w, h int)) { s.onRecreated = fn }

// Size returns the current texture size.
func (s *FrameSink) Size() (int, int) { return s.w, s.h }

// ProcessFrame converts the frame into the sink buffer and uploads it as a whole.
func (s *FrameSink) ProcessFrame(f PixelFormat, src []byte, w, h, pitch int) error {
	if s.disposed {
		return ErrDisposed
	}
	if !f.Valid() {
		return fmt.Errorf("%w: %v", ErrFormatUnsupported, f)
	}
	if err := s.ensure(w, h); err != nil {
		return err
	}
	if err := Convert(f, s.pix, src, w, h, pitch, s.threads); err != nil {
		return err
	}
	return s.surface.WritePixels(s.tex, s.pix)
}

func (s *FrameSink) ensure(w, h int) error {
	if s.tex != 0 && w == s.w && h == s.h {
		return nil
	}
	if w <= 0 || h <= 0 {
		return fmt.Errorf("%w: %vx%v", ErrInvalidFrame, w, h)
	}
	s.release()

	tex, err := s.surface.EnsureSize(w, h)
	if err != nil {
		return fmt.Errorf("%w: %vx%v: %w", ErrAllocation, w, h, err)
	}
	s.tex, s.w, s.h = tex, w, h
	if cap(s.pix) < w*h {
		s.pix = make([]uint32, w*h)
	}
	s.pix = s.pix[:w*h]
	s.surface.SetFilter(s.filter)
	textures.Inc()
	s.log.Debug().Msgf("texture %vx%v", w, h)
	if s.onRecreated != nil {
		s.onRecreated(w, h)
	}
	return nil
}

func (s *FrameSink) release() {
	if s.tex == 0 {
		return
	}
	s.surface.Release(s.tex)
	s.tex, s.w, s.h = 0, 0, 0
}

// SetFilter applies the filter now or with the next texture.
func (s *FrameSink) SetFilter(mode FilterMode) {
	s.filter = mode
	if s.tex != 0 {
		s.surface.SetFilter(mode)
	}
}

func (s *FrameSink) Filter() FilterMode { return s.filter }

func (s *FrameSink) Dispose() {
	if s.disposed {
		return
	}
	s.disposed = true
	s.release()
	s.pix = nil
}
