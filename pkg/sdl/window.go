// Package sdl is the desktop host output: an SDL2 window with a streaming
// texture for video and a queued SDL2 audio device.
//
// All the calls must be made from the main thread (see pkg/thread).
package sdl

import (
	"fmt"
	"unsafe"

	"github.com/giongto35/retroav/pkg/logger"
	"github.com/giongto35/retroav/pkg/video"
	"github.com/veandco/go-sdl2/sdl"
)

// Window implements video.Surface with an SDL renderer texture.
type Window struct {
	win *sdl.Window
	ren *sdl.Renderer
	tex *sdl.Texture

	handle video.Handle
	w, h   int32
	filter video.FilterMode
	log    *logger.Logger
}

func NewWindow(title string, w, h int, log *logger.Logger) (*Window, error) {
	if err := sdl.InitSubSystem(sdl.INIT_VIDEO); err != nil {
		return nil, fmt.Errorf("sdl: %w", err)
	}
	win, err := sdl.CreateWindow(title, sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED,
		int32(w), int32(h), sdl.WINDOW_SHOWN|sdl.WINDOW_RESIZABLE)
	if err != nil {
		sdl.QuitSubSystem(sdl.INIT_VIDEO)
		return nil, fmt.Errorf("window: %w", err)
	}
	ren, err := sdl.CreateRenderer(win, -1, sdl.RENDERER_ACCELERATED|sdl.RENDERER_PRESENTVSYNC)
	if err != nil {
		err1 := win.Destroy()
		sdl.QuitSubSystem(sdl.INIT_VIDEO)
		return nil, fmt.Errorf("renderer: %w, destroy err: %w", err, err1)
	}
	return &Window{win: win, ren: ren, log: logger.OrDefault(log).Module("sdl")}, nil
}

func (s *Window) EnsureSize(w, h int) (video.Handle, error) {
	if s.tex != nil && int32(w) == s.w && int32(h) == s.h {
		return s.handle, nil
	}
	s.destroy()
	if err := s.create(int32(w), int32(h)); err != nil {
		return 0, err
	}
	s.handle++
	return s.handle, nil
}

func (s *Window) create(w, h int32) error {
	// the scale quality hint is read when a texture is created
	q := "0"
	if s.filter == video.Linear {
		q = "1"
	}
	sdl.SetHint(sdl.HINT_RENDER_SCALE_QUALITY, q)

	tex, err := s.ren.CreateTexture(sdl.PIXELFORMAT_ARGB8888, sdl.TEXTUREACCESS_STREAMING, w, h)
	if err != nil {
		return fmt.Errorf("texture %vx%v: %w", w, h, err)
	}
	s.tex, s.w, s.h = tex, w, h
	return nil
}

func (s *Window) destroy() {
	if s.tex == nil {
		return
	}
	if err := s.tex.Destroy(); err != nil {
		s.log.Warn().Err(err).Msg("texture destroy")
	}
	s.tex = nil
}

func (s *Window) WritePixels(h video.Handle, pix []uint32) error {
	if s.tex == nil || h != s.handle {
		return fmt.Errorf("%w: stale texture", video.ErrInvalidFrame)
	}
	if len(pix) < int(s.w*s.h) {
		return fmt.Errorf("%w: %v px", video.ErrInvalidFrame, len(pix))
	}
	return s.tex.Update(nil, unsafe.Pointer(&pix[0]), int(s.w)<<2)
}

// SetFilter recreates the current texture, so the next frame is drawn
// with the new filter.
func (s *Window) SetFilter(mode video.FilterMode) {
	if mode == s.filter {
		return
	}
	s.filter = mode
	if s.tex == nil {
		return
	}
	w, h := s.w, s.h
	s.destroy()
	if err := s.create(w, h); err != nil {
		s.log.Error().Err(err).Msg("filter change")
	}
}

func (s *Window) Release(h video.Handle) {
	if h == s.handle {
		s.destroy()
	}
}

// Present draws the last uploaded frame stretched to the window.
func (s *Window) Present() error {
	if err := s.ren.Clear(); err != nil {
		return err
	}
	if s.tex != nil {
		if err := s.ren.Copy(s.tex, nil, nil); err != nil {
			return err
		}
	}
	s.ren.Present()
	return nil
}

// PollQuit handles the pending window events and tells if the window was closed.
func (s *Window) PollQuit() (quit bool) {
	for e := sdl.PollEvent(); e != nil; e = sdl.PollEvent() {
		switch ev := e.(type) {
		case *sdl.QuitEvent:
			quit = true
		case *sdl.KeyboardEvent:
			if ev.Keysym.Sym == sdl.K_ESCAPE {
				quit = true
			}
		}
	}
	return
}

func (s *Window) Close() error {
	s.destroy()
	err := s.ren.Destroy()
	if err1 := s.win.Destroy(); err1 != nil && err == nil {
		err = err1
	}
	sdl.QuitSubSystem(sdl.INIT_VIDEO)
	return err
}
