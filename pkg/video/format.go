// Package video converts raw core frames into the canonical 32-bit texture
// format and hands them to a display surface.
//
// The canonical pixel is a uint32 0xAARRGGBB, which is B,G,R,A in memory.
package video

import "fmt"

// PixelFormat is a raw pixel layout reported by the core.
type PixelFormat uint8

const (
	RGB1555       PixelFormat = iota // 0RGB1555, 5 bits R, 5 bits G, 5 bits B, top bit unused
	XRGB8888                         // 8 bits per channel, X ignored
	RGB565                           // 5 bits R, 6 bits G, 5 bits B
	XRGB8888VFlip                    // XRGB8888 with rows bottom up
)

// BytesPerPixel returns the source pixel size or 0 for unknown formats.
func (f PixelFormat) BytesPerPixel() int {
	switch f {
	case RGB1555, RGB565:
		return 2
	case XRGB8888, XRGB8888VFlip:
		return 4
	}
	return 0
}

func (f PixelFormat) Flipped() bool { return f == XRGB8888VFlip }

func (f PixelFormat) Valid() bool { return f.BytesPerPixel() > 0 }

func (f PixelFormat) String() string {
	switch f {
	case RGB1555:
		return "RGB1555"
	case XRGB8888:
		return "XRGB8888"
	case RGB565:
		return "RGB565"
	case XRGB8888VFlip:
		return "XRGB8888_VFLIP"
	}
	return fmt.Sprintf("PixelFormat(%d)", uint8(f))
}
