package video

import (
	"encoding/binary"
	"fmt"
	"sync"
)

const alpha = 0xff000000

// expand5 and expand6 replicate the top bits into the low ones,
// so 0 -> 0 and the channel max -> 255.
func expand5(c uint32) uint32 { return c<<3 | c>>2 }
func expand6(c uint32) uint32 { return c<<2 | c>>4 }

type rowFunc func(dst []uint32, src []byte)

func row1555(dst []uint32, src []byte) {
	for x := range dst {
		p := uint32(binary.LittleEndian.Uint16(src[x<<1:]))
		dst[x] = alpha | expand5(p>>10&0x1f)<<16 | expand5(p>>5&0x1f)<<8 | expand5(p&0x1f)
	}
}

func row565(dst []uint32, src []byte) {
	for x := range dst {
		p := uint32(binary.LittleEndian.Uint16(src[x<<1:]))
		dst[x] = alpha | expand5(p>>11)<<16 | expand6(p>>5&0x3f)<<8 | expand5(p&0x1f)
	}
}

func row8888(dst []uint32, src []byte) {
	for x := range dst {
		dst[x] = alpha | binary.LittleEndian.Uint32(src[x<<2:])
	}
}

func kernel(f PixelFormat) rowFunc {
	switch f {
	case RGB1555:
		return row1555
	case RGB565:
		return row565
	case XRGB8888, XRGB8888VFlip:
		return row8888
	}
	return nil
}

// Convert writes w*h canonical pixels into dst (stride w) from src.
// The pitch is the source row length in pixels and may be bigger than w.
// With threads > 1 the rows are split between goroutines,
// the call returns when all of them are done.
func Convert(f PixelFormat, dst []uint32, src []byte, w, h, pitch, threads int) error {
	fn := kernel(f)
	if fn == nil {
		return fmt.Errorf("%w: %v", ErrFormatUnsupported, f)
	}
	if w <= 0 || h <= 0 || pitch < w {
		return fmt.Errorf("%w: %vx%v, pitch %v", ErrInvalidFrame, w, h, pitch)
	}
	bpp := f.BytesPerPixel()
	if need := ((h-1)*pitch + w) * bpp; len(src) < need {
		return fmt.Errorf("%w: %v bytes, want %v", ErrInvalidFrame, len(src), need)
	}
	if len(dst) < w*h {
		return fmt.Errorf("%w: destination is %v px, want %v", ErrInvalidFrame, len(dst), w*h)
	}

	rows := func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			sy := y
			if f.Flipped() {
				sy = h - 1 - y
			}
			off := sy * pitch * bpp
			fn(dst[y*w:(y+1)*w], src[off:off+w*bpp])
		}
	}

	if threads <= 1 || h < threads {
		rows(0, h)
		return nil
	}

	var wg sync.WaitGroup
	hn := (h + threads - 1) / threads
	for y := 0; y < h; y += hn {
		wg.Add(1)
		go func(y0, y1 int) {
			rows(y0, y1)
			wg.Done()
		}(y, min(y+hn, h))
	}
	wg.Wait()
	return nil
}
