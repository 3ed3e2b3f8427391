package main

import (
	"context"
	"encoding/binary"
	"math"
	"time"

	"github.com/giongto35/retroav/pkg/av"
	"github.com/giongto35/retroav/pkg/video"
)

// testCore imitates an emulation core: it makes a tone and color bars
// at its own pace and switches the frame format and size from time to time.
type testCore struct {
	hz, fps int
	tone    float64
	phase   float64
	frame   int

	samples []int16
	pix     []byte
}

type mode struct {
	format video.PixelFormat
	w, h   int
	pad    int // row padding in bytes
}

var modes = []mode{
	{format: video.RGB565, w: 320, h: 240, pad: 64},
	{format: video.XRGB8888, w: 256, h: 224},
	{format: video.RGB1555, w: 320, h: 240, pad: 16},
	{format: video.XRGB8888VFlip, w: 256, h: 224, pad: 32},
}

func newTestCore(hz, fps int) *testCore {
	return &testCore{hz: hz, fps: fps, tone: 440}
}

// Run emits the frames until ctx is done.
func (c *testCore) Run(ctx context.Context, p *av.Pipeline) {
	t := time.NewTicker(time.Second / time.Duration(c.fps))
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			c.audio(p)
			c.video(p)
			c.frame++
		}
	}
}

func (c *testCore) audio(p *av.Pipeline) {
	n := c.hz / c.fps
	if cap(c.samples) < n*2 {
		c.samples = make([]int16, n*2)
	}
	s := c.samples[:n*2]
	step := 2 * math.Pi * c.tone / float64(c.hz)
	for i := 0; i < n; i++ {
		v := int16(math.Sin(c.phase) * 0.2 * math.MaxInt16)
		s[i*2], s[i*2+1] = v, v
		c.phase += step
	}
	c.phase = math.Mod(c.phase, 2*math.Pi)
	p.SampleBatch(s, n)
}

func (c *testCore) video(p *av.Pipeline) {
	m := modes[(c.frame/(c.fps*5))%len(modes)]
	bpp := m.format.BytesPerPixel()
	pitch := m.w*bpp + m.pad
	if cap(c.pix) < pitch*m.h {
		c.pix = make([]byte, pitch*m.h)
	}
	b := c.pix[:pitch*m.h]

	bars := [...][3]uint8{
		{255, 255, 255}, {255, 255, 0}, {0, 255, 255}, {0, 255, 0},
		{255, 0, 255}, {255, 0, 0}, {0, 0, 255}, {0, 0, 0},
	}
	shift := c.frame % m.w
	for y := 0; y < m.h; y++ {
		row := b[y*pitch:]
		for x := 0; x < m.w; x++ {
			col := bars[((x+shift)%m.w)*len(bars)/m.w]
			// the bottom quarter is a gradient
			if y > m.h*3/4 {
				g := uint8(x * 255 / m.w)
				col = [3]uint8{g, g, g}
			}
			put(m.format, row[x*bpp:], col)
		}
	}
	p.VideoFrame(b, m.w, m.h, pitch, m.format)
}

func put(f video.PixelFormat, dst []byte, c [3]uint8) {
	r, g, b := uint32(c[0]), uint32(c[1]), uint32(c[2])
	switch f {
	case video.RGB565:
		binary.LittleEndian.PutUint16(dst, uint16(r>>3<<11|g>>2<<5|b>>3))
	case video.RGB1555:
		binary.LittleEndian.PutUint16(dst, uint16(r>>3<<10|g>>3<<5|b>>3))
	case video.XRGB8888, video.XRGB8888VFlip:
		binary.LittleEndian.PutUint32(dst, r<<16|g<<8|b)
	}
}
