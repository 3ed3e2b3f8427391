package av

import (
	"image/color"
	"testing"
	"unsafe"

	"github.com/giongto35/retroav/pkg/audio"
	"github.com/giongto35/retroav/pkg/config"
	"github.com/giongto35/retroav/pkg/lifecycle"
	"github.com/giongto35/retroav/pkg/logger"
	"github.com/giongto35/retroav/pkg/video"
)

type testPipe struct {
	*Pipeline
	ring    *audio.RingSink
	sink    *video.FrameSink
	surface *video.ImageSurface
}

func newTestPipe(conf config.Config) testPipe {
	ring := audio.NewRingSink(conf.Audio.BufferSize, nil)
	surface := video.NewImageSurface()
	sink := video.NewFrameSink(surface, video.Nearest, logger.Nop())
	return testPipe{
		Pipeline: New(conf, audio.NewOutput(ring), sink, logger.Nop()),
		ring:     ring,
		sink:     sink,
		surface:  surface,
	}
}

func testConfig() config.Config {
	conf := config.Default()
	conf.Audio.SampleRate = 44100
	conf.Audio.BufferSize = audio.DefaultBufferSize
	conf.Video.Filter = "nearest"
	conf.Dispatch.Capacity = 8
	return conf
}

// rgb565 makes a w*h frame of the color c with the pitch in bytes.
func rgb565(c uint16, w, h, pitch int) []byte {
	b := make([]byte, pitch*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*pitch + x*2
			b[i], b[i+1] = byte(c), byte(c>>8)
		}
	}
	return b
}

func TestPipeline(t *testing.T) {
	p := newTestPipe(testConfig())
	defer p.Close()

	if err := p.Init(0); err != nil {
		t.Fatal(err)
	}
	if n := p.SampleBatch(make([]int16, 735*2), 735); n != 735 {
		t.Errorf("accepted %v frames", n)
	}
	p.Sample(1, 1)
	p.VideoFrame(rgb565(31<<11, 4, 3, 10), 4, 3, 10, video.RGB565)

	if p.ring.Ring().Len() != 0 || p.surface.Image() != nil {
		t.Errorf("output should wait for a tick")
	}
	if n := p.Tick(); n != 3 {
		t.Errorf("tick ran %v tasks", n)
	}

	if l := p.ring.Ring().Len(); l != 736*2 {
		t.Errorf("ring has %v samples", l)
	}
	img := p.surface.Image()
	if img == nil {
		t.Fatal("no frame")
	}
	if img.Rect.Dx() != 4 || img.Rect.Dy() != 3 {
		t.Errorf("wrong size %v", img.Rect)
	}
	if c := img.RGBAAt(3, 2); c != (color.RGBA{R: 255, A: 255}) {
		t.Errorf("wrong color %v", c)
	}
	if p.Audio().State() != lifecycle.Ready || p.Video().State() != lifecycle.Ready {
		t.Errorf("bridges are not ready")
	}
}

func TestPipelinePointers(t *testing.T) {
	p := newTestPipe(testConfig())
	defer p.Close()
	_ = p.Init(44100)

	samples := []int16{1, 2, 3, 4, 5, 6}
	if n := p.SampleBatchPtr(unsafe.Pointer(&samples[0]), 3); n != 3 {
		t.Errorf("accepted %v", n)
	}
	if n := p.SampleBatchPtr(nil, 5); n != 5 {
		t.Errorf("nil batch should be accepted, %v", n)
	}

	frame := rgb565(31, 2, 2, 6)
	p.VideoFramePtr(unsafe.Pointer(&frame[0]), 2, 2, 6, video.RGB565)
	p.VideoFramePtr(nil, 2, 2, 6, video.RGB565)
	p.VideoFramePtr(unsafe.Pointer(&frame[0]), 2, 2, 2, video.RGB565)
	p.VideoFramePtr(unsafe.Pointer(&frame[0]), 1, 1, 0, video.PixelFormat(99))
	p.VideoFrame(nil, 2, 2, 6, video.RGB565)

	// the samples, the frame and two error logs
	if n := p.Tick(); n != 4 {
		t.Errorf("tick ran %v tasks", n)
	}
	if p.ring.Ring().Len() != 6 {
		t.Errorf("ring has %v samples", p.ring.Ring().Len())
	}
	if img := p.surface.Image(); img == nil || img.RGBAAt(1, 1) != (color.RGBA{B: 255, A: 255}) {
		t.Errorf("wrong frame")
	}
}

func TestPipelineApply(t *testing.T) {
	conf := testConfig()
	p := newTestPipe(conf)
	defer p.Close()
	_ = p.Init(44100)

	conf.Audio.Volume = 0.25
	conf.Audio.MinLatency = 32
	conf.Video.Filter = "linear"
	p.Apply(conf)

	if p.Audio().Volume() != 0.25 || p.ring.Volume() != 0.25 {
		t.Errorf("volume %v / %v", p.Audio().Volume(), p.ring.Volume())
	}
	if p.Audio().MinLatency() != 32 {
		t.Errorf("latency %v", p.Audio().MinLatency())
	}
	if p.sink.Filter() != video.Linear {
		t.Errorf("filter %v", p.sink.Filter())
	}

	conf.Audio.Enabled = false
	p.Apply(conf)
	p.Sample(1, 1)
	if p.Tick() != 0 {
		t.Errorf("muted audio should not queue")
	}

	conf.Video.Filter = "bicubic"
	p.Apply(conf)
	if p.sink.Filter() != video.Nearest {
		t.Errorf("unknown filter should fall back to nearest")
	}
}

func TestPipelineClose(t *testing.T) {
	p := newTestPipe(testConfig())
	_ = p.Init(44100)
	p.SampleBatch(make([]int16, 20), 10)
	p.VideoFrame(rgb565(0, 2, 2, 4), 2, 2, 4, video.RGB565)

	p.Close()
	p.Close()
	if p.Audio().State() != lifecycle.Disposed || p.Video().State() != lifecycle.Disposed {
		t.Errorf("bridges are not disposed")
	}
	if p.surface.Image() != nil {
		t.Errorf("texture is not released")
	}

	p.Sample(1, 1)
	p.VideoFrame(rgb565(0, 2, 2, 4), 2, 2, 4, video.RGB565)
	if p.Tick() != 0 {
		t.Errorf("closed pipeline should not queue")
	}
	if err := p.Init(44100); err == nil {
		t.Errorf("closed pipeline can't be reopened")
	}
}

func TestPipelineBacklog(t *testing.T) {
	conf := testConfig()
	conf.Dispatch.Limit = 4
	p := newTestPipe(conf)
	defer p.Close()
	_ = p.Init(44100)

	// the host stops ticking
	for i := 0; i < 10; i++ {
		batch := make([]int16, 10*2)
		for j := range batch {
			batch[j] = int16(i * 100)
		}
		p.SampleBatch(batch, 10)
	}
	if n := p.Tick(); n != 4 {
		t.Errorf("tick ran %v tasks, want 4", n)
	}

	got := make([]float32, 100)
	n := p.ring.Ring().Read(got)
	if n != 4*20 {
		t.Fatalf("ring has %v samples, want %v", n, 4*20)
	}
	for i, want := range []int{6, 7, 8, 9} {
		if v := got[i*20]; v != audio.Normalize(int16(want*100)) {
			t.Errorf("batch %v: got %v, the most recent samples should be kept", i, v)
		}
	}

	for _, c := range []uint16{31, 31 << 5, 31 << 11, 0, 0xffff} {
		p.VideoFrame(rgb565(c, 2, 2, 4), 2, 2, 4, video.RGB565)
	}
	if n := p.Tick(); n != 4 {
		t.Errorf("tick ran %v tasks, want 4", n)
	}
	if img := p.surface.Image(); img == nil || img.RGBAAt(0, 0) != (color.RGBA{R: 255, G: 255, B: 255, A: 255}) {
		t.Errorf("the last frame should be presented")
	}
}

func TestPipelineRejectLog(t *testing.T) {
	p := newTestPipe(testConfig())
	defer p.Close()

	frame := rgb565(0, 2, 2, 4)
	for i := 0; i < 100; i++ {
		p.VideoFrame(frame, 2, 2, 4, video.PixelFormat(99))
	}
	if n := p.Tick(); n != 1 {
		t.Errorf("a repeating error should be logged once, got %v", n)
	}
	if p.rej.skipped != 99 {
		t.Errorf("skipped %v, want 99", p.rej.skipped)
	}

	p.VideoFrame(frame, 2, 2, 2, video.RGB565)
	p.VideoFrame(frame, 2, 2, 2, video.RGB565)
	if n := p.Tick(); n != 1 {
		t.Errorf("a new error should be logged, got %v tasks", n)
	}

	p.rej.at = p.rej.at.Add(-rejectEvery)
	p.VideoFrame(frame, 2, 2, 2, video.RGB565)
	if n := p.Tick(); n != 1 {
		t.Errorf("the error should be logged again after a while, got %v tasks", n)
	}
	if p.rej.skipped != 0 {
		t.Errorf("skipped %v, want 0", p.rej.skipped)
	}
}

func BenchmarkPipeline(b *testing.B) {
	p := newTestPipe(testConfig())
	defer p.Close()
	_ = p.Init(44100)
	samples := make([]int16, 735*2)
	frame := make([]byte, 256*240*2)
	for i := 0; i < b.N; i++ {
		p.SampleBatch(samples, 735)
		p.VideoFrame(frame, 256, 240, 512, video.RGB565)
		p.Tick()
	}
	b.ReportAllocs()
}
