// Package av connects an emulation core to the host outputs.
//
// The core calls Sample, SampleBatch and VideoFrame (or their pointer
// versions) from its own goroutine, the host calls Tick once per
// rendered frame on the consumer goroutine.
package av

import (
	"sync"
	"sync/atomic"
	"time"
	"unsafe"

	"github.com/giongto35/retroav/pkg/audio"
	"github.com/giongto35/retroav/pkg/config"
	"github.com/giongto35/retroav/pkg/dispatch"
	"github.com/giongto35/retroav/pkg/logger"
	"github.com/giongto35/retroav/pkg/video"
	"github.com/gofrs/uuid"
)

type Pipeline struct {
	id    uuid.UUID
	disp  *dispatch.Dispatcher
	audio *audio.Bridge
	video *video.Bridge
	conf  config.Config
	log   *logger.Logger

	closed atomic.Bool

	rej struct {
		sync.Mutex
		last    string
		at      time.Time
		skipped int
	}
}

// New creates a pipeline with the given outputs, nil means no output.
func New(conf config.Config, ap audio.Processor, vp video.Processor, log *logger.Logger) *Pipeline {
	id, _ := uuid.NewV4()
	log = logger.OrDefault(log)
	log = log.Extend(log.With().Str("pipe", id.String()[:8]))

	disp := dispatch.New(log)
	disp.Reserve(conf.Dispatch.Capacity)
	disp.SetLimit(conf.Dispatch.Limit)

	p := &Pipeline{
		id:    id,
		disp:  disp,
		audio: audio.NewBridge(ap, disp, log),
		video: video.NewBridge(vp, disp, log),
		log:   log.Module("av"),
	}
	p.audio.SetOutputRate(conf.Audio.OutputSampleRate)
	p.video.SetMaxPixels(conf.Video.MaxPixels)
	p.apply(conf)
	return p
}

func (p *Pipeline) ID() uuid.UUID        { return p.id }
func (p *Pipeline) Audio() *audio.Bridge { return p.audio }
func (p *Pipeline) Video() *video.Bridge { return p.video }

// Init opens the audio output at the core sample rate,
// 0 uses the configured one.
func (p *Pipeline) Init(sampleRate int) error {
	if sampleRate <= 0 {
		sampleRate = p.conf.Audio.SampleRate
	}
	if err := p.audio.Init(sampleRate); err != nil {
		return err
	}
	p.audio.SetVolume(p.conf.Audio.Volume)
	return nil
}

func (p *Pipeline) Sample(left, right int16) { p.audio.OnSample(left, right) }

func (p *Pipeline) SampleBatch(data []int16, frames int) int {
	return p.audio.OnSampleBatch(data, frames)
}

// SampleBatchPtr reads frames of interleaved stereo samples from the core memory.
func (p *Pipeline) SampleBatchPtr(data unsafe.Pointer, frames int) int {
	if data == nil || frames <= 0 {
		return frames
	}
	return p.audio.OnSampleBatch(unsafe.Slice((*int16)(data), frames*audio.Channels), frames)
}

// VideoFrame takes a frame with the pitch in bytes.
// Bad frames are dropped and logged.
func (p *Pipeline) VideoFrame(data []byte, w, h, pitch int, format video.PixelFormat) {
	if len(data) == 0 {
		// duped frame
		return
	}
	p.frame(data, w, h, pitch, format)
}

func (p *Pipeline) frame(data []byte, w, h, pitch int, format video.PixelFormat) {
	if err := p.video.ProcessFrame(format, data, w, h, pitch); err != nil && !p.closed.Load() {
		p.reject(err)
	}
}

// rejectEvery is how often a repeating frame error is logged again.
const rejectEvery = 5 * time.Second

// reject logs a producer side frame error on the consumer goroutine.
// A repeating error is logged once per rejectEvery with the number of
// the skipped ones, the video metrics count every drop.
func (p *Pipeline) reject(err error) {
	msg := err.Error()
	now := time.Now()

	p.rej.Lock()
	if msg == p.rej.last && now.Sub(p.rej.at) < rejectEvery {
		p.rej.skipped++
		p.rej.Unlock()
		return
	}
	skipped := p.rej.skipped
	p.rej.last, p.rej.at, p.rej.skipped = msg, now, 0
	p.rej.Unlock()

	_ = p.disp.Offer(func() error {
		ev := p.log.Error().Err(err)
		if skipped > 0 {
			ev = ev.Int("skipped", skipped)
		}
		ev.Msg("frame drop")
		return nil
	}, nil)
}

// VideoFramePtr is VideoFrame for the core memory, nil data repeats the last frame.
func (p *Pipeline) VideoFramePtr(data unsafe.Pointer, w, h, pitch int, format video.PixelFormat) {
	if data == nil || w <= 0 || h <= 0 {
		return
	}
	bpp := format.BytesPerPixel()
	if bpp == 0 {
		p.frame(nil, w, h, pitch, format)
		return
	}
	if pitch <= 0 {
		pitch = w * bpp
	}
	if pitch < w*bpp {
		p.frame(nil, w, h, pitch, format)
		return
	}
	p.VideoFrame(unsafe.Slice((*byte)(data), (h-1)*pitch+w*bpp), w, h, pitch, format)
}

// Tick runs the pending audio and video work and returns the number of tasks.
// Call it from the consumer goroutine only.
func (p *Pipeline) Tick() int {
	n, err := p.disp.Drain()
	if err != nil {
		p.log.Warn().Err(err).Msg("tick")
	}
	return n
}

// Apply updates the runtime options:
// audio enabled, volume, latency and the texture filter.
func (p *Pipeline) Apply(conf config.Config) {
	if p.closed.Load() {
		return
	}
	p.apply(conf)
	p.audio.SetVolume(conf.Audio.Volume)
}

func (p *Pipeline) apply(conf config.Config) {
	p.audio.SetEnabled(conf.Audio.Enabled)
	p.audio.SetMinLatency(conf.Audio.MinLatency)
	filter, err := video.ParseFilter(conf.Video.Filter)
	if err != nil {
		p.log.Warn().Err(err).Msgf("using %v", filter)
	}
	p.video.SetFilterMode(filter)
	p.conf = conf
}

// Close disposes the outputs after the already queued work.
func (p *Pipeline) Close() {
	if p.closed.Swap(true) {
		return
	}
	p.audio.Dispose()
	p.video.Dispose()
	p.disp.Close()
	p.Tick()
	p.log.Debug().Msg("closed")
}
