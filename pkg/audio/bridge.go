package audio

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/giongto35/retroav/pkg/dispatch"
	"github.com/giongto35/retroav/pkg/lifecycle"
	"github.com/giongto35/retroav/pkg/logger"
)

const (
	DefaultSampleRate = 44100
	// underrunLevel is the buffer occupancy below which a device underrun is likely.
	underrunLevel = 0.25
)

// BufferStatusFunc receives the output buffer occupancy in percent.
type BufferStatusFunc func(active bool, occupancy uint, underrunLikely bool)

// Bridge takes PCM from the core goroutine and hands it over to
// a Processor on the consumer goroutine.
//
// OnSample and OnSampleBatch are safe to call from the producer side,
// they copy and normalize the samples before queueing, so the core may
// reuse its buffer right after the call.
// Init, SetVolume and Dispose belong to the consumer side.
type Bridge struct {
	proc  Processor
	disp  *dispatch.Dispatcher
	log   *logger.Logger
	state lifecycle.Machine

	enabled    atomic.Bool
	open       atomic.Bool
	minLatency atomic.Uint32

	// consumer side
	volume float32
	outHz  int
	status BufferStatusFunc

	// producer side
	mu      sync.Mutex
	inHz    int
	rs      *Resampler
	scratch []float32
	chunks  sync.Pool
}

type chunk struct{ s []float32 }

// resize makes the chunk exactly n samples long,
// the memory is reallocated only when it can't hold n.
func (c *chunk) resize(n int) {
	if cap(c.s) < n {
		c.s = make([]float32, n)
	}
	c.s = c.s[:n]
}

// NewBridge creates a bridge. A nil processor means no audio.
func NewBridge(proc Processor, disp *dispatch.Dispatcher, log *logger.Logger) *Bridge {
	if proc == nil {
		proc = NullProcessor{}
	}
	b := &Bridge{
		proc:   proc,
		disp:   disp,
		log:    logger.OrDefault(log).Module("audio"),
		volume: 1,
	}
	b.chunks.New = func() any { return new(chunk) }
	b.enabled.Store(true)
	return b
}

// Init (re)creates the output at sampleRate Hz, any previous output
// is disposed first. Non-positive rates fall back to 44100.
func (b *Bridge) Init(sampleRate int) error {
	if b.state.IsDisposed() {
		return ErrDisposed
	}
	if sampleRate <= 0 {
		b.log.Warn().Msgf("invalid sample rate %v, fallback to %v", sampleRate, DefaultSampleRate)
		sampleRate = DefaultSampleRate
	}

	if b.open.Swap(false) {
		b.flush()
		b.proc.Dispose()
	}

	outHz := sampleRate
	if b.outHz > 0 {
		outHz = b.outHz
	}
	if err := b.proc.Init(outHz); err != nil {
		return fmt.Errorf("audio init: %w", err)
	}
	b.proc.SetVolume(b.volume)

	b.mu.Lock()
	b.inHz = sampleRate
	b.rs = nil
	if outHz != sampleRate {
		b.rs = NewResampler(sampleRate, outHz)
		b.log.Debug().Msgf("Resample %vHz -> %vHz", sampleRate, outHz)
	}
	b.mu.Unlock()

	b.open.Store(true)
	b.log.Info().Msgf("Audio output: %vHz, %v ch, %v", outHz, Channels, Float32)
	return nil
}

// OnSample handles a single stereo frame from the core.
func (b *Bridge) OnSample(left, right int16) {
	if !b.accepting() {
		return
	}

	b.mu.Lock()
	resampling := b.rs != nil
	b.mu.Unlock()
	if resampling {
		pair := [Channels]int16{left, right}
		b.batch(pair[:], 1)
		return
	}

	l, r := Normalize(left), Normalize(right)
	if b.enqueue(func() error {
		b.proc.ProcessSample(l, r)
		b.report()
		return nil
	}, func() { samplesDropped.Add(Channels) }) {
		framesAccepted.Inc()
	}
}

// OnSampleBatch handles frames of interleaved stereo samples from the core.
// It always returns frames as the output never pushes back.
func (b *Bridge) OnSampleBatch(data []int16, frames int) int {
	if frames <= 0 || !b.accepting() {
		return frames
	}
	n := min(frames, len(data)/Channels)
	if n > 0 {
		b.batch(data[:n*Channels], n)
	}
	return frames
}

func (b *Bridge) batch(data []int16, frames int) {
	c := b.chunks.Get().(*chunk)

	b.mu.Lock()
	if b.rs == nil {
		c.resize(len(data))
		NormalizeInto(c.s, data)
	} else {
		if len(b.scratch) != len(data) {
			b.scratch = make([]float32, len(data))
		}
		NormalizeInto(b.scratch, data)
		c.resize(b.rs.MaxOut(frames))
		c.s = b.rs.Process(c.s, b.scratch)
	}
	b.mu.Unlock()

	if !b.enqueue(func() error {
		b.proc.ProcessSampleBatch(c.s)
		b.report()
		b.chunks.Put(c)
		return nil
	}, func() {
		samplesDropped.Add(float64(len(c.s)))
		b.chunks.Put(c)
	}) {
		b.chunks.Put(c)
		return
	}
	framesAccepted.Add(float64(frames))
}

func (b *Bridge) accepting() bool { return b.enabled.Load() && b.open.Load() }

// enqueue queues t as droppable, on a backlog the oldest samples go first.
func (b *Bridge) enqueue(t dispatch.Task, drop func()) bool {
	if err := b.disp.Offer(t, drop); err != nil {
		return false
	}
	b.state.Ready()
	return true
}

func (b *Bridge) report() {
	if b.status == nil {
		return
	}
	if occ, ok := b.proc.(Occupier); ok {
		if v, ok := occ.Occupancy(); ok {
			b.status(true, uint(v*100+0.5), v < underrunLevel)
		}
	}
}

// flush runs the pending work unless we are inside a task already.
func (b *Bridge) flush() {
	if !b.disp.Draining() {
		_, _ = b.disp.Drain()
	}
}

// SetVolume clamps v into [0, 1] and applies it to the output.
// Does nothing until Init.
func (b *Bridge) SetVolume(v float32) {
	if !b.open.Load() {
		return
	}
	b.volume = Clamp(v)
	b.proc.SetVolume(b.volume)
}

// Volume returns the effective output volume.
func (b *Bridge) Volume() float32 { return b.volume }

// SetOutputRate forces the output sample rate, 0 follows the core.
// Applied on the next Init.
func (b *Bridge) SetOutputRate(hz int) { b.outHz = max(hz, 0) }

// SetBufferStatusCallback registers fn called after each write on the consumer side.
func (b *Bridge) SetBufferStatusCallback(fn BufferStatusFunc) { b.status = fn }

// SetMinLatency stores the core's minimum latency hint in ms.
func (b *Bridge) SetMinLatency(ms uint32) { b.minLatency.Store(ms) }
func (b *Bridge) MinLatency() uint32      { return b.minLatency.Load() }

func (b *Bridge) SetEnabled(enabled bool) { b.enabled.Store(enabled) }
func (b *Bridge) Enabled() bool           { return b.enabled.Load() }

func (b *Bridge) State() lifecycle.State { return b.state.Load() }

// Dispose stops the output after all the already queued audio is processed.
// Repeated calls do nothing.
func (b *Bridge) Dispose() {
	if !b.state.Dispose() {
		return
	}
	b.open.Store(false)

	release := func() error {
		b.proc.Dispose()
		b.mu.Lock()
		b.scratch, b.rs = nil, nil
		b.mu.Unlock()
		b.log.Debug().Msg("audio disposed")
		return nil
	}
	if err := b.disp.Enqueue(release); err != nil {
		_ = release()
		return
	}
	b.flush()
}
