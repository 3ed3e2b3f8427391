package video

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/giongto35/retroav/pkg/dispatch"
	"github.com/giongto35/retroav/pkg/lifecycle"
	"github.com/giongto35/retroav/pkg/logger"
)

// DefaultMaxPixels limits the frames to 4096x4096.
const DefaultMaxPixels = 4096 * 4096

// Bridge takes raw frames from the core goroutine and presents
// them through a Processor on the consumer goroutine.
type Bridge struct {
	proc  Processor
	disp  *dispatch.Dispatcher
	log   *logger.Logger
	state lifecycle.Machine

	closed    atomic.Bool
	maxPixels atomic.Int64
	frames    sync.Pool
}

type raw struct{ b []byte }

func NewBridge(proc Processor, disp *dispatch.Dispatcher, log *logger.Logger) *Bridge {
	if proc == nil {
		proc = NullProcessor{}
	}
	b := &Bridge{proc: proc, disp: disp, log: logger.OrDefault(log).Module("video")}
	b.frames.New = func() any { return new(raw) }
	b.maxPixels.Store(DefaultMaxPixels)
	return b
}

// SetMaxPixels sets the biggest frame (w*h) the bridge accepts.
func (b *Bridge) SetMaxPixels(n int) {
	if n <= 0 {
		n = DefaultMaxPixels
	}
	b.maxPixels.Store(int64(n))
}

// ProcessFrame copies a frame with the pitch in bytes (0 for packed rows)
// and queues its conversion. The data can be reused by the core when the call returns.
// A queued frame may be dropped in favor of newer work when the consumer lags.
// The error covers only what is known on the producer side,
// conversion errors are logged on the consumer side.
func (b *Bridge) ProcessFrame(f PixelFormat, data []byte, w, h, pitch int) error {
	if b.closed.Load() {
		return ErrDisposed
	}
	bpp := f.BytesPerPixel()
	if bpp == 0 {
		framesDropped.WithLabelValues("format").Inc()
		return fmt.Errorf("%w: %v", ErrFormatUnsupported, f)
	}
	if pitch == 0 {
		pitch = w * bpp
	}
	if w <= 0 || h <= 0 || pitch < w*bpp || pitch%bpp != 0 {
		framesDropped.WithLabelValues("frame").Inc()
		return fmt.Errorf("%w: %vx%v, pitch %vb", ErrInvalidFrame, w, h, pitch)
	}
	if int64(w)*int64(h) > b.maxPixels.Load() {
		framesDropped.WithLabelValues("size").Inc()
		return fmt.Errorf("%w: %vx%v is too big", ErrAllocation, w, h)
	}
	n := (h-1)*pitch + w*bpp
	if len(data) < n {
		framesDropped.WithLabelValues("frame").Inc()
		return fmt.Errorf("%w: %v bytes, want %v", ErrInvalidFrame, len(data), n)
	}

	fr := b.frames.Get().(*raw)
	if cap(fr.b) < n {
		fr.b = make([]byte, n)
	}
	fr.b = fr.b[:n]
	copy(fr.b, data)

	stride := pitch / bpp
	err := b.disp.Offer(func() error {
		defer b.frames.Put(fr)
		if err := b.proc.ProcessFrame(f, fr.b, w, h, stride); err != nil {
			framesDropped.WithLabelValues("process").Inc()
			return fmt.Errorf("frame %v %vx%v: %w", f, w, h, err)
		}
		b.state.Ready()
		framesPresented.Inc()
		return nil
	}, func() {
		framesDropped.WithLabelValues("backlog").Inc()
		b.frames.Put(fr)
	})
	if err != nil {
		b.frames.Put(fr)
		return ErrDisposed
	}
	return nil
}

// SetFilterMode changes the texture sampling filter, should be called
// on the consumer goroutine.
func (b *Bridge) SetFilterMode(mode FilterMode) {
	if b.closed.Load() {
		return
	}
	b.proc.SetFilter(mode)
}

func (b *Bridge) State() lifecycle.State { return b.state.Load() }

// Dispose releases the texture after the already queued frames are processed.
// Repeated calls do nothing.
func (b *Bridge) Dispose() {
	if !b.state.Dispose() {
		return
	}
	b.closed.Store(true)

	release := func() error {
		b.proc.Dispose()
		b.log.Debug().Msg("video disposed")
		return nil
	}
	if err := b.disp.Enqueue(release); err != nil {
		_ = release()
		return
	}
	if !b.disp.Draining() {
		_, _ = b.disp.Drain()
	}
}
