package audio

import (
	"errors"
	"reflect"
	"testing"

	"github.com/giongto35/retroav/pkg/dispatch"
	"github.com/giongto35/retroav/pkg/lifecycle"
	"github.com/giongto35/retroav/pkg/logger"
)

type recorder struct {
	hz       []int
	samples  []float32
	volume   float32
	disposed int
	failInit error
}

func (r *recorder) Init(hz int) error {
	if r.failInit != nil {
		return r.failInit
	}
	r.hz = append(r.hz, hz)
	return nil
}
func (r *recorder) Dispose()                       { r.disposed++ }
func (r *recorder) ProcessSample(l, rr float32)    { r.samples = append(r.samples, l, rr) }
func (r *recorder) ProcessSampleBatch(s []float32) { r.samples = append(r.samples, s...) }
func (r *recorder) SetVolume(v float32)            { r.volume = v }

func newTestBridge(proc Processor) (*Bridge, *dispatch.Dispatcher) {
	d := dispatch.New(logger.Nop())
	return NewBridge(proc, d, logger.Nop()), d
}

func pcm(n int) []int16 {
	s := make([]int16, n*2)
	for i := range s {
		s[i] = int16(i * 100)
	}
	return s
}

func TestBridgeNoopBeforeInit(t *testing.T) {
	rec := &recorder{}
	b, d := newTestBridge(rec)

	b.OnSample(1, 2)
	if n := b.OnSampleBatch(pcm(10), 10); n != 10 {
		t.Errorf("batch should accept all frames, got %v", n)
	}
	b.SetVolume(0.5)
	if d.Len() != 0 {
		t.Errorf("nothing should be queued before init, got %v", d.Len())
	}
	if b.State() != lifecycle.Uninitialized {
		t.Errorf("state %v", b.State())
	}
	if b.Volume() != 1 || rec.volume != 0 {
		t.Errorf("volume should not change before init")
	}
}

func TestBridgeInit(t *testing.T) {
	rec := &recorder{}
	b, _ := newTestBridge(rec)

	if err := b.Init(0); err != nil {
		t.Fatal(err)
	}
	if err := b.Init(48000); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(rec.hz, []int{DefaultSampleRate, 48000}) {
		t.Errorf("wrong rates %v", rec.hz)
	}
	if rec.disposed != 1 {
		t.Errorf("re-init should dispose the old output, disposed %v times", rec.disposed)
	}

	rec.failInit = errors.New("no device")
	if err := b.Init(44100); !errors.Is(err, rec.failInit) {
		t.Errorf("init error should be returned, got %v", err)
	}
	b.OnSample(1, 1)
	if b.State() == lifecycle.Ready {
		t.Errorf("samples should be ignored without an output")
	}
}

func TestBridgeSample(t *testing.T) {
	rec := &recorder{}
	b, d := newTestBridge(rec)
	_ = b.Init(44100)

	b.OnSample(-32768, 16384)
	if len(rec.samples) != 0 {
		t.Errorf("sample should be deferred to the consumer")
	}
	_, _ = d.Drain()
	if !reflect.DeepEqual(rec.samples, []float32{-1, 0.5}) {
		t.Errorf("got %v", rec.samples)
	}
	if b.State() != lifecycle.Ready {
		t.Errorf("state %v", b.State())
	}
}

func TestBridgeBatchCopiesInput(t *testing.T) {
	rec := &recorder{}
	b, d := newTestBridge(rec)
	_ = b.Init(44100)

	src := []int16{16384, -16384, 8192, -8192}
	b.OnSampleBatch(src, 2)
	// the core owns and reuses its buffer after the call
	for i := range src {
		src[i] = 0
	}
	b.OnSampleBatch(src, 1)
	_, _ = d.Drain()

	want := []float32{0.5, -0.5, 0.25, -0.25, 0, 0}
	if !reflect.DeepEqual(rec.samples, want) {
		t.Errorf("got %v, want %v", rec.samples, want)
	}
}

func TestBridgeBatchIntoRing(t *testing.T) {
	tests := []int{1, 2, 100, 735, 4096}
	for _, n := range tests {
		sink := NewRingSink(DefaultBufferSize, nil)
		b, d := newTestBridge(NewOutput(sink))
		_ = b.Init(44100)

		if got := b.OnSampleBatch(pcm(n), n); got != n {
			t.Errorf("accepted %v, want %v", got, n)
		}
		_, _ = d.Drain()
		if l := sink.Ring().Len(); l != n*Channels {
			t.Errorf("%v frames: ring has %v samples", n, l)
		}
	}
}

func TestBridgeOverflowKeepsRecent(t *testing.T) {
	sink := NewRingSink(16*sampleBytes, nil) // 8 frames
	b, d := newTestBridge(NewOutput(sink))
	_ = b.Init(44100)

	for i := int16(0); i < 6; i++ {
		b.OnSampleBatch([]int16{i, i, i, i}, 2)
	}
	_, _ = d.Drain()

	out := make([]float32, 32)
	n := sink.Ring().Read(out)
	if n != 16 {
		t.Fatalf("ring has %v samples", n)
	}
	for i, v := range out[:n] {
		if want := Normalize(int16(2 + i/4)); v != want {
			t.Fatalf("sample %v = %v, want %v (%v)", i, v, want, out[:n])
		}
	}
}

func TestBridgeResample(t *testing.T) {
	rec := &recorder{}
	b, d := newTestBridge(rec)
	b.SetOutputRate(88200)
	_ = b.Init(44100)

	if !reflect.DeepEqual(rec.hz, []int{88200}) {
		t.Errorf("output should run at forced rate, %v", rec.hz)
	}
	b.OnSampleBatch([]int16{0, 0, 16384, 16384}, 2)
	b.OnSample(-16384, -16384)
	_, _ = d.Drain()

	want := []float32{0, 0, 0.25, 0.25, 0.5, 0.5, 0, 0}
	if !reflect.DeepEqual(rec.samples, want) {
		t.Errorf("got %v, want %v", rec.samples, want)
	}
}

func TestBridgeVolume(t *testing.T) {
	rec := &recorder{}
	b, _ := newTestBridge(rec)
	_ = b.Init(44100)

	tests := []struct{ in, want float32 }{{-1, 0}, {2, 1}, {0.25, 0.25}}
	for _, tt := range tests {
		b.SetVolume(tt.in)
		if b.Volume() != tt.want || rec.volume != tt.want {
			t.Errorf("set %v: effective %v/%v, want %v", tt.in, b.Volume(), rec.volume, tt.want)
		}
	}
}

func TestBridgeOutputVolume(t *testing.T) {
	sink := &pushSink{}
	b, d := newTestBridge(NewOutput(sink))
	_ = b.Init(44100)
	b.SetVolume(0.5)
	b.OnSampleBatch([]int16{16384, -16384}, 1)
	_, _ = d.Drain()
	if !reflect.DeepEqual(sink.data, []float32{0.25, -0.25}) {
		t.Errorf("got %v", sink.data)
	}
}

func TestBridgeDisabled(t *testing.T) {
	rec := &recorder{}
	b, d := newTestBridge(rec)
	_ = b.Init(44100)
	b.SetEnabled(false)
	b.OnSample(1, 1)
	b.OnSampleBatch(pcm(4), 4)
	if d.Len() != 0 {
		t.Errorf("disabled bridge should not queue")
	}
}

func TestBridgeDispose(t *testing.T) {
	sink := NewRingSink(DefaultBufferSize, nil)
	out := NewOutput(sink)
	b, d := newTestBridge(out)
	_ = b.Init(44100)

	b.OnSampleBatch(pcm(10), 10)
	b.Dispose()
	if d.Len() != 0 {
		t.Errorf("dispose should complete the queued work")
	}
	if out.Ready() {
		t.Errorf("output should be stopped")
	}
	b.Dispose()
	if b.State() != lifecycle.Disposed {
		t.Errorf("state %v", b.State())
	}
	if err := b.Init(44100); !errors.Is(err, ErrDisposed) {
		t.Errorf("disposed bridge can't be reused, got %v", err)
	}
	b.OnSample(1, 1)
	if d.Len() != 0 {
		t.Errorf("disposed bridge should ignore samples")
	}
}

func TestBridgeDisposeInsideTask(t *testing.T) {
	rec := &recorder{}
	b, d := newTestBridge(rec)
	_ = b.Init(44100)

	b.OnSample(1, 1)
	_ = d.Enqueue(func() error { b.Dispose(); return nil })
	b.OnSample(2, 2)
	_, _ = d.Drain()
	if rec.disposed != 0 {
		t.Errorf("release should wait for the next drain")
	}
	_, _ = d.Drain()
	if rec.disposed != 1 || len(rec.samples) != 4 {
		t.Errorf("disposed %v, samples %v", rec.disposed, rec.samples)
	}
}

func TestBridgeBufferStatus(t *testing.T) {
	sink := NewRingSink(40*sampleBytes, nil)
	b, d := newTestBridge(NewOutput(sink))
	_ = b.Init(44100)

	var occupancy uint
	var underrun bool
	b.SetBufferStatusCallback(func(active bool, occ uint, u bool) { occupancy, underrun = occ, u })
	b.OnSampleBatch(pcm(5), 5)
	_, _ = d.Drain()
	if occupancy != 25 || underrun {
		t.Errorf("occupancy %v, underrun %v", occupancy, underrun)
	}
	b.SetMinLatency(64)
	if b.MinLatency() != 64 {
		t.Errorf("latency %v", b.MinLatency())
	}
}

type pushSink struct{ data []float32 }

func (p *pushSink) Configure(int, int, SampleFormat) error { return nil }
func (p *pushSink) Write(s []float32)                      { p.data = append(p.data, s...) }
func (p *pushSink) Start() error                           { return nil }
func (p *pushSink) Stop() error                            { return nil }

func BenchmarkBridgeBatch(b *testing.B) {
	br, d := newTestBridge(NewOutput(NewRingSink(DefaultBufferSize, nil)))
	_ = br.Init(44100)
	data := pcm(735)
	for i := 0; i < b.N; i++ {
		br.OnSampleBatch(data, 735)
		_, _ = d.Drain()
	}
}
