package audio

import "sync"

const (
	// Channels is the fixed output channel count (interleaved L, R).
	Channels = 2
	// DefaultBufferSize is the ring capacity in bytes.
	DefaultBufferSize = 65536

	sampleBytes = 4 // float32
)

// Ring is a fixed-size FIFO of interleaved float samples.
//
// Write never blocks: when the new data doesn't fit, the oldest
// unread samples are discarded so the most recent audio is kept.
// One goroutine writes (the consumer tick) while another one reads
// (the audio device), so the indices are guarded by a mutex.
type Ring struct {
	mu   sync.Mutex
	buf  []float32
	r, n int
}

// NewRing makes a ring of the given capacity in bytes,
// rounded down to whole stereo frames.
func NewRing(bytes int) *Ring {
	size := bytes / sampleBytes / Channels * Channels
	if size < Channels {
		size = Channels
	}
	return &Ring{buf: make([]float32, size)}
}

// Write appends samples and returns how many samples were discarded.
func (r *Ring) Write(s []float32) (dropped int) {
	if len(s) == 0 {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	c := len(r.buf)
	switch {
	case len(s) >= c:
		dropped = r.n + len(s) - c
		s = s[len(s)-c:]
		r.r, r.n = 0, 0
	case r.n+len(s) > c:
		dropped = r.n + len(s) - c
		r.r = (r.r + dropped) % c
		r.n -= dropped
	}

	w := (r.r + r.n) % c
	k := copy(r.buf[w:], s)
	copy(r.buf, s[k:])
	r.n += len(s)

	if dropped > 0 {
		samplesDropped.Add(float64(dropped))
	}
	return
}

// Read moves up to len(dst) of the oldest samples into dst.
func (r *Ring) Read(dst []float32) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := min(len(dst), r.n)
	if n == 0 {
		return 0
	}
	k := copy(dst[:n], r.buf[r.r:])
	copy(dst[k:n], r.buf)
	r.r = (r.r + n) % len(r.buf)
	r.n -= n
	return n
}

// Len returns the number of unread samples.
func (r *Ring) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.n
}

// Cap returns the capacity in samples.
func (r *Ring) Cap() int { return len(r.buf) }

func (r *Ring) Clear() {
	r.mu.Lock()
	r.r, r.n = 0, 0
	r.mu.Unlock()
}
