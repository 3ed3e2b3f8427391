package audio

import (
	"encoding/binary"
	"io"
	"math"
	"sync"
	"sync/atomic"
)

type SampleFormat uint8

const (
	Float32 SampleFormat = iota
	Int16
)

func (f SampleFormat) String() string {
	switch f {
	case Float32:
		return "f32"
	case Int16:
		return "s16"
	}
	return "unknown"
}

// Sink is a host audio output accepting interleaved normalized samples.
// Write must not block nor retain the samples slice, it may drop data.
type Sink interface {
	Configure(sampleRate, channels int, format SampleFormat) error
	Write(samples []float32)
	Start() error
	Stop() error
}

// Volumer is implemented by sinks that have their own gain stage.
type Volumer interface{ SetVolume(v float32) }

// Occupier reports how full an output buffer is, in [0, 1].
type Occupier interface{ Occupancy() (float64, bool) }

// Player is a pull-based hardware output.
// It reads float32 little-endian interleaved samples from src on its own goroutine.
type Player interface {
	Open(sampleRate, channels int, src io.Reader) error
	Play()
	Pause()
}

// RingSink buffers samples in a Ring which a Player drains.
type RingSink struct {
	ring   *Ring
	player Player
	volume atomic.Uint32 // float32 bits

	mu         sync.Mutex
	configured bool
	playing    bool
	sampleRate int

	rbuf []float32 // Read scratch, the player reads from a single goroutine
}

// NewRingSink creates a sink with a ring of size bytes.
// The player may be nil, then the samples can be pulled with Read.
func NewRingSink(size int, player Player) *RingSink {
	if size <= 0 {
		size = DefaultBufferSize
	}
	s := RingSink{ring: NewRing(size), player: player}
	s.volume.Store(math.Float32bits(1))
	return &s
}

func (s *RingSink) Configure(sampleRate, channels int, format SampleFormat) error {
	if channels != Channels || format != Float32 {
		return ErrUnsupportedFormat{SampleRate: sampleRate, Channels: channels, Format: format}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ring.Clear()
	if s.player != nil {
		if err := s.player.Open(sampleRate, channels, s); err != nil {
			return err
		}
	}
	s.sampleRate = sampleRate
	s.configured = true
	return nil
}

func (s *RingSink) Write(samples []float32) { s.ring.Write(samples) }

func (s *RingSink) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.configured {
		return ErrNotInitialized
	}
	if s.player != nil && !s.playing {
		s.player.Play()
	}
	s.playing = true
	return nil
}

func (s *RingSink) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.player != nil && s.playing {
		s.player.Pause()
	}
	s.playing = false
	s.ring.Clear()
	return nil
}

func (s *RingSink) SetVolume(v float32) { s.volume.Store(math.Float32bits(Clamp(v))) }
func (s *RingSink) Volume() float32     { return math.Float32frombits(s.volume.Load()) }
func (s *RingSink) Ring() *Ring         { return s.ring }

func (s *RingSink) Occupancy() (float64, bool) {
	return float64(s.ring.Len()) / float64(s.ring.Cap()), true
}

// Read implements io.Reader for a Player.
// Missing samples are replaced with silence so the device never stalls,
// the volume is applied here.
func (s *RingSink) Read(p []byte) (int, error) {
	n := len(p) / sampleBytes
	if cap(s.rbuf) < n {
		s.rbuf = make([]float32, n)
	}
	buf := s.rbuf[:n]
	got := s.ring.Read(buf)
	if got < n {
		clear(buf[got:])
		underruns.Inc()
	}
	vol := s.Volume()
	for i, v := range buf {
		binary.LittleEndian.PutUint32(p[i*sampleBytes:], math.Float32bits(v*vol))
	}
	clear(p[n*sampleBytes:])
	return len(p), nil
}
