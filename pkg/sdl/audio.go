package sdl

import (
	"fmt"
	"math"
	"sync/atomic"
	"unsafe"

	"github.com/giongto35/retroav/pkg/audio"
	"github.com/giongto35/retroav/pkg/logger"
	"github.com/veandco/go-sdl2/sdl"
)

var (
	queuedSize = sdl.GetQueuedAudioSize
	clearQueue = sdl.ClearQueuedAudio
	queueAudio = sdl.QueueAudio
)

// AudioSink implements audio.Sink with the SDL audio queue.
// When a write doesn't fit into the queue limit, the queued samples
// are discarded so the most recent ones are played.
type AudioSink struct {
	dev      sdl.AudioDeviceID
	limit    uint32
	latency  uint16
	channels int
	volume   atomic.Uint32
	buf      []float32
	log      *logger.Logger
}

// NewAudioSink creates a sink queueing up to limit bytes, the latency
// in ms (0 for the SDL default) sets the device buffer.
func NewAudioSink(limit int, latency uint32, log *logger.Logger) *AudioSink {
	if limit <= 0 {
		limit = audio.DefaultBufferSize
	}
	s := AudioSink{limit: uint32(limit), log: logger.OrDefault(log).Module("sdl")}
	s.latency = uint16(min(latency, math.MaxUint16))
	s.volume.Store(math.Float32bits(1))
	return &s
}

func (s *AudioSink) Configure(sampleRate, channels int, format audio.SampleFormat) error {
	if format != audio.Float32 {
		return audio.ErrUnsupportedFormat{SampleRate: sampleRate, Channels: channels, Format: format}
	}
	s.close()
	if err := sdl.InitSubSystem(sdl.INIT_AUDIO); err != nil {
		return fmt.Errorf("sdl audio: %w", err)
	}

	want := sdl.AudioSpec{
		Freq:     int32(sampleRate),
		Format:   sdl.AUDIO_F32SYS,
		Channels: uint8(channels),
		Samples:  frames(sampleRate, s.latency),
	}
	var have sdl.AudioSpec
	dev, err := sdl.OpenAudioDevice("", false, &want, &have, 0)
	if err != nil {
		sdl.QuitSubSystem(sdl.INIT_AUDIO)
		return fmt.Errorf("sdl audio device: %w", err)
	}
	s.dev = dev
	s.channels = int(have.Channels)
	s.log.Debug().Msgf("Audio device %v: %vHz, %v frames", dev, have.Freq, have.Samples)
	return nil
}

// frames converts a latency in ms into a power of two device buffer.
func frames(hz int, ms uint16) uint16 {
	if ms == 0 {
		return 1024
	}
	n := hz * int(ms) / 1000
	p := 256
	for p < n && p < 8192 {
		p <<= 1
	}
	return uint16(p)
}

func (s *AudioSink) Write(samples []float32) {
	if s.dev == 0 || len(samples) == 0 {
		return
	}
	flush, skip := fit(int(queuedSize(s.dev))/4, len(samples), int(s.limit)/4, s.channels)
	if flush {
		clearQueue(s.dev)
	}
	if skip > 0 {
		s.log.Debug().Msgf("Audio overflow, skip %v samples", skip)
		samples = samples[skip:]
		if len(samples) == 0 {
			return
		}
	}
	if cap(s.buf) < len(samples) {
		s.buf = make([]float32, len(samples))
	}
	buf := s.buf[:len(samples)]
	vol := s.Volume()
	for i, v := range samples {
		buf[i] = v * vol
	}
	b := unsafe.Slice((*byte)(unsafe.Pointer(&buf[0])), len(buf)*4)
	if err := queueAudio(s.dev, b); err != nil {
		s.log.Error().Err(err).Msg("queue")
	}
}

// fit tells how to add n samples to the queued ones within the limit
// (all in samples): the queue is cleared when they don't fit and the
// first skip samples of a chunk longer than the limit are dropped.
func fit(queued, n, limit, channels int) (flush bool, skip int) {
	if queued+n <= limit {
		return false, 0
	}
	if n > limit {
		skip = n - limit
		if channels > 1 {
			if r := skip % channels; r > 0 {
				skip += channels - r
			}
		}
		skip = min(skip, n)
	}
	return queued > 0, skip
}

func (s *AudioSink) Start() error {
	if s.dev == 0 {
		return audio.ErrNotInitialized
	}
	sdl.PauseAudioDevice(s.dev, false)
	return nil
}

func (s *AudioSink) Stop() error {
	if s.dev == 0 {
		return nil
	}
	sdl.PauseAudioDevice(s.dev, true)
	clearQueue(s.dev)
	return nil
}

func (s *AudioSink) SetVolume(v float32) { s.volume.Store(math.Float32bits(audio.Clamp(v))) }
func (s *AudioSink) Volume() float32     { return math.Float32frombits(s.volume.Load()) }

func (s *AudioSink) Occupancy() (float64, bool) {
	if s.dev == 0 {
		return 0, false
	}
	return float64(queuedSize(s.dev)) / float64(s.limit), true
}

func (s *AudioSink) close() {
	if s.dev == 0 {
		return
	}
	sdl.CloseAudioDevice(s.dev)
	sdl.QuitSubSystem(sdl.INIT_AUDIO)
	s.dev = 0
}

// Close releases the device.
func (s *AudioSink) Close() error { s.close(); return nil }
