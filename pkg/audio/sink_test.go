package audio

import (
	"encoding/binary"
	"errors"
	"io"
	"math"
	"testing"
)

type fakePlayer struct {
	hz, ch  int
	src     io.Reader
	playing bool
	opened  int
}

func (p *fakePlayer) Open(hz, ch int, src io.Reader) error {
	p.hz, p.ch, p.src = hz, ch, src
	p.opened++
	return nil
}
func (p *fakePlayer) Play()  { p.playing = true }
func (p *fakePlayer) Pause() { p.playing = false }

func floats(p []byte) []float32 {
	out := make([]float32, len(p)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(p[i*4:]))
	}
	return out
}

func TestRingSinkLifecycle(t *testing.T) {
	p := &fakePlayer{}
	s := NewRingSink(0, p)

	if err := s.Start(); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("start before configure should fail, got %v", err)
	}
	if err := s.Configure(48000, 1, Float32); err == nil {
		t.Errorf("mono should not be supported")
	}
	if err := s.Configure(48000, Channels, Float32); err != nil {
		t.Fatal(err)
	}
	if p.hz != 48000 || p.ch != 2 || p.src != s {
		t.Errorf("player opened with %v %v %v", p.hz, p.ch, p.src)
	}
	if err := s.Start(); err != nil || !p.playing {
		t.Errorf("should play, %v", err)
	}
	s.Write([]float32{1, 1})
	if err := s.Stop(); err != nil || p.playing {
		t.Errorf("should stop, %v", err)
	}
	if s.Ring().Len() != 0 {
		t.Errorf("stop should clear the buffer")
	}
	if s.Ring().Cap()*4 != DefaultBufferSize {
		t.Errorf("wrong default size %v", s.Ring().Cap())
	}
}

func TestRingSinkRead(t *testing.T) {
	s := NewRingSink(64, nil)
	s.Write([]float32{0.5, -0.5, 1, -1})
	s.SetVolume(0.5)

	p := make([]byte, 6*4+3)
	n, err := s.Read(p)
	if err != nil || n != len(p) {
		t.Fatalf("read %v, %v", n, err)
	}
	got := floats(p)
	want := []float32{0.25, -0.25, 0.5, -0.5, 0, 0}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
	for _, b := range p[24:] {
		if b != 0 {
			t.Errorf("tail bytes should be zero %v", p[24:])
		}
	}
	if occ, _ := s.Occupancy(); occ != 0 {
		t.Errorf("occupancy %v", occ)
	}
}

func TestRingSinkVolumeClamp(t *testing.T) {
	s := NewRingSink(64, nil)
	s.SetVolume(3)
	if s.Volume() != 1 {
		t.Errorf("volume %v", s.Volume())
	}
	s.SetVolume(-3)
	if s.Volume() != 0 {
		t.Errorf("volume %v", s.Volume())
	}
}
