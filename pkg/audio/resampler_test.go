package audio

import (
	"reflect"
	"testing"
)

func stereo(vals ...float32) []float32 {
	s := make([]float32, 0, len(vals)*2)
	for _, v := range vals {
		s = append(s, v, v)
	}
	return s
}

func TestResamplerSameRate(t *testing.T) {
	r := NewResampler(44100, 44100)
	var out []float32
	for _, chunk := range [][]float32{stereo(1, 2, 3), stereo(4, 5), stereo(6)} {
		out = append(out, r.Process(make([]float32, 0, r.MaxOut(len(chunk)/2)), chunk)...)
	}
	// the stream lags one frame behind
	if want := stereo(1, 2, 3, 4, 5); !reflect.DeepEqual(out, want) {
		t.Errorf("got %v, want %v", out, want)
	}
}

func TestResamplerUpsample(t *testing.T) {
	r := NewResampler(22050, 44100)
	out := r.Process(nil, stereo(0, 2, 4))
	if want := stereo(0, 1, 2, 3); !reflect.DeepEqual(out, want) {
		t.Errorf("got %v, want %v", out, want)
	}
	// continues from the last frame
	out = r.Process(nil, stereo(6))
	if want := stereo(4, 5); !reflect.DeepEqual(out, want) {
		t.Errorf("got %v, want %v", out, want)
	}
}

func TestResamplerLength(t *testing.T) {
	tests := []struct{ src, dst, frames int }{
		{32000, 48000, 533},
		{48000, 44100, 800},
		{44100, 48000, 735},
		{22050, 44100, 1},
	}
	for _, tt := range tests {
		r := NewResampler(tt.src, tt.dst)
		in := make([]float32, tt.frames*2)
		total, chunks := 0, 50
		for i := 0; i < chunks; i++ {
			out := r.Process(make([]float32, 0, r.MaxOut(tt.frames)), in)
			if len(out) > r.MaxOut(tt.frames) {
				t.Fatalf("%v->%v: out of bounds %v > %v", tt.src, tt.dst, len(out), r.MaxOut(tt.frames))
			}
			total += len(out) / 2
		}
		want := float64(tt.frames*chunks) * float64(tt.dst) / float64(tt.src)
		if d := float64(total) - want; d > 2 || d < -2 {
			t.Errorf("%v->%v: %v frames, want ~%v", tt.src, tt.dst, total, want)
		}
	}
}

func BenchmarkResampler(b *testing.B) {
	r := NewResampler(32040, 48000)
	in := make([]float32, 534*2)
	out := make([]float32, 0, r.MaxOut(534))
	for i := 0; i < b.N; i++ {
		out = r.Process(out, in)
	}
}
