package audio

// Resampler is a streaming linear interpolator for interleaved stereo.
// It keeps the fractional read position and the last frame between
// calls, so consecutive chunks join without clicks.
type Resampler struct {
	srcHz, dstHz int
	step         float64
	pos          float64
	last         [Channels]float32
	primed       bool
}

func NewResampler(srcHz, dstHz int) *Resampler {
	return &Resampler{srcHz: srcHz, dstHz: dstHz, step: float64(srcHz) / float64(dstHz)}
}

// MaxOut returns the max number of output samples for the given number of input frames.
func (r *Resampler) MaxOut(frames int) int { return (int(float64(frames)/r.step) + 2) * Channels }

// Process resamples src into dst (reusing its memory) and returns the result.
func (r *Resampler) Process(dst, src []float32) []float32 {
	n := len(src) / Channels
	out := dst[:0]
	if n == 0 {
		return out
	}
	if !r.primed {
		r.last[0], r.last[1] = src[0], src[1]
		r.pos, r.primed = 1, true
	}

	// index 0 is the last frame of the previous chunk, i -> src[i-1]
	at := func(i int) (float32, float32) {
		if i == 0 {
			return r.last[0], r.last[1]
		}
		i = (i - 1) * Channels
		return src[i], src[i+1]
	}

	for end := float64(n); r.pos < end; r.pos += r.step {
		i := int(r.pos)
		frac := float32(r.pos - float64(i))
		l0, r0 := at(i)
		l1, r1 := at(i + 1)
		out = append(out, l0+(l1-l0)*frac, r0+(r1-r0)*frac)
	}

	r.pos -= float64(n)
	r.last[0], r.last[1] = src[(n-1)*Channels], src[(n-1)*Channels+1]
	return out
}

// Reset forgets the stream history.
func (r *Resampler) Reset() { r.pos, r.primed = 0, false }
