package audio

// Gain maps signed 16-bit PCM into [-1.0, 1.0).
const Gain float32 = 1.0 / 32768.0

// Normalize converts one PCM sample into float.
func Normalize(s int16) float32 { return float32(s) * Gain }

// NormalizeInto converts min(len(dst), len(src)) samples and returns the count.
func NormalizeInto(dst []float32, src []int16) int {
	n := min(len(dst), len(src))
	dst, src = dst[:n], src[:n]
	for i, s := range src {
		dst[i] = float32(s) * Gain
	}
	return n
}

// Clamp limits volume to [0.0, 1.0].
func Clamp(v float32) float32 {
	switch {
	case v < 0 || v != v: // NaN
		return 0
	case v > 1:
		return 1
	}
	return v
}
