package audio

import (
	"errors"
	"fmt"
)

var (
	ErrDisposed       = errors.New("audio bridge is disposed")
	ErrNotInitialized = errors.New("audio output is not initialized")
)

type ErrUnsupportedFormat struct {
	SampleRate, Channels int
	Format               SampleFormat
}

func (e ErrUnsupportedFormat) Error() string {
	return fmt.Sprintf("unsupported audio format: %vHz, %v ch, %v", e.SampleRate, e.Channels, e.Format)
}
