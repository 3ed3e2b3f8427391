package video

// Processor is the consumer-side half of the video path.
// The src buffer is owned by the caller for the duration of the call,
// the pitch is in pixels.
type Processor interface {
	ProcessFrame(f PixelFormat, src []byte, w, h, pitch int) error
	SetFilter(mode FilterMode)
	Dispose()
}

// NullProcessor drops all the frames.
type NullProcessor struct{}

func (NullProcessor) ProcessFrame(PixelFormat, []byte, int, int, int) error { return nil }
func (NullProcessor) SetFilter(FilterMode)                                  {}
func (NullProcessor) Dispose()                                              {}
