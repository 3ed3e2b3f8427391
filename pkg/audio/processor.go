package audio

// Processor is the consumer-side half of the audio path.
// All the methods are called from the consumer goroutine only,
// the samples are already normalized and owned by the caller for the call duration.
type Processor interface {
	Init(sampleRate int) error
	Dispose()
	ProcessSample(left, right float32)
	ProcessSampleBatch(samples []float32)
	SetVolume(v float32)
}

// NullProcessor drops everything.
type NullProcessor struct{}

func (NullProcessor) Init(int) error                 { return nil }
func (NullProcessor) Dispose()                       {}
func (NullProcessor) ProcessSample(float32, float32) {}
func (NullProcessor) ProcessSampleBatch([]float32)   {}
func (NullProcessor) SetVolume(float32)              {}

// Output is a Processor feeding some Sink with a fixed
// 2-channel float32 format.
type Output struct {
	sink   Sink
	volume float32
	pair   [Channels]float32
	ready  bool
}

func NewOutput(sink Sink) *Output { return &Output{sink: sink, volume: 1} }

// Init (re)configures the sink and starts playback.
func (o *Output) Init(sampleRate int) error {
	o.Dispose()
	if err := o.sink.Configure(sampleRate, Channels, Float32); err != nil {
		return err
	}
	if err := o.sink.Start(); err != nil {
		return err
	}
	o.SetVolume(o.volume)
	o.ready = true
	return nil
}

func (o *Output) Dispose() {
	if !o.ready {
		return
	}
	o.ready = false
	_ = o.sink.Stop()
}

func (o *Output) ProcessSample(left, right float32) {
	o.pair[0], o.pair[1] = left, right
	o.ProcessSampleBatch(o.pair[:])
}

func (o *Output) ProcessSampleBatch(samples []float32) {
	if !o.ready || len(samples) == 0 {
		return
	}
	if _, ok := o.sink.(Volumer); !ok && o.volume != 1 {
		for i := range samples {
			samples[i] *= o.volume
		}
	}
	o.sink.Write(samples)
}

func (o *Output) SetVolume(v float32) {
	o.volume = Clamp(v)
	if vol, ok := o.sink.(Volumer); ok {
		vol.SetVolume(o.volume)
	}
}

func (o *Output) Occupancy() (float64, bool) {
	if occ, ok := o.sink.(Occupier); ok && o.ready {
		return occ.Occupancy()
	}
	return 0, false
}

func (o *Output) Ready() bool { return o.ready }
