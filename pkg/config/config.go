// Package config contains the application settings.
package config

import "github.com/spf13/pflag"

type Config struct {
	Audio      Audio
	Video      Video
	Dispatch   Dispatch
	Monitoring Monitoring
	Log        Log
}

type Audio struct {
	Enabled bool
	// SampleRate is used until the core reports its own.
	SampleRate int `default:"44100"`
	// OutputSampleRate forces the device rate, 0 follows the core.
	OutputSampleRate int
	// BufferSize is the output ring size in bytes.
	BufferSize int `default:"65536"`
	Volume     float32
	// MinLatency is the device buffer hint in ms.
	MinLatency uint32
	// Output is one of: sdl, oto, null.
	Output string `default:"sdl"`
}

type Video struct {
	// Filter is one of: nearest, linear.
	Filter string `default:"nearest"`
	// Threads splits the pixel conversion by rows.
	Threads   int
	MaxPixels int `default:"16777216"`
	// Output is one of: sdl, image, null.
	Output string `default:"sdl"`
	Scale  int    `default:"3"`
}

type Dispatch struct {
	// Capacity is the preallocated task queue length.
	Capacity int `default:"64"`
	// Limit is the queue length past which the oldest
	// audio and video tasks are dropped, 0 is unbounded.
	Limit int `default:"8192"`
}

type Monitoring struct {
	Port             int
	URLPrefix        string
	MetricEnabled    bool
	ProfilingEnabled bool
}

func (c *Monitoring) IsEnabled() bool { return c.MetricEnabled || c.ProfilingEnabled }

type Log struct {
	Debug   bool
	Console bool
	NoColor bool
}

// Default returns the values of the options
// that can be explicitly set to zero in the config file.
func Default() Config {
	return Config{
		Audio: Audio{Enabled: true, Volume: 1},
		Log:   Log{Console: true},
	}
}

func (c *Config) WithFlags(fs *pflag.FlagSet) *Config {
	fs.StringVar(&c.Audio.Output, "audio", c.Audio.Output, "Audio output: [sdl, oto, null]")
	fs.StringVar(&c.Video.Output, "video", c.Video.Output, "Video output: [sdl, image, null]")
	fs.StringVar(&c.Video.Filter, "filter", c.Video.Filter, "Texture filter: [nearest, linear]")
	fs.BoolVar(&c.Log.Debug, "debug", c.Log.Debug, "Debug logging")
	fs.IntVar(&c.Monitoring.Port, "monitoring.port", c.Monitoring.Port, "Monitoring server port")
	return c
}
