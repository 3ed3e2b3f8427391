package main

import (
	"context"
	"fmt"
	"image/png"
	"io"
	"os"
	"time"

	"github.com/giongto35/retroav/pkg/audio"
	"github.com/giongto35/retroav/pkg/audio/oto"
	"github.com/giongto35/retroav/pkg/av"
	"github.com/giongto35/retroav/pkg/config"
	"github.com/giongto35/retroav/pkg/logger"
	"github.com/giongto35/retroav/pkg/monitoring"
	osx "github.com/giongto35/retroav/pkg/os"
	"github.com/giongto35/retroav/pkg/sdl"
	"github.com/giongto35/retroav/pkg/thread"
	"github.com/giongto35/retroav/pkg/video"
	flag "github.com/spf13/pflag"
)

var Version = "?"

const fps = 60

type options struct {
	confPath string
	duration time.Duration
	snapshot string
}

// confPath reads the config dir before the config is loaded,
// so the rest of the flags can override the file values.
func confPath(args []string) string {
	var path string
	fs := flag.NewFlagSet("conf", flag.ContinueOnError)
	fs.ParseErrorsWhitelist.UnknownFlags = true
	fs.SetOutput(io.Discard)
	fs.Usage = func() {}
	fs.StringVarP(&path, "conf", "c", "", "")
	_ = fs.Parse(args)
	return path
}

func parse(args []string) (config.Config, options, error) {
	opts := options{confPath: confPath(args)}
	conf, err := config.Load(opts.confPath)
	if err != nil {
		return conf, opts, fmt.Errorf("config: %w", err)
	}

	fs := flag.NewFlagSet("avplay", flag.ContinueOnError)
	conf.WithFlags(fs)
	fs.StringVarP(&opts.confPath, "conf", "c", opts.confPath, "Set custom configuration file dir")
	fs.DurationVar(&opts.duration, "duration", 0, "Stop after this time, 0 runs until closed")
	fs.StringVar(&opts.snapshot, "snapshot", "", "Save the last frame as PNG on exit (image output)")
	if err = fs.Parse(args); err != nil {
		return conf, opts, err
	}
	return conf, opts, nil
}

type outputs struct {
	audio   audio.Processor
	video   video.Processor
	window  *sdl.Window
	surface *video.ImageSurface
	closers []io.Closer
}

func (o *outputs) Close() {
	for i := len(o.closers) - 1; i >= 0; i-- {
		_ = o.closers[i].Close()
	}
}

// newOutputs creates the host outputs, must run on the main thread.
func newOutputs(conf config.Config, log *logger.Logger) (*outputs, error) {
	var out outputs

	switch conf.Audio.Output {
	case "sdl":
		s := sdl.NewAudioSink(conf.Audio.BufferSize, conf.Audio.MinLatency, log)
		out.audio = audio.NewOutput(s)
		out.closers = append(out.closers, s)
	case "oto":
		p := oto.NewPlayer(time.Duration(conf.Audio.MinLatency)*time.Millisecond, log)
		out.audio = audio.NewOutput(audio.NewRingSink(conf.Audio.BufferSize, p))
		out.closers = append(out.closers, p)
	case "null", "":
	default:
		return nil, fmt.Errorf("unknown audio output %q", conf.Audio.Output)
	}

	filter, err := video.ParseFilter(conf.Video.Filter)
	if err != nil {
		log.Warn().Err(err).Msgf("using %v", filter)
	}
	var surface video.Surface
	switch conf.Video.Output {
	case "sdl":
		scale := max(conf.Video.Scale, 1)
		w, err := sdl.NewWindow("retroav", 320*scale, 240*scale, log)
		if err != nil {
			out.Close()
			return nil, err
		}
		out.window, surface = w, w
		out.closers = append(out.closers, w)
	case "image":
		out.surface = video.NewImageSurface()
		surface = out.surface
	case "null", "":
	default:
		out.Close()
		return nil, fmt.Errorf("unknown video output %q", conf.Video.Output)
	}
	if surface != nil {
		sink := video.NewFrameSink(surface, filter, log)
		sink.SetThreads(conf.Video.Threads)
		sink.OnTextureRecreated(func(w, h int) { log.Info().Msgf("Video: %vx%v", w, h) })
		out.video = sink
	}
	return &out, nil
}

func run() {
	conf, opts, err := parse(os.Args[1:])
	var log *logger.Logger
	if conf.Log.Console {
		log = logger.NewConsole(conf.Log.Debug, "avplay", conf.Log.NoColor)
	} else {
		log = logger.New(conf.Log.Debug)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("init")
	}
	log.Info().Msgf("version %s", Version)
	log.Debug().Msgf("conf: %+v", conf)

	ctx, cancel := osx.ExpectTermination(context.Background())
	defer cancel()
	if opts.duration > 0 {
		ctx, cancel = context.WithTimeout(ctx, opts.duration)
		defer cancel()
	}

	if conf.Monitoring.IsEnabled() {
		mon := monitoring.New(conf.Monitoring, log)
		if err := mon.Run(); err != nil {
			log.Error().Err(err).Msg("monitoring")
		} else {
			defer func() { _ = mon.Shutdown(context.Background()) }()
		}
	}

	var out *outputs
	if err = thread.CallErr(func() (err error) { out, err = newOutputs(conf, log); return }); err != nil {
		log.Fatal().Err(err).Msg("output")
	}

	pipe := av.New(conf, out.audio, out.video, log)
	pipe.Audio().SetBufferStatusCallback(func(_ bool, occupancy uint, underrun bool) {
		if underrun {
			log.Debug().Msgf("audio buffer %v%%", occupancy)
		}
	})
	core := newTestCore(conf.Audio.SampleRate, fps)
	if err = thread.CallErr(func() error { return pipe.Init(conf.Audio.SampleRate) }); err != nil {
		log.Error().Err(err).Msg("audio")
	}

	if f := config.Locate(opts.confPath); f != "" {
		go func() {
			err := config.Watch(ctx, f, func(c config.Config) { thread.Call(func() { pipe.Apply(c) }) }, log)
			if err != nil {
				log.Warn().Err(err).Msg("config watch")
			}
		}()
	}

	go core.Run(ctx, pipe)
	loop(ctx, pipe, out)

	thread.Call(func() {
		if opts.snapshot != "" {
			if err := snapshot(opts.snapshot, out.surface, conf.Video.Scale); err != nil {
				log.Error().Err(err).Msg("snapshot")
			} else {
				log.Info().Msgf("Saved %v", opts.snapshot)
			}
		}
		pipe.Close()
		out.Close()
	})
}

// loop is the consumer side: one tick per displayed frame.
func loop(ctx context.Context, pipe *av.Pipeline, out *outputs) {
	t := time.NewTicker(time.Second / fps)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
		quit := false
		thread.Call(func() {
			pipe.Tick()
			if out.window != nil {
				_ = out.window.Present()
				quit = out.window.PollQuit()
			}
		})
		if quit {
			return
		}
	}
}

func snapshot(name string, s *video.ImageSurface, scale int) error {
	if s == nil {
		return fmt.Errorf("snapshot needs the image output")
	}
	img := s.Image()
	if img == nil {
		return fmt.Errorf("no frames")
	}
	if scale > 1 {
		img = s.Scaled(img.Rect.Dx()*scale, img.Rect.Dy()*scale)
	}
	f, err := osx.CreateFile(name)
	if err != nil {
		return err
	}
	if err = png.Encode(f, img); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func main() { thread.Run(run) }
