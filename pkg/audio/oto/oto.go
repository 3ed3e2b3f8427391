// Package oto plays audio through the ebitengine/oto device layer.
package oto

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/giongto35/retroav/pkg/logger"
)

// oto allows only one context per process
var (
	mu     sync.Mutex
	ctx    *oto.Context
	ctxHz  int
	ctxCh  int
	ctxErr error
)

var ErrFormatChange = errors.New("oto: the device can't be reopened with another format")

// Player implements audio.Player.
type Player struct {
	latency time.Duration
	player  *oto.Player
	log     *logger.Logger
}

// NewPlayer creates a player, the latency is used as the device buffer size
// (0 lets oto choose).
func NewPlayer(latency time.Duration, log *logger.Logger) *Player {
	return &Player{latency: latency, log: logger.OrDefault(log).Module("oto")}
}

func device(hz, channels int, buffer time.Duration) (*oto.Context, error) {
	mu.Lock()
	defer mu.Unlock()

	if ctx != nil {
		if hz != ctxHz || channels != ctxCh {
			return nil, fmt.Errorf("%w: %vHz/%vch -> %vHz/%vch", ErrFormatChange, ctxHz, ctxCh, hz, channels)
		}
		return ctx, nil
	}
	if ctxErr != nil {
		return nil, ctxErr
	}

	c, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   hz,
		ChannelCount: channels,
		Format:       oto.FormatFloat32LE,
		BufferSize:   buffer,
	})
	if err != nil {
		ctxErr = fmt.Errorf("oto context: %w", err)
		return nil, ctxErr
	}
	<-ready
	ctx, ctxHz, ctxCh = c, hz, channels
	return ctx, nil
}

// Open creates a device player pulling samples from src.
func (p *Player) Open(sampleRate, channels int, src io.Reader) error {
	c, err := device(sampleRate, channels, p.latency)
	if err != nil {
		return err
	}
	if p.player != nil {
		if err := p.player.Close(); err != nil {
			p.log.Warn().Err(err).Msg("player close")
		}
	}
	p.player = c.NewPlayer(src)
	p.log.Debug().Msgf("Opened %vHz/%vch, buffer: %v", sampleRate, channels, p.latency)
	return nil
}

func (p *Player) Play() {
	if p.player != nil {
		p.player.Play()
	}
}

func (p *Player) Pause() {
	if p.player != nil {
		p.player.Pause()
	}
}

// Close releases the player, the device context stays open.
func (p *Player) Close() error {
	if p.player == nil {
		return nil
	}
	err := p.player.Close()
	p.player = nil
	return err
}
