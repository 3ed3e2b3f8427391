// Package monitoring serves the prometheus metrics and pprof profiles.
package monitoring

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/pprof"
	"time"

	"github.com/giongto35/retroav/pkg/config"
	"github.com/giongto35/retroav/pkg/logger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Monitoring struct {
	conf   config.Monitoring
	server *http.Server
	ln     net.Listener
	log    *logger.Logger
}

// New creates new monitoring service.
func New(conf config.Monitoring, log *logger.Logger) *Monitoring {
	log = logger.OrDefault(log).Module("monitoring")
	return &Monitoring{
		conf: conf,
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", conf.Port),
			Handler:           handler(conf, log),
			ReadHeaderTimeout: 10 * time.Second,
		},
		log: log,
	}
}

func handler(conf config.Monitoring, log *logger.Logger) http.Handler {
	h := http.NewServeMux()

	if conf.ProfilingEnabled {
		prefix := conf.URLPrefix + "/debug/pprof"
		log.Info().Msgf("Profiling is enabled at %v", prefix)
		h.HandleFunc(prefix+"/", pprof.Index)
		h.HandleFunc(prefix+"/cmdline", pprof.Cmdline)
		h.HandleFunc(prefix+"/profile", pprof.Profile)
		h.HandleFunc(prefix+"/symbol", pprof.Symbol)
		h.HandleFunc(prefix+"/trace", pprof.Trace)
		// custom prefixes don't reach the named profiles through Index
		for _, p := range []string{"allocs", "block", "goroutine", "heap", "mutex", "threadcreate"} {
			h.Handle(prefix+"/"+p, pprof.Handler(p))
		}
	}

	if conf.MetricEnabled {
		path := conf.URLPrefix + "/metrics"
		log.Info().Msgf("Prometheus metric is enabled at %v", path)
		h.Handle(path, promhttp.Handler())
	}
	return h
}

// Run starts listening and serves in the background.
func (m *Monitoring) Run() error {
	ln, err := net.Listen("tcp", m.server.Addr)
	if err != nil {
		return fmt.Errorf("monitoring: %w", err)
	}
	m.ln = ln
	m.log.Info().Msgf("Starting monitoring server at %v", ln.Addr())
	go func() {
		if err := m.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.log.Error().Err(err).Msg("monitoring server")
		}
	}()
	return nil
}

// Addr returns the listen address after Run.
func (m *Monitoring) Addr() string {
	if m.ln == nil {
		return m.server.Addr
	}
	return m.ln.Addr().String()
}

func (m *Monitoring) Shutdown(ctx context.Context) error {
	m.log.Info().Msg("Shutting down monitoring server")
	return m.server.Shutdown(ctx)
}

func (m *Monitoring) String() string {
	return fmt.Sprintf("monitoring::%s:%d", m.conf.URLPrefix, m.conf.Port)
}
