package audio

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	framesAccepted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "retroav", Subsystem: "audio", Name: "frames_total",
		Help: "Stereo frames accepted from the core.",
	})
	samplesDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "retroav", Subsystem: "audio", Name: "samples_dropped_total",
		Help: "Samples discarded on overflow, oldest first.",
	})
	underruns = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "retroav", Subsystem: "audio", Name: "underruns_total",
		Help: "Device reads that were padded with silence.",
	})
)
