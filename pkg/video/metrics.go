package video

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	framesPresented = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "retroav", Subsystem: "video", Name: "frames_total",
		Help: "Frames converted and written to the surface.",
	})
	framesDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "retroav", Subsystem: "video", Name: "frames_dropped_total",
		Help: "Frames rejected before or during conversion.",
	}, []string{"reason"})
	textures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "retroav", Subsystem: "video", Name: "textures_created_total",
		Help: "Destination textures (re)created on a size change.",
	})
)
