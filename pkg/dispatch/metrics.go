package dispatch

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	tasksEnqueued = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "retroav", Subsystem: "dispatch", Name: "tasks_enqueued_total",
		Help: "The number of tasks submitted from producer goroutines.",
	})
	tasksExecuted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "retroav", Subsystem: "dispatch", Name: "tasks_executed_total",
		Help: "The number of tasks completed on the consumer goroutine.",
	})
	tasksFailed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "retroav", Subsystem: "dispatch", Name: "tasks_failed_total",
		Help: "The number of tasks that returned an error or panicked.",
	})
	tasksDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "retroav", Subsystem: "dispatch", Name: "tasks_dropped_total",
		Help: "The number of droppable tasks evicted from a full queue.",
	})
)
