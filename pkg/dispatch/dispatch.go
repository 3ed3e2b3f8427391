// Package dispatch moves units of work from any goroutine onto
// one consumer goroutine (the host's render/update tick).
package dispatch

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/giongto35/retroav/pkg/logger"
)

var (
	ErrClosed    = errors.New("dispatcher is closed")
	ErrReentrant = errors.New("drain is already running")
)

// Task is a unit of work executed on the consumer goroutine.
type Task func() error

// Dispatcher is a multi-producer, single-consumer FIFO of tasks.
//
// Enqueue never blocks and never runs the task.
// Drain runs all tasks enqueued before the call, in order, each exactly once.
// A failing (or panicking) task is logged and doesn't affect the rest of the queue.
//
// With a limit set, a droppable task offered to a full queue evicts
// the oldest queued droppable task, whose drop func runs instead of it.
// Tasks added with Enqueue are never evicted.
type Dispatcher struct {
	mu     sync.Mutex
	queue  []entry
	spare  []entry
	limit  int
	closed bool

	draining atomic.Bool
	log      *logger.Logger
}

type entry struct {
	run  Task
	drop func()
}

func New(log *logger.Logger) *Dispatcher {
	return &Dispatcher{log: logger.OrDefault(log).Module("dispatch")}
}

// Reserve preallocates the queue for n tasks.
func (d *Dispatcher) Reserve(n int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if cap(d.queue) < n {
		q := make([]entry, len(d.queue), n)
		copy(q, d.queue)
		d.queue = q
	}
	if cap(d.spare) < n {
		d.spare = make([]entry, 0, n)
	}
}

// SetLimit sets the queue length past which Offer evicts old tasks,
// 0 means no limit.
func (d *Dispatcher) SetLimit(n int) {
	d.mu.Lock()
	d.limit = max(n, 0)
	d.mu.Unlock()
}

// Enqueue adds a task to the end of the queue.
// Safe to call from any goroutine, including a running task,
// in which case the task is executed on the next Drain.
func (d *Dispatcher) Enqueue(t Task) error {
	if t == nil {
		return nil
	}
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return ErrClosed
	}
	d.queue = append(d.queue, entry{run: t})
	d.mu.Unlock()
	tasksEnqueued.Inc()
	return nil
}

// Offer adds a task that may be dropped when the queue is over its limit.
// A dropped task never runs, its drop func (if any) is called once instead,
// on the goroutine that caused the eviction.
func (d *Dispatcher) Offer(t Task, drop func()) error {
	if t == nil {
		return nil
	}
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return ErrClosed
	}
	var evicted func()
	dropped := false
	if d.limit > 0 && len(d.queue) >= d.limit {
		for i, e := range d.queue {
			if e.drop == nil {
				continue
			}
			evicted, dropped = e.drop, true
			copy(d.queue[i:], d.queue[i+1:])
			d.queue[len(d.queue)-1] = entry{}
			d.queue = d.queue[:len(d.queue)-1]
			break
		}
	}
	if drop == nil {
		drop = func() {}
	}
	d.queue = append(d.queue, entry{run: t, drop: drop})
	d.mu.Unlock()

	if dropped {
		tasksDropped.Inc()
		evicted()
	}
	tasksEnqueued.Inc()
	return nil
}

// Drain executes the tasks queued so far and returns how many ran.
// It must be called only from the consumer goroutine.
// Calling it from inside a task or concurrently returns ErrReentrant.
func (d *Dispatcher) Drain() (int, error) {
	if !d.draining.CompareAndSwap(false, true) {
		return 0, ErrReentrant
	}
	defer d.draining.Store(false)

	d.mu.Lock()
	tasks := d.queue
	d.queue = d.spare[:0]
	d.mu.Unlock()

	for i, e := range tasks {
		d.run(e.run)
		tasks[i] = entry{}
	}

	d.mu.Lock()
	d.spare = tasks[:0]
	d.mu.Unlock()
	return len(tasks), nil
}

func (d *Dispatcher) run(t Task) {
	defer func() {
		if r := recover(); r != nil {
			tasksFailed.Inc()
			d.log.Error().Err(fmt.Errorf("%v", r)).Msg("task panic")
		}
	}()
	if err := t(); err != nil {
		tasksFailed.Inc()
		d.log.Error().Err(err).Msg("task fail")
	}
	tasksExecuted.Inc()
}

// Len returns the number of tasks waiting for the next Drain.
func (d *Dispatcher) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.queue)
}

// Draining tells if the caller is (most likely) inside a Drain call.
func (d *Dispatcher) Draining() bool { return d.draining.Load() }

// Close stops accepting new tasks.
// Already queued tasks are still executed by Drain.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
}
