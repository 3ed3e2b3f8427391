// Package lifecycle holds the state machine shared by the audio and video bridges.
//
//	Uninitialized -> Ready -> Disposed
//	Uninitialized ---------> Disposed
//
// Disposed is terminal, a disposed bridge can't be reused.
package lifecycle

import "sync/atomic"

type State int32

const (
	Uninitialized State = iota
	Ready
	Disposed
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Ready:
		return "ready"
	case Disposed:
		return "disposed"
	}
	return "unknown"
}

// Machine is a lock-free holder of a State.
type Machine struct{ v atomic.Int32 }

func (m *Machine) Load() State { return State(m.v.Load()) }

// Ready moves Uninitialized into Ready.
// Returns false if the machine is disposed.
func (m *Machine) Ready() bool {
	if m.v.CompareAndSwap(int32(Uninitialized), int32(Ready)) {
		return true
	}
	return m.Load() == Ready
}

// Dispose moves into the terminal state.
// Returns false if it has been disposed before.
func (m *Machine) Dispose() bool { return State(m.v.Swap(int32(Disposed))) != Disposed }

func (m *Machine) IsDisposed() bool { return m.Load() == Disposed }
