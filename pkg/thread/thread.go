// Package thread runs code on the main OS thread,
// which SDL needs for its window and event calls.
// See: https://github.com/golang/go/wiki/LockOSThread
package thread

import "github.com/faiface/mainthread"

// Run is a wrapper for the main function.
// Run returns when run (argument) function finishes.
func Run(run func()) { mainthread.Run(run) }

// Call queues function f on the main thread and blocks until the function f finishes.
func Call(f func()) { mainthread.Call(f) }

// CallErr is Call returning the f error.
func CallErr(f func() error) error { return mainthread.CallErr(f) }
