package util

import "sync"

// Event is a one-shot synchronisation flag, settable once and waitable many
// times.
type Event struct {
	cond *sync.Cond
	set  bool
}

func NewEvent() *Event {
	return &Event{
		cond: &sync.Cond{L: &sync.Mutex{}},
	}
}

// Set the flag, returning the previous value.
func (e *Event) Set() bool {
	e.cond.L.Lock()
	previous := e.set
	e.set = true
	e.cond.L.Unlock()
	e.cond.Signal()
	return previous
}

// Wait until the flag is set.
func (e *Event) Wait() {
	e.cond.L.Lock()
	for !e.set {
		e.cond.Wait()
	}
	e.cond.L.Unlock()
}
