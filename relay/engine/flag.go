package engine

import "sync/atomic"

// Flag is the process-wide availability switch gating the relay pipeline.
// The zero value is inactive; NewFlag returns an active one.
type Flag struct {
	active atomic.Bool
}

// NewFlag returns a flag in the active state.
func NewFlag() *Flag {
	f := &Flag{}
	f.active.Store(true)
	return f
}

// Active reports whether the relay currently accepts user messages.
func (f *Flag) Active() bool {
	return f.active.Load()
}

// Toggle flips the flag and returns the new state.
func (f *Flag) Toggle() bool {
	for {
		cur := f.active.Load()
		if f.active.CompareAndSwap(cur, !cur) {
			return !cur
		}
	}
}
