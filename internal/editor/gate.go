package editor

import "sync/atomic"

// Gate is the execution context shared by the editor, its history and the
// session service. Busy guards overlapping network flows; ReadOnly is set while
// monitoring another account and disables every mutation.
type Gate struct {
	busy     atomic.Bool
	readOnly atomic.Bool
}

// Busy reports whether a network flow is in progress
func (g *Gate) Busy() bool { return g.busy.Load() }

// ReadOnly reports whether monitoring mode is active
func (g *Gate) ReadOnly() bool { return g.readOnly.Load() }

// SetReadOnly switches monitoring mode
func (g *Gate) SetReadOnly(readOnly bool) { g.readOnly.Store(readOnly) }

// acquire marks the gate busy, returning false if it already was
func (g *Gate) acquire() bool { return g.busy.CompareAndSwap(false, true) }

func (g *Gate) release() { g.busy.Store(false) }
