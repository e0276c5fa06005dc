package history

import (
	"errors"
	"fmt"

	"github.com/bnema/addonctl/internal/addons"
)

// DefaultLimit is the number of undo steps kept when no limit is configured
const DefaultLimit = 30

// ErrInconsistent is returned when a snapshot stack and its action log have
// diverged. It is fatal: state is left untouched and the caller must surface it.
var ErrInconsistent = errors.New("history stacks out of sync")

// Gate is the execution context consulted before recording or replaying
type Gate interface {
	Busy() bool
	ReadOnly() bool
}

// Step is a snapshot restored by Undo or Redo together with its action
type Step struct {
	Collection addons.Collection
	Action     string
}

// Manager keeps bounded undo/redo stacks of collection snapshots, each paired
// by position with the description of the action that produced it.
type Manager struct {
	gate  Gate
	limit int

	undo    []addons.Collection
	undoLog []string
	redo    []addons.Collection
	redoLog []string

	dirty bool
}

// New creates a history manager. A limit below 1 falls back to DefaultLimit.
func New(gate Gate, limit int) *Manager {
	if limit < 1 {
		limit = DefaultLimit
	}
	return &Manager{gate: gate, limit: limit}
}

func (m *Manager) readOnly() bool {
	return m.gate != nil && m.gate.ReadOnly()
}

func (m *Manager) busy() bool {
	return m.gate != nil && m.gate.Busy()
}

func (m *Manager) check() error {
	if len(m.undo) != len(m.undoLog) {
		return fmt.Errorf("%w: undo has %d snapshots and %d actions", ErrInconsistent, len(m.undo), len(m.undoLog))
	}
	if len(m.redo) != len(m.redoLog) {
		return fmt.Errorf("%w: redo has %d snapshots and %d actions", ErrInconsistent, len(m.redo), len(m.redoLog))
	}
	return nil
}

// Record snapshots current as the state before action. It is a no-op while
// the gate is busy or read-only.
func (m *Manager) Record(current addons.Collection, action string) error {
	if m.busy() || m.readOnly() {
		return nil
	}
	if err := m.check(); err != nil {
		return err
	}

	m.undo = append(m.undo, current.Clone())
	m.undoLog = append(m.undoLog, action)
	m.redo = nil
	m.redoLog = nil

	if over := len(m.undo) - m.limit; over > 0 {
		m.undo = evict(m.undo, over)
		m.undoLog = evict(m.undoLog, over)
	}

	m.dirty = true
	return nil
}

// Undo pops the most recent snapshot. current is pushed onto the redo stack
// with the undone action. ok is false when there is nothing to undo.
func (m *Manager) Undo(current addons.Collection) (step Step, ok bool, err error) {
	if m.readOnly() {
		return Step{}, false, nil
	}
	if err := m.check(); err != nil {
		return Step{}, false, err
	}
	if len(m.undo) == 0 {
		return Step{}, false, nil
	}

	last := len(m.undo) - 1
	step = Step{Collection: m.undo[last], Action: m.undoLog[last]}
	m.undo[last] = nil
	m.undo = m.undo[:last]
	m.undoLog = m.undoLog[:last]

	m.redo = append(m.redo, current.Clone())
	m.redoLog = append(m.redoLog, step.Action)

	m.dirty = true
	return step, true, nil
}

// Redo replays the most recently undone action. current is pushed back onto
// the undo stack. ok is false when there is nothing to redo.
func (m *Manager) Redo(current addons.Collection) (step Step, ok bool, err error) {
	if m.readOnly() {
		return Step{}, false, nil
	}
	if err := m.check(); err != nil {
		return Step{}, false, err
	}
	if len(m.redo) == 0 {
		return Step{}, false, nil
	}

	last := len(m.redo) - 1
	step = Step{Collection: m.redo[last], Action: m.redoLog[last]}
	m.redo[last] = nil
	m.redo = m.redo[:last]
	m.redoLog = m.redoLog[:last]

	m.undo = append(m.undo, current.Clone())
	m.undoLog = append(m.undoLog, step.Action)

	m.dirty = true
	return step, true, nil
}

// Reset drops every snapshot and clears the unsaved changes flag
func (m *Manager) Reset() {
	m.undo = nil
	m.undoLog = nil
	m.redo = nil
	m.redoLog = nil
	m.dirty = false
}

// CanUndo reports whether Undo would restore a snapshot
func (m *Manager) CanUndo() bool {
	return len(m.undo) > 0 && !m.readOnly()
}

// CanRedo reports whether Redo would restore a snapshot
func (m *Manager) CanRedo() bool {
	return len(m.redo) > 0 && !m.readOnly()
}

// Dirty reports whether there are unsaved changes
func (m *Manager) Dirty() bool {
	return m.dirty
}

// UndoActions returns the undo action log, oldest first
func (m *Manager) UndoActions() []string {
	return append([]string(nil), m.undoLog...)
}

// RedoActions returns the redo action log, oldest first
func (m *Manager) RedoActions() []string {
	return append([]string(nil), m.redoLog...)
}

// evict drops the n oldest items, copying so the backing array does not pin them
func evict[T any](s []T, n int) []T {
	out := make([]T, len(s)-n)
	copy(out, s[n:])
	return out
}
