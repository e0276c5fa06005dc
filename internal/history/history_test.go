package history

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/addonctl/internal/addons"
)

type gate struct {
	busy     bool
	readOnly bool
}

func (g *gate) Busy() bool     { return g.busy }
func (g *gate) ReadOnly() bool { return g.readOnly }

func collection(urls ...string) addons.Collection {
	c := make(addons.Collection, len(urls))
	for i, u := range urls {
		c[i] = addons.Entry{
			TransportURL: u,
			Manifest:     addons.Manifest{ID: u, Name: u, Types: []string{"movie"}},
			IsEnabled:    true,
		}
	}
	return c
}

// apply records action then returns the mutated collection, the way the editor does
func apply(t *testing.T, m *Manager, current addons.Collection, action string, mutate func(addons.Collection) addons.Collection) addons.Collection {
	t.Helper()
	require.NoError(t, m.Record(current, action))
	return mutate(current.Clone())
}

func TestUndoRedoInverse(t *testing.T) {
	m := New(&gate{}, DefaultLimit)
	initial := collection("a", "b", "c")
	current := initial.Clone()

	var states []addons.Collection
	for i := 0; i < 5; i++ {
		current = apply(t, m, current, fmt.Sprintf("step %d", i), func(c addons.Collection) addons.Collection {
			c[i%len(c)].IsEnabled = !c[i%len(c)].IsEnabled
			return append(c, collection(fmt.Sprintf("n%d", i))...)
		})
		states = append(states, current.Clone())
	}
	final := current.Clone()

	for i := 0; i < 5; i++ {
		step, ok, err := m.Undo(current)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, fmt.Sprintf("step %d", 4-i), step.Action)
		current = step.Collection
	}
	assert.Equal(t, initial, current)
	assert.False(t, m.CanUndo())

	for i := 0; i < 5; i++ {
		step, ok, err := m.Redo(current)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, fmt.Sprintf("step %d", i), step.Action)
		current = step.Collection
		assert.Equal(t, states[i], current)
	}
	assert.Equal(t, final, current)
	assert.False(t, m.CanRedo())
}

func TestRecordClearsRedo(t *testing.T) {
	m := New(&gate{}, DefaultLimit)
	current := collection("a", "b")

	current = apply(t, m, current, "remove b", func(c addons.Collection) addons.Collection { return c[:1] })
	step, ok, err := m.Undo(current)
	require.NoError(t, err)
	require.True(t, ok)
	current = step.Collection
	assert.True(t, m.CanRedo())

	current = apply(t, m, current, "disable a", func(c addons.Collection) addons.Collection {
		c[0].IsEnabled = false
		return c
	})
	assert.False(t, m.CanRedo())
	assert.Empty(t, m.RedoActions())

	before := current.Clone()
	_, ok, err = m.Redo(current)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, before, current)
}

func TestHistoryBound(t *testing.T) {
	m := New(&gate{}, DefaultLimit)
	current := collection("a")

	for i := 0; i < 45; i++ {
		require.NoError(t, m.Record(current, fmt.Sprintf("action %d", i)))
		undo := len(m.undo)
		assert.LessOrEqual(t, undo, DefaultLimit)
		assert.Len(t, m.UndoActions(), undo)
	}

	actions := m.UndoActions()
	require.Len(t, actions, DefaultLimit)
	assert.Equal(t, "action 15", actions[0])
	assert.Equal(t, "action 44", actions[len(actions)-1])
}

func TestCustomLimit(t *testing.T) {
	m := New(nil, 2)
	current := collection("a")
	for i := 0; i < 3; i++ {
		require.NoError(t, m.Record(current, fmt.Sprintf("a%d", i)))
	}
	assert.Equal(t, []string{"a1", "a2"}, m.UndoActions())
	assert.Equal(t, DefaultLimit, New(nil, 0).limit)
}

func TestReadOnlyGate(t *testing.T) {
	g := &gate{}
	m := New(g, DefaultLimit)
	current := collection("a", "b")

	current = apply(t, m, current, "remove b", func(c addons.Collection) addons.Collection { return c[:1] })
	g.readOnly = true

	undoBefore, redoBefore := len(m.undo), len(m.redo)
	snapshot := current.Clone()

	require.NoError(t, m.Record(current, "ignored"))
	_, ok, err := m.Undo(current)
	require.NoError(t, err)
	assert.False(t, ok)
	_, ok, err = m.Redo(current)
	require.NoError(t, err)
	assert.False(t, ok)

	undoAfter, redoAfter := len(m.undo), len(m.redo)
	assert.Equal(t, undoBefore, undoAfter)
	assert.Equal(t, redoBefore, redoAfter)
	assert.Equal(t, []string{"remove b"}, m.UndoActions())
	assert.Equal(t, snapshot, current)
	assert.False(t, m.CanUndo())
	assert.False(t, m.CanRedo())
}

func TestBusyGateSkipsRecord(t *testing.T) {
	g := &gate{busy: true}
	m := New(g, DefaultLimit)

	require.NoError(t, m.Record(collection("a"), "ignored"))
	undo := len(m.undo)
	assert.Zero(t, undo)
	assert.False(t, m.Dirty())
}

func TestRemoveUndoRedoScenario(t *testing.T) {
	m := New(&gate{}, DefaultLimit)
	current := collection("A", "B")

	current = apply(t, m, current, "removed B", func(c addons.Collection) addons.Collection { return c[:1] })
	assert.Equal(t, collection("A"), current)

	step, ok, err := m.Undo(current)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "removed B", step.Action)
	current = step.Collection
	assert.Equal(t, collection("A", "B"), current)
	assert.Equal(t, []string{"removed B"}, m.RedoActions())
	assert.Empty(t, m.UndoActions())

	step, ok, err = m.Redo(current)
	require.NoError(t, err)
	require.True(t, ok)
	current = step.Collection
	assert.Equal(t, collection("A"), current)
	assert.Equal(t, []string{"removed B"}, m.UndoActions())
}

func TestSnapshotsAreIsolated(t *testing.T) {
	m := New(&gate{}, DefaultLimit)
	current := collection("a")

	require.NoError(t, m.Record(current, "edit"))
	current[0].Manifest.Types[0] = "series"
	current[0].Manifest.Name = "renamed"

	step, ok, err := m.Undo(current)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "movie", step.Collection[0].Manifest.Types[0])
	assert.Equal(t, "a", step.Collection[0].Manifest.Name)
}

func TestInconsistentStacks(t *testing.T) {
	m := New(&gate{}, DefaultLimit)
	current := collection("a")
	require.NoError(t, m.Record(current, "one"))

	m.undoLog = append(m.undoLog, "stray")

	err := m.Record(current, "two")
	assert.ErrorIs(t, err, ErrInconsistent)
	_, ok, err := m.Undo(current)
	assert.ErrorIs(t, err, ErrInconsistent)
	assert.False(t, ok)
	_, _, err = m.Redo(current)
	assert.ErrorIs(t, err, ErrInconsistent)

	undo, redo := len(m.undo), len(m.redo)
	assert.Equal(t, 1, undo)
	assert.Zero(t, redo)
}

func TestResetAndDirty(t *testing.T) {
	m := New(&gate{}, DefaultLimit)
	current := collection("a")
	assert.False(t, m.Dirty())

	require.NoError(t, m.Record(current, "one"))
	assert.True(t, m.Dirty())

	m.Reset()
	assert.False(t, m.Dirty())
	assert.False(t, m.CanUndo())
	assert.False(t, m.CanRedo())
}
