package editor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/addonctl/internal/addons"
)

func TestRemoveUndoRedo(t *testing.T) {
	e, _, cache := newEditor(entry("A", true), entry("B", true))

	require.NoError(t, e.Remove(1))
	assert.Equal(t, []string{"A"}, names(e.Entries()))
	assert.True(t, e.HasUnsavedChanges())
	assert.Equal(t, []string{"Removed B"}, e.UndoActions())

	action, ok, err := e.Undo()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Removed B", action)
	assert.Equal(t, []string{"A", "B"}, names(e.Entries()))
	assert.Equal(t, []string{"Removed B"}, e.RedoActions())
	assert.Equal(t, []string{"A", "B"}, names(cache.saved))

	action, ok, err = e.Redo()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Removed B", action)
	assert.Equal(t, []string{"A"}, names(e.Entries()))
}

func TestMoves(t *testing.T) {
	e, _, _ := newEditor(entry("A", true), entry("B", true), entry("C", true), entry("D", true))

	require.NoError(t, e.MoveDown(0))
	assert.Equal(t, []string{"B", "A", "C", "D"}, names(e.Entries()))

	require.NoError(t, e.MoveToBottom(0))
	assert.Equal(t, []string{"A", "C", "D", "B"}, names(e.Entries()))

	require.NoError(t, e.MoveToTop(2))
	assert.Equal(t, []string{"D", "A", "C", "B"}, names(e.Entries()))

	require.NoError(t, e.MoveUp(3))
	assert.Equal(t, []string{"D", "A", "B", "C"}, names(e.Entries()))

	require.NoError(t, e.Move(0, 2))
	assert.Equal(t, []string{"A", "B", "D", "C"}, names(e.Entries()))

	for _, action := range e.UndoActions() {
		assert.Equal(t, "Reordered addons", action)
	}
	assert.Len(t, e.UndoActions(), 5)
}

func TestNoOpMovesRecordNothing(t *testing.T) {
	e, _, _ := newEditor(entry("A", true), entry("B", true))

	require.NoError(t, e.MoveUp(0))
	require.NoError(t, e.MoveDown(1))
	require.NoError(t, e.Move(1, 1))
	assert.Empty(t, e.UndoActions())
	assert.False(t, e.HasUnsavedChanges())

	assert.ErrorIs(t, e.MoveUp(5), addons.ErrNotFound)
}

func TestToggleRenameAutoUpdate(t *testing.T) {
	e, _, _ := newEditor(entry("A", true))

	require.NoError(t, e.Toggle(0))
	got, err := e.Entry(0)
	require.NoError(t, err)
	assert.False(t, got.IsEnabled)

	require.NoError(t, e.Rename(0, "  Custom  "))
	assert.ErrorIs(t, e.Rename(0, " "), addons.ErrValidation)

	require.NoError(t, e.SetAutoUpdate(0, false))
	require.NoError(t, e.SetAutoUpdate(0, false))

	got, _ = e.Entry(0)
	assert.Equal(t, "Custom", got.Manifest.Name)
	assert.True(t, got.DisableAutoUpdate)
	assert.Equal(t, []string{
		"Disabled A",
		"Renamed A to Custom",
		"Excluded Custom from auto-update",
	}, e.UndoActions())
}

func TestBulkOperationsRecordOnce(t *testing.T) {
	e, _, _ := newEditor(entry("A", true), entry("B", true), entry("C", false), entry("D", true))

	require.NoError(t, e.Select(0, true))
	require.NoError(t, e.Select(1, true))
	n, err := e.DisableSelected()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"Disabled 2 addons"}, e.UndoActions())
	assert.Zero(t, e.Counts().Selected)

	require.NoError(t, e.SelectAll())
	n, err = e.EnableSelected()
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, 4, e.Counts().Enabled)

	require.NoError(t, e.Select(2, true))
	n, err = e.RemoveSelected()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"A", "B", "D"}, names(e.Entries()))
	assert.Equal(t, []string{"Disabled 2 addons", "Enabled 3 addons", "Removed 1 addon"}, e.UndoActions())

	n, err = e.RemoveSelected()
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Len(t, e.UndoActions(), 3)
}

func TestReadOnlyBlocksMutations(t *testing.T) {
	e, gate, cache := newEditor(entry("A", true), entry("B", false), entry("C", true))
	fetcher := manifestFor("2.0.0")
	withFetcher(e, fetcher)

	require.NoError(t, e.Remove(2))
	require.NoError(t, e.Toggle(0))
	_, ok, err := e.Undo()
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, e.Select(1, true))
	gate.SetReadOnly(true)

	before := e.Entries()
	undoBefore := e.UndoActions()
	redoBefore := e.RedoActions()
	saves := cache.saves

	assert.ErrorIs(t, e.Remove(0), addons.ErrReadOnly)
	assert.ErrorIs(t, e.Toggle(0), addons.ErrReadOnly)
	assert.ErrorIs(t, e.SetEnabled(1, true), addons.ErrReadOnly)
	assert.ErrorIs(t, e.Rename(0, "X"), addons.ErrReadOnly)
	assert.ErrorIs(t, e.SetAutoUpdate(0, false), addons.ErrReadOnly)
	assert.ErrorIs(t, e.Replace(nil, "Cleared"), addons.ErrReadOnly)
	assert.ErrorIs(t, e.Move(0, 1), addons.ErrReadOnly)
	assert.ErrorIs(t, e.MoveUp(1), addons.ErrReadOnly)
	assert.ErrorIs(t, e.MoveDown(0), addons.ErrReadOnly)
	assert.ErrorIs(t, e.MoveToTop(1), addons.ErrReadOnly)
	assert.ErrorIs(t, e.MoveToBottom(0), addons.ErrReadOnly)

	assert.ErrorIs(t, e.Select(0, true), addons.ErrReadOnly)
	assert.ErrorIs(t, e.SelectAll(), addons.ErrReadOnly)
	assert.ErrorIs(t, e.ClearSelection(), addons.ErrReadOnly)

	for name, bulk := range map[string]func() (int, error){
		"enable":  e.EnableSelected,
		"disable": e.DisableSelected,
		"remove":  e.RemoveSelected,
	} {
		n, err := bulk()
		assert.ErrorIs(t, err, addons.ErrReadOnly, name)
		assert.Zero(t, n, name)
	}

	_, err = e.BeginEdit(0)
	assert.ErrorIs(t, err, addons.ErrReadOnly)
	_, err = e.Add(context.Background(), "https://new.example.com/manifest.json")
	assert.ErrorIs(t, err, addons.ErrReadOnly)
	_, err = e.AutoUpdate(context.Background())
	assert.ErrorIs(t, err, addons.ErrReadOnly)
	assert.Empty(t, fetcher.calls)

	_, ok, err = e.Undo()
	require.NoError(t, err)
	assert.False(t, ok)
	_, ok, err = e.Redo()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, e.CanUndo())
	assert.False(t, e.CanRedo())

	assert.Equal(t, before, e.Entries())
	assert.Equal(t, undoBefore, e.UndoActions())
	assert.Equal(t, redoBefore, e.RedoActions())
	assert.Equal(t, saves, cache.saves)
	assert.False(t, gate.Busy())

	gate.SetReadOnly(false)
	assert.True(t, e.CanUndo())
	assert.True(t, e.CanRedo())
}

func TestBusyRejectsMutations(t *testing.T) {
	e, gate, _ := newEditor(entry("A", true))
	require.True(t, gate.acquire())
	defer gate.release()

	assert.ErrorIs(t, e.Toggle(0), addons.ErrBusy)
	_, _, err := e.Undo()
	assert.ErrorIs(t, err, addons.ErrBusy)
	assert.Empty(t, e.UndoActions())
}

func TestReplaceIsUndoable(t *testing.T) {
	e, _, _ := newEditor(entry("A", true))

	imported := addons.Collection{entry("X", true), entry("Y", false)}
	imported[0].Selected = true
	require.NoError(t, e.Replace(imported, "Imported 2 addons"))
	assert.Equal(t, []string{"X", "Y"}, names(e.Entries()))
	assert.Zero(t, e.Counts().Selected)

	_, ok, err := e.Undo()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"A"}, names(e.Entries()))
}

func TestFind(t *testing.T) {
	e, _, _ := newEditor(entry("A", true), entry("B", true))

	i, err := e.Find("https://b.example.com/manifest.json")
	require.NoError(t, err)
	assert.Equal(t, 1, i)

	i, err = e.Find("org.a")
	require.NoError(t, err)
	assert.Equal(t, 0, i)

	i, err = e.Find("B")
	require.NoError(t, err)
	assert.Equal(t, 1, i)

	i, err = e.Find("2")
	require.NoError(t, err)
	assert.Equal(t, 1, i)

	_, err = e.Find("missing")
	assert.ErrorIs(t, err, addons.ErrNotFound)
}

func TestResetClearsEverything(t *testing.T) {
	e, _, _ := newEditor(entry("A", true))
	require.NoError(t, e.Toggle(0))

	e.Reset()
	assert.Zero(t, e.Len())
	assert.False(t, e.CanUndo())
	assert.False(t, e.HasUnsavedChanges())
}
