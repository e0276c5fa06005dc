package editor

import (
	"fmt"
	"strings"

	"github.com/bnema/addonctl/internal/addons"
)

const actionReordered = "Reordered addons"

// MoveUp moves the entry at index one position up
func (e *Editor) MoveUp(index int) error {
	return e.Move(index, index-1)
}

// MoveDown moves the entry at index one position down
func (e *Editor) MoveDown(index int) error {
	return e.Move(index, index+1)
}

// MoveToTop moves the entry at index to the first position
func (e *Editor) MoveToTop(index int) error {
	return e.Move(index, 0)
}

// MoveToBottom moves the entry at index to the last position
func (e *Editor) MoveToBottom(index int) error {
	e.mu.Lock()
	last := len(e.collection) - 1
	e.mu.Unlock()
	return e.Move(index, last)
}

// Move relocates the entry at from to position to, shifting the entries in
// between. Moves that would leave the order unchanged record nothing.
func (e *Editor) Move(from, to int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.checkIndex(from); err != nil {
		return err
	}
	if to < 0 || to >= len(e.collection) || to == from {
		return nil
	}

	return e.mutate(actionReordered, func() {
		moved := e.collection[from]
		if from < to {
			copy(e.collection[from:to], e.collection[from+1:to+1])
		} else {
			copy(e.collection[to+1:from+1], e.collection[to:from])
		}
		e.collection[to] = moved
	})
}

// Toggle flips the enabled flag of the entry at index
func (e *Editor) Toggle(index int) error {
	e.mu.Lock()
	enabled := index >= 0 && index < len(e.collection) && e.collection[index].IsEnabled
	e.mu.Unlock()
	return e.SetEnabled(index, !enabled)
}

// SetEnabled enables or disables the entry at index
func (e *Editor) SetEnabled(index int, enabled bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.checkIndex(index); err != nil {
		return err
	}
	entry := &e.collection[index]
	if entry.IsEnabled == enabled {
		return nil
	}

	verb := "Disabled"
	if enabled {
		verb = "Enabled"
	}
	return e.mutate(fmt.Sprintf("%s %s", verb, entry.Name()), func() {
		entry.IsEnabled = enabled
	})
}

// Rename overrides the manifest name of the entry at index
func (e *Editor) Rename(index int, name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rename(index, name)
}

func (e *Editor) rename(index int, name string) error {
	if err := e.checkIndex(index); err != nil {
		return err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: name cannot be empty", addons.ErrValidation)
	}
	entry := &e.collection[index]
	if entry.Manifest.Name == name {
		return nil
	}

	return e.mutate(fmt.Sprintf("Renamed %s to %s", entry.Name(), name), func() {
		entry.Manifest.Name = name
	})
}

// SetAutoUpdate includes or excludes the entry at index from AutoUpdate
func (e *Editor) SetAutoUpdate(index int, enabled bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.checkIndex(index); err != nil {
		return err
	}
	entry := &e.collection[index]
	if entry.DisableAutoUpdate == !enabled {
		return nil
	}

	action := fmt.Sprintf("Excluded %s from auto-update", entry.Name())
	if enabled {
		action = fmt.Sprintf("Included %s in auto-update", entry.Name())
	}
	return e.mutate(action, func() {
		entry.DisableAutoUpdate = !enabled
	})
}

// Remove deletes the entry at index
func (e *Editor) Remove(index int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.checkIndex(index); err != nil {
		return err
	}
	if e.edit != nil && e.edit.Index == index {
		e.edit = nil
	}

	return e.mutate(fmt.Sprintf("Removed %s", e.collection[index].Name()), func() {
		e.collection = append(e.collection[:index], e.collection[index+1:]...)
	})
}

// Select marks or unmarks the entry at index for bulk operations. Selection
// is transient and never recorded, but it still changes what Entries
// reports, so it is refused in read-only mode.
func (e *Editor) Select(index int, selected bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.gate.ReadOnly() {
		return addons.ErrReadOnly
	}
	if err := e.checkIndex(index); err != nil {
		return err
	}
	e.collection[index].Selected = selected
	return nil
}

// SelectAll marks every entry
func (e *Editor) SelectAll() error {
	return e.setSelection(true)
}

// ClearSelection unmarks every entry
func (e *Editor) ClearSelection() error {
	return e.setSelection(false)
}

func (e *Editor) setSelection(selected bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.gate.ReadOnly() {
		return addons.ErrReadOnly
	}
	for i := range e.collection {
		e.collection[i].Selected = selected
	}
	return nil
}

// EnableSelected enables every selected entry as a single action and returns
// how many entries changed
func (e *Editor) EnableSelected() (int, error) {
	return e.setSelectedEnabled(true)
}

// DisableSelected disables every selected entry as a single action
func (e *Editor) DisableSelected() (int, error) {
	return e.setSelectedEnabled(false)
}

func (e *Editor) setSelectedEnabled(enabled bool) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.gate.ReadOnly() {
		return 0, addons.ErrReadOnly
	}
	count := 0
	for i := range e.collection {
		if e.collection[i].Selected && e.collection[i].IsEnabled != enabled {
			count++
		}
	}
	if count == 0 {
		e.clearSelection()
		return 0, nil
	}

	verb := "Disabled"
	if enabled {
		verb = "Enabled"
	}
	err := e.mutate(fmt.Sprintf("%s %s", verb, plural(count)), func() {
		for i := range e.collection {
			if e.collection[i].Selected {
				e.collection[i].IsEnabled = enabled
			}
		}
		e.clearSelection()
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

// RemoveSelected removes every selected entry as a single action
func (e *Editor) RemoveSelected() (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.gate.ReadOnly() {
		return 0, addons.ErrReadOnly
	}
	count := e.collection.Counts().Selected
	if count == 0 {
		return 0, nil
	}

	err := e.mutate(fmt.Sprintf("Removed %s", plural(count)), func() {
		kept := e.collection[:0]
		for _, entry := range e.collection {
			if !entry.Selected {
				kept = append(kept, entry)
			}
		}
		e.collection = kept
		e.edit = nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

// Replace swaps the whole collection as one recorded action. Used by import,
// profile load and journal restore.
func (e *Editor) Replace(collection addons.Collection, action string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	next := collection.Clone()
	for i := range next {
		next[i].Selected = false
		next[i].Status = addons.StatusUnchecked
		next[i].Err = ""
	}
	return e.mutate(action, func() {
		e.collection = next
		e.edit = nil
	})
}

func (e *Editor) clearSelection() {
	for i := range e.collection {
		e.collection[i].Selected = false
	}
}

func plural(n int) string {
	if n == 1 {
		return "1 addon"
	}
	return fmt.Sprintf("%d addons", n)
}
