package editor

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/bnema/addonctl/internal/addons"
	"github.com/bnema/addonctl/internal/history"
)

const (
	DefaultAPITimeout      = 15 * time.Second
	DefaultManifestTimeout = 10 * time.Second
)

// Platform is the upstream account API
type Platform interface {
	GetAddons(ctx context.Context, authKey, email string) (addons.Collection, error)
	SetAddons(ctx context.Context, authKey, email string, collection addons.Collection) error
}

// ManifestFetcher retrieves an addon manifest from its transport URL
type ManifestFetcher interface {
	FetchManifest(ctx context.Context, transportURL string) (*addons.Manifest, error)
}

// Credentials provides the session identity used for upstream calls
type Credentials interface {
	Credentials(ctx context.Context) (authKey, email string, err error)
}

// SessionTerminator ends the session after the platform rejects it
type SessionTerminator interface {
	Terminate(ctx context.Context) error
}

// Cache persists the live collection between runs
type Cache interface {
	SaveAddons(ctx context.Context, collection addons.Collection) error
	LoadAddons(ctx context.Context) (addons.Collection, error)
}

// Journal archives every collection successfully pushed upstream
type Journal interface {
	Record(email string, collection addons.Collection) error
}

// Resettable is implemented by components cleared on logout
type Resettable interface {
	Reset()
}

// Options wires the editor's collaborators
type Options struct {
	Cache       Cache
	Platform    Platform
	Manifests   ManifestFetcher
	Credentials Credentials
	Terminator  SessionTerminator
	Journal     Journal // Optional
	Gate        *Gate

	HistoryLimit    int
	APITimeout      time.Duration
	ManifestTimeout time.Duration

	// ClearOnRefreshFailure empties the collection when a refresh fails
	ClearOnRefreshFailure bool

	Logger *log.Logger
}

// Editor owns the live addon collection and its undo history
type Editor struct {
	mu         sync.Mutex
	collection addons.Collection
	history    *history.Manager
	edit       *EditSession

	gate        *Gate
	cache       Cache
	platform    Platform
	manifests   ManifestFetcher
	credentials Credentials
	terminator  SessionTerminator
	journal     Journal

	apiTimeout      time.Duration
	manifestTimeout time.Duration
	clearOnFailure  bool

	log *log.Logger
}

// New creates an editor
func New(opts Options) *Editor {
	if opts.Gate == nil {
		opts.Gate = &Gate{}
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.APITimeout <= 0 {
		opts.APITimeout = DefaultAPITimeout
	}
	if opts.ManifestTimeout <= 0 {
		opts.ManifestTimeout = DefaultManifestTimeout
	}

	return &Editor{
		history:         history.New(opts.Gate, opts.HistoryLimit),
		gate:            opts.Gate,
		cache:           opts.Cache,
		platform:        opts.Platform,
		manifests:       opts.Manifests,
		credentials:     opts.Credentials,
		terminator:      opts.Terminator,
		journal:         opts.Journal,
		apiTimeout:      opts.APITimeout,
		manifestTimeout: opts.ManifestTimeout,
		clearOnFailure:  opts.ClearOnRefreshFailure,
		log:             opts.Logger,
	}
}

// Load restores the collection from the cache without touching history
func (e *Editor) Load(ctx context.Context) error {
	if e.cache == nil {
		return nil
	}
	collection, err := e.cache.LoadAddons(ctx)
	if err != nil {
		return fmt.Errorf("failed to load cached addons: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.collection = collection
	e.history.Reset()
	return nil
}

// Entries returns a copy of the live collection
func (e *Editor) Entries() addons.Collection {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.collection.Clone()
}

// Entry returns a copy of the entry at index
func (e *Editor) Entry(index int) (addons.Entry, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.checkIndex(index); err != nil {
		return addons.Entry{}, err
	}
	return e.collection[index].Clone(), nil
}

// Len returns the number of entries
func (e *Editor) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.collection)
}

// Counts summarizes the live collection
func (e *Editor) Counts() addons.Counts {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.collection.Counts()
}

// CanUndo reports whether an undo step is available
func (e *Editor) CanUndo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.history.CanUndo()
}

// CanRedo reports whether a redo step is available
func (e *Editor) CanRedo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.history.CanRedo()
}

// HasUnsavedChanges reports whether the collection differs from the last
// save or refresh
func (e *Editor) HasUnsavedChanges() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.history.Dirty()
}

// UndoActions returns the undo action log, oldest first
func (e *Editor) UndoActions() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.history.UndoActions()
}

// RedoActions returns the redo action log, oldest first
func (e *Editor) RedoActions() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.history.RedoActions()
}

// Busy reports whether a network flow is in progress
func (e *Editor) Busy() bool { return e.gate.Busy() }

// ReadOnly reports whether monitoring mode is active
func (e *Editor) ReadOnly() bool { return e.gate.ReadOnly() }

// Reset clears the collection, history and any edit in progress
func (e *Editor) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.collection = nil
	e.edit = nil
	e.history.Reset()
}

// Undo restores the state before the most recent action and returns its
// description. ok is false when there was nothing to undo.
func (e *Editor) Undo() (action string, ok bool, err error) {
	return e.replay("Undo", e.history.Undo)
}

// Redo reapplies the most recently undone action
func (e *Editor) Redo() (action string, ok bool, err error) {
	return e.replay("Redo", e.history.Redo)
}

func (e *Editor) replay(kind string, step func(addons.Collection) (history.Step, bool, error)) (string, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.gate.ReadOnly() {
		return "", false, nil
	}
	if e.gate.Busy() {
		return "", false, addons.ErrBusy
	}

	s, ok, err := step(e.collection)
	if err != nil {
		e.log.Error("History is inconsistent", "operation", kind, "error", err)
		return "", false, err
	}
	if !ok {
		return "", false, nil
	}

	e.collection = s.Collection
	e.edit = nil
	e.persist()
	e.log.Debug(kind, "action", s.Action)
	return s.Action, true, nil
}

// mutate runs fn on the live collection after recording action. The lock must
// be held and fn must not fail: validate before calling.
func (e *Editor) mutate(action string, fn func()) error {
	if e.gate.ReadOnly() {
		return addons.ErrReadOnly
	}
	if e.gate.Busy() {
		return addons.ErrBusy
	}
	if err := e.history.Record(e.collection, action); err != nil {
		e.log.Error("History is inconsistent", "action", action, "error", err)
		return err
	}
	fn()
	e.persist()
	e.log.Debug("Recorded action", "action", action)
	return nil
}

// persist writes the live collection to the cache. Failures are logged only.
func (e *Editor) persist() {
	if e.cache == nil {
		return
	}
	if err := e.cache.SaveAddons(context.Background(), e.collection); err != nil {
		e.log.Warn("Failed to save addons to cache", "error", err)
	}
}

func (e *Editor) checkIndex(index int) error {
	if index < 0 || index >= len(e.collection) {
		return fmt.Errorf("%w: index %d", addons.ErrNotFound, index)
	}
	return nil
}

// Find resolves a reference to an entry index: exact transport URL, then
// manifest id, then case-sensitive display name, then 1-based position.
func (e *Editor) Find(ref string) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if i := e.collection.Index(ref); i >= 0 {
		return i, nil
	}
	for i := range e.collection {
		if e.collection[i].Manifest.ID == ref {
			return i, nil
		}
	}
	for i := range e.collection {
		if e.collection[i].Name() == ref {
			return i, nil
		}
	}
	if pos, err := strconv.Atoi(ref); err == nil && pos >= 1 && pos <= len(e.collection) {
		return pos - 1, nil
	}
	return -1, fmt.Errorf("%w: %s", addons.ErrNotFound, ref)
}
