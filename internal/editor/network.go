package editor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bnema/addonctl/internal/addons"
)

// ErrNoEdit is returned when committing without an edit in progress
var ErrNoEdit = errors.New("no edit in progress")

// EditSession holds the buffers of an entry being edited
type EditSession struct {
	Index       int
	OriginalURL string
	Name        string
	URL         string
}

// begin checks the gate and marks it busy. The lock must be held.
func (e *Editor) begin() error {
	if e.gate.ReadOnly() {
		return addons.ErrReadOnly
	}
	if !e.gate.acquire() {
		return addons.ErrBusy
	}
	return nil
}

// Add fetches the manifest at rawURL and appends a new enabled entry. Nothing
// is recorded unless the fetch succeeds.
func (e *Editor) Add(ctx context.Context, rawURL string) (*addons.Entry, error) {
	rawURL = strings.TrimSpace(rawURL)
	if err := addons.ValidateTransportURL(rawURL); err != nil {
		return nil, err
	}

	e.mu.Lock()
	if e.collection.HasBaseURL(rawURL) {
		e.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", addons.ErrDuplicate, addons.BaseURL(rawURL))
	}
	if err := e.begin(); err != nil {
		e.mu.Unlock()
		return nil, err
	}
	e.mu.Unlock()

	manifest, err := e.fetchManifest(ctx, rawURL)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.gate.release()

	if err != nil {
		e.log.Warn("Failed to add addon", "url", rawURL, "error", err)
		return nil, err
	}

	entry := addons.Entry{
		TransportURL: rawURL,
		Manifest:     *manifest,
		IsEnabled:    true,
		Status:       addons.StatusOK,
	}
	err = e.mutate(fmt.Sprintf("Added %s", entry.Name()), func() {
		e.collection = append(e.collection, entry)
	})
	if err != nil {
		return nil, err
	}

	e.log.Info("Addon added", "name", entry.Name(), "url", rawURL)
	added := entry.Clone()
	return &added, nil
}

// BeginEdit opens an edit session on the entry at index. Only one session
// exists at a time; a new one replaces the previous.
func (e *Editor) BeginEdit(index int) (*EditSession, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.gate.ReadOnly() {
		return nil, addons.ErrReadOnly
	}
	if err := e.checkIndex(index); err != nil {
		return nil, err
	}

	entry := e.collection[index]
	e.edit = &EditSession{
		Index:       index,
		OriginalURL: entry.TransportURL,
		Name:        entry.Manifest.Name,
		URL:         entry.TransportURL,
	}
	session := *e.edit
	return &session, nil
}

// Editing returns the current edit session, if any
func (e *Editor) Editing() (EditSession, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.edit == nil {
		return EditSession{}, false
	}
	return *e.edit, true
}

// CancelEdit discards the current edit session
func (e *Editor) CancelEdit() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.edit = nil
}

// CommitEdit applies name and url to the entry being edited and ends the
// session. A changed URL needs a successful manifest fetch; on failure the
// session ends without any change. Returns false when nothing changed.
func (e *Editor) CommitEdit(ctx context.Context, name, rawURL string) (bool, error) {
	name = strings.TrimSpace(name)
	rawURL = strings.TrimSpace(rawURL)

	e.mu.Lock()
	edit := e.edit
	e.edit = nil
	if edit == nil {
		e.mu.Unlock()
		return false, ErrNoEdit
	}
	if edit.Index >= len(e.collection) || e.collection[edit.Index].TransportURL != edit.OriginalURL {
		e.mu.Unlock()
		return false, fmt.Errorf("%w: %s", addons.ErrNotFound, edit.OriginalURL)
	}

	current := e.collection[edit.Index]
	if rawURL == "" || rawURL == current.TransportURL {
		defer e.mu.Unlock()
		if name == "" || name == current.Manifest.Name {
			return false, nil
		}
		if err := e.rename(edit.Index, name); err != nil {
			return false, err
		}
		return true, nil
	}

	if err := addons.ValidateTransportURL(rawURL); err != nil {
		e.mu.Unlock()
		return false, err
	}
	for i := range e.collection {
		if i != edit.Index && addons.BaseURL(e.collection[i].TransportURL) == addons.BaseURL(rawURL) {
			e.mu.Unlock()
			return false, fmt.Errorf("%w: %s", addons.ErrDuplicate, addons.BaseURL(rawURL))
		}
	}
	if err := e.begin(); err != nil {
		e.mu.Unlock()
		return false, err
	}
	e.mu.Unlock()

	manifest, err := e.fetchManifest(ctx, rawURL)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.gate.release()

	if err != nil {
		e.log.Warn("Failed to change addon URL", "url", rawURL, "error", err)
		return false, err
	}

	if name == "" {
		name = current.Manifest.Name
	}
	if name != "" {
		manifest.Name = name
	}

	err = e.mutate(fmt.Sprintf("Changed URL of %s", current.Name()), func() {
		entry := &e.collection[edit.Index]
		entry.TransportURL = rawURL
		entry.Manifest = *manifest
		entry.Status = addons.StatusOK
		entry.Err = ""
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

// Refresh fetches the account's collection and reconciles it with the live
// one. On success history is reset. On failure history is kept and the
// collection is only cleared when ClearOnRefreshFailure is set.
func (e *Editor) Refresh(ctx context.Context) (*addons.ReconcileResult, error) {
	e.mu.Lock()
	if !e.gate.acquire() {
		e.mu.Unlock()
		return nil, addons.ErrBusy
	}
	e.mu.Unlock()

	server, err := e.fetchServer(ctx)
	if err != nil {
		e.log.Error("Failed to refresh addons", "error", err)
		e.mu.Lock()
		if e.clearOnFailure {
			e.collection = nil
			e.edit = nil
			e.persist()
		}
		e.gate.release()
		e.mu.Unlock()
		e.terminateOnAuthError(ctx, err)
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.gate.release()

	result := addons.Reconcile(e.collection, server)
	e.collection = result.Merged
	e.edit = nil
	e.persist()
	e.history.Reset()

	e.log.Info("Addons refreshed", "total", len(result.Merged), "added", result.Added, "orphaned", result.Orphaned)
	return &result, nil
}

func (e *Editor) fetchServer(ctx context.Context) (addons.Collection, error) {
	if e.platform == nil || e.credentials == nil {
		return nil, fmt.Errorf("%w: no platform configured", addons.ErrNetwork)
	}
	authKey, email, err := e.credentials.Credentials(ctx)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, e.apiTimeout)
	defer cancel()
	return e.platform.GetAddons(ctx, authKey, email)
}

// Save pushes the enabled entries upstream in order. On success history is
// reset and the pushed collection is journaled.
func (e *Editor) Save(ctx context.Context) (int, error) {
	e.mu.Lock()
	if err := e.begin(); err != nil {
		e.mu.Unlock()
		return 0, err
	}
	payload := e.collection.Enabled().Clone()
	full := e.collection.Clone()
	e.mu.Unlock()

	email, err := e.push(ctx, payload)
	if err != nil {
		e.log.Error("Failed to save addons", "error", err)
		e.gate.release()
		e.terminateOnAuthError(ctx, err)
		return 0, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.gate.release()

	e.history.Reset()
	e.persist()

	if e.journal != nil {
		if err := e.journal.Record(email, full); err != nil {
			e.log.Warn("Failed to journal saved addons", "error", err)
		}
	}

	e.log.Info("Addons saved", "pushed", len(payload))
	return len(payload), nil
}

func (e *Editor) push(ctx context.Context, payload addons.Collection) (string, error) {
	if e.platform == nil || e.credentials == nil {
		return "", fmt.Errorf("%w: no platform configured", addons.ErrNetwork)
	}
	authKey, email, err := e.credentials.Credentials(ctx)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, e.apiTimeout)
	defer cancel()
	return email, e.platform.SetAddons(ctx, authKey, email, payload)
}

func (e *Editor) fetchManifest(ctx context.Context, transportURL string) (*addons.Manifest, error) {
	if e.manifests == nil {
		return nil, fmt.Errorf("%w: no manifest fetcher configured", addons.ErrNetwork)
	}
	ctx, cancel := context.WithTimeout(ctx, e.manifestTimeout)
	defer cancel()

	manifest, err := e.manifests.FetchManifest(ctx, transportURL)
	if err != nil {
		return nil, err
	}
	if err := manifest.Validate(); err != nil {
		return nil, err
	}
	return manifest, nil
}

func (e *Editor) terminateOnAuthError(ctx context.Context, err error) {
	if e.terminator == nil || !addons.IsAuthError(err) {
		return
	}
	e.log.Warn("Session rejected by platform, logging out")
	if terr := e.terminator.Terminate(ctx); terr != nil {
		e.log.Warn("Failed to terminate session", "error", terr)
	}
}
