package editor

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/addonctl/internal/addons"
)

func withFetcher(e *Editor, f *fakeFetcher) *Editor {
	e.manifests = f
	return e
}

func TestAddFetchesThenRecords(t *testing.T) {
	e, _, _ := newEditor(entry("A", true))
	withFetcher(e, manifestFor("1.0.0"))

	added, err := e.Add(context.Background(), " https://new.example.com/manifest.json ")
	require.NoError(t, err)
	assert.Equal(t, "https://new.example.com/manifest.json", added.TransportURL)
	assert.True(t, added.IsEnabled)
	assert.Equal(t, 2, e.Len())
	assert.Equal(t, []string{"Added Fetched https://new.example.com/manifest.json"}, e.UndoActions())
	assert.False(t, e.Busy())
}

func TestAddFailureLeavesHistoryUntouched(t *testing.T) {
	e, _, cache := newEditor(entry("A", true))
	fetcher := &fakeFetcher{fn: func(context.Context, string) (*addons.Manifest, error) {
		return nil, fmt.Errorf("%w: connection refused", addons.ErrNetwork)
	}}
	withFetcher(e, fetcher)
	saves := cache.saves

	_, err := e.Add(context.Background(), "https://down.example.com/manifest.json")
	assert.ErrorIs(t, err, addons.ErrNetwork)
	assert.Equal(t, 1, e.Len())
	assert.Empty(t, e.UndoActions())
	assert.False(t, e.HasUnsavedChanges())
	assert.Equal(t, saves, cache.saves)
	assert.False(t, e.Busy())
}

func TestAddRejectsInvalidManifest(t *testing.T) {
	e, _, _ := newEditor()
	withFetcher(e, &fakeFetcher{fn: func(context.Context, string) (*addons.Manifest, error) {
		return &addons.Manifest{Name: "no id"}, nil
	}})

	_, err := e.Add(context.Background(), "https://x.example.com/manifest.json")
	assert.ErrorIs(t, err, addons.ErrValidation)
	assert.Zero(t, e.Len())
}

func TestAddRejectsDuplicateBaseURL(t *testing.T) {
	existing := entry("A", true)
	existing.TransportURL = "https://a.example.com/manifest.json?lang=en"
	e, _, _ := newEditor(existing)
	fetcher := manifestFor("1.0.0")
	withFetcher(e, fetcher)

	_, err := e.Add(context.Background(), "https://a.example.com/manifest.json?lang=fr")
	assert.ErrorIs(t, err, addons.ErrDuplicate)
	assert.Empty(t, fetcher.calls)

	_, err = e.Add(context.Background(), "ftp://a.example.com/manifest.json")
	assert.ErrorIs(t, err, addons.ErrValidation)
}

func TestAddWhileBusy(t *testing.T) {
	e, gate, _ := newEditor()
	withFetcher(e, manifestFor("1"))
	require.True(t, gate.acquire())

	_, err := e.Add(context.Background(), "https://x.example.com/manifest.json")
	assert.ErrorIs(t, err, addons.ErrBusy)
	assert.True(t, e.Busy())
}

func TestEditNameOnly(t *testing.T) {
	e, _, _ := newEditor(entry("A", true))

	session, err := e.BeginEdit(0)
	require.NoError(t, err)
	assert.Equal(t, "A", session.Name)

	changed, err := e.CommitEdit(context.Background(), "Renamed", session.URL)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, []string{"Renamed A to Renamed"}, e.UndoActions())

	_, editing := e.Editing()
	assert.False(t, editing)
}

func TestEditWithoutChange(t *testing.T) {
	e, _, _ := newEditor(entry("A", true))

	session, err := e.BeginEdit(0)
	require.NoError(t, err)
	changed, err := e.CommitEdit(context.Background(), session.Name, session.URL)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Empty(t, e.UndoActions())

	_, err = e.CommitEdit(context.Background(), "x", "")
	assert.ErrorIs(t, err, ErrNoEdit)
}

func TestEditURLFetchesManifest(t *testing.T) {
	e, _, _ := newEditor(entry("A", true))
	withFetcher(e, manifestFor("2.0.0"))

	_, err := e.BeginEdit(0)
	require.NoError(t, err)
	changed, err := e.CommitEdit(context.Background(), "", "https://moved.example.com/manifest.json")
	require.NoError(t, err)
	assert.True(t, changed)

	got, _ := e.Entry(0)
	assert.Equal(t, "https://moved.example.com/manifest.json", got.TransportURL)
	assert.Equal(t, "2.0.0", got.Manifest.Version)
	assert.Equal(t, "A", got.Manifest.Name)
	assert.Equal(t, []string{"Changed URL of A"}, e.UndoActions())
}

func TestEditURLFailureReverts(t *testing.T) {
	e, _, _ := newEditor(entry("A", true))
	withFetcher(e, &fakeFetcher{fn: func(context.Context, string) (*addons.Manifest, error) {
		return nil, addons.ErrNetwork
	}})
	before := e.Entries()

	_, err := e.BeginEdit(0)
	require.NoError(t, err)
	_, err = e.CommitEdit(context.Background(), "New", "https://moved.example.com/manifest.json")
	assert.ErrorIs(t, err, addons.ErrNetwork)

	assert.Equal(t, before, e.Entries())
	assert.Empty(t, e.UndoActions())
	_, editing := e.Editing()
	assert.False(t, editing)
}

func TestRefreshReconcilesAndResetsHistory(t *testing.T) {
	local := entry("A", false)
	local.Manifest.Name = "Custom"
	e, _, cache := newEditor(local, entry("Gone", true))
	require.NoError(t, e.MoveDown(0))

	server := entry("A", true)
	server.Manifest.Name = "Official"
	server.Manifest.Version = "2.0"
	e.credentials = &fakeCreds{authKey: "key", email: "me@example.com"}
	e.platform = &fakePlatform{getFn: func(_ context.Context, authKey, email string) (addons.Collection, error) {
		assert.Equal(t, "key", authKey)
		assert.Equal(t, "me@example.com", email)
		return addons.Collection{server, entry("New", true)}, nil
	}}

	result, err := e.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Added)
	assert.Equal(t, 1, result.Orphaned)

	got := e.Entries()
	assert.Equal(t, []string{"Gone", "Custom", "New"}, names(got))
	assert.False(t, got[0].IsEnabled)
	assert.False(t, got[1].IsEnabled)
	assert.Equal(t, "2.0", got[1].Manifest.Version)
	assert.False(t, e.CanUndo())
	assert.False(t, e.HasUnsavedChanges())
	assert.Equal(t, names(got), names(cache.saved))
}

func TestRefreshFailurePreservesByDefault(t *testing.T) {
	e, _, _ := newEditor(entry("A", true))
	require.NoError(t, e.Toggle(0))
	e.credentials = &fakeCreds{authKey: "key"}
	e.platform = &fakePlatform{getFn: func(context.Context, string, string) (addons.Collection, error) {
		return nil, addons.ErrNetwork
	}}

	_, err := e.Refresh(context.Background())
	assert.ErrorIs(t, err, addons.ErrNetwork)
	assert.Equal(t, 1, e.Len())
	assert.True(t, e.CanUndo())
	assert.False(t, e.Busy())
}

func TestRefreshFailureClearsWhenConfigured(t *testing.T) {
	e, _, cache := newEditor(entry("A", true))
	require.NoError(t, e.Toggle(0))
	e.clearOnFailure = true
	e.credentials = &fakeCreds{authKey: "key"}
	e.platform = &fakePlatform{getFn: func(context.Context, string, string) (addons.Collection, error) {
		return nil, addons.ErrNetwork
	}}

	_, err := e.Refresh(context.Background())
	assert.Error(t, err)
	assert.Zero(t, e.Len())
	assert.Empty(t, cache.saved)
	assert.True(t, e.CanUndo(), "history is kept on failure")
}

func TestRefreshAuthFailureTerminatesSession(t *testing.T) {
	e, _, _ := newEditor(entry("A", true))
	terminator := &fakeTerminator{}
	e.terminator = terminator
	e.credentials = &fakeCreds{authKey: "stale"}
	e.platform = &fakePlatform{getFn: func(context.Context, string, string) (addons.Collection, error) {
		return nil, &addons.UpstreamError{Code: 1, Message: "Session does not exist"}
	}}

	_, err := e.Refresh(context.Background())
	assert.ErrorIs(t, err, addons.ErrUpstream)
	assert.Equal(t, 1, terminator.calls)
}

func TestRefreshAllowedInReadOnly(t *testing.T) {
	e, gate, _ := newEditor()
	gate.SetReadOnly(true)
	e.credentials = &fakeCreds{authKey: "other"}
	e.platform = &fakePlatform{getFn: func(context.Context, string, string) (addons.Collection, error) {
		return addons.Collection{entry("A", true)}, nil
	}}

	_, err := e.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, e.Len())
}

func TestSavePushesEnabledOnly(t *testing.T) {
	e, _, _ := newEditor(entry("A", true), entry("B", false), entry("C", true))
	require.NoError(t, e.MoveToTop(2))

	var pushed addons.Collection
	journal := &fakeJournal{}
	e.journal = journal
	e.credentials = &fakeCreds{authKey: "key", email: "me@example.com"}
	e.platform = &fakePlatform{setFn: func(_ context.Context, _, _ string, c addons.Collection) error {
		pushed = c
		return nil
	}}

	n, err := e.Save(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"C", "A"}, names(pushed))
	assert.False(t, e.CanUndo())
	assert.False(t, e.HasUnsavedChanges())
	assert.Equal(t, "me@example.com", journal.email)
	assert.Len(t, journal.entries, 3)
}

func TestSaveFailureKeepsHistory(t *testing.T) {
	e, _, _ := newEditor(entry("A", true))
	require.NoError(t, e.Toggle(0))
	e.credentials = &fakeCreds{authKey: "key"}
	e.platform = &fakePlatform{setFn: func(context.Context, string, string, addons.Collection) error {
		return &addons.UpstreamError{Message: "invalid addon"}
	}}

	_, err := e.Save(context.Background())
	assert.ErrorIs(t, err, addons.ErrUpstream)
	assert.True(t, e.CanUndo())
	assert.True(t, e.HasUnsavedChanges())
}

func TestSaveReadOnly(t *testing.T) {
	e, gate, _ := newEditor(entry("A", true))
	gate.SetReadOnly(true)
	_, err := e.Save(context.Background())
	assert.ErrorIs(t, err, addons.ErrReadOnly)
}

func TestCredentialErrorPropagates(t *testing.T) {
	e, _, _ := newEditor()
	loggedOut := errors.New("not logged in")
	e.credentials = &fakeCreds{err: loggedOut}
	e.platform = &fakePlatform{}

	_, err := e.Refresh(context.Background())
	assert.ErrorIs(t, err, loggedOut)
	assert.False(t, e.Busy())
}
