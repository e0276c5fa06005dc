package editor

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/bnema/addonctl/internal/addons"
)

type fakePlatform struct {
	getFn func(ctx context.Context, authKey, email string) (addons.Collection, error)
	setFn func(ctx context.Context, authKey, email string, c addons.Collection) error
}

func (f *fakePlatform) GetAddons(ctx context.Context, authKey, email string) (addons.Collection, error) {
	return f.getFn(ctx, authKey, email)
}

func (f *fakePlatform) SetAddons(ctx context.Context, authKey, email string, c addons.Collection) error {
	return f.setFn(ctx, authKey, email, c)
}

type fakeFetcher struct {
	mu    sync.Mutex
	calls []string
	fn    func(ctx context.Context, url string) (*addons.Manifest, error)
}

func (f *fakeFetcher) FetchManifest(ctx context.Context, url string) (*addons.Manifest, error) {
	f.mu.Lock()
	f.calls = append(f.calls, url)
	f.mu.Unlock()
	return f.fn(ctx, url)
}

// manifestFor returns a fetcher serving a manifest named after the URL
func manifestFor(version string) *fakeFetcher {
	return &fakeFetcher{fn: func(_ context.Context, url string) (*addons.Manifest, error) {
		return &addons.Manifest{ID: "id:" + url, Name: "Fetched " + url, Version: version}, nil
	}}
}

type fakeCreds struct {
	authKey, email string
	err            error
}

func (f *fakeCreds) Credentials(context.Context) (string, string, error) {
	return f.authKey, f.email, f.err
}

type memCache struct {
	saved addons.Collection
	saves int
}

func (c *memCache) SaveAddons(_ context.Context, collection addons.Collection) error {
	c.saved = collection.Clone()
	c.saves++
	return nil
}

func (c *memCache) LoadAddons(context.Context) (addons.Collection, error) {
	return c.saved.Clone(), nil
}

type fakeTerminator struct{ calls int }

func (f *fakeTerminator) Terminate(context.Context) error {
	f.calls++
	return nil
}

type fakeJournal struct {
	email   string
	entries addons.Collection
}

func (f *fakeJournal) Record(email string, c addons.Collection) error {
	f.email = email
	f.entries = c
	return nil
}

func entry(name string, enabled bool) addons.Entry {
	return addons.Entry{
		TransportURL: fmt.Sprintf("https://%s.example.com/manifest.json", strings.ToLower(name)),
		Manifest:     addons.Manifest{ID: "org." + strings.ToLower(name), Name: name, Version: "1.0.0"},
		IsEnabled:    enabled,
	}
}

func names(c addons.Collection) []string {
	out := make([]string, len(c))
	for i := range c {
		out[i] = c[i].Name()
	}
	return out
}

// newEditor builds an editor seeded with entries and an empty history
func newEditor(entries ...addons.Entry) (*Editor, *Gate, *memCache) {
	gate := &Gate{}
	cache := &memCache{saved: addons.Collection(entries)}
	e := New(Options{Cache: cache, Gate: gate})
	if err := e.Load(context.Background()); err != nil {
		panic(err)
	}
	return e, gate, cache
}
