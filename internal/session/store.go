package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/bnema/addonctl/internal/addons"
	"github.com/bnema/addonctl/internal/cache"
)

var ErrNotLoggedIn = errors.New("not logged in")

// Store keeps the session identity and the live collection in the cache
type Store struct {
	backend cache.Backend
}

// NewStore creates a session store on top of a cache backend
func NewStore(backend cache.Backend) *Store {
	return &Store{backend: backend}
}

func (s *Store) getJSON(ctx context.Context, key string, v any) (bool, error) {
	data, err := s.backend.Get(ctx, key)
	if errors.Is(err, cache.ErrMiss) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("decoding cached %s: %w", key, err)
	}
	return true, nil
}

func (s *Store) setJSON(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.backend.Set(ctx, key, data)
}

// SaveAddons caches the collection
func (s *Store) SaveAddons(ctx context.Context, collection addons.Collection) error {
	if collection == nil {
		collection = addons.Collection{}
	}
	return s.setJSON(ctx, cache.KeyAddons, collection)
}

// LoadAddons returns the cached collection, empty when nothing is cached
func (s *Store) LoadAddons(ctx context.Context) (addons.Collection, error) {
	var collection addons.Collection
	if _, err := s.getJSON(ctx, cache.KeyAddons, &collection); err != nil {
		return nil, err
	}
	return collection, nil
}

// Credentials returns the auth key and email of the current session
func (s *Store) Credentials(ctx context.Context) (string, string, error) {
	var authKey, email string
	ok, err := s.getJSON(ctx, cache.KeyAuthKey, &authKey)
	if err != nil {
		return "", "", err
	}
	if !ok || authKey == "" {
		return "", "", ErrNotLoggedIn
	}
	if _, err := s.getJSON(ctx, cache.KeyEmail, &email); err != nil {
		return "", "", err
	}
	return authKey, email, nil
}

// SetCredentials stores a new session identity
func (s *Store) SetCredentials(ctx context.Context, authKey, email string, monitoring bool) error {
	if err := s.setJSON(ctx, cache.KeyAuthKey, authKey); err != nil {
		return err
	}
	if err := s.setJSON(ctx, cache.KeyEmail, email); err != nil {
		return err
	}
	return s.setJSON(ctx, cache.KeyMonitoring, monitoring)
}

// Monitoring reports whether the cached session is read-only
func (s *Store) Monitoring(ctx context.Context) (bool, error) {
	var monitoring bool
	if _, err := s.getJSON(ctx, cache.KeyMonitoring, &monitoring); err != nil {
		return false, err
	}
	return monitoring, nil
}

// Terminate drops the session identity, keeping the cached collection
func (s *Store) Terminate(ctx context.Context) error {
	return s.backend.Delete(ctx, cache.KeyAuthKey, cache.KeyEmail, cache.KeyMonitoring)
}

// Clear drops every cached key
func (s *Store) Clear(ctx context.Context) error {
	return s.backend.Delete(ctx, cache.KeyAddons, cache.KeyAuthKey, cache.KeyEmail, cache.KeyMonitoring)
}
