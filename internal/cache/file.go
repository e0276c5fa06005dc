package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileCache persists the cache as a single JSON document on disk
type FileCache struct {
	path    string
	entries map[string]json.RawMessage
	mu      sync.RWMutex
}

// NewFileCache creates a file cache stored at dir/session.json and loads any
// existing content
func NewFileCache(dir string) (*FileCache, error) {
	fc := &FileCache{
		path:    filepath.Join(dir, "session.json"),
		entries: make(map[string]json.RawMessage),
	}
	if err := fc.load(); err != nil {
		return nil, err
	}
	return fc, nil
}

// Path returns the location of the cache file
func (fc *FileCache) Path() string {
	return fc.path
}

func (fc *FileCache) load() error {
	data, err := os.ReadFile(fc.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var entries map[string]json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("corrupt cache file %s: %w", fc.path, err)
	}
	if entries != nil {
		fc.entries = entries
	}
	return nil
}

// save writes the cache to disk. Caller holds the write lock.
func (fc *FileCache) save() error {
	if err := os.MkdirAll(filepath.Dir(fc.path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(fc.entries, "", "  ")
	if err != nil {
		return err
	}

	tmp := fc.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return err
	}
	return os.Rename(tmp, fc.path)
}

// Get returns the raw JSON stored under key
func (fc *FileCache) Get(_ context.Context, key string) ([]byte, error) {
	fc.mu.RLock()
	defer fc.mu.RUnlock()

	value, ok := fc.entries[key]
	if !ok {
		return nil, ErrMiss
	}
	return append([]byte(nil), value...), nil
}

// Set stores value under key and writes the file
func (fc *FileCache) Set(_ context.Context, key string, value []byte) error {
	if !json.Valid(value) {
		return fmt.Errorf("cache value for %s is not valid JSON", key)
	}

	fc.mu.Lock()
	defer fc.mu.Unlock()

	previous, existed := fc.entries[key]
	fc.entries[key] = append(json.RawMessage(nil), value...)
	if err := fc.save(); err != nil {
		if existed {
			fc.entries[key] = previous
		} else {
			delete(fc.entries, key)
		}
		return err
	}
	return nil
}

// Delete removes keys and writes the file
func (fc *FileCache) Delete(_ context.Context, keys ...string) error {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	removed := make(map[string]json.RawMessage, len(keys))
	for _, key := range keys {
		if value, ok := fc.entries[key]; ok {
			removed[key] = value
			delete(fc.entries, key)
		}
	}
	if err := fc.save(); err != nil {
		for key, value := range removed {
			fc.entries[key] = value
		}
		return err
	}
	return nil
}

// Close is a no-op; every write is already on disk
func (fc *FileCache) Close() error {
	return nil
}
