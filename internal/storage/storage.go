// Package storage provides file-based JSON storage for sessions and
// document revisions.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// ErrNotFound is returned when a key has no stored value.
var ErrNotFound = errors.New("not found")

// Store persists JSON records under a base directory. Keys are path slices;
// ["session", "abc"] maps to <base>/session/abc.json.
type Store struct {
	base  string
	mu    sync.Mutex
	locks map[string]*FileLock
}

// New creates a Store rooted at base.
func New(base string) *Store {
	return &Store{
		base:  base,
		locks: make(map[string]*FileLock),
	}
}

// Base returns the root directory of the store.
func (s *Store) Base() string {
	return s.base
}

func (s *Store) file(key []string) string {
	parts := append([]string{s.base}, key...)
	return filepath.Join(parts...) + ".json"
}

func (s *Store) dir(key []string) string {
	parts := append([]string{s.base}, key...)
	return filepath.Join(parts...)
}

// Get reads the value stored at key into v.
func (s *Store) Get(ctx context.Context, key []string, v any) error {
	data, err := os.ReadFile(s.file(key))
	if err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return fmt.Errorf("read %s: %w", strings.Join(key, "/"), err)
	}

	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", strings.Join(key, "/"), err)
	}
	return nil
}

// Put stores v at key. Writes go to a temp file first and are renamed into
// place so readers never observe partial records.
func (s *Store) Put(ctx context.Context, key []string, v any) error {
	path := s.file(key)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create dir for %s: %w", strings.Join(key, "/"), err)
	}

	lock := s.lockFor(path)
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("lock %s: %w", strings.Join(key, "/"), err)
	}
	defer lock.Unlock()

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", strings.Join(key, "/"), err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", strings.Join(key, "/"), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename %s: %w", strings.Join(key, "/"), err)
	}
	return nil
}

// List returns the keys directly under a path, sorted.
func (s *Store) List(ctx context.Context, key []string) ([]string, error) {
	entries, err := os.ReadDir(s.dir(key))
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("list %s: %w", strings.Join(key, "/"), err)
	}

	var keys []string
	for _, e := range entries {
		name := e.Name()
		switch {
		case e.IsDir():
			keys = append(keys, name)
		case strings.HasSuffix(name, ".json"):
			keys = append(keys, strings.TrimSuffix(name, ".json"))
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Scan calls fn for every record directly under a path.
func (s *Store) Scan(ctx context.Context, key []string, fn func(key string, data json.RawMessage) error) error {
	dir := s.dir(key)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("scan %s: %w", strings.Join(key, "/"), err)
	}

	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			continue
		}
		if err := fn(strings.TrimSuffix(name, ".json"), json.RawMessage(data)); err != nil {
			return err
		}
	}
	return nil
}

// Exists reports whether a record is stored at key.
func (s *Store) Exists(ctx context.Context, key []string) bool {
	_, err := os.Stat(s.file(key))
	return err == nil
}

func (s *Store) lockFor(path string) *FileLock {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.locks[path]
	if !ok {
		lock = NewFileLock(path)
		s.locks[path] = lock
	}
	return lock
}
