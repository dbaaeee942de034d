// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package devicestate persists small per-device values (participant
// ids, the console theme) in a YAML file, the way a browser widget
// keeps them in local storage.
//
// Every Get reads the file, so values written by another process on
// the same device are seen immediately. Set rewrites the file through
// a temporary file and rename, so readers never observe a partial
// write. [Store.Watch] reports changes made by any process.
package devicestate

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// State is a snapshot of every stored value.
type State map[string]string

// Store is a YAML-file-backed key-value store.
type Store struct {
	path   string
	logger *slog.Logger

	// mu serializes read-modify-write cycles within this process.
	mu sync.Mutex
}

// Open returns a Store for path. The file and its directory are
// created on the first Set.
func Open(path string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{path: path, logger: logger}
}

// Path returns the backing file path.
func (s *Store) Path() string { return s.path }

// Get returns the value for key and whether it is set.
func (s *Store) Get(key string) (string, bool, error) {
	state, err := s.Load()
	if err != nil {
		return "", false, err
	}
	value, ok := state[key]
	return value, ok, nil
}

// Load returns every stored value. A missing file is an empty state.
func (s *Store) Load() (State, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return State{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("devicestate: %w", err)
	}
	state := State{}
	if err := yaml.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("devicestate: parsing %s: %w", s.path, err)
	}
	return state, nil
}

// Set stores value under key.
func (s *Store) Set(key, value string) error {
	if key == "" {
		return fmt.Errorf("devicestate: empty key")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.Load()
	if err != nil {
		return err
	}
	if current, ok := state[key]; ok && current == value {
		return nil
	}
	state[key] = value
	return s.write(state)
}

// Delete removes key. Deleting a missing key is not an error.
func (s *Store) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.Load()
	if err != nil {
		return err
	}
	if _, ok := state[key]; !ok {
		return nil
	}
	delete(state, key)
	return s.write(state)
}

func (s *Store) write(state State) error {
	data, err := yaml.Marshal(map[string]string(state))
	if err != nil {
		return fmt.Errorf("devicestate: encoding: %w", err)
	}
	directory := filepath.Dir(s.path)
	if err := os.MkdirAll(directory, 0o755); err != nil {
		return fmt.Errorf("devicestate: %w", err)
	}
	temporary, err := os.CreateTemp(directory, "."+filepath.Base(s.path)+".*")
	if err != nil {
		return fmt.Errorf("devicestate: %w", err)
	}
	defer os.Remove(temporary.Name())

	if _, err := temporary.Write(data); err != nil {
		temporary.Close()
		return fmt.Errorf("devicestate: writing %s: %w", temporary.Name(), err)
	}
	if err := temporary.Sync(); err != nil {
		temporary.Close()
		return fmt.Errorf("devicestate: syncing %s: %w", temporary.Name(), err)
	}
	if err := temporary.Close(); err != nil {
		return fmt.Errorf("devicestate: %w", err)
	}
	if err := os.Rename(temporary.Name(), s.path); err != nil {
		return fmt.Errorf("devicestate: replacing %s: %w", s.path, err)
	}
	return nil
}

// Watch calls onChange with the new state whenever the file's contents
// change, until ctx is done. The directory must exist; Watch creates it
// if needed. The directory is watched rather than the file because Set
// replaces the file by rename.
func (s *Store) Watch(ctx context.Context, onChange func(State)) error {
	directory := filepath.Dir(s.path)
	if err := os.MkdirAll(directory, 0o755); err != nil {
		return fmt.Errorf("devicestate: %w", err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("devicestate: creating watcher: %w", err)
	}
	if err := watcher.Add(directory); err != nil {
		watcher.Close()
		return fmt.Errorf("devicestate: watching %s: %w", directory, err)
	}

	last, err := s.Load()
	if err != nil {
		s.logger.Warn("device state unreadable at watch start", "path", s.path, "error", err)
		last = State{}
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != filepath.Clean(s.path) {
					continue
				}
				if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Remove) {
					continue
				}
				current, err := s.Load()
				if err != nil {
					s.logger.Warn("device state reload failed", "path", s.path, "error", err)
					continue
				}
				if maps.Equal(current, last) {
					continue
				}
				last = current
				onChange(maps.Clone(current))
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				s.logger.Warn("device state watch error", "path", s.path, "error", err)
			}
		}
	}()
	return nil
}
