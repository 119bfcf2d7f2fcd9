// Package prefs provides the lid-close preference stores.
package prefs

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
	"k8s.io/klog/v2"

	"github.com/ydb-platform/lid-manager/internal/reactor"
)

// FileStore serves preferences from a flat YAML mapping, e.g.
//
//	lid-close-ac-action: blank
//	lid-close-battery-action: suspend
type FileStore struct {
	path string

	mu     sync.RWMutex
	values map[string]string
}

// NewFileStore returns a store for path. A failed first load leaves the
// store empty and is reported to the caller.
func NewFileStore(path string) (*FileStore, error) {
	s := &FileStore{
		path:   filepath.Clean(path),
		values: map[string]string{},
	}
	return s, s.Load()
}

func (s *FileStore) Path() string {
	return s.path
}

// Load re-reads the file. On failure the previous values are kept.
func (s *FileStore) Load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("failed to read preferences: %w", err)
	}

	values := map[string]string{}
	if err := yaml.Unmarshal(data, &values); err != nil {
		return fmt.Errorf("failed to parse preferences %q: %w", s.path, err)
	}

	s.mu.Lock()
	s.values = values
	s.mu.Unlock()
	klog.V(2).Infof("loaded %d preferences from %q", len(values), s.path)
	return nil
}

func (s *FileStore) Preference(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

type fileEvents struct {
	watcher *fsnotify.Watcher
	name    string
}

func (f *fileEvents) Receive() (fsnotify.Event, error) {
	select {
	case event, ok := <-f.watcher.Events:
		if !ok {
			return event, os.ErrClosed
		}
		if event.Name != f.name || !(event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename)) {
			return event, reactor.ErrSpurious
		}
		return event, nil
	case err, ok := <-f.watcher.Errors:
		if !ok {
			return fsnotify.Event{}, os.ErrClosed
		}
		klog.Warningf("preference watcher: %v", err)
		return fsnotify.Event{}, reactor.ErrSpurious
	}
}

func (f *fileEvents) Close() error {
	return f.watcher.Close()
}

// Watch reloads the store on the reactor goroutine whenever the file changes.
// The parent directory is watched so editors replacing the file are seen.
func (s *FileStore) Watch(r *reactor.Reactor) (*reactor.Registration, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(s.path)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch %q: %w", filepath.Dir(s.path), err)
	}

	src := &fileEvents{watcher: watcher, name: s.path}
	return reactor.Add[fsnotify.Event](r, "preferences", src, func(event fsnotify.Event) {
		klog.V(5).Infof("preference file event: %s", event)
		if err := s.Load(); err != nil {
			klog.Warningf("keeping previous preferences: %v", err)
		}
	}), nil
}
