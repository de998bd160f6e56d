package local

import (
	"context"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/gobeaver/datasetkit"
)

// Watch implements datasetkit.CanWatch using fsnotify for native file system
// events. The pattern is matched like datasetkit.Glob against root-relative
// paths; every directory under the root is watched.
func (a *Adapter) Watch(ctx context.Context, pattern string) (datasetkit.ChangeToken, error) {
	token := datasetkit.NewCallbackChangeToken()
	selector := datasetkit.Glob(pattern)

	watcher, err := newFSWatcher()
	if err != nil {
		return nil, datasetkit.NewPathError("watch", pattern, err)
	}

	if err := addTree(watcher, a.root); err != nil {
		watcher.Close()
		return nil, datasetkit.NewPathError("watch", pattern, err)
	}

	go func() {
		defer watcher.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events():
				if !ok {
					return
				}

				// New directories may later hold matching files
				if fsnotify.Op(event.Op).Has(fsnotify.Create) {
					if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
						_ = addTree(watcher, event.Name)
					}
				}

				relPath, err := filepath.Rel(a.root, event.Name)
				if err != nil {
					continue
				}

				file := &datasetkit.FileInfo{
					Name: filepath.Base(relPath),
					Path: filepath.ToSlash(relPath),
				}
				if selector.Match(file) {
					token.SignalChange()
					return // Token is spent after first change
				}
			case err, ok := <-watcher.Errors():
				if !ok {
					return
				}
				datasetkit.Logf("local: watch %s: %v", pattern, err)
			}
		}
	}()

	return token, nil
}

// addTree watches dir and every directory below it
func addTree(watcher fsWatcher, dir string) error {
	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
}

// fsWatcher wraps fsnotify.Watcher with a simpler interface
type fsWatcher interface {
	Add(path string) error
	Close() error
	Events() <-chan fsEvent
	Errors() <-chan error
}

type fsEvent struct {
	Name string
	Op   uint32
}

// fsnotifyWatcher wraps fsnotify.Watcher to implement fsWatcher interface
type fsnotifyWatcher struct {
	watcher *fsnotify.Watcher
	events  chan fsEvent
	errors  chan error
	done    chan struct{}
}

// newFSWatcher creates a new file system watcher using fsnotify
func newFSWatcher() (fsWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	fw := &fsnotifyWatcher{
		watcher: w,
		events:  make(chan fsEvent),
		errors:  make(chan error),
		done:    make(chan struct{}),
	}

	// Forward events until closed
	go func() {
		for {
			select {
			case event, ok := <-w.Events:
				if !ok {
					close(fw.events)
					return
				}
				select {
				case fw.events <- fsEvent{Name: event.Name, Op: uint32(event.Op)}:
				case <-fw.done:
					return
				}
			case err, ok := <-w.Errors:
				if !ok {
					close(fw.errors)
					return
				}
				select {
				case fw.errors <- err:
				case <-fw.done:
					return
				}
			}
		}
	}()

	return fw, nil
}

func (w *fsnotifyWatcher) Add(path string) error {
	return w.watcher.Add(path)
}

func (w *fsnotifyWatcher) Close() error {
	close(w.done)
	return w.watcher.Close()
}

func (w *fsnotifyWatcher) Events() <-chan fsEvent {
	return w.events
}

func (w *fsnotifyWatcher) Errors() <-chan error {
	return w.errors
}
