// Copyright © 2024 The ELPS authors

package analysis

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// DefaultDebounce is the quiet period a Watcher waits for before applying
// file changes.
const DefaultDebounce = 100 * time.Millisecond

// Watcher keeps an Index current with the files below a set of roots.
type Watcher struct {
	idx      *Index
	fsw      *fsnotify.Watcher
	match    *matcher
	debounce time.Duration
	log      logrus.FieldLogger
}

// NewWatcher watches every directory below roots which ScanWorkspace would
// walk.  A debounce of zero selects DefaultDebounce.  The Watcher does
// nothing until Run is called.
func NewWatcher(idx *Index, roots []string, opts *ScanOptions, debounce time.Duration) (*Watcher, error) {
	if opts == nil {
		opts = &ScanOptions{}
	}
	m, err := newMatcher(roots, opts)
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("file watcher: %w", err)
	}
	w := &Watcher{
		idx:      idx,
		fsw:      fsw,
		match:    m,
		debounce: debounce,
		log:      opts.logger(),
	}
	for _, root := range m.roots {
		if err := w.addTree(root); err != nil {
			_ = fsw.Close()
			return nil, err
		}
	}
	return w, nil
}

// addTree watches root and the directories below it.
func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return fmt.Errorf("watch %s: %w", root, err)
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if w.match.skipDir(path) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			w.log.WithError(err).WithField("path", path).Warn("unable to watch directory")
		}
		return nil
	})
}

// Run applies file system changes to the index until ctx is done.  Run
// closes the Watcher before returning and returns nil when ctx is canceled.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close() //nolint:errcheck

	pending := make(map[string]fsnotify.Op)
	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.fsw.Events:
			if !ok {
				return errors.New("file watcher closed")
			}
			if w.handle(event, pending) {
				timer.Reset(w.debounce)
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return errors.New("file watcher closed")
			}
			w.log.WithError(err).Warn("file watcher error")
		case <-timer.C:
			w.flush(pending)
			pending = make(map[string]fsnotify.Op)
		}
	}
}

// handle records event and reports whether a flush is needed.
func (w *Watcher) handle(event fsnotify.Event, pending map[string]fsnotify.Op) bool {
	path := filepath.Clean(event.Name)
	w.log.WithFields(logrus.Fields{
		"path": path,
		"op":   event.Op.String(),
	}).Debug("file event")
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if w.match.skipDir(path) {
				return false
			}
			if err := w.addTree(path); err != nil {
				w.log.WithError(err).WithField("path", path).Warn("unable to watch directory")
			}
			pending[path] |= fsnotify.Create
			return true
		}
	}
	if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
		pending[path] |= event.Op
		return true
	}
	if !w.match.matchFile(path) {
		return false
	}
	pending[path] |= event.Op
	return true
}

// flush applies the pending changes in path order.
func (w *Watcher) flush(pending map[string]fsnotify.Op) {
	paths := make([]string, 0, len(pending))
	for path := range pending {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	for _, path := range paths {
		info, err := os.Stat(path)
		switch {
		case err != nil:
			w.remove(path)
		case info.IsDir():
			w.scanDir(path)
		case w.match.matchFile(path):
			w.update(path)
		}
	}
}

func (w *Watcher) update(path string) {
	src, err := os.ReadFile(path) //nolint:gosec // CLI tool reads user-specified files
	if err != nil {
		w.log.WithError(err).WithField("path", path).Warn("skipping unreadable file")
		return
	}
	if w.idx.Update(path, src) {
		w.log.WithFields(logrus.Fields{
			"path":       path,
			"generation": w.idx.Generation(),
		}).Info("file reindexed")
	}
}

// remove drops path, and any files below it, from the index.
func (w *Watcher) remove(path string) {
	prefix := path + string(filepath.Separator)
	n := w.idx.RemoveFunc(func(p string) bool {
		return p == path || strings.HasPrefix(p, prefix)
	})
	if n > 0 {
		w.log.WithFields(logrus.Fields{
			"path":       path,
			"files":      n,
			"generation": w.idx.Generation(),
		}).Info("files removed")
	}
}

// scanDir indexes the files of a directory which appeared after the
// Watcher started.
func (w *Watcher) scanDir(dir string) {
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if w.match.skipDir(path) {
				return filepath.SkipDir
			}
			return nil
		}
		if w.match.matchFile(path) {
			w.update(path)
		}
		return nil
	})
	if err != nil {
		w.log.WithError(err).WithField("path", dir).Warn("unable to scan directory")
	}
}
