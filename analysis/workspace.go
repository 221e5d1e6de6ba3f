// Copyright © 2024 The ELPS authors

package analysis

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/cespare/xxhash/v2"
	"github.com/luthersystems/perlmro/parser"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// DefaultInclude matches Perl modules, scripts and tests.
var DefaultInclude = []string{"**/*.pm", "**/*.pl", "**/*.t"}

// ScanOptions controls which files ScanWorkspace and Watcher index.
type ScanOptions struct {
	// Include holds doublestar patterns, relative to a root, of files to
	// index.  When empty DefaultInclude is used.
	Include []string
	// Exclude holds doublestar patterns of files and directories to skip.
	Exclude []string
	// Concurrency limits the number of files read at once.  When zero
	// GOMAXPROCS is used.
	Concurrency int
	// Logger receives scan events.  When nil the standard logrus logger is
	// used.
	Logger logrus.FieldLogger
}

func (opts *ScanOptions) logger() logrus.FieldLogger {
	if opts.Logger == nil {
		return logrus.StandardLogger()
	}
	return opts.Logger
}

// Validate reports the first malformed pattern in opts.
func (opts *ScanOptions) Validate() error {
	for _, pattern := range append(append([]string(nil), opts.Include...), opts.Exclude...) {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("invalid glob pattern: %q", pattern)
		}
	}
	return nil
}

// matcher decides which paths below a set of roots are indexed.
type matcher struct {
	roots   []string
	include []string
	exclude []string
}

func newMatcher(roots []string, opts *ScanOptions) (*matcher, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	m := &matcher{
		include: opts.Include,
		exclude: opts.Exclude,
	}
	if len(m.include) == 0 {
		m.include = DefaultInclude
	}
	for _, root := range roots {
		abs, err := filepath.Abs(root)
		if err != nil {
			return nil, fmt.Errorf("workspace root %s: %w", root, err)
		}
		m.roots = append(m.roots, abs)
	}
	return m, nil
}

// relative returns path relative to the root containing it, in slash form.
func (m *matcher) relative(path string) (string, bool) {
	for _, root := range m.roots {
		rel, err := filepath.Rel(root, path)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}
		return filepath.ToSlash(rel), true
	}
	return "", false
}

func (m *matcher) excluded(rel string) bool {
	for _, pattern := range m.exclude {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

// matchFile reports whether the file at path is indexed.
func (m *matcher) matchFile(path string) bool {
	rel, ok := m.relative(path)
	if !ok || m.excluded(rel) {
		return false
	}
	for _, dir := range strings.Split(rel, "/")[:strings.Count(rel, "/")] {
		if shouldSkipDir(dir) {
			return false
		}
	}
	for _, pattern := range m.include {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

// skipDir reports whether the directory at path is not walked.
func (m *matcher) skipDir(path string) bool {
	rel, ok := m.relative(path)
	if !ok {
		return true
	}
	if rel == "." {
		return false
	}
	return shouldSkipDir(filepath.Base(path)) || m.excluded(rel)
}

// walk calls fn for each indexed file below the roots.
func (m *matcher) walk(ctx context.Context, log logrus.FieldLogger, fn func(path string) error) error {
	for _, root := range m.roots {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				log.WithError(err).WithField("path", path).Warn("skipping unreadable path")
				if d != nil && d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if d.IsDir() {
				if m.skipDir(path) {
					return filepath.SkipDir
				}
				return nil
			}
			if !d.Type().IsRegular() || !m.matchFile(path) {
				return nil
			}
			return fn(path)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// ScanWorkspace indexes every matching file below roots and returns the
// number of files read.  Files are read and parsed concurrently and added to
// idx as a single change.  Unreadable files are logged and skipped.
func ScanWorkspace(ctx context.Context, idx *Index, roots []string, opts *ScanOptions) (int, error) {
	if opts == nil {
		opts = &ScanOptions{}
	}
	log := opts.logger()
	m, err := newMatcher(roots, opts)
	if err != nil {
		return 0, err
	}
	var paths []string
	err = m.walk(ctx, log, func(path string) error {
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return 0, err
	}

	limit := opts.Concurrency
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}
	docs := make([]Document, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			src, err := os.ReadFile(path) //nolint:gosec // CLI tool reads user-specified files
			if err != nil {
				log.WithError(err).WithField("path", path).Warn("skipping unreadable file")
				return nil
			}
			hash := xxhash.Sum64(src)
			if idx.Unchanged(path, hash) {
				return nil
			}
			docs[i] = Document{File: parser.Parse(path, src), Hash: hash}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	idx.UpdateBatch(docs)
	log.WithFields(logrus.Fields{
		"files":      len(paths),
		"generation": idx.Generation(),
	}).Info("workspace indexed")
	return len(paths), nil
}

// shouldSkipDir returns true for directories that should not be walked.
// It skips hidden directories (e.g. .git, .vscode) and build output,
// but not "." or ".." which represent the current/parent directory.
func shouldSkipDir(name string) bool {
	if name == "." || name == ".." {
		return false
	}
	if len(name) > 0 && name[0] == '.' {
		return true
	}
	switch name {
	case "node_modules", "blib", "local":
		return true
	}
	return false
}
