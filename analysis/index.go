// Copyright © 2024 The ELPS authors

package analysis

import (
	"path/filepath"
	"sort"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/luthersystems/perlmro/mro"
	"github.com/luthersystems/perlmro/parser"
	"github.com/sirupsen/logrus"
)

// Document is a parsed file ready to be added to an Index.
type Document struct {
	File *parser.File
	Hash uint64
}

// NewDocument parses src.
func NewDocument(path string, src []byte) Document {
	return Document{
		File: parser.Parse(path, src),
		Hash: xxhash.Sum64(src),
	}
}

type entry struct {
	file *parser.File
	hash uint64
}

// view holds the lookup tables derived from every indexed file.  A view is
// never modified once built.
type view struct {
	decls     map[string][]mro.Declaration
	callables map[string][]mro.Callable // by fully qualified name
	globs     map[string][]mro.Callable
	members   map[string][]mro.Callable // subs and constants by namespace
	names     []string
	paths     []string
}

// Index is a concurrency safe mro.SymbolIndex over a set of parsed files.
// Every change to the set of files increments the generation and notifies
// subscribers.
type Index struct {
	mu         sync.RWMutex
	files      map[string]entry
	view       *view
	generation uint64
	builtins   bool
	log        logrus.FieldLogger

	subMu  sync.Mutex
	subs   map[int]func(uint64)
	nextID int
}

var _ mro.SymbolIndex = (*Index)(nil)

// IndexOption configures an Index.
type IndexOption func(*Index)

// WithoutBuiltins omits the implicit UNIVERSAL, main and CORE declarations.
func WithoutBuiltins() IndexOption {
	return func(idx *Index) {
		idx.builtins = false
	}
}

// WithLogger sets the logger used to report index changes.
func WithLogger(log logrus.FieldLogger) IndexOption {
	return func(idx *Index) {
		idx.log = log
	}
}

func NewIndex(opts ...IndexOption) *Index {
	idx := &Index{
		files:    make(map[string]entry),
		builtins: true,
		log:      logrus.StandardLogger(),
		subs:     make(map[int]func(uint64)),
	}
	for _, opt := range opts {
		opt(idx)
	}
	idx.view = idx.build()
	return idx
}

// Update parses and indexes the contents of path.  Update returns false
// without parsing when src is unchanged since the last update.
func (idx *Index) Update(path string, src []byte) bool {
	path = filepath.Clean(path)
	hash := xxhash.Sum64(src)
	if idx.Unchanged(path, hash) {
		return false
	}
	return idx.UpdateBatch([]Document{{File: parser.Parse(path, src), Hash: hash}})
}

// Unchanged reports whether path is indexed with content hash.
func (idx *Index) Unchanged(path string, hash uint64) bool {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	e, ok := idx.files[filepath.Clean(path)]
	return ok && e.hash == hash
}

// UpdateBatch indexes docs as a single change.  Documents whose content is
// unchanged are skipped.  UpdateBatch reports whether anything changed.
func (idx *Index) UpdateBatch(docs []Document) bool {
	idx.mu.Lock()
	changed := 0
	for _, doc := range docs {
		if doc.File == nil {
			continue
		}
		path := filepath.Clean(doc.File.Path)
		if e, ok := idx.files[path]; ok && e.hash == doc.Hash {
			continue
		}
		idx.files[path] = entry{file: doc.File, hash: doc.Hash}
		changed++
	}
	if changed == 0 {
		idx.mu.Unlock()
		return false
	}
	gen := idx.commit()
	idx.mu.Unlock()
	idx.log.WithFields(logrus.Fields{
		"files":      changed,
		"generation": gen,
	}).Debug("index updated")
	idx.notify(gen)
	return true
}

// Remove drops path from the index and reports whether it was indexed.
func (idx *Index) Remove(path string) bool {
	return idx.RemoveFunc(func(p string) bool { return p == filepath.Clean(path) }) > 0
}

// RemoveFunc drops every indexed path for which fn returns true and returns
// the number of files removed.
func (idx *Index) RemoveFunc(fn func(path string) bool) int {
	idx.mu.Lock()
	n := 0
	for path := range idx.files {
		if fn(path) {
			delete(idx.files, path)
			n++
		}
	}
	if n == 0 {
		idx.mu.Unlock()
		return 0
	}
	gen := idx.commit()
	idx.mu.Unlock()
	idx.log.WithFields(logrus.Fields{
		"files":      n,
		"generation": gen,
	}).Debug("index removed files")
	idx.notify(gen)
	return n
}

// commit rebuilds the view.  The caller must hold the write lock.
func (idx *Index) commit() uint64 {
	idx.view = idx.build()
	idx.generation++
	return idx.generation
}

// Generation returns the number of changes applied to the index.
func (idx *Index) Generation() uint64 {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.generation
}

// Subscribe calls fn with the new generation after every change.  Calls are
// made synchronously by the goroutine which changed the index.  The
// returned function cancels the subscription.
func (idx *Index) Subscribe(fn func(generation uint64)) (unsubscribe func()) {
	idx.subMu.Lock()
	defer idx.subMu.Unlock()
	id := idx.nextID
	idx.nextID++
	idx.subs[id] = fn
	return func() {
		idx.subMu.Lock()
		defer idx.subMu.Unlock()
		delete(idx.subs, id)
	}
}

func (idx *Index) notify(gen uint64) {
	idx.subMu.Lock()
	ids := make([]int, 0, len(idx.subs))
	for id := range idx.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(uint64), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, idx.subs[id])
	}
	idx.subMu.Unlock()
	for _, fn := range fns {
		fn(gen)
	}
}

func (idx *Index) current() *view {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.view
}

// File returns the parsed contents of path, or nil.
func (idx *Index) File(path string) *parser.File {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.files[filepath.Clean(path)].file
}

// Files returns the indexed paths in sorted order.
func (idx *Index) Files() []string {
	return append([]string(nil), idx.current().paths...)
}

// Namespaces returns the sorted names of every declared namespace.
func (idx *Index) Namespaces() []string {
	return append([]string(nil), idx.current().names...)
}

// DeclarationsFor implements mro.SymbolIndex.  Declarations are ordered by
// file path and then by position, followed by built-in declarations.
func (idx *Index) DeclarationsFor(namespace string) []mro.Declaration {
	return idx.current().decls[mro.Canonical(namespace)]
}

// CallablesFor implements mro.SymbolIndex.
func (idx *Index) CallablesFor(fqn string) []mro.Callable {
	return idx.current().callables[mro.Join(mro.Split(fqn))]
}

// GlobsFor implements mro.SymbolIndex.
func (idx *Index) GlobsFor(namespace string) []mro.Callable {
	return idx.current().globs[mro.Canonical(namespace)]
}

// CallablesIn implements mro.SymbolIndex.
func (idx *Index) CallablesIn(namespace string) []mro.Callable {
	return idx.current().members[mro.Canonical(namespace)]
}

func (idx *Index) build() *view {
	v := &view{
		decls:     make(map[string][]mro.Declaration),
		callables: make(map[string][]mro.Callable),
		globs:     make(map[string][]mro.Callable),
		members:   make(map[string][]mro.Callable),
	}
	for path := range idx.files {
		v.paths = append(v.paths, path)
	}
	sort.Strings(v.paths)
	for _, path := range v.paths {
		f := idx.files[path].file
		for _, ns := range f.Namespaces {
			v.decls[ns.Name] = append(v.decls[ns.Name], ns)
		}
		for _, c := range f.Callables {
			v.addCallable(c)
		}
	}
	if idx.builtins {
		for _, decl := range builtinDeclarations {
			v.decls[decl.name] = append(v.decls[decl.name], decl)
		}
		for _, c := range builtinCallables {
			v.addCallable(c)
		}
	}
	for name := range v.decls {
		v.names = append(v.names, name)
	}
	sort.Strings(v.names)
	return v
}

func (v *view) addCallable(c mro.Callable) {
	ns := mro.Canonical(c.Namespace)
	c.Namespace = ns
	fqn := c.FullName()
	switch c.Kind {
	case mro.Glob:
		if !c.Assignable {
			return
		}
		v.globs[ns] = append(v.globs[ns], c)
	default:
		v.members[ns] = append(v.members[ns], c)
	}
	v.callables[fqn] = append(v.callables[fqn], c)
}
