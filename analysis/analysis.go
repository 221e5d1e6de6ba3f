// Copyright © 2024 The ELPS authors

// Package analysis maintains an index of the Perl source in a workspace and
// ties it to method resolution.
//
// An Index holds the declarations parsed from each file.  A Session pairs an
// Index with the linearization cache, linearizer and resolver which read it,
// invalidating the cache whenever the index changes.  ScanWorkspace fills an
// index from directory trees and a Watcher keeps it current.
package analysis

import (
	"github.com/luthersystems/perlmro/mro"
	"github.com/sirupsen/logrus"
)

// Config controls the behavior of a Session.
type Config struct {
	// Algorithm is the linearization used for namespaces without a
	// "use mro" pragma.
	Algorithm mro.Algorithm

	// IgnorePragma disables "use mro" pragmas.
	IgnorePragma bool

	// NoBuiltins omits the implicit UNIVERSAL, main and CORE declarations.
	NoBuiltins bool

	// Logger receives index and scan events.  When nil the standard logrus
	// logger is used.
	Logger logrus.FieldLogger
}

// Session is an Index and the resolution machinery which reads it.
type Session struct {
	Index      *Index
	Cache      *mro.Cache
	Linearizer *mro.Linearizer
	Resolver   *mro.Resolver

	log         logrus.FieldLogger
	unsubscribe func()
}

// NewSession returns a session with an empty index.
func NewSession(cfg *Config) *Session {
	if cfg == nil {
		cfg = &Config{}
	}
	log := cfg.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	opts := []IndexOption{WithLogger(log)}
	if cfg.NoBuiltins {
		opts = append(opts, WithoutBuiltins())
	}
	idx := NewIndex(opts...)
	cache := mro.NewCache()
	lin := mro.NewLinearizer(idx, cache,
		mro.WithDefaultAlgorithm(cfg.Algorithm),
		mro.WithPragma(!cfg.IgnorePragma))
	s := &Session{
		Index:      idx,
		Cache:      cache,
		Linearizer: lin,
		Resolver:   mro.NewResolver(idx, lin),
		log:        log,
	}
	s.unsubscribe = idx.Subscribe(func(uint64) {
		cache.Invalidate()
	})
	return s
}

// Logger returns the session logger.
func (s *Session) Logger() logrus.FieldLogger {
	return s.log
}

// Close detaches the cache from the index.
func (s *Session) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
}
