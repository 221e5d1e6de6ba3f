// Copyright © 2024 The ELPS authors

package mro

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "perlmro"

// Algorithm selects a linearization strategy.
type Algorithm uint8

const (
	// DFS is Perl's default depth-first, left-to-right method resolution
	// order.
	DFS Algorithm = iota
	// C3 is the order selected with "use mro 'c3'".
	C3
)

func (alg Algorithm) String() string {
	switch alg {
	case DFS:
		return "dfs"
	case C3:
		return "c3"
	}
	return fmt.Sprintf("Algorithm(%d)", uint8(alg))
}

// ParseAlgorithm parses the name used in a "use mro" pragma.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "dfs", "":
		return DFS, nil
	case "c3":
		return C3, nil
	}
	return DFS, fmt.Errorf("unknown mro algorithm: %q", s)
}

// Ancestry is a linearized class hierarchy, nearest namespace first.
type Ancestry []string

// Contains reports whether name appears in a.
func (a Ancestry) Contains(name string) bool {
	for _, n := range a {
		if n == name {
			return true
		}
	}
	return false
}

func (a Ancestry) clone() Ancestry {
	if a == nil {
		return nil
	}
	return append(Ancestry(nil), a...)
}

// Strategy computes the full linearization of a namespace, beginning with
// the namespace itself and ending with UNIVERSAL.
type Strategy interface {
	Linearize(idx SymbolIndex, name string) Ancestry
}

// StrategyFor returns the Strategy implementing alg.
func StrategyFor(alg Algorithm) Strategy {
	if alg == C3 {
		return c3{}
	}
	return dfs{}
}

// Parents returns the direct parents of name across all of its
// declarations, in index order.
func Parents(idx SymbolIndex, name string) []string {
	return parentsOf(idx, Canonical(name))
}

// parentsOf returns the union of the canonical parents declared for name,
// in index order.
func parentsOf(idx SymbolIndex, name string) []string {
	var parents []string
	for _, decl := range idx.DeclarationsFor(name) {
		for _, p := range decl.ParentNames() {
			if strings.TrimSpace(p) == "" {
				continue
			}
			parents = append(parents, Canonical(p))
		}
	}
	return parents
}

type dfs struct{}

func (dfs) Linearize(idx SymbolIndex, name string) Ancestry {
	result := Ancestry{name}
	guard := map[string]struct{}{name: {}}
	dfsWalk(idx, name, guard, &result)
	if _, ok := guard[Universal]; !ok {
		result = append(result, Universal)
	}
	return result
}

// dfsWalk appends the unvisited ancestors of name in depth-first pre-order.
// Namespaces already in guard, including any reached through a cycle, are
// skipped.
func dfsWalk(idx SymbolIndex, name string, guard map[string]struct{}, result *Ancestry) {
	for _, p := range parentsOf(idx, name) {
		if _, seen := guard[p]; seen {
			continue
		}
		guard[p] = struct{}{}
		*result = append(*result, p)
		dfsWalk(idx, p, guard, result)
	}
}

// c3 falls back to the DFS order when the hierarchy has a cycle or no
// consistent C3 merge.
type c3 struct{}

func (c3) Linearize(idx SymbolIndex, name string) Ancestry {
	memo := make(map[string][]string)
	visiting := make(map[string]bool)
	lin, ok := c3Linearize(idx, name, visiting, memo)
	if !ok {
		return dfs{}.Linearize(idx, name)
	}
	result := Ancestry(lin)
	if !result.Contains(Universal) {
		result = append(result, Universal)
	}
	return result
}

func c3Linearize(idx SymbolIndex, name string, visiting map[string]bool, memo map[string][]string) ([]string, bool) {
	if lin, ok := memo[name]; ok {
		return lin, true
	}
	if visiting[name] {
		return nil, false
	}
	visiting[name] = true
	defer delete(visiting, name)

	var parents []string
	seen := map[string]bool{name: true}
	for _, p := range parentsOf(idx, name) {
		if seen[p] {
			if p == name {
				return nil, false
			}
			continue
		}
		seen[p] = true
		parents = append(parents, p)
	}

	seqs := make([][]string, 0, len(parents)+1)
	for _, p := range parents {
		lin, ok := c3Linearize(idx, p, visiting, memo)
		if !ok {
			return nil, false
		}
		seqs = append(seqs, lin)
	}
	seqs = append(seqs, parents)

	result, ok := c3Merge([]string{name}, seqs)
	if !ok {
		return nil, false
	}
	memo[name] = result
	return result, true
}

// c3Merge repeatedly takes the first sequence head that appears in no
// sequence tail.
func c3Merge(result []string, seqs [][]string) ([]string, bool) {
	for {
		live := seqs[:0:0]
		for _, seq := range seqs {
			if len(seq) > 0 {
				live = append(live, seq)
			}
		}
		if len(live) == 0 {
			return result, true
		}
		var next string
		found := false
		for _, seq := range live {
			if !inAnyTail(seq[0], live) {
				next = seq[0]
				found = true
				break
			}
		}
		if !found {
			return nil, false
		}
		result = append(result, next)
		for i, seq := range live {
			if seq[0] == next {
				live[i] = seq[1:]
			}
		}
		seqs = live
	}
}

func inAnyTail(name string, seqs [][]string) bool {
	for _, seq := range seqs {
		for _, n := range seq[1:] {
			if n == name {
				return true
			}
		}
	}
	return false
}

// Linearizer computes and caches the ancestry of namespaces.
type Linearizer struct {
	index         SymbolIndex
	cache         *Cache
	algorithm     Algorithm
	respectPragma bool
}

// LinearizerOption configures a Linearizer.
type LinearizerOption func(*Linearizer)

// WithDefaultAlgorithm sets the algorithm used for namespaces without a
// "use mro" pragma.
func WithDefaultAlgorithm(alg Algorithm) LinearizerOption {
	return func(l *Linearizer) {
		l.algorithm = alg
	}
}

// WithPragma controls whether "use mro" pragmas select the algorithm.  It is
// enabled by default.
func WithPragma(respect bool) LinearizerOption {
	return func(l *Linearizer) {
		l.respectPragma = respect
	}
}

// NewLinearizer returns a Linearizer reading idx.  A nil cache disables
// memoization.
func NewLinearizer(idx SymbolIndex, cache *Cache, opts ...LinearizerOption) *Linearizer {
	l := &Linearizer{
		index:         idx,
		cache:         cache,
		algorithm:     DFS,
		respectPragma: true,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// AlgorithmFor returns the algorithm used to linearize name.
func (l *Linearizer) AlgorithmFor(name string) Algorithm {
	if !l.respectPragma {
		return l.algorithm
	}
	for _, decl := range l.index.DeclarationsFor(Canonical(name)) {
		if alg := decl.Annotations().Algorithm; alg != DFS {
			return alg
		}
	}
	return l.algorithm
}

// Linearize returns the method resolution order of name.  If super is true
// name itself is omitted.  The returned slice belongs to the caller.
func (l *Linearizer) Linearize(name string, super bool) Ancestry {
	return l.LinearizeContext(context.Background(), name, super)
}

// LinearizeContext is like Linearize and records a trace span in ctx when
// the ancestry is computed rather than read from the cache.
func (l *Linearizer) LinearizeContext(ctx context.Context, name string, super bool) Ancestry {
	name = Canonical(name)
	return trimSuper(l.ancestry(ctx, name, l.AlgorithmFor(name)), super).clone()
}

// LinearizeWith linearizes name using alg regardless of pragmas.
func (l *Linearizer) LinearizeWith(alg Algorithm, name string, super bool) Ancestry {
	name = Canonical(name)
	return trimSuper(l.ancestry(context.Background(), name, alg), super).clone()
}

// shared returns the possibly cached ancestry of a canonical name.  The
// result must not be modified.
func (l *Linearizer) shared(ctx context.Context, name string, super bool) Ancestry {
	return trimSuper(l.ancestry(ctx, name, l.AlgorithmFor(name)), super)
}

func (l *Linearizer) ancestry(ctx context.Context, name string, alg Algorithm) Ancestry {
	compute := func() Ancestry {
		_, span := otel.GetTracerProvider().Tracer(tracerName).Start(ctx, "mro.Linearize",
			trace.WithAttributes(
				attribute.String("mro.namespace", name),
				attribute.String("mro.algorithm", alg.String()),
			))
		defer span.End()
		start := time.Now()
		anc := StrategyFor(alg).Linearize(l.index, name)
		linearizeSeconds.WithLabelValues(alg.String()).Observe(time.Since(start).Seconds())
		span.SetAttributes(attribute.Int("mro.ancestors", len(anc)))
		return anc
	}
	if l.cache == nil {
		return compute()
	}
	return l.cache.GetOrCompute(Key{Namespace: name, Algorithm: alg}, compute)
}

func trimSuper(a Ancestry, super bool) Ancestry {
	if super && len(a) > 0 {
		return a[1:]
	}
	return a
}
