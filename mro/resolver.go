// Copyright © 2024 The ELPS authors

package mro

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ErrCanceled is returned when the context of a resolution is done before
// the walk completes.  The error also wraps the context's error.
var ErrCanceled = errors.New("resolution canceled")

// ResolveOptions modify method resolution.
type ResolveOptions struct {
	// Super resolves as SUPER::name, excluding the namespace itself.
	Super bool
	// Autoload falls back to the nearest AUTOLOAD when no callable is
	// found.
	Autoload bool
}

// Resolver finds the callables a method call dispatches to.
type Resolver struct {
	index SymbolIndex
	lin   *Linearizer
}

func NewResolver(idx SymbolIndex, lin *Linearizer) *Resolver {
	return &Resolver{index: idx, lin: lin}
}

// Resolve returns the callables named by names in the first namespace of
// the ancestry of namespace which defines any of them.  All matching
// callables of that namespace are returned, in name order then index order.
func (r *Resolver) Resolve(ctx context.Context, namespace string, names []string, opts ResolveOptions) ([]Callable, error) {
	var found []Callable
	err := r.Process(ctx, namespace, names, opts, func(c Callable) bool {
		found = append(found, c)
		return true
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

// Process calls fn with each callable Resolve would return, stopping early
// when fn returns false.  An early stop is not an error.
func (r *Resolver) Process(ctx context.Context, namespace string, names []string, opts ResolveOptions, fn func(Callable) bool) error {
	names = nonEmpty(names)
	if len(names) == 0 {
		return nil
	}
	namespace = resolveNamespace(namespace)
	ctx, span := otel.GetTracerProvider().Tracer(tracerName).Start(ctx, "mro.Resolve",
		trace.WithAttributes(
			attribute.String("mro.namespace", namespace),
			attribute.StringSlice("mro.names", names),
			attribute.Bool("mro.super", opts.Super),
		))
	defer span.End()

	outcome, err := r.process(ctx, namespace, names, opts, fn)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.SetAttributes(attribute.String("mro.outcome", outcome))
	resolveTotal.WithLabelValues(outcome).Inc()
	return err
}

func (r *Resolver) process(ctx context.Context, namespace string, names []string, opts ResolveOptions, fn func(Callable) bool) (string, error) {
	ancestry := r.lin.shared(ctx, namespace, opts.Super)
	for _, ns := range ancestry {
		if err := canceled(ctx); err != nil {
			return "canceled", err
		}
		found := false
		for _, name := range names {
			for _, c := range r.index.CallablesFor(Join(ns, name)) {
				found = true
				if !fn(c) {
					return "found", nil
				}
			}
		}
		if found {
			return "found", nil
		}
	}
	if !opts.Autoload {
		return "none", nil
	}
	for _, ns := range ancestry {
		if err := canceled(ctx); err != nil {
			return "canceled", err
		}
		if ns == Universal {
			continue
		}
		if cs := r.index.CallablesFor(Join(ns, Autoload)); len(cs) > 0 {
			fn(cs[0])
			return "autoload", nil
		}
	}
	return "none", nil
}

// Variants returns one callable per name across the whole ancestry of
// namespace, keeping the first seen.  Subs and constants of a namespace
// take precedence over its assignable globs.  Callables are returned in
// the order first seen.
func (r *Resolver) Variants(ctx context.Context, namespace string, super bool) ([]Callable, error) {
	namespace = resolveNamespace(namespace)
	ctx, span := otel.GetTracerProvider().Tracer(tracerName).Start(ctx, "mro.Variants",
		trace.WithAttributes(
			attribute.String("mro.namespace", namespace),
			attribute.Bool("mro.super", super),
		))
	defer span.End()

	seen := make(map[string]bool)
	var variants []Callable
	for _, ns := range r.lin.shared(ctx, namespace, super) {
		if err := canceled(ctx); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		for _, c := range r.index.CallablesIn(ns) {
			if !seen[c.Name] {
				seen[c.Name] = true
				variants = append(variants, c)
			}
		}
		for _, g := range r.index.GlobsFor(ns) {
			if g.Assignable && !seen[g.Name] {
				seen[g.Name] = true
				variants = append(variants, g)
			}
		}
	}
	span.SetAttributes(attribute.Int("mro.variants", len(variants)))
	return variants, nil
}

func canceled(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrCanceled, err)
	}
	return nil
}

func resolveNamespace(namespace string) string {
	if namespace == "" {
		return Universal
	}
	return Canonical(namespace)
}

func nonEmpty(names []string) []string {
	var out []string
	for _, name := range names {
		if name != "" {
			out = append(out, name)
		}
	}
	return out
}
