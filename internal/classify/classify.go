// Package classify partitions matched function pairs into free functions,
// methods, constructors and state getters, then prunes combinations a
// harness cannot exercise.
package classify

import (
	"log/slog"
	"sort"

	"verieq/internal/lang"
)

// Reserved identifiers marking support functions inside impl blocks.
const (
	ConstructorMarker = "verieq_new"
	GetterMarker      = "verieq_get"
)

// Buckets holds the classification result. Constructors and getters are
// keyed by the rendered path of their owning type; registering a second
// constructor or getter for the same type overwrites the first
// (last-registered wins).
type Buckets struct {
	Functions    []*lang.MatchedFunction
	Methods      []*lang.MatchedFunction
	Constructors map[string]*lang.MatchedFunction
	Getters      map[string]*lang.MatchedFunction
}

// Classify sorts pairs into buckets. Priority per pair: constructor
// marker, getter marker, receiver parameter (method), free function.
// Marker identifiers outside an impl block carry no owning type and
// classify as plain functions.
func Classify(pairs []*lang.MatchedFunction) *Buckets {
	b := &Buckets{
		Constructors: make(map[string]*lang.MatchedFunction),
		Getters:      make(map[string]*lang.MatchedFunction),
	}
	for _, pair := range pairs {
		if pair.Owner != nil {
			switch pair.Ident() {
			case ConstructorMarker:
				b.Constructors[pair.Owner.Key()] = pair
				continue
			case GetterMarker:
				b.Getters[pair.Owner.Key()] = pair
				continue
			}
			if _, ok := pair.Sig.Receiver(); ok {
				b.Methods = append(b.Methods, pair)
				continue
			}
		}
		b.Functions = append(b.Functions, pair)
	}
	return b
}

// Prune applies both mandatory passes in order: support entries for types
// with no surviving method go first, then methods whose type has no
// surviving constructor. After pruning, every method's type has exactly
// one constructor and every constructor or getter's type has at least one
// method.
func (b *Buckets) Prune(log *slog.Logger) {
	b.pruneUnusedSupport(log)
	b.pruneOrphanMethods(log)
}

func (b *Buckets) pruneUnusedSupport(log *slog.Logger) {
	used := make(map[string]bool)
	for _, m := range b.Methods {
		used[m.Owner.Key()] = true
	}
	for key := range b.Constructors {
		if !used[key] {
			log.Debug("type has no methods, dropping its constructor and getter",
				slog.String("type", key))
			delete(b.Constructors, key)
			delete(b.Getters, key)
		}
	}
	for key := range b.Getters {
		if !used[key] {
			delete(b.Getters, key)
		}
	}
}

func (b *Buckets) pruneOrphanMethods(log *slog.Logger) {
	kept := b.Methods[:0]
	for _, m := range b.Methods {
		if _, ok := b.Constructors[m.Owner.Key()]; !ok {
			log.Warn("type has no constructor, skipping method",
				slog.String("method", m.Name.String()),
				slog.String("type", m.Owner.Key()))
			continue
		}
		kept = append(kept, m)
	}
	b.Methods = kept
}

// Restrict returns a view whose functions and methods are limited to the
// given pairs. Constructors and getters are support functions, not
// verification targets, so the full support set stays available to every
// view.
func (b *Buckets) Restrict(pairs []*lang.MatchedFunction) *Buckets {
	keep := make(map[*lang.MatchedFunction]bool, len(pairs))
	for _, p := range pairs {
		keep[p] = true
	}
	out := &Buckets{Constructors: b.Constructors, Getters: b.Getters}
	for _, fn := range b.Functions {
		if keep[fn] {
			out.Functions = append(out.Functions, fn)
		}
	}
	for _, m := range b.Methods {
		if keep[m] {
			out.Methods = append(out.Methods, m)
		}
	}
	return out
}

// Checkable returns the pairs subject to verification: free functions and
// methods, never constructors or getters.
func (b *Buckets) Checkable() []*lang.MatchedFunction {
	out := make([]*lang.MatchedFunction, 0, len(b.Functions)+len(b.Methods))
	out = append(out, b.Functions...)
	return append(out, b.Methods...)
}

// OwnerKeys returns the constructor owner keys in deterministic order.
func (b *Buckets) OwnerKeys() []string {
	keys := make([]string, 0, len(b.Constructors))
	for k := range b.Constructors {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
