// Package checker runs equivalence components over the matched function
// pairs of two source versions and tracks each pair through the
// unchecked, verified and tested partitions.
package checker

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"verieq/internal/classify"
	"verieq/internal/lang"
	"verieq/internal/match"
	"verieq/internal/source"
)

// Result is one component run. Err marks an infrastructure failure; the
// component produced no verdicts and the run is skipped. Otherwise OK
// lists pairs the component found equivalent and Fail lists pairs it
// found to differ.
type Result struct {
	Err  error
	OK   []lang.QualifiedName
	Fail []lang.QualifiedName
}

// Failed wraps an infrastructure error into a Result.
func Failed(err error) Result {
	return Result{Err: err}
}

// Component is one equivalence strategy. Formal components prove
// equivalence; their OK verdicts settle a pair as verified. Non-formal
// components only test it.
type Component interface {
	Name() string
	IsFormal() bool
	Note() string
	Run(ctx context.Context, c *Checker) Result
}

// Checker holds the state of one differential run. New performs matching,
// alias alignment and classification; Run then moves pairs out of the
// unchecked partition as components report on them.
type Checker struct {
	log      *slog.Logger
	oldSrc   *source.Model
	newSrc   *source.Model
	preconds []lang.Precondition
	buckets  *classify.Buckets

	unchecked []*lang.MatchedFunction
	verified  []lang.QualifiedName
	tested    []lang.QualifiedName

	// settledBy attributes each settled name to the component whose
	// verdict moved it.
	settledBy map[string]string
}

func New(oldSrc, newSrc *source.Model, preconds []lang.Precondition, log *slog.Logger) *Checker {
	pairs, uniqueOld, uniqueNew := match.Pairs(oldSrc.Functions, newSrc.Functions)
	for _, rec := range uniqueOld {
		log.Debug("function only in old version", "name", rec.Name.String())
	}
	for _, rec := range uniqueNew {
		log.Debug("function only in new version", "name", rec.Name.String())
	}

	match.AlignAliases(pairs, preconds, oldSrc.Aliases, newSrc.Aliases, log)

	buckets := classify.Classify(pairs)
	buckets.Prune(log)

	return &Checker{
		log:       log,
		oldSrc:    oldSrc,
		newSrc:    newSrc,
		preconds:  preconds,
		buckets:   buckets,
		unchecked: buckets.Checkable(),
		settledBy: make(map[string]string),
	}
}

// Run executes the components in order. An infrastructure error skips
// that component. A fail verdict records the inconsistency and stops the
// run immediately; components later in the list never execute. When all
// components ran without a fail and pairs remain unchecked, the run ends
// with an IncompleteError.
func (c *Checker) Run(ctx context.Context, components []Component) error {
	for _, comp := range components {
		// Nothing left to settle; a later component would generate an
		// empty harness.
		if len(c.unchecked) == 0 {
			break
		}
		c.log.Info("running component", "component", comp.Name(), "note", comp.Note())

		res := comp.Run(ctx, c)
		if res.Err != nil {
			c.log.Warn("component could not run", "component", comp.Name(), "err", res.Err)
			continue
		}

		for _, name := range res.OK {
			c.settle(name, comp)
		}
		if len(res.Fail) > 0 {
			return &InconsistencyError{Component: comp.Name(), Names: res.Fail}
		}
	}

	if len(c.unchecked) > 0 {
		names := make([]lang.QualifiedName, len(c.unchecked))
		for i, fn := range c.unchecked {
			names[i] = fn.Name
		}
		return &IncompleteError{Names: names}
	}
	return nil
}

// settle moves one pair out of the unchecked partition. A verdict for a
// name that is no longer unchecked is ignored so repeated OKs from
// overlapping components stay idempotent.
func (c *Checker) settle(name lang.QualifiedName, comp Component) {
	for i, fn := range c.unchecked {
		if !fn.Name.Equal(name) {
			continue
		}
		c.unchecked = append(c.unchecked[:i], c.unchecked[i+1:]...)
		if comp.IsFormal() {
			c.verified = append(c.verified, name)
		} else {
			c.tested = append(c.tested, name)
		}
		c.settledBy[name.String()] = comp.Name()
		return
	}
	c.log.Debug("verdict for already settled pair", "name", name.String(), "component", comp.Name())
}

// Unchecked returns the pairs no component has settled yet, in
// classification order.
func (c *Checker) Unchecked() []*lang.MatchedFunction {
	return c.unchecked
}

// Verified returns the names formally proven equivalent.
func (c *Checker) Verified() []lang.QualifiedName {
	return c.verified
}

// Tested returns the names established equivalent by testing only.
func (c *Checker) Tested() []lang.QualifiedName {
	return c.tested
}

// SettledBy names the component whose verdict settled the given pair.
func (c *Checker) SettledBy(name lang.QualifiedName) string {
	return c.settledBy[name.String()]
}

// UncheckedBuckets returns the classification restricted to pairs still
// unchecked. Components generate their harnesses from this view so a pair
// settled by an earlier component is never regenerated or re-reported.
func (c *Checker) UncheckedBuckets() *classify.Buckets {
	return c.buckets.Restrict(c.unchecked)
}

func (c *Checker) Buckets() *classify.Buckets         { return c.buckets }
func (c *Checker) OldSource() *source.Model           { return c.oldSrc }
func (c *Checker) NewSource() *source.Model           { return c.newSrc }
func (c *Checker) Preconditions() []lang.Precondition { return c.preconds }

// InconsistencyError reports pairs a component found to behave
// differently across the two versions.
type InconsistencyError struct {
	Component string
	Names     []lang.QualifiedName
}

func (e *InconsistencyError) Error() string {
	return fmt.Sprintf("%s found %d inconsistent function(s): %s",
		e.Component, len(e.Names), joinNames(e.Names))
}

// IncompleteError reports pairs left unchecked after every component ran.
type IncompleteError struct {
	Names []lang.QualifiedName
}

func (e *IncompleteError) Error() string {
	return fmt.Sprintf("%d function(s) left unchecked: %s",
		len(e.Names), joinNames(e.Names))
}

func joinNames(names []lang.QualifiedName) string {
	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = n.String()
	}
	return strings.Join(parts, ", ")
}
