// Package filter provides post-assembly rewrite passes over a generated
// test plan tree. A chain is strictly sequential: the output of filter i is
// the input of filter i+1. Each filter receives a private clone and the
// chain adopts the result only on success, so a failing filter can never
// surface a half-mutated tree. Composing filters whose effects overlap is
// the caller's responsibility; the chain never reorders.
package filter

import (
	"errors"
	"fmt"

	"github.com/loadtools/plangen/internal/plan"
)

// Errors returned by the filter package.
var (
	// ErrFilterFailure is returned when a filter cannot complete its
	// rewrite.
	ErrFilterFailure = errors.New("filter: filter application failed")
	// ErrUnknownFilter is returned when a filter flag cannot be resolved.
	ErrUnknownFilter = errors.New("filter: unknown filter flag")
)

// Filter is a single tree-rewrite pass. Implementations are stateless
// across invocations beyond configuration captured at construction, and may
// freely mutate the tree they are given: the chain hands every filter a
// private clone.
type Filter interface {
	// Name identifies the filter in logs and error context.
	Name() string

	// Apply rewrites the tree and returns the result. On error the
	// returned tree must be nil.
	Apply(tree *plan.Tree) (*plan.Tree, error)
}

// Chain is an ordered filter sequence.
type Chain []Filter

// Apply runs every filter in order. The input tree is never mutated; on any
// filter error the chain aborts and returns the failing filter's name in
// the error context.
func (c Chain) Apply(tree *plan.Tree) (*plan.Tree, error) {
	current := tree
	for _, f := range c {
		next, err := f.Apply(current.Clone())
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrFilterFailure, f.Name(), err)
		}
		if next == nil {
			return nil, fmt.Errorf("%w: %s returned no tree",
				ErrFilterFailure, f.Name())
		}
		current = next
	}
	return current, nil
}

// Names returns the filter names in chain order.
func (c Chain) Names() []string {
	names := make([]string, len(c))
	for i, f := range c {
		names[i] = f.Name()
	}
	return names
}
