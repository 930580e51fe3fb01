// Package transform maps behavior models onto test plan trees. A
// Transformer is one structural strategy; Run drives a transformer and then
// applies the caller's filter chain in order, failing the whole generation
// on the first unrecoverable error so that no partial tree ever escapes.
package transform

import (
	"errors"
	"fmt"

	"github.com/loadtools/plangen/internal/factory"
	"github.com/loadtools/plangen/internal/filter"
	"github.com/loadtools/plangen/internal/model"
	"github.com/loadtools/plangen/internal/plan"
)

// Errors returned by the transform package.
var (
	// ErrUnmappableConstruct is returned when a model construct cannot be
	// mapped onto a test plan element.
	ErrUnmappableConstruct = errors.New(
		"transform: model construct cannot be mapped")
	// ErrInconsistentWeights is returned when a state's outgoing
	// transition probabilities cannot form a valid weight set.
	ErrInconsistentWeights = errors.New(
		"transform: inconsistent transition weights")
)

// Transformer builds a test plan tree from a workload model. A transformer
// must traverse each behavior graph exactly once, in declaration order, so
// that identical inputs always produce identical trees.
type Transformer interface {
	// Name identifies the strategy.
	Name() string

	// Transform assembles the tree using the given factory.
	Transform(m *model.WorkloadModel, f *factory.Factory) (*plan.Tree, error)
}

// Run executes the full transformation: tree assembly followed by the
// filter chain in caller order. An empty chain returns the transformer's
// raw output unchanged. On any error no tree is returned.
func Run(t Transformer, m *model.WorkloadModel, f *factory.Factory, filters filter.Chain) (*plan.Tree, error) {
	tree, err := t.Transform(m, f)
	if err != nil {
		return nil, fmt.Errorf("transformer %s: %w", t.Name(), err)
	}

	if len(filters) == 0 {
		return tree, nil
	}

	filtered, err := filters.Apply(tree)
	if err != nil {
		return nil, err
	}
	return filtered, nil
}
