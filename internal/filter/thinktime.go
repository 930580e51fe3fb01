package filter

import (
	"fmt"

	"github.com/loadtools/plangen/internal/plan"
)

// GaussianThinkTimeFilter overrides every think-time timer in the tree with
// a gaussian mean/deviation pair, replacing whatever per-state timing the
// transformer emitted. Values are milliseconds.
type GaussianThinkTimeFilter struct {
	mean      float64
	deviation float64
}

// NewGaussianThinkTimeFilter creates the filter.
func NewGaussianThinkTimeFilter(mean, deviation float64) (*GaussianThinkTimeFilter, error) {
	if mean < 0 || deviation < 0 {
		return nil, fmt.Errorf("%w: negative gaussian think time (mean=%v, deviation=%v)",
			ErrFilterFailure, mean, deviation)
	}
	return &GaussianThinkTimeFilter{mean: mean, deviation: deviation}, nil
}

// Name implements Filter.
func (gf *GaussianThinkTimeFilter) Name() string {
	return "thinktime"
}

// Apply implements Filter.
func (gf *GaussianThinkTimeFilter) Apply(tree *plan.Tree) (*plan.Tree, error) {
	for _, timer := range tree.Find(plan.KindTimer) {
		timer.SetProp("delay", gf.mean)
		timer.SetProp("deviation", gf.deviation)
		timer.SetProp("distribution", "gaussian")
	}
	return tree, nil
}
