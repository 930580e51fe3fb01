package transform

import (
	"fmt"

	"github.com/loadtools/plangen/internal/factory"
	"github.com/loadtools/plangen/internal/model"
	"github.com/loadtools/plangen/internal/plan"
)

// SimpleTransformer produces one flat session-controller hierarchy per
// behavior model: every state becomes a transaction controller holding its
// sampler, its optional think-time timer and, when the state has outgoing
// edges, a selection controller with one normalized weighted branch per
// edge. Traversal follows declaration order throughout, so output is
// reproducible for identical input.
type SimpleTransformer struct{}

// NewSimpleTransformer creates the strategy.
func NewSimpleTransformer() *SimpleTransformer {
	return &SimpleTransformer{}
}

// Name implements Transformer.
func (st *SimpleTransformer) Name() string {
	return "simple"
}

// Transform implements Transformer.
func (st *SimpleTransformer) Transform(m *model.WorkloadModel, f *factory.Factory) (*plan.Tree, error) {
	root, err := f.CreateTestPlan(m.Name, plan.Properties{
		"intensity.type":    m.WorkloadIntensity.Type,
		"intensity.users":   m.WorkloadIntensity.Users,
		"intensity.rampUp":  m.WorkloadIntensity.RampUpSeconds,
		"intensity.formula": m.WorkloadIntensity.Formula,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: test plan root: %w",
			ErrUnmappableConstruct, err)
	}

	for i := range m.BehaviorModels {
		bm := &m.BehaviorModels[i]
		session, err := st.buildSession(bm, f)
		if err != nil {
			return nil, fmt.Errorf("user type %q: %w", bm.Name, err)
		}
		if err := root.AddChild(session); err != nil {
			return nil, fmt.Errorf("%w: user type %q: %w",
				ErrUnmappableConstruct, bm.Name, err)
		}
	}

	return plan.NewTree(root), nil
}

// buildSession maps one behavior graph onto a session controller.
func (st *SimpleTransformer) buildSession(bm *model.BehaviorModel, f *factory.Factory) (*plan.Element, error) {
	session, err := f.CreateSessionController(bm.Name, plan.Properties{
		"initialState": bm.InitialState,
		"frequency":    bm.Frequency,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: session controller: %w",
			ErrUnmappableConstruct, err)
	}

	for i := range bm.States {
		state := &bm.States[i]
		controller, err := st.buildState(state, f)
		if err != nil {
			return nil, fmt.Errorf("state %q: %w", state.Name, err)
		}
		if err := session.AddChild(controller); err != nil {
			return nil, fmt.Errorf("%w: state %q: %w",
				ErrUnmappableConstruct, state.Name, err)
		}
	}

	return session, nil
}

// buildState maps one state onto a transaction controller.
func (st *SimpleTransformer) buildState(state *model.State, f *factory.Factory) (*plan.Element, error) {
	controller, err := f.CreateTransactionController(state.Name, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: transaction controller: %w",
			ErrUnmappableConstruct, err)
	}

	sampler, err := st.buildSampler(state, f)
	if err != nil {
		return nil, err
	}
	if err := controller.AddChild(sampler); err != nil {
		return nil, fmt.Errorf("%w: sampler: %w", ErrUnmappableConstruct, err)
	}

	// Timing elements are attached only when the model carries think-time
	// metadata; an absent think time never becomes a zero placeholder, in
	// either validation mode, so forced and lenient trees keep the same
	// shape.
	if state.ThinkTime != nil {
		timer, err := f.CreateTimer(state.Name+" think time", plan.Properties{
			"delay":     state.ThinkTime.Mean,
			"deviation": state.ThinkTime.Deviation,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: timer: %w",
				ErrUnmappableConstruct, err)
		}
		if err := controller.AddChild(timer); err != nil {
			return nil, fmt.Errorf("%w: timer: %w",
				ErrUnmappableConstruct, err)
		}
	}

	if len(state.Transitions) > 0 {
		selection, err := st.buildSelection(state, f)
		if err != nil {
			return nil, err
		}
		if err := controller.AddChild(selection); err != nil {
			return nil, fmt.Errorf("%w: selection controller: %w",
				ErrUnmappableConstruct, err)
		}
	}

	return controller, nil
}

// buildSampler maps a state's request onto a sampler element.
func (st *SimpleTransformer) buildSampler(state *model.State, f *factory.Factory) (*plan.Element, error) {
	overrides := plan.Properties{
		"path":   state.Request.Path,
		"method": state.Request.Method,
	}
	if state.Request.OperationID != "" {
		overrides["operationId"] = state.Request.OperationID
	}

	sampler, err := f.CreateSampler(state.Name, overrides)
	if err != nil {
		return nil, fmt.Errorf("%w: sampler: %w", ErrUnmappableConstruct, err)
	}

	if len(state.Request.Parameters) > 0 {
		argProps := make(plan.Properties, len(state.Request.Parameters))
		for _, p := range state.Request.Parameters {
			if p.Generator != "" {
				argProps[p.Name+".generator"] = p.Generator
			}
			argProps[p.Name] = p.Value
		}
		args, err := f.CreateArguments(state.Name+" arguments", argProps)
		if err != nil {
			return nil, fmt.Errorf("%w: arguments: %w",
				ErrUnmappableConstruct, err)
		}
		if err := sampler.AddChild(args); err != nil {
			return nil, fmt.Errorf("%w: arguments: %w",
				ErrUnmappableConstruct, err)
		}
	}

	return sampler, nil
}

// buildSelection maps a state's outgoing edges onto a weighted-random
// selection controller. Branch weights are the normalized transition
// probabilities and always sum to 1.0.
func (st *SimpleTransformer) buildSelection(state *model.State, f *factory.Factory) (*plan.Element, error) {
	probs := make([]float64, len(state.Transitions))
	for i, tr := range state.Transitions {
		probs[i] = tr.Probability
	}
	weights, err := normalizeWeights(probs)
	if err != nil {
		return nil, err
	}

	selection, err := f.CreateSelectionController(state.Name+" transitions", nil)
	if err != nil {
		return nil, fmt.Errorf("%w: selection controller: %w",
			ErrUnmappableConstruct, err)
	}

	for i, tr := range state.Transitions {
		props := plan.Properties{
			"target": tr.Target,
			"weight": weights[i],
		}
		if tr.Guard != "" {
			props["guard"] = plan.Expression(tr.Guard)
		}
		if tr.Action != "" {
			props["action"] = plan.Expression(tr.Action)
		}

		branch, err := f.CreateBranch(tr.Target, props)
		if err != nil {
			return nil, fmt.Errorf("%w: branch to %q: %w",
				ErrUnmappableConstruct, tr.Target, err)
		}
		if err := selection.AddChild(branch); err != nil {
			return nil, fmt.Errorf("%w: branch to %q: %w",
				ErrUnmappableConstruct, tr.Target, err)
		}
	}

	return selection, nil
}
