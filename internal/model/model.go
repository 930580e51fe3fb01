// Package model defines the probabilistic behavior model consumed by the
// transformation pipeline and its YAML interchange loader. The model is a
// directed graph per simulated user type: nodes are request states, edges
// carry transition probabilities and optional guard and think-time metadata.
//
// The internal probability consistency of the model (outgoing probabilities
// summing to 1.0) is the contract of the upstream producer and is not
// re-validated here; the loader only checks structural integrity.
package model

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Errors returned by the model package.
var (
	// ErrModelNotFound is returned when the model file does not exist.
	ErrModelNotFound = errors.New("model: model file not found")
	// ErrInvalidModel is returned when the model is structurally invalid.
	ErrInvalidModel = errors.New("model: invalid behavior model")
)

// WorkloadModel is the top-level behavior model: one behavior graph per
// simulated user type plus a workload-intensity descriptor.
type WorkloadModel struct {
	// Name is a descriptive name for the model.
	Name string `yaml:"name" json:"name"`

	// Version is the interchange schema version.
	Version string `yaml:"version,omitempty" json:"version,omitempty"`

	// WorkloadIntensity governs population and arrival behavior across
	// all user types.
	WorkloadIntensity WorkloadIntensity `yaml:"workloadIntensity" json:"workloadIntensity"`

	// BehaviorModels holds one session graph per user type, in
	// declaration order.
	BehaviorModels []BehaviorModel `yaml:"behaviorModels" json:"behaviorModels"`
}

// WorkloadIntensity describes simulated population and arrival behavior.
type WorkloadIntensity struct {
	// Type is the intensity type (e.g., "constant").
	Type string `yaml:"type" json:"type"`

	// Formula is an optional intensity formula evaluated by the engine.
	Formula string `yaml:"formula,omitempty" json:"formula,omitempty"`

	// Users is the simulated population size.
	Users int `yaml:"users,omitempty" json:"users,omitempty"`

	// RampUpSeconds is the ramp-up period for the population.
	RampUpSeconds int `yaml:"rampUpSeconds,omitempty" json:"rampUpSeconds,omitempty"`
}

// BehaviorModel is the session graph of one user type.
type BehaviorModel struct {
	// Name identifies the user type.
	Name string `yaml:"name" json:"name"`

	// InitialState names the entry state of the session.
	InitialState string `yaml:"initialState" json:"initialState"`

	// Frequency is the relative share of this user type in the mix.
	// Default: 1.0
	Frequency float64 `yaml:"frequency,omitempty" json:"frequency,omitempty"`

	// States are the request states of the graph, in declaration order.
	States []State `yaml:"states" json:"states"`
}

// State is one request state of a behavior graph.
type State struct {
	// Name is the unique state identifier within its behavior model.
	Name string `yaml:"name" json:"name"`

	// Request describes the service invocation issued in this state.
	Request Request `yaml:"request" json:"request"`

	// ThinkTime is the optional per-state think-time metadata. When nil,
	// no timing element is attached to the generated state.
	ThinkTime *ThinkTime `yaml:"thinkTime,omitempty" json:"thinkTime,omitempty"`

	// Transitions are the outgoing edges, in declaration order.
	Transitions []Transition `yaml:"transitions,omitempty" json:"transitions,omitempty"`
}

// Request describes a modeled service invocation.
type Request struct {
	// OperationID optionally links the request to an API operation.
	OperationID string `yaml:"operationId,omitempty" json:"operationId,omitempty"`

	// Path is the URL path of the invocation.
	Path string `yaml:"path,omitempty" json:"path,omitempty"`

	// Method is the HTTP method. Default: GET.
	Method string `yaml:"method,omitempty" json:"method,omitempty"`

	// Parameters are modeled request parameters.
	Parameters []Parameter `yaml:"parameters,omitempty" json:"parameters,omitempty"`
}

// Parameter is one modeled request parameter.
type Parameter struct {
	// Name is the parameter name.
	Name string `yaml:"name" json:"name"`

	// Value is a static parameter value.
	Value string `yaml:"value,omitempty" json:"value,omitempty"`

	// Generator optionally names a data generator used to fabricate a
	// value for this parameter (e.g., "email", "name", "uuid").
	Generator string `yaml:"generator,omitempty" json:"generator,omitempty"`
}

// ThinkTime is per-state timing metadata in milliseconds.
type ThinkTime struct {
	// Mean is the mean think time.
	Mean float64 `yaml:"mean" json:"mean"`

	// Deviation is the think-time deviation.
	Deviation float64 `yaml:"deviation,omitempty" json:"deviation,omitempty"`
}

// Transition is one outgoing edge of a state.
type Transition struct {
	// Target names the destination state.
	Target string `yaml:"target" json:"target"`

	// Probability is the transition probability.
	Probability float64 `yaml:"probability" json:"probability"`

	// Guard is an optional guard expression evaluated by the engine.
	Guard string `yaml:"guard,omitempty" json:"guard,omitempty"`

	// Action is an optional action expression evaluated by the engine.
	Action string `yaml:"action,omitempty" json:"action,omitempty"`
}

// LoadFromFile loads a workload model from a YAML interchange file.
func LoadFromFile(path string) (*WorkloadModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrModelNotFound, path)
		}
		return nil, fmt.Errorf("reading model file: %w", err)
	}
	return LoadFromBytes(data)
}

// LoadFromBytes loads a workload model from YAML bytes.
func LoadFromBytes(data []byte) (*WorkloadModel, error) {
	var m WorkloadModel
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing model: %w", err)
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}

	m.ApplyDefaults()
	return &m, nil
}

// Validate checks the structural integrity of the model: unique names,
// resolvable transition targets and a resolvable initial state.
func (m *WorkloadModel) Validate() error {
	if m.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidModel)
	}
	if len(m.BehaviorModels) == 0 {
		return fmt.Errorf("%w: at least one behavior model is required",
			ErrInvalidModel)
	}

	modelNames := make(map[string]bool)
	for i, bm := range m.BehaviorModels {
		if bm.Name == "" {
			return fmt.Errorf("%w: behaviorModels[%d].name is required",
				ErrInvalidModel, i)
		}
		if modelNames[bm.Name] {
			return fmt.Errorf("%w: duplicate behavior model name: %s",
				ErrInvalidModel, bm.Name)
		}
		modelNames[bm.Name] = true

		if len(bm.States) == 0 {
			return fmt.Errorf("%w: behavior model %s has no states",
				ErrInvalidModel, bm.Name)
		}

		stateNames := make(map[string]bool)
		for j, st := range bm.States {
			if st.Name == "" {
				return fmt.Errorf("%w: %s states[%d].name is required",
					ErrInvalidModel, bm.Name, j)
			}
			if stateNames[st.Name] {
				return fmt.Errorf("%w: duplicate state name in %s: %s",
					ErrInvalidModel, bm.Name, st.Name)
			}
			stateNames[st.Name] = true
		}

		if bm.InitialState == "" {
			return fmt.Errorf("%w: behavior model %s has no initial state",
				ErrInvalidModel, bm.Name)
		}
		if !stateNames[bm.InitialState] {
			return fmt.Errorf("%w: initial state %s not found in %s",
				ErrInvalidModel, bm.InitialState, bm.Name)
		}

		for _, st := range bm.States {
			for _, tr := range st.Transitions {
				if !stateNames[tr.Target] {
					return fmt.Errorf(
						"%w: transition target %s not found (state %s in %s)",
						ErrInvalidModel, tr.Target, st.Name, bm.Name)
				}
			}
		}
	}

	return nil
}

// ApplyDefaults applies default values to unset fields.
func (m *WorkloadModel) ApplyDefaults() {
	if m.Version == "" {
		m.Version = "1.0"
	}
	if m.WorkloadIntensity.Type == "" {
		m.WorkloadIntensity.Type = "constant"
	}
	if m.WorkloadIntensity.Users == 0 {
		m.WorkloadIntensity.Users = 1
	}

	for i := range m.BehaviorModels {
		if m.BehaviorModels[i].Frequency == 0 {
			m.BehaviorModels[i].Frequency = 1.0
		}
		for j := range m.BehaviorModels[i].States {
			if m.BehaviorModels[i].States[j].Request.Method == "" {
				m.BehaviorModels[i].States[j].Request.Method = "GET"
			}
		}
	}
}

// GetBehaviorModel returns a behavior model by user-type name.
func (m *WorkloadModel) GetBehaviorModel(name string) *BehaviorModel {
	for i := range m.BehaviorModels {
		if m.BehaviorModels[i].Name == name {
			return &m.BehaviorModels[i]
		}
	}
	return nil
}

// GetState returns a state by name.
func (bm *BehaviorModel) GetState(name string) *State {
	for i := range bm.States {
		if bm.States[i].Name == name {
			return &bm.States[i]
		}
	}
	return nil
}
