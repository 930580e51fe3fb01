// Package factory is the sole authority for constructing test plan
// elements. Every element leaves the factory fully resolved: explicit
// overrides win, configured defaults fill the rest, and in forced mode a
// property without either aborts construction instead of being substituted.
package factory

import (
	"errors"
	"fmt"

	"github.com/loadtools/plangen/internal/config"
	"github.com/loadtools/plangen/internal/plan"
)

// Errors returned by the factory package.
var (
	// ErrUndefinedRequiredProperty is returned in forced mode when a
	// property has neither an override nor a configured default.
	ErrUndefinedRequiredProperty = errors.New(
		"factory: required property is undefined")
)

// propType selects the typed accessor and the lenient-mode neutral value
// for a default property.
type propType int

const (
	typeString propType = iota
	typeInt
	typeFloat
	typeBool
)

// propSpec names one required property of an element kind.
type propSpec struct {
	key string
	typ propType
}

// elementSpecs lists the required properties per element kind. Defaults are
// looked up in the configuration under "<kind>.<property>".
var elementSpecs = map[plan.Kind][]propSpec{
	plan.KindTestPlan: {
		{"comment", typeString},
		{"serializeSessions", typeBool},
	},
	plan.KindSessionController: {
		{"comment", typeString},
	},
	plan.KindTransactionController: {
		{"comment", typeString},
		{"includeTimers", typeBool},
	},
	plan.KindSelectionController: {
		{"comment", typeString},
	},
	plan.KindBranch: {},
	plan.KindSampler: {
		{"comment", typeString},
		{"protocol", typeString},
		{"domain", typeString},
		{"port", typeInt},
		{"method", typeString},
		{"encoding", typeString},
		{"followRedirects", typeBool},
		{"useKeepAlive", typeBool},
	},
	plan.KindTimer: {
		{"comment", typeString},
		{"delay", typeFloat},
		{"deviation", typeFloat},
	},
	plan.KindConfigElement: {
		{"comment", typeString},
	},
	plan.KindListener: {
		{"comment", typeString},
		{"resultFile", typeString},
	},
	plan.KindArguments: {
		{"comment", typeString},
	},
	plan.KindLoopController: {
		{"comment", typeString},
		{"loops", typeInt},
		{"forever", typeBool},
	},
	plan.KindWhileController: {
		{"comment", typeString},
		{"condition", typeString},
	},
	plan.KindIfController: {
		{"comment", typeString},
		{"condition", typeString},
		{"evaluateAll", typeBool},
	},
	plan.KindCounterConfig: {
		{"comment", typeString},
		{"start", typeInt},
		{"increment", typeInt},
		{"maximum", typeInt},
		{"referenceName", typeString},
	},
}

// Factory builds test plan elements from a resolved default configuration.
// A factory is immutable after construction and safe for concurrent use.
type Factory struct {
	cfg    *config.Config
	forced bool
}

// New creates a factory bound to the given test plan defaults. The forced
// flag selects forced-argument mode for every creation operation.
func New(cfg *config.Config, forced bool) *Factory {
	return &Factory{cfg: cfg, forced: forced}
}

// Forced reports whether forced-argument mode is active.
func (f *Factory) Forced() bool {
	return f.forced
}

// create builds a fully resolved element of the given kind. Overrides win
// over configured defaults; resolution completes before the element is
// returned, so callers never observe a partially configured element.
func (f *Factory) create(kind plan.Kind, name string, overrides plan.Properties) (*plan.Element, error) {
	el, err := plan.NewElement(kind, name)
	if err != nil {
		return nil, err
	}

	for _, spec := range elementSpecs[kind] {
		if v, ok := overrides[spec.key]; ok {
			el.SetProp(spec.key, v)
			continue
		}

		cfgKey := fmt.Sprintf("%s.%s", kind, spec.key)
		if _, ok := f.cfg.Lookup(cfgKey); !ok {
			if f.forced {
				return nil, fmt.Errorf("%w: %q",
					ErrUndefinedRequiredProperty, cfgKey)
			}
			el.SetProp(spec.key, neutralValue(spec.typ))
			continue
		}

		val, err := f.configValue(cfgKey, spec.typ)
		if err != nil {
			return nil, err
		}
		el.SetProp(spec.key, val)
	}

	// Overrides beyond the required set are carried verbatim.
	for k, v := range overrides {
		if _, ok := el.Props[k]; !ok {
			el.SetProp(k, v)
		}
	}

	return el, nil
}

func (f *Factory) configValue(key string, typ propType) (any, error) {
	switch typ {
	case typeInt:
		return f.cfg.GetInt(key)
	case typeFloat:
		return f.cfg.GetFloat(key)
	case typeBool:
		return f.cfg.GetBool(key)
	default:
		return f.cfg.GetString(key)
	}
}

// neutralValue is the documented lenient-mode fallback per property type.
func neutralValue(typ propType) any {
	switch typ {
	case typeInt:
		return 0
	case typeFloat:
		return 0.0
	case typeBool:
		return false
	default:
		return ""
	}
}

// CreateTestPlan creates the test plan root element.
func (f *Factory) CreateTestPlan(name string, overrides plan.Properties) (*plan.Element, error) {
	return f.create(plan.KindTestPlan, name, overrides)
}

// CreateSessionController creates the per-user-type session container.
func (f *Factory) CreateSessionController(name string, overrides plan.Properties) (*plan.Element, error) {
	return f.create(plan.KindSessionController, name, overrides)
}

// CreateTransactionController creates a per-state request container.
func (f *Factory) CreateTransactionController(name string, overrides plan.Properties) (*plan.Element, error) {
	return f.create(plan.KindTransactionController, name, overrides)
}

// CreateSelectionController creates the weighted-random-selection construct
// that carries a state's outgoing transitions.
func (f *Factory) CreateSelectionController(name string, overrides plan.Properties) (*plan.Element, error) {
	return f.create(plan.KindSelectionController, name, overrides)
}

// CreateBranch creates one weighted branch of a selection controller.
func (f *Factory) CreateBranch(name string, overrides plan.Properties) (*plan.Element, error) {
	return f.create(plan.KindBranch, name, overrides)
}

// CreateSampler creates a request sampler.
func (f *Factory) CreateSampler(name string, overrides plan.Properties) (*plan.Element, error) {
	return f.create(plan.KindSampler, name, overrides)
}

// CreateTimer creates a think-time timer.
func (f *Factory) CreateTimer(name string, overrides plan.Properties) (*plan.Element, error) {
	return f.create(plan.KindTimer, name, overrides)
}

// CreateConfigElement creates a configuration element such as a header
// manager.
func (f *Factory) CreateConfigElement(name string, overrides plan.Properties) (*plan.Element, error) {
	return f.create(plan.KindConfigElement, name, overrides)
}

// CreateListener creates a results listener.
func (f *Factory) CreateListener(name string, overrides plan.Properties) (*plan.Element, error) {
	return f.create(plan.KindListener, name, overrides)
}

// CreateArguments creates an argument container.
func (f *Factory) CreateArguments(name string, overrides plan.Properties) (*plan.Element, error) {
	return f.create(plan.KindArguments, name, overrides)
}

// CreateLoopController creates a loop controller.
func (f *Factory) CreateLoopController(name string, overrides plan.Properties) (*plan.Element, error) {
	return f.create(plan.KindLoopController, name, overrides)
}

// CreateWhileController creates a while controller.
func (f *Factory) CreateWhileController(name string, overrides plan.Properties) (*plan.Element, error) {
	return f.create(plan.KindWhileController, name, overrides)
}

// CreateIfController creates an if controller.
func (f *Factory) CreateIfController(name string, overrides plan.Properties) (*plan.Element, error) {
	return f.create(plan.KindIfController, name, overrides)
}

// CreateCounterConfig creates a counter configuration element.
func (f *Factory) CreateCounterConfig(name string, overrides plan.Properties) (*plan.Element, error) {
	return f.create(plan.KindCounterConfig, name, overrides)
}
