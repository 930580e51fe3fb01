// Package plan defines the test plan element tree produced by the
// transformation pipeline. Elements are typed nodes with ordered children;
// child order dictates execution order in the generated plan.
package plan

import (
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Errors returned by the plan package.
var (
	// ErrUnknownKind is returned when an element kind is not part of the
	// closed kind set.
	ErrUnknownKind = errors.New("plan: unknown element kind")
	// ErrInvalidChild is returned when a child element may not nest under
	// its parent's kind.
	ErrInvalidChild = errors.New("plan: invalid child element")
)

// Kind identifies the type of a test plan element. The set is closed; only
// the element factory may construct elements of these kinds.
type Kind string

// Supported element kinds.
const (
	KindTestPlan              Kind = "testPlan"
	KindSessionController     Kind = "sessionController"
	KindTransactionController Kind = "transactionController"
	KindSelectionController   Kind = "selectionController"
	KindBranch                Kind = "weightedBranch"
	KindSampler               Kind = "sampler"
	KindTimer                 Kind = "timer"
	KindConfigElement         Kind = "configElement"
	KindListener              Kind = "listener"
	KindArguments             Kind = "arguments"
	KindLoopController        Kind = "loopController"
	KindWhileController       Kind = "whileController"
	KindIfController          Kind = "ifController"
	KindCounterConfig         Kind = "counterConfig"
)

// allKinds is the closed kind set used for validation.
var allKinds = map[Kind]bool{
	KindTestPlan:              true,
	KindSessionController:     true,
	KindTransactionController: true,
	KindSelectionController:   true,
	KindBranch:                true,
	KindSampler:               true,
	KindTimer:                 true,
	KindConfigElement:         true,
	KindListener:              true,
	KindArguments:             true,
	KindLoopController:        true,
	KindWhileController:       true,
	KindIfController:          true,
	KindCounterConfig:         true,
}

// Valid reports whether the kind belongs to the closed kind set.
func (k Kind) Valid() bool {
	return allKinds[k]
}

// allowedChildren constrains which kinds may nest under a given kind.
// Kinds absent from the map accept no children.
var allowedChildren = map[Kind]map[Kind]bool{
	KindTestPlan: {
		KindSessionController: true,
		KindConfigElement:     true,
		KindListener:          true,
		KindArguments:         true,
	},
	KindSessionController: {
		KindTransactionController: true,
		KindConfigElement:         true,
		KindTimer:                 true,
		KindListener:              true,
		KindCounterConfig:         true,
	},
	KindTransactionController: {
		KindSampler:             true,
		KindTimer:               true,
		KindSelectionController: true,
		KindConfigElement:       true,
	},
	KindSelectionController: {
		KindBranch: true,
	},
	KindBranch: {},
	KindSampler: {
		KindArguments: true,
		KindTimer:     true,
	},
	KindLoopController: {
		KindSampler:               true,
		KindTransactionController: true,
		KindTimer:                 true,
	},
	KindWhileController: {
		KindSampler:               true,
		KindTransactionController: true,
		KindTimer:                 true,
	},
	KindIfController: {
		KindSampler:               true,
		KindTransactionController: true,
		KindTimer:                 true,
	},
}

// Expression is a property value that is evaluated by the execution engine
// at runtime rather than taken literally.
type Expression string

// Properties maps property names to typed values. Legal value types are
// string, int, int64, float64, bool and Expression.
type Properties map[string]any

// Clone returns a deep copy of the property set.
func (p Properties) Clone() Properties {
	if p == nil {
		return nil
	}
	out := make(Properties, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Element is a single node of the test plan tree.
type Element struct {
	// ID is a deterministic identifier assigned by Tree.AssignIDs.
	ID string
	// Kind is the element type.
	Kind Kind
	// Name is the display name of the element.
	Name string
	// Enabled marks whether the execution engine should run this element.
	Enabled bool
	// Props holds the element's resolved properties.
	Props Properties
	// Children are nested elements in execution order.
	Children []*Element
}

// NewElement creates a bare element of the given kind. Callers outside the
// factory should not use this directly; the factory guarantees that elements
// leave construction fully resolved.
func NewElement(kind Kind, name string) (*Element, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return &Element{
		Kind:    kind,
		Name:    name,
		Enabled: true,
		Props:   make(Properties),
	}, nil
}

// AddChild appends a child element, enforcing the nesting rules for the
// parent's kind. Insertion order is preserved.
func (e *Element) AddChild(child *Element) error {
	return e.InsertChild(len(e.Children), child)
}

// InsertChild places the child at position i, shifting later children
// right. Position len(Children) appends. The same nesting rules as
// AddChild apply.
func (e *Element) InsertChild(i int, child *Element) error {
	if child == nil {
		return fmt.Errorf("%w: nil child under %q", ErrInvalidChild, e.Kind)
	}
	allowed, ok := allowedChildren[e.Kind]
	if !ok || !allowed[child.Kind] {
		return fmt.Errorf("%w: %q may not nest under %q",
			ErrInvalidChild, child.Kind, e.Kind)
	}
	if i < 0 || i > len(e.Children) {
		return fmt.Errorf("%w: position %d out of range under %q",
			ErrInvalidChild, i, e.Kind)
	}
	e.Children = append(e.Children, nil)
	copy(e.Children[i+1:], e.Children[i:])
	e.Children[i] = child
	return nil
}

// SetProp sets a single property value.
func (e *Element) SetProp(key string, value any) {
	if e.Props == nil {
		e.Props = make(Properties)
	}
	e.Props[key] = value
}

// StringProp returns a string property, or "" when absent or not a string.
func (e *Element) StringProp(key string) string {
	if v, ok := e.Props[key].(string); ok {
		return v
	}
	return ""
}

// FloatProp returns a numeric property as float64, or 0 when absent.
func (e *Element) FloatProp(key string) float64 {
	switch v := e.Props[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return 0
}

// BoolProp returns a boolean property, or false when absent.
func (e *Element) BoolProp(key string) bool {
	if v, ok := e.Props[key].(bool); ok {
		return v
	}
	return false
}

// Clone returns a deep copy of the element and all of its descendants.
func (e *Element) Clone() *Element {
	if e == nil {
		return nil
	}
	out := &Element{
		ID:      e.ID,
		Kind:    e.Kind,
		Name:    e.Name,
		Enabled: e.Enabled,
		Props:   e.Props.Clone(),
	}
	if len(e.Children) > 0 {
		out.Children = make([]*Element, len(e.Children))
		for i, c := range e.Children {
			out.Children[i] = c.Clone()
		}
	}
	return out
}

// Find returns all descendants of the given kind, self included, in
// pre-order traversal.
func (e *Element) Find(kind Kind) []*Element {
	var matches []*Element
	e.walk(func(el *Element) error {
		if el.Kind == kind {
			matches = append(matches, el)
		}
		return nil
	})
	return matches
}

func (e *Element) walk(fn func(*Element) error) error {
	if err := fn(e); err != nil {
		return err
	}
	for _, c := range e.Children {
		if err := c.walk(fn); err != nil {
			return err
		}
	}
	return nil
}

// MarshalYAML serializes the element with properties in sorted key order so
// that identical trees always produce identical documents.
func (e *Element) MarshalYAML() (any, error) {
	root := &yaml.Node{Kind: yaml.MappingNode}
	appendStr := func(key, val string) {
		root.Content = append(root.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: key},
			&yaml.Node{Kind: yaml.ScalarNode, Value: val})
	}
	appendAny := func(key string, val any) error {
		keyNode := &yaml.Node{Kind: yaml.ScalarNode, Value: key}
		valNode := &yaml.Node{}
		if err := valNode.Encode(val); err != nil {
			return err
		}
		root.Content = append(root.Content, keyNode, valNode)
		return nil
	}

	appendStr("id", e.ID)
	appendStr("kind", string(e.Kind))
	appendStr("name", e.Name)
	if err := appendAny("enabled", e.Enabled); err != nil {
		return nil, err
	}

	if len(e.Props) > 0 {
		keys := make([]string, 0, len(e.Props))
		for k := range e.Props {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		props := &yaml.Node{Kind: yaml.MappingNode}
		for _, k := range keys {
			valNode := &yaml.Node{}
			if err := valNode.Encode(e.Props[k]); err != nil {
				return nil, err
			}
			props.Content = append(props.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Value: k}, valNode)
		}
		root.Content = append(root.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: "properties"}, props)
	}

	if len(e.Children) > 0 {
		childrenNode := &yaml.Node{}
		if err := childrenNode.Encode(e.Children); err != nil {
			return nil, err
		}
		root.Content = append(root.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: "children"}, childrenNode)
	}

	return root, nil
}

// Tree is the rooted, ordered test plan tree. It is created by a
// transformer, rewritten by filters, and finally handed to the writer; no
// other component mutates it.
type Tree struct {
	Root *Element
}

// NewTree wraps a root element into a tree.
func NewTree(root *Element) *Tree {
	return &Tree{Root: root}
}

// Clone returns a deep copy of the tree.
func (t *Tree) Clone() *Tree {
	if t == nil {
		return nil
	}
	return &Tree{Root: t.Root.Clone()}
}

// Walk visits every element in pre-order, children in insertion order.
// Traversal stops at the first error.
func (t *Tree) Walk(fn func(*Element) error) error {
	if t == nil || t.Root == nil {
		return nil
	}
	return t.Root.walk(fn)
}

// Find returns all elements of the given kind in pre-order.
func (t *Tree) Find(kind Kind) []*Element {
	if t == nil || t.Root == nil {
		return nil
	}
	return t.Root.Find(kind)
}

// Size returns the number of elements in the tree.
func (t *Tree) Size() int {
	n := 0
	t.Walk(func(*Element) error {
		n++
		return nil
	})
	return n
}

// idNamespace is the fixed UUID namespace for element IDs. Deriving IDs from
// the tree path keeps repeated generations of the same model byte-identical.
var idNamespace = uuid.MustParse("6f1c29aa-41d3-4f4b-9be0-1d8c77a0a6de")

// AssignIDs walks the tree and assigns every element a deterministic ID
// derived from its position, kind and name.
func (t *Tree) AssignIDs() {
	if t == nil || t.Root == nil {
		return
	}
	var assign func(e *Element, path string)
	assign = func(e *Element, path string) {
		e.ID = uuid.NewSHA1(idNamespace, []byte(path)).String()
		for i, c := range e.Children {
			assign(c, fmt.Sprintf("%s/%d:%s:%s", path, i, c.Kind, c.Name))
		}
	}
	assign(t.Root, fmt.Sprintf("0:%s:%s", t.Root.Kind, t.Root.Name))
}
