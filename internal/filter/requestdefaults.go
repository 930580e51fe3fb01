package filter

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/loadtools/plangen/internal/plan"
)

// operationDefaults is what the filter resolves per API operation.
type operationDefaults struct {
	path           string
	method         string
	expectedStatus int
}

// RequestDefaultsFilter fills unset sampler request properties (path,
// method, expected status) from an OpenAPI document. Samplers are matched
// to operations by their "operationId" property; samplers without one, or
// with an operation id the document does not define, are left untouched.
type RequestDefaultsFilter struct {
	operations map[string]operationDefaults
}

// NewRequestDefaultsFilter loads and validates the OpenAPI document and
// builds the operation index.
func NewRequestDefaultsFilter(specPath string) (*RequestDefaultsFilter, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromFile(specPath)
	if err != nil {
		return nil, fmt.Errorf("loading OpenAPI document %s: %w", specPath, err)
	}
	if err := doc.Validate(loader.Context); err != nil {
		return nil, fmt.Errorf("validating OpenAPI document %s: %w", specPath, err)
	}

	operations := make(map[string]operationDefaults)
	for path, item := range doc.Paths.Map() {
		for method, op := range item.Operations() {
			if op.OperationID == "" {
				continue
			}
			operations[op.OperationID] = operationDefaults{
				path:           path,
				method:         strings.ToUpper(method),
				expectedStatus: successStatus(op),
			}
		}
	}

	return &RequestDefaultsFilter{operations: operations}, nil
}

// successStatus picks the lowest declared 2xx response code, or 200 when
// the operation declares none.
func successStatus(op *openapi3.Operation) int {
	if op.Responses == nil {
		return 200
	}
	var codes []int
	for code := range op.Responses.Map() {
		n, err := strconv.Atoi(code)
		if err != nil {
			continue
		}
		if n >= 200 && n < 300 {
			codes = append(codes, n)
		}
	}
	if len(codes) == 0 {
		return 200
	}
	sort.Ints(codes)
	return codes[0]
}

// Name implements Filter.
func (rf *RequestDefaultsFilter) Name() string {
	return "requestdefaults"
}

// Apply implements Filter.
func (rf *RequestDefaultsFilter) Apply(tree *plan.Tree) (*plan.Tree, error) {
	for _, sampler := range tree.Find(plan.KindSampler) {
		opID := sampler.StringProp("operationId")
		if opID == "" {
			continue
		}
		defaults, ok := rf.operations[opID]
		if !ok {
			continue
		}

		if sampler.StringProp("path") == "" {
			sampler.SetProp("path", defaults.path)
		}
		if sampler.StringProp("method") == "" {
			sampler.SetProp("method", defaults.method)
		}
		if sampler.FloatProp("expectedStatus") == 0 {
			sampler.SetProp("expectedStatus", defaults.expectedStatus)
		}
	}
	return tree, nil
}
