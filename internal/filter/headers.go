package filter

import (
	"fmt"
	"sort"

	"github.com/loadtools/plangen/internal/factory"
	"github.com/loadtools/plangen/internal/plan"
)

// headerManagerName is the display name of the injected header manager.
const headerManagerName = "HTTP Header Defaults"

// defaultHeaders are the request headers injected when the caller supplies
// none.
var defaultHeaders = map[string]string{
	"Accept":          "*/*",
	"Accept-Encoding": "gzip, deflate",
	"User-Agent":      "plangen",
}

// HeaderDefaultsFilter injects a header-manager config element as the first
// child of every session controller so that all samplers of a session share
// one set of default request headers.
type HeaderDefaultsFilter struct {
	factory *factory.Factory
	headers map[string]string
}

// NewHeaderDefaultsFilter creates the filter. A nil or empty headers map
// selects the built-in defaults.
func NewHeaderDefaultsFilter(f *factory.Factory, headers map[string]string) *HeaderDefaultsFilter {
	if len(headers) == 0 {
		headers = defaultHeaders
	}
	return &HeaderDefaultsFilter{factory: f, headers: headers}
}

// Name implements Filter.
func (hf *HeaderDefaultsFilter) Name() string {
	return "headers"
}

// Apply implements Filter.
func (hf *HeaderDefaultsFilter) Apply(tree *plan.Tree) (*plan.Tree, error) {
	for _, session := range tree.Find(plan.KindSessionController) {
		manager, err := hf.factory.CreateConfigElement(headerManagerName, nil)
		if err != nil {
			return nil, fmt.Errorf("creating header manager: %w", err)
		}

		keys := make([]string, 0, len(hf.headers))
		for k := range hf.headers {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			manager.SetProp("header."+k, hf.headers[k])
		}

		// Config elements apply to all following siblings, so the
		// manager goes first.
		if err := session.InsertChild(0, manager); err != nil {
			return nil, fmt.Errorf("inserting header manager: %w", err)
		}
	}
	return tree, nil
}
