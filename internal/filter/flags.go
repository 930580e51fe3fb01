package filter

import (
	"fmt"
	"strings"

	"github.com/loadtools/plangen/internal/factory"
)

// Options carries the construction parameters of flag-selected filters.
type Options struct {
	// Headers overrides the injected default headers (nil selects the
	// built-in set).
	Headers map[string]string

	// ThinkTimeMean and ThinkTimeDeviation configure the gaussian
	// think-time filter, in milliseconds.
	ThinkTimeMean      float64
	ThinkTimeDeviation float64

	// OpenAPIPath is the OpenAPI document for the request defaults
	// filter.
	OpenAPIPath string

	// Seed is the fabrication seed for the test data filter.
	Seed uint64
}

// Resolve builds a filter chain from a comma-separated flag string, e.g.
// "headers,thinktime". Chain order follows flag order. An empty string
// resolves to an empty chain.
func Resolve(flags string, f *factory.Factory, opts Options) (Chain, error) {
	var chain Chain
	for _, flag := range strings.Split(flags, ",") {
		flag = strings.TrimSpace(flag)
		if flag == "" {
			continue
		}
		switch flag {
		case "headers":
			chain = append(chain, NewHeaderDefaultsFilter(f, opts.Headers))
		case "thinktime":
			tt, err := NewGaussianThinkTimeFilter(
				opts.ThinkTimeMean, opts.ThinkTimeDeviation)
			if err != nil {
				return nil, err
			}
			chain = append(chain, tt)
		case "requestdefaults":
			rd, err := NewRequestDefaultsFilter(opts.OpenAPIPath)
			if err != nil {
				return nil, err
			}
			chain = append(chain, rd)
		case "testdata":
			chain = append(chain, NewTestDataFilter(opts.Seed))
		default:
			return nil, fmt.Errorf("%w: %q", ErrUnknownFilter, flag)
		}
	}
	return chain, nil
}
