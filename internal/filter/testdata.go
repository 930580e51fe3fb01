package filter

import (
	"fmt"
	"sort"
	"strings"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/loadtools/plangen/internal/plan"
)

// generatorFunctions maps generator names usable in behavior models to
// fabrication functions.
var generatorFunctions = map[string]func(*gofakeit.Faker) string{
	"name":      func(f *gofakeit.Faker) string { return f.Name() },
	"firstName": func(f *gofakeit.Faker) string { return f.FirstName() },
	"lastName":  func(f *gofakeit.Faker) string { return f.LastName() },
	"email":     func(f *gofakeit.Faker) string { return f.Email() },
	"phone":     func(f *gofakeit.Faker) string { return f.Phone() },
	"city":      func(f *gofakeit.Faker) string { return f.City() },
	"country":   func(f *gofakeit.Faker) string { return f.Country() },
	"company":   func(f *gofakeit.Faker) string { return f.Company() },
	"uuid":      func(f *gofakeit.Faker) string { return f.UUID() },
	"word":      func(f *gofakeit.Faker) string { return f.Word() },
	"sentence":  func(f *gofakeit.Faker) string { return f.Sentence(6) },
	"number": func(f *gofakeit.Faker) string {
		return fmt.Sprintf("%d", f.Number(1, 10000))
	},
}

// generatorSuffix marks argument properties that request fabricated values.
const generatorSuffix = ".generator"

// TestDataFilter materializes argument values declared with a generator
// name into concrete fabricated values. The faker is seeded at construction
// and arguments are visited in deterministic order, so identical trees
// always receive identical data.
type TestDataFilter struct {
	seed uint64
}

// NewTestDataFilter creates the filter with a fixed fabrication seed.
func NewTestDataFilter(seed uint64) *TestDataFilter {
	return &TestDataFilter{seed: seed}
}

// Name implements Filter.
func (tf *TestDataFilter) Name() string {
	return "testdata"
}

// Apply implements Filter.
func (tf *TestDataFilter) Apply(tree *plan.Tree) (*plan.Tree, error) {
	// A fresh faker per application keeps repeated generations identical.
	faker := gofakeit.New(tf.seed)

	var applyErr error
	tree.Walk(func(el *plan.Element) error {
		if el.Kind != plan.KindArguments {
			return nil
		}

		keys := make([]string, 0, len(el.Props))
		for k := range el.Props {
			if strings.HasSuffix(k, generatorSuffix) {
				keys = append(keys, k)
			}
		}
		sort.Strings(keys)

		for _, k := range keys {
			genName, _ := el.Props[k].(string)
			gen, ok := generatorFunctions[genName]
			if !ok {
				applyErr = fmt.Errorf("unknown generator %q for argument %q",
					genName, strings.TrimSuffix(k, generatorSuffix))
				return applyErr
			}
			el.SetProp(strings.TrimSuffix(k, generatorSuffix), gen(faker))
			delete(el.Props, k)
		}
		return nil
	})
	if applyErr != nil {
		return nil, applyErr
	}
	return tree, nil
}
