package runner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loadtools/plangen/internal/config"
	"github.com/loadtools/plangen/internal/factory"
	"github.com/loadtools/plangen/internal/filter"
	"github.com/loadtools/plangen/internal/metrics"
	"github.com/loadtools/plangen/internal/model"
	"github.com/loadtools/plangen/internal/plan"
	"github.com/loadtools/plangen/internal/transform"
	"github.com/loadtools/plangen/internal/writer"
)

const generatorConfig = `
useForcedArguments: false
`

const forcedGeneratorConfig = `
useForcedArguments: true
`

const planDefaults = `
testPlan:
  comment: generated
  serializeSessions: false
sessionController:
  comment: ""
transactionController:
  comment: ""
  includeTimers: true
selectionController:
  comment: ""
sampler:
  comment: ""
  protocol: http
  domain: localhost
  port: 8080
  method: GET
  encoding: UTF-8
  followRedirects: true
  useKeepAlive: true
timer:
  comment: ""
  delay: 0.0
  deviation: 0.0
configElement:
  comment: ""
arguments:
  comment: ""
`

const sampleModel = `
name: webshop
behaviorModels:
  - name: customer
    initialState: home
    frequency: 1.0
    states:
      - name: home
        request:
          path: /
        transitions:
          - target: catalog
            probability: 0.7
          - target: home
            probability: 0.3
      - name: catalog
        request:
          path: /catalog
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// newGenerator returns an initialized generator plus the paths it was
// initialized from.
func newGenerator(t *testing.T, cfgContent string) *Generator {
	t.Helper()
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "generator.yaml", cfgContent)
	defaultsPath := writeFile(t, dir, "defaults.yaml", planDefaults)

	g := New(nil, nil)
	require.NoError(t, g.Init(cfgPath, defaultsPath))
	return g
}

func loadModel(t *testing.T) *model.WorkloadModel {
	t.Helper()
	m, err := model.LoadFromBytes([]byte(sampleModel))
	require.NoError(t, err)
	return m
}

func TestInit(t *testing.T) {
	g := newGenerator(t, generatorConfig)
	assert.True(t, g.IsInitialized())
	require.NotNil(t, g.Factory())
	assert.False(t, g.Factory().Forced())
}

func TestInitForcedMode(t *testing.T) {
	g := newGenerator(t, forcedGeneratorConfig)
	require.NotNil(t, g.Factory())
	assert.True(t, g.Factory().Forced())
}

func TestInitMissingConfig(t *testing.T) {
	dir := t.TempDir()
	defaultsPath := writeFile(t, dir, "defaults.yaml", planDefaults)

	g := New(nil, nil)
	err := g.Init(filepath.Join(dir, "nope.yaml"), defaultsPath)
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrNotFound)
	assert.False(t, g.IsInitialized())
}

func TestInitMissingDefaults(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "generator.yaml", generatorConfig)

	g := New(nil, nil)
	err := g.Init(cfgPath, filepath.Join(dir, "nope.yaml"))
	require.Error(t, err)
	assert.False(t, g.IsInitialized())
}

func TestInitFailureResetsPreviousState(t *testing.T) {
	g := newGenerator(t, generatorConfig)
	require.True(t, g.IsInitialized())

	err := g.Init("/nonexistent/generator.yaml", "/nonexistent/defaults.yaml")
	require.Error(t, err)
	assert.False(t, g.IsInitialized(),
		"a failed re-initialization must not leave the old factory active")
}

func TestGenerateBeforeInit(t *testing.T) {
	g := New(nil, nil)

	tree, err := g.Generate(loadModel(t), transform.NewSimpleTransformer(),
		nil, filepath.Join(t.TempDir(), "plan.yaml"))
	assert.ErrorIs(t, err, ErrNotInitialized)
	assert.Nil(t, tree)
}

func TestGenerateWritesPlan(t *testing.T) {
	g := newGenerator(t, generatorConfig)
	outPath := filepath.Join(t.TempDir(), "plan.yaml")

	tree, err := g.Generate(loadModel(t), transform.NewSimpleTransformer(),
		nil, outPath)
	require.NoError(t, err)
	require.NotNil(t, tree)

	// Every element got an identifier before the plan was written.
	tree.Walk(func(el *plan.Element) error {
		assert.NotEmpty(t, el.ID)
		return nil
	})

	raw, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "version:")
	assert.Contains(t, string(raw), "kind: testPlan")
}

func TestGenerateWithFilters(t *testing.T) {
	g := newGenerator(t, generatorConfig)
	outPath := filepath.Join(t.TempDir(), "plan.yaml")

	chain := filter.Chain{filter.NewHeaderDefaultsFilter(g.Factory(), nil)}
	tree, err := g.Generate(loadModel(t), transform.NewSimpleTransformer(),
		chain, outPath)
	require.NoError(t, err)

	session := tree.Find(plan.KindSessionController)[0]
	require.NotEmpty(t, session.Children)
	assert.Equal(t, plan.KindConfigElement, session.Children[0].Kind)
}

func TestGenerateUnwritableOutput(t *testing.T) {
	g := newGenerator(t, generatorConfig)

	tree, err := g.Generate(loadModel(t), transform.NewSimpleTransformer(),
		nil, filepath.Join(t.TempDir(), "missing", "plan.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, writer.ErrOutputUnwritable)
	assert.Nil(t, tree)

	// The generator stays usable after a failed write.
	outPath := filepath.Join(t.TempDir(), "plan.yaml")
	tree, err = g.Generate(loadModel(t), transform.NewSimpleTransformer(),
		nil, outPath)
	require.NoError(t, err)
	assert.NotNil(t, tree)
}

func TestGenerateRecordsMetrics(t *testing.T) {
	c := metrics.NewCollector()
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "generator.yaml", generatorConfig)
	defaultsPath := writeFile(t, dir, "defaults.yaml", planDefaults)

	g := New(nil, c)
	require.NoError(t, g.Init(cfgPath, defaultsPath))

	chain := filter.Chain{filter.NewHeaderDefaultsFilter(g.Factory(), nil)}
	_, err := g.Generate(loadModel(t), transform.NewSimpleTransformer(),
		chain, filepath.Join(dir, "plan.yaml"))
	require.NoError(t, err)

	families, err := c.Registry().Gather()
	require.NoError(t, err)

	names := make(map[string]bool, len(families))
	for _, mf := range families {
		names[mf.GetName()] = true
	}
	assert.True(t, names[metrics.MetricGenerationsTotal])
	assert.True(t, names[metrics.MetricElementsTotal])
	assert.True(t, names[metrics.MetricFilterApplicationsTotal])
}

func TestGenerateFromFile(t *testing.T) {
	g := newGenerator(t, generatorConfig)
	dir := t.TempDir()
	modelPath := writeFile(t, dir, "model.yaml", sampleModel)
	outPath := filepath.Join(dir, "plan.yaml")

	tree, err := g.GenerateFromFile(modelPath, outPath,
		transform.NewSimpleTransformer(), nil)
	require.NoError(t, err)
	require.NotNil(t, tree)

	_, statErr := os.Stat(outPath)
	assert.NoError(t, statErr)
}

func TestGenerateFromFileMissingModel(t *testing.T) {
	g := newGenerator(t, generatorConfig)

	tree, err := g.GenerateFromFile(
		filepath.Join(t.TempDir(), "nope.yaml"),
		filepath.Join(t.TempDir(), "plan.yaml"),
		transform.NewSimpleTransformer(), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrModelNotFound)
	assert.Nil(t, tree)
}

func TestGenerateForcedModeMissingDefault(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "generator.yaml", forcedGeneratorConfig)
	// The sampler section lacks the domain default.
	defaultsPath := writeFile(t, dir, "defaults.yaml", `
testPlan:
  comment: generated
  serializeSessions: false
sessionController:
  comment: ""
transactionController:
  comment: ""
  includeTimers: true
selectionController:
  comment: ""
sampler:
  comment: ""
timer:
  comment: ""
  delay: 0.0
  deviation: 0.0
arguments:
  comment: ""
`)

	g := New(nil, nil)
	require.NoError(t, g.Init(cfgPath, defaultsPath))

	tree, err := g.Generate(loadModel(t), transform.NewSimpleTransformer(),
		nil, filepath.Join(dir, "plan.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, factory.ErrUndefinedRequiredProperty)
	assert.Nil(t, tree)
}

func TestLogGateway(t *testing.T) {
	gw := NewLogGateway(nil)
	assert.NoError(t, gw.Start("plan.yaml"))
}
