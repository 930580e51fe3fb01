package model

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleModel = `
name: webshop
workloadIntensity:
  type: constant
  users: 10
behaviorModels:
  - name: customer
    initialState: home
    states:
      - name: home
        request:
          path: /
        thinkTime:
          mean: 2000
          deviation: 500
        transitions:
          - target: browse
            probability: 0.7
          - target: home
            probability: 0.3
      - name: browse
        request:
          path: /catalog
          method: GET
`

func TestLoadFromBytes(t *testing.T) {
	m, err := LoadFromBytes([]byte(sampleModel))
	require.NoError(t, err)

	assert.Equal(t, "webshop", m.Name)
	require.Len(t, m.BehaviorModels, 1)

	bm := m.BehaviorModels[0]
	assert.Equal(t, "customer", bm.Name)
	assert.Equal(t, "home", bm.InitialState)
	require.Len(t, bm.States, 2)

	home := bm.GetState("home")
	require.NotNil(t, home)
	require.NotNil(t, home.ThinkTime)
	assert.Equal(t, 2000.0, home.ThinkTime.Mean)
	require.Len(t, home.Transitions, 2)
	assert.Equal(t, "browse", home.Transitions[0].Target)
	assert.Equal(t, 0.7, home.Transitions[0].Probability)

	browse := bm.GetState("browse")
	require.NotNil(t, browse)
	assert.Nil(t, browse.ThinkTime)
	assert.Empty(t, browse.Transitions)
}

func TestLoadAppliesDefaults(t *testing.T) {
	m, err := LoadFromBytes([]byte(sampleModel))
	require.NoError(t, err)

	assert.Equal(t, "1.0", m.Version)
	assert.Equal(t, 1.0, m.BehaviorModels[0].Frequency)
	assert.Equal(t, "GET", m.BehaviorModels[0].States[0].Request.Method)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleModel), 0o644))

	m, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "webshop", m.Name)
}

func TestLoadFromFileNotFound(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, ErrModelNotFound)
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name  string
		model string
	}{
		{
			name:  "missing name",
			model: "behaviorModels: [{name: a, initialState: s, states: [{name: s, request: {path: /}}]}]",
		},
		{
			name:  "no behavior models",
			model: "name: m",
		},
		{
			name: "duplicate behavior model name",
			model: `
name: m
behaviorModels:
  - name: a
    initialState: s
    states: [{name: s, request: {path: /}}]
  - name: a
    initialState: s
    states: [{name: s, request: {path: /}}]
`,
		},
		{
			name: "duplicate state name",
			model: `
name: m
behaviorModels:
  - name: a
    initialState: s
    states:
      - {name: s, request: {path: /}}
      - {name: s, request: {path: /}}
`,
		},
		{
			name: "missing initial state",
			model: `
name: m
behaviorModels:
  - name: a
    states: [{name: s, request: {path: /}}]
`,
		},
		{
			name: "unresolvable initial state",
			model: `
name: m
behaviorModels:
  - name: a
    initialState: nope
    states: [{name: s, request: {path: /}}]
`,
		},
		{
			name: "unresolvable transition target",
			model: `
name: m
behaviorModels:
  - name: a
    initialState: s
    states:
      - name: s
        request: {path: /}
        transitions: [{target: nope, probability: 1.0}]
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromBytes([]byte(tt.model))
			assert.ErrorIs(t, err, ErrInvalidModel)
		})
	}
}

func TestGetBehaviorModel(t *testing.T) {
	m, err := LoadFromBytes([]byte(sampleModel))
	require.NoError(t, err)

	assert.NotNil(t, m.GetBehaviorModel("customer"))
	assert.Nil(t, m.GetBehaviorModel("ghost"))
}
