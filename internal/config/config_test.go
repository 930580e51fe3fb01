package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const sampleConfig = `
useForcedArguments: true
sampler:
  domain: localhost
  port: 8080
  useKeepAlive: true
timer:
  delay: 300.5
`

func TestLoad(t *testing.T) {
	path := writeConfig(t, sampleConfig)

	cfg, err := Load(path, false)
	require.NoError(t, err)
	assert.Equal(t, path, cfg.Path())
	assert.False(t, cfg.Forced())
	assert.True(t, cfg.Has("sampler.domain"))
	assert.False(t, cfg.Has("sampler.protocol"))
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		path    func(t *testing.T) string
		wantErr error
	}{
		{
			name:    "empty path",
			path:    func(t *testing.T) string { return "" },
			wantErr: ErrNotFound,
		},
		{
			name: "missing file",
			path: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "nope.yaml")
			},
			wantErr: ErrNotFound,
		},
		{
			name: "malformed file",
			path: func(t *testing.T) string {
				return writeConfig(t, "sampler: [unclosed")
			},
			wantErr: ErrMalformed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(tt.path(t), false)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, cfg)
		})
	}
}

func TestTypedAccessors(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig), false)
	require.NoError(t, err)

	s, err := cfg.GetString("sampler.domain")
	require.NoError(t, err)
	assert.Equal(t, "localhost", s)

	n, err := cfg.GetInt("sampler.port")
	require.NoError(t, err)
	assert.Equal(t, 8080, n)

	f, err := cfg.GetFloat("timer.delay")
	require.NoError(t, err)
	assert.Equal(t, 300.5, f)

	b, err := cfg.GetBool("sampler.useKeepAlive")
	require.NoError(t, err)
	assert.True(t, b)
}

func TestLenientModeNeutralValues(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig), false)
	require.NoError(t, err)

	s, err := cfg.GetString("sampler.protocol")
	require.NoError(t, err)
	assert.Equal(t, "", s)

	n, err := cfg.GetInt("loopController.loops")
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	f, err := cfg.GetFloat("timer.deviation")
	require.NoError(t, err)
	assert.Equal(t, 0.0, f)

	b, err := cfg.GetBool("sampler.followRedirects")
	require.NoError(t, err)
	assert.False(t, b)
}

func TestForcedModeMissingKey(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig), true)
	require.NoError(t, err)
	assert.True(t, cfg.Forced())

	_, err = cfg.GetString("sampler.protocol")
	assert.ErrorIs(t, err, ErrMissingKey)
	assert.Contains(t, err.Error(), "sampler.protocol")

	_, err = cfg.GetInt("loopController.loops")
	assert.ErrorIs(t, err, ErrMissingKey)

	// Present keys still resolve.
	s, err := cfg.GetString("sampler.domain")
	require.NoError(t, err)
	assert.Equal(t, "localhost", s)
}

func TestLoadReturnsFreshInstances(t *testing.T) {
	path := writeConfig(t, sampleConfig)

	first, err := Load(path, false)
	require.NoError(t, err)
	second, err := Load(path, true)
	require.NoError(t, err)

	assert.NotSame(t, first, second)
	assert.False(t, first.Forced())
	assert.True(t, second.Forced())
}

func TestLookup(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig), false)
	require.NoError(t, err)

	v, ok := cfg.Lookup("sampler.domain")
	assert.True(t, ok)
	assert.Equal(t, "localhost", v)

	_, ok = cfg.Lookup("sampler.protocol")
	assert.False(t, ok)
}
