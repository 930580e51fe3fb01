// Package config resolves the layered key/value configuration that feeds
// the element factory: a generator configuration plus a test plan defaults
// table, both read from YAML files.
//
// In forced mode any lookup of an absent key is an error; in lenient mode
// the typed accessors fall back to the neutral value of their type ("" ,
// 0, 0.0, false).
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// Errors returned by the config package.
var (
	// ErrNotFound is returned when the configuration file does not exist.
	ErrNotFound = errors.New("config: configuration file not found")
	// ErrUnreadable is returned when the configuration file exists but
	// cannot be read.
	ErrUnreadable = errors.New("config: configuration file could not be read")
	// ErrMalformed is returned when the configuration file cannot be parsed.
	ErrMalformed = errors.New("config: configuration file is malformed")
	// ErrMissingKey is returned by forced-mode lookups of absent keys.
	ErrMissingKey = errors.New("config: required key is not defined")
)

// Config is an immutable, resolved key/value configuration. Every Load call
// returns a fresh instance; instances never share state.
type Config struct {
	v      *viper.Viper
	path   string
	forced bool
}

// Load reads a configuration file and returns a fresh Config. The forced
// flag selects the validation mode applied by the typed accessors.
func Load(path string, forced bool) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty path", ErrNotFound)
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrUnreadable, path, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		var parseErr viper.ConfigParseError
		if errors.As(err, &parseErr) {
			return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, path, err)
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrUnreadable, path, err)
	}

	return &Config{v: v, path: path, forced: forced}, nil
}

// Path returns the file the configuration was loaded from.
func (c *Config) Path() string {
	return c.path
}

// Forced reports whether forced-argument mode is active.
func (c *Config) Forced() bool {
	return c.forced
}

// Has reports whether the key is defined.
func (c *Config) Has(key string) bool {
	return c.v.IsSet(key)
}

// Lookup returns the raw value for a key and whether it is defined.
func (c *Config) Lookup(key string) (any, bool) {
	if !c.v.IsSet(key) {
		return nil, false
	}
	return c.v.Get(key), true
}

// GetString returns a string value. In forced mode an absent key is an
// error naming the key; otherwise the neutral value "" is returned.
func (c *Config) GetString(key string) (string, error) {
	if !c.v.IsSet(key) {
		if c.forced {
			return "", fmt.Errorf("%w: %q", ErrMissingKey, key)
		}
		return "", nil
	}
	return c.v.GetString(key), nil
}

// GetBool returns a boolean value, defaulting to false in lenient mode.
func (c *Config) GetBool(key string) (bool, error) {
	if !c.v.IsSet(key) {
		if c.forced {
			return false, fmt.Errorf("%w: %q", ErrMissingKey, key)
		}
		return false, nil
	}
	return c.v.GetBool(key), nil
}

// GetInt returns an integer value, defaulting to 0 in lenient mode.
func (c *Config) GetInt(key string) (int, error) {
	if !c.v.IsSet(key) {
		if c.forced {
			return 0, fmt.Errorf("%w: %q", ErrMissingKey, key)
		}
		return 0, nil
	}
	return c.v.GetInt(key), nil
}

// GetFloat returns a float value, defaulting to 0 in lenient mode.
func (c *Config) GetFloat(key string) (float64, error) {
	if !c.v.IsSet(key) {
		if c.forced {
			return 0, fmt.Errorf("%w: %q", ErrMissingKey, key)
		}
		return 0, nil
	}
	return c.v.GetFloat64(key), nil
}
