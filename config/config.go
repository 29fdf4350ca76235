// Package config holds run settings read from a yaml file. Command line
// flags override whatever the file sets.
package config

import (
	"io/ioutil"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	DefaultOutput   = "theater.glb"
	DefaultMaxDepth = 256
	DefaultAddr     = ":8000"
)

type Config struct {
	Output    string `yaml:"output"`
	AssetRoot string `yaml:"assets"`
	Encoding  string `yaml:"encoding"`
	// MaxDepth limits nested codeword calls, 0 disables the limit
	MaxDepth  int    `yaml:"max_depth"`
	RollUnits string `yaml:"roll_units"`
	Debug     bool   `yaml:"debug"`
	Viewer    Viewer `yaml:"viewer"`
}

type Viewer struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

func Default() *Config {
	return &Config{
		Output:    DefaultOutput,
		Encoding:  UTF8,
		MaxDepth:  DefaultMaxDepth,
		RollUnits: "degrees",
		Viewer: Viewer{
			Addr: DefaultAddr,
		},
	}
}

// Load reads path over the defaults. Keys missing from the file keep their
// default values.
func Load(path string) (*Config, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to read config")
	}
	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	c := Default()
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, errors.Wrapf(err, "Failed to parse config")
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) Validate() error {
	if c.MaxDepth < 0 {
		return errors.Errorf("max_depth must not be negative, got %d", c.MaxDepth)
	}
	switch strings.ToLower(c.RollUnits) {
	case "", "degrees", "deg", "radians", "rad":
	default:
		return errors.Errorf("Unknown roll_units %q", c.RollUnits)
	}
	if c.Output == "" {
		return errors.Errorf("Output path is empty")
	}
	return nil
}

// RollInRadians reports whether roll operands are taken as radians.
func (c *Config) RollInRadians() bool {
	switch strings.ToLower(c.RollUnits) {
	case "radians", "rad":
		return true
	}
	return false
}

func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
