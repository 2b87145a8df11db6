package internal

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v2"

	"github.com/0xRadioAc7iv/go-kvs/internal/logging"
)

// Config holds the settings of the kvs command line tool. Values from a
// config file are overridden by flags.
type Config struct {
	Dir            string
	LogLevel       string
	SyncWrites     bool
	FormatHeader   bool
	StrictRecovery bool
}

// An empty directory means the current working directory.
const DEFAULT_DIR = ""

func DefaultConfig() *Config {
	return &Config{
		Dir:      DEFAULT_DIR,
		LogLevel: logging.DefaultLevel,
	}
}

// Parse applies a YAML document to c. Keys that are absent keep their
// current value.
func (c *Config) Parse(data []byte) error {
	var aux struct {
		Dir            string `yaml:"dir"`
		LogLevel       string `yaml:"log_level"`
		SyncWrites     string `yaml:"sync_writes"`
		FormatHeader   string `yaml:"format_header"`
		StrictRecovery string `yaml:"strict_recovery"`
	}

	if err := yaml.UnmarshalStrict(data, &aux); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	if aux.Dir != "" {
		c.Dir = aux.Dir
	}
	if aux.LogLevel != "" {
		c.LogLevel = aux.LogLevel
	}

	for _, b := range []struct {
		name  string
		value string
		dst   *bool
	}{
		{"sync_writes", aux.SyncWrites, &c.SyncWrites},
		{"format_header", aux.FormatHeader, &c.FormatHeader},
		{"strict_recovery", aux.StrictRecovery, &c.StrictRecovery},
	} {
		if b.value == "" {
			continue
		}
		v, err := strconv.ParseBool(b.value)
		if err != nil {
			return fmt.Errorf("config: invalid value %q for %s", b.value, b.name)
		}
		*b.dst = v
	}

	return nil
}

// LoadFile reads and parses the YAML file at path on top of the defaults.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	c := DefaultConfig()
	if err := c.Parse(data); err != nil {
		return nil, err
	}
	return c, nil
}
