// Package config loads simulator configuration from an optional YAML
// file: debug port, memory-window overrides, peripheral attachment,
// and the startup image path. CLI flags take precedence over values
// loaded here.
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// MemoryWindow overrides a peripheral's default address range.
type MemoryWindow struct {
	Base uint16 `yaml:"base"`
	Size uint16 `yaml:"size"`
}

// Config is the full set of simulator settings a YAML file may supply.
type Config struct {
	DebugPort  int    `yaml:"debug_port"`
	Image      string `yaml:"image"`
	LogLevel   string `yaml:"log_level"`
	NoHarness  bool   `yaml:"no_harness"`

	Flash MemoryWindow `yaml:"flash"`
	RAM   MemoryWindow `yaml:"ram"`
}

// Default returns the configuration used when no file is supplied.
func Default() Config {
	return Config{
		DebugPort: 3333,
		LogLevel:  "info",
		Flash:     MemoryWindow{Base: 0xF000, Size: 0x1000},
		RAM:       MemoryWindow{Base: 0x0200, Size: 0x0100},
	}
}

// Load reads and parses a YAML config file at path, starting from
// Default() so fields the file omits keep their defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Save writes cfg to path as YAML.
func Save(path string, cfg Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
