package process

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ProcessConfig represents the configuration for an external guard.
type ProcessConfig struct {
	Name        string            `yaml:"name" json:"name"`
	Command     string            `yaml:"command" json:"command"`
	Args        []string          `yaml:"args" json:"args"`
	Environment map[string]string `yaml:"env" json:"env"`
	Description string            `yaml:"description" json:"description"`
}

// ConfigFile represents the structure of guards.yaml
type ConfigFile struct {
	Guards []ProcessConfig `yaml:"guards" json:"guards"`
}

// LoadGuards reads a configuration file (YAML or JSON) and returns a map of guard names to configs.
// A missing file means no guards are configured.
func LoadGuards(path string) (map[string]ProcessConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]ProcessConfig{}, nil
		}
		return nil, fmt.Errorf("failed to read guards config: %w", err)
	}

	var cfg ConfigFile
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	} else {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	guards := make(map[string]ProcessConfig)
	for _, g := range cfg.Guards {
		if g.Name == "" {
			continue
		}
		if g.Command == "" {
			return nil, fmt.Errorf("guard %q has no command", g.Name)
		}
		guards[g.Name] = g
	}
	return guards, nil
}
