package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

var ErrInvalidConfig = errors.New("config: invalid config")

// Load reads filename and decodes it as YAML into a T.
func Load[T any](filename string) (T, error) {
	var zero T
	data, err := os.ReadFile(filename)
	if err != nil {
		return zero, fmt.Errorf("config: load %s: %w", filename, err)
	}

	var out T
	if err := yaml.Unmarshal(data, &out); err != nil {
		return zero, fmt.Errorf("config: unmarshal %s: %w", filename, err)
	}
	return out, nil
}

// Save encodes v as YAML into filename.
func Save(filename string, v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("config: marshal %s: %w", filename, err)
	}
	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return fmt.Errorf("config: save %s: %w", filename, err)
	}
	return nil
}

// LoadPhysics reads a physics file on top of the defaults, so a file only
// needs the keys it changes.
func LoadPhysics(filename string) (*Physics, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("config: load %s: %w", filename, err)
	}

	p := Default()
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("config: unmarshal %s: %w", filename, err)
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", filename, err)
	}

	// filter scripts are relative to the config file
	dir := filepath.Dir(filename)
	for material, path := range p.Filters {
		if !filepath.IsAbs(path) {
			p.Filters[material] = filepath.Join(dir, path)
		}
	}
	return p, nil
}
