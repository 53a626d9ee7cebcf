package persona

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type catalogFile struct {
	Personas []Persona `yaml:"personas"`
}

// LoadFile reads a YAML catalog of the form `personas: [...]`.
func LoadFile(path string) ([]Persona, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read persona catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML catalog.
func Parse(data []byte) ([]Persona, error) {
	var file catalogFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("decode persona catalog: %w", err)
	}
	if err := Validate(file.Personas); err != nil {
		return nil, err
	}
	return file.Personas, nil
}

// Validate checks ids are positive and unique, names present and categories known.
func Validate(items []Persona) error {
	seen := make(map[int]struct{}, len(items))
	for i, p := range items {
		if p.ID <= 0 {
			return fmt.Errorf("persona #%d: id must be positive", i)
		}
		if _, dup := seen[p.ID]; dup {
			return fmt.Errorf("persona #%d: duplicate id %d", i, p.ID)
		}
		seen[p.ID] = struct{}{}
		if strings.TrimSpace(p.Name) == "" {
			return fmt.Errorf("persona %d: name is required", p.ID)
		}
		if _, err := ParseCategory(string(p.Category)); err != nil {
			return fmt.Errorf("persona %d: %w", p.ID, err)
		}
	}
	return nil
}
