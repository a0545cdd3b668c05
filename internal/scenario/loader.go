package scenario

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadFile reads and validates a single scenario file.
//
// Postcondition: Returns a valid Scenario or a non-nil error.
func LoadFile(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %q: %w", path, err)
	}
	return Parse(data, path)
}

// Parse decodes and validates one scenario. Unknown keys are rejected.
func Parse(data []byte, name string) (*Scenario, error) {
	var s Scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("parsing %q: %w", name, err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("%q: %w", name, err)
	}
	return &s, nil
}

// LoadDirectory reads every *.yaml or *.yml file in dir in lexicographic
// order.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns every scenario, or the first error encountered.
func LoadDirectory(dir string) ([]*Scenario, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading scenario dir %q: %w", dir, err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.HasSuffix(e.Name(), ".yaml") || strings.HasSuffix(e.Name(), ".yml") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	out := make([]*Scenario, 0, len(files))
	for _, f := range files {
		s, err := LoadFile(filepath.Join(dir, f))
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}
