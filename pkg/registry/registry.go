// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

// ValidationError lists every schema and semantic problem found in a seed file.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid registry file: " + strings.Join(e.Problems, "; ")
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// LoadRegistry reads, validates and decodes a JSON or YAML seed file.
func LoadRegistry(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data, isYAML(path))
}

// Parse validates and decodes seed data. YAML is converted to its JSON form
// first so both formats go through the same schema.
func Parse(data []byte, yamlInput bool) (*File, error) {
	if yamlInput {
		var doc interface{}
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
		converted, err := json.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("convert yaml: %w", err)
		}
		data = converted
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(fileSchema),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return nil, fmt.Errorf("schema validation: %w", err)
	}
	if !result.Valid() {
		verr := &ValidationError{}
		for _, desc := range result.Errors() {
			verr.Problems = append(verr.Problems, desc.String())
		}
		return nil, verr
	}

	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode registry: %w", err)
	}
	if err := Validate(&f); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate checks what the schema cannot: unique activity names and unique
// participants within an activity.
func Validate(f *File) error {
	verr := &ValidationError{}
	if len(f.Activities) == 0 {
		verr.Problems = append(verr.Problems, "registry contains no activities")
	}

	names := make(map[string]bool, len(f.Activities))
	for _, a := range f.Activities {
		if a.Name == "" {
			verr.Problems = append(verr.Problems, "activity missing required field: name")
			continue
		}
		if names[a.Name] {
			verr.Problems = append(verr.Problems, fmt.Sprintf("duplicate activity name: %s", a.Name))
		}
		names[a.Name] = true

		if a.MaxParticipants < 1 {
			verr.Problems = append(verr.Problems, fmt.Sprintf("activity %s: max_participants must be positive", a.Name))
		}

		seen := make(map[string]bool, len(a.Participants))
		for _, p := range a.Participants {
			if seen[p] {
				verr.Problems = append(verr.Problems, fmt.Sprintf("activity %s: duplicate participant %q", a.Name, p))
			}
			seen[p] = true
		}
	}

	if len(verr.Problems) > 0 {
		return verr
	}
	return nil
}

// Find returns the index of the named activity, or -1.
func (f *File) Find(name string) int {
	for i := range f.Activities {
		if f.Activities[i].Name == name {
			return i
		}
	}
	return -1
}

// SaveRegistry writes f as indented JSON, or YAML when path ends in .yaml/.yml.
func SaveRegistry(f *File, path string) error {
	for i := range f.Activities {
		if f.Activities[i].Participants == nil {
			f.Activities[i].Participants = []string{}
		}
	}

	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(f)
	} else {
		data, err = json.MarshalIndent(f, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to marshal registry: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write registry file: %w", err)
	}
	return nil
}
