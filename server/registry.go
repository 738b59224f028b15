package server

import (
	"fmt"
	"sort"

	"github.com/umbridge-go/umbridge"
)

// Registry holds the set of models a Server hosts. It is built once at
// construction time and never mutated afterward — handlers read it
// concurrently without locking, the same "read-only after start" contract
// the teacher's provider registry uses for its provider map.
type Registry struct {
	models map[string]umbridge.Model
	names  []string // sorted, cached for repeated /Info responses
}

// NewRegistry builds a Registry from models. Returns an error if two models
// share a name or if the list is empty.
func NewRegistry(models ...umbridge.Model) (*Registry, error) {
	if len(models) == 0 {
		return nil, fmt.Errorf("server: at least one model is required")
	}
	m := make(map[string]umbridge.Model, len(models))
	for _, model := range models {
		name := model.Name()
		if name == "" {
			return nil, fmt.Errorf("server: model has empty name")
		}
		if _, dup := m[name]; dup {
			return nil, fmt.Errorf("server: duplicate model name %q", name)
		}
		m[name] = model
	}
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return &Registry{models: m, names: names}, nil
}

// Get returns the model registered under name, or false if none matches.
func (r *Registry) Get(name string) (umbridge.Model, bool) {
	model, ok := r.models[name]
	return model, ok
}

// Names returns the sorted list of registered model names.
func (r *Registry) Names() []string {
	return r.names
}
