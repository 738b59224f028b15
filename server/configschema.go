package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/umbridge-go/umbridge"
)

// schemaCache compiles and caches each ConfigSchemaModel's JSON Schema once
// per server process, keyed by model name: schemas are static for the
// lifetime of a registered model, and compiling one on every request would
// make config validation the dominant cost of a call.
type schemaCache struct {
	mu      sync.Mutex
	schemas map[string]*jsonschema.Schema
}

func newSchemaCache() *schemaCache {
	return &schemaCache{schemas: make(map[string]*jsonschema.Schema)}
}

func (c *schemaCache) get(model umbridge.ConfigSchemaModel) (*jsonschema.Schema, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	name := model.Name()
	if s, ok := c.schemas[name]; ok {
		return s, nil
	}

	raw := model.ConfigSchema()
	if len(raw) == 0 {
		c.schemas[name] = nil
		return nil, nil
	}

	resource := name + "-config-schema.json"
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(resource, bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("load config schema for model %q: %w", name, err)
	}
	schema, err := compiler.Compile(resource)
	if err != nil {
		return nil, fmt.Errorf("compile config schema for model %q: %w", name, err)
	}
	c.schemas[name] = schema
	return schema, nil
}

// validateConfig checks config against model's declared ConfigSchema, if it
// implements ConfigSchemaModel and declares one. A model with no schema (or
// that doesn't implement ConfigSchemaModel) accepts any config, matching
// spec.md §9's "opaque unless a model opts in" rule.
func validateConfig(cache *schemaCache, model umbridge.Model, config umbridge.Config) umbridge.ProtocolError {
	schemaModel, ok := model.(umbridge.ConfigSchemaModel)
	if !ok {
		return nil
	}
	schema, err := cache.get(schemaModel)
	if err != nil {
		return umbridge.NewInvalidInputError("%s", err.Error())
	}
	if schema == nil {
		return nil
	}

	var v any
	if err := json.Unmarshal(config.Raw(), &v); err != nil {
		return umbridge.NewInvalidInputError("invalid config JSON for model %q: %v", model.Name(), err)
	}
	if err := schema.Validate(v); err != nil {
		return umbridge.NewInvalidInputError("config for model %q does not match its schema: %v", model.Name(), err)
	}
	return nil
}
