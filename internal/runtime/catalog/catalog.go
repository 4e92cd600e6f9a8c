// Package catalog validates components against per-type JSON Schemas grouped
// by the catalog id a surface declares.
package catalog

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/drblury/surfaceflow/internal/runtime/component"
	errspkg "github.com/drblury/surfaceflow/internal/runtime/errors"
)

// ValidationError reports a component rejected by its catalog schema.
type ValidationError struct {
	CatalogID   string
	ComponentID string
	Type        string
	Err         error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("surfaceflow: component %q (%s) rejected by catalog %q: %v", e.ComponentID, e.Type, e.CatalogID, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Catalogs holds compiled schemas keyed by catalog id and component type.
// Types without a schema, and catalogs that were never registered, accept
// every component.
type Catalogs struct {
	mu      sync.RWMutex
	schemas map[string]map[string]*jsonschema.Schema
}

// New returns an empty set of catalogs.
func New() *Catalogs {
	return &Catalogs{schemas: make(map[string]map[string]*jsonschema.Schema)}
}

// Register compiles schema (JSON Schema draft 2020-12) for componentType in
// catalogID, replacing any earlier schema for the pair.
func (c *Catalogs) Register(catalogID, componentType, schema string) error {
	if componentType == "" {
		return errspkg.ErrComponentTypeRequired
	}

	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	schemaURL := fmt.Sprintf("https://surfaceflow.schemas.local/catalogs/%s/%s.schema.json",
		url.PathEscape(catalogID), url.PathEscape(componentType))
	if err := compiler.AddResource(schemaURL, strings.NewReader(schema)); err != nil {
		return fmt.Errorf("catalog %q: load schema for %s: %w", catalogID, componentType, err)
	}
	compiled, err := compiler.Compile(schemaURL)
	if err != nil {
		return fmt.Errorf("catalog %q: compile schema for %s: %w", catalogID, componentType, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.schemas[catalogID] == nil {
		c.schemas[catalogID] = make(map[string]*jsonschema.Schema)
	}
	c.schemas[catalogID][componentType] = compiled
	return nil
}

// Validate checks comp, in its flat {id, type, ...} form, against the schema
// registered for its type in catalogID.
func (c *Catalogs) Validate(catalogID string, comp component.Component) error {
	c.mu.RLock()
	schema := c.schemas[catalogID][comp.Type]
	c.mu.RUnlock()

	if schema == nil {
		return nil
	}
	if err := schema.Validate(comp.Map()); err != nil {
		return &ValidationError{CatalogID: catalogID, ComponentID: comp.ID, Type: comp.Type, Err: err}
	}
	return nil
}

// Types lists the component types that have a schema in catalogID.
func (c *Catalogs) Types(catalogID string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	types := make([]string, 0, len(c.schemas[catalogID]))
	for t := range c.schemas[catalogID] {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
