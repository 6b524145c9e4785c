// Package catalog loads game catalogs from YAML files.
package catalog

import (
	"bytes"
	"os"

	"gopkg.in/yaml.v3"

	"kenobase/domain/ecosystem"
	"kenobase/internal/errors"
)

// LoadFile reads a YAML game catalog. An empty path returns the default
// catalog.
func LoadFile(path string) (*ecosystem.GameCatalog, error) {
	if path == "" {
		c := ecosystem.DefaultCatalog()
		return &c, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.CatalogInvalid(path, err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, errors.CatalogInvalid(path, err)
	}
	return c, nil
}

// Parse decodes a catalog document. Unknown fields are rejected so a typo
// such as "pool_mx" does not silently zero a game's metadata.
func Parse(data []byte) (*ecosystem.GameCatalog, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var c ecosystem.GameCatalog
	if err := dec.Decode(&c); err != nil {
		return nil, err
	}
	if c.Games == nil {
		c.Games = make(map[string]ecosystem.GameSpec)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Encode renders c as YAML, the inverse of Parse
func Encode(c ecosystem.GameCatalog) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
