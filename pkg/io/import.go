package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/layoutgen/pkg/errors"
	"github.com/matzehuels/layoutgen/pkg/tree"
)

// ReadJSON decodes and validates a JSON definition.
func ReadJSON(r io.Reader) (tree.Definition, error) {
	var def tree.Definition
	if err := json.NewDecoder(r).Decode(&def); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode definition")
	}
	return checked(def)
}

// ReadYAML decodes and validates a YAML definition.
func ReadYAML(r io.Reader) (tree.Definition, error) {
	var def tree.Definition
	if err := yaml.NewDecoder(r).Decode(&def); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode definition")
	}
	return checked(def)
}

// Read decodes a definition in format.
func Read(r io.Reader, format string) (tree.Definition, error) {
	switch format {
	case FormatJSON:
		return ReadJSON(r)
	case FormatYAML:
		return ReadYAML(r)
	}
	return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported format %q", format)
}

// Import reads the definition at path, choosing the decoder by extension.
func Import(path string) (tree.Definition, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	def, err := Read(f, FormatFor(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return def, nil
}

func checked(def tree.Definition) (tree.Definition, error) {
	if len(def) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidTree, "definition is empty")
	}
	for id, n := range def {
		if n == nil {
			return nil, errors.New(errors.ErrCodeInvalidTree, "node %s is null", id)
		}
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return def, nil
}
