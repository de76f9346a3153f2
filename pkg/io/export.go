package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/layoutgen/pkg/errors"
	"github.com/matzehuels/layoutgen/pkg/tree"
)

// Supported formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// FormatFor returns the format implied by path's extension. Unknown
// extensions are JSON.
func FormatFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatJSON
}

// WriteJSON encodes def as indented JSON.
func WriteJSON(def tree.Definition, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(def); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// WriteYAML encodes def as YAML.
func WriteYAML(def tree.Definition, w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(def); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return enc.Close()
}

// Write encodes def in format.
func Write(def tree.Definition, format string, w io.Writer) error {
	switch format {
	case FormatJSON:
		return WriteJSON(def, w)
	case FormatYAML:
		return WriteYAML(def, w)
	}
	return errors.New(errors.ErrCodeInvalidFormat, "unsupported format %q", format)
}

// Export writes def to path in the format implied by its extension.
func Export(def tree.Definition, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := Write(def, FormatFor(path), f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
