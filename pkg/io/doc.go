// Package io reads and writes page definitions.
//
// # Formats
//
// JSON is the native format: the flat node map exactly as a craft.js editor
// loads it, keyed by node id with "ROOT" as the page root.
//
//	{
//	  "ROOT": {"type": {"resolvedName": "Container"}, "isCanvas": true, "nodes": ["a1b2c3d4e5"], ...},
//	  "a1b2c3d4e5": {"type": {"resolvedName": "Section"}, "parent": "ROOT", "nodes": [...], ...},
//	  ...
//	}
//
// YAML carries the same structure with the same field names and is meant for
// reading and hand-editing. Keys are written in sorted order, so output is
// stable across runs.
//
// # Import
//
// [ReadJSON] and [ReadYAML] decode from any io.Reader; [Import] reads a file
// and picks the decoder by extension. Decoded definitions are checked with
// [tree.Definition.Validate], so a successful import is always a well-formed
// page.
//
// # Export
//
// [WriteJSON] and [WriteYAML] encode to any io.Writer; [Export] writes a file
// in the format named by its extension.
package io
