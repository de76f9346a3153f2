package io

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/layoutgen/pkg/errors"
	"github.com/matzehuels/layoutgen/pkg/tree"
)

func samplePage() tree.Definition {
	return tree.Definition{
		tree.RootID:  tree.NewRoot([]string{"lay0000001"}),
		"lay0000001": tree.NewLayout(tree.KindSection, tree.Props{"padding": int64(20)}, "section-abc123", []string{"el000001", "el000002"}),
		"el000001":   tree.NewElement(tree.KindHeading, tree.Props{"text": "Welcome", "level": int64(1)}, "heading-ab12", "lay0000001"),
		"el000002":   tree.NewElement(tree.KindUserButton, tree.Props{"text": "Go"}, "button-cd34", "lay0000001"),
	}
}

func TestJSONRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(samplePage(), &buf); err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}
	if !strings.Contains(buf.String(), `"resolvedName": "UserButton"`) {
		t.Errorf("JSON missing resolvedName:\n%s", buf.String())
	}
	if strings.Contains(buf.String(), `"parent": ""`) {
		t.Error("root parent should be omitted")
	}

	def, err := ReadJSON(&buf)
	if err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}
	if len(def) != 4 {
		t.Errorf("len = %d, want 4", len(def))
	}
	if got := def["el000001"].Props["text"]; got != "Welcome" {
		t.Errorf("text = %v", got)
	}
}

func TestYAMLRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteYAML(samplePage(), &buf); err != nil {
		t.Fatalf("WriteYAML() error = %v", err)
	}
	if !strings.Contains(buf.String(), "resolvedName: Section") {
		t.Errorf("YAML missing resolvedName:\n%s", buf.String())
	}

	def, err := ReadYAML(&buf)
	if err != nil {
		t.Fatalf("ReadYAML() error = %v", err)
	}
	lay := def["lay0000001"]
	if len(lay.Nodes) != 2 || lay.Nodes[0] != "el000001" {
		t.Errorf("layout nodes = %v", lay.Nodes)
	}
	if lay.Custom == nil || lay.LinkedNodes == nil {
		t.Error("collections not normalized after YAML decode")
	}
}

func TestReadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		in   string
		code errors.Code
	}{
		{"malformed", `{"ROOT":`, errors.ErrCodeInvalidFormat},
		{"empty object", `{}`, errors.ErrCodeInvalidTree},
		{"null node", `{"ROOT": null}`, errors.ErrCodeInvalidTree},
		{"no root", `{"a": {"type": {"resolvedName": "Text"}, "parent": "b"}}`, errors.ErrCodeInvalidTree},
		{"dangling child", `{"ROOT": {"type": {"resolvedName": "Container"}, "isCanvas": true, "nodes": ["x"]}}`, errors.ErrCodeInvalidTree},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadJSON(strings.NewReader(tt.in))
			if !errors.Is(err, tt.code) {
				t.Errorf("ReadJSON() error = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestExportImport(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"page.json", "page.yaml", "page.yml"} {
		path := filepath.Join(dir, name)
		if err := Export(samplePage(), path); err != nil {
			t.Fatalf("Export(%s) error = %v", name, err)
		}
		def, err := Import(path)
		if err != nil {
			t.Fatalf("Import(%s) error = %v", name, err)
		}
		if len(def) != 4 {
			t.Errorf("%s: len = %d, want 4", name, len(def))
		}
	}
}

func TestFormatFor(t *testing.T) {
	tests := map[string]string{
		"a.json": FormatJSON,
		"a.YAML": FormatYAML,
		"a.yml":  FormatYAML,
		"a":      FormatJSON,
	}
	for path, want := range tests {
		if got := FormatFor(path); got != want {
			t.Errorf("FormatFor(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestWriteUnknownFormat(t *testing.T) {
	err := Write(samplePage(), "xml", &bytes.Buffer{})
	if !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("Write(xml) error = %v", err)
	}
}
