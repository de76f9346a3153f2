package component

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/matzehuels/layoutgen/pkg/errors"
	"github.com/matzehuels/layoutgen/pkg/tree"
)

// PropsSchema returns the JSON Schema of a `{"props": {...}}` response in
// which props must contain the required keys. Only structure and presence
// are checked; value ranges stay advisory.
func PropsSchema(required ...string) string {
	req, _ := json.Marshal(append([]string{}, required...))
	return fmt.Sprintf(`{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"required": ["props"],
	"properties": {
		"props": {"type": "object", "required": %s}
	}
}`, req)
}

// CompileSchema compiles a JSON Schema document registered under name.
func CompileSchema(name, doc string) (*jsonschema.Schema, error) {
	url := "mem://layoutgen/" + name + ".json"
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	if err := c.AddResource(url, strings.NewReader(doc)); err != nil {
		return nil, fmt.Errorf("add schema %s: %w", name, err)
	}
	schema, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", name, err)
	}
	return schema, nil
}

// MustCompileSchema is like CompileSchema but panics on error. It is meant
// for schemas built from constants at package init.
func MustCompileSchema(name, doc string) *jsonschema.Schema {
	s, err := CompileSchema(name, doc)
	if err != nil {
		panic(err)
	}
	return s
}

// DecodeProps parses a model reply of the form {"props": {...}} and returns
// the props. The reply must be a single JSON object; a surrounding markdown
// code fence is tolerated. Any other deviation is a MALFORMED_RESPONSE error.
func DecodeProps(text string, schema *jsonschema.Schema) (tree.Props, error) {
	body := StripFence(text)

	var doc any
	dec := json.NewDecoder(strings.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeMalformedResponse, err, "response is not valid JSON")
	}
	if dec.More() {
		return nil, errors.New(errors.ErrCodeMalformedResponse, "response has trailing content after the JSON object")
	}
	if schema != nil {
		if err := schema.Validate(doc); err != nil {
			return nil, errors.Wrap(errors.ErrCodeMalformedResponse, err, "response does not match the expected shape")
		}
	}

	obj, ok := doc.(map[string]any)
	if !ok {
		return nil, errors.New(errors.ErrCodeMalformedResponse, "response is not a JSON object")
	}
	props, ok := obj["props"].(map[string]any)
	if !ok {
		return nil, errors.New(errors.ErrCodeMalformedResponse, `response has no "props" object`)
	}
	return normalizeNumbers(props).(map[string]any), nil
}

// StripFence removes one surrounding markdown code fence (``` or ```json)
// and surrounding whitespace.
func StripFence(text string) string {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, "```") || !strings.HasSuffix(s, "```") || len(s) < 6 {
		return s
	}
	s = strings.TrimSuffix(s[3:], "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 && !strings.ContainsAny(s[:nl], "{[") {
		s = s[nl+1:]
	}
	return strings.TrimSpace(s)
}

// normalizeNumbers turns json.Number values into int64 where exact and
// float64 otherwise, so props marshal back exactly as the model wrote them.
func normalizeNumbers(v any) any {
	switch x := v.(type) {
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i
		}
		f, _ := x.Float64()
		return f
	case map[string]any:
		for k, e := range x {
			x[k] = normalizeNumbers(e)
		}
		return x
	case []any:
		for i, e := range x {
			x[i] = normalizeNumbers(e)
		}
		return x
	}
	return v
}
