package binding

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

const keyDelimiter = "."

// LoadYAML decodes a YAML document into a binding map.
//
// Every node of the document is bound under its dotted path, so both
// "sideload.prefix.pre" and "sideload.prefix" resolve. Sequences are bound
// as []any and are not descended into.
func LoadYAML(r io.Reader) (map[string]any, error) {
	var doc map[string]any
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if err == io.EOF {
			return map[string]any{}, nil
		}
		return nil, fmt.Errorf("failed to decode bindings: %w", err)
	}
	return Flatten(doc), nil
}

// LoadYAMLFile is LoadYAML over the file at path.
func LoadYAMLFile(path string) (map[string]any, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open bindings: %w", err)
	}
	defer f.Close()
	return LoadYAML(f)
}

// Flatten binds every nested mapping node under its dotted path.
func Flatten(doc map[string]any) map[string]any {
	out := make(map[string]any)
	flattenInto(out, "", doc)
	return out
}

func flattenInto(out map[string]any, prefix string, node map[string]any) {
	for k, v := range node {
		key := k
		if prefix != "" {
			key = prefix + keyDelimiter + k
		}
		out[key] = v
		if child, ok := v.(map[string]any); ok {
			flattenInto(out, key, child)
		}
	}
}
