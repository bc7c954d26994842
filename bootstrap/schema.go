package bootstrap

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

var ErrInvalidConfig = errors.New("invalid configuration")

const configSchemaJSON = `{
  "type": "object",
  "properties": {
    "app": {
      "type": "object",
      "properties": {
        "env": {"type": "string"}
      }
    },
    "sideload": {
      "type": "object",
      "properties": {
        "log_in_environment": {
          "anyOf": [
            {"type": "null"},
            {"type": "string"},
            {"type": "array", "items": {"type": "string"}}
          ]
        },
        "prefix": {
          "type": "object",
          "properties": {
            "pre": {"type": ["string", "null"]},
            "post": {"type": ["string", "null"]}
          }
        },
        "order": {
          "type": "object",
          "additionalProperties": {
            "anyOf": [
              {
                "type": "array",
                "items": {
                  "anyOf": [
                    {"type": "string"},
                    {"$ref": "#/$defs/groups"}
                  ]
                }
              },
              {"$ref": "#/$defs/groups"}
            ]
          }
        },
        "cache": {
          "type": "object",
          "properties": {
            "backend": {"enum": ["memory", "ristretto"]},
            "max_cost": {"type": "integer", "minimum": 1}
          }
        }
      }
    },
    "config": {
      "type": "object",
      "properties": {
        "effect": {
          "type": "object",
          "additionalProperties": {
            "type": "object",
            "properties": {
              "handler": {
                "type": "object",
                "properties": {
                  "buffer_size": {"type": "integer", "minimum": 1},
                  "num_workers": {"type": "integer", "minimum": 1}
                }
              }
            }
          }
        }
      }
    }
  },
  "$defs": {
    "groups": {
      "type": "object",
      "additionalProperties": {"type": "array", "items": {"type": "string"}}
    }
  }
}`

var configSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(configSchemaJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to parse config schema: %w", err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource("config.json", doc); err != nil {
		return nil, fmt.Errorf("failed to add config schema: %w", err)
	}
	return c.Compile("config.json")
})

// Validate checks a nested configuration document, as decoded from YAML.
func Validate(doc map[string]any) error {
	sch, err := configSchema()
	if err != nil {
		return err
	}
	if doc == nil {
		doc = map[string]any{}
	}
	// round trip through JSON so the validator sees JSON types only
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := sch.Validate(inst); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}
