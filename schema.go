package ngff

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// attributesSchema covers the parts of .zattrs this package reads. It accepts
// every version from 0.1 to 0.4.
const attributesSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["multiscales"],
  "properties": {
    "multiscales": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["datasets"],
        "properties": {
          "version": {"type": "string"},
          "name": {"type": "string"},
          "axes": {
            "type": "array",
            "maxItems": 5,
            "items": {
              "oneOf": [
                {"type": "string"},
                {
                  "type": "object",
                  "required": ["name"],
                  "properties": {
                    "name": {"type": "string"},
                    "type": {"type": "string"},
                    "unit": {"type": "string"}
                  }
                }
              ]
            }
          },
          "datasets": {
            "type": "array",
            "minItems": 1,
            "items": {
              "type": "object",
              "required": ["path"],
              "properties": {
                "path": {"type": "string"},
                "coordinateTransformations": {"$ref": "#/definitions/transformations"}
              }
            }
          },
          "coordinateTransformations": {"$ref": "#/definitions/transformations"}
        }
      }
    }
  },
  "definitions": {
    "transformations": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["type"],
        "properties": {
          "type": {"type": "string"},
          "scale": {"type": "array", "items": {"type": "number"}},
          "translation": {"type": "array", "items": {"type": "number"}},
          "path": {"type": "string"}
        }
      }
    }
  }
}`

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func getSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiledSchema, schemaErr = jsonschema.CompileString("ngff-attributes.json", attributesSchema)
	})
	return compiledSchema, schemaErr
}

// ValidateAttributes checks a .zattrs document against the NGFF multiscales
// schema.
func ValidateAttributes(doc []byte) error {
	sch, err := getSchema()
	if err != nil {
		return fmt.Errorf("unable to compile attributes schema: %w", err)
	}
	var v interface{}
	if err := json.Unmarshal(doc, &v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAttributes, err)
	}
	if err := sch.Validate(v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAttributes, err)
	}
	return nil
}
