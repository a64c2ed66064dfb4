package node

import (
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// configPushSchema validates configuration pushes before any field is
// applied. A push that fails validation is rejected as a whole so a bad
// document never leaves the node in a mixed state. Unknown fields pass
// validation and are ignored, keeping older nodes tolerant of newer
// controllers.
const configPushSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["version"],
  "properties": {
    "version": {"type": "integer", "minimum": 1},
    "motion": {
      "type": "object",
      "properties": {
        "enabled": {"type": "boolean"},
        "threshold": {"type": "integer", "minimum": 1, "maximum": 255},
        "sensitivity": {"type": "integer", "minimum": 1, "maximum": 100},
        "cooldown_ms": {"type": "integer", "minimum": 0},
        "zones": {
          "type": "array",
          "maxItems": 8,
          "items": {
            "type": "object",
            "required": ["x", "y", "width", "height"],
            "properties": {
              "x": {"type": "integer", "minimum": 0, "maximum": 99},
              "y": {"type": "integer", "minimum": 0, "maximum": 99},
              "width": {"type": "integer", "minimum": 1, "maximum": 100},
              "height": {"type": "integer", "minimum": 1, "maximum": 100}
            }
          }
        }
      }
    },
    "audio": {
      "type": "object",
      "properties": {
        "voice_detection": {"type": "boolean"},
        "voice_threshold": {"type": "number", "minimum": 0, "maximum": 1},
        "voice_duration_ms": {"type": "integer", "minimum": 0},
        "noise_reduction": {"type": "boolean"},
        "noise_samples": {"type": "integer", "minimum": 1}
      }
    },
    "faces": {
      "type": "object",
      "properties": {
        "cache_ttl_ms": {"type": "integer", "minimum": 1},
        "cache_max_size": {"type": "integer", "minimum": 1}
      }
    },
    "connection": {
      "type": "object",
      "properties": {
        "host": {"type": "string", "minLength": 1},
        "port": {"type": "integer", "minimum": 1, "maximum": 65535},
        "path": {"type": "string"},
        "tls": {"type": "boolean"},
        "token": {"type": "string", "minLength": 1}
      }
    }
  }
}`

// pushValidator is compiled once at package init; the schema is a
// build-time constant so compilation cannot fail at runtime.
var pushValidator = mustCompilePushSchema()

func mustCompilePushSchema() *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("config_push.json", strings.NewReader(configPushSchema)); err != nil {
		panic(err)
	}
	return compiler.MustCompile("config_push.json")
}
