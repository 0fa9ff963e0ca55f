package infrastructure

import (
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	"bistroPulse/internal/modules/listing/application/port"
)

// listEnvelopeSchema accepts a bare array of records or an object whose known envelope
// keys, when present, hold records.
const listEnvelopeSchema = `{
  "definitions": {
    "records": {"type": "array", "items": {"type": "object"}},
    "collection": {
      "anyOf": [
        {"$ref": "#/definitions/records"},
        {
          "type": "object",
          "properties": {
            "items": {"$ref": "#/definitions/records"},
            "results": {"$ref": "#/definitions/records"},
            "docs": {"$ref": "#/definitions/records"}
          }
        }
      ]
    }
  },
  "anyOf": [
    {"$ref": "#/definitions/records"},
    {
      "type": "object",
      "properties": {
        "data": {"$ref": "#/definitions/collection"},
        "items": {"$ref": "#/definitions/records"},
        "results": {"$ref": "#/definitions/records"},
        "docs": {"$ref": "#/definitions/records"}
      }
    }
  ]
}`

var loadListSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewStringLoader(listEnvelopeSchema))
})

// validateListEnvelope checks the raw body against the list envelope schema.
func validateListEnvelope(body []byte) error {
	schema, err := loadListSchema()
	if err != nil {
		return fmt.Errorf("compile list schema: %w", err)
	}
	result, err := schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", port.ErrInvalidPayload, err)
	}
	if result.Valid() {
		return nil
	}
	messages := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		messages = append(messages, fmt.Sprintf("%s: %s", desc.Field(), desc.Description()))
	}
	return fmt.Errorf("%w: %s", port.ErrInvalidPayload, strings.Join(messages, "; "))
}
