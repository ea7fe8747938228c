package httpapi

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// callbackSchema pins the structural contract of the provider callback:
// Body.stkCallback must exist with a reference and an integer result code.
// Metadata is free-form; the service scans it leniently.
const callbackSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["Body"],
  "properties": {
    "Body": {
      "type": "object",
      "required": ["stkCallback"],
      "properties": {
        "stkCallback": {
          "type": "object",
          "required": ["CheckoutRequestID", "ResultCode"],
          "properties": {
            "CheckoutRequestID": {"type": "string", "minLength": 1},
            "ResultCode": {"type": "integer"},
            "ResultDesc": {"type": "string"},
            "CallbackMetadata": {
              "type": "object",
              "properties": {
                "Item": {"type": "array"}
              }
            }
          }
        }
      }
    }
  }
}`

var compiledCallbackSchema = mustCompileSchema("mpesa-callback.json", callbackSchema)

func mustCompileSchema(name, schema string) *jsonschema.Schema {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(schema))
	if err != nil {
		panic(fmt.Sprintf("parse schema %s: %v", name, err))
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, doc); err != nil {
		panic(fmt.Sprintf("add schema %s: %v", name, err))
	}
	compiled, err := compiler.Compile(name)
	if err != nil {
		panic(fmt.Sprintf("compile schema %s: %v", name, err))
	}
	return compiled
}

// validateCallback checks a raw callback body against the schema.
func validateCallback(body []byte) error {
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("parse callback body: %w", err)
	}
	if err := compiledCallbackSchema.Validate(inst); err != nil {
		return fmt.Errorf("callback body rejected: %w", err)
	}
	return nil
}
