package barn

import "strings"

// defaultSchemaJSON is used when the CLI is run without a schema
// reference: a permissive object schema with no oneOf union, so
// schema.ResourceNames returns empty, and with neither /definitions
// nor /properties to resolve against, every index falls back to a bare
// string type (see resolveResourceDef in barn.go).
// Ported from the original source's conf::EXAMPLE_SCHEMA constant.
const defaultSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "$id": "https://example.com/product.schema.json",
  "title": "BarnSchema",
  "description": "An example schema",
  "type": "object"
}`

// DefaultSchema parses the built-in default schema, used by the CLI
// when no schema is supplied alongside --conf-file.
func DefaultSchema() map[string]interface{} {
	doc, err := ParseSchema(strings.NewReader(defaultSchemaJSON))
	if err != nil {
		panic("barn: built-in default schema is malformed: " + err.Error())
	}
	return doc
}
