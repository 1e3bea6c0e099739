/*
Package schema reads the handful of JSON Schema shapes barn depends on:
the top-level oneOf union that names resources, and the type/format of
an attribute reached by a dotted path, following one $ref hop. The
schema document itself is treated as an opaque, externally-validated
JSON value; this package never validates documents against it.
*/
package schema

import (
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonpointer"

	"github.com/kayyagari/barn/internal/log"
)

// ResourceNames returns the resource names referenced from the
// schema's top-level oneOf list, each entry being
// {"$ref": "#/definitions/<Name>"}. If oneOf is absent or malformed,
// it logs a warning and returns an empty list rather than failing.
// db-config-only resources are still usable without a schema union.
func ResourceNames(schemaDoc map[string]interface{}) []string {
	oneOf, ok := schemaDoc["oneOf"].([]interface{})
	if !ok {
		log.WithComponent("schema").Warn().Msg("schema has no top-level oneOf, resource list will be empty")
		return nil
	}

	var names []string
	for _, entry := range oneOf {
		m, ok := entry.(map[string]interface{})
		if !ok {
			continue
		}
		ref, ok := m["$ref"].(string)
		if !ok {
			continue
		}
		const prefix = "#/definitions/"
		if !strings.HasPrefix(ref, prefix) {
			continue
		}
		names = append(names, strings.TrimPrefix(ref, prefix))
	}
	return names
}

// ResolveAttrType resolves the declared type and optional format of
// the attribute at dottedPath within resDef (a resource definition
// node, or the shared /properties fallback). dottedPath uses "." as a
// path separator, rewritten to "/" to form a JSON Pointer.
//
// If the property node itself declares "type", that wins. Otherwise
// its "$ref" is resolved one hop against schemaRoot and that node's
// "type"/"format" is used.
func ResolveAttrType(schemaRoot, resDef map[string]interface{}, dottedPath string) (valType, valFormat string, err error) {
	pointerPath := "/properties/" + strings.ReplaceAll(dottedPath, ".", "/")

	node, ok := resolvePointer(resDef, pointerPath)
	if !ok {
		return "", "", fmt.Errorf("schema: no property definition found at %q", dottedPath)
	}

	propDef, ok := node.(map[string]interface{})
	if !ok {
		return "", "", fmt.Errorf("schema: property definition at %q is not an object", dottedPath)
	}

	if t, ok := propDef["type"].(string); ok {
		format, _ := propDef["format"].(string)
		return t, format, nil
	}

	ref, ok := propDef["$ref"].(string)
	if !ok {
		return "", "", fmt.Errorf("schema: property at %q has neither type nor $ref", dottedPath)
	}

	refPointer := strings.TrimPrefix(ref, "#")
	refNode, ok := resolvePointer(schemaRoot, refPointer)
	if !ok {
		return "", "", fmt.Errorf("schema: $ref %q did not resolve", ref)
	}

	refDef, ok := refNode.(map[string]interface{})
	if !ok {
		return "", "", fmt.Errorf("schema: $ref target %q is not an object", ref)
	}

	t, ok := refDef["type"].(string)
	if !ok {
		return "", "", fmt.Errorf("schema: $ref target %q has no type", ref)
	}
	format, _ := refDef["format"].(string)
	return t, format, nil
}

// resolvePointer walks root following the RFC 6901 tokens of pointer,
// tokenized with jsonpointer.Parse. It supports map[string]interface{}
// and []interface{} nodes, the two shapes encoding/json produces when
// unmarshaling into interface{}.
func resolvePointer(root interface{}, pointer string) (interface{}, bool) {
	if pointer == "" || pointer == "/" {
		return root, true
	}

	tokens, err := jsonpointer.Parse(pointer)
	if err != nil {
		return nil, false
	}

	cur := root
	for _, tok := range tokens {
		switch node := cur.(type) {
		case map[string]interface{}:
			v, ok := node[tok]
			if !ok {
				return nil, false
			}
			cur = v
		case []interface{}:
			idx, ok := parseIndex(tok)
			if !ok || idx < 0 || idx >= len(node) {
				return nil, false
			}
			cur = node[idx]
		default:
			return nil, false
		}
	}
	return cur, true
}

func parseIndex(tok string) (int, bool) {
	if tok == "" {
		return 0, false
	}
	n := 0
	for _, r := range tok {
		if r < '0' || r > '9' {
			return 0, false
		}
		n = n*10 + int(r-'0')
	}
	return n, true
}
