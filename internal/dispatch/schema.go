package dispatch

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/cog-debug/cog-debug/internal/drivererr"
)

// toolSchema is a tool's JSON Schema document, compiled once at registry
// construction time, grounded on the teacher's
// validatePayloadJSONAgainstSchema compile-and-validate pattern
// (registry/service.go).
type toolSchema struct {
	name   string
	doc    map[string]any
	schema *jsonschema.Schema
}

func compileSchema(name string, doc map[string]any) (*toolSchema, error) {
	c := jsonschema.NewCompiler()
	resource := name + ".json"
	if err := c.AddResource(resource, doc); err != nil {
		return nil, fmt.Errorf("add schema resource for %s: %w", name, err)
	}
	compiled, err := c.Compile(resource)
	if err != nil {
		return nil, fmt.Errorf("compile schema for %s: %w", name, err)
	}
	return &toolSchema{name: name, doc: doc, schema: compiled}, nil
}

// validate decodes raw as a generic JSON document and checks it against
// the compiled schema, per spec.md §4.5 step 1 "validates the shape of
// args".
func (ts *toolSchema) validate(raw json.RawMessage) (map[string]any, error) {
	var doc any
	if len(raw) == 0 {
		doc = map[string]any{}
	} else if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, drivererr.Wrap(drivererr.InvalidArgs, "malformed arguments", err)
	}
	if ts.schema != nil {
		if err := ts.schema.Validate(doc); err != nil {
			return nil, drivererr.Wrap(drivererr.InvalidArgs, "invalid arguments for "+ts.name, err)
		}
	}
	args, _ := doc.(map[string]any)
	if args == nil {
		args = map[string]any{}
	}
	return args, nil
}

// requiredString / optionalString / optionalInt / optionalBool are small
// helpers tool handlers use to pull typed fields out of the validated
// args map without repeating type assertions everywhere.

func requiredString(args map[string]any, key string) (string, error) {
	v, ok := args[key]
	if !ok {
		return "", drivererr.Errorf(drivererr.InvalidArgs, "missing required field %q", key)
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", drivererr.Errorf(drivererr.InvalidArgs, "field %q must be a non-empty string", key)
	}
	return s, nil
}

func optionalString(args map[string]any, key string) string {
	if v, ok := args[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func requiredInt(args map[string]any, key string) (int, error) {
	v, ok := args[key]
	if !ok {
		return 0, drivererr.Errorf(drivererr.InvalidArgs, "missing required field %q", key)
	}
	n, ok := v.(float64)
	if !ok {
		return 0, drivererr.Errorf(drivererr.InvalidArgs, "field %q must be a number", key)
	}
	return int(n), nil
}

func optionalInt(args map[string]any, key string, def int) int {
	if v, ok := args[key]; ok {
		if n, ok := v.(float64); ok {
			return int(n)
		}
	}
	return def
}

func optionalBool(args map[string]any, key string) bool {
	if v, ok := args[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return false
}

func optionalStringSlice(args map[string]any, key string) []string {
	v, ok := args[key]
	if !ok {
		return nil
	}
	raw, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func requiredObject(args map[string]any, key string) map[string]any {
	v, ok := args[key]
	if !ok {
		return nil
	}
	m, _ := v.(map[string]any)
	return m
}
