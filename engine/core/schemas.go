package core

import "github.com/auralab/aura/engine/schema"

// InputSchema composes an engine's field definitions with the shared base
// fields into a closed object schema. additionalProperties is false so
// unknown fields are rejected at validation time.
func InputSchema(props map[string]any, required ...string) *schema.Schema {
	merged := BaseInputProperties()
	for k, v := range props {
		merged[k] = v
	}
	s := schema.Schema{
		"type":                 "object",
		"properties":           merged,
		"additionalProperties": false,
	}
	if len(required) > 0 {
		reqList := make([]any, len(required))
		for i, r := range required {
			reqList[i] = r
		}
		s["required"] = reqList
	}
	return &s
}

// OutputSchema describes the keys of an engine's raw result. Output
// schemas stay open: interpretation layers may annotate results.
func OutputSchema(props map[string]any) *schema.Schema {
	return &schema.Schema{
		"type":       "object",
		"properties": props,
	}
}
