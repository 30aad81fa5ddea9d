package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Echo is an offline deterministic model. Structured requests receive a
// document conforming to the requested schema, plain requests a summary of
// the prompt.
type Echo struct{}

// NewEcho creates an echo model
func NewEcho() *Echo { return &Echo{} }

// Name returns "echo"
func (e *Echo) Name() string { return ProviderEcho }

// Generate answers without calling any service
func (e *Echo) Generate(ctx context.Context, request *Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var text string
	if request.Structured() {
		data, err := json.Marshal(Skeleton(request.Schema, ""))
		if err != nil {
			return nil, fmt.Errorf("failed to encode skeleton: %w", err)
		}
		text = string(data)
	} else {
		text = "Echo: " + firstLine(request.Prompt)
	}
	return &Response{
		Text:         text,
		PromptTokens: estimateTokens(request.System, request.Prompt),
		OutputTokens: estimateTokens(text),
	}, nil
}

// Skeleton returns a minimal value conforming to a JSON schema; strings take
// the property name.
func Skeleton(schema map[string]any, name string) any {
	if values, ok := schema["enum"].([]any); ok && len(values) > 0 {
		return values[0]
	}
	kind, _ := schema["type"].(string)
	if kinds, ok := schema["type"].([]any); ok && len(kinds) > 0 {
		kind, _ = kinds[0].(string)
	}
	switch kind {
	case "object":
		ret := map[string]any{}
		properties, _ := schema["properties"].(map[string]any)
		keys := make([]string, 0, len(properties))
		for key := range properties {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			property, _ := properties[key].(map[string]any)
			ret[key] = Skeleton(property, key)
		}
		return ret
	case "array":
		items, _ := schema["items"].(map[string]any)
		if items == nil {
			return []any{}
		}
		return []any{Skeleton(items, name)}
	case "integer", "number":
		if minimum, ok := schema["minimum"]; ok {
			return minimum
		}
		return 0
	case "boolean":
		return false
	case "null":
		return nil
	default:
		if name == "" {
			return "value"
		}
		return name
	}
}

func firstLine(text string) string {
	text = strings.TrimSpace(text)
	if idx := strings.IndexByte(text, '\n'); idx != -1 {
		text = text[:idx]
	}
	return text
}
