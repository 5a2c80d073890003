package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"

	"fitagent/gateway"
)

type Tool interface {
	Name() string
	Title() string
	Description() string
	InputSchema() *jsonschema.Schema
	OutputSchema() *jsonschema.Schema
	Run(ctx context.Context, input map[string]any) (output map[string]any, err error)
}

type Call struct {
	Name      string         `json:"name"`
	Input     map[string]any `json:"input"`
	ToolUseID string         `json:"tool_use_id,omitempty"`
}

var errMissingCaller = errors.New("user_id and auth_token are required")

// withCaller extends a tool's input schema with the mandatory caller
// identity. There is no default user and no default token.
func withCaller(schema *jsonschema.Schema) *jsonschema.Schema {
	if schema.Properties == nil {
		schema.Properties = map[string]*jsonschema.Schema{}
	}
	schema.Properties["user_id"] = &jsonschema.Schema{Type: "integer"}
	schema.Properties["auth_token"] = &jsonschema.Schema{Type: "string"}
	schema.Required = append(schema.Required, "user_id", "auth_token")
	return schema
}

func callerFrom(input map[string]any) (gateway.Caller, error) {
	uid, ok := asInt64(input["user_id"])
	if !ok || uid <= 0 {
		return gateway.Caller{}, errMissingCaller
	}
	token, _ := input["auth_token"].(string)
	if token == "" {
		return gateway.Caller{}, errMissingCaller
	}
	return gateway.Caller{UserID: uid, Token: token}, nil
}

func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case float64:
		return int64(n), true
	case int64:
		return n, true
	case int:
		return int64(n), true
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	}
	return 0, false
}

func asFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

func stringArg(input map[string]any, key string) (string, error) {
	s, ok := input[key].(string)
	if !ok || s == "" {
		return "", fmt.Errorf("%q is required", key)
	}
	return s, nil
}

func int64Arg(input map[string]any, key string) (int64, error) {
	n, ok := asInt64(input[key])
	if !ok {
		return 0, fmt.Errorf("%q is required", key)
	}
	return n, nil
}

func idsArg(input map[string]any, key string) ([]int64, error) {
	raw, ok := input[key].([]any)
	if !ok {
		return nil, fmt.Errorf("%q is required", key)
	}
	ids := make([]int64, 0, len(raw))
	for _, v := range raw {
		id, ok := asInt64(v)
		if !ok {
			return nil, fmt.Errorf("%q contains a non-integer id", key)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// toMap marshals any result through JSON to keep tool outputs uniform.
func toMap(v any) map[string]any {
	b, _ := json.Marshal(v)
	var m map[string]any
	_ = json.Unmarshal(b, &m)
	return m
}

func idSchema() *jsonschema.Schema   { return &jsonschema.Schema{Type: "integer"} }
func dateSchema() *jsonschema.Schema { return &jsonschema.Schema{Type: "string"} }
