// Package tools holds the in-process tool handlers the assistant can call.
// Each handler wraps one read path over the catalog or the retrieval engine
// and returns a JSON payload the model can quote from.
package tools

import (
	"encoding/json"
	"fmt"
)

func stringArg(args map[string]any, key string) string {
	if v, ok := args[key].(string); ok {
		return v
	}
	return ""
}

// intArg tolerates the number encodings tool arguments arrive in. JSON
// decoding yields float64; some models send numeric strings.
func intArg(args map[string]any, key string) int64 {
	switch v := args[key].(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case string:
		var n int64
		fmt.Sscanf(v, "%d", &n)
		return n
	}
	return 0
}

func jsonContent(payload any) (string, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encoding tool result: %w", err)
	}
	return string(raw), nil
}
