package common

import (
	"strings"

	"github.com/teemow/voicecal/internal/assistant"
)

// GetUserFromArgs returns the user_id argument, defaulting to "anonymous".
func GetUserFromArgs(args map[string]interface{}) string {
	if userVal, ok := args["user_id"].(string); ok && strings.TrimSpace(userVal) != "" {
		return userVal
	}
	return assistant.AnonymousUser
}

// StringArg returns a trimmed string argument, or "" when it is absent or not a string.
func StringArg(args map[string]interface{}, name string) string {
	v, _ := args[name].(string)
	return strings.TrimSpace(v)
}

// StringListArg accepts either a JSON array of strings or a comma-separated string.
// Blank entries are dropped.
func StringListArg(args map[string]interface{}, name string) []string {
	var raw []string
	switch v := args[name].(type) {
	case string:
		raw = strings.Split(v, ",")
	case []interface{}:
		for _, item := range v {
			if s, ok := item.(string); ok {
				raw = append(raw, s)
			}
		}
	case []string:
		raw = v
	}

	var out []string
	for _, s := range raw {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
