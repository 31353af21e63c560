package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetUserFromArgs(t *testing.T) {
	tests := []struct {
		name     string
		args     map[string]interface{}
		expected string
	}{
		{"no user returns anonymous", map[string]interface{}{}, "anonymous"},
		{"user specified", map[string]interface{}{"user_id": "caller-7"}, "caller-7"},
		{"blank user returns anonymous", map[string]interface{}{"user_id": "  "}, "anonymous"},
		{"non-string user returns anonymous", map[string]interface{}{"user_id": 123}, "anonymous"},
		{"nil args returns anonymous", nil, "anonymous"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetUserFromArgs(tt.args))
		})
	}
}

func TestStringArg(t *testing.T) {
	args := map[string]interface{}{"summary": "  Standup ", "count": 3}

	assert.Equal(t, "Standup", StringArg(args, "summary"))
	assert.Empty(t, StringArg(args, "count"))
	assert.Empty(t, StringArg(args, "missing"))
}

func TestStringListArg(t *testing.T) {
	tests := []struct {
		name     string
		value    interface{}
		expected []string
	}{
		{"comma separated", "a@example.com, b@example.com,,", []string{"a@example.com", "b@example.com"}},
		{"json array", []interface{}{"a@example.com", " ", 42, "c@example.com"}, []string{"a@example.com", "c@example.com"}},
		{"string slice", []string{"x@example.com"}, []string{"x@example.com"}},
		{"absent", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := map[string]interface{}{}
			if tt.value != nil {
				args["attendees"] = tt.value
			}
			assert.Equal(t, tt.expected, StringListArg(args, "attendees"))
		})
	}
}
