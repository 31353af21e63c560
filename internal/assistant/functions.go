package assistant

import (
	"github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"
)

// Function names offered to the model.
const (
	FunctionListEvents     = "listEvents"
	FunctionCreateEvent    = "createEvent"
	FunctionGetCurrentTime = "getCurrentTime"
)

// Tools returns the function-calling schema sent with the first model call.
func Tools() []openai.Tool {
	return []openai.Tool{
		{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        FunctionListEvents,
				Description: "List calendar events between two instants, optionally filtered by a search text.",
				Parameters: jsonschema.Definition{
					Type: jsonschema.Object,
					Properties: map[string]jsonschema.Definition{
						"timeMin": {
							Type:        jsonschema.String,
							Description: "Inclusive window start as an ISO 8601 date-time.",
						},
						"timeMax": {
							Type:        jsonschema.String,
							Description: "Exclusive window end as an ISO 8601 date-time.",
						},
						"query": {
							Type:        jsonschema.String,
							Description: "Free text used to filter events.",
						},
					},
					Required: []string{"timeMin", "timeMax"},
				},
			},
		},
		{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        FunctionCreateEvent,
				Description: "Create a calendar event.",
				Parameters: jsonschema.Definition{
					Type: jsonschema.Object,
					Properties: map[string]jsonschema.Definition{
						"summary": {
							Type:        jsonschema.String,
							Description: "Event title.",
						},
						"start": {
							Type:        jsonschema.String,
							Description: "Start as an ISO 8601 date-time.",
						},
						"end": {
							Type:        jsonschema.String,
							Description: "End as an ISO 8601 date-time.",
						},
						"description": {
							Type:        jsonschema.String,
							Description: "Optional event description.",
						},
						"attendees": {
							Type:        jsonschema.Array,
							Description: "Optional attendee email addresses.",
							Items:       &jsonschema.Definition{Type: jsonschema.String},
						},
					},
					Required: []string{"summary", "start", "end"},
				},
			},
		},
		{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        FunctionGetCurrentTime,
				Description: "Get the current date, time and time zone.",
				Parameters: jsonschema.Definition{
					Type:       jsonschema.Object,
					Properties: map[string]jsonschema.Definition{},
				},
			},
		},
	}
}
