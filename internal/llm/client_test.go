package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChat struct {
	resp  openai.ChatCompletionResponse
	err   error
	delay time.Duration
	reqs  []openai.ChatCompletionRequest
}

func (f *fakeChat) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.reqs = append(f.reqs, req)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return openai.ChatCompletionResponse{}, ctx.Err()
		}
	}
	return f.resp, f.err
}

func reply(content string) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{
			Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: content},
		}},
	}
}

func TestNewClient_RequiresKey(t *testing.T) {
	_, err := NewClient(Config{})
	assert.Error(t, err)

	c, err := NewClient(Config{APIKey: "sk-test", BaseURL: "http://localhost:1/v1"})
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, c.Model())
}

func TestComplete_DirectReply(t *testing.T) {
	api := &fakeChat{resp: reply("I'm your assistant.")}
	c := NewClientWithAPI(api, Config{Model: "gpt-test"})

	msg, err := c.Complete(context.Background(), []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleUser, Content: "What's your name?"},
	}, nil)

	require.NoError(t, err)
	assert.Equal(t, "I'm your assistant.", msg.Content)

	require.Len(t, api.reqs, 1)
	assert.Equal(t, "gpt-test", api.reqs[0].Model)
	assert.Nil(t, api.reqs[0].ToolChoice, "no tool choice without tools")
}

func TestComplete_WithToolsSetsAutoChoice(t *testing.T) {
	api := &fakeChat{resp: reply("ok")}
	c := NewClientWithAPI(api, Config{})

	tools := []openai.Tool{{
		Type:     openai.ToolTypeFunction,
		Function: &openai.FunctionDefinition{Name: "getCurrentTime"},
	}}
	_, err := c.Complete(context.Background(), nil, tools)
	require.NoError(t, err)

	require.Len(t, api.reqs, 1)
	assert.Equal(t, "auto", api.reqs[0].ToolChoice)
	assert.Len(t, api.reqs[0].Tools, 1)
}

func TestComplete_Errors(t *testing.T) {
	tests := []struct {
		name string
		api  *fakeChat
	}{
		{"transport error", &fakeChat{err: errors.New("connection reset")}},
		{"empty choices", &fakeChat{resp: openai.ChatCompletionResponse{}}},
		{"timeout", &fakeChat{resp: reply("late"), delay: time.Second}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewClientWithAPI(tt.api, Config{Timeout: 20 * time.Millisecond})

			_, err := c.Complete(context.Background(), nil, nil)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrUpstream)
		})
	}
}
