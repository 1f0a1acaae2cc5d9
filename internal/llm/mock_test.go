package llm

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockProvider_FIFO(t *testing.T) {
	mock := NewMockProvider(
		MockJSON(map[string]any{"definition": "first"}),
		MockResponse{Content: json.RawMessage(`{"definition":"second"}`), Usage: Usage{InputTokens: 3, OutputTokens: 2}},
	)
	assert.Equal(t, 2, mock.Pending())

	first, err := mock.Generate(context.Background(), Prompt("sys", "one", nil))
	require.NoError(t, err)
	assert.JSONEq(t, `{"definition":"first"}`, string(first.Content))

	second, err := mock.Generate(context.Background(), Prompt("sys", "two", nil))
	require.NoError(t, err)
	assert.Equal(t, 5, second.Usage.TotalTokens)
	assert.Equal(t, StopEnd, second.StopReason)

	_, err = mock.Generate(context.Background(), Prompt("sys", "three", nil))
	var down *ErrProviderUnavailable
	require.ErrorAs(t, err, &down)
	assert.ErrorIs(t, err, errMockExhausted)

	require.Equal(t, 3, mock.CallCount())
	assert.Equal(t, "two", mock.Calls[1].Messages[0].Content)
	assert.Zero(t, mock.Pending())
}

func TestMockProvider_CannedError(t *testing.T) {
	boom := errors.New("boom")
	mock := NewMockProvider(MockResponse{Err: boom})
	_, err := mock.Generate(context.Background(), Request{})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "mock", mock.ModelID())
}

func TestMockJSON_PanicsOnBadValue(t *testing.T) {
	assert.Panics(t, func() { MockJSON(func() {}) })
}

func TestPrompt(t *testing.T) {
	req := Prompt("system", "user text", definitionSchema)
	assert.Equal(t, "system", req.System)
	require.Len(t, req.Messages, 1)
	assert.Equal(t, RoleUser, req.Messages[0].Role)
	assert.Same(t, definitionSchema, req.Schema)
}

func TestFinish(t *testing.T) {
	req := defineRequest()

	resp, err := finish(req, json.RawMessage(validDefinition), Usage{InputTokens: 4, OutputTokens: 6}, "m", StopEnd)
	require.NoError(t, err)
	assert.Equal(t, 10, resp.Usage.TotalTokens)

	_, err = finish(req, json.RawMessage(`[]`), Usage{}, "m", StopEnd)
	var invalid *ErrInvalidResponse
	assert.ErrorAs(t, err, &invalid)

	_, err = finish(req, json.RawMessage(validDefinition), Usage{}, "m", StopMaxTokens)
	var truncated *ErrMaxTokensExceeded
	assert.ErrorAs(t, err, &truncated)

	free := Prompt("", "hi", nil)
	resp, err = finish(free, json.RawMessage(`not json`), Usage{}, "m", StopEnd)
	require.NoError(t, err)
	assert.Equal(t, "not json", string(resp.Content))
}

func TestPurposeContext(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, "unknown", PurposeFrom(ctx))
	assert.Equal(t, PurposeQuestionGen, PurposeFrom(WithPurpose(ctx, PurposeQuestionGen)))
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		missing bool
		wantErr bool
	}{
		{"anthropic without key", Config{Provider: ProviderAnthropic}, true, true},
		{"anthropic with key", Config{Provider: ProviderAnthropic, Anthropic: AnthropicConfig{APIKey: "sk"}}, false, false},
		{"gemini without key", Config{Provider: ProviderGemini}, true, true},
		{"openrouter without key", Config{Provider: ProviderOpenRouter}, true, true},
		{"openai with key", Config{Provider: ProviderOpenAI, OpenAI: OpenAIConfig{APIKey: "sk"}}, false, false},
		{"mock needs no key", Config{Provider: ProviderMock}, false, false},
		{"unknown provider", Config{Provider: "llama"}, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.missing, errors.Is(err, ErrMissingAPIKey))
		})
	}
}
