package sentiment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Veraticus/lumos/internal/common"
	"github.com/Veraticus/lumos/internal/model"
	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOpenAITestServer(t *testing.T, status int, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		if status != http.StatusOK {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"error":{"message":"slow down","type":"rate_limit_error"}}`))
			return
		}

		var req openai.ChatCompletionRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, openai.GPT4oMini, req.Model)
		if assert.Len(t, req.Messages, 2) {
			assert.Equal(t, openai.ChatMessageRoleSystem, req.Messages[0].Role)
		}

		resp := openai.ChatCompletionResponse{
			ID:     "chatcmpl-test",
			Object: "chat.completion",
			Model:  req.Model,
			Choices: []openai.ChatCompletionChoice{{
				Index:        0,
				Message:      openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: content},
				FinishReason: openai.FinishReasonStop,
			}},
		}
		assert.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
}

func TestNewOpenAIClient(t *testing.T) {
	_, err := newOpenAIClient(Config{})
	assert.ErrorIs(t, err, common.ErrMissingConfig)

	client, err := newOpenAIClient(Config{APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, openai.GPT4oMini, client.(*openAIClient).model)
}

func TestOpenAIClientAnalyze(t *testing.T) {
	t.Run("successful classification", func(t *testing.T) {
		server := newOpenAITestServer(t, http.StatusOK,
			`{"label":"negative","scores":{"positive":0.05,"neutral":0.15,"negative":0.8}}`)
		defer server.Close()

		client, err := newOpenAIClient(Config{APIKey: "test-key", Endpoint: server.URL + "/v1"})
		require.NoError(t, err)

		result, err := client.Analyze(context.Background(), "This is terrible service")
		require.NoError(t, err)
		assert.Equal(t, model.LabelNegative, result.Label)
		assert.InDelta(t, 0.8, result.Scores.Negative, 1e-9)
	})

	t.Run("rate limited", func(t *testing.T) {
		server := newOpenAITestServer(t, http.StatusTooManyRequests, "")
		defer server.Close()

		client, err := newOpenAIClient(Config{APIKey: "test-key", Endpoint: server.URL + "/v1"})
		require.NoError(t, err)

		_, err = client.Analyze(context.Background(), "text")
		require.Error(t, err)
		assert.ErrorIs(t, err, common.ErrRateLimited)
	})

	t.Run("unparseable content", func(t *testing.T) {
		server := newOpenAITestServer(t, http.StatusOK, "I think it is positive")
		defer server.Close()

		client, err := newOpenAIClient(Config{APIKey: "test-key", Endpoint: server.URL + "/v1"})
		require.NoError(t, err)

		_, err = client.Analyze(context.Background(), "text")
		assert.ErrorIs(t, err, common.ErrMalformedResponse)
	})
}

func TestParseLLMSentiment(t *testing.T) {
	t.Run("fenced json", func(t *testing.T) {
		content := "```json\n{\"label\":\"positive\",\"scores\":{\"positive\":0.9,\"neutral\":0.1,\"negative\":0}}\n```"
		result, err := parseLLMSentiment("openai sentiment", content)
		require.NoError(t, err)
		assert.Equal(t, model.LabelPositive, result.Label)
		assert.InDelta(t, 0.9, result.Scores.Positive, 1e-9)
	})

	t.Run("label is case insensitive", func(t *testing.T) {
		result, err := parseLLMSentiment("openai sentiment", `{"label":"Neutral","scores":{"positive":0.1,"neutral":0.8,"negative":0.1}}`)
		require.NoError(t, err)
		assert.Equal(t, model.LabelNeutral, result.Label)
	})

	t.Run("missing scores", func(t *testing.T) {
		_, err := parseLLMSentiment("openai sentiment", `{"label":"neutral"}`)
		assert.ErrorIs(t, err, common.ErrMalformedResponse)
	})

	t.Run("unknown label", func(t *testing.T) {
		_, err := parseLLMSentiment("openai sentiment", `{"label":"angry","scores":{"positive":0,"neutral":0,"negative":1}}`)
		assert.ErrorIs(t, err, common.ErrMalformedResponse)
	})
}

func TestStripCodeFence(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripCodeFence("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripCodeFence("```\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripCodeFence("  {\"a\":1}  "))
}
