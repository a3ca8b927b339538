package generation

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/fyrsmithlabs/ragd/internal/orchestrator"
)

func newChatServer(t *testing.T, answer string, capture *chatRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if capture != nil {
			*capture = req
		}

		resp := chatResponse{}
		resp.Choices = append(resp.Choices, struct {
			Message chatMessage `json:"message"`
		}{Message: chatMessage{Role: "assistant", Content: answer}})
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
}

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	client, err := NewClient(Config{BaseURL: baseURL, Model: "test-model"}, nil)
	require.NoError(t, err)
	return client
}

func TestGenerate(t *testing.T) {
	var captured chatRequest
	srv := newChatServer(t, "the answer", &captured)
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	text, err := client.Generate(context.Background(), orchestrator.Prompt{
		System: "you are helpful",
		History: []orchestrator.PromptTurn{
			{Query: "q1", Answer: "a1"},
		},
		User: "the question",
	})
	require.NoError(t, err)
	assert.Equal(t, "the answer", text)

	// Message order: system, then history pairs, then the user question.
	require.Len(t, captured.Messages, 4)
	assert.Equal(t, "system", captured.Messages[0].Role)
	assert.Equal(t, "user", captured.Messages[1].Role)
	assert.Equal(t, "q1", captured.Messages[1].Content)
	assert.Equal(t, "assistant", captured.Messages[2].Role)
	assert.Equal(t, "a1", captured.Messages[2].Content)
	assert.Equal(t, "user", captured.Messages[3].Role)
	assert.Equal(t, "the question", captured.Messages[3].Content)
	assert.Equal(t, "test-model", captured.Model)
}

func TestGenerateNoSystemPrompt(t *testing.T) {
	var captured chatRequest
	srv := newChatServer(t, "ok", &captured)
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	_, err := client.Generate(context.Background(), orchestrator.Prompt{User: "q"})
	require.NoError(t, err)
	require.Len(t, captured.Messages, 1)
	assert.Equal(t, "user", captured.Messages[0].Role)
}

func TestGenerateAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"model overloaded"}}`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	_, err := client.Generate(context.Background(), orchestrator.Prompt{User: "q"})
	assert.ErrorIs(t, err, ErrGenerationFailed)
	assert.Contains(t, err.Error(), "model overloaded")
}

func TestGenerateEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	_, err := client.Generate(context.Background(), orchestrator.Prompt{User: "q"})
	assert.ErrorIs(t, err, ErrGenerationFailed)
}

func TestNewClientConfiguresRateLimiter(t *testing.T) {
	client, err := NewClient(Config{BaseURL: "http://localhost", Model: "m", RateLimit: 10, Burst: 1}, nil)
	require.NoError(t, err)
	assert.Equal(t, rate.Limit(10), client.limiter.Limit())
	assert.Equal(t, 1, client.limiter.Burst())

	client, err = NewClient(Config{BaseURL: "http://localhost", Model: "m"}, nil)
	require.NoError(t, err)
	assert.Equal(t, rate.Limit(defaultRateLimit), client.limiter.Limit())
	assert.Equal(t, defaultBurst, client.limiter.Burst())
}

func TestGenerateSendsAPIKey(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"ok"}}]}`))
	}))
	defer srv.Close()

	client, err := NewClient(Config{BaseURL: srv.URL, Model: "m", APIKey: "secret-key"}, nil)
	require.NoError(t, err)

	_, err = client.Generate(context.Background(), orchestrator.Prompt{User: "q"})
	require.NoError(t, err)
	assert.Equal(t, "Bearer secret-key", gotAuth)
}
