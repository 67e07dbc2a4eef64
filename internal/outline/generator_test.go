package outline_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gnemet/deckdraft/internal/config"
	"github.com/gnemet/deckdraft/internal/outline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chatReply(t *testing.T, w http.ResponseWriter, content string) {
	t.Helper()
	err := json.NewEncoder(w).Encode(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"role": "assistant", "content": content}},
		},
	})
	require.NoError(t, err)
}

func openAIGenerator(endpoint string) *outline.Generator {
	return outline.NewGenerator(config.ProviderSettings{
		Driver:      "openai",
		Endpoint:    endpoint,
		Model:       "gpt-4o-mini",
		Temperature: 0.5,
	})
}

func TestGenerateOpenAI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-4o-mini", req.Model)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.Contains(t, req.Messages[1].Content, "Alpha. Beta. Gamma.")

		chatReply(t, w, `{"slides":[{"title":"Overview","content":["Alpha","Beta","Gamma"]}]}`)
	}))
	defer srv.Close()

	got, err := openAIGenerator(srv.URL).Generate(context.Background(), "sk-test", "Alpha. Beta. Gamma.", "")
	require.NoError(t, err)
	require.Len(t, got.Slides, 1)
	assert.Equal(t, "Overview", got.Slides[0].Title)
	assert.Equal(t, []string{"Alpha", "Beta", "Gamma"}, got.Slides[0].Content)
}

func TestGenerateOpenAIAuthRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"invalid api key"}}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := openAIGenerator(srv.URL).Generate(context.Background(), "bad-key", "text", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
	assert.Contains(t, err.Error(), "invalid api key")
}

func TestGenerateOpenAIUnparseableContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		chatReply(t, w, "Sure! Here is an outline for you:\n1. Intro")
	}))
	defer srv.Close()

	got, err := openAIGenerator(srv.URL).Generate(context.Background(), "sk-test", "text", "")
	require.Error(t, err)
	assert.Nil(t, got)
}

func TestGenerateOpenAINoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	_, err := openAIGenerator(srv.URL).Generate(context.Background(), "sk-test", "text", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no choices")
}

func TestGenerateUnsupportedDriver(t *testing.T) {
	gen := outline.NewGenerator(config.ProviderSettings{Driver: "carrier-pigeon"})

	_, err := gen.Generate(context.Background(), "key", "text", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "carrier-pigeon")
}
