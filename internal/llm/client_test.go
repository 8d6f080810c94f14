package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourname/macrotracker/internal"
)

const reply = "Calories: 250 kcal, Protein: 10 g, Carbs: 30 g, Fat: 5 g, Fiber: 3 g"

func TestOpenAIClient_Complete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req ChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.Equal(t, SystemPrompt, req.Messages[0].Content)
		assert.Equal(t, "oatmeal", req.Messages[1].Content)

		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"` + reply + `"}}],"usage":{"total_tokens":57}}`))
	}))
	defer srv.Close()

	c := NewOpenAIClient("test-key", srv.URL+"/", "test-model", srv.Client(), internal.NewNopLogger())
	got, err := c.Complete(context.Background(), SystemPrompt, "oatmeal")
	require.NoError(t, err)
	assert.Equal(t, reply, got.Text)
	assert.Equal(t, 57, got.TokensUsed)
}

func TestOpenAIClient_Failures(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"server error": func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		},
		"unauthorized": func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"error":"bad key"}`, http.StatusUnauthorized)
		},
		"no choices": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"choices":[],"usage":{"total_tokens":3}}`))
		},
		"bad json": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`not json`))
		},
	}
	for name, h := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(h)
			defer srv.Close()

			c := NewOpenAIClient("k", srv.URL, "", srv.Client(), internal.NewNopLogger())
			_, err := c.Complete(context.Background(), SystemPrompt, "toast")
			assert.ErrorIs(t, err, internal.ErrExternalCall)
		})
	}
}

func TestOpenAIClient_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewOpenAIClient("k", url, "", &http.Client{Timeout: time.Second}, internal.NewNopLogger())
	_, err := c.Complete(context.Background(), SystemPrompt, "toast")
	assert.ErrorIs(t, err, internal.ErrExternalCall)
}

func TestGeminiClient_Complete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/gemini-test:generateContent", r.URL.Path)
		assert.Equal(t, "g-key", r.URL.Query().Get("key"))

		var req geminiRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.NotNil(t, req.SystemInstruction)
		assert.Equal(t, SystemPrompt, req.SystemInstruction.Parts[0].Text)
		assert.Equal(t, "banana", req.Contents[0].Parts[0].Text)

		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"` + reply + `"}]}}],"usageMetadata":{"totalTokenCount":41}}`))
	}))
	defer srv.Close()

	g := NewGeminiClient("g-key", srv.URL, "gemini-test", srv.Client(), internal.NewNopLogger())
	got, err := g.Complete(context.Background(), SystemPrompt, "banana")
	require.NoError(t, err)
	assert.Equal(t, reply, got.Text)
	assert.Equal(t, 41, got.TokensUsed)
}

func TestGeminiClient_NoCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[]}`))
	}))
	defer srv.Close()

	g := NewGeminiClient("g-key", srv.URL, "", srv.Client(), internal.NewNopLogger())
	_, err := g.Complete(context.Background(), SystemPrompt, "banana")
	assert.ErrorIs(t, err, internal.ErrExternalCall)
}

func TestNew(t *testing.T) {
	c, err := New(Options{Provider: "openai", Timeout: time.Second}, internal.NewNopLogger())
	require.NoError(t, err)
	assert.IsType(t, &OpenAIClient{}, c)

	c, err = New(Options{Provider: "gemini", Timeout: time.Second}, internal.NewNopLogger())
	require.NoError(t, err)
	assert.IsType(t, &GeminiClient{}, c)

	_, err = New(Options{Provider: "claude"}, internal.NewNopLogger())
	assert.Error(t, err)
}
