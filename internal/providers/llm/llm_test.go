package llm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mingainspire/better-bolt/internal/utils"
)

// drain collects every chunk, then the terminal error (nil on a clean finish).
func drain(t *testing.T, chunks <-chan string, errs <-chan error) ([]string, error) {
	t.Helper()
	var got []string
	for c := range chunks {
		got = append(got, c)
	}
	return got, <-errs
}

func sse(w http.ResponseWriter, events ...string) {
	for _, e := range events {
		w.Write([]byte("data: " + e + "\n\n"))
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
	}
}

func TestOpenAILikeStreamsDeltasInOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "text/event-stream")
		sse(w,
			`{"choices":[{"delta":{"content":"Hel"}}]}`,
			`{"choices":[{"delta":{"content":"lo"}}]}`,
			`{"choices":[{"delta":{"content":" world"}}]}`,
			`[DONE]`,
		)
	}))
	defer srv.Close()

	p := NewOpenAILike("OpenAI", srv.URL, "", nil)
	chunks, errs, err := p.StreamText(context.Background(), Request{
		Model: "gpt-4o", Prompt: "hi", APIKey: "test-key",
	})
	require.NoError(t, err)

	got, terminal := drain(t, chunks, errs)
	require.NoError(t, terminal)
	assert.Equal(t, []string{"Hel", "lo", " world"}, got)
}

func TestOpenAILikeStopsAtFinishReason(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sse(w,
			`{"choices":[{"delta":{"content":"done"}}]}`,
			`{"choices":[{"delta":{},"finish_reason":"stop"}]}`,
			`{"choices":[{"delta":{"content":"never seen"}}]}`,
		)
	}))
	defer srv.Close()

	p := NewOpenAILike("OpenAI", srv.URL, "test-key", nil)
	chunks, errs, err := p.StreamText(context.Background(), Request{Model: "gpt-4o", Prompt: "hi"})
	require.NoError(t, err)

	got, terminal := drain(t, chunks, errs)
	require.NoError(t, terminal)
	assert.Equal(t, []string{"done"}, got)
}

func TestOpenAILike4xxFailsWholeCallAsRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"invalid api key"}}`))
	}))
	defer srv.Close()

	p := NewOpenAILike("OpenAI", srv.URL, "bad-key", nil)
	_, _, err := p.StreamText(context.Background(), Request{Model: "gpt-4o", Prompt: "hi"})
	require.Error(t, err)
	assert.True(t, utils.IsCode(err, utils.CodeRejected))
}

func TestOpenAILike5xxFailsWholeCallAsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	p := NewOpenAILike("OpenAI", srv.URL, "test-key", nil)
	_, _, err := p.StreamText(context.Background(), Request{Model: "gpt-4o", Prompt: "hi"})
	require.Error(t, err)
	assert.True(t, utils.IsCode(err, utils.CodeUnavailable))
}

func TestOpenAILikeUnreachableHostIsUnavailable(t *testing.T) {
	p := NewOpenAILike("OpenAI", "http://127.0.0.1:1", "test-key", nil)
	_, _, err := p.StreamText(context.Background(), Request{Model: "gpt-4o", Prompt: "hi"})
	require.Error(t, err)
	assert.True(t, utils.IsCode(err, utils.CodeUnavailable))
}

func TestOpenAILikeMissingKeyRejectedBeforeDialing(t *testing.T) {
	p := NewOpenAILike("OpenAI", "http://127.0.0.1:1", "", nil)
	_, _, err := p.StreamText(context.Background(), Request{Model: "gpt-4o", Prompt: "hi"})
	require.Error(t, err)
	assert.True(t, utils.IsCode(err, utils.CodeRejected))
}

func TestOpenAILikeRequestKeyOverridesServerDefault(t *testing.T) {
	var seen string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Get("Authorization")
		sse(w, `[DONE]`)
	}))
	defer srv.Close()

	p := NewOpenAILike("OpenAI", srv.URL, "server-key", nil)
	chunks, errs, err := p.StreamText(context.Background(), Request{
		Model: "gpt-4o", Prompt: "hi", APIKey: "user-key",
	})
	require.NoError(t, err)
	drain(t, chunks, errs)

	assert.Equal(t, "Bearer user-key", seen)
}

func TestOpenAILikeExtraHeaders(t *testing.T) {
	var title string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		title = r.Header.Get("X-Title")
		sse(w, `[DONE]`)
	}))
	defer srv.Close()

	p := NewOpenAILike("OpenRouter", srv.URL, "test-key", map[string]string{"X-Title": "better-bolt"})
	chunks, errs, err := p.StreamText(context.Background(), Request{Model: "m", Prompt: "hi"})
	require.NoError(t, err)
	drain(t, chunks, errs)

	assert.Equal(t, "better-bolt", title)
}

func TestAnthropicForwardsTextDeltas(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/messages", r.URL.Path)
		require.Equal(t, "test-key", r.Header.Get("x-api-key"))
		require.Equal(t, anthropicVersion, r.Header.Get("anthropic-version"))

		sse(w,
			`{"type":"message_start"}`,
			`{"type":"content_block_start"}`,
			`{"type":"content_block_delta","delta":{"type":"text_delta","text":"The "}}`,
			`{"type":"content_block_delta","delta":{"type":"text_delta","text":"answer"}}`,
			`{"type":"content_block_stop"}`,
			`{"type":"message_stop"}`,
		)
	}))
	defer srv.Close()

	a := NewAnthropic(srv.URL, "")
	chunks, errs, err := a.StreamText(context.Background(), Request{
		Model: "claude-3-5-sonnet-20240620", Prompt: "hi", APIKey: "test-key",
	})
	require.NoError(t, err)

	got, terminal := drain(t, chunks, errs)
	require.NoError(t, terminal)
	assert.Equal(t, []string{"The ", "answer"}, got)
}

func TestAnthropicMidStreamErrorEventInterrupts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sse(w,
			`{"type":"content_block_delta","delta":{"type":"text_delta","text":"partial"}}`,
			`{"type":"error","error":{"type":"overloaded_error","message":"Overloaded"}}`,
		)
	}))
	defer srv.Close()

	a := NewAnthropic(srv.URL, "test-key")
	chunks, errs, err := a.StreamText(context.Background(), Request{Model: "m", Prompt: "hi"})
	require.NoError(t, err)

	got, terminal := drain(t, chunks, errs)
	assert.Equal(t, []string{"partial"}, got)
	require.Error(t, terminal)
	assert.True(t, utils.IsCode(terminal, utils.CodeInterrupted))
}

func TestAnthropicMissingKeyRejected(t *testing.T) {
	a := NewAnthropic("http://127.0.0.1:1", "")
	_, _, err := a.StreamText(context.Background(), Request{Model: "m", Prompt: "hi"})
	require.Error(t, err)
	assert.True(t, utils.IsCode(err, utils.CodeRejected))
}

func TestOllamaStreamsNDJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/chat", r.URL.Path)

		w.Write([]byte(`{"message":{"content":"local "},"done":false}` + "\n"))
		w.Write([]byte(`{"message":{"content":"model"},"done":false}` + "\n"))
		w.Write([]byte(`{"message":{"content":""},"done":true}` + "\n"))
	}))
	defer srv.Close()

	o := NewOllama(srv.URL)
	chunks, errs, err := o.StreamText(context.Background(), Request{Model: "llama3:8b", Prompt: "hi"})
	require.NoError(t, err)

	got, terminal := drain(t, chunks, errs)
	require.NoError(t, terminal)
	assert.Equal(t, []string{"local ", "model"}, got)
}

func TestOllamaNeedsNoCredential(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		w.Write([]byte(`{"message":{"content":"ok"},"done":true}` + "\n"))
	}))
	defer srv.Close()

	o := NewOllama(srv.URL)
	chunks, errs, err := o.StreamText(context.Background(), Request{Model: "llama3:8b", Prompt: "hi"})
	require.NoError(t, err)

	got, terminal := drain(t, chunks, errs)
	require.NoError(t, terminal)
	assert.Equal(t, []string{"ok"}, got)
}
