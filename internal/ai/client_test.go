package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"scenario-server/internal/model"
)

// sseServer отдает поток chat-completion фрагментов в формате SSE.
func sseServer(t *testing.T, chunks []string, withUsage bool) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		w.Header().Set("Content-Type", "text/event-stream")

		flusher, ok := w.(http.Flusher)
		require.True(t, ok)

		for _, chunk := range chunks {
			fmt.Fprintf(w, `data: {"id":"1","object":"chat.completion.chunk","choices":[{"index":0,"delta":{"content":%q}}]}`+"\n\n", chunk)
			flusher.Flush()
		}
		if withUsage {
			fmt.Fprint(w, `data: {"id":"1","object":"chat.completion.chunk","choices":[],"usage":{"prompt_tokens":100,"completion_tokens":20,"total_tokens":120}}`+"\n\n")
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
		flusher.Flush()
	}))
}

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	client, err := New(Config{
		APIKey:  "test-key",
		Model:   "test-model",
		BaseURL: baseURL,
		Timeout: 10 * time.Second,
	}, zap.NewNop())
	require.NoError(t, err)
	return client
}

func testMessages() []model.ChatMessage {
	return []model.ChatMessage{{Role: "user", Content: "привет"}}
}

func TestGenerateStream_DeliversChunksInOrder(t *testing.T) {
	server := sseServer(t, []string{"Ре", "бе", "нок"}, true)
	defer server.Close()

	client := newTestClient(t, server.URL)

	var received []string
	fullText, usage, err := client.GenerateStream(context.Background(), "system prompt", testMessages(), func(chunk string) error {
		received = append(received, chunk)
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, "Ребенок", fullText)
	assert.Equal(t, []string{"Ре", "бе", "нок"}, received)
	assert.Equal(t, 100, usage.PromptTokens)
	assert.Equal(t, 20, usage.CompletionTokens)
	assert.Greater(t, usage.EstimatedCostUSD, 0.0)
}

func TestGenerateStream_NilChunkHandler(t *testing.T) {
	server := sseServer(t, []string{"ok"}, false)
	defer server.Close()

	client := newTestClient(t, server.URL)

	fullText, _, err := client.GenerateStream(context.Background(), "system prompt", testMessages(), nil)

	require.NoError(t, err)
	assert.Equal(t, "ok", fullText)
}

func TestGenerateStream_ChunkHandlerErrorAborts(t *testing.T) {
	server := sseServer(t, []string{"a", "b", "c"}, false)
	defer server.Close()

	client := newTestClient(t, server.URL)

	calls := 0
	fullText, _, err := client.GenerateStream(context.Background(), "system prompt", testMessages(), func(chunk string) error {
		calls++
		return errors.New("client disconnected")
	})

	require.ErrorIs(t, err, model.ErrStreamAborted)
	// Полный текст не возвращается при обрыве.
	assert.Empty(t, fullText)
	assert.Equal(t, 1, calls)
}

func TestGenerateStream_EmptyInputs(t *testing.T) {
	client := newTestClient(t, "http://127.0.0.1:0")

	_, _, err := client.GenerateStream(context.Background(), "", testMessages(), nil)
	require.ErrorIs(t, err, ErrGenerationFailed)

	_, _, err = client.GenerateStream(context.Background(), "prompt", nil, nil)
	require.ErrorIs(t, err, ErrGenerationFailed)
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Config{}, zap.NewNop())
	require.Error(t, err)

	client, err := New(Config{APIKey: "key"}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "deepseek/deepseek-chat-v3-0324:free", client.model)
	assert.Equal(t, 300*time.Second, client.timeout)
}

func TestCalculateCost(t *testing.T) {
	assert.Equal(t, 0.0, calculateCost(0, 0))

	// 1M входных + 1M выходных токенов = полная цена за миллион каждого.
	cost := calculateCost(1_000_000, 1_000_000)
	assert.InDelta(t, pricePerMillionInputTokensUSD+pricePerMillionOutputTokensUSD, cost, 1e-9)
}
