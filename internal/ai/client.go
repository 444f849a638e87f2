// Package ai реализует клиент нарратора поверх OpenAI-совместимого API
// (OpenRouter). Единственная операция - потоковая генерация ответа:
// каждый дельта-фрагмент передается в callback, полный текст возвращается
// только после штатного завершения стрима.
package ai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkoukk/tiktoken-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"scenario-server/internal/model"
)

const defaultBaseURL = "https://openrouter.ai/api/v1"

// ErrGenerationFailed - ошибка генерации текста нарратором.
var ErrGenerationFailed = errors.New("narrator generation failed")

// UsageInfo содержит информацию об использовании токенов и стоимости.
type UsageInfo struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	EstimatedCostUSD float64
}

// ChunkHandler вызывается для каждого фрагмента ответа по мере поступления.
// Возвращенная ошибка прерывает стрим.
type ChunkHandler func(chunk string) error

// NarratorClient - интерфейс клиента нарратора, который потребляет оркестратор.
//
//go:generate mockery --name NarratorClient --output ./mocks --outpkg mocks --case=underscore
type NarratorClient interface {
	// GenerateStream отправляет системный промпт и историю сообщений,
	// стримит ответ через chunkHandler и возвращает полный собранный текст
	// только после завершения стрима. При обрыве возвращается ошибка,
	// а частичный текст не возвращается.
	GenerateStream(ctx context.Context, systemPrompt string, messages []model.ChatMessage, chunkHandler ChunkHandler) (string, UsageInfo, error)
}

// Config содержит конфигурацию клиента нарратора.
type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// Client - реализация NarratorClient поверх go-openai.
type Client struct {
	client  *openai.Client
	model   string
	timeout time.Duration
	logger  *zap.Logger
}

var _ NarratorClient = (*Client)(nil)

// New создает клиент нарратора.
func New(cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("narrator API key is not set")
	}
	if cfg.Model == "" {
		cfg.Model = "deepseek/deepseek-chat-v3-0324:free"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 300 * time.Second
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	clientConfig.BaseURL = cfg.BaseURL
	clientConfig.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &Client{
		client:  openai.NewClientWithConfig(clientConfig),
		model:   cfg.Model,
		timeout: cfg.Timeout,
		logger:  logger.Named("NarratorClient"),
	}, nil
}

// GenerateStream реализует NarratorClient.
func (c *Client) GenerateStream(ctx context.Context, systemPrompt string, messages []model.ChatMessage, chunkHandler ChunkHandler) (string, UsageInfo, error) {
	usage := UsageInfo{}
	if strings.TrimSpace(systemPrompt) == "" {
		return "", usage, fmt.Errorf("%w: empty system prompt", ErrGenerationFailed)
	}
	if len(messages) == 0 {
		return "", usage, fmt.Errorf("%w: empty message history", ErrGenerationFailed)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	chatMessages := make([]openai.ChatCompletionMessage, 0, len(messages)+1)
	chatMessages = append(chatMessages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: systemPrompt,
	})
	for _, m := range messages {
		chatMessages = append(chatMessages, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	request := openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: chatMessages,
		Stream:   true,
	}

	c.logger.Debug("Отправка STREAM запроса нарратору",
		zap.String("model", c.model),
		zap.Int("systemPromptBytes", len(systemPrompt)),
		zap.Int("messages", len(messages)),
	)

	stream, err := c.client.CreateChatCompletionStream(ctx, request)
	if err != nil {
		narratorRequestsTotal.With(prometheus.Labels{"model": c.model, "status": "error_stream_init"}).Inc()
		return "", usage, fmt.Errorf("%w: stream init: %v", ErrGenerationFailed, err)
	}
	defer stream.Close()

	startTime := time.Now()
	completionTokensCount := 0
	var finalUsage openai.Usage
	var responseTextBuilder strings.Builder

	for {
		response, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			narratorRequestsTotal.With(prometheus.Labels{"model": c.model, "status": "error_stream_read"}).Inc()
			return "", usage, fmt.Errorf("%w: stream read: %v", model.ErrStreamAborted, err)
		}

		// Usage приходит в финальном блоке стрима, если API его отдает.
		if response.Usage != nil && response.Usage.TotalTokens > 0 {
			finalUsage = *response.Usage
		}

		if len(response.Choices) == 0 {
			continue
		}
		chunk := response.Choices[0].Delta.Content
		if chunk == "" {
			continue
		}
		responseTextBuilder.WriteString(chunk)

		// Примерный подсчет токенов на лету, если Usage не придет.
		if tke, err := tiktoken.EncodingForModel("gpt-4"); err == nil {
			completionTokensCount += len(tke.Encode(chunk, nil, nil))
		}

		if chunkHandler != nil {
			if err := chunkHandler(chunk); err != nil {
				narratorRequestsTotal.With(prometheus.Labels{"model": c.model, "status": "error_chunk_handler"}).Inc()
				return "", usage, fmt.Errorf("%w: chunk handler: %v", model.ErrStreamAborted, err)
			}
		}
	}

	duration := time.Since(startTime)

	if finalUsage.TotalTokens > 0 {
		usage.PromptTokens = finalUsage.PromptTokens
		usage.CompletionTokens = finalUsage.CompletionTokens
		usage.TotalTokens = finalUsage.TotalTokens
	} else {
		usage.CompletionTokens = completionTokensCount
		usage.TotalTokens = completionTokensCount
	}
	usage.EstimatedCostUSD = calculateCost(usage.PromptTokens, usage.CompletionTokens)

	narratorRequestsTotal.With(prometheus.Labels{"model": c.model, "status": "success_stream"}).Inc()
	narratorRequestDuration.WithLabelValues(c.model).Observe(duration.Seconds())
	narratorPromptTokens.WithLabelValues(c.model).Observe(float64(usage.PromptTokens))
	narratorCompletionTokens.WithLabelValues(c.model).Observe(float64(usage.CompletionTokens))
	if usage.EstimatedCostUSD > 0 {
		narratorEstimatedCostUSD.WithLabelValues(c.model).Add(usage.EstimatedCostUSD)
	}

	c.logger.Debug("Стрим нарратора завершен",
		zap.Duration("duration", duration),
		zap.Int("responseBytes", responseTextBuilder.Len()),
		zap.Int("completionTokens", usage.CompletionTokens),
	)

	return responseTextBuilder.String(), usage, nil
}
