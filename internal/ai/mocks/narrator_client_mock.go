package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"scenario-server/internal/ai"
	"scenario-server/internal/model"
)

// Mock NarratorClient
type NarratorClient struct {
	mock.Mock

	// Chunks, если задан, скармливается chunkHandler'у перед возвратом
	// замоканного результата. Имитирует стриминг.
	Chunks []string
}

func (m *NarratorClient) GenerateStream(ctx context.Context, systemPrompt string, messages []model.ChatMessage, chunkHandler ai.ChunkHandler) (string, ai.UsageInfo, error) {
	args := m.Called(ctx, systemPrompt, messages, chunkHandler)

	if chunkHandler != nil {
		for _, chunk := range m.Chunks {
			if err := chunkHandler(chunk); err != nil {
				return "", ai.UsageInfo{}, err
			}
		}
	}

	usage, _ := args.Get(1).(ai.UsageInfo)
	return args.String(0), usage, args.Error(2)
}
