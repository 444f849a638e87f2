package ai

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Цены OpenRouter за 1М токенов в USD, для оценочной метрики стоимости.
const (
	pricePerMillionInputTokensUSD  = 0.1
	pricePerMillionOutputTokensUSD = 0.4
)

var (
	narratorRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scenario_server_narrator_requests_total",
			Help: "Total number of requests to the narrator API.",
		},
		[]string{"model", "status"},
	)
	narratorRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scenario_server_narrator_request_duration_seconds",
			Help:    "Histogram of narrator API request durations.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"model"},
	)
	narratorPromptTokens = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scenario_server_narrator_prompt_tokens",
			Help:    "Histogram of prompt token counts.",
			Buckets: prometheus.LinearBuckets(250, 250, 20),
		},
		[]string{"model"},
	)
	narratorCompletionTokens = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scenario_server_narrator_completion_tokens",
			Help:    "Histogram of completion token counts.",
			Buckets: prometheus.LinearBuckets(100, 100, 20),
		},
		[]string{"model"},
	)
	narratorEstimatedCostUSD = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scenario_server_narrator_estimated_cost_usd_total",
			Help: "Estimated total cost of narrator requests in USD.",
		},
		[]string{"model"},
	)
)

// calculateCost рассчитывает оценочную стоимость запроса по токенам.
func calculateCost(promptTokens, completionTokens int) float64 {
	inputCost := float64(promptTokens) * pricePerMillionInputTokensUSD / 1_000_000.0
	outputCost := float64(completionTokens) * pricePerMillionOutputTokensUSD / 1_000_000.0
	return inputCost + outputCost
}
