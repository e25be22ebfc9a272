package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	WebhookDeliveries = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "webhook_deliveries_total",
		Help: "Inbound webhook deliveries received",
	})
	WebhookIgnored = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "webhook_ignored_total",
		Help: "Deliveries that produced no actionable message",
	})

	SendAttempts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "wa_send_attempts_total",
		Help: "Outbound send attempts per request variant",
	}, []string{"variant", "status"})
	SendExhausted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "wa_send_exhausted_total",
		Help: "Sends where every request variant failed",
	})

	EstimatorMatches = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "estimator_matches_total",
		Help: "Messages where at least one food was recognized",
	})
	EstimatorMisses = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "estimator_misses_total",
		Help: "Messages where no food was recognized",
	})

	NetworkRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "network_request_duration_seconds",
		Help:    "Duration of outbound network requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"component", "operation", "target", "status"})

	NetworkRequestTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "network_request_total",
		Help: "Count of outbound network requests",
	}, []string{"component", "operation", "target", "status"})

	LLMGenerationDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "llm_generation_duration_seconds",
		Help:    "Duration of LLM reply generation",
		Buckets: prometheus.DefBuckets,
	}, []string{"model"})

	LLMTokensTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "llm_tokens_total",
		Help: "Tokens consumed by LLM calls",
	}, []string{"model", "type"})
)

// MustRegister registers all collectors.
func MustRegister(registerer prometheus.Registerer) {
	registerer.MustRegister(
		WebhookDeliveries,
		WebhookIgnored,
		SendAttempts,
		SendExhausted,
		EstimatorMatches,
		EstimatorMisses,
		NetworkRequestDuration,
		NetworkRequestTotal,
		LLMGenerationDuration,
		LLMTokensTotal,
	)
}

// ObserveNetworkRequest records the duration and status of a network request.
func ObserveNetworkRequest(component, operation, target string, start time.Time, err error) {
	if component == "" {
		component = "unknown"
	}
	if operation == "" {
		operation = "unknown"
	}
	if target == "" {
		target = "unknown"
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	duration := time.Since(start).Seconds()
	NetworkRequestDuration.WithLabelValues(component, operation, target, status).Observe(duration)
	NetworkRequestTotal.WithLabelValues(component, operation, target, status).Inc()
}

// ObserveLLMGeneration records the duration and token usage of an LLM call.
func ObserveLLMGeneration(model string, duration time.Duration, promptTokens, completionTokens, totalTokens int) {
	if model == "" {
		model = "unknown"
	}
	LLMGenerationDuration.WithLabelValues(model).Observe(duration.Seconds())
	if promptTokens > 0 {
		LLMTokensTotal.WithLabelValues(model, "prompt").Add(float64(promptTokens))
	}
	if completionTokens > 0 {
		LLMTokensTotal.WithLabelValues(model, "completion").Add(float64(completionTokens))
	}
	if totalTokens <= 0 {
		totalTokens = promptTokens + completionTokens
	}
	if totalTokens > 0 {
		LLMTokensTotal.WithLabelValues(model, "total").Add(float64(totalTokens))
	}
}

// IncSendAttempt counts one dispatcher attempt for a variant.
func IncSendAttempt(variant string, ok bool) {
	status := "error"
	if ok {
		status = "success"
	}
	SendAttempts.WithLabelValues(variant, status).Inc()
}
