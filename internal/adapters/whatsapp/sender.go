package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"wa-nutrition-bot/internal/domain"
	"wa-nutrition-bot/internal/infra/metrics"
)

// maxBodyRunes is the provider's maximum text length. Longer bodies are
// truncated at this length with no further processing.
const maxBodyRunes = 4000

const apiKeyHeader = "D360-API-KEY"

// Variant is one concrete request shape tried against the send endpoint.
// Tenants differ in which shape they accept, so the sender walks an ordered
// list until one returns 2xx.
type Variant struct {
	Name  string
	Path  string
	Build func(to, body string) any
}

type textPayload struct {
	MessagingProduct string      `json:"messaging_product,omitempty"`
	RecipientType    string      `json:"recipient_type,omitempty"`
	To               string      `json:"to"`
	Type             string      `json:"type"`
	Text             textContent `json:"text"`
}

type textContent struct {
	Body string `json:"body"`
}

// DefaultVariants is the shape order observed to cover 360dialog tenants:
// the Cloud-API envelope first, then the classic v1 payload, then the v1
// path with the full envelope.
func DefaultVariants() []Variant {
	cloud := func(to, body string) any {
		return textPayload{
			MessagingProduct: "whatsapp",
			RecipientType:    "individual",
			To:               to,
			Type:             "text",
			Text:             textContent{Body: body},
		}
	}
	bare := func(to, body string) any {
		return textPayload{To: to, Type: "text", Text: textContent{Body: body}}
	}
	return []Variant{
		{Name: "cloud", Path: "/messages", Build: cloud},
		{Name: "v1", Path: "/v1/messages", Build: bare},
		{Name: "v1-full", Path: "/v1/messages", Build: cloud},
	}
}

// Sender delivers text replies through the provider's send endpoint.
type Sender struct {
	http     *http.Client
	baseURL  string
	apiKey   string
	log      zerolog.Logger
	variants []Variant
}

var _ domain.Messenger = (*Sender)(nil)

// NewSender creates the dispatcher. An empty variants list falls back to
// DefaultVariants.
func NewSender(baseURL, apiKey string, timeout time.Duration, logger zerolog.Logger, variants []Variant) *Sender {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if len(variants) == 0 {
		variants = DefaultVariants()
	}
	return &Sender{
		http:     &http.Client{Timeout: timeout},
		baseURL:  strings.TrimRight(baseURL, "/"),
		apiKey:   apiKey,
		log:      logger,
		variants: variants,
	}
}

// SendText tries each variant in order and stops on the first 2xx. The
// returned result records every attempt; on exhaustion a single aggregated
// error is returned. Retried calls can deliver the message twice — the
// provider offers no idempotency and none is layered on top.
func (s *Sender) SendText(ctx context.Context, to, body string) (domain.DispatchResult, error) {
	body = truncateRunes(body, maxBodyRunes)
	dispatchID := uuid.NewString()
	logger := s.log.With().Str("dispatch_id", dispatchID).Str("to", to).Logger()

	result := domain.DispatchResult{State: domain.DispatchExhausted}
	for _, variant := range s.variants {
		attempt := s.attempt(ctx, variant, to, body)
		result.Attempts = append(result.Attempts, attempt)

		ok := attempt.Err == "" && attempt.StatusCode >= 200 && attempt.StatusCode < 300
		metrics.IncSendAttempt(variant.Name, ok)
		event := logger.Info()
		if !ok {
			event = logger.Warn()
		}
		event.
			Str("variant", variant.Name).
			Str("url", attempt.URL).
			Int("status", attempt.StatusCode).
			Str("response", attempt.Body).
			Str("error", attempt.Err).
			Msg("send attempt")

		if ok {
			result.State = domain.DispatchSuccess
			result.Variant = variant.Name
			result.Body = attempt.Body
			return result, nil
		}
	}

	metrics.SendExhausted.Inc()
	summaries := make([]string, 0, len(result.Attempts))
	for _, a := range result.Attempts {
		if a.Err != "" {
			summaries = append(summaries, fmt.Sprintf("%s: %s", a.Variant, a.Err))
			continue
		}
		summaries = append(summaries, fmt.Sprintf("%s: status %d", a.Variant, a.StatusCode))
	}
	err := fmt.Errorf("whatsapp: all %d send variants failed: %s", len(result.Attempts), strings.Join(summaries, "; "))
	logger.Error().Err(err).Msg("send exhausted")
	return result, err
}

func (s *Sender) attempt(ctx context.Context, variant Variant, to, body string) domain.DispatchAttempt {
	attempt := domain.DispatchAttempt{Variant: variant.Name, URL: s.baseURL + variant.Path}

	payload, err := json.Marshal(variant.Build(to, body))
	if err != nil {
		attempt.Err = fmt.Sprintf("marshal payload: %v", err)
		return attempt
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, attempt.URL, bytes.NewReader(payload))
	if err != nil {
		attempt.Err = fmt.Sprintf("build request: %v", err)
		return attempt
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(apiKeyHeader, s.apiKey)

	start := time.Now()
	resp, err := s.http.Do(req)
	metrics.ObserveNetworkRequest("whatsapp", "send_text", variant.Name, start, err)
	if err != nil {
		attempt.Err = err.Error()
		return attempt
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	attempt.StatusCode = resp.StatusCode
	attempt.Body = strings.TrimSpace(string(data))
	return attempt
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
