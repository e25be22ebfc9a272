package whatsapp

import (
	"context"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"wa-nutrition-bot/internal/infra/metrics"
	"wa-nutrition-bot/internal/usecase/chat"
)

const maxWebhookBytes = 1 << 20

// Handler serves the provider webhook.
type Handler struct {
	chatUC      *chat.Service
	log         zerolog.Logger
	verifyToken string
}

// NewHandler creates the webhook handler.
func NewHandler(chatUC *chat.Service, logger zerolog.Logger, verifyToken string) *Handler {
	return &Handler{chatUC: chatUC, log: logger, verifyToken: verifyToken}
}

// HandleVerify answers the Meta-style GET verification handshake by echoing
// hub.challenge when the verify token matches.
func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	mode := r.URL.Query().Get("hub.mode")
	token := r.URL.Query().Get("hub.verify_token")
	challenge := r.URL.Query().Get("hub.challenge")

	if mode == "subscribe" && token == h.verifyToken {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(challenge))
		return
	}
	http.Error(w, "forbidden", http.StatusForbidden)
}

// HandleWebhook acknowledges every delivery with 200 and hands actionable
// messages off to the chat service. Provider retries would otherwise storm
// the endpoint, so the acknowledgment never waits on downstream calls and
// never reflects their outcome.
func (h *Handler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	metrics.WebhookDeliveries.Inc()
	defer w.WriteHeader(http.StatusOK)

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBytes))
	if err != nil {
		h.log.Warn().Err(err).Msg("webhook body read failed")
		return
	}
	msg := ExtractMessage(body)
	if msg == nil {
		metrics.WebhookIgnored.Inc()
		h.log.Debug().Msg("webhook delivery without actionable message")
		return
	}

	h.log.Info().Str("sender", msg.SenderID).Str("kind", string(msg.Kind)).Msg("webhook message")
	go h.chatUC.HandleMessage(context.WithoutCancel(r.Context()), *msg)
}
