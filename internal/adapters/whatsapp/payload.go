package whatsapp

import (
	"encoding/json"
	"strings"

	"wa-nutrition-bot/internal/domain"
)

// The provider delivers either the Cloud-API envelope, with the message
// nested under entry[0].changes[0].value.messages[0], or the legacy flat
// form with a top-level messages array. Status callbacks (delivery/read
// receipts) carry a statuses array and no messages.
type webhookEnvelope struct {
	Entry    []webhookEntry    `json:"entry"`
	Messages []webhookMessage  `json:"messages"`
	Contacts []webhookContact  `json:"contacts"`
	Statuses []json.RawMessage `json:"statuses"`
}

type webhookEntry struct {
	Changes []webhookChange `json:"changes"`
}

type webhookChange struct {
	Value webhookValue `json:"value"`
}

type webhookValue struct {
	Messages []webhookMessage  `json:"messages"`
	Contacts []webhookContact  `json:"contacts"`
	Statuses []json.RawMessage `json:"statuses"`
}

type webhookMessage struct {
	From string `json:"from"`
	Type string `json:"type"`
	Text *struct {
		Body string `json:"body"`
	} `json:"text"`
	Image *struct {
		ID       string `json:"id"`
		MimeType string `json:"mime_type"`
	} `json:"image"`
}

type webhookContact struct {
	WaID    string `json:"wa_id"`
	Profile struct {
		Name string `json:"name"`
	} `json:"profile"`
}

// ExtractMessage normalizes a raw webhook body into at most one message.
// A nil result means there is nothing to act on; the caller must still
// acknowledge the delivery. Extraction never fails: malformed payloads,
// status callbacks and unknown shapes all resolve to nil.
func ExtractMessage(body []byte) *domain.IncomingMessage {
	var envelope webhookEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil
	}

	messages := envelope.Messages
	contacts := envelope.Contacts
	for _, entry := range envelope.Entry {
		for _, change := range entry.Changes {
			if len(change.Value.Messages) > 0 {
				messages = change.Value.Messages
				contacts = change.Value.Contacts
			}
		}
	}
	if len(messages) == 0 {
		return nil
	}

	msg := messages[0]
	from := msg.From
	if from == "" && len(contacts) > 0 {
		from = contacts[0].WaID
	}
	sender := NormalizeWaID(from)
	if sender == "" {
		return nil
	}

	out := domain.IncomingMessage{SenderID: sender, Kind: domain.KindUnsupported}
	if len(contacts) > 0 {
		out.ProfileName = contacts[0].Profile.Name
	}
	switch msg.Type {
	case "text":
		if msg.Text == nil || strings.TrimSpace(msg.Text.Body) == "" {
			return nil
		}
		out.Kind = domain.KindText
		out.Text = strings.TrimSpace(msg.Text.Body)
	case "image":
		if msg.Image == nil || msg.Image.ID == "" {
			return nil
		}
		out.Kind = domain.KindImage
		out.MediaRef = msg.Image.ID
	}
	return &out
}

// NormalizeWaID strips everything but digits from a subscriber identifier,
// so "+55 42 99940-1345" and "5542999401345" key the same session.
func NormalizeWaID(id string) string {
	var b strings.Builder
	for _, r := range id {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
