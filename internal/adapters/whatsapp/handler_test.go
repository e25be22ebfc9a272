package whatsapp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"wa-nutrition-bot/internal/domain"
	"wa-nutrition-bot/internal/infra/session"
	"wa-nutrition-bot/internal/usecase/chat"
)

type stubMessenger struct {
	calls int
}

func (m *stubMessenger) SendText(ctx context.Context, to, body string) (domain.DispatchResult, error) {
	m.calls++
	return domain.DispatchResult{State: domain.DispatchSuccess, Variant: "cloud"}, nil
}

type stubEstimator struct{}

func (stubEstimator) Estimate(text string) domain.Estimate { return domain.Estimate{} }

type stubMedia struct{}

func (stubMedia) DownloadMedia(ctx context.Context, mediaID string) ([]byte, string, error) {
	return nil, "", nil
}

type stubReplier struct{}

func (stubReplier) Reply(ctx context.Context, text string, history []domain.ChatTurn) (string, error) {
	return "ok", nil
}

func (stubReplier) DescribeImage(ctx context.Context, data []byte, mimeType string) (string, error) {
	return "ok", nil
}

func newTestHandler(messenger *stubMessenger) *Handler {
	svc := chat.NewService(session.NewMemory(6), stubEstimator{}, messenger, stubMedia{}, stubReplier{}, zerolog.Nop(), time.UTC)
	return NewHandler(svc, zerolog.Nop(), "secret")
}

func TestHandleWebhookStatusesAckWithoutDispatch(t *testing.T) {
	messenger := &stubMessenger{}
	handler := newTestHandler(messenger)

	payload := `{"entry":[{"changes":[{"value":{"statuses":[{"status":"read"}]}}]}]}`
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(payload))
	rec := httptest.NewRecorder()
	handler.HandleWebhook(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 ack, got %d", rec.Code)
	}
	if messenger.calls != 0 {
		t.Fatalf("expected no dispatch for status callback, got %d calls", messenger.calls)
	}
}

func TestHandleWebhookMalformedBodyStillAcks(t *testing.T) {
	messenger := &stubMessenger{}
	handler := newTestHandler(messenger)

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(`{broken`))
	rec := httptest.NewRecorder()
	handler.HandleWebhook(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 ack for malformed body, got %d", rec.Code)
	}
	if messenger.calls != 0 {
		t.Fatalf("expected no dispatch, got %d calls", messenger.calls)
	}
}

func TestHandleVerify(t *testing.T) {
	handler := newTestHandler(&stubMessenger{})

	req := httptest.NewRequest(http.MethodGet, "/webhook?hub.mode=subscribe&hub.verify_token=secret&hub.challenge=12345", nil)
	rec := httptest.NewRecorder()
	handler.HandleVerify(rec, req)
	if rec.Code != http.StatusOK || rec.Body.String() != "12345" {
		t.Fatalf("expected challenge echo, got %d %q", rec.Code, rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/webhook?hub.mode=subscribe&hub.verify_token=wrong&hub.challenge=12345", nil)
	rec = httptest.NewRecorder()
	handler.HandleVerify(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for wrong token, got %d", rec.Code)
	}
}
