package chat

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"wa-nutrition-bot/internal/domain"
	"wa-nutrition-bot/internal/infra/session"
)

type fakeMessenger struct {
	sent []domain.OutboundReply
	err  error
}

func (m *fakeMessenger) SendText(ctx context.Context, to, body string) (domain.DispatchResult, error) {
	m.sent = append(m.sent, domain.OutboundReply{To: to, Body: body})
	if m.err != nil {
		return domain.DispatchResult{State: domain.DispatchExhausted}, m.err
	}
	return domain.DispatchResult{State: domain.DispatchSuccess, Variant: "cloud"}, nil
}

type fakeEstimator struct {
	result domain.Estimate
}

func (f *fakeEstimator) Estimate(text string) domain.Estimate { return f.result }

type fakeMedia struct {
	data []byte
	mime string
	err  error
}

func (f *fakeMedia) DownloadMedia(ctx context.Context, mediaID string) ([]byte, string, error) {
	return f.data, f.mime, f.err
}

type fakeReplier struct {
	reply    string
	err      error
	imgReply string
	imgErr   error
	calls    int
}

func (f *fakeReplier) Reply(ctx context.Context, text string, history []domain.ChatTurn) (string, error) {
	f.calls++
	return f.reply, f.err
}

func (f *fakeReplier) DescribeImage(ctx context.Context, data []byte, mimeType string) (string, error) {
	return f.imgReply, f.imgErr
}

func newService(messenger *fakeMessenger, est *fakeEstimator, media *fakeMedia, replier *fakeReplier) (*Service, *session.Memory) {
	store := session.NewMemory(6)
	svc := NewService(store, est, messenger, media, replier, zerolog.Nop(), time.UTC)
	return svc, store
}

func textMsg(text string) domain.IncomingMessage {
	return domain.IncomingMessage{SenderID: "5542999401345", Kind: domain.KindText, Text: text}
}

func TestHandleTextLogsMealAndReportsTotal(t *testing.T) {
	messenger := &fakeMessenger{}
	est := &fakeEstimator{result: domain.Estimate{
		Entries: []domain.FoodEntry{
			{Label: "ovo", Quantity: 2, Unit: domain.UnitPiece, Kcal: 140},
			{Label: "pão francês", Quantity: 1, Unit: domain.UnitPiece, Kcal: 140},
		},
		Total: 280,
	}}
	svc, store := newService(messenger, est, &fakeMedia{}, &fakeReplier{})

	svc.HandleMessage(context.Background(), textMsg("2 ovos e 1 pão francês"))

	if len(messenger.sent) != 1 {
		t.Fatalf("expected one reply, got %d", len(messenger.sent))
	}
	body := messenger.sent[0].Body
	if !strings.Contains(body, "Total de hoje: 280 kcal") {
		t.Fatalf("expected daily total in reply, got %q", body)
	}
	if !strings.Contains(body, "ovo") || !strings.Contains(body, "pão francês") {
		t.Fatalf("expected itemized entries, got %q", body)
	}

	day := time.Now().UTC().Format("2006-01-02")
	dayLog, err := store.DailyLog(context.Background(), "5542999401345", day)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dayLog.TotalKcal != 280 || len(dayLog.Entries) != 2 {
		t.Fatalf("expected persisted log, got %+v", dayLog)
	}
}

func TestHandleTextAccumulatesWithinDay(t *testing.T) {
	messenger := &fakeMessenger{}
	est := &fakeEstimator{result: domain.Estimate{
		Entries: []domain.FoodEntry{{Label: "banana", Quantity: 1, Unit: domain.UnitPiece, Kcal: 90}},
		Total:   90,
	}}
	svc, _ := newService(messenger, est, &fakeMedia{}, &fakeReplier{})

	svc.HandleMessage(context.Background(), textMsg("1 banana"))
	svc.HandleMessage(context.Background(), textMsg("1 banana"))

	if len(messenger.sent) != 2 {
		t.Fatalf("expected two replies, got %d", len(messenger.sent))
	}
	if !strings.Contains(messenger.sent[1].Body, "Total de hoje: 180 kcal") {
		t.Fatalf("expected accumulated total, got %q", messenger.sent[1].Body)
	}
}

func TestHandleTextMealIntentWithoutMatchAsksToRephrase(t *testing.T) {
	messenger := &fakeMessenger{}
	replier := &fakeReplier{reply: "should not be used"}
	svc, _ := newService(messenger, &fakeEstimator{}, &fakeMedia{}, replier)

	svc.HandleMessage(context.Background(), textMsg("comi uma pizza"))

	if len(messenger.sent) != 1 || messenger.sent[0].Body != clarifyReply {
		t.Fatalf("expected clarifying prompt, got %+v", messenger.sent)
	}
	if replier.calls != 0 {
		t.Fatalf("expected no LLM call for a meal-intent miss")
	}
}

func TestHandleTextFallsBackToReplier(t *testing.T) {
	messenger := &fakeMessenger{}
	replier := &fakeReplier{reply: "Olá! Como posso ajudar?"}
	svc, store := newService(messenger, &fakeEstimator{}, &fakeMedia{}, replier)

	svc.HandleMessage(context.Background(), textMsg("bom dia"))

	if len(messenger.sent) != 1 || messenger.sent[0].Body != "Olá! Como posso ajudar?" {
		t.Fatalf("expected LLM reply, got %+v", messenger.sent)
	}
	turns, err := store.History(context.Background(), "5542999401345")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(turns) != 2 || turns[0].Role != domain.TurnUser || turns[1].Role != domain.TurnAssistant {
		t.Fatalf("expected both turns recorded, got %+v", turns)
	}
}

func TestHandleTextReplierFailureUsesFallback(t *testing.T) {
	messenger := &fakeMessenger{}
	replier := &fakeReplier{err: errors.New("quota exceeded")}
	svc, store := newService(messenger, &fakeEstimator{}, &fakeMedia{}, replier)

	svc.HandleMessage(context.Background(), textMsg("bom dia"))

	if len(messenger.sent) != 1 || messenger.sent[0].Body != fallbackReply {
		t.Fatalf("expected static fallback, got %+v", messenger.sent)
	}
	turns, _ := store.History(context.Background(), "5542999401345")
	if len(turns) != 0 {
		t.Fatalf("expected no history for a failed reply, got %+v", turns)
	}
}

func TestHandleSummaryEmptyLog(t *testing.T) {
	messenger := &fakeMessenger{}
	svc, _ := newService(messenger, &fakeEstimator{}, &fakeMedia{}, &fakeReplier{})

	svc.HandleMessage(context.Background(), textMsg("resumo"))

	if len(messenger.sent) != 1 || messenger.sent[0].Body != emptyLogReply {
		t.Fatalf("expected empty-log reply, got %+v", messenger.sent)
	}
}

func TestHandleSummaryListsEntries(t *testing.T) {
	messenger := &fakeMessenger{}
	est := &fakeEstimator{result: domain.Estimate{
		Entries: []domain.FoodEntry{{Label: "ovo", Quantity: 2, Unit: domain.UnitPiece, Kcal: 140}},
		Total:   140,
	}}
	svc, _ := newService(messenger, est, &fakeMedia{}, &fakeReplier{})

	svc.HandleMessage(context.Background(), textMsg("2 ovos"))
	est.result = domain.Estimate{}
	svc.HandleMessage(context.Background(), textMsg("total"))

	if len(messenger.sent) != 2 {
		t.Fatalf("expected two replies, got %d", len(messenger.sent))
	}
	if !strings.Contains(messenger.sent[1].Body, "Total: 140 kcal") {
		t.Fatalf("expected summary with total, got %q", messenger.sent[1].Body)
	}
}

func TestHandleImageDescribed(t *testing.T) {
	messenger := &fakeMessenger{}
	media := &fakeMedia{data: []byte{0xFF, 0xD8}, mime: "image/jpeg"}
	replier := &fakeReplier{imgReply: "Prato com arroz e frango, aprox. 450 kcal."}
	svc, _ := newService(messenger, &fakeEstimator{}, media, replier)

	svc.HandleMessage(context.Background(), domain.IncomingMessage{SenderID: "551199", Kind: domain.KindImage, MediaRef: "media-1"})

	if len(messenger.sent) != 1 || !strings.Contains(messenger.sent[0].Body, "450 kcal") {
		t.Fatalf("expected image description reply, got %+v", messenger.sent)
	}
}

func TestHandleImageDownloadFailureAcknowledges(t *testing.T) {
	messenger := &fakeMessenger{}
	media := &fakeMedia{err: errors.New("media expired")}
	svc, _ := newService(messenger, &fakeEstimator{}, media, &fakeReplier{})

	svc.HandleMessage(context.Background(), domain.IncomingMessage{SenderID: "551199", Kind: domain.KindImage, MediaRef: "media-1"})

	if len(messenger.sent) != 1 || messenger.sent[0].Body != imageFallbackReply {
		t.Fatalf("expected acknowledgment fallback, got %+v", messenger.sent)
	}
}

func TestHandleUnsupportedKind(t *testing.T) {
	messenger := &fakeMessenger{}
	svc, _ := newService(messenger, &fakeEstimator{}, &fakeMedia{}, &fakeReplier{})

	svc.HandleMessage(context.Background(), domain.IncomingMessage{SenderID: "551199", Kind: domain.KindUnsupported})

	if len(messenger.sent) != 1 || messenger.sent[0].Body != unsupportedReply {
		t.Fatalf("expected unsupported-format reply, got %+v", messenger.sent)
	}
}

func TestDispatchFailureIsContained(t *testing.T) {
	messenger := &fakeMessenger{err: errors.New("all variants failed")}
	svc, _ := newService(messenger, &fakeEstimator{}, &fakeMedia{}, &fakeReplier{reply: "oi"})

	// Must not panic or propagate; the only trace is the log.
	svc.HandleMessage(context.Background(), textMsg("bom dia"))

	if len(messenger.sent) != 1 {
		t.Fatalf("expected one attempted reply, got %d", len(messenger.sent))
	}
}
