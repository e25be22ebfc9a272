package domain

import "context"

// Estimator converts free text into food entries and a calorie total.
// Implementations must be deterministic and keep no hidden state.
type Estimator interface {
	Estimate(text string) Estimate
}

// Messenger delivers a text reply to a sender through the provider.
// A DispatchResult is returned even when err is non-nil so callers can
// inspect the attempt trail.
type Messenger interface {
	SendText(ctx context.Context, to, body string) (DispatchResult, error)
}

// MediaFetcher downloads provider-hosted media by its opaque handle.
type MediaFetcher interface {
	DownloadMedia(ctx context.Context, mediaID string) (data []byte, mimeType string, err error)
}

// Replier produces the conversational answer for a message that carried
// no recognizable food.
type Replier interface {
	Reply(ctx context.Context, text string, history []ChatTurn) (string, error)
	DescribeImage(ctx context.Context, data []byte, mimeType string) (string, error)
}

// SessionStore keeps the per-sender daily log and the short chat history.
// DailyLog must return a fresh log for day when the stored one belongs to
// a different date, so a stale log is reset before any new mutation.
type SessionStore interface {
	DailyLog(ctx context.Context, senderID, day string) (DailyLog, error)
	SaveDailyLog(ctx context.Context, senderID string, log DailyLog) error
	History(ctx context.Context, senderID string) ([]ChatTurn, error)
	AppendHistory(ctx context.Context, senderID string, turns ...ChatTurn) error
}
