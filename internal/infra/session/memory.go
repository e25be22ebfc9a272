package session

import (
	"context"
	"sync"

	"wa-nutrition-bot/internal/domain"
)

// Memory keeps sessions in a process-local map. This is the default store:
// logs are meant to survive only within a day and within one process.
type Memory struct {
	mu           sync.Mutex
	logs         map[string]domain.DailyLog
	history      map[string][]domain.ChatTurn
	historyLimit int
}

var _ domain.SessionStore = (*Memory)(nil)

// NewMemory creates an in-memory session store.
func NewMemory(historyLimit int) *Memory {
	if historyLimit <= 0 {
		historyLimit = 6
	}
	return &Memory{
		logs:         make(map[string]domain.DailyLog),
		history:      make(map[string][]domain.ChatTurn),
		historyLimit: historyLimit,
	}
}

// DailyLog returns the sender's log for day, resetting any stale log from a
// previous date before it is seen by the caller.
func (s *Memory) DailyLog(ctx context.Context, senderID, day string) (domain.DailyLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	logEntry, ok := s.logs[senderID]
	if !ok || logEntry.Date != day {
		return domain.DailyLog{Date: day}, nil
	}
	return logEntry, nil
}

// SaveDailyLog stores the sender's log.
func (s *Memory) SaveDailyLog(ctx context.Context, senderID string, logEntry domain.DailyLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs[senderID] = logEntry
	return nil
}

// History returns the sender's recent chat turns, oldest first.
func (s *Memory) History(ctx context.Context, senderID string) ([]domain.ChatTurn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	turns := s.history[senderID]
	out := make([]domain.ChatTurn, len(turns))
	copy(out, turns)
	return out, nil
}

// AppendHistory adds turns and trims the window to the configured limit.
func (s *Memory) AppendHistory(ctx context.Context, senderID string, turns ...domain.ChatTurn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	combined := append(s.history[senderID], turns...)
	if len(combined) > s.historyLimit {
		combined = combined[len(combined)-s.historyLimit:]
	}
	s.history[senderID] = combined
	return nil
}
