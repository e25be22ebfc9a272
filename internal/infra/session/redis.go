package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"wa-nutrition-bot/internal/domain"
)

const sessionTTL = 36 * time.Hour

// Redis keeps sessions in Redis with a bounded TTL. Date rollover is still
// enforced on read, the TTL only keeps abandoned sessions from piling up.
type Redis struct {
	client       *redis.Client
	historyLimit int
}

var _ domain.SessionStore = (*Redis)(nil)

// NewRedis creates a Redis-backed session store.
func NewRedis(client *redis.Client, historyLimit int) *Redis {
	if historyLimit <= 0 {
		historyLimit = 6
	}
	return &Redis{client: client, historyLimit: historyLimit}
}

func logKey(senderID string) string     { return "session:log:" + senderID }
func historyKey(senderID string) string { return "session:history:" + senderID }

// DailyLog returns the sender's log for day, resetting stale dates.
func (s *Redis) DailyLog(ctx context.Context, senderID, day string) (domain.DailyLog, error) {
	raw, err := s.client.Get(ctx, logKey(senderID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.DailyLog{Date: day}, nil
		}
		return domain.DailyLog{}, fmt.Errorf("session: get log: %w", err)
	}
	var logEntry domain.DailyLog
	if err := json.Unmarshal(raw, &logEntry); err != nil {
		return domain.DailyLog{}, fmt.Errorf("session: decode log: %w", err)
	}
	if logEntry.Date != day {
		return domain.DailyLog{Date: day}, nil
	}
	return logEntry, nil
}

// SaveDailyLog stores the sender's log.
func (s *Redis) SaveDailyLog(ctx context.Context, senderID string, logEntry domain.DailyLog) error {
	raw, err := json.Marshal(logEntry)
	if err != nil {
		return fmt.Errorf("session: encode log: %w", err)
	}
	if err := s.client.Set(ctx, logKey(senderID), raw, sessionTTL).Err(); err != nil {
		return fmt.Errorf("session: set log: %w", err)
	}
	return nil
}

// History returns the sender's recent chat turns, oldest first.
func (s *Redis) History(ctx context.Context, senderID string) ([]domain.ChatTurn, error) {
	items, err := s.client.LRange(ctx, historyKey(senderID), 0, -1).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("session: get history: %w", err)
	}
	turns := make([]domain.ChatTurn, 0, len(items))
	for _, item := range items {
		var turn domain.ChatTurn
		if err := json.Unmarshal([]byte(item), &turn); err != nil {
			return nil, fmt.Errorf("session: decode turn: %w", err)
		}
		turns = append(turns, turn)
	}
	return turns, nil
}

// AppendHistory adds turns and trims the window to the configured limit.
func (s *Redis) AppendHistory(ctx context.Context, senderID string, turns ...domain.ChatTurn) error {
	if len(turns) == 0 {
		return nil
	}
	key := historyKey(senderID)
	values := make([]interface{}, 0, len(turns))
	for _, turn := range turns {
		raw, err := json.Marshal(turn)
		if err != nil {
			return fmt.Errorf("session: encode turn: %w", err)
		}
		values = append(values, raw)
	}
	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, key, values...)
	pipe.LTrim(ctx, key, int64(-s.historyLimit), -1)
	pipe.Expire(ctx, key, sessionTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("session: append history: %w", err)
	}
	return nil
}
