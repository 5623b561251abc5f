package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/opphub/internal/domain"
	"github.com/MrSnakeDoc/opphub/internal/store"
)

// DefaultHistorySize is how many runs are kept per source.
const DefaultHistorySize = 100

// FetchLogStore keeps run history in Redis: one capped list per source,
// newest first, plus the latest non-failed run under its own key.
type FetchLogStore struct {
	client      *redis.Client
	historySize int64
}

// NewFetchLogStore creates a new Redis fetch log store
func NewFetchLogStore(client *redis.Client) *FetchLogStore {
	return &FetchLogStore{
		client:      client,
		historySize: DefaultHistorySize,
	}
}

var _ store.FetchLogStore = (*FetchLogStore)(nil)

// Record stores a run
func (s *FetchLogStore) Record(ctx context.Context, log domain.FetchLog) error {
	data, err := json.Marshal(log)
	if err != nil {
		return fmt.Errorf("failed to marshal fetch log: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.LPush(ctx, FetchLogKey(log.Source), data)
	pipe.LTrim(ctx, FetchLogKey(log.Source), 0, s.historySize-1)
	if log.Status != domain.FetchFailed {
		pipe.Set(ctx, LastSuccessKey(log.Source), data, 0)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to record fetch log: %w", err)
	}
	return nil
}

// Latest returns the newest run of a source, nil when there is none
func (s *FetchLogStore) Latest(ctx context.Context, source string) (*domain.FetchLog, error) {
	data, err := s.client.LIndex(ctx, FetchLogKey(source), 0).Bytes()
	return decodeLog(data, err)
}

// LastSuccess returns the newest non-failed run, nil when there is none
func (s *FetchLogStore) LastSuccess(ctx context.Context, source string) (*domain.FetchLog, error) {
	data, err := s.client.Get(ctx, LastSuccessKey(source)).Bytes()
	return decodeLog(data, err)
}

// History returns up to limit runs, newest first
func (s *FetchLogStore) History(ctx context.Context, source string, limit int) ([]domain.FetchLog, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit) - 1
	}

	raw, err := s.client.LRange(ctx, FetchLogKey(source), 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read fetch history: %w", err)
	}

	logs := make([]domain.FetchLog, 0, len(raw))
	for _, item := range raw {
		var l domain.FetchLog
		if err := json.Unmarshal([]byte(item), &l); err != nil {
			// Skip entries that couldn't be decoded
			continue
		}
		logs = append(logs, l)
	}
	return logs, nil
}

func decodeLog(data []byte, err error) (*domain.FetchLog, error) {
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get fetch log: %w", err)
	}

	var l domain.FetchLog
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("failed to unmarshal fetch log: %w", err)
	}
	return &l, nil
}
