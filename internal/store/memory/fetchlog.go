package memory

import (
	"context"
	"sync"
	"time"

	"github.com/MrSnakeDoc/opphub/internal/domain"
	"github.com/MrSnakeDoc/opphub/internal/store"
)

// FetchLogs keeps every run in insertion order.
type FetchLogs struct {
	mu   sync.RWMutex
	logs []domain.FetchLog
}

func NewFetchLogs() *FetchLogs {
	return &FetchLogs{}
}

var _ store.FetchLogStore = (*FetchLogs)(nil)

func (f *FetchLogs) Record(_ context.Context, log domain.FetchLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.logs = append(f.logs, log)
	return nil
}

func (f *FetchLogs) Latest(ctx context.Context, source string) (*domain.FetchLog, error) {
	h, err := f.History(ctx, source, 1)
	if err != nil || len(h) == 0 {
		return nil, err
	}
	return &h[0], nil
}

func (f *FetchLogs) LastSuccess(_ context.Context, source string) (*domain.FetchLog, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	for i := len(f.logs) - 1; i >= 0; i-- {
		if l := f.logs[i]; l.Source == source && l.Status != domain.FetchFailed {
			return &l, nil
		}
	}
	return nil, nil
}

func (f *FetchLogs) History(_ context.Context, source string, limit int) ([]domain.FetchLog, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	out := make([]domain.FetchLog, 0)
	for i := len(f.logs) - 1; i >= 0; i-- {
		if limit > 0 && len(out) == limit {
			break
		}
		if f.logs[i].Source == source {
			out = append(out, f.logs[i])
		}
	}
	return out, nil
}

// Locker is a process-local Locker with expiring leases.
type Locker struct {
	mu    sync.Mutex
	held  map[string]time.Time // key -> lease expiry
	token int
	owner map[string]int
}

func NewLocker() *Locker {
	return &Locker{
		held:  make(map[string]time.Time),
		owner: make(map[string]int),
	}
}

var _ store.Locker = (*Locker)(nil)

func (l *Locker) TryLock(_ context.Context, key string, ttl time.Duration) (func(), bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if exp, ok := l.held[key]; ok && now.Before(exp) {
		return nil, false, nil
	}

	l.token++
	token := l.token
	l.held[key] = now.Add(ttl)
	l.owner[key] = token

	unlock := func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		if l.owner[key] == token {
			delete(l.held, key)
			delete(l.owner, key)
		}
	}
	return unlock, true, nil
}
