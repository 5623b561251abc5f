package connect

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MrSnakeDoc/opphub/internal/logger"
)

func fastOptions() Options {
	return Options{
		Timeout:       200 * time.Millisecond,
		RetryInterval: 5 * time.Millisecond,
		MaxWait:       20 * time.Millisecond,
		PingTimeout:   50 * time.Millisecond,
		WarnThreshold: 2,
	}
}

func TestRetrySucceedsAfterFailures(t *testing.T) {
	attempts := 0
	ping := func(context.Context) error {
		attempts++
		if attempts < 3 {
			return errors.New("connection refused")
		}
		return nil
	}

	if err := Retry("test", "localhost:0", fastOptions(), ping, logger.NewNop()); err != nil {
		t.Fatalf("Retry() error = %v", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestRetryGivesUp(t *testing.T) {
	refused := errors.New("connection refused")
	ping := func(context.Context) error { return refused }

	err := Retry("test", "localhost:0", fastOptions(), ping, logger.NewNop())
	if !errors.Is(err, refused) {
		t.Fatalf("Retry() error = %v, want wrapped %v", err, refused)
	}
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Options)
		wantErr bool
	}{
		{"valid", func(*Options) {}, false},
		{"zero timeout", func(o *Options) { o.Timeout = 0 }, true},
		{"zero interval", func(o *Options) { o.RetryInterval = 0 }, true},
		{"zero max wait", func(o *Options) { o.MaxWait = 0 }, true},
		{"zero ping timeout", func(o *Options) { o.PingTimeout = 0 }, true},
		{"negative threshold", func(o *Options) { o.WarnThreshold = -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := fastOptions()
			tt.mutate(&o)
			if err := o.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
