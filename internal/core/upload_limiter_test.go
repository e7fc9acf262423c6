package core

import (
	"context"
	"errors"
	"testing"
	"time"
)

// hold fills n slots of l and releases them when the test ends.
func hold(t *testing.T, l *UploadLimiter, n int) {
	t.Helper()
	for i := range n {
		if err := l.Acquire(context.Background()); err != nil {
			t.Fatalf("Acquire #%d: %v", i+1, err)
		}
	}
	t.Cleanup(func() {
		for range n {
			l.Release()
		}
	})
}

func TestUploadLimiter_Slots(t *testing.T) {
	l := NewUploadLimiter(3, time.Second)
	hold(t, l, 2)

	if got, want := l.Status(), (UploadLimiterStatus{Active: 2, Available: 1, MaxConcurrent: 3}); got != want {
		t.Errorf("Status() = %+v, want %+v", got, want)
	}
	if !l.TryAcquire() {
		t.Fatal("TryAcquire with one free slot failed")
	}
	if l.TryAcquire() {
		t.Error("TryAcquire on a full limiter succeeded")
	}
	l.Release()
	if got := l.ActiveCount(); got != 2 {
		t.Errorf("ActiveCount() = %d, want 2", got)
	}
}

func TestUploadLimiter_AcquireOnFullLimiter(t *testing.T) {
	tests := []struct {
		name    string
		maxWait time.Duration
		ctx     func() (context.Context, context.CancelFunc)
		want    error
	}{
		{
			name:    "wait limit expires",
			maxWait: 30 * time.Millisecond,
			ctx:     func() (context.Context, context.CancelFunc) { return context.WithCancel(context.Background()) },
			want:    ErrTooManyUploads,
		},
		{
			name:    "caller deadline first",
			maxWait: 5 * time.Second,
			ctx: func() (context.Context, context.CancelFunc) {
				return context.WithTimeout(context.Background(), 30*time.Millisecond)
			},
			want: context.DeadlineExceeded,
		},
		{
			name:    "caller cancelled",
			maxWait: 5 * time.Second,
			ctx: func() (context.Context, context.CancelFunc) {
				ctx, cancel := context.WithCancel(context.Background())
				time.AfterFunc(20*time.Millisecond, cancel)
				return ctx, cancel
			},
			want: context.Canceled,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewUploadLimiter(1, tt.maxWait)
			hold(t, l, 1)

			ctx, cancel := tt.ctx()
			defer cancel()
			if err := l.Acquire(ctx); !errors.Is(err, tt.want) {
				t.Errorf("Acquire() = %v, want %v", err, tt.want)
			}
			if got := l.ActiveCount(); got != 1 {
				t.Errorf("ActiveCount() = %d, want 1", got)
			}
		})
	}
}

func TestUploadLimiter_ReleaseWakesWaiter(t *testing.T) {
	l := NewUploadLimiter(1, 2*time.Second)
	if err := l.Acquire(context.Background()); err != nil {
		t.Fatal(err)
	}

	got := make(chan error, 1)
	go func() { got <- l.Acquire(context.Background()) }()

	time.Sleep(20 * time.Millisecond)
	l.Release()

	select {
	case err := <-got:
		if err != nil {
			t.Fatalf("waiter Acquire() = %v, want nil", err)
		}
		l.Release()
	case <-time.After(time.Second):
		t.Fatal("waiter not woken by Release")
	}
}

func TestUploadLimiter_WaitForDrain(t *testing.T) {
	t.Run("returns once released", func(t *testing.T) {
		l := NewUploadLimiter(2, time.Second)
		if err := l.Acquire(context.Background()); err != nil {
			t.Fatal(err)
		}
		time.AfterFunc(50*time.Millisecond, l.Release)

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := l.WaitForDrain(ctx); err != nil {
			t.Errorf("WaitForDrain() = %v, want nil", err)
		}
		if got := l.Status().Available; got != 2 {
			t.Errorf("Available after drain = %d, want 2", got)
		}
	})

	t.Run("gives up with ctx", func(t *testing.T) {
		l := NewUploadLimiter(1, time.Second)
		hold(t, l, 1)

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
		defer cancel()
		if err := l.WaitForDrain(ctx); !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("WaitForDrain() = %v, want context.DeadlineExceeded", err)
		}
	})
}

func TestNewUploadLimiter_Defaults(t *testing.T) {
	l := NewUploadLimiter(-1, 0)
	if l.max != DefaultMaxConcurrentUploads || l.maxWait != DefaultMaxWaitTime {
		t.Errorf("limits = (%d, %v), want (%d, %v)", l.max, l.maxWait, DefaultMaxConcurrentUploads, DefaultMaxWaitTime)
	}
}
