package core

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
)

// ErrTooManyUploads means no decode slot freed up in time.
var ErrTooManyUploads = errors.New("too many concurrent uploads, please try again later")

// Fallbacks for non-positive limits.
const (
	DefaultMaxConcurrentUploads = 5
	DefaultMaxWaitTime          = 30 * time.Second
)

// UploadLimiter caps concurrent decodes. A decode holds the raw file and the
// parsed workbook in memory at once, so the cap bounds peak memory.
type UploadLimiter struct {
	sem     *semaphore.Weighted
	max     int
	maxWait time.Duration
	active  atomic.Int64
}

func NewUploadLimiter(maxConcurrent int, maxWait time.Duration) *UploadLimiter {
	l := &UploadLimiter{max: maxConcurrent, maxWait: maxWait}
	if l.max <= 0 {
		l.max = DefaultMaxConcurrentUploads
	}
	if l.maxWait <= 0 {
		l.maxWait = DefaultMaxWaitTime
	}
	l.sem = semaphore.NewWeighted(int64(l.max))
	return l
}

// Acquire waits up to the limiter's wait time for a slot. A cancelled ctx
// wins over ErrTooManyUploads. Pair every nil return with Release.
func (l *UploadLimiter) Acquire(ctx context.Context) error {
	waitCtx, cancel := context.WithTimeout(ctx, l.maxWait)
	defer cancel()

	err := l.sem.Acquire(waitCtx, 1)
	switch {
	case err == nil:
		l.active.Add(1)
		return nil
	case ctx.Err() != nil:
		return ctx.Err()
	default:
		return ErrTooManyUploads
	}
}

func (l *UploadLimiter) TryAcquire() bool {
	ok := l.sem.TryAcquire(1)
	if ok {
		l.active.Add(1)
	}
	return ok
}

func (l *UploadLimiter) Release() {
	l.active.Add(-1)
	l.sem.Release(1)
}

func (l *UploadLimiter) ActiveCount() int {
	return int(l.active.Load())
}

// WaitForDrain blocks until every slot is free or ctx ends. It takes the
// whole semaphore, so uploads arriving meanwhile queue behind it.
func (l *UploadLimiter) WaitForDrain(ctx context.Context) error {
	if err := l.sem.Acquire(ctx, int64(l.max)); err != nil {
		return err
	}
	l.sem.Release(int64(l.max))
	return nil
}

type UploadLimiterStatus struct {
	Active        int `json:"active"`
	Available     int `json:"available"`
	MaxConcurrent int `json:"max_concurrent"`
}

func (l *UploadLimiter) Status() UploadLimiterStatus {
	active := l.ActiveCount()
	return UploadLimiterStatus{Active: active, Available: l.max - active, MaxConcurrent: l.max}
}
