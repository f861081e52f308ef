package service

import (
	"context"
	"time"

	"github.com/grablet/merchant-api/internal/domain/analytics"
	"github.com/grablet/merchant-api/internal/domain/repository"
	"github.com/grablet/merchant-api/internal/infrastructure/telemetry"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// anchorCacheKey is the single key under which the anchor date is memoized
const anchorCacheKey = "latest"

// AnchorProvider resolves the date that "today" refers to in every window
type AnchorProvider interface {
	Latest(ctx context.Context) time.Time
}

// FixedAnchor always resolves to the same date
type FixedAnchor time.Time

func (a FixedAnchor) Latest(context.Context) time.Time {
	return analytics.DateOf(time.Time(a))
}

// DateAnchor resolves "today" as the latest order date in storage rather than
// the wall clock. A found date is cached until Invalidate is called.
type DateAnchor struct {
	repo    repository.AnalyticsRepository
	cache   repository.Cache[time.Time]
	clock   func() time.Time
	timeout time.Duration
	log     *zap.Logger
	group   singleflight.Group
}

// DateAnchorOption customizes a DateAnchor
type DateAnchorOption func(*DateAnchor)

// WithClock replaces the wall clock used when storage has no answer
func WithClock(clock func() time.Time) DateAnchorOption {
	return func(a *DateAnchor) {
		a.clock = clock
	}
}

// WithAnchorTimeout bounds the storage lookup
func WithAnchorTimeout(timeout time.Duration) DateAnchorOption {
	return func(a *DateAnchor) {
		a.timeout = timeout
	}
}

// NewDateAnchor creates a new date anchor
func NewDateAnchor(
	repo repository.AnalyticsRepository,
	cache repository.Cache[time.Time],
	log *zap.Logger,
	opts ...DateAnchorOption,
) *DateAnchor {
	a := &DateAnchor{
		repo:  repo,
		cache: cache,
		clock: time.Now,
		log:   log,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Latest returns MAX(date(order_time)) across all merchants. When storage fails
// or holds no transactions it falls back to the current date; fallbacks are not
// cached so the next call retries storage.
func (a *DateAnchor) Latest(ctx context.Context) time.Time {
	if latest, ok := a.cache.Get(ctx, anchorCacheKey); ok {
		return latest
	}

	// The lookup is shared with every concurrent caller and must outlive the
	// cancellation of the one that started it.
	shared := context.WithoutCancel(ctx)
	ch := a.group.DoChan(anchorCacheKey, func() (interface{}, error) {
		if latest, ok := a.cache.Get(shared, anchorCacheKey); ok {
			return latest, nil
		}
		return a.resolve(shared), nil
	})

	select {
	case res := <-ch:
		return res.Val.(time.Time)
	case <-ctx.Done():
		a.log.Debug("anchor lookup abandoned by caller", zap.Error(ctx.Err()))
		return analytics.DateOf(a.clock())
	}
}

func (a *DateAnchor) resolve(ctx context.Context) time.Time {
	ctx, cancel := withTimeout(ctx, a.timeout)
	defer cancel()

	ctx, span := telemetry.StartSpan(ctx, "DateAnchor.Latest", "")
	defer span.End()

	latest, err := a.repo.GetLatestTransactionDate(ctx)
	if err != nil {
		telemetry.RecordError(span, err)
		a.log.Warn("falling back to wall clock for anchor date", zap.Error(err))
		return analytics.DateOf(a.clock())
	}
	if latest == nil {
		a.log.Info("no transactions in storage, anchoring on wall clock")
		return analytics.DateOf(a.clock())
	}

	anchor := analytics.DateOf(*latest)
	if err := a.cache.Put(ctx, anchorCacheKey, anchor); err != nil {
		a.log.Warn("failed to cache anchor date", zap.Error(err))
	}
	a.log.Debug("anchor date resolved", zap.String("anchor", analytics.FormatDate(anchor)))
	return anchor
}

// Invalidate drops the memoized anchor so the next call re-reads storage
func (a *DateAnchor) Invalidate(ctx context.Context) error {
	return a.cache.Invalidate(ctx, anchorCacheKey)
}
