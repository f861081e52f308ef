package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// CacheService drops memoized analytics after the underlying data was reloaded
type CacheService struct {
	anchor   *DateAnchor
	topItems *TopItemsService
	log      *zap.Logger
}

// NewCacheService creates a new cache service
func NewCacheService(anchor *DateAnchor, topItems *TopItemsService, log *zap.Logger) *CacheService {
	return &CacheService{anchor: anchor, topItems: topItems, log: log}
}

// Invalidate drops the anchor date and the ranking of merchantID, or every
// ranking when merchantID is empty
func (s *CacheService) Invalidate(ctx context.Context, merchantID string) error {
	var errs []error

	if err := s.anchor.Invalidate(ctx); err != nil {
		errs = append(errs, err)
	}

	if merchantID == "" {
		if err := s.topItems.InvalidateAll(ctx); err != nil {
			errs = append(errs, err)
		}
	} else if err := s.topItems.Invalidate(ctx, merchantID); err != nil {
		errs = append(errs, err)
	}

	if err := errors.Join(errs...); err != nil {
		s.log.Error("cache invalidation failed", zap.String("merchant_id", merchantID), zap.Error(err))
		return err
	}

	s.log.Info("analytics cache invalidated", zap.String("merchant_id", merchantID))
	return nil
}
