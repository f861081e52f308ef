package service

import (
	"context"

	"github.com/grablet/merchant-api/internal/domain/entity"
	"github.com/grablet/merchant-api/internal/domain/repository"
	"github.com/grablet/merchant-api/pkg/apperror"
)

// MerchantService handles merchant profile lookups
type MerchantService struct {
	merchantRepo repository.MerchantRepository
}

// NewMerchantService creates a new merchant service
func NewMerchantService(merchantRepo repository.MerchantRepository) *MerchantService {
	return &MerchantService{merchantRepo: merchantRepo}
}

// Get returns a merchant by id
func (s *MerchantService) Get(ctx context.Context, merchantID string) (*entity.Merchant, error) {
	merchant, err := s.merchantRepo.GetByID(ctx, merchantID)
	if err != nil {
		return nil, err
	}
	if merchant == nil {
		return nil, apperror.NewNotFoundError("Merchant")
	}
	return merchant, nil
}
