package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/grablet/merchant-api/internal/domain/entity"
	domainRepo "github.com/grablet/merchant-api/internal/domain/repository"
	"gorm.io/gorm"
)

type itemRepository struct {
	db *gorm.DB
}

// NewItemRepository creates a new item repository
func NewItemRepository(db *gorm.DB) domainRepo.ItemRepository {
	return &itemRepository{db: db}
}

func (r *itemRepository) ListByMerchant(ctx context.Context, merchantID string) ([]entity.Item, error) {
	var items []entity.Item
	err := r.db.WithContext(ctx).
		Scopes(MerchantScope(merchantID)).
		Order("item_id ASC").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list items of merchant %s: %w", merchantID, err)
	}
	return items, nil
}

type orderRepository struct {
	db *gorm.DB
}

// NewOrderRepository creates a new order repository
func NewOrderRepository(db *gorm.DB) domainRepo.OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) ListOrderIDs(ctx context.Context, merchantID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&entity.Transaction{}).
		Scopes(MerchantScope(merchantID)).
		Order("order_time ASC, order_id ASC").
		Pluck("order_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list orders of merchant %s: %w", merchantID, err)
	}
	return ids, nil
}

func (r *orderRepository) ListOrderLines(ctx context.Context, orderIDs []string) ([]domainRepo.OrderLineRow, error) {
	lines := make([]domainRepo.OrderLineRow, 0, len(orderIDs))

	// Batch the IN clause to stay below the driver's bind parameter limit
	for _, batch := range chunkStrings(orderIDs, orderLineBatchSize) {
		var rows []domainRepo.OrderLineRow
		err := r.db.WithContext(ctx).
			Model(&entity.TransactionItem{}).
			Select("order_id, item_id, quantity, price").
			Where("order_id IN ?", batch).
			Order("id ASC").
			Scan(&rows).Error
		if err != nil {
			return nil, fmt.Errorf("failed to list order lines: %w", err)
		}
		lines = append(lines, rows...)
	}

	return lines, nil
}

type merchantRepository struct {
	db *gorm.DB
}

// NewMerchantRepository creates a new merchant repository
func NewMerchantRepository(db *gorm.DB) domainRepo.MerchantRepository {
	return &merchantRepository{db: db}
}

func (r *merchantRepository) GetByID(ctx context.Context, merchantID string) (*entity.Merchant, error) {
	var merchant entity.Merchant
	err := r.db.WithContext(ctx).First(&merchant, "merchant_id = ?", merchantID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find merchant %s: %w", merchantID, err)
	}
	return &merchant, nil
}
