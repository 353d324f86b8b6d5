package pricing

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/fenceops-backend/pkg/db/models"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindSKU(ctx context.Context, id uuid.UUID) (*models.SKU, error) {
	var sku models.SKU
	if err := r.db.WithContext(ctx).First(&sku, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sku, nil
}

func (r *repository) LaborCost(ctx context.Context, businessUnitClassID, skuID uuid.UUID) (*decimal.Decimal, error) {
	var row models.BULaborCost
	err := r.db.WithContext(ctx).
		Where("business_unit_class_id = ? AND sku_id = ?", businessUnitClassID, skuID).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	cost := row.LaborCostPerFoot
	return &cost, nil
}

// CommunityOverride returns the negotiated price, or nil when the row is missing or its price is null.
func (r *repository) CommunityOverride(ctx context.Context, communityID, skuID uuid.UUID) (*decimal.Decimal, error) {
	var row models.CommunitySKUPrice
	err := r.db.WithContext(ctx).
		Where("community_id = ? AND sku_id = ?", communityID, skuID).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return row.Price, nil
}
