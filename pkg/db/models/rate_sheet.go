package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/fenceops-backend/pkg/enums"
)

// RateSheet is a named price list with per-SKU overrides and optional default formulas.
type RateSheet struct {
	ID                           uuid.UUID                  `gorm:"column:id;type:uuid;primaryKey"`
	Name                         string                     `gorm:"column:name;not null"`
	IsActive                     bool                       `gorm:"column:is_active;not null"`
	PricingType                  enums.RateSheetPricingType `gorm:"column:pricing_type;type:rate_sheet_pricing_type;not null"`
	DefaultMarginTargetPercent   *decimal.Decimal           `gorm:"column:default_margin_target_percent;type:numeric(6,2)"`
	DefaultMaterialMarkupPercent *decimal.Decimal           `gorm:"column:default_material_markup_percent;type:numeric(6,2)"`
	CreatedAt                    time.Time                  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt                    time.Time                  `gorm:"column:updated_at;autoUpdateTime"`
}

func (r *RateSheet) BeforeCreate(*gorm.DB) error {
	assignID(&r.ID)
	return nil
}

// RateSheetItem overrides pricing for one SKU on one rate sheet.
type RateSheetItem struct {
	ID                    uuid.UUID                `gorm:"column:id;type:uuid;primaryKey"`
	RateSheetID           uuid.UUID                `gorm:"column:rate_sheet_id;type:uuid;not null;uniqueIndex:ux_rate_sheet_items_sheet_sku"`
	SKUID                 uuid.UUID                `gorm:"column:sku_id;type:uuid;not null;uniqueIndex:ux_rate_sheet_items_sheet_sku"`
	PricingMethod         *enums.ItemPricingMethod `gorm:"column:pricing_method;type:item_pricing_method"`
	FixedPrice            *decimal.Decimal         `gorm:"column:fixed_price;type:numeric(12,2)"`
	FixedLaborPrice       *decimal.Decimal         `gorm:"column:fixed_labor_price;type:numeric(12,2)"`
	FixedMaterialPrice    *decimal.Decimal         `gorm:"column:fixed_material_price;type:numeric(12,2)"`
	MaterialMarkupPercent *decimal.Decimal         `gorm:"column:material_markup_percent;type:numeric(6,2)"`
	MarginTargetPercent   *decimal.Decimal         `gorm:"column:margin_target_percent;type:numeric(6,2)"`
	CreatedAt             time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt             time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}

func (r *RateSheetItem) BeforeCreate(*gorm.DB) error {
	assignID(&r.ID)
	return nil
}
