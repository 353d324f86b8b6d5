package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SKU is a catalog entry priced per linear foot.
type SKU struct {
	ID                  uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	SKUCode             string          `gorm:"column:sku_code;not null;uniqueIndex"`
	SKUName             string          `gorm:"column:sku_name;not null"`
	StandardCostPerFoot decimal.Decimal `gorm:"column:standard_cost_per_foot;type:numeric(12,4);not null"`
	IsActive            bool            `gorm:"column:is_active;not null"`
	CreatedAt           time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (SKU) TableName() string { return "skus" }

func (s *SKU) BeforeCreate(*gorm.DB) error {
	assignID(&s.ID)
	return nil
}

// BULaborCost is the labor cost per foot a business unit pays for installing a SKU.
type BULaborCost struct {
	ID                  uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	BusinessUnitClassID uuid.UUID       `gorm:"column:business_unit_class_id;type:uuid;not null;uniqueIndex:ux_bu_labor_costs_bu_sku"`
	SKUID               uuid.UUID       `gorm:"column:sku_id;type:uuid;not null;uniqueIndex:ux_bu_labor_costs_bu_sku"`
	LaborCostPerFoot    decimal.Decimal `gorm:"column:labor_cost_per_foot;type:numeric(12,4);not null"`
	CreatedAt           time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (BULaborCost) TableName() string { return "bu_labor_costs" }

func (b *BULaborCost) BeforeCreate(*gorm.DB) error {
	assignID(&b.ID)
	return nil
}

// CommunitySKUPrice is a negotiated community price that replaces rate-sheet pricing.
type CommunitySKUPrice struct {
	ID          uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	CommunityID uuid.UUID        `gorm:"column:community_id;type:uuid;not null;uniqueIndex:ux_community_sku_prices_community_sku"`
	SKUID       uuid.UUID        `gorm:"column:sku_id;type:uuid;not null;uniqueIndex:ux_community_sku_prices_community_sku"`
	Price       *decimal.Decimal `gorm:"column:price;type:numeric(12,2)"`
	CreatedAt   time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *CommunitySKUPrice) BeforeCreate(*gorm.DB) error {
	assignID(&c.ID)
	return nil
}
