package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/fenceops-backend/pkg/enums"
)

// Job is the installation work created from an accepted quote.
type Job struct {
	ID                  uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	QuoteID             uuid.UUID       `gorm:"column:quote_id;type:uuid;not null;uniqueIndex"`
	CommunityID         *uuid.UUID      `gorm:"column:community_id;type:uuid"`
	ClientID            *uuid.UUID      `gorm:"column:client_id;type:uuid"`
	BusinessUnitClassID *uuid.UUID      `gorm:"column:business_unit_class_id;type:uuid"`
	Status              enums.JobStatus `gorm:"column:status;type:job_status;not null"`
	ContractTotal       decimal.Decimal `gorm:"column:contract_total;type:numeric(14,2);not null"`
	CreatedBy           *string         `gorm:"column:created_by"`
	CreatedAt           time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time       `gorm:"column:updated_at;autoUpdateTime"`

	LineItems []JobLineItem `gorm:"foreignKey:JobID;references:ID"`
}

func (j *Job) BeforeCreate(*gorm.DB) error {
	assignID(&j.ID)
	return nil
}

// JobLineItem snapshots a converted quote line.
type JobLineItem struct {
	ID              uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	JobID           uuid.UUID       `gorm:"column:job_id;type:uuid;not null;index"`
	QuoteLineItemID uuid.UUID       `gorm:"column:quote_line_item_id;type:uuid;not null;uniqueIndex"`
	LineType        enums.LineType  `gorm:"column:line_type;type:line_type;not null"`
	Description     string          `gorm:"column:description;not null;default:''"`
	SKUID           *uuid.UUID      `gorm:"column:sku_id;type:uuid"`
	Quantity        decimal.Decimal `gorm:"column:quantity;type:numeric(12,2);not null"`
	UnitPrice       decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null"`
	UnitCost        decimal.Decimal `gorm:"column:unit_cost;type:numeric(12,4);not null"`
	SortOrder       int             `gorm:"column:sort_order;not null"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (j *JobLineItem) BeforeCreate(*gorm.DB) error {
	assignID(&j.ID)
	return nil
}
