package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/fenceops-backend/pkg/enums"
)

// Quote is a priced proposal for one community/client context.
// The totals columns are a snapshot written together with their inputs.
type Quote struct {
	ID                  uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	Status              enums.QuoteStatus `gorm:"column:status;type:quote_status;not null"`
	Title               string            `gorm:"column:title;not null;default:''"`
	CommunityID         *uuid.UUID        `gorm:"column:community_id;type:uuid"`
	ClientID            *uuid.UUID        `gorm:"column:client_id;type:uuid"`
	BusinessUnitClassID *uuid.UUID        `gorm:"column:business_unit_class_id;type:uuid"`
	QBOClassID          *string           `gorm:"column:qbo_class_id"`
	QuoteGroup          *uuid.UUID        `gorm:"column:quote_group;type:uuid;index"`
	IsAlternative       bool              `gorm:"column:is_alternative;not null"`

	DiscountPercent decimal.Decimal `gorm:"column:discount_percent;type:numeric(6,2);not null"`
	DepositPercent  decimal.Decimal `gorm:"column:deposit_percent;type:numeric(6,2);not null"`
	TaxRatePercent  decimal.Decimal `gorm:"column:tax_rate_percent;type:numeric(6,3);not null"`

	Subtotal       decimal.Decimal `gorm:"column:subtotal;type:numeric(14,2);not null"`
	MaterialCost   decimal.Decimal `gorm:"column:material_cost;type:numeric(14,2);not null"`
	LaborCost      decimal.Decimal `gorm:"column:labor_cost;type:numeric(14,2);not null"`
	DiscountAmount decimal.Decimal `gorm:"column:discount_amount;type:numeric(14,2);not null"`
	TaxAmount      decimal.Decimal `gorm:"column:tax_amount;type:numeric(14,2);not null"`
	Total          decimal.Decimal `gorm:"column:total;type:numeric(14,2);not null"`
	DepositAmount  decimal.Decimal `gorm:"column:deposit_amount;type:numeric(14,2);not null"`
	GrossProfit    decimal.Decimal `gorm:"column:gross_profit;type:numeric(14,2);not null"`
	MarginPercent  decimal.Decimal `gorm:"column:margin_percent;type:numeric(7,2);not null"`

	// PricingFingerprint hashes every pricing-affecting input; a change voids manager approval.
	PricingFingerprint  string     `gorm:"column:pricing_fingerprint;not null;default:''"`
	ApprovalRequestedAt *time.Time `gorm:"column:approval_requested_at"`
	ManagerApprovedAt   *time.Time `gorm:"column:manager_approved_at"`
	ManagerApprovedBy   *string    `gorm:"column:manager_approved_by"`

	LostReason       *enums.LostReason `gorm:"column:lost_reason;type:lost_reason"`
	LostNotes        *string           `gorm:"column:lost_notes"`
	SentAt           *time.Time        `gorm:"column:sent_at"`
	AcceptedAt       *time.Time        `gorm:"column:accepted_at"`
	LostAt           *time.Time        `gorm:"column:lost_at"`
	ArchivedAt       *time.Time        `gorm:"column:archived_at"`
	ConvertedAt      *time.Time        `gorm:"column:converted_at"`
	ConvertedToJobID *uuid.UUID        `gorm:"column:converted_to_job_id;type:uuid"`

	CreatedBy *string   `gorm:"column:created_by"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`

	LineItems []QuoteLineItem `gorm:"foreignKey:QuoteID;references:ID"`
}

func (q *Quote) BeforeCreate(*gorm.DB) error {
	assignID(&q.ID)
	return nil
}

// QuoteLineItem is one priced row owned by a quote.
type QuoteLineItem struct {
	ID               uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	QuoteID          uuid.UUID            `gorm:"column:quote_id;type:uuid;not null;index"`
	LineType         enums.LineType       `gorm:"column:line_type;type:line_type;not null"`
	Description      string               `gorm:"column:description;not null;default:''"`
	SKUID            *uuid.UUID           `gorm:"column:sku_id;type:uuid"`
	Quantity         decimal.Decimal      `gorm:"column:quantity;type:numeric(12,2);not null"`
	UnitPrice        decimal.Decimal      `gorm:"column:unit_price;type:numeric(12,2);not null"`
	UnitCost         decimal.Decimal      `gorm:"column:unit_cost;type:numeric(12,4);not null"`
	MaterialUnitCost *decimal.Decimal     `gorm:"column:material_unit_cost;type:numeric(12,4)"`
	LaborUnitCost    *decimal.Decimal     `gorm:"column:labor_unit_cost;type:numeric(12,4)"`
	PricingSource    *enums.PricingSource `gorm:"column:pricing_source;type:pricing_source"`
	PricingMethod    *enums.PricingMethod `gorm:"column:pricing_method;type:pricing_method"`
	RateSheetID      *uuid.UUID           `gorm:"column:rate_sheet_id;type:uuid"`
	SortOrder        int                  `gorm:"column:sort_order;not null"`
	ConvertedToJobID *uuid.UUID           `gorm:"column:converted_to_job_id;type:uuid"`
	CreatedAt        time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time            `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt        gorm.DeletedAt       `gorm:"column:deleted_at;index"`
}

func (l *QuoteLineItem) BeforeCreate(*gorm.DB) error {
	assignID(&l.ID)
	return nil
}
