package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Client is a builder or property manager that owns communities.
type Client struct {
	ID                 uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	Name               string     `gorm:"column:name;not null"`
	DefaultRateSheetID *uuid.UUID `gorm:"column:default_rate_sheet_id;type:uuid"`
	CreatedAt          time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *Client) BeforeCreate(*gorm.DB) error {
	assignID(&c.ID)
	return nil
}

// Community is a development or neighborhood where fences are sold.
type Community struct {
	ID          uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	ClientID    *uuid.UUID `gorm:"column:client_id;type:uuid"`
	Name        string     `gorm:"column:name;not null"`
	RateSheetID *uuid.UUID `gorm:"column:rate_sheet_id;type:uuid"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *Community) BeforeCreate(*gorm.DB) error {
	assignID(&c.ID)
	return nil
}

// BusinessUnitClass mirrors an accounting class (QBO class) with its own pricing defaults.
type BusinessUnitClass struct {
	ID                 uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	Name               string     `gorm:"column:name;not null"`
	QBOClassID         *string    `gorm:"column:qbo_class_id"`
	DefaultRateSheetID *uuid.UUID `gorm:"column:default_rate_sheet_id;type:uuid"`
	CreatedAt          time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (BusinessUnitClass) TableName() string { return "business_unit_classes" }

func (b *BusinessUnitClass) BeforeCreate(*gorm.DB) error {
	assignID(&b.ID)
	return nil
}
