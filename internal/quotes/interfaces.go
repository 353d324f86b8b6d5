package quotes

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/fenceops-backend/pkg/db/models"
)

// Repository persists quotes and their line items.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateQuote(ctx context.Context, quote *models.Quote) error
	FindQuote(ctx context.Context, id uuid.UUID) (*models.Quote, error)
	FindQuoteForUpdate(ctx context.Context, id uuid.UUID) (*models.Quote, error)
	UpdateQuote(ctx context.Context, quote *models.Quote) error
	ReplaceLineItems(ctx context.Context, quoteID uuid.UUID, items []models.QuoteLineItem) ([]models.QuoteLineItem, error)
	FindGroupSiblings(ctx context.Context, group, excludeID uuid.UUID) ([]models.Quote, error)
	ArchiveQuotes(ctx context.Context, ids []uuid.UUID, at time.Time) (int64, error)
	MarkLineItemsConverted(ctx context.Context, quoteID uuid.UUID, ids []uuid.UUID, jobID uuid.UUID) (int64, error)
}

// JobDraft is what a conversion hands to job creation.
type JobDraft struct {
	Quote         *models.Quote
	LineItems     []models.QuoteLineItem
	ContractTotal decimal.Decimal
	CreatedBy     string
}

// JobCreator creates the job for a converted quote inside the caller's transaction.
type JobCreator interface {
	CreateFromQuote(ctx context.Context, tx *gorm.DB, draft JobDraft) (*models.Job, error)
}
