package jobs

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/fenceops-backend/pkg/db/models"
)

// Repository persists jobs created from quotes.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, job *models.Job) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Job, error)
	FindByQuote(ctx context.Context, quoteID uuid.UUID) (*models.Job, error)
}

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

// Create inserts the job and its line items together.
func (r *repository) Create(ctx context.Context, job *models.Job) error {
	return r.db.WithContext(ctx).Create(job).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	return r.find(ctx, "id = ?", id)
}

func (r *repository) FindByQuote(ctx context.Context, quoteID uuid.UUID) (*models.Job, error) {
	return r.find(ctx, "quote_id = ?", quoteID)
}

func (r *repository) find(ctx context.Context, where string, arg any) (*models.Job, error) {
	var job models.Job
	err := r.db.WithContext(ctx).
		Preload("LineItems", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC")
		}).
		Where(where, arg).
		First(&job).Error
	if err != nil {
		return nil, err
	}
	return &job, nil
}
