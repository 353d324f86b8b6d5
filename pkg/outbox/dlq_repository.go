package outbox

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/fenceops-backend/pkg/db/models"
)

// DLQRepository stores events the publisher gave up on.
type DLQRepository struct {
	db *gorm.DB
}

func NewDLQRepository(db *gorm.DB) *DLQRepository {
	return &DLQRepository{db: db}
}

// InsertTx records a dead letter in the same transaction that marks the source
// row, so an event is never both pending and dead-lettered.
func (r *DLQRepository) InsertTx(tx *gorm.DB, entry models.OutboxDLQ) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	if !entry.ErrorReason.IsValid() {
		return fmt.Errorf("unknown dlq reason %q", entry.ErrorReason)
	}
	if entry.ErrorMessage != nil {
		msg := clipError(*entry.ErrorMessage)
		entry.ErrorMessage = &msg
	}
	if entry.FailedAt.IsZero() {
		entry.FailedAt = time.Now().UTC()
	}
	return tx.Create(&entry).Error
}

// ListForAggregate returns dead letters for one quote or job, newest first.
func (r *DLQRepository) ListForAggregate(ctx context.Context, aggregateID uuid.UUID) ([]models.OutboxDLQ, error) {
	var rows []models.OutboxDLQ
	err := r.db.WithContext(ctx).
		Where("aggregate_id = ?", aggregateID).
		Order("failed_at DESC").
		Find(&rows).Error
	return rows, err
}
