package quotes

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/fenceops-backend/pkg/db/models"
	"github.com/angelmondragon/fenceops-backend/pkg/enums"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a quotes repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateQuote(ctx context.Context, quote *models.Quote) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(quote).Error
}

func (r *repository) FindQuote(ctx context.Context, id uuid.UUID) (*models.Quote, error) {
	return r.findQuote(r.db.WithContext(ctx), id)
}

// FindQuoteForUpdate row-locks the quote on postgres for the rest of the transaction.
func (r *repository) FindQuoteForUpdate(ctx context.Context, id uuid.UUID) (*models.Quote, error) {
	return r.findQuote(r.locking(r.db.WithContext(ctx)), id)
}

func (r *repository) findQuote(query *gorm.DB, id uuid.UUID) (*models.Quote, error) {
	var quote models.Quote
	err := query.
		Preload("LineItems", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC").Order("created_at ASC")
		}).
		Where("id = ?", id).
		First(&quote).Error
	if err != nil {
		return nil, err
	}
	return &quote, nil
}

func (r *repository) locking(query *gorm.DB) *gorm.DB {
	if r.db.Dialector.Name() == "postgres" {
		return query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return query
}

func (r *repository) UpdateQuote(ctx context.Context, quote *models.Quote) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(quote).Error
}

// ReplaceLineItems soft-deletes lines missing from items, updates lines that kept their id
// and creates the rest. It returns the quote's active lines afterwards.
func (r *repository) ReplaceLineItems(ctx context.Context, quoteID uuid.UUID, items []models.QuoteLineItem) ([]models.QuoteLineItem, error) {
	db := r.db.WithContext(ctx)

	var existingIDs []uuid.UUID
	if err := db.Model(&models.QuoteLineItem{}).Where("quote_id = ?", quoteID).Pluck("id", &existingIDs).Error; err != nil {
		return nil, err
	}
	existing := make(map[uuid.UUID]struct{}, len(existingIDs))
	for _, id := range existingIDs {
		existing[id] = struct{}{}
	}

	keep := make(map[uuid.UUID]struct{}, len(items))
	for i := range items {
		item := items[i]
		item.QuoteID = quoteID
		if _, ok := existing[item.ID]; ok && item.ID != uuid.Nil {
			keep[item.ID] = struct{}{}
			err := db.Model(&models.QuoteLineItem{}).Where("id = ?", item.ID).Updates(map[string]any{
				"line_type":          item.LineType,
				"description":        item.Description,
				"sku_id":             item.SKUID,
				"quantity":           item.Quantity,
				"unit_price":         item.UnitPrice,
				"unit_cost":          item.UnitCost,
				"material_unit_cost": item.MaterialUnitCost,
				"labor_unit_cost":    item.LaborUnitCost,
				"pricing_source":     item.PricingSource,
				"pricing_method":     item.PricingMethod,
				"rate_sheet_id":      item.RateSheetID,
				"sort_order":         item.SortOrder,
			}).Error
			if err != nil {
				return nil, err
			}
			continue
		}
		item.ID = uuid.Nil
		if err := db.Create(&item).Error; err != nil {
			return nil, err
		}
		keep[item.ID] = struct{}{}
	}

	var stale []uuid.UUID
	for _, id := range existingIDs {
		if _, ok := keep[id]; !ok {
			stale = append(stale, id)
		}
	}
	if len(stale) > 0 {
		if err := db.Where("quote_id = ? AND id IN ?", quoteID, stale).Delete(&models.QuoteLineItem{}).Error; err != nil {
			return nil, err
		}
	}

	var active []models.QuoteLineItem
	err := db.Where("quote_id = ?", quoteID).
		Order("sort_order ASC").
		Order("created_at ASC").
		Find(&active).Error
	if err != nil {
		return nil, err
	}
	return active, nil
}

func (r *repository) FindGroupSiblings(ctx context.Context, group, excludeID uuid.UUID) ([]models.Quote, error) {
	var siblings []models.Quote
	err := r.locking(r.db.WithContext(ctx)).
		Where("quote_group = ? AND id <> ?", group, excludeID).
		Order("created_at ASC").
		Find(&siblings).Error
	if err != nil {
		return nil, err
	}
	return siblings, nil
}

// ArchiveQuotes archives the given quotes in one statement.
func (r *repository) ArchiveQuotes(ctx context.Context, ids []uuid.UUID, at time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Model(&models.Quote{}).
		Where("id IN ?", ids).
		Updates(map[string]any{
			"status":      enums.QuoteStatusArchived,
			"archived_at": at,
		})
	return res.RowsAffected, res.Error
}

// MarkLineItemsConverted stamps the job on lines that were not converted before.
func (r *repository) MarkLineItemsConverted(ctx context.Context, quoteID uuid.UUID, ids []uuid.UUID, jobID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.QuoteLineItem{}).
		Where("quote_id = ? AND id IN ? AND converted_to_job_id IS NULL", quoteID, ids).
		Update("converted_to_job_id", jobID)
	return res.RowsAffected, res.Error
}
