package ratesheets

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/fenceops-backend/pkg/db/models"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a rate sheet repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindRateSheet(ctx context.Context, id uuid.UUID) (*models.RateSheet, error) {
	var sheet models.RateSheet
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&sheet).Error
	return optional(&sheet, err)
}

func (r *repository) ActiveCommunityRateSheet(ctx context.Context, communityID uuid.UUID) (*models.RateSheet, error) {
	var sheet models.RateSheet
	err := r.db.WithContext(ctx).
		Select("rate_sheets.*").
		Joins("JOIN communities ON communities.rate_sheet_id = rate_sheets.id").
		Where("communities.id = ? AND rate_sheets.is_active = ?", communityID, true).
		Take(&sheet).Error
	return optional(&sheet, err)
}

func (r *repository) CommunityClientID(ctx context.Context, communityID uuid.UUID) (*uuid.UUID, error) {
	var community models.Community
	err := r.db.WithContext(ctx).Select("id", "client_id").Where("id = ?", communityID).Take(&community).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return community.ClientID, nil
}

func (r *repository) ActiveClientRateSheet(ctx context.Context, clientID uuid.UUID) (*models.RateSheet, error) {
	var sheet models.RateSheet
	err := r.db.WithContext(ctx).
		Select("rate_sheets.*").
		Joins("JOIN clients ON clients.default_rate_sheet_id = rate_sheets.id").
		Where("clients.id = ? AND rate_sheets.is_active = ?", clientID, true).
		Take(&sheet).Error
	return optional(&sheet, err)
}

func (r *repository) ActiveBusinessUnitRateSheet(ctx context.Context, businessUnitClassID uuid.UUID) (*models.RateSheet, error) {
	var sheet models.RateSheet
	err := r.db.WithContext(ctx).
		Select("rate_sheets.*").
		Joins("JOIN business_unit_classes ON business_unit_classes.default_rate_sheet_id = rate_sheets.id").
		Where("business_unit_classes.id = ? AND rate_sheets.is_active = ?", businessUnitClassID, true).
		Take(&sheet).Error
	return optional(&sheet, err)
}

func (r *repository) FindItem(ctx context.Context, rateSheetID, skuID uuid.UUID) (*models.RateSheetItem, error) {
	var item models.RateSheetItem
	err := r.db.WithContext(ctx).
		Where("rate_sheet_id = ? AND sku_id = ?", rateSheetID, skuID).
		Take(&item).Error
	return optional(&item, err)
}

func (r *repository) SetActive(ctx context.Context, id uuid.UUID, active bool) (*models.RateSheet, error) {
	res := r.db.WithContext(ctx).
		Model(&models.RateSheet{}).
		Where("id = ?", id).
		Update("is_active", active)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return r.FindRateSheet(ctx, id)
}

// AssignmentVersion reads the counter the assignment triggers maintain.
func (r *repository) AssignmentVersion(ctx context.Context) (int64, error) {
	var version int64
	res := r.db.WithContext(ctx).
		Raw("SELECT version FROM rate_sheet_assignment_version WHERE id = 1").
		Scan(&version)
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, errors.New("rate sheet assignment version row missing")
	}
	return version, nil
}

func optional[T any](row *T, err error) (*T, error) {
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return row, nil
}
