package ratesheets

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/fenceops-backend/pkg/db/models"
)

// Repository reads rate sheets and the context tables that point at them.
// Lookups of a single optional row return (nil, nil) when nothing matches.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindRateSheet(ctx context.Context, id uuid.UUID) (*models.RateSheet, error)
	ActiveCommunityRateSheet(ctx context.Context, communityID uuid.UUID) (*models.RateSheet, error)
	CommunityClientID(ctx context.Context, communityID uuid.UUID) (*uuid.UUID, error)
	ActiveClientRateSheet(ctx context.Context, clientID uuid.UUID) (*models.RateSheet, error)
	ActiveBusinessUnitRateSheet(ctx context.Context, businessUnitClassID uuid.UUID) (*models.RateSheet, error)
	FindItem(ctx context.Context, rateSheetID, skuID uuid.UUID) (*models.RateSheetItem, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) (*models.RateSheet, error)
	// AssignmentVersion changes whenever a sheet is activated or a community, client
	// or business unit is pointed at a different sheet.
	AssignmentVersion(ctx context.Context) (int64, error)
}
