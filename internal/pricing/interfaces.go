package pricing

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/fenceops-backend/pkg/db/models"
)

// Repository reads the catalog costs and community overrides pricing starts from.
// Lookups return nil with no error when nothing matches.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindSKU(ctx context.Context, id uuid.UUID) (*models.SKU, error)
	LaborCost(ctx context.Context, businessUnitClassID, skuID uuid.UUID) (*decimal.Decimal, error)
	CommunityOverride(ctx context.Context, communityID, skuID uuid.UUID) (*decimal.Decimal, error)
}
