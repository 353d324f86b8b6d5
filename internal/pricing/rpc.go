package pricing

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/fenceops-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/fenceops-backend/pkg/errors"
)

const resolvedPriceQuery = "SELECT * FROM get_resolved_price(?, ?, ?, ?, ?)"

type rawQuerier interface {
	Raw(ctx context.Context, query string, args ...any) *gorm.DB
}

type rpcRow struct {
	Price         decimal.Decimal
	LaborPrice    *decimal.Decimal
	MaterialPrice *decimal.Decimal
	PricingMethod string
	PricingSource string
	RateSheetID   *uuid.UUID
	RateSheetName *string
}

// callResolvedPrice runs the database-side resolver. Any error here means the caller may
// fall back to the in-process engine unless the error is a pricing-data rejection, either
// raised by the function or detected in its row.
func callResolvedPrice(ctx context.Context, db rawQuerier, req PriceRequest) (ResolvedPrice, error) {
	var rows []rpcRow
	err := db.Raw(ctx, resolvedPriceQuery,
		req.SKUID,
		req.BaseCost,
		req.Context.CommunityID,
		req.Context.ClientID,
		req.Context.BusinessUnitClassID,
	).Scan(&rows).Error
	if err != nil {
		return ResolvedPrice{}, err
	}
	if len(rows) != 1 {
		return ResolvedPrice{}, fmt.Errorf("get_resolved_price returned %d rows", len(rows))
	}
	row := rows[0]

	method, err := enums.ParsePricingMethod(row.PricingMethod)
	if err != nil {
		return ResolvedPrice{}, err
	}
	source, err := enums.ParsePricingSource(row.PricingSource)
	if err != nil {
		return ResolvedPrice{}, err
	}
	if row.Price.IsNegative() && method != enums.PricingMethodCostOnly {
		return ResolvedPrice{}, pkgerrors.Newf(pkgerrors.CodeInvalidPricing, "get_resolved_price returned negative price %s", row.Price.String())
	}

	return ResolvedPrice{
		Price:         row.Price.Round(priceScale),
		LaborPrice:    row.LaborPrice,
		MaterialPrice: row.MaterialPrice,
		Method:        method,
		RateSheetID:   row.RateSheetID,
		RateSheetName: row.RateSheetName,
		Source:        source,
	}, nil
}
