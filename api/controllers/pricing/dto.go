package pricing

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/fenceops-backend/internal/ratesheets"
	"github.com/angelmondragon/fenceops-backend/pkg/enums"
)

const (
	maxBatchLines        = 200
	maxDescriptionLength = 500
)

type contextRequest struct {
	CommunityID         *uuid.UUID `json:"communityId"`
	ClientID            *uuid.UUID `json:"clientId"`
	BusinessUnitClassID *uuid.UUID `json:"businessUnitClassId"`
}

func (c contextRequest) toContext() ratesheets.PricingContext {
	return ratesheets.PricingContext{
		CommunityID:         c.CommunityID,
		ClientID:            c.ClientID,
		BusinessUnitClassID: c.BusinessUnitClassID,
	}
}

type resolveRequest struct {
	SKUID    uuid.UUID        `json:"skuId" validate:"required"`
	BaseCost *decimal.Decimal `json:"baseCost"`
	contextRequest
}

type lineRequest struct {
	SKUID       uuid.UUID       `json:"skuId" validate:"required"`
	Quantity    decimal.Decimal `json:"quantity" validate:"gte=0"`
	LineType    enums.LineType  `json:"lineType"`
	Description string          `json:"description" validate:"max=500"`
}

type linesRequest struct {
	Lines []lineRequest `json:"lines" validate:"required,min=1,max=200,dive"`
	contextRequest
}

type totalsLineRequest struct {
	Quantity         decimal.Decimal  `json:"quantity"`
	UnitPrice        decimal.Decimal  `json:"unitPrice"`
	MaterialUnitCost *decimal.Decimal `json:"materialUnitCost"`
	LaborUnitCost    *decimal.Decimal `json:"laborUnitCost"`
}

type totalsRequest struct {
	Lines           []totalsLineRequest `json:"lines" validate:"max=500,dive"`
	DiscountPercent decimal.Decimal     `json:"discountPercent" validate:"gte=0,lte=100"`
	TaxRatePercent  decimal.Decimal     `json:"taxRatePercent" validate:"gte=0"`
	DepositPercent  decimal.Decimal     `json:"depositPercent" validate:"gte=0,lte=100"`
	ManagerApproved bool                `json:"managerApproved"`
}
