package pricing

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/fenceops-backend/internal/ratesheets"
	"github.com/angelmondragon/fenceops-backend/pkg/enums"
)

// ResolvedPrice is recomputed on demand and never stored as the source of truth.
type ResolvedPrice struct {
	Price         decimal.Decimal     `json:"price"`
	LaborPrice    *decimal.Decimal    `json:"laborPrice,omitempty"`
	MaterialPrice *decimal.Decimal    `json:"materialPrice,omitempty"`
	Method        enums.PricingMethod `json:"pricingMethod"`
	RateSheetID   *uuid.UUID          `json:"rateSheetId,omitempty"`
	RateSheetName *string             `json:"rateSheetName,omitempty"`
	Source        enums.PricingSource `json:"source"`
	// Degraded is set when a lookup failed and resolution fell through to a later step.
	Degraded bool     `json:"degraded,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// AtCost reports whether no rate sheet priced the line.
func (r ResolvedPrice) AtCost() bool {
	return r.Method == enums.PricingMethodCostOnly
}

// PriceRequest asks for the unit price of one SKU at a known base cost.
type PriceRequest struct {
	SKUID    uuid.UUID
	BaseCost decimal.Decimal
	Context  ratesheets.PricingContext
}

// LineRequest asks for a priced line; costs are looked up from the catalog.
type LineRequest struct {
	SKUID       uuid.UUID
	Quantity    decimal.Decimal
	LineType    enums.LineType
	Description string
	Context     ratesheets.PricingContext
}

// LineResult is a priced line ready to place on a quote. Error is set when only this line failed.
type LineResult struct {
	SKUID            uuid.UUID        `json:"skuId"`
	SKUCode          string           `json:"skuCode,omitempty"`
	SKUName          string           `json:"skuName,omitempty"`
	LineType         enums.LineType   `json:"lineType"`
	Description      string           `json:"description"`
	Quantity         decimal.Decimal  `json:"quantity"`
	UnitPrice        decimal.Decimal  `json:"unitPrice"`
	UnitCost         decimal.Decimal  `json:"unitCost"`
	MaterialUnitCost *decimal.Decimal `json:"materialUnitCost,omitempty"`
	LaborUnitCost    *decimal.Decimal `json:"laborUnitCost,omitempty"`
	LineTotal        decimal.Decimal  `json:"lineTotal"`
	Resolved         *ResolvedPrice   `json:"resolved,omitempty"`
	Error            *LineError       `json:"error,omitempty"`
}

// LineError describes why a single line could not be priced.
type LineError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
