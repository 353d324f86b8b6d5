package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/fenceops-backend/pkg/db/models"
	"github.com/angelmondragon/fenceops-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/fenceops-backend/pkg/errors"
)

const priceScale = 2

var (
	hundred = decimal.NewFromInt(100)
	one     = decimal.NewFromInt(1)
)

// ComputePrice prices one unit from a base cost. An item override wins over the sheet's
// default formula, and with neither the price is the cost itself.
func ComputePrice(baseCost decimal.Decimal, item *models.RateSheetItem, sheet *models.RateSheet, source enums.PricingSource) (ResolvedPrice, error) {
	if item != nil {
		return priceFromItem(baseCost, item, sheet, source)
	}
	if sheet != nil && usesFormula(sheet.PricingType) {
		if sheet.DefaultMarginTargetPercent != nil {
			price, err := applyMargin(baseCost, *sheet.DefaultMarginTargetPercent)
			if err != nil {
				return ResolvedPrice{}, err
			}
			return fromSheet(price, enums.PricingMethodDefaultFormula, sheet, source), nil
		}
		if markup := sheet.DefaultMaterialMarkupPercent; markup != nil && markup.IsPositive() {
			price, err := applyMarkup(baseCost, *markup)
			if err != nil {
				return ResolvedPrice{}, err
			}
			return fromSheet(price, enums.PricingMethodDefaultFormula, sheet, source), nil
		}
	}
	return CostOnly(baseCost), nil
}

// CostOnly is the fallback when nothing prices the SKU. It never fails.
func CostOnly(baseCost decimal.Decimal) ResolvedPrice {
	return ResolvedPrice{
		Price:  baseCost.Round(priceScale),
		Method: enums.PricingMethodCostOnly,
		Source: enums.PricingSourceNone,
	}
}

// CommunityOverride replaces any computed price with a negotiated community price.
// A negative override is bad data, the same as a negative fixed price.
func CommunityOverride(price decimal.Decimal) (ResolvedPrice, error) {
	if price.IsNegative() {
		return ResolvedPrice{}, pkgerrors.New(pkgerrors.CodeInvalidPricing, "community price override must not be negative").
			WithDetails(map[string]any{"override": price.String()})
	}
	return ResolvedPrice{
		Price:  price.Round(priceScale),
		Method: enums.PricingMethodCostPlus,
		Source: enums.PricingSourceCommunity,
	}, nil
}

// ResolvePriceWithCommunityOverride applies a non-nil override ahead of every rate sheet input.
func ResolvePriceWithCommunityOverride(baseCost decimal.Decimal, override *decimal.Decimal, item *models.RateSheetItem, sheet *models.RateSheet, source enums.PricingSource) (ResolvedPrice, error) {
	if override != nil {
		return CommunityOverride(*override)
	}
	return ComputePrice(baseCost, item, sheet, source)
}

func priceFromItem(baseCost decimal.Decimal, item *models.RateSheetItem, sheet *models.RateSheet, source enums.PricingSource) (ResolvedPrice, error) {
	if item.PricingMethod != nil {
		switch *item.PricingMethod {
		case enums.ItemPricingMethodMarkup:
			if item.MaterialMarkupPercent != nil {
				price, err := applyMarkup(baseCost, *item.MaterialMarkupPercent)
				if err != nil {
					return ResolvedPrice{}, err
				}
				return fromSheet(price, enums.PricingMethodMarkup, sheet, source), nil
			}
		case enums.ItemPricingMethodMargin:
			if item.MarginTargetPercent != nil {
				price, err := applyMargin(baseCost, *item.MarginTargetPercent)
				if err != nil {
					return ResolvedPrice{}, err
				}
				return fromSheet(price, enums.PricingMethodMargin, sheet, source), nil
			}
		}
	}

	if item.FixedPrice == nil {
		return ResolvedPrice{}, pkgerrors.New(pkgerrors.CodeInvalidPricing, "rate sheet item has no usable price").
			WithDetails(map[string]any{"rate_sheet_item_id": item.ID.String()})
	}
	if item.FixedPrice.IsNegative() {
		return ResolvedPrice{}, pkgerrors.New(pkgerrors.CodeInvalidPricing, "fixed price must not be negative").
			WithDetails(map[string]any{"rate_sheet_item_id": item.ID.String()})
	}
	resolved := fromSheet(item.FixedPrice.Round(priceScale), enums.PricingMethodFixed, sheet, source)
	resolved.LaborPrice = item.FixedLaborPrice
	resolved.MaterialPrice = item.FixedMaterialPrice
	return resolved, nil
}

func usesFormula(t enums.RateSheetPricingType) bool {
	return t == enums.RateSheetPricingTypeFormula || t == enums.RateSheetPricingTypeHybrid
}

// applyMargin makes profit the target share of the price: cost / (1 - target/100).
// The result is rounded to cents, so the identity holds at cents precision only;
// get_resolved_price rounds the same way.
func applyMargin(baseCost, targetPercent decimal.Decimal) (decimal.Decimal, error) {
	if targetPercent.GreaterThanOrEqual(hundred) {
		return decimal.Zero, pkgerrors.Newf(pkgerrors.CodeInvalidPricing, "margin target %s%% must be below 100%%", targetPercent.String()).
			WithDetails(map[string]any{"margin_target_percent": targetPercent.String()})
	}
	price := baseCost.Div(one.Sub(targetPercent.Div(hundred))).Round(priceScale)
	return nonNegative(price)
}

// applyMarkup adds the percentage of cost: cost * (1 + markup/100).
func applyMarkup(baseCost, markupPercent decimal.Decimal) (decimal.Decimal, error) {
	price := baseCost.Mul(one.Add(markupPercent.Div(hundred))).Round(priceScale)
	return nonNegative(price)
}

func nonNegative(price decimal.Decimal) (decimal.Decimal, error) {
	if price.IsNegative() {
		return decimal.Zero, pkgerrors.Newf(pkgerrors.CodeInvalidPricing, "computed price %s is negative", price.StringFixed(priceScale))
	}
	return price, nil
}

func fromSheet(price decimal.Decimal, method enums.PricingMethod, sheet *models.RateSheet, source enums.PricingSource) ResolvedPrice {
	resolved := ResolvedPrice{Price: price, Method: method, Source: source}
	if sheet != nil {
		id := sheet.ID
		name := sheet.Name
		resolved.RateSheetID = &id
		resolved.RateSheetName = &name
	}
	return resolved
}
