package pricing

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/fenceops-backend/pkg/db/models"
	"github.com/angelmondragon/fenceops-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/fenceops-backend/pkg/errors"
)

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func decPtr(v string) *decimal.Decimal {
	d := dec(v)
	return &d
}

func itemMethod(m enums.ItemPricingMethod) *enums.ItemPricingMethod {
	return &m
}

func formulaSheet(margin, markup *decimal.Decimal) *models.RateSheet {
	return &models.RateSheet{
		ID:                           uuid.New(),
		Name:                         "Standard",
		IsActive:                     true,
		PricingType:                  enums.RateSheetPricingTypeFormula,
		DefaultMarginTargetPercent:   margin,
		DefaultMaterialMarkupPercent: markup,
	}
}

func TestComputePriceItemOverrides(t *testing.T) {
	sheet := formulaSheet(decPtr("40"), nil)
	cases := []struct {
		name       string
		item       *models.RateSheetItem
		wantPrice  string
		wantMethod enums.PricingMethod
	}{
		{
			name:       "margin",
			item:       &models.RateSheetItem{PricingMethod: itemMethod(enums.ItemPricingMethodMargin), MarginTargetPercent: decPtr("20")},
			wantPrice:  "12.50",
			wantMethod: enums.PricingMethodMargin,
		},
		{
			name:       "markup",
			item:       &models.RateSheetItem{PricingMethod: itemMethod(enums.ItemPricingMethodMarkup), MaterialMarkupPercent: decPtr("15")},
			wantPrice:  "11.50",
			wantMethod: enums.PricingMethodMarkup,
		},
		{
			name:       "fixed",
			item:       &models.RateSheetItem{PricingMethod: itemMethod(enums.ItemPricingMethodFixed), FixedPrice: decPtr("18.75")},
			wantPrice:  "18.75",
			wantMethod: enums.PricingMethodFixed,
		},
		{
			name:       "markup without percent falls through to fixed",
			item:       &models.RateSheetItem{PricingMethod: itemMethod(enums.ItemPricingMethodMarkup), FixedPrice: decPtr("14")},
			wantPrice:  "14.00",
			wantMethod: enums.PricingMethodFixed,
		},
		{
			name:       "no method uses fixed",
			item:       &models.RateSheetItem{FixedPrice: decPtr("9.99")},
			wantPrice:  "9.99",
			wantMethod: enums.PricingMethodFixed,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ComputePrice(dec("10"), tc.item, sheet, enums.PricingSourceClient)
			if err != nil {
				t.Fatalf("compute price: %v", err)
			}
			if got.Price.StringFixed(2) != tc.wantPrice {
				t.Fatalf("expected price %s, got %s", tc.wantPrice, got.Price.StringFixed(2))
			}
			if got.Method != tc.wantMethod {
				t.Fatalf("expected method %s, got %s", tc.wantMethod, got.Method)
			}
			if got.Source != enums.PricingSourceClient {
				t.Fatalf("expected client source, got %s", got.Source)
			}
			if got.RateSheetID == nil || *got.RateSheetID != sheet.ID {
				t.Fatalf("expected rate sheet id to be attached")
			}
		})
	}
}

func TestComputePriceFixedCarriesSplit(t *testing.T) {
	item := &models.RateSheetItem{
		PricingMethod:      itemMethod(enums.ItemPricingMethodFixed),
		FixedPrice:         decPtr("30"),
		FixedLaborPrice:    decPtr("12"),
		FixedMaterialPrice: decPtr("18"),
	}
	got, err := ComputePrice(dec("10"), item, formulaSheet(nil, nil), enums.PricingSourceBusinessUnit)
	if err != nil {
		t.Fatalf("compute price: %v", err)
	}
	if got.LaborPrice == nil || !got.LaborPrice.Equal(dec("12")) {
		t.Fatalf("expected labor split 12, got %v", got.LaborPrice)
	}
	if got.MaterialPrice == nil || !got.MaterialPrice.Equal(dec("18")) {
		t.Fatalf("expected material split 18, got %v", got.MaterialPrice)
	}
}

func TestComputePriceSheetDefaults(t *testing.T) {
	cases := []struct {
		name       string
		sheet      *models.RateSheet
		wantPrice  string
		wantMethod enums.PricingMethod
	}{
		{"margin preferred over markup", formulaSheet(decPtr("20"), decPtr("50")), "12.50", enums.PricingMethodDefaultFormula},
		{"markup when no margin", formulaSheet(nil, decPtr("15")), "11.50", enums.PricingMethodDefaultFormula},
		{"zero markup is ignored", formulaSheet(nil, decPtr("0")), "10.00", enums.PricingMethodCostOnly},
		{"no defaults", formulaSheet(nil, nil), "10.00", enums.PricingMethodCostOnly},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ComputePrice(dec("10"), nil, tc.sheet, enums.PricingSourceClient)
			if err != nil {
				t.Fatalf("compute price: %v", err)
			}
			if got.Price.StringFixed(2) != tc.wantPrice || got.Method != tc.wantMethod {
				t.Fatalf("expected %s/%s, got %s/%s", tc.wantPrice, tc.wantMethod, got.Price.StringFixed(2), got.Method)
			}
		})
	}
}

func TestComputePriceFixedOnlySheetIgnoresDefaults(t *testing.T) {
	sheet := formulaSheet(decPtr("20"), nil)
	sheet.PricingType = enums.RateSheetPricingTypeFixedOnly

	got, err := ComputePrice(dec("10"), nil, sheet, enums.PricingSourceClient)
	if err != nil {
		t.Fatalf("compute price: %v", err)
	}
	if got.Method != enums.PricingMethodCostOnly || got.Source != enums.PricingSourceNone {
		t.Fatalf("expected cost only fallback, got %s/%s", got.Method, got.Source)
	}
	if got.RateSheetID != nil {
		t.Fatalf("cost only fallback must not name a rate sheet")
	}
}

func TestComputePriceNoSheetIsCostOnly(t *testing.T) {
	got, err := ComputePrice(dec("7.125"), nil, nil, enums.PricingSourceNone)
	if err != nil {
		t.Fatalf("cost only must never fail: %v", err)
	}
	if got.Price.StringFixed(2) != "7.13" {
		t.Fatalf("expected rounded cost 7.13, got %s", got.Price.StringFixed(2))
	}
	if got.Method != enums.PricingMethodCostOnly || got.Source != enums.PricingSourceNone {
		t.Fatalf("unexpected method/source %s/%s", got.Method, got.Source)
	}
}

func TestComputePriceRejectsInvalidData(t *testing.T) {
	cases := []struct {
		name  string
		item  *models.RateSheetItem
		sheet *models.RateSheet
	}{
		{"item margin at 100", &models.RateSheetItem{PricingMethod: itemMethod(enums.ItemPricingMethodMargin), MarginTargetPercent: decPtr("100")}, nil},
		{"item margin above 100", &models.RateSheetItem{PricingMethod: itemMethod(enums.ItemPricingMethodMargin), MarginTargetPercent: decPtr("120")}, nil},
		{"sheet margin at 100", nil, formulaSheet(decPtr("100"), nil)},
		{"markup below -100", &models.RateSheetItem{PricingMethod: itemMethod(enums.ItemPricingMethodMarkup), MaterialMarkupPercent: decPtr("-150")}, nil},
		{"item without usable price", &models.RateSheetItem{PricingMethod: itemMethod(enums.ItemPricingMethodMargin)}, nil},
		{"negative fixed price", &models.RateSheetItem{FixedPrice: decPtr("-1")}, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ComputePrice(dec("10"), tc.item, tc.sheet, enums.PricingSourceClient)
			if !pkgerrors.HasCode(err, pkgerrors.CodeInvalidPricing) {
				t.Fatalf("expected invalid pricing error, got %v", err)
			}
		})
	}
}

func TestCommunityOverrideRoundTrip(t *testing.T) {
	item := &models.RateSheetItem{PricingMethod: itemMethod(enums.ItemPricingMethodMargin), MarginTargetPercent: decPtr("20")}
	sheet := formulaSheet(decPtr("30"), nil)

	got, err := ResolvePriceWithCommunityOverride(dec("10"), decPtr("15.5"), item, sheet, enums.PricingSourceCommunity)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !got.Price.Equal(dec("15.5")) {
		t.Fatalf("expected override price 15.5, got %s", got.Price)
	}
	if got.Source != enums.PricingSourceCommunity || got.Method != enums.PricingMethodCostPlus {
		t.Fatalf("expected community/cost_plus, got %s/%s", got.Source, got.Method)
	}

	got, err = ResolvePriceWithCommunityOverride(dec("10"), nil, item, sheet, enums.PricingSourceCommunity)
	if err != nil {
		t.Fatalf("resolve without override: %v", err)
	}
	if got.Method != enums.PricingMethodMargin || got.Price.StringFixed(2) != "12.50" {
		t.Fatalf("expected item margin price once override removed, got %s/%s", got.Price, got.Method)
	}
}

func TestCommunityOverrideRejectsNegativePrice(t *testing.T) {
	_, err := ResolvePriceWithCommunityOverride(dec("10"), decPtr("-5"), nil, nil, enums.PricingSourceCommunity)
	if !pkgerrors.HasCode(err, pkgerrors.CodeInvalidPricing) {
		t.Fatalf("expected invalid pricing error, got %v", err)
	}

	got, err := ResolvePriceWithCommunityOverride(dec("10"), decPtr("0"), nil, nil, enums.PricingSourceCommunity)
	if err != nil {
		t.Fatalf("zero override: %v", err)
	}
	if !got.Price.IsZero() {
		t.Fatalf("expected zero override to be honored, got %s", got.Price)
	}
}

func TestComputePriceMarginHoldsAtCents(t *testing.T) {
	item := &models.RateSheetItem{PricingMethod: itemMethod(enums.ItemPricingMethodMargin), MarginTargetPercent: decPtr("33")}

	got, err := ComputePrice(dec("10"), item, nil, enums.PricingSourceClient)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	// 10 / 0.67 = 14.9253...
	if got.Price.StringFixed(2) != "14.93" {
		t.Fatalf("expected 14.93, got %s", got.Price)
	}
	exact := dec("10").Div(dec("0.67"))
	if got.Price.Equal(exact) {
		t.Fatalf("expected a rounded price, got the exact quotient %s", exact)
	}
	if !got.Price.Equal(exact.Round(2)) {
		t.Fatalf("expected cost/(1-m) at cents precision, got %s vs %s", got.Price, exact)
	}
}
