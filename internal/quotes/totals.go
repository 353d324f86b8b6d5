package quotes

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/fenceops-backend/pkg/db/models"
)

const moneyScale = 2

var hundred = decimal.NewFromInt(100)

// Line is the slice of a line item the totals engine reads.
type Line struct {
	Quantity         decimal.Decimal
	UnitPrice        decimal.Decimal
	MaterialUnitCost *decimal.Decimal
	LaborUnitCost    *decimal.Decimal
}

// Rates are the quote-level percentages applied on top of the line sum.
type Rates struct {
	DiscountPercent decimal.Decimal `json:"discountPercent"`
	TaxRatePercent  decimal.Decimal `json:"taxRatePercent"`
	DepositPercent  decimal.Decimal `json:"depositPercent"`
}

// Totals is derived from lines and rates and is never an input to anything else.
type Totals struct {
	Subtotal       decimal.Decimal `json:"subtotal"`
	MaterialCost   decimal.Decimal `json:"materialCost"`
	LaborCost      decimal.Decimal `json:"laborCost"`
	DiscountAmount decimal.Decimal `json:"discountAmount"`
	TaxAmount      decimal.Decimal `json:"taxAmount"`
	Total          decimal.Decimal `json:"total"`
	DepositAmount  decimal.Decimal `json:"depositAmount"`
	GrossProfit    decimal.Decimal `json:"grossProfit"`
	MarginPercent  decimal.Decimal `json:"marginPercent"`
}

// empty reports a quote with nothing priced and nothing costed. A zero or negative
// total against real cost is not empty.
func (t Totals) empty() bool {
	return t.Subtotal.IsZero() && t.Total.IsZero() && t.MaterialCost.IsZero() && t.LaborCost.IsZero()
}

// ComputeTotals sums the lines and applies discount, then tax on the discounted amount,
// then deposit on the total. Negative unit prices are summed like any other.
func ComputeTotals(lines []Line, rates Rates) Totals {
	subtotal := decimal.Zero
	material := decimal.Zero
	labor := decimal.Zero
	for _, line := range lines {
		subtotal = subtotal.Add(line.Quantity.Mul(line.UnitPrice))
		if line.MaterialUnitCost != nil {
			material = material.Add(line.Quantity.Mul(*line.MaterialUnitCost))
		}
		if line.LaborUnitCost != nil {
			labor = labor.Add(line.Quantity.Mul(*line.LaborUnitCost))
		}
	}
	subtotal = subtotal.Round(moneyScale)
	material = material.Round(moneyScale)
	labor = labor.Round(moneyScale)

	discount := percentOf(subtotal, rates.DiscountPercent)
	tax := percentOf(subtotal.Sub(discount), rates.TaxRatePercent)
	total := subtotal.Sub(discount).Add(tax)
	deposit := percentOf(total, rates.DepositPercent)
	gross := total.Sub(material.Add(labor))

	margin := decimal.Zero
	if total.IsPositive() {
		margin = gross.Div(total).Mul(hundred).Round(moneyScale)
	}

	return Totals{
		Subtotal:       subtotal,
		MaterialCost:   material,
		LaborCost:      labor,
		DiscountAmount: discount,
		TaxAmount:      tax,
		Total:          total,
		DepositAmount:  deposit,
		GrossProfit:    gross,
		MarginPercent:  margin,
	}
}

func percentOf(amount, percent decimal.Decimal) decimal.Decimal {
	return amount.Mul(percent).Div(hundred).Round(moneyScale)
}

// LinesFromModels keeps the line items that still count toward the quote.
func LinesFromModels(items []models.QuoteLineItem) []Line {
	lines := make([]Line, 0, len(items))
	for _, item := range items {
		if item.DeletedAt.Valid {
			continue
		}
		lines = append(lines, Line{
			Quantity:         item.Quantity,
			UnitPrice:        item.UnitPrice,
			MaterialUnitCost: item.MaterialUnitCost,
			LaborUnitCost:    item.LaborUnitCost,
		})
	}
	return lines
}

// RatesOf reads the quote-level percentages.
func RatesOf(q *models.Quote) Rates {
	return Rates{
		DiscountPercent: q.DiscountPercent,
		TaxRatePercent:  q.TaxRatePercent,
		DepositPercent:  q.DepositPercent,
	}
}

// TotalsFor recomputes a quote's totals from its current line items and rates.
func TotalsFor(q *models.Quote) Totals {
	return ComputeTotals(LinesFromModels(q.LineItems), RatesOf(q))
}

// applySnapshot copies totals onto the quote's snapshot columns.
func applySnapshot(q *models.Quote, t Totals) {
	q.Subtotal = t.Subtotal
	q.MaterialCost = t.MaterialCost
	q.LaborCost = t.LaborCost
	q.DiscountAmount = t.DiscountAmount
	q.TaxAmount = t.TaxAmount
	q.Total = t.Total
	q.DepositAmount = t.DepositAmount
	q.GrossProfit = t.GrossProfit
	q.MarginPercent = t.MarginPercent
}
