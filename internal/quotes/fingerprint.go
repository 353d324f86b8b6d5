package quotes

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/fenceops-backend/pkg/db/models"
)

const fingerprintScale = 4

// PricingFingerprint hashes every input that can move the totals. Line order does not count.
func PricingFingerprint(items []models.QuoteLineItem, rates Rates) string {
	rows := make([]string, 0, len(items))
	for _, item := range items {
		if item.DeletedAt.Valid {
			continue
		}
		sku := ""
		if item.SKUID != nil {
			sku = item.SKUID.String()
		}
		rows = append(rows, strings.Join([]string{
			string(item.LineType),
			sku,
			fixed(item.Quantity),
			fixed(item.UnitPrice),
			fixed(item.UnitCost),
			optionalFixed(item.MaterialUnitCost),
			optionalFixed(item.LaborUnitCost),
		}, "|"))
	}
	sort.Strings(rows)

	h := sha256.New()
	h.Write([]byte(strings.Join([]string{
		fixed(rates.DiscountPercent),
		fixed(rates.TaxRatePercent),
		fixed(rates.DepositPercent),
	}, "|")))
	for _, row := range rows {
		h.Write([]byte{'\n'})
		h.Write([]byte(row))
	}
	return hex.EncodeToString(h.Sum(nil))
}

func fixed(d decimal.Decimal) string {
	return d.StringFixed(fingerprintScale)
}

func optionalFixed(d *decimal.Decimal) string {
	if d == nil {
		return "-"
	}
	return fixed(*d)
}
