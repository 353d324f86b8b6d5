package quotes

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/fenceops-backend/pkg/config"
	"github.com/angelmondragon/fenceops-backend/pkg/db/models"
	"github.com/angelmondragon/fenceops-backend/pkg/enums"
)

func testPolicy() ApprovalPolicy {
	return PolicyFromConfig(config.ApprovalConfig{
		MinMarginPercent:   25,
		MaxTotal:           50000,
		MaxDiscountPercent: 15,
		MinDepositPercent:  10,
		MaxDepositPercent:  50,
	})
}

func TestNeedsApprovalWithinThresholds(t *testing.T) {
	totals := Totals{Total: dec("1000"), MarginPercent: dec("30")}
	got := testPolicy().NeedsApproval(totals, ApprovalSubject{DiscountPercent: dec("5"), DepositPercent: dec("25")})
	if got.Required || len(got.Reasons) != 0 {
		t.Fatalf("expected no approval, got %+v", got)
	}
}

func TestNeedsApprovalOneReasonPerRule(t *testing.T) {
	cases := []struct {
		name    string
		totals  Totals
		subject ApprovalSubject
		want    string
	}{
		{"margin floor", Totals{Total: dec("1000"), MarginPercent: dec("12")}, ApprovalSubject{DepositPercent: dec("20")}, "margin 12.00% is below the 25.00% floor"},
		{"total ceiling", Totals{Total: dec("60000"), MarginPercent: dec("30")}, ApprovalSubject{DepositPercent: dec("20")}, "total 60000.00 exceeds the 50000.00 limit"},
		{"discount ceiling", Totals{Total: dec("1000"), MarginPercent: dec("30")}, ApprovalSubject{DiscountPercent: dec("20"), DepositPercent: dec("20")}, "discount 20.00% exceeds the 15.00% limit"},
		{"deposit floor", Totals{Total: dec("1000"), MarginPercent: dec("30")}, ApprovalSubject{DepositPercent: dec("5")}, "deposit 5.00% is below the 10.00% minimum"},
		{"deposit ceiling", Totals{Total: dec("1000"), MarginPercent: dec("30")}, ApprovalSubject{DepositPercent: dec("60")}, "deposit 60.00% exceeds the 50.00% limit"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := testPolicy().NeedsApproval(tc.totals, tc.subject)
			if !got.Required || len(got.Reasons) != 1 || got.Reasons[0] != tc.want {
				t.Fatalf("expected single reason %q, got %+v", tc.want, got)
			}
		})
	}
}

func TestNeedsApprovalCollectsEveryViolation(t *testing.T) {
	totals := Totals{Total: dec("75000"), MarginPercent: dec("10")}
	got := testPolicy().NeedsApproval(totals, ApprovalSubject{DiscountPercent: dec("30"), DepositPercent: dec("80")})
	if len(got.Reasons) != 4 {
		t.Fatalf("expected 4 reasons, got %v", got.Reasons)
	}
}

func TestNeedsApprovalManagerApprovalShortCircuits(t *testing.T) {
	approvedAt := time.Now()
	totals := Totals{Total: dec("75000"), MarginPercent: dec("10")}
	got := testPolicy().NeedsApproval(totals, ApprovalSubject{DepositPercent: dec("20"), ManagerApprovedAt: &approvedAt})
	if got.Required {
		t.Fatalf("approved quote must not require approval")
	}
	if !got.ManagerApproved || len(got.Reasons) != 2 {
		t.Fatalf("expected approved exceptions to stay listed, got %+v", got)
	}
}

func TestNeedsApprovalZeroThresholdsDisableRules(t *testing.T) {
	totals := Totals{Total: dec("1000000"), MarginPercent: dec("-5")}
	got := ApprovalPolicy{}.NeedsApproval(totals, ApprovalSubject{DiscountPercent: dec("90"), DepositPercent: dec("100")})
	if got.Required {
		t.Fatalf("expected disabled rules, got %v", got.Reasons)
	}
}

func TestNeedsApprovalIgnoresMarginOnEmptyQuote(t *testing.T) {
	got := testPolicy().NeedsApproval(ComputeTotals(nil, Rates{}), ApprovalSubject{DepositPercent: dec("20")})
	if got.Required {
		t.Fatalf("quote with no lines and no cost should not trip the margin floor: %v", got.Reasons)
	}
}

func TestNeedsApprovalMarginFloorAppliesAtZeroTotal(t *testing.T) {
	material := dec("700")
	lines := []Line{
		{Quantity: dec("1"), UnitPrice: dec("700"), MaterialUnitCost: &material},
		{Quantity: dec("1"), UnitPrice: dec("-700")},
	}
	totals := ComputeTotals(lines, Rates{})
	if !totals.Total.IsZero() || !totals.MarginPercent.IsZero() {
		t.Fatalf("expected zero total and margin, got %s / %s", totals.Total, totals.MarginPercent)
	}

	got := PolicyFromConfig(config.ApprovalConfig{MinMarginPercent: 20}).NeedsApproval(totals, ApprovalSubject{})
	if !got.Required || len(got.Reasons) != 1 || !strings.HasPrefix(got.Reasons[0], "margin 0.00%") {
		t.Fatalf("expected margin floor to require approval, got %+v", got)
	}
}

func TestNeedsApprovalMarginFloorAppliesToNegativeTotal(t *testing.T) {
	labor := dec("100")
	totals := ComputeTotals([]Line{
		{Quantity: dec("2"), UnitPrice: dec("50"), LaborUnitCost: &labor},
		{Quantity: dec("1"), UnitPrice: dec("-150")},
	}, Rates{})
	got := PolicyFromConfig(config.ApprovalConfig{MinMarginPercent: 20}).NeedsApproval(totals, ApprovalSubject{})
	if !got.Required {
		t.Fatalf("negative total with real cost must require approval, got %+v", got)
	}
}

func TestPricingFingerprint(t *testing.T) {
	sku := uuid.New()
	a := models.QuoteLineItem{LineType: enums.LineTypeMaterial, SKUID: &sku, Quantity: dec("10"), UnitPrice: dec("12.5"), UnitCost: dec("10")}
	b := models.QuoteLineItem{LineType: enums.LineTypeLabor, Quantity: dec("4"), UnitPrice: dec("60"), UnitCost: dec("35")}
	rates := Rates{DiscountPercent: dec("5"), TaxRatePercent: dec("8")}

	base := PricingFingerprint([]models.QuoteLineItem{a, b}, rates)
	if len(base) != 64 || strings.Trim(base, "0123456789abcdef") != "" {
		t.Fatalf("expected hex sha256, got %q", base)
	}
	if got := PricingFingerprint([]models.QuoteLineItem{b, a}, rates); got != base {
		t.Fatalf("line order must not change the fingerprint")
	}

	b.Description = "relabelled"
	b.SortOrder = 9
	if got := PricingFingerprint([]models.QuoteLineItem{a, b}, rates); got != base {
		t.Fatalf("non-pricing fields must not change the fingerprint")
	}

	a.UnitPrice = dec("12.75")
	if got := PricingFingerprint([]models.QuoteLineItem{a, b}, rates); got == base {
		t.Fatalf("price change must change the fingerprint")
	}
	a.UnitPrice = dec("12.50")
	if got := PricingFingerprint([]models.QuoteLineItem{a, b}, Rates{DiscountPercent: dec("6"), TaxRatePercent: dec("8")}); got == base {
		t.Fatalf("rate change must change the fingerprint")
	}
	if got := PricingFingerprint([]models.QuoteLineItem{a, b}, rates); got != base {
		t.Fatalf("equal decimals with different scale must hash the same")
	}
}
