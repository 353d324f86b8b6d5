package quotes

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/fenceops-backend/pkg/config"
	"github.com/angelmondragon/fenceops-backend/pkg/db/models"
)

// ApprovalPolicy holds the thresholds that force manager sign-off. A zero value disables its rule.
type ApprovalPolicy struct {
	MinMarginPercent   decimal.Decimal
	MaxTotal           decimal.Decimal
	MaxDiscountPercent decimal.Decimal
	MinDepositPercent  decimal.Decimal
	MaxDepositPercent  decimal.Decimal
}

func PolicyFromConfig(cfg config.ApprovalConfig) ApprovalPolicy {
	return ApprovalPolicy{
		MinMarginPercent:   decimal.NewFromFloat(cfg.MinMarginPercent),
		MaxTotal:           decimal.NewFromFloat(cfg.MaxTotal),
		MaxDiscountPercent: decimal.NewFromFloat(cfg.MaxDiscountPercent),
		MinDepositPercent:  decimal.NewFromFloat(cfg.MinDepositPercent),
		MaxDepositPercent:  decimal.NewFromFloat(cfg.MaxDepositPercent),
	}
}

// ApprovalSubject is what the gate reads from a quote besides its totals.
type ApprovalSubject struct {
	DiscountPercent   decimal.Decimal
	DepositPercent    decimal.Decimal
	ManagerApprovedAt *time.Time
}

func SubjectOf(q *models.Quote) ApprovalSubject {
	return ApprovalSubject{
		DiscountPercent:   q.DiscountPercent,
		DepositPercent:    q.DepositPercent,
		ManagerApprovedAt: q.ManagerApprovedAt,
	}
}

// ApprovalDecision lists every violated threshold. Reasons are kept after approval so
// the approved exceptions stay visible.
type ApprovalDecision struct {
	Required        bool     `json:"required"`
	Reasons         []string `json:"reasons"`
	ManagerApproved bool     `json:"managerApproved"`
}

// NeedsApproval evaluates every rule and reports one reason per violation.
func (p ApprovalPolicy) NeedsApproval(t Totals, subject ApprovalSubject) ApprovalDecision {
	reasons := make([]string, 0, 4)

	if p.MinMarginPercent.IsPositive() && !t.empty() && t.MarginPercent.LessThan(p.MinMarginPercent) {
		reasons = append(reasons, fmt.Sprintf("margin %s%% is below the %s%% floor",
			t.MarginPercent.StringFixed(2), p.MinMarginPercent.StringFixed(2)))
	}
	if p.MaxTotal.IsPositive() && t.Total.GreaterThan(p.MaxTotal) {
		reasons = append(reasons, fmt.Sprintf("total %s exceeds the %s limit",
			t.Total.StringFixed(2), p.MaxTotal.StringFixed(2)))
	}
	if p.MaxDiscountPercent.IsPositive() && subject.DiscountPercent.GreaterThan(p.MaxDiscountPercent) {
		reasons = append(reasons, fmt.Sprintf("discount %s%% exceeds the %s%% limit",
			subject.DiscountPercent.StringFixed(2), p.MaxDiscountPercent.StringFixed(2)))
	}
	if p.MinDepositPercent.IsPositive() && subject.DepositPercent.LessThan(p.MinDepositPercent) {
		reasons = append(reasons, fmt.Sprintf("deposit %s%% is below the %s%% minimum",
			subject.DepositPercent.StringFixed(2), p.MinDepositPercent.StringFixed(2)))
	}
	if p.MaxDepositPercent.IsPositive() && subject.DepositPercent.GreaterThan(p.MaxDepositPercent) {
		reasons = append(reasons, fmt.Sprintf("deposit %s%% exceeds the %s%% limit",
			subject.DepositPercent.StringFixed(2), p.MaxDepositPercent.StringFixed(2)))
	}

	approved := subject.ManagerApprovedAt != nil
	return ApprovalDecision{
		Required:        len(reasons) > 0 && !approved,
		Reasons:         reasons,
		ManagerApproved: approved,
	}
}
