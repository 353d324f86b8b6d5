package quotes

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	internalquotes "github.com/angelmondragon/fenceops-backend/internal/quotes"
	"github.com/angelmondragon/fenceops-backend/pkg/db/models"
	"github.com/angelmondragon/fenceops-backend/pkg/enums"
)

const (
	maxTitleLength       = 200
	maxDescriptionLength = 500
	maxNotesLength       = 2000
)

type ratesRequest struct {
	DiscountPercent decimal.Decimal `json:"discountPercent" validate:"gte=0,lte=100"`
	TaxRatePercent  decimal.Decimal `json:"taxRatePercent" validate:"gte=0"`
	DepositPercent  decimal.Decimal `json:"depositPercent" validate:"gte=0,lte=100"`
}

func (r ratesRequest) toRates() internalquotes.Rates {
	return internalquotes.Rates{
		DiscountPercent: r.DiscountPercent,
		TaxRatePercent:  r.TaxRatePercent,
		DepositPercent:  r.DepositPercent,
	}
}

type createQuoteRequest struct {
	Title               string     `json:"title" validate:"required,max=200"`
	CommunityID         *uuid.UUID `json:"communityId"`
	ClientID            *uuid.UUID `json:"clientId"`
	BusinessUnitClassID *uuid.UUID `json:"businessUnitClassId"`
	QBOClassID          *string    `json:"qboClassId" validate:"omitempty,max=64"`
	QuoteGroup          *uuid.UUID `json:"quoteGroup"`
	IsAlternative       bool       `json:"isAlternative"`
	ratesRequest
}

type lineItemRequest struct {
	ID               *uuid.UUID           `json:"id"`
	LineType         enums.LineType       `json:"lineType" validate:"required"`
	Description      string               `json:"description" validate:"max=500"`
	SKUID            *uuid.UUID           `json:"skuId"`
	Quantity         decimal.Decimal      `json:"quantity"`
	UnitPrice        decimal.Decimal      `json:"unitPrice"`
	UnitCost         decimal.Decimal      `json:"unitCost"`
	MaterialUnitCost *decimal.Decimal     `json:"materialUnitCost"`
	LaborUnitCost    *decimal.Decimal     `json:"laborUnitCost"`
	PricingSource    *enums.PricingSource `json:"pricingSource"`
	PricingMethod    *enums.PricingMethod `json:"pricingMethod"`
	RateSheetID      *uuid.UUID           `json:"rateSheetId"`
}

type saveQuoteRequest struct {
	Title     *string           `json:"title" validate:"omitempty,max=200"`
	LineItems []lineItemRequest `json:"lineItems" validate:"max=500,dive"`
	ratesRequest
}

type loseQuoteRequest struct {
	Reason enums.LostReason `json:"reason" validate:"required"`
	Notes  *string          `json:"notes" validate:"omitempty,max=2000"`
}

type convertQuoteRequest struct {
	LineItemIDs []uuid.UUID `json:"lineItemIds" validate:"required,min=1,max=500"`
}

type lineItemResponse struct {
	ID               uuid.UUID            `json:"id"`
	LineType         enums.LineType       `json:"lineType"`
	Description      string               `json:"description"`
	SKUID            *uuid.UUID           `json:"skuId,omitempty"`
	Quantity         decimal.Decimal      `json:"quantity"`
	UnitPrice        decimal.Decimal      `json:"unitPrice"`
	UnitCost         decimal.Decimal      `json:"unitCost"`
	MaterialUnitCost *decimal.Decimal     `json:"materialUnitCost,omitempty"`
	LaborUnitCost    *decimal.Decimal     `json:"laborUnitCost,omitempty"`
	LineTotal        decimal.Decimal      `json:"lineTotal"`
	PricingSource    *enums.PricingSource `json:"pricingSource,omitempty"`
	PricingMethod    *enums.PricingMethod `json:"pricingMethod,omitempty"`
	RateSheetID      *uuid.UUID           `json:"rateSheetId,omitempty"`
	SortOrder        int                  `json:"sortOrder"`
	ConvertedToJobID *uuid.UUID           `json:"convertedToJobId,omitempty"`
}

type quoteResponse struct {
	ID                  uuid.UUID                       `json:"id"`
	Status              enums.QuoteStatus               `json:"status"`
	Title               string                          `json:"title"`
	CommunityID         *uuid.UUID                      `json:"communityId,omitempty"`
	ClientID            *uuid.UUID                      `json:"clientId,omitempty"`
	BusinessUnitClassID *uuid.UUID                      `json:"businessUnitClassId,omitempty"`
	QBOClassID          *string                         `json:"qboClassId,omitempty"`
	QuoteGroup          *uuid.UUID                      `json:"quoteGroup,omitempty"`
	IsAlternative       bool                            `json:"isAlternative"`
	Rates               internalquotes.Rates            `json:"rates"`
	Totals              internalquotes.Totals           `json:"totals"`
	Approval            internalquotes.ApprovalDecision `json:"approval"`
	ApprovalRequestedAt *time.Time                      `json:"approvalRequestedAt,omitempty"`
	ManagerApprovedAt   *time.Time                      `json:"managerApprovedAt,omitempty"`
	ManagerApprovedBy   *string                         `json:"managerApprovedBy,omitempty"`
	LostReason          *enums.LostReason               `json:"lostReason,omitempty"`
	LostNotes           *string                         `json:"lostNotes,omitempty"`
	SentAt              *time.Time                      `json:"sentAt,omitempty"`
	AcceptedAt          *time.Time                      `json:"acceptedAt,omitempty"`
	LostAt              *time.Time                      `json:"lostAt,omitempty"`
	ArchivedAt          *time.Time                      `json:"archivedAt,omitempty"`
	ConvertedAt         *time.Time                      `json:"convertedAt,omitempty"`
	ConvertedToJobID    *uuid.UUID                      `json:"convertedToJobId,omitempty"`
	AllowedEvents       []internalquotes.Event          `json:"allowedEvents"`
	PricedAtCost        bool                            `json:"pricedAtCost"`
	LineItems           []lineItemResponse              `json:"lineItems"`
	CreatedAt           time.Time                       `json:"createdAt"`
	UpdatedAt           time.Time                       `json:"updatedAt"`
}

type jobResponse struct {
	ID            uuid.UUID       `json:"id"`
	QuoteID       uuid.UUID       `json:"quoteId"`
	Status        enums.JobStatus `json:"status"`
	ContractTotal decimal.Decimal `json:"contractTotal"`
	LineItemCount int             `json:"lineItemCount"`
	CreatedAt     time.Time       `json:"createdAt"`
}

type conversionResponse struct {
	Quote quoteResponse `json:"quote"`
	Job   *jobResponse  `json:"job"`
}

func toQuoteResponse(view *internalquotes.QuoteView) quoteResponse {
	q := view.Quote
	lines := make([]lineItemResponse, 0, len(q.LineItems))
	for _, item := range q.LineItems {
		if item.DeletedAt.Valid {
			continue
		}
		lines = append(lines, toLineItemResponse(item))
	}
	allowed := view.Allowed
	if allowed == nil {
		allowed = []internalquotes.Event{}
	}
	return quoteResponse{
		ID:                  q.ID,
		Status:              q.Status,
		Title:               q.Title,
		CommunityID:         q.CommunityID,
		ClientID:            q.ClientID,
		BusinessUnitClassID: q.BusinessUnitClassID,
		QBOClassID:          q.QBOClassID,
		QuoteGroup:          q.QuoteGroup,
		IsAlternative:       q.IsAlternative,
		Rates:               internalquotes.RatesOf(q),
		Totals:              view.Totals,
		Approval:            view.Approval,
		ApprovalRequestedAt: q.ApprovalRequestedAt,
		ManagerApprovedAt:   q.ManagerApprovedAt,
		ManagerApprovedBy:   q.ManagerApprovedBy,
		LostReason:          q.LostReason,
		LostNotes:           q.LostNotes,
		SentAt:              q.SentAt,
		AcceptedAt:          q.AcceptedAt,
		LostAt:              q.LostAt,
		ArchivedAt:          q.ArchivedAt,
		ConvertedAt:         q.ConvertedAt,
		ConvertedToJobID:    q.ConvertedToJobID,
		AllowedEvents:       allowed,
		PricedAtCost:        view.PricedAtCost,
		LineItems:           lines,
		CreatedAt:           q.CreatedAt,
		UpdatedAt:           q.UpdatedAt,
	}
}

func toLineItemResponse(item models.QuoteLineItem) lineItemResponse {
	return lineItemResponse{
		ID:               item.ID,
		LineType:         item.LineType,
		Description:      item.Description,
		SKUID:            item.SKUID,
		Quantity:         item.Quantity,
		UnitPrice:        item.UnitPrice,
		UnitCost:         item.UnitCost,
		MaterialUnitCost: item.MaterialUnitCost,
		LaborUnitCost:    item.LaborUnitCost,
		LineTotal:        item.Quantity.Mul(item.UnitPrice).Round(2),
		PricingSource:    item.PricingSource,
		PricingMethod:    item.PricingMethod,
		RateSheetID:      item.RateSheetID,
		SortOrder:        item.SortOrder,
		ConvertedToJobID: item.ConvertedToJobID,
	}
}

func toJobResponse(job *models.Job) *jobResponse {
	if job == nil {
		return nil
	}
	return &jobResponse{
		ID:            job.ID,
		QuoteID:       job.QuoteID,
		Status:        job.Status,
		ContractTotal: job.ContractTotal,
		LineItemCount: len(job.LineItems),
		CreatedAt:     job.CreatedAt,
	}
}
