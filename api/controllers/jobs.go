package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/fenceops-backend/api/responses"
	"github.com/angelmondragon/fenceops-backend/api/validators"
	"github.com/angelmondragon/fenceops-backend/internal/jobs"
	"github.com/angelmondragon/fenceops-backend/pkg/db/models"
	"github.com/angelmondragon/fenceops-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/fenceops-backend/pkg/errors"
	"github.com/angelmondragon/fenceops-backend/pkg/logger"
)

type jobLineItemResponse struct {
	ID              uuid.UUID       `json:"id"`
	QuoteLineItemID uuid.UUID       `json:"quoteLineItemId"`
	LineType        enums.LineType  `json:"lineType"`
	Description     string          `json:"description"`
	SKUID           *uuid.UUID      `json:"skuId,omitempty"`
	Quantity        decimal.Decimal `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unitPrice"`
	UnitCost        decimal.Decimal `json:"unitCost"`
	SortOrder       int             `json:"sortOrder"`
}

type jobDetailResponse struct {
	ID                  uuid.UUID             `json:"id"`
	QuoteID             uuid.UUID             `json:"quoteId"`
	CommunityID         *uuid.UUID            `json:"communityId,omitempty"`
	ClientID            *uuid.UUID            `json:"clientId,omitempty"`
	BusinessUnitClassID *uuid.UUID            `json:"businessUnitClassId,omitempty"`
	Status              enums.JobStatus       `json:"status"`
	ContractTotal       decimal.Decimal       `json:"contractTotal"`
	CreatedBy           *string               `json:"createdBy,omitempty"`
	LineItems           []jobLineItemResponse `json:"lineItems"`
	CreatedAt           time.Time             `json:"createdAt"`
}

func toJobDetailResponse(job *models.Job) jobDetailResponse {
	lines := make([]jobLineItemResponse, 0, len(job.LineItems))
	for _, item := range job.LineItems {
		lines = append(lines, jobLineItemResponse{
			ID:              item.ID,
			QuoteLineItemID: item.QuoteLineItemID,
			LineType:        item.LineType,
			Description:     item.Description,
			SKUID:           item.SKUID,
			Quantity:        item.Quantity,
			UnitPrice:       item.UnitPrice,
			UnitCost:        item.UnitCost,
			SortOrder:       item.SortOrder,
		})
	}
	return jobDetailResponse{
		ID:                  job.ID,
		QuoteID:             job.QuoteID,
		CommunityID:         job.CommunityID,
		ClientID:            job.ClientID,
		BusinessUnitClassID: job.BusinessUnitClassID,
		Status:              job.Status,
		ContractTotal:       job.ContractTotal,
		CreatedBy:           job.CreatedBy,
		LineItems:           lines,
		CreatedAt:           job.CreatedAt,
	}
}

func JobDetail(svc jobs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "job service unavailable"))
			return
		}

		jobID, err := validators.ParseUUIDParam(r, "jobId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		job, err := svc.Get(r.Context(), jobID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toJobDetailResponse(job))
	}
}
