package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/fenceops-backend/api/middleware"
	"github.com/angelmondragon/fenceops-backend/api/responses"
	"github.com/angelmondragon/fenceops-backend/api/validators"
	"github.com/angelmondragon/fenceops-backend/internal/ratesheets"
	"github.com/angelmondragon/fenceops-backend/pkg/db/models"
	"github.com/angelmondragon/fenceops-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/fenceops-backend/pkg/errors"
	"github.com/angelmondragon/fenceops-backend/pkg/logger"
)

type rateSheetActiveRequest struct {
	Active *bool `json:"active"`
}

type rateSheetResponse struct {
	ID          uuid.UUID                  `json:"id"`
	Name        string                     `json:"name"`
	IsActive    bool                       `json:"isActive"`
	PricingType enums.RateSheetPricingType `json:"pricingType"`
	UpdatedAt   time.Time                  `json:"updatedAt"`
}

func toRateSheetResponse(sheet *models.RateSheet) rateSheetResponse {
	return rateSheetResponse{
		ID:          sheet.ID,
		Name:        sheet.Name,
		IsActive:    sheet.IsActive,
		PricingType: sheet.PricingType,
		UpdatedAt:   sheet.UpdatedAt,
	}
}

// RateSheetSetActive toggles a rate sheet. Cached resolutions are dropped by the service.
func RateSheetSetActive(svc ratesheets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "rate sheet service unavailable"))
			return
		}

		rateSheetID, err := validators.ParseUUIDParam(r, "rateSheetId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body rateSheetActiveRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if body.Active == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "validation failed").
				WithDetails(map[string]string{"active": "is required"}))
			return
		}

		sheet, err := svc.SetActive(r.Context(), ratesheets.SetActiveInput{
			RateSheetID: rateSheetID,
			Active:      *body.Active,
			ActorID:     middleware.ActorIDFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toRateSheetResponse(sheet))
	}
}
