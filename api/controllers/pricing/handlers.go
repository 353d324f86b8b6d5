package pricing

import (
	"net/http"
	"time"

	"github.com/angelmondragon/fenceops-backend/api/responses"
	"github.com/angelmondragon/fenceops-backend/api/validators"
	internalpricing "github.com/angelmondragon/fenceops-backend/internal/pricing"
	internalquotes "github.com/angelmondragon/fenceops-backend/internal/quotes"
	pkgerrors "github.com/angelmondragon/fenceops-backend/pkg/errors"
	"github.com/angelmondragon/fenceops-backend/pkg/logger"
)

// TotalsPreviewer computes totals and the approval verdict without touching storage.
type TotalsPreviewer interface {
	Preview(lines []internalquotes.Line, rates internalquotes.Rates, subject internalquotes.ApprovalSubject) (internalquotes.Totals, internalquotes.ApprovalDecision)
}

type totalsResponse struct {
	Totals   internalquotes.Totals           `json:"totals"`
	Approval internalquotes.ApprovalDecision `json:"approval"`
}

// Resolve prices one SKU at a caller-supplied base cost.
func Resolve(svc internalpricing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pricing service unavailable"))
			return
		}

		var body resolveRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if body.BaseCost == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "validation failed").
				WithDetails(map[string]string{"baseCost": "is required"}))
			return
		}

		resolved, err := svc.ResolvePrice(r.Context(), internalpricing.PriceRequest{
			SKUID:    body.SKUID,
			BaseCost: *body.BaseCost,
			Context:  body.toContext(),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, resolved)
	}
}

// Lines prices a batch of SKU lines. A line with bad pricing data carries its own
// error and the rest still price.
func Lines(svc internalpricing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pricing service unavailable"))
			return
		}

		var body linesRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		pc := body.toContext()
		reqs := make([]internalpricing.LineRequest, 0, len(body.Lines))
		for _, line := range body.Lines {
			reqs = append(reqs, internalpricing.LineRequest{
				SKUID:       line.SKUID,
				Quantity:    line.Quantity,
				LineType:    line.LineType,
				Description: validators.SanitizeString(line.Description, maxDescriptionLength),
				Context:     pc,
			})
		}

		results, err := svc.PriceLines(r.Context(), reqs)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"lines": results})
	}
}

// Totals previews quote totals and whether manager approval would be required.
func Totals(previewer TotalsPreviewer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if previewer == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "totals preview unavailable"))
			return
		}

		var body totalsRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		lines := make([]internalquotes.Line, 0, len(body.Lines))
		for _, line := range body.Lines {
			lines = append(lines, internalquotes.Line{
				Quantity:         line.Quantity,
				UnitPrice:        line.UnitPrice,
				MaterialUnitCost: line.MaterialUnitCost,
				LaborUnitCost:    line.LaborUnitCost,
			})
		}
		rates := internalquotes.Rates{
			DiscountPercent: body.DiscountPercent,
			TaxRatePercent:  body.TaxRatePercent,
			DepositPercent:  body.DepositPercent,
		}
		subject := internalquotes.ApprovalSubject{
			DiscountPercent: body.DiscountPercent,
			DepositPercent:  body.DepositPercent,
		}
		if body.ManagerApproved {
			now := time.Now().UTC()
			subject.ManagerApprovedAt = &now
		}

		totals, approval := previewer.Preview(lines, rates, subject)
		responses.WriteSuccess(w, totalsResponse{Totals: totals, Approval: approval})
	}
}
