package quotes

import (
	"context"
	"net/http"

	"github.com/angelmondragon/fenceops-backend/api/middleware"
	"github.com/angelmondragon/fenceops-backend/api/responses"
	"github.com/angelmondragon/fenceops-backend/api/validators"
	internalquotes "github.com/angelmondragon/fenceops-backend/internal/quotes"
	pkgerrors "github.com/angelmondragon/fenceops-backend/pkg/errors"
	"github.com/angelmondragon/fenceops-backend/pkg/logger"
)

type transitionFunc func(internalquotes.Service, context.Context, internalquotes.TransitionInput) (*internalquotes.QuoteView, error)

// Action is a body-less lifecycle route under /quotes/{quoteId}.
type Action struct {
	Path string
	run  transitionFunc
}

// Actions lists the lifecycle routes that take no request body. lose and convert
// have their own handlers.
var Actions = []Action{
	{Path: "request-approval", run: internalquotes.Service.RequestApproval},
	{Path: "approve", run: internalquotes.Service.Approve},
	{Path: "reject", run: internalquotes.Service.Reject},
	{Path: "send", run: internalquotes.Service.Send},
	{Path: "awaiting-response", run: internalquotes.Service.MarkAwaitingResponse},
	{Path: "request-changes", run: internalquotes.Service.RequestChanges},
	{Path: "reopen", run: internalquotes.Service.Reopen},
	{Path: "accept", run: internalquotes.Service.MarkAccepted},
	{Path: "archive", run: internalquotes.Service.Archive},
}

func Create(svc internalquotes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "quote service unavailable"))
			return
		}

		var body createQuoteRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.Create(r.Context(), internalquotes.CreateInput{
			Title:               validators.SanitizeString(body.Title, maxTitleLength),
			CommunityID:         body.CommunityID,
			ClientID:            body.ClientID,
			BusinessUnitClassID: body.BusinessUnitClassID,
			QBOClassID:          body.QBOClassID,
			QuoteGroup:          body.QuoteGroup,
			IsAlternative:       body.IsAlternative,
			Rates:               body.toRates(),
			ActorID:             middleware.ActorIDFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, toQuoteResponse(view))
	}
}

func Get(svc internalquotes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "quote service unavailable"))
			return
		}

		quoteID, err := validators.ParseUUIDParam(r, "quoteId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.Get(r.Context(), quoteID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toQuoteResponse(view))
	}
}

// Save replaces the editable form: rates, title and the full line item list.
func Save(svc internalquotes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "quote service unavailable"))
			return
		}

		quoteID, err := validators.ParseUUIDParam(r, "quoteId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body saveQuoteRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var title *string
		if body.Title != nil {
			sanitized := validators.SanitizeString(*body.Title, maxTitleLength)
			title = &sanitized
		}

		items := make([]internalquotes.LineItemInput, 0, len(body.LineItems))
		for _, line := range body.LineItems {
			items = append(items, internalquotes.LineItemInput{
				ID:               line.ID,
				LineType:         line.LineType,
				Description:      validators.SanitizeString(line.Description, maxDescriptionLength),
				SKUID:            line.SKUID,
				Quantity:         line.Quantity,
				UnitPrice:        line.UnitPrice,
				UnitCost:         line.UnitCost,
				MaterialUnitCost: line.MaterialUnitCost,
				LaborUnitCost:    line.LaborUnitCost,
				PricingSource:    line.PricingSource,
				PricingMethod:    line.PricingMethod,
				RateSheetID:      line.RateSheetID,
			})
		}

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithQuoteID(ctx, quoteID.String())
		}
		view, err := svc.Save(ctx, internalquotes.SaveInput{
			QuoteID:   quoteID,
			Title:     title,
			Rates:     body.toRates(),
			LineItems: items,
			ActorID:   middleware.ActorIDFromContext(ctx),
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, toQuoteResponse(view))
	}
}

// Transition runs one body-less lifecycle action.
func Transition(svc internalquotes.Service, action Action, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil || action.run == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "quote service unavailable"))
			return
		}

		quoteID, err := validators.ParseUUIDParam(r, "quoteId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithFields(ctx, map[string]any{"quote_id": quoteID.String(), "action": action.Path})
		}
		view, err := action.run(svc, ctx, internalquotes.TransitionInput{
			QuoteID: quoteID,
			ActorID: middleware.ActorIDFromContext(ctx),
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, toQuoteResponse(view))
	}
}

func Lose(svc internalquotes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "quote service unavailable"))
			return
		}

		quoteID, err := validators.ParseUUIDParam(r, "quoteId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body loseQuoteRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var notes *string
		if body.Notes != nil {
			sanitized := validators.SanitizeString(*body.Notes, maxNotesLength)
			notes = &sanitized
		}

		view, err := svc.MarkLost(r.Context(), internalquotes.LostInput{
			QuoteID: quoteID,
			Reason:  body.Reason,
			Notes:   notes,
			ActorID: middleware.ActorIDFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toQuoteResponse(view))
	}
}

// Convert turns the selected line items of an accepted quote into a job.
func Convert(svc internalquotes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "quote service unavailable"))
			return
		}

		quoteID, err := validators.ParseUUIDParam(r, "quoteId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body convertQuoteRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ConvertToJob(r.Context(), internalquotes.ConvertInput{
			QuoteID:     quoteID,
			LineItemIDs: body.LineItemIDs,
			ActorID:     middleware.ActorIDFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, conversionResponse{
			Quote: toQuoteResponse(result.Quote),
			Job:   toJobResponse(result.Job),
		})
	}
}
