package ratesheets

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/angelmondragon/fenceops-backend/pkg/db/models"
	"github.com/angelmondragon/fenceops-backend/pkg/enums"
)

// PricingContext is the sales context a price is resolved for.
type PricingContext struct {
	CommunityID         *uuid.UUID `json:"communityId,omitempty"`
	ClientID            *uuid.UUID `json:"clientId,omitempty"`
	BusinessUnitClassID *uuid.UUID `json:"businessUnitClassId,omitempty"`
}

// Scope renders the context as a stable cache scope.
func (p PricingContext) Scope() string {
	return fmt.Sprintf("c=%s|cl=%s|bu=%s", idOrEmpty(p.CommunityID), idOrEmpty(p.ClientID), idOrEmpty(p.BusinessUnitClassID))
}

func idOrEmpty(id *uuid.UUID) string {
	if id == nil {
		return ""
	}
	return id.String()
}

// Resolution is the single governing rate sheet for a context, or none.
type Resolution struct {
	RateSheetID *uuid.UUID
	RateSheet   *models.RateSheet
	Source      enums.PricingSource
	// LookupErr aggregates the lookups that failed and were treated as not found.
	LookupErr error
}

// Degraded reports whether any lookup failed on the way to this result.
func (r Resolution) Degraded() bool {
	return r.LookupErr != nil
}

// Found reports whether a rate sheet governs the context.
func (r Resolution) Found() bool {
	return r.RateSheet != nil
}

// Warnings lists the failed lookups as messages.
func (r Resolution) Warnings() []string {
	errs := multierr.Errors(r.LookupErr)
	out := make([]string, 0, len(errs))
	for _, err := range errs {
		out = append(out, err.Error())
	}
	return out
}

// NoResolution is the result when no active sheet exists at any level.
func NoResolution() Resolution {
	return Resolution{Source: enums.PricingSourceNone}
}

// Resolver walks community, owning client, client and business unit in that order.
// The first active sheet wins outright; sheets are never merged.
type Resolver struct {
	repo Repository
}

func NewResolver(repo Repository) (*Resolver, error) {
	if repo == nil {
		return nil, fmt.Errorf("rate sheet repository required")
	}
	return &Resolver{repo: repo}, nil
}

// Resolve never fails on lookup errors; they degrade to the next step and are kept in LookupErr.
func (r *Resolver) Resolve(ctx context.Context, pc PricingContext) Resolution {
	var lookupErr error
	found := func(sheet *models.RateSheet, source enums.PricingSource) Resolution {
		id := sheet.ID
		return Resolution{RateSheetID: &id, RateSheet: sheet, Source: source, LookupErr: lookupErr}
	}

	switch {
	case pc.CommunityID != nil:
		sheet, err := r.repo.ActiveCommunityRateSheet(ctx, *pc.CommunityID)
		if err != nil {
			lookupErr = multierr.Append(lookupErr, fmt.Errorf("community rate sheet: %w", err))
		} else if sheet != nil {
			return found(sheet, enums.PricingSourceCommunity)
		}

		owner, err := r.repo.CommunityClientID(ctx, *pc.CommunityID)
		if err != nil {
			lookupErr = multierr.Append(lookupErr, fmt.Errorf("community owner: %w", err))
		} else if owner != nil {
			sheet, err := r.repo.ActiveClientRateSheet(ctx, *owner)
			if err != nil {
				lookupErr = multierr.Append(lookupErr, fmt.Errorf("owning client rate sheet: %w", err))
			} else if sheet != nil {
				return found(sheet, enums.PricingSourceClient)
			}
		}
	case pc.ClientID != nil:
		sheet, err := r.repo.ActiveClientRateSheet(ctx, *pc.ClientID)
		if err != nil {
			lookupErr = multierr.Append(lookupErr, fmt.Errorf("client rate sheet: %w", err))
		} else if sheet != nil {
			return found(sheet, enums.PricingSourceClient)
		}
	}

	if pc.BusinessUnitClassID != nil {
		sheet, err := r.repo.ActiveBusinessUnitRateSheet(ctx, *pc.BusinessUnitClassID)
		if err != nil {
			lookupErr = multierr.Append(lookupErr, fmt.Errorf("business unit rate sheet: %w", err))
		} else if sheet != nil {
			return found(sheet, enums.PricingSourceBusinessUnit)
		}
	}

	res := NoResolution()
	res.LookupErr = lookupErr
	return res
}
