package pricing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/fenceops-backend/internal/ratesheets"
	"github.com/angelmondragon/fenceops-backend/pkg/db/models"
	"github.com/angelmondragon/fenceops-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/fenceops-backend/pkg/errors"
	"github.com/angelmondragon/fenceops-backend/pkg/logger"
	"github.com/angelmondragon/fenceops-backend/pkg/metrics"
)

const (
	pathRPC    = "rpc"
	pathEngine = "engine"
)

// Service resolves unit prices and prices quote lines.
type Service interface {
	ResolvePrice(ctx context.Context, req PriceRequest) (ResolvedPrice, error)
	PriceLine(ctx context.Context, req LineRequest) (LineResult, error)
	PriceLines(ctx context.Context, reqs []LineRequest) ([]LineResult, error)
}

type rateSheetLookup interface {
	Resolve(ctx context.Context, pc ratesheets.PricingContext) (ratesheets.Resolution, error)
	Item(ctx context.Context, rateSheetID, skuID uuid.UUID) (*models.RateSheetItem, error)
}

// ServiceParams wires the pricing service. RPC is optional; without it every price is
// computed in process.
type ServiceParams struct {
	Repository Repository
	RateSheets rateSheetLookup
	RPC        rawQuerier
	UseRPC     bool
	Logger     *logger.Logger
	Metrics    *metrics.PricingMetrics
}

type service struct {
	repo    Repository
	sheets  rateSheetLookup
	rpc     rawQuerier
	useRPC  bool
	logg    *logger.Logger
	metrics *metrics.PricingMetrics
	now     func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repository == nil {
		return nil, fmt.Errorf("pricing repository required")
	}
	if params.RateSheets == nil {
		return nil, fmt.Errorf("rate sheet lookup required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.UseRPC && params.RPC == nil {
		return nil, fmt.Errorf("rpc querier required when rpc pricing is enabled")
	}
	return &service{
		repo:    params.Repository,
		sheets:  params.RateSheets,
		rpc:     params.RPC,
		useRPC:  params.UseRPC,
		logg:    params.Logger,
		metrics: params.Metrics,
		now:     time.Now,
	}, nil
}

func (s *service) ResolvePrice(ctx context.Context, req PriceRequest) (ResolvedPrice, error) {
	if err := ctx.Err(); err != nil {
		return ResolvedPrice{}, err
	}
	if req.SKUID == uuid.Nil {
		return ResolvedPrice{}, pkgerrors.New(pkgerrors.CodeValidation, "sku id is required")
	}
	if req.BaseCost.IsNegative() {
		return ResolvedPrice{}, pkgerrors.New(pkgerrors.CodeValidation, "base cost must not be negative")
	}

	ctx = s.logg.WithField(s.logg.WithPricingScope(ctx, req.Context.Scope()), "sku_id", req.SKUID.String())

	if s.useRPC {
		started := s.now()
		resolved, err := callResolvedPrice(ctx, s.rpc, req)
		if err == nil {
			s.metrics.ObserveDuration(pathRPC, s.now().Sub(started))
			s.record(resolved)
			return resolved, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ResolvedPrice{}, ctxErr
		}
		if pkgerrors.IsInvalidPricingRaise(err) || pkgerrors.HasCode(err, pkgerrors.CodeInvalidPricing) {
			s.metrics.IncInvalidData()
			return ResolvedPrice{}, pkgerrors.Wrap(pkgerrors.CodeInvalidPricing, err, "rate sheet data cannot produce a price")
		}
		s.metrics.IncRPCFallback("rpc_error")
		s.logg.Warn(s.logg.WithFields(ctx, pkgerrors.Dump(err).Fields()), "get_resolved_price failed; using in-process engine")
	}

	started := s.now()
	resolved, err := s.resolveInProcess(ctx, req)
	if err != nil {
		if pkgerrors.HasCode(err, pkgerrors.CodeInvalidPricing) {
			s.metrics.IncInvalidData()
		}
		return ResolvedPrice{}, err
	}
	s.metrics.ObserveDuration(pathEngine, s.now().Sub(started))
	s.record(resolved)
	return resolved, nil
}

func (s *service) resolveInProcess(ctx context.Context, req PriceRequest) (ResolvedPrice, error) {
	if req.Context.CommunityID != nil {
		override, err := s.repo.CommunityOverride(ctx, *req.Context.CommunityID, req.SKUID)
		if err != nil {
			return ResolvedPrice{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load community price override")
		}
		if override != nil {
			return CommunityOverride(*override)
		}
	}

	res, err := s.sheets.Resolve(ctx, req.Context)
	if err != nil {
		return ResolvedPrice{}, err
	}

	var item *models.RateSheetItem
	if res.Found() {
		item, err = s.sheets.Item(ctx, res.RateSheet.ID, req.SKUID)
		if err != nil {
			return ResolvedPrice{}, err
		}
	}

	resolved, err := ComputePrice(req.BaseCost, item, res.RateSheet, res.Source)
	if err != nil {
		return ResolvedPrice{}, err
	}
	if res.Degraded() {
		resolved.Degraded = true
		resolved.Warnings = res.Warnings()
	}
	return resolved, nil
}

func (s *service) record(resolved ResolvedPrice) {
	s.metrics.IncResolution(resolved.Source.String(), resolved.Method.String())
}

func (s *service) PriceLine(ctx context.Context, req LineRequest) (LineResult, error) {
	if req.SKUID == uuid.Nil {
		return LineResult{}, pkgerrors.New(pkgerrors.CodeValidation, "sku id is required")
	}
	if req.Quantity.IsNegative() {
		return LineResult{}, pkgerrors.New(pkgerrors.CodeValidation, "quantity must not be negative")
	}
	lineType := req.LineType
	if lineType == "" {
		lineType = enums.LineTypeMaterial
	}
	if !lineType.IsValid() {
		return LineResult{}, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid line type %q", lineType)
	}

	sku, err := s.repo.FindSKU(ctx, req.SKUID)
	if err != nil {
		return LineResult{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load sku")
	}
	if sku == nil {
		return LineResult{}, pkgerrors.New(pkgerrors.CodeNotFound, "sku not found").
			WithDetails(map[string]any{"sku_id": req.SKUID.String()})
	}

	material := sku.StandardCostPerFoot
	labor := decimal.Zero
	if req.Context.BusinessUnitClassID != nil {
		cost, err := s.repo.LaborCost(ctx, *req.Context.BusinessUnitClassID, sku.ID)
		if err != nil {
			return LineResult{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load labor cost")
		}
		if cost != nil {
			labor = *cost
		}
	}
	unitCost := material.Add(labor)

	resolved, err := s.ResolvePrice(ctx, PriceRequest{SKUID: sku.ID, BaseCost: unitCost, Context: req.Context})
	if err != nil {
		return LineResult{}, err
	}

	description := req.Description
	if description == "" {
		description = sku.SKUName
	}
	return LineResult{
		SKUID:            sku.ID,
		SKUCode:          sku.SKUCode,
		SKUName:          sku.SKUName,
		LineType:         lineType,
		Description:      description,
		Quantity:         req.Quantity,
		UnitPrice:        resolved.Price,
		UnitCost:         unitCost,
		MaterialUnitCost: &material,
		LaborUnitCost:    &labor,
		LineTotal:        req.Quantity.Mul(resolved.Price).Round(priceScale),
		Resolved:         &resolved,
	}, nil
}

// PriceLines prices each line independently. Lines rejected for bad pricing data or
// unknown SKUs carry their own error; infrastructure failures abort the batch.
func (s *service) PriceLines(ctx context.Context, reqs []LineRequest) ([]LineResult, error) {
	results := make([]LineResult, 0, len(reqs))
	for _, req := range reqs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		result, err := s.PriceLine(ctx, req)
		if err != nil {
			lineErr, ok := lineLevel(err)
			if !ok {
				return nil, err
			}
			results = append(results, LineResult{
				SKUID:       req.SKUID,
				LineType:    req.LineType,
				Description: req.Description,
				Quantity:    req.Quantity,
				Error:       lineErr,
			})
			continue
		}
		results = append(results, result)
	}
	return results, nil
}

func lineLevel(err error) (*LineError, bool) {
	typed := pkgerrors.As(err)
	if typed == nil {
		return nil, false
	}
	switch typed.Code() {
	case pkgerrors.CodeInvalidPricing, pkgerrors.CodeNotFound, pkgerrors.CodeValidation:
		return &LineError{Code: string(typed.Code()), Message: typed.Message()}, true
	default:
		return nil, false
	}
}
