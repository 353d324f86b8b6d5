package ratesheets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/angelmondragon/fenceops-backend/pkg/db/models"
	"github.com/angelmondragon/fenceops-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/fenceops-backend/pkg/errors"
	"github.com/angelmondragon/fenceops-backend/pkg/logger"
	"github.com/angelmondragon/fenceops-backend/pkg/metrics"
	"github.com/angelmondragon/fenceops-backend/pkg/outbox"
	"github.com/angelmondragon/fenceops-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/fenceops-backend/pkg/redis"
)

const defaultCacheTTL = 5 * time.Minute

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service resolves the governing rate sheet for a pricing context and manages sheet activation.
type Service interface {
	Resolve(ctx context.Context, pc PricingContext) (Resolution, error)
	Item(ctx context.Context, rateSheetID, skuID uuid.UUID) (*models.RateSheetItem, error)
	Invalidate(ctx context.Context) error
	SetActive(ctx context.Context, input SetActiveInput) (*models.RateSheet, error)
}

// SetActiveInput toggles one rate sheet.
type SetActiveInput struct {
	RateSheetID uuid.UUID
	Active      bool
	ActorID     string
}

// ServiceParams wires the rate sheet service. Cache is optional.
type ServiceParams struct {
	Repository Repository
	Tx         txRunner
	Outbox     outboxPublisher
	Cache      redis.ResolutionStore
	CacheTTL   time.Duration
	Logger     *logger.Logger
	Metrics    *metrics.PricingMetrics
}

type service struct {
	repo     Repository
	resolver *Resolver
	tx       txRunner
	outbox   outboxPublisher
	cache    redis.ResolutionStore
	ttl      time.Duration
	logg     *logger.Logger
	metrics  *metrics.PricingMetrics
}

// cacheEntry remembers which sheet won, never its contents or any price.
type cacheEntry struct {
	RateSheetID uuid.UUID           `json:"rate_sheet_id"`
	Source      enums.PricingSource `json:"source"`
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repository == nil {
		return nil, fmt.Errorf("rate sheet repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	resolver, err := NewResolver(params.Repository)
	if err != nil {
		return nil, err
	}
	ttl := params.CacheTTL
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &service{
		repo:     params.Repository,
		resolver: resolver,
		tx:       params.Tx,
		outbox:   params.Outbox,
		cache:    params.Cache,
		ttl:      ttl,
		logg:     params.Logger,
		metrics:  params.Metrics,
	}, nil
}

// Resolve consults the cache only under the current assignment version, so a
// reassignment made anywhere retires every cached winner at once.
func (s *service) Resolve(ctx context.Context, pc PricingContext) (Resolution, error) {
	if err := ctx.Err(); err != nil {
		return Resolution{}, err
	}

	var key string
	if s.cache != nil {
		k, err := s.cacheKey(ctx, pc)
		if err != nil {
			s.warnCache(ctx, "rate sheet cache bypassed", err)
		} else {
			key = k
			if res, ok := s.fromCache(ctx, key); ok {
				return res, nil
			}
		}
	}

	res := s.resolver.Resolve(ctx, pc)
	if err := ctx.Err(); err != nil {
		return Resolution{}, err
	}
	if res.Degraded() {
		for range multierr.Errors(res.LookupErr) {
			s.metrics.IncDegraded("rate_sheet")
		}
		logCtx := s.logg.WithFields(s.logg.WithPricingScope(ctx, pc.Scope()), map[string]any{
			"source":   res.Source,
			"warnings": res.Warnings(),
		})
		s.logg.Warn(logCtx, "rate sheet resolution degraded")
		return res, nil
	}
	if key != "" && res.Found() {
		s.store(ctx, key, res)
	}
	return res, nil
}

func (s *service) fromCache(ctx context.Context, key string) (Resolution, bool) {
	raw, err := s.cache.Get(ctx, key)
	if err != nil {
		if !redis.IsMiss(err) {
			s.warnCache(ctx, "rate sheet cache read failed", err)
		}
		return Resolution{}, false
	}

	var entry cacheEntry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil || entry.RateSheetID == uuid.Nil {
		s.drop(ctx, key)
		return Resolution{}, false
	}

	sheet, err := s.repo.FindRateSheet(ctx, entry.RateSheetID)
	if err != nil {
		s.warnCache(ctx, "cached rate sheet reload failed", err)
		return Resolution{}, false
	}
	if sheet == nil || !sheet.IsActive {
		s.drop(ctx, key)
		return Resolution{}, false
	}
	id := sheet.ID
	return Resolution{RateSheetID: &id, RateSheet: sheet, Source: entry.Source}, true
}

func (s *service) store(ctx context.Context, key string, res Resolution) {
	payload, err := json.Marshal(cacheEntry{RateSheetID: *res.RateSheetID, Source: res.Source})
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, string(payload), s.ttl); err != nil {
		s.warnCache(ctx, "rate sheet cache write failed", err)
	}
}

func (s *service) drop(ctx context.Context, key string) {
	if err := s.cache.Del(ctx, key); err != nil {
		s.warnCache(ctx, "rate sheet cache delete failed", err)
	}
}

// cacheKey is read before the walk; a reassignment racing the walk lands under a
// version that is already behind and is never read again.
func (s *service) cacheKey(ctx context.Context, pc PricingContext) (string, error) {
	generation, err := s.cache.Get(ctx, s.cache.ResolutionGenerationKey())
	if err != nil {
		if !redis.IsMiss(err) {
			return "", err
		}
		generation = "0"
	}
	version, err := s.repo.AssignmentVersion(ctx)
	if err != nil {
		return "", fmt.Errorf("rate sheet assignment version: %w", err)
	}
	return s.cache.ResolutionKey(generation+"."+strconv.FormatInt(version, 10), pc.Scope()), nil
}

func (s *service) warnCache(ctx context.Context, msg string, err error) {
	s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), msg)
}

// Invalidate retires every cached resolution by moving to a new cache generation.
// Assignment changes do not need it; they move the assignment version.
func (s *service) Invalidate(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	if _, err := s.cache.Incr(ctx, s.cache.ResolutionGenerationKey()); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "invalidate rate sheet cache")
	}
	return nil
}

func (s *service) Item(ctx context.Context, rateSheetID, skuID uuid.UUID) (*models.RateSheetItem, error) {
	item, err := s.repo.FindItem(ctx, rateSheetID, skuID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load rate sheet item")
	}
	return item, nil
}

func (s *service) SetActive(ctx context.Context, input SetActiveInput) (*models.RateSheet, error) {
	if input.RateSheetID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rate sheet id is required")
	}

	var sheet *models.RateSheet
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		updated, err := s.repo.WithTx(tx).SetActive(ctx, input.RateSheetID, input.Active)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "rate sheet not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update rate sheet")
		}
		sheet = updated

		event := outbox.DomainEvent{
			EventType:     enums.EventRateSheetActiveChanged,
			AggregateType: enums.AggregateRateSheet,
			AggregateID:   updated.ID,
			Data: payloads.RateSheetActiveChangedEvent{
				RateSheetID: updated.ID,
				IsActive:    updated.IsActive,
				ChangedAt:   time.Now().UTC(),
			},
		}
		if input.ActorID != "" {
			event.Actor = &outbox.ActorRef{ActorID: input.ActorID}
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit rate sheet event")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.Invalidate(ctx); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "rate_sheet_id", input.RateSheetID.String()), "rate sheet cache invalidation failed")
	}
	return sheet, nil
}
