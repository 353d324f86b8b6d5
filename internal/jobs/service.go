package jobs

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/fenceops-backend/internal/quotes"
	"github.com/angelmondragon/fenceops-backend/pkg/db"
	"github.com/angelmondragon/fenceops-backend/pkg/db/models"
	"github.com/angelmondragon/fenceops-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/fenceops-backend/pkg/errors"
	"github.com/angelmondragon/fenceops-backend/pkg/logger"
)

// Service creates jobs for converted quotes and reads them back.
type Service interface {
	CreateFromQuote(ctx context.Context, tx *gorm.DB, draft quotes.JobDraft) (*models.Job, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Job, error)
}

type service struct {
	repo Repository
	logg *logger.Logger
}

func NewService(repo Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("jobs repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, logg: logg}, nil
}

// CreateFromQuote snapshots the selected lines into a new job. A quote yields at most one job.
func (s *service) CreateFromQuote(ctx context.Context, tx *gorm.DB, draft quotes.JobDraft) (*models.Job, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction required for job creation")
	}
	if draft.Quote == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quote required")
	}
	if len(draft.LineItems) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "job needs at least one line item")
	}

	job := &models.Job{
		QuoteID:             draft.Quote.ID,
		CommunityID:         draft.Quote.CommunityID,
		ClientID:            draft.Quote.ClientID,
		BusinessUnitClassID: draft.Quote.BusinessUnitClassID,
		Status:              enums.JobStatusWon,
		ContractTotal:       draft.ContractTotal,
	}
	if draft.CreatedBy != "" {
		createdBy := draft.CreatedBy
		job.CreatedBy = &createdBy
	}
	job.LineItems = make([]models.JobLineItem, 0, len(draft.LineItems))
	for i, item := range draft.LineItems {
		job.LineItems = append(job.LineItems, models.JobLineItem{
			QuoteLineItemID: item.ID,
			LineType:        item.LineType,
			Description:     item.Description,
			SKUID:           item.SKUID,
			Quantity:        item.Quantity,
			UnitPrice:       item.UnitPrice,
			UnitCost:        item.UnitCost,
			SortOrder:       i,
		})
	}

	if err := s.repo.WithTx(tx).Create(ctx, job); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "quote already has a job")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create job")
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"job_id":     job.ID.String(),
		"line_items": len(job.LineItems),
	})
	s.logg.Info(logCtx, "job created from quote")
	return job, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	job, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "job not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load job")
	}
	return job, nil
}
