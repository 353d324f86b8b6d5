package quotes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/fenceops-backend/pkg/db/models"
	"github.com/angelmondragon/fenceops-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/fenceops-backend/pkg/errors"
	"github.com/angelmondragon/fenceops-backend/pkg/logger"
	"github.com/angelmondragon/fenceops-backend/pkg/metrics"
	"github.com/angelmondragon/fenceops-backend/pkg/outbox"
	"github.com/angelmondragon/fenceops-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service owns quote editing and every lifecycle transition.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*QuoteView, error)
	Get(ctx context.Context, id uuid.UUID) (*QuoteView, error)
	Save(ctx context.Context, input SaveInput) (*QuoteView, error)
	Preview(lines []Line, rates Rates, subject ApprovalSubject) (Totals, ApprovalDecision)

	RequestApproval(ctx context.Context, input TransitionInput) (*QuoteView, error)
	Approve(ctx context.Context, input TransitionInput) (*QuoteView, error)
	Reject(ctx context.Context, input TransitionInput) (*QuoteView, error)
	Send(ctx context.Context, input TransitionInput) (*QuoteView, error)
	MarkAwaitingResponse(ctx context.Context, input TransitionInput) (*QuoteView, error)
	RequestChanges(ctx context.Context, input TransitionInput) (*QuoteView, error)
	Reopen(ctx context.Context, input TransitionInput) (*QuoteView, error)
	MarkAccepted(ctx context.Context, input TransitionInput) (*QuoteView, error)
	MarkLost(ctx context.Context, input LostInput) (*QuoteView, error)
	ConvertToJob(ctx context.Context, input ConvertInput) (*ConversionResult, error)
	Archive(ctx context.Context, input TransitionInput) (*QuoteView, error)
}

// QuoteView is a quote with its live totals and approval state.
type QuoteView struct {
	Quote    *models.Quote    `json:"quote"`
	Totals   Totals           `json:"totals"`
	Approval ApprovalDecision `json:"approval"`
	Allowed  []Event          `json:"allowedEvents"`
	// PricedAtCost is set when any line fell back to cost because no rate sheet applied.
	PricedAtCost bool `json:"pricedAtCost"`
}

// ConversionResult is the converted quote and the job created from it.
type ConversionResult struct {
	Quote *QuoteView  `json:"quote"`
	Job   *models.Job `json:"job"`
}

type CreateInput struct {
	Title               string
	CommunityID         *uuid.UUID
	ClientID            *uuid.UUID
	BusinessUnitClassID *uuid.UUID
	QBOClassID          *string
	QuoteGroup          *uuid.UUID
	IsAlternative       bool
	Rates               Rates
	ActorID             string
}

type LineItemInput struct {
	ID               *uuid.UUID
	LineType         enums.LineType
	Description      string
	SKUID            *uuid.UUID
	Quantity         decimal.Decimal
	UnitPrice        decimal.Decimal
	UnitCost         decimal.Decimal
	MaterialUnitCost *decimal.Decimal
	LaborUnitCost    *decimal.Decimal
	PricingSource    *enums.PricingSource
	PricingMethod    *enums.PricingMethod
	RateSheetID      *uuid.UUID
}

// SaveInput replaces the full editable state of a quote.
type SaveInput struct {
	QuoteID   uuid.UUID
	Title     *string
	Rates     Rates
	LineItems []LineItemInput
	ActorID   string
}

type TransitionInput struct {
	QuoteID uuid.UUID
	ActorID string
}

type LostInput struct {
	QuoteID uuid.UUID
	Reason  enums.LostReason
	Notes   *string
	ActorID string
}

type ConvertInput struct {
	QuoteID     uuid.UUID
	LineItemIDs []uuid.UUID
	ActorID     string
}

// ServiceParams wires the quote service.
type ServiceParams struct {
	Repository Repository
	Tx         txRunner
	Outbox     outboxPublisher
	Jobs       JobCreator
	Policy     ApprovalPolicy
	Logger     *logger.Logger
	Metrics    *metrics.QuoteMetrics
}

type service struct {
	repo    Repository
	tx      txRunner
	outbox  outboxPublisher
	jobs    JobCreator
	policy  ApprovalPolicy
	logg    *logger.Logger
	metrics *metrics.QuoteMetrics
	now     func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repository == nil {
		return nil, fmt.Errorf("quotes repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if params.Jobs == nil {
		return nil, fmt.Errorf("job creator required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:    params.Repository,
		tx:      params.Tx,
		outbox:  params.Outbox,
		jobs:    params.Jobs,
		policy:  params.Policy,
		logg:    params.Logger,
		metrics: params.Metrics,
		now:     time.Now,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*QuoteView, error) {
	if input.IsAlternative && input.QuoteGroup == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "alternative quotes need a quote group")
	}
	if err := validateRates(input.Rates); err != nil {
		return nil, err
	}

	quote := &models.Quote{
		Status:              enums.QuoteStatusDraft,
		Title:               strings.TrimSpace(input.Title),
		CommunityID:         input.CommunityID,
		ClientID:            input.ClientID,
		BusinessUnitClassID: input.BusinessUnitClassID,
		QBOClassID:          input.QBOClassID,
		QuoteGroup:          input.QuoteGroup,
		IsAlternative:       input.IsAlternative,
		DiscountPercent:     input.Rates.DiscountPercent,
		TaxRatePercent:      input.Rates.TaxRatePercent,
		DepositPercent:      input.Rates.DepositPercent,
		CreatedBy:           optionalString(input.ActorID),
	}
	quote.PricingFingerprint = PricingFingerprint(nil, input.Rates)
	applySnapshot(quote, TotalsFor(quote))

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).CreateQuote(ctx, quote); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create quote")
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventQuoteCreated,
			AggregateType: enums.AggregateQuote,
			AggregateID:   quote.ID,
			Actor:         actorRef(input.ActorID),
			Data: payloads.QuoteCreatedEvent{
				QuoteID:       quote.ID,
				QuoteGroup:    quote.QuoteGroup,
				IsAlternative: quote.IsAlternative,
				CommunityID:   quote.CommunityID,
				ClientID:      quote.ClientID,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	s.logg.Info(s.logg.WithQuoteID(ctx, quote.ID.String()), "quote created")
	return s.view(quote), nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*QuoteView, error) {
	quote, err := s.repo.FindQuote(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "load quote")
	}
	return s.view(quote), nil
}

func (s *service) Preview(lines []Line, rates Rates, subject ApprovalSubject) (Totals, ApprovalDecision) {
	totals := ComputeTotals(lines, rates)
	return totals, s.policy.NeedsApproval(totals, subject)
}

// Save persists the whole editable form in one transaction. A changed pricing
// fingerprint voids any manager approval.
func (s *service) Save(ctx context.Context, input SaveInput) (*QuoteView, error) {
	if err := validateRates(input.Rates); err != nil {
		return nil, err
	}
	items, err := buildLineItems(input.LineItems)
	if err != nil {
		return nil, err
	}

	var (
		saved   *models.Quote
		cleared bool
	)
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		quote, err := repo.FindQuoteForUpdate(ctx, input.QuoteID)
		if err != nil {
			return notFoundOr(err, "load quote")
		}
		if !quote.Status.IsEditable() {
			return pkgerrors.Newf(pkgerrors.CodeConflict, "quote cannot be edited while %s", quote.Status).
				WithDetails(map[string]any{"status": quote.Status.String()})
		}
		previousTotal := quote.Total

		active, err := repo.ReplaceLineItems(ctx, quote.ID, items)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save line items")
		}
		quote.LineItems = active
		if input.Title != nil {
			quote.Title = strings.TrimSpace(*input.Title)
		}
		quote.DiscountPercent = input.Rates.DiscountPercent
		quote.TaxRatePercent = input.Rates.TaxRatePercent
		quote.DepositPercent = input.Rates.DepositPercent

		totals := TotalsFor(quote)
		applySnapshot(quote, totals)

		fingerprint := PricingFingerprint(quote.LineItems, input.Rates)
		if fingerprint != quote.PricingFingerprint && quote.ManagerApprovedAt != nil {
			previous := *quote.ManagerApprovedAt
			clearApproval(quote)
			cleared = true
			if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventQuoteApprovalCleared,
				AggregateType: enums.AggregateQuote,
				AggregateID:   quote.ID,
				Actor:         actorRef(input.ActorID),
				Data: payloads.QuoteApprovalClearedEvent{
					QuoteID:          quote.ID,
					PreviousApproval: previous,
					PreviousTotal:    previousTotal.StringFixed(moneyScale),
					CurrentTotal:     totals.Total.StringFixed(moneyScale),
					ClearedAt:        s.now().UTC(),
				},
			}); err != nil {
				return err
			}
		}
		quote.PricingFingerprint = fingerprint

		if err := repo.UpdateQuote(ctx, quote); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save quote")
		}
		saved = quote
		return nil
	})
	if err != nil {
		return nil, err
	}
	if cleared {
		s.metrics.IncApprovalChange("cleared")
		s.logg.Info(s.logg.WithQuoteID(ctx, saved.ID.String()), "pricing changed; manager approval cleared")
	}
	return s.view(saved), nil
}

func (s *service) RequestApproval(ctx context.Context, input TransitionInput) (*QuoteView, error) {
	return s.transition(ctx, input.QuoteID, input.ActorID, Command{Event: EventRequestApproval})
}

func (s *service) Approve(ctx context.Context, input TransitionInput) (*QuoteView, error) {
	view, err := s.transition(ctx, input.QuoteID, input.ActorID, Command{Event: EventApprove})
	if err == nil {
		s.metrics.IncApprovalChange("approved")
	}
	return view, err
}

func (s *service) Reject(ctx context.Context, input TransitionInput) (*QuoteView, error) {
	view, err := s.transition(ctx, input.QuoteID, input.ActorID, Command{Event: EventReject})
	if err == nil {
		s.metrics.IncApprovalChange("rejected")
	}
	return view, err
}

func (s *service) Send(ctx context.Context, input TransitionInput) (*QuoteView, error) {
	return s.transition(ctx, input.QuoteID, input.ActorID, Command{Event: EventSend})
}

func (s *service) MarkAwaitingResponse(ctx context.Context, input TransitionInput) (*QuoteView, error) {
	return s.transition(ctx, input.QuoteID, input.ActorID, Command{Event: EventMarkAwaitingResponse})
}

func (s *service) RequestChanges(ctx context.Context, input TransitionInput) (*QuoteView, error) {
	return s.transition(ctx, input.QuoteID, input.ActorID, Command{Event: EventRequestChanges})
}

func (s *service) Reopen(ctx context.Context, input TransitionInput) (*QuoteView, error) {
	return s.transition(ctx, input.QuoteID, input.ActorID, Command{Event: EventReopen})
}

func (s *service) MarkAccepted(ctx context.Context, input TransitionInput) (*QuoteView, error) {
	return s.transition(ctx, input.QuoteID, input.ActorID, Command{Event: EventAccept})
}

func (s *service) MarkLost(ctx context.Context, input LostInput) (*QuoteView, error) {
	return s.transitionWith(ctx, input.QuoteID, input.ActorID, Command{Event: EventLose, LostReason: input.Reason}, func(q *models.Quote, _ time.Time) {
		reason := input.Reason
		q.LostReason = &reason
		if input.Notes != nil {
			notes := strings.TrimSpace(*input.Notes)
			if notes != "" {
				q.LostNotes = &notes
			}
		}
	})
}

func (s *service) Archive(ctx context.Context, input TransitionInput) (*QuoteView, error) {
	return s.transition(ctx, input.QuoteID, input.ActorID, Command{Event: EventArchive})
}

func (s *service) transition(ctx context.Context, quoteID uuid.UUID, actorID string, cmd Command) (*QuoteView, error) {
	return s.transitionWith(ctx, quoteID, actorID, cmd, nil)
}

// transitionWith runs one lifecycle move in a transaction: lock, decide, stamp, persist, emit.
// Accepting a grouped quote archives its open siblings before the transaction commits.
func (s *service) transitionWith(ctx context.Context, quoteID uuid.UUID, actorID string, cmd Command, extra func(*models.Quote, time.Time)) (*QuoteView, error) {
	if quoteID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quote id is required")
	}
	ctx = s.logg.WithFields(ctx, map[string]any{"quote_id": quoteID.String(), "event": cmd.Event.String()})

	var (
		updated  *models.Quote
		from     enums.QuoteStatus
		archived int
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		quote, err := repo.FindQuoteForUpdate(ctx, quoteID)
		if err != nil {
			return notFoundOr(err, "load quote")
		}
		from = quote.Status

		totals := TotalsFor(quote)
		approval := s.policy.NeedsApproval(totals, SubjectOf(quote))
		to, err := NewMachine(stateOf(quote, approval)).Transition(cmd)
		if err != nil {
			if pkgerrors.HasCode(err, pkgerrors.CodeIllegalTransition) {
				s.metrics.IncIllegal(cmd.Event.String(), from.String())
			}
			return err
		}

		now := s.now().UTC()
		stamp(quote, cmd.Event, now, actorID)
		if extra != nil {
			extra(quote, now)
		}
		quote.Status = to
		applySnapshot(quote, totals)
		if err := repo.UpdateQuote(ctx, quote); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update quote status")
		}
		if err := s.emitStatusChanged(ctx, tx, quote, cmd.Event, from, nil, actorID, now); err != nil {
			return err
		}

		if to == enums.QuoteStatusAccepted && quote.QuoteGroup != nil {
			n, err := s.archiveSiblings(ctx, tx, repo, quote, actorID, now)
			if err != nil {
				return err
			}
			archived = n
		}
		updated = quote
		return nil
	})
	if err != nil {
		if !pkgerrors.HasCode(err, pkgerrors.CodeIllegalTransition) && !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
			s.logg.Error(ctx, "quote transition failed", err)
		}
		return nil, err
	}

	s.metrics.IncTransition(cmd.Event.String(), updated.Status.String())
	if archived > 0 {
		s.metrics.AddSiblingsArchived(archived)
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{"from": from.String(), "to": updated.Status.String()}), "quote transitioned")
	return s.view(updated), nil
}

// archiveSiblings closes every open alternative in the group. An accepted or converted
// sibling means the group already has a winner, so the whole transition is refused.
func (s *service) archiveSiblings(ctx context.Context, tx *gorm.DB, repo Repository, accepted *models.Quote, actorID string, now time.Time) (int, error) {
	siblings, err := repo.FindGroupSiblings(ctx, *accepted.QuoteGroup, accepted.ID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load quote group")
	}

	toArchive := make([]models.Quote, 0, len(siblings))
	for _, sibling := range siblings {
		switch sibling.Status {
		case enums.QuoteStatusAccepted, enums.QuoteStatusConverted:
			return 0, pkgerrors.New(pkgerrors.CodeConflict, "another quote in this group was already accepted").
				WithDetails(map[string]any{"quote_id": sibling.ID.String(), "status": sibling.Status.String()})
		case enums.QuoteStatusLost, enums.QuoteStatusArchived:
			continue
		default:
			toArchive = append(toArchive, sibling)
		}
	}
	if len(toArchive) == 0 {
		return 0, nil
	}

	ids := make([]uuid.UUID, 0, len(toArchive))
	for _, sibling := range toArchive {
		ids = append(ids, sibling.ID)
	}
	affected, err := repo.ArchiveQuotes(ctx, ids, now)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "archive quote group")
	}
	if affected != int64(len(ids)) {
		return 0, pkgerrors.Newf(pkgerrors.CodeConflict, "archived %d of %d sibling quotes", affected, len(ids))
	}

	cause := accepted.ID
	for i := range toArchive {
		sibling := toArchive[i]
		from := sibling.Status
		sibling.Status = enums.QuoteStatusArchived
		if err := s.emitStatusChanged(ctx, tx, &sibling, EventArchive, from, &cause, actorID, now); err != nil {
			return 0, err
		}
	}
	return len(ids), nil
}

// ConvertToJob creates a job from the selected committed lines and marks them converted,
// all or nothing. Unselected lines stay on the quote.
func (s *service) ConvertToJob(ctx context.Context, input ConvertInput) (*ConversionResult, error) {
	if input.QuoteID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quote id is required")
	}
	ctx = s.logg.WithFields(ctx, map[string]any{"quote_id": input.QuoteID.String(), "event": EventConvert.String()})

	var (
		updated *models.Quote
		job     *models.Job
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		quote, err := repo.FindQuoteForUpdate(ctx, input.QuoteID)
		if err != nil {
			return notFoundOr(err, "load quote")
		}
		from := quote.Status

		totals := TotalsFor(quote)
		cmd := Command{Event: EventConvert, SelectedLineItemIDs: input.LineItemIDs}
		to, err := NewMachine(stateOf(quote, s.policy.NeedsApproval(totals, SubjectOf(quote)))).Transition(cmd)
		if err != nil {
			if pkgerrors.HasCode(err, pkgerrors.CodeIllegalTransition) {
				s.metrics.IncIllegal(cmd.Event.String(), from.String())
			}
			return err
		}

		selected := selectLines(quote.LineItems, input.LineItemIDs)
		contract := ComputeTotals(LinesFromModels(selected), RatesOf(quote)).Total

		job, err = s.jobs.CreateFromQuote(ctx, tx, JobDraft{
			Quote:         quote,
			LineItems:     selected,
			ContractTotal: contract,
			CreatedBy:     input.ActorID,
		})
		if err != nil {
			return err
		}

		affected, err := repo.MarkLineItemsConverted(ctx, quote.ID, input.LineItemIDs, job.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark line items converted")
		}
		if affected != int64(len(input.LineItemIDs)) {
			return pkgerrors.New(pkgerrors.CodeConflict, "line items changed during conversion")
		}

		now := s.now().UTC()
		jobID := job.ID
		quote.Status = to
		quote.ConvertedToJobID = &jobID
		quote.ConvertedAt = &now
		converted := indexOf(input.LineItemIDs)
		for i := range quote.LineItems {
			if _, ok := converted[quote.LineItems[i].ID]; ok {
				quote.LineItems[i].ConvertedToJobID = &jobID
			}
		}
		applySnapshot(quote, totals)
		if err := repo.UpdateQuote(ctx, quote); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update quote status")
		}
		if err := s.emitStatusChanged(ctx, tx, quote, EventConvert, from, nil, input.ActorID, now); err != nil {
			return err
		}
		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventQuoteConverted,
			AggregateType: enums.AggregateQuote,
			AggregateID:   quote.ID,
			Actor:         actorRef(input.ActorID),
			OccurredAt:    now,
			Data: payloads.QuoteConvertedEvent{
				QuoteID:        quote.ID,
				JobID:          job.ID,
				LineItemIDs:    input.LineItemIDs,
				ContractTotal:  contract.StringFixed(moneyScale),
				RemainingItems: len(LinesFromModels(quote.LineItems)) - len(selected),
				ConvertedAt:    now,
			},
		}); err != nil {
			return err
		}
		updated = quote
		return nil
	})
	if err != nil {
		if !pkgerrors.HasCode(err, pkgerrors.CodeIllegalTransition) && !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
			s.logg.Error(ctx, "quote conversion failed", err)
		}
		return nil, err
	}

	s.metrics.IncTransition(EventConvert.String(), updated.Status.String())
	s.logg.Info(s.logg.WithField(ctx, "job_id", job.ID.String()), "quote converted to job")
	return &ConversionResult{Quote: s.view(updated), Job: job}, nil
}

func (s *service) emitStatusChanged(ctx context.Context, tx *gorm.DB, quote *models.Quote, ev Event, from enums.QuoteStatus, causedBy *uuid.UUID, actorID string, at time.Time) error {
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventQuoteStatusChanged,
		AggregateType: enums.AggregateQuote,
		AggregateID:   quote.ID,
		Actor:         actorRef(actorID),
		OccurredAt:    at,
		Data: payloads.QuoteStatusChangedEvent{
			QuoteID:    quote.ID,
			QuoteGroup: quote.QuoteGroup,
			Event:      ev.String(),
			From:       from,
			To:         quote.Status,
			Total:      quote.Total.StringFixed(moneyScale),
			LostReason: quote.LostReason,
			CausedBy:   causedBy,
			ChangedAt:  at,
		},
	})
}

func (s *service) view(quote *models.Quote) *QuoteView {
	totals := TotalsFor(quote)
	approval := s.policy.NeedsApproval(totals, SubjectOf(quote))
	atCost := false
	for _, item := range quote.LineItems {
		if item.PricingMethod != nil && *item.PricingMethod == enums.PricingMethodCostOnly {
			atCost = true
			break
		}
	}
	return &QuoteView{
		Quote:        quote,
		Totals:       totals,
		Approval:     approval,
		Allowed:      NewMachine(stateOf(quote, approval)).Allowed(),
		PricedAtCost: atCost,
	}
}

func stateOf(quote *models.Quote, approval ApprovalDecision) State {
	convertible := make(map[uuid.UUID]struct{}, len(quote.LineItems))
	for _, item := range quote.LineItems {
		if item.DeletedAt.Valid || item.ConvertedToJobID != nil {
			continue
		}
		convertible[item.ID] = struct{}{}
	}
	return State{
		Status:           quote.Status,
		Approval:         approval,
		ConvertedToJobID: quote.ConvertedToJobID,
		Convertible:      convertible,
	}
}

// stamp records the lifecycle timestamps each event owns.
func stamp(quote *models.Quote, ev Event, now time.Time, actorID string) {
	switch ev {
	case EventRequestApproval:
		quote.ApprovalRequestedAt = &now
	case EventApprove:
		quote.ManagerApprovedAt = &now
		quote.ManagerApprovedBy = optionalString(actorID)
	case EventReject:
		clearApproval(quote)
	case EventSend:
		quote.SentAt = &now
	case EventAccept:
		quote.AcceptedAt = &now
	case EventLose:
		quote.LostAt = &now
	case EventArchive:
		quote.ArchivedAt = &now
	}
}

func clearApproval(quote *models.Quote) {
	quote.ManagerApprovedAt = nil
	quote.ManagerApprovedBy = nil
	quote.ApprovalRequestedAt = nil
}

func selectLines(items []models.QuoteLineItem, ids []uuid.UUID) []models.QuoteLineItem {
	wanted := indexOf(ids)
	out := make([]models.QuoteLineItem, 0, len(ids))
	for _, item := range items {
		if _, ok := wanted[item.ID]; ok {
			out = append(out, item)
		}
	}
	return out
}

func indexOf(ids []uuid.UUID) map[uuid.UUID]struct{} {
	out := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		out[id] = struct{}{}
	}
	return out
}

func buildLineItems(inputs []LineItemInput) ([]models.QuoteLineItem, error) {
	items := make([]models.QuoteLineItem, 0, len(inputs))
	for i, in := range inputs {
		if !in.LineType.IsValid() {
			return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "line %d: invalid line type %q", i+1, in.LineType)
		}
		if in.Quantity.IsNegative() {
			return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "line %d: quantity must not be negative", i+1)
		}
		if in.PricingSource != nil && !in.PricingSource.IsValid() {
			return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "line %d: invalid pricing source %q", i+1, *in.PricingSource)
		}
		if in.PricingMethod != nil && !in.PricingMethod.IsValid() {
			return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "line %d: invalid pricing method %q", i+1, *in.PricingMethod)
		}
		item := models.QuoteLineItem{
			LineType:         in.LineType,
			Description:      strings.TrimSpace(in.Description),
			SKUID:            in.SKUID,
			Quantity:         in.Quantity,
			UnitPrice:        in.UnitPrice,
			UnitCost:         in.UnitCost,
			MaterialUnitCost: in.MaterialUnitCost,
			LaborUnitCost:    in.LaborUnitCost,
			PricingSource:    in.PricingSource,
			PricingMethod:    in.PricingMethod,
			RateSheetID:      in.RateSheetID,
			SortOrder:        i,
		}
		if in.ID != nil {
			item.ID = *in.ID
		}
		items = append(items, item)
	}
	return items, nil
}

func validateRates(r Rates) error {
	if r.DiscountPercent.IsNegative() || r.DiscountPercent.GreaterThan(hundred) {
		return pkgerrors.New(pkgerrors.CodeValidation, "discount percent must be between 0 and 100")
	}
	if r.TaxRatePercent.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "tax rate percent must not be negative")
	}
	if r.DepositPercent.IsNegative() || r.DepositPercent.GreaterThan(hundred) {
		return pkgerrors.New(pkgerrors.CodeValidation, "deposit percent must be between 0 and 100")
	}
	return nil
}

func notFoundOr(err error, action string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "quote not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, action)
}

func optionalString(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}

func actorRef(actorID string) *outbox.ActorRef {
	if strings.TrimSpace(actorID) == "" {
		return nil
	}
	return &outbox.ActorRef{ActorID: actorID}
}
