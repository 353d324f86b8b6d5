package quotes

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/fenceops-backend/pkg/db"
	"github.com/angelmondragon/fenceops-backend/pkg/db/models"
	"github.com/angelmondragon/fenceops-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/fenceops-backend/pkg/errors"
	"github.com/angelmondragon/fenceops-backend/pkg/logger"
	"github.com/angelmondragon/fenceops-backend/pkg/migrate"
	"github.com/angelmondragon/fenceops-backend/pkg/outbox"
	"github.com/angelmondragon/fenceops-backend/pkg/outbox/payloads"
)

type recordingOutbox struct {
	events []outbox.DomainEvent
}

func (r *recordingOutbox) Emit(_ context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	r.events = append(r.events, event)
	return nil
}

func (r *recordingOutbox) ofType(t enums.OutboxEventType) []outbox.DomainEvent {
	var out []outbox.DomainEvent
	for _, ev := range r.events {
		if ev.EventType == t {
			out = append(out, ev)
		}
	}
	return out
}

type txJobCreator struct{}

func (txJobCreator) CreateFromQuote(ctx context.Context, tx *gorm.DB, draft JobDraft) (*models.Job, error) {
	job := &models.Job{
		QuoteID:       draft.Quote.ID,
		Status:        enums.JobStatusWon,
		ContractTotal: draft.ContractTotal,
	}
	for _, item := range draft.LineItems {
		job.LineItems = append(job.LineItems, models.JobLineItem{
			QuoteLineItemID: item.ID,
			LineType:        item.LineType,
			Quantity:        item.Quantity,
			UnitPrice:       item.UnitPrice,
			UnitCost:        item.UnitCost,
		})
	}
	if err := tx.WithContext(ctx).Create(job).Error; err != nil {
		return nil, err
	}
	return job, nil
}

type quoteFixture struct {
	db     *gorm.DB
	svc    Service
	outbox *recordingOutbox
}

func newQuoteFixture(t *testing.T, policy ApprovalPolicy) *quoteFixture {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, conn.AutoMigrate(migrate.Models()...))

	box := &recordingOutbox{}
	svc, err := NewService(ServiceParams{
		Repository: NewRepository(conn),
		Tx:         db.NewFromGorm(conn),
		Outbox:     box,
		Jobs:       txJobCreator{},
		Policy:     policy,
		Logger:     logger.Nop(),
	})
	require.NoError(t, err)
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.(*service).now = func() time.Time { return fixed }
	return &quoteFixture{db: conn, svc: svc, outbox: box}
}

func (f *quoteFixture) status(t *testing.T, id uuid.UUID) enums.QuoteStatus {
	t.Helper()
	var q models.Quote
	require.NoError(t, f.db.First(&q, "id = ?", id).Error)
	return q.Status
}

func (f *quoteFixture) createWithLines(t *testing.T, group *uuid.UUID, prices ...string) *QuoteView {
	t.Helper()
	ctx := context.Background()
	view, err := f.svc.Create(ctx, CreateInput{Title: "Backyard", QuoteGroup: group, IsAlternative: group != nil, ActorID: "rep-1"})
	require.NoError(t, err)
	if len(prices) == 0 {
		return view
	}
	lines := make([]LineItemInput, 0, len(prices))
	for _, price := range prices {
		lines = append(lines, LineItemInput{
			LineType:         enums.LineTypeMaterial,
			Description:      "cedar privacy",
			Quantity:         dec("100"),
			UnitPrice:        dec(price),
			UnitCost:         dec("7"),
			MaterialUnitCost: decPtr("4"),
			LaborUnitCost:    decPtr("3"),
		})
	}
	view, err = f.svc.Save(ctx, SaveInput{QuoteID: view.Quote.ID, LineItems: lines, ActorID: "rep-1"})
	require.NoError(t, err)
	return view
}

func (f *quoteFixture) moveToAwaitingResponse(t *testing.T, id uuid.UUID) {
	t.Helper()
	ctx := context.Background()
	_, err := f.svc.Send(ctx, TransitionInput{QuoteID: id})
	require.NoError(t, err)
	_, err = f.svc.MarkAwaitingResponse(ctx, TransitionInput{QuoteID: id})
	require.NoError(t, err)
}

func TestServiceAcceptArchivesGroupSiblings(t *testing.T) {
	f := newQuoteFixture(t, ApprovalPolicy{})
	group := uuid.New()
	winner := f.createWithLines(t, &group, "10")
	second := f.createWithLines(t, &group, "11")
	third := f.createWithLines(t, &group, "12")
	f.moveToAwaitingResponse(t, winner.Quote.ID)
	f.outbox.events = nil

	view, err := f.svc.MarkAccepted(context.Background(), TransitionInput{QuoteID: winner.Quote.ID, ActorID: "rep-1"})
	require.NoError(t, err)
	assert.Equal(t, enums.QuoteStatusAccepted, view.Quote.Status)
	assert.NotNil(t, view.Quote.AcceptedAt)

	assert.Equal(t, enums.QuoteStatusArchived, f.status(t, second.Quote.ID))
	assert.Equal(t, enums.QuoteStatusArchived, f.status(t, third.Quote.ID))

	changes := f.outbox.ofType(enums.EventQuoteStatusChanged)
	require.Len(t, changes, 3)
	caused := 0
	for _, ev := range changes {
		data := ev.Data.(payloads.QuoteStatusChangedEvent)
		if data.CausedBy != nil {
			caused++
			assert.Equal(t, winner.Quote.ID, *data.CausedBy)
			assert.Equal(t, enums.QuoteStatusArchived, data.To)
		}
	}
	assert.Equal(t, 2, caused)
}

func TestServiceAcceptRefusedWhenGroupAlreadyWon(t *testing.T) {
	f := newQuoteFixture(t, ApprovalPolicy{})
	group := uuid.New()
	first := f.createWithLines(t, &group, "10")
	second := f.createWithLines(t, &group, "11")
	third := f.createWithLines(t, &group, "12")
	f.moveToAwaitingResponse(t, first.Quote.ID)
	f.moveToAwaitingResponse(t, second.Quote.ID)

	require.NoError(t, f.db.Model(&models.Quote{}).Where("id = ?", first.Quote.ID).Update("status", enums.QuoteStatusAccepted).Error)

	_, err := f.svc.MarkAccepted(context.Background(), TransitionInput{QuoteID: second.Quote.ID})
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeConflict), "got %v", err)

	assert.Equal(t, enums.QuoteStatusAwaitingResponse, f.status(t, second.Quote.ID))
	assert.Equal(t, enums.QuoteStatusDraft, f.status(t, third.Quote.ID))
}

func TestServiceConvertFromDraftIsIllegal(t *testing.T) {
	f := newQuoteFixture(t, ApprovalPolicy{})
	view := f.createWithLines(t, nil, "10")
	f.outbox.events = nil

	_, err := f.svc.ConvertToJob(context.Background(), ConvertInput{
		QuoteID:     view.Quote.ID,
		LineItemIDs: []uuid.UUID{view.Quote.LineItems[0].ID},
	})
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeIllegalTransition), "got %v", err)
	assert.Equal(t, enums.QuoteStatusDraft, f.status(t, view.Quote.ID))
	assert.Empty(t, f.outbox.events)

	var jobs int64
	require.NoError(t, f.db.Model(&models.Job{}).Count(&jobs).Error)
	assert.Zero(t, jobs)
}

func TestServicePartialConversion(t *testing.T) {
	f := newQuoteFixture(t, ApprovalPolicy{})
	view := f.createWithLines(t, nil, "10", "20")
	f.moveToAwaitingResponse(t, view.Quote.ID)
	_, err := f.svc.MarkAccepted(context.Background(), TransitionInput{QuoteID: view.Quote.ID})
	require.NoError(t, err)

	selected := view.Quote.LineItems[0].ID
	remaining := view.Quote.LineItems[1].ID
	result, err := f.svc.ConvertToJob(context.Background(), ConvertInput{QuoteID: view.Quote.ID, LineItemIDs: []uuid.UUID{selected}, ActorID: "ops-1"})
	require.NoError(t, err)
	require.NotNil(t, result.Job)
	assert.Equal(t, enums.QuoteStatusConverted, result.Quote.Quote.Status)
	assert.Equal(t, result.Job.ID, *result.Quote.Quote.ConvertedToJobID)
	assert.Equal(t, "1000.00", result.Job.ContractTotal.StringFixed(2))

	var items []models.QuoteLineItem
	require.NoError(t, f.db.Where("quote_id = ?", view.Quote.ID).Find(&items).Error)
	require.Len(t, items, 2)
	for _, item := range items {
		switch item.ID {
		case selected:
			require.NotNil(t, item.ConvertedToJobID)
			assert.Equal(t, result.Job.ID, *item.ConvertedToJobID)
		case remaining:
			assert.Nil(t, item.ConvertedToJobID)
		}
	}

	converted := f.outbox.ofType(enums.EventQuoteConverted)
	require.Len(t, converted, 1)
	assert.Equal(t, 1, converted[0].Data.(payloads.QuoteConvertedEvent).RemainingItems)

	_, err = f.svc.ConvertToJob(context.Background(), ConvertInput{QuoteID: view.Quote.ID, LineItemIDs: []uuid.UUID{remaining}})
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeIllegalTransition), "second conversion must be refused, got %v", err)
}

func TestServiceEditClearsManagerApproval(t *testing.T) {
	f := newQuoteFixture(t, ApprovalPolicy{MaxTotal: dec("500")})
	ctx := context.Background()
	view := f.createWithLines(t, nil, "10")
	require.True(t, view.Approval.Required)

	_, err := f.svc.Send(ctx, TransitionInput{QuoteID: view.Quote.ID})
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeIllegalTransition), "send must need approval, got %v", err)

	_, err = f.svc.RequestApproval(ctx, TransitionInput{QuoteID: view.Quote.ID})
	require.NoError(t, err)
	approved, err := f.svc.Approve(ctx, TransitionInput{QuoteID: view.Quote.ID, ActorID: "manager-1"})
	require.NoError(t, err)
	require.NotNil(t, approved.Quote.ManagerApprovedAt)
	assert.False(t, approved.Approval.Required)

	f.moveToAwaitingResponse(t, view.Quote.ID)
	_, err = f.svc.RequestChanges(ctx, TransitionInput{QuoteID: view.Quote.ID})
	require.NoError(t, err)
	reopened, err := f.svc.Reopen(ctx, TransitionInput{QuoteID: view.Quote.ID})
	require.NoError(t, err)
	require.NotNil(t, reopened.Quote.ManagerApprovedAt, "reopening alone keeps the approval")

	same := []LineItemInput{{
		ID:               &reopened.Quote.LineItems[0].ID,
		LineType:         enums.LineTypeMaterial,
		Quantity:         dec("100"),
		UnitPrice:        dec("10.00"),
		UnitCost:         dec("7"),
		MaterialUnitCost: decPtr("4"),
		LaborUnitCost:    decPtr("3"),
	}}
	unchanged, err := f.svc.Save(ctx, SaveInput{QuoteID: view.Quote.ID, LineItems: same})
	require.NoError(t, err)
	require.NotNil(t, unchanged.Quote.ManagerApprovedAt, "saving identical pricing keeps the approval")

	same[0].UnitPrice = dec("11")
	edited, err := f.svc.Save(ctx, SaveInput{QuoteID: view.Quote.ID, LineItems: same})
	require.NoError(t, err)
	assert.Nil(t, edited.Quote.ManagerApprovedAt)
	assert.True(t, edited.Approval.Required)
	require.Len(t, f.outbox.ofType(enums.EventQuoteApprovalCleared), 1)

	var stored models.Quote
	require.NoError(t, f.db.First(&stored, "id = ?", view.Quote.ID).Error)
	assert.Nil(t, stored.ManagerApprovedAt)
	assert.Equal(t, "1100.00", stored.Total.StringFixed(2))
}

func TestServiceMarkLostRequiresReason(t *testing.T) {
	f := newQuoteFixture(t, ApprovalPolicy{})
	ctx := context.Background()
	view := f.createWithLines(t, nil, "10")

	_, err := f.svc.MarkLost(ctx, LostInput{QuoteID: view.Quote.ID})
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeIllegalTransition), "got %v", err)

	notes := "  went with chain link  "
	lost, err := f.svc.MarkLost(ctx, LostInput{QuoteID: view.Quote.ID, Reason: enums.LostReasonCompetitor, Notes: &notes})
	require.NoError(t, err)
	assert.Equal(t, enums.QuoteStatusLost, lost.Quote.Status)
	require.NotNil(t, lost.Quote.LostNotes)
	assert.Equal(t, "went with chain link", *lost.Quote.LostNotes)

	_, err = f.svc.Archive(ctx, TransitionInput{QuoteID: view.Quote.ID})
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeIllegalTransition), "lost quotes cannot be archived, got %v", err)
}

func TestServiceSaveRejectsNonEditableQuote(t *testing.T) {
	f := newQuoteFixture(t, ApprovalPolicy{})
	view := f.createWithLines(t, nil, "10")
	_, err := f.svc.Send(context.Background(), TransitionInput{QuoteID: view.Quote.ID})
	require.NoError(t, err)

	_, err = f.svc.Save(context.Background(), SaveInput{QuoteID: view.Quote.ID})
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeConflict), "got %v", err)
}

func TestServiceCanceledSaveLeavesNoPartialState(t *testing.T) {
	f := newQuoteFixture(t, ApprovalPolicy{})
	view := f.createWithLines(t, nil, "10")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := f.svc.Save(ctx, SaveInput{QuoteID: view.Quote.ID, LineItems: []LineItemInput{{
		LineType:  enums.LineTypeService,
		Quantity:  dec("1"),
		UnitPrice: dec("999"),
	}}})
	require.ErrorIs(t, err, context.Canceled)

	got, err := f.svc.Get(context.Background(), view.Quote.ID)
	require.NoError(t, err)
	assert.Equal(t, "1000.00", got.Totals.Total.StringFixed(2))
	require.Len(t, got.Quote.LineItems, 1)
}

func TestServiceGetNotFound(t *testing.T) {
	f := newQuoteFixture(t, ApprovalPolicy{})
	_, err := f.svc.Get(context.Background(), uuid.New())
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound), "got %v", err)
}

func TestServiceCreateValidatesInput(t *testing.T) {
	f := newQuoteFixture(t, ApprovalPolicy{})
	_, err := f.svc.Create(context.Background(), CreateInput{IsAlternative: true})
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))

	_, err = f.svc.Create(context.Background(), CreateInput{Rates: Rates{DiscountPercent: dec("120")}})
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}
