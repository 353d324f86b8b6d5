package ratesheets

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/fenceops-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/fenceops-backend/pkg/errors"
	"github.com/angelmondragon/fenceops-backend/pkg/logger"
	"github.com/angelmondragon/fenceops-backend/pkg/outbox"
	"github.com/angelmondragon/fenceops-backend/pkg/redis"
)

type fakeCache struct {
	values map[string]string
	gen    int64
	sets   int
	dels   int
	getErr error
}

func newFakeCache() *fakeCache {
	return &fakeCache{values: map[string]string{}}
}

func (f *fakeCache) Get(_ context.Context, key string) (string, error) {
	if f.getErr != nil {
		return "", f.getErr
	}
	if key == f.ResolutionGenerationKey() {
		if f.gen == 0 {
			return "", redis.ErrMiss
		}
		return strconv.FormatInt(f.gen, 10), nil
	}
	v, ok := f.values[key]
	if !ok {
		return "", redis.ErrMiss
	}
	return v, nil
}

func (f *fakeCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	f.sets++
	f.values[key] = value.(string)
	return nil
}

func (f *fakeCache) Incr(context.Context, string) (int64, error) {
	f.gen++
	return f.gen, nil
}

func (f *fakeCache) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		f.dels++
		delete(f.values, key)
	}
	return nil
}

func (f *fakeCache) ResolutionKey(generation, scope string) string {
	return "fenceops:ratesheet:resolution:" + generation + ":" + scope
}

func (f *fakeCache) ResolutionGenerationKey() string {
	return "fenceops:ratesheet:resolution:generation"
}

type fakeTx struct{}

func (fakeTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(nil)
}

type recordingOutbox struct {
	events []outbox.DomainEvent
	err    error
}

func (r *recordingOutbox) Emit(_ context.Context, _ *gorm.DB, event outbox.DomainEvent) error {
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, event)
	return nil
}

func newTestService(t *testing.T, repo Repository, cache redis.ResolutionStore, box *recordingOutbox) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Repository: repo,
		Tx:         fakeTx{},
		Outbox:     box,
		Cache:      cache,
		Logger:     logger.Nop(),
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestServiceCachesWhichSheetWon(t *testing.T) {
	repo := newStubRepo()
	client := uuid.New()
	sheet := repo.addSheet("client", true)
	repo.clientSheet[client] = sheet.ID
	cache := newFakeCache()
	svc := newTestService(t, repo, cache, &recordingOutbox{})
	pc := PricingContext{ClientID: ptr(client)}

	first, err := svc.Resolve(context.Background(), pc)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cache.sets != 1 {
		t.Fatalf("expected resolution to be cached, sets=%d", cache.sets)
	}
	for _, v := range cache.values {
		if strings.Contains(v, "price") {
			t.Fatalf("cache entry must not carry prices: %s", v)
		}
	}

	second, err := svc.Resolve(context.Background(), pc)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if second.RateSheet.ID != first.RateSheet.ID || second.Source != enums.PricingSourceClient {
		t.Fatalf("expected cached client sheet, got %+v", second)
	}
	if repo.findCalls != 1 {
		t.Fatalf("expected sheet reload on hit, findCalls=%d", repo.findCalls)
	}
}

func TestServiceReassignmentBeatsCachedWinner(t *testing.T) {
	repo := newStubRepo()
	community, owner := uuid.New(), uuid.New()
	clientSheet := repo.addSheet("client", true)
	repo.communityOwner[community] = owner
	repo.clientSheet[owner] = clientSheet.ID
	cache := newFakeCache()
	svc := newTestService(t, repo, cache, &recordingOutbox{})
	pc := PricingContext{CommunityID: ptr(community)}

	res, err := svc.Resolve(context.Background(), pc)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if res.Source != enums.PricingSourceClient {
		t.Fatalf("expected owning client sheet, got %s", res.Source)
	}

	communitySheet := repo.addSheet("community", true)
	repo.communitySheet[community] = communitySheet.ID
	repo.reassigned()

	res, err = svc.Resolve(context.Background(), pc)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if res.Source != enums.PricingSourceCommunity || res.RateSheet.ID != communitySheet.ID {
		t.Fatalf("expected freshly assigned community sheet, got %s/%s", res.Source, res.RateSheet.Name)
	}
	if repo.findCalls != 0 {
		t.Fatalf("entry from the old assignment version must not be read, findCalls=%d", repo.findCalls)
	}
}

func TestServiceUnassignedSheetIsNotServedFromCache(t *testing.T) {
	repo := newStubRepo()
	client := uuid.New()
	repo.clientSheet[client] = repo.addSheet("client", true).ID
	cache := newFakeCache()
	svc := newTestService(t, repo, cache, &recordingOutbox{})
	pc := PricingContext{ClientID: ptr(client)}

	if _, err := svc.Resolve(context.Background(), pc); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	delete(repo.clientSheet, client)
	repo.reassigned()

	res, err := svc.Resolve(context.Background(), pc)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if res.Found() || res.Source != enums.PricingSourceNone {
		t.Fatalf("expected no governing sheet after unassignment, got %+v", res)
	}
}

func TestServiceBypassesCacheWithoutAssignmentVersion(t *testing.T) {
	repo := newStubRepo()
	client := uuid.New()
	sheet := repo.addSheet("client", true)
	repo.clientSheet[client] = sheet.ID
	repo.versionErr = errors.New("relation rate_sheet_assignment_version does not exist")
	cache := newFakeCache()
	svc := newTestService(t, repo, cache, &recordingOutbox{})

	for i := 0; i < 2; i++ {
		res, err := svc.Resolve(context.Background(), PricingContext{ClientID: ptr(client)})
		if err != nil {
			t.Fatalf("resolve: %v", err)
		}
		if res.RateSheet == nil || res.RateSheet.ID != sheet.ID {
			t.Fatalf("expected walked client sheet, got %+v", res)
		}
	}
	if cache.sets != 0 || repo.findCalls != 0 {
		t.Fatalf("expected cache untouched, sets=%d findCalls=%d", cache.sets, repo.findCalls)
	}
}

func TestServiceDropsCachedSheetThatWentInactive(t *testing.T) {
	repo := newStubRepo()
	client, bu := uuid.New(), uuid.New()
	clientSheet := repo.addSheet("client", true)
	buSheet := repo.addSheet("bu", true)
	repo.clientSheet[client] = clientSheet.ID
	repo.buSheet[bu] = buSheet.ID
	cache := newFakeCache()
	svc := newTestService(t, repo, cache, &recordingOutbox{})
	pc := PricingContext{ClientID: ptr(client), BusinessUnitClassID: ptr(bu)}

	if _, err := svc.Resolve(context.Background(), pc); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	clientSheet.IsActive = false

	res, err := svc.Resolve(context.Background(), pc)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if res.Source != enums.PricingSourceBusinessUnit || res.RateSheet.ID != buSheet.ID {
		t.Fatalf("expected fresh business unit resolution, got %+v", res)
	}
	if cache.dels == 0 {
		t.Fatalf("expected stale entry to be dropped")
	}
}

func TestServiceInvalidateMovesGeneration(t *testing.T) {
	repo := newStubRepo()
	client := uuid.New()
	repo.clientSheet[client] = repo.addSheet("client", true).ID
	cache := newFakeCache()
	svc := newTestService(t, repo, cache, &recordingOutbox{})
	pc := PricingContext{ClientID: ptr(client)}

	if _, err := svc.Resolve(context.Background(), pc); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if err := svc.Invalidate(context.Background()); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if _, err := svc.Resolve(context.Background(), pc); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cache.sets != 2 {
		t.Fatalf("expected a new cache entry under the next generation, sets=%d", cache.sets)
	}
	if repo.findCalls != 0 {
		t.Fatalf("old generation entry should not be read, findCalls=%d", repo.findCalls)
	}
}

func TestServiceDoesNotCacheDegradedOrMissingResolutions(t *testing.T) {
	repo := newStubRepo()
	repo.clientErr = errors.New("timeout")
	cache := newFakeCache()
	svc := newTestService(t, repo, cache, &recordingOutbox{})

	res, err := svc.Resolve(context.Background(), PricingContext{ClientID: ptr(uuid.New())})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !res.Degraded() {
		t.Fatalf("expected degraded resolution")
	}
	if _, err := svc.Resolve(context.Background(), PricingContext{}); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cache.sets != 0 {
		t.Fatalf("expected nothing cached, sets=%d", cache.sets)
	}
}

func TestServiceSurvivesCacheOutage(t *testing.T) {
	repo := newStubRepo()
	client := uuid.New()
	sheet := repo.addSheet("client", true)
	repo.clientSheet[client] = sheet.ID
	cache := newFakeCache()
	cache.getErr = errors.New("redis down")
	svc := newTestService(t, repo, cache, &recordingOutbox{})

	res, err := svc.Resolve(context.Background(), PricingContext{ClientID: ptr(client)})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if res.RateSheet.ID != sheet.ID {
		t.Fatalf("expected direct resolution during cache outage")
	}
}

func TestServiceResolveHonorsCancellation(t *testing.T) {
	svc := newTestService(t, newStubRepo(), nil, &recordingOutbox{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := svc.Resolve(ctx, PricingContext{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context canceled, got %v", err)
	}
}

func TestServiceSetActiveEmitsAndInvalidates(t *testing.T) {
	repo := newStubRepo()
	sheet := repo.addSheet("client", true)
	cache := newFakeCache()
	box := &recordingOutbox{}
	svc := newTestService(t, repo, cache, box)

	updated, err := svc.SetActive(context.Background(), SetActiveInput{RateSheetID: sheet.ID, Active: false, ActorID: "ops-1"})
	if err != nil {
		t.Fatalf("set active: %v", err)
	}
	if updated.IsActive {
		t.Fatalf("expected sheet to be inactive")
	}
	if len(box.events) != 1 || box.events[0].EventType != enums.EventRateSheetActiveChanged {
		t.Fatalf("expected one rate sheet event, got %+v", box.events)
	}
	if box.events[0].Actor == nil || box.events[0].Actor.ActorID != "ops-1" {
		t.Fatalf("expected actor on event")
	}
	if cache.gen != 1 {
		t.Fatalf("expected cache generation bump, got %d", cache.gen)
	}
}

func TestServiceSetActiveErrors(t *testing.T) {
	repo := newStubRepo()
	box := &recordingOutbox{}
	svc := newTestService(t, repo, nil, box)

	_, err := svc.SetActive(context.Background(), SetActiveInput{RateSheetID: uuid.New(), Active: true})
	if !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	_, err = svc.SetActive(context.Background(), SetActiveInput{})
	if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	sheet := repo.addSheet("s", true)
	box.err = errors.New("outbox down")
	_, err = svc.SetActive(context.Background(), SetActiveInput{RateSheetID: sheet.ID, Active: false})
	if !pkgerrors.HasCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	if _, err := NewService(ServiceParams{}); err == nil {
		t.Fatalf("expected error without repository")
	}
	if _, err := NewService(ServiceParams{Repository: newStubRepo(), Tx: fakeTx{}, Outbox: &recordingOutbox{}}); err == nil {
		t.Fatalf("expected error without logger")
	}
}
