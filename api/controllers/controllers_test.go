package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/fenceops-backend/api/middleware"
	"github.com/angelmondragon/fenceops-backend/internal/quotes"
	"github.com/angelmondragon/fenceops-backend/internal/ratesheets"
	"github.com/angelmondragon/fenceops-backend/pkg/config"
	"github.com/angelmondragon/fenceops-backend/pkg/db/models"
	"github.com/angelmondragon/fenceops-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/fenceops-backend/pkg/errors"
	"github.com/angelmondragon/fenceops-backend/pkg/logger"
)

type pingerFunc func(context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

type stubRateSheetService struct {
	ratesheets.Service
	setActive func(context.Context, ratesheets.SetActiveInput) (*models.RateSheet, error)
}

func (s *stubRateSheetService) SetActive(ctx context.Context, in ratesheets.SetActiveInput) (*models.RateSheet, error) {
	return s.setActive(ctx, in)
}

type stubJobService struct {
	job *models.Job
	err error
}

func (s *stubJobService) CreateFromQuote(context.Context, *gorm.DB, quotes.JobDraft) (*models.Job, error) {
	return nil, errors.New("not used")
}

func (s *stubJobService) Get(context.Context, uuid.UUID) (*models.Job, error) {
	return s.job, s.err
}

func withParam(req *http.Request, name, value string) *http.Request {
	rc := chi.NewRouteContext()
	rc.URLParams.Add(name, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))
}

func testConfig() *config.Config {
	return &config.Config{App: config.AppConfig{Env: "test"}}
}

func TestHealthLive(t *testing.T) {
	rec := httptest.NewRecorder()
	HealthLive(testConfig()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if rec.Header().Get(envHeader) != "test" {
		t.Fatalf("expected env header")
	}
}

func TestHealthReadyReportsChecks(t *testing.T) {
	deps := map[string]Pinger{
		"db":    pingerFunc(func(context.Context) error { return nil }),
		"redis": nil,
	}
	rec := httptest.NewRecorder()
	HealthReady(testConfig(), logger.Nop(), deps).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}

	var envelope struct {
		Data struct {
			Checks map[string]string `json:"checks"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Data.Checks["db"] != "ok" || envelope.Data.Checks["redis"] != "disabled" {
		t.Fatalf("unexpected checks %+v", envelope.Data.Checks)
	}
}

func TestHealthReadyFailsOnDependency(t *testing.T) {
	deps := map[string]Pinger{
		"db": pingerFunc(func(context.Context) error { return errors.New("connection refused") }),
	}
	rec := httptest.NewRecorder()
	HealthReady(testConfig(), logger.Nop(), deps).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "connection refused") {
		t.Fatalf("dependency error leaked: %s", rec.Body.String())
	}
}

func TestRateSheetSetActive(t *testing.T) {
	sheetID := uuid.New()
	var got ratesheets.SetActiveInput
	svc := &stubRateSheetService{setActive: func(_ context.Context, in ratesheets.SetActiveInput) (*models.RateSheet, error) {
		got = in
		return &models.RateSheet{ID: in.RateSheetID, Name: "Builder tier", IsActive: in.Active, PricingType: enums.RateSheetPricingTypeFixedOnly}, nil
	}}

	req := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{"active":false}`))
	req = withParam(req, "rateSheetId", sheetID.String())
	req = req.WithContext(middleware.WithActor(req.Context(), "pricing-admin", "manager"))
	rec := httptest.NewRecorder()
	RateSheetSetActive(svc, logger.Nop()).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if got.RateSheetID != sheetID || got.Active || got.ActorID != "pricing-admin" {
		t.Fatalf("unexpected input %+v", got)
	}
	if !strings.Contains(rec.Body.String(), `"isActive":false`) {
		t.Fatalf("expected camelCase response: %s", rec.Body.String())
	}
}

func TestRateSheetSetActiveRequiresFlag(t *testing.T) {
	svc := &stubRateSheetService{setActive: func(context.Context, ratesheets.SetActiveInput) (*models.RateSheet, error) {
		t.Fatalf("service must not be called")
		return nil, nil
	}}
	req := withParam(httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{}`)), "rateSheetId", uuid.NewString())
	rec := httptest.NewRecorder()
	RateSheetSetActive(svc, logger.Nop()).ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestRateSheetSetActiveNotFound(t *testing.T) {
	svc := &stubRateSheetService{setActive: func(context.Context, ratesheets.SetActiveInput) (*models.RateSheet, error) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "rate sheet not found")
	}}
	req := withParam(httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{"active":true}`)), "rateSheetId", uuid.NewString())
	rec := httptest.NewRecorder()
	RateSheetSetActive(svc, logger.Nop()).ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rec.Code)
	}
}

func TestJobDetail(t *testing.T) {
	jobID := uuid.New()
	job := &models.Job{
		ID:            jobID,
		QuoteID:       uuid.New(),
		Status:        enums.JobStatusWon,
		ContractTotal: decimal.RequireFromString("972.00"),
		LineItems: []models.JobLineItem{
			{ID: uuid.New(), QuoteLineItemID: uuid.New(), LineType: enums.LineTypeMaterial, Quantity: decimal.NewFromInt(10), UnitPrice: decimal.NewFromInt(90)},
		},
	}
	rec := httptest.NewRecorder()
	JobDetail(&stubJobService{job: job}, logger.Nop()).ServeHTTP(rec, withParam(httptest.NewRequest(http.MethodGet, "/", nil), "jobId", jobID.String()))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	var envelope struct {
		Data jobDetailResponse `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Data.ID != jobID || len(envelope.Data.LineItems) != 1 {
		t.Fatalf("unexpected job %+v", envelope.Data)
	}
	if !envelope.Data.ContractTotal.Equal(decimal.NewFromInt(972)) {
		t.Fatalf("expected contract total 972 got %s", envelope.Data.ContractTotal)
	}
}

func TestJobDetailMissing(t *testing.T) {
	svc := &stubJobService{err: pkgerrors.New(pkgerrors.CodeNotFound, "job not found")}
	rec := httptest.NewRecorder()
	JobDetail(svc, logger.Nop()).ServeHTTP(rec, withParam(httptest.NewRequest(http.MethodGet, "/", nil), "jobId", uuid.NewString()))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rec.Code)
	}
}
