package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/angelmondragon/fenceops-backend/pkg/logger"
)

func TestActorCarriesHeaderIntoContext(t *testing.T) {
	var gotActor, gotRole string
	handler := Actor(logger.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotActor = ActorIDFromContext(r.Context())
		gotRole = RoleFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(actorIDHeader, "  estimator-7 ")
	req.Header.Set(actorRoleHeader, "Manager")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if gotActor != "estimator-7" || gotRole != "manager" {
		t.Fatalf("unexpected actor %q role %q", gotActor, gotRole)
	}
}

func TestActorIsOptional(t *testing.T) {
	called := false
	handler := Actor(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		if ActorIDFromContext(r.Context()) != "" {
			t.Fatalf("expected no actor")
		}
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if !called {
		t.Fatalf("handler not called")
	}
}

func TestRequestIDEchoesOrGenerates(t *testing.T) {
	handler := RequestID(logger.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(requestIDHeader, "req-1")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Header().Get(requestIDHeader) != "req-1" {
		t.Fatalf("expected request id to be echoed")
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Header().Get(requestIDHeader) == "" {
		t.Fatalf("expected generated request id")
	}
}

func TestRequestIDReplacesMalformedIDs(t *testing.T) {
	handler := RequestID(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	for _, bad := range []string{"has space", "line\r\nbreak", strings.Repeat("a", maxRequestIDBytes+1)} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(requestIDHeader, bad)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		got := rec.Header().Get(requestIDHeader)
		if got == bad || got == "" {
			t.Fatalf("expected %q to be replaced, got %q", bad, got)
		}
	}
}

func TestRecovererWritesInternalError(t *testing.T) {
	handler := Recoverer(logger.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", rec.Code)
	}
}

func TestRecovererLeavesStartedResponseAlone(t *testing.T) {
	handler := Recoverer(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		panic("late")
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected original status 202, got %d", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Fatalf("expected no error body, got %q", rec.Body.String())
	}
}

func TestRecovererReraisesAbortHandler(t *testing.T) {
	handler := Recoverer(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	}))
	defer func() {
		if v := recover(); v != http.ErrAbortHandler {
			t.Fatalf("expected ErrAbortHandler to propagate, got %v", v)
		}
	}()
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
}

func TestLoggingRecordsStatus(t *testing.T) {
	handler := Logging(logger.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusTeapot {
		t.Fatalf("expected status to pass through, got %d", rec.Code)
	}
}
