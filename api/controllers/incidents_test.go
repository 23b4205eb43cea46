package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/olivergrant/ibts-backend/api/middleware"
	"github.com/olivergrant/ibts-backend/internal/incidents"
	"github.com/olivergrant/ibts-backend/pkg/enums"
	"github.com/olivergrant/ibts-backend/pkg/logger"
)

type testIncidentService struct {
	createFn func(ctx context.Context, actorID int64, req incidents.CreateIncidentRequest) (*incidents.IncidentDTO, error)
	getFn    func(ctx context.Context, id int64) (*incidents.IncidentDTO, error)
	listFn   func(ctx context.Context, params incidents.ListParams) (*incidents.ListResult, error)
	updateFn func(ctx context.Context, actorID, id int64, req incidents.UpdateIncidentRequest) (*incidents.IncidentDTO, error)
	deleteFn func(ctx context.Context, id int64) error
}

func (s *testIncidentService) Create(ctx context.Context, actorID int64, req incidents.CreateIncidentRequest) (*incidents.IncidentDTO, error) {
	if s.createFn != nil {
		return s.createFn(ctx, actorID, req)
	}
	return &incidents.IncidentDTO{}, nil
}

func (s *testIncidentService) Get(ctx context.Context, id int64) (*incidents.IncidentDTO, error) {
	if s.getFn != nil {
		return s.getFn(ctx, id)
	}
	return &incidents.IncidentDTO{ID: id}, nil
}

func (s *testIncidentService) List(ctx context.Context, params incidents.ListParams) (*incidents.ListResult, error) {
	if s.listFn != nil {
		return s.listFn(ctx, params)
	}
	return &incidents.ListResult{}, nil
}

func (s *testIncidentService) Update(ctx context.Context, actorID, id int64, req incidents.UpdateIncidentRequest) (*incidents.IncidentDTO, error) {
	if s.updateFn != nil {
		return s.updateFn(ctx, actorID, id, req)
	}
	return &incidents.IncidentDTO{ID: id}, nil
}

func (s *testIncidentService) Delete(ctx context.Context, id int64) error {
	if s.deleteFn != nil {
		return s.deleteFn(ctx, id)
	}
	return nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func withIncidentParam(req *http.Request, id string) *http.Request {
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("incidentId", id)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}

func TestIncidentCreatePassesActor(t *testing.T) {
	var gotActor int64
	var gotTitle string
	svc := &testIncidentService{
		createFn: func(ctx context.Context, actorID int64, req incidents.CreateIncidentRequest) (*incidents.IncidentDTO, error) {
			gotActor = actorID
			gotTitle = req.Title
			return &incidents.IncidentDTO{ID: 7, Title: req.Title}, nil
		},
	}

	body := `{"title":"Printer on fire","priority":"high"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/incidents", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req = req.WithContext(middleware.WithUserID(req.Context(), 42))

	resp := httptest.NewRecorder()
	IncidentCreate(svc, testLogger())(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	if gotActor != 42 {
		t.Fatalf("expected actor 42 got %d", gotActor)
	}
	if gotTitle != "Printer on fire" {
		t.Fatalf("unexpected title %q", gotTitle)
	}
}

func TestIncidentCreateRejectsBadJSON(t *testing.T) {
	svc := &testIncidentService{}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/incidents", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")

	resp := httptest.NewRecorder()
	IncidentCreate(svc, testLogger())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestIncidentListParsesFilters(t *testing.T) {
	var got incidents.ListParams
	svc := &testIncidentService{
		listFn: func(ctx context.Context, params incidents.ListParams) (*incidents.ListResult, error) {
			got = params
			return &incidents.ListResult{}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/incidents?status=in_progress&priority=high&assigned_to=9&limit=5&cursor=abc", nil)
	resp := httptest.NewRecorder()
	IncidentList(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	if got.Status == nil || *got.Status != enums.IncidentStatusInProgress {
		t.Fatalf("status filter not parsed: %+v", got.Status)
	}
	if got.Priority == nil || *got.Priority != enums.IncidentPriorityHigh {
		t.Fatalf("priority filter not parsed: %+v", got.Priority)
	}
	if got.AssignedToUserID == nil || *got.AssignedToUserID != 9 {
		t.Fatalf("assigned_to filter not parsed: %+v", got.AssignedToUserID)
	}
	if got.Limit != 5 {
		t.Fatalf("expected limit 5 got %d", got.Limit)
	}
	if got.Cursor != "abc" {
		t.Fatalf("expected cursor abc got %q", got.Cursor)
	}
}

func TestIncidentListRejectsUnknownStatus(t *testing.T) {
	svc := &testIncidentService{}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/incidents?status=bogus", nil)
	resp := httptest.NewRecorder()
	IncidentList(svc, testLogger())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestIncidentGetRejectsNonNumericID(t *testing.T) {
	svc := &testIncidentService{}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/incidents/abc", nil)
	req = withIncidentParam(req, "abc")

	resp := httptest.NewRecorder()
	IncidentGet(svc, testLogger())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestIncidentUpdateRoutesIDAndBody(t *testing.T) {
	var gotID int64
	var gotStatus *enums.IncidentStatus
	svc := &testIncidentService{
		updateFn: func(ctx context.Context, actorID, id int64, req incidents.UpdateIncidentRequest) (*incidents.IncidentDTO, error) {
			gotID = id
			gotStatus = req.Status
			return &incidents.IncidentDTO{ID: id}, nil
		},
	}

	body := `{"status":"closed"}`
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/incidents/12", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req = withIncidentParam(req, "12")
	req = req.WithContext(middleware.WithUserID(req.Context(), 3))

	resp := httptest.NewRecorder()
	IncidentUpdate(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	if gotID != 12 {
		t.Fatalf("expected id 12 got %d", gotID)
	}
	if gotStatus == nil || *gotStatus != enums.IncidentStatusClosed {
		t.Fatalf("status not decoded: %+v", gotStatus)
	}
}

func TestIncidentDeleteReportsStatus(t *testing.T) {
	svc := &testIncidentService{}
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/incidents/4", nil)
	req = withIncidentParam(req, "4")

	resp := httptest.NewRecorder()
	IncidentDelete(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	var envelope struct {
		Data map[string]string `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if envelope.Data["status"] != "deleted" {
		t.Fatal("response missing deleted status")
	}
}
