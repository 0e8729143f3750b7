package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/custograph/custograph/internal/handler/dto"
	"github.com/custograph/custograph/internal/metrics"
	"github.com/custograph/custograph/internal/service"
)

// mockLister is a mock implementation of AppUserLister for testing.
type mockLister struct {
	listResp   *dto.AppUserListResponse
	cursorResp *dto.AppUserCursorResponse
	err        error
	lastInput  service.ListInput
}

func (m *mockLister) List(ctx context.Context, in service.ListInput) (*dto.AppUserListResponse, error) {
	m.lastInput = in
	if m.err != nil {
		return nil, m.err
	}
	return m.listResp, nil
}

func (m *mockLister) ListCursor(ctx context.Context, in service.ListInput) (*dto.AppUserCursorResponse, error) {
	m.lastInput = in
	if m.err != nil {
		return nil, m.err
	}
	return m.cursorResp, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestAppUserHandler_List(t *testing.T) {
	svc := &mockLister{
		listResp: &dto.AppUserListResponse{
			Count:   2,
			Page:    1,
			Pages:   1,
			Results: []dto.AppUserResponse{{ID: "a"}, {ID: "b"}},
		},
	}
	recorder := metrics.NewInMemory()
	h := NewAppUserHandler(svc, testLogger(), recorder)

	req := httptest.NewRequest(http.MethodGet, "/appusers/?first_name=john&city=Berlin", nil)
	rec := httptest.NewRecorder()

	h.List(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected Content-Type application/json, got %s", ct)
	}

	var response dto.AppUserListResponse
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if response.Count != 2 || len(response.Results) != 2 {
		t.Errorf("unexpected envelope: count=%d results=%d", response.Count, len(response.Results))
	}
	if response.Meta.ResponseTime <= 0 {
		t.Error("response_time should be set")
	}

	if svc.lastInput.Path != "/appusers/" {
		t.Errorf("service saw path %q", svc.lastInput.Path)
	}
	if svc.lastInput.Query.Get("city") != "Berlin" {
		t.Error("query parameters should be passed through unchanged")
	}

	snap := recorder.Snapshot()
	if snap.ResponseDurationCount != 1 {
		t.Errorf("response duration observations = %d, want 1", snap.ResponseDurationCount)
	}
}

func TestAppUserHandler_List_ServiceErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
	}{
		{
			name:       "invalid filter",
			err:        fmt.Errorf("%w: bad field", service.ErrInvalidFilter),
			wantStatus: http.StatusBadRequest,
			wantError:  "invalid filter parameters",
		},
		{
			name:       "page out of range",
			err:        fmt.Errorf("%w: page 9 of 2", service.ErrPageNotFound),
			wantStatus: http.StatusNotFound,
			wantError:  "page not found",
		},
		{
			name:       "cache failure",
			err:        fmt.Errorf("cache lookup failed: connection refused"),
			wantStatus: http.StatusInternalServerError,
			wantError:  "internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewAppUserHandler(&mockLister{err: tt.err}, testLogger(), nil)

			req := httptest.NewRequest(http.MethodGet, "/appusers/", nil)
			rec := httptest.NewRecorder()

			h.List(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}

			var response dto.ErrorResponse
			if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if response.Error != tt.wantError {
				t.Errorf("error = %q, want %q", response.Error, tt.wantError)
			}
		})
	}
}

func TestAppUserHandler_ListCursor(t *testing.T) {
	svc := &mockLister{
		cursorResp: &dto.AppUserCursorResponse{
			NextCursor: "abc123",
			Results:    []dto.AppUserResponse{{ID: "a"}},
		},
	}
	h := NewAppUserHandler(svc, testLogger(), nil)

	req := httptest.NewRequest(http.MethodGet, "/appusers/cursor?country=Germany", nil)
	rec := httptest.NewRecorder()

	h.ListCursor(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var response dto.AppUserCursorResponse
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.NextCursor != "abc123" || len(response.Results) != 1 {
		t.Errorf("unexpected envelope: %+v", response)
	}
	if response.Meta.ResponseTime <= 0 {
		t.Error("response_time should be set")
	}
}

func TestAppUserHandler_ListCursor_InvalidToken(t *testing.T) {
	h := NewAppUserHandler(&mockLister{err: service.ErrInvalidCursor}, testLogger(), nil)

	req := httptest.NewRequest(http.MethodGet, "/appusers/cursor?cursor=garbage", nil)
	rec := httptest.NewRecorder()

	h.ListCursor(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rec.Code)
	}

	var response dto.ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.Error != "invalid cursor" {
		t.Errorf("unexpected error message: %s", response.Error)
	}
}
