package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/custograph/custograph/internal/handler/dto"
	"github.com/custograph/custograph/internal/metrics"
	"github.com/custograph/custograph/internal/service"
)

// AppUserLister serves listing requests.
type AppUserLister interface {
	List(ctx context.Context, in service.ListInput) (*dto.AppUserListResponse, error)
	ListCursor(ctx context.Context, in service.ListInput) (*dto.AppUserCursorResponse, error)
}

// AppUserHandler handles HTTP requests for the user listing endpoints.
type AppUserHandler struct {
	svc     AppUserLister
	logger  *slog.Logger
	metrics metrics.Recorder
}

// NewAppUserHandler creates a new AppUserHandler. A nil recorder
// disables instrumentation.
func NewAppUserHandler(svc AppUserLister, logger *slog.Logger, recorder metrics.Recorder) *AppUserHandler {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &AppUserHandler{
		svc:     svc,
		logger:  logger,
		metrics: recorder,
	}
}

// List handles GET /appusers/.
//
// Every query parameter except page, page_size and ordering is treated
// as a filter; unknown parameters are ignored. Response time is
// measured over the whole request, including cache lookups, and written
// into the meta block just before serialization.
func (h *AppUserHandler) List(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	result, err := h.svc.List(r.Context(), service.ListInput{
		Path:  r.URL.Path,
		Query: r.URL.Query(),
	})
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	elapsed := time.Since(start)
	result.Meta.ResponseTime = elapsed.Seconds()
	h.metrics.ObserveResponseDuration(elapsed)

	h.logger.Info("appusers_listed",
		"count", result.Count,
		"page", result.Page,
		"cache_hit", result.Meta.CacheHit,
		"response_time", result.Meta.ResponseTime,
	)

	writeJSON(w, http.StatusOK, result)
}

// ListCursor handles GET /appusers/cursor.
//
// Cursor mode uses a fixed page size and an opaque continuation token
// instead of page numbers.
func (h *AppUserHandler) ListCursor(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	result, err := h.svc.ListCursor(r.Context(), service.ListInput{
		Path:  r.URL.Path,
		Query: r.URL.Query(),
	})
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	elapsed := time.Since(start)
	result.Meta.ResponseTime = elapsed.Seconds()
	h.metrics.ObserveResponseDuration(elapsed)

	h.logger.Info("appusers_listed_cursor",
		"count", len(result.Results),
		"cache_hit", result.Meta.CacheHit,
		"response_time", result.Meta.ResponseTime,
	)

	writeJSON(w, http.StatusOK, result)
}

// handleServiceError maps service errors to HTTP responses.
func (h *AppUserHandler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidFilter):
		h.writeError(w, http.StatusBadRequest, "invalid filter parameters", err.Error())
	case errors.Is(err, service.ErrInvalidCursor):
		h.writeError(w, http.StatusBadRequest, "invalid cursor", err.Error())
	case errors.Is(err, service.ErrPageNotFound):
		h.writeError(w, http.StatusNotFound, "page not found", err.Error())
	default:
		h.logger.Error("internal_error", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error", "")
	}
}

// writeError writes an error response.
func (h *AppUserHandler) writeError(w http.ResponseWriter, status int, message, details string) {
	writeJSON(w, status, dto.ErrorResponse{
		Error:   message,
		Details: details,
	})
}
