package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/usermeta/usermeta/internal/docstore"
	"github.com/usermeta/usermeta/internal/handler/dto"
	"github.com/usermeta/usermeta/internal/model"
	"github.com/usermeta/usermeta/internal/service"
)

// UserHandler handles HTTP requests for user metadata records.
type UserHandler struct {
	svc    *service.UserService
	logger *slog.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(svc *service.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		svc:    svc,
		logger: logger,
	}
}

// Save handles POST /api/v1/users.
// The body is `{"userid": ..., "email": ...}`; a caller-supplied id is
// discarded by deserialization. Success is 204 with an empty body
// whether the record was new or replaced.
func (h *UserHandler) Save(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "UNREADABLE_BODY", "Failed to read request body")
		return
	}
	if len(body) == 0 {
		writeError(w, http.StatusBadRequest, "EMPTY_BODY", "Request body is empty")
		return
	}

	var record model.UserRecord
	if err := json.Unmarshal(body, &record); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	if err := h.svc.SaveUser(r.Context(), record); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// List handles GET /api/v1/users?userid=X.
// Returns the owner's records as a JSON array; an empty array is a
// valid outcome for a never-written owner.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.singleQueryParam(w, r, "userid")
	if !ok {
		return
	}

	records, err := h.svc.ListUsers(r.Context(), ownerID)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToUserListResponse(records))
}

// Delete handles DELETE /api/v1/users?userid=X.
// Deleting a never-written owner succeeds; delete is idempotent.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.singleQueryParam(w, r, "userid")
	if !ok {
		return
	}

	if err := h.svc.DeleteUser(r.Context(), ownerID); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// singleQueryParam extracts a query parameter that must occur exactly
// once. A missing or repeated parameter is a client error, even when
// the repeated values agree.
func (h *UserHandler) singleQueryParam(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	values := r.URL.Query()[name]
	switch {
	case len(values) == 0:
		writeError(w, http.StatusBadRequest, "MISSING_PARAM", "No "+name+" found")
		return "", false
	case len(values) > 1:
		writeError(w, http.StatusBadRequest, "DUPLICATE_PARAM", "Multiple "+name+" found")
		return "", false
	}
	return values[0], true
}

// handleServiceError maps service errors to HTTP responses. Internal
// detail is logged with request context, never returned to the caller.
func (h *UserHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, model.ErrMissingOwnerID):
		writeError(w, http.StatusBadRequest, "INVALID_USER", err.Error())
	case errors.Is(err, docstore.ErrConflict):
		writeError(w, http.StatusConflict, "CONFLICT", "Record already exists")
	case errors.Is(err, docstore.ErrNilItem),
		errors.Is(err, docstore.ErrEmptyID),
		errors.Is(err, docstore.ErrEmptyPartitionKey),
		errors.Is(err, docstore.ErrEmptyQuery):
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
	default:
		h.logger.Error("internal_error",
			"error", err,
			"method", r.Method,
			"path", r.URL.Path,
		)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}
