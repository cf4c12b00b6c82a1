// internal/loans/handler.go
package loans

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"libreschool/internal/apperr"
	"libreschool/internal/httpx"
	"libreschool/internal/identity"
)

type Handler struct {
	service Service
	logger  *zap.Logger
}

func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) HandleRequest(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity.UserFrom(r.Context())
	if !ok {
		httpx.Error(w, h.logger, apperr.Unauthorized("authentication required"))
		return
	}

	var req struct {
		BookID uuid.UUID `json:"book_id"`
	}
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, h.logger, err)
		return
	}
	if req.BookID == uuid.Nil {
		httpx.Error(w, h.logger, apperr.Validation("book_id is required"))
		return
	}

	loan, err := h.service.Request(r.Context(), caller, req.BookID)
	if err != nil {
		httpx.Error(w, h.logger, err)
		return
	}

	httpx.Respond(w, http.StatusCreated, loan)
}

func (h *Handler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	caller, _ := identity.UserFrom(r.Context())

	loanID, err := uuid.Parse(chi.URLParam(r, "loanID"))
	if err != nil {
		httpx.Error(w, h.logger, apperr.Validation("invalid loan ID"))
		return
	}

	var req StatusUpdate
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, h.logger, err)
		return
	}

	loan, err := h.service.UpdateStatus(r.Context(), caller, loanID, req)
	if err != nil {
		httpx.Error(w, h.logger, err)
		return
	}

	httpx.Respond(w, http.StatusOK, loan)
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	caller, _ := identity.UserFrom(r.Context())

	var schoolID *uuid.UUID
	if raw := r.URL.Query().Get("school_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			httpx.Error(w, h.logger, apperr.Validation("invalid school_id"))
			return
		}
		schoolID = &id
	}

	result, err := h.service.List(r.Context(), caller, schoolID)
	if err != nil {
		httpx.Error(w, h.logger, err)
		return
	}

	httpx.Respond(w, http.StatusOK, result)
}

func (h *Handler) HandleListMine(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity.UserFrom(r.Context())
	if !ok {
		httpx.Error(w, h.logger, apperr.Unauthorized("authentication required"))
		return
	}

	result, err := h.service.ListMine(r.Context(), caller)
	if err != nil {
		httpx.Error(w, h.logger, err)
		return
	}

	httpx.Respond(w, http.StatusOK, result)
}
