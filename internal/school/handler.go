// internal/school/handler.go
package school

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

func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name          string `json:"name"`
		Address       string `json:"address"`
		Country       string `json:"country"`
		Description   string `json:"description"`
		AdminEmail    string `json:"admin_email"`
		AdminName     string `json:"admin_name"`
		AdminPassword string `json:"admin_password"`
	}

	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, h.logger, err)
		return
	}

	sch, err := h.service.Register(r.Context(), RegisterParams{
		Name:          req.Name,
		Address:       req.Address,
		Country:       req.Country,
		Description:   req.Description,
		AdminEmail:    req.AdminEmail,
		AdminName:     req.AdminName,
		AdminPassword: req.AdminPassword,
	})
	if err != nil {
		httpx.Error(w, h.logger, err)
		return
	}

	httpx.Respond(w, http.StatusCreated, sch)
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	caller, _ := identity.UserFrom(r.Context())

	schools, err := h.service.List(r.Context(), caller)
	if err != nil {
		httpx.Error(w, h.logger, err)
		return
	}

	httpx.Respond(w, http.StatusOK, schools)
}

func (h *Handler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "schoolID"))
	if err != nil {
		httpx.Error(w, h.logger, apperr.Validation("invalid school ID"))
		return
	}

	var req struct {
		Status Status `json:"status"`
	}
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, h.logger, err)
		return
	}

	sch, err := h.service.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		httpx.Error(w, h.logger, err)
		return
	}

	httpx.Respond(w, http.StatusOK, sch)
}
