// internal/identity/handler.go
package identity

import (
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"libreschool/internal/apperr"
	"libreschool/internal/httpx"
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
		Email    string     `json:"email"`
		FullName string     `json:"full_name"`
		Phone    string     `json:"phone"`
		Password string     `json:"password"`
		Role     Role       `json:"role"`
		SchoolID *uuid.UUID `json:"school_id"`
	}

	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, h.logger, err)
		return
	}
	if req.Role == "" {
		req.Role = RoleUser
	}

	user, err := h.service.Register(r.Context(), RegisterParams{
		Email:    req.Email,
		FullName: req.FullName,
		Phone:    req.Phone,
		Password: req.Password,
		Role:     req.Role,
		SchoolID: req.SchoolID,
	})
	if err != nil {
		httpx.Error(w, h.logger, err)
		return
	}

	httpx.Respond(w, http.StatusCreated, user)
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, h.logger, err)
		return
	}

	token, err := h.service.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		httpx.Error(w, h.logger, err)
		return
	}

	httpx.Respond(w, http.StatusOK, token)
}

func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFrom(r.Context())
	if !ok {
		httpx.Error(w, h.logger, apperr.Unauthorized("authentication required"))
		return
	}
	httpx.Respond(w, http.StatusOK, user)
}
