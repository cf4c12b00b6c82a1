// internal/dashboard/handler.go
package dashboard

import (
	"net/http"

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

func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity.UserFrom(r.Context())
	if !ok {
		httpx.Error(w, h.logger, apperr.Unauthorized("authentication required"))
		return
	}

	stats, err := h.service.Stats(r.Context(), caller)
	if err != nil {
		httpx.Error(w, h.logger, err)
		return
	}

	httpx.Respond(w, http.StatusOK, stats)
}
