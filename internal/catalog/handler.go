// internal/catalog/handler.go
package catalog

import (
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"libreschool/internal/apperr"
	"libreschool/internal/httpx"
	"libreschool/internal/identity"
)

// Uploads beyond this size are rejected before reaching the file store.
const maxUploadBytes = 64 << 20

type Handler struct {
	service Service
	logger  *zap.Logger
}

func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

type bookRequest struct {
	SchoolID       uuid.UUID `json:"school_id"`
	Title          string    `json:"title"`
	Authors        []string  `json:"authors"`
	ISBN           string    `json:"isbn"`
	Description    string    `json:"description"`
	Categories     []string  `json:"categories"`
	Language       string    `json:"language"`
	Format         Format    `json:"format"`
	Price          float64   `json:"price"`
	CoverImage     string    `json:"cover_image"`
	PhysicalCopies int       `json:"physical_copies"`
}

func (r bookRequest) params() CreateParams {
	return CreateParams{
		SchoolID:       r.SchoolID,
		Title:          r.Title,
		Authors:        r.Authors,
		ISBN:           r.ISBN,
		Description:    r.Description,
		Categories:     r.Categories,
		Language:       r.Language,
		Format:         r.Format,
		Price:          r.Price,
		CoverImage:     r.CoverImage,
		PhysicalCopies: r.PhysicalCopies,
	}
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity.UserFrom(r.Context())
	if !ok {
		httpx.Error(w, h.logger, apperr.Unauthorized("authentication required"))
		return
	}

	var req bookRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, h.logger, err)
		return
	}
	if req.Format == "" {
		req.Format = FormatPhysical
	}

	book, err := h.service.Create(r.Context(), caller, req.params())
	if err != nil {
		httpx.Error(w, h.logger, err)
		return
	}

	httpx.Respond(w, http.StatusCreated, book)
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	filter := ListFilter{
		Search:   r.URL.Query().Get("search"),
		Category: r.URL.Query().Get("category"),
		Format:   Format(r.URL.Query().Get("format")),
	}
	if filter.Format != "" && !filter.Format.Valid() {
		httpx.Error(w, h.logger, apperr.Validation("unknown book format %q", filter.Format))
		return
	}
	if raw := r.URL.Query().Get("school_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			httpx.Error(w, h.logger, apperr.Validation("invalid school_id"))
			return
		}
		filter.SchoolID = &id
	}

	books, err := h.service.List(r.Context(), filter)
	if err != nil {
		httpx.Error(w, h.logger, err)
		return
	}

	httpx.Respond(w, http.StatusOK, books)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := h.bookID(r)
	if err != nil {
		httpx.Error(w, h.logger, err)
		return
	}

	book, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.Error(w, h.logger, err)
		return
	}

	httpx.Respond(w, http.StatusOK, book)
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	caller, _ := identity.UserFrom(r.Context())
	id, err := h.bookID(r)
	if err != nil {
		httpx.Error(w, h.logger, err)
		return
	}

	var req bookRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, h.logger, err)
		return
	}

	book, err := h.service.Update(r.Context(), caller, id, req.params())
	if err != nil {
		httpx.Error(w, h.logger, err)
		return
	}

	httpx.Respond(w, http.StatusOK, book)
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	caller, _ := identity.UserFrom(r.Context())
	id, err := h.bookID(r)
	if err != nil {
		httpx.Error(w, h.logger, err)
		return
	}

	if err := h.service.Delete(r.Context(), caller, id); err != nil {
		httpx.Error(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleUploadFile(w http.ResponseWriter, r *http.Request) {
	caller, _ := identity.UserFrom(r.Context())
	id, err := h.bookID(r)
	if err != nil {
		httpx.Error(w, h.logger, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		httpx.Error(w, h.logger, apperr.Validation("a multipart \"file\" field is required"))
		return
	}
	defer file.Close()

	book, err := h.service.AttachFile(r.Context(), caller, id, header.Filename, file)
	if err != nil {
		httpx.Error(w, h.logger, err)
		return
	}

	httpx.Respond(w, http.StatusOK, book)
}

func (h *Handler) HandleDownload(w http.ResponseWriter, r *http.Request) {
	caller, _ := identity.UserFrom(r.Context())
	id, err := h.bookID(r)
	if err != nil {
		httpx.Error(w, h.logger, err)
		return
	}

	info, err := h.service.Download(r.Context(), caller, id)
	if err != nil {
		httpx.Error(w, h.logger, err)
		return
	}

	httpx.Respond(w, http.StatusOK, info)
}

func (h *Handler) HandleServeFile(w http.ResponseWriter, r *http.Request) {
	id, err := h.bookID(r)
	if err != nil {
		httpx.Error(w, h.logger, err)
		return
	}

	bookFile, err := h.service.OpenFile(r.Context(), id)
	if err != nil {
		httpx.Error(w, h.logger, err)
		return
	}
	defer bookFile.Content.Close()

	w.Header().Set("Content-Type", bookFile.MediaType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", bookFile.Filename))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", bookFile.Size))
	_, _ = io.Copy(w, bookFile.Content)
}

func (h *Handler) bookID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "bookID"))
	if err != nil {
		return uuid.Nil, apperr.Validation("invalid book ID")
	}
	return id, nil
}
