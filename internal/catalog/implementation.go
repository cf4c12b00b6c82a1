// internal/catalog/implementation.go
package catalog

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"libreschool/internal/apperr"
	"libreschool/internal/identity"
)

// service implements the Service interface.
type service struct {
	store  Store
	index  SearchIndex
	files  FileStore
	logger *zap.Logger
}

// NewService creates a new catalog service instance.
func NewService(store Store, index SearchIndex, files FileStore, logger *zap.Logger) Service {
	return &service{store: store, index: index, files: files, logger: logger}
}

// Create adds a book to the caller's school, creating physical copies
// when the format calls for them.
func (s *service) Create(ctx context.Context, caller *identity.User, params CreateParams) (*Book, error) {
	if err := validateBook(params); err != nil {
		return nil, err
	}

	// Staff always publish into their own school.
	schoolID := params.SchoolID
	if caller.SchoolID != nil {
		schoolID = *caller.SchoolID
	}
	if schoolID == uuid.Nil {
		return nil, apperr.Validation("school_id is required")
	}

	book := &Book{
		ID:          uuid.New(),
		SchoolID:    schoolID,
		Title:       params.Title,
		Authors:     params.Authors,
		ISBN:        params.ISBN,
		Description: params.Description,
		Categories:  params.Categories,
		Language:    defaultString(params.Language, "fr"),
		Format:      params.Format,
		Price:       params.Price,
		CoverImage:  params.CoverImage,
		PublishedBy: caller.ID,
		CreatedAt:   time.Now().UTC(),
	}

	var copies []*Copy
	if params.PhysicalCopies > 0 && book.Format.HasPhysical() {
		copies = make([]*Copy, 0, params.PhysicalCopies)
		for i := 0; i < params.PhysicalCopies; i++ {
			copies = append(copies, &Copy{
				ID:        uuid.New(),
				BookID:    book.ID,
				Barcode:   fmt.Sprintf("%s-%03d", book.ID, i+1),
				Condition: "good",
				Status:    CopyAvailable,
			})
		}
	}

	if err := s.store.CreateBook(ctx, book, copies); err != nil {
		return nil, err
	}

	if err := s.index.Index(ctx, book); err != nil {
		s.logger.Warn("failed to index book", zap.String("book_id", book.ID.String()), zap.Error(err))
	}

	return book, nil
}

// Get retrieves a book by id.
func (s *service) Get(ctx context.Context, id uuid.UUID) (*Book, error) {
	return s.store.BookByID(ctx, id)
}

// List returns books matching the filter. Free-text search goes through
// the search index and falls back to the store when the index is down.
func (s *service) List(ctx context.Context, filter ListFilter) ([]*Book, error) {
	q := Query{Category: filter.Category, Format: filter.Format, SchoolID: filter.SchoolID}

	if filter.Search != "" {
		ids, err := s.index.Search(ctx, filter.Search)
		switch {
		case err != nil:
			s.logger.Warn("search index unavailable, falling back to store", zap.Error(err))
			q.Search = filter.Search
		case len(ids) == 0:
			return []*Book{}, nil
		default:
			q.IDs = ids
		}
	}

	return s.store.ListBooks(ctx, q)
}

// Update replaces the editable fields of a book. Only the publisher or
// school staff with the manage capability may update it.
func (s *service) Update(ctx context.Context, caller *identity.User, id uuid.UUID, params CreateParams) (*Book, error) {
	book, err := s.store.BookByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeManage(caller, book); err != nil {
		return nil, err
	}
	if err := validateBook(params); err != nil {
		return nil, err
	}

	book.Title = params.Title
	book.Authors = params.Authors
	book.ISBN = params.ISBN
	book.Description = params.Description
	book.Categories = params.Categories
	book.Language = defaultString(params.Language, "fr")
	book.Format = params.Format
	book.Price = params.Price
	book.CoverImage = params.CoverImage

	if !book.Format.HasDigital() {
		// A digital file reference may only exist on digital formats.
		book.FilePath = ""
	}

	if err := s.store.UpdateBook(ctx, book); err != nil {
		return nil, err
	}

	if err := s.index.Index(ctx, book); err != nil {
		s.logger.Warn("failed to reindex book", zap.String("book_id", book.ID.String()), zap.Error(err))
	}

	return book, nil
}

// Delete removes a book together with its copies and loans.
func (s *service) Delete(ctx context.Context, caller *identity.User, id uuid.UUID) error {
	book, err := s.store.BookByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authorizeManage(caller, book); err != nil {
		return err
	}

	if err := s.store.DeleteBook(ctx, id); err != nil {
		return err
	}

	if err := s.index.Remove(ctx, id); err != nil {
		s.logger.Warn("failed to remove book from index", zap.String("book_id", id.String()), zap.Error(err))
	}

	return nil
}

// AttachFile stores an uploaded digital file and binds it to the book.
func (s *service) AttachFile(ctx context.Context, caller *identity.User, id uuid.UUID, filename string, content io.Reader) (*Book, error) {
	book, err := s.store.BookByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeManage(caller, book); err != nil {
		return nil, err
	}
	if !book.Format.HasDigital() {
		return nil, apperr.Validation("book format %q does not accept a digital file", book.Format)
	}
	if mediaTypeFor(filename) == "" {
		return nil, apperr.Validation("unsupported file format, use PDF or EPUB")
	}

	ref, _, err := s.files.Save(book.ID, filename, content)
	if err != nil {
		return nil, fmt.Errorf("failed to store file: %w", err)
	}

	if err := s.store.SetBookFile(ctx, book.ID, ref); err != nil {
		return nil, err
	}

	book.FilePath = ref
	return book, nil
}

// Download prepares a digital download and records it for analytics.
func (s *service) Download(ctx context.Context, caller *identity.User, id uuid.UUID) (*DownloadInfo, error) {
	book, err := s.store.BookByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !book.Format.HasDigital() {
		return nil, apperr.Validation("book is not available in digital format")
	}
	if book.FilePath == "" {
		return nil, apperr.NotFound("no file available for this book")
	}

	content, size, err := s.files.Open(book.FilePath)
	if err != nil {
		return nil, apperr.NotFound("file not found on server")
	}
	content.Close()

	// Best effort; a failed analytics write must not block the download.
	record := &Download{
		ID:           uuid.New(),
		BookID:       book.ID,
		UserID:       caller.ID,
		BookTitle:    book.Title,
		DownloadedAt: time.Now().UTC(),
	}
	if err := s.store.RecordDownload(ctx, record); err != nil {
		s.logger.Warn("failed to record download", zap.String("book_id", book.ID.String()), zap.Error(err))
	}

	return &DownloadInfo{
		DownloadURL: fmt.Sprintf("/api/books/%s/file", book.ID),
		BookTitle:   book.Title,
		FileSize:    size,
	}, nil
}

// OpenFile opens the stored digital file for streaming.
func (s *service) OpenFile(ctx context.Context, id uuid.UUID) (*BookFile, error) {
	book, err := s.store.BookByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if book.FilePath == "" {
		return nil, apperr.NotFound("no file available for this book")
	}

	content, size, err := s.files.Open(book.FilePath)
	if err != nil {
		return nil, apperr.NotFound("file not found on server")
	}

	ext := strings.ToLower(path.Ext(book.FilePath))
	return &BookFile{
		Filename:  book.Title + ext,
		MediaType: mediaTypeFor(book.FilePath),
		Size:      size,
		Content:   content,
	}, nil
}

func (s *service) authorizeManage(caller *identity.User, book *Book) error {
	if book.PublishedBy == caller.ID {
		return nil
	}
	if !caller.Role.Can(identity.CapManageBooks) {
		return apperr.Forbidden("you are not allowed to manage this book")
	}
	if caller.Scoped() && (caller.SchoolID == nil || *caller.SchoolID != book.SchoolID) {
		return apperr.Forbidden("book belongs to another school")
	}
	return nil
}

func validateBook(params CreateParams) error {
	if params.Title == "" {
		return apperr.Validation("title is required")
	}
	if len(params.Authors) == 0 {
		return apperr.Validation("at least one author is required")
	}
	if !params.Format.Valid() {
		return apperr.Validation("unknown book format %q", params.Format)
	}
	if params.PhysicalCopies < 0 {
		return apperr.Validation("physical_copies cannot be negative")
	}
	return nil
}

func mediaTypeFor(filename string) string {
	switch strings.ToLower(path.Ext(filename)) {
	case ".pdf":
		return "application/pdf"
	case ".epub":
		return "application/epub+zip"
	}
	return ""
}

func defaultString(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
