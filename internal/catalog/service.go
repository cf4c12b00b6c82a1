// internal/catalog/service.go
package catalog

import (
	"context"
	"io"

	"github.com/google/uuid"

	"libreschool/internal/identity"
)

// Service defines the interface for the catalog service.
type Service interface {
	Create(ctx context.Context, caller *identity.User, params CreateParams) (*Book, error)
	Get(ctx context.Context, id uuid.UUID) (*Book, error)
	List(ctx context.Context, filter ListFilter) ([]*Book, error)
	Update(ctx context.Context, caller *identity.User, id uuid.UUID, params CreateParams) (*Book, error)
	Delete(ctx context.Context, caller *identity.User, id uuid.UUID) error
	AttachFile(ctx context.Context, caller *identity.User, id uuid.UUID, filename string, content io.Reader) (*Book, error)
	Download(ctx context.Context, caller *identity.User, id uuid.UUID) (*DownloadInfo, error)
	OpenFile(ctx context.Context, id uuid.UUID) (*BookFile, error)
}

// CreateParams carries the fields of a book create or update request.
type CreateParams struct {
	SchoolID       uuid.UUID
	Title          string
	Authors        []string
	ISBN           string
	Description    string
	Categories     []string
	Language       string
	Format         Format
	Price          float64
	CoverImage     string
	PhysicalCopies int
}

// ListFilter narrows a catalogue listing.
type ListFilter struct {
	Search   string
	Category string
	Format   Format
	SchoolID *uuid.UUID
}

// DownloadInfo is the response of a download request.
type DownloadInfo struct {
	DownloadURL string `json:"download_url"`
	BookTitle   string `json:"book_title"`
	FileSize    int64  `json:"file_size"`
}

// BookFile is an open digital file ready to be streamed to the client.
type BookFile struct {
	Filename  string
	MediaType string
	Size      int64
	Content   io.ReadSeekCloser
}

// Query is the store-level book filter. Search is only consulted when
// IDs is nil, as the SQL fallback for the search index.
type Query struct {
	IDs      []uuid.UUID
	Search   string
	Category string
	Format   Format
	SchoolID *uuid.UUID
}

// Store is the persistence contract the catalog service depends on.
type Store interface {
	CreateBook(ctx context.Context, book *Book, copies []*Copy) error
	BookByID(ctx context.Context, id uuid.UUID) (*Book, error)
	ListBooks(ctx context.Context, q Query) ([]*Book, error)
	UpdateBook(ctx context.Context, book *Book) error
	// DeleteBook removes the book with its copies and loans.
	DeleteBook(ctx context.Context, id uuid.UUID) error
	SetBookFile(ctx context.Context, id uuid.UUID, path string) error
	RecordDownload(ctx context.Context, d *Download) error
}

// SearchIndex is the full-text index collaborating with the catalog.
// Implementations may fail open; the service falls back to the store.
type SearchIndex interface {
	Index(ctx context.Context, book *Book) error
	Remove(ctx context.Context, id uuid.UUID) error
	Search(ctx context.Context, query string) ([]uuid.UUID, error)
}

// FileStore keeps uploaded digital book files and hands back opaque
// references the catalog persists on the book.
type FileStore interface {
	Save(bookID uuid.UUID, filename string, content io.Reader) (ref string, size int64, err error)
	Open(ref string) (io.ReadSeekCloser, int64, error)
}
