// internal/catalog/domain.go
package catalog

import (
	"time"

	"github.com/google/uuid"
)

// Format describes how a book can be consumed.
type Format string

const (
	FormatPhysical Format = "physical"
	FormatDigital  Format = "digital"
	FormatBoth     Format = "both"
)

// Valid reports whether f is one of the known formats.
func (f Format) Valid() bool {
	switch f {
	case FormatPhysical, FormatDigital, FormatBoth:
		return true
	}
	return false
}

// HasPhysical reports whether physical copies exist for this format.
func (f Format) HasPhysical() bool { return f == FormatPhysical || f == FormatBoth }

// HasDigital reports whether a digital file may be attached.
func (f Format) HasDigital() bool { return f == FormatDigital || f == FormatBoth }

// Book represents a catalogue entry owned by a school.
type Book struct {
	ID          uuid.UUID `json:"id"`
	SchoolID    uuid.UUID `json:"school_id"`
	Title       string    `json:"title"`
	Authors     []string  `json:"authors"`
	ISBN        string    `json:"isbn,omitempty"`
	Description string    `json:"description,omitempty"`
	Categories  []string  `json:"categories"`
	Language    string    `json:"language"`
	Format      Format    `json:"format"`
	Price       float64   `json:"price,omitempty"`
	CoverImage  string    `json:"cover_image,omitempty"`
	FilePath    string    `json:"file_path,omitempty"`
	PublishedBy uuid.UUID `json:"published_by"`
	CreatedAt   time.Time `json:"created_at"`
}

// CopyStatus is the availability state of a physical copy.
type CopyStatus string

const (
	CopyAvailable CopyStatus = "available"
	CopyReserved  CopyStatus = "reserved"
	CopyBorrowed  CopyStatus = "borrowed"
	CopyDamaged   CopyStatus = "damaged"
)

// Copy is one physical exemplar of a book. At most one active loan may
// hold a copy at a time.
type Copy struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	BookID    uuid.UUID  `json:"book_id" db:"book_id"`
	Barcode   string     `json:"barcode" db:"barcode"`
	Condition string     `json:"condition" db:"condition"`
	Status    CopyStatus `json:"status" db:"status"`
	Location  string     `json:"location,omitempty" db:"location"`
}

// Download records a digital download for analytics.
type Download struct {
	ID           uuid.UUID `json:"id" db:"id"`
	BookID       uuid.UUID `json:"book_id" db:"book_id"`
	UserID       uuid.UUID `json:"user_id" db:"user_id"`
	BookTitle    string    `json:"book_title" db:"book_title"`
	DownloadedAt time.Time `json:"downloaded_at" db:"downloaded_at"`
}
