// internal/store/books.go
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"libreschool/internal/apperr"
	"libreschool/internal/catalog"
)

var pgDialect = goqu.Dialect("postgres")

var bookColumns = []any{
	"id", "school_id", "title", "authors", "isbn", "description",
	"categories", "language", "format", "price", "cover_image",
	"file_path", "published_by", "created_at",
}

type bookRow struct {
	ID          uuid.UUID      `db:"id"`
	SchoolID    uuid.UUID      `db:"school_id"`
	Title       string         `db:"title"`
	Authors     pq.StringArray `db:"authors"`
	ISBN        string         `db:"isbn"`
	Description string         `db:"description"`
	Categories  pq.StringArray `db:"categories"`
	Language    string         `db:"language"`
	Format      string         `db:"format"`
	Price       float64        `db:"price"`
	CoverImage  string         `db:"cover_image"`
	FilePath    string         `db:"file_path"`
	PublishedBy uuid.UUID      `db:"published_by"`
	CreatedAt   time.Time      `db:"created_at"`
}

func (r bookRow) toDomain() *catalog.Book {
	return &catalog.Book{
		ID:          r.ID,
		SchoolID:    r.SchoolID,
		Title:       r.Title,
		Authors:     r.Authors,
		ISBN:        r.ISBN,
		Description: r.Description,
		Categories:  r.Categories,
		Language:    r.Language,
		Format:      catalog.Format(r.Format),
		Price:       r.Price,
		CoverImage:  r.CoverImage,
		FilePath:    r.FilePath,
		PublishedBy: r.PublishedBy,
		CreatedAt:   r.CreatedAt,
	}
}

// CreateBook persists a book and its initial copies in one transaction.
func (s *Store) CreateBook(ctx context.Context, book *catalog.Book, copies []*catalog.Copy) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO books (id, school_id, title, authors, isbn, description, categories,
				language, format, price, cover_image, file_path, published_by, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		`, book.ID, book.SchoolID, book.Title, pq.Array(book.Authors), book.ISBN, book.Description,
			pq.Array(book.Categories), book.Language, book.Format, book.Price, book.CoverImage,
			book.FilePath, book.PublishedBy, book.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert book: %w", err)
		}

		for _, c := range copies {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO copies (id, book_id, barcode, condition, status, location)
				VALUES ($1, $2, $3, $4, $5, $6)
			`, c.ID, c.BookID, c.Barcode, c.Condition, c.Status, c.Location)
			if err != nil {
				return fmt.Errorf("insert copy: %w", err)
			}
		}
		return nil
	})
}

// BookByID loads a book by id.
func (s *Store) BookByID(ctx context.Context, id uuid.UUID) (*catalog.Book, error) {
	var row bookRow
	err := s.db.GetContext(ctx, &row, `
		SELECT id, school_id, title, authors, isbn, description, categories,
			language, format, price, cover_image, file_path, published_by, created_at
		FROM books WHERE id = $1
	`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("book not found")
		}
		return nil, fmt.Errorf("query book: %w", err)
	}
	return row.toDomain(), nil
}

// ListBooks returns books matching the query, newest first.
func (s *Store) ListBooks(ctx context.Context, q catalog.Query) ([]*catalog.Book, error) {
	ds := pgDialect.From("books").
		Select(bookColumns...).
		Order(goqu.C("created_at").Desc())

	if len(q.IDs) > 0 {
		ids := make([]string, len(q.IDs))
		for i, id := range q.IDs {
			ids[i] = id.String()
		}
		ds = ds.Where(goqu.C("id").In(ids))
	}
	if q.Search != "" {
		pattern := "%" + q.Search + "%"
		ds = ds.Where(goqu.Or(
			goqu.C("title").ILike(pattern),
			goqu.C("description").ILike(pattern),
			goqu.L("array_to_string(authors, ' ') ILIKE ?", pattern),
		))
	}
	if q.Category != "" {
		ds = ds.Where(goqu.L("? = ANY(categories)", q.Category))
	}
	if q.Format != "" {
		ds = ds.Where(goqu.C("format").Eq(string(q.Format)))
	}
	if q.SchoolID != nil {
		ds = ds.Where(goqu.C("school_id").Eq(q.SchoolID.String()))
	}

	query, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build book query: %w", err)
	}

	rows, err := s.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	defer rows.Close()

	books := []*catalog.Book{}
	for rows.Next() {
		var row bookRow
		if err := rows.StructScan(&row); err != nil {
			return nil, fmt.Errorf("scan book: %w", err)
		}
		books = append(books, row.toDomain())
	}
	return books, rows.Err()
}

// UpdateBook replaces the editable fields of a book.
func (s *Store) UpdateBook(ctx context.Context, book *catalog.Book) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE books
		SET title = $1, authors = $2, isbn = $3, description = $4, categories = $5,
			language = $6, format = $7, price = $8, cover_image = $9, file_path = $10
		WHERE id = $11
	`, book.Title, pq.Array(book.Authors), book.ISBN, book.Description,
		pq.Array(book.Categories), book.Language, book.Format, book.Price,
		book.CoverImage, book.FilePath, book.ID)
	if err != nil {
		return fmt.Errorf("update book: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("book not found")
	}
	return nil
}

// DeleteBook removes a book with its copies and loans.
func (s *Store) DeleteBook(ctx context.Context, id uuid.UUID) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM loans WHERE book_id = $1`, id); err != nil {
			return fmt.Errorf("delete loans: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM copies WHERE book_id = $1`, id); err != nil {
			return fmt.Errorf("delete copies: %w", err)
		}

		res, err := tx.ExecContext(ctx, `DELETE FROM books WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("delete book: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return apperr.NotFound("book not found")
		}
		return nil
	})
}

// SetBookFile stores the digital file reference on the book.
func (s *Store) SetBookFile(ctx context.Context, id uuid.UUID, path string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE books SET file_path = $1 WHERE id = $2`, path, id)
	if err != nil {
		return fmt.Errorf("set book file: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("book not found")
	}
	return nil
}

// RecordDownload persists a download analytics record.
func (s *Store) RecordDownload(ctx context.Context, d *catalog.Download) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO downloads (id, book_id, user_id, book_title, downloaded_at)
		VALUES ($1, $2, $3, $4, $5)
	`, d.ID, d.BookID, d.UserID, d.BookTitle, d.DownloadedAt)
	if err != nil {
		return fmt.Errorf("record download: %w", err)
	}
	return nil
}
