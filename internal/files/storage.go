// Package files stores uploaded digital book files on local disk and
// exposes them through opaque references kept on the catalogue entry.
package files

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Storage keeps files under a single root directory.
type Storage struct {
	root string
}

// NewStorage prepares the root directory.
func NewStorage(root string) (*Storage, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads directory: %w", err)
	}
	return &Storage{root: root}, nil
}

// Save writes the content and returns the reference to store.
func (s *Storage) Save(bookID uuid.UUID, filename string, content io.Reader) (string, int64, error) {
	ref := fmt.Sprintf("%s_%s", bookID, sanitize(filename))

	f, err := os.Create(filepath.Join(s.root, ref))
	if err != nil {
		return "", 0, fmt.Errorf("create file: %w", err)
	}
	defer f.Close()

	size, err := io.Copy(f, content)
	if err != nil {
		os.Remove(f.Name())
		return "", 0, fmt.Errorf("write file: %w", err)
	}

	return ref, size, nil
}

// Open returns the file behind a reference together with its size.
func (s *Storage) Open(ref string) (io.ReadSeekCloser, int64, error) {
	path := filepath.Join(s.root, filepath.Base(ref))

	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open file: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, fmt.Errorf("stat file: %w", err)
	}

	return f, info.Size(), nil
}

// sanitize strips path separators so a reference can never escape the
// storage root.
func sanitize(filename string) string {
	filename = filepath.Base(filename)
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':':
			return '_'
		}
		return r
	}, filename)
}
