// Package search backs the catalogue's full-text search with a
// Meilisearch index. Calls go through a circuit breaker so an index
// outage degrades to the store fallback instead of failing requests.
package search

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/meilisearch/meilisearch-go"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"libreschool/internal/catalog"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const indexName = "books"

type document struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Authors     []string `json:"authors"`
	Description string   `json:"description"`
	Categories  []string `json:"categories"`
}

// Meili implements catalog.SearchIndex on a Meilisearch instance.
type Meili struct {
	index   meilisearch.IndexManager
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

// NewMeili connects to the given Meilisearch host.
func NewMeili(host, apiKey string, logger *zap.Logger) *Meili {
	client := meilisearch.New(host, meilisearch.WithAPIKey(apiKey))

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name: "meilisearch",
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("search breaker state change",
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})

	return &Meili{
		index:   client.Index(indexName),
		breaker: breaker,
		logger:  logger,
	}
}

// Index upserts the book document.
func (m *Meili) Index(ctx context.Context, book *catalog.Book) error {
	_, err := m.breaker.Execute(func() (interface{}, error) {
		doc := document{
			ID:          book.ID.String(),
			Title:       book.Title,
			Authors:     book.Authors,
			Description: book.Description,
			Categories:  book.Categories,
		}
		return m.index.AddDocumentsWithContext(ctx, []document{doc}, nil)
	})
	if err != nil {
		return fmt.Errorf("index book: %w", err)
	}
	return nil
}

// Remove deletes the book document.
func (m *Meili) Remove(ctx context.Context, id uuid.UUID) error {
	_, err := m.breaker.Execute(func() (interface{}, error) {
		return m.index.DeleteDocumentWithContext(ctx, id.String())
	})
	if err != nil {
		return fmt.Errorf("remove book from index: %w", err)
	}
	return nil
}

// Search returns the ids of matching books, best match first.
func (m *Meili) Search(ctx context.Context, query string) ([]uuid.UUID, error) {
	result, err := m.breaker.Execute(func() (interface{}, error) {
		return m.index.SearchWithContext(ctx, query, &meilisearch.SearchRequest{Limit: 100})
	})
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}

	resp, ok := result.(*meilisearch.SearchResponse)
	if !ok {
		return nil, fmt.Errorf("unexpected search response type %T", result)
	}

	raw, err := json.Marshal(resp.Hits)
	if err != nil {
		return nil, fmt.Errorf("marshal search hits: %w", err)
	}
	var hits []struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(raw, &hits); err != nil {
		return nil, fmt.Errorf("decode search hits: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(hits))
	for _, hit := range hits {
		id, err := uuid.Parse(hit.ID)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}
