// Package search maintains a session-scoped full-text index over the
// uploaded documents. The index is memory-only and lives and dies with
// the process, like the document store it mirrors.
package search

import (
	"fmt"
	"sync"

	"github.com/blevesearch/bleve/v2"
)

// Hit is one search match, identified by document ID.
type Hit struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

type Index struct {
	mu  sync.Mutex
	idx bleve.Index
}

func New() (*Index, error) {
	idx, err := newMemIndex()
	if err != nil {
		return nil, err
	}
	return &Index{idx: idx}, nil
}

func newMemIndex() (bleve.Index, error) {
	mapping := bleve.NewIndexMapping()
	idx, err := bleve.NewMemOnly(mapping)
	if err != nil {
		return nil, fmt.Errorf("search index init: %w", err)
	}
	return idx, nil
}

// Add indexes one document's name and extracted text. Callers pass an
// empty content string for documents whose extraction produced no prose
// (images, unreadable files); the name still matches then.
func (s *Index) Add(id, name, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.idx.Index(id, map[string]interface{}{
		"name":    name,
		"content": content,
	})
	if err != nil {
		return fmt.Errorf("index %s: %w", name, err)
	}
	return nil
}

// Remove drops one document from the index.
func (s *Index) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.idx.Delete(id)
}

// Reset replaces the index with a fresh empty one. Used when the whole
// session is cleared.
func (s *Index) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	fresh, err := newMemIndex()
	if err != nil {
		return err
	}
	old := s.idx
	s.idx = fresh
	return old.Close()
}

// Search runs a keyword query and returns up to limit hits, best first.
func (s *Index) Search(query string, limit int) ([]Hit, error) {
	if limit <= 0 {
		limit = 10
	}
	s.mu.Lock()
	idx := s.idx
	s.mu.Unlock()

	req := bleve.NewSearchRequest(bleve.NewMatchQuery(query))
	req.Size = limit
	res, err := idx.Search(req)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}

	hits := make([]Hit, 0, len(res.Hits))
	for _, h := range res.Hits {
		hits = append(hits, Hit{ID: h.ID, Score: h.Score})
	}
	return hits, nil
}

func (s *Index) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.idx.Close()
}
