package semantic

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
)

// MemoryStore is an in-process index using brute-force cosine similarity.
// Results are ordered by score, ties by insertion order.
type MemoryStore struct {
	mu        sync.RWMutex
	dimension int
	records   []VectorRecord
	norms     []float64
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

// Len returns the number of stored records.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Upsert appends records. The first record fixes the vector dimension.
func (s *MemoryStore) Upsert(_ context.Context, records []VectorRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range records {
		if len(r.Embedding) == 0 {
			return fmt.Errorf("semantic: record %s has an empty embedding", r.ID)
		}
		if s.dimension == 0 {
			s.dimension = len(r.Embedding)
		}
		if len(r.Embedding) != s.dimension {
			return fmt.Errorf("semantic: record %s: dimension %d, index has %d", r.ID, len(r.Embedding), s.dimension)
		}
	}
	for _, r := range records {
		s.records = append(s.records, r)
		s.norms = append(s.norms, norm(r.Embedding))
	}
	return nil
}

// Search returns the topK records most similar to embedding.
func (s *MemoryStore) Search(_ context.Context, embedding []float32, topK int) ([]SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if topK <= 0 {
		topK = DefaultTopK
	}
	if len(s.records) == 0 {
		return []SearchResult{}, nil
	}
	if len(embedding) != s.dimension {
		return nil, errors.New("semantic: query vector dimension mismatch")
	}

	qn := norm(embedding)
	idxs := make([]int, len(s.records))
	scores := make([]float64, len(s.records))
	for i, r := range s.records {
		idxs[i] = i
		scores[i] = cosine(r.Embedding, s.norms[i], embedding, qn)
	}
	sort.SliceStable(idxs, func(a, b int) bool { return scores[idxs[a]] > scores[idxs[b]] })

	if topK > len(idxs) {
		topK = len(idxs)
	}
	results := make([]SearchResult, topK)
	for i := 0; i < topK; i++ {
		r := s.records[idxs[i]]
		results[i] = SearchResult{
			ID:         r.ID,
			Score:      float32(scores[idxs[i]]),
			Content:    r.Content,
			CocktailID: r.CocktailID,
			Name:       r.Name,
			ChunkIndex: r.ChunkIndex,
		}
	}
	return results, nil
}

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// cosine is 0 when either vector has zero length.
func cosine(a []float32, an float64, b []float32, bn float64) float64 {
	if an == 0 || bn == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot / (an * bn)
}
