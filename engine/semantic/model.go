// Package semantic owns the retrieval index: chunk vectors with their text and
// the cocktail they came from, searchable by cosine similarity.
package semantic

import "context"

// DefaultTopK is the number of chunks returned when callers pass topK <= 0.
const DefaultTopK = 5

// Embedder turns text into a vector. Implementations wrap an external model.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Store is a vector index that can be filled once and searched many times.
type Store interface {
	Upsert(ctx context.Context, records []VectorRecord) error
	Search(ctx context.Context, embedding []float32, topK int) ([]SearchResult, error)
}

// SearchResult represents a single vector search hit.
type SearchResult struct {
	ID         string  `json:"id"`
	Score      float32 `json:"score"`
	Content    string  `json:"content"`
	CocktailID int     `json:"cocktail_id"`
	Name       string  `json:"name"`
	ChunkIndex int     `json:"chunk_index"`
}

// VectorRecord is one embedded chunk ready to be stored.
type VectorRecord struct {
	ID         string
	Embedding  []float32
	Content    string
	CocktailID int
	Name       string
	ChunkIndex int
}
