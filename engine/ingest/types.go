package ingest

import "github.com/WessleyAI/cocktails/engine/semantic"

// Metadata links a document or chunk back to its cocktail.
type Metadata struct {
	CocktailID int    `json:"cocktail_id"`
	Name       string `json:"name"`
}

// Document is the retrieval text synthesized from one cocktail.
type Document struct {
	Text     string
	Metadata Metadata
}

// Chunk is a text segment ready for embedding.
type Chunk struct {
	Text     string
	Index    int
	Metadata Metadata
}

// record converts an embedded chunk into the store's representation.
func (c Chunk) record(embedding []float32) semantic.VectorRecord {
	return semantic.VectorRecord{
		ID:         PointID(c.Metadata.CocktailID, c.Index),
		Embedding:  embedding,
		Content:    c.Text,
		CocktailID: c.Metadata.CocktailID,
		Name:       c.Metadata.Name,
		ChunkIndex: c.Index,
	}
}
