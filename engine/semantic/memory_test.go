package semantic

import (
	"context"
	"testing"
)

func rec(id string, cocktail int, v ...float32) VectorRecord {
	return VectorRecord{ID: id, Embedding: v, Content: "chunk " + id, CocktailID: cocktail, Name: id}
}

func TestMemoryStore_SearchOrdersByScore(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	err := s.Upsert(ctx, []VectorRecord{
		rec("a", 1, 1, 0),
		rec("b", 2, 0, 1),
		rec("c", 3, 1, 1),
	})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if s.Len() != 3 {
		t.Fatalf("Len = %d, want 3", s.Len())
	}

	res, err := s.Search(ctx, []float32{1, 0.1}, 2)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(res) != 2 {
		t.Fatalf("got %d results, want 2", len(res))
	}
	if res[0].ID != "a" || res[1].ID != "c" {
		t.Errorf("order = %s,%s, want a,c", res[0].ID, res[1].ID)
	}
	if res[0].CocktailID != 1 || res[0].Content != "chunk a" {
		t.Errorf("unexpected payload: %+v", res[0])
	}
	if res[0].Score < res[1].Score {
		t.Error("scores not descending")
	}
}

func TestMemoryStore_TiesKeepInsertionOrder(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	_ = s.Upsert(ctx, []VectorRecord{
		rec("first", 1, 2, 0),
		rec("second", 2, 1, 0),
		rec("third", 3, 3, 0),
	})
	res, err := s.Search(ctx, []float32{1, 0}, 3)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	for i, want := range []string{"first", "second", "third"} {
		if res[i].ID != want {
			t.Errorf("res[%d] = %s, want %s", i, res[i].ID, want)
		}
	}
}

func TestMemoryStore_DefaultTopK(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	for i := 0; i < 8; i++ {
		_ = s.Upsert(ctx, []VectorRecord{rec(string(rune('a'+i)), i, 1, float32(i))})
	}
	res, _ := s.Search(ctx, []float32{1, 1}, 0)
	if len(res) != DefaultTopK {
		t.Errorf("got %d results, want %d", len(res), DefaultTopK)
	}
}

func TestMemoryStore_Empty(t *testing.T) {
	res, err := NewMemoryStore().Search(context.Background(), []float32{1}, 3)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if res == nil || len(res) != 0 {
		t.Errorf("expected empty non-nil slice, got %v", res)
	}
}

func TestMemoryStore_DimensionMismatch(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	if err := s.Upsert(ctx, []VectorRecord{rec("a", 1, 1, 0)}); err != nil {
		t.Fatal(err)
	}
	if err := s.Upsert(ctx, []VectorRecord{rec("b", 2, 1, 0, 0)}); err == nil {
		t.Error("expected upsert dimension error")
	}
	if s.Len() != 1 {
		t.Errorf("failed upsert must not store records, Len = %d", s.Len())
	}
	if _, err := s.Search(ctx, []float32{1, 0, 0}, 1); err == nil {
		t.Error("expected search dimension error")
	}
}

func TestMemoryStore_EmptyEmbedding(t *testing.T) {
	if err := NewMemoryStore().Upsert(context.Background(), []VectorRecord{{ID: "x"}}); err == nil {
		t.Error("expected error for empty embedding")
	}
}

func TestMemoryStore_ZeroVectorScoresZero(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	_ = s.Upsert(ctx, []VectorRecord{rec("zero", 1, 0, 0), rec("one", 2, 0, 1)})
	res, _ := s.Search(ctx, []float32{0, 1}, 2)
	if res[0].ID != "one" || res[1].Score != 0 {
		t.Errorf("unexpected results: %+v", res)
	}
}
