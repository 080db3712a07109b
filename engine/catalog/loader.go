package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/WessleyAI/cocktails/engine/domain"
)

// Load reads a JSON array of cocktail records from path. A missing file or a
// malformed document yields an empty catalog and an error; invalid records
// are skipped and logged, never fatal.
func Load(path string, log *slog.Logger) (*Catalog, error) {
	if log == nil {
		log = slog.Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		log.Error("catalog: read failed", "path", path, "err", err)
		return New(nil), fmt.Errorf("catalog: read %s: %w", path, err)
	}

	c, err := Parse(data)
	if err != nil {
		log.Error("catalog: parse failed", "path", path, "err", err)
		return c, err
	}
	for _, s := range c.skipped {
		log.Warn("catalog: skipping invalid record", "id", s.ID, "err", s.Reason)
	}
	log.Info("catalog loaded",
		"path", path,
		"cocktails", c.Len(),
		"ingredients", len(c.ingredients),
		"skipped", len(c.skipped),
	)
	return c, nil
}

// Parse validates every record of a JSON array and builds the catalog.
func Parse(data []byte) (*Catalog, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var records []any
	if err := dec.Decode(&records); err != nil {
		return New(nil), fmt.Errorf("catalog: decode: %w", err)
	}
	if records == nil {
		return New(nil), errors.New("catalog: decode: top level must be a JSON array")
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return New(nil), errors.New("catalog: decode: extra data after top-level array")
	}

	var cocktails []domain.Cocktail
	var skipped []Skipped
	for _, raw := range records {
		c, err := domain.ValidateCocktail(raw).Unwrap()
		if err != nil {
			skipped = append(skipped, Skipped{ID: recordID(raw), Reason: err})
			continue
		}
		cocktails = append(cocktails, c)
	}

	cat := New(cocktails)
	cat.skipped = skipped
	return cat, nil
}

func recordID(raw any) string {
	rec, ok := raw.(map[string]any)
	if !ok {
		return MissingID
	}
	id, ok := rec["id"]
	if !ok || id == nil {
		return MissingID
	}
	return fmt.Sprint(id)
}
