package ingest

import (
	"strings"

	"github.com/WessleyAI/cocktails/engine/domain"
)

// Synthesize renders a cocktail into its retrieval document. The output is a
// pure function of the cocktail.
func Synthesize(c domain.Cocktail) Document {
	var b strings.Builder
	b.WriteString("Name: " + c.Name + "\n")
	b.WriteString("Category: " + domain.StringOr(c.Category, "Unknown") + "\n")
	b.WriteString("Glass: " + domain.StringOr(c.Glass, "Unknown") + "\n")
	b.WriteString("Alcoholic: " + c.Alcoholic.String() + "\n")

	tags := "None"
	if len(c.Tags) > 0 {
		tags = strings.Join(c.Tags, ", ")
	}
	b.WriteString("Tags: " + tags + "\n")

	b.WriteString("Ingredients:\n")
	for _, ing := range c.Ingredients {
		b.WriteString("- " + ing.Name)
		if m := domain.StringOr(ing.Measure, ""); m != "" {
			b.WriteString(" - " + m)
		}
		if ing.Alcohol == domain.True {
			b.WriteString(" - alcoholic")
		}
		b.WriteString("\n")
	}

	if instr := domain.StringOr(c.Instructions, ""); instr != "" {
		b.WriteString("Instructions: " + instr)
	}

	return Document{
		Text:     b.String(),
		Metadata: Metadata{CocktailID: c.ID, Name: c.Name},
	}
}
