package ingest

import (
	"strings"
	"unicode"
)

const (
	// DefaultChunkSize is the maximum number of words per chunk.
	DefaultChunkSize = 1024
	// DefaultOverlap is the number of words repeated between adjacent chunks.
	DefaultOverlap = 200
)

// ChunkDocument splits a document into retrieval units. A document within
// chunkSize words yields exactly one chunk holding its verbatim text.
func ChunkDocument(doc Document, chunkSize, overlap int) []Chunk {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if wordCount(doc.Text) <= chunkSize {
		return []Chunk{{Text: doc.Text, Index: 0, Metadata: doc.Metadata}}
	}
	return chunkSentences(doc.Metadata, splitSentences(doc.Text), chunkSize, overlap)
}

// splitSentences splits text into sentences using punctuation and newlines.
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	for i, r := range text {
		current.WriteRune(r)
		if r != '.' && r != '!' && r != '?' && r != '\n' {
			continue
		}
		if r == '\n' || i == len(text)-1 || (i+1 < len(text) && unicode.IsSpace(rune(text[i+1]))) {
			if s := strings.TrimSpace(current.String()); s != "" {
				sentences = append(sentences, s)
			}
			current.Reset()
		}
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

// chunkSentences groups sentences into chunks of at most chunkSize words,
// stepping back by roughly overlap words between chunks. A single sentence
// longer than chunkSize becomes its own chunk.
func chunkSentences(meta Metadata, sentences []string, chunkSize, overlap int) []Chunk {
	if len(sentences) == 0 {
		return nil
	}
	if overlap < 0 {
		overlap = 0
	}

	var chunks []Chunk
	start := 0
	for start < len(sentences) {
		var buf strings.Builder
		words := 0
		end := start
		for end < len(sentences) {
			n := wordCount(sentences[end])
			if words+n > chunkSize && words > 0 {
				break
			}
			if buf.Len() > 0 {
				buf.WriteRune(' ')
			}
			buf.WriteString(sentences[end])
			words += n
			end++
		}

		chunks = append(chunks, Chunk{Text: buf.String(), Index: len(chunks), Metadata: meta})
		if end >= len(sentences) {
			break
		}

		back := 0
		next := end
		for next > start+1 && back < overlap {
			next--
			back += wordCount(sentences[next])
		}
		start = next
	}
	return chunks
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}
