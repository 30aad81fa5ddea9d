package knowledge

import (
	"sort"
	"strings"
	"unicode"
)

// Chunk is a paragraph of a knowledge document
type Chunk struct {
	Source string
	Index  int
	Text   string
	terms  map[string]bool
}

// Base is an in memory set of knowledge chunks
type Base struct {
	chunks []*Chunk
}

// NewBase splits documents into paragraph chunks
func NewBase(docs ...*Document) *Base {
	ret := &Base{}
	for _, doc := range docs {
		ret.Add(doc)
	}
	return ret
}

// Add splits doc into chunks
func (b *Base) Add(doc *Document) {
	if doc == nil {
		return
	}
	index := 0
	for _, paragraph := range strings.Split(strings.ReplaceAll(doc.Content, "\r\n", "\n"), "\n\n") {
		if paragraph = strings.TrimSpace(paragraph); paragraph == "" {
			continue
		}
		b.chunks = append(b.chunks, &Chunk{Source: doc.Name, Index: index, Text: paragraph, terms: termSet(paragraph)})
		index++
	}
}

// Len returns the number of chunks
func (b *Base) Len() int {
	if b == nil {
		return 0
	}
	return len(b.chunks)
}

// Retrieve returns the chunks sharing the most terms with query, best first,
// within a maxChars budget (0 means unlimited). With an empty query the
// chunks are returned in document order.
func (b *Base) Retrieve(query string, maxChars int) []*Chunk {
	if b.Len() == 0 {
		return nil
	}
	queryTerms := termSet(query)
	type scored struct {
		chunk *Chunk
		score int
		order int
	}
	candidates := make([]scored, 0, len(b.chunks))
	for i, chunk := range b.chunks {
		score := 0
		for term := range queryTerms {
			if chunk.terms[term] {
				score++
			}
		}
		if len(queryTerms) > 0 && score == 0 {
			continue
		}
		candidates = append(candidates, scored{chunk: chunk, score: score, order: i})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].order < candidates[j].order
	})
	var ret []*Chunk
	used := 0
	for _, candidate := range candidates {
		size := len(candidate.chunk.Text)
		if maxChars > 0 && used+size > maxChars {
			continue
		}
		used += size
		ret = append(ret, candidate.chunk)
	}
	return ret
}

// Context renders the retrieved chunks as a prompt section
func (b *Base) Context(query string, maxChars int) string {
	chunks := b.Retrieve(query, maxChars)
	if len(chunks) == 0 {
		return ""
	}
	builder := strings.Builder{}
	for i, chunk := range chunks {
		if i > 0 {
			builder.WriteString("\n\n")
		}
		builder.WriteString("[" + chunk.Source + "]\n")
		builder.WriteString(chunk.Text)
	}
	return builder.String()
}

func termSet(text string) map[string]bool {
	ret := map[string]bool{}
	for _, term := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		if len(term) > 2 {
			ret[term] = true
		}
	}
	return ret
}
