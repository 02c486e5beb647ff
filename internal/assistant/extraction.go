package assistant

import (
	"context"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/cuido-app/care-assistant/internal/records"
)

// excerptRadius is how many characters around a search-term hit survive
// into the excerpt.
const excerptRadius = 300

// defaultExtractionConcurrency bounds parallel extraction calls when the
// caller passes a non-positive value.
const defaultExtractionConcurrency = 3

// TextExtractor turns a stored document into plain text. Implementations
// live outside this package (the OCR client in internal/ocr satisfies it).
type TextExtractor interface {
	ExtractText(ctx context.Context, doc records.Document) (string, error)
}

// ExtractedText is one successfully extracted document body, capped to
// excerptCharLimit characters.
type ExtractedText struct {
	DocumentID int64
	Name       string
	Category   string
	Text       string
}

// Excerpt is the fragment of one document surrounding a search-term hit.
type Excerpt struct {
	DocumentID int64
	Document   string
	Excerpt    string
}

// ExtractionError records one document that could not be processed. The
// failure never aborts the batch.
type ExtractionError struct {
	DocumentID int64
	Document   string
	Err        error
}

// ExtractionResult is the outcome of one extraction batch.
type ExtractionResult struct {
	DocumentsProcessed int
	FullTexts          []ExtractedText
	Excerpts           []Excerpt
	Errors             []ExtractionError
}

// ExtractDocuments runs the extractor over docs with at most concurrency
// in-flight calls. Each document succeeds or fails on its own. When
// searchTerm is non-empty, documents whose text contains it contribute an
// excerpt instead of their full text. Result ordering follows docs.
func ExtractDocuments(ctx context.Context, extractor TextExtractor, docs []records.Document, searchTerm string, concurrency int) ExtractionResult {
	if len(docs) == 0 || extractor == nil {
		return ExtractionResult{}
	}
	if concurrency <= 0 {
		concurrency = defaultExtractionConcurrency
	}

	type outcome struct {
		text string
		err  error
	}
	outcomes := make([]outcome, len(docs))

	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup
	for i := range docs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			text, err := extractor.ExtractText(ctx, docs[i])
			outcomes[i] = outcome{text: text, err: err}
		}(i)
	}
	wg.Wait()

	term := strings.ToLower(strings.TrimSpace(searchTerm))

	var res ExtractionResult
	for i, doc := range docs {
		out := outcomes[i]
		if out.err != nil {
			res.Errors = append(res.Errors, ExtractionError{DocumentID: doc.ID, Document: doc.Name, Err: out.err})
			continue
		}
		res.DocumentsProcessed++

		if term != "" {
			if frag, ok := findExcerpt(out.text, term); ok {
				res.Excerpts = append(res.Excerpts, Excerpt{DocumentID: doc.ID, Document: doc.Name, Excerpt: frag})
				continue
			}
		}
		res.FullTexts = append(res.FullTexts, ExtractedText{
			DocumentID: doc.ID,
			Name:       doc.Name,
			Category:   doc.Category,
			Text:       truncate(out.text, excerptCharLimit),
		})
	}
	return res
}

// findExcerpt locates the first case-insensitive occurrence of term in text
// and returns up to excerptRadius characters on each side, with ellipses
// marking cut edges.
func findExcerpt(text, term string) (string, bool) {
	lower := strings.ToLower(text)
	idx := strings.Index(lower, term)
	if idx < 0 {
		return "", false
	}

	start := idx - excerptRadius
	if start < 0 {
		start = 0
	}
	for start > 0 && !utf8.RuneStart(text[start]) {
		start--
	}
	end := idx + len(term) + excerptRadius
	if end > len(text) {
		end = len(text)
	}
	for end < len(text) && !utf8.RuneStart(text[end]) {
		end++
	}

	frag := text[start:end]
	if start > 0 {
		frag = "..." + frag
	}
	if end < len(text) {
		frag += "..."
	}
	return frag, true
}
