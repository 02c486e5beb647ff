package assistant

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuido-app/care-assistant/internal/records"
)

type stubExtractor struct {
	mu    sync.Mutex
	texts map[int64]string
	errs  map[int64]error

	inFlight    atomic.Int32
	maxInFlight atomic.Int32
	total       atomic.Int32
	delay       time.Duration
}

func (s *stubExtractor) calls() int {
	return int(s.total.Load())
}

func (s *stubExtractor) ExtractText(_ context.Context, doc records.Document) (string, error) {
	s.total.Add(1)
	cur := s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	for {
		max := s.maxInFlight.Load()
		if cur <= max || s.maxInFlight.CompareAndSwap(max, cur) {
			break
		}
	}
	if s.delay > 0 {
		time.Sleep(s.delay)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err, ok := s.errs[doc.ID]; ok {
		return "", err
	}
	return s.texts[doc.ID], nil
}

func TestExtractDocuments_PerDocumentErrorsDoNotAbortBatch(t *testing.T) {
	docs := []records.Document{
		{ID: 1, Name: "Hemograma"},
		{ID: 2, Name: "Receta ilegible"},
		{ID: 3, Name: "Ficha médica"},
	}
	ex := &stubExtractor{
		texts: map[int64]string{1: "glucosa 98 mg/dl", 3: "paciente estable"},
		errs:  map[int64]error{2: errors.New("ocr: unsupported mime type")},
	}

	res := ExtractDocuments(context.Background(), ex, docs, "", 2)

	assert.Equal(t, 2, res.DocumentsProcessed)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "Receta ilegible", res.Errors[0].Document)
	require.Len(t, res.FullTexts, 2)
	assert.Equal(t, "Hemograma", res.FullTexts[0].Name)
	assert.Equal(t, "Ficha médica", res.FullTexts[1].Name)
}

func TestExtractDocuments_SearchTermYieldsExcerpts(t *testing.T) {
	long := strings.Repeat("a", 500) + " Glucosa: 98 mg/dl " + strings.Repeat("b", 500)
	docs := []records.Document{
		{ID: 1, Name: "Hemograma"},
		{ID: 2, Name: "Ficha"},
	}
	ex := &stubExtractor{texts: map[int64]string{1: long, 2: "sin el término buscado"}}

	res := ExtractDocuments(context.Background(), ex, docs, "glucosa", 2)

	require.Len(t, res.Excerpts, 1)
	assert.Equal(t, "Hemograma", res.Excerpts[0].Document)
	assert.Contains(t, res.Excerpts[0].Excerpt, "Glucosa: 98 mg/dl")
	assert.True(t, strings.HasPrefix(res.Excerpts[0].Excerpt, "..."))
	assert.True(t, strings.HasSuffix(res.Excerpts[0].Excerpt, "..."))

	// the non-matching document falls back to full text
	require.Len(t, res.FullTexts, 1)
	assert.Equal(t, "Ficha", res.FullTexts[0].Name)
}

func TestExtractDocuments_CapsStoredText(t *testing.T) {
	docs := []records.Document{{ID: 1, Name: "Ficha"}}
	ex := &stubExtractor{texts: map[int64]string{1: strings.Repeat("x", 5000)}}

	res := ExtractDocuments(context.Background(), ex, docs, "", 1)

	require.Len(t, res.FullTexts, 1)
	assert.Len(t, res.FullTexts[0].Text, excerptCharLimit)
}

func TestExtractDocuments_BoundsConcurrency(t *testing.T) {
	docs := make([]records.Document, 10)
	texts := make(map[int64]string, len(docs))
	for i := range docs {
		docs[i] = records.Document{ID: int64(i + 1), Name: "doc"}
		texts[int64(i+1)] = "texto"
	}
	ex := &stubExtractor{texts: texts, delay: 10 * time.Millisecond}

	res := ExtractDocuments(context.Background(), ex, docs, "", 3)

	assert.Equal(t, 10, res.DocumentsProcessed)
	assert.LessOrEqual(t, ex.maxInFlight.Load(), int32(3))
}

func TestExtractDocuments_EmptyInput(t *testing.T) {
	res := ExtractDocuments(context.Background(), &stubExtractor{}, nil, "glucosa", 3)
	assert.Zero(t, res.DocumentsProcessed)
	assert.Empty(t, res.Errors)
}

func TestFindExcerpt(t *testing.T) {
	t.Run("short text returned whole without ellipses", func(t *testing.T) {
		frag, ok := findExcerpt("Glucosa normal.", "glucosa")
		require.True(t, ok)
		assert.Equal(t, "Glucosa normal.", frag)
	})

	t.Run("no hit", func(t *testing.T) {
		_, ok := findExcerpt("sin resultados", "glucosa")
		assert.False(t, ok)
	})

	t.Run("window is bounded around the hit", func(t *testing.T) {
		text := strings.Repeat("x", 1000) + "colesterol 180" + strings.Repeat("y", 1000)
		frag, ok := findExcerpt(text, "colesterol")
		require.True(t, ok)
		assert.Contains(t, frag, "colesterol 180")
		assert.LessOrEqual(t, len(frag), 2*excerptRadius+len("colesterol")+len("......"))
	})
}
