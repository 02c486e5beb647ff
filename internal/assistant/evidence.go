package assistant

import (
	"strings"

	"github.com/cuido-app/care-assistant/internal/records"
)

// Selection is the evidence selector's verdict for one message: what to show
// as metadata, what to send to the OCR collaborator, and what term to search
// for inside the extracted text.
type Selection struct {
	// Display is the catalog (optionally category-filtered), always cheap.
	Display []records.Document
	// Targets are the documents worth the cost of text extraction. Empty
	// means extraction is skipped for this turn.
	Targets []records.Document
	// SearchTerm is the first medical vocabulary word found in the message.
	SearchTerm string
	// SummaryRequested is true when the message asks for a summary or a
	// full description of document contents.
	SummaryRequested bool
}

// ExtractionWarranted reports whether the costly extraction call should be
// made: a phrase rule must have pinned down at least one document, and the
// caregiver must have asked for contents, either by a summary keyword or by
// naming a term to search for.
func (s Selection) ExtractionWarranted() bool {
	return len(s.Targets) > 0 && (s.SummaryRequested || s.SearchTerm != "")
}

// searchVocabulary is the fixed list of medical terms searched for inside
// extracted document text. First hit wins.
var searchVocabulary = []string{
	"tiroides", "glucosa", "presión", "presion", "colesterol", "hemograma",
}

// summaryKeywords signal that the caregiver wants document contents spelled
// out rather than just listed.
var summaryKeywords = []string{
	"resumen", "resumir", "detalle", "detallada", "explicación", "explicacion",
	"completa", "completo",
}

// phraseRule maps trigger phrases in the message to substrings matched
// against a document's name and description. The radiografía triggers appear
// in two rules on purpose; targets are unioned and de-duplicated, so the
// overlap only widens the match.
type phraseRule struct {
	triggers []string
	match    []string
}

var documentPhraseRules = []phraseRule{
	{
		triggers: []string{"análisis de sangre", "analisis de sangre", "hemograma", "sangre"},
		match:    []string{"sangre", "hemograma"},
	},
	{
		triggers: []string{"radiografía", "radiografia", "rayos x", "placa"},
		match:    []string{"radiografía", "radiografia", "rayos"},
	},
	{
		triggers: []string{"ecografía", "ecografia", "ultrasonido"},
		match:    []string{"ecografía", "ecografia", "ultrasonido"},
	},
	{
		triggers: []string{"electrocardiograma", "ecg"},
		match:    []string{"electrocardiograma", "ecg"},
	},
	{
		triggers: []string{"estudio", "radiografia", "receta"},
		match:    []string{"estudio", "radiografia", "receta"},
	},
}

// SelectDocuments decides which stored documents warrant text extraction.
// Extraction only fires when a phrase rule pins down a specific subset of
// the catalog: extracting the whole catalog on a vague question would cost
// far more latency than the answer is worth, so no fallback exists.
func SelectDocuments(catalog []records.Document, message, requestedCategory string) Selection {
	lower := strings.ToLower(message)

	sel := Selection{
		SearchTerm:       firstSearchTerm(lower),
		SummaryRequested: containsAny(lower, summaryKeywords),
	}

	for _, doc := range catalog {
		if requestedCategory != "" && doc.Category != requestedCategory {
			continue
		}
		sel.Display = append(sel.Display, doc)
	}

	seen := make(map[int64]struct{})
	for _, rule := range documentPhraseRules {
		if !containsAny(lower, rule.triggers) {
			continue
		}
		for _, doc := range sel.Display {
			if _, dup := seen[doc.ID]; dup {
				continue
			}
			haystack := strings.ToLower(doc.Name + " " + doc.Description)
			if containsAny(haystack, rule.match) {
				seen[doc.ID] = struct{}{}
				sel.Targets = append(sel.Targets, doc)
			}
		}
	}

	return sel
}

func firstSearchTerm(lowerMessage string) string {
	for _, term := range searchVocabulary {
		if strings.Contains(lowerMessage, term) {
			return term
		}
	}
	return ""
}

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}
