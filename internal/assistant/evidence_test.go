package assistant

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuido-app/care-assistant/internal/records"
)

func testCatalog() []records.Document {
	return []records.Document{
		{ID: 1, Name: "Análisis de Sangre Nov2025", Description: "hemograma completo", Category: records.DocTypeMedicalRecord},
		{ID: 2, Name: "Radiografia torax", Description: "control anual", Category: records.DocTypeStudy},
		{ID: 3, Name: "Receta oftalmólogo", Description: "", Category: records.DocTypePrescription},
		{ID: 4, Name: "Carnet obra social", Description: "", Category: records.DocTypeOther},
	}
}

func TestSelectDocuments_PhraseMatchSelectsTargets(t *testing.T) {
	sel := SelectDocuments(testCatalog(), "¿qué dice el análisis de sangre?", "")

	require.Len(t, sel.Targets, 1)
	assert.Equal(t, int64(1), sel.Targets[0].ID)
	assert.Len(t, sel.Display, 4)
}

func TestSelectDocuments_NoPhraseMatchNeverExtracts(t *testing.T) {
	// Summary intent alone must not trigger extraction: precision over recall.
	sel := SelectDocuments(testCatalog(), "dame un resumen completo de todo", "")

	assert.True(t, sel.SummaryRequested)
	assert.Empty(t, sel.Targets)
	assert.False(t, sel.ExtractionWarranted())
}

func TestSelection_ExtractionWarranted(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    bool
	}{
		{"summary keyword with candidates", "dame un resumen del análisis de sangre", true},
		{"search term with candidates", "¿qué dice el análisis de sangre sobre la glucosa?", true},
		{"candidates but no content request", "¿tengo cargado el análisis de sangre?", false},
		{"summary keyword without candidates", "dame un resumen completo de todo", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel := SelectDocuments(testCatalog(), tt.message, "")
			assert.Equal(t, tt.want, sel.ExtractionWarranted())
		})
	}
}

func TestSelectDocuments_SearchTermWithoutCandidates(t *testing.T) {
	catalog := []records.Document{
		{ID: 9, Name: "Carnet obra social", Category: records.DocTypeOther},
	}
	sel := SelectDocuments(catalog, "cuánto dio la glucosa en el último control", "")

	assert.Equal(t, "glucosa", sel.SearchTerm)
	assert.Empty(t, sel.Targets, "no phrase match means no extraction targets")
}

func TestSelectDocuments_UnionAcrossRulesDeduplicates(t *testing.T) {
	// "estudio" and "radiografia" both trigger rules whose match lists
	// include radiografia; the document must appear once.
	sel := SelectDocuments(testCatalog(), "mostrame el estudio de la radiografia", "")

	var ids []int64
	for _, d := range sel.Targets {
		ids = append(ids, d.ID)
	}
	assert.ElementsMatch(t, []int64{2, 3}, ids)
}

func TestSelectDocuments_CategoryFilterAppliesToDisplayAndTargets(t *testing.T) {
	sel := SelectDocuments(testCatalog(), "análisis de sangre y radiografia", records.DocTypeMedicalRecord)

	require.Len(t, sel.Display, 1)
	assert.Equal(t, int64(1), sel.Display[0].ID)
	require.Len(t, sel.Targets, 1)
	assert.Equal(t, int64(1), sel.Targets[0].ID)
}

func TestSelectDocuments_FirstSearchTermWins(t *testing.T) {
	sel := SelectDocuments(nil, "control de tiroides y colesterol", "")
	assert.Equal(t, "tiroides", sel.SearchTerm)
}

func TestSelectDocuments_EmptyCatalog(t *testing.T) {
	sel := SelectDocuments(nil, "análisis de sangre", "")
	assert.Empty(t, sel.Display)
	assert.Empty(t, sel.Targets)
}
