package assistant

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuido-app/care-assistant/internal/records"
)

func float64Ptr(v float64) *float64 { return &v }

func timePtr(t time.Time) *time.Time { return &t }

func TestBuildSystemContent_CanonicalOrder(t *testing.T) {
	birth := time.Date(1950, 3, 10, 0, 0, 0, 0, time.UTC)
	bundle := EvidenceBundle{
		Patient: &records.Patient{
			FullName:  "Elena Morales",
			BirthDate: &birth,
			Allergies: "Penicilina",
		},
		Medications:  []records.Medication{{Name: "Levotiroxina", Dose: "50mg"}},
		Appointments: []records.Appointment{{At: time.Date(2026, 9, 15, 10, 30, 0, 0, time.UTC), Doctor: "Dra. Paz"}},
		CareLogs:     []records.CareLogEntry{{Date: time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC), Description: "Durmió bien"}},
		Tasks:        []records.Task{{Title: "Comprar pañales"}},
		Contacts:     []records.EmergencyContact{{Name: "Jorge Morales", Phone: "1155550000", Primary: true}},
		DocumentList: []records.Document{{Name: "Hemograma", Category: records.DocTypeStudy}},
	}
	intents := IntentSet{
		IntentMedications:  {},
		IntentAppointments: {},
		IntentLogs:         {},
		IntentTasks:        {},
		IntentContacts:     {},
		IntentDocuments:    {},
	}

	out := BuildSystemContent(intents, bundle)

	headings := []string{
		"## INFORMACIÓN DEL PACIENTE:",
		"## MEDICAMENTOS ACTIVOS:",
		"## PRÓXIMAS CITAS MÉDICAS:",
		"## BITÁCORAS RECIENTES:",
		"## TAREAS PENDIENTES:",
		"## CONTACTOS DE EMERGENCIA:",
		"## DOCUMENTOS DISPONIBLES:",
	}
	last := -1
	for _, h := range headings {
		idx := strings.Index(out, h)
		require.GreaterOrEqual(t, idx, 0, "missing heading %q", h)
		assert.Greater(t, idx, last, "heading %q out of order", h)
		last = idx
	}
}

func TestBuildSystemContent_OnlyFiredIntentsRendered(t *testing.T) {
	bundle := EvidenceBundle{
		Patient:     &records.Patient{FullName: "Elena Morales"},
		Medications: []records.Medication{{Name: "Levotiroxina"}},
		Tasks:       []records.Task{{Title: "Comprar pañales"}},
	}

	out := BuildSystemContent(IntentSet{IntentMedications: {}}, bundle)

	assert.Contains(t, out, "## INFORMACIÓN DEL PACIENTE:")
	assert.Contains(t, out, "## MEDICAMENTOS ACTIVOS:")
	assert.NotContains(t, out, "TAREAS")
	assert.NotContains(t, out, "CITAS")
}

func TestBuildSystemContent_EmptyRequestedSectionSaysSo(t *testing.T) {
	out := BuildSystemContent(IntentSet{IntentMedications: {}}, EvidenceBundle{
		Patient: &records.Patient{FullName: "Elena Morales"},
	})

	assert.Contains(t, out, "No hay medicamentos activos registrados.")
}

func TestRenderPatientSection_OmitsUnknownFields(t *testing.T) {
	now := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	birth := time.Date(1950, 3, 10, 0, 0, 0, 0, time.UTC)

	full := renderPatientSection(&records.Patient{
		FullName:   "Elena Morales",
		BirthDate:  &birth,
		BloodType:  "0+",
		WeightKg:   float64Ptr(62.5),
		HeightM:    float64Ptr(1.58),
		Allergies:  "Penicilina",
		Conditions: "Hipotiroidismo",
		Insurance:  "OSDE",
	}, now)
	assert.Contains(t, full, "- **Nombre**: Elena Morales")
	assert.Contains(t, full, "- **Edad**: 76 años")
	assert.Contains(t, full, "- **Peso**: 62.5 kg")
	assert.Contains(t, full, "- **Altura**: 1.58 m")
	assert.Contains(t, full, "- **Obra Social**: OSDE")

	sparse := renderPatientSection(&records.Patient{FullName: "Elena Morales"}, now)
	assert.Contains(t, sparse, "- **Nombre**: Elena Morales")
	assert.NotContains(t, sparse, "Edad")
	assert.NotContains(t, sparse, "Peso")
	assert.NotContains(t, sparse, "Alergias")

	missing := renderPatientSection(nil, now)
	assert.Contains(t, missing, "No hay información del paciente disponible.")
}

func TestRenderMedicationSection_SchedulesAndDefaults(t *testing.T) {
	out := renderMedicationSection([]records.Medication{{
		Name:      "Levotiroxina",
		Dose:      "50mg",
		Frequency: "Diaria",
		Schedules: []records.MedicationSchedule{
			{Time: "08:00"},
			{Time: "20:00", Weekdays: "Lunes, Miércoles"},
		},
	}})

	assert.Contains(t, out, "### Levotiroxina")
	assert.Contains(t, out, "- Dosis: 50mg")
	assert.Contains(t, out, "  - 08:00 (Todos los días)")
	assert.Contains(t, out, "  - 20:00 (Lunes, Miércoles)")
}

func TestRenderAppointmentSection_FormatsDate(t *testing.T) {
	out := renderAppointmentSection([]records.Appointment{{
		At:        time.Date(2026, 9, 15, 10, 30, 0, 0, time.UTC),
		Doctor:    "Dra. Paz",
		Specialty: "Endocrinología",
	}})

	assert.Contains(t, out, "### 15/09/2026 a las 10:30")
	assert.Contains(t, out, "- Doctor/a: Dra. Paz")

	empty := renderAppointmentSection(nil)
	assert.Contains(t, empty, "No hay citas médicas próximas.")
}

func TestRenderCareLogSection_TitleFallsBackToDate(t *testing.T) {
	out := renderCareLogSection([]records.CareLogEntry{{
		Date:        time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC),
		Description: "Durmió bien",
	}})

	assert.Contains(t, out, "### Bitácora del 30/08/2026")
	assert.Contains(t, out, "- Descripción: Durmió bien")
}

func TestRenderTaskSection_DueDateAndPriority(t *testing.T) {
	due := time.Date(2026, 9, 3, 9, 0, 0, 0, time.UTC)
	out := renderTaskSection([]records.Task{{
		Title:    "Retirar análisis",
		DueAt:    timePtr(due),
		Priority: "ALTA",
	}})

	assert.Contains(t, out, "### Retirar análisis")
	assert.Contains(t, out, "- Vence: 03/09/2026 09:00")
	assert.Contains(t, out, "- Prioridad: ALTA")
}

func TestRenderDocumentExcerptSection(t *testing.T) {
	t.Run("excerpts win over full texts", func(t *testing.T) {
		out := renderDocumentExcerptSection(&ExtractionResult{
			DocumentsProcessed: 2,
			Excerpts: []Excerpt{
				{Document: "Hemograma completo", Excerpt: "...glucosa 98 mg/dl..."},
			},
			FullTexts: []ExtractedText{
				{Name: "Hemograma completo", Category: records.DocTypeStudy, Text: "texto completo"},
			},
		})

		assert.Contains(t, out, "## INFORMACIÓN DE DOCUMENTOS:")
		assert.Contains(t, out, "**Hemograma completo**:")
		assert.Contains(t, out, "glucosa 98 mg/dl")
		assert.NotContains(t, out, "texto completo")
	})

	t.Run("full texts are capped to two documents", func(t *testing.T) {
		out := renderDocumentExcerptSection(&ExtractionResult{
			DocumentsProcessed: 3,
			FullTexts: []ExtractedText{
				{Name: "Doc A", Category: records.DocTypeStudy, Text: "uno"},
				{Name: "Doc B", Category: records.DocTypeStudy, Text: "dos"},
				{Name: "Doc C", Category: records.DocTypeStudy, Text: "tres"},
			},
		})

		assert.Contains(t, out, "### Doc A")
		assert.Contains(t, out, "### Doc B")
		assert.NotContains(t, out, "Doc C")
	})

	t.Run("single failure footnote", func(t *testing.T) {
		out := renderDocumentExcerptSection(&ExtractionResult{
			DocumentsProcessed: 1,
			FullTexts:          []ExtractedText{{Name: "Doc A", Text: "uno"}},
			Errors: []ExtractionError{
				{Document: "Doc B", Err: assert.AnError},
				{Document: "Doc C", Err: assert.AnError},
			},
		})

		assert.Equal(t, 1, strings.Count(out, "**Nota**: Algunos documentos no pudieron ser procesados."))
	})

	t.Run("nothing processed", func(t *testing.T) {
		out := renderDocumentExcerptSection(&ExtractionResult{})
		assert.Contains(t, out, "No se encontraron documentos o no se pudieron procesar.")
	})
}

func TestTruncate_RespectsRuneBoundaries(t *testing.T) {
	s := "corazón" // ó is two bytes, starting at index 5
	assert.Equal(t, "coraz", truncate(s, 6))
	assert.Equal(t, s, truncate(s, 100))
}
