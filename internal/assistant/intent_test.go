package assistant

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectIntents(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    []Intent
	}{
		{
			name:    "medication keyword",
			message: "¿Qué medicamentos debe tomar hoy?",
			want:    []Intent{IntentMedications},
		},
		{
			name:    "appointment keyword uppercase",
			message: "CUÁNDO ES LA PRÓXIMA CITA",
			want:    []Intent{IntentAppointments},
		},
		{
			name:    "multiple tags fire together",
			message: "resumen de las bitácoras y las tareas pendientes",
			want:    []Intent{IntentLogs, IntentTasks},
		},
		{
			name:    "documents via study keyword",
			message: "qué dice el último estudio",
			want:    []Intent{IntentDocuments},
		},
		{
			name:    "patient info",
			message: "tiene alguna alergia?",
			want:    []Intent{IntentPatientInfo},
		},
		{
			name:    "emergency contacts",
			message: "a quién puedo llamar en una emergencia",
			want:    []Intent{IntentContacts},
		},
		{
			name:    "no keyword collapses to general",
			message: "hola, cómo estás",
			want:    []Intent{IntentGeneral},
		},
		{
			name:    "empty message is general",
			message: "",
			want:    []Intent{IntentGeneral},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DetectIntents(tt.message)
			assert.Len(t, got, len(tt.want))
			for _, intent := range tt.want {
				assert.True(t, got.Has(intent), "expected %s to fire", intent)
			}
		})
	}
}

func TestDetectIntentsAlwaysNonEmpty(t *testing.T) {
	for _, msg := range []string{"", "   ", "xyz", "1234", "?!"} {
		assert.NotEmpty(t, DetectIntents(msg), "message %q", msg)
	}
}

func TestDetectIntentsGeneralOnlyWhenAlone(t *testing.T) {
	got := DetectIntents("dame la dosis")
	assert.True(t, got.Has(IntentMedications))
	assert.False(t, got.Has(IntentGeneral))
}
