package assistant

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectPatientName(t *testing.T) {
	cases := []struct {
		name    string
		message string
		want    string
	}{
		{
			name:    "del paciente with full name",
			message: "dame los medicamentos del paciente Juan Pérez",
			want:    "Juan Pérez",
		},
		{
			name:    "de la paciente",
			message: "las citas de la paciente María González",
			want:    "María González",
		},
		{
			name:    "mi paciente single name",
			message: "¿cómo está mi paciente Elena?",
			want:    "Elena",
		},
		{
			name:    "sobre el paciente",
			message: "necesito información sobre el paciente Carlos Ruiz Díaz",
			want:    "Carlos Ruiz Díaz",
		},
		{
			name:    "no name phrase",
			message: "¿qué medicamentos toma?",
			want:    "",
		},
		{
			name:    "phrase without name",
			message: "del paciente",
			want:    "",
		},
		{
			name:    "overlong capture rejected",
			message: "del paciente Juan Pérez García López Fernández",
			want:    "",
		},
		{
			name:    "too short capture rejected",
			message: "mi paciente ya",
			want:    "",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DetectPatientName(tc.message))
		})
	}
}
