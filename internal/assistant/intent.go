package assistant

import "strings"

// Intent is a topic tag attached to a caregiver message. Tags decide which
// data domains get fetched before the prompt is assembled.
type Intent string

const (
	IntentMedications  Intent = "medications"
	IntentAppointments Intent = "appointments"
	IntentLogs         Intent = "logs"
	IntentTasks        Intent = "tasks"
	IntentDocuments    Intent = "documents"
	IntentContacts     Intent = "contacts"
	IntentPatientInfo  Intent = "patient_info"
	IntentGeneral      Intent = "general"
)

// IntentSet is the non-exclusive set of intents detected in one message.
type IntentSet map[Intent]struct{}

// Has reports set membership.
func (s IntentSet) Has(i Intent) bool {
	_, ok := s[i]
	return ok
}

// Tags returns the detected intents as strings, order unspecified.
func (s IntentSet) Tags() []string {
	out := make([]string, 0, len(s))
	for i := range s {
		out = append(out, string(i))
	}
	return out
}

// intentKeywords is the fixed trigger-phrase table. A tag fires when any of
// its keywords appears anywhere in the lowercased message. The table lists
// accented and unaccented spellings because caregivers type both.
var intentKeywords = map[Intent][]string{
	IntentMedications: {
		"medicamento", "medicamentos", "medicina", "pastilla", "dosis", "tomar",
	},
	IntentAppointments: {
		"cita", "citas", "doctor", "médico", "médica", "consulta", "turno", "turnos",
	},
	IntentLogs: {
		"bitácora", "bitacora", "registro", "reporte", "anotación", "resumen",
		"sintomas", "sintoma", "sintió", "sintio",
	},
	IntentTasks: {
		"tarea", "tareas", "pendiente", "hacer", "to-do", "todo",
	},
	IntentDocuments: {
		"ficha", "radiografia", "documento", "documentos", "archivo",
		"análisis", "estudio", "receta",
	},
	IntentContacts: {
		"contacto", "contactos", "emergencia", "llamar", "teléfono",
		"número", "números", "numeros",
	},
	IntentPatientInfo: {
		"información", "datos", "dato", "paciente", "alergia", "alergias",
		"condición", "condiciones", "enfermedad",
	},
}

// DetectIntents classifies a raw message into intent tags. It is a total
// function: when nothing fires the result is exactly {general}.
func DetectIntents(message string) IntentSet {
	lower := strings.ToLower(message)
	intents := make(IntentSet)

	for intent, keywords := range intentKeywords {
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				intents[intent] = struct{}{}
				break
			}
		}
	}

	if len(intents) == 0 {
		intents[IntentGeneral] = struct{}{}
	}
	return intents
}
