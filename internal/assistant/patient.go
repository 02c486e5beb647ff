package assistant

import (
	"regexp"
	"strings"
)

// Phrases that introduce a patient by name. Checked in order; the first
// capture wins.
var patientNamePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:del paciente |de la paciente |para el paciente |sobre el paciente )((?:[A-ZÁÉÍÓÚÑ][a-záéíóúñ]+\s?)+)`),
	regexp.MustCompile(`(?i)(?:mi paciente |el paciente |la paciente )((?:[A-ZÁÉÍÓÚÑ][a-záéíóúñ]+\s?)+)`),
}

// DetectPatientName pulls a capitalized patient name out of a caregiver
// message, e.g. "los medicamentos del paciente Juan Pérez". Returns the
// empty string when no plausible name is present. Names longer than three
// words or shorter than three characters are rejected as noise.
func DetectPatientName(message string) string {
	for _, re := range patientNamePatterns {
		m := re.FindStringSubmatch(message)
		if m == nil {
			continue
		}
		name := strings.TrimSpace(m[1])
		if len(name) < 3 {
			continue
		}
		if len(strings.Fields(name)) > 3 {
			continue
		}
		return name
	}
	return ""
}
