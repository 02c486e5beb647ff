package assistant

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/cuido-app/care-assistant/internal/records"
)

// excerptCharLimit bounds how much of one document's text ever reaches the
// prompt. Applied before budget enforcement so a single huge scan cannot
// dominate the context window.
const excerptCharLimit = 2000

// maxFullTextDocuments caps how many full document bodies are rendered when
// no search term narrowed the extraction down to excerpts.
const maxFullTextDocuments = 2

// EvidenceBundle collects everything fetched for one turn. Slices are only
// rendered for intents that fired, so nil simply means "not requested".
type EvidenceBundle struct {
	Patient      *records.Patient
	Medications  []records.Medication
	Appointments []records.Appointment
	CareLogs     []records.CareLogEntry
	Tasks        []records.Task
	Contacts     []records.EmergencyContact
	DocumentList []records.Document
	Extraction   *ExtractionResult
}

// BuildSystemContent renders the instruction header plus the context
// sections for the fired intents, in canonical order: patient profile,
// medications, appointments, care logs, tasks, contacts, document listing,
// document excerpts.
func BuildSystemContent(intents IntentSet, bundle EvidenceBundle) string {
	var sb strings.Builder
	sb.WriteString(systemInstructions)

	sb.WriteString(renderPatientSection(bundle.Patient, time.Now()))

	if intents.Has(IntentMedications) {
		sb.WriteString(renderMedicationSection(bundle.Medications))
	}
	if intents.Has(IntentAppointments) {
		sb.WriteString(renderAppointmentSection(bundle.Appointments))
	}
	if intents.Has(IntentLogs) {
		sb.WriteString(renderCareLogSection(bundle.CareLogs))
	}
	if intents.Has(IntentTasks) {
		sb.WriteString(renderTaskSection(bundle.Tasks))
	}
	if intents.Has(IntentContacts) {
		sb.WriteString(renderContactSection(bundle.Contacts))
	}
	if intents.Has(IntentDocuments) {
		sb.WriteString(renderDocumentListSection(bundle.DocumentList))
		if bundle.Extraction != nil {
			sb.WriteString(renderDocumentExcerptSection(bundle.Extraction))
		}
	}

	return sb.String()
}

func renderPatientSection(p *records.Patient, now time.Time) string {
	var sb strings.Builder
	sb.WriteString("\n\n## INFORMACIÓN DEL PACIENTE:\n")
	if p == nil {
		sb.WriteString("No hay información del paciente disponible.\n")
		return sb.String()
	}

	fmt.Fprintf(&sb, "- **Nombre**: %s\n", p.FullName)
	if age := p.Age(now); age >= 0 {
		fmt.Fprintf(&sb, "- **Edad**: %d años\n", age)
	}
	if p.BloodType != "" {
		fmt.Fprintf(&sb, "- **Tipo Sanguíneo**: %s\n", p.BloodType)
	}
	if p.WeightKg != nil {
		fmt.Fprintf(&sb, "- **Peso**: %.1f kg\n", *p.WeightKg)
	}
	if p.HeightM != nil {
		fmt.Fprintf(&sb, "- **Altura**: %.2f m\n", *p.HeightM)
	}
	if p.Allergies != "" {
		fmt.Fprintf(&sb, "- **Alergias**: %s\n", p.Allergies)
	}
	if p.Conditions != "" {
		fmt.Fprintf(&sb, "- **Condiciones Médicas**: %s\n", p.Conditions)
	}
	if p.Insurance != "" {
		fmt.Fprintf(&sb, "- **Obra Social**: %s\n", p.Insurance)
	}
	return sb.String()
}

func renderMedicationSection(meds []records.Medication) string {
	if len(meds) == 0 {
		return "\n\n## MEDICAMENTOS:\nNo hay medicamentos activos registrados.\n"
	}

	var sb strings.Builder
	sb.WriteString("\n\n## MEDICAMENTOS ACTIVOS:\n")
	for _, med := range meds {
		fmt.Fprintf(&sb, "\n### %s\n", med.Name)
		if med.Dose != "" {
			fmt.Fprintf(&sb, "- Dosis: %s\n", med.Dose)
		}
		if med.Frequency != "" {
			fmt.Fprintf(&sb, "- Frecuencia: %s\n", med.Frequency)
		}
		if med.Route != "" {
			fmt.Fprintf(&sb, "- Vía: %s\n", med.Route)
		}
		if len(med.Schedules) > 0 {
			sb.WriteString("- Horarios:\n")
			for _, sched := range med.Schedules {
				days := sched.Weekdays
				if days == "" {
					days = "Todos los días"
				}
				fmt.Fprintf(&sb, "  - %s (%s)\n", sched.Time, days)
			}
		}
		if med.Notes != "" {
			fmt.Fprintf(&sb, "- Observaciones: %s\n", med.Notes)
		}
	}
	return sb.String()
}

func renderAppointmentSection(appts []records.Appointment) string {
	if len(appts) == 0 {
		return "\n\n## CITAS MÉDICAS:\nNo hay citas médicas próximas.\n"
	}

	var sb strings.Builder
	sb.WriteString("\n\n## PRÓXIMAS CITAS MÉDICAS:\n")
	for _, cita := range appts {
		fmt.Fprintf(&sb, "\n### %s\n", cita.At.Format("02/01/2006 a las 15:04"))
		if cita.Doctor != "" {
			fmt.Fprintf(&sb, "- Doctor/a: %s\n", cita.Doctor)
		}
		if cita.Specialty != "" {
			fmt.Fprintf(&sb, "- Especialidad: %s\n", cita.Specialty)
		}
		if cita.Location != "" {
			fmt.Fprintf(&sb, "- Ubicación: %s\n", cita.Location)
		}
		if cita.Reason != "" {
			fmt.Fprintf(&sb, "- Motivo: %s\n", cita.Reason)
		}
		if cita.Notes != "" {
			fmt.Fprintf(&sb, "- Observaciones: %s\n", cita.Notes)
		}
	}
	return sb.String()
}

func renderCareLogSection(entries []records.CareLogEntry) string {
	if len(entries) == 0 {
		return "\n\n## BITÁCORAS:\nNo hay bitácoras.\n"
	}

	var sb strings.Builder
	sb.WriteString("\n\n## BITÁCORAS RECIENTES:\n")
	for _, entry := range entries {
		fecha := entry.Date.Format("02/01/2006")
		title := entry.Title
		if title == "" {
			title = "Bitácora del " + fecha
		}
		fmt.Fprintf(&sb, "\n### %s\n", title)
		fmt.Fprintf(&sb, "- Fecha: %s\n", fecha)
		fmt.Fprintf(&sb, "- Descripción: %s\n", entry.Description)
		if entry.Symptoms != "" {
			fmt.Fprintf(&sb, "- Síntomas: %s\n", entry.Symptoms)
		}
		if entry.Notes != "" {
			fmt.Fprintf(&sb, "- Observaciones: %s\n", entry.Notes)
		}
	}
	return sb.String()
}

func renderTaskSection(tasks []records.Task) string {
	if len(tasks) == 0 {
		return "\n\n## TAREAS:\nNo hay tareas pendientes.\n"
	}

	var sb strings.Builder
	sb.WriteString("\n\n## TAREAS PENDIENTES:\n")
	for _, task := range tasks {
		fmt.Fprintf(&sb, "\n### %s\n", task.Title)
		if task.Description != "" {
			fmt.Fprintf(&sb, "- Descripción: %s\n", task.Description)
		}
		if task.DueAt != nil {
			fmt.Fprintf(&sb, "- Vence: %s\n", task.DueAt.Format("02/01/2006 15:04"))
		}
		if task.Priority != "" {
			fmt.Fprintf(&sb, "- Prioridad: %s\n", task.Priority)
		}
	}
	return sb.String()
}

func renderContactSection(contacts []records.EmergencyContact) string {
	if len(contacts) == 0 {
		return "\n\n## CONTACTOS DE EMERGENCIA:\nNo hay contactos de emergencia registrados.\n"
	}

	var sb strings.Builder
	sb.WriteString("\n\n## CONTACTOS DE EMERGENCIA:\n")
	for _, c := range contacts {
		fmt.Fprintf(&sb, "\n### %s\n", c.Name)
		if c.Relationship != "" {
			fmt.Fprintf(&sb, "- Relación: %s\n", c.Relationship)
		}
		fmt.Fprintf(&sb, "- Teléfono: %s\n", c.Phone)
		if c.Primary {
			sb.WriteString("- Contacto principal\n")
		}
	}
	return sb.String()
}

func renderDocumentListSection(docs []records.Document) string {
	if len(docs) == 0 {
		return "\n\n## DOCUMENTOS:\nNo hay documentos registrados.\n"
	}

	var sb strings.Builder
	sb.WriteString("\n\n## DOCUMENTOS DISPONIBLES:\n")
	for _, doc := range docs {
		fmt.Fprintf(&sb, "- %s (%s)", doc.Name, doc.Category)
		if doc.Description != "" {
			fmt.Fprintf(&sb, ": %s", doc.Description)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// renderDocumentExcerptSection renders extracted document text. Relevant
// excerpts (search-term hits) win over full texts; failed documents are
// skipped and acknowledged with a single closing sentence.
func renderDocumentExcerptSection(res *ExtractionResult) string {
	if res == nil || res.DocumentsProcessed == 0 {
		return "\n\n## DOCUMENTOS:\nNo se encontraron documentos o no se pudieron procesar.\n"
	}

	var sb strings.Builder
	sb.WriteString("\n\n## INFORMACIÓN DE DOCUMENTOS:\n")

	switch {
	case len(res.Excerpts) > 0:
		sb.WriteString("\n### Información encontrada:\n")
		for _, item := range res.Excerpts {
			fmt.Fprintf(&sb, "\n**%s**:\n%s\n", item.Document, item.Excerpt)
		}
	case len(res.FullTexts) > 0:
		limit := len(res.FullTexts)
		if limit > maxFullTextDocuments {
			limit = maxFullTextDocuments
		}
		for _, item := range res.FullTexts[:limit] {
			fmt.Fprintf(&sb, "\n### %s (%s)\n%s\n", item.Name, item.Category, truncate(item.Text, excerptCharLimit))
		}
	}

	if len(res.Errors) > 0 {
		sb.WriteString("\n\n**Nota**: Algunos documentos no pudieron ser procesados.\n")
	}

	return sb.String()
}

// truncate cuts s to at most max bytes without splitting a UTF-8 sequence.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
