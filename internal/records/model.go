// Package records is the read-side gateway to the Cuido database: patient
// profiles, medications, appointments, care logs, tasks, documents and
// emergency contacts. The assistant never writes through this package.
package records

import "time"

// Document type values, mirroring the platform's documento.tipo enum.
const (
	DocTypeMedicalRecord = "FICHA_MEDICA"
	DocTypeStudy         = "ESTUDIO"
	DocTypePrescription  = "RECETA"
	DocTypeOther         = "OTRO"
)

// Caregiver-patient linkage states.
const (
	LinkAccepted = "ACEPTADO"
	LinkPending  = "PENDIENTE"
	LinkRejected = "RECHAZADO"
)

// Patient is the combined view of a patient's account and medical sheet.
type Patient struct {
	ID         int64
	FullName   string
	BirthDate  *time.Time
	BloodType  string
	WeightKg   *float64
	HeightM    *float64
	Allergies  string
	Conditions string
	Insurance  string
}

// Age returns full years since BirthDate, or -1 when unknown.
func (p *Patient) Age(now time.Time) int {
	if p == nil || p.BirthDate == nil {
		return -1
	}
	return int(now.Sub(*p.BirthDate).Hours() / 24 / 365)
}

// MedicationSchedule is one dosing slot for a medication.
type MedicationSchedule struct {
	ID       int64
	Time     string // "HH:MM"
	Weekdays string // empty means every day
}

// Medication is an active prescription with its schedules.
type Medication struct {
	ID        int64
	Name      string
	Dose      string
	Frequency string
	Route     string
	Notes     string
	Schedules []MedicationSchedule
}

// Appointment is an upcoming medical appointment.
type Appointment struct {
	ID        int64
	At        time.Time
	Doctor    string
	Specialty string
	Location  string
	Reason    string
	Notes     string
}

// CareLogEntry is one caregiver journal entry (bitácora).
type CareLogEntry struct {
	ID          int64
	Date        time.Time
	Title       string
	Description string
	Symptoms    string
	Notes       string
}

// Task is a pending care task.
type Task struct {
	ID          int64
	Title       string
	Description string
	DueAt       *time.Time
	Priority    string
}

// EmergencyContact is someone to call about the patient.
type EmergencyContact struct {
	ID           int64
	Name         string
	Relationship string
	Phone        string
	Primary      bool
}

// Document is the read-only projection of a stored document. The assistant
// only decides whether its binary is worth extracting; it never mutates it.
type Document struct {
	ID          int64
	Name        string
	Description string
	Category    string
	StoragePath string
	MimeType    string
	CreatedAt   time.Time
}
