package records

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNotFound indicates the requested patient does not exist.
var ErrNotFound = errors.New("records: patient not found")

// Store reads patient data from PostgreSQL.
type Store struct {
	db *sql.DB
}

// NewStore creates a records store.
func NewStore(db *sql.DB) *Store {
	if db == nil {
		panic("records: db cannot be nil")
	}
	return &Store{db: db}
}

// HasCaregiverAccess reports whether the caregiver has an accepted linkage
// to the patient.
func (s *Store) HasCaregiverAccess(ctx context.Context, caregiverID, patientID int64) (bool, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, `
		SELECT 1 FROM cuidadores_pacientes
		WHERE cuidador_id = $1 AND paciente_id = $2 AND estado = $3
		LIMIT 1
	`, caregiverID, patientID, LinkAccepted).Scan(&exists)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("records: check caregiver access: %w", err)
	}
	return true, nil
}

// GetPatient loads a patient's account row joined with the medical sheet.
// Returns ErrNotFound for ids that do not resolve to a patient account.
func (s *Store) GetPatient(ctx context.Context, patientID int64) (*Patient, error) {
	var (
		p          Patient
		birthDate  sql.NullTime
		bloodType  sql.NullString
		weight     sql.NullFloat64
		height     sql.NullFloat64
		allergies  sql.NullString
		conditions sql.NullString
		insurance  sql.NullString
	)

	err := s.db.QueryRowContext(ctx, `
		SELECT u.id, u.nombre_completo, u.fecha_nacimiento,
		       p.tipo_sanguineo, p.peso, p.altura, p.alergias,
		       p.condiciones_medicas, p.obra_social
		FROM usuarios u
		LEFT JOIN pacientes p ON p.usuario_id = u.id
		WHERE u.id = $1 AND u.rol = 'PACIENTE' AND u.activo
	`, patientID).Scan(
		&p.ID, &p.FullName, &birthDate,
		&bloodType, &weight, &height, &allergies,
		&conditions, &insurance,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("records: get patient: %w", err)
	}

	if birthDate.Valid {
		p.BirthDate = &birthDate.Time
	}
	if weight.Valid {
		p.WeightKg = &weight.Float64
	}
	if height.Valid {
		p.HeightM = &height.Float64
	}
	p.BloodType = bloodType.String
	p.Allergies = allergies.String
	p.Conditions = conditions.String
	p.Insurance = insurance.String

	return &p, nil
}

// FindPatientByName resolves a patient by (partial) name among the patients
// linked to the caregiver, preferring an exact match when several names hit.
func (s *Store) FindPatientByName(ctx context.Context, caregiverID int64, name string) (*Patient, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNotFound
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT u.id, u.nombre_completo
		FROM usuarios u
		JOIN cuidadores_pacientes cp ON cp.paciente_id = u.id
		WHERE u.rol = 'PACIENTE' AND u.activo
		  AND cp.cuidador_id = $1 AND cp.estado = $2
		  AND u.nombre_completo ILIKE '%' || $3 || '%'
		ORDER BY u.nombre_completo
	`, caregiverID, LinkAccepted, name)
	if err != nil {
		return nil, fmt.Errorf("records: find patient by name: %w", err)
	}
	defer rows.Close()

	type candidate struct {
		id       int64
		fullName string
	}
	var candidates []candidate
	for rows.Next() {
		var c candidate
		if err := rows.Scan(&c.id, &c.fullName); err != nil {
			return nil, fmt.Errorf("records: scan patient candidate: %w", err)
		}
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("records: find patient by name: %w", err)
	}
	if len(candidates) == 0 {
		return nil, ErrNotFound
	}

	chosen := candidates[0]
	if len(candidates) > 1 {
		for _, c := range candidates {
			if strings.EqualFold(c.fullName, name) {
				chosen = c
				break
			}
		}
	}

	return s.GetPatient(ctx, chosen.id)
}

// ActiveMedications returns the patient's active medications with their
// dosing schedules, ordered by name.
func (s *Store) ActiveMedications(ctx context.Context, patientID int64) ([]Medication, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, nombre, COALESCE(dosis, ''), COALESCE(frecuencia, ''),
		       COALESCE(via_administracion, ''), COALESCE(observaciones, '')
		FROM medicamentos
		WHERE paciente_id = $1 AND activo
		ORDER BY nombre
	`, patientID)
	if err != nil {
		return nil, fmt.Errorf("records: list medications: %w", err)
	}
	defer rows.Close()

	var meds []Medication
	for rows.Next() {
		var m Medication
		if err := rows.Scan(&m.ID, &m.Name, &m.Dose, &m.Frequency, &m.Route, &m.Notes); err != nil {
			return nil, fmt.Errorf("records: scan medication: %w", err)
		}
		meds = append(meds, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("records: list medications: %w", err)
	}

	for i := range meds {
		schedules, err := s.medicationSchedules(ctx, meds[i].ID)
		if err != nil {
			return nil, err
		}
		meds[i].Schedules = schedules
	}

	return meds, nil
}

func (s *Store) medicationSchedules(ctx context.Context, medicationID int64) ([]MedicationSchedule, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, to_char(hora, 'HH24:MI'), COALESCE(dias_semana, '')
		FROM horarios_medicamento
		WHERE medicamento_id = $1
		ORDER BY hora
	`, medicationID)
	if err != nil {
		return nil, fmt.Errorf("records: list medication schedules: %w", err)
	}
	defer rows.Close()

	var out []MedicationSchedule
	for rows.Next() {
		var sched MedicationSchedule
		if err := rows.Scan(&sched.ID, &sched.Time, &sched.Weekdays); err != nil {
			return nil, fmt.Errorf("records: scan schedule: %w", err)
		}
		out = append(out, sched)
	}
	return out, rows.Err()
}

// UpcomingAppointments returns the next pending appointments, soonest first.
func (s *Store) UpcomingAppointments(ctx context.Context, patientID int64, limit int) ([]Appointment, error) {
	if limit <= 0 {
		limit = 3
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, fecha_hora, COALESCE(nombre_doctor, ''), COALESCE(especialidad, ''),
		       COALESCE(ubicacion, ''), COALESCE(motivo, ''), COALESCE(observaciones, '')
		FROM citas_medicas
		WHERE paciente_id = $1 AND fecha_hora >= $2 AND NOT completada
		ORDER BY fecha_hora
		LIMIT $3
	`, patientID, time.Now(), limit)
	if err != nil {
		return nil, fmt.Errorf("records: list appointments: %w", err)
	}
	defer rows.Close()

	var appts []Appointment
	for rows.Next() {
		var a Appointment
		if err := rows.Scan(&a.ID, &a.At, &a.Doctor, &a.Specialty, &a.Location, &a.Reason, &a.Notes); err != nil {
			return nil, fmt.Errorf("records: scan appointment: %w", err)
		}
		appts = append(appts, a)
	}
	return appts, rows.Err()
}

// RecentCareLogs returns the most recent care log entries, newest first.
func (s *Store) RecentCareLogs(ctx context.Context, patientID int64, limit int) ([]CareLogEntry, error) {
	if limit <= 0 {
		limit = 3
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, fecha, COALESCE(titulo, ''), descripcion,
		       COALESCE(sintomas, ''), COALESCE(observaciones, '')
		FROM bitacoras
		WHERE paciente_id = $1
		ORDER BY fecha DESC
		LIMIT $2
	`, patientID, limit)
	if err != nil {
		return nil, fmt.Errorf("records: list care logs: %w", err)
	}
	defer rows.Close()

	var entries []CareLogEntry
	for rows.Next() {
		var e CareLogEntry
		if err := rows.Scan(&e.ID, &e.Date, &e.Title, &e.Description, &e.Symptoms, &e.Notes); err != nil {
			return nil, fmt.Errorf("records: scan care log: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// PendingTasks returns pending tasks ordered by manual order, then priority.
func (s *Store) PendingTasks(ctx context.Context, patientID int64, limit int) ([]Task, error) {
	if limit <= 0 {
		limit = 3
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, titulo, COALESCE(descripcion, ''), fecha_vencimiento, COALESCE(prioridad, 'MEDIA')
		FROM tareas
		WHERE paciente_id = $1 AND NOT completada
		ORDER BY orden_manual ASC NULLS LAST,
		         CASE prioridad WHEN 'ALTA' THEN 3 WHEN 'MEDIA' THEN 2 ELSE 1 END DESC
		LIMIT $2
	`, patientID, limit)
	if err != nil {
		return nil, fmt.Errorf("records: list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []Task
	for rows.Next() {
		var (
			task  Task
			dueAt sql.NullTime
		)
		if err := rows.Scan(&task.ID, &task.Title, &task.Description, &dueAt, &task.Priority); err != nil {
			return nil, fmt.Errorf("records: scan task: %w", err)
		}
		if dueAt.Valid {
			task.DueAt = &dueAt.Time
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

// Documents returns the patient's document metadata, newest first,
// optionally filtered by document type.
func (s *Store) Documents(ctx context.Context, patientID int64, docType string) ([]Document, error) {
	query := `
		SELECT id, nombre, COALESCE(descripcion, ''), tipo, ruta_archivo,
		       COALESCE(mime_type, ''), created_at
		FROM documentos
		WHERE paciente_id = $1
	`
	args := []any{patientID}
	if docType != "" {
		query += " AND tipo = $2"
		args = append(args, docType)
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("records: list documents: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var d Document
		if err := rows.Scan(&d.ID, &d.Name, &d.Description, &d.Category, &d.StoragePath, &d.MimeType, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("records: scan document: %w", err)
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// EmergencyContacts returns the patient's emergency contacts, primary first.
func (s *Store) EmergencyContacts(ctx context.Context, patientID int64) ([]EmergencyContact, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, nombre, COALESCE(relacion, ''), telefono, es_contacto_principal
		FROM contactos_emergencia
		WHERE paciente_id = $1
		ORDER BY es_contacto_principal DESC, nombre
	`, patientID)
	if err != nil {
		return nil, fmt.Errorf("records: list emergency contacts: %w", err)
	}
	defer rows.Close()

	var contacts []EmergencyContact
	for rows.Next() {
		var c EmergencyContact
		if err := rows.Scan(&c.ID, &c.Name, &c.Relationship, &c.Phone, &c.Primary); err != nil {
			return nil, fmt.Errorf("records: scan emergency contact: %w", err)
		}
		contacts = append(contacts, c)
	}
	return contacts, rows.Err()
}
