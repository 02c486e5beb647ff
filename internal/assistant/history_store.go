package assistant

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ConversationTurn is one exchange: the caregiver's message and the
// assistant's reply, stored as a single row so a turn is never half-saved.
type ConversationTurn struct {
	ID            uuid.UUID `json:"id"`
	CaregiverID   int64     `json:"caregiver_id"`
	PatientID     int64     `json:"patient_id"`
	UserText      string    `json:"user_text"`
	AssistantText string    `json:"assistant_text"`
	CreatedAt     time.Time `json:"created_at"`
}

// TurnStore persists conversation turns in Postgres. It is the source of
// truth; HistoryCache only fronts it.
type TurnStore struct {
	db *sql.DB
}

func NewTurnStore(db *sql.DB) *TurnStore {
	if db == nil {
		panic("assistant: nil db")
	}
	return &TurnStore{db: db}
}

// Recent returns the latest limit turns for a caregiver-patient pair,
// ordered oldest first.
func (s *TurnStore) Recent(ctx context.Context, caregiverID, patientID int64, limit int) ([]ConversationTurn, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, cuidador_id, paciente_id, mensaje_usuario, respuesta_asistente, creado_en
		FROM conversaciones_chatbot
		WHERE cuidador_id = $1 AND paciente_id = $2
		ORDER BY creado_en DESC
		LIMIT $3`,
		caregiverID, patientID, limit)
	if err != nil {
		return nil, fmt.Errorf("assistant: query recent turns: %w", err)
	}
	defer rows.Close()

	var turns []ConversationTurn
	for rows.Next() {
		var t ConversationTurn
		if err := rows.Scan(&t.ID, &t.CaregiverID, &t.PatientID, &t.UserText, &t.AssistantText, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("assistant: scan turn: %w", err)
		}
		turns = append(turns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("assistant: iterate turns: %w", err)
	}

	// fetched newest-first; flip to chronological order
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
	return turns, nil
}

// Append stores one completed turn.
func (s *TurnStore) Append(ctx context.Context, turn ConversationTurn) (ConversationTurn, error) {
	if turn.ID == uuid.Nil {
		turn.ID = uuid.New()
	}
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO conversaciones_chatbot (id, cuidador_id, paciente_id, mensaje_usuario, respuesta_asistente, creado_en)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		turn.ID, turn.CaregiverID, turn.PatientID, turn.UserText, turn.AssistantText, turn.CreatedAt)
	if err != nil {
		return ConversationTurn{}, fmt.Errorf("assistant: insert turn: %w", err)
	}
	return turn, nil
}

// PatientsWithHistory lists the distinct patients a caregiver has stored
// turns for. Callers use it to drop every cache entry before a full purge.
func (s *TurnStore) PatientsWithHistory(ctx context.Context, caregiverID int64) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT paciente_id
		FROM conversaciones_chatbot
		WHERE cuidador_id = $1`,
		caregiverID)
	if err != nil {
		return nil, fmt.Errorf("assistant: query history patients: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("assistant: scan patient id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("assistant: iterate patient ids: %w", err)
	}
	return ids, nil
}

// Purge deletes a caregiver's history, optionally scoped to one patient
// (patientID > 0). It returns the number of turns removed.
func (s *TurnStore) Purge(ctx context.Context, caregiverID, patientID int64) (int64, error) {
	var (
		res sql.Result
		err error
	)
	if patientID > 0 {
		res, err = s.db.ExecContext(ctx,
			`DELETE FROM conversaciones_chatbot WHERE cuidador_id = $1 AND paciente_id = $2`,
			caregiverID, patientID)
	} else {
		res, err = s.db.ExecContext(ctx,
			`DELETE FROM conversaciones_chatbot WHERE cuidador_id = $1`,
			caregiverID)
	}
	if err != nil {
		return 0, fmt.Errorf("assistant: purge turns: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("assistant: purge rows affected: %w", err)
	}
	return n, nil
}

// HistoryMessages flattens turns into the chat transcript consumed by
// BuildPrompt, one user/assistant pair per turn.
func HistoryMessages(turns []ConversationTurn) []ChatMessage {
	msgs := make([]ChatMessage, 0, len(turns)*2)
	for _, t := range turns {
		msgs = append(msgs, ChatMessage{Role: ChatRoleUser, Content: t.UserText})
		msgs = append(msgs, ChatMessage{Role: ChatRoleAssistant, Content: t.AssistantText})
	}
	return msgs
}
