package assistant

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/cuido-app/care-assistant/internal/http/middleware"
	"github.com/cuido-app/care-assistant/pkg/logging"
)

// Handler exposes the assistant over HTTP. All routes require an
// authenticated caregiver in the request context.
type Handler struct {
	svc    *Service
	logger *logging.Logger
}

func NewHandler(svc *Service, logger *logging.Logger) *Handler {
	if svc == nil {
		panic("assistant: nil service")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{svc: svc, logger: logger}
}

// Register mounts the chatbot routes on r.
func (h *Handler) Register(r chi.Router) {
	r.Post("/message", h.sendMessage)
	r.Get("/history/{patientID}", h.history)
	r.Delete("/history/{patientID}", h.purgePatientHistory)
	r.Delete("/history", h.purgeAllHistory)
}

func (h *Handler) sendMessage(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req MessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	resp, err := h.svc.SendMessage(r.Context(), principal.ID, req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	patientID, err := strconv.ParseInt(chi.URLParam(r, "patientID"), 10, 64)
	if err != nil || patientID <= 0 {
		writeError(w, http.StatusBadRequest, "invalid patient id")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
	}

	turns, err := h.svc.History(r.Context(), principal.ID, patientID, limit)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if turns == nil {
		turns = []ConversationTurn{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"patient_id": patientID,
		"turns":      turns,
	})
}

func (h *Handler) purgePatientHistory(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	patientID, err := strconv.ParseInt(chi.URLParam(r, "patientID"), 10, 64)
	if err != nil || patientID <= 0 {
		writeError(w, http.StatusBadRequest, "invalid patient id")
		return
	}
	h.purge(w, r, principal.ID, patientID)
}

func (h *Handler) purgeAllHistory(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	h.purge(w, r, principal.ID, 0)
}

func (h *Handler) purge(w http.ResponseWriter, r *http.Request, caregiverID, patientID int64) {
	n, err := h.svc.PurgeHistory(r.Context(), caregiverID, patientID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": n})
}

func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrAccessDenied):
		writeError(w, http.StatusForbidden, "no access to this patient")
	case errors.Is(err, ErrPatientNotFound):
		writeError(w, http.StatusNotFound, "patient not found")
	case errors.Is(err, ErrInferenceUnavailable):
		h.logger.Error("inference unavailable", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusServiceUnavailable, "assistant temporarily unavailable")
	default:
		h.logger.Error("assistant request failed", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
