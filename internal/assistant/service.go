package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cuido-app/care-assistant/internal/observability/metrics"
	"github.com/cuido-app/care-assistant/internal/records"
	"github.com/cuido-app/care-assistant/pkg/logging"
)

const (
	defaultHistoryLimit     = 10
	defaultAppointmentLimit = 3
	defaultCareLogLimit     = 5
	defaultTaskLimit        = 10
)

// RecordsGateway is the slice of the records store the assistant consumes.
type RecordsGateway interface {
	HasCaregiverAccess(ctx context.Context, caregiverID, patientID int64) (bool, error)
	GetPatient(ctx context.Context, patientID int64) (*records.Patient, error)
	FindPatientByName(ctx context.Context, caregiverID int64, name string) (*records.Patient, error)
	ActiveMedications(ctx context.Context, patientID int64) ([]records.Medication, error)
	UpcomingAppointments(ctx context.Context, patientID int64, limit int) ([]records.Appointment, error)
	RecentCareLogs(ctx context.Context, patientID int64, limit int) ([]records.CareLogEntry, error)
	PendingTasks(ctx context.Context, patientID int64, limit int) ([]records.Task, error)
	Documents(ctx context.Context, patientID int64, docType string) ([]records.Document, error)
	EmergencyContacts(ctx context.Context, patientID int64) ([]records.EmergencyContact, error)
}

// HistoryStore persists conversation turns.
type HistoryStore interface {
	Recent(ctx context.Context, caregiverID, patientID int64, limit int) ([]ConversationTurn, error)
	Append(ctx context.Context, turn ConversationTurn) (ConversationTurn, error)
	Purge(ctx context.Context, caregiverID, patientID int64) (int64, error)
	PatientsWithHistory(ctx context.Context, caregiverID int64) ([]int64, error)
}

// HistoryCacher fronts HistoryStore.Recent for the default-limit lookup.
type HistoryCacher interface {
	Load(ctx context.Context, caregiverID, patientID int64) ([]ConversationTurn, bool, error)
	Save(ctx context.Context, caregiverID, patientID int64, turns []ConversationTurn) error
	Invalidate(ctx context.Context, caregiverID, patientID int64) error
}

// Options tune one Service instance. Zero values fall back to sane
// defaults.
type Options struct {
	Model                 string
	Temperature           float32
	MaxTokens             int
	PromptBudget          int
	HistoryLimit          int
	ExtractionConcurrency int
}

func (o *Options) normalize() {
	if o.MaxTokens <= 0 {
		o.MaxTokens = 500
	}
	if o.PromptBudget <= 0 {
		o.PromptBudget = 4096 - 600
	}
	if o.HistoryLimit <= 0 {
		o.HistoryLimit = defaultHistoryLimit
	}
	if o.ExtractionConcurrency <= 0 {
		o.ExtractionConcurrency = defaultExtractionConcurrency
	}
}

// Service answers caregiver questions about their patients. It classifies
// the message, gathers the matching patient context, assembles a budgeted
// prompt and calls the language model.
type Service struct {
	records   RecordsGateway
	turns     HistoryStore
	cache     HistoryCacher // optional
	llm       LLMClient
	extractor TextExtractor // optional; document excerpts disabled when nil
	metrics   *metrics.AssistantMetrics
	logger    *logging.Logger
	opts      Options
}

func NewService(gw RecordsGateway, turns HistoryStore, llm LLMClient, logger *logging.Logger, opts Options) *Service {
	if gw == nil {
		panic("assistant: nil records gateway")
	}
	if turns == nil {
		panic("assistant: nil history store")
	}
	if llm == nil {
		panic("assistant: nil llm client")
	}
	if logger == nil {
		logger = logging.Default()
	}
	opts.normalize()
	return &Service{
		records: gw,
		turns:   turns,
		llm:     llm,
		logger:  logger,
		opts:    opts,
	}
}

// WithCache attaches a history cache.
func (s *Service) WithCache(cache HistoryCacher) *Service {
	s.cache = cache
	return s
}

// WithExtractor enables document text extraction.
func (s *Service) WithExtractor(ex TextExtractor) *Service {
	s.extractor = ex
	return s
}

// WithMetrics attaches prometheus instrumentation.
func (s *Service) WithMetrics(m *metrics.AssistantMetrics) *Service {
	s.metrics = m
	return s
}

// MessageRequest is one caregiver question.
type MessageRequest struct {
	PatientID int64  `json:"patient_id"`
	Message   string `json:"message"`
}

// MessageResponse is the assistant's reply plus what went into it.
type MessageResponse struct {
	Reply          string   `json:"reply"`
	PatientID      int64    `json:"patient_id"`
	PatientName    string   `json:"patient_name"`
	Intents        []string `json:"intents"`
	DocumentsUsed  int      `json:"documents_used,omitempty"`
	HistoryEvicted bool     `json:"history_evicted,omitempty"`
}

// SendMessage runs the full pipeline for one caregiver message.
func (s *Service) SendMessage(ctx context.Context, caregiverID int64, req MessageRequest) (*MessageResponse, error) {
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return nil, errors.New("assistant: empty message")
	}

	patient, err := s.resolvePatient(ctx, caregiverID, req.PatientID, message)
	if err != nil {
		s.metrics.ObserveMessage("rejected")
		return nil, err
	}

	intents := DetectIntents(message)
	for _, tag := range intents.Tags() {
		s.metrics.ObserveIntent(tag)
	}

	bundle, history := s.gatherContext(ctx, caregiverID, patient, intents, message)

	prompt := BuildPrompt(BuildSystemContent(intents, bundle), HistoryMessages(history), message)
	kept, overflow := EnforceBudget(prompt, s.opts.PromptBudget)
	evicted := len(prompt) - len(kept)
	s.metrics.ObserveEvictions(evicted)
	if overflow {
		s.logger.Warn("prompt exceeds budget even after eviction",
			"patient_id", patient.ID, "budget", s.opts.PromptBudget)
	}

	start := time.Now()
	resp, err := s.llm.Complete(ctx, LLMRequest{
		Model:       s.opts.Model,
		Messages:    kept,
		MaxTokens:   s.opts.MaxTokens,
		Temperature: s.opts.Temperature,
	})
	if err != nil {
		s.metrics.ObserveLLMLatency("error", time.Since(start).Seconds())
		s.metrics.ObserveMessage("inference_error")
		return nil, fmt.Errorf("%w: %v", ErrInferenceUnavailable, err)
	}
	s.metrics.ObserveLLMLatency("ok", time.Since(start).Seconds())

	s.persistTurn(ctx, caregiverID, patient.ID, message, resp.Text)
	s.metrics.ObserveMessage("ok")

	out := &MessageResponse{
		Reply:          resp.Text,
		PatientID:      patient.ID,
		PatientName:    patient.FullName,
		Intents:        intents.Tags(),
		HistoryEvicted: evicted > 0,
	}
	if bundle.Extraction != nil {
		out.DocumentsUsed = bundle.Extraction.DocumentsProcessed
	}
	return out, nil
}

// History returns the recent conversation for a caregiver-patient pair,
// oldest first.
func (s *Service) History(ctx context.Context, caregiverID, patientID int64, limit int) ([]ConversationTurn, error) {
	ok, err := s.records.HasCaregiverAccess(ctx, caregiverID, patientID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrAccessDenied
	}
	if limit <= 0 || limit > 100 {
		limit = s.opts.HistoryLimit
	}
	return s.fetchHistory(ctx, caregiverID, patientID, limit)
}

// PurgeHistory removes stored turns for a caregiver, optionally scoped to
// one patient. It returns the number of turns deleted.
func (s *Service) PurgeHistory(ctx context.Context, caregiverID, patientID int64) (int64, error) {
	if patientID > 0 {
		ok, err := s.records.HasCaregiverAccess(ctx, caregiverID, patientID)
		if err != nil {
			return 0, err
		}
		if !ok {
			return 0, ErrAccessDenied
		}
	}

	// an all-patients purge must drop every cached entry, so collect the
	// affected patients before their rows disappear
	var cached []int64
	if s.cache != nil {
		if patientID > 0 {
			cached = []int64{patientID}
		} else {
			ids, err := s.turns.PatientsWithHistory(ctx, caregiverID)
			if err != nil {
				return 0, err
			}
			cached = ids
		}
	}

	n, err := s.turns.Purge(ctx, caregiverID, patientID)
	if err != nil {
		return 0, err
	}
	for _, id := range cached {
		if cerr := s.cache.Invalidate(ctx, caregiverID, id); cerr != nil {
			s.logger.Warn("history cache invalidation failed", "error", cerr)
		}
	}
	return n, nil
}

// resolvePatient decides which patient the message is about: an explicit
// name in the message wins over the request's patient id. Either way the
// caregiver must hold an accepted linkage.
func (s *Service) resolvePatient(ctx context.Context, caregiverID, patientID int64, message string) (*records.Patient, error) {
	if name := DetectPatientName(message); name != "" {
		p, err := s.records.FindPatientByName(ctx, caregiverID, name)
		if errors.Is(err, records.ErrNotFound) {
			// the caregiver asked about someone by name; answering about
			// the request's patient instead would be misleading
			return nil, ErrPatientNotFound
		}
		if err != nil {
			return nil, err
		}
		return p, nil
	}

	if patientID <= 0 {
		return nil, ErrPatientNotFound
	}
	ok, err := s.records.HasCaregiverAccess(ctx, caregiverID, patientID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrAccessDenied
	}
	p, err := s.records.GetPatient(ctx, patientID)
	if errors.Is(err, records.ErrNotFound) {
		return nil, ErrPatientNotFound
	}
	return p, err
}

// gatherContext fetches the evidence for the fired intents concurrently.
// A failed fetch degrades its section to empty instead of failing the turn.
func (s *Service) gatherContext(ctx context.Context, caregiverID int64, patient *records.Patient, intents IntentSet, message string) (EvidenceBundle, []ConversationTurn) {
	bundle := EvidenceBundle{Patient: patient}
	var history []ConversationTurn

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	fetch := func(name string, fn func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(); err != nil {
				s.logger.Warn("context fetch failed", "section", name,
					"patient_id", patient.ID, "error", err)
			}
		}()
	}

	if intents.Has(IntentMedications) {
		fetch("medications", func() error {
			meds, err := s.records.ActiveMedications(ctx, patient.ID)
			mu.Lock()
			bundle.Medications = meds
			mu.Unlock()
			return err
		})
	}
	if intents.Has(IntentAppointments) {
		fetch("appointments", func() error {
			appts, err := s.records.UpcomingAppointments(ctx, patient.ID, defaultAppointmentLimit)
			mu.Lock()
			bundle.Appointments = appts
			mu.Unlock()
			return err
		})
	}
	if intents.Has(IntentLogs) {
		fetch("care_logs", func() error {
			entries, err := s.records.RecentCareLogs(ctx, patient.ID, defaultCareLogLimit)
			mu.Lock()
			bundle.CareLogs = entries
			mu.Unlock()
			return err
		})
	}
	if intents.Has(IntentTasks) {
		fetch("tasks", func() error {
			tasks, err := s.records.PendingTasks(ctx, patient.ID, defaultTaskLimit)
			mu.Lock()
			bundle.Tasks = tasks
			mu.Unlock()
			return err
		})
	}
	if intents.Has(IntentContacts) {
		fetch("contacts", func() error {
			contacts, err := s.records.EmergencyContacts(ctx, patient.ID)
			mu.Lock()
			bundle.Contacts = contacts
			mu.Unlock()
			return err
		})
	}

	var catalog []records.Document
	if intents.Has(IntentDocuments) {
		fetch("documents", func() error {
			docs, err := s.records.Documents(ctx, patient.ID, "")
			mu.Lock()
			catalog = docs
			mu.Unlock()
			return err
		})
	}

	fetch("history", func() error {
		turns, err := s.fetchHistory(ctx, caregiverID, patient.ID, s.opts.HistoryLimit)
		mu.Lock()
		history = turns
		mu.Unlock()
		return err
	})

	wg.Wait()

	if intents.Has(IntentDocuments) {
		sel := SelectDocuments(catalog, message, "")
		bundle.DocumentList = sel.Display
		if s.extractor != nil && sel.ExtractionWarranted() {
			res := ExtractDocuments(ctx, s.extractor, sel.Targets, sel.SearchTerm, s.opts.ExtractionConcurrency)
			s.metrics.ObserveExtraction(res.DocumentsProcessed, len(res.Errors))
			bundle.Extraction = &res
		}
	}

	return bundle, history
}

// fetchHistory goes through the cache when one is configured and the limit
// is the service default.
func (s *Service) fetchHistory(ctx context.Context, caregiverID, patientID int64, limit int) ([]ConversationTurn, error) {
	cacheable := s.cache != nil && limit == s.opts.HistoryLimit
	if cacheable {
		turns, hit, err := s.cache.Load(ctx, caregiverID, patientID)
		if err != nil {
			s.logger.Warn("history cache load failed", "error", err)
		} else if hit {
			return turns, nil
		}
	}

	turns, err := s.turns.Recent(ctx, caregiverID, patientID, limit)
	if err != nil {
		return nil, err
	}
	if cacheable {
		if err := s.cache.Save(ctx, caregiverID, patientID, turns); err != nil {
			s.logger.Warn("history cache save failed", "error", err)
		}
	}
	return turns, nil
}

// persistTurn saves the exchange and drops the stale cache entry. A storage
// failure is logged, not surfaced: the reply was already generated.
func (s *Service) persistTurn(ctx context.Context, caregiverID, patientID int64, userText, assistantText string) {
	_, err := s.turns.Append(ctx, ConversationTurn{
		CaregiverID:   caregiverID,
		PatientID:     patientID,
		UserText:      userText,
		AssistantText: assistantText,
	})
	if err != nil {
		s.logger.Error("failed to persist conversation turn",
			"caregiver_id", caregiverID, "patient_id", patientID, "error", err)
		return
	}
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, caregiverID, patientID); err != nil {
			s.logger.Warn("history cache invalidation failed", "error", err)
		}
	}
}
