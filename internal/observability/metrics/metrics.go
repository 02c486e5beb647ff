package metrics

import "github.com/prometheus/client_golang/prometheus"

// AssistantMetrics exposes counters/histograms for the chat assistant flow.
type AssistantMetrics struct {
	messagesTotal      *prometheus.CounterVec
	intentsTotal       *prometheus.CounterVec
	documentsExtracted prometheus.Counter
	documentsFailed    prometheus.Counter
	historyEvictions   prometheus.Counter
	llmLatency         *prometheus.HistogramVec
}

func NewAssistantMetrics(reg prometheus.Registerer) *AssistantMetrics {
	m := &AssistantMetrics{
		messagesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cuido",
			Subsystem: "assistant",
			Name:      "messages_total",
			Help:      "Total chat messages processed, by outcome",
		}, []string{"outcome"}),
		intentsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cuido",
			Subsystem: "assistant",
			Name:      "intents_total",
			Help:      "Intent tags fired during classification",
		}, []string{"intent"}),
		documentsExtracted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cuido",
			Subsystem: "assistant",
			Name:      "documents_extracted_total",
			Help:      "Documents successfully processed for text extraction",
		}),
		documentsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cuido",
			Subsystem: "assistant",
			Name:      "documents_failed_total",
			Help:      "Documents that failed text extraction",
		}),
		historyEvictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cuido",
			Subsystem: "assistant",
			Name:      "history_evictions_total",
			Help:      "History messages evicted by the prompt token budget",
		}),
		llmLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "cuido",
			Subsystem: "assistant",
			Name:      "llm_latency_seconds",
			Help:      "Latency of chat completion calls",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(
		m.messagesTotal,
		m.intentsTotal,
		m.documentsExtracted,
		m.documentsFailed,
		m.historyEvictions,
		m.llmLatency,
	)
	return m
}

func (m *AssistantMetrics) ObserveMessage(outcome string) {
	if m == nil {
		return
	}
	m.messagesTotal.WithLabelValues(outcome).Inc()
}

func (m *AssistantMetrics) ObserveIntent(intent string) {
	if m == nil {
		return
	}
	m.intentsTotal.WithLabelValues(intent).Inc()
}

func (m *AssistantMetrics) ObserveExtraction(processed, failed int) {
	if m == nil {
		return
	}
	m.documentsExtracted.Add(float64(processed))
	m.documentsFailed.Add(float64(failed))
}

func (m *AssistantMetrics) ObserveEvictions(count int) {
	if m == nil || count <= 0 {
		return
	}
	m.historyEvictions.Add(float64(count))
}

func (m *AssistantMetrics) ObserveLLMLatency(outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.llmLatency.WithLabelValues(outcome).Observe(seconds)
}
