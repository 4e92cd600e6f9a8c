package runtime

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/drblury/surfaceflow/internal/runtime/protocol"
)

const metricsNamespace = "surfaceflow"

// Metrics tracks how protocol input is applied and what the rendered
// surfaces emit. Collectors count even when they are not registered.
type Metrics struct {
	mu sync.Mutex

	messagesApplied  *prometheus.CounterVec
	parseErrors      prometheus.Counter
	routingWarnings  *prometheus.CounterVec
	surfaces         prometheus.Gauge
	actionsEmitted   *prometheus.CounterVec
	missingRenderers *prometheus.CounterVec

	registerer prometheus.Registerer
	registered bool
}

func newCounterVec(name, help string, labels []string) *prometheus.CounterVec {
	return prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      name,
			Help:      help,
		},
		labels,
	)
}

// NewMetrics creates the collectors. A nil registerer selects
// prometheus.DefaultRegisterer.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &Metrics{
		registerer:      registerer,
		messagesApplied: newCounterVec("messages_applied_total", "Protocol messages applied to the surface store", []string{"kind"}),
		parseErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "parse_errors_total",
			Help:      "Protocol lines discarded because they failed to parse",
		}),
		routingWarnings: newCounterVec("routing_warnings_total", "Protocol messages or components skipped by the router", []string{"kind"}),
		surfaces: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "surfaces",
			Help:      "Surfaces currently held in the store",
		}),
		actionsEmitted:   newCounterVec("actions_emitted_total", "Actions emitted by rendered components", []string{"type"}),
		missingRenderers: newCounterVec("missing_renderers_total", "Components rendered without a registered renderer", []string{"type"}),
	}
}

// Register registers the Prometheus collectors. Safe to call multiple times.
func (m *Metrics) Register() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.registered {
		return nil
	}

	for _, c := range m.collectors() {
		if err := m.registerer.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}

	m.registered = true
	return nil
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.messagesApplied,
		m.parseErrors,
		m.routingWarnings,
		m.surfaces,
		m.actionsEmitted,
		m.missingRenderers,
	}
}

// RecordApplied counts a message that changed the store.
func (m *Metrics) RecordApplied(kind protocol.Kind) {
	m.messagesApplied.WithLabelValues(string(kind)).Inc()
}

// RecordParseError counts a discarded line.
func (m *Metrics) RecordParseError() {
	m.parseErrors.Inc()
}

// RecordWarning counts a skipped message or component.
func (m *Metrics) RecordWarning(kind protocol.Kind) {
	m.routingWarnings.WithLabelValues(string(kind)).Inc()
}

// SetSurfaces sets the current surface count.
func (m *Metrics) SetSurfaces(n int) {
	m.surfaces.Set(float64(n))
}

// RecordAction counts an emitted action.
func (m *Metrics) RecordAction(actionType string) {
	m.actionsEmitted.WithLabelValues(actionType).Inc()
}

// RecordMissingRenderer counts a component with no renderer.
func (m *Metrics) RecordMissingRenderer(componentType string) {
	m.missingRenderers.WithLabelValues(componentType).Inc()
}
