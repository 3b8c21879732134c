package observability

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SessionCollector bundles Prometheus metrics for a running simulation
// session. It satisfies session.MetricsRecorder, so a session drives the
// counters directly from its decision cycle.
type SessionCollector struct {
	gatherer prometheus.Gatherer

	ActionsExecuted *prometheus.CounterVec
	ActionsDropped  *prometheus.CounterVec
	ConditionsFired prometheus.Counter
	UnitsCounter    prometheus.Counter
	Decisions       prometheus.Counter
	SessionsEnded   *prometheus.CounterVec

	QueueDepth    prometheus.Gauge
	ActiveObjects prometheus.Gauge
}

// NewSessionCollector registers session metrics against the provided
// registerer, defaulting to the global Prometheus registry when nil.
// Registering twice against the same registry reuses the existing
// collectors, so restarted sessions keep counting.
func NewSessionCollector(reg prometheus.Registerer) (*SessionCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	executed, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sim_actions_executed_total",
		Help: "Actions applied by the interpreter, labeled by verb.",
	}, []string{"verb"}), "sim_actions_executed_total")
	if err != nil {
		return nil, err
	}
	dropped, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sim_actions_dropped_total",
		Help: "Actions or spawns discarded without effect, labeled by reason.",
	}, []string{"reason"}), "sim_actions_dropped_total")
	if err != nil {
		return nil, err
	}
	fired, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sim_conditions_fired_total",
		Help: "Scenario conditions whose actions ran.",
	}), "sim_conditions_fired_total")
	if err != nil {
		return nil, err
	}
	units, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sim_units_processed_total",
		Help: "Simulation time units advanced.",
	}), "sim_units_processed_total")
	if err != nil {
		return nil, err
	}
	decisions, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sim_decision_cycles_total",
		Help: "Completed decision cycles.",
	}), "sim_decision_cycles_total")
	if err != nil {
		return nil, err
	}
	ended, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sim_sessions_ended_total",
		Help: "Sessions that reached game over, labeled by outcome.",
	}, []string{"outcome"}), "sim_sessions_ended_total")
	if err != nil {
		return nil, err
	}
	queue, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "sim_action_queue_depth",
		Help: "Pending delayed action lists after the last decision cycle.",
	}), "sim_action_queue_depth")
	if err != nil {
		return nil, err
	}
	active, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "sim_active_objects",
		Help: "Live objects after the last decision cycle.",
	}), "sim_active_objects")
	if err != nil {
		return nil, err
	}

	return &SessionCollector{
		gatherer:        gatherer,
		ActionsExecuted: executed,
		ActionsDropped:  dropped,
		ConditionsFired: fired,
		UnitsCounter:    units,
		Decisions:       decisions,
		SessionsEnded:   ended,
		QueueDepth:      queue,
		ActiveObjects:   active,
	}, nil
}

// Handler exposes a ready-to-use /metrics handler.
func (c *SessionCollector) Handler() http.Handler {
	gatherer := c.Gatherer()
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Gatherer returns the Prometheus gatherer associated with the collector.
func (c *SessionCollector) Gatherer() prometheus.Gatherer {
	if c == nil {
		return nil
	}
	return c.gatherer
}

// ActionExecuted counts one applied action.
func (c *SessionCollector) ActionExecuted(verb string) {
	if c == nil || c.ActionsExecuted == nil {
		return
	}
	c.ActionsExecuted.WithLabelValues(verb).Inc()
}

// ActionDropped counts one discarded action or spawn.
func (c *SessionCollector) ActionDropped(reason string) {
	if c == nil || c.ActionsDropped == nil {
		return
	}
	c.ActionsDropped.WithLabelValues(reason).Inc()
}

// ConditionFired counts one scenario condition firing.
func (c *SessionCollector) ConditionFired() {
	if c == nil || c.ConditionsFired == nil {
		return
	}
	c.ConditionsFired.Inc()
}

// UnitsProcessed adds advanced simulation units.
func (c *SessionCollector) UnitsProcessed(units int64) {
	if c == nil || c.UnitsCounter == nil || units <= 0 {
		return
	}
	c.UnitsCounter.Add(float64(units))
}

// DecisionCompleted records the end of a decision cycle and the state it
// left behind.
func (c *SessionCollector) DecisionCompleted(queueDepth, activeObjects int) {
	if c == nil {
		return
	}
	if c.Decisions != nil {
		c.Decisions.Inc()
	}
	if c.QueueDepth != nil {
		c.QueueDepth.Set(float64(queueDepth))
	}
	if c.ActiveObjects != nil {
		c.ActiveObjects.Set(float64(activeObjects))
	}
}

// SessionEnded counts a finished session by outcome.
func (c *SessionCollector) SessionEnded(outcome string) {
	if c == nil || c.SessionsEnded == nil {
		return
	}
	c.SessionsEnded.WithLabelValues(outcome).Inc()
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
