package processor

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusMetrics collects operational metrics for a Processor's real-time
// loop, all namespaced "taskcore_".
//
//  1. inflight_programs (gauge): programs currently loaded, labeled running/idle.
//  2. running_state_machines (gauge): loaded state machines in StateRunning.
//  3. step_latency_ms (histogram): doStep wall-clock duration.
//  4. commands_processed_total (counter): commands executed to completion.
//  5. commands_rejected_total (counter): queueCommand calls rejected, labeled by reason.
//  6. mailbox_occupied (gauge): 1 if the command mailbox holds an unconsumed command.
type PrometheusMetrics struct {
	inflightPrograms      *prometheus.GaugeVec
	runningStateMachines  prometheus.Gauge
	stepLatency           prometheus.Histogram
	commandsProcessed     prometheus.Counter
	commandsRejected      *prometheus.CounterVec
	mailboxOccupied       prometheus.Gauge
	enabled               bool
}

// NewPrometheusMetrics registers all Processor metrics with registry. Pass
// prometheus.DefaultRegisterer for the global registry, or a fresh
// prometheus.NewRegistry() for test isolation.
func NewPrometheusMetrics(registry prometheus.Registerer) *PrometheusMetrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registry)

	return &PrometheusMetrics{
		enabled: true,
		inflightPrograms: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "taskcore",
			Name:      "inflight_programs",
			Help:      "Number of programs currently loaded in the processor",
		}, []string{"state"}), // state: running, idle
		runningStateMachines: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "taskcore",
			Name:      "running_state_machines",
			Help:      "Number of loaded state machines currently in the running gstate",
		}),
		stepLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "taskcore",
			Name:      "step_latency_ms",
			Help:      "doStep wall-clock duration in milliseconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 50, 100},
		}),
		commandsProcessed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "taskcore",
			Name:      "commands_processed_total",
			Help:      "Cumulative count of commands executed to completion",
		}),
		commandsRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "taskcore",
			Name:      "commands_rejected_total",
			Help:      "Cumulative count of queueCommand calls rejected",
		}, []string{"reason"}), // reason: mailbox_full
		mailboxOccupied: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "taskcore",
			Name:      "mailbox_occupied",
			Help:      "1 if the command mailbox holds an unconsumed command, else 0",
		}),
	}
}

func (pm *PrometheusMetrics) recordStep(d time.Duration) {
	if pm == nil || !pm.enabled {
		return
	}
	pm.stepLatency.Observe(float64(d) / float64(time.Millisecond))
}

func (pm *PrometheusMetrics) setInflightPrograms(running, idle int) {
	if pm == nil || !pm.enabled {
		return
	}
	pm.inflightPrograms.WithLabelValues("running").Set(float64(running))
	pm.inflightPrograms.WithLabelValues("idle").Set(float64(idle))
}

func (pm *PrometheusMetrics) setRunningStateMachines(n int) {
	if pm == nil || !pm.enabled {
		return
	}
	pm.runningStateMachines.Set(float64(n))
}

func (pm *PrometheusMetrics) incCommandsProcessed() {
	if pm == nil || !pm.enabled {
		return
	}
	pm.commandsProcessed.Inc()
}

func (pm *PrometheusMetrics) incCommandsRejected(reason string) {
	if pm == nil || !pm.enabled {
		return
	}
	pm.commandsRejected.WithLabelValues(reason).Inc()
}

func (pm *PrometheusMetrics) setMailboxOccupied(occupied bool) {
	if pm == nil || !pm.enabled {
		return
	}
	if occupied {
		pm.mailboxOccupied.Set(1)
	} else {
		pm.mailboxOccupied.Set(0)
	}
}
