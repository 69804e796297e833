package master

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors describing master activity.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	liveWorkers  *prometheus.GaugeVec
	tasks        *prometheus.CounterVec
	tryAgain     *prometheus.CounterVec
	failures     *prometheus.CounterVec
	runs         *prometheus.CounterVec
	taskDuration *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg.
// Collectors already registered under the same names are reused, so several
// masters can share one registry.
func NewMetrics(namespace string, reg prometheus.Registerer) (*Metrics, error) {
	if namespace == "" {
		namespace = "taskmaster"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		liveWorkers: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "live_workers",
			Help:      "Number of live worker goroutines.",
		}, []string{"master"}),
		tasks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_total",
			Help:      "Total number of tasks executed.",
		}, []string{"master", "status"}),
		tryAgain: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "try_again_total",
			Help:      "Total number of try-again answers from task providers.",
		}, []string{"master"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "worker_failures_total",
			Help:      "Total number of fatal worker errors, including suppressed ones.",
		}, []string{"master"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Total number of ManageTasks calls by outcome.",
		}, []string{"master", "outcome"}),
		taskDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "task_duration_seconds",
			Help:      "Worker function execution time.",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
		}, []string{"master"}),
	}

	var err error
	if m.liveWorkers, err = registerCollector(reg, m.liveWorkers); err != nil {
		return nil, err
	}
	if m.tasks, err = registerCollector(reg, m.tasks); err != nil {
		return nil, err
	}
	if m.tryAgain, err = registerCollector(reg, m.tryAgain); err != nil {
		return nil, err
	}
	if m.failures, err = registerCollector(reg, m.failures); err != nil {
		return nil, err
	}
	if m.runs, err = registerCollector(reg, m.runs); err != nil {
		return nil, err
	}
	if m.taskDuration, err = registerCollector(reg, m.taskDuration); err != nil {
		return nil, err
	}

	return m, nil
}

func (m *Metrics) workerStarted(name string) {
	if m == nil {
		return
	}
	m.liveWorkers.WithLabelValues(name).Inc()
}

func (m *Metrics) workerExited(name string) {
	if m == nil {
		return
	}
	m.liveWorkers.WithLabelValues(name).Dec()
}

func (m *Metrics) taskDone(name string, d time.Duration, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.tasks.WithLabelValues(name, status).Inc()
	m.taskDuration.WithLabelValues(name).Observe(d.Seconds())
}

func (m *Metrics) tryAgainPolled(name string) {
	if m == nil {
		return
	}
	m.tryAgain.WithLabelValues(name).Inc()
}

func (m *Metrics) workerFailed(name string) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(name).Inc()
}

func (m *Metrics) runFinished(name string, err error) {
	if m == nil {
		return
	}
	outcome := "completed"
	switch {
	case err == nil:
	case IsCancelled(err):
		outcome = "cancelled"
	default:
		outcome = "failed"
	}
	m.runs.WithLabelValues(name, outcome).Inc()
}

func registerCollector[C prometheus.Collector](reg prometheus.Registerer, collector C) (C, error) {
	err := reg.Register(collector)
	if err == nil {
		return collector, nil
	}

	var alreadyRegistered prometheus.AlreadyRegisteredError
	if errors.As(err, &alreadyRegistered) {
		existing, ok := alreadyRegistered.ExistingCollector.(C)
		if !ok {
			return collector, fmt.Errorf("collector type mismatch for %T", collector)
		}
		return existing, nil
	}

	return collector, err
}
