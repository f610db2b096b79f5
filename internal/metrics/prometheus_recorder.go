package metrics

import (
	"net/http"
	"sync"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "habit_bot"

// PrometheusRecorder implements Recorder using Prometheus counters.
type PrometheusRecorder struct {
	once          sync.Once
	events        *prom.CounterVec
	habitsCreated prom.Counter
	checkins      *prom.CounterVec
	storageErrors *prom.CounterVec
}

// NewPrometheusRecorder constructs and registers the bot's metrics on reg.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}

	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.events = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Inbound events by kind",
		}, []string{"kind"})
		pr.habitsCreated = prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "habits_created_total",
			Help:      "Habits committed by the creation dialogue",
		})
		pr.checkins = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "checkins_total",
			Help:      "Checkin toggles by result",
		}, []string{"result"})
		pr.storageErrors = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "storage_errors_total",
			Help:      "Store operations that failed as unavailable",
		}, []string{"op"})
		reg.MustRegister(pr.events, pr.habitsCreated, pr.checkins, pr.storageErrors)
	})

	return pr
}

func (p *PrometheusRecorder) IncEvent(kind string) {
	if p == nil || p.events == nil {
		return
	}
	p.events.WithLabelValues(kind).Inc()
}

func (p *PrometheusRecorder) IncHabitCreated() {
	if p == nil || p.habitsCreated == nil {
		return
	}
	p.habitsCreated.Inc()
}

func (p *PrometheusRecorder) IncCheckin(result CheckinResult) {
	if p == nil || p.checkins == nil {
		return
	}
	p.checkins.WithLabelValues(string(result)).Inc()
}

func (p *PrometheusRecorder) IncStorageError(op string) {
	if p == nil || p.storageErrors == nil {
		return
	}
	p.storageErrors.WithLabelValues(op).Inc()
}

// HTTPHandler serves the metrics registered on reg.
func HTTPHandler(reg *prom.Registry) http.Handler {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
