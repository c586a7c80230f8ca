package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	registry          *prometheus.Registry
	EventsTotal       *prometheus.CounterVec
	MalformedTotal    prometheus.Counter
	EntriesEmitted    prometheus.Counter
	EntriesFiltered   *prometheus.CounterVec
	PagesEmitted      prometheus.Counter
	OrphanFramesTotal prometheus.Counter
}

func NewMetrics() *Metrics {
	r := prometheus.NewRegistry()
	m := &Metrics{
		registry: r,
		EventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hardy_har",
			Name:      "events_total",
			Help:      "Total debugger events dispatched",
		}, []string{"domain"}),
		MalformedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hardy_har",
			Name:      "malformed_events_total",
			Help:      "Total events dropped for undecodable payloads",
		}),
		EntriesEmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hardy_har",
			Name:      "entries_emitted_total",
			Help:      "Total archive entries emitted",
		}),
		EntriesFiltered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hardy_har",
			Name:      "entries_filtered_total",
			Help:      "Total transactions excluded from the archive by reason",
		}, []string{"reason"}),
		PagesEmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hardy_har",
			Name:      "pages_emitted_total",
			Help:      "Total archive pages emitted",
		}),
		OrphanFramesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hardy_har",
			Name:      "orphan_frames_total",
			Help:      "Total frame attachments dropped for unknown parents",
		}),
	}
	r.MustRegister(m.EventsTotal, m.MalformedTotal, m.EntriesEmitted, m.EntriesFiltered, m.PagesEmitted, m.OrphanFramesTotal)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }
