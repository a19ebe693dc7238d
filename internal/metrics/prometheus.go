package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const promNamespace = "scoria"

type promCounter struct {
	counter prometheus.Counter
}

func (p promCounter) Inc() {
	p.counter.Inc()
}

type Prometheus struct {
	Metrics *Metrics

	registry        *prometheus.Registry
	instantiations  prometheus.Counter
	scoresUpdated   prometheus.Counter
	updatesRejected prometheus.Counter
	queriesServed   prometheus.Counter
	queriesNotFound prometheus.Counter
	storageFailures prometheus.Counter
	txRejected      prometheus.Counter
	eventsDropped   prometheus.Counter
}

func newCounter(name, help string) prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: promNamespace,
		Name:      name,
		Help:      help,
	})
}

func NewPrometheus() *Prometheus {
	registry := prometheus.NewRegistry()
	p := &Prometheus{
		registry:        registry,
		instantiations:  newCounter("instantiations_total", "Total number of successful instantiations."),
		scoresUpdated:   newCounter("scores_updated_total", "Total number of applied score updates."),
		updatesRejected: newCounter("updates_rejected_total", "Total number of score updates rejected as unauthorized."),
		queriesServed:   newCounter("queries_served_total", "Total number of score queries answered with a value."),
		queriesNotFound: newCounter("queries_not_found_total", "Total number of score queries for unknown addresses."),
		storageFailures: newCounter("storage_failures_total", "Total number of calls failed by the backing store."),
		txRejected:      newCounter("tx_rejected_total", "Total number of transactions rejected before dispatch."),
		eventsDropped:   newCounter("events_dropped_total", "Total number of events dropped for slow subscribers."),
	}
	registry.MustRegister(
		p.instantiations,
		p.scoresUpdated,
		p.updatesRejected,
		p.queriesServed,
		p.queriesNotFound,
		p.storageFailures,
		p.txRejected,
		p.eventsDropped,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	p.Metrics = &Metrics{
		Instantiations:  promCounter{p.instantiations},
		ScoresUpdated:   promCounter{p.scoresUpdated},
		UpdatesRejected: promCounter{p.updatesRejected},
		QueriesServed:   promCounter{p.queriesServed},
		QueriesNotFound: promCounter{p.queriesNotFound},
		StorageFailures: promCounter{p.storageFailures},
		TxRejected:      promCounter{p.txRejected},
		EventsDropped:   promCounter{p.eventsDropped},
	}
	return p
}

func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}
