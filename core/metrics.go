package core

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"
)

type metrics struct {
	registerer prometheus.Registerer
	registered []prometheus.Collector

	sets            prometheus.Counter
	gets            prometheus.Counter
	getMisses       prometheus.Counter
	removes         prometheus.Counter
	replayedRecords prometheus.Counter
	tornTailRepairs prometheus.Counter

	keys       prometheus.Gauge
	logSize    prometheus.Gauge
	staleBytes prometheus.Gauge
}

func newMetrics(r prometheus.Registerer) (*metrics, error) {
	m := &metrics{
		registerer: r,
		sets: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "sets",
			Help:      "number of set records appended",
		}),
		gets: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "gets",
			Help:      "number of get calls",
		}),
		getMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "get_misses",
			Help:      "number of get calls for keys with no value",
		}),
		removes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "removes",
			Help:      "number of remove records appended",
		}),
		replayedRecords: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "replayed_records",
			Help:      "number of records replayed while opening the store",
		}),
		tornTailRepairs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "torn_tail_repairs",
			Help:      "number of incomplete trailing records cut off at open",
		}),
		keys: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "keys",
			Help:      "number of keys with a value",
		}),
		logSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "log_size_bytes",
			Help:      "size of the log file",
		}),
		staleBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "stale_bytes",
			Help:      "number of log bytes no longer reachable from the index",
		}),
	}
	if r == nil {
		return m, nil
	}

	var errs error
	for _, c := range m.collectors() {
		if err := r.Register(c); err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		m.registered = append(m.registered, c)
	}
	if errs != nil {
		m.unregister()
		return nil, errs
	}
	return m, nil
}

func (m *metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.sets,
		m.gets,
		m.getMisses,
		m.removes,
		m.replayedRecords,
		m.tornTailRepairs,
		m.keys,
		m.logSize,
		m.staleBytes,
	}
}

// unregister removes only what newMetrics registered, so that a failed
// registration never takes down collectors owned by another store.
func (m *metrics) unregister() {
	for _, c := range m.registered {
		m.registerer.Unregister(c)
	}
	m.registered = nil
}
